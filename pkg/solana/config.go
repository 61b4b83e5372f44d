package solana

// Environment is the RPC endpoint of a well-known public cluster.
type Environment string

const (
	EnvironmentDev  Environment = "https://api.devnet.solana.com"
	EnvironmentTest Environment = "https://api.testnet.solana.com"
	EnvironmentProd Environment = "https://api.mainnet-beta.solana.com"
)

// NewForEnvironment returns a client for one of the public clusters.
func NewForEnvironment(env Environment) Client {
	return New(string(env))
}
