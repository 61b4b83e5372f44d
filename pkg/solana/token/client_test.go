package token

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kira-labs/mintkit/pkg/solana"
)

type fakeRPC struct {
	accountInfo    solana.AccountInfo
	accountInfoErr error

	balance      uint64
	balanceErr   error
	balanceCalls []ed25519.PublicKey
}

func (f *fakeRPC) GetAccountInfo(account ed25519.PublicKey, commitment solana.Commitment) (solana.AccountInfo, error) {
	if f.accountInfoErr != nil {
		return solana.AccountInfo{}, f.accountInfoErr
	}

	return f.accountInfo, nil
}

func (f *fakeRPC) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	return 0, nil
}

func (f *fakeRPC) GetLatestBlockhash() (solana.Blockhash, error) {
	return solana.Blockhash{}, nil
}

func (f *fakeRPC) GetSignatureStatus(sig solana.Signature, commitment solana.Commitment) (*solana.SignatureStatus, error) {
	return nil, nil
}

func (f *fakeRPC) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	return nil, nil
}

func (f *fakeRPC) GetTokenAccountBalance(account ed25519.PublicKey) (uint64, uint64, error) {
	f.balanceCalls = append(f.balanceCalls, account)
	if f.balanceErr != nil {
		return 0, 0, f.balanceErr
	}

	return f.balance, 42, nil
}

func (f *fakeRPC) SubmitTransaction(txn solana.Transaction, commitment solana.Commitment) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func TestClient_GetMint(t *testing.T) {
	keys := generateKeys(t, 2)
	rpc := &fakeRPC{
		accountInfo: solana.AccountInfo{
			Owner: ProgramKey,
			Data:  buildMintImage(t, keys),
		},
	}

	c := NewClient(rpc, keys[1])
	assert.EqualValues(t, keys[1], c.Mint())

	mint, err := c.GetMint(solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], mint.MintAuthority)
	assert.EqualValues(t, 9, mint.Decimals)
	assert.True(t, mint.IsInitialized)

	rpc.accountInfoErr = solana.ErrNoAccountInfo
	_, err = c.GetMint(solana.CommitmentFinalized)
	assert.Equal(t, ErrAccountNotFound, err)

	rpc.accountInfoErr = nil
	rpc.accountInfo.Owner = keys[0]
	_, err = c.GetMint(solana.CommitmentFinalized)
	assert.Equal(t, ErrInvalidMintAccount, err)

	uninitialized := Mint{
		MintAuthority: keys[0],
		Decimals:      9,
	}
	rpc.accountInfo.Owner = ProgramKey
	rpc.accountInfo.Data = uninitialized.Marshal()
	_, err = c.GetMint(solana.CommitmentFinalized)
	assert.Equal(t, ErrInvalidMintAccount, err)
}

func TestClient_GetMetadata(t *testing.T) {
	keys := generateKeys(t, 2)
	rpc := &fakeRPC{
		accountInfo: solana.AccountInfo{
			Owner: ProgramKey,
			Data:  buildMintImage(t, keys),
		},
	}

	c := NewClient(rpc, keys[1])

	metadata, err := c.GetMetadata(solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], metadata.UpdateAuthority)
	assert.EqualValues(t, keys[1], metadata.Mint)
	assert.Equal(t, "KIRA", metadata.Name)
	assert.Equal(t, "KIR", metadata.Symbol)
	assert.Equal(t, "https://example.com/m.json", metadata.URI)

	rpc.accountInfoErr = solana.ErrNoAccountInfo
	_, err = c.GetMetadata(solana.CommitmentFinalized)
	assert.Equal(t, ErrAccountNotFound, err)

	rpc.accountInfoErr = nil
	rpc.accountInfo.Owner = keys[0]
	_, err = c.GetMetadata(solana.CommitmentFinalized)
	assert.Equal(t, ErrInvalidMintAccount, err)
}

func TestClient_GetBalance(t *testing.T) {
	keys := generateKeys(t, 2)
	rpc := &fakeRPC{balance: 1_000_000_000}

	c := NewClient(rpc, keys[1])

	balance, err := c.GetBalance(keys[0])
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000_000, balance)

	// the balance is queried on the wallet's associated account
	expected, err := GetAssociatedAccount(keys[0], keys[1])
	require.NoError(t, err)
	require.Len(t, rpc.balanceCalls, 1)
	assert.EqualValues(t, expected, rpc.balanceCalls[0])

	rpc.balanceErr = solana.ErrNoBalance
	_, err = c.GetBalance(keys[0])
	assert.Equal(t, ErrAccountNotFound, err)
}
