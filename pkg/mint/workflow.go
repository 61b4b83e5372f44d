package mint

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kira-labs/mintkit/pkg/solana"
	"github.com/kira-labs/mintkit/pkg/solana/system"
	"github.com/kira-labs/mintkit/pkg/solana/token"
)

// Connection is the ledger-connection collaborator. solana.Client
// satisfies it.
type Connection interface {
	GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error)
	GetLatestBlockhash() (solana.Blockhash, error)
}

// Wallet is the fee-payer collaborator. It supplies the fee-payer
// signature for a prepared transaction and submits it over the provided
// connection.
type Wallet interface {
	PublicKey() ed25519.PublicKey
	SendTransaction(txn solana.Transaction, conn Connection) (solana.Signature, error)
}

// Stage identifies which part of the workflow an error came from.
type Stage int

const (
	StagePlanLayout Stage = iota
	StageInitializeMint
	StageProvisionHolder
	StageMintSupply
)

func (s Stage) String() string {
	switch s {
	case StagePlanLayout:
		return "plan_layout"
	case StageInitializeMint:
		return "initialize_mint"
	case StageProvisionHolder:
		return "provision_holder"
	case StageMintSupply:
		return "mint_supply"
	default:
		return "unknown"
	}
}

// StageError reports a workflow failure along with the stage that
// produced it. Stages after the second run as separate submissions, so
// the caller needs the stage to know what on-chain state already exists.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func newStageError(stage Stage, err error) *StageError {
	return &StageError{
		Stage: stage,
		Err:   err,
	}
}

// Params are the caller-supplied inputs to a mint creation.
type Params struct {
	Name   string
	Symbol string
	URI    string

	// Optional key/value pairs written after the base metadata fields,
	// in order.
	AdditionalMetadata [][2]string

	Decimals uint8

	// InitialSupply is expressed in the mint's smallest unit, already
	// scaled by 10^Decimals.
	InitialSupply uint64
}

// Result describes a completed mint creation.
type Result struct {
	Mint          ed25519.PublicKey
	HolderAccount ed25519.PublicKey
	Layout        AccountLayout

	InitializeSignature solana.Signature
	ProvisionSignature  solana.Signature
	MintSignature       solana.Signature
}

// Workflow provisions a new token mint in four stages: plan the account
// layout, create and initialize the mint, provision the fee payer's
// holder account, and issue the initial supply.
//
// Stages run strictly in order, each of the last three as its own
// transaction. A failure after the mint transaction lands leaves a
// valid mint with no holder account or supply; the StageError tells the
// caller how far the run got.
type Workflow struct {
	log    *logrus.Entry
	wallet Wallet
	conn   Connection
}

// NewWorkflow creates a workflow over the provided wallet and
// connection.
func NewWorkflow(wallet Wallet, conn Connection) *Workflow {
	return &Workflow{
		log:    logrus.StandardLogger().WithField("type", "mint/workflow"),
		wallet: wallet,
		conn:   conn,
	}
}

// CreateMint runs the full provisioning workflow.
//
// The mint lives at the public key of a keypair generated for this call.
// Its private key co-signs the initializing transaction and is dropped
// when this method returns; the fee payer is left as mint and metadata
// update authority.
func (w *Workflow) CreateMint(p Params) (*Result, error) {
	payer := w.wallet.PublicKey()

	mintPub, mintPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, newStageError(StagePlanLayout, errors.Wrap(err, "failed to generate mint keypair"))
	}

	log := w.log.WithFields(logrus.Fields{
		"method": "CreateMint",
		"mint":   base58.Encode(mintPub),
	})

	meta := &token.Metadata{
		UpdateAuthority:    payer,
		Mint:               mintPub,
		Name:               p.Name,
		Symbol:             p.Symbol,
		URI:                p.URI,
		AdditionalMetadata: p.AdditionalMetadata,
	}

	layout, err := PlanLayout(w.conn, meta)
	if err != nil {
		return nil, newStageError(StagePlanLayout, err)
	}

	result := &Result{
		Mint:   mintPub,
		Layout: *layout,
	}

	result.InitializeSignature, err = w.initializeMint(payer, mintPub, mintPriv, layout, p)
	if err != nil {
		return nil, newStageError(StageInitializeMint, err)
	}
	log.WithField("signature", base58.Encode(result.InitializeSignature[:])).Debug("mint initialized")

	result.HolderAccount, result.ProvisionSignature, err = w.provisionHolder(payer, mintPub)
	if err != nil {
		return nil, newStageError(StageProvisionHolder, err)
	}

	result.MintSignature, err = w.mintSupply(payer, mintPub, result.HolderAccount, p.InitialSupply)
	if err != nil {
		return nil, newStageError(StageMintSupply, err)
	}
	log.WithField("holder", base58.Encode(result.HolderAccount)).Debug("initial supply minted")

	return result, nil
}

// initializeMint builds and submits the single atomic transaction that
// creates the mint account and fully configures it. Instruction order
// is required: the account must exist before the metadata pointer is
// set, the pointer before mint initialization, and the metadata write
// assumes a valid extension-configured mint.
func (w *Workflow) initializeMint(payer, mintPub ed25519.PublicKey, mintPriv ed25519.PrivateKey, layout *AccountLayout, p Params) (solana.Signature, error) {
	initMetadata, err := token.InitializeMetadata(mintPub, payer, mintPub, payer, p.Name, p.Symbol, p.URI)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions := []solana.Instruction{
		system.CreateAccount(payer, mintPub, token.ProgramKey, layout.RentLamports, layout.TotalSize()),
		token.InitializeMetadataPointer(mintPub, payer, mintPub),
		token.InitializeMint(mintPub, payer, nil, p.Decimals),
		initMetadata,
	}
	for _, kv := range p.AdditionalMetadata {
		updateField, err := token.UpdateMetadataField(mintPub, payer, kv[0], kv[1])
		if err != nil {
			return solana.Signature{}, err
		}
		instructions = append(instructions, updateField)
	}

	txn := solana.NewTransaction(payer, instructions...)

	bh, err := w.conn.GetLatestBlockhash()
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to get latest blockhash")
	}
	txn.SetBlockhash(bh)

	// The mint keypair proves ownership of the newly created address;
	// the wallet adds the fee payer signature on submission.
	if err := txn.Sign(mintPriv); err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to sign with mint keypair")
	}

	return w.wallet.SendTransaction(txn, w.conn)
}

// provisionHolder ensures the fee payer's associated token account for
// the mint exists. The derivation is deterministic, and an account that
// already exists is treated as a successful no-op.
func (w *Workflow) provisionHolder(payer, mintPub ed25519.PublicKey) (ed25519.PublicKey, solana.Signature, error) {
	createHolder, holder, err := token.CreateAssociatedTokenAccountIdempotent(payer, payer, mintPub)
	if err != nil {
		return nil, solana.Signature{}, err
	}

	txn := solana.NewTransaction(payer, createHolder)

	bh, err := w.conn.GetLatestBlockhash()
	if err != nil {
		return nil, solana.Signature{}, errors.Wrap(err, "failed to get latest blockhash")
	}
	txn.SetBlockhash(bh)

	sig, err := w.wallet.SendTransaction(txn, w.conn)
	if err != nil {
		if isAlreadyInUse(err) {
			w.log.WithField("holder", base58.Encode(holder)).Debug("holder account already exists")
			return holder, sig, nil
		}
		return nil, solana.Signature{}, err
	}

	return holder, sig, nil
}

// mintSupply issues the initial supply into the holder account. The fee
// payer signs as mint authority.
func (w *Workflow) mintSupply(payer, mintPub, holder ed25519.PublicKey, amount uint64) (solana.Signature, error) {
	txn := solana.NewTransaction(payer, token.MintTo(mintPub, holder, payer, amount))

	bh, err := w.conn.GetLatestBlockhash()
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to get latest blockhash")
	}
	txn.SetBlockhash(bh)

	return w.wallet.SendTransaction(txn, w.conn)
}

// isAlreadyInUse reports whether a submission error means the target
// account already exists, which the workflow treats as idempotent
// success.
//
// solana.Client.SubmitTransaction surfaces rejections as either a bare
// *InstructionError or a plain error whose message is the transaction
// error key; signature statuses carry the *TransactionError wrapper.
// All three shapes are handled.
func isAlreadyInUse(err error) bool {
	if err == nil {
		return false
	}

	var txErr *solana.TransactionError
	if errors.As(err, &txErr) {
		if txErr.ErrorKey() == solana.TransactionErrorAccountInUse {
			return true
		}
		return isInstructionAlreadyInUse(txErr.InstructionError())
	}

	var insErr *solana.InstructionError
	if errors.As(err, &insErr) {
		return isInstructionAlreadyInUse(insErr)
	}

	return err.Error() == string(solana.TransactionErrorAccountInUse)
}

func isInstructionAlreadyInUse(insErr *solana.InstructionError) bool {
	if insErr == nil {
		return false
	}

	switch insErr.ErrorKey() {
	case solana.InstructionErrorAccountAlreadyInitialized:
		return true
	case solana.InstructionErrorCustom:
		if custom := insErr.CustomError(); custom != nil && *custom == token.ErrorAlreadyInUse {
			return true
		}
	}

	return false
}
