package mint

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/kira-labs/mintkit/pkg/solana"
)

// TransactionSender is the submission surface a connection must expose
// for LocalWallet to send through it. solana.Client satisfies it.
type TransactionSender interface {
	SubmitTransaction(solana.Transaction, solana.Commitment) (solana.Signature, error)
	GetSignatureStatus(solana.Signature, solana.Commitment) (*solana.SignatureStatus, error)
}

// LocalWallet is a Wallet backed by an in-memory keypair. It signs as
// fee payer and submits through the connection it is handed.
//
// Production callers typically wrap an external wallet instead; this
// implementation serves CLIs and tests that hold their own key.
type LocalWallet struct {
	key        ed25519.PrivateKey
	commitment solana.Commitment
}

// NewLocalWallet creates a wallet around an existing private key.
// Submissions wait for confirmed commitment.
func NewLocalWallet(key ed25519.PrivateKey) *LocalWallet {
	return &LocalWallet{
		key:        key,
		commitment: solana.CommitmentConfirmed,
	}
}

func (w *LocalWallet) PublicKey() ed25519.PublicKey {
	return w.key.Public().(ed25519.PublicKey)
}

// SendTransaction adds the fee payer signature, submits, and waits for
// the wallet's commitment level. Signatures already present on the
// transaction are preserved.
//
// Submission skips preflight, so a rejection may only surface through
// the signature status; its error result is returned as-is.
func (w *LocalWallet) SendTransaction(txn solana.Transaction, conn Connection) (solana.Signature, error) {
	sender, ok := conn.(TransactionSender)
	if !ok {
		return solana.Signature{}, errors.New("connection cannot submit transactions")
	}

	if err := txn.Sign(w.key); err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to sign as fee payer")
	}

	sig, err := sender.SubmitTransaction(txn, w.commitment)
	if err != nil {
		return sig, err
	}

	status, err := sender.GetSignatureStatus(sig, w.commitment)
	if err != nil {
		return sig, errors.Wrap(err, "failed to confirm transaction")
	}
	if status != nil && status.ErrorResult != nil {
		return sig, status.ErrorResult
	}

	return sig, nil
}
