package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/kira-labs/mintkit/pkg/solana"
	"github.com/kira-labs/mintkit/pkg/solana/system"
)

// AssociatedTokenAccountProgramKey is the address of the associated token account program that should be used.
//
// Current key: ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
var AssociatedTokenAccountProgramKey = ed25519.PublicKey{140, 151, 37, 143, 78, 36, 137, 241, 187, 61, 16, 41, 20, 142, 13, 131, 11, 90, 19, 153, 218, 255, 16, 132, 4, 142, 123, 216, 219, 233, 248, 89}

// CreateIdempotent variant of the associated token account program.
const createIdempotentCommand byte = 1

// GetAssociatedAccount returns the associated account address for a token.
//
// The derivation is a pure function of the wallet and mint: it never
// consults the network and always yields the same address for the same
// inputs.
//
// Reference: https://spl.solana.com/associated-token-account#finding-the-associated-token-account-address
func GetAssociatedAccount(wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(
		AssociatedTokenAccountProgramKey,
		wallet,
		ProgramKey,
		mint,
	)
}

// CreateAssociatedTokenAccountIdempotent creates the associated token
// account for the wallet, succeeding as a no-op when the account already
// exists with the expected layout.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/associated-token-account/program/src/instruction.rs#L31-L42
func CreateAssociatedTokenAccountIdempotent(payer, wallet, mint ed25519.PublicKey) (solana.Instruction, ed25519.PublicKey, error) {
	addr, err := GetAssociatedAccount(wallet, mint)
	if err != nil {
		return solana.Instruction{}, nil, err
	}

	return solana.NewInstruction(
		AssociatedTokenAccountProgramKey,
		[]byte{createIdempotentCommand},
		solana.NewAccountMeta(payer, true),
		solana.NewAccountMeta(addr, false),
		solana.NewReadonlyAccountMeta(wallet, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(ProgramKey, false),
	), addr, nil
}

type DecompiledCreateAssociatedAccount struct {
	Payer   ed25519.PublicKey
	Address ed25519.PublicKey
	Owner   ed25519.PublicKey
	Mint    ed25519.PublicKey
}

func DecompileCreateAssociatedAccount(m solana.Message, index int) (*DecompiledCreateAssociatedAccount, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], AssociatedTokenAccountProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) != 1 || i.Data[0] != createIdempotentCommand {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 6 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected %d)", len(i.Accounts), 6)
	}

	if !bytes.Equal(m.Accounts[i.Accounts[4]], system.ProgramKey[:]) {
		return nil, errors.Errorf("system program key mismatch")
	}
	if !bytes.Equal(m.Accounts[i.Accounts[5]], ProgramKey) {
		return nil, errors.Errorf("token program key mismatch")
	}

	return &DecompiledCreateAssociatedAccount{
		Payer:   m.Accounts[i.Accounts[0]],
		Address: m.Accounts[i.Accounts[1]],
		Owner:   m.Accounts[i.Accounts[2]],
		Mint:    m.Accounts[i.Accounts[3]],
	}, nil
}
