package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/kira-labs/mintkit/pkg/solana"
	"github.com/kira-labs/mintkit/pkg/solana/system"
)

// ProgramKey is the address of the Token-2022 program.
//
// Current key: TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 238, 117, 143, 222, 24, 66, 93, 188, 228, 108, 205, 218, 182, 26, 252, 77, 131, 185, 13, 39, 254, 189, 249, 40, 216, 161, 139, 252}

type Command byte

// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program-2022/src/instruction.rs
const (
	CommandInitializeMint Command = iota
	CommandInitializeAccount
	// nolint:varcheck,deadcode,unused
	CommandInitializeMultisig
	// nolint:varcheck,deadcode,unused
	CommandTransfer
	// nolint:varcheck,deadcode,unused
	CommandApprove
	// nolint:varcheck,deadcode,unused
	CommandRevoke
	CommandSetAuthority
	CommandMintTo
	// nolint:varcheck,deadcode,unused
	CommandBurn
	CommandCloseAccount
	// nolint:varcheck,deadcode,unused
	CommandFreezeAccount
	// nolint:varcheck,deadcode,unused
	CommandThawAccount
	// nolint:varcheck,deadcode,unused
	CommandTransferChecked
	// nolint:varcheck,deadcode,unused
	CommandApproveChecked
	CommandMintToChecked
	// nolint:varcheck,deadcode,unused
	CommandBurnChecked

	CommandUnknown = Command(math.MaxUint8)
)

// CommandMetadataPointerExtension carries the metadata-pointer extension
// sub-instructions.
const CommandMetadataPointerExtension Command = 39

const (
	metadataPointerInitialize byte = iota
	// nolint:varcheck,deadcode,unused
	metadataPointerUpdate
)

const (
	// nolint:varcheck,deadcode,unused
	ErrorNotRentExempt solana.CustomError = iota
	// nolint:varcheck,deadcode,unused
	ErrorInsufficientFunds
	// nolint:varcheck,deadcode,unused
	ErrorInvalidMint
	// nolint:varcheck,deadcode,unused
	ErrorMintMismatch
	// nolint:varcheck,deadcode,unused
	ErrorOwnerMismatch
	// nolint:varcheck,deadcode,unused
	ErrorFixedSupply
	ErrorAlreadyInUse
	// nolint:varcheck,deadcode,unused
	ErrorInvalidNumberOfProvidedSigners
	// nolint:varcheck,deadcode,unused
	ErrorInvalidNumberOfRequiredSigners
	// nolint:varcheck,deadcode,unused
	ErrorUninitializedState
)

func GetCommand(m solana.Message, index int) (Command, error) {
	if index >= len(m.Instructions) {
		return CommandUnknown, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// InitializeMint initializes a new mint. The account must already exist,
// be owned by the token program, and be sized for every extension it
// carries; extension initialization instructions must precede this one.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program-2022/src/instruction.rs#L40-L63
func InitializeMint(mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals uint8) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	//   1. `[]` Rent sysvar
	data := []byte{byte(CommandInitializeMint), decimals}
	data = append(data, mintAuthority...)
	if len(freezeAuthority) > 0 {
		data = append(data, 1)
		data = append(data, freezeAuthority...)
	} else {
		data = append(data, 0)
	}

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeMint struct {
	Mint            ed25519.PublicKey
	Decimals        uint8
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
}

func DecompileInitializeMint(m solana.Message, index int) (*DecompiledInitializeMint, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, []byte{byte(CommandInitializeMint)}) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !bytes.Equal(system.RentSysVar, m.Accounts[i.Accounts[1]]) {
		return nil, errors.Errorf("invalid rent sysvar")
	}
	if len(i.Data) != 35 && len(i.Data) != 67 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	if i.Data[34] == 0 && len(i.Data) != 35 {
		return nil, errors.Errorf("invalid instruction data size: %d (expect 35)", len(i.Data))
	}
	if i.Data[34] == 1 && len(i.Data) != 67 {
		return nil, errors.Errorf("invalid instruction data size: %d (expect 67)", len(i.Data))
	}

	v := &DecompiledInitializeMint{
		Mint:     m.Accounts[i.Accounts[0]],
		Decimals: i.Data[1],
	}
	v.MintAuthority = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(v.MintAuthority, i.Data[2:])

	if i.Data[34] == 1 {
		v.FreezeAuthority = make(ed25519.PublicKey, ed25519.PublicKeySize)
		copy(v.FreezeAuthority, i.Data[35:])
	}

	return v, nil
}

// InitializeMetadataPointer wires the metadata-pointer extension on a mint.
// It must be issued before InitializeMint, since the extension occupies
// account space the mint initialization expects to be configured already.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program-2022/src/extension/metadata_pointer/instruction.rs
func InitializeMetadataPointer(mint, authority, metadataAddress ed25519.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	data := make([]byte, 2+2*ed25519.PublicKeySize)
	data[0] = byte(CommandMetadataPointerExtension)
	data[1] = metadataPointerInitialize
	copy(data[2:], authority)
	copy(data[2+ed25519.PublicKeySize:], metadataAddress)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(mint, false),
	)
}

type DecompiledInitializeMetadataPointer struct {
	Mint            ed25519.PublicKey
	Authority       ed25519.PublicKey
	MetadataAddress ed25519.PublicKey
}

func DecompileInitializeMetadataPointer(m solana.Message, index int) (*DecompiledInitializeMetadataPointer, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, []byte{byte(CommandMetadataPointerExtension), metadataPointerInitialize}) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 1 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 2+2*ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledInitializeMetadataPointer{
		Mint: m.Accounts[i.Accounts[0]],
	}
	v.Authority = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(v.Authority, i.Data[2:])
	v.MetadataAddress = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(v.MetadataAddress, i.Data[2+ed25519.PublicKeySize:])

	return v, nil
}

// MintTo issues `amount` raw units of the mint into the destination
// account. The amount is in the mint's smallest unit; scaling by
// 10^decimals is the caller's responsibility.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program-2022/src/instruction.rs#L180-L195
func MintTo(mint, dest, authority ed25519.PublicKey, amount uint64) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single authority
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[signer]` The mint's minting authority.
	data := make([]byte, 1+8)
	data[0] = byte(CommandMintTo)
	binary.LittleEndian.PutUint64(data[1:], amount)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

type DecompiledMintTo struct {
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Authority   ed25519.PublicKey
	Amount      uint64
}

func DecompileMintTo(m solana.Message, index int) (*DecompiledMintTo, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, []byte{byte(CommandMintTo)}) {
		return nil, solana.ErrIncorrectInstruction
	}
	// note: we do < 3 instead of != 3 in order to support multisig cases.
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 9 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledMintTo{
		Mint:        m.Accounts[i.Accounts[0]],
		Destination: m.Accounts[i.Accounts[1]],
		Authority:   m.Accounts[i.Accounts[2]],
	}
	v.Amount = binary.LittleEndian.Uint64(i.Data[1:])
	return v, nil
}
