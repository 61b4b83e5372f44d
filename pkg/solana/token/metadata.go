package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/kira-labs/mintkit/pkg/solana"
)

// Token metadata interface instruction discriminators: the first 8 bytes
// of sha256("spl_token_metadata_interface:<instruction>").
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token-metadata/interface/src/instruction.rs
var (
	initializeMetadataDiscriminator  = []byte{210, 225, 30, 162, 88, 184, 77, 141}
	updateMetadataFieldDiscriminator = []byte{221, 233, 49, 45, 181, 202, 220, 200}
)

// Field::Key variant of the metadata field enum; Name, Symbol and URI are
// written by InitializeMetadata and never updated through this library.
const metadataFieldKey byte = 3

// Metadata is the token-metadata-interface state attached to a mint.
// The zero-value update authority means the metadata is immutable.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token-metadata/interface/src/state.rs
type Metadata struct {
	UpdateAuthority ed25519.PublicKey
	Mint            ed25519.PublicKey
	Name            string
	Symbol          string
	URI             string

	// Ordered key/value pairs beyond the base fields. Empty by default.
	AdditionalMetadata [][2]string
}

// metadataLayout is the borsh wire form of Metadata. The authority and
// mint are raw 32-byte values (zeroed = none), not borsh options.
type metadataLayout struct {
	UpdateAuthority    [32]uint8
	Mint               [32]uint8
	Name               string
	Symbol             string
	URI                string
	AdditionalMetadata [][2]string
}

// Pack serializes the metadata with the stable, versionless layout used
// on-chain. The exact same packing backs both account sizing and the
// initialize-metadata instruction, so the two can never disagree.
func (m *Metadata) Pack() ([]byte, error) {
	layout := metadataLayout{
		Name:               m.Name,
		Symbol:             m.Symbol,
		URI:                m.URI,
		AdditionalMetadata: m.AdditionalMetadata,
	}
	copy(layout.UpdateAuthority[:], m.UpdateAuthority)
	copy(layout.Mint[:], m.Mint)

	packed, err := borsh.Serialize(layout)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize metadata")
	}

	return packed, nil
}

// Unpack decodes metadata from its packed form.
func (m *Metadata) Unpack(b []byte) error {
	var layout metadataLayout
	if err := borsh.Deserialize(&layout, b); err != nil {
		return errors.Wrap(err, "failed to deserialize metadata")
	}

	m.UpdateAuthority = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(m.UpdateAuthority, layout.UpdateAuthority[:])
	m.Mint = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(m.Mint, layout.Mint[:])
	m.Name = layout.Name
	m.Symbol = layout.Symbol
	m.URI = layout.URI
	m.AdditionalMetadata = layout.AdditionalMetadata

	return nil
}

// GetMetadata extracts and decodes the token metadata TLV entry from a raw
// mint account image.
func GetMetadata(accountData []byte) (*Metadata, error) {
	data := GetExtensionData(accountData, ExtensionTokenMetadata)
	if data == nil {
		return nil, errors.New("mint doesn't carry token metadata")
	}

	var m Metadata
	if err := m.Unpack(data); err != nil {
		return nil, err
	}

	return &m, nil
}

type initializeMetadataArgs struct {
	Name   string
	Symbol string
	URI    string
}

// InitializeMetadata writes the name, symbol and uri into the metadata
// TLV entry. The account must already be a valid mint with the
// metadata-pointer extension configured, so this instruction comes after
// mint initialization.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token-metadata/interface/src/instruction.rs#L22-L43
func InitializeMetadata(metadata, updateAuthority, mint, mintAuthority ed25519.PublicKey, name, symbol, uri string) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` Metadata account (the mint itself when pointed at itself)
	//   1. `[]` Update authority
	//   2. `[]` Mint
	//   3. `[signer]` Mint authority
	packed, err := borsh.Serialize(initializeMetadataArgs{
		Name:   name,
		Symbol: symbol,
		URI:    uri,
	})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to serialize metadata args")
	}

	data := make([]byte, 0, len(initializeMetadataDiscriminator)+len(packed))
	data = append(data, initializeMetadataDiscriminator...)
	data = append(data, packed...)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(metadata, false),
		solana.NewReadonlyAccountMeta(updateAuthority, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(mintAuthority, true),
	), nil
}

type DecompiledInitializeMetadata struct {
	Metadata        ed25519.PublicKey
	UpdateAuthority ed25519.PublicKey
	Mint            ed25519.PublicKey
	MintAuthority   ed25519.PublicKey

	Name   string
	Symbol string
	URI    string
}

func DecompileInitializeMetadata(m solana.Message, index int) (*DecompiledInitializeMetadata, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, initializeMetadataDiscriminator) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	var args initializeMetadataArgs
	if err := borsh.Deserialize(&args, i.Data[len(initializeMetadataDiscriminator):]); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize metadata args")
	}

	return &DecompiledInitializeMetadata{
		Metadata:        m.Accounts[i.Accounts[0]],
		UpdateAuthority: m.Accounts[i.Accounts[1]],
		Mint:            m.Accounts[i.Accounts[2]],
		MintAuthority:   m.Accounts[i.Accounts[3]],
		Name:            args.Name,
		Symbol:          args.Symbol,
		URI:             args.URI,
	}, nil
}

type updateMetadataFieldArgs struct {
	Key   string
	Value string
}

// UpdateMetadataField writes a single additional key/value pair into the
// metadata TLV entry, reallocating the account as needed. Only custom
// keys are supported; the base fields are fixed at initialization.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token-metadata/interface/src/instruction.rs#L45-L60
func UpdateMetadataField(metadata, updateAuthority ed25519.PublicKey, key, value string) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` Metadata account
	//   1. `[signer]` Update authority
	packed, err := borsh.Serialize(updateMetadataFieldArgs{
		Key:   key,
		Value: value,
	})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to serialize field args")
	}

	data := make([]byte, 0, len(updateMetadataFieldDiscriminator)+1+len(packed))
	data = append(data, updateMetadataFieldDiscriminator...)
	data = append(data, metadataFieldKey)
	data = append(data, packed...)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(metadata, false),
		solana.NewReadonlyAccountMeta(updateAuthority, true),
	), nil
}

type DecompiledUpdateMetadataField struct {
	Metadata        ed25519.PublicKey
	UpdateAuthority ed25519.PublicKey

	Key   string
	Value string
}

func DecompileUpdateMetadataField(m solana.Message, index int) (*DecompiledUpdateMetadataField, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, updateMetadataFieldDiscriminator) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) < len(updateMetadataFieldDiscriminator)+1 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	if i.Data[len(updateMetadataFieldDiscriminator)] != metadataFieldKey {
		return nil, errors.Errorf("unsupported metadata field variant: %d", i.Data[len(updateMetadataFieldDiscriminator)])
	}

	var args updateMetadataFieldArgs
	if err := borsh.Deserialize(&args, i.Data[len(updateMetadataFieldDiscriminator)+1:]); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize field args")
	}

	return &DecompiledUpdateMetadataField{
		Metadata:        m.Accounts[i.Accounts[0]],
		UpdateAuthority: m.Accounts[i.Accounts[1]],
		Key:             args.Key,
		Value:           args.Value,
	}, nil
}
