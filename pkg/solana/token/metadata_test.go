package token

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kira-labs/mintkit/pkg/solana"
)

func TestMetadataDiscriminators(t *testing.T) {
	initialize := sha256.Sum256([]byte("spl_token_metadata_interface:initialize_account"))
	assert.EqualValues(t, initialize[:8], initializeMetadataDiscriminator)

	update := sha256.Sum256([]byte("spl_token_metadata_interface:updating_field"))
	assert.EqualValues(t, update[:8], updateMetadataFieldDiscriminator)
}

func TestMetadata_RoundTrip(t *testing.T) {
	keys := generateKeys(t, 2)

	meta := &Metadata{
		UpdateAuthority: keys[0],
		Mint:            keys[1],
		Name:            "KIRA",
		Symbol:          "KIR",
		URI:             "https://example.com/m.json",
		AdditionalMetadata: [][2]string{
			{"website", "https://example.com"},
		},
	}

	packed, err := meta.Pack()
	require.NoError(t, err)

	// 32 + 32 fixed keys, three length-prefixed strings, one
	// length-prefixed vec of one (string, string) pair.
	expectedLen := 64 +
		4 + len(meta.Name) +
		4 + len(meta.Symbol) +
		4 + len(meta.URI) +
		4 + 4 + len("website") + 4 + len("https://example.com")
	assert.Equal(t, expectedLen, len(packed))

	var decoded Metadata
	require.NoError(t, decoded.Unpack(packed))
	assert.Equal(t, keys[0], decoded.UpdateAuthority)
	assert.Equal(t, keys[1], decoded.Mint)
	assert.Equal(t, meta.Name, decoded.Name)
	assert.Equal(t, meta.Symbol, decoded.Symbol)
	assert.Equal(t, meta.URI, decoded.URI)
	assert.Equal(t, meta.AdditionalMetadata, decoded.AdditionalMetadata)
}

func TestMetadata_WhitespacePreserved(t *testing.T) {
	keys := generateKeys(t, 2)

	meta := &Metadata{
		UpdateAuthority: keys[0],
		Mint:            keys[1],
		Name:            "KIRA",
		Symbol:          "KIR ",
		URI:             " https://example.com/m.json ",
	}

	packed, err := meta.Pack()
	require.NoError(t, err)

	var decoded Metadata
	require.NoError(t, decoded.Unpack(packed))
	assert.Equal(t, "KIR ", decoded.Symbol)
	assert.Equal(t, " https://example.com/m.json ", decoded.URI)
	assert.Empty(t, decoded.AdditionalMetadata)
}

func TestInitializeMetadata(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction, err := InitializeMetadata(keys[0], keys[1], keys[0], keys[1], "KIRA", "KIR", "https://example.com/m.json")
	require.NoError(t, err)

	assert.EqualValues(t, initializeMetadataDiscriminator, instruction.Data[:8])

	require.Equal(t, 4, len(instruction.Accounts))
	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	for i := 1; i < 3; i++ {
		assert.False(t, instruction.Accounts[i].IsSigner)
		assert.False(t, instruction.Accounts[i].IsWritable)
	}
	assert.True(t, instruction.Accounts[3].IsSigner)
	assert.False(t, instruction.Accounts[3].IsWritable)

	decompiled, err := DecompileInitializeMetadata(solana.NewTransaction(keys[1], instruction).Message, 0)
	assert.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Metadata)
	assert.Equal(t, keys[1], decompiled.UpdateAuthority)
	assert.Equal(t, keys[0], decompiled.Mint)
	assert.Equal(t, keys[1], decompiled.MintAuthority)
	assert.Equal(t, "KIRA", decompiled.Name)
	assert.Equal(t, "KIR", decompiled.Symbol)
	assert.Equal(t, "https://example.com/m.json", decompiled.URI)

	// Mess with the instruction for validation
	instruction.Accounts = instruction.Accounts[:2]
	_, err = DecompileInitializeMetadata(solana.NewTransaction(keys[1], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "invalid number of accounts")

	instruction.Data = []byte{byte(CommandMintTo)}
	_, err = DecompileInitializeMetadata(solana.NewTransaction(keys[1], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = nil
	_, err = DecompileInitializeMetadata(solana.NewTransaction(keys[1], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[2]
	_, err = DecompileInitializeMetadata(solana.NewTransaction(keys[1], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestUpdateMetadataField(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction, err := UpdateMetadataField(keys[0], keys[1], "website", "https://example.com")
	require.NoError(t, err)

	assert.EqualValues(t, updateMetadataFieldDiscriminator, instruction.Data[:8])
	assert.EqualValues(t, metadataFieldKey, instruction.Data[8])

	require.Equal(t, 2, len(instruction.Accounts))
	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.True(t, instruction.Accounts[1].IsSigner)
	assert.False(t, instruction.Accounts[1].IsWritable)

	decompiled, err := DecompileUpdateMetadataField(solana.NewTransaction(keys[1], instruction).Message, 0)
	assert.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Metadata)
	assert.Equal(t, keys[1], decompiled.UpdateAuthority)
	assert.Equal(t, "website", decompiled.Key)
	assert.Equal(t, "https://example.com", decompiled.Value)

	// Mess with the instruction for validation
	instruction.Data[8] = 0
	_, err = DecompileUpdateMetadataField(solana.NewTransaction(keys[1], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "unsupported metadata field variant")

	instruction.Accounts = instruction.Accounts[:1]
	instruction.Data[8] = metadataFieldKey
	_, err = DecompileUpdateMetadataField(solana.NewTransaction(keys[1], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "invalid number of accounts")

	instruction.Data = nil
	_, err = DecompileUpdateMetadataField(solana.NewTransaction(keys[1], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[2]
	_, err = DecompileUpdateMetadataField(solana.NewTransaction(keys[1], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}
