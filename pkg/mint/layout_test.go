package mint

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kira-labs/mintkit/pkg/solana/token"
)

func testMetadata(t *testing.T) *token.Metadata {
	payer, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	mintKey, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	return &token.Metadata{
		UpdateAuthority: payer,
		Mint:            mintKey,
		Name:            "KIRA",
		Symbol:          "KIR",
		URI:             "https://example.com/m.json",
	}
}

func TestPlanLayout(t *testing.T) {
	conn := &fakeConnection{rent: 2_039_280}

	meta := testMetadata(t)
	layout, err := PlanLayout(conn, meta)
	require.NoError(t, err)

	assert.EqualValues(t, 234, layout.BaseSize)

	packed, err := meta.Pack()
	require.NoError(t, err)
	assert.EqualValues(t, token.TypeSize+token.LengthSize+len(packed), layout.MetadataSize)

	assert.EqualValues(t, 2_039_280, layout.RentLamports)
	assert.Equal(t, layout.BaseSize+layout.MetadataSize, layout.TotalSize())

	// the rent schedule was queried for the full allocation
	require.Len(t, conn.rentCalls, 1)
	assert.Equal(t, layout.TotalSize(), conn.rentCalls[0])
}

func TestPlanLayout_Validation(t *testing.T) {
	conn := &fakeConnection{rent: 2_039_280}

	for _, tc := range []struct {
		mutate  func(*token.Metadata)
		message string
	}{
		{func(m *token.Metadata) { m.Name = "" }, "name is empty"},
		{func(m *token.Metadata) { m.Name = strings.Repeat("n", MaxNameLength+1) }, "name exceeds"},
		{func(m *token.Metadata) { m.Symbol = "" }, "symbol is empty"},
		{func(m *token.Metadata) { m.Symbol = strings.Repeat("s", MaxSymbolLength+1) }, "symbol exceeds"},
		{func(m *token.Metadata) { m.URI = "" }, "uri is empty"},
		{func(m *token.Metadata) { m.URI = "https://example.com/" + strings.Repeat("a", MaxURILength) }, "uri exceeds"},
		{func(m *token.Metadata) { m.AdditionalMetadata = [][2]string{{"", "value"}} }, "key is empty"},
		{func(m *token.Metadata) { m.AdditionalMetadata = [][2]string{{"key", string([]byte{0xff, 0xfe})}} }, "invalid utf-8"},
	} {
		meta := testMetadata(t)
		tc.mutate(meta)

		_, err := PlanLayout(conn, meta)
		require.Error(t, err)
		assert.Contains(t, err.Error(), tc.message)
	}

	// no network call is made for invalid metadata
	assert.Empty(t, conn.rentCalls)
}

func TestPlanLayout_NoTrimming(t *testing.T) {
	conn := &fakeConnection{rent: 2_039_280}

	meta := testMetadata(t)
	meta.Symbol = "KIR "

	layout, err := PlanLayout(conn, meta)
	require.NoError(t, err)

	trimmed := testMetadata(t)
	trimmed.Symbol = "KIR"
	trimmed.UpdateAuthority = meta.UpdateAuthority
	trimmed.Mint = meta.Mint

	other, err := PlanLayout(conn, trimmed)
	require.NoError(t, err)

	// the trailing space accounts for exactly one byte
	assert.Equal(t, layout.MetadataSize, other.MetadataSize+1)
}
