package mint

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/kira-labs/mintkit/pkg/solana/token"
)

// Field bounds enforced before any network call. Values are byte lengths
// of the encoded strings, not rune counts.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

// AccountLayout is the storage plan for a mint account carrying the
// metadata-pointer extension and self-hosted metadata. All three fields
// are derived from the metadata value and the network's rent schedule
// and are never mutated after planning.
type AccountLayout struct {
	// BaseSize is the mint account size with the metadata-pointer
	// extension enabled. Fixed for a given extension set.
	BaseSize uint64

	// MetadataSize is the TLV entry size of the metadata record: the
	// type and length prefixes plus the packed metadata bytes.
	MetadataSize uint64

	// RentLamports is the minimum balance making an account of
	// BaseSize+MetadataSize bytes exempt from rent collection.
	RentLamports uint64
}

// TotalSize returns the full allocation for the mint account.
func (l AccountLayout) TotalSize() uint64 {
	return l.BaseSize + l.MetadataSize
}

func validateMetadata(meta *token.Metadata) error {
	if len(meta.Name) == 0 {
		return errors.New("name is empty")
	}
	if len(meta.Name) > MaxNameLength {
		return errors.Errorf("name exceeds %d bytes", MaxNameLength)
	}
	if len(meta.Symbol) == 0 {
		return errors.New("symbol is empty")
	}
	if len(meta.Symbol) > MaxSymbolLength {
		return errors.Errorf("symbol exceeds %d bytes", MaxSymbolLength)
	}
	if len(meta.URI) == 0 {
		return errors.New("uri is empty")
	}
	if len(meta.URI) > MaxURILength {
		return errors.Errorf("uri exceeds %d bytes", MaxURILength)
	}

	for _, kv := range meta.AdditionalMetadata {
		if len(kv[0]) == 0 {
			return errors.New("additional metadata key is empty")
		}
		if !utf8.ValidString(kv[0]) || !utf8.ValidString(kv[1]) {
			return errors.New("additional metadata contains invalid utf-8")
		}
	}

	return nil
}

// PlanLayout computes the mint account layout for the given metadata.
//
// The metadata is packed with the same encoding the initialize-metadata
// instruction later uses, so the planned MetadataSize always matches the
// bytes actually written on-chain. Strings are sized as provided, with
// no trimming or normalization.
//
// The rent query is the only network call; if it fails the whole
// workflow aborts before any transaction is built.
func PlanLayout(conn Connection, meta *token.Metadata) (*AccountLayout, error) {
	if err := validateMetadata(meta); err != nil {
		return nil, err
	}

	baseSize, err := token.MintLen(token.ExtensionMetadataPointer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute mint size")
	}

	packed, err := meta.Pack()
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack metadata")
	}
	metadataSize := uint64(token.TypeSize + token.LengthSize + len(packed))

	rent, err := conn.GetMinimumBalanceForRentExemption(baseSize + metadataSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rent exemption")
	}

	return &AccountLayout{
		BaseSize:     baseSize,
		MetadataSize: metadataSize,
		RentLamports: rent,
	}, nil
}
