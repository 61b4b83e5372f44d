package token

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/kira-labs/mintkit/pkg/solana/binary"
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program/src/state.rs#L18
const MintSize = 82

// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program/src/state.rs#L125
const AccountSize = 165

// TypeSize and LengthSize are the sizes of an extension TLV entry's
// type and length fields.
const (
	TypeSize   = 2
	LengthSize = 2
)

const optionSize = 4

// accountTypeSize is the single discriminator byte that follows the base
// account data when any extension is present.
const accountTypeSize = 1

type AccountType byte

const (
	AccountTypeUninitialized AccountType = iota
	AccountTypeMint
	AccountTypeAccount
)

// ExtensionType identifies a Token-2022 account extension.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program-2022/src/extension/mod.rs
type ExtensionType uint16

const (
	ExtensionUninitialized ExtensionType = iota
	ExtensionTransferFeeConfig
	ExtensionTransferFeeAmount
	ExtensionMintCloseAuthority
	ExtensionConfidentialTransferMint
	ExtensionConfidentialTransferAccount
	ExtensionDefaultAccountState
	ExtensionImmutableOwner
	ExtensionMemoTransfer
	ExtensionNonTransferable
	ExtensionInterestBearingConfig
	ExtensionCpiGuard
	ExtensionPermanentDelegate
	ExtensionNonTransferableAccount
	ExtensionTransferHook
	ExtensionTransferHookAccount
	ExtensionConfidentialTransferFeeConfig
	ExtensionConfidentialTransferFeeAmount
	ExtensionMetadataPointer
	ExtensionTokenMetadata
)

var ErrUnsupportedExtension = errors.New("unsupported extension")

// extensionLen returns the fixed TLV value length of the given extension.
// Variable-length extensions (such as the token metadata itself) have no
// fixed length and are sized from their packed payload instead.
func extensionLen(t ExtensionType) (int, error) {
	switch t {
	case ExtensionMintCloseAuthority:
		return ed25519.PublicKeySize, nil
	case ExtensionImmutableOwner:
		return 0, nil
	case ExtensionNonTransferable:
		return 0, nil
	case ExtensionPermanentDelegate:
		return ed25519.PublicKeySize, nil
	case ExtensionMetadataPointer:
		// authority + metadata address
		return 2 * ed25519.PublicKeySize, nil
	default:
		return 0, ErrUnsupportedExtension
	}
}

// MintLen returns the number of bytes a mint account requires when carrying
// exactly the provided extension set. A mint without extensions is the
// legacy 82-byte layout; any extension forces the base data to be padded to
// the account length, followed by the account type byte and the TLV entries.
func MintLen(extensions ...ExtensionType) (uint64, error) {
	if len(extensions) == 0 {
		return MintSize, nil
	}

	size := AccountSize + accountTypeSize
	for _, e := range extensions {
		valueLen, err := extensionLen(e)
		if err != nil {
			return 0, err
		}

		size += TypeSize + LengthSize + valueLen
	}

	return uint64(size), nil
}

// Mint is the base mint account state.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program/src/state.rs#L18-L32
type Mint struct {
	// Optional authority used to mint new tokens. The mint authority may
	// only be provided during mint creation.
	MintAuthority ed25519.PublicKey
	// Total supply of tokens.
	Supply uint64
	// Number of base 10 digits to the right of the decimal place.
	Decimals uint8
	// Is `true` if this structure has been initialized
	IsInitialized bool
	// Optional authority to freeze token accounts.
	FreezeAuthority ed25519.PublicKey
}

func (m *Mint) Marshal() []byte {
	b := make([]byte, MintSize)

	var offset int
	binary.PutOptionalKey32(b, m.MintAuthority, &offset, optionSize)
	binary.PutUint64(b[offset:], m.Supply, &offset)
	binary.PutUint8(b[offset:], m.Decimals, &offset)
	if m.IsInitialized {
		b[offset] = 1
	}
	offset++
	binary.PutOptionalKey32(b[offset:], m.FreezeAuthority, &offset, optionSize)

	return b
}

// Unmarshal decodes the base mint state. Account images longer than the
// legacy layout are accepted when they carry the mint account type byte,
// so extension-bearing mints decode with the same call.
func (m *Mint) Unmarshal(b []byte) bool {
	if len(b) != MintSize {
		if len(b) <= AccountSize || AccountType(b[AccountSize]) != AccountTypeMint {
			return false
		}
	}

	var offset int
	binary.GetOptionalKey32(b, &m.MintAuthority, &offset, optionSize)
	binary.GetUint64(b[offset:], &m.Supply, &offset)
	binary.GetUint8(b[offset:], &m.Decimals, &offset)
	m.IsInitialized = b[offset] == 1
	offset++
	binary.GetOptionalKey32(b[offset:], &m.FreezeAuthority, &offset, optionSize)

	return true
}

// GetExtensionData returns the TLV value for the given extension type from
// a raw account image, or nil if the account doesn't carry the extension.
func GetExtensionData(accountData []byte, extension ExtensionType) []byte {
	if len(accountData) <= AccountSize+accountTypeSize {
		return nil
	}

	offset := AccountSize + accountTypeSize
	for offset+TypeSize+LengthSize <= len(accountData) {
		var entryType uint16
		binary.GetUint16(accountData[offset:], &entryType, &offset)

		var entryLen uint16
		binary.GetUint16(accountData[offset:], &entryLen, &offset)

		if offset+int(entryLen) > len(accountData) {
			return nil
		}

		if ExtensionType(entryType) == extension {
			return accountData[offset : offset+int(entryLen)]
		}

		offset += int(entryLen)
	}

	return nil
}

// MetadataPointer is the decoded metadata-pointer extension state.
type MetadataPointer struct {
	Authority       ed25519.PublicKey
	MetadataAddress ed25519.PublicKey
}

// GetMetadataPointer extracts the metadata-pointer extension from a raw
// mint account image.
func GetMetadataPointer(accountData []byte) (*MetadataPointer, error) {
	data := GetExtensionData(accountData, ExtensionMetadataPointer)
	if data == nil {
		return nil, errors.New("mint doesn't carry a metadata pointer")
	}
	if len(data) != 2*ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid metadata pointer size: %d", len(data))
	}

	p := &MetadataPointer{
		Authority:       make(ed25519.PublicKey, ed25519.PublicKeySize),
		MetadataAddress: make(ed25519.PublicKey, ed25519.PublicKeySize),
	}
	copy(p.Authority, data)
	copy(p.MetadataAddress, data[ed25519.PublicKeySize:])

	return p, nil
}
