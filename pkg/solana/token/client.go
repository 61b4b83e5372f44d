package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/kira-labs/mintkit/pkg/solana"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidMintAccount indicates that a Solana account exists at the
	// given address, but it is either not initialized, or not a mint owned
	// by the token program.
	ErrInvalidMintAccount = errors.New("invalid mint account")
)

// Client provides utilities for inspecting a mint and its metadata.
type Client struct {
	sc   solana.Client
	mint ed25519.PublicKey
}

// NewClient creates a new Client.
func NewClient(sc solana.Client, mint ed25519.PublicKey) *Client {
	return &Client{
		sc:   sc,
		mint: mint,
	}
}

func (c *Client) Mint() ed25519.PublicKey {
	return c.mint
}

// GetMint returns the mint state for the client's mint.
//
// If the account is missing ErrAccountNotFound is returned; if it exists
// but isn't an initialized mint owned by the token program,
// ErrInvalidMintAccount is returned.
func (c *Client) GetMint(commitment solana.Commitment) (*Mint, error) {
	accountInfo, err := c.sc.GetAccountInfo(c.mint, commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(accountInfo.Owner, ProgramKey) {
		return nil, ErrInvalidMintAccount
	}

	var mint Mint
	if !mint.Unmarshal(accountInfo.Data) {
		return nil, ErrInvalidMintAccount
	}

	if !mint.IsInitialized {
		return nil, ErrInvalidMintAccount
	}

	return &mint, nil
}

// GetBalance returns the raw-unit balance of the wallet's associated
// token account for the client's mint.
//
// ErrAccountNotFound is returned when the holder account doesn't exist.
func (c *Client) GetBalance(wallet ed25519.PublicKey) (uint64, error) {
	holder, err := GetAssociatedAccount(wallet, c.mint)
	if err != nil {
		return 0, errors.Wrap(err, "failed to derive holder account")
	}

	balance, _, err := c.sc.GetTokenAccountBalance(holder)
	if err == solana.ErrNoBalance {
		return 0, ErrAccountNotFound
	} else if err != nil {
		return 0, errors.Wrap(err, "failed to get token account balance")
	}

	return balance, nil
}

// GetMetadata returns the token metadata embedded in the mint account.
func (c *Client) GetMetadata(commitment solana.Commitment) (*Metadata, error) {
	accountInfo, err := c.sc.GetAccountInfo(c.mint, commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(accountInfo.Owner, ProgramKey) {
		return nil, ErrInvalidMintAccount
	}

	return GetMetadata(accountInfo.Data)
}
