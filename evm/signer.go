// Package evm signs EIP-3009 USDC transfer authorizations with a secp256k1
// key, implementing the x402agent.Signer interface over go-ethereum.
package evm

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	x402agent "github.com/agentkit/x402-agent-go"
)

// Signer holds a single private key and signs transfer authorizations with
// it. The key never leaves the signer; callers only see the derived address.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// SignerOption configures a Signer.
type SignerOption func(*Signer) error

// NewSigner creates a signer from exactly one key source option
// (WithPrivateKey, WithKeystore, or WithMnemonic). Returns ErrInvalidKey if
// no valid key was provided.
func NewSigner(opts ...SignerOption) (*Signer, error) {
	s := &Signer{}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.privateKey == nil {
		return nil, x402agent.ErrInvalidKey
	}

	s.address = crypto.PubkeyToAddress(s.privateKey.PublicKey)
	return s, nil
}

// WithPrivateKey sets the private key from a hex string, with or without the
// 0x prefix.
func WithPrivateKey(hexKey string) SignerOption {
	return func(s *Signer) error {
		hexKey = strings.TrimPrefix(hexKey, "0x")

		privateKey, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			return fmt.Errorf("%w: %v", x402agent.ErrInvalidKey, err)
		}

		s.privateKey = privateKey
		return nil
	}
}

// Address implements x402agent.Signer.
func (s *Signer) Address() string {
	return s.address.Hex()
}

// SignTransferAuthorization implements x402agent.Signer. It signs the
// EIP-712 digest of the authorization under the network's USDC domain and
// returns the 65-byte signature as 0x-prefixed hex with the Ethereum v value
// (27 or 28).
func (s *Signer) SignTransferAuthorization(auth x402agent.TransferAuthorization, network string) (string, error) {
	typedData, err := BuildTypedData(auth, network)
	if err != nil {
		return "", err
	}

	digest, err := hashTypedData(typedData)
	if err != nil {
		return "", fmt.Errorf("%w: %v", x402agent.ErrSigningFailed, err)
	}

	signature, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", x402agent.ErrSigningFailed, err)
	}

	// Recovery id to Ethereum v
	signature[64] += 27

	return "0x" + hex.EncodeToString(signature), nil
}
