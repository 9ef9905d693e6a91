package x402agent

import (
	"crypto/rand"
	"fmt"
)

// NonceSource produces 32-byte authorization nonces. Uniqueness is
// probabilistic via entropy; callers must not reuse a nonce across
// authorizations to the same recipient and contract.
type NonceSource func() ([32]byte, error)

// RandomNonce is the default NonceSource, drawing from crypto/rand.
func RandomNonce() ([32]byte, error) {
	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return [32]byte{}, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}
