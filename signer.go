package x402agent

// Signer produces EIP-3009 transfer authorization signatures for a single
// key. Implementations are deterministic per key: Address is a pure function
// of the key and must match the From field of every authorization signed.
type Signer interface {
	// Address returns the signer's checksummed address.
	Address() string

	// SignTransferAuthorization signs the authorization under the EIP-712
	// domain of the given network's USDC contract and returns the
	// 0x-prefixed hex signature. Returns ErrUnsupportedNetwork if the
	// network has no known chain id or contract mapping.
	SignTransferAuthorization(auth TransferAuthorization, network string) (string, error)
}
