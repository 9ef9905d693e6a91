package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	x402agent "github.com/agentkit/x402-agent-go"
)

// BuildTypedData builds the EIP-712 typed data for an EIP-3009
// transferWithAuthorization, domain-separated by the network's chain id and
// USDC contract. The field schema and ordering are fixed by the token
// contract; verifiers recompute this structure byte for byte.
func BuildTypedData(auth x402agent.TransferAuthorization, network string) (apitypes.TypedData, error) {
	cfg, err := x402agent.NetworkConfigFor(network)
	if err != nil {
		return apitypes.TypedData{}, err
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"TransferWithAuthorization": []apitypes.Type{
				{Name: "from", Type: "address"},
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "validAfter", Type: "uint256"},
				{Name: "validBefore", Type: "uint256"},
				{Name: "nonce", Type: "bytes32"},
			},
		},
		PrimaryType: "TransferWithAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              cfg.DomainName,
			Version:           cfg.DomainVersion,
			ChainId:           math.NewHexOrDecimal256(cfg.ChainID),
			VerifyingContract: cfg.USDCAddress,
		},
		Message: apitypes.TypedDataMessage{
			"from":        common.HexToAddress(auth.From).Hex(),
			"to":          common.HexToAddress(auth.To).Hex(),
			"value":       (*math.HexOrDecimal256)(new(big.Int).Set(auth.Value)),
			"validAfter":  (*math.HexOrDecimal256)(big.NewInt(auth.ValidAfter)),
			"validBefore": (*math.HexOrDecimal256)(big.NewInt(auth.ValidBefore)),
			"nonce":       common.BytesToHash(auth.Nonce[:]).Hex(),
		},
	}, nil
}

// hashTypedData computes the EIP-712 digest:
// keccak256("\x19\x01" || domainSeparator || hashStruct(message)).
func hashTypedData(typedData apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := append([]byte{0x19, 0x01}, append(domainSeparator, messageHash...)...)
	return crypto.Keccak256(rawData), nil
}

// RecoverSigner recovers the address that signed the given authorization.
// Verifiers compare the result against the authorization's from address.
func RecoverSigner(auth x402agent.TransferAuthorization, network, signature string) (string, error) {
	sigBytes, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", x402agent.ErrInvalidAuthorization, err)
	}
	if len(sigBytes) != 65 {
		return "", fmt.Errorf("%w: signature must be 65 bytes, got %d", x402agent.ErrInvalidAuthorization, len(sigBytes))
	}

	typedData, err := BuildTypedData(auth, network)
	if err != nil {
		return "", err
	}
	digest, err := hashTypedData(typedData)
	if err != nil {
		return "", err
	}

	// Normalize v from the on-chain 27/28 convention back to 0/1.
	recovery := make([]byte, 65)
	copy(recovery, sigBytes)
	if recovery[64] >= 27 {
		recovery[64] -= 27
	}

	pubKey, err := crypto.SigToPub(digest, recovery)
	if err != nil {
		return "", fmt.Errorf("%w: %v", x402agent.ErrInvalidAuthorization, err)
	}
	return crypto.PubkeyToAddress(*pubKey).Hex(), nil
}
