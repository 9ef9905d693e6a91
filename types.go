package x402agent

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransferAuthorization holds the parameters of an EIP-3009
// transferWithAuthorization. It is immutable once constructed and consumed
// exactly once by signing.
type TransferAuthorization struct {
	// From is the payer's address.
	From string

	// To is the recipient's address.
	To string

	// Value is the payment amount in smallest units.
	Value *big.Int

	// ValidAfter is the unix timestamp after which the authorization is valid.
	ValidAfter int64

	// ValidBefore is the unix timestamp before which the authorization is valid.
	ValidBefore int64

	// Nonce is 32 random bytes preventing replay.
	Nonce [32]byte
}

// NewTransferAuthorization validates and builds a transfer authorization.
// The validity window must satisfy validAfter < validBefore and the value
// must be non-negative.
func NewTransferAuthorization(from, to string, value *big.Int, validAfter, validBefore int64, nonce [32]byte) (TransferAuthorization, error) {
	if from == "" || to == "" {
		return TransferAuthorization{}, fmt.Errorf("%w: missing from or to address", ErrInvalidAuthorization)
	}
	if value == nil || value.Sign() < 0 {
		return TransferAuthorization{}, fmt.Errorf("%w: value must be non-negative", ErrInvalidAuthorization)
	}
	if validAfter >= validBefore {
		return TransferAuthorization{}, fmt.Errorf("%w: validAfter %d >= validBefore %d", ErrInvalidAuthorization, validAfter, validBefore)
	}
	return TransferAuthorization{
		From:        from,
		To:          to,
		Value:       new(big.Int).Set(value),
		ValidAfter:  validAfter,
		ValidBefore: validBefore,
		Nonce:       nonce,
	}, nil
}

// NonceHex returns the nonce as a 0x-prefixed hex string.
func (a TransferAuthorization) NonceHex() string {
	return "0x" + hex.EncodeToString(a.Nonce[:])
}

// PaymentRecord is an append-only log entry for a signed payment. Records
// are created exactly once per successful signing and never mutated.
type PaymentRecord struct {
	// Timestamp is when the payment was signed.
	Timestamp time.Time

	// To is the recipient address.
	To string

	// AmountUSD is the exact decimal USD amount.
	AmountUSD decimal.Decimal

	// AmountUnits is the amount in smallest units.
	AmountUnits *big.Int

	// Network is the network identifier the payment was signed for.
	Network string

	// Nonce is the authorization nonce as 0x-prefixed hex.
	Nonce string

	// Signature is the 0x-prefixed hex signature.
	Signature string

	// ResourceURL is the URL of the resource being paid for.
	ResourceURL string
}

// PaymentRequirement represents the server's payment terms parsed from a 402
// response header. It is derived fresh per negotiation attempt.
type PaymentRequirement struct {
	// X402Version is the protocol version (currently 1).
	X402Version int `json:"x402Version"`

	// Scheme is the payment scheme identifier (e.g., "exact").
	Scheme string `json:"scheme"`

	// Network is the network identifier, CAIP-2 or legacy alias.
	Network string `json:"network,omitempty"`

	// PayTo is the recipient address for the payment.
	PayTo string `json:"payTo"`

	// MaxAmountRequired is the payment amount in smallest units as a
	// decimal string.
	MaxAmountRequired string `json:"maxAmountRequired"`

	// ValidUntil is the unix timestamp when the authorization expires.
	ValidUntil int64 `json:"validUntil"`
}

// AmountUnits parses MaxAmountRequired into smallest units. Returns
// ErrMalformedRequirement if the field is not a non-negative decimal integer.
func (r PaymentRequirement) AmountUnits() (*big.Int, error) {
	units, ok := new(big.Int).SetString(r.MaxAmountRequired, 10)
	if !ok || units.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid maxAmountRequired %q", ErrMalformedRequirement, r.MaxAmountRequired)
	}
	return units, nil
}

// PaymentProof is the outbound payment artifact attached to the retried
// request. It restates the full authorization so the verifier can recompute
// the signed digest independently.
type PaymentProof struct {
	// X402Version is the protocol version.
	X402Version int `json:"x402Version"`

	// Scheme is the payment scheme identifier.
	Scheme string `json:"scheme"`

	// Network is the network identifier the payment targets.
	Network string `json:"network"`

	// Payload carries the signature and authorization fields.
	Payload ProofPayload `json:"payload"`
}

// ProofPayload carries the signature and the signed authorization fields.
type ProofPayload struct {
	// Signature is the 0x-prefixed hex ECDSA signature.
	Signature string `json:"signature"`

	// Authorization restates the signed transfer parameters.
	Authorization AuthorizationFields `json:"authorization"`
}

// AuthorizationFields is the wire form of a transfer authorization: value
// and timestamps as decimal strings, nonce as 0x-prefixed hex.
type AuthorizationFields struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// ToTransferAuthorization parses the wire fields back into a transfer
// authorization, for verifiers recomputing the signed digest.
func (f AuthorizationFields) ToTransferAuthorization() (TransferAuthorization, error) {
	value, ok := new(big.Int).SetString(f.Value, 10)
	if !ok {
		return TransferAuthorization{}, fmt.Errorf("%w: invalid value %q", ErrInvalidAuthorization, f.Value)
	}
	validAfter, err := strconv.ParseInt(f.ValidAfter, 10, 64)
	if err != nil {
		return TransferAuthorization{}, fmt.Errorf("%w: invalid validAfter %q", ErrInvalidAuthorization, f.ValidAfter)
	}
	validBefore, err := strconv.ParseInt(f.ValidBefore, 10, 64)
	if err != nil {
		return TransferAuthorization{}, fmt.Errorf("%w: invalid validBefore %q", ErrInvalidAuthorization, f.ValidBefore)
	}

	nonceBytes, err := hex.DecodeString(strings.TrimPrefix(f.Nonce, "0x"))
	if err != nil || len(nonceBytes) != 32 {
		return TransferAuthorization{}, fmt.Errorf("%w: invalid nonce %q", ErrInvalidAuthorization, f.Nonce)
	}
	var nonce [32]byte
	copy(nonce[:], nonceBytes)

	return NewTransferAuthorization(f.From, f.To, value, validAfter, validBefore, nonce)
}

// NewPaymentProof builds the outbound proof for a signed authorization,
// echoing the requirement's version, scheme, and network.
func NewPaymentProof(req PaymentRequirement, auth TransferAuthorization, signature string) PaymentProof {
	if len(signature) < 2 || signature[:2] != "0x" {
		signature = "0x" + signature
	}
	return PaymentProof{
		X402Version: req.X402Version,
		Scheme:      req.Scheme,
		Network:     req.Network,
		Payload: ProofPayload{
			Signature: signature,
			Authorization: AuthorizationFields{
				From:        auth.From,
				To:          auth.To,
				Value:       auth.Value.String(),
				ValidAfter:  strconv.FormatInt(auth.ValidAfter, 10),
				ValidBefore: strconv.FormatInt(auth.ValidBefore, 10),
				Nonce:       auth.NonceHex(),
			},
		},
	}
}

// SettlementResponse is the server's optional post-payment acknowledgment.
// It is informational only; parse failures are never propagated.
type SettlementResponse struct {
	// Success indicates whether the payment was settled.
	Success bool `json:"success"`

	// Transaction is the settlement transaction hash.
	Transaction string `json:"transaction,omitempty"`

	// TxHash is the transaction hash under its legacy field name.
	TxHash string `json:"txHash,omitempty"`

	// Network is the network the payment settled on.
	Network string `json:"network,omitempty"`
}

// TransactionHash returns the settlement transaction hash from whichever
// field the server populated.
func (s SettlementResponse) TransactionHash() string {
	if s.Transaction != "" {
		return s.Transaction
	}
	return s.TxHash
}

// WalletSummary is a point-in-time snapshot of wallet activity. It never
// contains key material.
type WalletSummary struct {
	Address      string          `json:"address"`
	Network      string          `json:"network"`
	BudgetUSD    decimal.Decimal `json:"budget_usd"`
	SpentUSD     decimal.Decimal `json:"spent_usd"`
	RemainingUSD decimal.Decimal `json:"remaining_usd"`
	PaymentCount int             `json:"payment_count"`
}
