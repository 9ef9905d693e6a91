package x402agent

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnsupportedNetwork indicates a network identifier with no known
	// chain id or USDC contract mapping.
	ErrUnsupportedNetwork = errors.New("x402: unsupported network")

	// ErrNetworkMismatch indicates the server requires a different network
	// than the wallet is configured for.
	ErrNetworkMismatch = errors.New("x402: network mismatch")

	// ErrMalformedRequirement indicates the payment requirement header could
	// not be decoded or is missing required fields.
	ErrMalformedRequirement = errors.New("x402: malformed payment requirement")

	// ErrMissingPaymentHeader indicates a 402 response without a payment
	// requirement header.
	ErrMissingPaymentHeader = errors.New("x402: 402 response missing payment requirement header")

	// ErrPriceRejected indicates the required amount exceeds the per-call
	// price limit.
	ErrPriceRejected = errors.New("x402: price exceeds per-call limit")

	// ErrBudgetExceeded indicates the wallet cannot afford the payment.
	ErrBudgetExceeded = errors.New("x402: budget exceeded")

	// ErrPaymentDeclined indicates automatic payment is disabled.
	ErrPaymentDeclined = errors.New("x402: automatic payment disabled")

	// ErrInvalidKey indicates a malformed private key.
	ErrInvalidKey = errors.New("x402: invalid private key")

	// ErrInvalidKeystore indicates an unreadable or undecryptable keystore file.
	ErrInvalidKeystore = errors.New("x402: invalid keystore file")

	// ErrInvalidMnemonic indicates an invalid BIP-39 mnemonic phrase.
	ErrInvalidMnemonic = errors.New("x402: invalid mnemonic phrase")

	// ErrInvalidAmount indicates a negative amount or one that cannot be
	// represented exactly in smallest units.
	ErrInvalidAmount = errors.New("x402: invalid amount")

	// ErrInvalidAuthorization indicates transfer authorization parameters
	// that violate the validity-window or value constraints.
	ErrInvalidAuthorization = errors.New("x402: invalid authorization")

	// ErrNoSigner indicates a wallet was constructed without a signer.
	ErrNoSigner = errors.New("x402: no signer configured")

	// ErrSigningFailed indicates payment signing failed.
	ErrSigningFailed = errors.New("x402: payment signing failed")

	// ErrPostPaymentError indicates the retried request failed after the
	// payment was already signed and recorded.
	ErrPostPaymentError = errors.New("x402: resource request failed after payment")
)

// BudgetError reports an affordability failure along with the shortfall
// context. It wraps ErrBudgetExceeded so callers can match with errors.Is.
type BudgetError struct {
	// Needed is the payment amount in USD.
	Needed decimal.Decimal

	// Remaining is the wallet's remaining budget in USD.
	Remaining decimal.Decimal
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("x402: budget exceeded: need $%s, have $%s remaining",
		e.Needed.StringFixed(4), e.Remaining.StringFixed(4))
}

func (e *BudgetError) Unwrap() error {
	return ErrBudgetExceeded
}
