package x402agent

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestErrorDefinitions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"UnsupportedNetwork", ErrUnsupportedNetwork, "x402: unsupported network"},
		{"NetworkMismatch", ErrNetworkMismatch, "x402: network mismatch"},
		{"MalformedRequirement", ErrMalformedRequirement, "x402: malformed payment requirement"},
		{"MissingPaymentHeader", ErrMissingPaymentHeader, "x402: 402 response missing payment requirement header"},
		{"PriceRejected", ErrPriceRejected, "x402: price exceeds per-call limit"},
		{"BudgetExceeded", ErrBudgetExceeded, "x402: budget exceeded"},
		{"PaymentDeclined", ErrPaymentDeclined, "x402: automatic payment disabled"},
		{"InvalidKey", ErrInvalidKey, "x402: invalid private key"},
		{"InvalidKeystore", ErrInvalidKeystore, "x402: invalid keystore file"},
		{"InvalidMnemonic", ErrInvalidMnemonic, "x402: invalid mnemonic phrase"},
		{"InvalidAmount", ErrInvalidAmount, "x402: invalid amount"},
		{"SigningFailed", ErrSigningFailed, "x402: payment signing failed"},
		{"PostPaymentError", ErrPostPaymentError, "x402: resource request failed after payment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("error message = %q, want %q", tt.err.Error(), tt.want)
			}
		})
	}
}

func TestBudgetError(t *testing.T) {
	err := &BudgetError{
		Needed:    decimal.RequireFromString("0.10"),
		Remaining: decimal.RequireFromString("0.05"),
	}

	if !errors.Is(err, ErrBudgetExceeded) {
		t.Error("BudgetError should unwrap to ErrBudgetExceeded")
	}

	want := "x402: budget exceeded: need $0.1000, have $0.0500 remaining"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}

	wrapped := fmt.Errorf("signing: %w", err)
	var budgetErr *BudgetError
	if !errors.As(wrapped, &budgetErr) {
		t.Error("errors.As should find BudgetError through wrapping")
	}
	if !budgetErr.Remaining.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("remaining = %s, want 0.05", budgetErr.Remaining)
	}
}
