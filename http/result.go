package http

import (
	"fmt"

	"github.com/shopspring/decimal"

	x402agent "github.com/agentkit/x402-agent-go"
)

// Outcome classifies how a negotiation terminated. Every Fetch call ends in
// exactly one outcome; outcomes other than transport faults are business
// results, not errors.
type Outcome string

const (
	// OutcomeSuccess means the resource was delivered without payment.
	OutcomeSuccess Outcome = "success"

	// OutcomePaid means a payment was signed and the resource delivered.
	OutcomePaid Outcome = "paid"

	// OutcomeHTTPError means the initial response was a non-402 error.
	OutcomeHTTPError Outcome = "http_error"

	// OutcomeMissingHeader means the 402 response carried no payment
	// requirement header.
	OutcomeMissingHeader Outcome = "missing_payment_header"

	// OutcomeMalformedRequirement means the requirement header failed to
	// decode.
	OutcomeMalformedRequirement Outcome = "malformed_requirement"

	// OutcomeNetworkMismatch means the server requires a different network
	// than the wallet's. No signature was produced.
	OutcomeNetworkMismatch Outcome = "network_mismatch"

	// OutcomePriceRejected means the amount exceeds the per-call price
	// ceiling. No state was mutated.
	OutcomePriceRejected Outcome = "price_rejected"

	// OutcomeBudgetExceeded means the wallet cannot afford the amount. No
	// state was mutated.
	OutcomeBudgetExceeded Outcome = "budget_exceeded"

	// OutcomePaymentDeclined means automatic payment is disabled. No action
	// was taken.
	OutcomePaymentDeclined Outcome = "payment_declined"

	// OutcomeSigningFailed means signing failed after all checks passed.
	OutcomeSigningFailed Outcome = "signing_failed"

	// OutcomePostPaymentError means the retried request failed after the
	// payment was signed and recorded. The spend is not rolled back.
	OutcomePostPaymentError Outcome = "post_payment_error"
)

// Result is the terminal state of one negotiation.
type Result struct {
	// Outcome classifies the terminal state.
	Outcome Outcome

	// StatusCode is the HTTP status of the last response received.
	StatusCode int

	// Body is the body of the last response received.
	Body string

	// AmountUSD is the required payment amount, when a requirement was
	// parsed.
	AmountUSD decimal.Decimal

	// LimitUSD is the effective per-call price ceiling, set on
	// OutcomePriceRejected.
	LimitUSD decimal.Decimal

	// RemainingUSD is the wallet's remaining budget, set on
	// OutcomeBudgetExceeded.
	RemainingUSD decimal.Decimal

	// PayTo is the payment recipient, when a requirement was parsed.
	PayTo string

	// RequiredNetwork is the network the server requires.
	RequiredNetwork string

	// WalletNetwork is the network the wallet is configured for.
	WalletNetwork string

	// Settlement is the parsed settlement acknowledgment, if the server
	// sent one.
	Settlement *x402agent.SettlementResponse

	// Err carries the underlying cause for decode and signing outcomes.
	Err error
}

// Paid reports whether a payment was signed and recorded during this
// negotiation, including the post-payment error case.
func (r *Result) Paid() bool {
	return r.Outcome == OutcomePaid || r.Outcome == OutcomePostPaymentError
}

// Message renders the agent-facing textual result for this outcome.
func (r *Result) Message() string {
	switch r.Outcome {
	case OutcomeSuccess, OutcomePaid:
		return r.Body
	case OutcomeHTTPError:
		return fmt.Sprintf("Error %d: %s", r.StatusCode, r.Body)
	case OutcomeMissingHeader:
		return "Error: received 402 but no payment requirement header"
	case OutcomeMalformedRequirement:
		return fmt.Sprintf("Error parsing payment requirements: %v", r.Err)
	case OutcomeNetworkMismatch:
		return fmt.Sprintf("Error: network mismatch. API requires %s, wallet is configured for %s",
			r.RequiredNetwork, r.WalletNetwork)
	case OutcomePriceRejected:
		return fmt.Sprintf("Payment required: $%s USDC to %s. Exceeds limit of $%s. Set a higher max price to proceed.",
			r.AmountUSD.StringFixed(4), r.PayTo, r.LimitUSD.StringFixed(4))
	case OutcomeBudgetExceeded:
		return fmt.Sprintf("Payment required: $%s USDC. Insufficient budget: $%s remaining.",
			r.AmountUSD.StringFixed(4), r.RemainingUSD.StringFixed(4))
	case OutcomePaymentDeclined:
		return fmt.Sprintf("Payment required: $%s USDC to %s. Automatic payment is disabled.",
			r.AmountUSD.StringFixed(4), r.PayTo)
	case OutcomeSigningFailed:
		return fmt.Sprintf("Payment signing failed: %v", r.Err)
	case OutcomePostPaymentError:
		return fmt.Sprintf("Error after payment: %d - %s (payment of $%s was signed and recorded)",
			r.StatusCode, r.Body, r.AmountUSD.StringFixed(4))
	default:
		return r.Body
	}
}
