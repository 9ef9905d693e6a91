package x402agent

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet tracks a USD budget and signs EIP-3009 payment authorizations
// against it. It is the sole authority for whether a spend can proceed: the
// affordability check and the spend commit happen under one lock, so
// concurrent SignPayment calls can never jointly exceed the budget.
//
// The private key never leaves the Signer; the wallet only sees the derived
// address.
type Wallet struct {
	signer  Signer
	network string

	mu       sync.Mutex
	budget   decimal.Decimal
	spent    decimal.Decimal
	payments []PaymentRecord

	nonce  NonceSource
	logger *slog.Logger
}

// WalletOption configures a Wallet.
type WalletOption func(*Wallet) error

// NewWallet creates a wallet for the given signer. Defaults: base mainnet,
// $10.00 budget, discarded logs. Construction fails fast on an unsupported
// network or negative budget, before any negotiation starts.
func NewWallet(signer Signer, opts ...WalletOption) (*Wallet, error) {
	if signer == nil {
		return nil, ErrNoSigner
	}

	w := &Wallet{
		signer:  signer,
		network: NetworkBaseMainnet,
		budget:  decimal.NewFromInt(10),
		nonce:   RandomNonce,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	if _, err := NetworkConfigFor(w.network); err != nil {
		return nil, err
	}

	return w, nil
}

// WithNetwork sets the wallet's network identifier (CAIP-2 or legacy alias).
func WithNetwork(network string) WalletOption {
	return func(w *Wallet) error {
		w.network = network
		return nil
	}
}

// WithBudget sets the budget ceiling in USD.
func WithBudget(budgetUSD decimal.Decimal) WalletOption {
	return func(w *Wallet) error {
		if budgetUSD.IsNegative() {
			return fmt.Errorf("%w: negative budget %s", ErrInvalidAmount, budgetUSD)
		}
		w.budget = budgetUSD
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) WalletOption {
	return func(w *Wallet) error {
		if logger != nil {
			w.logger = logger
		}
		return nil
	}
}

// WithNonceSource overrides the nonce source. Intended for deterministic
// tests.
func WithNonceSource(src NonceSource) WalletOption {
	return func(w *Wallet) error {
		if src == nil {
			return fmt.Errorf("nonce source must not be nil")
		}
		w.nonce = src
		return nil
	}
}

// Address returns the wallet's address, derived once from the signer's key.
func (w *Wallet) Address() string {
	return w.signer.Address()
}

// Network returns the configured network identifier.
func (w *Wallet) Network() string {
	return w.network
}

// BudgetUSD returns the budget ceiling in USD.
func (w *Wallet) BudgetUSD() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.budget
}

// SpentUSD returns the cumulative USD spent.
func (w *Wallet) SpentUSD() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spent
}

// RemainingUSD returns the remaining budget, floored at zero.
func (w *Wallet) RemainingUSD() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.remainingLocked()
}

func (w *Wallet) remainingLocked() decimal.Decimal {
	remaining := w.budget.Sub(w.spent)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// CanAfford reports whether the remaining budget covers the amount.
func (w *Wallet) CanAfford(amountUSD decimal.Decimal) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.remainingLocked().GreaterThanOrEqual(amountUSD)
}

// SignPayment signs an EIP-3009 authorization for the given amount and
// records the spend. The affordability check, signing, and commit run as one
// critical section: either the returned signature and the recorded spend
// both exist, or neither does. A BudgetError leaves the wallet untouched.
//
// The authorization is immediately valid (validAfter=0) and expires at
// validBefore.
func (w *Wallet) SignPayment(to string, amountUnits *big.Int, validBefore int64, resourceURL string) (string, [32]byte, error) {
	var zero [32]byte

	if amountUnits == nil || amountUnits.Sign() < 0 {
		return "", zero, fmt.Errorf("%w: amount must be non-negative", ErrInvalidAmount)
	}
	amountUSD := UnitsToUSD(amountUnits)

	w.mu.Lock()
	defer w.mu.Unlock()

	if remaining := w.remainingLocked(); remaining.LessThan(amountUSD) {
		return "", zero, &BudgetError{Needed: amountUSD, Remaining: remaining}
	}

	nonce, err := w.nonce()
	if err != nil {
		return "", zero, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	auth, err := NewTransferAuthorization(w.signer.Address(), to, amountUnits, 0, validBefore, nonce)
	if err != nil {
		return "", zero, err
	}

	signature, err := w.signer.SignTransferAuthorization(auth, w.network)
	if err != nil {
		return "", zero, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	// Commit point: spend and history change together, after a successful
	// signature and never before.
	w.spent = w.spent.Add(amountUSD)
	w.payments = append(w.payments, PaymentRecord{
		Timestamp:   time.Now(),
		To:          to,
		AmountUSD:   amountUSD,
		AmountUnits: new(big.Int).Set(amountUnits),
		Network:     w.network,
		Nonce:       auth.NonceHex(),
		Signature:   signature,
		ResourceURL: resourceURL,
	})

	w.logger.Info("payment signed",
		"to", to,
		"amount_usd", amountUSD.StringFixed(4),
		"network", w.network,
		"resource", resourceURL,
		"remaining_usd", w.remainingLocked().StringFixed(4),
	)

	return signature, nonce, nil
}

// Payments returns a copy of the payment history in signing order.
func (w *Wallet) Payments() []PaymentRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	records := make([]PaymentRecord, len(w.payments))
	copy(records, w.payments)
	return records
}

// Summary returns a snapshot of wallet activity.
func (w *Wallet) Summary() WalletSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WalletSummary{
		Address:      w.signer.Address(),
		Network:      w.network,
		BudgetUSD:    w.budget,
		SpentUSD:     w.spent,
		RemainingUSD: w.remainingLocked(),
		PaymentCount: len(w.payments),
	}
}

// Reset clears the spend state and payment history. If newBudgetUSD is
// non-nil it replaces the budget ceiling. The wallet's identity (address,
// key, network) is untouched.
func (w *Wallet) Reset(newBudgetUSD *decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if newBudgetUSD != nil {
		w.budget = *newBudgetUSD
	}
	w.spent = decimal.Zero
	w.payments = nil
}
