// Package http implements the client side of the x402 payment negotiation:
// it issues a request, detects a 402 Payment Required response, checks the
// server's terms against the wallet's network, price limit, and budget, and
// retries once with a signed payment proof attached.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	x402agent "github.com/agentkit/x402-agent-go"
	"github.com/agentkit/x402-agent-go/encoding"
)

// Client negotiates paid HTTP requests against a wallet. At most one payment
// attempt is made per Fetch call; a second 402 after payment is a
// post-payment error, never a loop.
type Client struct {
	wallet     *x402agent.Wallet
	httpClient *http.Client
	autoPay    bool
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// NewClient creates a negotiation client for the given wallet. Defaults:
// 30 second timeout, automatic payment enabled, discarded logs.
func NewClient(wallet *x402agent.Wallet, opts ...ClientOption) (*Client, error) {
	if wallet == nil {
		return nil, fmt.Errorf("x402: wallet required")
	}

	c := &Client{
		wallet:     wallet,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		autoPay:    true,
		logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		if httpClient == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithTransport sets the transport used for both the initial and retried
// requests.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) error {
		c.httpClient.Transport = rt
		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.httpClient.Timeout = d
		return nil
	}
}

// WithAutoPay controls whether the client pays automatically. When disabled,
// a 402 terminates with OutcomePaymentDeclined reporting the amount and
// recipient without taking any action.
func WithAutoPay(autoPay bool) ClientOption {
	return func(c *Client) error {
		c.autoPay = autoPay
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// Request describes one resource fetch.
type Request struct {
	// Method is the HTTP method. Defaults to GET.
	Method string

	// URL is the resource URL.
	URL string

	// Body is the request body, if any.
	Body string

	// Headers are additional request headers.
	Headers map[string]string

	// MaxPriceUSD caps what this call may pay. When nil, the wallet's
	// remaining budget is the ceiling.
	MaxPriceUSD *decimal.Decimal
}

// Fetch runs one negotiation: request, maybe pay, retry once. The returned
// error is reserved for transport faults; every protocol and budget outcome
// is reported through the Result so callers can adjust and retry with
// different parameters.
func (c *Client) Fetch(ctx context.Context, req Request) (*Result, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("x402: request URL required")
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	status, header, body, err := c.send(ctx, req, "")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if status != http.StatusPaymentRequired {
		if status >= 400 {
			return &Result{Outcome: OutcomeHTTPError, StatusCode: status, Body: body}, nil
		}
		return &Result{Outcome: OutcomeSuccess, StatusCode: status, Body: body}, nil
	}

	headerValue := header.Get(HeaderPaymentRequired)
	if headerValue == "" {
		headerValue = header.Get(HeaderPaymentRequiredLegacy)
	}
	if headerValue == "" {
		return &Result{Outcome: OutcomeMissingHeader, StatusCode: status, Err: x402agent.ErrMissingPaymentHeader}, nil
	}

	requirement, err := encoding.DecodeRequirement(headerValue)
	if err != nil {
		return &Result{Outcome: OutcomeMalformedRequirement, StatusCode: status, Err: err}, nil
	}

	amountUnits, err := requirement.AmountUnits()
	if err != nil {
		return &Result{Outcome: OutcomeMalformedRequirement, StatusCode: status, Err: err}, nil
	}
	amountUSD := x402agent.UnitsToUSD(amountUnits)

	result := &Result{
		StatusCode:      status,
		AmountUSD:       amountUSD,
		PayTo:           requirement.PayTo,
		RequiredNetwork: requirement.Network,
		WalletNetwork:   c.wallet.Network(),
	}

	// Never sign a payment intended for a different chain.
	if requirement.Network != "" && requirement.Network != c.wallet.Network() {
		result.Outcome = OutcomeNetworkMismatch
		result.Err = x402agent.ErrNetworkMismatch
		return result, nil
	}

	ceiling := c.wallet.RemainingUSD()
	if req.MaxPriceUSD != nil {
		ceiling = *req.MaxPriceUSD
	}
	if amountUSD.GreaterThan(ceiling) {
		result.Outcome = OutcomePriceRejected
		result.LimitUSD = ceiling
		result.Err = x402agent.ErrPriceRejected
		return result, nil
	}

	if !c.wallet.CanAfford(amountUSD) {
		result.Outcome = OutcomeBudgetExceeded
		result.RemainingUSD = c.wallet.RemainingUSD()
		result.Err = x402agent.ErrBudgetExceeded
		return result, nil
	}

	if !c.autoPay {
		result.Outcome = OutcomePaymentDeclined
		result.Err = x402agent.ErrPaymentDeclined
		return result, nil
	}

	signature, nonce, err := c.wallet.SignPayment(requirement.PayTo, amountUnits, requirement.ValidUntil, req.URL)
	if err != nil {
		var budgetErr *x402agent.BudgetError
		if errors.As(err, &budgetErr) {
			// Lost the budget to a concurrent payment between the check
			// above and the signing critical section.
			result.Outcome = OutcomeBudgetExceeded
			result.RemainingUSD = budgetErr.Remaining
			result.Err = err
			return result, nil
		}
		result.Outcome = OutcomeSigningFailed
		result.Err = err
		return result, nil
	}

	auth, err := x402agent.NewTransferAuthorization(
		c.wallet.Address(), requirement.PayTo, amountUnits, 0, requirement.ValidUntil, nonce)
	if err != nil {
		result.Outcome = OutcomeSigningFailed
		result.Err = err
		return result, nil
	}

	proofValue, err := encoding.EncodeProof(x402agent.NewPaymentProof(requirement, auth, signature))
	if err != nil {
		result.Outcome = OutcomeSigningFailed
		result.Err = err
		return result, nil
	}

	c.logger.Info("retrying with payment",
		"url", req.URL,
		"amount_usd", amountUSD.StringFixed(4),
		"pay_to", requirement.PayTo,
	)

	retryStatus, retryHeader, retryBody, err := c.send(ctx, req, proofValue)
	if err != nil {
		return nil, fmt.Errorf("paid retry failed (payment of $%s was signed and recorded): %w",
			amountUSD.StringFixed(4), err)
	}

	result.StatusCode = retryStatus
	result.Body = retryBody

	// A second 402 here is not retried again.
	if retryStatus >= 400 {
		result.Outcome = OutcomePostPaymentError
		result.Err = x402agent.ErrPostPaymentError
		return result, nil
	}

	result.Outcome = OutcomePaid
	result.Settlement = c.parseSettlement(retryHeader)
	return result, nil
}

// send issues one HTTP request, attaching the payment proof header when
// given, and returns the status, headers, and drained body.
func (c *Client) send(ctx context.Context, req Request, proofValue string) (int, http.Header, string, error) {
	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return 0, nil, "", err
	}

	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}
	if proofValue != "" {
		httpReq.Header.Set(HeaderPaymentSignature, proofValue)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, "", err
	}

	return resp.StatusCode, resp.Header, string(body), nil
}

// parseSettlement reads the optional settlement acknowledgment header.
// Parse failures are logged and swallowed; the acknowledgment is
// informational only.
func (c *Client) parseSettlement(header http.Header) *x402agent.SettlementResponse {
	headerValue := header.Get(HeaderPaymentResponse)
	if headerValue == "" {
		headerValue = header.Get(HeaderPaymentResponseLegacy)
	}
	if headerValue == "" {
		return nil
	}

	settlement, err := encoding.DecodeSettlement(headerValue)
	if err != nil {
		c.logger.Debug("unparseable settlement header", "error", err)
		return nil
	}

	c.logger.Info("payment settled", "tx", settlement.TransactionHash())
	return &settlement
}
