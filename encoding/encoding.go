// Package encoding handles the base64+JSON envelopes carried in x402 payment
// headers: the server's payment requirement, the client's payment proof, and
// the optional settlement acknowledgment.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	x402agent "github.com/agentkit/x402-agent-go"
)

// DecodeRequirement parses a payment requirement header value. The payTo,
// maxAmountRequired, and validUntil fields are required; a missing
// x402Version defaults to 1 and a missing scheme defaults to "exact" for
// compatibility with deployed servers. Numeric fields are accepted as either
// JSON numbers or decimal strings.
//
// Returns ErrMalformedRequirement on any decode or validation failure.
func DecodeRequirement(headerValue string) (x402agent.PaymentRequirement, error) {
	var req x402agent.PaymentRequirement

	raw, err := base64.StdEncoding.DecodeString(headerValue)
	if err != nil {
		return req, fmt.Errorf("%w: invalid base64: %v", x402agent.ErrMalformedRequirement, err)
	}

	var envelope struct {
		X402Version       json.RawMessage `json:"x402Version"`
		Scheme            string          `json:"scheme"`
		Network           string          `json:"network"`
		PayTo             string          `json:"payTo"`
		MaxAmountRequired json.RawMessage `json:"maxAmountRequired"`
		ValidUntil        json.RawMessage `json:"validUntil"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return req, fmt.Errorf("%w: invalid JSON: %v", x402agent.ErrMalformedRequirement, err)
	}

	if envelope.PayTo == "" {
		return req, fmt.Errorf("%w: missing payTo", x402agent.ErrMalformedRequirement)
	}
	if len(envelope.MaxAmountRequired) == 0 {
		return req, fmt.Errorf("%w: missing maxAmountRequired", x402agent.ErrMalformedRequirement)
	}
	if len(envelope.ValidUntil) == 0 {
		return req, fmt.Errorf("%w: missing validUntil", x402agent.ErrMalformedRequirement)
	}

	amount, err := flexAmount(envelope.MaxAmountRequired)
	if err != nil {
		return req, fmt.Errorf("%w: invalid maxAmountRequired: %v", x402agent.ErrMalformedRequirement, err)
	}

	validUntil, err := flexInt64(envelope.ValidUntil)
	if err != nil {
		return req, fmt.Errorf("%w: invalid validUntil: %v", x402agent.ErrMalformedRequirement, err)
	}

	version := int64(1)
	if len(envelope.X402Version) > 0 {
		version, err = flexInt64(envelope.X402Version)
		if err != nil {
			return req, fmt.Errorf("%w: invalid x402Version: %v", x402agent.ErrMalformedRequirement, err)
		}
	}

	scheme := envelope.Scheme
	if scheme == "" {
		scheme = "exact"
	}

	return x402agent.PaymentRequirement{
		X402Version:       int(version),
		Scheme:            scheme,
		Network:           envelope.Network,
		PayTo:             envelope.PayTo,
		MaxAmountRequired: amount.String(),
		ValidUntil:        validUntil,
	}, nil
}

// EncodeRequirement converts a PaymentRequirement to a base64-encoded JSON
// header value. Used by resource servers and tests.
func EncodeRequirement(req x402agent.PaymentRequirement) (string, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal requirement: %w", err)
	}
	return base64.StdEncoding.EncodeToString(reqJSON), nil
}

// EncodeProof converts a PaymentProof to a base64-encoded JSON header value.
func EncodeProof(proof x402agent.PaymentProof) (string, error) {
	proofJSON, err := json.Marshal(proof)
	if err != nil {
		return "", fmt.Errorf("failed to marshal proof: %w", err)
	}
	return base64.StdEncoding.EncodeToString(proofJSON), nil
}

// DecodeProof converts a base64-encoded JSON header value to a PaymentProof.
func DecodeProof(encoded string) (x402agent.PaymentProof, error) {
	var proof x402agent.PaymentProof

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return proof, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(raw, &proof); err != nil {
		return proof, fmt.Errorf("failed to unmarshal proof: %w", err)
	}

	return proof, nil
}

// EncodeSettlement converts a SettlementResponse to a base64-encoded JSON
// header value.
func EncodeSettlement(settlement x402agent.SettlementResponse) (string, error) {
	settlementJSON, err := json.Marshal(settlement)
	if err != nil {
		return "", fmt.Errorf("failed to marshal settlement: %w", err)
	}
	return base64.StdEncoding.EncodeToString(settlementJSON), nil
}

// DecodeSettlement converts a base64-encoded JSON header value to a
// SettlementResponse.
func DecodeSettlement(encoded string) (x402agent.SettlementResponse, error) {
	var settlement x402agent.SettlementResponse

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return settlement, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(raw, &settlement); err != nil {
		return settlement, fmt.Errorf("failed to unmarshal settlement: %w", err)
	}

	return settlement, nil
}

// flexInt64 parses a JSON value that may be a number or a quoted decimal
// string.
func flexInt64(raw json.RawMessage) (int64, error) {
	s := string(bytes.Trim(bytes.TrimSpace(raw), `"`))
	return strconv.ParseInt(s, 10, 64)
}

// flexAmount parses a non-negative integer amount that may be a JSON number
// or a quoted decimal string.
func flexAmount(raw json.RawMessage) (*big.Int, error) {
	s := string(bytes.Trim(bytes.TrimSpace(raw), `"`))
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("not a non-negative integer: %q", s)
	}
	return amount, nil
}
