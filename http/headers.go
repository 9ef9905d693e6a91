package http

// Header names for the x402 negotiation. These names are the protocol
// contract of this client: requirements and settlement acknowledgments are
// read from the primary name first, then the legacy X- form; the proof is
// written under HeaderPaymentSignature only.
const (
	// HeaderPaymentRequired carries the base64 payment requirement on a 402
	// response.
	HeaderPaymentRequired = "Payment-Required"

	// HeaderPaymentRequiredLegacy is the X-prefixed form emitted by older
	// servers.
	HeaderPaymentRequiredLegacy = "X-Payment-Required"

	// HeaderPaymentSignature carries the base64 payment proof on the
	// retried request.
	HeaderPaymentSignature = "Payment-Signature"

	// HeaderPaymentResponse carries the optional base64 settlement
	// acknowledgment on the paid response.
	HeaderPaymentResponse = "Payment-Response"

	// HeaderPaymentResponseLegacy is the X-prefixed form emitted by older
	// servers.
	HeaderPaymentResponseLegacy = "X-Payment-Response"
)
