package gateway

import (
	"context"
)

// VerificationResult holds what the payment provider reports for a reference.
// Amount is in minor units (kobo).
type VerificationResult struct {
	Settled  bool
	Amount   int64
	Currency string
}

// Verifier checks the settlement state of a payment reference with the
// provider. Checkout trusts only this answer, never client-supplied amounts.
type Verifier interface {
	// Name returns the provider name (e.g., "mock", "paystack").
	Name() string

	// Verify looks up a payment reference with the provider. An unknown
	// reference returns ErrNotFound; a provider outage returns a retryable
	// VerifierUnavailable error.
	Verify(ctx context.Context, reference string) (*VerificationResult, error)
}
