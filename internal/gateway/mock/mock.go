package mock

import (
	"context"
	"strconv"
	"strings"

	"github.com/afrosatoshi1/STOR1/internal/gateway"
	apperrors "github.com/afrosatoshi1/STOR1/pkg/errors"
)

// Verifier is a payment verifier for development and demos. It never talks
// to a real provider; the reference itself encodes the outcome:
//
//	demo_<amount>   settled payment of <amount> kobo
//	failed_<any>    known but unsettled payment
//	anything else   unknown reference
type Verifier struct {
	currency string
}

// NewVerifier creates a new demo payment verifier.
func NewVerifier(currency string) *Verifier {
	return &Verifier{currency: currency}
}

// Name returns the provider name.
func (v *Verifier) Name() string {
	return "mock"
}

// Verify decodes the outcome from the reference.
func (v *Verifier) Verify(_ context.Context, reference string) (*gateway.VerificationResult, error) {
	if amt, ok := strings.CutPrefix(reference, "demo_"); ok {
		amount, err := strconv.ParseInt(amt, 10, 64)
		if err != nil || amount <= 0 {
			return nil, apperrors.NotFound("payment", reference)
		}
		return &gateway.VerificationResult{
			Settled:  true,
			Amount:   amount,
			Currency: v.currency,
		}, nil
	}

	if strings.HasPrefix(reference, "failed_") {
		return &gateway.VerificationResult{
			Settled:  false,
			Currency: v.currency,
		}, nil
	}

	return nil, apperrors.NotFound("payment", reference)
}
