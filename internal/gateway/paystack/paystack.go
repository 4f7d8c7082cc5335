package paystack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/afrosatoshi1/STOR1/internal/gateway"
	apperrors "github.com/afrosatoshi1/STOR1/pkg/errors"
	"github.com/afrosatoshi1/STOR1/pkg/httpclient"
)

const defaultBaseURL = "https://api.paystack.co"

// statusSuccess is the only transaction status Paystack reports for money
// that has actually settled. "failed" and "abandoned" both mean no money.
const statusSuccess = "success"

// Verifier verifies payment references against the Paystack transaction API.
// All calls go through a retrying client wrapped in a circuit breaker, so a
// provider outage fails fast instead of piling up checkout goroutines.
type Verifier struct {
	baseURL   string
	secretKey string
	client    *httpclient.CircuitBreakerClient
	logger    *slog.Logger
}

// Option configures the Verifier.
type Option func(*Verifier)

// WithBaseURL overrides the Paystack API base URL. Used in tests.
func WithBaseURL(u string) Option {
	return func(v *Verifier) {
		v.baseURL = strings.TrimRight(u, "/")
	}
}

// NewVerifier creates a Paystack-backed payment verifier.
func NewVerifier(secretKey string, client *httpclient.CircuitBreakerClient, logger *slog.Logger, opts ...Option) *Verifier {
	v := &Verifier{
		baseURL:   defaultBaseURL,
		secretKey: secretKey,
		client:    client,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Name returns the provider name.
func (v *Verifier) Name() string {
	return "paystack"
}

// verifyResponse mirrors the Paystack transaction verify envelope.
type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// Verify looks up a transaction by reference. Transport failures, 5xx
// responses, and an open circuit all surface as VerifierUnavailable so the
// caller can tell the client to retry; a reference Paystack does not know
// is ErrNotFound.
func (v *Verifier) Verify(ctx context.Context, reference string) (*gateway.VerificationResult, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", v.baseURL, url.PathEscape(reference))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.secretKey)

	resp, err := v.client.Do(ctx, req)
	if err != nil {
		v.logger.WarnContext(ctx, "paystack verify unreachable",
			slog.String("reference", reference),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.VerifierUnavailable("payment provider unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.VerifierUnavailable("read provider response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound:
		// Paystack answers 400/404 for references it has never seen.
		return nil, apperrors.NotFound("payment", reference)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apperrors.Internal(fmt.Errorf("paystack rejected credentials: %s", string(body)))
	default:
		return nil, apperrors.VerifierUnavailable(fmt.Sprintf("provider returned %d", resp.StatusCode))
	}

	var vr verifyResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, apperrors.VerifierUnavailable("malformed provider response")
	}
	if !vr.Status {
		return nil, apperrors.NotFound("payment", reference)
	}

	return &gateway.VerificationResult{
		Settled:  vr.Data.Status == statusSuccess,
		Amount:   vr.Data.Amount,
		Currency: vr.Data.Currency,
	}, nil
}
