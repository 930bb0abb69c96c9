package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/careroute/internal/domain/entities"
)

var (
	// ErrRateLimited indicates the gateway throttled the request
	ErrRateLimited = errors.New("classification gateway rate limited")

	// ErrQuotaExhausted indicates the gateway account has no credits left
	ErrQuotaExhausted = errors.New("classification gateway quota exhausted")

	// ErrMalformedResponse indicates the gateway answered without a usable result
	ErrMalformedResponse = errors.New("classification gateway returned a malformed response")

	// ErrGatewayUnavailable covers transport failures and unexpected statuses
	ErrGatewayUnavailable = errors.New("classification gateway unavailable")
)

// ClassificationProvider classifies a symptom report into a specialty and
// urgency using an external model.
type ClassificationProvider interface {
	Classify(ctx context.Context, report *entities.SymptomReport) (*entities.ClassificationResult, error)
}
