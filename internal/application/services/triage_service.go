package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/domain/providers"
	"github.com/zatekoja/careroute/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/careroute/pkg/errors"
)

const (
	maxSymptomsLength = 2000
	maxAge            = 150

	defaultTriageTimeout   = 45 * time.Second
	defaultSessionCapacity = 1000
	defaultSessionTTL      = 30 * time.Minute
)

// errSuperseded is the cancel cause for a call replaced by a newer
// submission from the same session
var errSuperseded = errors.New("superseded by a newer submission")

// TriageConfig tunes the triage service
type TriageConfig struct {
	Timeout         time.Duration
	SessionCapacity int
	SessionTTL      time.Duration
}

type inflightCall struct {
	id     uint64
	cancel context.CancelCauseFunc
}

// TriageService validates symptom reports and forwards them to the
// classification gateway. At most one call per session is in flight: a new
// submission cancels the previous one.
type TriageService struct {
	classifier providers.ClassificationProvider
	timeout    time.Duration
	metrics    *observability.Metrics

	mu       sync.Mutex
	seq      uint64
	inflight map[string]*inflightCall

	results *expirable.LRU[string, *entities.ClassificationResult]
}

// NewTriageService creates a triage service. classifier may be nil when no
// gateway is configured; every classification then fails with an external
// error.
func NewTriageService(classifier providers.ClassificationProvider, cfg TriageConfig, metrics *observability.Metrics) *TriageService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTriageTimeout
	}
	if cfg.SessionCapacity <= 0 {
		cfg.SessionCapacity = defaultSessionCapacity
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	return &TriageService{
		classifier: classifier,
		timeout:    cfg.Timeout,
		metrics:    metrics,
		inflight:   make(map[string]*inflightCall),
		results:    expirable.NewLRU[string, *entities.ClassificationResult](cfg.SessionCapacity, nil, cfg.SessionTTL),
	}
}

// ValidateReport normalizes report in place and checks it before any
// network call is made.
func ValidateReport(report *entities.SymptomReport) error {
	if report == nil {
		return apperrors.NewValidationError("symptom report is required")
	}
	report.Normalize()

	if report.Symptoms == "" {
		return apperrors.NewValidationError("symptoms are required")
	}
	if utf8.RuneCountInString(report.Symptoms) > maxSymptomsLength {
		return apperrors.NewValidationError(fmt.Sprintf("symptoms must be at most %d characters", maxSymptomsLength))
	}
	if report.Age != nil && (*report.Age < 0 || *report.Age > maxAge) {
		return apperrors.NewValidationError(fmt.Sprintf("age must be between 0 and %d", maxAge))
	}
	if report.PainLevel < 1 || report.PainLevel > 10 {
		return apperrors.NewValidationError("pain level must be between 1 and 10")
	}
	switch report.Gender {
	case "", entities.GenderMale, entities.GenderFemale:
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported gender %q", report.Gender))
	}
	if !report.Language.IsValid() {
		return apperrors.NewValidationError(fmt.Sprintf("unsupported language %q", report.Language))
	}
	return nil
}

// Classify validates report and classifies it. sessionID groups
// submissions from one form; an empty sessionID disables replacement and
// result storage. On failure the session's previous result is kept.
func (s *TriageService) Classify(ctx context.Context, sessionID string, report *entities.SymptomReport) (*entities.ClassificationResult, error) {
	if err := ValidateReport(report); err != nil {
		observability.RecordClassification(ctx, s.metrics, "invalid")
		return nil, err
	}
	if s.classifier == nil {
		observability.RecordClassification(ctx, s.metrics, "unconfigured")
		return nil, apperrors.NewExternalError("classification gateway is not configured", providers.ErrGatewayUnavailable)
	}

	callCtx, cancelCall := context.WithCancelCause(ctx)
	defer cancelCall(nil)
	id := s.register(sessionID, cancelCall)

	timeoutCtx, cancelTimeout := context.WithTimeout(callCtx, s.timeout)
	defer cancelTimeout()

	result, err := s.classifier.Classify(timeoutCtx, report)

	if current := s.complete(sessionID, id, result, err); !current {
		observability.RecordClassification(ctx, s.metrics, "superseded")
		return nil, apperrors.NewCanceledError("classification superseded by a newer submission", errSuperseded)
	}

	if err != nil {
		mapped := s.mapError(ctx, timeoutCtx, err)
		observability.RecordClassification(ctx, s.metrics, "error")
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("Symptom classification failed")
		return nil, mapped
	}

	observability.RecordClassification(ctx, s.metrics, "success")
	return result, nil
}

// LatestResult returns the last successful classification for sessionID
func (s *TriageService) LatestResult(sessionID string) (*entities.ClassificationResult, bool) {
	if sessionID == "" {
		return nil, false
	}
	return s.results.Get(sessionID)
}

// register records the call as the session's current one and cancels the
// call it replaces
func (s *TriageService) register(sessionID string, cancel context.CancelCauseFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if sessionID == "" {
		return s.seq
	}
	if prev, ok := s.inflight[sessionID]; ok {
		prev.cancel(errSuperseded)
	}
	s.inflight[sessionID] = &inflightCall{id: s.seq, cancel: cancel}
	return s.seq
}

// complete deregisters the call and stores a successful result. It reports
// false when a newer call replaced this one, in which case nothing is
// stored.
func (s *TriageService) complete(sessionID string, id uint64, result *entities.ClassificationResult, err error) bool {
	if sessionID == "" {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.inflight[sessionID]
	if !ok || current.id != id {
		return false
	}
	delete(s.inflight, sessionID)

	if err == nil && result != nil {
		s.results.Add(sessionID, result)
	}
	return true
}

func (s *TriageService) mapError(parent, call context.Context, err error) error {
	switch {
	case errors.Is(err, providers.ErrRateLimited):
		return apperrors.NewRateLimitedError("classification service is busy, please try again shortly", err)
	case errors.Is(err, providers.ErrQuotaExhausted):
		return apperrors.NewQuotaExhaustedError("classification credits are exhausted", err)
	case parent.Err() != nil:
		return apperrors.NewCanceledError("classification request was abandoned", parent.Err())
	case errors.Is(call.Err(), context.DeadlineExceeded):
		return apperrors.NewExternalError(fmt.Sprintf("classification timed out after %s", s.timeout), providers.ErrGatewayUnavailable)
	case errors.Is(err, providers.ErrMalformedResponse):
		return apperrors.NewExternalError("classification service returned an unusable answer", err)
	default:
		return apperrors.NewExternalError("classification service is unavailable", err)
	}
}
