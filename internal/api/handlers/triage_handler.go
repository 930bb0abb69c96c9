package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/careroute/internal/application/services"
	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/pkg/geo"
)

// SessionHeader identifies the browser session a classification belongs to
const SessionHeader = "X-Session-Id"

// TriageService defines the classification operations the handler needs
type TriageService interface {
	Classify(ctx context.Context, sessionID string, report *entities.SymptomReport) (*entities.ClassificationResult, error)
	LatestResult(sessionID string) (*entities.ClassificationResult, bool)
}

// RecommendationService turns a classification into matched providers
type RecommendationService interface {
	Recommend(ctx context.Context, result *entities.ClassificationResult, userPos *geo.Coordinate) (*services.Recommendation, error)
}

// TriageHandler handles symptom classification and recommendation requests
type TriageHandler struct {
	triage  TriageService
	matcher RecommendationService
}

// NewTriageHandler creates a new triage handler
func NewTriageHandler(triage TriageService, matcher RecommendationService) *TriageHandler {
	return &TriageHandler{triage: triage, matcher: matcher}
}

// RecommendationRequest asks for providers matching a classification
type RecommendationRequest struct {
	Result   *entities.ClassificationResult `json:"result"`
	Position *geo.Coordinate                `json:"position,omitempty"`
	Language entities.Language              `json:"language,omitempty"`
}

// RecommendationResponse is the recommendation panel payload
type RecommendationResponse struct {
	Result    *entities.ClassificationResult `json:"result"`
	Doctors   []DoctorListing                `json:"doctors"`
	Hospitals []HospitalListing              `json:"hospitals"`
	Labs      []LabListing                   `json:"labs"`
}

// Classify handles POST /api/triage/classify
func (h *TriageHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var report entities.SymptomReport
	if !decodeJSON(w, r, &report) {
		return
	}

	result, err := h.triage.Classify(r.Context(), sessionID(r), &report)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// LatestResult handles GET /api/triage/result
func (h *TriageHandler) LatestResult(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if id == "" {
		respondWithError(w, http.StatusBadRequest, SessionHeader+" header is required")
		return
	}

	result, ok := h.triage.LatestResult(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, "no classification for this session")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// Recommend handles POST /api/triage/recommendations
func (h *TriageHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Result == nil {
		respondWithError(w, http.StatusBadRequest, "result is required")
		return
	}
	if req.Position != nil && !req.Position.IsValid() {
		respondWithError(w, http.StatusBadRequest, "invalid position")
		return
	}

	lang := req.Language
	if !lang.IsValid() {
		lang = parseLanguage(r)
	}

	rec, err := h.matcher.Recommend(r.Context(), req.Result, req.Position)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, RecommendationResponse{
		Result:    req.Result,
		Doctors:   doctorListings(rec.Doctors, lang),
		Hospitals: hospitalListings(rec.Hospitals, lang),
		Labs:      labListings(rec.Labs, lang),
	})
}

func sessionID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}
