package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/careroute/pkg/errors"
	"github.com/zatekoja/careroute/pkg/geo"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 64 << 10

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an error to its HTTP status. Internal details
// are logged, never returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := statusFor(appErr.Type)
	if status == http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		respondWithError(w, status, "internal server error")
		return
	}
	respondWithError(w, status, appErr.Message)
}

func statusFor(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeConflict, apperrors.ErrorTypeCanceled:
		return http.StatusConflict
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrorTypeQuotaExhausted:
		return http.StatusPaymentRequired
	case apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

// parsePosition reads the optional lat/lng query parameters. Both must be
// present for a position to be used.
func parsePosition(r *http.Request) (*geo.Coordinate, error) {
	query := r.URL.Query()
	latStr, lngStr := query.Get("lat"), query.Get("lng")
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, apperrors.NewValidationError("lat and lng must be provided together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, apperrors.NewValidationError("invalid latitude parameter")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, apperrors.NewValidationError("invalid longitude parameter")
	}
	return &geo.Coordinate{Latitude: lat, Longitude: lng}, nil
}

// parseLanguage reads ?lang=, then Accept-Language, defaulting to English
func parseLanguage(r *http.Request) entities.Language {
	if lang := entities.Language(strings.ToLower(r.URL.Query().Get("lang"))); lang.IsValid() {
		return lang
	}
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Accept-Language")), "ar") {
		return entities.LanguageArabic
	}
	return entities.LanguageEnglish
}
