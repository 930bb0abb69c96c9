package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/domain/providers"
	"github.com/zatekoja/careroute/pkg/config"
)

func toolCallResponse(args string) string {
	envelope := map[string]interface{}{
		"choices": []interface{}{
			map[string]interface{}{
				"message": map[string]interface{}{
					"tool_calls": []interface{}{
						map[string]interface{}{
							"type": "function",
							"function": map[string]interface{}{
								"name":      classifyToolName,
								"arguments": args,
							},
						},
					},
				},
			},
		},
	}
	b, _ := json.Marshal(envelope)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(&config.GatewayConfig{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		Model:        "test-model",
		Timeout:      2 * time.Second,
		RateLimitRPM: -1,
	})
	require.NoError(t, err)
	return c
}

func sampleReport() *entities.SymptomReport {
	age := 54
	return &entities.SymptomReport{
		Symptoms:       "chest pain radiating to left arm",
		Age:            &age,
		Gender:         entities.GenderMale,
		PainLevel:      8,
		EmergencyFlags: entities.EmergencyFlags{ChestPain: true},
		Language:       entities.LanguageEnglish,
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(&config.GatewayConfig{})
	assert.Error(t, err)

	_, err = NewClient(nil)
	assert.Error(t, err)
}

func TestClassify_Success(t *testing.T) {
	var captured chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(toolCallResponse(`{"specialty":" Cardiology ","severity":"High","nextStep":"Go to the ER","confidence":92,"suggestedTests":["ECG","Troponin", " "]}`)))
	})

	result, err := c.Classify(context.Background(), sampleReport())
	require.NoError(t, err)

	assert.Equal(t, "Cardiology", result.Specialty)
	assert.Equal(t, entities.SeverityHigh, result.Severity)
	assert.Equal(t, "Go to the ER", result.NextStep)
	assert.Equal(t, 92.0, result.Confidence)
	assert.Equal(t, []string{"ECG", "Troponin"}, result.SuggestedTests)

	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Contains(t, captured.Messages[0].Content, "Respond in English")
	assert.Contains(t, captured.Messages[1].Content, "Chest pain: true")
	assert.Contains(t, captured.Messages[1].Content, "Age: 54")
}

func TestClassify_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, providers.ErrRateLimited},
		{"quota exhausted", http.StatusPaymentRequired, providers.ErrQuotaExhausted},
		{"server error", http.StatusInternalServerError, providers.ErrGatewayUnavailable},
		{"unauthorized", http.StatusUnauthorized, providers.ErrGatewayUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			})

			_, err := c.Classify(context.Background(), sampleReport())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClassify_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"choices":[]}`},
		{"no tool call", `{"choices":[{"message":{"content":"I think cardiology"}}]}`},
		{"bad arguments", toolCallResponse(`{not json`)},
		{"invalid severity", toolCallResponse(`{"specialty":"ENT","severity":"critical","nextStep":"","confidence":50,"suggestedTests":[]}`)},
		{"empty specialty", toolCallResponse(`{"specialty":"  ","severity":"low","nextStep":"","confidence":50,"suggestedTests":[]}`)},
		{"not json", `<html>bad gateway</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Classify(context.Background(), sampleReport())
			assert.ErrorIs(t, err, providers.ErrMalformedResponse)
		})
	}
}

func TestClassify_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(&config.GatewayConfig{APIKey: "k", BaseURL: url, RateLimitRPM: -1})
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), sampleReport())
	assert.ErrorIs(t, err, providers.ErrGatewayUnavailable)
}

func TestClassify_CanceledContext(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Classify(ctx, sampleReport())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassify_ClampsConfidence(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(toolCallResponse(`{"specialty":"ENT","severity":"low","nextStep":"rest","confidence":140,"suggestedTests":null}`)))
	})

	result, err := c.Classify(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Confidence)
	assert.NotNil(t, result.SuggestedTests)
	assert.Empty(t, result.SuggestedTests)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, newLimiter(-1, 0))

	l := newLimiter(0, 0)
	require.NotNil(t, l)
	assert.Equal(t, 5, l.Burst())
}

func TestBuildPrompts(t *testing.T) {
	t.Run("arabic answer language", func(t *testing.T) {
		assert.Contains(t, buildSystemPrompt(entities.LanguageArabic), "Respond in Arabic")
		assert.Contains(t, buildSystemPrompt(entities.LanguageEnglish), "Respond in English")
	})

	t.Run("defaults for missing fields", func(t *testing.T) {
		prompt := buildUserPrompt(&entities.SymptomReport{Symptoms: "itchy rash", PainLevel: 2})
		assert.Contains(t, prompt, "Age: not provided")
		assert.Contains(t, prompt, "Gender: not provided")
		assert.Contains(t, prompt, "Chronic diseases: none")
		assert.Contains(t, prompt, "Pain level: 2/10")
		assert.True(t, strings.HasSuffix(prompt, "Emergency flags: None"))
	})
}
