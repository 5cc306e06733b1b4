package groq_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"validoc/internal/advisor"
	"validoc/internal/advisor/groq"
	"validoc/internal/config"
)

func TestGroqAdvisorReview(t *testing.T) {
	cfg := &config.AdvisorProviderConfig{Provider: "groq", APIKey: "test-key"}

	t.Run("sends the expected chat request", func(t *testing.T) {
		var captured map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"role": "assistant", "content": `{"is_valid": true}`}},
				},
			})
		}))
		defer server.Close()

		a := groq.NewAdvisorWithEndpoint(cfg, server.URL)
		out, err := a.Review(context.Background(), "analise este documento")

		require.NoError(t, err)
		assert.Equal(t, `{"is_valid": true}`, out)

		assert.Equal(t, "llama-3.3-70b-versatile", captured["model"])
		assert.Equal(t, 0.1, captured["temperature"])
		assert.Equal(t, float64(2000), captured["max_tokens"])

		messages := captured["messages"].([]interface{})
		require.Len(t, messages, 2)
		system := messages[0].(map[string]interface{})
		assert.Equal(t, "system", system["role"])
		assert.Equal(t, advisor.SystemMessage, system["content"])
		user := messages[1].(map[string]interface{})
		assert.Equal(t, "analise este documento", user["content"])
	})

	t.Run("429 maps to a rate-limit error with Retry-After", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "42")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		a := groq.NewAdvisorWithEndpoint(cfg, server.URL)
		_, err := a.Review(context.Background(), "prompt")

		var rl *advisor.RateLimitError
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, "groq", rl.Provider)
		assert.Equal(t, "42s", rl.RetryAfter.String())
	})

	t.Run("non-200 is a plain error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad request", http.StatusBadRequest)
		}))
		defer server.Close()

		a := groq.NewAdvisorWithEndpoint(cfg, server.URL)
		_, err := a.Review(context.Background(), "prompt")

		require.Error(t, err)
		var rl *advisor.RateLimitError
		assert.False(t, errors.As(err, &rl))
		assert.Contains(t, err.Error(), "status 400")
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		a := groq.NewAdvisorWithEndpoint(cfg, server.URL)
		_, err := a.Review(context.Background(), "prompt")

		assert.ErrorContains(t, err, "no choices")
	})
}

func TestGroqProviderRegistered(t *testing.T) {
	a, err := advisor.NewAdvisor(&config.AdvisorProviderConfig{Provider: "groq", APIKey: "k"})

	require.NoError(t, err)
	assert.IsType(t, &groq.Advisor{}, a)
}
