package advisor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"validoc/internal/advisor"
	"validoc/internal/port"
)

type stubAdvisor struct {
	reply string
	err   error
	calls int
}

func (s *stubAdvisor) Review(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestFallbackAdvisor(t *testing.T) {
	t.Run("primary success short-circuits", func(t *testing.T) {
		primary := &stubAdvisor{reply: "ok-primary"}
		secondary := &stubAdvisor{reply: "ok-secondary"}
		f := advisor.NewFallbackAdvisor(
			[]port.Advisor{primary, secondary}, []string{"groq", "openai"})

		out, err := f.Review(context.Background(), "prompt")

		require.NoError(t, err)
		assert.Equal(t, "ok-primary", out)
		assert.Equal(t, 1, primary.calls)
		assert.Zero(t, secondary.calls)
	})

	t.Run("falls back on failure and reports it", func(t *testing.T) {
		primary := &stubAdvisor{err: errors.New("boom")}
		secondary := &stubAdvisor{reply: "ok-secondary"}
		f := advisor.NewFallbackAdvisor(
			[]port.Advisor{primary, secondary}, []string{"groq", "openai"})

		var fallbacks []string
		f.OnFallback = func(name string) { fallbacks = append(fallbacks, name) }

		out, err := f.Review(context.Background(), "prompt")

		require.NoError(t, err)
		assert.Equal(t, "ok-secondary", out)
		assert.Equal(t, []string{"groq"}, fallbacks)
	})

	t.Run("rate limit opens the circuit", func(t *testing.T) {
		primary := &stubAdvisor{err: advisor.NewRateLimitError("groq", errors.New("429"), 60)}
		secondary := &stubAdvisor{reply: "ok-secondary"}
		f := advisor.NewFallbackAdvisor(
			[]port.Advisor{primary, secondary}, []string{"groq", "openai"})

		out, err := f.Review(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, "ok-secondary", out)
		assert.Equal(t, 1, primary.calls)

		// second call skips the rate-limited primary entirely
		out, err = f.Review(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, "ok-secondary", out)
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 2, secondary.calls)
	})

	t.Run("all rate limited surfaces a rate-limit error", func(t *testing.T) {
		primary := &stubAdvisor{err: advisor.NewRateLimitError("groq", errors.New("429"), 30)}
		secondary := &stubAdvisor{err: advisor.NewRateLimitError("openai", errors.New("429"), 90)}
		f := advisor.NewFallbackAdvisor(
			[]port.Advisor{primary, secondary}, []string{"groq", "openai"})

		_, err := f.Review(context.Background(), "prompt")

		var rl *advisor.RateLimitError
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, "all", rl.Provider)
	})

	t.Run("mixed failures return the last error", func(t *testing.T) {
		primary := &stubAdvisor{err: advisor.NewRateLimitError("groq", errors.New("429"), 30)}
		secondary := &stubAdvisor{err: errors.New("timeout")}
		f := advisor.NewFallbackAdvisor(
			[]port.Advisor{primary, secondary}, []string{"groq", "openai"})

		_, err := f.Review(context.Background(), "prompt")

		require.Error(t, err)
		var rl *advisor.RateLimitError
		assert.False(t, errors.As(err, &rl))
		assert.ErrorContains(t, err, "timeout")
	})
}

func TestRateLimitError(t *testing.T) {
	inner := errors.New("too many requests")
	err := advisor.NewRateLimitError("groq", inner, 30)

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "groq")
	assert.Contains(t, err.Error(), "30s")

	t.Run("zero retry-after defaults to a minute", func(t *testing.T) {
		err := advisor.NewRateLimitError("groq", inner, 0)
		assert.Contains(t, err.Error(), "1m0s")
	})
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 30, advisor.ParseRetryAfterHeader("30"))
	assert.Equal(t, 0, advisor.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, advisor.ParseRetryAfterHeader("Wed, 21 Oct 2026 07:28:00 GMT"))
}
