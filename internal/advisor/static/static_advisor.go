package static

import (
	"context"

	"validoc/internal/advisor"
	"validoc/internal/config"
	"validoc/internal/port"
)

// defaultResponse approves the document with low confidence so downstream
// consumers still see a complete verdict in environments without API keys.
const defaultResponse = `{
    "is_valid": true,
    "confidence": 0.5,
    "errors": [],
    "warnings": ["Revisão automática indisponível; resposta padrão utilizada"],
    "analysis": "Resposta estática configurada; nenhum modelo foi consultado.",
    "recommendations": ["Verificar manualmente os dados extraídos"]
}`

// Advisor returns a canned response for every review. Used in local
// development and integration tests.
type Advisor struct {
	response string
}

// NewAdvisor creates a static advisor from a provider config. An empty
// StaticResponse falls back to a low-confidence approval.
func NewAdvisor(cfg *config.AdvisorProviderConfig) *Advisor {
	response := cfg.StaticResponse
	if response == "" {
		response = defaultResponse
	}
	return &Advisor{response: response}
}

func (a *Advisor) Review(_ context.Context, _ string) (string, error) {
	return a.response, nil
}

func init() {
	advisor.RegisterProvider("static", func(cfg *config.AdvisorProviderConfig) (port.Advisor, error) {
		return NewAdvisor(cfg), nil
	})
}
