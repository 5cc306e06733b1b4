package advisor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"validoc/internal/advisor"
	"validoc/internal/domain"
	"validoc/internal/validator"
)

func TestBuildValidationPrompt(t *testing.T) {
	now := time.Date(2025, 1, 27, 12, 0, 0, 0, time.UTC)

	t.Run("CNH prompt embeds the payload", func(t *testing.T) {
		pre := validator.Preprocess(domain.DocumentTypeCNH, map[string]string{
			"nome":          "Maria Souza",
			"data_validade": "2035-01-27",
		}, now)

		prompt := advisor.BuildValidationPrompt(domain.DocumentTypeCNH, pre)

		assert.Contains(t, prompt, "de uma CNH")
		assert.Contains(t, prompt, "DADOS PRÉ-PROCESSADOS:")
		assert.Contains(t, prompt, `"nome": "Maria Souza"`)
		assert.Contains(t, prompt, `"dias_para_vencimento": 3652`)
		assert.Contains(t, prompt, "comparacoes_datas")
	})

	t.Run("RG prompt uses its own template", func(t *testing.T) {
		pre := validator.Preprocess(domain.DocumentTypeRG, map[string]string{
			"numero_rg": "12.345.678-9",
		}, now)

		prompt := advisor.BuildValidationPrompt(domain.DocumentTypeRG, pre)

		assert.Contains(t, prompt, "de um RG")
		assert.Contains(t, prompt, "numero_rg")
		assert.NotContains(t, prompt, "periodo_validade_anos")
	})
}
