package validator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"validoc/internal/domain"
	"validoc/internal/validator"
)

var rulesNow = time.Date(2025, 1, 27, 12, 0, 0, 0, time.UTC)

func evaluateCNH(t *testing.T, fields map[string]string) validator.Finding {
	t.Helper()
	return validator.Evaluate(validator.RulesFor(domain.DocumentTypeCNH), fields, rulesNow)
}

func TestCNHRules(t *testing.T) {
	t.Run("well-formed license has no findings", func(t *testing.T) {
		f := evaluateCNH(t, map[string]string{
			"nome":            "Maria Souza",
			"cpf":             "188.433.327-32",
			"numero_registro": "07450883117",
			"categoria":       "B",
			"data_emissao":    "2025-01-27",
			"data_validade":   "2035-01-27",
			"data_nascimento": "2001-05-02",
		})

		assert.Empty(t, f.Errors)
		assert.Empty(t, f.Warnings)
	})

	t.Run("bad CPF checksum is an error", func(t *testing.T) {
		f := evaluateCNH(t, map[string]string{"cpf": "188.433.327-33"})

		assert.Equal(t, []string{"CPF inválido"}, f.Errors)
		assert.Empty(t, f.Warnings)
	})

	t.Run("registry number must have eleven digits", func(t *testing.T) {
		f := evaluateCNH(t, map[string]string{"numero_registro": "1234567"})

		assert.Empty(t, f.Errors)
		assert.Equal(t, []string{"Número de registro não segue o padrão de CNH (11 dígitos)"}, f.Warnings)
	})

	t.Run("registry number tolerates separators", func(t *testing.T) {
		f := evaluateCNH(t, map[string]string{"numero_registro": "074.508.831-17"})

		assert.Empty(t, f.Warnings)
	})

	t.Run("category is matched case-insensitively", func(t *testing.T) {
		for _, cat := range []string{"b", "ab", " ACC ", "E"} {
			f := evaluateCNH(t, map[string]string{"categoria": cat})
			assert.Empty(t, f.Warnings, "category %q should be accepted", cat)
		}
	})

	t.Run("unknown category warns", func(t *testing.T) {
		f := evaluateCNH(t, map[string]string{"categoria": "X"})

		assert.Equal(t, []string{"Categoria de CNH pode estar incorreta"}, f.Warnings)
	})

	t.Run("malformed expiry is an error without the expired warning", func(t *testing.T) {
		f := evaluateCNH(t, map[string]string{"data_validade": "31/12/2030"})

		assert.Equal(t, []string{"Data de validade inválida"}, f.Errors)
		assert.Empty(t, f.Warnings)
	})

	t.Run("expired license warns", func(t *testing.T) {
		f := evaluateCNH(t, map[string]string{"data_validade": "2024-06-30"})

		assert.Empty(t, f.Errors)
		assert.Equal(t, []string{"CNH está vencida"}, f.Warnings)
	})

	t.Run("absent fields produce no findings", func(t *testing.T) {
		f := evaluateCNH(t, map[string]string{})

		assert.Empty(t, f.Errors)
		assert.Empty(t, f.Warnings)
	})

	t.Run("multiple findings keep rule order", func(t *testing.T) {
		f := evaluateCNH(t, map[string]string{
			"cpf":             "11111111111",
			"numero_registro": "123",
			"categoria":       "Z",
			"data_validade":   "2020-01-01",
		})

		assert.Equal(t, []string{"CPF inválido"}, f.Errors)
		assert.Equal(t, []string{
			"Número de registro não segue o padrão de CNH (11 dígitos)",
			"Categoria de CNH pode estar incorreta",
			"CNH está vencida",
		}, f.Warnings)
	})
}
