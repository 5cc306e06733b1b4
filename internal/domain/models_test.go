package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"validoc/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestFieldMapValues(t *testing.T) {
	m := domain.FieldMap{
		"nome": {Value: strPtr("Maria Souza"), Confidence: 0.9},
		"cpf":  {Value: nil, Confidence: 0},
	}

	values := m.Values()

	assert.Equal(t, map[string]string{"nome": "Maria Souza"}, values)
}

func TestDocumentRecordOverallStatus(t *testing.T) {
	base := domain.DocumentRecord{
		Status: domain.ProcessingStatusCompleted,
		Verdict: domain.ValidationVerdict{
			AdvisoryVerdict: domain.AdvisoryVerdict{IsValid: true},
		},
	}

	t.Run("valid", func(t *testing.T) {
		rec := base
		assert.Equal(t, domain.ValidationStatusValid, rec.OverallStatus())
	})

	t.Run("incomplete processing reports error", func(t *testing.T) {
		for _, status := range []domain.ProcessingStatus{
			domain.ProcessingStatusQueued,
			domain.ProcessingStatusProcessing,
			domain.ProcessingStatusFailed,
		} {
			rec := base
			rec.Status = status
			assert.Equal(t, domain.ValidationStatusError, rec.OverallStatus(), "status %s", status)
		}
	})

	t.Run("advisory invalid wins over warnings", func(t *testing.T) {
		rec := base
		rec.Verdict.IsValid = false
		rec.Verdict.Warnings = []string{"algo"}
		assert.Equal(t, domain.ValidationStatusInvalid, rec.OverallStatus())
	})

	t.Run("any warning demotes to warning status", func(t *testing.T) {
		rec := base
		rec.Verdict.TypeSpecificWarnings = []string{"CNH está vencida"}
		assert.Equal(t, domain.ValidationStatusWarning, rec.OverallStatus())
	})

	t.Run("type-specific errors do not flip validity", func(t *testing.T) {
		rec := base
		rec.Verdict.TypeSpecificErrors = []string{"CPF inválido"}
		assert.Equal(t, domain.ValidationStatusValid, rec.OverallStatus())
	})
}

func TestVerdictAggregates(t *testing.T) {
	v := domain.ValidationVerdict{
		AdvisoryVerdict: domain.AdvisoryVerdict{
			Errors:   []string{"erro advisory"},
			Warnings: []string{"aviso advisory"},
		},
		TypeSpecificErrors:   []string{"erro regra"},
		TypeSpecificWarnings: []string{"aviso regra"},
	}

	assert.Equal(t, []string{"erro advisory", "erro regra"}, v.AllErrors())
	assert.Equal(t, []string{"aviso advisory", "aviso regra"}, v.AllWarnings())
}

func TestVerdictJSONBRoundTrip(t *testing.T) {
	v := domain.ValidationVerdict{
		AdvisoryVerdict: domain.AdvisoryVerdict{
			IsValid:         true,
			Confidence:      0.87,
			Errors:          []string{},
			Warnings:        []string{"Conferir foto"},
			Analysis:        "Documento consistente",
			Recommendations: []string{},
		},
		TypeSpecificErrors:   []string{},
		TypeSpecificWarnings: []string{},
		ValidationTime:       1.25,
	}

	raw, err := v.Value()
	require.NoError(t, err)

	var loaded domain.ValidationVerdict
	require.NoError(t, loaded.Scan(raw))
	assert.Equal(t, v, loaded)

	t.Run("nil column yields the zero verdict", func(t *testing.T) {
		var loaded domain.ValidationVerdict
		require.NoError(t, loaded.Scan(nil))
		assert.False(t, loaded.IsValid)
	})
}

func TestFieldMapJSONB(t *testing.T) {
	var nilMap domain.FieldMap
	raw, err := nilMap.Value()
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(raw.([]byte)))

	m := domain.FieldMap{"cpf": {Value: strPtr("18843332732"), Confidence: 0.9}}
	raw, err = m.Value()
	require.NoError(t, err)

	var loaded domain.FieldMap
	require.NoError(t, loaded.Scan(raw))
	assert.Equal(t, m, loaded)

	var check map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw.([]byte), &check))
	assert.Contains(t, check, "cpf")
}
