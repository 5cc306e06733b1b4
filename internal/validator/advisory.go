package validator

import (
	"encoding/json"
	"fmt"
	"regexp"

	"validoc/internal/domain"
)

// advisoryJSONBlock grabs the widest brace-delimited block in the response,
// which tolerates models that wrap their JSON in prose or markdown fences.
var advisoryJSONBlock = regexp.MustCompile(`(?s)\{.*\}`)

const (
	advisoryUnparseableError = "Não foi possível processar a resposta do validador"
	advisoryManualReviewHint = "Verificar manualmente os dados extraídos"
)

// ParseAdvisoryResponse turns a raw model reply into a structured verdict.
// It never returns an error: an unreadable reply becomes an invalid verdict
// carrying the raw text in Analysis so an operator can review it.
func ParseAdvisoryResponse(raw string) *domain.AdvisoryVerdict {
	block := advisoryJSONBlock.FindString(raw)
	if block == "" {
		return unparseableVerdict(raw, advisoryUnparseableError)
	}

	var verdict domain.AdvisoryVerdict
	if err := json.Unmarshal([]byte(block), &verdict); err != nil {
		return unparseableVerdict(raw, fmt.Sprintf("Erro no formato da resposta: %v", err))
	}

	if verdict.Errors == nil {
		verdict.Errors = []string{}
	}
	if verdict.Warnings == nil {
		verdict.Warnings = []string{}
	}
	if verdict.Recommendations == nil {
		verdict.Recommendations = []string{}
	}
	if verdict.Confidence < 0 {
		verdict.Confidence = 0
	}
	if verdict.Confidence > 1 {
		verdict.Confidence = 1
	}
	return &verdict
}

func unparseableVerdict(raw, msg string) *domain.AdvisoryVerdict {
	return &domain.AdvisoryVerdict{
		IsValid:         false,
		Confidence:      0,
		Errors:          []string{msg},
		Warnings:        []string{},
		Analysis:        raw,
		Recommendations: []string{advisoryManualReviewHint},
	}
}
