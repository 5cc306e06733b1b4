package validator

import (
	"context"
	"fmt"
	"log"
	"time"

	"validoc/internal/advisor"
	"validoc/internal/domain"
	"validoc/internal/port"
)

// Engine runs the full validation pipeline for a document: temporal
// preprocessing, an advisory model review, and the deterministic per-type
// rules. The advisory verdict decides is_valid; the deterministic findings
// travel alongside it without flipping validity.
type Engine struct {
	advisor port.Advisor
	now     func() time.Time
}

func NewEngine(a port.Advisor) *Engine {
	return &Engine{
		advisor: a,
		now:     time.Now,
	}
}

// Validate evaluates the extracted fields of a document and returns the
// combined verdict. It fails hard when the advisory model cannot be reached:
// a verdict without a review is worthless downstream.
func (e *Engine) Validate(ctx context.Context, docType domain.DocumentType, fields domain.FieldMap) (*domain.ValidationVerdict, error) {
	if !docType.Valid() {
		return nil, fmt.Errorf("engine.Validate: %q: %w", docType, domain.ErrUnsupportedDocumentType)
	}

	start := e.now()
	values := fields.Values()
	pre := Preprocess(docType, values, start)
	prompt := advisor.BuildValidationPrompt(docType, pre)

	raw, err := e.advisor.Review(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("engine.Validate: advisory review for %s: %w", docType, err)
	}

	adv := ParseAdvisoryResponse(raw)
	finding := Evaluate(RulesFor(docType), values, start)

	verdict := &domain.ValidationVerdict{
		AdvisoryVerdict:      *adv,
		TypeSpecificErrors:   finding.Errors,
		TypeSpecificWarnings: finding.Warnings,
		ValidationTime:       time.Since(start).Seconds(),
	}
	if verdict.TypeSpecificErrors == nil {
		verdict.TypeSpecificErrors = []string{}
	}
	if verdict.TypeSpecificWarnings == nil {
		verdict.TypeSpecificWarnings = []string{}
	}

	log.Printf("validator.Engine: validated %s document in %.2fs (valid=%t errors=%d warnings=%d)",
		docType, verdict.ValidationTime, verdict.IsValid,
		len(verdict.AllErrors()), len(verdict.AllWarnings()))

	return verdict, nil
}
