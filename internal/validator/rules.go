package validator

import (
	"time"

	"validoc/internal/domain"
)

// Rule is a single deterministic field check for one document type. Check
// inspects the raw extracted values (never the derived temporal facts) and
// returns one message per violation; an absent optional field produces none.
type Rule struct {
	Key      string
	Severity domain.ValidationSeverity
	Check    func(fields map[string]string, today time.Time) []string
}

// Finding collects deterministic rule violations bucketed by severity.
// Insertion order is preserved for display and never deduplicated.
type Finding struct {
	Errors   []string
	Warnings []string
}

// RulesFor returns the ordered rule set for a document type, or nil for an
// unknown type.
func RulesFor(docType domain.DocumentType) []Rule {
	switch docType {
	case domain.DocumentTypeCNH:
		return CNHRules()
	case domain.DocumentTypeRG:
		return RGRules()
	default:
		return nil
	}
}

// Evaluate runs the rules in order against the raw field values and buckets
// every violation message by the rule's severity.
func Evaluate(rules []Rule, fields map[string]string, today time.Time) Finding {
	var f Finding
	for _, r := range rules {
		for _, msg := range r.Check(fields, today) {
			if r.Severity == domain.ValidationSeverityError {
				f.Errors = append(f.Errors, msg)
			} else {
				f.Warnings = append(f.Warnings, msg)
			}
		}
	}
	return f
}
