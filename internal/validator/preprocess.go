package validator

import (
	"time"

	"validoc/internal/domain"
)

// Date-valued canonical field names per document type.
var (
	cnhDateFields = []string{"data_nascimento", "data_emissao", "data_validade", "data_primeira_habilitacao"}
	rgDateFields  = []string{"data_nascimento", "data_emissao"}
)

// Preprocess derives temporal facts from the raw extracted field values.
// Absent or unparseable dates yield no derived facts: every derived field
// that depends on them stays nil and every comparison referencing them is
// omitted from the map, so the advisory prompt never sees a defaulted zero.
// No failure escapes this function.
func Preprocess(docType domain.DocumentType, fields map[string]string, now time.Time) *domain.PreprocessedFields {
	today := truncateToDay(now)

	names := rgDateFields
	if docType == domain.DocumentTypeCNH {
		names = cnhDateFields
	}
	dates := make(map[string]time.Time, len(names))
	for _, name := range names {
		raw, ok := fields[name]
		if !ok || raw == "" {
			continue
		}
		if t, err := parseFieldDate(raw); err == nil {
			dates[name] = t
		}
	}

	snapshot := make(map[string]string, len(fields))
	for k, v := range fields {
		snapshot[k] = v
	}
	pre := &domain.PreprocessedFields{
		Fields:          snapshot,
		DateComparisons: map[string]bool{},
	}

	birth, hasBirth := dates["data_nascimento"]
	issue, hasIssue := dates["data_emissao"]

	if hasBirth {
		pre.CurrentAge = intPtr(floorDiv(daysBetween(birth, today), 365))
	}
	if hasBirth && hasIssue {
		pre.AgeAtIssue = intPtr(floorDiv(daysBetween(birth, issue), 365))
		pre.DateComparisons[domain.ComparisonBirthBeforeIssue] = birth.Before(issue)
	}

	if docType == domain.DocumentTypeCNH {
		expiry, hasExpiry := dates["data_validade"]
		if hasExpiry {
			days := daysBetween(today, expiry)
			expired := days < 0
			pre.DaysToExpiry = &days
			pre.Expired = &expired
		}
		if hasIssue && hasExpiry {
			pre.ValidityYears = intPtr(floorDiv(daysBetween(issue, expiry), 365))
			pre.DateComparisons[domain.ComparisonIssueBeforeExpiry] = issue.Before(expiry)
		}
		if first, hasFirst := dates["data_primeira_habilitacao"]; hasFirst && hasIssue {
			pre.DateComparisons[domain.ComparisonFirstLicenseBeforeIssue] = !first.After(issue)
		}
	}

	return pre
}

func intPtr(v int) *int { return &v }
