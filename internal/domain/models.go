package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExtractedField is a single field returned by the extraction collaborator.
type ExtractedField struct {
	Value       *string            `json:"value"`
	Confidence  float64            `json:"confidence"`
	BoundingBox map[string]float64 `json:"bounding_box,omitempty"`
}

// FieldMap maps canonical field names (e.g. "cpf", "data_nascimento") to
// extracted values. It is immutable once handed to the validation engine.
type FieldMap map[string]ExtractedField

// Values returns the raw string values for all fields that carry one.
// Fields whose value is absent are omitted entirely.
func (m FieldMap) Values() map[string]string {
	out := make(map[string]string, len(m))
	for name, f := range m {
		if f.Value != nil {
			out[name] = *f.Value
		}
	}
	return out
}

// Value implements driver.Valuer so a FieldMap can be stored in a JSONB column.
func (m FieldMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for loading a FieldMap from a JSONB column.
func (m *FieldMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported FieldMap scan type %T", src)
	}
}

// Names of the derived date-comparison facts.
const (
	ComparisonBirthBeforeIssue        = "nascimento_anterior_emissao"
	ComparisonIssueBeforeExpiry       = "emissao_anterior_validade"
	ComparisonFirstLicenseBeforeIssue = "primeira_hab_anterior_emissao"
)

// PreprocessedFields is an immutable per-document snapshot of the raw
// extracted string values plus derived temporal facts. A derived field is
// nil when any source date it depends on is absent or unparseable, so
// callers can distinguish "not computed" from a computed zero.
type PreprocessedFields struct {
	Fields map[string]string

	CurrentAge    *int // idade_atual
	AgeAtIssue    *int // idade_na_emissao
	DaysToExpiry  *int // dias_para_vencimento
	Expired       *bool
	ValidityYears *int // periodo_validade_anos

	DateComparisons map[string]bool // comparacoes_datas
}

// PromptPayload flattens the snapshot into a single JSON-able map using the
// canonical Portuguese key names. Derived keys are present only when
// computed; comparacoes_datas is always present, possibly empty.
func (p *PreprocessedFields) PromptPayload() map[string]interface{} {
	payload := make(map[string]interface{}, len(p.Fields)+6)
	for name, value := range p.Fields {
		payload[name] = value
	}
	if p.CurrentAge != nil {
		payload["idade_atual"] = *p.CurrentAge
	}
	if p.AgeAtIssue != nil {
		payload["idade_na_emissao"] = *p.AgeAtIssue
	}
	if p.DaysToExpiry != nil {
		payload["dias_para_vencimento"] = *p.DaysToExpiry
	}
	if p.Expired != nil {
		payload["esta_vencida"] = *p.Expired
	}
	if p.ValidityYears != nil {
		payload["periodo_validade_anos"] = *p.ValidityYears
	}
	comparisons := p.DateComparisons
	if comparisons == nil {
		comparisons = map[string]bool{}
	}
	payload["comparacoes_datas"] = comparisons
	return payload
}

// AdvisoryVerdict is the narrative verdict parsed from the advisory
// collaborator's free-text response. Zero value is the fail-closed default.
type AdvisoryVerdict struct {
	IsValid         bool     `json:"is_valid"`
	Confidence      float64  `json:"confidence"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
}

// ValidationVerdict is the final merged verdict for one document: the
// advisory verdict plus the deterministic type-specific findings.
//
// IsValid and the overall status deliberately depend only on the advisory
// verdict and the warning lists; TypeSpecificErrors are recorded and
// surfaced through DocumentRecord.AllErrors but never flip validity.
type ValidationVerdict struct {
	AdvisoryVerdict

	TypeSpecificErrors   []string `json:"document_type_specific_errors"`
	TypeSpecificWarnings []string `json:"document_type_specific_warnings"`

	// ValidationTime is the wall-clock duration of the validation call,
	// in seconds.
	ValidationTime float64 `json:"validation_time"`
}

// Value implements driver.Valuer for storing the verdict in a JSONB column.
func (v ValidationVerdict) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Scan implements sql.Scanner for loading the verdict from a JSONB column.
func (v *ValidationVerdict) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		*v = ValidationVerdict{}
		return nil
	case []byte:
		return json.Unmarshal(s, v)
	case string:
		return json.Unmarshal([]byte(s), v)
	default:
		return fmt.Errorf("unsupported ValidationVerdict scan type %T", src)
	}
}

// DocumentRecord is one uploaded document with its extraction snapshot and
// validation verdict. The engine itself is stateless; any history of
// records across calls belongs to the caller (here, the Postgres store).
type DocumentRecord struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	DocumentType    DocumentType     `db:"document_type" json:"document_type"`
	FileName        string           `db:"file_name" json:"file_name"`
	FileSize        int64            `db:"file_size" json:"file_size"`
	ContentType     string           `db:"content_type" json:"content_type"`
	S3Bucket        string           `db:"s3_bucket" json:"-"`
	S3Key           string           `db:"s3_key" json:"-"`
	Status          ProcessingStatus `db:"status" json:"status"`
	ProcessingError string           `db:"processing_error" json:"processing_error,omitempty"`
	Attempts        int              `db:"attempts" json:"attempts"`

	ExtractedFields      FieldMap        `db:"extracted_fields" json:"extracted_fields"`
	RawResponse          json.RawMessage `db:"raw_response" json:"-"`
	ExtractionConfidence float64         `db:"extraction_confidence" json:"extraction_confidence"`

	Verdict ValidationVerdict `db:"verdict" json:"verdict"`

	UploadedAt  time.Time  `db:"uploaded_at" json:"uploaded_at"`
	ValidatedAt *time.Time `db:"validated_at" json:"validated_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// OverallStatus derives the record's display status. Records that have not
// completed validation report an error status; otherwise validity comes
// from the advisory verdict and warnings from the union of both warning
// lists. Type-specific errors never affect the status (see
// ValidationVerdict).
func (r *DocumentRecord) OverallStatus() ValidationStatus {
	if r.Status != ProcessingStatusCompleted {
		return ValidationStatusError
	}
	if !r.Verdict.IsValid {
		return ValidationStatusInvalid
	}
	if len(r.Verdict.Warnings) > 0 || len(r.Verdict.TypeSpecificWarnings) > 0 {
		return ValidationStatusWarning
	}
	return ValidationStatusValid
}

// AllErrors concatenates advisory errors followed by type-specific errors,
// preserving insertion order, without deduplication. Display aggregate
// only; does not feed back into OverallStatus.
func (v *ValidationVerdict) AllErrors() []string {
	out := make([]string, 0, len(v.Errors)+len(v.TypeSpecificErrors))
	out = append(out, v.Errors...)
	out = append(out, v.TypeSpecificErrors...)
	return out
}

// AllWarnings concatenates advisory warnings followed by type-specific
// warnings, preserving insertion order, without deduplication.
func (v *ValidationVerdict) AllWarnings() []string {
	out := make([]string, 0, len(v.Warnings)+len(v.TypeSpecificWarnings))
	out = append(out, v.Warnings...)
	out = append(out, v.TypeSpecificWarnings...)
	return out
}

// AllErrors returns the record verdict's merged error list.
func (r *DocumentRecord) AllErrors() []string { return r.Verdict.AllErrors() }

// AllWarnings returns the record verdict's merged warning list.
func (r *DocumentRecord) AllWarnings() []string { return r.Verdict.AllWarnings() }
