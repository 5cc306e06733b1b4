package port

import (
	"context"
	"encoding/json"

	"validoc/internal/domain"
)

// ExtractInput carries the data needed for field extraction.
type ExtractInput struct {
	FileBytes    []byte
	FileName     string
	ContentType  string
	DocumentType domain.DocumentType
}

// ExtractOutput contains the flat field map produced by the extraction
// collaborator, plus its opaque raw response for audit.
type ExtractOutput struct {
	Fields      domain.FieldMap
	RawResponse json.RawMessage
	Confidence  float64
}

// FieldExtractor abstracts the external OCR/ML extraction collaborator.
type FieldExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
