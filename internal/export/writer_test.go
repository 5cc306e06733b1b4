package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"validoc/internal/domain"
	"validoc/internal/export"
)

func sampleRecords() []domain.DocumentRecord {
	uploaded := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	validated := time.Date(2025, 1, 20, 9, 1, 30, 0, time.UTC)

	completed := domain.DocumentRecord{
		FileName:     "cnh.jpg",
		DocumentType: domain.DocumentTypeCNH,
		Status:       domain.ProcessingStatusCompleted,
		Attempts:     1,
		Verdict: domain.ValidationVerdict{
			AdvisoryVerdict: domain.AdvisoryVerdict{
				IsValid:         true,
				Confidence:      0.9,
				Errors:          []string{},
				Warnings:        []string{"Conferir foto"},
				Analysis:        "Documento consistente",
				Recommendations: []string{"Nenhuma"},
			},
			TypeSpecificWarnings: []string{"CNH está vencida"},
		},
		ExtractionConfidence: 0.73,
		UploadedAt:           uploaded,
		ValidatedAt:          &validated,
	}

	queued := domain.DocumentRecord{
		FileName:     "rg.png",
		DocumentType: domain.DocumentTypeRG,
		Status:       domain.ProcessingStatusQueued,
		UploadedAt:   uploaded,
	}

	return []domain.DocumentRecord{completed, queued}
}

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	w := export.NewWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteRecords(sampleRecords()))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "File Name", rows[0][0])
	assert.Equal(t, "Validated At", rows[0][13])

	completed := rows[1]
	assert.Equal(t, "cnh.jpg", completed[0])
	assert.Equal(t, "cnh", completed[1])
	assert.Equal(t, "completed", completed[2])
	assert.Equal(t, "warning", completed[3])
	assert.Equal(t, "Yes", completed[4])
	assert.Equal(t, "0.90", completed[5])
	assert.Equal(t, "", completed[6])
	assert.Equal(t, "Conferir foto; CNH está vencida", completed[7])
	assert.Equal(t, "Documento consistente", completed[8])
	assert.Equal(t, "Nenhuma", completed[9])
	assert.Equal(t, "0.73", completed[10])
	assert.Equal(t, "1", completed[11])
	assert.Equal(t, "2025-01-20T09:00:00Z", completed[12])
	assert.Equal(t, "2025-01-20T09:01:30Z", completed[13])

	queued := rows[2]
	assert.Equal(t, "rg.png", queued[0])
	assert.Equal(t, "error", queued[3])
	for _, i := range []int{4, 5, 6, 7, 8, 9, 10} {
		assert.Empty(t, queued[i], "verdict column %d should be empty for queued record", i)
	}
	assert.Equal(t, "0", queued[11])
	assert.Empty(t, queued[13])
}

func TestXLSXExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.NotContains(t, f.GetSheetList(), "Sheet1")

	rows, err := f.GetRows("Documents")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "File Name", rows[0][0])
	assert.Equal(t, "cnh.jpg", rows[1][0])
	assert.Equal(t, "warning", rows[1][3])
	assert.Equal(t, "rg.png", rows[2][0])
}

func TestBuildFilename(t *testing.T) {
	name := export.BuildFilename("csv")

	assert.Regexp(t, `^documents_\d{4}-\d{2}-\d{2}\.csv$`, name)
}
