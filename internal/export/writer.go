package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"validoc/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the export header row, shared by the CSV and XLSX writers.
var columns = []string{
	"File Name",
	"Document Type",
	"Processing Status",
	"Overall Status",
	"Is Valid",
	"Confidence",
	"Errors",
	"Warnings",
	"Analysis",
	"Recommendations",
	"Extraction Confidence",
	"Attempts",
	"Uploaded At",
	"Validated At",
}

// Writer wraps csv.Writer for exporting document records as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRecords converts a batch of document records to CSV rows and writes them.
func (w *Writer) WriteRecords(recs []domain.DocumentRecord) error {
	for i := range recs {
		row := recordToRow(&recs[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// recordToRow converts a single record to a string slice matching columns.
// Records that never completed validation keep their verdict columns empty.
func recordToRow(rec *domain.DocumentRecord) []string {
	row := make([]string, len(columns))

	row[0] = rec.FileName
	row[1] = string(rec.DocumentType)
	row[2] = string(rec.Status)
	row[3] = string(rec.OverallStatus())
	row[11] = strconv.Itoa(rec.Attempts)
	row[12] = rec.UploadedAt.Format(time.RFC3339)
	row[13] = formatTime(rec.ValidatedAt)

	if rec.Status != domain.ProcessingStatusCompleted {
		return row
	}

	row[4] = formatBool(rec.Verdict.IsValid)
	row[5] = strconv.FormatFloat(rec.Verdict.Confidence, 'f', 2, 64)
	row[6] = strings.Join(rec.AllErrors(), "; ")
	row[7] = strings.Join(rec.AllWarnings(), "; ")
	row[8] = rec.Verdict.Analysis
	row[9] = strings.Join(rec.Verdict.Recommendations, "; ")
	row[10] = strconv.FormatFloat(rec.ExtractionConfidence, 'f', 2, 64)

	return row
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// BuildFilename returns a filename for the Content-Disposition header.
// Format: documents_{YYYY-MM-DD}.{ext}
func BuildFilename(ext string) string {
	return fmt.Sprintf("documents_%s.%s", time.Now().Format("2006-01-02"), ext)
}
