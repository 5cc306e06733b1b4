package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"validoc/internal/domain"
	"validoc/internal/port"
)

type documentRecordRepo struct {
	db *sqlx.DB
}

// NewDocumentRecordRepo creates a new PostgreSQL-backed DocumentRecordRepository.
func NewDocumentRecordRepo(db *sqlx.DB) port.DocumentRecordRepository {
	return &documentRecordRepo{db: db}
}

func (r *documentRecordRepo) Create(ctx context.Context, rec *domain.DocumentRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `INSERT INTO document_records (
		id, document_type, file_name, file_size, content_type,
		s3_bucket, s3_key, status, processing_error, attempts,
		extracted_fields, raw_response, extraction_confidence, verdict,
		uploaded_at, validated_at, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, $13, $14,
		$15, $16, $17, $18
	)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.DocumentType, rec.FileName, rec.FileSize, rec.ContentType,
		rec.S3Bucket, rec.S3Key, rec.Status, rec.ProcessingError, rec.Attempts,
		rec.ExtractedFields, rec.RawResponse, rec.ExtractionConfidence, rec.Verdict,
		rec.UploadedAt, rec.ValidatedAt, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRecordRepo.Create: %w", err)
	}
	return nil
}

func (r *documentRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error) {
	var rec domain.DocumentRecord
	err := r.db.GetContext(ctx, &rec,
		"SELECT * FROM document_records WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("documentRecordRepo.GetByID: %w", err)
	}
	return &rec, nil
}

func (r *documentRecordRepo) List(ctx context.Context, offset, limit int) ([]domain.DocumentRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM document_records")
	if err != nil {
		return nil, 0, fmt.Errorf("documentRecordRepo.List count: %w", err)
	}

	var recs []domain.DocumentRecord
	err = r.db.SelectContext(ctx, &recs,
		`SELECT * FROM document_records
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRecordRepo.List: %w", err)
	}
	return recs, total, nil
}

func (r *documentRecordRepo) ListAll(ctx context.Context) ([]domain.DocumentRecord, error) {
	var recs []domain.DocumentRecord
	err := r.db.SelectContext(ctx, &recs,
		"SELECT * FROM document_records ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("documentRecordRepo.ListAll: %w", err)
	}
	return recs, nil
}

func (r *documentRecordRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.DocumentRecord, error) {
	var recs []domain.DocumentRecord
	err := r.db.SelectContext(ctx, &recs,
		`UPDATE document_records SET
			status = 'processing', attempts = attempts + 1, updated_at = now()
		 WHERE id IN (
			SELECT id FROM document_records
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("documentRecordRepo.ClaimQueued: %w", err)
	}
	return recs, nil
}

func (r *documentRecordRepo) Requeue(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE document_records SET
			status = 'queued', processing_error = '', updated_at = now()
		 WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("documentRecordRepo.Requeue: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("documentRecordRepo.Requeue rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *documentRecordRepo) UpdateVerdict(ctx context.Context, rec *domain.DocumentRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE document_records SET
			status = $1, processing_error = '', attempts = $2,
			extracted_fields = $3, raw_response = $4, extraction_confidence = $5,
			verdict = $6, validated_at = $7, updated_at = $8
		 WHERE id = $9`,
		rec.Status, rec.Attempts,
		rec.ExtractedFields, rec.RawResponse, rec.ExtractionConfidence,
		rec.Verdict, rec.ValidatedAt, rec.UpdatedAt,
		rec.ID)
	if err != nil {
		return fmt.Errorf("documentRecordRepo.UpdateVerdict: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("documentRecordRepo.UpdateVerdict rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *documentRecordRepo) MarkFailed(ctx context.Context, rec *domain.DocumentRecord, procErr string) error {
	rec.Status = domain.ProcessingStatusFailed
	rec.ProcessingError = procErr
	rec.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`UPDATE document_records SET
			status = $1, processing_error = $2, attempts = $3, updated_at = $4
		 WHERE id = $5`,
		rec.Status, rec.ProcessingError, rec.Attempts, rec.UpdatedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("documentRecordRepo.MarkFailed: %w", err)
	}
	return nil
}

func (r *documentRecordRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM document_records WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("documentRecordRepo.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("documentRecordRepo.Delete rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
