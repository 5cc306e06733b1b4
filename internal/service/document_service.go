package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"validoc/internal/advisor"
	"validoc/internal/config"
	"validoc/internal/domain"
	"validoc/internal/metrics"
	"validoc/internal/port"
	"validoc/internal/validator"
)

const defaultMaxValidateAttempts = 5

// UploadDocumentInput is the DTO for uploading a document for validation.
type UploadDocumentInput struct {
	DocumentType domain.DocumentType
	FileName     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// DocumentService defines the document validation contract.
type DocumentService interface {
	Upload(ctx context.Context, input *UploadDocumentInput) (*domain.DocumentRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.DocumentRecord, int, error)
	ListAll(ctx context.Context) ([]domain.DocumentRecord, error)
	Revalidate(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// DownloadURL returns a presigned URL for the record's stored file.
	DownloadURL(ctx context.Context, id uuid.UUID) (string, error)

	// ProcessRecord runs extraction and validation for a claimed record.
	// Called by the queue worker; the record must already be in the
	// processing status with Attempts incremented.
	ProcessRecord(ctx context.Context, rec *domain.DocumentRecord, maxAttempts int)
}

type documentService struct {
	recordRepo port.DocumentRecordRepository
	storage    port.ObjectStorage
	extractor  port.FieldExtractor
	engine     *validator.Engine
	metrics    *metrics.Metrics
	s3Cfg      *config.S3Config
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	recordRepo port.DocumentRecordRepository,
	storage port.ObjectStorage,
	fieldExtractor port.FieldExtractor,
	engine *validator.Engine,
	m *metrics.Metrics,
	s3Cfg *config.S3Config,
) DocumentService {
	return &documentService{
		recordRepo: recordRepo,
		storage:    storage,
		extractor:  fieldExtractor,
		engine:     engine,
		metrics:    m,
		s3Cfg:      s3Cfg,
	}
}

func (s *documentService) Upload(ctx context.Context, input *UploadDocumentInput) (*domain.DocumentRecord, error) {
	if !input.DocumentType.Valid() {
		return nil, domain.ErrUnsupportedDocumentType
	}
	if _, ok := domain.AllowedContentTypes[input.ContentType]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(input.FileName)), ".")
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	maxBytes := s.s3Cfg.MaxFileSizeMB * 1024 * 1024
	if maxBytes > 0 && input.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	id := uuid.New()
	key := fmt.Sprintf("documents/%s/%s/%s", input.DocumentType, id, input.FileName)

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3Cfg.Bucket,
		Key:         key,
		Body:        input.Body,
		ContentType: input.ContentType,
		Size:        input.Size,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	rec := &domain.DocumentRecord{
		ID:           id,
		DocumentType: input.DocumentType,
		FileName:     input.FileName,
		FileSize:     input.Size,
		ContentType:  input.ContentType,
		S3Bucket:     s.s3Cfg.Bucket,
		S3Key:        key,
		Status:       domain.ProcessingStatusQueued,
		UploadedAt:   time.Now().UTC(),
	}

	log.Printf("documentService.Upload: created record %s (%s, %d bytes)", rec.ID, rec.DocumentType, rec.FileSize)

	if err := s.recordRepo.Create(ctx, rec); err != nil {
		// Record creation failed after the object landed in S3; remove it
		// so the bucket does not accumulate orphans.
		if delErr := s.storage.Delete(ctx, rec.S3Bucket, rec.S3Key); delErr != nil {
			log.Printf("documentService.Upload: failed to clean up object %s: %v", rec.S3Key, delErr)
		}
		return nil, fmt.Errorf("creating record: %w", err)
	}

	return rec, nil
}

// ProcessRecord performs the full pipeline for one record: download the file
// from storage, extract fields, run the validation engine, and persist the
// verdict. Rate-limited advisory calls put the record back on the queue.
func (s *documentService) ProcessRecord(ctx context.Context, rec *domain.DocumentRecord, maxAttempts int) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxValidateAttempts
	}

	fileBytes, err := s.storage.Download(ctx, rec.S3Bucket, rec.S3Key)
	if err != nil {
		s.failProcessing(ctx, rec, fmt.Sprintf("downloading file: %v", err))
		return
	}

	extracted, err := s.extractor.Extract(ctx, port.ExtractInput{
		FileBytes:    fileBytes,
		FileName:     rec.FileName,
		ContentType:  rec.ContentType,
		DocumentType: rec.DocumentType,
	})
	if err != nil {
		s.handleProcessError(ctx, rec, fmt.Errorf("extracting fields: %w", err), maxAttempts)
		return
	}

	rec.ExtractedFields = extracted.Fields
	rec.RawResponse = extracted.RawResponse
	rec.ExtractionConfidence = extracted.Confidence

	verdict, err := s.engine.Validate(ctx, rec.DocumentType, rec.ExtractedFields)
	if err != nil {
		s.handleProcessError(ctx, rec, fmt.Errorf("validating document: %w", err), maxAttempts)
		return
	}

	now := time.Now().UTC()
	rec.Verdict = *verdict
	rec.Status = domain.ProcessingStatusCompleted
	rec.ProcessingError = ""
	rec.ValidatedAt = &now

	if err := s.recordRepo.UpdateVerdict(ctx, rec); err != nil {
		log.Printf("documentService.ProcessRecord: failed to save verdict for %s: %v", rec.ID, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordValidation(string(rec.DocumentType), string(rec.OverallStatus()))
	}

	log.Printf("documentService.ProcessRecord: record %s validated (status=%s)", rec.ID, rec.OverallStatus())
}

// handleProcessError requeues the record when the advisory provider is rate
// limited and attempts remain; otherwise the record fails permanently.
func (s *documentService) handleProcessError(ctx context.Context, rec *domain.DocumentRecord, procErr error, maxAttempts int) {
	var rlErr *advisor.RateLimitError
	if errors.As(procErr, &rlErr) && rec.Attempts < maxAttempts {
		log.Printf("documentService.handleProcessError: record %s rate limited by %s, requeueing (attempt %d/%d)",
			rec.ID, rlErr.Provider, rec.Attempts, maxAttempts)
		if err := s.recordRepo.Requeue(ctx, rec.ID); err != nil {
			log.Printf("documentService.handleProcessError: failed to requeue %s: %v", rec.ID, err)
		}
		return
	}
	s.failProcessing(ctx, rec, procErr.Error())
}

func (s *documentService) failProcessing(ctx context.Context, rec *domain.DocumentRecord, errMsg string) {
	log.Printf("documentService.failProcessing: record %s failed: %s", rec.ID, errMsg)
	if err := s.recordRepo.MarkFailed(ctx, rec, errMsg); err != nil {
		log.Printf("documentService.failProcessing: failed to update status for %s: %v", rec.ID, err)
	}
	if s.metrics != nil {
		s.metrics.RecordValidation(string(rec.DocumentType), string(domain.ValidationStatusError))
	}
}

func (s *documentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error) {
	return s.recordRepo.GetByID(ctx, id)
}

func (s *documentService) List(ctx context.Context, offset, limit int) ([]domain.DocumentRecord, int, error) {
	return s.recordRepo.List(ctx, offset, limit)
}

func (s *documentService) ListAll(ctx context.Context) ([]domain.DocumentRecord, error) {
	return s.recordRepo.ListAll(ctx)
}

func (s *documentService) Revalidate(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error) {
	rec, err := s.recordRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == domain.ProcessingStatusProcessing {
		return rec, nil
	}
	if err := s.recordRepo.Requeue(ctx, id); err != nil {
		return nil, fmt.Errorf("requeueing record: %w", err)
	}
	rec.Status = domain.ProcessingStatusQueued
	rec.ProcessingError = ""
	log.Printf("documentService.Revalidate: record %s requeued", id)
	return rec, nil
}

func (s *documentService) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	rec, err := s.recordRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.storage.GetPresignedURL(ctx, rec.S3Bucket, rec.S3Key, s.s3Cfg.PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("presigning download: %w", err)
	}
	return url, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	rec, err := s.recordRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, rec.S3Bucket, rec.S3Key); err != nil {
		log.Printf("documentService.Delete: failed to delete object %s: %v", rec.S3Key, err)
	}
	return s.recordRepo.Delete(ctx, id)
}
