package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"validoc/internal/advisor"
	"validoc/internal/config"
	"validoc/internal/domain"
	"validoc/internal/port"
	"validoc/internal/service"
	"validoc/internal/validator"
	"validoc/mocks"
)

type serviceFixture struct {
	repo        *mocks.MockDocumentRecordRepo
	storage     *mocks.MockObjectStorage
	extractor   *mocks.MockFieldExtractor
	advisorMock *mocks.MockAdvisor
	svc         service.DocumentService
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		repo:        new(mocks.MockDocumentRecordRepo),
		storage:     new(mocks.MockObjectStorage),
		extractor:   new(mocks.MockFieldExtractor),
		advisorMock: new(mocks.MockAdvisor),
	}
	engine := validator.NewEngine(f.advisorMock)
	s3Cfg := &config.S3Config{Bucket: "validoc-uploads", MaxFileSizeMB: 20}
	f.svc = service.NewDocumentService(f.repo, f.storage, f.extractor, engine, nil, s3Cfg)
	return f
}

func (f *serviceFixture) assertExpectations(t *testing.T) {
	f.repo.AssertExpectations(t)
	f.storage.AssertExpectations(t)
	f.extractor.AssertExpectations(t)
	f.advisorMock.AssertExpectations(t)
}

func uploadInput() *service.UploadDocumentInput {
	return &service.UploadDocumentInput{
		DocumentType: domain.DocumentTypeCNH,
		FileName:     "cnh.jpg",
		ContentType:  "image/jpeg",
		Size:         1024,
		Body:         strings.NewReader("fake image"),
	}
}

func TestUpload(t *testing.T) {
	t.Run("stores the file and queues a record", func(t *testing.T) {
		f := newFixture()
		f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
			return in.Bucket == "validoc-uploads" &&
				strings.HasPrefix(in.Key, "documents/cnh/") &&
				strings.HasSuffix(in.Key, "/cnh.jpg")
		})).Return(&port.UploadOutput{}, nil)
		f.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.DocumentRecord")).Return(nil)

		rec, err := f.svc.Upload(context.Background(), uploadInput())

		require.NoError(t, err)
		assert.Equal(t, domain.ProcessingStatusQueued, rec.Status)
		assert.Equal(t, "validoc-uploads", rec.S3Bucket)
		assert.NotEqual(t, uuid.Nil, rec.ID)
		f.assertExpectations(t)
	})

	t.Run("rejects unknown document type", func(t *testing.T) {
		f := newFixture()
		in := uploadInput()
		in.DocumentType = domain.DocumentType("passport")

		_, err := f.svc.Upload(context.Background(), in)

		assert.ErrorIs(t, err, domain.ErrUnsupportedDocumentType)
	})

	t.Run("rejects disallowed content type", func(t *testing.T) {
		f := newFixture()
		in := uploadInput()
		in.ContentType = "text/html"

		_, err := f.svc.Upload(context.Background(), in)

		assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	})

	t.Run("rejects disallowed extension", func(t *testing.T) {
		f := newFixture()
		in := uploadInput()
		in.FileName = "cnh.exe"

		_, err := f.svc.Upload(context.Background(), in)

		assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		f := newFixture()
		in := uploadInput()
		in.Size = 21 * 1024 * 1024

		_, err := f.svc.Upload(context.Background(), in)

		assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	})

	t.Run("cleans up the object when record creation fails", func(t *testing.T) {
		f := newFixture()
		f.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
		f.storage.On("Delete", mock.Anything, "validoc-uploads", mock.Anything).Return(nil)

		_, err := f.svc.Upload(context.Background(), uploadInput())

		require.Error(t, err)
		f.storage.AssertCalled(t, "Delete", mock.Anything, "validoc-uploads", mock.Anything)
	})
}

func processableRecord() *domain.DocumentRecord {
	return &domain.DocumentRecord{
		ID:           uuid.New(),
		DocumentType: domain.DocumentTypeCNH,
		FileName:     "cnh.jpg",
		ContentType:  "image/jpeg",
		S3Bucket:     "validoc-uploads",
		S3Key:        "documents/cnh/x/cnh.jpg",
		Status:       domain.ProcessingStatusProcessing,
		Attempts:     1,
	}
}

func extractedOutput() *port.ExtractOutput {
	cpf := "188.433.327-32"
	return &port.ExtractOutput{
		Fields: domain.FieldMap{
			"cpf": {Value: &cpf, Confidence: 0.9},
		},
		RawResponse: []byte(`{"inference": {}}`),
		Confidence:  0.73,
	}
}

func TestProcessRecord(t *testing.T) {
	t.Run("happy path persists a completed verdict", func(t *testing.T) {
		f := newFixture()
		rec := processableRecord()

		f.storage.On("Download", mock.Anything, rec.S3Bucket, rec.S3Key).Return([]byte("bytes"), nil)
		f.extractor.On("Extract", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
			return in.DocumentType == domain.DocumentTypeCNH && in.FileName == "cnh.jpg"
		})).Return(extractedOutput(), nil)
		f.advisorMock.On("Review", mock.Anything, mock.Anything).
			Return(`{"is_valid": true, "confidence": 0.9, "analysis": "ok"}`, nil)
		f.repo.On("UpdateVerdict", mock.Anything, mock.MatchedBy(func(r *domain.DocumentRecord) bool {
			return r.Status == domain.ProcessingStatusCompleted &&
				r.Verdict.IsValid &&
				r.ValidatedAt != nil &&
				r.ExtractionConfidence == 0.73
		})).Return(nil)

		f.svc.ProcessRecord(context.Background(), rec, 5)

		f.assertExpectations(t)
	})

	t.Run("download failure marks the record failed", func(t *testing.T) {
		f := newFixture()
		rec := processableRecord()

		f.storage.On("Download", mock.Anything, rec.S3Bucket, rec.S3Key).Return(nil, errors.New("no such key"))
		f.repo.On("MarkFailed", mock.Anything, rec, mock.MatchedBy(func(msg string) bool {
			return strings.Contains(msg, "no such key")
		})).Return(nil)

		f.svc.ProcessRecord(context.Background(), rec, 5)

		f.assertExpectations(t)
	})

	t.Run("extraction failure marks the record failed", func(t *testing.T) {
		f := newFixture()
		rec := processableRecord()

		f.storage.On("Download", mock.Anything, rec.S3Bucket, rec.S3Key).Return([]byte("bytes"), nil)
		f.extractor.On("Extract", mock.Anything, mock.Anything).Return(nil, errors.New("model offline"))
		f.repo.On("MarkFailed", mock.Anything, rec, mock.Anything).Return(nil)

		f.svc.ProcessRecord(context.Background(), rec, 5)

		f.assertExpectations(t)
	})

	t.Run("rate limit with attempts left requeues", func(t *testing.T) {
		f := newFixture()
		rec := processableRecord()

		f.storage.On("Download", mock.Anything, rec.S3Bucket, rec.S3Key).Return([]byte("bytes"), nil)
		f.extractor.On("Extract", mock.Anything, mock.Anything).Return(extractedOutput(), nil)
		f.advisorMock.On("Review", mock.Anything, mock.Anything).
			Return("", advisor.NewRateLimitError("groq", errors.New("429"), 30))
		f.repo.On("Requeue", mock.Anything, rec.ID).Return(nil)

		f.svc.ProcessRecord(context.Background(), rec, 5)

		f.repo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("rate limit on the last attempt fails the record", func(t *testing.T) {
		f := newFixture()
		rec := processableRecord()
		rec.Attempts = 5

		f.storage.On("Download", mock.Anything, rec.S3Bucket, rec.S3Key).Return([]byte("bytes"), nil)
		f.extractor.On("Extract", mock.Anything, mock.Anything).Return(extractedOutput(), nil)
		f.advisorMock.On("Review", mock.Anything, mock.Anything).
			Return("", advisor.NewRateLimitError("groq", errors.New("429"), 30))
		f.repo.On("MarkFailed", mock.Anything, rec, mock.Anything).Return(nil)

		f.svc.ProcessRecord(context.Background(), rec, 5)

		f.repo.AssertNotCalled(t, "Requeue", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})
}

func TestRevalidate(t *testing.T) {
	t.Run("requeues a completed record", func(t *testing.T) {
		f := newFixture()
		rec := processableRecord()
		rec.Status = domain.ProcessingStatusCompleted

		f.repo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)
		f.repo.On("Requeue", mock.Anything, rec.ID).Return(nil)

		out, err := f.svc.Revalidate(context.Background(), rec.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.ProcessingStatusQueued, out.Status)
		f.assertExpectations(t)
	})

	t.Run("in-flight record is returned untouched", func(t *testing.T) {
		f := newFixture()
		rec := processableRecord()

		f.repo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)

		out, err := f.svc.Revalidate(context.Background(), rec.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.ProcessingStatusProcessing, out.Status)
		f.repo.AssertNotCalled(t, "Requeue", mock.Anything, mock.Anything)
	})

	t.Run("unknown record propagates not found", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()

		f.repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrRecordNotFound)

		_, err := f.svc.Revalidate(context.Background(), id)

		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})
}

func TestDownloadURL(t *testing.T) {
	f := newFixture()
	rec := processableRecord()

	f.repo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)
	f.storage.On("GetPresignedURL", mock.Anything, rec.S3Bucket, rec.S3Key, mock.AnythingOfType("int64")).
		Return("https://s3.example.com/signed", nil)

	url, err := f.svc.DownloadURL(context.Background(), rec.ID)

	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com/signed", url)
	f.assertExpectations(t)
}

func TestDelete(t *testing.T) {
	t.Run("removes the object and the record", func(t *testing.T) {
		f := newFixture()
		rec := processableRecord()

		f.repo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)
		f.storage.On("Delete", mock.Anything, rec.S3Bucket, rec.S3Key).Return(nil)
		f.repo.On("Delete", mock.Anything, rec.ID).Return(nil)

		require.NoError(t, f.svc.Delete(context.Background(), rec.ID))
		f.assertExpectations(t)
	})

	t.Run("storage failure does not block record deletion", func(t *testing.T) {
		f := newFixture()
		rec := processableRecord()

		f.repo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)
		f.storage.On("Delete", mock.Anything, rec.S3Bucket, rec.S3Key).Return(errors.New("s3 down"))
		f.repo.On("Delete", mock.Anything, rec.ID).Return(nil)

		require.NoError(t, f.svc.Delete(context.Background(), rec.ID))
		f.assertExpectations(t)
	})
}
