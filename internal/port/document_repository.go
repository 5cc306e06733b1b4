package port

import (
	"context"

	"github.com/google/uuid"

	"validoc/internal/domain"
)

// DocumentRecordRepository persists document records and drives the
// validation queue.
type DocumentRecordRepository interface {
	Create(ctx context.Context, rec *domain.DocumentRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.DocumentRecord, int, error)
	ListAll(ctx context.Context) ([]domain.DocumentRecord, error)

	// ClaimQueued atomically moves up to limit queued records to the
	// processing status, increments their attempt counters, and returns
	// them, so concurrent workers never claim the same record twice.
	ClaimQueued(ctx context.Context, limit int) ([]domain.DocumentRecord, error)

	// Requeue puts a record back on the queue for revalidation.
	Requeue(ctx context.Context, id uuid.UUID) error

	// UpdateVerdict stores the extraction snapshot and final verdict and
	// marks the record completed.
	UpdateVerdict(ctx context.Context, rec *domain.DocumentRecord) error

	// MarkFailed records a pipeline failure. Records that exhausted their
	// attempts stay failed; others may be requeued by the caller.
	MarkFailed(ctx context.Context, rec *domain.DocumentRecord, procErr string) error

	Delete(ctx context.Context, id uuid.UUID) error
}
