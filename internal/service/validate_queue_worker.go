package service

import (
	"context"
	"log"
	"sync"
	"time"

	"validoc/internal/metrics"
	"validoc/internal/port"
)

// ValidateQueueConfig holds settings for the validation queue worker.
type ValidateQueueConfig struct {
	PollInterval time.Duration
	MaxRetries   int
	Concurrency  int
}

// ValidateQueueWorker polls for queued document records and dispatches them
// for extraction and validation.
type ValidateQueueWorker struct {
	recordRepo port.DocumentRecordRepository
	docService DocumentService
	metrics    *metrics.Metrics
	cfg        ValidateQueueConfig
	wg         sync.WaitGroup
}

// NewValidateQueueWorker creates a new ValidateQueueWorker.
func NewValidateQueueWorker(recordRepo port.DocumentRecordRepository, docService DocumentService, m *metrics.Metrics, cfg ValidateQueueConfig) *ValidateQueueWorker {
	return &ValidateQueueWorker{
		recordRepo: recordRepo,
		docService: docService,
		metrics:    m,
		cfg:        cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight validations have finished.
func (w *ValidateQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("validateQueueWorker: started (poll=%s, concurrency=%d, maxRetries=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.MaxRetries)

	for {
		select {
		case <-ctx.Done():
			log.Printf("validateQueueWorker: shutting down, waiting for in-flight validations...")
			w.wg.Wait()
			log.Printf("validateQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			recs, err := w.recordRepo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll — exit gracefully
					continue
				}
				log.Printf("validateQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range recs {
				rec := recs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				if w.metrics != nil {
					w.metrics.QueueDepth.Inc()
				}
				go func() {
					defer w.wg.Done()
					defer func() {
						<-sem // release
						if w.metrics != nil {
							w.metrics.QueueDepth.Dec()
						}
					}()

					// Use a fresh context independent of the poll context
					// so in-flight validations complete even during shutdown.
					validateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					log.Printf("validateQueueWorker: dispatching record %s (attempt %d)", rec.ID, rec.Attempts)
					w.docService.ProcessRecord(validateCtx, &rec, w.cfg.MaxRetries)
				}()
			}
		}
	}
}
