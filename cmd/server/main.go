package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"validoc/internal/advisor"
	_ "validoc/internal/advisor/groq"
	_ "validoc/internal/advisor/openai"
	_ "validoc/internal/advisor/static"
	"validoc/internal/config"
	"validoc/internal/extractor/mindee"
	"validoc/internal/handler"
	"validoc/internal/metrics"
	"validoc/internal/port"
	"validoc/internal/repository/postgres"
	"validoc/internal/router"
	"validoc/internal/service"
	s3storage "validoc/internal/storage/s3"
	"validoc/internal/validator"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	m := metrics.New()

	// Initialize repositories
	recordRepo := postgres.NewDocumentRecordRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize the advisory chain
	reviewAdvisor, err := buildAdvisor(cfg, m)
	if err != nil {
		return fmt.Errorf("failed to initialize advisor: %w", err)
	}

	// Initialize extraction and validation
	fieldExtractor := mindee.NewExtractor(&cfg.Extractor)
	engine := validator.NewEngine(reviewAdvisor)

	// Initialize services
	docSvc := service.NewDocumentService(recordRepo, s3Client, fieldExtractor, engine, m, &cfg.S3)

	// Initialize handlers
	documentH := handler.NewDocumentHandler(docSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, m, documentH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the validation queue worker
	worker := service.NewValidateQueueWorker(recordRepo, docSvc, m, service.ValidateQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stop()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-workerDone

	return nil
}

// buildAdvisor constructs the advisory chain from config: the primary
// provider alone, or a fallback chain when a secondary is configured.
func buildAdvisor(cfg *config.Config, m *metrics.Metrics) (port.Advisor, error) {
	primary, err := advisor.NewAdvisor(&cfg.Advisor.Primary)
	if err != nil {
		return nil, err
	}

	secondaryCfg := cfg.Advisor.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}

	secondary, err := advisor.NewAdvisor(secondaryCfg)
	if err != nil {
		return nil, err
	}

	fallback := advisor.NewFallbackAdvisor(
		[]port.Advisor{primary, secondary},
		[]string{cfg.Advisor.Primary.Provider, secondaryCfg.Provider},
	)
	fallback.OnFallback = func(string) { m.AdvisorFallbacks.Inc() }
	return fallback, nil
}
