package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartadmission/admissions-api/internal/models"
	appErrors "github.com/smartadmission/admissions-api/pkg/errors"
	"github.com/smartadmission/admissions-api/pkg/jobs"
)

const reportJobType = "report_export"

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	List(ctx context.Context, limit int) ([]models.ReportJob, error)
	UpdateProgress(ctx context.Context, id string, status models.ReportStatus, progress int) error
	MarkFinished(ctx context.Context, id, resultURL string, at time.Time) error
	MarkFailed(ctx context.Context, id, message string, at time.Time) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

type artifactStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type downloadSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

// ReportServiceConfig governs artifact retention.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportJobView augments persisted job metadata with a signed download link.
type ReportJobView struct {
	models.ReportJob
	DownloadToken string     `json:"download_token,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File     *os.File
	Filename string
}

// ReportService orchestrates background export jobs: enqueueing, processing,
// signed downloads, and artifact retention.
type ReportService struct {
	repo     reportJobStore
	queue    jobDispatcher
	exporter exportGenerator
	store    artifactStore
	signer   downloadSigner
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(repo reportJobStore, queue jobDispatcher, exporter exportGenerator, store artifactStore, signer downloadSigner, metrics *MetricsService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	return &ReportService{repo: repo, queue: queue, exporter: exporter, store: store, signer: signer, metrics: metrics, logger: logger, cfg: cfg}
}

// SetQueue attaches the worker queue after construction. The queue handler
// is this service's Process method, so the two are wired in two steps.
func (s *ReportService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob persists a queued export job and hands it to the worker pool.
func (s *ReportService) CreateJob(ctx context.Context, params models.ReportJobParams, actorID string) (*models.ReportJob, error) {
	switch params.Format {
	case models.ReportFormatCSV, models.ReportFormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	job := &models.ReportJob{
		ID:        uuid.NewString(),
		Params:    params,
		Status:    models.ReportStatusQueued,
		Progress:  0,
		CreatedBy: actorID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to persist report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType, Payload: job.ID}); err != nil {
		now := time.Now().UTC()
		if failErr := s.repo.MarkFailed(ctx, job.ID, "queue rejected job", now); failErr != nil {
			s.logger.Error("failed to mark rejected job", zap.String("job_id", job.ID), zap.Error(failErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}

	s.metrics.RecordReportJob("queued")
	s.logger.Info("report job queued", zap.String("job_id", job.ID), zap.String("format", string(params.Format)))
	return job, nil
}

// Process is the queue handler: it renders the export and stores the artifact.
func (s *ReportService) Process(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("report job payload must be a job id, got %T", job.Payload)
	}

	record, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", jobID, err)
	}

	if err := s.repo.UpdateProgress(ctx, jobID, models.ReportStatusProcessing, 10); err != nil {
		s.logger.Warn("failed to mark job processing", zap.String("job_id", jobID), zap.Error(err))
	}

	result, err := s.exporter.Generate(ctx, record)
	if err != nil {
		s.failJob(ctx, jobID, err)
		return err
	}

	if err := s.repo.UpdateProgress(ctx, jobID, models.ReportStatusProcessing, 80); err != nil {
		s.logger.Warn("failed to update job progress", zap.String("job_id", jobID), zap.Error(err))
	}

	if _, err := s.store.Save(result.Filename, result.Data); err != nil {
		s.failJob(ctx, jobID, err)
		return fmt.Errorf("store report artifact: %w", err)
	}

	if err := s.repo.MarkFinished(ctx, jobID, result.Filename, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark report finished: %w", err)
	}

	s.metrics.RecordReportJob("finished")
	s.logger.Info("report job finished", zap.String("job_id", jobID), zap.String("file", result.Filename))
	return nil
}

func (s *ReportService) failJob(ctx context.Context, jobID string, cause error) {
	s.metrics.RecordReportJob("failed")
	if err := s.repo.MarkFailed(ctx, jobID, cause.Error(), time.Now().UTC()); err != nil {
		s.logger.Error("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

// GetJob returns job status; finished jobs carry a signed download token.
func (s *ReportService) GetJob(ctx context.Context, id string) (*ReportJobView, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to fetch report job")
	}

	view := &ReportJobView{ReportJob: *job}
	if job.Status == models.ReportStatusFinished && job.ResultURL != nil {
		token, expiresAt, err := s.signer.Generate(job.ID, *job.ResultURL)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		view.DownloadToken = token
		view.ExpiresAt = &expiresAt
	}
	return view, nil
}

// ListJobs returns recent jobs, newest first.
func (s *ReportService) ListJobs(ctx context.Context, limit int) ([]models.ReportJob, error) {
	jobsList, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list report jobs")
	}
	return jobsList, nil
}

// ResolveDownload validates a signed token and opens the stored artifact.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to fetch report job")
	}
	if job.Status != models.ReportStatusFinished || job.ResultURL == nil || *job.ResultURL != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report artifact no longer available")
	}
	return &ReportDownload{File: file, Filename: relPath}, nil
}

// Cleanup removes expired jobs and their artifacts.
func (s *ReportService) Cleanup(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.cfg.ResultTTL)
	paths, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := s.store.Delete(path); err != nil {
			s.logger.Warn("failed to remove expired report artifact", zap.String("file", path), zap.Error(err))
		}
	}
	if len(paths) > 0 {
		s.logger.Info("report cleanup complete", zap.Int("removed", len(paths)))
	}
	return nil
}

// RunCleanupLoop periodically runs Cleanup until the context is cancelled.
func (s *ReportService) RunCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Cleanup(ctx); err != nil {
				s.logger.Warn("report cleanup failed", zap.Error(err))
			}
		}
	}
}
