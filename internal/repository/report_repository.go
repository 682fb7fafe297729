package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/smartadmission/admissions-api/internal/models"
)

// ReportRepository owns persistence for export job metadata.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

// Create inserts a queued report job.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	const query = `INSERT INTO report_jobs (id, params, status, progress, created_by, created_at)
        VALUES (:id, :params, :status, :progress, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID fetches a job by its identifier.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	query := fmt.Sprintf("SELECT %s FROM report_jobs WHERE id = $1", reportColumns)
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns the most recent jobs, newest first.
func (r *ReportRepository) List(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM report_jobs ORDER BY created_at DESC LIMIT $1", reportColumns)
	jobs := []models.ReportJob{}
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}

// UpdateProgress advances the job's status and completion percentage.
func (r *ReportRepository) UpdateProgress(ctx context.Context, id string, status models.ReportStatus, progress int) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE report_jobs SET status = $2, progress = $3 WHERE id = $1", id, status, progress); err != nil {
		return fmt.Errorf("update report progress: %w", err)
	}
	return nil
}

// MarkFinished records a successful run and the download URL.
func (r *ReportRepository) MarkFinished(ctx context.Context, id, resultURL string, at time.Time) error {
	const query = `UPDATE report_jobs SET status = $2, progress = 100, result_url = $3, finished_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportStatusFinished, resultURL, at); err != nil {
		return fmt.Errorf("mark report finished: %w", err)
	}
	return nil
}

// MarkFailed records a failed run with its error message.
func (r *ReportRepository) MarkFailed(ctx context.Context, id, message string, at time.Time) error {
	const query = `UPDATE report_jobs SET status = $2, error_message = $3, finished_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportStatusFailed, message, at); err != nil {
		return fmt.Errorf("mark report failed: %w", err)
	}
	return nil
}

// DeleteOlderThan removes finished jobs past the retention cutoff and
// returns the stored file paths so the caller can remove the artifacts.
func (r *ReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	const query = `DELETE FROM report_jobs WHERE finished_at IS NOT NULL AND finished_at < $1 RETURNING COALESCE(result_url, '')`
	paths := []string{}
	if err := r.db.SelectContext(ctx, &paths, query, cutoff); err != nil {
		return nil, fmt.Errorf("delete expired report jobs: %w", err)
	}
	return paths, nil
}
