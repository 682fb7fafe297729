package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/smartadmission/admissions-api/internal/models"
)

// ApplicationRepository owns persistence for admission application records.
// All reads return snapshots; mutations go through explicit methods.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `seq, id, full_name, email, phone, date_of_birth, address, city, country, postal_code,
        course, degree, qualification, gpa, statement, documents, status, date_applied, date_updated`

// Create inserts a new application record.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.DateApplied.IsZero() {
		app.DateApplied = time.Now().UTC()
	}
	const query = `INSERT INTO applications (id, full_name, email, phone, date_of_birth, address, city, country, postal_code,
        course, degree, qualification, gpa, statement, documents, status, date_applied)
        VALUES (:id, :full_name, :email, :phone, :date_of_birth, :address, :city, :country, :postal_code,
        :course, :degree, :qualification, :gpa, :statement, :documents, :status, :date_applied)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// ListAll returns every application in insertion order.
func (r *ApplicationRepository) ListAll(ctx context.Context) ([]models.Application, error) {
	query := fmt.Sprintf("SELECT %s FROM applications ORDER BY seq ASC", applicationColumns)
	apps := []models.Application{}
	if err := r.db.SelectContext(ctx, &apps, query); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// FindByIDAndEmail fetches a record matching both the application ID and the
// applicant email, each compared case-insensitively.
func (r *ApplicationRepository) FindByIDAndEmail(ctx context.Context, id, email string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE LOWER(id) = LOWER($1) AND LOWER(email) = LOWER($2)`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id, email); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByID fetches a record by its application ID only.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE LOWER(id) = LOWER($1)`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// ExistsByID reports whether an application with the given ID exists.
func (r *ApplicationRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM applications WHERE LOWER(id) = LOWER($1) LIMIT 1", id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check application id: %w", err)
	}
	return true, nil
}

// UpdateStatus sets the status and stamps date_updated in a single statement,
// returning the updated record. sql.ErrNoRows signals an unknown ID.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Application, error) {
	query := fmt.Sprintf(`UPDATE applications SET status = $2, date_updated = $3 WHERE LOWER(id) = LOWER($1) RETURNING %s`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id, status, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &app, nil
}

// Delete removes the record with the given ID. Deleting an absent ID is a no-op.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM applications WHERE LOWER(id) = LOWER($1)", id); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return nil
}

// StatusCounts aggregates record counts keyed by status.
func (r *ApplicationRepository) StatusCounts(ctx context.Context) (map[models.Status]int, error) {
	rows := []struct {
		Status models.Status `db:"status"`
		Count  int           `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS count FROM applications GROUP BY status"); err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	counts := make(map[models.Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CourseCounts aggregates record counts per course, most popular first.
func (r *ApplicationRepository) CourseCounts(ctx context.Context) ([]models.CourseCount, error) {
	counts := []models.CourseCount{}
	if err := r.db.SelectContext(ctx, &counts, "SELECT course, COUNT(*) AS count FROM applications GROUP BY course ORDER BY count DESC, course ASC"); err != nil {
		return nil, fmt.Errorf("count by course: %w", err)
	}
	return counts, nil
}

// MonthlyCounts aggregates submissions per calendar month in ascending order.
func (r *ApplicationRepository) MonthlyCounts(ctx context.Context) ([]models.MonthlyCount, error) {
	counts := []models.MonthlyCount{}
	const query = `SELECT TO_CHAR(date_applied, 'YYYY-MM') AS month, COUNT(*) AS count
        FROM applications GROUP BY month ORDER BY month ASC`
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count by month: %w", err)
	}
	return counts, nil
}
