package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smartadmission/admissions-api/internal/models"
	appErrors "github.com/smartadmission/admissions-api/pkg/errors"
)

const dashboardCachePattern = "dashboard:*"

type applicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	ListAll(ctx context.Context) ([]models.Application, error)
	FindByIDAndEmail(ctx context.Context, id, email string) (*models.Application, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Application, error)
	Delete(ctx context.Context, id string) error
}

type idGenerator interface {
	Generate() (string, error)
}

// ApplicationServiceConfig tunes validation and identifier generation.
type ApplicationServiceConfig struct {
	StatementMinLength int
	IDMaxRetries       int
	Policy             TransitionPolicy
}

// ApplicationService implements the application record lifecycle: submission,
// applicant tracking, and the admin review flow.
type ApplicationService struct {
	repo      applicationStore
	ids       idGenerator
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ApplicationServiceConfig
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(repo applicationStore, ids idGenerator, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ApplicationServiceConfig) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.StatementMinLength <= 0 {
		cfg.StatementMinLength = 100
	}
	if cfg.IDMaxRetries <= 0 {
		cfg.IDMaxRetries = 3
	}
	return &ApplicationService{repo: repo, ids: ids, cache: cache, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

// Submit validates the payload, assigns a fresh application ID, and persists
// the record in Pending status.
func (s *ApplicationService) Submit(ctx context.Context, req models.SubmitApplicationRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	gpa, err := strconv.ParseFloat(strings.TrimSpace(req.GPA), 64)
	if err != nil || gpa < 0 || gpa > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "gpa must be a number between 0 and 100")
	}

	if utf8.RuneCountInString(strings.TrimSpace(req.Statement)) < s.cfg.StatementMinLength {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("personal statement must be at least %d characters", s.cfg.StatementMinLength))
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	app := &models.Application{
		ID:            id,
		FullName:      strings.TrimSpace(req.FullName),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		DateOfBirth:   strings.TrimSpace(req.DateOfBirth),
		Address:       strings.TrimSpace(req.Address),
		City:          strings.TrimSpace(req.City),
		Country:       strings.TrimSpace(req.Country),
		PostalCode:    strings.TrimSpace(req.PostalCode),
		Course:        strings.TrimSpace(req.Course),
		Degree:        strings.TrimSpace(req.Degree),
		Qualification: strings.TrimSpace(req.Qualification),
		GPA:           strings.TrimSpace(req.GPA),
		Statement:     strings.TrimSpace(req.Statement),
		Documents:     models.Documents(req.Documents),
		Status:        models.StatusPending,
		DateApplied:   time.Now().UTC(),
	}
	if app.Documents == nil {
		app.Documents = models.Documents{}
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to save application")
	}

	s.metrics.RecordSubmission()
	s.invalidateDashboard(ctx)
	s.logger.Info("application submitted", zap.String("application_id", app.ID), zap.String("course", app.Course))
	return app, nil
}

// nextID draws identifiers until one is unused, bounded by IDMaxRetries.
func (s *ApplicationService) nextID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.cfg.IDMaxRetries; attempt++ {
		id, err := s.ids.Generate()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate application id")
		}
		exists, err := s.repo.ExistsByID(ctx, id)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to check application id")
		}
		if !exists {
			return id, nil
		}
		s.logger.Warn("application id collision", zap.String("application_id", id), zap.Int("attempt", attempt+1))
	}
	return "", appErrors.Clone(appErrors.ErrInternal, "could not allocate a unique application id")
}

// Track returns the record matching both the application ID and the
// applicant's email, along with the progress step shown to applicants.
// A single not-found error covers every mismatch so the endpoint does not
// reveal which credential was wrong.
func (s *ApplicationService) Track(ctx context.Context, id, email string) (*models.TrackingResult, error) {
	id = strings.TrimSpace(id)
	email = strings.TrimSpace(email)
	if id == "" || email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application id and email are required")
	}

	app, err := s.repo.FindByIDAndEmail(ctx, id, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no application found for the provided details")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to look up application")
	}

	return &models.TrackingResult{Application: app, Step: app.Status.TrackingStep()}, nil
}

// List returns applications matching the filter in insertion order, paginated.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, *models.Pagination, error) {
	apps, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list applications")
	}

	filtered := FilterApplications(apps, filter)

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: len(filtered)}

	start := (page - 1) * pageSize
	if start >= len(filtered) {
		return []models.Application{}, pagination, nil
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], pagination, nil
}

// Get fetches a single record by application ID.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to fetch application")
	}
	return app, nil
}

// UpdateStatus moves a record to the requested status, subject to the
// configured transition policy, and stamps the update time.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id, rawStatus string) (*models.Application, error) {
	status, err := models.ParseStatus(strings.TrimSpace(rawStatus))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of Pending, Reviewing, Accepted, Rejected")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.cfg.Policy.Allowed(current.Status, status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move application from %s to %s", current.Status, status))
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to update application status")
	}

	s.metrics.RecordStatusChange(string(status))
	s.invalidateDashboard(ctx)
	s.logger.Info("application status updated",
		zap.String("application_id", updated.ID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(status)))
	return updated, nil
}

// Delete removes a record. Deleting an unknown ID succeeds without effect.
func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to delete application")
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *ApplicationService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
