package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/smartadmission/admissions-api/internal/models"
	appErrors "github.com/smartadmission/admissions-api/pkg/errors"
)

const dashboardStatsCacheKey = "dashboard:stats"

type statsStore interface {
	StatusCounts(ctx context.Context) (map[models.Status]int, error)
	CourseCounts(ctx context.Context) ([]models.CourseCount, error)
	MonthlyCounts(ctx context.Context) ([]models.MonthlyCount, error)
}

// DashboardService aggregates admission statistics for the admin dashboard,
// serving cached snapshots when available.
type DashboardService struct {
	repo   statsStore
	cache  *CacheService
	logger *zap.Logger
	ttl    time.Duration
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo statsStore, cache *CacheService, logger *zap.Logger, ttl time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, ttl: ttl}
}

// Stats returns counts by status, course popularity, and monthly submission
// volume. Cache errors degrade to a live computation.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, dashboardStatsCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	statusCounts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to aggregate status counts")
	}
	courses, err := s.repo.CourseCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to aggregate course counts")
	}
	monthly, err := s.repo.MonthlyCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to aggregate monthly counts")
	}

	stats := &models.DashboardStats{
		Pending:   statusCounts[models.StatusPending],
		Reviewing: statusCounts[models.StatusReviewing],
		Accepted:  statusCounts[models.StatusAccepted],
		Rejected:  statusCounts[models.StatusRejected],
		Courses:   courses,
		Monthly:   monthly,
	}
	stats.Total = stats.Pending + stats.Reviewing + stats.Accepted + stats.Rejected

	if err := s.cache.Set(ctx, dashboardStatsCacheKey, stats, s.ttl); err != nil {
		s.logger.Warn("dashboard stats cache write failed", zap.Error(err))
	}
	return stats, nil
}
