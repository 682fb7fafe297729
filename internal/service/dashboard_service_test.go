package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartadmission/admissions-api/internal/models"
	appErrors "github.com/smartadmission/admissions-api/pkg/errors"
)

type mockStatsStore struct {
	statusCounts map[models.Status]int
	courses      []models.CourseCount
	monthly      []models.MonthlyCount
	calls        int
	err          error
}

func (m *mockStatsStore) StatusCounts(ctx context.Context) (map[models.Status]int, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.statusCounts, nil
}

func (m *mockStatsStore) CourseCounts(ctx context.Context) ([]models.CourseCount, error) {
	return m.courses, m.err
}

func (m *mockStatsStore) MonthlyCounts(ctx context.Context) ([]models.MonthlyCount, error) {
	return m.monthly, m.err
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	stats, isStats := dest.(*models.DashboardStats)
	if !isStats {
		return appErrors.ErrCacheMiss
	}
	_ = raw
	*stats = models.DashboardStats{Total: 42}
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = []byte("set")
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = nil
	return nil
}

func TestDashboardServiceStats(t *testing.T) {
	repo := &mockStatsStore{
		statusCounts: map[models.Status]int{
			models.StatusPending:   4,
			models.StatusReviewing: 2,
			models.StatusAccepted:  1,
		},
		courses: []models.CourseCount{{Course: "Computer Science", Count: 5}},
		monthly: []models.MonthlyCount{{Month: "2026-08", Count: 7}},
	}
	svc := NewDashboardService(repo, nil, zap.NewNop(), time.Minute)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 4, stats.Pending)
	assert.Equal(t, 2, stats.Reviewing)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 0, stats.Rejected)
	require.Len(t, stats.Courses, 1)
	assert.Equal(t, "Computer Science", stats.Courses[0].Course)
}

func TestDashboardServiceStatsServesCachedSnapshot(t *testing.T) {
	repo := &mockStatsStore{statusCounts: map[models.Status]int{}}
	cacheRepo := &memoryCacheRepo{entries: map[string][]byte{dashboardStatsCacheKey: []byte("cached")}}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(repo, cache, zap.NewNop(), time.Minute)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, stats.Total)
	assert.Zero(t, repo.calls, "live aggregation should be skipped on a cache hit")
}

func TestDashboardServiceStatsPopulatesCacheOnMiss(t *testing.T) {
	repo := &mockStatsStore{statusCounts: map[models.Status]int{models.StatusPending: 1}}
	cacheRepo := &memoryCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(repo, cache, zap.NewNop(), time.Minute)

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.entries, dashboardStatsCacheKey)
}
