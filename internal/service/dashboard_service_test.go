package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
)

type walkinCounterStub struct {
	counts *models.WalkinStatusCounts
	calls  int
}

func (m *walkinCounterStub) CountByStatus(ctx context.Context, counsellorID string) (*models.WalkinStatusCounts, error) {
	m.calls++
	return m.counts, nil
}

type queryStatsStub struct {
	stats *models.QueryStats
}

func (m *queryStatsStub) Stats(ctx context.Context, counsellorID string) (*models.QueryStats, error) {
	return m.stats, nil
}

type documentCounterStub struct {
	pending int
}

func (m *documentCounterStub) CountPendingForCounsellor(ctx context.Context, counsellorID string) (int, error) {
	return m.pending, nil
}

type dashboardCacheStub struct {
	entries map[string]*dto.CounsellorDashboard
	sets    int
}

func newDashboardCacheStub() *dashboardCacheStub {
	return &dashboardCacheStub{entries: make(map[string]*dto.CounsellorDashboard)}
}

func (m *dashboardCacheStub) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	entry, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	*dest.(*dto.CounsellorDashboard) = *entry
	return true, nil
}

func (m *dashboardCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	snapshot := value.(*dto.CounsellorDashboard)
	copy := *snapshot
	m.entries[key] = &copy
	return nil
}

func TestDashboardServiceCounsellorSnapshot(t *testing.T) {
	walkins := &walkinCounterStub{counts: &models.WalkinStatusCounts{Requested: 3, Approved: 1}}
	queries := &queryStatsStub{stats: &models.QueryStats{Total: 5, Pending: 2}}
	documents := &documentCounterStub{pending: 4}
	cache := newDashboardCacheStub()
	svc := NewDashboardService(walkins, queries, documents, cache, time.Minute, nil)

	snapshot, cached, err := svc.CounsellorSnapshot(context.Background(), "counsellor-1")
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, 3, snapshot.Walkins.Requested)
	require.Equal(t, 2, snapshot.PendingQueries)
	require.Equal(t, 4, snapshot.PendingDocuments)
	require.Equal(t, 1, cache.sets)

	again, cached, err := svc.CounsellorSnapshot(context.Background(), "counsellor-1")
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, snapshot.PendingDocuments, again.PendingDocuments)
	require.Equal(t, 1, walkins.calls)
}

func TestDashboardServiceWithoutCache(t *testing.T) {
	walkins := &walkinCounterStub{counts: &models.WalkinStatusCounts{}}
	queries := &queryStatsStub{stats: &models.QueryStats{}}
	documents := &documentCounterStub{}
	svc := NewDashboardService(walkins, queries, documents, nil, time.Minute, nil)

	for range [2]struct{}{} {
		_, cached, err := svc.CounsellorSnapshot(context.Background(), "counsellor-1")
		require.NoError(t, err)
		require.False(t, cached)
	}
	require.Equal(t, 2, walkins.calls)
}
