package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
)

type walkinCounter interface {
	CountByStatus(ctx context.Context, counsellorID string) (*models.WalkinStatusCounts, error)
}

type queryStatsReader interface {
	Stats(ctx context.Context, counsellorID string) (*models.QueryStats, error)
}

type documentCounter interface {
	CountPendingForCounsellor(ctx context.Context, counsellorID string) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardService builds the counsellor stats snapshot. Every figure is
// recomputed from the underlying record sets; Redis only shortens the window
// between recomputations.
type DashboardService struct {
	walkins   walkinCounter
	queries   queryStatsReader
	documents documentCounter
	cache     dashboardCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewDashboardService constructs the service. Cache may be nil.
func NewDashboardService(walkins walkinCounter, queries queryStatsReader, documents documentCounter, cache dashboardCache, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		walkins:   walkins,
		queries:   queries,
		documents: documents,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// CounsellorSnapshot assembles the counsellor dashboard, serving a cached
// copy when one is fresh. The second return value reports a cache hit.
func (s *DashboardService) CounsellorSnapshot(ctx context.Context, counsellorID string) (*dto.CounsellorDashboard, bool, error) {
	cacheKey := "dashboard:counsellor:" + counsellorID
	if s.cache != nil {
		var cached dto.CounsellorDashboard
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.String("counsellor_id", counsellorID), zap.Error(err))
		}
		if hit {
			return &cached, true, nil
		}
	}

	walkins, err := s.walkins.CountByStatus(ctx, counsellorID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count walk-in requests")
	}
	queryStats, err := s.queries.Stats(ctx, counsellorID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute query stats")
	}
	pendingDocs, err := s.documents.CountPendingForCounsellor(ctx, counsellorID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending documents")
	}

	snapshot := &dto.CounsellorDashboard{
		Walkins:          *walkins,
		PendingQueries:   queryStats.Pending,
		PendingDocuments: pendingDocs,
		GeneratedAt:      time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, snapshot, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("counsellor_id", counsellorID), zap.Error(err))
		}
	}
	return snapshot, false, nil
}
