package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/vls-lab/ctf-server/internal/model"
	"github.com/vls-lab/ctf-server/internal/repository"
)

// LeaderboardCache is an advisory read cache over leaderboard queries.
// Implementations must be safe to skip entirely: the scores table (and
// ultimately the ledger) stays the source of truth.
type LeaderboardCache interface {
	// Get returns cached entries for limit, if present.
	Get(ctx context.Context, limit int) ([]model.ScoreEntry, bool)
	// Set stores entries for limit with a short TTL.
	Set(ctx context.Context, limit int, entries []model.ScoreEntry)
	// Invalidate drops all cached leaderboard views.
	Invalidate(ctx context.Context)
}

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// LeaderboardService serves ranked score views and repairs the totals cache.
type LeaderboardService interface {
	// Leaderboard returns up to limit entries, best first.
	Leaderboard(ctx context.Context, limit int) ([]model.ScoreEntry, error)
	// Rebuild recomputes totals from the ledger and drops cached views.
	Rebuild(ctx context.Context) error
}

type LeaderboardServiceImpl struct {
	scores repository.ScoreRepository
	cache  LeaderboardCache
	log    *zap.Logger
}

// NewLeaderboardService constructs a LeaderboardService. cache may be nil.
func NewLeaderboardService(scores repository.ScoreRepository, cache LeaderboardCache, log *zap.Logger) *LeaderboardServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &LeaderboardServiceImpl{scores: scores, cache: cache, log: log}
}

// Leaderboard clamps limit and serves from cache when possible.
func (s *LeaderboardServiceImpl) Leaderboard(ctx context.Context, limit int) ([]model.ScoreEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	if s.cache != nil {
		if entries, ok := s.cache.Get(ctx, limit); ok {
			return entries, nil
		}
	}

	entries, err := s.scores.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, limit, entries)
	}
	return entries, nil
}

// Rebuild recomputes the totals table from the ledger, then invalidates
// cached views so readers see the repaired state.
func (s *LeaderboardServiceImpl) Rebuild(ctx context.Context) error {
	if err := s.scores.Rebuild(ctx); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.log.Info("leaderboard rebuilt from ledger")
	return nil
}
