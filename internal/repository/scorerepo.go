package repository

import (
	"context"

	"github.com/vls-lab/ctf-server/internal/model"
)

// ScoreRepository reads and repairs the derived per-user totals. Increments
// happen inside SubmissionRepository.Record's transaction; this interface
// only exposes the read side and the ledger-driven rebuild.
type ScoreRepository interface {
	// Leaderboard returns up to limit entries ordered by total descending,
	// ties broken by earliest contributing correct submission.
	Leaderboard(ctx context.Context, limit int) ([]model.ScoreEntry, error)

	// Rebuild recomputes the totals table from the ledger in one
	// transaction. The ledger is the source of truth; the totals are a
	// rebuildable cache.
	Rebuild(ctx context.Context) error
}
