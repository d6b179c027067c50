package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/vls-lab/ctf-server/internal/model"
)

// ScoreRepo implements ScoreRepository using PostgreSQL. The scores table is
// a running-total cache maintained transactionally by SubmissionRepo.Record;
// Rebuild regenerates it from the ledger when the two ever need reconciling.
type ScoreRepo struct{ db *DB }

// NewScoreRepo constructs a score repository.
func NewScoreRepo(db *DB) *ScoreRepo { return &ScoreRepo{db: db} }

// Leaderboard returns the top entries. Ordering: total descending, then the
// earliest contributing correct submission (first solver wins ties), then
// user id for determinism.
func (r *ScoreRepo) Leaderboard(ctx context.Context, limit int) ([]model.ScoreEntry, error) {
	const q = `
SELECT s.user_id, u.display_name, s.total_points, s.first_solve_at,
       ROW_NUMBER() OVER (ORDER BY s.total_points DESC, s.first_solve_at ASC, s.user_id ASC) AS rank
FROM scores s
JOIN users u ON u.id = s.user_id
ORDER BY s.total_points DESC, s.first_solve_at ASC, s.user_id ASC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScoreEntry
	for rows.Next() {
		var e model.ScoreEntry
		if err = rows.Scan(&e.UserID, &e.DisplayName, &e.TotalScore, &e.FirstSolveAt, &e.Rank); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Rebuild recomputes the totals from scoring ledger rows in one transaction.
func (r *ScoreRepo) Rebuild(ctx context.Context) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM scores`); err != nil {
		return err
	}
	const q = `
INSERT INTO scores (user_id, total_points, first_solve_at, updated_at)
SELECT s.user_id, SUM(c.points), MIN(s.created_at), now()
FROM submissions s
JOIN challenges c ON c.id = s.challenge_id
WHERE s.correct AND s.scoring
GROUP BY s.user_id`
	_, err = tx.Exec(ctx, q)
	return err
}
