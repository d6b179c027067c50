package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/vls-lab/ctf-server/internal/model"
)

// SubmissionRepo implements the submission ledger using PostgreSQL.
//
// The at-most-one-award invariant is enforced by the partial unique index
// submissions_one_scoring_idx (user_id, challenge_id) WHERE correct AND
// scoring: the first correct submission claims the slot via a conditional
// insert, later ones degrade to non-scoring rows. The score increment is
// committed in the same transaction as the winning insert, so a crash can
// never leave a scoring row without its points.
type SubmissionRepo struct{ db *DB }

// NewSubmissionRepo constructs a submission repository.
func NewSubmissionRepo(db *DB) *SubmissionRepo { return &SubmissionRepo{db: db} }

const (
	insIncorrect = `
INSERT INTO submissions (id, user_id, challenge_id, flag_digest, correct, scoring)
VALUES ($1,$2,$3,$4,false,false)
RETURNING created_at`

	insScoring = `
INSERT INTO submissions (id, user_id, challenge_id, flag_digest, correct, scoring)
VALUES ($1,$2,$3,$4,true,true)
ON CONFLICT (user_id, challenge_id) WHERE correct AND scoring DO NOTHING
RETURNING created_at`

	insNonScoring = `
INSERT INTO submissions (id, user_id, challenge_id, flag_digest, correct, scoring)
VALUES ($1,$2,$3,$4,true,false)
RETURNING created_at`

	upsertScore = `
INSERT INTO scores (user_id, total_points, first_solve_at, updated_at)
VALUES ($1,$2,$3,now())
ON CONFLICT (user_id) DO UPDATE
SET total_points  = scores.total_points + EXCLUDED.total_points,
    first_solve_at = LEAST(scores.first_solve_at, EXCLUDED.first_solve_at),
    updated_at     = now()`
)

// Record appends the attempt in a single transaction. Every attempt produces
// a row; only a correct attempt that wins the scoring slot also credits
// points. A correct attempt that loses the slot is stored with scoring=false
// and no error: the caller reads the flags to report "already solved".
//
// The submission ID acts as an idempotency key: if a retry replays an
// attempt whose transaction already committed, the primary-key conflict is
// resolved by returning the committed row instead of an error.
func (r *SubmissionRepo) Record(ctx context.Context, s model.Submission, points int) (model.Submission, error) {
	out, err := r.record(ctx, s, points)
	if isUniqueViolation(err) {
		return r.getByID(ctx, s.ID)
	}
	return out, err
}

func (r *SubmissionRepo) record(ctx context.Context, s model.Submission, points int) (out model.Submission, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Submission{}, err
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

	if !s.Correct {
		s.Scoring = false
		if err = tx.QueryRow(ctx, insIncorrect, s.ID, s.UserID, s.ChallengeID, s.FlagDigest).Scan(&s.CreatedAt); err != nil {
			return model.Submission{}, err
		}
		return s, nil
	}

	scanErr := tx.QueryRow(ctx, insScoring, s.ID, s.UserID, s.ChallengeID, s.FlagDigest).Scan(&s.CreatedAt)
	switch {
	case scanErr == nil:
		s.Scoring = true
		if _, err = tx.Exec(ctx, upsertScore, s.UserID, points, s.CreatedAt); err != nil {
			return model.Submission{}, err
		}
		return s, nil
	case errors.Is(scanErr, pgx.ErrNoRows):
		// Scoring slot already taken: the flag is still valid, the row is
		// still auditable, it just must not re-award points.
		s.Scoring = false
		if err = tx.QueryRow(ctx, insNonScoring, s.ID, s.UserID, s.ChallengeID, s.FlagDigest).Scan(&s.CreatedAt); err != nil {
			return model.Submission{}, err
		}
		return s, nil
	default:
		err = scanErr
		return model.Submission{}, err
	}
}

// getByID loads a committed ledger row, for idempotent replay of a retried
// attempt.
func (r *SubmissionRepo) getByID(ctx context.Context, id uuid.UUID) (model.Submission, error) {
	const q = `
SELECT id, user_id, challenge_id, flag_digest, correct, scoring, created_at
FROM submissions WHERE id=$1`
	var s model.Submission
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.UserID, &s.ChallengeID, &s.FlagDigest, &s.Correct, &s.Scoring, &s.CreatedAt)
	if err != nil {
		return model.Submission{}, err
	}
	return s, nil
}

// HasSolved reports whether a correct submission already exists for the pair.
func (r *SubmissionRepo) HasSolved(ctx context.Context, userID, challengeID uuid.UUID) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM submissions
  WHERE user_id=$1 AND challenge_id=$2 AND correct
)`
	var solved bool
	if err := r.db.Pool.QueryRow(ctx, q, userID, challengeID).Scan(&solved); err != nil {
		return false, err
	}
	return solved, nil
}
