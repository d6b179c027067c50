package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/vls-lab/ctf-server/internal/errs"
	"github.com/vls-lab/ctf-server/internal/model"
)

// ChallengeRepo implements ChallengeRepository using PostgreSQL.
type ChallengeRepo struct{ db *DB }

// NewChallengeRepo constructs a challenge repository.
func NewChallengeRepo(db *DB) *ChallengeRepo { return &ChallengeRepo{db: db} }

// Create inserts a new challenge row.
func (r *ChallengeRepo) Create(ctx context.Context, c *model.Challenge) error {
	const q = `
INSERT INTO challenges (id, title, description, category, difficulty, points, flag_digest)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, c.ID, c.Title, c.Description, c.Category, c.Difficulty, c.Points, c.FlagDigest)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Update rewrites challenge metadata, but only while the challenge has no
// submissions: point values are part of historical scoring once solves
// exist. A nil FlagDigest keeps the stored digest.
func (r *ChallengeRepo) Update(ctx context.Context, c *model.Challenge) error {
	const q = `
UPDATE challenges
SET title=$2, description=$3, category=$4, difficulty=$5, points=$6,
    flag_digest=COALESCE($7, flag_digest), updated_at=now()
WHERE id=$1
  AND NOT EXISTS (SELECT 1 FROM submissions WHERE challenge_id=$1)`
	tag, err := r.db.Pool.Exec(ctx, q, c.ID, c.Title, c.Description, c.Category, c.Difficulty, c.Points, c.FlagDigest)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		const exists = `SELECT EXISTS (SELECT 1 FROM challenges WHERE id=$1)`
		var ok bool
		if scanErr := r.db.Pool.QueryRow(ctx, exists, c.ID).Scan(&ok); scanErr != nil {
			return scanErr
		}
		if ok {
			return errs.ErrChallengeFrozen
		}
		return errs.ErrNotFound
	}
	return nil
}

// Get loads a challenge by ID, including the flag digest. Only the
// verification boundary may see the digest.
func (r *ChallengeRepo) Get(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	const q = `
SELECT id, title, description, category, difficulty, points, flag_digest, created_at, updated_at
FROM challenges WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var c model.Challenge
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Difficulty, &c.Points, &c.FlagDigest, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all challenges without verification material.
func (r *ChallengeRepo) List(ctx context.Context) ([]model.Challenge, error) {
	const q = `
SELECT id, title, description, category, difficulty, points, created_at, updated_at
FROM challenges
ORDER BY created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Challenge
	for rows.Next() {
		var c model.Challenge
		if err = rows.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Difficulty, &c.Points, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListWithStats returns all challenges with distinct-solver counts.
func (r *ChallengeRepo) ListWithStats(ctx context.Context) ([]model.ChallengeStats, error) {
	const q = `
SELECT c.id, c.title, c.description, c.category, c.difficulty, c.points, c.created_at,
       COUNT(s.id) FILTER (WHERE s.correct AND s.scoring) AS solve_count
FROM challenges c
LEFT JOIN submissions s ON s.challenge_id = c.id
GROUP BY c.id
ORDER BY c.created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChallengeStats
	for rows.Next() {
		var st model.ChallengeStats
		if err = rows.Scan(&st.ID, &st.Title, &st.Description, &st.Category, &st.Difficulty, &st.Points, &st.CreatedAt, &st.SolveCount); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
