package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/vls-lab/ctf-server/internal/model"
)

// SubmissionRepository is the append-only attempt ledger. It owns the
// at-most-one-award invariant: a correct submission claims the single
// scoring slot of its (user, challenge) pair through a conditional insert,
// and the score increment is committed in the same transaction.
type SubmissionRepository interface {
	// Record appends the attempt and returns the stored row. For a correct
	// attempt that finds the scoring slot already taken, the row is persisted
	// with Scoring=false; no error is returned, callers inspect the flags.
	// points is the challenge's point value, credited only when the row wins
	// the scoring slot.
	Record(ctx context.Context, s model.Submission, points int) (model.Submission, error)

	// HasSolved reports whether the user already has a correct submission
	// for the challenge.
	HasSolved(ctx context.Context, userID, challengeID uuid.UUID) (bool, error)
}
