// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/vls-lab/ctf-server/internal/model"
)

// ChallengeRepository provides access to challenge metadata and verification
// material. The flag digest never leaves the verification boundary: only the
// submission service reads it, and only to compare against an attempt.
type ChallengeRepository interface {
	// Create inserts a new challenge with its flag digest.
	Create(ctx context.Context, c *model.Challenge) error
	// Update rewrites challenge metadata. Fails with ErrChallengeFrozen once
	// the challenge has received any submission: changing the point value
	// after solves would corrupt historical scoring.
	Update(ctx context.Context, c *model.Challenge) error
	// Get loads a challenge by ID, including the flag digest.
	Get(ctx context.Context, id uuid.UUID) (*model.Challenge, error)
	// List returns all challenges without verification material.
	List(ctx context.Context) ([]model.Challenge, error)
	// ListWithStats returns all challenges with solve counts, for admins.
	ListWithStats(ctx context.Context) ([]model.ChallengeStats, error)
}
