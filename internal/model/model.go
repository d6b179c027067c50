// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Difficulty is the declared difficulty of a challenge.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Role distinguishes regular students from lab administrators.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Challenge is a CTF task. FlagDigest is the SHA-256 of the canonical flag;
// the plaintext flag is never stored. Metadata is frozen once the challenge
// has received submissions.
type Challenge struct {
	ID          uuid.UUID
	Title       string
	Description string
	Category    string
	Difficulty  Difficulty
	Points      int
	FlagDigest  []byte // never serialized toward clients
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChallengePublic is the client-facing view of a challenge, with the
// verification material stripped.
type ChallengePublic struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	Points      int        `json:"points"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Public returns the view of c safe to serialize toward the UI.
func (c *Challenge) Public() ChallengePublic {
	return ChallengePublic{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Difficulty:  c.Difficulty,
		Points:      c.Points,
		CreatedAt:   c.CreatedAt,
	}
}

// ChallengeStats is the admin view of a challenge: public fields plus
// how many users have solved it.
type ChallengeStats struct {
	ChallengePublic
	SolveCount int `json:"solve_count"`
}

// Submission is one ledger entry. Rows are append-only: correctness and
// scoring are fixed at insert time and never updated.
type Submission struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ChallengeID uuid.UUID
	FlagDigest  []byte // digest of the submitted value, not the plaintext
	Correct     bool
	Scoring     bool // true only for the first correct submission per (user, challenge)
	CreatedAt   time.Time
}

// Verdict is the outcome of a submission attempt returned to the caller.
type Verdict struct {
	Correct       bool `json:"correct"`
	AlreadySolved bool `json:"already_solved"`
	PointsAwarded int  `json:"points_awarded"`
}

// ScoreEntry is a single leaderboard row derived from the ledger.
type ScoreEntry struct {
	UserID       uuid.UUID `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	TotalScore   int       `json:"total_score"`
	Rank         int       `json:"rank"`
	FirstSolveAt time.Time `json:"first_solve_at"`
}

// User is a student or admin account.
type User struct {
	ID          uuid.UUID
	Username    string
	DisplayName string
	PwdHash     []byte
	SaltAuth    []byte
	Role        Role
	CreatedAt   time.Time
}

// Tokens carries an issued access token and its expiry.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// Notification is an in-app message for a user, e.g. a solve confirmation.
type Notification struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	SourceID   uuid.UUID `json:"source_id"`
	SourceType string    `json:"source_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// NotificationSourceSubmission marks notifications produced by scoring submissions.
const NotificationSourceSubmission = "submission"
