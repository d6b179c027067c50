package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/vls-lab/ctf-server/internal/errs"
	"github.com/vls-lab/ctf-server/internal/flagcheck"
	"github.com/vls-lab/ctf-server/internal/model"
	"github.com/vls-lab/ctf-server/internal/repository"
)

// ChallengeInput is the admin-supplied challenge definition. Flag is the
// plaintext flag; it is digested immediately and never stored or echoed.
// On update, an empty Flag keeps the existing digest.
type ChallengeInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Difficulty  model.Difficulty `json:"difficulty"`
	Points      int              `json:"points"`
	Flag        string           `json:"flag"`
}

// ChallengeService manages the challenge catalogue. Read paths expose only
// the public view; the flag digest never crosses this boundary.
type ChallengeService interface {
	// Create registers a new challenge from admin input.
	Create(ctx context.Context, in ChallengeInput) (model.ChallengePublic, error)
	// Update edits a challenge that has not yet received submissions.
	Update(ctx context.Context, id uuid.UUID, in ChallengeInput) error
	// Get returns the public view of one challenge.
	Get(ctx context.Context, id uuid.UUID) (model.ChallengePublic, error)
	// List returns the public views of all challenges.
	List(ctx context.Context) ([]model.ChallengePublic, error)
	// ListWithStats returns all challenges with solve counts, for admins.
	ListWithStats(ctx context.Context) ([]model.ChallengeStats, error)
}

type ChallengeServiceImpl struct {
	repo repository.ChallengeRepository
}

// NewChallengeService constructs a ChallengeService.
func NewChallengeService(repo repository.ChallengeRepository) *ChallengeServiceImpl {
	return &ChallengeServiceImpl{repo: repo}
}

func validateInput(in ChallengeInput, flagRequired bool) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: empty title", errs.ErrInvalidInput)
	}
	if !in.Difficulty.Valid() {
		return fmt.Errorf("%w: difficulty must be Easy, Medium or Hard", errs.ErrInvalidInput)
	}
	if in.Points <= 0 {
		return fmt.Errorf("%w: points must be positive", errs.ErrInvalidInput)
	}
	flag := flagcheck.Normalize(in.Flag)
	if flagRequired && flag == "" {
		return fmt.Errorf("%w: empty flag", errs.ErrInvalidInput)
	}
	if len(flag) > MaxFlagLen {
		return fmt.Errorf("%w: flag too long", errs.ErrInvalidInput)
	}
	return nil
}

// Create validates input, digests the flag, and stores the challenge.
func (s *ChallengeServiceImpl) Create(ctx context.Context, in ChallengeInput) (model.ChallengePublic, error) {
	if err := validateInput(in, true); err != nil {
		return model.ChallengePublic{}, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.ChallengePublic{}, err
	}
	c := model.Challenge{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		Points:      in.Points,
		FlagDigest:  flagcheck.Digest(in.Flag),
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		return model.ChallengePublic{}, err
	}
	return c.Public(), nil
}

// Update edits challenge metadata. The repository rejects the edit with
// ErrChallengeFrozen once any submission exists.
func (s *ChallengeServiceImpl) Update(ctx context.Context, id uuid.UUID, in ChallengeInput) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: empty id", errs.ErrInvalidInput)
	}
	if err := validateInput(in, false); err != nil {
		return err
	}
	c := model.Challenge{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		Points:      in.Points,
	}
	if flagcheck.Normalize(in.Flag) != "" {
		c.FlagDigest = flagcheck.Digest(in.Flag)
	}
	return s.repo.Update(ctx, &c)
}

// Get returns the public view of a challenge.
func (s *ChallengeServiceImpl) Get(ctx context.Context, id uuid.UUID) (model.ChallengePublic, error) {
	if id == uuid.Nil {
		return model.ChallengePublic{}, fmt.Errorf("%w: empty id", errs.ErrInvalidInput)
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.ChallengePublic{}, err
	}
	return c.Public(), nil
}

// List returns public views of all challenges.
func (s *ChallengeServiceImpl) List(ctx context.Context) ([]model.ChallengePublic, error) {
	cs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ChallengePublic, 0, len(cs))
	for i := range cs {
		out = append(out, cs[i].Public())
	}
	return out, nil
}

// ListWithStats returns the admin catalogue with solve counts.
func (s *ChallengeServiceImpl) ListWithStats(ctx context.Context) ([]model.ChallengeStats, error) {
	return s.repo.ListWithStats(ctx)
}
