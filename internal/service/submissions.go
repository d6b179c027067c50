// Package service contains application services for flag submission, scoring,
// challenges, authentication, and notifications.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/vls-lab/ctf-server/internal/errs"
	"github.com/vls-lab/ctf-server/internal/flagcheck"
	"github.com/vls-lab/ctf-server/internal/limiter"
	"github.com/vls-lab/ctf-server/internal/model"
	"github.com/vls-lab/ctf-server/internal/repository"
)

// MaxFlagLen bounds submitted flags; anything longer is rejected before any
// store access.
const MaxFlagLen = 256

// SubmissionService verifies flag attempts and records them exactly once per
// outcome.
type SubmissionService interface {
	// Submit verifies rawFlag against the challenge and appends the attempt
	// to the ledger. Points are awarded at most once per (user, challenge).
	Submit(ctx context.Context, userID, challengeID uuid.UUID, rawFlag, ip string) (model.Verdict, error)
	// HasSolved reports whether the user has a correct submission for the challenge.
	HasSolved(ctx context.Context, userID, challengeID uuid.UUID) (bool, error)
}

type SubmissionServiceImpl struct {
	challenges    repository.ChallengeRepository
	ledger        repository.SubmissionRepository
	notifications repository.NotificationRepository
	cache         LeaderboardCache
	lim           limiter.Limiter
	log           *zap.Logger

	retryAttempts uint64
	retryBase     time.Duration
}

// NewSubmissionService constructs a SubmissionService. cache and lim may be
// nil, which disables leaderboard cache invalidation and attempt throttling.
func NewSubmissionService(
	challenges repository.ChallengeRepository,
	ledger repository.SubmissionRepository,
	notifications repository.NotificationRepository,
	cache LeaderboardCache,
	lim limiter.Limiter,
	log *zap.Logger,
) *SubmissionServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionServiceImpl{
		challenges:    challenges,
		ledger:        ledger,
		notifications: notifications,
		cache:         cache,
		lim:           lim,
		log:           log,
		retryAttempts: 3,
		retryBase:     100 * time.Millisecond,
	}
}

// Submit runs the full verification pipeline: validate, throttle, fetch the
// challenge, verify the digest, append to the ledger, and report the verdict.
// Verification completes before any persistent write, and the ledger write
// (with its transactional score increment) completes before anything else
// observes the outcome.
func (s *SubmissionServiceImpl) Submit(ctx context.Context, userID, challengeID uuid.UUID, rawFlag, ip string) (model.Verdict, error) {
	if userID == uuid.Nil || challengeID == uuid.Nil {
		return model.Verdict{}, fmt.Errorf("%w: empty user/challenge id", errs.ErrInvalidInput)
	}
	normalized := flagcheck.Normalize(rawFlag)
	if normalized == "" {
		return model.Verdict{}, fmt.Errorf("%w: empty flag", errs.ErrInvalidInput)
	}
	if len(normalized) > MaxFlagLen {
		return model.Verdict{}, fmt.Errorf("%w: flag too long", errs.ErrInvalidInput)
	}

	subject := userID.String() + ":" + challengeID.String()
	ipHash := limiter.HashIP(ip)
	if s.lim != nil {
		allowed, _, err := s.lim.Allow(ctx, subject, ipHash)
		if err != nil {
			return model.Verdict{}, err
		}
		if !allowed {
			return model.Verdict{}, errs.ErrRateLimited
		}
	}

	var ch *model.Challenge
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var rerr error
		ch, rerr = s.challenges.Get(ctx, challengeID)
		return rerr
	})
	if err != nil {
		return model.Verdict{}, err
	}

	correct := flagcheck.Verify(normalized, ch.FlagDigest)

	id, err := uuid.NewV4()
	if err != nil {
		return model.Verdict{}, err
	}
	attempt := model.Submission{
		ID:          id,
		UserID:      userID,
		ChallengeID: challengeID,
		FlagDigest:  flagcheck.Digest(normalized),
		Correct:     correct,
	}

	// The attempt ID doubles as the idempotency key: a retry after a commit
	// that failed to report replays as a read of the committed row, and the
	// scoring slot itself is guarded by the ledger's conditional write.
	var stored model.Submission
	err = s.withRetry(ctx, func(ctx context.Context) error {
		var rerr error
		stored, rerr = s.ledger.Record(ctx, attempt, ch.Points)
		return rerr
	})
	if err != nil {
		return model.Verdict{}, err
	}

	verdict := model.Verdict{
		Correct:       stored.Correct,
		AlreadySolved: stored.Correct && !stored.Scoring,
	}
	if stored.Scoring {
		verdict.PointsAwarded = ch.Points
	}

	s.afterRecord(ctx, stored, ch, subject, ipHash)
	return verdict, nil
}

// afterRecord handles best-effort side work: limiter bookkeeping, the solve
// notification, and leaderboard cache invalidation. None of it may change
// the verdict; failures are logged and left to the reconciliation worker.
func (s *SubmissionServiceImpl) afterRecord(ctx context.Context, stored model.Submission, ch *model.Challenge, subject string, ipHash []byte) {
	if s.lim != nil {
		var err error
		if stored.Correct {
			err = s.lim.Success(ctx, subject, ipHash)
		} else {
			_, _, err = s.lim.Failure(ctx, subject, ipHash)
		}
		if err != nil {
			s.log.Warn("limiter update failed", zap.Error(err))
		}
	}

	if !stored.Scoring {
		return
	}

	if s.notifications != nil {
		nid, err := uuid.NewV4()
		if err == nil {
			err = s.notifications.Create(ctx, &model.Notification{
				ID:         nid,
				UserID:     stored.UserID,
				Message:    fmt.Sprintf("Solved %q (+%d pts)", ch.Title, ch.Points),
				SourceID:   stored.ID,
				SourceType: model.NotificationSourceSubmission,
			})
		}
		if err != nil {
			s.log.Warn("solve notification failed",
				zap.String("user", stored.UserID.String()),
				zap.Error(err),
			)
		}
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// HasSolved delegates to the ledger.
func (s *SubmissionServiceImpl) HasSolved(ctx context.Context, userID, challengeID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || challengeID == uuid.Nil {
		return false, fmt.Errorf("%w: empty user/challenge id", errs.ErrInvalidInput)
	}
	return s.ledger.HasSolved(ctx, userID, challengeID)
}

// withRetry runs op with bounded exponential backoff, retrying only
// transient store failures. Domain sentinels and context cancellation
// surface immediately.
func (s *SubmissionServiceImpl) withRetry(ctx context.Context, op func(context.Context) error) error {
	backoff := retry.WithMaxRetries(s.retryAttempts, retry.NewExponential(s.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if err != nil && isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func isTransient(err error) bool {
	switch {
	case errors.Is(err, errs.ErrNotFound),
		errors.Is(err, errs.ErrAlreadyExists),
		errors.Is(err, errs.ErrChallengeFrozen),
		errors.Is(err, errs.ErrInvalidInput),
		errors.Is(err, errs.ErrRateLimited),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
