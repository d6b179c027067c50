package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/vls-lab/ctf-server/internal/model"
)

type fakeScores struct {
	entries      []model.ScoreEntry
	lastLimit    int
	queries      int
	rebuilds     int
	leaderboards error
}

func (f *fakeScores) Leaderboard(_ context.Context, limit int) ([]model.ScoreEntry, error) {
	f.queries++
	f.lastLimit = limit
	if f.leaderboards != nil {
		return nil, f.leaderboards
	}
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeScores) Rebuild(context.Context) error {
	f.rebuilds++
	return nil
}

func rankedEntries(n int) []model.ScoreEntry {
	out := make([]model.ScoreEntry, n)
	for i := range out {
		out[i] = model.ScoreEntry{
			UserID:       uuid.Must(uuid.NewV4()),
			TotalScore:   (n - i) * 100,
			Rank:         i + 1,
			FirstSolveAt: time.Now().UTC(),
		}
	}
	return out
}

func TestLeaderboard_LimitClamping(t *testing.T) {
	scores := &fakeScores{entries: rankedEntries(3)}
	svc := NewLeaderboardService(scores, nil, nil)
	ctx := context.Background()

	_, err := svc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, defaultLeaderboardLimit, scores.lastLimit)

	_, err = svc.Leaderboard(ctx, -5)
	require.NoError(t, err)
	require.Equal(t, defaultLeaderboardLimit, scores.lastLimit)

	_, err = svc.Leaderboard(ctx, 10_000)
	require.NoError(t, err)
	require.Equal(t, maxLeaderboardLimit, scores.lastLimit)
}

func TestLeaderboard_CacheAside(t *testing.T) {
	scores := &fakeScores{entries: rankedEntries(3)}
	cache := &fakeCache{}
	svc := NewLeaderboardService(scores, cache, nil)
	ctx := context.Background()

	// Miss: repo is queried and the result cached.
	out, err := svc.Leaderboard(ctx, 3)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, 1, scores.queries)
	require.Equal(t, 1, cache.sets)
	require.Equal(t, 3, cache.lastSetLimit)

	// Hit: served without touching the repo.
	cache.hit = true
	out2, err := svc.Leaderboard(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, out, out2)
	require.Equal(t, 1, scores.queries)
}

// ledgerBackedScores aggregates leaderboard entries straight from a set of
// ledger rows, the same way the SQL rebuild does: sum the challenge points of
// scoring rows per user, track the earliest scoring timestamp, order by total
// descending, first solve ascending, user id ascending.
type ledgerBackedScores struct {
	points map[uuid.UUID]int
	rows   []model.Submission
}

func (f *ledgerBackedScores) Leaderboard(_ context.Context, limit int) ([]model.ScoreEntry, error) {
	type agg struct {
		total int
		first time.Time
	}
	totals := make(map[uuid.UUID]*agg)
	for _, s := range f.rows {
		if !s.Correct || !s.Scoring {
			continue
		}
		a := totals[s.UserID]
		if a == nil {
			a = &agg{first: s.CreatedAt}
			totals[s.UserID] = a
		}
		a.total += f.points[s.ChallengeID]
		if s.CreatedAt.Before(a.first) {
			a.first = s.CreatedAt
		}
	}

	entries := make([]model.ScoreEntry, 0, len(totals))
	for uid, a := range totals {
		entries = append(entries, model.ScoreEntry{UserID: uid, TotalScore: a.total, FirstSolveAt: a.first})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if !a.FirstSolveAt.Equal(b.FirstSolveAt) {
			return a.FirstSolveAt.Before(b.FirstSolveAt)
		}
		return a.UserID.String() < b.UserID.String()
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *ledgerBackedScores) Rebuild(context.Context) error { return nil }

func TestLeaderboard_ConsistentWithLedger(t *testing.T) {
	chalA := uuid.Must(uuid.NewV4()) // 100 pts
	chalB := uuid.Must(uuid.NewV4()) // 200 pts
	alice := uuid.Must(uuid.NewV4())
	bob := uuid.Must(uuid.NewV4())
	carol := uuid.Must(uuid.NewV4())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }
	row := func(user, chal uuid.UUID, correct, scoring bool, min int) model.Submission {
		return model.Submission{
			ID: uuid.Must(uuid.NewV4()), UserID: user, ChallengeID: chal,
			Correct: correct, Scoring: scoring, CreatedAt: at(min),
		}
	}

	scores := &ledgerBackedScores{
		points: map[uuid.UUID]int{chalA: 100, chalB: 200},
		rows: []model.Submission{
			row(alice, chalA, true, true, 1),
			row(bob, chalB, true, true, 2),
			row(carol, chalA, true, true, 3),
			row(alice, chalB, true, true, 4),
			row(bob, chalA, true, true, 5),
			row(alice, chalA, true, false, 6),  // duplicate solve, non-scoring
			row(carol, chalB, false, false, 7), // wrong flag
		},
	}
	svc := NewLeaderboardService(scores, nil, nil)

	out, err := svc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// Hand-derived: alice 100+200, bob 200+100 (the non-scoring duplicate and
	// the wrong flag contribute nothing); the 300 tie goes to alice, whose
	// first scoring solve is earlier.
	require.Equal(t, alice, out[0].UserID)
	require.Equal(t, 300, out[0].TotalScore)
	require.Equal(t, at(1), out[0].FirstSolveAt)
	require.Equal(t, bob, out[1].UserID)
	require.Equal(t, 300, out[1].TotalScore)
	require.Equal(t, carol, out[2].UserID)
	require.Equal(t, 100, out[2].TotalScore)
	for i, e := range out {
		require.Equal(t, i+1, e.Rank)
	}

	sum := 0
	for _, e := range out {
		sum += e.TotalScore
	}
	require.Equal(t, 700, sum, "totals must equal the points of scoring rows, counted once")
}

func TestLeaderboard_Rebuild_InvalidatesCache(t *testing.T) {
	scores := &fakeScores{}
	cache := &fakeCache{}
	svc := NewLeaderboardService(scores, cache, nil)

	require.NoError(t, svc.Rebuild(context.Background()))
	require.Equal(t, 1, scores.rebuilds)
	require.Equal(t, 1, cache.invalidated())
}
