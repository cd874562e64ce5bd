package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

var created = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

// upvoteScore scores a snapshot as its upvote count, so tests can see
// which count a re-score ran with.
func upvoteScore(snap scoring.Snapshot, upvotes int) (scoring.SeverityResult, scoring.Snapshot, error) {
	snap.Features = snap.Features.WithUpvotes(upvotes)
	return scoring.SeverityResult{SeverityScore: upvotes, PredictionMethod: snap.Method}, snap, nil
}

func failingRescore(scoring.Snapshot, int) (scoring.SeverityResult, scoring.Snapshot, error) {
	return scoring.SeverityResult{}, scoring.Snapshot{}, errors.New("profile removed")
}

func newReport() *Report {
	lat, lon := 12.97, 77.59
	fv := features.Build(signals.Bundle{}, features.Options{})
	return &Report{
		Category:    "garbage",
		Description: "overflowing bin",
		Lat:         &lat,
		Lon:         &lon,
		Result:      scoring.SeverityResult{SeverityScore: 40, Category: "medium"},
		Snapshot:    scoring.Snapshot{Version: scoring.SnapshotVersion, Profile: "garbage", Method: scoring.MethodRuleBased, Features: fv},
	}
}

func setup(t *testing.T) (*Memory, *clockwork.FakeClock, string) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(created)
	m := NewMemory(clock)
	r := newReport()
	require.NoError(t, m.Create(context.Background(), r))
	return m, clock, r.ID
}

func TestNextVote(t *testing.T) {
	tests := []struct {
		name      string
		existing  Direction
		dir       Direction
		wantVote  Direction
		wantDelta int
	}{
		{"first upvote", 0, Up, Up, 1},
		{"upvote again removes it", Up, Up, 0, -1},
		{"upvote after downvote", Down, Up, Up, 1},
		{"first downvote", 0, Down, Down, 0},
		{"downvote flips upvote", Up, Down, Down, -1},
		{"downvote again removes it", Down, Down, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vote, delta := nextVote(tt.existing, tt.dir)
			assert.Equal(t, tt.wantVote, vote)
			assert.Equal(t, tt.wantDelta, delta)
		})
	}
}

func TestApplyDeltaFloorsAtZero(t *testing.T) {
	assert.Equal(t, 0, applyDelta(0, -1))
	assert.Equal(t, 4, applyDelta(5, -1))
	assert.Equal(t, 6, applyDelta(5, 1))
}

func TestMemoryCreateGet(t *testing.T) {
	m, _, id := setup(t)

	got, err := m.Get(context.Background(), id)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "garbage", got.Category)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, 40, got.Result.SeverityScore)

	_, err = m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCreateDuplicate(t *testing.T) {
	m, _, id := setup(t)
	r := newReport()
	r.ID = id
	assert.Error(t, m.Create(context.Background(), r))
}

func TestMemoryVoteSequence(t *testing.T) {
	m, clock, id := setup(t)
	ctx := context.Background()

	out, err := m.Vote(ctx, id, "alice", Up, upvoteScore)
	require.NoError(t, err)
	assert.Equal(t, Up, out.Vote)
	assert.Equal(t, 1, out.Report.Upvotes)
	assert.Equal(t, 1, out.Report.Result.SeverityScore)
	assert.Equal(t, 1, out.Report.Snapshot.Features.Context.UpvoteCount)

	_, err = m.Vote(ctx, id, "bob", Up, upvoteScore)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	out, err = m.Vote(ctx, id, "alice", Down, upvoteScore)
	require.NoError(t, err)
	assert.Equal(t, Down, out.Vote)
	assert.Equal(t, 1, out.Report.Upvotes)
	assert.Equal(t, created.Add(time.Minute), out.Report.UpdatedAt)

	out, err = m.Vote(ctx, id, "bob", Up, upvoteScore)
	require.NoError(t, err)
	assert.Equal(t, Direction(0), out.Vote)
	assert.Equal(t, 0, out.Report.Upvotes)

	// a fresh downvote never drives the count negative
	out, err = m.Vote(ctx, id, "carol", Down, upvoteScore)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Report.Upvotes)

	stored, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, out.Report, stored)
}

func TestMemoryVoteFailureWritesNothing(t *testing.T) {
	m, _, id := setup(t)
	ctx := context.Background()
	before, err := m.Get(ctx, id)
	require.NoError(t, err)

	_, err = m.Vote(ctx, id, "alice", Up, failingRescore)
	require.Error(t, err)

	after, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// the failed vote was not recorded: a retry is still a first upvote
	out, err := m.Vote(ctx, id, "alice", Up, upvoteScore)
	require.NoError(t, err)
	assert.Equal(t, Up, out.Vote)
	assert.Equal(t, 1, out.Report.Upvotes)
}

func TestMemoryVoteUnknownReport(t *testing.T) {
	m, _, _ := setup(t)
	_, err := m.Vote(context.Background(), "missing", "alice", Up, upvoteScore)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRescore(t *testing.T) {
	m, _, id := setup(t)
	ctx := context.Background()
	_, err := m.Vote(ctx, id, "alice", Up, upvoteScore)
	require.NoError(t, err)

	r, err := m.Rescore(ctx, id, func(snap scoring.Snapshot, upvotes int) (scoring.SeverityResult, scoring.Snapshot, error) {
		return scoring.SeverityResult{SeverityScore: 90 + upvotes}, snap, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 91, r.Result.SeverityScore)

	_, err = m.Rescore(ctx, id, failingRescore)
	require.Error(t, err)
	stored, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 91, stored.Result.SeverityScore)
}

func TestMemoryConcurrentVotes(t *testing.T) {
	m, _, id := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Vote(ctx, id, string(rune('a'+i%26))+string(rune('A'+i/26)), Up, upvoteScore)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	r, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 50, r.Upvotes)
	assert.Equal(t, 50, r.Result.SeverityScore)
}

func TestListIDs(t *testing.T) {
	m, _, id := setup(t)
	r := newReport()
	require.NoError(t, m.Create(context.Background(), r))

	ids, err := m.ListIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{id, r.ID}, ids)
}

func TestRowRoundTrip(t *testing.T) {
	r := newReport()
	r.ID = "4b7e0a8e-0f5e-4a4e-9a53-8d7d8c1b2f10"
	r.Upvotes = 3
	r.Result.PredictionMethod = scoring.MethodRuleBased

	row, err := toRow(r)
	require.NoError(t, err)
	assert.Equal(t, 40, row.SeverityScore)
	assert.Equal(t, "medium", row.CategoryLabel)
	assert.Equal(t, "garbage", row.Profile)
	assert.Equal(t, "rule_based", row.PredictionMethod)

	back, err := row.toReport()
	require.NoError(t, err)
	assert.Equal(t, r.Snapshot, back.Snapshot)
	assert.Equal(t, r.Result.SeverityScore, back.Result.SeverityScore)
	assert.Equal(t, *r.Lat, *back.Lat)
}
