package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Memory is an in-process Store. A single mutex serializes writes, which
// gives Vote and Rescore the same atomicity as the Postgres row lock.
type Memory struct {
	mu      sync.RWMutex
	reports map[string]Report
	votes   map[string]map[string]Direction // report -> user -> vote
	clock   clockwork.Clock
}

// NewMemory creates an empty in-memory store.
func NewMemory(clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{
		reports: make(map[string]Report),
		votes:   make(map[string]map[string]Direction),
		clock:   clock,
	}
}

func (m *Memory) Create(_ context.Context, r *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if _, ok := m.reports[r.ID]; ok {
		return fmt.Errorf("create report %s: already exists", r.ID)
	}
	now := m.clock.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	m.reports[r.ID] = *r
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, fmt.Errorf("get report %s: %w", id, ErrNotFound)
	}
	return &r, nil
}

func (m *Memory) ListIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.reports))
	for id := range m.reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) Vote(_ context.Context, reportID, userID string, dir Direction, rescore RescoreFunc) (*VoteOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("vote on report %s: %w", reportID, ErrNotFound)
	}
	existing := m.votes[reportID][userID]
	next, delta := nextVote(existing, dir)
	upvotes := applyDelta(r.Upvotes, delta)

	res, snap, err := rescore(r.Snapshot, upvotes)
	if err != nil {
		return nil, fmt.Errorf("rescore report %s: %w", reportID, err)
	}

	if m.votes[reportID] == nil {
		m.votes[reportID] = make(map[string]Direction)
	}
	if next == 0 {
		delete(m.votes[reportID], userID)
	} else {
		m.votes[reportID][userID] = next
	}
	r.Upvotes, r.Result, r.Snapshot, r.UpdatedAt = upvotes, res, snap, m.clock.Now()
	m.reports[reportID] = r

	return &VoteOutcome{Report: &r, Vote: next}, nil
}

func (m *Memory) Rescore(_ context.Context, reportID string, rescore RescoreFunc) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("rescore report %s: %w", reportID, ErrNotFound)
	}
	res, snap, err := rescore(r.Snapshot, r.Upvotes)
	if err != nil {
		return nil, fmt.Errorf("rescore report %s: %w", reportID, err)
	}
	r.Result, r.Snapshot, r.UpdatedAt = res, snap, m.clock.Now()
	m.reports[reportID] = r
	return &r, nil
}

func (m *Memory) Close() error { return nil }
