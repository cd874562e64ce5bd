// Package store persists scored reports, their feature snapshots and
// per-user votes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// Report is a persisted civic-issue report and its latest score.
type Report struct {
	ID          string                 `json:"id"`
	Category    string                 `json:"category"`
	Description string                 `json:"description"`
	ImageURL    string                 `json:"imageUrl,omitempty"`
	Lat         *float64               `json:"lat,omitempty"`
	Lon         *float64               `json:"lon,omitempty"`
	Upvotes     int                    `json:"upvoteCount"`
	Result      scoring.SeverityResult `json:"severity"`
	Snapshot    scoring.Snapshot       `json:"snapshot"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// Direction of a vote.
type Direction int

const (
	Down Direction = -1
	Up   Direction = 1
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// RescoreFunc recomputes a snapshot for a new upvote count. It must not
// have side effects; a returned error aborts the surrounding update.
type RescoreFunc func(snap scoring.Snapshot, upvotes int) (scoring.SeverityResult, scoring.Snapshot, error)

// VoteOutcome reports the effect of a vote.
type VoteOutcome struct {
	Report *Report   `json:"report"`
	Vote   Direction `json:"vote"` // the user's vote after applying; 0 when removed
}

// Store is implemented by Postgres and Memory.
type Store interface {
	Create(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	ListIDs(ctx context.Context) ([]string, error)

	// Vote applies a user's vote and re-scores the report in one atomic
	// read-modify-write. If rescore fails nothing is written.
	Vote(ctx context.Context, reportID, userID string, dir Direction, rescore RescoreFunc) (*VoteOutcome, error)

	// Rescore recomputes a report from its stored snapshot and current
	// upvotes, atomically.
	Rescore(ctx context.Context, reportID string, rescore RescoreFunc) (*Report, error)

	Close() error
}

// nextVote resolves a vote against the user's existing vote (0 = none).
// An upvote toggles; a downvote flips an existing upvote and toggles an
// existing downvote. It returns the user's new vote and the upvote delta.
func nextVote(existing, dir Direction) (Direction, int) {
	switch dir {
	case Up:
		switch existing {
		case Up:
			return 0, -1
		default:
			return Up, 1
		}
	default:
		switch existing {
		case Up:
			return Down, -1
		case Down:
			return 0, 0
		default:
			return Down, 0
		}
	}
}

func applyDelta(upvotes, delta int) int {
	if upvotes+delta < 0 {
		return 0
	}
	return upvotes + delta
}
