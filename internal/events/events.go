// Package events defines the messages emitted when reports are scored.
package events

import (
	"context"
	"time"
)

// TypeReportScored is the event type of ReportScored.
const TypeReportScored = "report.scored"

// Trigger says why a report was (re)scored.
type Trigger string

const (
	TriggerCreated Trigger = "created"
	TriggerVote    Trigger = "vote"
	TriggerRescore Trigger = "rescore"
)

// ReportScored is published after every score or re-score of a stored report.
type ReportScored struct {
	ReportID         string    `json:"report_id"`
	Category         string    `json:"category"`
	Profile          string    `json:"profile"`
	SeverityScore    int       `json:"severity_score"`
	SeverityCategory string    `json:"severity_category"`
	Confidence       float64   `json:"confidence"`
	PredictionMethod string    `json:"prediction_method"`
	Upvotes          int       `json:"upvotes"`
	Trigger          Trigger   `json:"trigger"`
	ScoredAt         time.Time `json:"scored_at"`
}

// Publisher delivers ReportScored events.
type Publisher interface {
	Publish(ctx context.Context, events ...ReportScored) error
	Close() error
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, ...ReportScored) error { return nil }
func (Nop) Close() error                                   { return nil }
