package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotspot-prioritizer/hotspot/internal/events"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	ev := events.ReportScored{
		ReportID:         "r-1",
		Category:         "garbage",
		Profile:          "garbage",
		SeverityScore:    82,
		SeverityCategory: "critical",
		PredictionMethod: "rule_based",
		Trigger:          events.TriggerVote,
		ScoredAt:         now,
	}

	msg, err := serializeToMessage(ev)
	require.NoError(t, err)

	assert.Equal(t, []byte("r-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"severity_score":82`)
	assert.Contains(t, string(msg.Value), `"trigger":"vote"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("report.scored"), msg.Headers[0].Value)
	assert.Equal(t, []byte("vote"), msg.Headers[1].Value)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestPublishEmptyIsNoop(t *testing.T) {
	w := NewWriter([]string{"127.0.0.1:1"}, "", nil)
	defer w.Close()
	assert.NoError(t, w.Publish(context.Background()))
	assert.Equal(t, DefaultTopic, w.writer.Topic)
}
