package performance

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_AggregatesMarkers(t *testing.T) {
	tracker := NewTracker(&TrackerConfig{MaxRecent: 2, SlowThreshold: time.Hour})

	ok := tracker.StartOperation("track:scroll", "v1")
	ok.AddMetadata("percent", 50)
	ok.Complete()
	ok.Complete()

	failed := tracker.StartOperation("track:scroll", "v2")
	failed.SetError(errors.New("bad body"))
	failed.Complete()

	tracker.StartOperation("checkout:submit", "v1").Complete()

	stats := tracker.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "checkout:submit", stats[0].Operation)
	assert.Equal(t, 2, stats[1].Count)
	assert.Equal(t, 1, stats[1].Failures)
	assert.Equal(t, 0, stats[1].Slow)

	recent := tracker.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "checkout:submit", recent[0].Operation)
	assert.Equal(t, "bad body", recent[1].Error)
	assert.False(t, recent[1].Success)
}

func TestTracker_WarnsOnSlowOperations(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&TrackerConfig{
		SlowThreshold: time.Nanosecond,
		Logger:        slog.New(slog.NewTextHandler(&buf, nil)),
	})

	marker := tracker.StartOperation("media:hero", "")
	time.Sleep(time.Millisecond)
	marker.Complete()

	assert.Contains(t, buf.String(), "Slow operation")
	assert.Equal(t, 1, tracker.Stats()[0].Slow)
	assert.Greater(t, tracker.Stats()[0].Average(), time.Duration(0))
}

func TestOperationStats_AverageOfNothing(t *testing.T) {
	assert.Equal(t, time.Duration(0), OperationStats{}.Average())
}
