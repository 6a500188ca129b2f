// Package cleanup provides background worker
package cleanup

import (
	"context"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
)

// PageViewSweeper evicts idle page views.
type PageViewSweeper interface {
	Sweep() int
}

// EventPurger deletes stored events older than a cutoff.
type EventPurger interface {
	PurgeBefore(cutoff time.Time) (int64, error)
}

// AttributionPurger deletes attribution entries not written since a cutoff.
type AttributionPurger interface {
	PurgeStale(cutoff time.Time) (int64, error)
}

// Report summarizes one cleanup pass.
type Report struct {
	PageViews   int
	Events      int64
	Attribution int64
}

// Total is the number of items removed.
func (r Report) Total() int64 {
	return int64(r.PageViews) + r.Events + r.Attribution
}

// Worker handles background cleanup of expired state. Any target may be nil.
type Worker struct {
	pageViews   PageViewSweeper
	events      EventPurger
	attribution AttributionPurger
	config      *Config
	logger      *logging.ChanneledLogger
	now         func() time.Time
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(pageViews PageViewSweeper, events EventPurger, attribution AttributionPurger, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		pageViews:   pageViews,
		events:      events,
		attribution: attribution,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// Start begins the cleanup worker routine, using the configured interval
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	w.logger.System().Info("Cleanup worker started", "interval", w.config.CleanupInterval, "verbose", w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown().Info("Cleanup worker stopping")
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single cleanup pass. Failures of one target do not
// stop the others.
func (w *Worker) RunOnce() Report {
	start := time.Now()
	now := w.now()
	var report Report

	if w.pageViews != nil {
		report.PageViews = w.pageViews.Sweep()
	}

	if w.events != nil && w.config.EventsRetention > 0 {
		n, err := w.events.PurgeBefore(now.Add(-w.config.EventsRetention))
		if err != nil {
			w.logger.LogError(logging.ChannelDatabase, "purge_events", err, nil)
		}
		report.Events = n
	}

	if w.attribution != nil && w.config.AttributionTTL > 0 {
		n, err := w.attribution.PurgeStale(now.Add(-w.config.AttributionTTL))
		if err != nil {
			w.logger.LogError(logging.ChannelAttribution, "purge_attribution", err, nil)
		}
		report.Attribution = n
	}

	if report.Total() > 0 {
		w.logger.System().Info("Cleanup finished",
			"pageViews", report.PageViews,
			"events", report.Events,
			"attribution", report.Attribution,
			"duration", time.Since(start))
	} else if w.config.VerboseReporting {
		w.logger.System().Debug("Cleanup completed - nothing expired", "duration", time.Since(start))
	}
	return report
}
