package services

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/domain/catalog"
	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/caching"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/pkg/config"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type captureSink struct {
	mu     sync.Mutex
	events []tracking.Event
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Send(_ context.Context, event tracking.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) ofKind(kind tracking.Kind) []tracking.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tracking.Event
	for _, e := range s.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// clock is a settable time source shared by the fixture's components.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	logger      *logging.ChanneledLogger
	clock       *clock
	sink        *captureSink
	dispatcher  *tracking.Dispatcher
	pageViews   *caching.PageViewRegistry
	catalog     *catalog.Catalog
	attribution *AttributionService
	tracking    *TrackingService
	storage     map[string]*attribution.MemoryStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		logger:  logging.NewDiscardLogger(),
		clock:   &clock{now: fixedNow},
		sink:    &captureSink{},
		catalog: catalog.Default(),
		storage: map[string]*attribution.MemoryStorage{},
	}
	f.dispatcher = tracking.NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second, f.sink)
	f.pageViews = caching.NewPageViewRegistry(time.Hour).WithClock(f.clock.Now)
	f.attribution = NewAttributionService(config.StorageCookie, attribution.DefaultTTL, nil, f.logger).WithClock(f.clock)
	f.tracking = NewTrackingService(f.dispatcher, f.pageViews, f.catalog, "8bRCsjRE2fQ", "Apresentação", f.logger)
	t.Cleanup(f.dispatcher.Wait)
	return f
}

// visit simulates one request of visitorID carrying rawQuery.
func (f *fixture) visit(t *testing.T, visitorID, rawQuery string) *Visit {
	t.Helper()
	query, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)

	storage, ok := f.storage[visitorID]
	if !ok {
		storage = attribution.NewMemoryStorage()
		f.storage[visitorID] = storage
	}
	store := f.attribution.Open(visitorID, query, storage)
	tracker := f.tracking.NewTracker(store, tracking.Visitor{ID: visitorID, PageURL: "https://revitamax-pro.com/"}).WithClock(f.clock.Now)
	return &Visit{VisitorID: visitorID, Store: store, Tracker: tracker}
}
