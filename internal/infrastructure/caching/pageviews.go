// Package caching holds the in-memory state shared across requests.
package caching

import (
	"errors"
	"sync"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/security"
)

// DefaultPageViewTTL is how long an idle page view is kept.
const DefaultPageViewTTL = 2 * time.Hour

var ErrPageViewNotFound = errors.New("page view not found")

// PageViewRegistry tracks open page views and their fired milestones.
type PageViewRegistry struct {
	mu    sync.Mutex
	views map[string]*tracking.PageView
	ttl   time.Duration
	now   func() time.Time
}

func NewPageViewRegistry(ttl time.Duration) *PageViewRegistry {
	if ttl <= 0 {
		ttl = DefaultPageViewTTL
	}
	return &PageViewRegistry{
		views: make(map[string]*tracking.PageView),
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithClock overrides the wall clock.
func (r *PageViewRegistry) WithClock(now func() time.Time) *PageViewRegistry {
	r.now = now
	return r
}

// Start opens a page view for visitorID on path.
func (r *PageViewRegistry) Start(visitorID, path string) tracking.PageView {
	pv := tracking.NewPageView(security.GenerateULID(), path, visitorID, r.now())

	r.mu.Lock()
	r.views[pv.ID] = pv
	r.mu.Unlock()
	return *pv
}

// lookup must be called with mu held. A page view belongs to the visitor
// that started it.
func (r *PageViewRegistry) lookup(id, visitorID string) (*tracking.PageView, error) {
	pv, ok := r.views[id]
	if !ok || pv.VisitorID != visitorID {
		return nil, ErrPageViewNotFound
	}
	return pv, nil
}

// ObserveScroll records a scroll position and returns the milestones that
// fire now.
func (r *PageViewRegistry) ObserveScroll(id, visitorID string, percent int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pv, err := r.lookup(id, visitorID)
	if err != nil {
		return nil, err
	}
	return pv.ObserveScroll(percent, r.now()), nil
}

// ObserveTime records a heartbeat and returns the time milestones that fire now.
func (r *PageViewRegistry) ObserveTime(id, visitorID string) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pv, err := r.lookup(id, visitorID)
	if err != nil {
		return nil, err
	}
	return pv.ObserveTime(r.now()), nil
}

// End discards the page view and returns its elapsed seconds.
func (r *PageViewRegistry) End(id, visitorID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pv, err := r.lookup(id, visitorID)
	if err != nil {
		return 0, err
	}
	delete(r.views, id)
	return pv.Elapsed(r.now()), nil
}

// Sweep evicts page views idle for longer than the TTL.
func (r *PageViewRegistry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, pv := range r.views {
		if pv.LastSeen.Before(cutoff) {
			delete(r.views, id)
			evicted++
		}
	}
	return evicted
}

func (r *PageViewRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
