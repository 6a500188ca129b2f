package performance

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultSlowThreshold flags operations slower than this.
const DefaultSlowThreshold = 500 * time.Millisecond

// Tracker aggregates completed markers and warns about slow operations.
type Tracker struct {
	mu            sync.RWMutex
	stats         map[string]*OperationStats
	recent        []*Marker
	maxRecent     int
	slowThreshold time.Duration
	logger        *slog.Logger
	started       time.Time
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxRecent     int
	SlowThreshold time.Duration
	Logger        *slog.Logger
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = &TrackerConfig{}
	}
	t := &Tracker{
		stats:         make(map[string]*OperationStats),
		maxRecent:     config.MaxRecent,
		slowThreshold: config.SlowThreshold,
		logger:        config.Logger,
		started:       time.Now(),
	}
	if t.maxRecent <= 0 {
		t.maxRecent = 200
	}
	if t.slowThreshold <= 0 {
		t.slowThreshold = DefaultSlowThreshold
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// StartOperation creates a marker that reports to t when completed.
func (t *Tracker) StartOperation(operation, visitorID string) *Marker {
	return &Marker{
		Operation: operation,
		VisitorID: visitorID,
		StartTime: time.Now(),
		Success:   true,
		tracker:   t,
	}
}

func (t *Tracker) record(m *Marker) {
	slow := m.Duration > t.slowThreshold

	t.mu.Lock()
	s, ok := t.stats[m.Operation]
	if !ok {
		s = &OperationStats{Operation: m.Operation}
		t.stats[m.Operation] = s
	}
	s.Count++
	s.Total += m.Duration
	if m.Duration > s.Max {
		s.Max = m.Duration
	}
	if !m.Success {
		s.Failures++
	}
	if slow {
		s.Slow++
	}
	t.recent = append(t.recent, m)
	if len(t.recent) > t.maxRecent {
		t.recent = t.recent[len(t.recent)-t.maxRecent:]
	}
	t.mu.Unlock()

	if slow {
		t.logger.Warn("Slow operation", "operation", m.Operation, "duration", m.Duration, "threshold", t.slowThreshold)
	}
}

// Stats returns a snapshot of per-operation statistics sorted by operation.
func (t *Tracker) Stats() []OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]OperationStats, 0, len(t.stats))
	for _, s := range t.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// Recent returns up to n of the most recently completed markers, newest first.
func (t *Tracker) Recent(n int) []*Marker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n <= 0 || n > len(t.recent) {
		n = len(t.recent)
	}
	out := make([]*Marker, 0, n)
	for i := len(t.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, t.recent[i])
	}
	return out
}

// Uptime is the time since the tracker was created.
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}
