package tracking

import (
	"math"
	"sort"
	"time"
)

var (
	// ScrollThresholds are the scroll-depth milestones in percent.
	ScrollThresholds = []int{25, 50, 75, 90}
	// TimeThresholds are the time-on-page milestones in seconds.
	TimeThresholds = []int{30, 60, 120}
)

// Milestones remembers which thresholds already fired so each fires at most
// once.
type Milestones struct {
	thresholds []int
	fired      map[int]bool
}

// NewMilestones creates a tracker for the given thresholds.
func NewMilestones(thresholds ...int) *Milestones {
	sorted := append([]int(nil), thresholds...)
	sort.Ints(sorted)
	return &Milestones{thresholds: sorted, fired: make(map[int]bool, len(sorted))}
}

// Reach marks every threshold at or below value and returns the ones that
// had not fired before, in ascending order.
func (m *Milestones) Reach(value int) []int {
	var crossed []int
	for _, threshold := range m.thresholds {
		if value < threshold {
			break
		}
		if m.fired[threshold] {
			continue
		}
		m.fired[threshold] = true
		crossed = append(crossed, threshold)
	}
	return crossed
}

// Fired returns the thresholds that already fired.
func (m *Milestones) Fired() []int {
	out := make([]int, 0, len(m.fired))
	for _, threshold := range m.thresholds {
		if m.fired[threshold] {
			out = append(out, threshold)
		}
	}
	return out
}

// Done reports whether every threshold fired.
func (m *Milestones) Done() bool {
	return len(m.fired) == len(m.thresholds)
}

// ScrollPercent converts a scroll position into a rounded percentage of the
// scrollable height.
func ScrollPercent(scrollTop, docHeight, winHeight float64) int {
	scrollable := docHeight - winHeight
	if scrollable <= 0 {
		if scrollTop > 0 || docHeight > 0 {
			return 100
		}
		return 0
	}
	pct := int(math.Round(scrollTop / scrollable * 100))
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// PageView is the per-page-view milestone state. It is created when a page
// is served and discarded when the visitor leaves.
type PageView struct {
	ID        string
	Path      string
	VisitorID string
	StartedAt time.Time
	LastSeen  time.Time
	Scroll    *Milestones
	Time      *Milestones
}

// NewPageView starts a page view at now.
func NewPageView(id, path, visitorID string, now time.Time) *PageView {
	return &PageView{
		ID:        id,
		Path:      path,
		VisitorID: visitorID,
		StartedAt: now,
		LastSeen:  now,
		Scroll:    NewMilestones(ScrollThresholds...),
		Time:      NewMilestones(TimeThresholds...),
	}
}

// Elapsed returns whole seconds since the page view started.
func (p *PageView) Elapsed(now time.Time) int {
	if now.Before(p.StartedAt) {
		return 0
	}
	return int(now.Sub(p.StartedAt) / time.Second)
}

// ObserveScroll records a scroll position and returns newly reached
// milestones.
func (p *PageView) ObserveScroll(percent int, now time.Time) []int {
	p.LastSeen = now
	return p.Scroll.Reach(percent)
}

// ObserveTime records a heartbeat and returns newly reached time milestones.
func (p *PageView) ObserveTime(now time.Time) []int {
	p.LastSeen = now
	return p.Time.Reach(p.Elapsed(now))
}
