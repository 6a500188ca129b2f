package services

import (
	"fmt"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/analytics"
)

// DefaultRecentEvents is the page size of the admin event log.
const DefaultRecentEvents = 50

// EventReader queries the stored event log.
type EventReader interface {
	Recent(limit int, kind string) ([]analytics.StoredEvent, error)
	CountByKind(since time.Time) ([]analytics.KindCount, error)
	CountBySource(kind tracking.Kind, since time.Time) (map[string]int, error)
}

// OrderCounter counts placed orders.
type OrderCounter interface {
	Count(since time.Time) (int, error)
}

// FunnelSummary aggregates one window of the event log.
type FunnelSummary struct {
	Since           time.Time             `json:"since"`
	Kinds           []analytics.KindCount `json:"kinds"`
	PurchaseSources map[string]int        `json:"purchaseSources"`
	Orders          int                   `json:"orders"`
	ConversionRate  float64               `json:"conversionRate"`
}

// AnalyticsService serves the admin view of stored events.
type AnalyticsService struct {
	events EventReader
	orders OrderCounter
	now    func() time.Time
}

// NewAnalyticsService creates the service.
func NewAnalyticsService(events EventReader, orders OrderCounter) *AnalyticsService {
	return &AnalyticsService{events: events, orders: orders, now: time.Now}
}

// Recent returns the latest stored events, optionally of one kind.
func (s *AnalyticsService) Recent(limit int, kind string) ([]analytics.StoredEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = DefaultRecentEvents
	}
	events, err := s.events.Recent(limit, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent events: %w", err)
	}
	return events, nil
}

// Summary aggregates the window ending now.
func (s *AnalyticsService) Summary(window time.Duration) (*FunnelSummary, error) {
	since := s.now().Add(-window)

	kinds, err := s.events.CountByKind(since)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	sources, err := s.events.CountBySource(tracking.KindPurchase, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count purchase sources: %w", err)
	}
	orders, err := s.orders.Count(since)
	if err != nil {
		return nil, err
	}

	summary := &FunnelSummary{
		Since:           since,
		Kinds:           kinds,
		PurchaseSources: sources,
		Orders:          orders,
	}
	for _, kc := range kinds {
		if kc.Kind == string(tracking.KindPageView) && kc.Count > 0 {
			summary.ConversionRate = float64(orders) / float64(kc.Count)
		}
	}
	return summary, nil
}
