package services

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/domain/catalog"
	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/caching"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
)

// Beacon kinds accepted from the page script.
const (
	BeaconVideoPlay     = "video-play"
	BeaconCTAClick      = "cta-click"
	BeaconBeginCheckout = "begin-checkout"
	BeaconScroll        = "scroll"
	BeaconHeartbeat     = "heartbeat"
	BeaconLeave         = "leave"
	BeaconError         = "error"
)

// maxErrorMessage caps client error descriptions.
const maxErrorMessage = 500

var (
	ErrUnknownBeacon = errors.New("unknown beacon kind")
	ErrInvalidBeacon = errors.New("invalid beacon")
)

// Beacon is the body the page script posts for each interaction.
type Beacon struct {
	PageViewID string  `json:"pageViewId"`
	VideoID    string  `json:"videoId"`
	VideoTitle string  `json:"videoTitle"`
	CTA        string  `json:"cta"`
	Position   string  `json:"position"`
	ProductID  string  `json:"productId"`
	ScrollTop  float64 `json:"scrollTop"`
	DocHeight  float64 `json:"docHeight"`
	WinHeight  float64 `json:"winHeight"`
	Percent    *int    `json:"percent,omitempty"`
	Message    string  `json:"message"`
	Location   string  `json:"location"`
}

// TrackingService turns page loads and beacons into tracked events.
type TrackingService struct {
	dispatcher *tracking.Dispatcher
	pageViews  *caching.PageViewRegistry
	catalog    *catalog.Catalog
	videoID    string
	videoTitle string
	logger     *logging.ChanneledLogger
}

// NewTrackingService creates the service.
func NewTrackingService(dispatcher *tracking.Dispatcher, pageViews *caching.PageViewRegistry, cat *catalog.Catalog, videoID, videoTitle string, logger *logging.ChanneledLogger) *TrackingService {
	return &TrackingService{
		dispatcher: dispatcher,
		pageViews:  pageViews,
		catalog:    cat,
		videoID:    videoID,
		videoTitle: videoTitle,
		logger:     logger,
	}
}

// NewTracker creates a tracker for one request.
func (s *TrackingService) NewTracker(resolver attribution.Resolver, visitor tracking.Visitor) *tracking.Tracker {
	return tracking.NewTracker(s.dispatcher, resolver, visitor)
}

// StartPage opens a page view and tracks it. The returned id is handed to
// the page script so its beacons reach the same milestones.
func (s *TrackingService) StartPage(visit *Visit, path, pageName string, extra map[string]any) tracking.PageView {
	pv := s.pageViews.Start(visit.VisitorID, path)
	visit.Tracker.WithPageView(pv.ID).TrackPageView(pageName, extra)
	s.logger.Tracking().Debug("Page view started", "pageViewId", pv.ID, "path", path, "visitorId", visit.VisitorID)
	return pv
}

// HandleBeacon tracks the events one beacon produces. Milestone beacons may
// produce none when every milestone already fired.
func (s *TrackingService) HandleBeacon(visit *Visit, kind string, b Beacon) ([]tracking.Event, error) {
	tracker := visit.Tracker
	if b.PageViewID != "" {
		tracker = tracker.WithPageView(b.PageViewID)
	}

	switch kind {
	case BeaconVideoPlay:
		videoID, title := b.VideoID, b.VideoTitle
		if videoID == "" {
			videoID = s.videoID
		}
		if title == "" {
			title = s.videoTitle
		}
		return []tracking.Event{tracker.TrackVideoPlay(videoID, title)}, nil

	case BeaconCTAClick:
		if b.CTA == "" {
			return nil, fmt.Errorf("%w: cta-click without cta name", ErrInvalidBeacon)
		}
		return []tracking.Event{tracker.TrackCTAClick(b.CTA, b.Position, b.ProductID)}, nil

	case BeaconBeginCheckout:
		p := s.catalog.Resolve(b.ProductID)
		return []tracking.Event{tracker.TrackBeginCheckout(p.ID, p.Name, p.Value(), p.CurrencyCode())}, nil

	case BeaconScroll:
		percent := tracking.ScrollPercent(b.ScrollTop, b.DocHeight, b.WinHeight)
		if b.Percent != nil {
			percent = *b.Percent
		}
		reached, err := s.pageViews.ObserveScroll(b.PageViewID, visit.VisitorID, percent)
		if err != nil {
			return nil, err
		}
		events := make([]tracking.Event, 0, len(reached))
		for _, milestone := range reached {
			events = append(events, tracker.TrackScrollDepth(milestone))
		}
		return events, nil

	case BeaconHeartbeat:
		reached, err := s.pageViews.ObserveTime(b.PageViewID, visit.VisitorID)
		if err != nil {
			return nil, err
		}
		events := make([]tracking.Event, 0, len(reached))
		for _, milestone := range reached {
			events = append(events, tracker.TrackTimeOnPage(milestone))
		}
		return events, nil

	case BeaconLeave:
		elapsed, err := s.pageViews.End(b.PageViewID, visit.VisitorID)
		if err != nil {
			return nil, err
		}
		return []tracking.Event{tracker.TrackTimeOnPage(elapsed)}, nil

	case BeaconError:
		msg := truncate(b.Message, maxErrorMessage)
		if msg == "" {
			msg = "unknown error"
		}
		return []tracking.Event{tracker.TrackError(msg, truncate(b.Location, maxErrorMessage))}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBeacon, kind)
}

// TrackServerError reports a server-side failure against the visitor.
func (s *TrackingService) TrackServerError(visit *Visit, err error, location string) {
	if visit == nil || visit.Tracker == nil || err == nil {
		return
	}
	visit.Tracker.TrackError(truncate(err.Error(), maxErrorMessage), location)
}

// Sinks lists the configured sink names.
func (s *TrackingService) Sinks() []string {
	return s.dispatcher.Sinks()
}

// ActivePageViews is the number of open page views.
func (s *TrackingService) ActivePageViews() int {
	return s.pageViews.Len()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
