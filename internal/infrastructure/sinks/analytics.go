package sinks

import (
	"context"
	"net/http"
	"net/url"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
)

// AnalyticsConfig configures the GA4 Measurement Protocol sink.
type AnalyticsConfig struct {
	MeasurementID string
	APISecret     string
	Endpoint      string
	Client        *http.Client
}

// AnalyticsSink sends events to Google Analytics 4.
type AnalyticsSink struct {
	cfg AnalyticsConfig
}

func NewAnalyticsSink(cfg AnalyticsConfig) *AnalyticsSink {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://www.google-analytics.com/mp/collect"
	}
	if cfg.Client == nil {
		cfg.Client = defaultClient()
	}
	return &AnalyticsSink{cfg: cfg}
}

func (s *AnalyticsSink) Name() string { return "ga4" }

type ga4Request struct {
	ClientID        string                 `json:"client_id"`
	TimestampMicros int64                  `json:"timestamp_micros"`
	UserProperties  map[string]ga4Property `json:"user_properties,omitempty"`
	Events          []ga4Event             `json:"events"`
}

type ga4Property struct {
	Value string `json:"value"`
}

type ga4Event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

type ga4Item struct {
	ItemID   string  `json:"item_id"`
	ItemName string  `json:"item_name"`
	Category string  `json:"item_category"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Send translates event into a GA4 event. Unconfigured sinks report
// tracking.ErrSinkUnavailable.
func (s *AnalyticsSink) Send(ctx context.Context, event tracking.Event) error {
	if s.cfg.MeasurementID == "" || s.cfg.APISecret == "" {
		return tracking.ErrSinkUnavailable
	}

	name, params := s.translate(event)
	body := ga4Request{
		ClientID:        event.Visitor.ID,
		TimestampMicros: event.OccurredAt.UnixMicro(),
		UserProperties: map[string]ga4Property{
			"utm_source":   {Value: event.Attribution.Get(attribution.KeySource, "direct")},
			"utm_medium":   {Value: event.Attribution.Get(attribution.KeyMedium, "organic")},
			"utm_campaign": {Value: event.Attribution.Get(attribution.KeyCampaign, "none")},
		},
		Events: []ga4Event{{Name: name, Params: params}},
	}
	if body.ClientID == "" {
		body.ClientID = event.ID
	}

	q := url.Values{}
	q.Set("measurement_id", s.cfg.MeasurementID)
	q.Set("api_secret", s.cfg.APISecret)
	return postJSON(ctx, s.cfg.Client, s.Name(), s.cfg.Endpoint+"?"+q.Encode(), body)
}

func (s *AnalyticsSink) translate(event tracking.Event) (string, map[string]any) {
	params := make(map[string]any, len(event.Payload)+2)
	for k, v := range event.Payload {
		params[k] = v
	}
	if event.Visitor.PageViewID != "" {
		params["session_id"] = event.Visitor.PageViewID
	}
	params["engagement_time_msec"] = 1

	switch event.Kind {
	case tracking.KindBeginCheckout, tracking.KindPurchase:
		value, _ := event.Float(tracking.FieldValue)
		params["items"] = []ga4Item{{
			ItemID:   event.String(tracking.FieldProductID),
			ItemName: event.String(tracking.FieldProductName),
			Category: "Digital Product",
			Quantity: 1,
			Price:    value,
		}}
		delete(params, tracking.FieldContentIDs)
		return string(event.Kind), params
	case tracking.KindTimeOnPage:
		seconds, _ := event.Float(tracking.FieldValue)
		timing := event.Attribution.Fields()
		if event.Visitor.PageViewID != "" {
			timing["session_id"] = event.Visitor.PageViewID
		}
		timing["name"] = "page_engagement"
		timing["value"] = int64(seconds * 1000)
		timing["event_category"] = "Engagement"
		timing["engagement_time_msec"] = int64(seconds * 1000)
		return "timing_complete", timing
	case tracking.KindScrollDepth:
		return "scroll", params
	case tracking.KindError:
		return "exception", params
	case tracking.KindVideoPlay:
		delete(params, tracking.FieldContentIDs)
	}
	return string(event.Kind), params
}
