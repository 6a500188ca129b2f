package sinks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
)

// PixelConfig configures the Meta Conversions API sink.
type PixelConfig struct {
	PixelID     string
	AccessToken string
	Endpoint    string
	Client      *http.Client
}

// PixelSink sends conversion events to Meta. Engagement kinds are not
// supported by the pixel and are skipped.
type PixelSink struct {
	cfg PixelConfig
}

func NewPixelSink(cfg PixelConfig) *PixelSink {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://graph.facebook.com/v19.0"
	}
	if cfg.Client == nil {
		cfg.Client = defaultClient()
	}
	return &PixelSink{cfg: cfg}
}

func (s *PixelSink) Name() string { return "meta" }

var pixelEventNames = map[tracking.Kind]string{
	tracking.KindPageView:      "PageView",
	tracking.KindVideoPlay:     "ViewContent",
	tracking.KindCTAClick:      "Lead",
	tracking.KindBeginCheckout: "InitiateCheckout",
	tracking.KindPurchase:      "Purchase",
}

type capiRequest struct {
	Data []capiEvent `json:"data"`
}

type capiEvent struct {
	EventName      string         `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	EventID        string         `json:"event_id"`
	ActionSource   string         `json:"action_source"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	UserData       capiUserData   `json:"user_data"`
	CustomData     map[string]any `json:"custom_data"`
}

type capiUserData struct {
	ClientIP   string `json:"client_ip_address,omitempty"`
	UserAgent  string `json:"client_user_agent,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	FBC        string `json:"fbc,omitempty"`
}

func (s *PixelSink) Send(ctx context.Context, event tracking.Event) error {
	if s.cfg.PixelID == "" || s.cfg.AccessToken == "" {
		return tracking.ErrSinkUnavailable
	}
	name, ok := pixelEventNames[event.Kind]
	if !ok {
		return nil
	}

	body := capiRequest{Data: []capiEvent{{
		EventName:      name,
		EventTime:      event.OccurredAt.Unix(),
		EventID:        event.ID,
		ActionSource:   "website",
		EventSourceURL: event.Visitor.PageURL,
		UserData: capiUserData{
			ClientIP:   event.Visitor.ClientIP,
			UserAgent:  event.Visitor.UserAgent,
			ExternalID: event.Visitor.ID,
			FBC:        fbc(event),
		},
		CustomData: customData(event),
	}}}

	endpoint := fmt.Sprintf("%s/%s/events?%s", s.cfg.Endpoint, url.PathEscape(s.cfg.PixelID), url.Values{"access_token": {s.cfg.AccessToken}}.Encode())
	return postJSON(ctx, s.cfg.Client, s.Name(), endpoint, body)
}

// fbc is the click id cookie format Meta expects: fb.1.<ms>.<fbclid>.
func fbc(event tracking.Event) string {
	clickID := event.Attribution[attribution.KeyFBCLID]
	if clickID == "" {
		return ""
	}
	return fmt.Sprintf("fb.1.%d.%s", event.OccurredAt.UnixMilli(), clickID)
}

func customData(event tracking.Event) map[string]any {
	data := event.Attribution.Fields()
	switch event.Kind {
	case tracking.KindVideoPlay:
		data["content_type"] = "video"
		data["content_ids"] = event.Payload[tracking.FieldContentIDs]
		data[tracking.FieldVideoTitle] = event.Payload[tracking.FieldVideoTitle]
	case tracking.KindBeginCheckout, tracking.KindPurchase:
		value, _ := event.Float(tracking.FieldValue)
		data["value"] = value
		data["currency"] = event.String(tracking.FieldCurrency)
		data["content_type"] = "product"
		data["content_ids"] = event.Payload[tracking.FieldContentIDs]
		if id := event.String(tracking.FieldTransactionID); id != "" {
			data["order_id"] = id
		}
	case tracking.KindCTAClick:
		data[tracking.FieldEventLabel] = event.Payload[tracking.FieldEventLabel]
		data[tracking.FieldCTAPosition] = event.Payload[tracking.FieldCTAPosition]
		if id := event.String(tracking.FieldProductID); id != "" {
			data[tracking.FieldProductID] = id
		}
	case tracking.KindPageView:
		data[tracking.FieldPageTitle] = event.Payload[tracking.FieldPageTitle]
	}
	return data
}
