// Package tracking builds analytics events annotated with attribution and
// dispatches them, best effort, to external sinks.
package tracking

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
)

// Kind is the canonical event category. Sinks translate it into their own
// event names.
type Kind string

const (
	KindPageView      Kind = "page_view"
	KindVideoPlay     Kind = "video_play"
	KindCTAClick      Kind = "cta_click"
	KindBeginCheckout Kind = "begin_checkout"
	KindPurchase      Kind = "purchase"
	KindTimeOnPage    Kind = "time_on_page"
	KindScrollDepth   Kind = "scroll_depth"
	KindError         Kind = "error"
)

// DefaultCurrency is used when a commerce event does not name one.
const DefaultCurrency = "BRL"

// Payload field names shared by the tracker and the sinks.
const (
	FieldPageTitle     = "page_title"
	FieldPageLocation  = "page_location"
	FieldEventCategory = "event_category"
	FieldEventLabel    = "event_label"
	FieldVideoID       = "video_id"
	FieldVideoTitle    = "video_title"
	FieldCTAPosition   = "cta_position"
	FieldProductID     = "product_id"
	FieldProductName   = "product_name"
	FieldTransactionID = "transaction_id"
	FieldValue         = "value"
	FieldCurrency      = "currency"
	FieldContentIDs    = "content_ids"
	FieldDescription   = "description"
	FieldFatal         = "fatal"
	FieldLocation      = "location"
)

// ErrSinkUnavailable is returned by sinks that are not configured. The
// dispatcher skips them without reporting a failure.
var ErrSinkUnavailable = errors.New("sink unavailable")

// Visitor identifies who generated an event.
type Visitor struct {
	ID         string
	PageViewID string
	PageURL    string
	PageTitle  string
	UserAgent  string
	ClientIP   string
}

// Event is a single analytics event with a flat payload.
type Event struct {
	ID          string
	Kind        Kind
	Name        string
	Payload     map[string]any
	Attribution attribution.Set
	Visitor     Visitor
	OccurredAt  time.Time
}

// Clone returns a copy whose payload and attribution may be modified freely.
func (e Event) Clone() Event {
	out := e
	out.Payload = maps.Clone(e.Payload)
	out.Attribution = e.Attribution.Clone()
	if ids, ok := e.Payload[FieldContentIDs].([]string); ok {
		out.Payload[FieldContentIDs] = append([]string(nil), ids...)
	}
	return out
}

// String returns a payload field as a string, or "" when absent.
func (e Event) String(field string) string {
	if v, ok := e.Payload[field].(string); ok {
		return v
	}
	return ""
}

// Float returns a numeric payload field.
func (e Event) Float(field string) (float64, bool) {
	switch v := e.Payload[field].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Sink receives events. Implementations must not retain or mutate the event.
type Sink interface {
	Name() string
	Send(ctx context.Context, event Event) error
}

// NullSink discards every event.
type NullSink struct{}

func (NullSink) Name() string { return "null" }

func (NullSink) Send(context.Context, Event) error { return nil }
