package tracking

import (
	"fmt"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/oklog/ulid/v2"
)

// Emitter accepts finished events. *Dispatcher is the production emitter.
type Emitter interface {
	Dispatch(event Event)
}

// Tracker builds events for one visitor. Every event carries the attribution
// resolved at the moment it was built.
type Tracker struct {
	emitter  Emitter
	resolver attribution.Resolver
	visitor  Visitor
	now      func() time.Time
}

// NewTracker creates a tracker for visitor. A nil resolver tracks without
// attribution.
func NewTracker(emitter Emitter, resolver attribution.Resolver, visitor Visitor) *Tracker {
	return &Tracker{
		emitter:  emitter,
		resolver: resolver,
		visitor:  visitor,
		now:      time.Now,
	}
}

// WithClock returns a copy of t that timestamps events with now.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	out := *t
	out.now = now
	return &out
}

// WithPageView returns a copy of t bound to a page view.
func (t *Tracker) WithPageView(pageViewID string) *Tracker {
	out := *t
	out.visitor.PageViewID = pageViewID
	return &out
}

// Visitor returns the visitor context events are stamped with.
func (t *Tracker) Visitor() Visitor {
	return t.visitor
}

// TrackPageView records a page view. extra fields are merged after the
// attribution fields and win on a shared key.
func (t *Tracker) TrackPageView(pageName string, extra map[string]any) Event {
	fields := map[string]any{
		FieldPageTitle:    t.visitor.PageTitle,
		FieldPageLocation: t.visitor.PageURL,
	}
	return t.emitWith(KindPageView, pageName, fields, extra)
}

// TrackVideoPlay records the VSL video starting.
func (t *Tracker) TrackVideoPlay(videoID, videoTitle string) Event {
	return t.emit(KindVideoPlay, videoID, map[string]any{
		FieldVideoID:       videoID,
		FieldVideoTitle:    videoTitle,
		FieldEventCategory: "Video",
		FieldEventLabel:    "Play",
		FieldContentIDs:    []string{videoID},
	})
}

// TrackCTAClick records a call-to-action click.
func (t *Tracker) TrackCTAClick(ctaName, position, productID string) Event {
	fields := map[string]any{
		FieldEventCategory: "CTA",
		FieldEventLabel:    ctaName,
		FieldCTAPosition:   position,
	}
	if productID != "" {
		fields[FieldProductID] = productID
	}
	return t.emit(KindCTAClick, ctaName, fields)
}

// TrackBeginCheckout records a visitor heading into checkout.
func (t *Tracker) TrackBeginCheckout(productID, productName string, value float64, currency string) Event {
	return t.emit(KindBeginCheckout, productID, commerceFields(productID, productName, value, currency))
}

// TrackPurchase records a completed order.
func (t *Tracker) TrackPurchase(orderID, productID, productName string, value float64, currency string) Event {
	fields := commerceFields(productID, productName, value, currency)
	fields[FieldTransactionID] = orderID
	return t.emit(KindPurchase, orderID, fields)
}

// TrackTimeOnPage records engagement time in whole seconds.
func (t *Tracker) TrackTimeOnPage(seconds int) Event {
	return t.emit(KindTimeOnPage, "page_engagement", map[string]any{
		FieldEventCategory: "Engagement",
		FieldEventLabel:    "Time on Page",
		FieldValue:         seconds,
	})
}

// TrackScrollDepth records a scroll milestone in percent.
func (t *Tracker) TrackScrollDepth(percent int) Event {
	return t.emit(KindScrollDepth, fmt.Sprintf("%d%%", percent), map[string]any{
		FieldEventCategory: "Scroll",
		FieldEventLabel:    fmt.Sprintf("%d%%", percent),
		FieldValue:         percent,
	})
}

// TrackError records a non-fatal client or server error.
func (t *Tracker) TrackError(message, location string) Event {
	return t.emit(KindError, "exception", map[string]any{
		FieldDescription: message,
		FieldFatal:       false,
		FieldLocation:    location,
	})
}

func commerceFields(productID, productName string, value float64, currency string) map[string]any {
	if currency == "" {
		currency = DefaultCurrency
	}
	return map[string]any{
		FieldProductID:   productID,
		FieldProductName: productName,
		FieldValue:       value,
		FieldCurrency:    currency,
		FieldContentIDs:  []string{productID},
	}
}

// emit builds the payload from fields, then attribution, which wins on a
// shared key.
func (t *Tracker) emit(kind Kind, name string, fields map[string]any) Event {
	return t.emitWith(kind, name, fields, nil)
}

func (t *Tracker) emitWith(kind Kind, name string, fields, extra map[string]any) Event {
	set := attribution.Set{}
	if t.resolver != nil {
		set = t.resolver.ResolveAll()
	}

	payload := make(map[string]any, len(fields)+len(set)+len(extra))
	for k, v := range fields {
		payload[k] = v
	}
	for k, v := range set.Fields() {
		payload[k] = v
	}
	for k, v := range extra {
		payload[k] = v
	}

	event := Event{
		ID:          ulid.Make().String(),
		Kind:        kind,
		Name:        name,
		Payload:     payload,
		Attribution: set,
		Visitor:     t.visitor,
		OccurredAt:  t.now().UTC(),
	}

	if t.emitter != nil {
		t.emitter.Dispatch(event)
	}
	return event
}
