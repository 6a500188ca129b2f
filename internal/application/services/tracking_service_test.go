package services

import (
	"strings"
	"testing"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/caching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func milestoneValues(events []tracking.Event) []int {
	out := make([]int, 0, len(events))
	for _, e := range events {
		out = append(out, e.Payload[tracking.FieldValue].(int))
	}
	return out
}

func TestTrackingService_StartPage(t *testing.T) {
	f := newFixture(t)
	v := f.visit(t, "visitor-1", "utm_source=ig")

	pv := f.tracking.StartPage(v, "/", "VSL_Home", map[string]any{"page_type": "landing_page"})
	f.dispatcher.Wait()

	assert.NotEmpty(t, pv.ID)
	assert.Equal(t, 1, f.tracking.ActivePageViews())

	views := f.sink.ofKind(tracking.KindPageView)
	require.Len(t, views, 1)
	assert.Equal(t, "VSL_Home", views[0].Name)
	assert.Equal(t, pv.ID, views[0].Visitor.PageViewID)
	assert.Equal(t, "landing_page", views[0].Payload["page_type"])
	assert.Equal(t, "ig", views[0].Payload["utm_source"])
}

func TestTrackingService_ScrollMilestonesFireOnce(t *testing.T) {
	f := newFixture(t)
	v := f.visit(t, "visitor-1", "")
	pv := f.tracking.StartPage(v, "/", "VSL_Home", nil)

	percent := func(p int) Beacon { return Beacon{PageViewID: pv.ID, Percent: &p} }

	var fired []int
	for _, p := range []int{10, 30, 20, 60, 40, 95, 50, 100} {
		events, err := f.tracking.HandleBeacon(v, BeaconScroll, percent(p))
		require.NoError(t, err)
		fired = append(fired, milestoneValues(events)...)
	}
	assert.Equal(t, []int{25, 50, 75, 90}, fired)
	f.dispatcher.Wait()
	assert.Len(t, f.sink.ofKind(tracking.KindScrollDepth), 4)

	t.Run("positions are converted", func(t *testing.T) {
		other := f.tracking.StartPage(v, "/", "VSL_Home", nil)
		events, err := f.tracking.HandleBeacon(v, BeaconScroll, Beacon{
			PageViewID: other.ID,
			ScrollTop:  600,
			DocHeight:  2000,
			WinHeight:  800,
		})
		require.NoError(t, err)
		assert.Equal(t, []int{25, 50}, milestoneValues(events))
	})
}

func TestTrackingService_TimeMilestones(t *testing.T) {
	f := newFixture(t)
	v := f.visit(t, "visitor-1", "")
	pv := f.tracking.StartPage(v, "/", "VSL_Home", nil)
	beacon := Beacon{PageViewID: pv.ID}

	f.clock.Advance(15 * time.Second)
	events, err := f.tracking.HandleBeacon(v, BeaconHeartbeat, beacon)
	require.NoError(t, err)
	assert.Empty(t, events)

	f.clock.Advance(50 * time.Second)
	events, err = f.tracking.HandleBeacon(v, BeaconHeartbeat, beacon)
	require.NoError(t, err)
	assert.Equal(t, []int{30, 60}, milestoneValues(events))

	f.clock.Advance(60 * time.Second)
	events, err = f.tracking.HandleBeacon(v, BeaconHeartbeat, beacon)
	require.NoError(t, err)
	assert.Equal(t, []int{120}, milestoneValues(events))

	events, err = f.tracking.HandleBeacon(v, BeaconLeave, beacon)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, tracking.KindTimeOnPage, events[0].Kind)
	assert.Equal(t, 125, events[0].Payload[tracking.FieldValue])

	t.Run("leave ends the page view", func(t *testing.T) {
		_, err := f.tracking.HandleBeacon(v, BeaconLeave, beacon)
		assert.ErrorIs(t, err, caching.ErrPageViewNotFound)
		assert.Equal(t, 0, f.tracking.ActivePageViews())
	})
}

func TestTrackingService_PageViewsBelongToVisitor(t *testing.T) {
	f := newFixture(t)
	owner := f.visit(t, "visitor-1", "")
	pv := f.tracking.StartPage(owner, "/", "VSL_Home", nil)

	intruder := f.visit(t, "visitor-2", "")
	fifty := 50
	_, err := f.tracking.HandleBeacon(intruder, BeaconScroll, Beacon{PageViewID: pv.ID, Percent: &fifty})
	assert.ErrorIs(t, err, caching.ErrPageViewNotFound)

	events, err := f.tracking.HandleBeacon(owner, BeaconScroll, Beacon{PageViewID: pv.ID, Percent: &fifty})
	require.NoError(t, err)
	assert.Equal(t, []int{25, 50}, milestoneValues(events))
}

func TestTrackingService_InteractionBeacons(t *testing.T) {
	f := newFixture(t)
	v := f.visit(t, "visitor-1", "utm_source=fb&fbclid=click-1")

	t.Run("video play defaults to the configured video", func(t *testing.T) {
		events, err := f.tracking.HandleBeacon(v, BeaconVideoPlay, Beacon{})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "8bRCsjRE2fQ", events[0].Payload[tracking.FieldVideoID])
		assert.Equal(t, "Apresentação", events[0].Payload[tracking.FieldVideoTitle])
		assert.Equal(t, "click-1", events[0].Payload["fbclid"])
	})

	t.Run("cta click", func(t *testing.T) {
		events, err := f.tracking.HandleBeacon(v, BeaconCTAClick, Beacon{CTA: "product_2_cta", Position: "products", ProductID: "2"})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, tracking.KindCTAClick, events[0].Kind)
		assert.Equal(t, "products", events[0].Payload[tracking.FieldCTAPosition])
		assert.Equal(t, "2", events[0].Payload[tracking.FieldProductID])
	})

	t.Run("cta click needs a name", func(t *testing.T) {
		_, err := f.tracking.HandleBeacon(v, BeaconCTAClick, Beacon{})
		assert.ErrorIs(t, err, ErrInvalidBeacon)
	})

	t.Run("begin checkout resolves the product", func(t *testing.T) {
		events, err := f.tracking.HandleBeacon(v, BeaconBeginCheckout, Beacon{ProductID: "2"})
		require.NoError(t, err)
		require.Len(t, events, 1)
		p, err := f.catalog.Lookup("2")
		require.NoError(t, err)
		assert.Equal(t, p.Value(), events[0].Payload[tracking.FieldValue])
		assert.Equal(t, "BRL", events[0].Payload[tracking.FieldCurrency])
	})

	t.Run("begin checkout with unknown product uses the featured one", func(t *testing.T) {
		events, err := f.tracking.HandleBeacon(v, BeaconBeginCheckout, Beacon{ProductID: "99"})
		require.NoError(t, err)
		assert.Equal(t, 197.0, events[0].Payload[tracking.FieldValue])
	})

	t.Run("error messages are truncated", func(t *testing.T) {
		events, err := f.tracking.HandleBeacon(v, BeaconError, Beacon{Message: strings.Repeat("é", 400), Location: "funnel.js:10"})
		require.NoError(t, err)
		msg := events[0].Payload[tracking.FieldDescription].(string)
		assert.LessOrEqual(t, len(msg), maxErrorMessage)
		assert.Equal(t, "funnel.js:10", events[0].Payload[tracking.FieldLocation])

		events, err = f.tracking.HandleBeacon(v, BeaconError, Beacon{})
		require.NoError(t, err)
		assert.Equal(t, "unknown error", events[0].Payload[tracking.FieldDescription])
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := f.tracking.HandleBeacon(v, "purchase", Beacon{})
		assert.ErrorIs(t, err, ErrUnknownBeacon)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "a", truncate("aé", 2), "never splits a rune")
}
