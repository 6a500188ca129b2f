package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path  string
	Query map[string][]string
	Body  map[string]any
}

func captureServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var got []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		got = append(got, capturedRequest{Path: r.URL.Path, Query: r.URL.Query(), Body: body})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), got...)
	}
}

func purchaseEvent() tracking.Event {
	set := attribution.Set{attribution.KeySource: "ig", attribution.KeyFBCLID: "abc"}
	tracker := tracking.NewTracker(nil, staticResolver(set), tracking.Visitor{
		ID:        "visitor-1",
		PageURL:   "https://revitamax-pro.com/obrigado",
		UserAgent: "test-agent",
		ClientIP:  "203.0.113.9",
	})
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return tracker.WithClock(func() time.Time { return at }).TrackPurchase("VSL-1", "1", "RevitaMax Pro", 197, "")
}

type staticResolver attribution.Set

func (r staticResolver) ResolveAll() attribution.Set { return attribution.Set(r).Clone() }

func TestAnalyticsSink_Purchase(t *testing.T) {
	srv, requests := captureServer(t, http.StatusNoContent)
	sink := NewAnalyticsSink(AnalyticsConfig{MeasurementID: "G-1", APISecret: "s", Endpoint: srv.URL + "/mp/collect"})

	require.NoError(t, sink.Send(context.Background(), purchaseEvent()))

	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, "/mp/collect", got[0].Path)
	assert.Equal(t, []string{"G-1"}, got[0].Query["measurement_id"])
	assert.Equal(t, "visitor-1", got[0].Body["client_id"])

	props := got[0].Body["user_properties"].(map[string]any)
	assert.Equal(t, "ig", props["utm_source"].(map[string]any)["value"])
	assert.Equal(t, "organic", props["utm_medium"].(map[string]any)["value"])
	assert.Equal(t, "none", props["utm_campaign"].(map[string]any)["value"])

	event := got[0].Body["events"].([]any)[0].(map[string]any)
	assert.Equal(t, "purchase", event["name"])
	params := event["params"].(map[string]any)
	assert.Equal(t, "VSL-1", params["transaction_id"])
	assert.Equal(t, "BRL", params["currency"])
	assert.Equal(t, "ig", params["utm_source"])
	items := params["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "1", item["item_id"])
	assert.Equal(t, "Digital Product", item["item_category"])
	assert.Equal(t, 197.0, item["price"])
}

func TestAnalyticsSink_TimeOnPageInMilliseconds(t *testing.T) {
	srv, requests := captureServer(t, http.StatusOK)
	sink := NewAnalyticsSink(AnalyticsConfig{MeasurementID: "G-1", APISecret: "s", Endpoint: srv.URL})

	resolver := staticResolver{attribution.KeySource: "ig", attribution.KeyCampaign: "sale"}
	event := tracking.NewTracker(nil, resolver, tracking.Visitor{ID: "v"}).WithPageView("pv1").TrackTimeOnPage(60)
	require.NoError(t, sink.Send(context.Background(), event))

	ev := requests()[0].Body["events"].([]any)[0].(map[string]any)
	assert.Equal(t, "timing_complete", ev["name"])
	params := ev["params"].(map[string]any)
	assert.Equal(t, "page_engagement", params["name"])
	assert.Equal(t, 60000.0, params["value"])
	assert.Equal(t, "Engagement", params["event_category"])
	assert.Equal(t, "ig", params["utm_source"])
	assert.Equal(t, "sale", params["utm_campaign"])
	assert.Equal(t, "pv1", params["session_id"])
}

func TestAnalyticsSink_Unconfigured(t *testing.T) {
	err := NewAnalyticsSink(AnalyticsConfig{}).Send(context.Background(), purchaseEvent())
	assert.ErrorIs(t, err, tracking.ErrSinkUnavailable)
}

func TestAnalyticsSink_StatusError(t *testing.T) {
	srv, _ := captureServer(t, http.StatusBadRequest)
	sink := NewAnalyticsSink(AnalyticsConfig{MeasurementID: "G-1", APISecret: "s", Endpoint: srv.URL})

	err := sink.Send(context.Background(), purchaseEvent())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
	assert.Contains(t, statusErr.Body, "nope")
}

func TestPixelSink_Purchase(t *testing.T) {
	srv, requests := captureServer(t, http.StatusOK)
	sink := NewPixelSink(PixelConfig{PixelID: "123", AccessToken: "tok", Endpoint: srv.URL})

	event := purchaseEvent()
	require.NoError(t, sink.Send(context.Background(), event))

	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, "/123/events", got[0].Path)
	assert.Equal(t, []string{"tok"}, got[0].Query["access_token"])

	data := got[0].Body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "Purchase", data["event_name"])
	assert.Equal(t, event.ID, data["event_id"])
	assert.Equal(t, "website", data["action_source"])

	user := data["user_data"].(map[string]any)
	assert.Equal(t, "203.0.113.9", user["client_ip_address"])
	assert.Equal(t, "fb.1.1748779200000.abc", user["fbc"])

	custom := data["custom_data"].(map[string]any)
	assert.Equal(t, 197.0, custom["value"])
	assert.Equal(t, "product", custom["content_type"])
	assert.Equal(t, []any{"1"}, custom["content_ids"])
	assert.Equal(t, "VSL-1", custom["order_id"])
	assert.Equal(t, "ig", custom["utm_source"])
}

func TestPixelSink_SkipsEngagementKinds(t *testing.T) {
	srv, requests := captureServer(t, http.StatusOK)
	sink := NewPixelSink(PixelConfig{PixelID: "123", AccessToken: "tok", Endpoint: srv.URL})
	tracker := tracking.NewTracker(nil, nil, tracking.Visitor{ID: "v"})

	require.NoError(t, sink.Send(context.Background(), tracker.TrackScrollDepth(50)))
	require.NoError(t, sink.Send(context.Background(), tracker.TrackTimeOnPage(30)))
	require.NoError(t, sink.Send(context.Background(), tracker.TrackError("x", "/")))
	assert.Empty(t, requests())

	require.NoError(t, sink.Send(context.Background(), tracker.TrackVideoPlay("vid", "VSL")))
	got := requests()
	require.Len(t, got, 1)
	data := got[0].Body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "ViewContent", data["event_name"])
	assert.Equal(t, "video", data["custom_data"].(map[string]any)["content_type"])
}

func TestPixelSink_Unconfigured(t *testing.T) {
	err := NewPixelSink(PixelConfig{PixelID: "123"}).Send(context.Background(), purchaseEvent())
	assert.ErrorIs(t, err, tracking.ErrSinkUnavailable)
}

type memoryEventStore struct{ events []tracking.Event }

func (m *memoryEventStore) Store(e tracking.Event) error {
	m.events = append(m.events, e)
	return nil
}

type memoryPublisher struct{ frames [][]byte }

func (m *memoryPublisher) Publish(data []byte) { m.frames = append(m.frames, data) }

func TestLocalSinks(t *testing.T) {
	store := &memoryEventStore{}
	pub := &memoryPublisher{}
	event := purchaseEvent()

	require.NoError(t, NewStoreSink(store).Send(context.Background(), event))
	require.NoError(t, NewLiveSink(pub).Send(context.Background(), event))

	require.Len(t, store.events, 1)
	require.Len(t, pub.frames, 1)

	var msg LiveMessage
	require.NoError(t, json.Unmarshal(pub.frames[0], &msg))
	assert.Equal(t, "event", msg.Type)
	assert.Equal(t, "purchase", msg.Kind)
	assert.Equal(t, "ig", msg.Attribution["utm_source"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewStoreSink(store).Send(ctx, event), context.Canceled)
}
