package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSendTimeout bounds a single sink delivery.
const DefaultSendTimeout = 5 * time.Second

// Dispatcher fans events out to sinks. Each delivery runs on its own
// goroutine with its own deadline; there is no queue and no retry.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher for the given sinks. Nil sinks are ignored.
func NewDispatcher(logger *slog.Logger, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}

	active := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}

	return &Dispatcher{
		sinks:   active,
		timeout: timeout,
		logger:  logger,
		tracer:  otel.Tracer("github.com/AtRiskMedia/vsl-go/tracking"),
	}
}

// Sinks returns the names of the configured sinks.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, sink := range d.sinks {
		names[i] = sink.Name()
	}
	return names
}

// Dispatch hands event to every sink and returns immediately.
func (d *Dispatcher) Dispatch(event Event) {
	for _, sink := range d.sinks {
		d.wg.Add(1)
		go d.deliver(sink, event.Clone())
	}
}

// Wait blocks until every in-flight delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(sink Sink, event Event) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Panic recovered in sink delivery", "sink", sink.Name(), "kind", event.Kind, "error", fmt.Sprint(r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	ctx, span := d.tracer.Start(ctx, "tracking.deliver", trace.WithAttributes(
		attribute.String("sink", sink.Name()),
		attribute.String("event.kind", string(event.Kind)),
		attribute.String("event.id", event.ID),
	))
	defer span.End()

	start := time.Now()
	err := sink.Send(ctx, event)
	switch {
	case err == nil:
		d.logger.Debug("Event delivered", "sink", sink.Name(), "kind", event.Kind, "eventId", event.ID, "duration", time.Since(start))
	case errors.Is(err, ErrSinkUnavailable):
		span.SetAttributes(attribute.Bool("skipped", true))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Warn("Event delivery failed", "sink", sink.Name(), "kind", event.Kind, "eventId", event.ID, "error", err.Error(), "duration", time.Since(start))
	}
}
