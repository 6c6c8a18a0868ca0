// Package otel provides OpenTelemetry tracing integration for Meshwire.
//
// This package enables distributed tracing of mesh operations using
// OpenTelemetry. Traces provide visibility into dial attempts, message
// flow, and liveness probing.
//
// # Span Names
//
// The following spans are created during normal operation:
//
//	meshwire.dial        (outbound connection attempts)
//	meshwire.publish     (message fan-out on a topic)
//	meshwire.receive     (verified message delivery)
//	meshwire.subscribe   (topic joins)
//	meshwire.probe       (liveness round trips)
//
// # Attributes
//
// Common span attributes include:
//   - peer.id: The remote peer's ID
//   - topic.name: The topic for messaging operations
//   - message.size: Payload size of published/received messages
//   - dial.addr: The multiaddr given to a dial
//   - rtt.seconds: Probe round-trip time
//
// # Example Usage
//
//	import (
//	    "github.com/AXI0MH1VE/meshwire"
//	    meshotel "github.com/AXI0MH1VE/meshwire/otel"
//	    "go.opentelemetry.io/otel"
//	)
//
//	func main() {
//	    tracer := meshotel.NewTracer(otel.GetTracerProvider())
//
//	    node, _ := meshwire.New(nil)
//	    _ = node.Start()
//
//	    // Trace an application-level publish.
//	    ctx, span := tracer.StartPublish(context.Background(), "chat", len(payload))
//	    node.Commander().Publish("chat", payload)
//	    tracer.EndSpan(span, ctx.Err())
//	}
package otel

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// TracerName is the name used for the OpenTelemetry tracer.
	TracerName = "github.com/AXI0MH1VE/meshwire"

	// Span names
	SpanDial        = "meshwire.dial"
	SpanPublish     = "meshwire.publish"
	SpanReceive     = "meshwire.receive"
	SpanSubscribe   = "meshwire.subscribe"
	SpanUnsubscribe = "meshwire.unsubscribe"
	SpanProbe       = "meshwire.probe"

	// Attribute keys
	AttrPeerID       = "peer.id"
	AttrTopicName    = "topic.name"
	AttrMessageSize  = "message.size"
	AttrDialAddr     = "dial.addr"
	AttrRTTSeconds   = "rtt.seconds"
	AttrErrorMessage = "error.message"
)

// Tracer provides OpenTelemetry tracing for mesh operations. It wraps an
// OpenTelemetry TracerProvider and creates spans for dials, messaging,
// and liveness probes.
//
// Tracer is safe for concurrent use.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer using the given TracerProvider.
// If provider is nil, a no-op tracer is used.
func NewTracer(provider trace.TracerProvider) *Tracer {
	if provider == nil {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer(TracerName)}
	}
	return &Tracer{tracer: provider.Tracer(TracerName)}
}

// StartDial starts a span for a dial attempt.
func (t *Tracer) StartDial(ctx context.Context, addr string, peerID peer.ID) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanDial,
		trace.WithAttributes(
			attribute.String(AttrDialAddr, addr),
			attribute.String(AttrPeerID, peerID.String()),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartPublish starts a span for publishing a message on a topic.
func (t *Tracer) StartPublish(ctx context.Context, topic string, size int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanPublish,
		trace.WithAttributes(
			attribute.String(AttrTopicName, topic),
			attribute.Int(AttrMessageSize, size),
		),
		trace.WithSpanKind(trace.SpanKindProducer),
	)
}

// StartReceive starts a span for a delivered message.
func (t *Tracer) StartReceive(ctx context.Context, topic string, from peer.ID, size int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanReceive,
		trace.WithAttributes(
			attribute.String(AttrTopicName, topic),
			attribute.String(AttrPeerID, from.String()),
			attribute.Int(AttrMessageSize, size),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
}

// StartSubscribe starts a span for joining a topic.
func (t *Tracer) StartSubscribe(ctx context.Context, topic string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanSubscribe,
		trace.WithAttributes(
			attribute.String(AttrTopicName, topic),
		),
	)
}

// StartUnsubscribe starts a span for leaving a topic.
func (t *Tracer) StartUnsubscribe(ctx context.Context, topic string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanUnsubscribe,
		trace.WithAttributes(
			attribute.String(AttrTopicName, topic),
		),
	)
}

// StartProbe starts a span for a liveness probe.
func (t *Tracer) StartProbe(ctx context.Context, peerID peer.ID) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanProbe,
		trace.WithAttributes(
			attribute.String(AttrPeerID, peerID.String()),
		),
	)
}

// RecordRTT records a probe round-trip time on the given span.
func (t *Tracer) RecordRTT(span trace.Span, rtt time.Duration) {
	span.SetAttributes(attribute.Float64(AttrRTTSeconds, rtt.Seconds()))
	span.SetStatus(codes.Ok, "")
}

// RecordError records an error on the given span.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// EndSpan ends a span, optionally recording an error.
func (t *Tracer) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	span.End()
}

// NopTracer is a no-op tracer that does nothing.
// It is used when tracing is disabled.
// NopTracer wraps the real Tracer with a noop provider.
type NopTracer struct {
	*Tracer
}

// NewNopTracer creates a new no-op tracer.
func NewNopTracer() *NopTracer {
	return &NopTracer{
		Tracer: NewTracer(nil),
	}
}
