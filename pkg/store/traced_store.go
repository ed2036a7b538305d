package store

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracedStore wraps a Store and records one span per Load/Save.
type TracedStore[T any] struct {
	next   Store[T]
	tracer trace.Tracer
}

// NewTracedStore wraps next. A nil tracer records nothing.
func NewTracedStore[T any](next Store[T], tracer trace.Tracer) *TracedStore[T] {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("gamestate/store")
	}
	return &TracedStore[T]{next: next, tracer: tracer}
}

func (s *TracedStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	ctx, span := s.tracer.Start(ctx, "store.load", trace.WithAttributes(refAttributes(ref)...))
	defer span.End()

	snapshot, meta, ok, err := s.next.Load(ctx, ref)
	span.SetAttributes(attribute.Bool("store.found", ok))
	if ok {
		span.SetAttributes(attribute.String("store.etag", meta.ETag))
	}
	recordError(span, err)
	return snapshot, meta, ok, err
}

func (s *TracedStore[T]) Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	ctx, span := s.tracer.Start(ctx, "store.save", trace.WithAttributes(refAttributes(ref)...))
	defer span.End()

	saved, err := s.next.Save(ctx, ref, snapshot, meta)
	if err == nil {
		span.SetAttributes(
			attribute.String("store.snapshot_id", saved.SnapshotID),
			attribute.String("store.etag", saved.ETag),
		)
	}
	recordError(span, err)
	return saved, err
}

func refAttributes(ref Ref) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("store.profile", ref.Profile),
		attribute.Int("store.slot", ref.Slot),
	}
}

func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
