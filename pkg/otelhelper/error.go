package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FailedKey marks the event added when a rule, action or handler fails.
const FailedKey = "saviser.failed"

// SetError records err on span and marks it failed. A nil err leaves the span untouched.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent(FailedKey, trace.WithAttributes(
		append(attrs, attribute.String("error.message", err.Error()))...,
	))
}
