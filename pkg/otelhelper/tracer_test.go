package otelhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanAndSetError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, span := StartSpan(context.Background(), tracer, "rule.execute",
		attribute.String(RuleIDKey, "high-priority-triage-rule"),
		attribute.String(ActionKindKey, "auto_assign"),
	)
	SetError(span, errors.New("no clinicians"), attribute.String(RuleIDKey, "high-priority-triage-rule"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "rule.execute", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String(RuleIDKey, "high-priority-triage-rule"))
	assert.NotEmpty(t, ended[0].Events())
}

func TestNoop(t *testing.T) {
	_, span := StartSpan(context.Background(), Noop(), "noop")
	defer span.End()

	assert.False(t, span.IsRecording())
}

func TestSetError_EventAndNil(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, span := StartSpan(context.Background(), tracer, "action.execute")
	SetError(span, nil)
	span.End()

	_, failed := StartSpan(context.Background(), tracer, "action.execute")
	SetError(failed, errors.New("gateway down"))
	failed.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Empty(t, ended[0].Events())

	var names []string
	for _, event := range ended[1].Events() {
		names = append(names, event.Name)
	}

	assert.Contains(t, names, FailedKey)
}
