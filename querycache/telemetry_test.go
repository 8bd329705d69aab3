package querycache

import (
	"context"
	"testing"

	"github.com/goliatone/go-query-cache/pkg/testsupport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetrics_RecordRequestsAndExecutions(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	h := New[testQuery, testResponse](countingHandler(testsupport.NewCounter()), testsupport.NewMemoryStore(),
		WithMetrics(metrics), WithName("bowlers"))

	for i := 0; i < 3; i++ {
		if _, err := h.Handle(context.Background(), testQuery{Key: "k"}); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}

	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("bowlers", ResultMiss)); got != 1 {
		t.Errorf("expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("bowlers", ResultHit)); got != 2 {
		t.Errorf("expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.executions.WithLabelValues("bowlers", "success")); got != 1 {
		t.Errorf("expected 1 successful execution, got %v", got)
	}
	if n := testutil.CollectAndCount(metrics.duration); n != 1 {
		t.Errorf("expected one duration series, got %d", n)
	}

	if _, err := NewMetrics(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.request("h", ResultHit)
	m.storeError("h", "get")
	m.execution("h", "success", 0)
}

func TestTracing_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	h := New[testQuery, testResponse](countingHandler(testsupport.NewCounter()), testsupport.NewMemoryStore(),
		WithTracerProvider(tp))

	for i := 0; i < 2; i++ {
		if _, err := h.Handle(context.Background(), testQuery{Key: "traced"}); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}

	waitFor(t, "spans to end", func() bool { return len(recorder.Ended()) >= 3 })

	var results []string
	executions := 0
	for _, span := range recorder.Ended() {
		attrs := attribute.NewSet(span.Attributes()...)
		switch span.Name() {
		case "querycache.Handle":
			if v, ok := attrs.Value("cache.key"); !ok || v.AsString() != "traced" {
				t.Errorf("expected cache.key attribute, got %v", span.Attributes())
			}
			if v, ok := attrs.Value("cache.result"); ok {
				results = append(results, v.AsString())
			}
		case "querycache.execute":
			executions++
			if v, ok := attrs.Value("cache.execution_id"); !ok || v.AsString() == "" {
				t.Error("expected execution id attribute")
			}
		}
	}

	if executions != 1 {
		t.Errorf("expected one execute span, got %d", executions)
	}
	if len(results) != 2 || results[0] != ResultMiss || results[1] != ResultHit {
		t.Errorf("expected miss then hit, got %v", results)
	}
}

func TestLogging_StoreFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := testsupport.NewMemoryStore()
	store.FailGets(true)
	store.FailSets(true)

	h := New[testQuery, testResponse](countingHandler(testsupport.NewCounter()), store,
		WithLogger(zap.New(core)), WithName("logged"))

	if _, err := h.Handle(context.Background(), testQuery{Key: "k"}); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if n := logs.FilterMessage("cache lookup failed, executing query").Len(); n != 1 {
		t.Errorf("expected one lookup warning, got %d", n)
	}
	writes := logs.FilterMessage("result not persisted, store write failed").All()
	if len(writes) != 1 {
		t.Fatalf("expected one write warning, got %d", len(writes))
	}
	if writes[0].ContextMap()["key"] != "k" {
		t.Errorf("expected key field, got %v", writes[0].ContextMap())
	}
}
