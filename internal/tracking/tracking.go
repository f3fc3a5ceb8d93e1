// Package tracking records OpenTelemetry spans and metrics for client requests and transfers.
package tracking

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "netkit/httpclient"
	meterName  = "netkit/httpclient"

	// Metric names. Request duration follows the OTel HTTP client convention.
	metricRequestDuration = "http.client.request.duration" // Histogram in seconds
	metricAttempts        = "netkit.client.attempts"       // Counter

	attrMethod     = "http.request.method"
	attrStatusCode = "http.response.status_code"
	attrURL        = "url.full"
	attrOperation  = "netkit.operation"
	attrAttempt    = "netkit.attempt"
	attrOutcome    = "netkit.outcome"
	attrErrorType  = "error.type"
)

// Operation names
const (
	OpRequest         = "request"
	OpDownload        = "download"
	OpUpload          = "upload"
	OpUploadMultipart = "upload_multipart"
)

// Attempt outcomes
const (
	OutcomeSuccess = "success"
	OutcomeRetry   = "retry"
	OutcomeFailure = "failure"
)

var (
	meterOnce   sync.Once
	meterInitMu sync.Mutex
	clientMeter metric.Meter

	requestDuration metric.Float64Histogram
	attemptCounter  metric.Int64Counter
)

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize client metric %s: %v\n", metricName, err)
	}
}

func initMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if clientMeter != nil {
		return
	}
	clientMeter = otel.Meter(meterName)

	var err error
	requestDuration, err = clientMeter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("Duration of client calls including retries"),
		metric.WithUnit("s"),
	)
	logMetricError(metricRequestDuration, err)

	attemptCounter, err = clientMeter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of transport attempts"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)
}

func ensureMeter() {
	meterOnce.Do(initMeter)
}

// StartSpan opens a client span for one call. The caller must pass the span to EndSpan.
func StartSpan(ctx context.Context, operation, method, url string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "netkit."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrMethod, method),
		attribute.String(attrURL, url),
	)
	return ctx, span
}

// EndSpan records the final status and ends span. status 0 means no response was received.
// errorType is a short classification of err and is ignored when err is nil.
func EndSpan(span trace.Span, status int, errorType string, err error) {
	if status > 0 {
		span.SetAttributes(attribute.Int(attrStatusCode, status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errorType != "" {
			span.SetAttributes(attribute.String(attrErrorType, errorType))
		}
	}
	span.End()
}

// RecordAttempt counts one transport attempt and annotates the current span.
func RecordAttempt(ctx context.Context, operation, method string, attempt int, outcome string) {
	ensureMeter()

	if attemptCounter != nil {
		attemptCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrOperation, operation),
			attribute.String(attrMethod, method),
			attribute.String(attrOutcome, outcome),
		))
	}

	trace.SpanFromContext(ctx).AddEvent("attempt", trace.WithAttributes(
		attribute.Int(attrAttempt, attempt),
		attribute.String(attrOutcome, outcome),
	))
}

// RecordDuration records the wall time of a whole call.
func RecordDuration(ctx context.Context, operation, method string, status int, errorType string, d time.Duration) {
	ensureMeter()

	if requestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrMethod, method),
	}
	if status > 0 {
		attrs = append(attrs, attribute.Int(attrStatusCode, status))
	}
	if errorType != "" {
		attrs = append(attrs, attribute.String(attrErrorType, errorType))
	}

	requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// ResetForTesting drops the cached meter so the next call picks up the current global provider.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	clientMeter = nil
	requestDuration = nil
	attemptCounter = nil
	meterOnce = sync.Once{}
}
