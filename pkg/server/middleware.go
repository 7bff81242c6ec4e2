package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/adlens/pkg/observability"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

const (
	ctxKeyRequestID = "request_id"

	// maxRequestIDLength bounds client-supplied request ids.
	maxRequestIDLength = 128
)

// requestID reuses a client X-Request-ID or assigns a new uuid.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		c.Set(ctxKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// bodyLimit caps request bodies at limit bytes.
func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()
	}
}

// RequestIDFrom returns the request id assigned to c.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}

// telemetry creates a span per request, records RED metrics and logs the
// outcome. Span names use route-template format: "METHOD /route".
func telemetry(tracer trace.Tracer, red *observability.REDMetrics, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		req := c.Request

		// Extract W3C traceparent/tracestate/baggage from incoming headers.
		parentCtx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

		ctx, span := tracer.Start(parentCtx, req.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(req.Method),
				semconv.HTTPRoute(route),
				attribute.String("request.id", RequestIDFrom(c)),
			),
		)
		defer span.End()

		c.Request = req.WithContext(ctx)

		var done func()
		if red != nil {
			done = red.TrackInflight(ctx, route)
		}

		started := time.Now()

		c.Next()

		elapsed := time.Since(started)
		status := c.Writer.Status()

		span.SetAttributes(semconv.HTTPResponseStatusCode(status))

		outcome := observability.StatusOK
		if status >= http.StatusInternalServerError {
			outcome = observability.StatusError

			span.SetStatus(codes.Error, http.StatusText(status))
		}

		if red != nil {
			done()
			red.RecordRequest(ctx, route, outcome, elapsed)
		}

		logger.InfoContext(ctx, "request",
			"method", req.Method,
			"route", route,
			"status", status,
			"elapsed", elapsed,
			"request_id", RequestIDFrom(c))
	}
}
