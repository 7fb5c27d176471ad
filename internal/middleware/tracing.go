package middleware

import (
	"fmt"

	"vidtube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware opens a server span per request and exposes its trace ID
// through locals and the X-Trace-ID response header. Once routing is done the span is
// renamed after the matched route pattern so IDs in paths do not explode span names.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		carrier := propagation.HeaderCarrier{}
		for key, values := range c.GetReqHeaders() {
			for _, v := range values {
				carrier.Set(key, v)
			}
		}
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)

		route := c.Path()
		ctx, span := observability.Tracer.Start(ctx, fmt.Sprintf("%s %s", c.Method(), route),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.path", route),
				attribute.String("http.ip", c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		if requestID, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", requestID))
		}

		c.SetUserContext(ctx)

		err := c.Next()

		if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
			span.SetName(c.Method() + " " + r.Path)
			span.SetAttributes(attribute.String("http.route", r.Path))
		}
		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
		}
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("status %d", status))
		}
		if userID, ok := c.Locals("userID").(uint); ok {
			span.SetAttributes(attribute.Int64("user.id", int64(userID)))
		}

		return err
	}
}
