package middleware

import (
	"net/http"
	"strings"

	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// untracked reports paths that produce neither spans nor HTTP metrics.
func untracked(path string) bool {
	return path == "/metrics" ||
		strings.HasPrefix(path, "/media/") ||
		strings.HasPrefix(path, "/health")
}

// TracingMiddleware opens a server span per request. The span is renamed to
// the matched route template once routing is done, so /posts/1/ and
// /posts/2/ share a name.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if untracked(c.Path()) {
			return c.Next()
		}

		carrier := propagation.HeaderCarrier(http.Header(c.GetReqHeaders()))
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)

		// Fiber recycles request buffers; spans outlive the request.
		method := utils.CopyString(c.Method())
		ctx, span := observability.Tracer.Start(ctx, method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", method),
				attribute.String("http.target", utils.CopyString(c.OriginalURL())),
				attribute.String("net.peer.ip", c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		route := c.Route().Path
		span.SetName(method + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Response().StatusCode()),
		)
		if page := c.Query("page"); page != "" {
			span.SetAttributes(attribute.String("feed.page", utils.CopyString(page)))
		}
		if uid, ok := c.Locals("userID").(uint); ok {
			span.SetAttributes(attribute.Int64("user.id", int64(uid)))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(c.Response().StatusCode()))
		}

		return err
	}
}
