package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// sqlAttrLimit caps the recorded statement so the catalog's wider
// SELECT lists stay readable in the trace UI.
const sqlAttrLimit = 300

// PGXTracer emits one client span per catalog query. cmd/api attaches
// it to the pool config, so every store call is traced without the
// stores knowing about telemetry.
type PGXTracer struct{}

// TraceQueryStart opens a span named after the SQL verb.
func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	name := "sql"
	if fields := strings.Fields(data.SQL); len(fields) > 0 {
		name = "sql " + strings.ToUpper(fields[0])
	}
	ctx, span := otel.Tracer("storefront.db").Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", clipSQL(data.SQL)),
	)
	return ctx
}

// TraceQueryEnd records any error and closes the span. pgx hands back
// the context TraceQueryStart returned, so the span is the current one.
func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	if data.Err != nil {
		span.RecordError(data.Err)
	}
	span.End()
}

func clipSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > sqlAttrLimit {
		return trimmed[:sqlAttrLimit] + "..."
	}
	return trimmed
}
