package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/loomworks/loom/trace"
)

// component is the value of the "component" attribute on every span this
// adapter produces.
const component = "postgresql"

// Config defines the configuration structure for the query tracer.
type Config struct {
	// RecordStatement includes the SQL text as the db.statement attribute.
	// Off by default; statements can embed literals that do not belong in
	// telemetry.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "record_statement" key
	//   - Environment variable POSTGRES_RECORD_STATEMENT
	RecordStatement bool `yaml:"record_statement" envconfig:"POSTGRES_RECORD_STATEMENT"`
}

// QueryTracer adapts loom to pgx's tracing hooks. One instance serves any
// number of connections concurrently.
type QueryTracer struct {
	tracer *trace.Tracer
	cfg    Config
}

// NewQueryTracer creates the adapter. Assign it to the Tracer field of a
// pgx connection or pool configuration.
func NewQueryTracer(tracer *trace.Tracer, cfg Config) *QueryTracer {
	return &QueryTracer{tracer: tracer, cfg: cfg}
}

type spanKey struct{}

// TraceQueryStart starts a CLIENT span for the query and stashes it on the
// context for TraceQueryEnd. The span joins whatever trace the caller's
// context carries, so queries nest under the request's server span.
func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	attrs := map[string]interface{}{
		"component":    component,
		"db.type":      "sql",
		"db.operation": sqlCommand(data.SQL),
	}
	if t.cfg.RecordStatement {
		attrs["db.statement"] = data.SQL
	}
	ctx, span := t.tracer.StartSpan(ctx, spanName(data.SQL),
		trace.WithKind(trace.KindClient),
		trace.WithAttributes(attrs),
	)
	return context.WithValue(ctx, spanKey{}, span)
}

// TraceQueryEnd records the outcome and ends the span started by
// TraceQueryStart. Called by pgx on every completion path, so the span is
// never left open.
func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(spanKey{}).(*trace.Span)
	if !ok {
		return
	}
	if data.Err != nil {
		span.RecordError(data.Err)
	} else {
		span.SetAttribute("db.rows_affected", data.CommandTag.RowsAffected())
	}
	span.End()
}

// spanName maps a SQL statement to its span name, "postgresql.<COMMAND>".
// "SELECT COUNT(*) ..." becomes "postgresql.COUNT"; anything unparseable
// becomes "postgresql.OTHER".
func spanName(sql string) string {
	return component + "." + sqlCommand(sql)
}

func sqlCommand(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "OTHER"
	}
	if len(fields) > 1 && strings.EqualFold(fields[1], "COUNT(*)") {
		return "COUNT"
	}
	command := strings.ToUpper(fields[0])
	for _, r := range command {
		if r < 'A' || r > 'Z' {
			return "OTHER"
		}
	}
	return command
}
