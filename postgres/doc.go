// Package postgres instruments pgx database traffic with loom spans.
//
// QueryTracer implements pgx's tracer hooks. Wire it into a connection or
// pool configuration and every query becomes a CLIENT span, named after
// the SQL command and carrying the db.* attributes:
//
//	cfg, _ := pgxpool.ParseConfig(dsn)
//	cfg.ConnConfig.Tracer = postgres.NewQueryTracer(tracer, postgres.Config{
//		RecordStatement: true,
//	})
//	pool, _ := pgxpool.NewWithConfig(ctx, cfg)
//
// Span names follow the "postgresql.<COMMAND>" convention, with aggregate
// counts surfaced as "postgresql.COUNT" so the busiest query shape in most
// CRUD services is distinguishable at a glance.
package postgres
