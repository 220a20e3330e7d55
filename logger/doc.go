// Package logger provides loom's structured logging, a thin wrapper around
// Uber's Zap.
//
// The wrapper keeps the library's logging surface small and uniform: every
// level takes a message, an optional error, and optional field maps. When
// tracing integration is enabled, For(ctx) returns a logger whose entries
// carry the active trace and span ids, correlating logs with traces in the
// backend.
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		ServiceName:   "checkout",
//		EnableTracing: true,
//	})
//
//	log.For(ctx).Info("order placed", nil, map[string]interface{}{
//		"order_id": orderID,
//	})
//
// The same *Logger value satisfies the per-package Logger interfaces of
// the trace and exporter packages.
package logger
