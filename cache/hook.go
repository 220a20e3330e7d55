package cache

import (
	"context"
	"errors"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/loomworks/loom/trace"
)

// component is the value of the "component" attribute on every span this
// adapter produces.
const component = "redis"

// Config defines the configuration structure for the cache hook.
type Config struct {
	// RecordKeys includes the cache key as the cache.key attribute. Off by
	// default; keys frequently embed user identifiers.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "record_keys" key
	//   - Environment variable CACHE_RECORD_KEYS
	RecordKeys bool `yaml:"record_keys" envconfig:"CACHE_RECORD_KEYS"`
}

// Hook adapts loom to go-redis's hook chain. One instance serves any
// number of clients concurrently.
type Hook struct {
	tracer *trace.Tracer
	cfg    Config
}

// NewHook creates the adapter. Register it with client.AddHook.
func NewHook(tracer *trace.Tracer, cfg Config) *Hook {
	return &Hook{tracer: tracer, cfg: cfg}
}

// DialHook passes connection establishment through untraced; dials happen
// on pool growth, not per operation, and would only add noise.
func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

// ProcessHook traces a single command as a CLIENT span named
// "redis.<command>". A redis.Nil reply is a miss: recorded as
// cache.hit=false and returned to the caller without marking the span
// failed.
func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		attrs := map[string]interface{}{
			"component": component,
			"cache.op":  cmd.Name(),
		}
		if h.cfg.RecordKeys {
			if key, ok := commandKey(cmd); ok {
				attrs["cache.key"] = key
			}
		}
		ctx, span := h.tracer.StartSpan(ctx, "redis."+cmd.Name(),
			trace.WithKind(trace.KindClient),
			trace.WithAttributes(attrs),
		)
		defer span.End()

		err := next(ctx, cmd)
		switch {
		case err == nil:
		case errors.Is(err, redis.Nil):
			span.SetAttribute("cache.hit", false)
		default:
			span.RecordError(err)
		}
		return err
	}
}

// ProcessPipelineHook traces a pipelined batch as one span; per-command
// spans for a pipeline would misrepresent a single round trip as many.
func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := h.tracer.StartSpan(ctx, "redis.pipeline",
			trace.WithKind(trace.KindClient),
			trace.WithAttributes(map[string]interface{}{
				"component":      component,
				"cache.op":       "pipeline",
				"cache.commands": int64(len(cmds)),
			}),
		)
		defer span.End()

		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			span.RecordError(err)
		}
		return err
	}
}

// commandKey extracts the key argument of a command, the first argument
// after the command name.
func commandKey(cmd redis.Cmder) (string, bool) {
	args := cmd.Args()
	if len(args) < 2 {
		return "", false
	}
	key, ok := args[1].(string)
	return key, ok
}
