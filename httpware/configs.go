package httpware

import "strings"

// Config defines the configuration structure for the HTTP server
// middleware.
type Config struct {
	// SkipPaths lists URL paths that are never traced, typically health
	// and metrics endpoints. A trailing "*" matches by prefix:
	// "/internal/*" skips everything under /internal/.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "skip_paths" key
	//   - Environment variable HTTPWARE_SKIP_PATHS (comma-separated)
	SkipPaths []string `yaml:"skip_paths" envconfig:"HTTPWARE_SKIP_PATHS"`

	// RecordQuery includes the raw query string in the http.url attribute.
	// Off by default; query strings routinely carry identifiers that do
	// not belong in telemetry.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "record_query" key
	//   - Environment variable HTTPWARE_RECORD_QUERY
	RecordQuery bool `yaml:"record_query" envconfig:"HTTPWARE_RECORD_QUERY"`
}

// skip reports whether path is excluded from tracing.
func (c Config) skip(path string) bool {
	for _, p := range c.SkipPaths {
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}
