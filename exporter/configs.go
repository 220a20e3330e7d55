package exporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

// Default values for configuration. All of them are policy, not contract;
// override freely.
const (
	DefaultMaxBatchSize  = 100
	DefaultQueueCapacity = 2048
	DefaultLinger        = 5 * time.Second
	DefaultMaxAttempts   = 4
	DefaultBackoffBase   = 100 * time.Millisecond
	DefaultBackoffCap    = 5 * time.Second
	DefaultDrainDeadline = 5 * time.Second
	DefaultTimeout       = 10 * time.Second

	// DefaultIngestionPath is appended to an ingestion endpoint taken from
	// a connection string.
	DefaultIngestionPath = "/v2/track"
)

// Connection string keys, matched case-insensitively.
const (
	connStrInstrumentationKey = "instrumentationkey"
	connStrIngestionEndpoint  = "ingestionendpoint"
	connStrEndpointSuffix     = "endpointsuffix"
	connStrLocation           = "location"
	connStrAuthorization      = "authorization"
)

// Config defines the configuration structure for the export pipeline and
// its HTTP transport.
type Config struct {
	// ConnectionString configures endpoint and credentials in one value,
	// in the form:
	//
	//	InstrumentationKey=<uuid>;IngestionEndpoint=https://collector.example.com
	//
	// Explicitly set Endpoint / InstrumentationKey fields take precedence
	// over values from the connection string.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "connection_string" key
	//   - Environment variable EXPORTER_CONNECTION_STRING
	ConnectionString string `yaml:"connection_string" envconfig:"EXPORTER_CONNECTION_STRING"`

	// Endpoint is the full collector URL batches are POSTed to.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "endpoint" key
	//   - Environment variable EXPORTER_ENDPOINT
	Endpoint string `yaml:"endpoint" envconfig:"EXPORTER_ENDPOINT"`

	// InstrumentationKey authenticates the producer towards the collector.
	// Must be a valid UUID when set.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "instrumentation_key" key
	//   - Environment variable EXPORTER_INSTRUMENTATION_KEY
	InstrumentationKey string `yaml:"instrumentation_key" envconfig:"EXPORTER_INSTRUMENTATION_KEY"`

	// MaxBatchSize is the number of spans that seals a batch and the upper
	// bound on spans per delivery.
	// Default: 100
	MaxBatchSize int `yaml:"max_batch_size" envconfig:"EXPORTER_MAX_BATCH_SIZE"`

	// QueueCapacity bounds the number of finished spans waiting to be
	// batched. When the queue is full the oldest span is evicted, so a
	// stalled collector costs memory, never producer latency.
	// Default: 2048
	QueueCapacity int `yaml:"queue_capacity" envconfig:"EXPORTER_QUEUE_CAPACITY"`

	// Linger is the longest a span waits in the queue before a flush is
	// forced, regardless of batch size.
	// Default: 5s
	Linger time.Duration `yaml:"linger" envconfig:"EXPORTER_LINGER"`

	// MaxAttempts bounds delivery attempts per batch, the first try
	// included. After exhaustion the batch is dropped and counted.
	// Default: 4
	MaxAttempts int `yaml:"max_attempts" envconfig:"EXPORTER_MAX_ATTEMPTS"`

	// BackoffBase is the first retry delay; it doubles per attempt.
	// Default: 100ms
	BackoffBase time.Duration `yaml:"backoff_base" envconfig:"EXPORTER_BACKOFF_BASE"`

	// BackoffCap caps the retry delay.
	// Default: 5s
	BackoffCap time.Duration `yaml:"backoff_cap" envconfig:"EXPORTER_BACKOFF_CAP"`

	// DrainDeadline bounds the final flush during Shutdown when the caller
	// supplies a context without a deadline.
	// Default: 5s
	DrainDeadline time.Duration `yaml:"drain_deadline" envconfig:"EXPORTER_DRAIN_DEADLINE"`

	// Timeout bounds a single delivery attempt on the wire.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" envconfig:"EXPORTER_TIMEOUT"`
}

// FromEnv loads a Config from EXPORTER_* environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("exporter: loading config from env: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.Linger <= 0 {
		c.Linger = DefaultLinger
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = DefaultBackoffCap
	}
	if c.DrainDeadline <= 0 {
		c.DrainDeadline = DefaultDrainDeadline
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// resolve folds the connection string into the explicit fields and
// validates the result. Called once at construction; a running pipeline
// never re-reads configuration.
func (c *Config) resolve() error {
	if c.ConnectionString != "" {
		parsed, err := parseConnectionString(c.ConnectionString)
		if err != nil {
			return err
		}
		if c.InstrumentationKey == "" {
			c.InstrumentationKey = parsed[connStrInstrumentationKey]
		}
		if c.Endpoint == "" {
			if base := parsed[connStrIngestionEndpoint]; base != "" {
				c.Endpoint = strings.TrimRight(base, "/") + DefaultIngestionPath
			}
		}
	}
	if c.InstrumentationKey != "" {
		if err := validateInstrumentationKey(c.InstrumentationKey); err != nil {
			return err
		}
	}
	if c.MaxBatchSize > c.QueueCapacity {
		return fmt.Errorf("exporter: max batch size %d exceeds queue capacity %d", c.MaxBatchSize, c.QueueCapacity)
	}
	return nil
}

// parseConnectionString splits "Key=Value;Key=Value" into a map with
// lowercased keys. The ingestion endpoint is derived from EndpointSuffix
// and Location when not given explicitly.
func parseConnectionString(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidConnectionString, s)
		}
		out[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	if auth := out[connStrAuthorization]; auth != "" && !strings.EqualFold(auth, "ikey") {
		return nil, fmt.Errorf("%w: unsupported authorization %q", ErrInvalidConnectionString, auth)
	}
	if out[connStrIngestionEndpoint] == "" {
		if suffix := out[connStrEndpointSuffix]; suffix != "" {
			prefix := ""
			if loc := out[connStrLocation]; loc != "" {
				prefix = loc + "."
			}
			out[connStrIngestionEndpoint] = "https://" + prefix + "dc." + suffix
		}
	}
	return out, nil
}

// validateInstrumentationKey requires the key to be a well-formed UUID.
func validateInstrumentationKey(key string) error {
	if _, err := uuid.Parse(key); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidInstrumentationKey, key)
	}
	return nil
}
