package trace

import "fmt"

// DefaultServiceName is used when no service name is configured.
const DefaultServiceName = "unknown-service"

// Config defines the configuration structure for the span recorder.
type Config struct {
	// ServiceName identifies the traced service. It is attached to every
	// exported batch as the "service.name" resource attribute.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "service_name" key
	//   - Environment variable TRACER_SERVICE_NAME
	//
	// Default: "unknown-service"
	ServiceName string `yaml:"service_name" envconfig:"TRACER_SERVICE_NAME"`

	// AppEnv names the deployment environment (e.g. "production",
	// "staging"). Attached as the "deployment.environment" resource
	// attribute.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "app_env" key
	//   - Environment variable TRACER_APP_ENV
	AppEnv string `yaml:"app_env" envconfig:"TRACER_APP_ENV"`
}

func (c *Config) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
}

// Validate reports configuration errors. Surfaced at initialization only;
// a running tracer never fails on configuration.
func (c Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("trace: service name must not be empty")
	}
	return nil
}
