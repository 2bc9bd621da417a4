// Package config carries the process configuration of the file server.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// ServerConfig is the whole configuration of the server. Values come from
// AUDITSERVE_* environment variables (a .env file is honored in main) and
// may be overridden by command-line flags before validation.
type ServerConfig struct {
	// Port is the TCP port the file server binds on all interfaces.
	Port int `env:"AUDITSERVE_PORT" env-default:"8000" validate:"min=1,max=65535"`

	// Root is the directory tree being served.
	Root string `env:"AUDITSERVE_ROOT" env-default:"." validate:"required,dir"`

	// MetricsPort is the port of the Prometheus endpoint, 0 disables it.
	MetricsPort int `env:"AUDITSERVE_METRICS_PORT" env-default:"9090" validate:"min=0,max=65535"`

	// ETags enables the persistent content fingerprint store.
	ETags bool `env:"AUDITSERVE_ETAGS" env-default:"true"`

	// DataDir is where the fingerprint database lives.
	DataDir string `env:"AUDITSERVE_DATA_DIR" env-default:".auditserve" validate:"required"`

	// Verbose logs every request.
	Verbose bool `env:"AUDITSERVE_VERBOSE" env-default:"false"`
}

// ReadServerConfig reads the configuration from the environment. Validation
// is deferred to Validate so that flag overrides can be applied first.
func ReadServerConfig() (*ServerConfig, error) {
	var config ServerConfig
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &config, nil
}

// Validate checks the configuration after all sources have been applied.
func (c *ServerConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}
