package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// sample mirrors Config with yaml tags and durations rendered as strings
// ("10s") so the written file reads the way people write it by hand.
type sample struct {
	Env    string `yaml:"env"`
	Server struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		MaxConnections  int    `yaml:"max_connections"`
		Workers         int    `yaml:"workers"`
		ReusePort       bool   `yaml:"reuse_port"`
	} `yaml:"server"`
	Limits struct {
		ReadBufferSize int `yaml:"read_buffer_size"`
		MaxHeaders     int `yaml:"max_headers"`
		MaxParams      int `yaml:"max_params"`
	} `yaml:"limits"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Telemetry struct {
		Enabled        bool   `yaml:"enabled"`
		ServiceName    string `yaml:"service_name"`
		Endpoint       string `yaml:"endpoint"`
		Insecure       bool   `yaml:"insecure"`
		ExportInterval string `yaml:"export_interval"`
	} `yaml:"telemetry"`
	Middleware []sampleMiddleware `yaml:"middleware"`
}

type sampleMiddleware struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

func toSample(cfg *Config) sample {
	var s sample
	s.Env = cfg.Env

	s.Server.Host = cfg.Server.Host
	s.Server.Port = cfg.Server.Port
	s.Server.ReadTimeout = cfg.Server.ReadTimeout.String()
	s.Server.WriteTimeout = cfg.Server.WriteTimeout.String()
	s.Server.ShutdownTimeout = cfg.Server.ShutdownTimeout.String()
	s.Server.MaxConnections = cfg.Server.MaxConnections
	s.Server.Workers = cfg.Server.Workers
	s.Server.ReusePort = cfg.Server.ReusePort

	s.Limits.ReadBufferSize = cfg.Limits.ReadBufferSize
	s.Limits.MaxHeaders = cfg.Limits.MaxHeaders
	s.Limits.MaxParams = cfg.Limits.MaxParams

	s.Logging.Level = cfg.Logging.Level
	s.Logging.Format = cfg.Logging.Format
	s.Logging.Output = cfg.Logging.Output

	s.Telemetry.Enabled = cfg.Telemetry.Enabled
	s.Telemetry.ServiceName = cfg.Telemetry.ServiceName
	s.Telemetry.Endpoint = cfg.Telemetry.Endpoint
	s.Telemetry.Insecure = cfg.Telemetry.Insecure
	s.Telemetry.ExportInterval = cfg.Telemetry.ExportInterval.String()

	s.Middleware = make([]sampleMiddleware, 0, len(cfg.Middleware))
	for _, mw := range cfg.Middleware {
		s.Middleware = append(s.Middleware, sampleMiddleware{Name: mw.Name, Options: mw.Options})
	}
	return s
}

// SampleConfig returns the default configuration with a request logger and
// request IDs enabled.
func SampleConfig() *Config {
	cfg := Default()
	cfg.Middleware = []MiddlewareConfig{
		{Name: "request_id", Options: map[string]any{}},
		{Name: "logger", Options: map[string]any{}},
	}
	return cfg
}

// Marshal renders cfg as YAML that Load accepts.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(toSample(cfg))
}

// WriteSample writes SampleConfig to path. An existing file is only
// replaced when force is set.
func WriteSample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use force to overwrite)", path)
		}
	}

	data, err := Marshal(SampleConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal sample config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	header := []byte("# wire-server configuration\n# Every key can be overridden with " + EnvPrefix + "_<SECTION>_<KEY>.\n\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
