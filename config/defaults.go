package config

import (
	"strings"
	"time"
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields. Explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	applyServerDefaults(&cfg.Server)
	applyLimitsDefaults(&cfg.Limits)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)

	for i := range cfg.Middleware {
		if cfg.Middleware[i].Options == nil {
			cfg.Middleware[i].Options = make(map[string]any)
		}
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLimitsDefaults(cfg *LimitsConfig) {
	if cfg.ReadBufferSize == 0 {
		cfg.ReadBufferSize = 100 * 1024
	}
	if cfg.MaxHeaders == 0 {
		cfg.MaxHeaders = 1000
	}
	if cfg.MaxParams == 0 {
		cfg.MaxParams = 1024
	}
}

// applyLoggingDefaults sets logging defaults and normalizes the level.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "wire-server"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.ExportInterval == 0 {
		cfg.ExportInterval = 15 * time.Second
	}
}

// defaultKeys flattens cfg into viper keys so every setting can be
// overridden from the environment, even when absent from the file.
func defaultKeys(cfg *Config) map[string]any {
	return map[string]any{
		"env":                       cfg.Env,
		"server.host":               cfg.Server.Host,
		"server.port":               cfg.Server.Port,
		"server.read_timeout":       cfg.Server.ReadTimeout,
		"server.write_timeout":      cfg.Server.WriteTimeout,
		"server.shutdown_timeout":   cfg.Server.ShutdownTimeout,
		"server.max_connections":    cfg.Server.MaxConnections,
		"server.workers":            cfg.Server.Workers,
		"server.reuse_port":         cfg.Server.ReusePort,
		"limits.read_buffer_size":   cfg.Limits.ReadBufferSize,
		"limits.max_headers":        cfg.Limits.MaxHeaders,
		"limits.max_params":         cfg.Limits.MaxParams,
		"logging.level":             cfg.Logging.Level,
		"logging.format":            cfg.Logging.Format,
		"logging.output":            cfg.Logging.Output,
		"telemetry.enabled":         cfg.Telemetry.Enabled,
		"telemetry.service_name":    cfg.Telemetry.ServiceName,
		"telemetry.endpoint":        cfg.Telemetry.Endpoint,
		"telemetry.insecure":        cfg.Telemetry.Insecure,
		"telemetry.export_interval": cfg.Telemetry.ExportInterval,
	}
}
