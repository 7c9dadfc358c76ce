package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: server.port is read from
// WIRESERVER_SERVER_PORT.
const EnvPrefix = "WIRESERVER"

// Config holds all application configuration.
type Config struct {
	Env        string             `mapstructure:"env" validate:"required,oneof=development production test"`
	Server     ServerConfig       `mapstructure:"server"`
	Limits     LimitsConfig       `mapstructure:"limits"`
	Logging    LoggingConfig      `mapstructure:"logging"`
	Telemetry  TelemetryConfig    `mapstructure:"telemetry"`
	Middleware []MiddlewareConfig `mapstructure:"middleware" validate:"dive"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host" validate:"omitempty,hostname_rfc1123|ip"`
	Port            int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	// MaxConnections caps concurrently accepted connections; 0 is unlimited.
	MaxConnections int `mapstructure:"max_connections" validate:"gte=0"`

	// Workers > 0 serves connections on a fixed worker pool instead of one
	// goroutine each.
	Workers   int  `mapstructure:"workers" validate:"gte=0"`
	ReusePort bool `mapstructure:"reuse_port"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type LimitsConfig struct {
	ReadBufferSize int `mapstructure:"read_buffer_size" validate:"gte=512"`
	MaxHeaders     int `mapstructure:"max_headers" validate:"gt=0"`
	MaxParams      int `mapstructure:"max_params" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
	Output string `mapstructure:"output" validate:"required"` // stdout, stderr or a file path
}

type TelemetryConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name" validate:"required_if=Enabled true"`
	Endpoint       string        `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure       bool          `mapstructure:"insecure"`
	ExportInterval time.Duration `mapstructure:"export_interval" validate:"gte=0"`
}

// MiddlewareConfig names one middleware in the chain. Options are decoded by
// the middleware itself.
type MiddlewareConfig struct {
	Name    string         `mapstructure:"name" validate:"required,oneof=logger request_id cors rate_limiter peer_filter require_header"`
	Options map[string]any `mapstructure:"options"`
}

// Load reads configuration from configPath (optional), WIRESERVER_* env
// variables and defaults, in decreasing precedence, then validates it.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaultKeys(Default()) {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("wire-server")
		v.SetConfigType("yaml")
	}
}

// readConfigFile tolerates a missing default config file, but not a missing
// explicit one.
func readConfigFile(v *viper.Viper, configPath string) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && configPath == "" {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// New loads configuration from the process arguments.
func New() (*Config, error) {
	return FromArgs(os.Args[1:], os.Stderr)
}

// FromArgs parses flags, loads the file named by -config and lets explicitly
// set flags override it.
func FromArgs(args []string, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("wire-server", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		configPath   = fs.String("config", "", "Path to a YAML config file")
		host         = fs.String("host", "", "Listen host")
		port         = fs.Int("port", 8080, "HTTP server port")
		readTimeout  = fs.Duration("read-timeout", 10*time.Second, "Per-connection read timeout")
		writeTimeout = fs.Duration("write-timeout", 10*time.Second, "Per-connection write timeout")
		env          = fs.String("env", "development", "Environment (development/production/test)")
		workers      = fs.Int("workers", 0, "Worker pool size (0 = one goroutine per connection)")
		logLevel     = fs.String("log-level", "INFO", "Log level (DEBUG/INFO/WARN/ERROR)")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := Load(*configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Server.Host = *host
		case "port":
			cfg.Server.Port = *port
		case "read-timeout":
			cfg.Server.ReadTimeout = *readTimeout
		case "write-timeout":
			cfg.Server.WriteTimeout = *writeTimeout
		case "env":
			cfg.Env = *env
		case "workers":
			cfg.Server.Workers = *workers
		case "log-level":
			cfg.Logging.Level = strings.ToUpper(*logLevel)
		}
	})

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
