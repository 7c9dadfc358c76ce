package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate = validator.New()

// Validate checks struct tags, then the rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if cfg.Server.ReadTimeout == 0 && cfg.Env == "production" {
		return fmt.Errorf("server.read_timeout: must be set in production")
	}

	if cfg.Telemetry.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Telemetry.Endpoint); err != nil {
			return fmt.Errorf("telemetry.endpoint: %q is not host:port", cfg.Telemetry.Endpoint)
		}
	}

	for i, mw := range cfg.Middleware {
		if mw.Name == "require_header" {
			if h, _ := mw.Options["header"].(string); h == "" {
				return fmt.Errorf("middleware[%d]: require_header needs options.header", i)
			}
		}
	}
	return nil
}

// formatValidationError reports the first failing field.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
