package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables (TASKDECK_ prefix,
// underscores for nesting, e.g. TASKDECK_DATABASE_URL) and an optional
// config.yaml in the working directory. Environment variables take
// precedence. The result is validated before being returned.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TASKDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults apply.
	}

	// AutomaticEnv does not make nested keys visible to Unmarshal unless
	// they are bound explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"database.url",
		"auth.jwt_secret",
		"auth.token_lifetime_minutes",
		"auth.refresh_token_lifetime_minutes",
		"auth.superadmin_email",
		"auth.superadmin_password",
		"printer.type",
		"printer.output_dir",
		"printer.device_path",
		"maintenance.interval_minutes",
		"maintenance.retention_hours",
		"maintenance.lookahead_hours",
		"maintenance.print_timeout_seconds",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values for everything that has a sane
// one. Secrets deliberately have no default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 30)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 7*24*60)

	v.SetDefault("printer.type", "pdf")
	v.SetDefault("printer.output_dir", "output/pdf")
	v.SetDefault("printer.device_path", "/dev/usb/lp0")

	v.SetDefault("maintenance.interval_minutes", 60)
	v.SetDefault("maintenance.retention_hours", 7*24)
	v.SetDefault("maintenance.lookahead_hours", 6)
	v.SetDefault("maintenance.print_timeout_seconds", 30)
}
