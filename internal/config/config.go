// Package config loads and validates application configuration.
package config

import "time"

// Config holds all application configuration, organized into logical
// groups.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"      validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"    validate:"required"`
	Auth        AuthConfig        `mapstructure:"auth"        validate:"required"`
	Printer     PrinterConfig     `mapstructure:"printer"     validate:"required"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance" validate:"required"`
}

// ServerConfig contains server-related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication and authorization settings,
// including the bootstrap superadmin principal which exists only in
// configuration, never in the users table.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	SuperadminEmail             string `mapstructure:"superadmin_email"               validate:"required,email"`
	SuperadminPassword          string `mapstructure:"superadmin_password"            validate:"required,min=8"`
}

// PrinterConfig selects and configures the printing backend.
type PrinterConfig struct {
	// Type is the printer backend: "pdf" or "usb".
	Type string `mapstructure:"type" validate:"required,oneof=pdf usb"`
	// OutputDir is where the pdf backend writes documents.
	OutputDir string `mapstructure:"output_dir" validate:"required_if=Type pdf"`
	// DevicePath is the usb backend's character device.
	DevicePath string `mapstructure:"device_path" validate:"required_if=Type usb"`
}

// MaintenanceConfig tunes the periodic maintenance job.
type MaintenanceConfig struct {
	IntervalMinutes     int `mapstructure:"interval_minutes"      validate:"required,gt=0"`
	RetentionHours      int `mapstructure:"retention_hours"       validate:"required,gt=0"`
	LookaheadHours      int `mapstructure:"lookahead_hours"       validate:"required,gt=0"`
	PrintTimeoutSeconds int `mapstructure:"print_timeout_seconds" validate:"required,gt=0"`
}

// Interval returns the pause between maintenance runs.
func (c MaintenanceConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Retention returns the age after which completed tasks are archived.
func (c MaintenanceConfig) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// Lookahead returns the due-soon window for auto-starting tasks.
func (c MaintenanceConfig) Lookahead() time.Duration {
	return time.Duration(c.LookaheadHours) * time.Hour
}

// PrintTimeout bounds a single printer invocation.
func (c MaintenanceConfig) PrintTimeout() time.Duration {
	return time.Duration(c.PrintTimeoutSeconds) * time.Second
}
