// Package models - Service host configuration and operational settings.
// This file defines the configuration structures for every component of the
// host: the HTTP server, the client roster source, the dispatch pipeline,
// the optional burst guard, logging, metrics and tracing.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping
// - Defaults that work out of the box with no roster at all
// - Validation that catches misconfigurations at startup
package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Roster source constants
const (
	RosterSourceNone     = "none"
	RosterSourceFile     = "file"
	RosterSourceMemory   = "memory"
	RosterSourcePostgres = "postgres"
	RosterSourceSQLite   = "sqlite"
	RosterSourceMongo    = "mongo"
)

// Policies applied when a request claims an identity that cannot be verified.
const (
	RejectPolicyDeny = "deny"
	RejectPolicySkip = "skip"
)

// Config is the root configuration structure containing all host settings.
//
// Configuration Structure:
// - Server: HTTP server and network settings
// - Roster: where the client roster is loaded from and how callers are identified
// - Dispatch: request pipeline behaviour
// - Security: transport-level burst protection
// - Logging, Metrics, Observability: operational visibility
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Roster        RosterConfig        `yaml:"roster" json:"roster"`
	Dispatch      DispatchConfig      `yaml:"dispatch" json:"dispatch"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
}

// RosterConfig selects the roster source and the identification rules.
//
// Source "none" runs the host without a roster: every caller gets an
// unlimited anonymous quota. Any other source makes the roster authoritative,
// and a roster without a default client denies unknown origins.
type RosterConfig struct {
	Source     string `yaml:"source" json:"source"`
	Path       string `yaml:"path" json:"path"`
	DSN        string `yaml:"dsn" json:"dsn"`
	Database   string `yaml:"database" json:"database"`
	Collection string `yaml:"collection" json:"collection"`

	// Authentication overrides the cookie names declared by the roster itself.
	Authentication    AuthenticationConfig `yaml:"authentication" json:"authentication"`
	RejectPolicy      string               `yaml:"reject_policy" json:"reject_policy"`
	TrustProxyHeaders bool                 `yaml:"trust_proxy_headers" json:"trust_proxy_headers"`
}

type AuthenticationConfig struct {
	NameCookie     string `yaml:"name_cookie" json:"name_cookie"`
	PasswordCookie string `yaml:"password_cookie" json:"password_cookie"`
}

type DispatchConfig struct {
	BasePath     string `yaml:"base_path" json:"base_path"`
	ExposeTraces bool   `yaml:"expose_traces" json:"expose_traces"`
}

type SecurityConfig struct {
	BurstLimit BurstLimitConfig `yaml:"burst_limit" json:"burst_limit"`
}

// BurstLimitConfig configures the per-origin token bucket that sits in front
// of the dispatcher. It is independent of the per-client usage quota.
type BurstLimitConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with defaults suitable for local
// development: no roster (unlimited anonymous quota), structured JSON logs,
// Prometheus metrics on a separate port and tracing disabled.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Roster: RosterConfig{
			Source:       RosterSourceNone,
			Collection:   "clients",
			RejectPolicy: RejectPolicyDeny,
		},
		Dispatch: DispatchConfig{
			BasePath: "/services",
		},
		Security: SecurityConfig{
			BurstLimit: BurstLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 600,
				BurstSize:         50,
				CleanupInterval:   5 * time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "xjsf",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Roster.Validate(); err != nil {
		return fmt.Errorf("invalid roster config: %w", err)
	}

	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("invalid dispatch config: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (rc *RosterConfig) Validate() error {
	validSources := []string{
		RosterSourceNone, RosterSourceFile, RosterSourceMemory,
		RosterSourcePostgres, RosterSourceSQLite, RosterSourceMongo,
	}
	if !slices.Contains(validSources, rc.Source) {
		return fmt.Errorf("invalid roster source: %s", rc.Source)
	}

	switch rc.Source {
	case RosterSourceFile:
		if rc.Path == "" {
			return errors.New("path is required for file roster")
		}
	case RosterSourcePostgres, RosterSourceSQLite, RosterSourceMongo:
		if rc.DSN == "" {
			return fmt.Errorf("dsn is required for %s roster", rc.Source)
		}
	}

	if rc.Source == RosterSourceMongo && rc.Database == "" {
		return errors.New("database is required for mongo roster")
	}

	if rc.RejectPolicy != RejectPolicyDeny && rc.RejectPolicy != RejectPolicySkip {
		return fmt.Errorf("invalid reject policy: %s", rc.RejectPolicy)
	}

	if (rc.Authentication.NameCookie == "") != (rc.Authentication.PasswordCookie == "") {
		return errors.New("name_cookie and password_cookie must be set together")
	}

	return nil
}

func (dc *DispatchConfig) Validate() error {
	if !strings.HasPrefix(dc.BasePath, "/") {
		return errors.New("base path must start with /")
	}
	if len(dc.BasePath) > 1 && strings.HasSuffix(dc.BasePath, "/") {
		return errors.New("base path must not end with /")
	}
	return nil
}

func (sec *SecurityConfig) Validate() error {
	if !sec.BurstLimit.Enabled {
		return nil
	}
	if sec.BurstLimit.RequestsPerMinute <= 0 {
		return errors.New("burst limit requests per minute must be positive")
	}
	if sec.BurstLimit.BurstSize <= 0 {
		return errors.New("burst size must be positive")
	}
	if sec.BurstLimit.CleanupInterval <= 0 {
		return errors.New("burst limit cleanup interval must be positive")
	}
	return nil
}

func (lc *LoggingConfig) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, lc.Level) {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	if !slices.Contains([]string{"json", "text"}, lc.Format) {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	if !slices.Contains([]string{"stdout", "stderr", "file"}, lc.Output) {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if !oc.Tracing.Enabled {
		return nil
	}
	if oc.ServiceName == "" {
		return errors.New("service name is required when tracing is enabled")
	}
	switch oc.Tracing.Exporter {
	case "stdout":
	case "otlp":
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("otlp endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("invalid trace exporter: %s", oc.Tracing.Exporter)
	}
	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}
	return nil
}
