package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"xjsf/internal/models"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

var knownSections = []string{
	"server", "roster", "dispatch", "security", "logging", "metrics", "observability",
}

// warnUnknownKeys logs a warning for each top-level section the decoder will
// ignore. Startup continues either way.
func warnUnknownKeys(data []byte) {
	var top map[string]any
	if err := yaml.Unmarshal(data, &top); err != nil {
		return
	}
	for key := range top {
		if !slices.Contains(knownSections, key) {
			slog.Warn("Ignoring unknown config section", "config_key", key)
		}
	}
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	warnUnknownKeys(data)
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		*dst = strings.ToLower(v) == "true"
	}
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// loadFromEnvironment overlays XJSF_* environment variables
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	envInt("XJSF_PORT", &config.Server.Port)
	envString("XJSF_HOST", &config.Server.Host)
	envDuration("XJSF_READ_TIMEOUT", &config.Server.ReadTimeout)
	envDuration("XJSF_WRITE_TIMEOUT", &config.Server.WriteTimeout)
	envDuration("XJSF_IDLE_TIMEOUT", &config.Server.IdleTimeout)
	envBool("XJSF_TLS_ENABLED", &config.Server.TLSEnabled)
	envString("XJSF_TLS_CERT_FILE", &config.Server.TLSCertFile)
	envString("XJSF_TLS_KEY_FILE", &config.Server.TLSKeyFile)

	// Roster configuration
	envString("XJSF_ROSTER_SOURCE", &config.Roster.Source)
	envString("XJSF_ROSTER_PATH", &config.Roster.Path)
	envString("XJSF_ROSTER_DSN", &config.Roster.DSN)
	envString("XJSF_ROSTER_DATABASE", &config.Roster.Database)
	envString("XJSF_ROSTER_COLLECTION", &config.Roster.Collection)
	envString("XJSF_NAME_COOKIE", &config.Roster.Authentication.NameCookie)
	envString("XJSF_PASSWORD_COOKIE", &config.Roster.Authentication.PasswordCookie)
	envString("XJSF_REJECT_POLICY", &config.Roster.RejectPolicy)
	envBool("XJSF_TRUST_PROXY_HEADERS", &config.Roster.TrustProxyHeaders)

	// Dispatch configuration
	envString("XJSF_BASE_PATH", &config.Dispatch.BasePath)
	envBool("XJSF_EXPOSE_TRACES", &config.Dispatch.ExposeTraces)

	// Burst guard
	envBool("XJSF_BURST_LIMIT_ENABLED", &config.Security.BurstLimit.Enabled)
	envInt("XJSF_BURST_LIMIT_RPM", &config.Security.BurstLimit.RequestsPerMinute)
	envInt("XJSF_BURST_LIMIT_SIZE", &config.Security.BurstLimit.BurstSize)
	envDuration("XJSF_BURST_LIMIT_CLEANUP_INTERVAL", &config.Security.BurstLimit.CleanupInterval)

	// Logging configuration
	envString("XJSF_LOG_LEVEL", &config.Logging.Level)
	envString("XJSF_LOG_FORMAT", &config.Logging.Format)
	envString("XJSF_LOG_OUTPUT", &config.Logging.Output)
	envString("XJSF_LOG_FILE_PATH", &config.Logging.FilePath)

	// Metrics configuration
	envBool("XJSF_METRICS_ENABLED", &config.Metrics.Enabled)
	envString("XJSF_METRICS_PATH", &config.Metrics.Path)
	envInt("XJSF_METRICS_PORT", &config.Metrics.Port)

	// Tracing configuration
	envString("XJSF_SERVICE_NAME", &config.Observability.ServiceName)
	envBool("XJSF_TRACING_ENABLED", &config.Observability.Tracing.Enabled)
	envString("XJSF_TRACING_EXPORTER", &config.Observability.Tracing.Exporter)
	envString("XJSF_OTLP_ENDPOINT", &config.Observability.Tracing.OTLPEndpoint)
	if rate := os.Getenv("XJSF_TRACING_SAMPLE_RATE"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Observability.Tracing.SampleRate = r
		}
	}
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()

	config.Roster.Source = models.RosterSourceFile
	config.Roster.Path = "./clients.xml"
	config.Roster.Authentication = models.AuthenticationConfig{
		NameCookie:     "xjsf_user",
		PasswordCookie: "xjsf_pass",
	}

	config.Server.TLSCertFile = "/path/to/cert.pem"
	config.Server.TLSKeyFile = "/path/to/key.pem"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
