package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	defaultServiceName    = "posture-report"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8095
	defaultDBHost         = "localhost"
	defaultDBPort         = 5432
	defaultDBUser         = "postgres"
	defaultDBName         = "posture_report"
	defaultDBSSLMode      = "disable"
	defaultDBMaxConns     = 25
	defaultDBMaxIdle      = 5
	defaultDBConnLifeM    = 5
	defaultMaxRetries     = 3
	defaultTimeoutSec     = 30
	defaultReportDir      = "reports_generated"
	defaultLogLevel       = "info"
)

// Deployment types accepted by the platform API.
const (
	DeploymentOnPrem = "On-Prem"
	DeploymentSaaS   = "SaaS"
)

// Config holds the application configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Platform PlatformConfig `yaml:"platform"`
	Usage    UsageConfig    `yaml:"usage"`
	Database DatabaseConfig `yaml:"database"`
	Reports  ReportsConfig  `yaml:"reports"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig holds service configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"POSTURE_REPORT_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"           yaml:"debug"`
}

// PlatformConfig holds the analytics platform API configuration.
type PlatformConfig struct {
	URL        string        `env:"PLATFORM_URL"        yaml:"url"`
	Username   string        `env:"PLATFORM_USER"       yaml:"username"`
	APIKey     string        `env:"PLATFORM_API_KEY"    yaml:"api_key"`
	Deployment string        `env:"PLATFORM_DEPLOYMENT" yaml:"deployment"`
	OrgID      string        `env:"PLATFORM_ORG_ID"     yaml:"org_id"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
	Insecure   bool          `yaml:"insecure"`
}

// UsageConfig holds the organization-usage service configuration
// (hosted deployments only).
type UsageConfig struct {
	Host     string `env:"USAGE_SERVICE_HOST" yaml:"host"`
	CertFile string `env:"USAGE_CERT_FILE"    yaml:"cert_file"`
	KeyFile  string `env:"USAGE_KEY_FILE"     yaml:"key_file"`
}

// DatabaseConfig holds the report-run registry database configuration.
type DatabaseConfig struct {
	Host                  string        `env:"POSTGRES_POSTURE_HOST"     yaml:"host"`
	Port                  int           `env:"POSTGRES_POSTURE_PORT"     yaml:"port"`
	User                  string        `env:"POSTGRES_POSTURE_USER"     yaml:"user"`
	Password              string        `env:"POSTGRES_POSTURE_PASSWORD" yaml:"password"`
	Database              string        `env:"POSTGRES_POSTURE_DB"       yaml:"database"`
	SSLMode               string        `yaml:"sslmode"`
	MaxConnections        int           `yaml:"max_connections"`
	MaxIdleConns          int           `yaml:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// ReportsConfig holds report output configuration.
type ReportsConfig struct {
	Dir string `env:"REPORTS_DIR" yaml:"dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" yaml:"level"`
}

// Load loads configuration from a YAML file, applies defaults, then
// re-applies environment overrides (env always wins).
func Load(path string) (*Config, error) {
	var cfg Config
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setPlatformDefaults(&cfg.Platform)
	setDatabaseDefaults(&cfg.Database)
	if cfg.Reports.Dir == "" {
		cfg.Reports.Dir = defaultReportDir
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
}

func setPlatformDefaults(p *PlatformConfig) {
	if p.Deployment == "" {
		p.Deployment = DeploymentOnPrem
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = defaultMaxRetries
	}
	if p.Timeout == 0 {
		p.Timeout = defaultTimeoutSec * time.Second
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdle
	}
	if d.ConnectionMaxLifetime == 0 {
		d.ConnectionMaxLifetime = defaultDBConnLifeM * time.Minute
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if c.Platform.URL == "" {
		return &ValidationError{Field: "platform.url", Message: "is required"}
	}
	if c.Platform.Deployment != DeploymentOnPrem && c.Platform.Deployment != DeploymentSaaS {
		return &ValidationError{
			Field:   "platform.deployment",
			Message: fmt.Sprintf("must be %q or %q", DeploymentOnPrem, DeploymentSaaS),
		}
	}
	if c.Platform.Deployment == DeploymentSaaS && c.Platform.OrgID == "" {
		return &ValidationError{Field: "platform.org_id", Message: "is required for SaaS deployments"}
	}
	return nil
}
