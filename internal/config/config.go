// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Security SecurityConfig  `mapstructure:"security"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Queue    QueueConfig     `mapstructure:"queue"`
	Receipt  ReceiptConfig   `mapstructure:"receipt"`
	Printers []PrinterConfig `mapstructure:"printers"`
	Session  SessionConfig   `mapstructure:"session"`
	App      AppConfig       `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AuthEnabled    bool     `mapstructure:"auth_enabled"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
	JWTIssuer      string   `mapstructure:"jwt_issuer"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// QueueConfig controls connection polling and task execution bounds
type QueueConfig struct {
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	MaxConnectAttempts int           `mapstructure:"max_connect_attempts"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	TaskTimeout        time.Duration `mapstructure:"task_timeout"`
}

// ReceiptConfig controls receipt layout
type ReceiptConfig struct {
	Title           string `mapstructure:"title"`
	PrintWidth      int    `mapstructure:"print_width"`
	CurrencySymbol  string `mapstructure:"currency_symbol"`
	GapSymbol       string `mapstructure:"gap_symbol"`
	ShowBreakdown   bool   `mapstructure:"show_breakdown"`
	ShowCreatedAt   bool   `mapstructure:"show_created_at"`
	BoxInstructions bool   `mapstructure:"box_instructions"`
}

// PrinterConfig declares one physical printer
type PrinterConfig struct {
	Target           string                 `mapstructure:"target"`
	Name             string                 `mapstructure:"name"`
	Driver           string                 `mapstructure:"driver"`
	ConnectionType   string                 `mapstructure:"connection_type"`
	ConnectionConfig map[string]interface{} `mapstructure:"connection_config"`
	Options          map[string]interface{} `mapstructure:"options"`
	StatusInterval   time.Duration          `mapstructure:"status_interval"`
}

// SessionConfig represents printer session configuration
type SessionConfig struct {
	DefaultPrinter string `mapstructure:"default_printer"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// Load loads configuration from file and environment variables. Extra search
// paths are consulted before the defaults. A missing config file is not an
// error; defaults and environment apply.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/order-printer")

	v.SetEnvPrefix("ORDER_PRINTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	applyPrinterDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8084")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")

	// Security defaults
	v.SetDefault("security.auth_enabled", false)
	v.SetDefault("security.jwt_issuer", "order-printer")
	v.SetDefault("security.allowed_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Queue defaults
	v.SetDefault("queue.poll_interval", "500ms")
	v.SetDefault("queue.max_connect_attempts", 10)
	v.SetDefault("queue.connect_timeout", "15s")
	v.SetDefault("queue.task_timeout", "60s")

	// Receipt defaults
	v.SetDefault("receipt.title", "ORDER RECEIPT")
	v.SetDefault("receipt.print_width", 48)
	v.SetDefault("receipt.currency_symbol", "$")
	v.SetDefault("receipt.gap_symbol", ".")
	v.SetDefault("receipt.show_breakdown", true)
	v.SetDefault("receipt.show_created_at", false)
	v.SetDefault("receipt.box_instructions", false)

	// App defaults
	v.SetDefault("app.name", "order-printer")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
}

func applyPrinterDefaults(cfg *Config) {
	for i := range cfg.Printers {
		p := &cfg.Printers[i]
		if p.Driver == "" {
			p.Driver = "escpos"
		}
		if p.Name == "" {
			p.Name = p.Target
		}
		if p.StatusInterval == 0 {
			p.StatusInterval = 5 * time.Second
		}
		if p.ConnectionConfig == nil {
			p.ConnectionConfig = map[string]interface{}{}
		}
		if p.Options == nil {
			p.Options = map[string]interface{}{}
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if cfg.Security.AuthEnabled && cfg.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required when auth is enabled")
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	if !contains(validEnvs, cfg.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	if cfg.Queue.PollInterval <= 0 {
		return fmt.Errorf("queue.poll_interval must be positive")
	}
	if cfg.Queue.MaxConnectAttempts < 1 {
		return fmt.Errorf("queue.max_connect_attempts must be at least 1")
	}
	if cfg.Receipt.PrintWidth < 16 {
		return fmt.Errorf("receipt.print_width must be at least 16")
	}
	if len([]rune(cfg.Receipt.GapSymbol)) != 1 {
		return fmt.Errorf("receipt.gap_symbol must be a single character")
	}

	seen := make(map[string]bool, len(cfg.Printers))
	for i, p := range cfg.Printers {
		if p.Target == "" {
			return fmt.Errorf("printers[%d].target is required", i)
		}
		if seen[p.Target] {
			return fmt.Errorf("printers[%d].target %q is duplicated", i, p.Target)
		}
		seen[p.Target] = true

		switch p.Driver {
		case "escpos":
			if p.ConnectionType == "" {
				return fmt.Errorf("printers[%d].connection_type is required for escpos", i)
			}
		case "preview":
		default:
			return fmt.Errorf("printers[%d].driver %q is not supported", i, p.Driver)
		}
	}

	if d := cfg.Session.DefaultPrinter; d != "" && !seen[d] {
		return fmt.Errorf("session.default_printer %q is not a configured printer", d)
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// Printer returns the printer declared with the given target
func (c *Config) Printer(target string) (PrinterConfig, bool) {
	for _, p := range c.Printers {
		if p.Target == target {
			return p, true
		}
	}
	return PrinterConfig{}, false
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
