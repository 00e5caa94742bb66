package main

import (
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const (
	defaultAcquireTimeout = 30 * time.Second
	defaultMySQLPort      = 3306
	defaultPostgresPort   = 5432
)

// Config is the startup configuration. It is built once by LoadConfig and
// never changes afterwards.
type Config struct {
	Driver                string        `yaml:"driver" validate:"oneof=mysql postgres sqlite"`
	Host                  string        `yaml:"host" validate:"required_unless=Driver sqlite"`
	Port                  int           `yaml:"port" validate:"min=0,max=65535"`
	Username              string        `yaml:"username" validate:"required_unless=Driver sqlite"`
	Password              string        `yaml:"password"`
	Database              string        `yaml:"database" validate:"required"`
	AllowDangerousQueries bool          `yaml:"allow_dangerous_queries"`
	ConnectOnStart        bool          `yaml:"connect_on_start"`
	AcquireTimeout        time.Duration `yaml:"acquire_timeout" validate:"min=0"`
	LogLevel              string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat             string        `yaml:"log_format" validate:"oneof=text json"`
	MetricsAddr           string        `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

func DefaultConfig() *Config {
	return &Config{
		Driver:         "mysql",
		Host:           "localhost",
		AcquireTimeout: defaultAcquireTimeout,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json/yaml names so messages match what the operator typed.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "yaml"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// LoadConfig layers defaults, an optional YAML file, environment variables and
// command-line flags, in increasing order of precedence.
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("mysql-mcp-go", flag.ContinueOnError)

	configPath := fs.String("config", "", "Path to a YAML configuration file")
	driver := fs.String("driver", "", "Database driver: mysql, postgres or sqlite")
	host := fs.String("host", "", "Database host")
	port := fs.Int("port", 0, "Database port")
	username := fs.String("username", "", "Database username")
	password := fs.String("password", "", "Database password")
	database := fs.String("database", "", "Database name (file path for sqlite)")
	allowDangerous := fs.Bool("allow-dangerous-queries", false, "Allow non-SELECT statements in the query tool")
	connectOnStart := fs.Bool("connect-on-start", false, "Connect before the first initialize request")
	acquireTimeout := fs.Duration("acquire-timeout", 0, "Maximum wait for a pooled connection")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "Log format: text or json")
	metricsAddr := fs.String("metrics-addr", "", "Address for the Prometheus metrics endpoint (disabled when empty)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// Only flags given explicitly override the lower layers.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Driver = *driver
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "username":
			cfg.Username = *username
		case "password":
			cfg.Password = *password
		case "database":
			cfg.Database = *database
		case "allow-dangerous-queries":
			cfg.AllowDangerousQueries = *allowDangerous
		case "connect-on-start":
			cfg.ConnectOnStart = *connectOnStart
		case "acquire-timeout":
			cfg.AcquireTimeout = *acquireTimeout
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Driver = getEnv("DB_DRIVER", c.Driver)
	c.Host = getEnv("MYSQL_HOST", c.Host)
	c.Username = getEnv("MYSQL_USER", c.Username)
	c.Password = getEnv("MYSQL_PASSWORD", c.Password)
	c.Database = getEnv("MYSQL_DATABASE", c.Database)
	c.LogLevel = getEnv("MCP_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("MCP_LOG_FORMAT", c.LogFormat)
	c.MetricsAddr = getEnv("MCP_METRICS_ADDR", c.MetricsAddr)

	var err error
	if c.Port, err = getEnvInt("MYSQL_PORT", c.Port); err != nil {
		return err
	}
	if c.AllowDangerousQueries, err = getEnvBool("MCP_ALLOW_DANGEROUS_QUERIES", c.AllowDangerousQueries); err != nil {
		return err
	}
	if c.ConnectOnStart, err = getEnvBool("MCP_CONNECT_ON_START", c.ConnectOnStart); err != nil {
		return err
	}
	if value := os.Getenv("MCP_ACQUIRE_TIMEOUT"); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for MCP_ACQUIRE_TIMEOUT: %q", value)
		}
		c.AcquireTimeout = d
	}
	return nil
}

// ConnectionString builds the fallback connection string used when
// initialize does not carry an override.
func (c *Config) ConnectionString() string {
	switch c.Driver {
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.Username, c.Password),
			Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.portOr(defaultPostgresPort))),
			Path:     "/" + c.Database,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	case "sqlite":
		return "sqlite://" + c.Database
	default:
		mc := mysql.NewConfig()
		mc.User = c.Username
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.portOr(defaultMySQLPort)))
		mc.DBName = c.Database
		return mc.FormatDSN()
	}
}

func (c *Config) portOr(fallback int) int {
	if c.Port == 0 {
		return fallback
	}
	return c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %q", key, value)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s: %q", key, value)
	}
	return b, nil
}
