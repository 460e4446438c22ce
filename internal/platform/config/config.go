package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Client identity modes.
const (
	// IdentityIP keys votes on the requester's address.
	IdentityIP = "ip"
	// IdentityClient keys votes on the client_id sent in the request body.
	IdentityClient = "client"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config mirrors the layout of config.yaml.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Poll     PollConfig     `mapstructure:"poll"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host     string     `mapstructure:"host"`
	Port     int        `mapstructure:"port"`
	Mode     string     `mapstructure:"mode"`
	BasePath string     `mapstructure:"basePath"`
	Cors     CorsConfig `mapstructure:"cors"`

	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
	// is honoured. Empty means the socket peer is always the client.
	TrustedProxies []string `mapstructure:"trustedProxies"`
}

// CorsConfig lists origins allowed to call the API from a browser.
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig selects the relational store and the optional Redis mirror.
type DatabaseConfig struct {
	Driver string      `mapstructure:"driver"`
	DSN    string      `mapstructure:"dsn"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the results mirror. An empty Address disables it.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
	Channel  string `mapstructure:"channel"`
}

// PollConfig holds voting and live-update behaviour.
type PollConfig struct {
	ClientIdentity string        `mapstructure:"clientIdentity"`
	DefaultTitle   string        `mapstructure:"defaultTitle"`
	SendTimeout    time.Duration `mapstructure:"sendTimeout"`
	PingInterval   time.Duration `mapstructure:"pingInterval"`
}

// LogConfig selects slog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RedisEnabled reports whether a Redis address was configured.
func (c DatabaseConfig) RedisEnabled() bool {
	return c.Redis.Address != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.basePath", "/api")
	v.SetDefault("server.cors.allowedOrigins", []string{"*"})
	v.SetDefault("server.trustedProxies", []string{})

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "poll.db")
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.redis.key", "livepoll:results")
	v.SetDefault("database.redis.channel", "livepoll:events")

	v.SetDefault("poll.clientIdentity", IdentityIP)
	v.SetDefault("poll.defaultTitle", "Live Poll")
	v.SetDefault("poll.sendTimeout", 5*time.Second)
	v.SetDefault("poll.pingInterval", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load builds the configuration from, in increasing priority: defaults,
// config.yaml, a .env file, the environment and command-line flags.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("livepoll", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to a config file")
	envFile := fs.String("env-file", ".env", "path to a .env file")
	fs.IntP("port", "p", 0, "HTTP port")
	fs.String("host", "", "HTTP host")
	fs.String("db-driver", "", "database driver (sqlite or postgres)")
	fs.StringP("db-dsn", "d", "", "database DSN or SQLite file")
	fs.String("redis-addr", "", "Redis address for the results mirror")
	fs.String("log-level", "", "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if _, err := os.Stat(*envFile); err == nil {
		if err := godotenv.Load(*envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", *envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	bindings := map[string]string{
		"server.port":            "port",
		"server.host":            "host",
		"database.driver":        "db-driver",
		"database.dsn":           "db-dsn",
		"database.redis.address": "redis-addr",
		"log.level":              "log-level",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch c.Poll.ClientIdentity {
	case IdentityIP, IdentityClient:
	default:
		return fmt.Errorf("unknown poll.clientIdentity %q", c.Poll.ClientIdentity)
	}
	if c.Poll.SendTimeout <= 0 {
		return errors.New("poll.sendTimeout must be positive")
	}
	if c.Poll.PingInterval <= 0 {
		return errors.New("poll.pingInterval must be positive")
	}
	return nil
}
