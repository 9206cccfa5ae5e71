package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Probe modes for the datastore and cache checks.
const (
	ModeCommand = "command"
	ModeDriver  = "driver"
)

// Config is the root configuration for devstart.
type Config struct {
	Env       EnvConfig       `mapstructure:"env"`
	PathFix   PathFixConfig   `mapstructure:"pathfix"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Probe     ProbeConfig     `mapstructure:"probe"`
	Launch    LaunchConfig    `mapstructure:"launch"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Compose   ComposeConfig   `mapstructure:"compose"`
	Migrate   MigrateConfig   `mapstructure:"migrate"`
}

// EnvConfig describes the isolated runtime marker and the application .env file.
type EnvConfig struct {
	Marker   string `mapstructure:"marker"`
	File     string `mapstructure:"file"`
	Template string `mapstructure:"template"`
	Strict   bool   `mapstructure:"strict"`
}

// PathFixConfig lists directories prepended to PATH on one OS family so that
// the database client binaries are discoverable.
type PathFixConfig struct {
	GOOS string   `mapstructure:"goos"`
	Dirs []string `mapstructure:"dirs"`
}

type PostgresConfig struct {
	Client     string `mapstructure:"client"`
	Database   string `mapstructure:"database"`
	ProbeQuery string `mapstructure:"probe_query"`
	Mode       string `mapstructure:"mode"`
	URL        string `mapstructure:"url"`
	MaxConns   int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Client string `mapstructure:"client"`
	Mode   string `mapstructure:"mode"`
	URL    string `mapstructure:"url"`
}

type ProbeConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LaunchConfig holds the fixed arguments handed to the web server launcher.
type LaunchConfig struct {
	Binary     string `mapstructure:"binary"`
	App        string `mapstructure:"app"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Reload     bool   `mapstructure:"reload"`
	PythonPath string `mapstructure:"pythonpath"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	ServiceName  string `mapstructure:"service_name"`
	LogLevel     string `mapstructure:"log_level"`
}

type ComposeConfig struct {
	File     string               `mapstructure:"file"`
	Postgres ComposeServiceConfig `mapstructure:"postgres"`
	Redis    ComposeServiceConfig `mapstructure:"redis"`
	// Credentials seeded into the postgres container.
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type ComposeServiceConfig struct {
	Image    string        `mapstructure:"image"`
	Port     int           `mapstructure:"port"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
}

type MigrateConfig struct {
	Table string `mapstructure:"table"`
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the DEVSTART_ prefix (e.g. DEVSTART_LAUNCH_PORT).
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("DEVSTART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	for name, mode := range map[string]string{"postgres.mode": c.Postgres.Mode, "redis.mode": c.Redis.Mode} {
		if mode != ModeCommand && mode != ModeDriver {
			return fmt.Errorf("%s must be %q or %q, got %q", name, ModeCommand, ModeDriver, mode)
		}
	}
	if c.Launch.Port <= 0 || c.Launch.Port > 65535 {
		return fmt.Errorf("launch.port out of range: %d", c.Launch.Port)
	}
	if c.Env.Marker == "" {
		return fmt.Errorf("env.marker must not be empty")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env.marker", "VIRTUAL_ENV")
	v.SetDefault("env.file", ".env")
	v.SetDefault("env.template", ".env.example")
	v.SetDefault("env.strict", false)

	v.SetDefault("pathfix.goos", "darwin")
	v.SetDefault("pathfix.dirs", []string{"/opt/homebrew/opt/libpq/bin"})

	v.SetDefault("postgres.client", "psql")
	v.SetDefault("postgres.database", "journal_db")
	v.SetDefault("postgres.probe_query", "SELECT 1")
	v.SetDefault("postgres.mode", ModeCommand)
	v.SetDefault("postgres.url", "")
	v.SetDefault("postgres.max_conns", 2)

	v.SetDefault("redis.client", "redis-cli")
	v.SetDefault("redis.mode", ModeCommand)
	v.SetDefault("redis.url", "")

	v.SetDefault("probe.timeout", 10*time.Second)

	v.SetDefault("launch.binary", "uvicorn")
	v.SetDefault("launch.app", "app.main:app")
	v.SetDefault("launch.host", "0.0.0.0")
	v.SetDefault("launch.port", 8000)
	v.SetDefault("launch.reload", true)
	v.SetDefault("launch.pythonpath", "")

	v.SetDefault("server.port", 8081)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.service_name", "devstart")
	v.SetDefault("telemetry.log_level", "warn")

	v.SetDefault("compose.file", "docker-compose.yml")
	v.SetDefault("compose.user", "postgres")
	v.SetDefault("compose.password", "postgres")
	v.SetDefault("compose.postgres.image", "postgres:15-alpine")
	v.SetDefault("compose.postgres.port", 5432)
	v.SetDefault("compose.postgres.interval", 10*time.Second)
	v.SetDefault("compose.postgres.timeout", 5*time.Second)
	v.SetDefault("compose.postgres.retries", 5)
	v.SetDefault("compose.redis.image", "redis:7-alpine")
	v.SetDefault("compose.redis.port", 6379)
	v.SetDefault("compose.redis.interval", 10*time.Second)
	v.SetDefault("compose.redis.timeout", 5*time.Second)
	v.SetDefault("compose.redis.retries", 5)

	v.SetDefault("migrate.table", "schema_migrations")
}
