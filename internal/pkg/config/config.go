package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/core/usecases"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Flow      FlowConfig      `mapstructure:"flow"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// FlowConfig tunes gate analyses.
type FlowConfig struct {
	Workers     int          `mapstructure:"workers"`
	CacheTTL    int          `mapstructure:"cache_ttl"` // seconds
	HeaderToken string       `mapstructure:"header_token"`
	Gates       []GateConfig `mapstructure:"gates"`
}

// GateConfig registers a gate analysed automatically for every new batch.
type GateConfig struct {
	Name string  `mapstructure:"name"`
	Lat1 float64 `mapstructure:"lat1"`
	Lon1 float64 `mapstructure:"lon1"`
	Lat2 float64 `mapstructure:"lat2"`
	Lon2 float64 `mapstructure:"lon2"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gateflow")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "gateflow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "gateflow-analysis")
	v.SetDefault("flow.workers", 4)
	v.SetDefault("flow.cache_ttl", 600)
	v.SetDefault("flow.header_token", "Lat")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GATEFLOW_DATABASE_HOST → database.host
	v.SetEnvPrefix("GATEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be positive, got %d", c.Database.MaxConns))
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	if c.Temporal.HostPort == "" {
		errs = append(errs, "temporal.host_port is required")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}
	if c.Flow.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("flow.workers must be positive, got %d", c.Flow.Workers))
	}
	if c.Flow.CacheTTL < 0 {
		errs = append(errs, "flow.cache_ttl must not be negative")
	}
	if c.Flow.HeaderToken == "" {
		errs = append(errs, "flow.header_token is required")
	}
	for i, g := range c.Flow.Gates {
		if g.Name == "" {
			errs = append(errs, fmt.Sprintf("flow.gates[%d].name is required", i))
		}
		if g.Lat1 == g.Lat2 || g.Lon1 == g.Lon2 {
			errs = append(errs, fmt.Sprintf("flow.gates[%d] must not be parallel to a meridian or parallel", i))
		}
		for _, lat := range []float64{g.Lat1, g.Lat2} {
			if lat < -90 || lat > 90 {
				errs = append(errs, fmt.Sprintf("flow.gates[%d] latitude %v out of range", i, lat))
			}
		}
		for _, lon := range []float64{g.Lon1, g.Lon2} {
			if lon < -180 || lon > 180 {
				errs = append(errs, fmt.Sprintf("flow.gates[%d] longitude %v out of range", i, lon))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// FlowSettings converts the flow section into use-case settings.
func (f FlowConfig) FlowSettings() usecases.FlowSettings {
	return usecases.FlowSettings{
		Workers:     f.Workers,
		CacheTTL:    f.CacheTTL,
		HeaderToken: f.HeaderToken,
	}
}

// NamedGates returns the configured gates as domain values.
func (f FlowConfig) NamedGates() ([]domain.NamedGate, error) {
	gates := make([]domain.NamedGate, 0, len(f.Gates))
	for _, g := range f.Gates {
		gate, err := domain.NewGateLine(g.Lat1, g.Lon1, g.Lat2, g.Lon2)
		if err != nil {
			return nil, fmt.Errorf("gate %q: %w", g.Name, err)
		}
		gates = append(gates, domain.NamedGate{Name: g.Name, Gate: gate})
	}
	return gates, nil
}
