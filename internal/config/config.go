// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"factorypulse-gateway/internal/data"
)

type Config struct {
	Server struct {
		APIPort         int           `mapstructure:"api_port"`
		OpsPort         int           `mapstructure:"ops_port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Engine struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"engine"`
	Thresholds map[string]Threshold `mapstructure:"thresholds"`
	Simulation struct {
		Seed   int64            `mapstructure:"seed"` // 0 = time based
		Ranges map[string]Range `mapstructure:"ranges"`
	} `mapstructure:"simulation"`
	Auth  AuthConfig  `mapstructure:"auth"`
	Kafka KafkaConfig `mapstructure:"kafka"`
	Log   LogConfig   `mapstructure:"log"`
}

// Threshold - lower bounds (inclusive) of the warning and critical bands
type Threshold struct {
	Warning  float64 `mapstructure:"warning"`
	Critical float64 `mapstructure:"critical"`
}

// Range - uniform simulation interval
type Range struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

type AuthConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	JWTExpiration int    `mapstructure:"jwt_expiration"` // in minutes
	Users         []User `mapstructure:"users"`
}

type User struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
	Role         string `mapstructure:"role"`
}

type KafkaConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Brokers        []string      `mapstructure:"brokers"`
	Topic          string        `mapstructure:"topic"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"` // rotated with lumberjack when set
}

var ErrInvalid = errors.New("invalid configuration")

// Load reads config.yaml from path (if present), overlays FACTORYPULSE_* env
// vars and defaults, and validates the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.SetEnvPrefix("FACTORYPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
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

// SetDefaults registers the factory defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.api_port", 8081)
	v.SetDefault("server.ops_port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("engine.interval", 3*time.Second)

	v.SetDefault("thresholds.temperature.warning", 75.0)
	v.SetDefault("thresholds.temperature.critical", 80.0)
	v.SetDefault("thresholds.vibration.warning", 4.0)
	v.SetDefault("thresholds.vibration.critical", 5.0)
	v.SetDefault("thresholds.energy.warning", 1500.0)
	v.SetDefault("thresholds.energy.critical", 1800.0)

	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.ranges.temperature.min", 60.0)
	v.SetDefault("simulation.ranges.temperature.max", 90.0)
	v.SetDefault("simulation.ranges.vibration.min", 1.0)
	v.SetDefault("simulation.ranges.vibration.max", 6.0)
	v.SetDefault("simulation.ranges.energy.min", 500.0)
	v.SetDefault("simulation.ranges.energy.max", 2000.0)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_expiration", 60)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "factory.alerts")
	v.SetDefault("kafka.publish_timeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config does not decode: %v", err))
	}
	return &cfg
}

func (c *Config) Validate() error {
	if c.Engine.Interval <= 0 {
		return fmt.Errorf("%w: engine.interval must be positive", ErrInvalid)
	}
	for _, kind := range data.Kinds {
		th, ok := c.Thresholds[string(kind)]
		if !ok {
			return fmt.Errorf("%w: missing thresholds for %s", ErrInvalid, kind)
		}
		if th.Warning >= th.Critical {
			return fmt.Errorf("%w: %s warning threshold %.2f must be below critical %.2f",
				ErrInvalid, kind, th.Warning, th.Critical)
		}
		r, ok := c.Simulation.Ranges[string(kind)]
		if !ok {
			return fmt.Errorf("%w: missing simulation range for %s", ErrInvalid, kind)
		}
		if r.Min >= r.Max {
			return fmt.Errorf("%w: %s simulation range [%.2f, %.2f] is empty", ErrInvalid, kind, r.Min, r.Max)
		}
	}
	for key := range c.Thresholds {
		if _, err := data.ParseKind(key); err != nil {
			return fmt.Errorf("%w: thresholds: %v", ErrInvalid, err)
		}
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret is required when auth is enabled", ErrInvalid)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("%w: kafka.brokers and kafka.topic are required when kafka is enabled", ErrInvalid)
	}
	return nil
}

// ThresholdFor returns the bands configured for kind.
func (c *Config) ThresholdFor(kind data.MetricKind) Threshold {
	return c.Thresholds[string(kind)]
}

// RangeFor returns the simulation interval configured for kind.
func (c *Config) RangeFor(kind data.MetricKind) Range {
	return c.Simulation.Ranges[string(kind)]
}
