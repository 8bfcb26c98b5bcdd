package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	HubSpot     HubSpotConfig     `mapstructure:"hubspot"`
	SchemaCache SchemaCacheConfig `mapstructure:"schema_cache"`
	Batch       BatchConfig       `mapstructure:"batch"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	SigningSecret      string        `mapstructure:"signing_secret"`
	SignatureTolerance time.Duration `mapstructure:"signature_tolerance"`
}

type HubSpotConfig struct {
	APIBaseURL  string        `mapstructure:"api_base_url" validate:"required,url"`
	TrackURL    string        `mapstructure:"track_url" validate:"required,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"min=0"`
	MappingFile string        `mapstructure:"mapping_file"`
	Breaker     BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures" validate:"min=1"`
	Interval    time.Duration `mapstructure:"interval"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type SchemaCacheConfig struct {
	Driver string        `mapstructure:"driver" validate:"oneof=memory redis"`
	TTL    time.Duration `mapstructure:"ttl" validate:"min=0"`
	Redis  RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"min=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type BatchConfig struct {
	Workers int `mapstructure:"workers" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hsdest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/hsdest")
	}

	setDefaults(v)

	v.SetEnvPrefix("HSDEST")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.SchemaCache.Driver == "redis" && c.SchemaCache.Redis.Addr == "" {
		return fmt.Errorf("invalid config: schema_cache.redis.addr is required for the redis driver")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.signing_secret", "")
	v.SetDefault("server.signature_tolerance", 5*time.Minute)

	v.SetDefault("hubspot.api_base_url", "https://api.hubapi.com")
	v.SetDefault("hubspot.track_url", "https://track.hubspot.com/v1/event")
	v.SetDefault("hubspot.timeout", 10*time.Second)
	v.SetDefault("hubspot.mapping_file", "")
	v.SetDefault("hubspot.breaker.max_failures", 5)
	v.SetDefault("hubspot.breaker.interval", 60*time.Second)
	v.SetDefault("hubspot.breaker.open_timeout", 30*time.Second)

	v.SetDefault("schema_cache.driver", "memory")
	v.SetDefault("schema_cache.ttl", time.Duration(0))
	v.SetDefault("schema_cache.redis.addr", "")
	v.SetDefault("schema_cache.redis.password", "")
	v.SetDefault("schema_cache.redis.db", 0)
	v.SetDefault("schema_cache.redis.key_prefix", "hsdest:schema:")

	v.SetDefault("batch.workers", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
