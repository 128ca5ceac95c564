package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"5000" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
	} `yaml:"server"`
	Indicators struct {
		// auto probes the accelerated engine at startup
		Engine string `yaml:"engine" default:"auto" validate:"oneof=auto accelerated fallback"`
	} `yaml:"indicators"`
	Provider string `yaml:"provider" default:"yahoo" validate:"oneof=yahoo clickhouse"`
	Yahoo    struct {
		BaseURL      string        `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"url"`
		Suffix       string        `yaml:"suffix" default:".OL"`
		Timeout      time.Duration `yaml:"timeout" default:"15s"`
		Retries      int           `yaml:"retries" default:"2" validate:"min=0,max=10"`
		RetryBackoff time.Duration `yaml:"retry_backoff" default:"250ms"`
		UserAgent    string        `yaml:"user_agent" default:"Mozilla/5.0"`
		ProxyURL     string        `yaml:"proxy_url" validate:"omitempty,url"`
		Timezone     string        `yaml:"timezone" default:"Europe/Oslo"`
	} `yaml:"yahoo"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"default"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"daily_bars"`
		Suffix           string        `yaml:"suffix" default:".OL"`
		Timezone         string        `yaml:"timezone" default:"Europe/Oslo"`
		UseHTTP          bool          `yaml:"use_http"`
		MaxConnections   int           `yaml:"max_connections" default:"10"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Cache struct {
		// none disables the series cache
		Type            string        `yaml:"type" default:"memory" validate:"oneof=none memory redis layered"`
		TTL             time.Duration `yaml:"ttl" default:"15m"`
		MemoryTTL       time.Duration `yaml:"memory_ttl" default:"1m"`
		MaxSize         int           `yaml:"max_size" default:"1000"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
		Redis           struct {
			Host         string        `yaml:"host" default:"localhost"`
			Port         int           `yaml:"port" default:"6379"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db"`
			PoolSize     int           `yaml:"pool_size" default:"10"`
			MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
			PoolTimeout  time.Duration `yaml:"pool_timeout" default:"4s"`
			Prefix       string        `yaml:"prefix" default:"osloscan"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Screener struct {
		Workers   int `yaml:"workers" default:"8" validate:"min=1,max=64"`
		RateLimit struct {
			Enabled         bool    `yaml:"enabled" default:"true"`
			Capacity        float64 `yaml:"capacity" default:"10"`
			RefillPerSecond float64 `yaml:"refill_per_second" default:"0.5"`
		} `yaml:"rate_limit"`
	} `yaml:"screener"`
	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		RequestsTopic string   `yaml:"requests_topic" default:"osloscan.scan.requests"`
		ReportsTopic  string   `yaml:"reports_topic" default:"osloscan.scan.reports"`
		RequiredAcks  int      `yaml:"required_acks" default:"-1"`
		Compression   string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer      struct {
			MaxAttempts     int           `yaml:"max_attempts" default:"5"`
			BatchTimeout    time.Duration `yaml:"batch_timeout" default:"50ms"`
			WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
			AutoCreateTopic bool          `yaml:"auto_create_topic"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"osloscan-screener"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"16"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
}

// envOverrides lists the environment variables that take precedence over
// the YAML file. Unset variables leave the field nil.
type envOverrides struct {
	Environment     *string        `envconfig:"OSLOSCAN_ENV"`
	LogLevel        *string        `envconfig:"LOG_LEVEL"`
	LogFormat       *string        `envconfig:"LOG_FORMAT"`
	PythonPort      *int           `envconfig:"PYTHON_PORT"`
	Port            *int           `envconfig:"PORT"`
	IndicatorEngine *string        `envconfig:"INDICATOR_ENGINE"`
	Provider        *string        `envconfig:"SERIES_PROVIDER"`
	YahooBaseURL    *string        `envconfig:"YAHOO_BASE_URL"`
	YahooProxyURL   *string        `envconfig:"YAHOO_PROXY_URL"`
	TickerSuffix    *string        `envconfig:"TICKER_SUFFIX"`
	CHHost          *string        `envconfig:"CLICKHOUSE_HOST"`
	CHPort          *int           `envconfig:"CLICKHOUSE_PORT"`
	CHDatabase      *string        `envconfig:"CLICKHOUSE_DATABASE"`
	CHUser          *string        `envconfig:"CLICKHOUSE_USER"`
	CHPassword      *string        `envconfig:"CLICKHOUSE_PASSWORD"`
	CHTable         *string        `envconfig:"CLICKHOUSE_TABLE"`
	CacheType       *string        `envconfig:"CACHE_TYPE"`
	CacheTTL        *time.Duration `envconfig:"CACHE_TTL"`
	RedisHost       *string        `envconfig:"REDIS_HOST"`
	RedisPort       *int           `envconfig:"REDIS_PORT"`
	RedisPassword   *string        `envconfig:"REDIS_PASSWORD"`
	Workers         *int           `envconfig:"SCREENER_WORKERS"`
	KafkaEnabled    *bool          `envconfig:"KAFKA_ENABLED"`
	KafkaBrokers    []string       `envconfig:"KAFKA_BROKERS"`
	RequestsTopic   *string        `envconfig:"KAFKA_REQUESTS_TOPIC"`
	ReportsTopic    *string        `envconfig:"KAFKA_REPORTS_TOPIC"`
}

var validate = validator.New()

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		// only reachable with a malformed default tag
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file over the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if err := c.applyEnv(); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := envconfig.Process("", &o); err != nil {
		return err
	}

	setString(&c.Environment, o.Environment)
	setString(&c.Log.Level, o.LogLevel)
	setString(&c.Log.Format, o.LogFormat)
	// PORT wins over PYTHON_PORT
	setInt(&c.Server.Port, o.PythonPort)
	setInt(&c.Server.Port, o.Port)
	setString(&c.Indicators.Engine, o.IndicatorEngine)
	setString(&c.Provider, o.Provider)
	setString(&c.Yahoo.BaseURL, o.YahooBaseURL)
	setString(&c.Yahoo.ProxyURL, o.YahooProxyURL)
	if o.TickerSuffix != nil {
		c.Yahoo.Suffix = *o.TickerSuffix
		c.ClickHouse.Suffix = *o.TickerSuffix
	}
	setString(&c.ClickHouse.Host, o.CHHost)
	setInt(&c.ClickHouse.Port, o.CHPort)
	setString(&c.ClickHouse.Database, o.CHDatabase)
	setString(&c.ClickHouse.User, o.CHUser)
	setString(&c.ClickHouse.Password, o.CHPassword)
	setString(&c.ClickHouse.Table, o.CHTable)
	setString(&c.Cache.Type, o.CacheType)
	if o.CacheTTL != nil {
		c.Cache.TTL = *o.CacheTTL
	}
	setString(&c.Cache.Redis.Host, o.RedisHost)
	setInt(&c.Cache.Redis.Port, o.RedisPort)
	setString(&c.Cache.Redis.Password, o.RedisPassword)
	setInt(&c.Screener.Workers, o.Workers)
	if o.KafkaEnabled != nil {
		c.Kafka.Enabled = *o.KafkaEnabled
	}
	if len(o.KafkaBrokers) > 0 {
		c.Kafka.Brokers = trimAll(o.KafkaBrokers)
	}
	setString(&c.Kafka.RequestsTopic, o.RequestsTopic)
	setString(&c.Kafka.ReportsTopic, o.ReportsTopic)
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Provider == "clickhouse" {
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required when provider is clickhouse")
		}
		if c.ClickHouse.Table == "" {
			return fmt.Errorf("clickhouse.table is required when provider is clickhouse")
		}
	}
	if c.Cache.Type != "none" && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Screener.RateLimit.Enabled && (c.Screener.RateLimit.Capacity < 1 || c.Screener.RateLimit.RefillPerSecond <= 0) {
		return fmt.Errorf("screener.rate_limit needs capacity >= 1 and a positive refill_per_second")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.RequestsTopic == "" || c.Kafka.ReportsTopic == "" {
			return fmt.Errorf("kafka.requests_topic and kafka.reports_topic are required")
		}
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
