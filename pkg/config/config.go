package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"dev"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost" validate:"required"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"marketradar" validate:"required"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	FMP struct {
		APIKey             string        `yaml:"api_key"`
		BaseURL            string        `yaml:"base_url" default:"https://financialmodelingprep.com"`
		Timeout            time.Duration `yaml:"timeout" default:"30s"`
		RateLimitPerMinute int           `yaml:"rate_limit_per_minute" default:"750" validate:"gt=0"`
	} `yaml:"fmp"`
	Screener struct {
		// RunDate pins signal evaluation to an explicit trading date
		// (YYYY-MM-DD). Empty means "latest date in silver_price_daily".
		RunDate                 string        `yaml:"run_date"`
		PriceLookbackDays       int           `yaml:"price_lookback_days" default:"252" validate:"gt=0"`
		RetLookbackDays         int           `yaml:"ret_lookback_days" default:"60" validate:"gt=0"`
		VolLookbackDays         int           `yaml:"vol_lookback_days" default:"60" validate:"gt=0"`
		MinAbsRetZ              float64       `yaml:"min_abs_ret_z" default:"2.0" validate:"gte=0"`
		MinRVol                 float64       `yaml:"min_rvol" default:"2.0" validate:"gte=0"`
		MinGapATR               float64       `yaml:"min_gap_atr" default:"1.5"`
		MinVolSpikeZ            float64       `yaml:"min_vol_spike_z" default:"2.0"`
		RSTopPct                float64       `yaml:"rs_top_pct" default:"0.9"`
		RSBottomPct             float64       `yaml:"rs_bottom_pct" default:"0.1"`
		EPSSurpriseThreshold    float64       `yaml:"eps_surprise_threshold" default:"0.1"`
		NewsIntensityZThreshold float64       `yaml:"news_intensity_z_threshold" default:"2.0"`
		MaxWorkers              int           `yaml:"max_workers" default:"4" validate:"gt=0"`
		NewsLimit               int           `yaml:"news_limit" default:"50" validate:"gt=0,lte=250"`
		NewsCacheTTL            time.Duration `yaml:"news_cache_ttl" default:"10m"`
	} `yaml:"screener"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, applies defaults for
// anything the file leaves unset, and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Defaults go in first so an explicit zero in the file (metrics.enabled:
	// false, a 0 threshold) survives instead of being reset to its default.
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FMP_API_KEY"); v != "" {
		c.FMP.APIKey = v
	}
	if v := os.Getenv("FMP_BASE_URL"); v != "" {
		c.FMP.BaseURL = v
	}
	if v := os.Getenv("FMP_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.FMP.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("RUN_DATE"); v != "" {
		c.Screener.RunDate = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Enabled = true
		host, port, ok := splitHostPort(v)
		if ok {
			c.Redis.Host, c.Redis.Port = host, port
		}
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Screener.RunDate != "" {
		if _, err := time.Parse("2006-01-02", c.Screener.RunDate); err != nil {
			return fmt.Errorf("screener.run_date must be YYYY-MM-DD, got %q", c.Screener.RunDate)
		}
	}
	return nil
}

// Defaults returns a Config with every default applied and nothing loaded
// from disk. Tests and ad hoc callers use it instead of a config file.
func Defaults() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

func splitHostPort(s string) (string, int, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			port, err := strconv.Atoi(s[i+1:])
			if err != nil {
				return "", 0, false
			}
			return s[:i], port, true
		}
	}
	return "", 0, false
}
