// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override configuration keys,
// e.g. VENUE_SCOUT_SOFT_LIMIT.
const EnvPrefix = "VENUE_SCOUT"

// Config holds the crawl limits, timeouts and optional service credentials.
// Every field has a default; a config file and the environment override them.
type Config struct {
	// Crawl budget
	SoftLimit     int `mapstructure:"soft_limit" validate:"gte=1"`
	HardLimit     int `mapstructure:"hard_limit" validate:"gte=1,gtefield=SoftLimit"`
	MaxPages      int `mapstructure:"max_pages" validate:"gte=1"`
	MaxDepth      int `mapstructure:"max_depth" validate:"gte=0"`
	HoursSubCrawl int `mapstructure:"hours_sub_crawl" validate:"gte=0"`
	MiniCrawl     int `mapstructure:"mini_crawl" validate:"gte=0"`

	// Sitemap seeding
	SitemapEnabled  bool `mapstructure:"sitemap_enabled"`
	SitemapMaxURLs  int  `mapstructure:"sitemap_max_urls" validate:"gte=0"`
	SitemapMaxDepth int  `mapstructure:"sitemap_max_depth" validate:"gte=1"`
	SitemapPreScore int  `mapstructure:"sitemap_pre_score"`

	// Verification
	VerifyWorkers int `mapstructure:"verify_workers" validate:"gte=1,lte=64"`

	// Timeouts
	SitemapTimeout    time.Duration `mapstructure:"sitemap_timeout" validate:"gt=0"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" validate:"gt=0"`
	HeadTimeout       time.Duration `mapstructure:"head_timeout" validate:"gt=0"`
	GetTimeout        time.Duration `mapstructure:"get_timeout" validate:"gt=0"`

	// Dynamic calendar driver
	CalendarMonths          int `mapstructure:"calendar_months" validate:"gte=1"`
	CalendarAttempts        int `mapstructure:"calendar_attempts" validate:"gte=1"`
	CalendarMinInteractions int `mapstructure:"calendar_min_interactions" validate:"gte=0,ltefield=CalendarAttempts"`
	CalendarRetries         int `mapstructure:"calendar_retries" validate:"gte=1"`

	// Caches
	CacheCapacity int           `mapstructure:"cache_capacity" validate:"gte=1"`
	RedisAddr     string        `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	RedisTTL      time.Duration `mapstructure:"redis_ttl" validate:"gte=0"`

	// Search (optional)
	SearchAPIKey   string `mapstructure:"search_api_key"`
	SearchEngineID string `mapstructure:"search_engine_id" validate:"required_with=SearchAPIKey"`

	// Browser
	ChromePath string `mapstructure:"chrome_path"`
	Headless   bool   `mapstructure:"headless"`

	Verbose bool `mapstructure:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SoftLimit:               15,
		HardLimit:               25,
		MaxPages:                20,
		MaxDepth:                3,
		HoursSubCrawl:           8,
		MiniCrawl:               8,
		SitemapEnabled:          true,
		SitemapMaxURLs:          200,
		SitemapMaxDepth:         3,
		SitemapPreScore:         180,
		VerifyWorkers:           10,
		SitemapTimeout:          8 * time.Second,
		NavigationTimeout:       15 * time.Second,
		HeadTimeout:             8 * time.Second,
		GetTimeout:              12 * time.Second,
		CalendarMonths:          12,
		CalendarAttempts:        30,
		CalendarMinInteractions: 10,
		CalendarRetries:         3,
		CacheCapacity:           4096,
		RedisTTL:                24 * time.Hour,
		Headless:                true,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("soft_limit", d.SoftLimit)
	v.SetDefault("hard_limit", d.HardLimit)
	v.SetDefault("max_pages", d.MaxPages)
	v.SetDefault("max_depth", d.MaxDepth)
	v.SetDefault("hours_sub_crawl", d.HoursSubCrawl)
	v.SetDefault("mini_crawl", d.MiniCrawl)
	v.SetDefault("sitemap_enabled", d.SitemapEnabled)
	v.SetDefault("sitemap_max_urls", d.SitemapMaxURLs)
	v.SetDefault("sitemap_max_depth", d.SitemapMaxDepth)
	v.SetDefault("sitemap_pre_score", d.SitemapPreScore)
	v.SetDefault("verify_workers", d.VerifyWorkers)
	v.SetDefault("sitemap_timeout", d.SitemapTimeout)
	v.SetDefault("navigation_timeout", d.NavigationTimeout)
	v.SetDefault("head_timeout", d.HeadTimeout)
	v.SetDefault("get_timeout", d.GetTimeout)
	v.SetDefault("calendar_months", d.CalendarMonths)
	v.SetDefault("calendar_attempts", d.CalendarAttempts)
	v.SetDefault("calendar_min_interactions", d.CalendarMinInteractions)
	v.SetDefault("calendar_retries", d.CalendarRetries)
	v.SetDefault("cache_capacity", d.CacheCapacity)
	v.SetDefault("redis_addr", d.RedisAddr)
	v.SetDefault("redis_ttl", d.RedisTTL)
	v.SetDefault("search_api_key", d.SearchAPIKey)
	v.SetDefault("search_engine_id", d.SearchEngineID)
	v.SetDefault("chrome_path", d.ChromePath)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("verbose", d.Verbose)
}

// Load reads configuration from an optional file (YAML, JSON or TOML by extension) and
// VENUE_SCOUT_* environment variables, then validates it. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{Message: fmt.Sprintf("failed to read config file %s", path), Cause: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Message: "failed to decode config", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		ve := &ValidationError{}
		for _, fe := range fieldErrs {
			ve.Fields = append(ve.Fields, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
		}
		return ve
	}
	return &Error{Message: "validation failed", Cause: err}
}

// HasSearch reports whether search credentials are configured.
func (c *Config) HasSearch() bool {
	return c.SearchAPIKey != "" && c.SearchEngineID != ""
}

// Error represents a failure loading configuration.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		if f.Param != "" {
			parts[i] = fmt.Sprintf("%s failed %s=%s", f.Field, f.Tag, f.Param)
		} else {
			parts[i] = fmt.Sprintf("%s failed %s", f.Field, f.Tag)
		}
	}
	return "config error: invalid configuration: " + strings.Join(parts, "; ")
}

// HasField reports whether the named field failed validation.
func (e *ValidationError) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}
