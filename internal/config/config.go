// Package config loads service settings from defaults, an optional YAML file and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/analytics"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

const (
	BackendSpanner = "spanner"
	BackendMemory  = "memory"
)

// Config is the full service configuration.
// Every key can be set through the environment variable of the same name in upper case.
type Config struct {
	Port int `mapstructure:"port"`

	LedgerBackend       string `mapstructure:"ledger_backend"`
	SpannerProject      string `mapstructure:"spanner_project"`
	SpannerInstance     string `mapstructure:"spanner_instance"`
	SpannerDatabase     string `mapstructure:"spanner_database"`
	SpannerEmulatorHost string `mapstructure:"spanner_emulator_host"`

	RedisAddr        string `mapstructure:"redis_addr"`
	FallbackRedisKey string `mapstructure:"fallback_redis_key"`
	FallbackLogPath  string `mapstructure:"fallback_log_path"`

	AdminToken string `mapstructure:"admin_token"`

	MetricName           string   `mapstructure:"metric_name"`
	MetricBaseline       int64    `mapstructure:"metric_baseline"`
	EnrollmentGoal       int64    `mapstructure:"enrollment_goal"`
	RecordReference      int64    `mapstructure:"record_reference"`
	RevenuePerEnrollment string   `mapstructure:"revenue_per_enrollment"`
	Tickets              int64    `mapstructure:"tickets"`
	TicketRevenue        int64    `mapstructure:"ticket_revenue"`
	ProductKeywords      []string `mapstructure:"product_keywords"`

	StoreTimeout   time.Duration `mapstructure:"store_timeout"`
	MaxCASAttempts int           `mapstructure:"max_cas_attempts"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var defaults = map[string]interface{}{
	"port":                   8080,
	"ledger_backend":         BackendSpanner,
	"spanner_project":        "",
	"spanner_instance":       "",
	"spanner_database":       "",
	"spanner_emulator_host":  "",
	"redis_addr":             "",
	"fallback_redis_key":     "enrollment:fallback",
	"fallback_log_path":      "/tmp/enrollment-fallback.jsonl",
	"admin_token":            "",
	"metric_name":            "msm_enrollments",
	"metric_baseline":        318,
	"enrollment_goal":        375,
	"record_reference":       363,
	"revenue_per_enrollment": "10000",
	"tickets":                5680,
	"ticket_revenue":         666134,
	"product_keywords":       domain.DefaultProductKeywords,
	"store_timeout":          "5s",
	"max_cas_attempts":       5,
	"log_level":              "info",
	"log_format":             "json",
}

// Load reads the configuration. path may be empty; environment variables override the file.
// The result is not validated; call Validate before using it.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrConfiguration, path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrConfiguration, err)
	}
	cfg.ProductKeywords = splitKeywords(cfg.ProductKeywords)
	return cfg, nil
}

// splitKeywords accepts both a YAML list and a single comma separated value
func splitKeywords(in []string) []string {
	var out []string
	for _, item := range in {
		for _, k := range strings.Split(item, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
	}
	return out
}

// Validate reports every problem at once, wrapped in domain.ErrConfiguration
func (c *Config) Validate() error {
	var problems []string

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Port))
	}
	switch c.LedgerBackend {
	case BackendMemory:
	case BackendSpanner:
		if c.SpannerProject == "" || c.SpannerInstance == "" || c.SpannerDatabase == "" {
			problems = append(problems, "spanner backend needs SPANNER_PROJECT, SPANNER_INSTANCE and SPANNER_DATABASE")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown ledger backend %q", c.LedgerBackend))
	}
	if strings.TrimSpace(c.MetricName) == "" {
		problems = append(problems, "metric name is empty")
	}
	if c.MetricBaseline < 0 {
		problems = append(problems, "metric baseline is negative")
	}
	if c.EnrollmentGoal <= 0 {
		problems = append(problems, "enrollment goal must be positive")
	}
	if rev, err := decimal.NewFromString(c.RevenuePerEnrollment); err != nil || rev.IsNegative() {
		problems = append(problems, fmt.Sprintf("revenue per enrollment %q is not a non-negative number", c.RevenuePerEnrollment))
	}
	if c.StoreTimeout <= 0 {
		problems = append(problems, "store timeout must be positive")
	}
	if c.MaxCASAttempts < 1 {
		problems = append(problems, "max CAS attempts must be at least 1")
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// Targets returns the business constants for the analytics aggregator
func (c *Config) Targets() analytics.EnrollmentTargets {
	rev, err := decimal.NewFromString(c.RevenuePerEnrollment)
	if err != nil {
		rev = decimal.Zero
	}
	return analytics.EnrollmentTargets{
		Goal:                 c.EnrollmentGoal,
		RecordReference:      c.RecordReference,
		RevenuePerEnrollment: rev,
		Baseline:             c.MetricBaseline,
	}
}

// DatabasePath is the fully qualified Spanner database name
func (c *Config) DatabasePath() string {
	return fmt.Sprintf("projects/%s/instances/%s/databases/%s", c.SpannerProject, c.SpannerInstance, c.SpannerDatabase)
}
