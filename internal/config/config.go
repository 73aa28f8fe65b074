// engine/internal/config/config.go
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Companies struct {
		Path  string `yaml:"path"`  // .csv or .xlsx
		Sheet string `yaml:"sheet"` // xlsx only; "" = first sheet
	} `yaml:"companies"`

	Fetch struct {
		Concurrency       int     `yaml:"concurrency"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		Retries           int     `yaml:"retries"`
		RetryBackoffMs    int     `yaml:"retry_backoff_ms"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		UserAgent         string  `yaml:"user_agent"`
		MaxBodyBytes      int64   `yaml:"max_body_bytes"`
	} `yaml:"fetch"`

	Store struct {
		Driver             string `yaml:"driver"` // json | sqlite
		Path               string `yaml:"path"`
		LockTimeoutSeconds int    `yaml:"lock_timeout_seconds"`
	} `yaml:"store"`

	Keys struct {
		Strategy string `yaml:"strategy"`
	} `yaml:"keys"`

	Filters struct {
		Countries  []string `yaml:"countries"`
		TitleAny   []string `yaml:"title_any"`
		TitleBlock []string `yaml:"title_block"`
	} `yaml:"filters"`

	Notify struct {
		SMTPHost       string `yaml:"smtp_host"`
		SMTPPort       int    `yaml:"smtp_port"`
		ImplicitTLS    bool   `yaml:"implicit_tls"`
		Username       string `yaml:"username"`
		Password       string `yaml:"-"` // env or keychain only
		From           string `yaml:"from"`
		Recipient      string `yaml:"recipient"`
		SubjectPrefix  string `yaml:"subject_prefix"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"notify"`

	Schedule struct {
		DailyAt  string `yaml:"daily_at"` // HH:MM
		Timezone string `yaml:"timezone"`
		Every    string `yaml:"every"` // Go duration; overrides daily_at when set
	} `yaml:"schedule"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

func (c Config) RetryBackoff() time.Duration {
	return time.Duration(c.Fetch.RetryBackoffMs) * time.Millisecond
}

func (c Config) LockTimeout() time.Duration {
	return time.Duration(c.Store.LockTimeoutSeconds) * time.Second
}

// Interval is the serve-mode polling interval, or 0 for the daily schedule.
func (c Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.Schedule.Every)
	if err != nil {
		return 0
	}
	return d
}

func (c Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notify.TimeoutSeconds) * time.Second
}

// Default returns the built-in configuration. Zero values in a loaded file
// are filled from here by ApplyDefaults.
func Default() Config {
	var c Config
	c.Companies.Path = "companies.xlsx"

	c.Fetch.Concurrency = 5
	c.Fetch.TimeoutSeconds = 15
	c.Fetch.Retries = 1
	c.Fetch.RetryBackoffMs = 2000
	c.Fetch.RequestsPerSecond = 1
	c.Fetch.Burst = 2
	c.Fetch.MaxBodyBytes = 8 << 20

	c.Store.Driver = "json"
	c.Store.Path = "seen_jobs.json"
	c.Store.LockTimeoutSeconds = 30

	c.Keys.Strategy = "company_title_url"

	c.Filters.Countries = []string{"UAE", "Saudi Arabia", "Qatar", "United Kingdom"}
	c.Filters.TitleAny = []string{
		"financ*", "accountant*", "accounting", "analyst*", "controller*",
		"treasury", "audit*", "tax", "fp&a", "investment*", "cfo",
		"credit", "risk", "payroll", "banking", "budget*",
	}

	c.Notify.SMTPHost = "smtp.gmail.com"
	c.Notify.SMTPPort = 587
	c.Notify.SubjectPrefix = "[Job Alert]"
	c.Notify.TimeoutSeconds = 30

	c.Schedule.DailyAt = "07:00"
	c.Schedule.Timezone = "Asia/Dubai"

	c.Server.Addr = "127.0.0.1:38471"
	return c
}

// ApplyDefaults fills zero-valued scalar fields from Default. Lists are left
// alone so an explicit empty list can disable a filter.
func ApplyDefaults(c *Config) {
	d := Default()
	if c.Companies.Path == "" {
		c.Companies.Path = d.Companies.Path
	}
	if c.Fetch.Concurrency == 0 {
		c.Fetch.Concurrency = d.Fetch.Concurrency
	}
	if c.Fetch.TimeoutSeconds == 0 {
		c.Fetch.TimeoutSeconds = d.Fetch.TimeoutSeconds
	}
	if c.Fetch.RetryBackoffMs == 0 {
		c.Fetch.RetryBackoffMs = d.Fetch.RetryBackoffMs
	}
	if c.Fetch.Burst == 0 {
		c.Fetch.Burst = d.Fetch.Burst
	}
	if c.Fetch.MaxBodyBytes == 0 {
		c.Fetch.MaxBodyBytes = d.Fetch.MaxBodyBytes
	}
	if c.Store.Driver == "" {
		c.Store.Driver = d.Store.Driver
	}
	if c.Store.Path == "" {
		c.Store.Path = d.Store.Path
	}
	if c.Store.LockTimeoutSeconds == 0 {
		c.Store.LockTimeoutSeconds = d.Store.LockTimeoutSeconds
	}
	if c.Keys.Strategy == "" {
		c.Keys.Strategy = d.Keys.Strategy
	}
	if c.Notify.SMTPHost == "" {
		c.Notify.SMTPHost = d.Notify.SMTPHost
	}
	if c.Notify.SMTPPort == 0 {
		c.Notify.SMTPPort = d.Notify.SMTPPort
	}
	if c.Notify.TimeoutSeconds == 0 {
		c.Notify.TimeoutSeconds = d.Notify.TimeoutSeconds
	}
	if c.Schedule.DailyAt == "" {
		c.Schedule.DailyAt = d.Schedule.DailyAt
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = d.Schedule.Timezone
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	ApplyDefaults(&cfg)
	return cfg, nil
}
