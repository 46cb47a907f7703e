// Package config loads service configuration from a YAML file with
// environment overrides for the values that differ between deployments.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Default values
const (
	DefaultListenAddr        = ":8080"
	DefaultLogLevel          = "info"
	DefaultRequestsPerWindow = 3
	DefaultWindowSeconds     = 300
	DefaultMaxConcurrent     = 2
	DefaultMaxAttempts       = 2
	DefaultMaxFileSizeMB     = 100
	DefaultMaxDurationSec    = 900
	DefaultAttemptTimeoutSec = 600
	DefaultRetryDelaySec     = 2
	DefaultJobDurationSec    = 45
	DefaultQueueCapacity     = 100
	DefaultRetainedJobs      = 100
	DefaultDownloadDir       = "downloads"
	DefaultAnalyticsBackend  = "file"
	DefaultAnalyticsFile     = "analytics.json"
	DefaultNotifyBuffer      = 64
)

// Config is the full service configuration
type Config struct {
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Limits struct {
		RequestsPerWindow   int   `yaml:"requests_per_window"`
		WindowSeconds       int   `yaml:"window_seconds"`
		MaxConcurrent       int   `yaml:"max_concurrent"`
		MaxAttempts         int   `yaml:"max_attempts"`
		MaxFileSizeMB       int64 `yaml:"max_file_size_mb"`
		MaxDurationSeconds  int   `yaml:"max_duration_seconds"`
		AttemptTimeoutSec   int   `yaml:"attempt_timeout_seconds"`
		RetryDelaySeconds   int   `yaml:"retry_delay_seconds"`
		DefaultJobDuration  int   `yaml:"default_job_duration_seconds"`
	} `yaml:"limits"`

	Queue struct {
		Capacity     int `yaml:"capacity"`
		RetainedJobs int `yaml:"retained_jobs"`
	} `yaml:"queue"`

	Downloads struct {
		Dir string `yaml:"dir"`
	} `yaml:"downloads"`

	// Cookies maps a platform name to its Netscape cookie file
	Cookies map[string]string `yaml:"cookies"`

	// Admins are owner IDs exempt from rate limiting
	Admins []string `yaml:"admins"`

	Analytics struct {
		Backend string `yaml:"backend"` // file or redis
		File    string `yaml:"file"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"analytics"`

	Notify struct {
		BufferSize int `yaml:"buffer_size"`
	} `yaml:"notify"`
}

// Load reads the YAML file at path (optional), applies environment
// overrides, fills defaults, and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CLIPQUEUE_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("CLIPQUEUE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CLIPQUEUE_DOWNLOAD_DIR"); v != "" {
		c.Downloads.Dir = v
	}
	if v := os.Getenv("CLIPQUEUE_ADMIN_IDS"); v != "" {
		c.Admins = splitList(v)
	}
	if v := os.Getenv("CLIPQUEUE_ANALYTICS_BACKEND"); v != "" {
		c.Analytics.Backend = v
	}
	if v := os.Getenv("CLIPQUEUE_REDIS_ADDR"); v != "" {
		c.Analytics.Redis.Addr = v
	}
	if v := os.Getenv("CLIPQUEUE_REDIS_PASSWORD"); v != "" {
		c.Analytics.Redis.Password = v
	}
	if v := os.Getenv("CLIPQUEUE_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Limits.MaxConcurrent = n
		}
	}
}

func (c *Config) setDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Limits.RequestsPerWindow <= 0 {
		c.Limits.RequestsPerWindow = DefaultRequestsPerWindow
	}
	if c.Limits.WindowSeconds <= 0 {
		c.Limits.WindowSeconds = DefaultWindowSeconds
	}
	if c.Limits.MaxConcurrent <= 0 {
		c.Limits.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.Limits.MaxConcurrent > 10 {
		c.Limits.MaxConcurrent = 10
	}
	if c.Limits.MaxAttempts <= 0 {
		c.Limits.MaxAttempts = DefaultMaxAttempts
	}
	if c.Limits.MaxFileSizeMB <= 0 {
		c.Limits.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if c.Limits.MaxDurationSeconds <= 0 {
		c.Limits.MaxDurationSeconds = DefaultMaxDurationSec
	}
	if c.Limits.AttemptTimeoutSec <= 0 {
		c.Limits.AttemptTimeoutSec = DefaultAttemptTimeoutSec
	}
	if c.Limits.RetryDelaySeconds <= 0 {
		c.Limits.RetryDelaySeconds = DefaultRetryDelaySec
	}
	if c.Limits.DefaultJobDuration <= 0 {
		c.Limits.DefaultJobDuration = DefaultJobDurationSec
	}
	if c.Queue.Capacity <= 0 {
		c.Queue.Capacity = DefaultQueueCapacity
	}
	if c.Queue.RetainedJobs <= 0 {
		c.Queue.RetainedJobs = DefaultRetainedJobs
	}
	if c.Downloads.Dir == "" {
		c.Downloads.Dir = DefaultDownloadDir
	}
	if c.Analytics.Backend == "" {
		c.Analytics.Backend = DefaultAnalyticsBackend
	}
	if c.Analytics.File == "" {
		c.Analytics.File = DefaultAnalyticsFile
	}
	if c.Notify.BufferSize <= 0 {
		c.Notify.BufferSize = DefaultNotifyBuffer
	}
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	switch c.Analytics.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("analytics backend must be file or redis, got %q", c.Analytics.Backend)
	}
	if c.Analytics.Backend == "redis" && c.Analytics.Redis.Addr == "" {
		return fmt.Errorf("analytics backend redis requires an address")
	}
	return nil
}

// Window returns the rate limit window as a duration
func (c *Config) Window() time.Duration {
	return time.Duration(c.Limits.WindowSeconds) * time.Second
}

// MaxFileSize returns the artifact size cap in bytes
func (c *Config) MaxFileSize() int64 {
	return c.Limits.MaxFileSizeMB * 1024 * 1024
}

// MaxVideoDuration returns the artifact duration cap
func (c *Config) MaxVideoDuration() time.Duration {
	return time.Duration(c.Limits.MaxDurationSeconds) * time.Second
}

// AttemptTimeout returns the per-attempt extraction deadline
func (c *Config) AttemptTimeout() time.Duration {
	return time.Duration(c.Limits.AttemptTimeoutSec) * time.Second
}

// RetryDelay returns the pause between extraction attempts
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Limits.RetryDelaySeconds) * time.Second
}

// DefaultJobDurationValue seeds the wait estimate before history exists
func (c *Config) DefaultJobDurationValue() time.Duration {
	return time.Duration(c.Limits.DefaultJobDuration) * time.Second
}

// IsAdmin reports whether the owner bypasses rate limiting
func (c *Config) IsAdmin(owner string) bool {
	for _, id := range c.Admins {
		if id == owner {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
