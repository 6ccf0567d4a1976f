package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the gaitqueue daemon. Values resolve in
// three layers: built-in defaults, then an optional YAML file named by
// GAITQUEUE_CONFIG, then GAITQUEUE_* environment variables, which win.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	Auth   AuthConfig   `yaml:"auth"`
	Jobs   JobsConfig   `yaml:"jobs"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`
}

type EngineConfig struct {
	MaxConcurrentJobs    int  `yaml:"max_concurrent_jobs"`
	JobTimeoutSeconds    int  `yaml:"job_timeout_seconds"`
	RetryDelaySeconds    int  `yaml:"retry_delay_seconds"`
	MaxQueueSize         int  `yaml:"max_queue_size"`
	CleanupAfterHours    int  `yaml:"cleanup_completed_jobs_after_hours"`
	WorkerThreadCount    int  `yaml:"worker_thread_count"`
	PriorityScheduling   bool `yaml:"priority_scheduling"`
	EnableJobPersistence bool `yaml:"enable_job_persistence"`
	SchedulerTickMS      int  `yaml:"scheduler_tick_ms"`
	SweepIntervalMinutes int  `yaml:"sweep_interval_minutes"`
}

type AuthConfig struct {
	// APIKeys are the accepted bearer tokens. Empty means the API is open.
	APIKeys []string `yaml:"api_keys"`
	// RateLimitPerMinute caps authenticated requests per key (or per client
	// address when auth is off). Zero disables rate limiting.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type JobsConfig struct {
	// HandlerStepMS paces the built-in handlers' simulated work.
	HandlerStepMS int `yaml:"handler_step_ms"`
}

// JobTimeout returns the default per-attempt deadline as a duration.
func (e EngineConfig) JobTimeout() time.Duration {
	return time.Duration(e.JobTimeoutSeconds) * time.Second
}

// RetryDelay returns the retry backoff as a duration.
func (e EngineConfig) RetryDelay() time.Duration {
	return time.Duration(e.RetryDelaySeconds) * time.Second
}

// CleanupAfter returns the terminal-job retention window as a duration.
func (e EngineConfig) CleanupAfter() time.Duration {
	return time.Duration(e.CleanupAfterHours) * time.Hour
}

// TickInterval returns the scheduler cadence as a duration.
func (e EngineConfig) TickInterval() time.Duration {
	return time.Duration(e.SchedulerTickMS) * time.Millisecond
}

// SweepInterval returns the retention sweep cadence as a duration.
func (e EngineConfig) SweepInterval() time.Duration {
	return time.Duration(e.SweepIntervalMinutes) * time.Minute
}

// StepDelay returns the simulated per-item work time as a duration.
func (j JobsConfig) StepDelay() time.Duration {
	return time.Duration(j.HandlerStepMS) * time.Millisecond
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8091,
			Env:  "development",
		},
		Engine: EngineConfig{
			MaxConcurrentJobs:    4,
			JobTimeoutSeconds:    3600,
			RetryDelaySeconds:    60,
			MaxQueueSize:         1000,
			CleanupAfterHours:    24,
			WorkerThreadCount:    2,
			PriorityScheduling:   true,
			EnableJobPersistence: false,
			SchedulerTickMS:      1000,
			SweepIntervalMinutes: 60,
		},
		Auth: AuthConfig{
			RateLimitPerMinute: 60,
		},
		Jobs: JobsConfig{
			HandlerStepMS: 250,
		},
	}
}

// Load resolves configuration from defaults, the optional YAML file and the
// environment, then validates it. Returns an error with a descriptive
// message if any value is out of range.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("GAITQUEUE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, c)
}

// applyEnv overlays GAITQUEUE_* variables. Each helper falls back to the
// current value, so unset variables leave file/default values alone.
func (c *Config) applyEnv() {
	c.Server.Port = envInt("GAITQUEUE_PORT", c.Server.Port)
	c.Server.Env = envString("GAITQUEUE_ENV", c.Server.Env)

	c.Engine.MaxConcurrentJobs = envInt("GAITQUEUE_MAX_CONCURRENT_JOBS", c.Engine.MaxConcurrentJobs)
	c.Engine.JobTimeoutSeconds = envInt("GAITQUEUE_JOB_TIMEOUT_SECS", c.Engine.JobTimeoutSeconds)
	c.Engine.RetryDelaySeconds = envInt("GAITQUEUE_RETRY_DELAY_SECS", c.Engine.RetryDelaySeconds)
	c.Engine.MaxQueueSize = envInt("GAITQUEUE_MAX_QUEUE_SIZE", c.Engine.MaxQueueSize)
	c.Engine.CleanupAfterHours = envInt("GAITQUEUE_CLEANUP_AFTER_HOURS", c.Engine.CleanupAfterHours)
	c.Engine.WorkerThreadCount = envInt("GAITQUEUE_WORKER_THREADS", c.Engine.WorkerThreadCount)
	c.Engine.PriorityScheduling = envBool("GAITQUEUE_PRIORITY_SCHEDULING", c.Engine.PriorityScheduling)
	c.Engine.EnableJobPersistence = envBool("GAITQUEUE_ENABLE_PERSISTENCE", c.Engine.EnableJobPersistence)
	c.Engine.SchedulerTickMS = envInt("GAITQUEUE_SCHEDULER_TICK_MS", c.Engine.SchedulerTickMS)
	c.Engine.SweepIntervalMinutes = envInt("GAITQUEUE_SWEEP_INTERVAL_MINS", c.Engine.SweepIntervalMinutes)

	if keys := os.Getenv("GAITQUEUE_API_KEYS"); keys != "" {
		c.Auth.APIKeys = splitKeys(keys)
	}
	c.Auth.RateLimitPerMinute = envInt("GAITQUEUE_RATE_LIMIT_PER_MINUTE", c.Auth.RateLimitPerMinute)

	c.Jobs.HandlerStepMS = envInt("GAITQUEUE_HANDLER_STEP_MS", c.Jobs.HandlerStepMS)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Engine.MaxConcurrentJobs < 1 {
		return fmt.Errorf("max_concurrent_jobs must be at least 1, got %d", c.Engine.MaxConcurrentJobs)
	}
	if c.Engine.JobTimeoutSeconds < 1 {
		return fmt.Errorf("job_timeout_seconds must be at least 1, got %d", c.Engine.JobTimeoutSeconds)
	}
	if c.Engine.RetryDelaySeconds < 0 {
		return fmt.Errorf("retry_delay_seconds must not be negative, got %d", c.Engine.RetryDelaySeconds)
	}
	if c.Engine.MaxQueueSize < 1 {
		return fmt.Errorf("max_queue_size must be at least 1, got %d", c.Engine.MaxQueueSize)
	}
	if c.Engine.CleanupAfterHours < 1 {
		return fmt.Errorf("cleanup_completed_jobs_after_hours must be at least 1, got %d", c.Engine.CleanupAfterHours)
	}
	if c.Engine.WorkerThreadCount < 1 {
		return fmt.Errorf("worker_thread_count must be at least 1, got %d", c.Engine.WorkerThreadCount)
	}
	if c.Engine.SchedulerTickMS < 1 {
		return fmt.Errorf("scheduler_tick_ms must be at least 1, got %d", c.Engine.SchedulerTickMS)
	}
	if c.Engine.SweepIntervalMinutes < 1 {
		return fmt.Errorf("sweep_interval_minutes must be at least 1, got %d", c.Engine.SweepIntervalMinutes)
	}

	if c.Auth.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must not be negative, got %d", c.Auth.RateLimitPerMinute)
	}
	for _, key := range c.Auth.APIKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("api_keys must not contain empty entries")
		}
	}

	if c.Jobs.HandlerStepMS < 0 {
		return fmt.Errorf("handler_step_ms must not be negative, got %d", c.Jobs.HandlerStepMS)
	}

	return nil
}

func splitKeys(raw string) []string {
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
