// Package config holds the layered configuration surface for swarmmind:
// defaults, then environment variables (SWARMMIND_*), then functional
// options, mirroring the three-layer priority the framework this was
// adapted from uses for its own Config type.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration object threaded through
// cmd/swarmctl into every package that needs a tunable.
type Config struct {
	WorkspaceRoot string `env:"SWARMMIND_WORKSPACE_ROOT" default:"./workspaces"`
	ProjectRoot   string `env:"SWARMMIND_PROJECT_ROOT" default:"."`

	LLM        LLMConfig
	Resources  ResourceConfig
	Agents     AgentPoolConfig
	Swarm      SwarmConfig
	Resilience ResilienceConfig
	Logging    LoggingConfig
	Redis      RedisConfig
	Dev        DevelopmentConfig
}

// LLMConfig controls the LLM adapter's provider, tiered timeouts, and
// retry behaviour (spec §4.1).
type LLMConfig struct {
	Provider    string        `env:"SWARMMIND_LLM_PROVIDER" default:"openai"`
	APIKey      string        `env:"SWARMMIND_LLM_API_KEY,OPENAI_API_KEY"`
	BaseURL     string        `env:"SWARMMIND_LLM_BASE_URL"`
	Model       string        `env:"SWARMMIND_LLM_MODEL" default:"gpt-4"`
	Temperature float64       `env:"SWARMMIND_LLM_TEMPERATURE" default:"0.7"`
	MaxTokens   int           `env:"SWARMMIND_LLM_MAX_TOKENS" default:"2000"`
	ReasoningClass bool       `env:"SWARMMIND_LLM_REASONING_CLASS" default:"false"`

	TimeoutSimple    time.Duration `env:"SWARMMIND_LLM_TIMEOUT_SIMPLE" default:"60s"`
	TimeoutNormal    time.Duration `env:"SWARMMIND_LLM_TIMEOUT_NORMAL" default:"120s"`
	TimeoutComplex   time.Duration `env:"SWARMMIND_LLM_TIMEOUT_COMPLEX" default:"300s"`
	TimeoutReasoning time.Duration `env:"SWARMMIND_LLM_TIMEOUT_REASONING" default:"600s"`

	RetryMaxAttempts int           `env:"SWARMMIND_LLM_RETRY_ATTEMPTS" default:"5"`
	RetryBaseDelay   time.Duration `env:"SWARMMIND_LLM_RETRY_BASE_DELAY" default:"2s"`
	RetryMaxDelay    time.Duration `env:"SWARMMIND_LLM_RETRY_MAX_DELAY" default:"60s"`

	StreamChunkInactivity time.Duration `env:"SWARMMIND_LLM_STREAM_INACTIVITY" default:"30s"`
}

// ResourceConfig sets the environment's resource ledger totals (spec §3/§4.3).
type ResourceConfig struct {
	TotalCPU             float64 `env:"SWARMMIND_RESOURCE_CPU" default:"100"`
	TotalMemoryMB        float64 `env:"SWARMMIND_RESOURCE_MEMORY_MB" default:"16384"`
	TotalDiskIOBandwidth float64 `env:"SWARMMIND_RESOURCE_DISK_IO" default:"1000"`
	TotalNetworkBandwidth float64 `env:"SWARMMIND_RESOURCE_NETWORK" default:"1000"`
	TotalFileHandles     float64 `env:"SWARMMIND_RESOURCE_FILE_HANDLES" default:"4096"`
	TotalThreads         float64 `env:"SWARMMIND_RESOURCE_THREADS" default:"512"`

	CPUHeadroomPct    float64 `env:"SWARMMIND_CONSTRAINT_CPU_HEADROOM_PCT" default:"90"`
	DynamicsTickEvery time.Duration `env:"SWARMMIND_DYNAMICS_TICK" default:"5s"`
	EventLogCapacity  int     `env:"SWARMMIND_EVENT_LOG_CAPACITY" default:"10000"`
}

// AgentPoolConfig controls how many agents of each role/mode the
// runtime starts and the bounds on their queues.
type AgentPoolConfig struct {
	InitialPoolSize int `env:"SWARMMIND_AGENTS_INITIAL_POOL" default:"4"`
	MaxPoolSize     int `env:"SWARMMIND_AGENTS_MAX_POOL" default:"32"`
	MinPoolSize     int `env:"SWARMMIND_AGENTS_MIN_POOL" default:"1"`
	DefaultMode     string `env:"SWARMMIND_AGENTS_DEFAULT_MODE" default:"hybrid"`

	ComplexityLowThreshold  float64 `env:"SWARMMIND_HYBRID_LOW_THRESHOLD" default:"0.5"`
	ComplexityHighThreshold float64 `env:"SWARMMIND_HYBRID_HIGH_THRESHOLD" default:"1.5"`
	LearningRate            float64 `env:"SWARMMIND_HYBRID_LEARNING_RATE" default:"0.1"`
	LearningWindow          int     `env:"SWARMMIND_HYBRID_LEARNING_WINDOW" default:"100"`
}

// SwarmConfig tunes the coordinator's scheduling loop cadences and
// limits (spec §4.9, §5).
type SwarmConfig struct {
	DecompositionQueueBound int           `env:"SWARMMIND_SWARM_DECOMP_QUEUE" default:"256"`
	DispatchQueueBound      int           `env:"SWARMMIND_SWARM_DISPATCH_QUEUE" default:"256"`
	SchedulerTick           time.Duration `env:"SWARMMIND_SWARM_SCHEDULER_TICK" default:"250ms"`
	MonitorTick             time.Duration `env:"SWARMMIND_SWARM_MONITOR_TICK" default:"1s"`
	LoadBalanceTick         time.Duration `env:"SWARMMIND_SWARM_LOADBALANCE_TICK" default:"5s"`
	CheckpointInterval      time.Duration `env:"SWARMMIND_SWARM_CHECKPOINT_INTERVAL" default:"30s"`
	CheckpointDir           string        `env:"SWARMMIND_SWARM_CHECKPOINT_DIR" default:"./checkpoints"`
	MaxRetriesPerTask       int           `env:"SWARMMIND_SWARM_MAX_RETRIES" default:"3"`
	ValidationPassScore     int           `env:"SWARMMIND_SWARM_VALIDATION_PASS_SCORE" default:"70"`
	ShutdownDrainTimeout    time.Duration `env:"SWARMMIND_SWARM_SHUTDOWN_DRAIN" default:"30s"`

	UseRedisStore bool `env:"SWARMMIND_SWARM_USE_REDIS_STORE" default:"false"`
}

// ResilienceConfig mirrors resilience.CircuitBreakerConfig/RetryConfig
// fields so they can be overridden from the environment.
type ResilienceConfig struct {
	CircuitBreakerEnabled          bool          `env:"SWARMMIND_CB_ENABLED" default:"true"`
	CircuitBreakerFailureThreshold int           `env:"SWARMMIND_CB_FAILURE_THRESHOLD" default:"5"`
	CircuitBreakerErrorRate        float64       `env:"SWARMMIND_CB_ERROR_RATE" default:"0.5"`
	CircuitBreakerMinRequests      int           `env:"SWARMMIND_CB_MIN_REQUESTS" default:"10"`
	CircuitBreakerOpenTimeout      time.Duration `env:"SWARMMIND_CB_OPEN_TIMEOUT" default:"30s"`
}

// LoggingConfig controls the telemetry logger's verbosity and format.
type LoggingConfig struct {
	Level  string `env:"SWARMMIND_LOG_LEVEL" default:"info"`
	Format string `env:"SWARMMIND_LOG_FORMAT" default:"text"`
}

// RedisConfig is consulted when Swarm.UseRedisStore is enabled, for
// checkpointing task/agent state across restarts.
type RedisConfig struct {
	URL string `env:"SWARMMIND_REDIS_URL,REDIS_URL" default:"redis://localhost:6379"`
}

// DevelopmentConfig flips on conveniences unsuitable for production.
type DevelopmentConfig struct {
	Enabled    bool `env:"SWARMMIND_DEV_MODE" default:"false"`
	MockLLM    bool `env:"SWARMMIND_DEV_MOCK_LLM" default:"false"`
	PrettyLogs bool `env:"SWARMMIND_DEV_PRETTY_LOGS" default:"false"`
}

// Option mutates a Config during construction; functional options take
// precedence over both defaults and environment variables.
type Option func(*Config) error

// New builds a Config from compiled-in defaults, then environment
// variables, then opts, validating the result.
func New(opts ...Option) (*Config, error) {
	cfg := defaultConfig()
	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("config: applying option: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		WorkspaceRoot: "./workspaces",
		ProjectRoot:   ".",
		LLM: LLMConfig{
			Provider: "openai", Model: "gpt-4", Temperature: 0.7, MaxTokens: 2000,
			TimeoutSimple: 60 * time.Second, TimeoutNormal: 120 * time.Second,
			TimeoutComplex: 300 * time.Second, TimeoutReasoning: 600 * time.Second,
			RetryMaxAttempts: 5, RetryBaseDelay: 2 * time.Second, RetryMaxDelay: 60 * time.Second,
			StreamChunkInactivity: 30 * time.Second,
		},
		Resources: ResourceConfig{
			TotalCPU: 100, TotalMemoryMB: 16384, TotalDiskIOBandwidth: 1000,
			TotalNetworkBandwidth: 1000, TotalFileHandles: 4096, TotalThreads: 512,
			CPUHeadroomPct: 90, DynamicsTickEvery: 5 * time.Second, EventLogCapacity: 10000,
		},
		Agents: AgentPoolConfig{
			InitialPoolSize: 4, MaxPoolSize: 32, MinPoolSize: 1, DefaultMode: "hybrid",
			ComplexityLowThreshold: 0.5, ComplexityHighThreshold: 1.5,
			LearningRate: 0.1, LearningWindow: 100,
		},
		Swarm: SwarmConfig{
			DecompositionQueueBound: 256, DispatchQueueBound: 256,
			SchedulerTick: 250 * time.Millisecond, MonitorTick: time.Second,
			LoadBalanceTick: 5 * time.Second, CheckpointInterval: 30 * time.Second,
			CheckpointDir: "./checkpoints", MaxRetriesPerTask: 3,
			ValidationPassScore: 70, ShutdownDrainTimeout: 30 * time.Second,
		},
		Resilience: ResilienceConfig{
			CircuitBreakerEnabled: true, CircuitBreakerFailureThreshold: 5,
			CircuitBreakerErrorRate: 0.5, CircuitBreakerMinRequests: 10,
			CircuitBreakerOpenTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Redis:   RedisConfig{URL: "redis://localhost:6379"},
	}
}

// loadFromEnv overlays environment variables named in this file's
// `env` struct tags onto cfg. Unlike the teacher's reflect-free manual
// assignment, we only implement the handful of lookups actually needed
// here directly against os.Getenv to keep the wiring obvious.
func (c *Config) loadFromEnv() error {
	if v := firstEnv("SWARMMIND_WORKSPACE_ROOT"); v != "" {
		c.WorkspaceRoot = v
	}
	if v := firstEnv("SWARMMIND_PROJECT_ROOT"); v != "" {
		c.ProjectRoot = v
	}
	if v := firstEnv("SWARMMIND_LLM_API_KEY", "OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := firstEnv("SWARMMIND_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := firstEnv("SWARMMIND_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := firstEnv("SWARMMIND_LLM_REASONING_CLASS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SWARMMIND_LLM_REASONING_CLASS: %w", err)
		}
		c.LLM.ReasoningClass = b
	}
	if v := firstEnv("SWARMMIND_REDIS_URL", "REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := firstEnv("SWARMMIND_SWARM_USE_REDIS_STORE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SWARMMIND_SWARM_USE_REDIS_STORE: %w", err)
		}
		c.Swarm.UseRedisStore = b
	}
	if v := firstEnv("SWARMMIND_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := firstEnv("SWARMMIND_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := firstEnv("SWARMMIND_DEV_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SWARMMIND_DEV_MODE: %w", err)
		}
		c.Dev.Enabled = b
	}
	if v := firstEnv("SWARMMIND_AGENTS_INITIAL_POOL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SWARMMIND_AGENTS_INITIAL_POOL: %w", err)
		}
		c.Agents.InitialPoolSize = n
	}
	return nil
}

// firstEnv returns the value of the first set variable among names,
// matching the teacher's "GOMIND_X,LEGACY_X" comma-separated fallback
// convention.
func firstEnv(names ...string) string {
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			if v := os.Getenv(strings.TrimSpace(part)); v != "" {
				return v
			}
		}
	}
	return ""
}

func (c *Config) validate() error {
	if c.Agents.MaxPoolSize < c.Agents.MinPoolSize {
		return fmt.Errorf("agents.max_pool_size (%d) < agents.min_pool_size (%d)", c.Agents.MaxPoolSize, c.Agents.MinPoolSize)
	}
	if c.Agents.InitialPoolSize < c.Agents.MinPoolSize || c.Agents.InitialPoolSize > c.Agents.MaxPoolSize {
		return fmt.Errorf("agents.initial_pool_size (%d) outside [%d,%d]", c.Agents.InitialPoolSize, c.Agents.MinPoolSize, c.Agents.MaxPoolSize)
	}
	if c.Resources.CPUHeadroomPct <= 0 || c.Resources.CPUHeadroomPct > 100 {
		return fmt.Errorf("resources.cpu_headroom_pct (%v) must be in (0,100]", c.Resources.CPUHeadroomPct)
	}
	if c.Swarm.ValidationPassScore < 0 || c.Swarm.ValidationPassScore > 100 {
		return fmt.Errorf("swarm.validation_pass_score (%d) must be in [0,100]", c.Swarm.ValidationPassScore)
	}
	return nil
}

// --- functional options ---

func WithWorkspaceRoot(path string) Option {
	return func(c *Config) error { c.WorkspaceRoot = path; return nil }
}

func WithLLMProvider(provider, apiKey, model string) Option {
	return func(c *Config) error {
		c.LLM.Provider = provider
		c.LLM.APIKey = apiKey
		if model != "" {
			c.LLM.Model = model
		}
		return nil
	}
}

func WithAgentPool(initial, min, max int) Option {
	return func(c *Config) error {
		c.Agents.InitialPoolSize = initial
		c.Agents.MinPoolSize = min
		c.Agents.MaxPoolSize = max
		return nil
	}
}

func WithLogFormat(format string) Option {
	return func(c *Config) error { c.Logging.Format = format; return nil }
}

func WithRedisCheckpointing(redisURL string) Option {
	return func(c *Config) error {
		c.Swarm.UseRedisStore = true
		c.Redis.URL = redisURL
		return nil
	}
}
