// Package config provides configuration management for the waitlist CLI.
// It loads configuration from environment variables, optionally seeded from
// a .env file, with sensible defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Verbosity represents the output verbosity level
type Verbosity string

const (
	// VerbosityNormal shows only essential output
	VerbosityNormal Verbosity = "normal"
	// VerbosityVerbose includes run status transitions
	VerbosityVerbose Verbosity = "verbose"
	// VerbosityDebug provides full debug logging
	VerbosityDebug Verbosity = "debug"
)

// Environment selects which backend deployment the client talks to
type Environment string

const (
	// EnvDevelopment targets a backend on localhost and fakes subscriptions
	EnvDevelopment Environment = "development"
	// EnvProduction targets the hosted backend
	EnvProduction Environment = "production"
)

const (
	// DevelopmentURL is the base URL of a locally running backend
	DevelopmentURL = "http://localhost:3000"
	// ProductionURL is the base URL of the hosted backend
	ProductionURL = "https://sandwich-club-backend.onrender.com"

	// DefaultPollInterval is the fixed wait between run status polls
	DefaultPollInterval = 2500 * time.Millisecond
	// DefaultHTTPTimeout bounds every backend request
	DefaultHTTPTimeout = 30 * time.Second
	// DefaultRankerModel is the chat model used to rank articles
	DefaultRankerModel = "gpt-4o-mini"
	// DefaultSubscribersDB is the SQLite file used for development subscriptions
	DefaultSubscribersDB = "waitlist-dev.db"
	// DefaultDevServerPort matches the port of DevelopmentURL
	DefaultDevServerPort = 3000
)

// RankerConfig holds settings for the article ranking chat completion
type RankerConfig struct {
	// Model is the chat model name sent with each completion request
	Model string

	// APIKey is sent as a bearer token; empty means no key
	APIKey string

	// BaseURL is the OpenAI-compatible endpoint root
	BaseURL string
}

// DevServerConfig holds settings for the local fake backend
type DevServerConfig struct {
	// Port is the HTTP port the fake backend listens on
	Port int
}

// Config holds all configuration for the waitlist CLI
type Config struct {
	// Env selects development or production behavior
	Env Environment

	// APIURL is the base URL of the assistant backend
	APIURL string

	// AssistantID identifies the remote assistant that runs are created for
	AssistantID string

	// PollInterval is the fixed delay between run status polls
	PollInterval time.Duration

	// HTTPTimeout bounds each backend request
	HTTPTimeout time.Duration

	// Verbosity controls output level
	Verbosity Verbosity

	// ArticlesFile optionally overrides the embedded article catalog
	ArticlesFile string

	// SubscribersDB is the SQLite path used for subscriptions in development
	SubscribersDB string

	// Ranker holds article ranking configuration
	Ranker RankerConfig

	// DevServer holds fake backend configuration
	DevServer DevServerConfig

	apiURLFromEnv    bool
	rankerURLFromEnv bool
}

// New creates a new Config instance from environment variables. A .env file
// in the working directory is loaded first when present; variables already
// set in the environment are not overridden.
func New() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{}

	env := os.Getenv("WAITLIST_ENV")
	switch Environment(env) {
	case "":
		cfg.Env = EnvProduction
	case EnvDevelopment, EnvProduction:
		cfg.Env = Environment(env)
	default:
		return nil, fmt.Errorf("WAITLIST_ENV must be one of: development, production; got: %s", env)
	}

	// Load APIURL - defaults to the URL of the selected environment
	if apiURL := os.Getenv("WAITLIST_API_URL"); apiURL != "" {
		if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
			return nil, fmt.Errorf("WAITLIST_API_URL must start with http:// or https://, got: %s", apiURL)
		}
		cfg.APIURL = strings.TrimRight(apiURL, "/")
		cfg.apiURLFromEnv = true
	} else if cfg.Env == EnvDevelopment {
		cfg.APIURL = DevelopmentURL
	} else {
		cfg.APIURL = ProductionURL
	}

	cfg.AssistantID = os.Getenv("WAITLIST_ASSISTANT_ID")

	pollInterval, err := parseMillisEnv("WAITLIST_POLL_INTERVAL_MS", DefaultPollInterval)
	if err != nil {
		return nil, err
	}
	cfg.PollInterval = pollInterval

	httpTimeout, err := parseSecondsEnv("WAITLIST_HTTP_TIMEOUT", DefaultHTTPTimeout)
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = httpTimeout

	// Load Verbosity - defaults to normal
	verbosity := os.Getenv("WAITLIST_VERBOSITY")
	if verbosity == "" {
		cfg.Verbosity = VerbosityNormal
	} else {
		switch Verbosity(verbosity) {
		case VerbosityNormal, VerbosityVerbose, VerbosityDebug:
			cfg.Verbosity = Verbosity(verbosity)
		default:
			return nil, fmt.Errorf("WAITLIST_VERBOSITY must be one of: normal, verbose, debug; got: %s", verbosity)
		}
	}

	cfg.ArticlesFile = os.Getenv("WAITLIST_ARTICLES_FILE")

	cfg.SubscribersDB = os.Getenv("WAITLIST_SUBSCRIBERS_DB")
	if cfg.SubscribersDB == "" {
		cfg.SubscribersDB = DefaultSubscribersDB
	}

	cfg.Ranker = RankerConfig{
		Model:  os.Getenv("WAITLIST_RANKER_MODEL"),
		APIKey: os.Getenv("WAITLIST_RANKER_API_KEY"),
	}
	if cfg.Ranker.Model == "" {
		cfg.Ranker.Model = DefaultRankerModel
	}
	if rankerURL := os.Getenv("WAITLIST_RANKER_BASE_URL"); rankerURL != "" {
		cfg.Ranker.BaseURL = rankerURL
		cfg.rankerURLFromEnv = true
	} else {
		cfg.Ranker.BaseURL = cfg.APIURL + "/"
	}

	// Load DevServer.Port - defaults to 3000
	cfg.DevServer.Port = DefaultDevServerPort
	if portStr := os.Getenv("WAITLIST_DEVSERVER_PORT"); portStr != "" {
		port, err := parsePort(portStr)
		if err != nil {
			return nil, fmt.Errorf("WAITLIST_DEVSERVER_PORT %s", err)
		}
		cfg.DevServer.Port = port
	}

	return cfg, nil
}

// UseLocalBackend switches the configuration to the development environment.
// An explicit WAITLIST_API_URL or WAITLIST_RANKER_BASE_URL is kept.
func (c *Config) UseLocalBackend() {
	c.Env = EnvDevelopment
	if !c.apiURLFromEnv {
		c.APIURL = DevelopmentURL
	}
	if !c.rankerURLFromEnv {
		c.Ranker.BaseURL = c.APIURL + "/"
	}
}

// IsDevelopment returns true when talking to a local backend
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsVerbose returns true if verbosity is verbose or debug
func (c *Config) IsVerbose() bool {
	return c.Verbosity == VerbosityVerbose || c.Verbosity == VerbosityDebug
}

// IsDebug returns true if verbosity is debug
func (c *Config) IsDebug() bool {
	return c.Verbosity == VerbosityDebug
}

// RequireAssistant returns an error when no assistant id is configured
func (c *Config) RequireAssistant() error {
	if c.AssistantID == "" {
		return fmt.Errorf("WAITLIST_ASSISTANT_ID is required")
	}
	return nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// parseMillisEnv parses a positive millisecond count with a default value
func parseMillisEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	ms, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if ms <= 0 {
		return 0, fmt.Errorf("%s must be positive, got: %d", key, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// parseSecondsEnv parses a positive second count with a default value
func parseSecondsEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	secs, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if secs <= 0 {
		return 0, fmt.Errorf("%s must be positive, got: %d", key, secs)
	}
	return time.Duration(secs) * time.Second, nil
}

// parsePort parses and validates a port number string
func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("must be between 1 and 65535, got: %d", port)
	}
	return port, nil
}
