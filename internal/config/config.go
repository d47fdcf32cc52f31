package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Backend chat service. BackendBaseURL is consumed by the backend client only.
	BackendBaseURL string
	BackendTimeout time.Duration
	ProbeTimeout   time.Duration
	// Provider is the backend's upstream model provider, probed at /test-<provider>.
	Provider string
	// Optional direct provider check
	OpenAIAPIKey  string
	OpenAIBaseURL string
	// Logging
	LogLevel  string
	LogFormat string
	// Terminal chat client
	GatewayURL string
	UserID     string
	Messages   Messages
}

// Messages holds the display texts shown to end users.
type Messages struct {
	SystemOK           string `yaml:"system_ok"`
	SystemError        string `yaml:"system_error"`
	ServiceUnavailable string `yaml:"service_unavailable"`
	BackendDown        string `yaml:"backend_down"`
	ProviderDown       string `yaml:"provider_down"`
}

// fileConfig mirrors the YAML layout. Empty values leave the defaults untouched.
type fileConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigin  string   `yaml:"allowed_origin"`
	BackendBaseURL string   `yaml:"backend_base_url"`
	BackendTimeout string   `yaml:"backend_timeout"`
	ProbeTimeout   string   `yaml:"probe_timeout"`
	Provider       string   `yaml:"provider"`
	OpenAIAPIKey   string   `yaml:"openai_api_key"`
	OpenAIBaseURL  string   `yaml:"openai_base_url"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"`
	GatewayURL     string   `yaml:"gateway_url"`
	UserID         string   `yaml:"user_id"`
	Messages       Messages `yaml:"messages"`
}

func DefaultMessages() Messages {
	return Messages{
		SystemOK:           "all systems are operating normally",
		SystemError:        "system error",
		ServiceUnavailable: "The assistant is unavailable right now. Please try again in a moment.",
		BackendDown:        "backend server is not responding",
		ProviderDown:       "problem connecting to the model provider",
	}
}

func defaults() Config {
	return Config{
		Port:           "8080",
		AllowedOrigin:  "*",
		BackendBaseURL: "http://localhost:5000",
		BackendTimeout: 30 * time.Second,
		ProbeTimeout:   5 * time.Second,
		Provider:       "openai",
		LogLevel:       "info",
		LogFormat:      "console",
		GatewayURL:     "http://localhost:8080",
		Messages:       DefaultMessages(),
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// (falling back to MOVNE_CONFIG), a .env file and the process environment, in
// increasing order of precedence.
func Load(path string) (Config, error) {
	_ = godotenv.Load()
	cfg := defaults()

	if path == "" {
		path = os.Getenv("MOVNE_CONFIG")
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = getEnvDefault("PORT", cfg.Port)
	cfg.AllowedOrigin = getEnvDefault("ALLOWED_ORIGIN", cfg.AllowedOrigin)
	cfg.BackendBaseURL = getEnvDefault("BACKEND_BASE_URL", cfg.BackendBaseURL)
	cfg.Provider = getEnvDefault("BACKEND_PROVIDER", cfg.Provider)
	cfg.OpenAIAPIKey = getEnvDefault("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = getEnvDefault("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.LogLevel = getEnvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.GatewayURL = getEnvDefault("GATEWAY_URL", cfg.GatewayURL)
	cfg.UserID = getEnvDefault("CHAT_USER_ID", cfg.UserID)

	var err error
	if cfg.BackendTimeout, err = getEnvDurationDefault("BACKEND_TIMEOUT", cfg.BackendTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ProbeTimeout, err = getEnvDurationDefault("PROBE_TIMEOUT", cfg.ProbeTimeout); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.OpenAIAPIKey == "" {
		log.Debug().Msg("OPENAI_API_KEY is not set; direct provider probe disabled")
	}
	return cfg, nil
}

// Validate checks the values every component relies on.
func (c Config) Validate() error {
	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("invalid backend base url %q", c.BackendBaseURL)
	}
	if c.BackendTimeout <= 0 {
		return errors.New("backend timeout must be positive")
	}
	if c.ProbeTimeout <= 0 {
		return errors.New("probe timeout must be positive")
	}
	if strings.TrimSpace(c.Provider) == "" {
		return errors.New("provider must not be empty")
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}

	setString(&c.Port, fc.Port)
	setString(&c.AllowedOrigin, fc.AllowedOrigin)
	setString(&c.BackendBaseURL, fc.BackendBaseURL)
	setString(&c.Provider, fc.Provider)
	setString(&c.OpenAIAPIKey, fc.OpenAIAPIKey)
	setString(&c.OpenAIBaseURL, fc.OpenAIBaseURL)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.GatewayURL, fc.GatewayURL)
	setString(&c.UserID, fc.UserID)

	setString(&c.Messages.SystemOK, fc.Messages.SystemOK)
	setString(&c.Messages.SystemError, fc.Messages.SystemError)
	setString(&c.Messages.ServiceUnavailable, fc.Messages.ServiceUnavailable)
	setString(&c.Messages.BackendDown, fc.Messages.BackendDown)
	setString(&c.Messages.ProviderDown, fc.Messages.ProviderDown)

	if fc.BackendTimeout != "" {
		d, err := time.ParseDuration(fc.BackendTimeout)
		if err != nil {
			return errors.Wrap(err, "backend_timeout")
		}
		c.BackendTimeout = d
	}
	if fc.ProbeTimeout != "" {
		d, err := time.ParseDuration(fc.ProbeTimeout)
		if err != nil {
			return errors.Wrap(err, "probe_timeout")
		}
		c.ProbeTimeout = d
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return d, nil
}
