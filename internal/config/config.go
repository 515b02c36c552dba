package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Scratch  ScratchConfig  `yaml:"scratch"`
	Resolver ResolverConfig `yaml:"resolver"`
	Logging  LoggingConfig  `yaml:"logging"`
	Language LanguageConfig `yaml:"language"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type ScratchConfig struct {
	Dir           string        `yaml:"dir"`
	MaxAge        time.Duration `yaml:"max_age"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type ResolverConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIURL    string `yaml:"api_url"`
	UserAgent string `yaml:"user_agent"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type LanguageConfig struct {
	Enabled bool `yaml:"enabled"`
}

const (
	DefaultPort               = "3000"
	DefaultTranscriptionModel = "whisper-1"
	DefaultResolverAPIURL     = "https://www.tikwm.com/api/"
	DefaultUserAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Default returns the configuration used when neither a file nor the
// environment sets a value.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:            DefaultPort,
			ShutdownTimeout: 10 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Model: DefaultTranscriptionModel,
		},
		Scratch: ScratchConfig{
			Dir:           filepath.Join(os.TempDir(), "media-analysis"),
			MaxAge:        time.Hour,
			SweepInterval: 15 * time.Minute,
		},
		Resolver: ResolverConfig{
			Enabled:   true,
			APIURL:    DefaultResolverAPIURL,
			UserAgent: DefaultUserAgent,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Language: LanguageConfig{
			Enabled: true,
		},
	}
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win, and a missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from defaults, the optional YAML file at path
// and the process environment, in that order of precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.HTTP.Port = envString("PORT", c.HTTP.Port)
	c.OpenAI.APIKey = envString("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.BaseURL = envString("OPENAI_BASE_URL", c.OpenAI.BaseURL)
	c.OpenAI.Model = envString("TRANSCRIPTION_MODEL", c.OpenAI.Model)
	c.Scratch.Dir = envString("SCRATCH_DIR", c.Scratch.Dir)
	c.Resolver.UserAgent = envString("RESOLVER_USER_AGENT", c.Resolver.UserAgent)
	c.Logging.Level = envString("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = envString("LOG_FORMAT", c.Logging.Format)

	// An explicitly empty RESOLVER_API_URL disables the fallback API.
	if value, ok := os.LookupEnv("RESOLVER_API_URL"); ok {
		c.Resolver.APIURL = value
	}

	var err error
	if c.HTTP.ShutdownTimeout, err = envDuration("HTTP_SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout); err != nil {
		return err
	}
	if c.Scratch.MaxAge, err = envDuration("SCRATCH_MAX_AGE", c.Scratch.MaxAge); err != nil {
		return err
	}
	if c.Scratch.SweepInterval, err = envDuration("SCRATCH_SWEEP_INTERVAL", c.Scratch.SweepInterval); err != nil {
		return err
	}
	if c.Resolver.Enabled, err = envBool("TIKTOK_RESOLUTION", c.Resolver.Enabled); err != nil {
		return err
	}
	if c.Language.Enabled, err = envBool("LANGUAGE_DETECTION", c.Language.Enabled); err != nil {
		return err
	}
	return nil
}

// Validate fills in defaults for optional fields and rejects values the
// service cannot run with. A missing OpenAI key is tolerated here.
func (c *Config) Validate() error {
	if c.HTTP.Port == "" {
		return errors.New("http.port is required")
	}
	port, err := strconv.Atoi(c.HTTP.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("http.port %q is not a valid port", c.HTTP.Port)
	}
	if c.HTTP.ShutdownTimeout < 0 {
		return errors.New("http.shutdown_timeout must not be negative")
	}
	if c.Scratch.MaxAge < 0 {
		return errors.New("scratch.max_age must not be negative")
	}
	if c.Scratch.SweepInterval < 0 {
		return errors.New("scratch.sweep_interval must not be negative")
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	switch c.Logging.Level {
	case "":
		c.Logging.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}

	c.Logging.Format = strings.ToLower(c.Logging.Format)
	switch c.Logging.Format {
	case "":
		c.Logging.Format = "json"
	case "json", "text":
	default:
		return fmt.Errorf("logging.format %q is not supported", c.Logging.Format)
	}

	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = DefaultTranscriptionModel
	}
	if c.Scratch.Dir == "" {
		c.Scratch.Dir = filepath.Join(os.TempDir(), "media-analysis")
	}
	if c.Scratch.MaxAge == 0 {
		c.Scratch.MaxAge = time.Hour
	}
	if c.Resolver.UserAgent == "" {
		c.Resolver.UserAgent = DefaultUserAgent
	}

	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort("", c.HTTP.Port)
}

// envString returns the trimmed value of key, or fallback when it is unset
// or blank.
func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// envDuration accepts either a Go duration ("90s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return b, nil
}
