package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server  HTTPServerConfig `json:"server"`
	LLM     LLMConfig        `json:"llm"`
	Styles  StylesConfig     `json:"styles"`
	Sandbox SandboxConfig    `json:"sandbox"`
	Log     LogConfig        `json:"log"`
	Metrics MetricsConfig    `json:"metrics"`
}

type HTTPServerConfig struct {
	Host            string        `json:"host" default:"0.0.0.0"`
	Port            int           `json:"port" default:"8080"`
	ReadTimeout     time.Duration `json:"read_timeout" default:"30s"`
	WriteTimeout    time.Duration `json:"write_timeout" default:"3m"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" default:"30s"`
	AllowedOrigins  []string      `json:"allowed_origins" default:"*"`
}

type LLMConfig struct {
	Provider    string        `json:"provider" default:"openai"` // openai | gemini | mock
	APIKey      string        `json:"api_key"`
	BaseURL     string        `json:"base_url"`
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens" default:"4000"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"timeout" default:"2m"`
}

type StylesConfig struct {
	Binary         string        `json:"binary" default:"tailwindcss"`
	Mode           string        `json:"mode" default:"stdin"` // stdin | file
	Prefix         string        `json:"prefix"`
	DarkMode       bool          `json:"dark_mode" default:"true"`
	Minify         bool          `json:"minify"`
	Timeout        time.Duration `json:"timeout" default:"30s"`
	MaxOutputBytes int64         `json:"max_output_bytes" default:"2097152"`
	TempDir        string        `json:"temp_dir"`
}

type SandboxConfig struct {
	Binary         string        `json:"binary" default:"node"`
	Timeout        time.Duration `json:"timeout" default:"5s"`
	ScriptTimeout  time.Duration `json:"script_timeout" default:"1s"`
	MaxOutputBytes int64         `json:"max_output_bytes" default:"1048576"`
	MaxHeapMB      int           `json:"max_heap_mb" default:"64"`
}

type LogConfig struct {
	Level      string `json:"level" default:"info"`
	Format     string `json:"format" default:"json"` // json | text
	File       string `json:"file"`                  // пусто = stdout
	MaxSizeMB  int    `json:"max_size_mb" default:"20"`
	MaxBackups int    `json:"max_backups" default:"5"`
	MaxAgeDays int    `json:"max_age_days" default:"14"`
}

type MetricsConfig struct {
	// Addr of a dedicated metrics listener; /metrics is served on the main router regardless.
	Addr string `json:"addr"`
}

func Default() Config {
	return Config{
		Server: HTTPServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    3 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		LLM: LLMConfig{
			Provider:  "openai",
			MaxTokens: 4000,
			Timeout:   2 * time.Minute,
		},
		Styles: StylesConfig{
			Binary:         "tailwindcss",
			Mode:           "stdin",
			DarkMode:       true,
			Timeout:        30 * time.Second,
			MaxOutputBytes: 2 << 20,
		},
		Sandbox: SandboxConfig{
			Binary:         "node",
			Timeout:        5 * time.Second,
			ScriptTimeout:  time.Second,
			MaxOutputBytes: 1 << 20,
			MaxHeapMB:      64,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  20,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
	}
}

// Validate checks the merged configuration before anything is started.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "gemini":
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			errs = append(errs, fmt.Errorf("llm.api_key is required for provider %q", c.LLM.Provider))
		}
	case "mock":
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not one of openai, gemini, mock", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature %.2f out of range [0, 2]", c.LLM.Temperature))
	}

	switch c.Styles.Mode {
	case "stdin", "file":
	default:
		errs = append(errs, fmt.Errorf("styles.mode %q is not one of stdin, file", c.Styles.Mode))
	}
	if c.Styles.Binary == "" {
		errs = append(errs, errors.New("styles.binary is required"))
	}
	if c.Styles.Timeout <= 0 {
		errs = append(errs, errors.New("styles.timeout must be positive"))
	}
	if c.Sandbox.Timeout <= 0 || c.Sandbox.ScriptTimeout <= 0 {
		errs = append(errs, errors.New("sandbox timeouts must be positive"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
