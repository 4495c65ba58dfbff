package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Load builds the configuration: defaults, then the optional HCL file, then
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

type fileConfig struct {
	Server  *serverBlock  `hcl:"server,block"`
	LLM     *llmBlock     `hcl:"llm,block"`
	Styles  *stylesBlock  `hcl:"styles,block"`
	Sandbox *sandboxBlock `hcl:"sandbox,block"`
	Log     *logBlock     `hcl:"log,block"`
	Metrics *metricsBlock `hcl:"metrics,block"`
}

type serverBlock struct {
	Host            *string  `hcl:"host,optional"`
	Port            *int     `hcl:"port,optional"`
	ReadTimeout     *string  `hcl:"read_timeout,optional"`
	WriteTimeout    *string  `hcl:"write_timeout,optional"`
	ShutdownTimeout *string  `hcl:"shutdown_timeout,optional"`
	AllowedOrigins  []string `hcl:"allowed_origins,optional"`
}

type llmBlock struct {
	Provider    *string  `hcl:"provider,optional"`
	APIKey      *string  `hcl:"api_key,optional"`
	BaseURL     *string  `hcl:"base_url,optional"`
	Model       *string  `hcl:"model,optional"`
	MaxTokens   *int     `hcl:"max_tokens,optional"`
	Temperature *float64 `hcl:"temperature,optional"`
	Timeout     *string  `hcl:"timeout,optional"`
}

type stylesBlock struct {
	Binary         *string `hcl:"binary,optional"`
	Mode           *string `hcl:"mode,optional"`
	Prefix         *string `hcl:"prefix,optional"`
	DarkMode       *bool   `hcl:"dark_mode,optional"`
	Minify         *bool   `hcl:"minify,optional"`
	Timeout        *string `hcl:"timeout,optional"`
	MaxOutputBytes *int64  `hcl:"max_output_bytes,optional"`
	TempDir        *string `hcl:"temp_dir,optional"`
}

type sandboxBlock struct {
	Binary         *string `hcl:"binary,optional"`
	Timeout        *string `hcl:"timeout,optional"`
	ScriptTimeout  *string `hcl:"script_timeout,optional"`
	MaxOutputBytes *int64  `hcl:"max_output_bytes,optional"`
	MaxHeapMB      *int    `hcl:"max_heap_mb,optional"`
}

type logBlock struct {
	Level      *string `hcl:"level,optional"`
	Format     *string `hcl:"format,optional"`
	File       *string `hcl:"file,optional"`
	MaxSizeMB  *int    `hcl:"max_size_mb,optional"`
	MaxBackups *int    `hcl:"max_backups,optional"`
	MaxAgeDays *int    `hcl:"max_age_days,optional"`
}

type metricsBlock struct {
	Addr *string `hcl:"addr,optional"`
}

// LoadFile overlays the attributes present in an HCL file onto cfg.
// Durations are written as strings, e.g. timeout = "30s".
func LoadFile(path string, cfg *Config) error {
	var fc fileConfig
	if err := hclsimple.DecodeFile(path, nil, &fc); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	var err error
	if b := fc.Server; b != nil {
		set(&cfg.Server.Host, b.Host)
		set(&cfg.Server.Port, b.Port)
		if b.AllowedOrigins != nil {
			cfg.Server.AllowedOrigins = b.AllowedOrigins
		}
		err = firstErr(err,
			setDuration(&cfg.Server.ReadTimeout, b.ReadTimeout, "server.read_timeout"),
			setDuration(&cfg.Server.WriteTimeout, b.WriteTimeout, "server.write_timeout"),
			setDuration(&cfg.Server.ShutdownTimeout, b.ShutdownTimeout, "server.shutdown_timeout"),
		)
	}
	if b := fc.LLM; b != nil {
		set(&cfg.LLM.Provider, b.Provider)
		set(&cfg.LLM.APIKey, b.APIKey)
		set(&cfg.LLM.BaseURL, b.BaseURL)
		set(&cfg.LLM.Model, b.Model)
		set(&cfg.LLM.MaxTokens, b.MaxTokens)
		set(&cfg.LLM.Temperature, b.Temperature)
		err = firstErr(err, setDuration(&cfg.LLM.Timeout, b.Timeout, "llm.timeout"))
	}
	if b := fc.Styles; b != nil {
		set(&cfg.Styles.Binary, b.Binary)
		set(&cfg.Styles.Mode, b.Mode)
		set(&cfg.Styles.Prefix, b.Prefix)
		set(&cfg.Styles.DarkMode, b.DarkMode)
		set(&cfg.Styles.Minify, b.Minify)
		set(&cfg.Styles.MaxOutputBytes, b.MaxOutputBytes)
		set(&cfg.Styles.TempDir, b.TempDir)
		err = firstErr(err, setDuration(&cfg.Styles.Timeout, b.Timeout, "styles.timeout"))
	}
	if b := fc.Sandbox; b != nil {
		set(&cfg.Sandbox.Binary, b.Binary)
		set(&cfg.Sandbox.MaxOutputBytes, b.MaxOutputBytes)
		set(&cfg.Sandbox.MaxHeapMB, b.MaxHeapMB)
		err = firstErr(err,
			setDuration(&cfg.Sandbox.Timeout, b.Timeout, "sandbox.timeout"),
			setDuration(&cfg.Sandbox.ScriptTimeout, b.ScriptTimeout, "sandbox.script_timeout"),
		)
	}
	if b := fc.Log; b != nil {
		set(&cfg.Log.Level, b.Level)
		set(&cfg.Log.Format, b.Format)
		set(&cfg.Log.File, b.File)
		set(&cfg.Log.MaxSizeMB, b.MaxSizeMB)
		set(&cfg.Log.MaxBackups, b.MaxBackups)
		set(&cfg.Log.MaxAgeDays, b.MaxAgeDays)
	}
	if b := fc.Metrics; b != nil {
		set(&cfg.Metrics.Addr, b.Addr)
	}
	return err
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, name string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// applyEnv lets the environment override file and default values.
func applyEnv(cfg *Config) error {
	cfg.Server.Host = getEnv("UIGEN_HOST", cfg.Server.Host)
	if v := getEnv("UIGEN_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("UIGEN_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := getEnv("UIGEN_ALLOWED_ORIGINS", ""); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}

	cfg.LLM.Provider = getEnv("UIGEN_LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Model = getEnv("UIGEN_LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = getEnv("UIGEN_LLM_BASE_URL", cfg.LLM.BaseURL)
	switch strings.ToLower(cfg.LLM.Provider) {
	case "gemini":
		cfg.LLM.APIKey = getEnv("GEMINI_API_KEY", cfg.LLM.APIKey)
	case "openai":
		cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	}
	cfg.LLM.APIKey = getEnv("UIGEN_LLM_API_KEY", cfg.LLM.APIKey)

	cfg.Styles.Binary = getEnv("UIGEN_TAILWIND_BIN", cfg.Styles.Binary)
	cfg.Styles.Mode = getEnv("UIGEN_TAILWIND_MODE", cfg.Styles.Mode)
	cfg.Styles.Prefix = getEnv("UIGEN_CLASS_PREFIX", cfg.Styles.Prefix)
	cfg.Sandbox.Binary = getEnv("UIGEN_NODE_BIN", cfg.Sandbox.Binary)

	cfg.Log.Level = getEnv("UIGEN_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("UIGEN_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = getEnv("UIGEN_LOG_FILE", cfg.Log.File)
	cfg.Metrics.Addr = getEnv("UIGEN_METRICS_ADDR", cfg.Metrics.Addr)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
