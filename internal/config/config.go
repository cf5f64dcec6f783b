package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// SCHEDVIEW_SERVER or SCHEDVIEW_SIM_PROCESSORS.
const EnvPrefix = "SCHEDVIEW"

// ClientConfig holds configuration for the schedview CLI.
type ClientConfig struct {
	Server            string        `mapstructure:"server"`              // Scheduler service base URL
	Timeout           time.Duration `mapstructure:"timeout"`             // Per-request timeout
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // Outbound throttle, 0 disables
	Burst             int           `mapstructure:"burst"`
	LogLevel          string        `mapstructure:"log_level"`
	LogFormat         string        `mapstructure:"log_format"`
	JournalPath       string        `mapstructure:"journal_path"` // "" disables the journal
	WatchInterval     time.Duration `mapstructure:"watch_interval"`
	Output            string        `mapstructure:"output"` // table, json or yaml
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Server:        "http://localhost:8080",
		Timeout:       5 * time.Second,
		Burst:         1,
		LogLevel:      "warn",
		LogFormat:     "text",
		JournalPath:   defaultJournalPath(),
		WatchInterval: 2 * time.Second,
		Output:        "table",
	}
}

// Validate checks values the flags and env cannot express as types.
func (c ClientConfig) Validate() error {
	var errs []error
	if c.Server == "" {
		errs = append(errs, errors.New("server must not be empty"))
	} else if !strings.HasPrefix(c.Server, "http://") && !strings.HasPrefix(c.Server, "https://") {
		errs = append(errs, fmt.Errorf("server %q must be an http(s) URL", c.Server))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must not be negative, got %g", c.RequestsPerSecond))
	}
	if c.WatchInterval < time.Second {
		errs = append(errs, fmt.Errorf("watch_interval must be at least 1s, got %s", c.WatchInterval))
	}
	switch c.Output {
	case "table", "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("output %q must be table, json or yaml", c.Output))
	}
	return errors.Join(errs...)
}

// SimConfig holds configuration for the schedsim simulator server.
type SimConfig struct {
	Addr         string `mapstructure:"addr"`
	Processors   int    `mapstructure:"processors"`
	MaxProcesses int    `mapstructure:"max_processes"` // ready + running capacity before backup
	MemorySize   int    `mapstructure:"memory_size"`
	OSSize       int    `mapstructure:"os_size"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`

	// AutoStep, when positive, runs a scheduling step on this interval.
	AutoStep time.Duration `mapstructure:"auto_step"`
}

// DefaultSimConfig returns sensible defaults.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Addr:         ":8080",
		Processors:   2,
		MaxProcesses: 8,
		MemorySize:   4096,
		OSSize:       256,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Validate checks the simulator parameters.
func (c SimConfig) Validate() error {
	var errs []error
	if c.Processors < 1 {
		errs = append(errs, fmt.Errorf("processors must be at least 1, got %d", c.Processors))
	}
	if c.MaxProcesses < c.Processors {
		errs = append(errs, fmt.Errorf("max_processes (%d) must be at least processors (%d)", c.MaxProcesses, c.Processors))
	}
	if c.OSSize < 0 || c.OSSize >= c.MemorySize {
		errs = append(errs, fmt.Errorf("os_size (%d) must be in [0, memory_size=%d)", c.OSSize, c.MemorySize))
	}
	if c.AutoStep < 0 {
		errs = append(errs, fmt.Errorf("auto_step must not be negative, got %s", c.AutoStep))
	}
	return errors.Join(errs...)
}

// LoadClient reads the client configuration. Precedence, lowest first:
// defaults, the config file, SCHEDVIEW_* environment variables. An empty
// path searches for schedview.yaml in the working directory and
// ~/.schedview; a missing file there is not an error.
func LoadClient(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	v := newViper(path)
	v.SetDefault("server", cfg.Server)
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("requests_per_second", cfg.RequestsPerSecond)
	v.SetDefault("burst", cfg.Burst)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("journal_path", cfg.JournalPath)
	v.SetDefault("watch_interval", cfg.WatchInterval)
	v.SetDefault("output", cfg.Output)

	if err := readFile(v, path); err != nil {
		return cfg, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// LoadSim reads the simulator configuration from the "sim" section of the
// same file, with SCHEDVIEW_SIM_* overrides.
func LoadSim(path string) (SimConfig, error) {
	cfg := DefaultSimConfig()
	v := newViper(path)
	v.SetDefault("sim.addr", cfg.Addr)
	v.SetDefault("sim.processors", cfg.Processors)
	v.SetDefault("sim.max_processes", cfg.MaxProcesses)
	v.SetDefault("sim.memory_size", cfg.MemorySize)
	v.SetDefault("sim.os_size", cfg.OSSize)
	v.SetDefault("sim.log_level", cfg.LogLevel)
	v.SetDefault("sim.log_format", cfg.LogFormat)
	v.SetDefault("sim.auto_step", cfg.AutoStep)

	if err := readFile(v, path); err != nil {
		return cfg, err
	}
	// Unmarshal resolves every leaf key, so SCHEDVIEW_SIM_* overrides apply.
	file := struct {
		Sim SimConfig `mapstructure:"sim"`
	}{Sim: cfg}
	if err := v.Unmarshal(&file); err != nil {
		return cfg, fmt.Errorf("decode sim config: %w", err)
	}
	return file.Sim, nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		return v
	}
	v.SetConfigName("schedview")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".schedview"))
	}
	return v
}

// readFile loads the config file. An explicit path must exist; the search
// path may come up empty.
func readFile(v *viper.Viper, path string) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if path == "" && errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read config: %w", err)
}

func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".schedview", "journal.db")
}
