// Package config loads the service configuration for cmd/wdlrun: a YAML
// file overlaid with environment variables and CLI flags, in that order,
// the same env-or-flag-or-default resolution cmd/gcw-emulator/main.go's
// envOrDefault helper implements for the base module's own settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/wdl-engine/pkg/task"
)

// Config is the resolved set of knobs spec §6 and §10's ambient stack call
// for: the task timeout default, the root directory task/workflow runs
// materialize their work dirs under, the File-input materialization mode,
// the HTTP API's listen address, and the §6 DEBUG tracing toggle.
type Config struct {
	TaskTimeout   time.Duration     `yaml:"task_timeout"`
	WorkDirRoot   string            `yaml:"work_dir_root"`
	Materialize   task.MaterializeMode `yaml:"-"`
	MaterializeRaw string           `yaml:"materialize"`
	ListenAddr    string            `yaml:"listen_addr"`
	Debug         bool              `yaml:"debug"`
}

// Default returns the built-in fallback values used when neither a config
// file, an environment variable, nor a flag supplies one.
func Default() Config {
	return Config{
		TaskTimeout:    10 * time.Minute,
		WorkDirRoot:    "./wdl-runs",
		Materialize:    task.MaterializeSymlink,
		MaterializeRaw: "symlink",
		ListenAddr:     "0.0.0.0:8787",
		Debug:          false,
	}
}

// Load reads an optional YAML config file (path may be empty, in which
// case only defaults and the environment are consulted), then overlays
// WDLRUN_-prefixed environment variables on top, matching the base
// module's env-beats-file-beats-default precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if v := os.Getenv("WDLRUN_TASK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("WDLRUN_TASK_TIMEOUT: %w", err)
		}
		cfg.TaskTimeout = d
	}
	cfg.WorkDirRoot = envOrDefault("WDLRUN_WORK_DIR", cfg.WorkDirRoot)
	if v := os.Getenv("WDLRUN_MATERIALIZE"); v != "" {
		cfg.MaterializeRaw = v
	}
	cfg.ListenAddr = envOrDefault("WDLRUN_LISTEN_ADDR", cfg.ListenAddr)
	if v := os.Getenv("WDLRUN_DEBUG"); v != "" {
		cfg.Debug = v == "1" || v == "true"
	}

	mode, err := parseMaterialize(cfg.MaterializeRaw)
	if err != nil {
		return Config{}, err
	}
	cfg.Materialize = mode

	return cfg, nil
}

func parseMaterialize(s string) (task.MaterializeMode, error) {
	switch s {
	case "", "symlink":
		return task.MaterializeSymlink, nil
	case "copy":
		return task.MaterializeCopy, nil
	default:
		return 0, fmt.Errorf("unknown materialize mode %q (want \"symlink\" or \"copy\")", s)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// TaskConfig projects the fields task.Execute needs out of the service
// config, leaving the caller to fill in ExtraEnv/PathMapper/Logger per
// invocation.
func (c Config) TaskConfig() task.Config {
	return task.Config{
		Materialize: c.Materialize,
		Timeout:     c.TaskTimeout,
	}
}
