// Package config provides the layered configuration the CLI and engine
// packages read at startup: a provider chain (defaults, environment,
// YAML file, CLI flags) merged by koanf into a single Config struct.
package config

import (
	"time"

	"github.com/wdlrun/wdlrun/pkg/logger"
)

// FileStoreConfig configures engine/filestore's local durable file store.
type FileStoreConfig struct {
	Root      string `koanf:"root"`
	TempDir   string `koanf:"temp_dir"`
	CacheSize int    `koanf:"cache_size"`
}

// TaskConfig holds Task Job execution defaults. The Task Job does not read
// DefaultTimeout; its command timeout is engine/graph's fixed
// defaultCommandTimeout.
type TaskConfig struct {
	DefaultTimeout time.Duration `koanf:"default_timeout"`
}

// TemporalConfig configures the Temporal-backed job engine adapter.
type TemporalConfig struct {
	HostPort  string `koanf:"host_port"`
	Namespace string `koanf:"namespace"`
	TaskQueue string `koanf:"task_queue"`
}

// GraphConfig holds the Subgraph Builder's dependency-shape cache size. The
// builder does not read DependencyCacheSize; its cache is built with a fixed
// MaxCost of 1<<20.
type GraphConfig struct {
	DependencyCacheSize int64 `koanf:"dependency_cache_size"`
}

// RetryConfig configures remote file-store import retry/backoff.
type RetryConfig struct {
	Attempts   int           `koanf:"attempts"`
	DelayStart time.Duration `koanf:"delay_start"`
	DelayMax   time.Duration `koanf:"delay_max"`
}

// LogConfig configures pkg/logger.
type LogConfig struct {
	Level logger.LogLevel `koanf:"level"`
	JSON  bool             `koanf:"json"`
}

// CheckpointConfig configures engine/jobengine/checkpoint's restart journal.
type CheckpointConfig struct {
	DSN string `koanf:"dsn"`
}

// Config is the fully merged configuration.
type Config struct {
	FileStore  FileStoreConfig  `koanf:"file_store"`
	Task       TaskConfig       `koanf:"task"`
	Temporal   TemporalConfig   `koanf:"temporal"`
	Graph      GraphConfig      `koanf:"graph"`
	Retry      RetryConfig      `koanf:"retry"`
	Log        LogConfig        `koanf:"log"`
	Checkpoint CheckpointConfig `koanf:"checkpoint"`
}

// Default returns the configuration used when no provider overrides a
// field.
func Default() *Config {
	return &Config{
		FileStore: FileStoreConfig{
			Root:      "./.wdlrun/store",
			TempDir:   "./.wdlrun/tmp",
			CacheSize: 1024,
		},
		Task: TaskConfig{DefaultTimeout: 30 * time.Minute},
		Temporal: TemporalConfig{
			HostPort:  "127.0.0.1:7233",
			Namespace: "default",
			TaskQueue: "wdlrun",
		},
		Graph: GraphConfig{DependencyCacheSize: 1 << 20},
		Retry: RetryConfig{
			Attempts:   5,
			DelayStart: 100 * time.Millisecond,
			DelayMax:   5 * time.Second,
		},
		Log:        LogConfig{Level: logger.InfoLevel, JSON: false},
		Checkpoint: CheckpointConfig{},
	}
}
