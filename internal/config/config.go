// Package config loads and validates the application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"rmultiple-lab/internal/engine"
)

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Engine     EngineConfig     `json:"engine" yaml:"engine"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Addr        string `json:"addr" yaml:"addr" validate:"required"`
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"` // empty serves /metrics on Addr
}

// StorageConfig selects the storage backends.
// Sessions and batches live in memory or PostgreSQL; simulation results and
// aggregates go to ClickHouse when a DSN is set, memory otherwise.
type StorageConfig struct {
	Backend       string `json:"backend" yaml:"backend" validate:"required,oneof=memory postgres"`
	PostgresDSN   string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty" validate:"required_if=Backend postgres"`
	ClickhouseDSN string `json:"clickhouse_dsn,omitempty" yaml:"clickhouse_dsn,omitempty"`
}

// EngineConfig contains account simulation limits.
type EngineConfig struct {
	MinCapital     float64 `json:"min_capital" yaml:"min_capital" validate:"gt=0"`
	CrashThreshold float64 `json:"crash_threshold" yaml:"crash_threshold" validate:"gte=0,ltfield=MinCapital"`
	MaxBatchCount  int     `json:"max_batch_count" yaml:"max_batch_count" validate:"gte=1"`
	MaxStreamCount int     `json:"max_stream_count" yaml:"max_stream_count" validate:"gtefield=MaxBatchCount"`
	DefaultChunk   int     `json:"default_chunk" yaml:"default_chunk" validate:"gte=1"`
}

// SimulationConfig contains simulation batch settings.
type SimulationConfig struct {
	Workers  int    `json:"workers" yaml:"workers" validate:"gte=1,lte=256"`
	BaseSeed uint64 `json:"base_seed" yaml:"base_seed"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level    string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Encoding string `json:"encoding" yaml:"encoding" validate:"oneof=json console"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Engine: EngineConfig{
			MinCapital:     100,
			CrashThreshold: 1,
			MaxBatchCount:  10000,
			MaxStreamCount: 1000000,
			DefaultChunk:   100,
		},
		Simulation: SimulationConfig{
			Workers:  4,
			BaseSeed: 42,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// LoadFromFile loads configuration from a file over the defaults.
// YAML is tried first, JSON second.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// EngineConfig converts the engine section to engine limits.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		MinCapital:     decimal.NewFromFloat(c.Engine.MinCapital),
		CrashThreshold: decimal.NewFromFloat(c.Engine.CrashThreshold),
		MaxBatchCount:  c.Engine.MaxBatchCount,
		MaxStreamCount: c.Engine.MaxStreamCount,
	}
}
