package config

import (
	"fmt"
	"path/filepath"

	"github.com/spacemeshos/smutil"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/bitstreams/bitstream"
)

const (
	MinBufferSize = 1
	MaxBufferSize = 1 << 30
)

const (
	DefaultDataDirName = "data"
	DefaultBufferSize  = bitstream.DefaultBufferSize
	DefaultStrict      = false
	DefaultLogLevel    = "info"
)

var DefaultDataDir = filepath.Join(smutil.GetUserHomeDirectory(), "bitstreams", DefaultDataDirName)

type Config struct {
	DataDir    string `mapstructure:"datadir"`
	BufferSize uint32 `mapstructure:"buffer-size"`
	Strict     bool   `mapstructure:"strict"`
	LogLevel   string `mapstructure:"log-level"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:    DefaultDataDir,
		BufferSize: DefaultBufferSize,
		Strict:     DefaultStrict,
		LogLevel:   DefaultLogLevel,
	}
}

func (cfg *Config) Validate() error {
	if cfg.DataDir == "" {
		return fmt.Errorf("invalid `DataDir`; expected: a path, given: %q", cfg.DataDir)
	}

	if cfg.BufferSize < MinBufferSize {
		return fmt.Errorf("invalid `BufferSize`; expected: >= %d, given: %d", MinBufferSize, cfg.BufferSize)
	}

	if cfg.BufferSize > MaxBufferSize {
		return fmt.Errorf("invalid `BufferSize`; expected: <= %d, given: %d", MaxBufferSize, cfg.BufferSize)
	}

	if _, err := cfg.Level(); err != nil {
		return fmt.Errorf("invalid `LogLevel`; %w", err)
	}

	return nil
}

// Level returns the parsed log level.
func (cfg *Config) Level() (zapcore.Level, error) {
	return zapcore.ParseLevel(cfg.LogLevel)
}

// Options returns the bitstream options matching cfg.
func (cfg *Config) Options() []bitstream.OptionFunc {
	opts := []bitstream.OptionFunc{bitstream.WithBufferSize(cfg.BufferSize)}
	if cfg.Strict {
		opts = append(opts, bitstream.WithStrict())
	}
	return opts
}
