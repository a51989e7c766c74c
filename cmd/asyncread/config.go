package main

import (
	"fmt"
	"github.com/brickingsoft/asyncio"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	RetryCeiling  int
	RequestBytes  int
	MaxOperations int64
	FrameInterval time.Duration
	FrameSpacing  int64
	Unbuffered    bool
	LogLevel      slog.Level
}

func ParseConfigFromEnv() (*Config, error) {
	cfg := &Config{
		RetryCeiling:  asyncio.DefaultRetryCeiling,
		RequestBytes:  asyncio.DefaultRequestBytes,
		FrameInterval: 16 * time.Millisecond,
		FrameSpacing:  10,
		LogLevel:      slog.LevelInfo,
	}
	if v := os.Getenv("ASYNCIO_RETRY_CEILING"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("ASYNCIO_RETRY_CEILING must be a non-negative integer")
		}
		cfg.RetryCeiling = n
	}
	if v := os.Getenv("ASYNCIO_REQUEST_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("ASYNCIO_REQUEST_BYTES must be a positive integer")
		}
		cfg.RequestBytes = n
	}
	if v := os.Getenv("ASYNCIO_MAX_OPERATIONS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("ASYNCIO_MAX_OPERATIONS must be a non-negative integer")
		}
		cfg.MaxOperations = n
	}
	if v := os.Getenv("ASYNCIO_FRAME_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("ASYNCIO_FRAME_INTERVAL must be a positive duration (e.g., 16ms)")
		}
		cfg.FrameInterval = d
	}
	if v := os.Getenv("ASYNCIO_FRAME_SPACING"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("ASYNCIO_FRAME_SPACING must be a non-negative integer")
		}
		cfg.FrameSpacing = n
	}
	if v := os.Getenv("ASYNCIO_UNBUFFERED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("ASYNCIO_UNBUFFERED must be a boolean")
		}
		cfg.Unbuffered = b
	}
	if v := os.Getenv("ASYNCIO_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("ASYNCIO_LOG_LEVEL must be one of debug, info, warn, error")
		}
	}
	return cfg, nil
}

func (cfg *Config) Options(logger *slog.Logger) []asyncio.Option {
	return []asyncio.Option{
		asyncio.WithRetryCeiling(cfg.RetryCeiling),
		asyncio.WithDefaultRequestBytes(cfg.RequestBytes),
		asyncio.WithMaxOperations(cfg.MaxOperations),
		asyncio.WithLogger(logger),
	}
}
