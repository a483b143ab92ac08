// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides environment-based configuration for the router.
// All configuration is loaded from environment variables with the RABBOE_
// prefix.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration.
type Config struct {
	ListenAddr string
	HealthAddr string

	MaxConns          int
	ReadBufInitialCap int
	MaxFrameBytes     int64

	LivenessInterval time.Duration
	LivenessTimeout  time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, all prefixed with
// RABBOE_ (e.g. RABBOE_LISTEN_ADDR).
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:        envOrDefault("RABBOE_LISTEN_ADDR", "127.0.0.1:7890"),
		HealthAddr:        envOrDefault("RABBOE_HEALTH_ADDR", "127.0.0.1:7891"),
		MaxConns:          envIntOrDefault("RABBOE_MAX_CONNECTIONS", 1024),
		ReadBufInitialCap: envIntOrDefault("RABBOE_READ_BUFFER_INITIAL_CAP", 4096),
		MaxFrameBytes:     envInt64OrDefault("RABBOE_MAX_FRAME_BYTES", 8<<20),
		LivenessInterval:  envDurationOrDefault("RABBOE_LIVENESS_INTERVAL", 30*time.Second),
		LivenessTimeout:   envDurationOrDefault("RABBOE_LIVENESS_TIMEOUT", 90*time.Second),
		LogLevel:          envOrDefault("RABBOE_LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("RABBOE_LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return errors.New("RABBOE_LISTEN_ADDR must not be empty")
	}
	if c.HealthAddr == "" {
		return errors.New("RABBOE_HEALTH_ADDR must not be empty")
	}
	if c.MaxConns < 1 {
		return errors.New("RABBOE_MAX_CONNECTIONS must be at least 1")
	}
	if c.ReadBufInitialCap < 1 {
		return errors.New("RABBOE_READ_BUFFER_INITIAL_CAP must be at least 1")
	}
	if c.MaxFrameBytes < 1 {
		return errors.New("RABBOE_MAX_FRAME_BYTES must be at least 1")
	}
	if c.LivenessInterval < 0 {
		return errors.New("RABBOE_LIVENESS_INTERVAL must not be negative")
	}
	if c.LivenessTimeout <= 0 {
		return errors.New("RABBOE_LIVENESS_TIMEOUT must be positive")
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func envInt64OrDefault(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
