package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/go-ctap/authenticator/pkg/options"
)

type fileConfig struct {
	Pipe          string `toml:"pipe"`
	LogLevel      string `toml:"log_level"`
	TickInterval  string `toml:"tick_interval"`
	IdleTimeout   string `toml:"idle_timeout"`
	QueueCapacity int    `toml:"queue_capacity"`
	DeviceVersion string `toml:"device_version"`
	Wink          bool   `toml:"wink"`
}

type serviceConfig struct {
	PipePath      string
	LogLevel      slog.Level
	TickInterval  time.Duration
	IdleTimeout   time.Duration
	QueueCapacity int
	DeviceVersion [3]byte
	Wink          bool
}

func defaultServiceConfig() serviceConfig {
	return serviceConfig{
		PipePath:      options.DefaultPipePath,
		LogLevel:      slog.LevelInfo,
		TickInterval:  options.DefaultTickInterval,
		IdleTimeout:   options.DefaultTickInterval * options.DefaultIdleTicks,
		QueueCapacity: options.DefaultQueueCapacity,
		DeviceVersion: [3]byte{0, 0, 1},
	}
}

func loadServiceConfig(path string) (serviceConfig, error) {
	cfg := defaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serviceConfig{}, fmt.Errorf("load ctaphidd config: %w", err)
	}

	if meta.IsDefined("pipe") {
		if pipe := strings.TrimSpace(raw.Pipe); pipe != "" {
			cfg.PipePath = pipe
		}
	}

	if meta.IsDefined("log_level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(raw.LogLevel))); err != nil {
			return serviceConfig{}, fmt.Errorf("parse log_level: %w", err)
		}
	}

	if meta.IsDefined("tick_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.TickInterval))
		if err != nil {
			return serviceConfig{}, fmt.Errorf("parse tick_interval: %w", err)
		}
		cfg.TickInterval = d
	}

	if meta.IsDefined("idle_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.IdleTimeout))
		if err != nil {
			return serviceConfig{}, fmt.Errorf("parse idle_timeout: %w", err)
		}
		cfg.IdleTimeout = d
	}

	if meta.IsDefined("queue_capacity") {
		cfg.QueueCapacity = raw.QueueCapacity
	}

	if meta.IsDefined("device_version") {
		v, err := parseDeviceVersion(raw.DeviceVersion)
		if err != nil {
			return serviceConfig{}, err
		}
		cfg.DeviceVersion = v
	}

	if meta.IsDefined("wink") {
		cfg.Wink = raw.Wink
	}

	if err := cfg.validate(); err != nil {
		return serviceConfig{}, err
	}

	return cfg, nil
}

func parseDeviceVersion(s string) ([3]byte, error) {
	var v [3]byte

	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return v, fmt.Errorf("parse device_version %q: want major.minor.build", s)
	}

	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return v, fmt.Errorf("parse device_version %q: %w", s, err)
		}
		v[i] = byte(n)
	}

	return v, nil
}

func (c serviceConfig) validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout must not be negative, got %s", c.IdleTimeout)
	}
	if c.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity must be at least 1, got %d", c.QueueCapacity)
	}
	return nil
}

// idleTicks converts the idle timeout into whole ticks, rounding up.
func (c serviceConfig) idleTicks() int {
	if c.IdleTimeout == 0 {
		return 0
	}
	return int((c.IdleTimeout + c.TickInterval - 1) / c.TickInterval)
}

func (c serviceConfig) options() []options.Option {
	opts := []options.Option{
		options.WithPipePath(c.PipePath),
		options.WithTickInterval(c.TickInterval),
		options.WithIdleTicks(c.idleTicks()),
		options.WithQueueCapacity(c.QueueCapacity),
		options.WithDeviceVersion(c.DeviceVersion[0], c.DeviceVersion[1], c.DeviceVersion[2]),
	}
	if c.Wink {
		opts = append(opts, options.WithWink())
	}

	return opts
}
