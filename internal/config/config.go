package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAddr is the default TCP address of the frame feed.
	DefaultAddr = ":43128"
	// DefaultGRPCAddr is the default TCP address of the gRPC health endpoint.
	DefaultGRPCAddr = ":43129"
	// DefaultPingInterval controls the keepalive cadence for WebSocket viewers.
	DefaultPingInterval = 30 * time.Second
	// DefaultMaxPayloadBytes limits inbound WebSocket frame size; viewers only send inputs.
	DefaultMaxPayloadBytes int64 = 4096
	// DefaultMaxClients bounds concurrent viewers. Zero disables the limit.
	DefaultMaxClients = 64
	// DefaultInputRate caps input messages per viewer per second. Zero disables the limit.
	DefaultInputRate = 120

	// DefaultTickHz is the fixed simulation rate.
	DefaultTickHz = 60
	// DefaultSeed seeds the simulation random source.
	DefaultSeed int64 = 1
	// DefaultArenaCols is the width in tiles of the generated arena.
	DefaultArenaCols = 24
	// DefaultArenaRows is the height in tiles of the generated arena.
	DefaultArenaRows = 16
	// DefaultIdleVehicles is the number of parked target vehicles spawned next to the player.
	DefaultIdleVehicles = 3
	// DefaultReplayKeep is the number of replay bundles kept on disk. Zero keeps all.
	DefaultReplayKeep = 20
	// DefaultReplayMaxAge removes replay bundles older than this. Zero disables the age limit.
	DefaultReplayMaxAge = 7 * 24 * time.Hour

	// DefaultLogLevel controls verbosity for host logs.
	DefaultLogLevel = "info"
	// DefaultLogMaxSizeMB caps the size of a single log file before rotation.
	DefaultLogMaxSizeMB = 100
	// DefaultLogMaxBackups limits retained rotated log files.
	DefaultLogMaxBackups = 10
	// DefaultLogMaxAgeDays controls how long rotated log files are kept on disk.
	DefaultLogMaxAgeDays = 7
	// DefaultLogCompress toggles gzip compression for rotated log files.
	DefaultLogCompress = true
)

// Config captures all runtime tunables for the arena host.
type Config struct {
	Address         string
	GRPCAddress     string
	AllowedOrigins  []string
	MaxPayloadBytes int64
	PingInterval    time.Duration
	MaxClients      int
	InputRate       int

	TickHz       int
	Seed         int64
	CvarsPath    string
	MapPath      string
	ArenaCols    int
	ArenaRows    int
	IdleVehicles int
	ReplayDir    string
	ReplayKeep   int
	ReplayMaxAge time.Duration

	Logging LoggingConfig
}

// LoggingConfig captures structured logging configuration options. An empty
// Path logs to stdout only.
type LoggingConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load reads the host configuration from environment variables, applying
// defaults and reporting every invalid override at once.
func Load() (*Config, error) {
	cfg := &Config{
		Address:         getString("ARENA_ADDR", DefaultAddr),
		GRPCAddress:     getString("ARENA_GRPC_ADDR", DefaultGRPCAddr),
		AllowedOrigins:  parseList(os.Getenv("ARENA_ALLOWED_ORIGINS")),
		MaxPayloadBytes: DefaultMaxPayloadBytes,
		PingInterval:    DefaultPingInterval,
		MaxClients:      DefaultMaxClients,
		InputRate:       DefaultInputRate,
		TickHz:          DefaultTickHz,
		Seed:            DefaultSeed,
		CvarsPath:       strings.TrimSpace(os.Getenv("ARENA_CVARS_PATH")),
		MapPath:         strings.TrimSpace(os.Getenv("ARENA_MAP_PATH")),
		ArenaCols:       DefaultArenaCols,
		ArenaRows:       DefaultArenaRows,
		IdleVehicles:    DefaultIdleVehicles,
		ReplayDir:       strings.TrimSpace(os.Getenv("ARENA_REPLAY_DIR")),
		ReplayKeep:      DefaultReplayKeep,
		ReplayMaxAge:    DefaultReplayMaxAge,
		Logging: LoggingConfig{
			Level:      getString("ARENA_LOG_LEVEL", DefaultLogLevel),
			Path:       strings.TrimSpace(os.Getenv("ARENA_LOG_PATH")),
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
			Compress:   DefaultLogCompress,
		},
	}

	var problems []string

	//1.- Transport limits.
	if raw := strings.TrimSpace(os.Getenv("ARENA_MAX_PAYLOAD_BYTES")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("ARENA_MAX_PAYLOAD_BYTES must be a positive integer, got %q", raw))
		} else {
			cfg.MaxPayloadBytes = value
		}
	}
	if raw := strings.TrimSpace(os.Getenv("ARENA_PING_INTERVAL")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("ARENA_PING_INTERVAL must be a positive duration, got %q", raw))
		} else {
			cfg.PingInterval = duration
		}
	}
	problems = parseInt(problems, "ARENA_MAX_CLIENTS", 0, &cfg.MaxClients)
	problems = parseInt(problems, "ARENA_INPUT_RATE", 0, &cfg.InputRate)

	//2.- Simulation.
	problems = parseInt(problems, "ARENA_TICK_HZ", 1, &cfg.TickHz)
	if raw := strings.TrimSpace(os.Getenv("ARENA_SEED")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("ARENA_SEED must be an integer, got %q", raw))
		} else {
			cfg.Seed = value
		}
	}
	problems = parseInt(problems, "ARENA_COLS", 3, &cfg.ArenaCols)
	problems = parseInt(problems, "ARENA_ROWS", 3, &cfg.ArenaRows)
	problems = parseInt(problems, "ARENA_IDLE_VEHICLES", 0, &cfg.IdleVehicles)
	problems = parseInt(problems, "ARENA_REPLAY_KEEP", 0, &cfg.ReplayKeep)
	if raw := strings.TrimSpace(os.Getenv("ARENA_REPLAY_MAX_AGE")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration < 0 {
			problems = append(problems, fmt.Sprintf("ARENA_REPLAY_MAX_AGE must be a non-negative duration, got %q", raw))
		} else {
			cfg.ReplayMaxAge = duration
		}
	}

	//3.- Logging.
	problems = parseInt(problems, "ARENA_LOG_MAX_SIZE_MB", 1, &cfg.Logging.MaxSizeMB)
	problems = parseInt(problems, "ARENA_LOG_MAX_BACKUPS", 0, &cfg.Logging.MaxBackups)
	problems = parseInt(problems, "ARENA_LOG_MAX_AGE_DAYS", 0, &cfg.Logging.MaxAgeDays)
	if raw := strings.TrimSpace(os.Getenv("ARENA_LOG_COMPRESS")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("ARENA_LOG_COMPRESS must be a boolean value, got %q", raw))
		} else {
			cfg.Logging.Compress = value
		}
	}

	if cfg.Address == cfg.GRPCAddress {
		problems = append(problems, "ARENA_ADDR and ARENA_GRPC_ADDR must differ")
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

// TickInterval returns the duration of one simulation step.
func (c *Config) TickInterval() time.Duration {
	if c == nil || c.TickHz <= 0 {
		return time.Second / DefaultTickHz
	}
	return time.Second / time.Duration(c.TickHz)
}

func parseInt(problems []string, key string, minimum int, target *int) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return problems
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < minimum {
		return append(problems, fmt.Sprintf("%s must be an integer >= %d, got %q", key, minimum, raw))
	}
	*target = value
	return problems
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			values = append(values, item)
		}
	}
	return values
}
