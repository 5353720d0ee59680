package media

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// DefaultCNGOrder is the LPC model order implied by the RFC 3389 SID layout.
	DefaultCNGOrder = 12
	// DefaultCNGFrameSize is the number of samples produced per decode call.
	DefaultCNGFrameSize = 640
	// DefaultCNGSampleRate is the output sample rate in Hz.
	DefaultCNGSampleRate = 8000

	maxLPCOrder  = 100
	maxFrameSize = 1 << 20
)

// Environment variables read by LoadCNGConfigFromEnv.
const (
	EnvCNGOrder      = "CNG_ORDER"
	EnvCNGFrameSize  = "CNG_FRAME_SIZE"
	EnvCNGSampleRate = "CNG_SAMPLE_RATE"
	EnvCNGSeed       = "CNG_SEED"
)

// CNGConfig holds the construction parameters of a ComfortNoiseDecoder.
type CNGConfig struct {
	Order      int
	FrameSize  int
	SampleRate int
	Channels   int

	// Seed initialises the default excitation generator.
	Seed uint32

	// Random replaces the default generator when set. It must not be shared
	// between decoders.
	Random RandomSource
}

// DefaultCNGConfig returns the RFC 3389 narrowband defaults.
func DefaultCNGConfig() CNGConfig {
	return CNGConfig{
		Order:      DefaultCNGOrder,
		FrameSize:  DefaultCNGFrameSize,
		SampleRate: DefaultCNGSampleRate,
		Channels:   1,
	}
}

// Validate checks that every field is usable.
func (c CNGConfig) Validate() error {
	if c.Order <= 0 {
		return fmt.Errorf("%w: order must be positive, got %d", ErrInvalidConfig, c.Order)
	}
	if c.FrameSize <= 0 {
		return fmt.Errorf("%w: frame size must be positive, got %d", ErrInvalidConfig, c.FrameSize)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Channels != 1 {
		return fmt.Errorf("%w: comfort noise is mono, got %d channels", ErrInvalidConfig, c.Channels)
	}
	return nil
}

// LoadCNGConfigFromEnv builds a configuration from the defaults overridden by
// CNG_* environment variables. The given env files are loaded first; without
// arguments a ".env" file in the working directory is used when present.
// Variables already set in the process environment take precedence.
func LoadCNGConfigFromEnv(envFiles ...string) (CNGConfig, error) {
	cfg := DefaultCNGConfig()

	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return cfg, fmt.Errorf("failed to load env files: %w", err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return cfg, fmt.Errorf("failed to load .env: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to stat .env: %w", err)
	}

	var err error
	if cfg.Order, err = envInt(EnvCNGOrder, cfg.Order); err != nil {
		return cfg, err
	}
	if cfg.FrameSize, err = envInt(EnvCNGFrameSize, cfg.FrameSize); err != nil {
		return cfg, err
	}
	if cfg.SampleRate, err = envInt(EnvCNGSampleRate, cfg.SampleRate); err != nil {
		return cfg, err
	}
	if v, ok := os.LookupEnv(EnvCNGSeed); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvCNGSeed, v, err)
		}
		cfg.Seed = uint32(seed)
	}

	return cfg, cfg.Validate()
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, v, err)
	}
	return n, nil
}
