package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment variables that override scenario settings.
const (
	EnvMaxSteps = "DEVS_MAX_STEPS"
	EnvHorizon  = "DEVS_HORIZON"
	EnvLogLevel = "DEVS_LOG_LEVEL"
	EnvTraceDir = "DEVS_TRACE_DIR"
)

// LoadEnv loads variables from the given dotenv files into the process
// environment. Without arguments it loads ".env" if that file exists.
// Variables already set are not overwritten.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		_, err := os.Stat(".env")
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		files = []string{".env"}
	}

	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env: %w", err)
	}

	return nil
}

// EnvOverrides holds the settings read from the environment. Nil fields and
// empty strings were not set.
type EnvOverrides struct {
	MaxSteps *uint64
	Horizon  *float64
	LogLevel *logrus.Level
	TraceDir string
}

// ReadEnv reads the DEVS_* variables. Malformed values are errors.
func ReadEnv() (EnvOverrides, error) {
	var o EnvOverrides

	if v, ok := os.LookupEnv(EnvMaxSteps); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return EnvOverrides{}, fmt.Errorf("%s: %w", EnvMaxSteps, err)
		}

		o.MaxSteps = &n
	}

	if v, ok := os.LookupEnv(EnvHorizon); ok {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return EnvOverrides{}, fmt.Errorf("%s: %w", EnvHorizon, err)
		}

		if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
			return EnvOverrides{}, fmt.Errorf(
				"%s: horizon must be finite and not negative, got %v",
				EnvHorizon, h)
		}

		o.Horizon = &h
	}

	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		lvl, err := logrus.ParseLevel(v)
		if err != nil {
			return EnvOverrides{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}

		o.LogLevel = &lvl
	}

	o.TraceDir = os.Getenv(EnvTraceDir)

	return o, nil
}

// Apply copies the limits set in the environment into s.
func (o EnvOverrides) Apply(s *Scenario) {
	if o.MaxSteps != nil {
		s.Limits.MaxSteps = *o.MaxSteps
	}

	if o.Horizon != nil {
		s.Limits.Horizon = *o.Horizon
	}
}
