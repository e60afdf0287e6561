package types

import (
	"errors"
	"log/slog"
)

// Config holds backend selection, persistence tuning, logging and animation
// defaults.
type Config struct {
	Backend      string          `json:"backend" yaml:"backend"`
	DataDir      string          `json:"data_dir" yaml:"data_dir"`
	SQLiteConfig *SQLiteConfig   `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	Log          LogConfig       `json:"log" yaml:"log"`
	Animation    AnimationConfig `json:"animation" yaml:"animation"`
}

// SQLiteConfig tunes when JSONL files are rewritten after table writes.
type SQLiteConfig struct {
	SyncStrategy  string `json:"sync_strategy,omitempty" yaml:"sync_strategy,omitempty"`
	BatchSize     int    `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	BatchInterval int    `json:"batch_interval,omitempty" yaml:"batch_interval,omitempty"` // seconds
}

// LogConfig selects the slog handler and minimum level.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// AnimationConfig carries authoring defaults.
type AnimationConfig struct {
	DefaultCurveType CurveType `json:"default_curve_type,omitempty" yaml:"default_curve_type,omitempty"`
	MinKeyframes     int       `json:"min_keyframes,omitempty" yaml:"min_keyframes,omitempty"`
	DefaultLength    float64   `json:"default_length,omitempty" yaml:"default_length,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Sync strategies for JSONL persistence.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
	SyncBatch     = "batch"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Defaults applied when a field is zero.
const (
	DefaultBatchSize     = 10
	DefaultBatchInterval = 5
	DefaultMinKeyframes  = 2
	DefaultLength        = 2.0
	DefaultCurveType     = CurveTypeSmooth
)

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
	ErrLogFormatUnknown     = errors.New("unknown log format")
	ErrLogLevelUnknown      = errors.New("unknown log level")
	ErrMinKeyframesInvalid  = errors.New("min keyframes must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownSyncStrategies = map[string]bool{
	"":            true,
	SyncImmediate: true,
	SyncOnClose:   true,
	SyncBatch:     true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.SQLiteConfig != nil {
		if err := c.SQLiteConfig.Validate(); err != nil {
			return err
		}
	}
	switch c.Log.Format {
	case "", LogFormatText, LogFormatJSON:
	default:
		return ErrLogFormatUnknown
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Animation.DefaultCurveType != "" && !IsValidCurveType(c.Animation.DefaultCurveType) {
		return ErrInvalidCurveType
	}
	if c.Animation.MinKeyframes < 0 {
		return ErrMinKeyframesInvalid
	}
	if c.Animation.DefaultLength < 0 {
		return ErrInvalidLength
	}
	return nil
}

// Validate checks the sync strategy and batch parameters.
func (s *SQLiteConfig) Validate() error {
	if !knownSyncStrategies[s.SyncStrategy] {
		return ErrSyncStrategyUnknown
	}
	if s.SyncStrategy == SyncBatch {
		if s.BatchSize < 0 {
			return ErrBatchSizeInvalid
		}
		if s.BatchInterval < 0 {
			return ErrBatchIntervalInvalid
		}
	}
	return nil
}

// GetSyncStrategy returns the configured strategy, defaulting to immediate.
// Safe to call on a nil receiver.
func (s *SQLiteConfig) GetSyncStrategy() string {
	if s == nil || s.SyncStrategy == "" {
		return SyncImmediate
	}
	return s.SyncStrategy
}

// GetBatchSize returns the batch size, defaulting to DefaultBatchSize.
func (s *SQLiteConfig) GetBatchSize() int {
	if s == nil || s.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return s.BatchSize
}

// GetBatchInterval returns the batch interval in seconds, defaulting to
// DefaultBatchInterval.
func (s *SQLiteConfig) GetBatchInterval() int {
	if s == nil || s.BatchInterval <= 0 {
		return DefaultBatchInterval
	}
	return s.BatchInterval
}

// CurveTypeOrDefault returns the configured default curve type.
func (a AnimationConfig) CurveTypeOrDefault() CurveType {
	if a.DefaultCurveType == "" {
		return DefaultCurveType
	}
	return a.DefaultCurveType
}

// MinKeyframesOrDefault returns the minimum keyframe count a playable target
// must hold.
func (a AnimationConfig) MinKeyframesOrDefault() int {
	if a.MinKeyframes == 0 {
		return DefaultMinKeyframes
	}
	return a.MinKeyframes
}

// LengthOrDefault returns the default clip length in seconds.
func (a AnimationConfig) LengthOrDefault() float64 {
	if a.DefaultLength <= 0 {
		return DefaultLength
	}
	return a.DefaultLength
}

// SlogLevel parses Level ("debug", "info", "warn", "error", optionally with
// an offset such as "info+2"). Empty means info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, ErrLogLevelUnknown
	}
	return lvl, nil
}
