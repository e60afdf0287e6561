package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/timeline/internal/paths"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// Config keys in config.yaml.
const (
	cfgKeyBackend          = "backend"
	cfgKeyDataDir          = "data_dir"
	cfgKeySyncStrategy     = "sqlite.sync_strategy"
	cfgKeyBatchSize        = "sqlite.batch_size"
	cfgKeyBatchInterval    = "sqlite.batch_interval"
	cfgKeyLogLevel         = "log.level"
	cfgKeyLogFormat        = "log.format"
	cfgKeyDefaultCurveType = "animation.default_curve_type"
	cfgKeyMinKeyframes     = "animation.min_keyframes"
	cfgKeyDefaultLength    = "animation.default_length"
)

// loadConfig reads config.yaml from configDir with viper. A missing file
// yields the defaults. TIMELINE_LOG_LEVEL and TIMELINE_LOG_FORMAT override
// the log section.
func loadConfig(configDir string) (types.Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFormat, types.LogFormatText)
	_ = v.BindEnv(cfgKeyLogLevel, "TIMELINE_LOG_LEVEL")
	_ = v.BindEnv(cfgKeyLogFormat, "TIMELINE_LOG_FORMAT")
	v.SetConfigFile(paths.ConfigFile(configDir))
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := types.Config{
		Backend: v.GetString(cfgKeyBackend),
		DataDir: v.GetString(cfgKeyDataDir),
		Log: types.LogConfig{
			Level:  v.GetString(cfgKeyLogLevel),
			Format: v.GetString(cfgKeyLogFormat),
		},
		Animation: types.AnimationConfig{
			DefaultCurveType: types.CurveType(v.GetString(cfgKeyDefaultCurveType)),
			MinKeyframes:     v.GetInt(cfgKeyMinKeyframes),
			DefaultLength:    v.GetFloat64(cfgKeyDefaultLength),
		},
	}
	if v.IsSet("sqlite") {
		cfg.SQLiteConfig = &types.SQLiteConfig{
			SyncStrategy:  v.GetString(cfgKeySyncStrategy),
			BatchSize:     v.GetInt(cfgKeyBatchSize),
			BatchInterval: v.GetInt(cfgKeyBatchInterval),
		}
	}
	return cfg, nil
}

// defaultConfig is written by init.
func defaultConfig(dataDir string) types.Config {
	return types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		Log:     types.LogConfig{Level: "info", Format: types.LogFormatText},
		Animation: types.AnimationConfig{
			DefaultCurveType: types.DefaultCurveType,
			MinKeyframes:     types.DefaultMinKeyframes,
			DefaultLength:    types.DefaultLength,
		},
	}
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left alone. Reports whether a file was written.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfig(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}
