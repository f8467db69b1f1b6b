// Package config loads vrtlc's tunables, grounded on gooze-dev-gooze's
// cmd/config.go (viper + YAML + env-var prefix + key/default constants) and
// on the teacher's preproc.Options (a plain struct of tunables passed by
// value to the passes that need it).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configBaseName = "vrtlc"
	configFileName = configBaseName + ".yaml"
	envPrefix      = "VRTLC"

	unrollCountKey = "unroll.count"
	unrollStmtsKey = "unroll.stmts"

	logLevelKey    = "log.level"
	logFilenameKey = "log.filename"
	logMaxSizeKey  = "log.max_size"
	logMaxBackups  = "log.max_backups"
	logMaxAgeKey   = "log.max_age"
	logCompressKey = "log.compress"

	defaultUnrollCount = 64
	defaultUnrollStmts = 4000

	defaultLogLevel    = "info"
	defaultLogFilename = ".vrtlc.log"
	defaultLogMaxSize  = 10 // MB
	defaultLogMaxBack  = 3
	defaultLogMaxAge   = 28 // days
	defaultLogCompress = true

	// generateCapMultiplier is how much larger the unroll cap is in
	// generate mode versus procedural mode (spec.md §4.5).
	generateCapMultiplier = 16
)

// Config holds vrtlc's compiler-wide tunables.
type Config struct {
	// UnrollCount is the procedural-mode trip-count cap (spec.md §6
	// unroll_count). Generate mode multiplies this by 16 internally — see
	// GenerateUnrollCap.
	UnrollCount int
	// UnrollStmts is the per-loop AST-node budget (spec.md §6 unroll_stmts).
	UnrollStmts int

	LogLevel    string
	LogFilename string
	LogMaxSize  int
	LogMaxAge   int
	LogBackups  int
	LogCompress bool
}

// GenerateUnrollCap returns the trip-count cap to use in generate mode,
// per spec.md §4.5's "generate mode uses a 16x multiplier."
func (c *Config) GenerateUnrollCap() int {
	return c.UnrollCount * generateCapMultiplier
}

// Default returns a Config populated with vrtlc's built-in defaults.
func Default() *Config {
	return &Config{
		UnrollCount: defaultUnrollCount,
		UnrollStmts: defaultUnrollStmts,
		LogLevel:    defaultLogLevel,
		LogFilename: defaultLogFilename,
		LogMaxSize:  defaultLogMaxSize,
		LogMaxAge:   defaultLogMaxAge,
		LogBackups:  defaultLogMaxBack,
		LogCompress: defaultLogCompress,
	}
}

// Load reads configPath (if it exists) over the built-in defaults, allowing
// VRTLC_-prefixed environment variables to override individual keys, the
// way gooze layers viper over its YAML config.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(unrollCountKey, defaultUnrollCount)
	v.SetDefault(unrollStmtsKey, defaultUnrollStmts)
	v.SetDefault(logLevelKey, defaultLogLevel)
	v.SetDefault(logFilenameKey, defaultLogFilename)
	v.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(logMaxBackups, defaultLogMaxBack)
	v.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(logCompressKey, defaultLogCompress)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("vrtlc: reading config %s: %w", configPath, err)
			}
		}
	}

	return &Config{
		UnrollCount: v.GetInt(unrollCountKey),
		UnrollStmts: v.GetInt(unrollStmtsKey),
		LogLevel:    v.GetString(logLevelKey),
		LogFilename: v.GetString(logFilenameKey),
		LogMaxSize:  v.GetInt(logMaxSizeKey),
		LogMaxAge:   v.GetInt(logMaxAgeKey),
		LogBackups:  v.GetInt(logMaxBackups),
		LogCompress: v.GetBool(logCompressKey),
	}, nil
}

// NewLogger builds the structured logger cmd/vrtlc writes to, backed by a
// rotating file sink the way gooze wires lumberjack behind slog. The
// unroll pass itself does not log.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	sink := &lumberjack.Logger{
		Filename:   c.LogFilename,
		MaxSize:    c.LogMaxSize,
		MaxBackups: c.LogBackups,
		MaxAge:     c.LogMaxAge,
		Compress:   c.LogCompress,
	}
	handler := slog.NewTextHandler(sink, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
