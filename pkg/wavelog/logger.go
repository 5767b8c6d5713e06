// Package wavelog is the module's structured logging wrapper: a thin
// zap.SugaredLogger shim with a console encoder for stdout and a
// JSON+lumberjack rotating encoder for file output, selected by Options.
package wavelog

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level names accepted by Options.Level / SetLevel.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func toZapLevel(l string) zapcore.Level {
	levels := map[Level]zapcore.Level{
		LevelDebug: zapcore.DebugLevel,
		LevelInfo:  zapcore.InfoLevel,
		LevelWarn:  zapcore.WarnLevel,
		LevelError: zapcore.ErrorLevel,
	}
	if level, ok := levels[Level(l)]; ok {
		return level
	}
	return zapcore.InfoLevel
}

// Options configures a Logger. Struct tags match the `config:"..."` keys
// pkg/waveconfig unpacks from YAML.
type Options struct {
	Stdout     bool   `config:"stdout"`
	Level      string `config:"level"`
	Filename   string `config:"filename"`
	MaxSize    int    `config:"maxSize"` // megabytes
	MaxAge     int    `config:"maxAge"`  // days
	MaxBackups int    `config:"maxBackups"`
	JSON       bool   `config:"json"`
}

// Logger wraps a zap.SugaredLogger with the call pattern the codec's
// orchestration layers (aggregator, upgrade handlers, combined codec) use:
// formatted messages plus occasional structured key/value pairs.
type Logger struct {
	sugared *zap.SugaredLogger
}

// Debugf logs at debug level.
func (l Logger) Debugf(template string, args ...any) { l.sugared.Debugf(template, args...) }

// Infof logs at info level.
func (l Logger) Infof(template string, args ...any) { l.sugared.Infof(template, args...) }

// Warnf logs at warn level.
func (l Logger) Warnf(template string, args ...any) { l.sugared.Warnf(template, args...) }

// Errorf logs at error level.
func (l Logger) Errorf(template string, args ...any) { l.sugared.Errorf(template, args...) }

// Warnw logs at warn level with structured key/value pairs, used where a
// single field (e.g. a correlation ID) should be queryable rather than
// interpolated into the message text.
func (l Logger) Warnw(msg string, keysAndValues ...any) { l.sugared.Warnw(msg, keysAndValues...) }

// Infow logs at info level with structured key/value pairs.
func (l Logger) Infow(msg string, keysAndValues ...any) { l.sugared.Infow(msg, keysAndValues...) }

// New builds a Logger from opt.
func New(opt Options) Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format("2006-01-02 15:04:05.000"))
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if opt.JSON {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var w zapcore.WriteSyncer
	switch {
	case opt.Stdout || opt.Filename == "":
		w = zapcore.AddSync(os.Stdout)
	default:
		if err := os.MkdirAll(filepath.Dir(opt.Filename), os.ModePerm); err != nil {
			panic(err)
		}
		w = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opt.Filename,
			MaxSize:    opt.MaxSize,
			MaxBackups: opt.MaxBackups,
			MaxAge:     opt.MaxAge,
			LocalTime:  true,
		})
	}

	core := zapcore.NewCore(encoder, w, toZapLevel(opt.Level))
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return Logger{sugared: logger.Sugar()}
}

// Nop returns a Logger that discards everything, for callers (tests, or
// library code with no configured logger) that need a non-nil default.
func Nop() Logger {
	return Logger{sugared: zap.NewNop().Sugar()}
}

var (
	stdOpt = Options{Stdout: true, Level: string(LevelInfo)}
	std    = New(stdOpt)
)

// SetOptions replaces the package-level default Logger's configuration.
func SetOptions(opt Options) {
	stdOpt = opt
	std = New(opt)
}

// SetLevel adjusts just the level of the package-level default Logger.
func SetLevel(level string) {
	stdOpt.Level = strings.ToLower(strings.TrimSpace(level))
	std = New(stdOpt)
}

// Default returns the package-level default Logger.
func Default() Logger { return std }

func Debugf(template string, args ...any) { std.Debugf(template, args...) }
func Infof(template string, args ...any)  { std.Infof(template, args...) }
func Warnf(template string, args ...any)  { std.Warnf(template, args...) }
func Errorf(template string, args ...any) { std.Errorf(template, args...) }
