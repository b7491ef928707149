// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// The front controller and the CLI both log through the process-wide zap
// logger.  New builds it from the `log` config block: a JSON file under
// `<dir>/cleanurls.log`, rotated by Lumberjack, optionally teed to a
// console encoder on stderr for interactive runs.  The transform packages
// never receive a logger; they call zap.L() and get whatever New installed
// (the no-op logger in tests).
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Dir: cfg.Log.Dir, Level: "debug", Console: true})
//	if err != nil { … }
//	defer log.Sync()
//
// Notes
// -----
// • ISO-8601 timestamps and lowercase levels.
// • An empty Dir logs to the console only.
// • Oxford commas, two spaces after periods.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options mirrors the log config block.
type Options struct {
	Dir        string
	Level      string // debug, info, warn, error
	Console    bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a *zap.SugaredLogger and installs it as the global logger.
func New(o Options) (*zap.SugaredLogger, error) {
	lvl := zap.InfoLevel
	if o.Level != "" {
		if err := lvl.UnmarshalText([]byte(o.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", o.Level, err)
		}
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	var (
		cores   []zapcore.Core
		errSink zapcore.WriteSyncer = zapcore.AddSync(os.Stderr)
	)

	if o.Dir != "" {
		if err := os.MkdirAll(o.Dir, 0o755); err != nil {
			return nil, err
		}
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(o.Dir, "cleanurls.log"),
			MaxSize:    orDefault(o.MaxSizeMB, 50),
			MaxBackups: orDefault(o.MaxBackups, 7),
			MaxAge:     orDefault(o.MaxAgeDays, 14),
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), fileSink, lvl))
		errSink = fileSink
	}

	if o.Console || o.Dir == "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stderr),
			lvl,
		))
	}

	z := zap.New(zapcore.NewTee(cores...), zap.ErrorOutput(errSink), zap.AddCaller()).Sugar()
	zap.ReplaceGlobals(z.Desugar())

	z.Debugw("logger online", "dir", o.Dir, "level", lvl.String(), "console", o.Console)
	return z, nil
}

func orDefault(v, d int) int {
	if v > 0 {
		return v
	}
	return d
}
