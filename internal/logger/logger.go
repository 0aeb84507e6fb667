// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// Services write lifecycle and error events to one JSON log per day under
// `<dir>/YYYY-MM-DD.log`.  When running in an interactive TTY the same
// events are teed to stdout.  Rotation, compression, and retention are
// handled by Lumberjack; no external log-rotate job is required.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Dir: dir, Level: "info", Tee: tty})
//	if err != nil { … }
//	log.Infow("snapshot built", "domains", n)
//
// Notes
// -----
//   - Zap core uses ISO-8601 timestamps and lowercase levels.
//   - Errors are written to the same sink via `ErrorOutput`.
//   - Both constructors install the logger via zap.ReplaceGlobals, so
//     library code logs through zap.L() and zap.S().
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	Dir   string // log directory, created when missing
	Level string // debug, info, warn, error; "" means info
	Tee   bool   // also write to stdout
}

var encCfg = zapcore.EncoderConfig{
	TimeKey:      "ts",
	LevelKey:     "level",
	MessageKey:   "msg",
	CallerKey:    "caller",
	EncodeTime:   zapcore.ISO8601TimeEncoder,
	EncodeLevel:  zapcore.LowercaseLevelEncoder,
	EncodeCaller: zapcore.ShortCallerEncoder,
}

// New returns a *zap.SugaredLogger that writes JSON to <Dir>/YYYY-MM-DD.log.
func New(opts Options) (*zap.SugaredLogger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}

	fileName := time.Now().Format("2006-01-02") + ".log"
	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, fileName),
		MaxSize:    50, // MB
		MaxBackups: 7,  // keep last seven files
		MaxAge:     14, // days
		Compress:   true,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), level),
	}
	if opts.Tee {
		cores = append(cores,
			zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), level))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())
	z.Infow("logger online", "tee", opts.Tee, "level", level.String())
	return z, nil
}

// NewConsole logs to stderr only.  Used by CLI tools whose output goes to
// stdout.
func NewConsole(levelName string) (*zap.SugaredLogger, error) {
	level, err := parseLevel(levelName)
	if err != nil {
		return nil, err
	}
	z := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level,
	)).Sugar()
	zap.ReplaceGlobals(z.Desugar())
	return z, nil
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zap.InfoLevel, nil
	}
	return zapcore.ParseLevel(s)
}
