package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const DefaultLogName = "privy.log"

type LogConfig struct {
	MaxLogFiles int
	MaxSizeMB   int
	LogDir      string
	LogName     string

	// Console also writes human readable lines to stderr
	Console bool
	// Verbose enables debug level
	Verbose bool
}

func (c LogConfig) Dir() (string, error) {
	if c.LogDir != "" {
		return c.LogDir, nil
	}
	return os.Getwd()
}

func (c LogConfig) Name() string {
	if c.LogName != "" {
		return c.LogName
	}
	return DefaultLogName
}

func (c LogConfig) Path() (string, error) {
	dir, err := c.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Name()), nil
}

type Logger struct {
	zl     zerolog.Logger
	closer io.Closer
}

// Close closes the log file, if any
func (l Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l Logger) WithFields(fs map[string]interface{}) Logger {
	return Logger{
		zl:     l.zl.With().Fields(fs).Logger(),
		closer: l.closer,
	}
}

func (l Logger) Logln(v ...interface{}) {
	l.zl.Info().Msg(fmt.Sprint(v...))
}

func (l Logger) Logf(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

func (l Logger) Debugf(format string, v ...interface{}) {
	l.zl.Debug().Msgf(format, v...)
}

func (l Logger) Warnf(format string, v ...interface{}) {
	l.zl.Warn().Msgf(format, v...)
}

func (l Logger) Error(err error, msg string) {
	if err == nil {
		return
	}
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	if v, ok := err.(stackTracer); ok {
		var stacktrace []string
		for _, frame := range v.StackTrace() {
			stacktrace = append(stacktrace, fmt.Sprintf("%+v", frame))
		}
		logger := l.zl.With().Fields(map[string]interface{}{
			"stacktrace": stacktrace,
		}).Logger()
		logger.Error().Err(err).Msg(msg)
	} else {
		l.zl.Error().Err(err).Msg(msg)
	}
}

// Nop returns a logger that writes nothing
func Nop() Logger {
	return Logger{zl: zerolog.Nop()}
}

// New returns a logger writing JSON lines to w
func New(w io.Writer, verbose bool) Logger {
	return Logger{zl: zerolog.New(w).Level(level(verbose)).With().Timestamp().Logger()}
}

func level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func NewLogger(cfg LogConfig) (Logger, error) {
	filename, err := cfg.Path()
	if err != nil {
		return Logger{}, errors.Wrapf(err, "unable to get log directory")
	}
	file := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxLogFiles,
	}
	var out io.Writer = file
	if cfg.Console {
		console := zerolog.ConsoleWriter{
			Out:        colorable.NewColorableStderr(),
			TimeFormat: time.Kitchen,
		}
		out = zerolog.MultiLevelWriter(out, console)
	}
	l := New(out, cfg.Verbose)
	l.closer = file
	return l, nil
}
