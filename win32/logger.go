package win32

import (
	"sync"
	"sync/atomic"
)

// Logger receives the diagnostics of the win32 package and the engines built
// on it: failures that cannot be returned to the caller, such as a handle that
// failed to close on a deferred path.
//
// Call SetLogger to route them into an application logger.
type Logger interface {
	Error(err error, msg string)
	Logln(v ...interface{})
	Logf(format string, args ...interface{})
}

var globalLoggerLock sync.Mutex
var globalLogger atomic.Value

type loggerBox struct {
	logger Logger
}

// SetLogger sets the logger used by the win32 package.
// A nil logger discards everything.
func SetLogger(l Logger) {
	globalLoggerLock.Lock()
	defer globalLoggerLock.Unlock()
	if l == nil {
		l = noopLogger{}
	}
	globalLogger.Store(loggerBox{logger: l})
}

func init() {
	SetLogger(nil)
}

func logger() Logger {
	return globalLogger.Load().(loggerBox).logger
}

func Logf(format string, v ...interface{}) {
	logger().Logf(format, v...)
}

func Logln(v ...interface{}) {
	logger().Logln(v...)
}

// LogError logs err with msg unless err is nil
func LogError(err error, msg string) {
	if err != nil {
		logger().Error(err, msg)
	}
}

// noopLogger silently discards logs
type noopLogger struct{}

func (noopLogger) Logf(format string, v ...interface{}) {}

func (noopLogger) Logln(v ...interface{}) {}

func (noopLogger) Error(err error, msg string) {}
