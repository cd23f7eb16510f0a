package log

import (
	"go.uber.org/zap"
)

// Field is an alias of zap.Field. Aliasing this type dramatically
// improves the navigability of this package's API documentation.
type Field = zap.Field

// Logger represents the ability to log messages, both errors and not.
type Logger interface {
	// info level
	Info(msg string, fields ...Field)
	Infof(format string, v ...interface{})
	Infow(msg string, keysAndValues ...interface{})

	// debug level
	Debug(msg string, fields ...Field)
	Debugf(format string, v ...interface{})
	Debugw(msg string, keysAndValues ...interface{})

	// warn level
	Warn(msg string, fields ...Field)
	Warnf(format string, v ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	// error level
	Error(msg string, fields ...Field)
	Errorf(format string, v ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	ErrorR(msg string, keysAndValues ...interface{}) error

	// panic level
	Panic(msg string, fields ...Field)
	Panicf(format string, v ...interface{})
	Panicw(msg string, keysAndValues ...interface{})

	// fatal level
	Fatal(msg string, fields ...Field)
	Fatalf(format string, v ...interface{})
	Fatalw(msg string, keysAndValues ...interface{})

	// WithValues adds some key-value pairs of context to a logger.
	WithValues(keysAndValues ...interface{}) Logger

	// WithName adds a new element to the logger's name.
	WithName(name string) Logger

	// Flush calls the underlying Core's Sync method, flushing any buffered
	// log entries. Applications should take care to call Sync before exiting.
	Flush()
}

var std = New(NewOptions())

// Init initializes the package-level default logger.
func Init(opts *Options) {
	std = New(opts)
}

func Info(msg string, fields ...Field)                { std.Info(msg, fields...) }
func Infof(format string, v ...interface{})           { std.Infof(format, v...) }
func Infow(msg string, keysAndValues ...interface{})  { std.Infow(msg, keysAndValues...) }
func Debugf(format string, v ...interface{})          { std.Debugf(format, v...) }
func Debugw(msg string, keysAndValues ...interface{}) { std.Debugw(msg, keysAndValues...) }
func Warnf(format string, v ...interface{})           { std.Warnf(format, v...) }
func Warnw(msg string, keysAndValues ...interface{})  { std.Warnw(msg, keysAndValues...) }
func Errorf(format string, v ...interface{})          { std.Errorf(format, v...) }
func Errorw(msg string, keysAndValues ...interface{}) { std.Errorw(msg, keysAndValues...) }
func Fatalf(format string, v ...interface{})          { std.Fatalf(format, v...) }

// WithName returns the package-level logger with an added name element.
func WithName(name string) Logger { return std.WithName(name) }

// Flush flushes the package-level logger.
func Flush() { std.Flush() }
