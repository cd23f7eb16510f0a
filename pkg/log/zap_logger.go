package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	consoleFormat = "console"
	jsonFormat    = "json"
)

// Options configures a Logger.
type Options struct {
	Level            string `json:"level"              mapstructure:"level"`
	Format           string `json:"format"             mapstructure:"format"`
	DisableCaller    bool   `json:"disable-caller"     mapstructure:"disable-caller"`
	OutputPaths      []string
	ErrorOutputPaths []string
	Name             string
}

// NewOptions returns options with sane defaults.
func NewOptions() *Options {
	return &Options{
		Level:            zapcore.InfoLevel.String(),
		Format:           consoleFormat,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

type zapLogger struct {
	zapLogger *zap.Logger
}

// Interface assertion
var _ Logger = (*zapLogger)(nil)

// New creates a Logger from the given options.
func New(opts *Options) Logger {
	if opts == nil {
		opts = NewOptions()
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(opts.Level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(zapLevel),
		DisableCaller:     opts.DisableCaller,
		DisableStacktrace: true,
		Encoding:          opts.Format,
		EncoderConfig:     encoderConfig,
		OutputPaths:       opts.OutputPaths,
		ErrorOutputPaths:  opts.ErrorOutputPaths,
	}
	if cfg.Encoding != jsonFormat {
		cfg.Encoding = consoleFormat
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	if opts.Name != "" {
		l = l.Named(opts.Name)
	}

	return &zapLogger{zapLogger: l}
}

func (l *zapLogger) Info(msg string, fields ...Field) { l.zapLogger.Info(msg, fields...) }
func (l *zapLogger) Infof(format string, v ...interface{}) {
	l.zapLogger.Sugar().Infof(format, v...)
}

func (l *zapLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.zapLogger.Sugar().Infow(msg, keysAndValues...)
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.zapLogger.Debug(msg, fields...) }
func (l *zapLogger) Debugf(format string, v ...interface{}) {
	l.zapLogger.Sugar().Debugf(format, v...)
}

func (l *zapLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.zapLogger.Sugar().Debugw(msg, keysAndValues...)
}

func (l *zapLogger) Warn(msg string, fields ...Field) { l.zapLogger.Warn(msg, fields...) }
func (l *zapLogger) Warnf(format string, v ...interface{}) {
	l.zapLogger.Sugar().Warnf(format, v...)
}

func (l *zapLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.zapLogger.Sugar().Warnw(msg, keysAndValues...)
}

func (l *zapLogger) Error(msg string, fields ...Field) { l.zapLogger.Error(msg, fields...) }
func (l *zapLogger) Errorf(format string, v ...interface{}) {
	l.zapLogger.Sugar().Errorf(format, v...)
}

func (l *zapLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.zapLogger.Sugar().Errorw(msg, keysAndValues...)
}

// ErrorR logs the message and returns it as an error so callers can
// log and propagate in one statement.
func (l *zapLogger) ErrorR(msg string, keysAndValues ...interface{}) error {
	l.zapLogger.Sugar().Errorw(msg, keysAndValues...)
	return errString(msg)
}

func (l *zapLogger) Panic(msg string, fields ...Field) { l.zapLogger.Panic(msg, fields...) }
func (l *zapLogger) Panicf(format string, v ...interface{}) {
	l.zapLogger.Sugar().Panicf(format, v...)
}

func (l *zapLogger) Panicw(msg string, keysAndValues ...interface{}) {
	l.zapLogger.Sugar().Panicw(msg, keysAndValues...)
}

func (l *zapLogger) Fatal(msg string, fields ...Field) { l.zapLogger.Fatal(msg, fields...) }
func (l *zapLogger) Fatalf(format string, v ...interface{}) {
	l.zapLogger.Sugar().Fatalf(format, v...)
}

func (l *zapLogger) Fatalw(msg string, keysAndValues ...interface{}) {
	l.zapLogger.Sugar().Fatalw(msg, keysAndValues...)
}

func (l *zapLogger) WithValues(keysAndValues ...interface{}) Logger {
	return &zapLogger{zapLogger: l.zapLogger.Sugar().With(keysAndValues...).Desugar()}
}

func (l *zapLogger) WithName(name string) Logger {
	return &zapLogger{zapLogger: l.zapLogger.Named(name)}
}

func (l *zapLogger) Flush() {
	_ = l.zapLogger.Sync()
}

type errString string

func (e errString) Error() string { return string(e) }
