package utils

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	jsonZapEncodingStringConstant        = "json"
	consoleZapEncodingStringConstant     = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	auditLogTimestampLayoutConstant      = "[2006-01-02 15:04:05]"
	auditLogTimeKeyConstant              = "time"
	auditLogMessageKeyConstant           = "message"
	auditLogFieldSeparatorConstant       = " "
	auditLogWriterMissingMessageConstant = "audit log file writer not configured"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// ErrAuditLogWriterNotConfigured indicates CreateAuditLogger received no file writer.
var ErrAuditLogWriterNotConfigured = errors.New(auditLogWriterMissingMessageConstant)

// LoggerOutputs groups the loggers produced for a CLI invocation.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logFormatEncodingMapping = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// SupportedLogFormats lists the accepted log format identifiers.
func SupportedLogFormats() []string {
	return []string{string(LogFormatStructured), string(LogFormatConsole)}
}

// CreateLogger produces a zap.Logger honoring the requested log level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoding, formatExists := logFormatEncodingMapping[requestedLogFormat]
	if !formatExists {
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLogLevel)
	configuration.Encoding = encoding
	if requestedLogFormat == LogFormatConsole {
		configuration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		configuration.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	logger, buildError := configuration.Build()
	if buildError != nil {
		return nil, buildError
	}

	return logger, nil
}

// CreateLoggerOutputs builds the diagnostic logger used by every command.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (LoggerOutputs, error) {
	diagnosticLogger, creationError := factory.CreateLogger(requestedLogLevel, requestedLogFormat)
	if creationError != nil {
		return LoggerOutputs{}, creationError
	}
	return LoggerOutputs{DiagnosticLogger: diagnosticLogger}, nil
}

// CreateAuditLogger produces the human audit log writing "[YYYY-MM-DD HH:MM:SS] message"
// lines to fileWriter. When consoleWriter is non-nil every line is echoed to it as well.
func (factory *LoggerFactory) CreateAuditLogger(fileWriter io.Writer, consoleWriter io.Writer, options ...zap.Option) (*zap.Logger, error) {
	if fileWriter == nil {
		return nil, ErrAuditLogWriterNotConfigured
	}

	encoder := zapcore.NewConsoleEncoder(auditLogEncoderConfig())
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(fileWriter), zapcore.DebugLevel),
	}
	if consoleWriter != nil {
		cores = append(cores, zapcore.NewCore(encoder.Clone(), zapcore.AddSync(consoleWriter), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...), options...), nil
}

func auditLogEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          auditLogTimeKeyConstant,
		MessageKey:       auditLogMessageKeyConstant,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(auditLogTimestampLayoutConstant),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: auditLogFieldSeparatorConstant,
	}
}
