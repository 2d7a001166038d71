package audit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/monaudit/internal/utils"
)

const (
	logFilePermissionsConstant        = 0o644
	logDirectoryPermissionsConstant   = 0o755
	logPathMissingMessageConstant     = "log file path not configured"
	logOpenErrorTemplateConstant      = "open log file %s: %w"
	logDirectoryErrorTemplateConstant = "create log directory: %w"
	auditLoggerErrorTemplateConstant  = "create audit logger: %w"
	logCloseErrorTemplateConstant     = "close log file %s: %w"
)

// ErrLogPathNotConfigured indicates OpenLogSession received an empty path.
var ErrLogPathNotConfigured = errors.New(logPathMissingMessageConstant)

// LogSession owns the audit log file for one run. The file is truncated when the session opens.
type LogSession struct {
	path        string
	file        *os.File
	auditLogger *zap.Logger
	traceLogger *zap.Logger
}

// OpenLogSession truncates logPath and builds two timestamped loggers on it: the audit logger,
// which echoes every line to consoleWriter, and the trace logger, which echoes only when echoTrace is set.
func OpenLogSession(logPath string, consoleWriter io.Writer, echoTrace bool, options ...zap.Option) (*LogSession, error) {
	if len(strings.TrimSpace(logPath)) == 0 {
		return nil, ErrLogPathNotConfigured
	}
	if directoryError := os.MkdirAll(filepath.Dir(logPath), logDirectoryPermissionsConstant); directoryError != nil {
		return nil, fmt.Errorf(logDirectoryErrorTemplateConstant, directoryError)
	}

	logFile, openError := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, logFilePermissionsConstant)
	if openError != nil {
		return nil, fmt.Errorf(logOpenErrorTemplateConstant, logPath, openError)
	}

	fileSyncer := zapcore.Lock(logFile)
	var consoleSyncer io.Writer
	if consoleWriter != nil {
		consoleSyncer = zapcore.Lock(utils.NewFlushingWriter(consoleWriter))
	}

	loggerFactory := utils.NewLoggerFactory()
	auditLogger, auditError := loggerFactory.CreateAuditLogger(fileSyncer, consoleSyncer, options...)
	if auditError != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf(auditLoggerErrorTemplateConstant, auditError)
	}

	var traceConsole io.Writer
	if echoTrace {
		traceConsole = consoleSyncer
	}
	traceLogger, traceError := loggerFactory.CreateAuditLogger(fileSyncer, traceConsole, options...)
	if traceError != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf(auditLoggerErrorTemplateConstant, traceError)
	}

	return &LogSession{path: logPath, file: logFile, auditLogger: auditLogger, traceLogger: traceLogger}, nil
}

// AuditLogger returns the logger for human-facing progress lines.
func (session *LogSession) AuditLogger() *zap.Logger {
	return session.auditLogger
}

// TraceLogger returns the logger for command lifecycle events.
func (session *LogSession) TraceLogger() *zap.Logger {
	return session.traceLogger
}

// Path returns the log file location.
func (session *LogSession) Path() string {
	return session.path
}

// Close flushes both loggers and closes the file.
func (session *LogSession) Close() error {
	if session == nil || session.file == nil {
		return nil
	}
	combinedError := multierr.Combine(
		syncLogger(session.auditLogger),
		syncLogger(session.traceLogger),
	)
	if closeError := session.file.Close(); closeError != nil {
		combinedError = multierr.Append(combinedError, fmt.Errorf(logCloseErrorTemplateConstant, session.path, closeError))
	}
	session.file = nil
	return combinedError
}

func syncLogger(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}
