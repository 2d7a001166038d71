// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the Viper-backed ConfigurationLoader, the zap LoggerFactory that
// builds both the diagnostic logger and the timestamped audit log, a
// FlushingWriter for console echo, and the command context accessor.
package utils
