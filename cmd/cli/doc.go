// Package cli constructs the monaudit command-line interface, wiring the
// Cobra command hierarchy, the Viper configuration loader with its embedded
// defaults, and the zap diagnostic logger. The root command runs the full
// audit; run, checklist, and view are exposed as subcommands.
package cli
