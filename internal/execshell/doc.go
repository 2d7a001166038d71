// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging and timeouts via ShellExecutor, exposes
// OSCommandRunner for default process execution, and reduces every shell
// invocation to a CommandOutcome whose failures are sentinel strings rather
// than errors, so audit steps can record a failure and keep going.
package execshell
