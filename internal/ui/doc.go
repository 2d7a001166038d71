// Package ui provides helpers for formatting human-readable console output.
//
// Command lifecycle events are rendered through zap so the audit log keeps a
// trace of every probe, and the end-of-run summary is printed in color.
package ui
