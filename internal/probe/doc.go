// Package probe reads the ground-truth values an audit compares against the
// monitored application. CommandProbe shells out to the classic introspection
// commands; NativeProbe queries the operating system through gopsutil.
package probe
