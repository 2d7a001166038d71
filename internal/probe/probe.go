package probe

import (
	"context"
	"fmt"
	"strings"
)

const (
	// SourceCommands selects CommandProbe.
	SourceCommands = "commands"
	// SourceNative selects NativeProbe.
	SourceNative = "native"

	unsupportedSourceTemplateConstant = "unsupported probe source: %s"
)

// Reading is one ground-truth value. Available is false when the value could not be obtained;
// Value then carries whatever diagnostic text the source produced.
type Reading struct {
	Value     string
	Available bool
}

// Probe exposes one method per ground-truth reading consumed by the audit categories.
type Probe interface {
	OperatingSystemName(executionContext context.Context) Reading
	LoggedUser(executionContext context.Context) Reading
	Hostname(executionContext context.Context) Reading
	TaskCount(executionContext context.Context) Reading
	CPUModel(executionContext context.Context) Reading
	MemorySummary(executionContext context.Context) Reading
	DiskUsage(executionContext context.Context) Reading
	NetworkInterfaces(executionContext context.Context) Reading
	NetworkCounters(executionContext context.Context) Reading
	Thermal(executionContext context.Context) Reading
}

// SupportedSources lists the accepted probe source identifiers.
func SupportedSources() []string {
	return []string{SourceCommands, SourceNative}
}

// ValidateSource reports whether source names a known probe implementation.
func ValidateSource(source string) error {
	normalizedSource := strings.ToLower(strings.TrimSpace(source))
	for _, supportedSource := range SupportedSources() {
		if normalizedSource == supportedSource {
			return nil
		}
	}
	return fmt.Errorf(unsupportedSourceTemplateConstant, source)
}
