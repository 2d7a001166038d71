package audit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/monaudit/internal/execshell"
	"github.com/temirov/monaudit/internal/probe"
	pathutils "github.com/temirov/monaudit/internal/utils/path"
)

var auditConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

const (
	defaultLogFileConstant                 = "audit_test_log.txt"
	defaultReportFileConstant              = "audit_test_report.md"
	defaultBuildCommandConstant            = "make clean && make"
	defaultBinaryPathConstant              = "./monitor"
	defaultWorkingDirectoryConstant        = "."
	defaultDwellDurationConstant           = 3 * time.Second
	defaultGraceDurationConstant           = 5 * time.Second
	defaultViewStyleConstant               = "auto"
	defaultViewWordWrapConstant            = 100
	configurationKeyTemplateConstant       = "%s.%s"
	emptyLogFileMessageConstant            = "log file path must not be empty"
	emptyReportFileMessageConstant         = "report file path must not be empty"
	emptyBinaryPathMessageConstant         = "application binary path must not be empty"
	nonPositiveDwellMessageConstant        = "application dwell must be positive"
	nonPositiveGraceMessageConstant        = "application grace must be positive"
	unknownCategoryTemplateConstant        = "unknown audit category: %s (expected one of %s)"
	categoryListSeparatorConstant          = ", "
	invalidProbeSourceTemplateConstant     = "invalid probe source: %w"
	configurationKeyLogFileConstant        = "log_file"
	configurationKeyReportFileConstant     = "report_file"
	configurationKeyProbeSourceConstant    = "probe_source"
	configurationKeyCommandTimeoutConstant = "command_timeout"
	configurationKeySkipLaunchConstant     = "skip_launch"
	configurationKeyCategoriesConstant     = "categories"
	configurationKeyBuildCommandConstant   = "application.build_command"
	configurationKeyBinaryPathConstant     = "application.binary_path"
	configurationKeyArgumentsConstant      = "application.arguments"
	configurationKeyWorkingDirConstant     = "application.working_directory"
	configurationKeyBuildTimeoutConstant   = "application.build_timeout"
	configurationKeyDwellConstant          = "application.dwell"
	configurationKeyGraceConstant          = "application.grace"
	configurationKeyViewStyleConstant      = "style"
	configurationKeyViewWordWrapConstant   = "word_wrap"
)

// Category keys in execution order.
const (
	CategorySystemInfo  = "system_info"
	CategoryMemoryInfo  = "memory_info"
	CategoryNetworkInfo = "network_info"
	CategoryThermalInfo = "thermal_info"
)

// CategoryKeys lists every audit category in the order the suite runs them.
func CategoryKeys() []string {
	return []string{CategorySystemInfo, CategoryMemoryInfo, CategoryNetworkInfo, CategoryThermalInfo}
}

// ApplicationConfiguration describes how the monitored application is built and launched.
type ApplicationConfiguration struct {
	BuildCommand     string        `mapstructure:"build_command"`
	BinaryPath       string        `mapstructure:"binary_path"`
	Arguments        []string      `mapstructure:"arguments"`
	WorkingDirectory string        `mapstructure:"working_directory"`
	BuildTimeout     time.Duration `mapstructure:"build_timeout"`
	Dwell            time.Duration `mapstructure:"dwell"`
	Grace            time.Duration `mapstructure:"grace"`
}

// CommandConfiguration captures persistent settings for the audit run.
type CommandConfiguration struct {
	LogFile        string                   `mapstructure:"log_file"`
	ReportFile     string                   `mapstructure:"report_file"`
	ProbeSource    string                   `mapstructure:"probe_source"`
	CommandTimeout time.Duration            `mapstructure:"command_timeout"`
	SkipLaunch     bool                     `mapstructure:"skip_launch"`
	Categories     []string                 `mapstructure:"categories"`
	Application    ApplicationConfiguration `mapstructure:"application"`
	Commands       probe.Commands           `mapstructure:"commands"`
}

// ViewConfiguration controls terminal rendering of reports.
type ViewConfiguration struct {
	Style    string `mapstructure:"style"`
	WordWrap int    `mapstructure:"word_wrap"`
}

// DefaultCommandConfiguration returns baseline configuration values for the audit run.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		LogFile:        defaultLogFileConstant,
		ReportFile:     defaultReportFileConstant,
		ProbeSource:    probe.SourceCommands,
		CommandTimeout: execshell.DefaultCommandTimeout,
		Categories:     CategoryKeys(),
		Application: ApplicationConfiguration{
			BuildCommand:     defaultBuildCommandConstant,
			BinaryPath:       defaultBinaryPathConstant,
			WorkingDirectory: defaultWorkingDirectoryConstant,
			BuildTimeout:     execshell.DefaultCommandTimeout,
			Dwell:            defaultDwellDurationConstant,
			Grace:            defaultGraceDurationConstant,
		},
		Commands: probe.DefaultCommands(),
	}
}

// DefaultViewConfiguration returns baseline rendering settings.
func DefaultViewConfiguration() ViewConfiguration {
	return ViewConfiguration{Style: defaultViewStyleConstant, WordWrap: defaultViewWordWrapConstant}
}

// DefaultConfigurationValues flattens the defaults into viper keys under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	values := map[string]any{
		configurationKeyLogFileConstant:        defaults.LogFile,
		configurationKeyReportFileConstant:     defaults.ReportFile,
		configurationKeyProbeSourceConstant:    defaults.ProbeSource,
		configurationKeyCommandTimeoutConstant: defaults.CommandTimeout,
		configurationKeySkipLaunchConstant:     defaults.SkipLaunch,
		configurationKeyCategoriesConstant:     defaults.Categories,
		configurationKeyBuildCommandConstant:   defaults.Application.BuildCommand,
		configurationKeyBinaryPathConstant:     defaults.Application.BinaryPath,
		configurationKeyArgumentsConstant:      []string{},
		configurationKeyWorkingDirConstant:     defaults.Application.WorkingDirectory,
		configurationKeyBuildTimeoutConstant:   defaults.Application.BuildTimeout,
		configurationKeyDwellConstant:          defaults.Application.Dwell,
		configurationKeyGraceConstant:          defaults.Application.Grace,
	}
	return prefixKeys(prefix, values)
}

// DefaultViewConfigurationValues flattens the view defaults into viper keys under prefix.
func DefaultViewConfigurationValues(prefix string) map[string]any {
	defaults := DefaultViewConfiguration()
	return prefixKeys(prefix, map[string]any{
		configurationKeyViewStyleConstant:    defaults.Style,
		configurationKeyViewWordWrapConstant: defaults.WordWrap,
	})
}

// Sanitize trims values, expands home directories, and fills blanks from the defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.LogFile = expandOrDefault(configuration.LogFile, defaults.LogFile)
	sanitized.ReportFile = expandOrDefault(configuration.ReportFile, defaults.ReportFile)
	sanitized.ProbeSource = strings.ToLower(strings.TrimSpace(configuration.ProbeSource))
	if len(sanitized.ProbeSource) == 0 {
		sanitized.ProbeSource = defaults.ProbeSource
	}
	if sanitized.CommandTimeout <= 0 {
		sanitized.CommandTimeout = defaults.CommandTimeout
	}
	sanitized.Categories = sanitizeCategories(configuration.Categories)
	if len(sanitized.Categories) == 0 {
		sanitized.Categories = defaults.Categories
	}
	sanitized.Application = configuration.Application.sanitize(defaults.Application)
	sanitized.Commands = configuration.Commands.WithDefaults()

	return sanitized
}

// Validate reports configuration values the run cannot proceed with.
func (configuration CommandConfiguration) Validate() error {
	if len(strings.TrimSpace(configuration.LogFile)) == 0 {
		return errors.New(emptyLogFileMessageConstant)
	}
	if len(strings.TrimSpace(configuration.ReportFile)) == 0 {
		return errors.New(emptyReportFileMessageConstant)
	}
	if sourceError := probe.ValidateSource(configuration.ProbeSource); sourceError != nil {
		return fmt.Errorf(invalidProbeSourceTemplateConstant, sourceError)
	}
	for _, category := range configuration.Categories {
		if !isKnownCategory(category) {
			return fmt.Errorf(unknownCategoryTemplateConstant, category, strings.Join(CategoryKeys(), categoryListSeparatorConstant))
		}
	}
	if configuration.SkipLaunch {
		return nil
	}
	if len(strings.TrimSpace(configuration.Application.BinaryPath)) == 0 {
		return errors.New(emptyBinaryPathMessageConstant)
	}
	if configuration.Application.Dwell <= 0 {
		return errors.New(nonPositiveDwellMessageConstant)
	}
	if configuration.Application.Grace <= 0 {
		return errors.New(nonPositiveGraceMessageConstant)
	}
	return nil
}

// Sanitize fills blank view settings from the defaults.
func (configuration ViewConfiguration) Sanitize() ViewConfiguration {
	defaults := DefaultViewConfiguration()
	sanitized := configuration
	sanitized.Style = strings.ToLower(strings.TrimSpace(configuration.Style))
	if len(sanitized.Style) == 0 {
		sanitized.Style = defaults.Style
	}
	if sanitized.WordWrap < 0 {
		sanitized.WordWrap = defaults.WordWrap
	}
	return sanitized
}

func (configuration ApplicationConfiguration) sanitize(defaults ApplicationConfiguration) ApplicationConfiguration {
	sanitized := configuration
	sanitized.BuildCommand = strings.TrimSpace(configuration.BuildCommand)
	sanitized.BinaryPath = auditConfigurationHomeDirectoryExpander.Expand(strings.TrimSpace(configuration.BinaryPath))
	sanitized.WorkingDirectory = expandOrDefault(configuration.WorkingDirectory, defaults.WorkingDirectory)
	sanitized.Arguments = append([]string(nil), configuration.Arguments...)
	if sanitized.BuildTimeout <= 0 {
		sanitized.BuildTimeout = defaults.BuildTimeout
	}
	return sanitized
}

func expandOrDefault(candidate string, defaultValue string) string {
	trimmed := strings.TrimSpace(candidate)
	if len(trimmed) == 0 {
		trimmed = defaultValue
	}
	return auditConfigurationHomeDirectoryExpander.Expand(trimmed)
}

func sanitizeCategories(rawCategories []string) []string {
	normalized := make([]string, 0, len(rawCategories))
	for _, rawCategory := range rawCategories {
		category := strings.ToLower(strings.TrimSpace(rawCategory))
		if len(category) == 0 {
			continue
		}
		normalized = append(normalized, category)
	}
	return CanonicalCategoryOrder(normalized)
}

// CanonicalCategoryOrder returns the selected categories in the order the audit runs them.
// Unknown keys follow the known ones in their given order so validation can still reject them.
func CanonicalCategoryOrder(categories []string) []string {
	selected := make(map[string]struct{}, len(categories))
	unknown := make([]string, 0)
	for _, category := range categories {
		if _, duplicate := selected[category]; duplicate {
			continue
		}
		selected[category] = struct{}{}
		if !isKnownCategory(category) {
			unknown = append(unknown, category)
		}
	}

	ordered := make([]string, 0, len(selected))
	for _, key := range CategoryKeys() {
		if _, chosen := selected[key]; chosen {
			ordered = append(ordered, key)
		}
	}
	return append(ordered, unknown...)
}

func isKnownCategory(candidate string) bool {
	for _, key := range CategoryKeys() {
		if key == candidate {
			return true
		}
	}
	return false
}

func prefixKeys(prefix string, values map[string]any) map[string]any {
	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return values
	}
	prefixed := make(map[string]any, len(values))
	for key, value := range values {
		prefixed[fmt.Sprintf(configurationKeyTemplateConstant, trimmedPrefix, key)] = value
	}
	return prefixed
}
