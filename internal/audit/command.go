package audit

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/monaudit/internal/execshell"
	"github.com/temirov/monaudit/internal/probe"
	"github.com/temirov/monaudit/internal/ui"
	"github.com/temirov/monaudit/internal/utils"
	"github.com/temirov/monaudit/internal/utils/flags"
)

const (
	runCommandUseConstant                 = "run"
	runCommandShortDescriptionConstant    = "Run the audit suite and write the report"
	runCommandLongDescriptionConstant     = "run builds and launches the monitored application, captures ground-truth readings for the system, memory, network, and thermal categories, and writes a markdown report with a manual verification checklist."
	checklistCommandUseConstant           = "checklist"
	checklistShortDescriptionConstant     = "Print the manual verification checklist"
	checklistLongDescriptionConstant      = "checklist prints the UI behaviors that must be verified by running the application, as markdown."
	viewCommandUseConstant                = "view [report]"
	viewShortDescriptionConstant          = "Render an audit report in the terminal"
	viewLongDescriptionConstant           = "view renders an existing audit report as formatted terminal output. The configured report file is used when no path is given."
	probeSourceFlagNameConstant           = "probe-source"
	probeSourceFlagDescriptionConstant    = "Source of ground-truth readings"
	reportFileFlagNameConstant            = "report-file"
	reportFileFlagDescriptionConstant     = "Path of the markdown report to write"
	logFileFlagNameConstant               = "log-file"
	logFileFlagDescriptionConstant        = "Path of the timestamped audit log"
	skipLaunchFlagNameConstant            = "skip-launch"
	skipLaunchFlagDescriptionConstant     = "Skip building and launching the application"
	categoryFlagNameConstant              = "category"
	categoryFlagDescriptionConstant       = "Audit category to run (repeatable): system_info, memory_info, network_info, thermal_info"
	commandTimeoutFlagNameConstant        = "command-timeout"
	commandTimeoutFlagDescriptionConstant = "Timeout applied to each probe command"
	renderFlagNameConstant                = "render"
	renderFlagDescriptionConstant         = "Render the checklist for the terminal instead of printing markdown"
	styleFlagNameConstant                 = "style"
	styleFlagDescriptionConstant          = "Terminal rendering style"
	wordWrapFlagNameConstant              = "word-wrap"
	wordWrapFlagDescriptionConstant       = "Column at which rendered output wraps (0 disables wrapping)"
	unexpectedArgumentsMessageConstant    = "run does not accept positional arguments"
	configurationInvalidTemplateConstant  = "invalid audit configuration: %w"
	logSessionErrorTemplateConstant       = "open audit log: %w"
	executorErrorTemplateConstant         = "create command executor: %w"
	probeErrorTemplateConstant            = "create probe: %w"
	launchTesterErrorTemplateConstant     = "create launch tester: %w"
	serviceErrorTemplateConstant          = "create audit service: %w"
	summaryErrorTemplateConstant          = "print audit summary: %w"
	readReportErrorTemplateConstant       = "read report %s: %w"
	viewRendererErrorTemplateConstant     = "configure renderer: %w"
	debugLogLevelConstant                 = "debug"
	maximumViewArgumentsConstant          = 1
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current audit configuration.
type ConfigurationProvider func() CommandConfiguration

// ViewConfigurationProvider returns the current report rendering configuration.
type ViewConfigurationProvider func() ViewConfiguration

// ProbeFactory creates the probe selected by source.
type ProbeFactory func(source string, runner probe.ShellRunner, commands probe.Commands, workingDirectory string) (probe.Probe, error)

// ColorOutputProvider reports whether the run summary should be colored.
type ColorOutputProvider func() bool

// CommandBuilder assembles the audit cobra commands with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider            LoggerProvider
	ConfigurationProvider     ConfigurationProvider
	ViewConfigurationProvider ViewConfigurationProvider
	CommandRunner             execshell.CommandRunner
	ProcessStarter            ProcessStarter
	Sleeper                   Sleeper
	Clock                     Clock
	ProbeFactory              ProbeFactory
	ColorOutputProvider       ColorOutputProvider
}

// DefaultProbeFactory returns a NativeProbe for the native source and a CommandProbe otherwise.
func DefaultProbeFactory(source string, runner probe.ShellRunner, commands probe.Commands, workingDirectory string) (probe.Probe, error) {
	if validationError := probe.ValidateSource(source); validationError != nil {
		return nil, validationError
	}
	if strings.EqualFold(strings.TrimSpace(source), probe.SourceNative) {
		return probe.NewNativeProbe(), nil
	}
	return probe.NewCommandProbe(runner, commands, workingDirectory)
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   runCommandUseConstant,
		Short: runCommandShortDescriptionConstant,
		Long:  runCommandLongDescriptionConstant,
		RunE:  builder.Run,
	}

	defaults := DefaultCommandConfiguration()
	var probeSource string
	command.Flags().Var(
		flags.NewChoiceValue(&probeSource, defaults.ProbeSource, probe.SupportedSources()),
		probeSourceFlagNameConstant,
		flags.FormatChoiceUsage(defaults.ProbeSource, probe.SupportedSources(), probeSourceFlagDescriptionConstant),
	)
	command.Flags().String(reportFileFlagNameConstant, defaults.ReportFile, reportFileFlagDescriptionConstant)
	command.Flags().String(logFileFlagNameConstant, defaults.LogFile, logFileFlagDescriptionConstant)
	command.Flags().Bool(skipLaunchFlagNameConstant, false, skipLaunchFlagDescriptionConstant)
	command.Flags().StringSlice(categoryFlagNameConstant, nil, categoryFlagDescriptionConstant)
	command.Flags().Duration(commandTimeoutFlagNameConstant, defaults.CommandTimeout, commandTimeoutFlagDescriptionConstant)

	return command, nil
}

// BuildChecklist constructs the checklist command.
func (builder *CommandBuilder) BuildChecklist() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   checklistCommandUseConstant,
		Short: checklistShortDescriptionConstant,
		Long:  checklistLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runChecklist,
	}
	command.Flags().Bool(renderFlagNameConstant, false, renderFlagDescriptionConstant)
	builder.addViewFlags(command)
	return command, nil
}

// BuildView constructs the view command.
func (builder *CommandBuilder) BuildView() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   viewCommandUseConstant,
		Short: viewShortDescriptionConstant,
		Long:  viewLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(maximumViewArgumentsConstant),
		RunE:  builder.runView,
	}
	builder.addViewFlags(command)
	return command, nil
}

// Run executes the audit suite for command. It is exported so a parent command can reuse it.
func (builder *CommandBuilder) Run(command *cobra.Command, arguments []string) (runError error) {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsMessageConstant)
	}

	configuration, configurationError := builder.parseConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	diagnostics := builder.resolveLogger()
	session, sessionError := OpenLogSession(configuration.LogFile, command.OutOrStdout(), builder.traceEchoEnabled(command))
	if sessionError != nil {
		return fmt.Errorf(logSessionErrorTemplateConstant, sessionError)
	}
	defer func() {
		runError = multierr.Append(runError, session.Close())
	}()

	executor, executorError := builder.resolveExecutor(diagnostics, session)
	if executorError != nil {
		return executorError
	}
	probeExecutor := executor.WithCommandTimeout(configuration.CommandTimeout)

	probeFactory := builder.ProbeFactory
	if probeFactory == nil {
		probeFactory = DefaultProbeFactory
	}
	readingProbe, probeError := probeFactory(configuration.ProbeSource, probeExecutor, configuration.Commands, configuration.Application.WorkingDirectory)
	if probeError != nil {
		return fmt.Errorf(probeErrorTemplateConstant, probeError)
	}

	var launchChecker LaunchChecker
	if !configuration.SkipLaunch {
		buildExecutor := executor.WithCommandTimeout(configuration.Application.BuildTimeout)
		launchTester, launchError := NewLaunchTester(buildExecutor, builder.resolveProcessStarter(), builder.Sleeper, session.AuditLogger(), session.TraceLogger(), configuration.Application)
		if launchError != nil {
			return fmt.Errorf(launchTesterErrorTemplateConstant, launchError)
		}
		launchChecker = launchTester
	}

	service, serviceError := NewService(launchChecker, NewCategoryRunner(readingProbe, session.AuditLogger(), session.TraceLogger()), session.AuditLogger(), diagnostics, WriteReport, builder.Clock)
	if serviceError != nil {
		return fmt.Errorf(serviceErrorTemplateConstant, serviceError)
	}

	report, suiteError := service.Run(command.Context(), RunOptions{
		ReportPath: configuration.ReportFile,
		Categories: configuration.Categories,
		SkipLaunch: configuration.SkipLaunch,
	})
	if suiteError != nil {
		return suiteError
	}

	passed, failed, manual := report.OutcomeCounts()
	summaryPrinter := ui.NewSummaryPrinter(command.OutOrStdout(), builder.colorEnabled())
	if printError := summaryPrinter.Print(ui.RunSummary{
		Passed:     passed,
		Failed:     failed,
		Manual:     manual,
		Launch:     launchStatus(report.Launch),
		ReportPath: configuration.ReportFile,
		LogPath:    session.Path(),
	}); printError != nil {
		return fmt.Errorf(summaryErrorTemplateConstant, printError)
	}
	return nil
}

func (builder *CommandBuilder) runChecklist(command *cobra.Command, arguments []string) error {
	renderOutput, renderFlagError := command.Flags().GetBool(renderFlagNameConstant)
	if renderFlagError != nil {
		return renderFlagError
	}

	markdownBuilder := &strings.Builder{}
	if checklistError := RenderChecklist(markdownBuilder, ManualChecklist()); checklistError != nil {
		return checklistError
	}
	if !renderOutput {
		_, writeError := fmt.Fprint(command.OutOrStdout(), markdownBuilder.String())
		return writeError
	}

	renderer, rendererError := builder.resolveMarkdownRenderer(command)
	if rendererError != nil {
		return rendererError
	}
	return renderer.Render(command.OutOrStdout(), markdownBuilder.String())
}

func (builder *CommandBuilder) runView(command *cobra.Command, arguments []string) error {
	reportPath := builder.resolveConfiguration().Sanitize().ReportFile
	if len(arguments) > 0 {
		reportPath = arguments[0]
	}

	reportContent, readError := os.ReadFile(reportPath)
	if readError != nil {
		return fmt.Errorf(readReportErrorTemplateConstant, reportPath, readError)
	}

	renderer, rendererError := builder.resolveMarkdownRenderer(command)
	if rendererError != nil {
		return rendererError
	}
	return renderer.Render(command.OutOrStdout(), string(reportContent))
}

func (builder *CommandBuilder) addViewFlags(command *cobra.Command) {
	defaults := DefaultViewConfiguration()
	command.Flags().String(styleFlagNameConstant, defaults.Style, flags.FormatChoiceUsage(defaults.Style, ui.MarkdownStyles(), styleFlagDescriptionConstant))
	command.Flags().Int(wordWrapFlagNameConstant, defaults.WordWrap, wordWrapFlagDescriptionConstant)
}

func (builder *CommandBuilder) resolveMarkdownRenderer(command *cobra.Command) (*ui.MarkdownRenderer, error) {
	viewConfiguration := DefaultViewConfiguration()
	if builder.ViewConfigurationProvider != nil {
		viewConfiguration = builder.ViewConfigurationProvider()
	}

	if command.Flags().Changed(styleFlagNameConstant) {
		styleValue, styleError := command.Flags().GetString(styleFlagNameConstant)
		if styleError != nil {
			return nil, styleError
		}
		viewConfiguration.Style = styleValue
	}
	if command.Flags().Changed(wordWrapFlagNameConstant) {
		wordWrapValue, wordWrapError := command.Flags().GetInt(wordWrapFlagNameConstant)
		if wordWrapError != nil {
			return nil, wordWrapError
		}
		viewConfiguration.WordWrap = wordWrapValue
	}
	viewConfiguration = viewConfiguration.Sanitize()

	renderer, rendererError := ui.NewMarkdownRenderer(viewConfiguration.Style, viewConfiguration.WordWrap)
	if rendererError != nil {
		return nil, fmt.Errorf(viewRendererErrorTemplateConstant, rendererError)
	}
	return renderer, nil
}

func (builder *CommandBuilder) parseConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := builder.resolveConfiguration()
	commandFlags := command.Flags()

	if probeSourceFlag := commandFlags.Lookup(probeSourceFlagNameConstant); probeSourceFlag != nil && probeSourceFlag.Changed {
		configuration.ProbeSource = probeSourceFlag.Value.String()
	}
	if commandFlags.Changed(reportFileFlagNameConstant) {
		reportFile, flagError := commandFlags.GetString(reportFileFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.ReportFile = reportFile
	}
	if commandFlags.Changed(logFileFlagNameConstant) {
		logFile, flagError := commandFlags.GetString(logFileFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.LogFile = logFile
	}
	if commandFlags.Changed(skipLaunchFlagNameConstant) {
		skipLaunch, flagError := commandFlags.GetBool(skipLaunchFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.SkipLaunch = skipLaunch
	}
	if commandFlags.Changed(categoryFlagNameConstant) {
		categories, flagError := commandFlags.GetStringSlice(categoryFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.Categories = categories
	}
	if commandFlags.Changed(commandTimeoutFlagNameConstant) {
		commandTimeout, flagError := commandFlags.GetDuration(commandTimeoutFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.CommandTimeout = commandTimeout
	}

	configuration = configuration.Sanitize()
	if validationError := configuration.Validate(); validationError != nil {
		return CommandConfiguration{}, fmt.Errorf(configurationInvalidTemplateConstant, validationError)
	}
	return configuration, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(diagnostics *zap.Logger, session *LogSession) (*execshell.ShellExecutor, error) {
	runner := builder.CommandRunner
	if runner == nil {
		runner = execshell.NewOSCommandRunner()
	}
	executor, executorError := execshell.NewShellExecutor(diagnostics, runner)
	if executorError != nil {
		return nil, fmt.Errorf(executorErrorTemplateConstant, executorError)
	}
	return executor.WithEventObserver(ui.NewConsoleCommandEventLogger(session.TraceLogger())), nil
}

func (builder *CommandBuilder) resolveProcessStarter() ProcessStarter {
	if builder.ProcessStarter == nil {
		return NewOSProcessStarter()
	}
	return builder.ProcessStarter
}

func (builder *CommandBuilder) traceEchoEnabled(command *cobra.Command) bool {
	logLevel, found := utils.NewCommandContextAccessor().LogLevel(command.Context())
	return found && strings.EqualFold(strings.TrimSpace(logLevel), debugLogLevelConstant)
}

func (builder *CommandBuilder) colorEnabled() bool {
	if builder.ColorOutputProvider == nil {
		return !color.NoColor
	}
	return builder.ColorOutputProvider()
}

func launchStatus(launch LaunchResult) ui.LaunchStatus {
	if launch.Skipped {
		return ui.LaunchStatusSkipped
	}
	if launch.Outcome == OutcomePass {
		return ui.LaunchStatusPassed
	}
	return ui.LaunchStatusFailed
}
