package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/monaudit/internal/execshell"
	pathutils "github.com/temirov/monaudit/internal/utils/path"
)

const (
	launchHeaderMessageConstant           = "=== Testing Application Launch ==="
	buildingMessageConstant               = "Building application..."
	buildFailedTemplateConstant           = "Build failed: %s"
	buildSucceededMessageConstant         = "Application built successfully"
	buildSkippedMessageConstant           = "No build command configured, using existing binary"
	launchingMessageConstant              = "Testing application launch..."
	launchSucceededMessageConstant        = "Application launched and terminated successfully"
	launchFailedTemplateConstant          = "Application launch failed: %v"
	launchSkippedMessageConstant          = "Skipping application launch test"
	launchSucceededDetailConstant         = "application launched and terminated"
	launchSkippedDetailConstant           = "launch test skipped"
	buildFailedDetailTemplateConstant     = "build failed: %s"
	exitedDuringDwellTemplateConstant     = "application exited within %s of launch"
	graceExpiredTemplateConstant          = "application did not exit within %s of termination"
	terminateErrorTemplateConstant        = "terminate application: %w"
	startErrorTemplateConstant            = "start application: %w"
	dwellInterruptedTemplateConstant      = "launch interrupted: %w"
	starterMissingMessageConstant         = "process starter not configured"
	buildRunnerMissingMessageConstant     = "build runner not configured"
	buildFailedTraceMessageConstant       = "build command failed"
	logFieldCommandConstant               = "command"
	logFieldBinaryConstant                = "binary"
	logFieldExitCodeConstant              = "exit_code"
	processStartedTraceMessageConstant    = "application process started"
	processKilledTraceMessageConstant     = "application process killed after grace period"
	processTerminatedTraceMessageConstant = "application process signalled"
)

var (
	// ErrProcessStarterNotConfigured indicates the launch tester was built without a process starter.
	ErrProcessStarterNotConfigured = errors.New(starterMissingMessageConstant)
	// ErrBuildRunnerNotConfigured indicates the launch tester was built without a shell runner.
	ErrBuildRunnerNotConfigured = errors.New(buildRunnerMissingMessageConstant)
)

// ShellRunner runs a shell script and reports the folded outcome.
type ShellRunner interface {
	RunShellCommand(executionContext context.Context, script string, workingDirectory string) execshell.CommandOutcome
}

// ProcessSpecification describes the application process to spawn.
type ProcessSpecification struct {
	BinaryPath       string
	Arguments        []string
	WorkingDirectory string
}

// RunningProcess is a spawned application.
type RunningProcess interface {
	Terminate() error
	Kill() error
	Done() <-chan struct{}
}

// ProcessStarter spawns application processes.
type ProcessStarter interface {
	Start(specification ProcessSpecification) (RunningProcess, error)
}

// Sleeper waits for a duration unless the context ends first.
type Sleeper interface {
	Sleep(executionContext context.Context, duration time.Duration) error
}

// ContextSleeper implements Sleeper with a timer.
type ContextSleeper struct{}

// Sleep blocks for duration or until executionContext is done.
func (ContextSleeper) Sleep(executionContext context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-executionContext.Done():
		return executionContext.Err()
	}
}

// LaunchTester builds the application, lets it run for the dwell period, and checks it stops on SIGTERM.
type LaunchTester struct {
	buildRunner   ShellRunner
	starter       ProcessStarter
	sleeper       Sleeper
	auditLogger   *zap.Logger
	traceLogger   *zap.Logger
	configuration ApplicationConfiguration
}

// NewLaunchTester constructs a LaunchTester.
func NewLaunchTester(buildRunner ShellRunner, starter ProcessStarter, sleeper Sleeper, auditLogger *zap.Logger, traceLogger *zap.Logger, configuration ApplicationConfiguration) (*LaunchTester, error) {
	if buildRunner == nil {
		return nil, ErrBuildRunnerNotConfigured
	}
	if starter == nil {
		return nil, ErrProcessStarterNotConfigured
	}
	if sleeper == nil {
		sleeper = ContextSleeper{}
	}
	if auditLogger == nil {
		auditLogger = zap.NewNop()
	}
	if traceLogger == nil {
		traceLogger = zap.NewNop()
	}
	return &LaunchTester{
		buildRunner:   buildRunner,
		starter:       starter,
		sleeper:       sleeper,
		auditLogger:   auditLogger,
		traceLogger:   traceLogger,
		configuration: configuration,
	}, nil
}

// SkippedLaunch records a launch test that was not attempted.
func SkippedLaunch(auditLogger *zap.Logger) LaunchResult {
	if auditLogger != nil {
		auditLogger.Info(launchSkippedMessageConstant)
	}
	return LaunchResult{Outcome: OutcomeManualCheckRequired, Detail: launchSkippedDetailConstant, Skipped: true}
}

// Run performs the build and liveness check. Failures are reported through the result, never as errors.
func (tester *LaunchTester) Run(executionContext context.Context) LaunchResult {
	tester.auditLogger.Info(launchHeaderMessageConstant)

	if buildResult, built := tester.build(executionContext); !built {
		return buildResult
	}

	tester.auditLogger.Info(launchingMessageConstant)
	if launchError := tester.launch(executionContext); launchError != nil {
		tester.auditLogger.Info(fmt.Sprintf(launchFailedTemplateConstant, launchError))
		return LaunchResult{Outcome: OutcomeFail, Detail: launchError.Error()}
	}

	tester.auditLogger.Info(launchSucceededMessageConstant)
	return LaunchResult{Outcome: OutcomePass, Detail: launchSucceededDetailConstant}
}

func (tester *LaunchTester) build(executionContext context.Context) (LaunchResult, bool) {
	if len(strings.TrimSpace(tester.configuration.BuildCommand)) == 0 {
		tester.auditLogger.Info(buildSkippedMessageConstant)
		return LaunchResult{}, true
	}

	tester.auditLogger.Info(buildingMessageConstant)
	buildOutcome := tester.buildRunner.RunShellCommand(executionContext, tester.configuration.BuildCommand, tester.configuration.WorkingDirectory)
	if !buildOutcome.Succeeded {
		tester.auditLogger.Info(fmt.Sprintf(buildFailedTemplateConstant, buildOutcome.Output))
		tester.traceLogger.Debug(buildFailedTraceMessageConstant, zap.String(logFieldCommandConstant, tester.configuration.BuildCommand), zap.Int(logFieldExitCodeConstant, buildOutcome.ExitCode))
		return LaunchResult{Outcome: OutcomeFail, Detail: fmt.Sprintf(buildFailedDetailTemplateConstant, buildOutcome.Output)}, false
	}

	tester.auditLogger.Info(buildSucceededMessageConstant)
	return LaunchResult{}, true
}

func (tester *LaunchTester) launch(executionContext context.Context) error {
	specification := ProcessSpecification{
		BinaryPath:       tester.configuration.BinaryPath,
		Arguments:        tester.configuration.Arguments,
		WorkingDirectory: tester.configuration.WorkingDirectory,
	}
	process, startError := tester.starter.Start(specification)
	if startError != nil {
		return fmt.Errorf(startErrorTemplateConstant, startError)
	}
	tester.traceLogger.Debug(processStartedTraceMessageConstant, zap.String(logFieldBinaryConstant, specification.BinaryPath))

	if sleepError := tester.sleeper.Sleep(executionContext, tester.configuration.Dwell); sleepError != nil {
		tester.reap(process)
		return fmt.Errorf(dwellInterruptedTemplateConstant, sleepError)
	}

	select {
	case <-process.Done():
		return fmt.Errorf(exitedDuringDwellTemplateConstant, tester.configuration.Dwell)
	default:
	}

	if terminateError := process.Terminate(); terminateError != nil {
		tester.reap(process)
		return fmt.Errorf(terminateErrorTemplateConstant, terminateError)
	}
	tester.traceLogger.Debug(processTerminatedTraceMessageConstant, zap.String(logFieldBinaryConstant, specification.BinaryPath))

	graceTimer := time.NewTimer(tester.configuration.Grace)
	defer graceTimer.Stop()
	select {
	case <-process.Done():
		return nil
	case <-graceTimer.C:
		tester.reap(process)
		tester.traceLogger.Debug(processKilledTraceMessageConstant, zap.String(logFieldBinaryConstant, specification.BinaryPath))
		return fmt.Errorf(graceExpiredTemplateConstant, tester.configuration.Grace)
	}
}

func (tester *LaunchTester) reap(process RunningProcess) {
	_ = process.Kill()
	<-process.Done()
}

var processPathExpander = pathutils.NewHomeExpander()

// OSProcessStarter spawns processes with os/exec. Binary paths containing a separator are
// anchored at the working directory; bare names are looked up in PATH.
type OSProcessStarter struct{}

// NewOSProcessStarter constructs an OSProcessStarter.
func NewOSProcessStarter() *OSProcessStarter {
	return &OSProcessStarter{}
}

// Start spawns the binary described by specification.
func (starter *OSProcessStarter) Start(specification ProcessSpecification) (RunningProcess, error) {
	binaryPath := specification.BinaryPath
	if strings.ContainsRune(binaryPath, filepath.Separator) {
		baseDirectory := specification.WorkingDirectory
		if absoluteBase, absoluteError := filepath.Abs(baseDirectory); absoluteError == nil {
			baseDirectory = absoluteBase
		}
		binaryPath = processPathExpander.Resolve(baseDirectory, binaryPath)
	}

	command := exec.Command(binaryPath, specification.Arguments...)
	if len(specification.WorkingDirectory) > 0 {
		command.Dir = specification.WorkingDirectory
	}
	if startError := command.Start(); startError != nil {
		return nil, startError
	}

	process := &osRunningProcess{command: command, done: make(chan struct{})}
	go func() {
		_ = command.Wait()
		close(process.done)
	}()
	return process, nil
}

type osRunningProcess struct {
	command *exec.Cmd
	done    chan struct{}
}

func (process *osRunningProcess) Terminate() error {
	return process.signal(syscall.SIGTERM)
}

func (process *osRunningProcess) Kill() error {
	return process.signal(syscall.SIGKILL)
}

func (process *osRunningProcess) Done() <-chan struct{} {
	return process.done
}

func (process *osRunningProcess) signal(signal syscall.Signal) error {
	select {
	case <-process.done:
		return nil
	default:
	}
	signalError := process.command.Process.Signal(signal)
	if errors.Is(signalError, syscall.ESRCH) || errors.Is(signalError, os.ErrProcessDone) {
		return nil
	}
	return signalError
}
