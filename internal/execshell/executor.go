package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	shellInterpreterStringConstant        = "sh"
	shellCommandFlagConstant              = "-c"
	loggerNotConfiguredMessageConstant    = "shell executor logger not configured"
	runnerNotConfiguredMessageConstant    = "shell executor command runner not configured"
	commandFailedErrorTemplateConstant    = "%s exited with code %d"
	commandExecutionErrorTemplateConstant = "%s could not be executed: %v"
	commandTimeoutErrorTemplateConstant   = "%s exceeded timeout of %s"
	executionErrorOutputTemplateConstant  = "Error: %s"
	logFieldCommandConstant               = "command"
	logFieldExitCodeConstant              = "exit_code"
	logFieldTimeoutConstant               = "timeout"

	// TimedOutOutputConstant is the output recorded for a command that exceeded its timeout.
	TimedOutOutputConstant = "Command timed out"
	// DefaultCommandTimeout bounds every shell command unless overridden.
	DefaultCommandTimeout = 10 * time.Second
)

// CommandName identifies the executable behind a ShellCommand.
type CommandName string

// CommandShell runs its first argument through the POSIX shell.
const CommandShell CommandName = CommandName(shellInterpreterStringConstant)

// CommandDetails describes how a command is invoked.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandOutcome is the reduced view of a shell invocation consumed by audit steps.
type CommandOutcome struct {
	Output    string
	Succeeded bool
	ExitCode  int
}

// CommandRunner executes a ShellCommand.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates the executor was built without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was built without a runner.
	ErrCommandRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that ran but returned a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

func (failure CommandFailedError) Error() string {
	return fmt.Sprintf(commandFailedErrorTemplateConstant, describeCommand(failure.Command), failure.Result.ExitCode)
}

// CommandExecutionError reports a command that could not be run at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, describeCommand(failure.Command), failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// CommandTimeoutError reports a command terminated because it exceeded its timeout.
type CommandTimeoutError struct {
	Command ShellCommand
	Timeout time.Duration
}

func (failure CommandTimeoutError) Error() string {
	return fmt.Sprintf(commandTimeoutErrorTemplateConstant, describeCommand(failure.Command), failure.Timeout)
}

// Unwrap lets callers match the timeout with context.DeadlineExceeded.
func (failure CommandTimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// ShellExecutor runs commands through a CommandRunner with logging, timeouts, and lifecycle events.
type ShellExecutor struct {
	logger         *zap.Logger
	runner         CommandRunner
	observer       CommandEventObserver
	formatter      CommandMessageFormatter
	commandTimeout time.Duration
}

// NewShellExecutor constructs a ShellExecutor using the default command timeout.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{
		logger:         logger,
		runner:         runner,
		observer:       noopCommandEventObserver{},
		formatter:      CommandMessageFormatter{},
		commandTimeout: DefaultCommandTimeout,
	}, nil
}

// WithEventObserver returns a copy of the executor that reports lifecycle events to observer.
func (executor *ShellExecutor) WithEventObserver(observer CommandEventObserver) *ShellExecutor {
	duplicated := *executor
	if observer == nil {
		observer = noopCommandEventObserver{}
	}
	duplicated.observer = observer
	return &duplicated
}

// WithCommandTimeout returns a copy of the executor bounding each command by timeout.
// A non-positive timeout disables the bound.
func (executor *ShellExecutor) WithCommandTimeout(timeout time.Duration) *ShellExecutor {
	duplicated := *executor
	duplicated.commandTimeout = timeout
	return &duplicated
}

// CommandTimeout reports the bound applied to each command.
func (executor *ShellExecutor) CommandTimeout() time.Duration {
	return executor.commandTimeout
}

// Execute runs the command and classifies its result.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	boundedContext := executionContext
	cancel := func() {}
	if executor.commandTimeout > 0 {
		boundedContext, cancel = context.WithTimeout(executionContext, executor.commandTimeout)
	}
	defer cancel()

	executor.observer.CommandStarted(command)
	executor.logger.Debug(executor.formatter.BuildStartedMessage(command), zap.String(logFieldCommandConstant, describeCommand(command)))

	executionResult, runError := executor.runner.Run(boundedContext, command)

	if errors.Is(boundedContext.Err(), context.DeadlineExceeded) && executionContext.Err() == nil {
		timeoutError := CommandTimeoutError{Command: command, Timeout: executor.commandTimeout}
		executor.observer.CommandTimedOut(command, executor.commandTimeout)
		executor.logger.Debug(executor.formatter.BuildTimeoutMessage(command, executor.commandTimeout), zap.Duration(logFieldTimeoutConstant, executor.commandTimeout))
		return ExecutionResult{}, timeoutError
	}

	if runError != nil {
		executionError := CommandExecutionError{Command: command, Cause: runError}
		executor.observer.CommandExecutionFailed(command, runError)
		executor.logger.Debug(executor.formatter.BuildExecutionFailureMessage(command, runError))
		return ExecutionResult{}, executionError
	}

	executor.observer.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Debug(executor.formatter.BuildFailureMessage(command, executionResult), zap.Int(logFieldExitCodeConstant, executionResult.ExitCode))
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(executor.formatter.BuildSuccessMessage(command))
	return executionResult, nil
}

// ExecuteShell runs script through the POSIX shell in workingDirectory.
func (executor *ShellExecutor) ExecuteShell(executionContext context.Context, script string, workingDirectory string) (ExecutionResult, error) {
	shellCommand := ShellCommand{
		Name: CommandShell,
		Details: CommandDetails{
			Arguments:        []string{shellCommandFlagConstant, script},
			WorkingDirectory: workingDirectory,
		},
	}
	return executor.Execute(executionContext, shellCommand)
}

// RunShellCommand executes script and never returns an error: timeouts and execution
// failures are folded into sentinel outputs with a failed status.
func (executor *ShellExecutor) RunShellCommand(executionContext context.Context, script string, workingDirectory string) CommandOutcome {
	executionResult, executionError := executor.ExecuteShell(executionContext, script, workingDirectory)
	if executionError == nil {
		return CommandOutcome{
			Output:    strings.TrimSpace(executionResult.StandardOutput),
			Succeeded: true,
		}
	}

	var timeoutError CommandTimeoutError
	if errors.As(executionError, &timeoutError) {
		return CommandOutcome{Output: TimedOutOutputConstant, ExitCode: -1}
	}

	var failedError CommandFailedError
	if errors.As(executionError, &failedError) {
		return CommandOutcome{
			Output:   strings.TrimSpace(failedError.Result.StandardOutput),
			ExitCode: failedError.Result.ExitCode,
		}
	}

	var runFailure CommandExecutionError
	if errors.As(executionError, &runFailure) && runFailure.Cause != nil {
		return CommandOutcome{Output: fmt.Sprintf(executionErrorOutputTemplateConstant, runFailure.Cause.Error()), ExitCode: -1}
	}
	return CommandOutcome{Output: fmt.Sprintf(executionErrorOutputTemplateConstant, executionError.Error()), ExitCode: -1}
}
