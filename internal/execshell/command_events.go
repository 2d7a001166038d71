package execshell

import "time"

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted is called before the runner is invoked.
	CommandStarted(command ShellCommand)
	// CommandCompleted is called once the command exited, whatever its exit code.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandTimedOut is called when the command was stopped at its deadline.
	CommandTimedOut(command ShellCommand, timeout time.Duration)
	// CommandExecutionFailed reports failures that prevented the command from producing a result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandTimedOut(ShellCommand, time.Duration) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
