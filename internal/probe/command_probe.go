package probe

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/monaudit/internal/execshell"
)

const (
	defaultOperatingSystemNameCommandConstant = "uname -s"
	defaultLoggedUserCommandConstant          = "who | awk '{print $1}' | head -1"
	defaultHostnameCommandConstant            = "hostname"
	defaultTaskCountCommandConstant           = "top -bn1 | grep 'Tasks:' | awk '{print $2}'"
	defaultCPUModelCommandConstant            = "cat /proc/cpuinfo | grep 'model name' | head -1 | cut -d':' -f2 | xargs"
	defaultMemorySummaryCommandConstant       = "free -h"
	defaultDiskUsageCommandConstant           = "df -h /"
	defaultNetworkInterfacesCommandConstant   = "ifconfig"
	defaultNetworkCountersCommandConstant     = "cat /proc/net/dev"
	defaultThermalCommandConstant             = "cat /sys/class/thermal/thermal_zone0/temp 2>/dev/null || cat /proc/acpi/ibm/thermal 2>/dev/null"
	shellRunnerMissingMessageConstant         = "command probe shell runner not configured"
)

// ErrShellRunnerNotConfigured indicates the command probe was built without a runner.
var ErrShellRunnerNotConfigured = errors.New(shellRunnerMissingMessageConstant)

// ShellRunner executes a shell script and folds every failure into the outcome.
type ShellRunner interface {
	RunShellCommand(executionContext context.Context, script string, workingDirectory string) execshell.CommandOutcome
}

// Commands holds the shell command used for each reading.
type Commands struct {
	OperatingSystemName string `mapstructure:"os_name"`
	LoggedUser          string `mapstructure:"logged_user"`
	Hostname            string `mapstructure:"hostname"`
	TaskCount           string `mapstructure:"task_count"`
	CPUModel            string `mapstructure:"cpu_type"`
	MemorySummary       string `mapstructure:"memory_summary"`
	DiskUsage           string `mapstructure:"disk_usage"`
	NetworkInterfaces   string `mapstructure:"network_interfaces"`
	NetworkCounters     string `mapstructure:"network_stats"`
	Thermal             string `mapstructure:"thermal"`
}

// DefaultCommands returns the Linux command set.
func DefaultCommands() Commands {
	return Commands{
		OperatingSystemName: defaultOperatingSystemNameCommandConstant,
		LoggedUser:          defaultLoggedUserCommandConstant,
		Hostname:            defaultHostnameCommandConstant,
		TaskCount:           defaultTaskCountCommandConstant,
		CPUModel:            defaultCPUModelCommandConstant,
		MemorySummary:       defaultMemorySummaryCommandConstant,
		DiskUsage:           defaultDiskUsageCommandConstant,
		NetworkInterfaces:   defaultNetworkInterfacesCommandConstant,
		NetworkCounters:     defaultNetworkCountersCommandConstant,
		Thermal:             defaultThermalCommandConstant,
	}
}

// WithDefaults fills blank commands from DefaultCommands.
func (commands Commands) WithDefaults() Commands {
	defaults := DefaultCommands()
	pairs := []struct {
		target       *string
		defaultValue string
	}{
		{&commands.OperatingSystemName, defaults.OperatingSystemName},
		{&commands.LoggedUser, defaults.LoggedUser},
		{&commands.Hostname, defaults.Hostname},
		{&commands.TaskCount, defaults.TaskCount},
		{&commands.CPUModel, defaults.CPUModel},
		{&commands.MemorySummary, defaults.MemorySummary},
		{&commands.DiskUsage, defaults.DiskUsage},
		{&commands.NetworkInterfaces, defaults.NetworkInterfaces},
		{&commands.NetworkCounters, defaults.NetworkCounters},
		{&commands.Thermal, defaults.Thermal},
	}
	for _, pair := range pairs {
		if len(strings.TrimSpace(*pair.target)) == 0 {
			*pair.target = pair.defaultValue
		}
	}
	return commands
}

// CommandProbe produces readings by running shell commands.
type CommandProbe struct {
	runner           ShellRunner
	commands         Commands
	workingDirectory string
}

// NewCommandProbe constructs a CommandProbe. Blank commands fall back to the defaults.
func NewCommandProbe(runner ShellRunner, commands Commands, workingDirectory string) (*CommandProbe, error) {
	if runner == nil {
		return nil, ErrShellRunnerNotConfigured
	}
	return &CommandProbe{runner: runner, commands: commands.WithDefaults(), workingDirectory: workingDirectory}, nil
}

// OperatingSystemName runs the OS name command.
func (commandProbe *CommandProbe) OperatingSystemName(executionContext context.Context) Reading {
	return commandProbe.read(executionContext, commandProbe.commands.OperatingSystemName)
}

// LoggedUser runs the logged-in user command.
func (commandProbe *CommandProbe) LoggedUser(executionContext context.Context) Reading {
	return commandProbe.read(executionContext, commandProbe.commands.LoggedUser)
}

// Hostname runs the hostname command.
func (commandProbe *CommandProbe) Hostname(executionContext context.Context) Reading {
	return commandProbe.read(executionContext, commandProbe.commands.Hostname)
}

// TaskCount runs the task count command.
func (commandProbe *CommandProbe) TaskCount(executionContext context.Context) Reading {
	return commandProbe.read(executionContext, commandProbe.commands.TaskCount)
}

// CPUModel runs the CPU model command.
func (commandProbe *CommandProbe) CPUModel(executionContext context.Context) Reading {
	return commandProbe.read(executionContext, commandProbe.commands.CPUModel)
}

// MemorySummary runs the memory and swap summary command.
func (commandProbe *CommandProbe) MemorySummary(executionContext context.Context) Reading {
	return commandProbe.read(executionContext, commandProbe.commands.MemorySummary)
}

// DiskUsage runs the root filesystem usage command.
func (commandProbe *CommandProbe) DiskUsage(executionContext context.Context) Reading {
	return commandProbe.read(executionContext, commandProbe.commands.DiskUsage)
}

// NetworkInterfaces runs the interface listing command.
func (commandProbe *CommandProbe) NetworkInterfaces(executionContext context.Context) Reading {
	return commandProbe.read(executionContext, commandProbe.commands.NetworkInterfaces)
}

// NetworkCounters runs the network device counters command.
func (commandProbe *CommandProbe) NetworkCounters(executionContext context.Context) Reading {
	return commandProbe.read(executionContext, commandProbe.commands.NetworkCounters)
}

// Thermal runs the thermal sensor command.
func (commandProbe *CommandProbe) Thermal(executionContext context.Context) Reading {
	return commandProbe.read(executionContext, commandProbe.commands.Thermal)
}

func (commandProbe *CommandProbe) read(executionContext context.Context, script string) Reading {
	outcome := commandProbe.runner.RunShellCommand(executionContext, script, commandProbe.workingDirectory)
	return Reading{Value: outcome.Output, Available: outcome.Succeeded}
}
