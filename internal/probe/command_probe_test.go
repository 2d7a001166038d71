package probe_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/monaudit/internal/execshell"
	"github.com/temirov/monaudit/internal/probe"
)

type stubShellRunner struct {
	outcomes          map[string]execshell.CommandOutcome
	recordedScripts   []string
	recordedDirectory string
}

func (runner *stubShellRunner) RunShellCommand(_ context.Context, script string, workingDirectory string) execshell.CommandOutcome {
	runner.recordedScripts = append(runner.recordedScripts, script)
	runner.recordedDirectory = workingDirectory
	outcome, exists := runner.outcomes[script]
	if !exists {
		return execshell.CommandOutcome{Output: "Error: unexpected command", ExitCode: -1}
	}
	return outcome
}

func TestCommandProbeRunsConfiguredCommands(testInstance *testing.T) {
	defaults := probe.DefaultCommands()

	testCases := []struct {
		name            string
		read            func(commandProbe *probe.CommandProbe) probe.Reading
		expectedScript  string
		outcome         execshell.CommandOutcome
		expectedReading probe.Reading
	}{
		{
			name:            "os_name",
			read:            func(commandProbe *probe.CommandProbe) probe.Reading { return commandProbe.OperatingSystemName(context.Background()) },
			expectedScript:  "uname -s",
			outcome:         execshell.CommandOutcome{Output: "Linux", Succeeded: true},
			expectedReading: probe.Reading{Value: "Linux", Available: true},
		},
		{
			name:            "logged_user",
			read:            func(commandProbe *probe.CommandProbe) probe.Reading { return commandProbe.LoggedUser(context.Background()) },
			expectedScript:  defaults.LoggedUser,
			outcome:         execshell.CommandOutcome{Output: "auditor", Succeeded: true},
			expectedReading: probe.Reading{Value: "auditor", Available: true},
		},
		{
			name:            "hostname",
			read:            func(commandProbe *probe.CommandProbe) probe.Reading { return commandProbe.Hostname(context.Background()) },
			expectedScript:  "hostname",
			outcome:         execshell.CommandOutcome{Output: "workstation", Succeeded: true},
			expectedReading: probe.Reading{Value: "workstation", Available: true},
		},
		{
			name:            "task_count",
			read:            func(commandProbe *probe.CommandProbe) probe.Reading { return commandProbe.TaskCount(context.Background()) },
			expectedScript:  defaults.TaskCount,
			outcome:         execshell.CommandOutcome{Output: "312", Succeeded: true},
			expectedReading: probe.Reading{Value: "312", Available: true},
		},
		{
			name:            "cpu_model",
			read:            func(commandProbe *probe.CommandProbe) probe.Reading { return commandProbe.CPUModel(context.Background()) },
			expectedScript:  defaults.CPUModel,
			outcome:         execshell.CommandOutcome{Output: "AMD Ryzen 7 5800X 8-Core Processor", Succeeded: true},
			expectedReading: probe.Reading{Value: "AMD Ryzen 7 5800X 8-Core Processor", Available: true},
		},
		{
			name:            "memory_summary",
			read:            func(commandProbe *probe.CommandProbe) probe.Reading { return commandProbe.MemorySummary(context.Background()) },
			expectedScript:  "free -h",
			outcome:         execshell.CommandOutcome{Output: "Mem: 15Gi", Succeeded: true},
			expectedReading: probe.Reading{Value: "Mem: 15Gi", Available: true},
		},
		{
			name:            "disk_usage",
			read:            func(commandProbe *probe.CommandProbe) probe.Reading { return commandProbe.DiskUsage(context.Background()) },
			expectedScript:  "df -h /",
			outcome:         execshell.CommandOutcome{Output: "/dev/sda1 100G", Succeeded: true},
			expectedReading: probe.Reading{Value: "/dev/sda1 100G", Available: true},
		},
		{
			name:            "network_interfaces_missing_binary",
			read:            func(commandProbe *probe.CommandProbe) probe.Reading { return commandProbe.NetworkInterfaces(context.Background()) },
			expectedScript:  "ifconfig",
			outcome:         execshell.CommandOutcome{Output: "", ExitCode: 127},
			expectedReading: probe.Reading{Value: "", Available: false},
		},
		{
			name:            "network_counters",
			read:            func(commandProbe *probe.CommandProbe) probe.Reading { return commandProbe.NetworkCounters(context.Background()) },
			expectedScript:  "cat /proc/net/dev",
			outcome:         execshell.CommandOutcome{Output: "eth0: 100 200", Succeeded: true},
			expectedReading: probe.Reading{Value: "eth0: 100 200", Available: true},
		},
		{
			name:            "thermal_timeout",
			read:            func(commandProbe *probe.CommandProbe) probe.Reading { return commandProbe.Thermal(context.Background()) },
			expectedScript:  defaults.Thermal,
			outcome:         execshell.CommandOutcome{Output: execshell.TimedOutOutputConstant, ExitCode: -1},
			expectedReading: probe.Reading{Value: execshell.TimedOutOutputConstant, Available: false},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			runner := &stubShellRunner{outcomes: map[string]execshell.CommandOutcome{testCase.expectedScript: testCase.outcome}}
			commandProbe, creationError := probe.NewCommandProbe(runner, probe.Commands{}, "/srv/monitor")
			require.NoError(testInstance, creationError)

			reading := testCase.read(commandProbe)
			require.Equal(testInstance, testCase.expectedReading, reading)
			require.Equal(testInstance, []string{testCase.expectedScript}, runner.recordedScripts)
			require.Equal(testInstance, "/srv/monitor", runner.recordedDirectory)
		})
	}
}

func TestCommandProbeHonorsOverrides(testInstance *testing.T) {
	runner := &stubShellRunner{outcomes: map[string]execshell.CommandOutcome{
		"sysctl -n kern.ostype": {Output: "Darwin", Succeeded: true},
	}}
	commandProbe, creationError := probe.NewCommandProbe(runner, probe.Commands{OperatingSystemName: "sysctl -n kern.ostype"}, "")
	require.NoError(testInstance, creationError)

	require.Equal(testInstance, probe.Reading{Value: "Darwin", Available: true}, commandProbe.OperatingSystemName(context.Background()))
}

func TestCommandsWithDefaults(testInstance *testing.T) {
	commands := probe.Commands{Hostname: "cat /etc/hostname", Thermal: "   "}.WithDefaults()

	expected := probe.DefaultCommands()
	expected.Hostname = "cat /etc/hostname"
	require.Equal(testInstance, expected, commands)
}

func TestNewCommandProbeRequiresRunner(testInstance *testing.T) {
	commandProbe, creationError := probe.NewCommandProbe(nil, probe.Commands{}, "")
	require.ErrorIs(testInstance, creationError, probe.ErrShellRunnerNotConfigured)
	require.Nil(testInstance, commandProbe)
}

func TestValidateSource(testInstance *testing.T) {
	require.NoError(testInstance, probe.ValidateSource("commands"))
	require.NoError(testInstance, probe.ValidateSource(" Native "))
	require.Error(testInstance, probe.ValidateSource("sysfs"))
}
