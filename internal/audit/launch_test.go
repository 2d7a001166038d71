package audit_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/monaudit/internal/audit"
	"github.com/temirov/monaudit/internal/execshell"
)

const (
	testBuildCommandConstant  = "make clean && make"
	testBinaryPathConstant    = "./monitor"
	testBuildFailureConstant  = "make: *** No rule to make target 'clean'.  Stop."
	testLaunchHeaderConstant  = "=== Testing Application Launch ==="
	testLaunchSuccessConstant = "Application launched and terminated successfully"
)

func testApplicationConfiguration() audit.ApplicationConfiguration {
	return audit.ApplicationConfiguration{
		BuildCommand:     testBuildCommandConstant,
		BinaryPath:       testBinaryPathConstant,
		WorkingDirectory: ".",
		Dwell:            3 * time.Second,
		Grace:            50 * time.Millisecond,
	}
}

func TestLaunchTesterOutcomes(testInstance *testing.T) {
	testCases := []struct {
		name              string
		buildOutcome      execshell.CommandOutcome
		buildCommand      string
		process           func() *fakeProcess
		startError        error
		sleepError        error
		exitDuringDwell   bool
		expectedOutcome   audit.Outcome
		expectSpawn       bool
		expectedTerminate int
		expectedKill      int
		expectedMessages  []string
		detailContains    string
	}{
		{
			name:              "clean_launch_and_termination",
			buildOutcome:      execshell.CommandOutcome{Succeeded: true},
			buildCommand:      testBuildCommandConstant,
			process:           func() *fakeProcess { return newFakeProcess(true) },
			expectedOutcome:   audit.OutcomePass,
			expectSpawn:       true,
			expectedTerminate: 1,
			expectedMessages:  []string{testLaunchHeaderConstant, "Building application...", "Application built successfully", "Testing application launch...", testLaunchSuccessConstant},
			detailContains:    "terminated",
		},
		{
			name:             "build_failure_skips_spawn",
			buildOutcome:     execshell.CommandOutcome{Output: testBuildFailureConstant, ExitCode: 2},
			buildCommand:     testBuildCommandConstant,
			process:          func() *fakeProcess { return newFakeProcess(true) },
			expectedOutcome:  audit.OutcomeFail,
			expectedMessages: []string{testLaunchHeaderConstant, "Building application...", "Build failed: " + testBuildFailureConstant},
			detailContains:   testBuildFailureConstant,
		},
		{
			name:             "build_timeout_skips_spawn",
			buildOutcome:     execshell.CommandOutcome{Output: execshell.TimedOutOutputConstant, ExitCode: -1},
			buildCommand:     testBuildCommandConstant,
			process:          func() *fakeProcess { return newFakeProcess(true) },
			expectedOutcome:  audit.OutcomeFail,
			expectedMessages: []string{testLaunchHeaderConstant, "Building application...", "Build failed: Command timed out"},
			detailContains:   execshell.TimedOutOutputConstant,
		},
		{
			name:              "blank_build_command_uses_existing_binary",
			buildCommand:      "",
			process:           func() *fakeProcess { return newFakeProcess(true) },
			expectedOutcome:   audit.OutcomePass,
			expectSpawn:       true,
			expectedTerminate: 1,
			expectedMessages:  []string{testLaunchHeaderConstant, "No build command configured, using existing binary", "Testing application launch...", testLaunchSuccessConstant},
			detailContains:    "terminated",
		},
		{
			name:             "spawn_failure",
			buildOutcome:     execshell.CommandOutcome{Succeeded: true},
			buildCommand:     testBuildCommandConstant,
			process:          func() *fakeProcess { return nil },
			startError:       errors.New("fork/exec ./monitor: no such file or directory"),
			expectedOutcome:  audit.OutcomeFail,
			expectSpawn:      true,
			expectedMessages: []string{testLaunchHeaderConstant, "Building application...", "Application built successfully", "Testing application launch...", "Application launch failed: start application: fork/exec ./monitor: no such file or directory"},
			detailContains:   "no such file",
		},
		{
			name:             "exit_during_dwell",
			buildOutcome:     execshell.CommandOutcome{Succeeded: true},
			buildCommand:     testBuildCommandConstant,
			process:          func() *fakeProcess { return newFakeProcess(true) },
			exitDuringDwell:  true,
			expectedOutcome:  audit.OutcomeFail,
			expectSpawn:      true,
			expectedMessages: []string{testLaunchHeaderConstant, "Building application...", "Application built successfully", "Testing application launch...", "Application launch failed: application exited within 3s of launch"},
			detailContains:   "exited within 3s",
		},
		{
			name:              "grace_period_expires",
			buildOutcome:      execshell.CommandOutcome{Succeeded: true},
			buildCommand:      testBuildCommandConstant,
			process:           func() *fakeProcess { return newFakeProcess(false) },
			expectedOutcome:   audit.OutcomeFail,
			expectSpawn:       true,
			expectedTerminate: 1,
			expectedKill:      1,
			expectedMessages:  []string{testLaunchHeaderConstant, "Building application...", "Application built successfully", "Testing application launch...", "Application launch failed: application did not exit within 50ms of termination"},
			detailContains:    "did not exit",
		},
		{
			name:             "dwell_interrupted",
			buildOutcome:     execshell.CommandOutcome{Succeeded: true},
			buildCommand:     testBuildCommandConstant,
			process:          func() *fakeProcess { return newFakeProcess(true) },
			sleepError:       context.Canceled,
			expectedOutcome:  audit.OutcomeFail,
			expectSpawn:      true,
			expectedKill:     1,
			expectedMessages: []string{testLaunchHeaderConstant, "Building application...", "Application built successfully", "Testing application launch...", "Application launch failed: launch interrupted: context canceled"},
			detailContains:   "interrupted",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			observedCore, observedLogs := observer.New(zapcore.InfoLevel)
			buildRunner := &stubShellRunner{outcome: testCase.buildOutcome}
			process := testCase.process()
			starter := &fakeProcessStarter{process: process, startError: testCase.startError}
			sleeper := &recordingSleeper{sleepErr: testCase.sleepError}
			if testCase.exitDuringDwell {
				sleeper.onSleep = process.exit
			}

			configuration := testApplicationConfiguration()
			configuration.BuildCommand = testCase.buildCommand

			tester, creationError := audit.NewLaunchTester(buildRunner, starter, sleeper, zap.New(observedCore), nil, configuration)
			require.NoError(testInstance, creationError)

			result := tester.Run(context.Background())
			require.Equal(testInstance, testCase.expectedOutcome, result.Outcome)
			require.False(testInstance, result.Skipped)
			require.Contains(testInstance, result.Detail, testCase.detailContains)

			messages := make([]string, 0, observedLogs.Len())
			for _, entry := range observedLogs.All() {
				messages = append(messages, entry.Message)
			}
			require.Equal(testInstance, testCase.expectedMessages, messages)

			if len(testCase.buildCommand) > 0 {
				require.Equal(testInstance, []string{testCase.buildCommand}, buildRunner.scripts)
			} else {
				require.Empty(testInstance, buildRunner.scripts)
			}

			if !testCase.expectSpawn {
				require.Empty(testInstance, starter.specifications)
				require.Empty(testInstance, sleeper.durations)
				return
			}
			require.Len(testInstance, starter.specifications, 1)
			require.Equal(testInstance, testBinaryPathConstant, starter.specifications[0].BinaryPath)
			if process != nil {
				require.Equal(testInstance, []time.Duration{3 * time.Second}, sleeper.durations)
				require.Equal(testInstance, testCase.expectedTerminate, process.terminateCalls)
				require.Equal(testInstance, testCase.expectedKill, process.killCalls)
			}
		})
	}
}

func TestLaunchTesterTerminateErrorKillsProcess(testInstance *testing.T) {
	process := newFakeProcess(false)
	process.terminateError = errors.New("operation not permitted")
	tester, creationError := audit.NewLaunchTester(
		&stubShellRunner{outcome: execshell.CommandOutcome{Succeeded: true}},
		&fakeProcessStarter{process: process},
		&recordingSleeper{},
		nil,
		nil,
		testApplicationConfiguration(),
	)
	require.NoError(testInstance, creationError)

	result := tester.Run(context.Background())
	require.Equal(testInstance, audit.OutcomeFail, result.Outcome)
	require.Contains(testInstance, result.Detail, "operation not permitted")
	require.Equal(testInstance, 1, process.killCalls)
}

func TestNewLaunchTesterValidatesDependencies(testInstance *testing.T) {
	_, runnerError := audit.NewLaunchTester(nil, &fakeProcessStarter{}, nil, nil, nil, testApplicationConfiguration())
	require.ErrorIs(testInstance, runnerError, audit.ErrBuildRunnerNotConfigured)

	_, starterError := audit.NewLaunchTester(&stubShellRunner{}, nil, nil, nil, nil, testApplicationConfiguration())
	require.ErrorIs(testInstance, starterError, audit.ErrProcessStarterNotConfigured)
}

func TestSkippedLaunch(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)
	result := audit.SkippedLaunch(zap.New(observedCore))
	require.True(testInstance, result.Skipped)
	require.Equal(testInstance, audit.OutcomeManualCheckRequired, result.Outcome)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Skipping application launch test").Len())
}

func TestContextSleeperHonorsCancellation(testInstance *testing.T) {
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(testInstance, audit.ContextSleeper{}.Sleep(cancelledContext, time.Minute), context.Canceled)
	require.NoError(testInstance, audit.ContextSleeper{}.Sleep(context.Background(), time.Millisecond))
}

func TestLaunchTesterWithRealProcesses(testInstance *testing.T) {
	defer goleak.VerifyNone(testInstance)

	testCases := []struct {
		name            string
		binaryPath      string
		arguments       []string
		expectedOutcome audit.Outcome
		detailContains  string
	}{
		{name: "terminates_on_sigterm", binaryPath: "sleep", arguments: []string{"5"}, expectedOutcome: audit.OutcomePass, detailContains: "terminated"},
		{name: "ignores_sigterm", binaryPath: "sh", arguments: []string{"-c", "trap '' TERM; sleep 5 & wait"}, expectedOutcome: audit.OutcomeFail, detailContains: "did not exit"},
		{name: "exits_immediately", binaryPath: "true", expectedOutcome: audit.OutcomeFail, detailContains: "exited within"},
		{name: "missing_binary", binaryPath: "./definitely-not-a-monitor-binary", expectedOutcome: audit.OutcomeFail, detailContains: "start application"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			configuration := audit.ApplicationConfiguration{
				BinaryPath:       testCase.binaryPath,
				Arguments:        testCase.arguments,
				WorkingDirectory: testInstance.TempDir(),
				Dwell:            300 * time.Millisecond,
				Grace:            300 * time.Millisecond,
			}
			tester, creationError := audit.NewLaunchTester(&stubShellRunner{}, audit.NewOSProcessStarter(), audit.ContextSleeper{}, nil, nil, configuration)
			require.NoError(testInstance, creationError)

			startedAt := time.Now()
			result := tester.Run(context.Background())
			require.Equal(testInstance, testCase.expectedOutcome, result.Outcome)
			require.Contains(testInstance, result.Detail, testCase.detailContains)
			require.Less(testInstance, time.Since(startedAt), 3*time.Second)
		})
	}
}
