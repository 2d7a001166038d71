package audit_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/monaudit/internal/audit"
	"github.com/temirov/monaudit/internal/execshell"
	"github.com/temirov/monaudit/internal/probe"
)

const (
	testManualPlaceholderConstant = "Need to check in application"
	testThermalSentinelConstant   = "Alternative thermal source needed"
	testMemoryReadingConstant     = "Mem: 15Gi 6.0Gi\nSwap: 2.0Gi 0B"
	testSystemHeaderConstant      = "=== Testing System Information ==="
	testThermalHeaderConstant     = "=== Testing Thermal Information ==="
)

func TestCategoryRunnerOperatingSystemOutcome(testInstance *testing.T) {
	testCases := []struct {
		name            string
		reading         probe.Reading
		expectedOutcome audit.Outcome
	}{
		{name: "linux_passes", reading: probe.Reading{Value: "Linux", Available: true}, expectedOutcome: audit.OutcomePass},
		{name: "case_insensitive", reading: probe.Reading{Value: "linux", Available: true}, expectedOutcome: audit.OutcomePass},
		{name: "darwin_fails", reading: probe.Reading{Value: "Darwin", Available: true}, expectedOutcome: audit.OutcomeFail},
		{name: "timeout_fails", reading: probe.Reading{Value: execshell.TimedOutOutputConstant}, expectedOutcome: audit.OutcomeFail},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			runner := audit.NewCategoryRunner(newStubProbe(map[string]probe.Reading{"os": testCase.reading}), nil, nil)
			category := runner.SystemInfo(context.Background())

			result, found := category.Result("os_name")
			require.True(testInstance, found)
			require.Equal(testInstance, testCase.expectedOutcome, result.Outcome)
			require.Equal(testInstance, "Linux", result.Expected)
			require.Equal(testInstance, testCase.reading.Value, result.Actual)
			require.Equal(testInstance, "Operating system name should be Linux", result.Description)
		})
	}
}

func TestCategoryRunnerProducesManualResults(testInstance *testing.T) {
	testCases := []struct {
		name          string
		key           string
		expectedNames []string
	}{
		{name: "system", key: audit.CategorySystemInfo, expectedNames: []string{"os_name", "logged_user", "hostname", "task_count", "cpu_type"}},
		{name: "memory", key: audit.CategoryMemoryInfo, expectedNames: []string{"ram_info", "swap_info", "disk_info"}},
		{name: "network", key: audit.CategoryNetworkInfo, expectedNames: []string{"network_interfaces", "network_stats"}},
		{name: "thermal", key: audit.CategoryThermalInfo, expectedNames: []string{"thermal_info"}},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			runner := audit.NewCategoryRunner(newStubProbe(map[string]probe.Reading{"os": {Value: "Linux", Available: true}}), nil, nil)
			category, runError := runner.Run(context.Background(), testCase.key)
			require.NoError(testInstance, runError)
			require.Equal(testInstance, testCase.key, category.Key)

			names := make([]string, 0, len(category.Results))
			for _, result := range category.Results {
				names = append(names, result.Name)
				if result.Name == "os_name" {
					continue
				}
				require.Equal(testInstance, audit.OutcomeManualCheckRequired, result.Outcome)
				require.Equal(testInstance, testManualPlaceholderConstant, result.Actual)
				require.NotEmpty(testInstance, result.Description)
			}
			require.Equal(testInstance, testCase.expectedNames, names)
		})
	}
}

func TestCategoryRunnerSharesMemoryReading(testInstance *testing.T) {
	stub := newStubProbe(map[string]probe.Reading{"memory": {Value: testMemoryReadingConstant, Available: true}})
	category := audit.NewCategoryRunner(stub, nil, nil).MemoryInfo(context.Background())

	ramResult, ramFound := category.Result("ram_info")
	swapResult, swapFound := category.Result("swap_info")
	require.True(testInstance, ramFound)
	require.True(testInstance, swapFound)
	require.Equal(testInstance, testMemoryReadingConstant, ramResult.Expected)
	require.Equal(testInstance, testMemoryReadingConstant, swapResult.Expected)
	require.Equal(testInstance, []string{"memory", "disk"}, stub.calls)
}

func TestCategoryRunnerThermalExpectation(testInstance *testing.T) {
	testCases := []struct {
		name             string
		reading          probe.Reading
		expectedExpected string
	}{
		{name: "sensor_available", reading: probe.Reading{Value: "45000", Available: true}, expectedExpected: "45000"},
		{name: "sensor_missing", reading: probe.Reading{Value: ""}, expectedExpected: testThermalSentinelConstant},
		{name: "sensor_timed_out", reading: probe.Reading{Value: execshell.TimedOutOutputConstant}, expectedExpected: testThermalSentinelConstant},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			category := audit.NewCategoryRunner(newStubProbe(map[string]probe.Reading{"thermal": testCase.reading}), nil, nil).ThermalInfo(context.Background())
			result, found := category.Result("thermal_info")
			require.True(testInstance, found)
			require.Equal(testInstance, testCase.expectedExpected, result.Expected)
			require.Equal(testInstance, audit.OutcomeManualCheckRequired, result.Outcome)
		})
	}
}

func TestCategoryRunnerLogsProgress(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	runner := audit.NewCategoryRunner(newStubProbe(nil), zap.New(observedCore), nil)

	runner.SystemInfo(context.Background())
	runner.ThermalInfo(context.Background())

	messages := make([]string, 0, observedLogs.Len())
	for _, entry := range observedLogs.All() {
		messages = append(messages, entry.Message)
	}
	require.Equal(testInstance, []string{
		testSystemHeaderConstant,
		"Testing OS name...",
		"Testing logged user...",
		"Testing hostname...",
		"Testing task count...",
		"Testing CPU type...",
		testThermalHeaderConstant,
	}, messages)
}

func TestCategoryRunnerRejectsUnknownCategory(testInstance *testing.T) {
	_, runError := audit.NewCategoryRunner(newStubProbe(nil), nil, nil).Run(context.Background(), "gpu_info")
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "gpu_info")
}
