package audit_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/monaudit/internal/audit"
	"github.com/temirov/monaudit/internal/probe"
)

type stubLaunchChecker struct {
	result audit.LaunchResult
	calls  int
}

func (checker *stubLaunchChecker) Run(context.Context) audit.LaunchResult {
	checker.calls++
	return checker.result
}

type capturingReportWriter struct {
	paths   []string
	reports []audit.Report
	err     error
}

func (writer *capturingReportWriter) write(reportPath string, report audit.Report) error {
	writer.paths = append(writer.paths, reportPath)
	writer.reports = append(writer.reports, report)
	return writer.err
}

func TestServiceRunSequencesSuite(testInstance *testing.T) {
	generatedAt := time.Date(2025, time.March, 4, 9, 5, 7, 0, time.UTC)
	testCases := []struct {
		name               string
		options            audit.RunOptions
		launchResult       audit.LaunchResult
		expectedLaunchRuns int
		expectedCategories []string
		expectSkipped      bool
	}{
		{
			name:               "all_categories_with_launch",
			options:            audit.RunOptions{ReportPath: "report.md"},
			launchResult:       audit.LaunchResult{Outcome: audit.OutcomePass},
			expectedLaunchRuns: 1,
			expectedCategories: []string{"system_info", "memory_info", "network_info", "thermal_info"},
		},
		{
			name:               "selected_categories_without_launch",
			options:            audit.RunOptions{ReportPath: "report.md", SkipLaunch: true, Categories: []string{"thermal_info", "system_info"}},
			launchResult:       audit.LaunchResult{Outcome: audit.OutcomePass},
			expectedCategories: []string{"system_info", "thermal_info"},
			expectSkipped:      true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			observedCore, observedLogs := observer.New(zapcore.InfoLevel)
			auditLogger := zap.New(observedCore)
			launchChecker := &stubLaunchChecker{result: testCase.launchResult}
			reportWriter := &capturingReportWriter{}
			categoryRunner := audit.NewCategoryRunner(newStubProbe(map[string]probe.Reading{"os": {Value: "Linux", Available: true}}), auditLogger, nil)

			service, creationError := audit.NewService(launchChecker, categoryRunner, auditLogger, nil, reportWriter.write, fixedClock{moment: generatedAt})
			require.NoError(testInstance, creationError)

			report, runError := service.Run(context.Background(), testCase.options)
			require.NoError(testInstance, runError)
			require.Equal(testInstance, testCase.expectedLaunchRuns, launchChecker.calls)
			require.Equal(testInstance, testCase.expectSkipped, report.Launch.Skipped)
			require.Equal(testInstance, generatedAt, report.GeneratedAt)
			require.Len(testInstance, report.Checklist, 9)

			categoryKeys := make([]string, 0, len(report.Categories))
			for _, category := range report.Categories {
				categoryKeys = append(categoryKeys, category.Key)
			}
			require.Equal(testInstance, testCase.expectedCategories, categoryKeys)

			require.Equal(testInstance, []string{"report.md"}, reportWriter.paths)
			require.Equal(testInstance, report, reportWriter.reports[0])

			allEntries := observedLogs.All()
			require.Equal(testInstance, "Starting comprehensive audit test suite...", allEntries[0].Message)
			require.Equal(testInstance, "Test suite completed. Check report.md for detailed results.", allEntries[len(allEntries)-1].Message)
		})
	}
}

func TestServiceRunReportsHarnessFailures(testInstance *testing.T) {
	categoryRunner := audit.NewCategoryRunner(newStubProbe(nil), nil, nil)

	failingWriter := &capturingReportWriter{err: errors.New("read-only file system")}
	service, creationError := audit.NewService(nil, categoryRunner, nil, nil, failingWriter.write, nil)
	require.NoError(testInstance, creationError)
	_, writeError := service.Run(context.Background(), audit.RunOptions{ReportPath: "report.md"})
	require.Error(testInstance, writeError)
	require.Contains(testInstance, writeError.Error(), "read-only file system")

	_, categoryError := service.Run(context.Background(), audit.RunOptions{ReportPath: "report.md", Categories: []string{"gpu_info"}})
	require.Error(testInstance, categoryError)

	_, missingRunnerError := audit.NewService(nil, nil, nil, nil, nil, nil)
	require.ErrorIs(testInstance, missingRunnerError, audit.ErrCategoryRunnerNotConfigured)
}

func TestServiceRunWritesReportForNonLinuxHost(testInstance *testing.T) {
	reportPath := filepath.Join(testInstance.TempDir(), "audit_test_report.md")
	stub := newStubProbe(map[string]probe.Reading{
		"os":      {Value: "Darwin", Available: true},
		"thermal": {Value: ""},
	})
	launchChecker := &stubLaunchChecker{result: audit.LaunchResult{Outcome: audit.OutcomeFail, Detail: "build failed: make: not found"}}

	service, creationError := audit.NewService(launchChecker, audit.NewCategoryRunner(stub, nil, nil), nil, nil, nil, nil)
	require.NoError(testInstance, creationError)

	report, runError := service.Run(context.Background(), audit.RunOptions{ReportPath: reportPath})
	require.NoError(testInstance, runError)

	passed, failed, manual := report.OutcomeCounts()
	require.Equal(testInstance, 0, passed)
	require.Equal(testInstance, 1, failed)
	require.Equal(testInstance, 10, manual)

	content, readError := os.ReadFile(reportPath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(content), "### Application Launch: ❌ FAIL")
	require.Contains(testInstance, string(content), "| os_name | Linux | ❌ FAIL | Operating system name should be Linux |")
	require.Contains(testInstance, string(content), "| thermal_info | Alternative thermal source needed | ❓ MANUAL |")
}
