package ui_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/monaudit/internal/ui"
)

func TestSummaryPrinterRendersPlainSummary(testInstance *testing.T) {
	testCases := []struct {
		name           string
		summary        ui.RunSummary
		expectedOutput string
	}{
		{
			name: "launch_passed_with_log",
			summary: ui.RunSummary{
				Passed:     2,
				Failed:     0,
				Manual:     9,
				Launch:     ui.LaunchStatusPassed,
				ReportPath: "audit_test_report.md",
				LogPath:    "audit_test_log.txt",
			},
			expectedOutput: "Audit summary\n" +
				"  Application launch: PASS\n" +
				"  Automated checks:   2 passed  0 failed  9 need manual check\n" +
				"  Report:             audit_test_report.md\n" +
				"  Log:                audit_test_log.txt\n",
		},
		{
			name: "launch_failed_without_log",
			summary: ui.RunSummary{
				Failed:     2,
				Manual:     9,
				Launch:     ui.LaunchStatusFailed,
				ReportPath: "report.md",
			},
			expectedOutput: "Audit summary\n" +
				"  Application launch: FAIL\n" +
				"  Automated checks:   0 passed  2 failed  9 need manual check\n" +
				"  Report:             report.md\n",
		},
		{
			name:    "launch_skipped",
			summary: ui.RunSummary{Launch: ui.LaunchStatusSkipped, ReportPath: "report.md"},
			expectedOutput: "Audit summary\n" +
				"  Application launch: SKIPPED\n" +
				"  Automated checks:   0 passed  0 failed  0 need manual check\n" +
				"  Report:             report.md\n",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			outputBuffer := &bytes.Buffer{}
			printer := ui.NewSummaryPrinter(outputBuffer, false)
			require.NoError(testInstance, printer.Print(testCase.summary))
			require.Equal(testInstance, testCase.expectedOutput, outputBuffer.String())
		})
	}
}

func TestSummaryPrinterColorsFailures(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	printer := ui.NewSummaryPrinter(outputBuffer, true)
	require.NoError(testInstance, printer.Print(ui.RunSummary{Failed: 1, Launch: ui.LaunchStatusFailed, ReportPath: "report.md"}))
	require.Contains(testInstance, outputBuffer.String(), "\x1b[31;1mFAIL")
}

func TestSummaryPrinterRequiresWriter(testInstance *testing.T) {
	printer := ui.NewSummaryPrinter(nil, false)
	require.ErrorIs(testInstance, printer.Print(ui.RunSummary{}), ui.ErrSummaryWriterNotConfigured)
}
