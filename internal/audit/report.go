package audit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	reportTitleConstant                         = "# System Monitor Audit Test Report\n\n"
	reportGeneratedTemplateConstant             = "**Generated:** %s\n\n"
	reportTimestampLayoutConstant               = "2006-01-02 15:04:05"
	reportSummaryHeaderConstant                 = "## Executive Summary\n\n"
	reportSummaryBodyConstant                   = "This report contains the results of comprehensive testing against the audit requirements.\n\n"
	reportAutomatedHeaderConstant               = "## Automated Test Results\n\n"
	reportLaunchTemplateConstant                = "### Application Launch: %s\n\n"
	reportCategoryTemplateConstant              = "### %s\n\n"
	reportTableHeaderConstant                   = "| Test | Expected | Status | Description |\n"
	reportTableSeparatorConstant                = "|------|----------|--------|-------------|\n"
	reportTableRowTemplateConstant              = "| %s | %s | %s | %s |\n"
	reportChecklistHeaderConstant               = "## Manual Test Checklist\n\n"
	reportChecklistIntroConstant                = "The following tests require manual verification by running the application:\n\n"
	reportChecklistCategoryTemplateConstant     = "### %s\n\n"
	reportChecklistTestTemplateConstant         = "**Test:** %s\n"
	reportChecklistInstructionsTemplateConstant = "**Instructions:** %s\n"
	reportChecklistResultConstant               = "**Result:** [ ] PASS [ ] FAIL\n\n"
	statusPassGlyphConstant                     = "✅ PASS"
	statusFailGlyphConstant                     = "❌ FAIL"
	statusManualGlyphConstant                   = "❓ MANUAL"
	statusSkippedGlyphConstant                  = "⏭️ SKIPPED"
	expectedCellLimitConstant                   = 50
	expectedCellEllipsisConstant                = "..."
	cellPipeConstant                            = "|"
	cellEscapedPipeConstant                     = `\|`
	cellSpaceConstant                           = " "
	reportTemporaryPatternConstant              = ".audit-report-*.tmp"
	reportDirectoryErrorTemplateConstant        = "create report directory: %w"
	reportTemporaryErrorTemplateConstant        = "create temporary report: %w"
	reportWriteErrorTemplateConstant            = "write report: %w"
	reportRenameErrorTemplateConstant           = "replace report %s: %w"
	reportPathMissingMessageConstant            = "report path not configured"
	reportFilePermissionsConstant               = 0o644
	reportDirectoryPermissionsConstant          = 0o755
)

// ErrReportPathNotConfigured indicates WriteReport received an empty path.
var ErrReportPathNotConfigured = errors.New(reportPathMissingMessageConstant)

var cellLineBreakReplacer = strings.NewReplacer("\r\n", cellSpaceConstant, "\n", cellSpaceConstant, "\r", cellSpaceConstant, cellPipeConstant, cellEscapedPipeConstant)

// RenderReport writes the markdown report to writer.
func RenderReport(writer io.Writer, report Report) error {
	builder := &strings.Builder{}
	builder.WriteString(reportTitleConstant)
	fmt.Fprintf(builder, reportGeneratedTemplateConstant, report.GeneratedAt.Format(reportTimestampLayoutConstant))
	builder.WriteString(reportSummaryHeaderConstant)
	builder.WriteString(reportSummaryBodyConstant)
	builder.WriteString(reportAutomatedHeaderConstant)

	fmt.Fprintf(builder, reportLaunchTemplateConstant, launchGlyph(report.Launch))
	for _, category := range report.Categories {
		fmt.Fprintf(builder, reportCategoryTemplateConstant, category.Title())
		builder.WriteString(reportTableHeaderConstant)
		builder.WriteString(reportTableSeparatorConstant)
		for _, result := range category.Results {
			fmt.Fprintf(builder, reportTableRowTemplateConstant, result.Name, FormatExpectedCell(result.Expected), OutcomeGlyph(result.Outcome), result.Description)
		}
		builder.WriteString("\n")
	}

	builder.WriteString(reportChecklistHeaderConstant)
	builder.WriteString(reportChecklistIntroConstant)
	renderChecklistEntries(builder, report.Checklist)

	_, writeError := io.WriteString(writer, builder.String())
	return writeError
}

// RenderChecklist writes only the checklist entries, grouped by category.
func RenderChecklist(writer io.Writer, entries []ChecklistEntry) error {
	builder := &strings.Builder{}
	renderChecklistEntries(builder, entries)
	_, writeError := io.WriteString(writer, builder.String())
	return writeError
}

// WriteReport replaces the file at reportPath with the rendered report.
// The content is written to a temporary file in the same directory and renamed into place.
func WriteReport(reportPath string, report Report) error {
	if len(strings.TrimSpace(reportPath)) == 0 {
		return ErrReportPathNotConfigured
	}

	reportDirectory := filepath.Dir(reportPath)
	if directoryError := os.MkdirAll(reportDirectory, reportDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(reportDirectoryErrorTemplateConstant, directoryError)
	}

	temporaryFile, temporaryError := os.CreateTemp(reportDirectory, reportTemporaryPatternConstant)
	if temporaryError != nil {
		return fmt.Errorf(reportTemporaryErrorTemplateConstant, temporaryError)
	}
	temporaryPath := temporaryFile.Name()
	cleanup := func() { _ = os.Remove(temporaryPath) }

	if renderError := RenderReport(temporaryFile, report); renderError != nil {
		_ = temporaryFile.Close()
		cleanup()
		return fmt.Errorf(reportWriteErrorTemplateConstant, renderError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		cleanup()
		return fmt.Errorf(reportWriteErrorTemplateConstant, closeError)
	}
	if chmodError := os.Chmod(temporaryPath, reportFilePermissionsConstant); chmodError != nil {
		cleanup()
		return fmt.Errorf(reportWriteErrorTemplateConstant, chmodError)
	}
	if renameError := os.Rename(temporaryPath, reportPath); renameError != nil {
		cleanup()
		return fmt.Errorf(reportRenameErrorTemplateConstant, reportPath, renameError)
	}
	return nil
}

// OutcomeGlyph renders an outcome for the report tables.
func OutcomeGlyph(outcome Outcome) string {
	switch outcome {
	case OutcomePass:
		return statusPassGlyphConstant
	case OutcomeFail:
		return statusFailGlyphConstant
	case OutcomeManualCheckRequired:
		return statusManualGlyphConstant
	default:
		return statusManualGlyphConstant
	}
}

// FormatExpectedCell truncates value to 50 characters plus an ellipsis and keeps it on one table row.
func FormatExpectedCell(value string) string {
	runes := []rune(value)
	if len(runes) > expectedCellLimitConstant {
		value = string(runes[:expectedCellLimitConstant]) + expectedCellEllipsisConstant
	}
	return cellLineBreakReplacer.Replace(value)
}

func launchGlyph(launch LaunchResult) string {
	if launch.Skipped {
		return statusSkippedGlyphConstant
	}
	if launch.Outcome == OutcomePass {
		return statusPassGlyphConstant
	}
	return statusFailGlyphConstant
}

func renderChecklistEntries(builder *strings.Builder, entries []ChecklistEntry) {
	currentCategory := ""
	for _, entry := range entries {
		if entry.Category != currentCategory {
			currentCategory = entry.Category
			fmt.Fprintf(builder, reportChecklistCategoryTemplateConstant, currentCategory)
		}
		fmt.Fprintf(builder, reportChecklistTestTemplateConstant, entry.Test)
		fmt.Fprintf(builder, reportChecklistInstructionsTemplateConstant, entry.Instructions)
		builder.WriteString(reportChecklistResultConstant)
	}
}
