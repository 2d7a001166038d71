package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

const (
	summaryHeaderConstant               = "Audit summary"
	summaryLaunchTemplateConstant       = "  Application launch: %s\n"
	summaryCountsTemplateConstant       = "  Automated checks:   %s  %s  %s\n"
	summaryReportTemplateConstant       = "  Report:             %s\n"
	summaryLogTemplateConstant          = "  Log:                %s\n"
	summaryPassedTemplateConstant       = "%d passed"
	summaryFailedTemplateConstant       = "%d failed"
	summaryManualTemplateConstant       = "%d need manual check"
	summaryLaunchPassedConstant         = "PASS"
	summaryLaunchFailedConstant         = "FAIL"
	summaryLaunchSkippedConstant        = "SKIPPED"
	summaryWriterMissingMessageConstant = "summary writer not configured"
)

// ErrSummaryWriterNotConfigured indicates the printer was built without a destination.
var ErrSummaryWriterNotConfigured = errors.New(summaryWriterMissingMessageConstant)

// LaunchStatus describes how the application launch check ended.
type LaunchStatus int

// Launch statuses rendered by the summary printer.
const (
	LaunchStatusPassed LaunchStatus = iota
	LaunchStatusFailed
	LaunchStatusSkipped
)

// RunSummary aggregates the outcome counts of one audit run.
type RunSummary struct {
	Passed     int
	Failed     int
	Manual     int
	Launch     LaunchStatus
	ReportPath string
	LogPath    string
}

// SummaryPrinter writes a colored RunSummary to a terminal.
type SummaryPrinter struct {
	writer       io.Writer
	headerColor  *color.Color
	passColor    *color.Color
	failColor    *color.Color
	manualColor  *color.Color
	skippedColor *color.Color
}

// NewSummaryPrinter constructs a printer targeting writer. Colors are disabled when colorEnabled is false.
func NewSummaryPrinter(writer io.Writer, colorEnabled bool) *SummaryPrinter {
	printer := &SummaryPrinter{
		writer:       writer,
		headerColor:  color.New(color.Bold),
		passColor:    color.New(color.FgGreen, color.Bold),
		failColor:    color.New(color.FgRed, color.Bold),
		manualColor:  color.New(color.FgYellow),
		skippedColor: color.New(color.FgCyan),
	}
	palette := []*color.Color{printer.headerColor, printer.passColor, printer.failColor, printer.manualColor, printer.skippedColor}
	for _, paletteColor := range palette {
		if colorEnabled {
			paletteColor.EnableColor()
		} else {
			paletteColor.DisableColor()
		}
	}
	return printer
}

// Print renders summary.
func (printer *SummaryPrinter) Print(summary RunSummary) error {
	if printer == nil || printer.writer == nil {
		return ErrSummaryWriterNotConfigured
	}

	if _, writeError := printer.headerColor.Fprintln(printer.writer, summaryHeaderConstant); writeError != nil {
		return writeError
	}

	if _, writeError := fmt.Fprintf(printer.writer, summaryLaunchTemplateConstant, printer.renderLaunch(summary.Launch)); writeError != nil {
		return writeError
	}

	passedText := printer.passColor.Sprintf(summaryPassedTemplateConstant, summary.Passed)
	failedText := fmt.Sprintf(summaryFailedTemplateConstant, summary.Failed)
	if summary.Failed > 0 {
		failedText = printer.failColor.Sprint(failedText)
	}
	manualText := printer.manualColor.Sprintf(summaryManualTemplateConstant, summary.Manual)
	if _, writeError := fmt.Fprintf(printer.writer, summaryCountsTemplateConstant, passedText, failedText, manualText); writeError != nil {
		return writeError
	}

	if _, writeError := fmt.Fprintf(printer.writer, summaryReportTemplateConstant, summary.ReportPath); writeError != nil {
		return writeError
	}
	if len(summary.LogPath) > 0 {
		if _, writeError := fmt.Fprintf(printer.writer, summaryLogTemplateConstant, summary.LogPath); writeError != nil {
			return writeError
		}
	}
	return nil
}

func (printer *SummaryPrinter) renderLaunch(status LaunchStatus) string {
	switch status {
	case LaunchStatusPassed:
		return printer.passColor.Sprint(summaryLaunchPassedConstant)
	case LaunchStatusFailed:
		return printer.failColor.Sprint(summaryLaunchFailedConstant)
	case LaunchStatusSkipped:
		return printer.skippedColor.Sprint(summaryLaunchSkippedConstant)
	default:
		return printer.failColor.Sprint(summaryLaunchFailedConstant)
	}
}
