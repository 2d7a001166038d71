package audit

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	suiteStartedMessageConstant          = "Starting comprehensive audit test suite..."
	suiteCompletedTemplateConstant       = "Test suite completed. Check %s for detailed results."
	reportWrittenMessageConstant         = "audit report written"
	logFieldReportConstant               = "report"
	logFieldPassedConstant               = "passed"
	logFieldFailedConstant               = "failed"
	logFieldManualConstant               = "manual"
	categoryRunnerMissingMessageConstant = "category runner not configured"
	reportWriteFailedTemplateConstant    = "write audit report: %w"
	categoryRunFailedTemplateConstant    = "run audit category: %w"
)

// ErrCategoryRunnerNotConfigured indicates the service was built without a category runner.
var ErrCategoryRunnerNotConfigured = errors.New(categoryRunnerMissingMessageConstant)

// LaunchChecker performs the application launch test.
type LaunchChecker interface {
	Run(executionContext context.Context) LaunchResult
}

// ReportWriter persists a finished report.
type ReportWriter func(reportPath string, report Report) error

// RunOptions selects what a single suite run does.
type RunOptions struct {
	ReportPath string
	Categories []string
	SkipLaunch bool
}

// Service runs the launch test, the selected categories, and writes the report.
type Service struct {
	launchChecker  LaunchChecker
	categoryRunner *CategoryRunner
	auditLogger    *zap.Logger
	diagnostics    *zap.Logger
	reportWriter   ReportWriter
	clock          Clock
}

// NewService constructs a Service. A nil launch checker is allowed when every run skips the launch test.
func NewService(launchChecker LaunchChecker, categoryRunner *CategoryRunner, auditLogger *zap.Logger, diagnostics *zap.Logger, reportWriter ReportWriter, clock Clock) (*Service, error) {
	if categoryRunner == nil {
		return nil, ErrCategoryRunnerNotConfigured
	}
	if auditLogger == nil {
		auditLogger = zap.NewNop()
	}
	if diagnostics == nil {
		diagnostics = zap.NewNop()
	}
	if reportWriter == nil {
		reportWriter = WriteReport
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		launchChecker:  launchChecker,
		categoryRunner: categoryRunner,
		auditLogger:    auditLogger,
		diagnostics:    diagnostics,
		reportWriter:   reportWriter,
		clock:          clock,
	}, nil
}

// Run executes the suite and returns the report it wrote. Test outcomes never produce errors;
// only an unknown category or a report that cannot be written does.
func (service *Service) Run(executionContext context.Context, options RunOptions) (Report, error) {
	service.auditLogger.Info(suiteStartedMessageConstant)

	report := Report{}
	if options.SkipLaunch || service.launchChecker == nil {
		report.Launch = SkippedLaunch(service.auditLogger)
	} else {
		report.Launch = service.launchChecker.Run(executionContext)
	}

	categoryKeys := CanonicalCategoryOrder(options.Categories)
	if len(categoryKeys) == 0 {
		categoryKeys = CategoryKeys()
	}
	for _, categoryKey := range categoryKeys {
		category, categoryError := service.categoryRunner.Run(executionContext, categoryKey)
		if categoryError != nil {
			return Report{}, fmt.Errorf(categoryRunFailedTemplateConstant, categoryError)
		}
		report.Categories = append(report.Categories, category)
	}

	report.Checklist = ManualChecklist()
	report.GeneratedAt = service.clock.Now()

	if writeError := service.reportWriter(options.ReportPath, report); writeError != nil {
		return Report{}, fmt.Errorf(reportWriteFailedTemplateConstant, writeError)
	}

	passed, failed, manual := report.OutcomeCounts()
	service.diagnostics.Info(
		reportWrittenMessageConstant,
		zap.String(logFieldReportConstant, options.ReportPath),
		zap.Int(logFieldPassedConstant, passed),
		zap.Int(logFieldFailedConstant, failed),
		zap.Int(logFieldManualConstant, manual),
	)

	service.auditLogger.Info(fmt.Sprintf(suiteCompletedTemplateConstant, options.ReportPath))
	return report, nil
}
