package audit

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/monaudit/internal/probe"
)

const (
	categoryHeaderTemplateConstant       = "=== Testing %s ==="
	systemInfoHeaderConstant             = "System Information"
	memoryInfoHeaderConstant             = "Memory Information"
	networkInfoHeaderConstant            = "Network Information"
	thermalInfoHeaderConstant            = "Thermal Information"
	expectedOperatingSystemConstant      = "Linux"
	manualActualPlaceholderConstant      = "Need to check in application"
	thermalUnavailableExpectedConstant   = "Alternative thermal source needed"
	testOperatingSystemMessageConstant   = "Testing OS name..."
	testLoggedUserMessageConstant        = "Testing logged user..."
	testHostnameMessageConstant          = "Testing hostname..."
	testTaskCountMessageConstant         = "Testing task count..."
	testCPUTypeMessageConstant           = "Testing CPU type..."
	testRAMMessageConstant               = "Testing RAM information..."
	testSwapMessageConstant              = "Testing SWAP information..."
	testDiskMessageConstant              = "Testing disk information..."
	testNetworkInterfacesMessageConstant = "Testing network interfaces..."
	testNetworkStatisticsMessageConstant = "Testing network statistics..."
	resultNameOperatingSystemConstant    = "os_name"
	resultNameLoggedUserConstant         = "logged_user"
	resultNameHostnameConstant           = "hostname"
	resultNameTaskCountConstant          = "task_count"
	resultNameCPUTypeConstant            = "cpu_type"
	resultNameRAMConstant                = "ram_info"
	resultNameSwapConstant               = "swap_info"
	resultNameDiskConstant               = "disk_info"
	resultNameNetworkInterfacesConstant  = "network_interfaces"
	resultNameNetworkStatisticsConstant  = "network_stats"
	resultNameThermalConstant            = "thermal_info"
	descriptionOperatingSystemConstant   = "Operating system name should be Linux"
	descriptionLoggedUserConstant        = "User should match 'who' command output"
	descriptionHostnameConstant          = "Hostname should match 'hostname' command output"
	descriptionTaskCountConstant         = "Total tasks should match 'top' command output"
	descriptionCPUTypeConstant           = "CPU type should match /proc/cpuinfo model name"
	descriptionRAMConstant               = "RAM usage should match 'free -h' output"
	descriptionSwapConstant              = "SWAP usage should match 'free -h' output"
	descriptionDiskConstant              = "Disk usage should match 'df -h /' output"
	descriptionNetworkInterfacesConstant = "Network interfaces should match 'ifconfig' output"
	descriptionNetworkStatisticsConstant = "Network RX/TX stats should match /proc/net/dev"
	descriptionThermalConstant           = "Temperature should match system thermal readings"
	logFieldCategoryConstant             = "category"
	logFieldResultConstant               = "result"
	logFieldAvailableConstant            = "available"
	readingCapturedMessageConstant       = "probe reading captured"
	unknownCategoryRunTemplateConstant   = "no checks registered for category %s"
)

// CategoryRunner turns probe readings into categorized test results.
type CategoryRunner struct {
	probe       probe.Probe
	auditLogger *zap.Logger
	traceLogger *zap.Logger
}

// NewCategoryRunner constructs a CategoryRunner. Nil loggers are replaced with no-op loggers.
func NewCategoryRunner(source probe.Probe, auditLogger *zap.Logger, traceLogger *zap.Logger) *CategoryRunner {
	if auditLogger == nil {
		auditLogger = zap.NewNop()
	}
	if traceLogger == nil {
		traceLogger = zap.NewNop()
	}
	return &CategoryRunner{probe: source, auditLogger: auditLogger, traceLogger: traceLogger}
}

// Run executes the category identified by key.
func (runner *CategoryRunner) Run(executionContext context.Context, key string) (Category, error) {
	switch key {
	case CategorySystemInfo:
		return runner.SystemInfo(executionContext), nil
	case CategoryMemoryInfo:
		return runner.MemoryInfo(executionContext), nil
	case CategoryNetworkInfo:
		return runner.NetworkInfo(executionContext), nil
	case CategoryThermalInfo:
		return runner.ThermalInfo(executionContext), nil
	default:
		return Category{}, fmt.Errorf(unknownCategoryRunTemplateConstant, key)
	}
}

// SystemInfo checks the OS name, logged user, hostname, task count, and CPU model.
func (runner *CategoryRunner) SystemInfo(executionContext context.Context) Category {
	category := Category{Key: CategorySystemInfo}
	runner.announceCategory(systemInfoHeaderConstant)

	runner.auditLogger.Info(testOperatingSystemMessageConstant)
	operatingSystemReading := runner.capture(category.Key, resultNameOperatingSystemConstant, runner.probe.OperatingSystemName(executionContext))
	category.Results = append(category.Results, operatingSystemResult(operatingSystemReading))

	runner.auditLogger.Info(testLoggedUserMessageConstant)
	userReading := runner.capture(category.Key, resultNameLoggedUserConstant, runner.probe.LoggedUser(executionContext))
	category.Results = append(category.Results, manualResult(resultNameLoggedUserConstant, userReading.Value, descriptionLoggedUserConstant))

	runner.auditLogger.Info(testHostnameMessageConstant)
	hostnameReading := runner.capture(category.Key, resultNameHostnameConstant, runner.probe.Hostname(executionContext))
	category.Results = append(category.Results, manualResult(resultNameHostnameConstant, hostnameReading.Value, descriptionHostnameConstant))

	runner.auditLogger.Info(testTaskCountMessageConstant)
	taskReading := runner.capture(category.Key, resultNameTaskCountConstant, runner.probe.TaskCount(executionContext))
	category.Results = append(category.Results, manualResult(resultNameTaskCountConstant, taskReading.Value, descriptionTaskCountConstant))

	runner.auditLogger.Info(testCPUTypeMessageConstant)
	cpuReading := runner.capture(category.Key, resultNameCPUTypeConstant, runner.probe.CPUModel(executionContext))
	category.Results = append(category.Results, manualResult(resultNameCPUTypeConstant, cpuReading.Value, descriptionCPUTypeConstant))

	return category
}

// MemoryInfo checks RAM, swap, and root filesystem usage. RAM and swap share one reading.
func (runner *CategoryRunner) MemoryInfo(executionContext context.Context) Category {
	category := Category{Key: CategoryMemoryInfo}
	runner.announceCategory(memoryInfoHeaderConstant)

	runner.auditLogger.Info(testRAMMessageConstant)
	memoryReading := runner.capture(category.Key, resultNameRAMConstant, runner.probe.MemorySummary(executionContext))
	category.Results = append(category.Results, manualResult(resultNameRAMConstant, memoryReading.Value, descriptionRAMConstant))

	runner.auditLogger.Info(testSwapMessageConstant)
	category.Results = append(category.Results, manualResult(resultNameSwapConstant, memoryReading.Value, descriptionSwapConstant))

	runner.auditLogger.Info(testDiskMessageConstant)
	diskReading := runner.capture(category.Key, resultNameDiskConstant, runner.probe.DiskUsage(executionContext))
	category.Results = append(category.Results, manualResult(resultNameDiskConstant, diskReading.Value, descriptionDiskConstant))

	return category
}

// NetworkInfo checks interface configuration and device counters.
func (runner *CategoryRunner) NetworkInfo(executionContext context.Context) Category {
	category := Category{Key: CategoryNetworkInfo}
	runner.announceCategory(networkInfoHeaderConstant)

	runner.auditLogger.Info(testNetworkInterfacesMessageConstant)
	interfacesReading := runner.capture(category.Key, resultNameNetworkInterfacesConstant, runner.probe.NetworkInterfaces(executionContext))
	category.Results = append(category.Results, manualResult(resultNameNetworkInterfacesConstant, interfacesReading.Value, descriptionNetworkInterfacesConstant))

	runner.auditLogger.Info(testNetworkStatisticsMessageConstant)
	countersReading := runner.capture(category.Key, resultNameNetworkStatisticsConstant, runner.probe.NetworkCounters(executionContext))
	category.Results = append(category.Results, manualResult(resultNameNetworkStatisticsConstant, countersReading.Value, descriptionNetworkStatisticsConstant))

	return category
}

// ThermalInfo checks the thermal sensor. An unavailable sensor records a sentinel expectation.
func (runner *CategoryRunner) ThermalInfo(executionContext context.Context) Category {
	category := Category{Key: CategoryThermalInfo}
	runner.announceCategory(thermalInfoHeaderConstant)

	thermalReading := runner.capture(category.Key, resultNameThermalConstant, runner.probe.Thermal(executionContext))
	expected := thermalReading.Value
	if !thermalReading.Available {
		expected = thermalUnavailableExpectedConstant
	}
	category.Results = append(category.Results, manualResult(resultNameThermalConstant, expected, descriptionThermalConstant))

	return category
}

func (runner *CategoryRunner) announceCategory(header string) {
	runner.auditLogger.Info(fmt.Sprintf(categoryHeaderTemplateConstant, header))
}

func (runner *CategoryRunner) capture(categoryKey string, resultName string, reading probe.Reading) probe.Reading {
	runner.traceLogger.Debug(
		readingCapturedMessageConstant,
		zap.String(logFieldCategoryConstant, categoryKey),
		zap.String(logFieldResultConstant, resultName),
		zap.Bool(logFieldAvailableConstant, reading.Available),
	)
	return reading
}

func operatingSystemResult(reading probe.Reading) TestResult {
	outcome := OutcomeFail
	if strings.EqualFold(strings.TrimSpace(reading.Value), expectedOperatingSystemConstant) {
		outcome = OutcomePass
	}
	return TestResult{
		Name:        resultNameOperatingSystemConstant,
		Expected:    expectedOperatingSystemConstant,
		Actual:      reading.Value,
		Outcome:     outcome,
		Description: descriptionOperatingSystemConstant,
	}
}

func manualResult(name string, expected string, description string) TestResult {
	return TestResult{
		Name:        name,
		Expected:    expected,
		Actual:      manualActualPlaceholderConstant,
		Outcome:     OutcomeManualCheckRequired,
		Description: description,
	}
}
