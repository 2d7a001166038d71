package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/sensors"
)

const (
	rootFilesystemPathConstant            = "/"
	memoryLineTemplateConstant            = "Mem: total %s, used %s, free %s, available %s"
	swapLineTemplateConstant              = "Swap: total %s, used %s, free %s"
	diskLineTemplateConstant              = "%s: size %s, used %s, available %s, use %.0f%%"
	interfaceLineTemplateConstant         = "%s: flags=%s mtu %d"
	interfaceHardwareTemplateConstant     = " ether %s"
	interfaceAddressTemplateConstant      = " inet %s"
	counterLineTemplateConstant           = "%s: RX %s (%d packets) TX %s (%d packets)"
	thermalLineTemplateConstant           = "%s: %.1f°C"
	interfaceFlagSeparatorConstant        = ","
	summaryLineSeparatorConstant          = "\n"
	errorValueTemplateConstant            = "Error: %v"
	cpuModelUnavailableMessageConstant    = "cpu model unavailable"
	temperatureUnavailableMessageConstant = "no temperature sensors reported"
)

// SystemStatistics is the subset of gopsutil consumed by NativeProbe.
type SystemStatistics interface {
	HostInfo(executionContext context.Context) (*host.InfoStat, error)
	Users(executionContext context.Context) ([]host.UserStat, error)
	CPUInfo(executionContext context.Context) ([]cpu.InfoStat, error)
	VirtualMemory(executionContext context.Context) (*mem.VirtualMemoryStat, error)
	SwapMemory(executionContext context.Context) (*mem.SwapMemoryStat, error)
	DiskUsage(executionContext context.Context, path string) (*disk.UsageStat, error)
	Interfaces(executionContext context.Context) (net.InterfaceStatList, error)
	IOCounters(executionContext context.Context) ([]net.IOCountersStat, error)
	Temperatures(executionContext context.Context) ([]sensors.TemperatureStat, error)
}

type gopsutilStatistics struct{}

func (gopsutilStatistics) HostInfo(executionContext context.Context) (*host.InfoStat, error) {
	return host.InfoWithContext(executionContext)
}

func (gopsutilStatistics) Users(executionContext context.Context) ([]host.UserStat, error) {
	return host.UsersWithContext(executionContext)
}

func (gopsutilStatistics) CPUInfo(executionContext context.Context) ([]cpu.InfoStat, error) {
	return cpu.InfoWithContext(executionContext)
}

func (gopsutilStatistics) VirtualMemory(executionContext context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(executionContext)
}

func (gopsutilStatistics) SwapMemory(executionContext context.Context) (*mem.SwapMemoryStat, error) {
	return mem.SwapMemoryWithContext(executionContext)
}

func (gopsutilStatistics) DiskUsage(executionContext context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(executionContext, path)
}

func (gopsutilStatistics) Interfaces(executionContext context.Context) (net.InterfaceStatList, error) {
	return net.InterfacesWithContext(executionContext)
}

func (gopsutilStatistics) IOCounters(executionContext context.Context) ([]net.IOCountersStat, error) {
	return net.IOCountersWithContext(executionContext, true)
}

func (gopsutilStatistics) Temperatures(executionContext context.Context) ([]sensors.TemperatureStat, error) {
	return sensors.TemperaturesWithContext(executionContext)
}

// NativeProbe produces readings from operating system APIs instead of shell commands.
type NativeProbe struct {
	statistics SystemStatistics
}

// NewNativeProbe constructs a NativeProbe backed by gopsutil.
func NewNativeProbe() *NativeProbe {
	return NewNativeProbeWithStatistics(gopsutilStatistics{})
}

// NewNativeProbeWithStatistics constructs a NativeProbe over a custom statistics source.
func NewNativeProbeWithStatistics(statistics SystemStatistics) *NativeProbe {
	if statistics == nil {
		statistics = gopsutilStatistics{}
	}
	return &NativeProbe{statistics: statistics}
}

// OperatingSystemName reports the kernel family capitalized the way uname prints it.
func (nativeProbe *NativeProbe) OperatingSystemName(executionContext context.Context) Reading {
	hostInfo, infoError := nativeProbe.statistics.HostInfo(executionContext)
	if infoError != nil {
		return errorReading(infoError)
	}
	return availableReading(capitalize(hostInfo.OS))
}

// LoggedUser reports the first logged-in user, or an empty value when nobody is logged in.
func (nativeProbe *NativeProbe) LoggedUser(executionContext context.Context) Reading {
	users, usersError := nativeProbe.statistics.Users(executionContext)
	if usersError != nil {
		return errorReading(usersError)
	}
	if len(users) == 0 {
		return availableReading("")
	}
	return availableReading(users[0].User)
}

// Hostname reports the host name.
func (nativeProbe *NativeProbe) Hostname(executionContext context.Context) Reading {
	hostInfo, infoError := nativeProbe.statistics.HostInfo(executionContext)
	if infoError != nil {
		return errorReading(infoError)
	}
	return availableReading(hostInfo.Hostname)
}

// TaskCount reports the number of processes.
func (nativeProbe *NativeProbe) TaskCount(executionContext context.Context) Reading {
	hostInfo, infoError := nativeProbe.statistics.HostInfo(executionContext)
	if infoError != nil {
		return errorReading(infoError)
	}
	return availableReading(strconv.FormatUint(hostInfo.Procs, 10))
}

// CPUModel reports the model name of the first CPU.
func (nativeProbe *NativeProbe) CPUModel(executionContext context.Context) Reading {
	cpuInfo, infoError := nativeProbe.statistics.CPUInfo(executionContext)
	if infoError != nil {
		return errorReading(infoError)
	}
	for _, cpuEntry := range cpuInfo {
		modelName := strings.Join(strings.Fields(cpuEntry.ModelName), " ")
		if len(modelName) > 0 {
			return availableReading(modelName)
		}
	}
	return Reading{Value: cpuModelUnavailableMessageConstant}
}

// MemorySummary reports RAM and swap usage with IEC byte units.
func (nativeProbe *NativeProbe) MemorySummary(executionContext context.Context) Reading {
	virtualMemory, virtualError := nativeProbe.statistics.VirtualMemory(executionContext)
	if virtualError != nil {
		return errorReading(virtualError)
	}
	swapMemory, swapError := nativeProbe.statistics.SwapMemory(executionContext)
	if swapError != nil {
		return errorReading(swapError)
	}

	memoryLine := fmt.Sprintf(memoryLineTemplateConstant,
		humanize.IBytes(virtualMemory.Total),
		humanize.IBytes(virtualMemory.Used),
		humanize.IBytes(virtualMemory.Free),
		humanize.IBytes(virtualMemory.Available),
	)
	swapLine := fmt.Sprintf(swapLineTemplateConstant,
		humanize.IBytes(swapMemory.Total),
		humanize.IBytes(swapMemory.Used),
		humanize.IBytes(swapMemory.Free),
	)
	return availableReading(memoryLine + summaryLineSeparatorConstant + swapLine)
}

// DiskUsage reports usage of the root filesystem.
func (nativeProbe *NativeProbe) DiskUsage(executionContext context.Context) Reading {
	usage, usageError := nativeProbe.statistics.DiskUsage(executionContext, rootFilesystemPathConstant)
	if usageError != nil {
		return errorReading(usageError)
	}
	return availableReading(fmt.Sprintf(diskLineTemplateConstant,
		usage.Path,
		humanize.IBytes(usage.Total),
		humanize.IBytes(usage.Used),
		humanize.IBytes(usage.Free),
		usage.UsedPercent,
	))
}

// NetworkInterfaces lists every interface with its flags and addresses, one per line.
func (nativeProbe *NativeProbe) NetworkInterfaces(executionContext context.Context) Reading {
	interfaces, interfacesError := nativeProbe.statistics.Interfaces(executionContext)
	if interfacesError != nil {
		return errorReading(interfacesError)
	}

	lines := make([]string, 0, len(interfaces))
	for _, networkInterface := range interfaces {
		var lineBuilder strings.Builder
		fmt.Fprintf(&lineBuilder, interfaceLineTemplateConstant,
			networkInterface.Name,
			strings.Join(networkInterface.Flags, interfaceFlagSeparatorConstant),
			networkInterface.MTU,
		)
		if len(networkInterface.HardwareAddr) > 0 {
			fmt.Fprintf(&lineBuilder, interfaceHardwareTemplateConstant, networkInterface.HardwareAddr)
		}
		for _, address := range networkInterface.Addrs {
			fmt.Fprintf(&lineBuilder, interfaceAddressTemplateConstant, address.Addr)
		}
		lines = append(lines, lineBuilder.String())
	}
	return availableReading(strings.Join(lines, summaryLineSeparatorConstant))
}

// NetworkCounters reports per-interface receive and transmit totals, one per line.
func (nativeProbe *NativeProbe) NetworkCounters(executionContext context.Context) Reading {
	counters, countersError := nativeProbe.statistics.IOCounters(executionContext)
	if countersError != nil {
		return errorReading(countersError)
	}

	lines := make([]string, 0, len(counters))
	for _, counter := range counters {
		lines = append(lines, fmt.Sprintf(counterLineTemplateConstant,
			counter.Name,
			humanize.IBytes(counter.BytesRecv),
			counter.PacketsRecv,
			humanize.IBytes(counter.BytesSent),
			counter.PacketsSent,
		))
	}
	return availableReading(strings.Join(lines, summaryLineSeparatorConstant))
}

// Thermal reports the first sensor with a positive temperature. Partial sensor
// failures are tolerated as long as one reading is usable.
func (nativeProbe *NativeProbe) Thermal(executionContext context.Context) Reading {
	temperatures, temperaturesError := nativeProbe.statistics.Temperatures(executionContext)
	for _, temperature := range temperatures {
		if temperature.Temperature > 0 {
			return availableReading(fmt.Sprintf(thermalLineTemplateConstant, temperature.SensorKey, temperature.Temperature))
		}
	}
	if temperaturesError != nil {
		return errorReading(temperaturesError)
	}
	return Reading{Value: temperatureUnavailableMessageConstant}
}

func availableReading(value string) Reading {
	return Reading{Value: value, Available: true}
}

func errorReading(readError error) Reading {
	return Reading{Value: fmt.Sprintf(errorValueTemplateConstant, readError)}
}

func capitalize(value string) string {
	firstRune, runeSize := utf8.DecodeRuneInString(value)
	if firstRune == utf8.RuneError {
		return value
	}
	return string(unicode.ToUpper(firstRune)) + value[runeSize:]
}
