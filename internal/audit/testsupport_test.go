package audit_test

import (
	"context"
	"sync"
	"time"

	"github.com/temirov/monaudit/internal/audit"
	"github.com/temirov/monaudit/internal/execshell"
	"github.com/temirov/monaudit/internal/probe"
)

const testSubtestNameTemplateConstant = "%d_%s"

type stubProbe struct {
	readings map[string]probe.Reading
	calls    []string
}

func newStubProbe(readings map[string]probe.Reading) *stubProbe {
	return &stubProbe{readings: readings}
}

func (stub *stubProbe) read(name string) probe.Reading {
	stub.calls = append(stub.calls, name)
	reading, found := stub.readings[name]
	if !found {
		return probe.Reading{Value: name + " value", Available: true}
	}
	return reading
}

func (stub *stubProbe) OperatingSystemName(context.Context) probe.Reading {
	return stub.read("os")
}

func (stub *stubProbe) LoggedUser(context.Context) probe.Reading {
	return stub.read("user")
}

func (stub *stubProbe) Hostname(context.Context) probe.Reading {
	return stub.read("hostname")
}

func (stub *stubProbe) TaskCount(context.Context) probe.Reading {
	return stub.read("tasks")
}

func (stub *stubProbe) CPUModel(context.Context) probe.Reading {
	return stub.read("cpu")
}

func (stub *stubProbe) MemorySummary(context.Context) probe.Reading {
	return stub.read("memory")
}

func (stub *stubProbe) DiskUsage(context.Context) probe.Reading {
	return stub.read("disk")
}

func (stub *stubProbe) NetworkInterfaces(context.Context) probe.Reading {
	return stub.read("interfaces")
}

func (stub *stubProbe) NetworkCounters(context.Context) probe.Reading {
	return stub.read("counters")
}

func (stub *stubProbe) Thermal(context.Context) probe.Reading {
	return stub.read("thermal")
}

type stubShellRunner struct {
	outcome execshell.CommandOutcome
	scripts []string
}

func (runner *stubShellRunner) RunShellCommand(_ context.Context, script string, _ string) execshell.CommandOutcome {
	runner.scripts = append(runner.scripts, script)
	return runner.outcome
}

type fakeProcess struct {
	mutex          sync.Mutex
	done           chan struct{}
	exitOnSignal   bool
	terminateError error
	terminateCalls int
	killCalls      int
}

func newFakeProcess(exitOnSignal bool) *fakeProcess {
	return &fakeProcess{done: make(chan struct{}), exitOnSignal: exitOnSignal}
}

func (process *fakeProcess) Terminate() error {
	process.mutex.Lock()
	defer process.mutex.Unlock()
	process.terminateCalls++
	if process.terminateError != nil {
		return process.terminateError
	}
	if process.exitOnSignal {
		process.closeLocked()
	}
	return nil
}

func (process *fakeProcess) Kill() error {
	process.mutex.Lock()
	defer process.mutex.Unlock()
	process.killCalls++
	process.closeLocked()
	return nil
}

func (process *fakeProcess) Done() <-chan struct{} {
	return process.done
}

func (process *fakeProcess) exit() {
	process.mutex.Lock()
	defer process.mutex.Unlock()
	process.closeLocked()
}

func (process *fakeProcess) closeLocked() {
	select {
	case <-process.done:
	default:
		close(process.done)
	}
}

type fakeProcessStarter struct {
	process        *fakeProcess
	startError     error
	specifications []audit.ProcessSpecification
}

func (starter *fakeProcessStarter) Start(specification audit.ProcessSpecification) (audit.RunningProcess, error) {
	starter.specifications = append(starter.specifications, specification)
	if starter.startError != nil {
		return nil, starter.startError
	}
	return starter.process, nil
}

type recordingSleeper struct {
	durations []time.Duration
	sleepErr  error
	onSleep   func()
}

func (sleeper *recordingSleeper) Sleep(_ context.Context, duration time.Duration) error {
	sleeper.durations = append(sleeper.durations, duration)
	if sleeper.onSleep != nil {
		sleeper.onSleep()
	}
	return sleeper.sleepErr
}

type fixedClock struct {
	moment time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.moment
}
