package hardware

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/optolab/ivctl/internal/mockdev"
	"github.com/optolab/ivctl/pkg/domain"
	"github.com/optolab/ivctl/pkg/ports"
)

// smuBackend is the device side of the SMU client. Implementations are not
// safe for concurrent use; the client serializes access.
type smuBackend interface {
	connect(ctx context.Context, address string) error
	close() error
	configure(compliance float64, complianceType string, integrationTime float64) error
	setSourceMode(mode domain.SourceMode) error
	setValue(x float64) error
	setOutput(enabled bool) error
	// measure returns the instantaneous (voltage, current) pair.
	measure() (float64, float64, error)
}

// mockSMU drives the simulated LED. Sourcing a voltage solves the LED's IV
// relation for current and vice versa, so sweeps against the mock produce
// realistic diode curves.
type mockSMU struct {
	led    *mockdev.LED
	mode   domain.SourceMode
	value  float64
	output bool
}

func newMockSMU(led *mockdev.LED) *mockSMU {
	return &mockSMU{led: led, mode: domain.SourceVoltage}
}

func (m *mockSMU) connect(ctx context.Context, address string) error { return nil }

func (m *mockSMU) close() error {
	m.output = false
	m.led.ApplyVoltage(0)
	return nil
}

func (m *mockSMU) configure(compliance float64, complianceType string, integrationTime float64) error {
	if complianceType == "CURR" && compliance > 0 {
		m.led.MaxCurrent = compliance
	}
	return nil
}

func (m *mockSMU) setSourceMode(mode domain.SourceMode) error {
	m.mode = mode
	return nil
}

func (m *mockSMU) setValue(x float64) error {
	m.value = x
	if m.output {
		m.apply()
	}
	return nil
}

func (m *mockSMU) setOutput(enabled bool) error {
	m.output = enabled
	if enabled {
		m.apply()
	} else {
		m.led.ApplyVoltage(0)
	}
	return nil
}

func (m *mockSMU) apply() {
	if m.mode == domain.SourceCurrent {
		m.led.ApplyCurrent(m.value)
	} else {
		m.led.ApplyVoltage(m.value)
	}
}

func (m *mockSMU) measure() (float64, float64, error) {
	if !m.output {
		return 0, rand.NormFloat64() * 1e-10, nil
	}
	if m.mode == domain.SourceCurrent {
		v := m.led.ApplyCurrent(m.value)
		return v, m.value, nil
	}
	i := m.led.ApplyVoltage(m.value)
	return m.value + rand.NormFloat64()*1e-6, i, nil
}

// realSMU speaks SCPI over an injected transport. The command set matches
// the Keysight B290x family; integration time maps onto NPLC.
type realSMU struct {
	transport ports.Transport
	channel   int
}

func newRealSMU(transport ports.Transport, channel int) *realSMU {
	return &realSMU{transport: transport, channel: channel}
}

func (r *realSMU) connect(ctx context.Context, address string) error {
	if r.transport == nil {
		return errors.New("no instrument transport configured")
	}
	if err := r.transport.Open(ctx, address); err != nil {
		return err
	}
	idn, err := r.transport.Query(ctx, "*IDN?")
	if err != nil {
		return fmt.Errorf("identification query failed: %w", err)
	}
	if strings.TrimSpace(idn) == "" {
		return errors.New("instrument returned empty identification")
	}
	return r.transport.Send(ctx, "*RST")
}

func (r *realSMU) close() error {
	// Best effort: the client has already driven the output off.
	_ = r.transport.Send(context.Background(), ":OUTP OFF")
	return r.transport.Close()
}

func (r *realSMU) configure(compliance float64, complianceType string, integrationTime float64) error {
	ctx := context.Background()
	var cmd string
	if complianceType == "VOLT" {
		cmd = fmt.Sprintf(":SENS:VOLT:PROT %g", compliance)
	} else {
		cmd = fmt.Sprintf(":SENS:CURR:PROT %g", compliance)
	}
	if err := r.transport.Send(ctx, cmd); err != nil {
		return err
	}
	if integrationTime > 0 {
		return r.transport.Send(ctx, fmt.Sprintf(":SENS:CURR:NPLC %g", integrationTime))
	}
	return nil
}

func (r *realSMU) setSourceMode(mode domain.SourceMode) error {
	fn := "VOLT"
	if mode == domain.SourceCurrent {
		fn = "CURR"
	}
	return r.transport.Send(context.Background(), ":SOUR:FUNC "+fn)
}

func (r *realSMU) setValue(x float64) error {
	// The source function tracks the last setSourceMode; the instrument
	// rejects the command if it disagrees, surfacing as a transport error.
	return r.transport.Send(context.Background(), fmt.Sprintf(":SOUR:LEV %g", x))
}

func (r *realSMU) setOutput(enabled bool) error {
	state := "OFF"
	if enabled {
		state = "ON"
	}
	return r.transport.Send(context.Background(), ":OUTP "+state)
}

func (r *realSMU) measure() (float64, float64, error) {
	resp, err := r.transport.Query(context.Background(), ":READ?")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Split(strings.TrimSpace(resp), ",")
	if len(fields) < 2 {
		return 0, 0, &domain.DeviceFault{Device: "smu", Reason: "malformed reading: " + resp}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return 0, 0, &domain.DeviceFault{Device: "smu", Reason: "bad voltage field: " + fields[0]}
	}
	i, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return 0, 0, &domain.DeviceFault{Device: "smu", Reason: "bad current field: " + fields[1]}
	}
	return v, i, nil
}
