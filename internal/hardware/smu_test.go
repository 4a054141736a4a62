package hardware

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optolab/ivctl/internal/mockdev"
	"github.com/optolab/ivctl/internal/runstate"
	"github.com/optolab/ivctl/pkg/domain"
)

// fakeTransport records every command and answers queries from a canned
// table, standing in for a VISA or serial link.
type fakeTransport struct {
	sent    []string
	replies map[string]string
	open    bool
	openErr error
}

func (f *fakeTransport) Open(ctx context.Context, address string) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.open = true
	return nil
}

func (f *fakeTransport) Close() error {
	f.open = false
	return nil
}

func (f *fakeTransport) Send(ctx context.Context, cmd string) error {
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeTransport) Query(ctx context.Context, cmd string) (string, error) {
	f.sent = append(f.sent, cmd)
	if resp, ok := f.replies[cmd]; ok {
		return resp, nil
	}
	return "", fmt.Errorf("unexpected query %q", cmd)
}

func newTestSMU(t *testing.T) (*SMUClient, *runstate.Manager) {
	t.Helper()
	logger := slogt.New(t)
	run := runstate.NewManager(logger)
	return NewSMUClient(run, mockdev.NewLED(), logger), run
}

func TestSMUConnectMock(t *testing.T) {
	c, _ := newTestSMU(t)

	sess, err := c.Connect(context.Background(), BackendMock, 1, "")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, BackendMock, sess.Backend)
	assert.Equal(t, sess, c.Session())

	require.NoError(t, c.Disconnect())
	assert.Nil(t, c.Session())
}

func TestSMUConnectReplacesSession(t *testing.T) {
	c, _ := newTestSMU(t)

	first, err := c.Connect(context.Background(), BackendMock, 1, "")
	require.NoError(t, err)
	second, err := c.Connect(context.Background(), BackendMock, 1, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSMURequiresConnection(t *testing.T) {
	c, _ := newTestSMU(t)

	var connErr *domain.ConnectionError
	_, err := c.Measure()
	require.ErrorAs(t, err, &connErr)
	require.ErrorAs(t, c.Configure(0.1, "CURR", 0.02), &connErr)
	require.ErrorAs(t, c.SetValue(1.0), &connErr)
	require.ErrorAs(t, c.SetOutput(true), &connErr)
	_, err = c.ListSweep([]float64{0, 1}, 0)
	require.ErrorAs(t, err, &connErr)
}

func TestSMURealBackendNeedsTransport(t *testing.T) {
	c, _ := newTestSMU(t)

	_, err := c.Connect(context.Background(), BackendReal, 1, "TCPIP0::192.0.2.1::inst0::INSTR")
	var connErr *domain.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "smu", connErr.Device)
	assert.Nil(t, c.Session())
}

func TestSMUSweepMockDiodeCurve(t *testing.T) {
	c, _ := newTestSMU(t)
	_, err := c.Connect(context.Background(), BackendMock, 1, "")
	require.NoError(t, err)
	require.NoError(t, c.Configure(0.1, "CURR", 0))
	require.NoError(t, c.SetSourceMode(domain.SourceVoltage))

	result, err := c.Sweep(domain.SweepSpec{Start: 0, Stop: 8, Points: 41})
	require.NoError(t, err)
	assert.False(t, result.Aborted)
	require.Equal(t, 41, result.Points)
	require.Len(t, result.Results, 41)

	// Diode behavior: negligible current below turn-on, tens of mA at 8 V.
	assert.Less(t, result.Results[0].Current, 1e-8)
	last := result.Results[40].Current
	assert.Greater(t, last, 0.020)
	assert.Less(t, last, 0.035)
	for i := 1; i < len(result.Results); i++ {
		assert.GreaterOrEqual(t, result.Results[i].Current, result.Results[i-1].Current-1e-9)
	}

	// Output is driven off after the sweep; measurements read near zero.
	p, err := c.Measure()
	require.NoError(t, err)
	assert.InDelta(t, 0, p.Current, 1e-8)
}

func TestSMUListSweepAbortReturnsPartial(t *testing.T) {
	c, run := newTestSMU(t)
	_, err := c.Connect(context.Background(), BackendMock, 1, "")
	require.NoError(t, err)
	require.NoError(t, run.Arm())
	require.NoError(t, run.Start("abort-under-test"))

	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i) * 0.01
	}
	go func() {
		time.Sleep(25 * time.Millisecond)
		_ = run.Abort()
	}()

	result, err := c.ListSweep(values, 0.005)
	require.NoError(t, err)
	assert.True(t, result.Aborted)
	assert.Less(t, result.Points, len(values))
	assert.Len(t, result.Results, result.Points)

	// The abort hook safe-disconnects once the sweep releases the client.
	require.Eventually(t, func() bool { return c.Session() == nil },
		time.Second, 10*time.Millisecond)
}

func TestSMUListSweepRejectsEmptyList(t *testing.T) {
	c, _ := newTestSMU(t)
	_, err := c.Connect(context.Background(), BackendMock, 1, "")
	require.NoError(t, err)

	_, err = c.ListSweep(nil, 0)
	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestSMUOutputTracking(t *testing.T) {
	c, _ := newTestSMU(t)
	_, err := c.Connect(context.Background(), BackendMock, 1, "")
	require.NoError(t, err)
	assert.False(t, c.OutputOn())

	require.NoError(t, c.SetOutput(true))
	assert.True(t, c.OutputOn())

	// A sweep always leaves the output off, whatever state it started in.
	_, err = c.ListSweep([]float64{0, 0.5}, 0)
	require.NoError(t, err)
	assert.False(t, c.OutputOn())

	require.NoError(t, c.SetOutput(true))
	c.SafeShutdown()
	assert.False(t, c.OutputOn())
	assert.Nil(t, c.Session())
}

func TestSMUSourceModeValidation(t *testing.T) {
	c, _ := newTestSMU(t)
	_, err := c.Connect(context.Background(), BackendMock, 1, "")
	require.NoError(t, err)

	var valErr *domain.ValidationError
	require.ErrorAs(t, c.SetSourceMode(domain.SourceMode("power")), &valErr)
	require.NoError(t, c.SetSourceMode(domain.SourceCurrent))
}

func TestRealSMUSpeaksSCPI(t *testing.T) {
	ft := &fakeTransport{replies: map[string]string{
		"*IDN?":  "Keysight Technologies,B2902B,MY00000000,1.0",
		":READ?": "+1.500000E+00,+2.000000E-03",
	}}
	logger := slogt.New(t)
	run := runstate.NewManager(logger)
	c := NewSMUClient(run, mockdev.NewLED(), logger, WithSMUTransport(ft))

	_, err := c.Connect(context.Background(), BackendReal, 1, "TCPIP0::192.0.2.1::inst0::INSTR")
	require.NoError(t, err)
	require.NoError(t, c.Configure(0.1, "CURR", 1.0))
	require.NoError(t, c.SetSourceMode(domain.SourceVoltage))

	result, err := c.ListSweep([]float64{0.5, 1.5}, 0)
	require.NoError(t, err)
	require.Equal(t, 2, result.Points)
	assert.InDelta(t, 1.5, result.Results[0].Voltage, 1e-9)
	assert.InDelta(t, 2e-3, result.Results[0].Current, 1e-9)

	assert.Contains(t, ft.sent, "*RST")
	assert.Contains(t, ft.sent, ":SENS:CURR:PROT 0.1")
	assert.Contains(t, ft.sent, ":SENS:CURR:NPLC 1")
	assert.Contains(t, ft.sent, ":SOUR:FUNC VOLT")
	assert.Contains(t, ft.sent, ":SOUR:LEV 0.5")
	assert.Contains(t, ft.sent, ":OUTP ON")
	assert.Contains(t, ft.sent, ":OUTP OFF")
}

func TestRealSMUMalformedReading(t *testing.T) {
	ft := &fakeTransport{replies: map[string]string{
		"*IDN?":  "Keysight Technologies,B2902B,MY00000000,1.0",
		":READ?": "garbage",
	}}
	logger := slogt.New(t)
	run := runstate.NewManager(logger)
	c := NewSMUClient(run, mockdev.NewLED(), logger, WithSMUTransport(ft))

	_, err := c.Connect(context.Background(), BackendReal, 1, "TCPIP0::192.0.2.1::inst0::INSTR")
	require.NoError(t, err)

	_, err = c.Measure()
	var fault *domain.DeviceFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "smu", fault.Device)
}

func TestSMUConnectTimeout(t *testing.T) {
	ft := &fakeTransport{openErr: errors.New("link down")}
	logger := slogt.New(t)
	run := runstate.NewManager(logger)
	c := NewSMUClient(run, mockdev.NewLED(), logger,
		WithSMUTransport(ft), WithSMUConnectTimeout(50*time.Millisecond))

	_, err := c.Connect(context.Background(), BackendReal, 1, "ASRL3::INSTR")
	var connErr *domain.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.ErrorContains(t, err, "link down")
}
