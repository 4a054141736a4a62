package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/optolab/ivctl/internal/calibration"
	"github.com/optolab/ivctl/internal/hardware"
	"github.com/optolab/ivctl/internal/runstate"
	"github.com/optolab/ivctl/pkg/domain"
	"github.com/optolab/ivctl/pkg/ports"
)

// Deps are the collaborators the action set operates on. Calibration and
// Sink are optional; the actions that need them fail with a clear error
// when unset.
type Deps struct {
	Run         *runstate.Manager
	SMU         *hardware.SMUClient
	Relays      *hardware.RelayClient
	Calibration *calibration.Module
	Sink        ports.ResultSink
	Logger      *slog.Logger
}

func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return &domain.ValidationError{StepIndex: -1, Reason: err.Error()}
	}
	return nil
}

type connectParams struct {
	Backend string `mapstructure:"backend"`
	Channel int    `mapstructure:"channel"`
	Address string `mapstructure:"address"`
}

type configureParams struct {
	Compliance      float64 `mapstructure:"compliance"`
	ComplianceType  string  `mapstructure:"compliance_type"`
	IntegrationTime float64 `mapstructure:"integration_time"`
}

type sweepParams struct {
	domain.SweepSpec `mapstructure:",squash"`

	// Irradiance reinterprets start/stop as optical irradiance targets,
	// converted to drive currents through the calibration curve.
	Irradiance bool `mapstructure:"irradiance"`
}

// BindActions registers the full action set on r. Action names follow the
// domain/verb convention checked by the loader.
func BindActions(r *Registry, d Deps) {
	r.Register("wait", func(ctx context.Context, params map[string]any) (any, error) {
		var p struct {
			Seconds float64 `mapstructure:"seconds"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Seconds < 0 {
			return nil, &domain.ValidationError{StepIndex: -1, Reason: "wait seconds must be non-negative"}
		}
		d.Run.Sleep(time.Duration(p.Seconds * float64(time.Second)))
		return nil, nil
	})

	r.Register("smu/connect", func(ctx context.Context, params map[string]any) (any, error) {
		p := connectParams{Backend: string(hardware.BackendMock), Channel: 1}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return d.SMU.Connect(ctx, hardware.Backend(p.Backend), p.Channel, p.Address)
	})

	r.Register("smu/disconnect", func(ctx context.Context, params map[string]any) (any, error) {
		return nil, d.SMU.Disconnect()
	})

	r.Register("smu/configure", func(ctx context.Context, params map[string]any) (any, error) {
		p := configureParams{ComplianceType: "CURR"}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		mode, err := parseSourceMode(p.ComplianceType)
		if err != nil {
			return nil, err
		}
		complianceType := "CURR"
		if mode == domain.SourceVoltage {
			complianceType = "VOLT"
		}
		return nil, d.SMU.Configure(p.Compliance, complianceType, p.IntegrationTime)
	})

	r.Register("smu/source-mode", func(ctx context.Context, params map[string]any) (any, error) {
		var p struct {
			Mode string `mapstructure:"mode"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		mode, err := parseSourceMode(p.Mode)
		if err != nil {
			return nil, err
		}
		return nil, d.SMU.SetSourceMode(mode)
	})

	r.Register("smu/set", func(ctx context.Context, params map[string]any) (any, error) {
		var p struct {
			Value float64 `mapstructure:"value"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return nil, d.SMU.SetValue(p.Value)
	})

	r.Register("smu/output", func(ctx context.Context, params map[string]any) (any, error) {
		var p struct {
			Enabled bool `mapstructure:"enabled"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return nil, d.SMU.SetOutput(p.Enabled)
	})

	r.Register("smu/measure", func(ctx context.Context, params map[string]any) (any, error) {
		return d.SMU.Measure()
	})

	r.Register("smu/sweep", func(ctx context.Context, params map[string]any) (any, error) {
		var p sweepParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		spec := p.SweepSpec
		if p.Irradiance {
			if d.Calibration == nil {
				return nil, errors.New("irradiance sweep requires a calibration curve")
			}
			start, err := d.Calibration.IrradianceToCurrent(spec.Start)
			if err != nil {
				return nil, err
			}
			stop, err := d.Calibration.IrradianceToCurrent(spec.Stop)
			if err != nil {
				return nil, err
			}
			spec.Start, spec.Stop = start, stop
			if err := d.SMU.SetSourceMode(domain.SourceCurrent); err != nil {
				return nil, err
			}
		}
		return d.SMU.Sweep(spec)
	})

	r.Register("smu/list-sweep", func(ctx context.Context, params map[string]any) (any, error) {
		var p struct {
			Values          []float64 `mapstructure:"values"`
			IntegrationTime float64   `mapstructure:"integration_time"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return d.SMU.ListSweep(p.Values, p.IntegrationTime)
	})

	r.Register("relays/connect", func(ctx context.Context, params map[string]any) (any, error) {
		p := connectParams{Backend: string(hardware.BackendMock)}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return d.Relays.Connect(ctx, hardware.Backend(p.Backend), p.Address)
	})

	r.Register("relays/disconnect", func(ctx context.Context, params map[string]any) (any, error) {
		return nil, d.Relays.Disconnect()
	})

	r.Register("relays/pixel", func(ctx context.Context, params map[string]any) (any, error) {
		var p struct {
			Pixel int `mapstructure:"pixel"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return nil, d.Relays.SelectPixel(p.Pixel)
	})

	r.Register("relays/led", func(ctx context.Context, params map[string]any) (any, error) {
		var p struct {
			Channel int `mapstructure:"channel"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return nil, d.Relays.SelectLED(p.Channel)
	})

	r.Register("relays/all-off", func(ctx context.Context, params map[string]any) (any, error) {
		return nil, d.Relays.AllOff()
	})

	r.Register("data/save", func(ctx context.Context, params map[string]any) (any, error) {
		if d.Sink == nil {
			return nil, errors.New("no result sink configured")
		}
		var p struct {
			Name string `mapstructure:"name"`
			Data any    `mapstructure:"data"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		result, ok := p.Data.(domain.SweepResult)
		if !ok {
			return nil, &domain.ValidationError{StepIndex: -1,
				Reason: fmt.Sprintf("data/save expects a sweep result, got %T", p.Data)}
		}
		if p.Name == "" {
			p.Name = "sweep"
		}
		path, err := d.Sink.Save(ctx, p.Name, result)
		if err != nil {
			return nil, err
		}
		d.Logger.Info("results saved", "name", p.Name, "path", path)
		return path, nil
	})
}

func parseSourceMode(s string) (domain.SourceMode, error) {
	switch strings.ToLower(s) {
	case "voltage", "volt", "v":
		return domain.SourceVoltage, nil
	case "current", "curr", "i":
		return domain.SourceCurrent, nil
	default:
		return "", &domain.ValidationError{StepIndex: -1, Reason: "unknown source mode: " + s}
	}
}
