// Package validator lints protocol definitions beyond the loader's
// structural checks: device usage ordering, capture bookkeeping, and
// parameter sanity. Findings are advisory; a protocol with findings still
// loads, since some references are only resolvable at run time.
package validator

import (
	"fmt"
	"strings"

	"github.com/optolab/ivctl/pkg/domain"
)

// Finding is one advisory issue, tied to the step that raised it.
type Finding struct {
	StepIndex int
	Message   string
}

func (f Finding) String() string {
	return fmt.Sprintf("step %d: %s", f.StepIndex, f.Message)
}

// Lint walks the step sequence and reports likely mistakes.
func Lint(def *domain.ProtocolDefinition) []Finding {
	var findings []Finding
	report := func(i int, format string, args ...any) {
		findings = append(findings, Finding{StepIndex: i, Message: fmt.Sprintf(format, args...)})
	}

	smuConnected := false
	relaysConnected := false
	captured := make(map[string]int)

	for i, step := range def.Steps {
		switch {
		case step.Action == "smu/connect":
			smuConnected = true
		case step.Action == "smu/disconnect":
			if !smuConnected {
				report(i, "smu/disconnect without a prior smu/connect")
			}
			smuConnected = false
		case strings.HasPrefix(step.Action, "smu/"):
			if !smuConnected {
				report(i, "%s before smu/connect", step.Action)
			}
		case step.Action == "relays/connect":
			relaysConnected = true
		case step.Action == "relays/disconnect":
			if !relaysConnected {
				report(i, "relays/disconnect without a prior relays/connect")
			}
			relaysConnected = false
		case strings.HasPrefix(step.Action, "relays/"):
			if !relaysConnected {
				report(i, "%s before relays/connect", step.Action)
			}
		}

		for key, value := range step.Params {
			s, ok := value.(string)
			if !ok || !strings.HasPrefix(s, "$") {
				continue
			}
			name := strings.TrimPrefix(s, "$")
			if _, ok := captured[name]; !ok {
				report(i, "param %q references $%s, which no earlier step captures (initial parameter?)", key, name)
			}
		}

		checkParams(step, i, report)

		if step.CaptureAs != "" {
			if prev, ok := captured[step.CaptureAs]; ok {
				report(i, "capture %q overwrites the capture from step %d", step.CaptureAs, prev)
			}
			captured[step.CaptureAs] = i
		}
	}
	return findings
}

func checkParams(step domain.Step, i int, report func(int, string, ...any)) {
	switch step.Action {
	case "wait":
		if secs, ok := numberParam(step.Params, "seconds"); ok && secs < 0 {
			report(i, "wait with negative seconds")
		}
	case "smu/sweep":
		points, hasPoints := numberParam(step.Params, "points")
		stepSize, hasStep := numberParam(step.Params, "step")
		if (!hasPoints || points <= 0) && (!hasStep || stepSize <= 0) {
			report(i, "smu/sweep needs points >= 1 or a positive step")
		}
	}
}

func numberParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
