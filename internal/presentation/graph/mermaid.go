// Package graph renders protocol definitions as Mermaid flowcharts for
// documentation and review.
package graph

import (
	"fmt"
	"strings"

	"github.com/optolab/ivctl/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the step sequence.
// Shapes carry meaning: hardware actions are subroutines [[..]], waits are
// stadiums ([..]), data actions are parallelograms [/../]. Steps that
// capture a result annotate the edge to the next step with the variable
// name.
func GenerateMermaid(def *domain.ProtocolDefinition) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    start((\"%s\"))\n", escape(def.Name)))

	for i, step := range def.Steps {
		opener, closer := "[", "]"
		switch {
		case step.Action == "wait":
			opener, closer = "([", "])"
		case strings.HasPrefix(step.Action, "data/"):
			opener, closer = "[/", "/]"
		case strings.HasPrefix(step.Action, "smu/"), strings.HasPrefix(step.Action, "relays/"):
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    s%d%s\"%s\"%s\n", i, opener, escape(stepLabel(step)), closer))

		from := fmt.Sprintf("s%d", i-1)
		if i == 0 {
			from = "start"
		}
		arrow := "-->"
		if i > 0 && def.Steps[i-1].CaptureAs != "" {
			arrow = fmt.Sprintf("-- \"$%s\" -->", def.Steps[i-1].CaptureAs)
		}
		sb.WriteString(fmt.Sprintf("    %s %s s%d\n", from, arrow, i))
	}

	if n := len(def.Steps); n > 0 {
		sb.WriteString("    done((\"done\"))\n")
		arrow := "-->"
		if last := def.Steps[n-1]; last.CaptureAs != "" {
			arrow = fmt.Sprintf("-- \"$%s\" -->", last.CaptureAs)
		}
		sb.WriteString(fmt.Sprintf("    s%d %s done\n", n-1, arrow))
	}
	return sb.String()
}

func stepLabel(step domain.Step) string {
	if len(step.Params) == 0 {
		return step.Action
	}
	return fmt.Sprintf("%s (%d params)", step.Action, len(step.Params))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
