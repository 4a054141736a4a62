package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/optolab/ivctl/pkg/domain"
)

// Printer writes human-readable command output, with color when stdout is
// an interactive terminal.
type Printer struct {
	out     io.Writer
	profile termenv.Profile
}

// NewPrinter builds a Printer for stdout.
func NewPrinter() *Printer {
	profile := termenv.Ascii
	if term.IsTerminal(int(os.Stdout.Fd())) {
		profile = termenv.ColorProfile()
	}
	return &Printer{out: os.Stdout, profile: profile}
}

func (p *Printer) colored(s, hex string) string {
	return termenv.String(s).Foreground(p.profile.Color(hex)).String()
}

func (p *Printer) stateLabel(state domain.RunState) string {
	switch state {
	case domain.StateRunning:
		return p.colored(string(state), "#facc15")
	case domain.StateAborted:
		return p.colored(string(state), "#fb923c")
	case domain.StateFaulted:
		return p.colored(string(state), "#f87171")
	default:
		return p.colored(string(state), "#4ade80")
	}
}

// Result prints a run outcome summary.
func (p *Printer) Result(result domain.ExecutionResult) {
	switch {
	case result.Success:
		fmt.Fprintf(p.out, "%s %s (%d/%d steps)\n",
			p.colored("ok", "#4ade80"), result.Name, result.StepsCompleted, result.TotalSteps)
	case result.Aborted:
		fmt.Fprintf(p.out, "%s %s after %d/%d steps\n",
			p.colored("aborted", "#fb923c"), result.Name, result.StepsCompleted, result.TotalSteps)
	default:
		fmt.Fprintf(p.out, "%s %s at step %d/%d: %s\n",
			p.colored("failed", "#f87171"), result.Name, result.StepsCompleted+1, result.TotalSteps, result.Error)
	}
	for name := range result.CapturedData {
		if sweep, ok := result.CapturedData[name].(domain.SweepResult); ok {
			fmt.Fprintf(p.out, "  %s: %d points\n", name, sweep.Points)
		}
	}
}

// Status prints a state snapshot.
func (p *Printer) Status(snap domain.RunSnapshot) {
	fmt.Fprintf(p.out, "state: %s (v%d)\n", p.stateLabel(snap.State), snap.Version)
	if snap.ProtocolName != "" {
		fmt.Fprintf(p.out, "protocol: %s (%d/%d steps)\n",
			snap.ProtocolName, snap.StepsCompleted, snap.TotalSteps)
	}
	if snap.LastError != "" {
		fmt.Fprintf(p.out, "last error: %s\n", snap.LastError)
	}
}

// Protocols prints the protocol listing.
func (p *Printer) Protocols(names []string) {
	if len(names) == 0 {
		fmt.Fprintln(p.out, "no protocols found")
		return
	}
	for _, name := range names {
		fmt.Fprintln(p.out, name)
	}
}
