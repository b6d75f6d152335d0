package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/p-arndt/sandmark/internal/bench"
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
)

// ConsoleProgress prints live feedback while a sweep executes: one line per
// run in verbose mode, one symbol per run otherwise.
type ConsoleProgress struct {
	w       io.Writer
	verbose bool
}

func NewConsoleProgress(w io.Writer, verbose bool) *ConsoleProgress {
	return &ConsoleProgress{w: w, verbose: verbose}
}

func (p *ConsoleProgress) SweepStarted(provider string, runs int) {
	if p.verbose {
		fmt.Fprintf(p.w, "%s: %d runs\n", provider, runs)
		return
	}
	fmt.Fprintf(p.w, "%s ", provider)
}

func (p *ConsoleProgress) RunCompleted(provider string, run bench.Run) {
	if !p.verbose {
		if run.Success {
			fmt.Fprint(p.w, okMark("."))
		} else {
			fmt.Fprint(p.w, failMark("x"))
		}
		return
	}
	if run.Success {
		fmt.Fprintf(p.w, "  run %d: provision %.2fms  file %.2fms  total %.2fms\n",
			run.RunNumber, run.ProvisionMs, run.FileOpMs, run.TotalMs)
		return
	}
	fmt.Fprintf(p.w, "  run %d: failed: %s\n", run.RunNumber, run.Error)
}

func (p *ConsoleProgress) SweepFinished(provider string) {
	if !p.verbose {
		fmt.Fprintln(p.w)
	}
}
