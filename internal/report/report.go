// Package report renders aggregated benchmark results as human-readable
// text. It performs no computation beyond formatting and never mutates the
// results it is given.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/p-arndt/sandmark/internal/bench"
)

// notApplicable marks averages for providers with zero successful runs, so
// they can never be mistaken for a measured zero-duration.
const notApplicable = "n/a"

var (
	headline  = color.New(color.Bold).SprintFunc()
	highlight = color.New(color.FgGreen).SprintFunc()
	alert     = color.New(color.FgRed).SprintFunc()
)

type Reporter struct {
	verbose bool
}

func New(verbose bool) *Reporter {
	return &Reporter{verbose: verbose}
}

// Render writes the comparison table and narrative summary for results, in
// the order they were collected.
func (r *Reporter) Render(w io.Writer, results []*bench.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results to report.")
		return
	}

	fmt.Fprintln(w, headline("Provider comparison"))
	for _, res := range results {
		r.renderProvider(w, res)
	}
	r.renderSummary(w, results)
}

func (r *Reporter) renderProvider(w io.Writer, res *bench.Result) {
	fmt.Fprintf(w, "  %-14s provision %-10s file %-10s total %-10s success %s  stddev %s\n",
		res.Provider,
		avg(res, res.Provision),
		avg(res, res.FileOp),
		avg(res, res.Total),
		successRate(res),
		stdDev(res),
	)

	if res.Successes > 0 {
		fmt.Fprintf(w, "  %-14s range: provision %.2f-%.2fms  file %.2f-%.2fms  total %.2f-%.2fms\n",
			"",
			res.Provision.MinMs, res.Provision.MaxMs,
			res.FileOp.MinMs, res.FileOp.MaxMs,
			res.Total.MinMs, res.Total.MaxMs,
		)
	}

	if r.verbose && len(res.FailedRuns) > 0 {
		fmt.Fprintf(w, "  %-14s failures:\n", "")
		for _, run := range res.FailedRuns {
			fmt.Fprintf(w, "  %-14s   run %d: %s\n", "", run.RunNumber, alert(run.Error))
		}
	}

	if r.verbose {
		for _, run := range res.Runs {
			if run.Success {
				fmt.Fprintf(w, "  %-14s run %d: provision %.2fms  file %.2fms  total %.2fms\n",
					"", run.RunNumber, run.ProvisionMs, run.FileOpMs, run.TotalMs)
			} else {
				fmt.Fprintf(w, "  %-14s run %d: failed (%s)\n", "", run.RunNumber, run.Error)
			}
		}
	}
}

func (r *Reporter) renderSummary(w io.Writer, results []*bench.Result) {
	var comparable []*bench.Result
	for _, res := range results {
		if res.SuccessRate > 0 {
			comparable = append(comparable, res)
		}
	}

	if len(comparable) == 0 {
		fmt.Fprintln(w, alert("No provider completed a successful run."))
		return
	}
	if len(comparable) < 2 {
		return
	}

	// Stable left-to-right reduce: ties keep the first provider encountered.
	fastest := comparable[0]
	steadiest := comparable[0]
	for _, res := range comparable[1:] {
		if res.Total.MeanMs < fastest.Total.MeanMs {
			fastest = res
		}
		if res.Total.StdDevMs < steadiest.Total.StdDevMs {
			steadiest = res
		}
	}

	fmt.Fprintf(w, "Fastest: %s (avg total %.2fms)\n", highlight(fastest.Provider), fastest.Total.MeanMs)
	fmt.Fprintf(w, "Most consistent: %s (stddev %.2fms)\n", highlight(steadiest.Provider), steadiest.Total.StdDevMs)
}

func avg(res *bench.Result, d bench.DimensionStats) string {
	if res.Successes == 0 {
		return notApplicable
	}
	return fmt.Sprintf("%.2fms", d.MeanMs)
}

func stdDev(res *bench.Result) string {
	if res.Successes == 0 {
		return notApplicable
	}
	return fmt.Sprintf("%.2fms", res.Total.StdDevMs)
}

func successRate(res *bench.Result) string {
	s := fmt.Sprintf("%.0f%% (%d/%d)", res.SuccessRate*100, res.Successes, res.TotalRuns)
	if res.Successes == 0 {
		return alert(s)
	}
	return s
}
