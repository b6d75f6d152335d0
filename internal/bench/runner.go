package bench

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-arndt/sandmark/internal/stats"
)

// Options controls how a sweep executes.
type Options struct {
	Runs     int           // attempts per provider
	Delay    time.Duration // pause between consecutive runs
	FailFast bool          // stop the sweep after the first failed run
}

// Runner executes provider sweeps strictly sequentially: one sample must
// fully complete before the next begins, and no sample is ever retried.
type Runner struct {
	opts     Options
	logger   *slog.Logger
	progress Progress
}

func NewRunner(opts Options, logger *slog.Logger, progress Progress) *Runner {
	return &Runner{opts: opts, logger: logger, progress: progress}
}

// RunSweep runs the configured number of samples against one provider and
// aggregates them. Provider failures are captured as failed runs, never
// returned as errors; the only error is a non-positive run count.
func (r *Runner) RunSweep(ctx context.Context, provider string, sampler Sampler) (*Result, error) {
	if r.opts.Runs < 1 {
		return nil, fmt.Errorf("run count must be positive, got %d", r.opts.Runs)
	}

	if r.progress != nil {
		r.progress.SweepStarted(provider, r.opts.Runs)
	}

	runs := make([]Run, 0, r.opts.Runs)
	for i := 1; i <= r.opts.Runs; i++ {
		sample, err := sampler.Sample(ctx)
		if err != nil {
			// The invocation itself failed; capture it as a zeroed failed run.
			sample = Sample{Success: false, Error: err.Error()}
		}
		run := Run{Sample: sample, RunNumber: i, Timestamp: time.Now()}
		runs = append(runs, run)

		if run.Success {
			r.logger.Debug("run completed", "provider", provider, "run", i,
				"provision_ms", run.ProvisionMs, "file_op_ms", run.FileOpMs, "total_ms", run.TotalMs)
		} else {
			r.logger.Debug("run failed", "provider", provider, "run", i, "error", run.Error)
		}
		if r.progress != nil {
			r.progress.RunCompleted(provider, run)
		}

		if !run.Success && r.opts.FailFast {
			r.logger.Warn("fail-fast: aborting sweep", "provider", provider, "after_run", i)
			break
		}
		if i < r.opts.Runs && r.opts.Delay > 0 {
			if !sleep(ctx, r.opts.Delay) {
				r.logger.Warn("sweep interrupted", "provider", provider, "completed_runs", i)
				break
			}
		}
	}

	if r.progress != nil {
		r.progress.SweepFinished(provider)
	}
	return aggregate(provider, runs), nil
}

// sleep pauses for d and reports whether the pause ran to completion.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// aggregate folds a run sequence into a Result. Every derived statistic is
// computed strictly over the successful subset; the success rate divides by
// the runs actually attempted, not the configured count.
func aggregate(provider string, runs []Run) *Result {
	res := &Result{
		Provider:  provider,
		Runs:      runs,
		TotalRuns: len(runs),
	}

	var provision, fileOp, total []float64
	for _, run := range runs {
		if !run.Success {
			res.FailedRuns = append(res.FailedRuns, run)
			continue
		}
		res.Successes++
		provision = append(provision, run.ProvisionMs)
		fileOp = append(fileOp, run.FileOpMs)
		total = append(total, run.TotalMs)
	}

	if res.TotalRuns > 0 {
		res.SuccessRate = float64(res.Successes) / float64(res.TotalRuns)
	}
	res.Provision = summarize(provision)
	res.FileOp = summarize(fileOp)
	res.Total = summarize(total)
	return res
}

func summarize(xs []float64) DimensionStats {
	return DimensionStats{
		MeanMs:   stats.Mean(xs),
		StdDevMs: stats.StdDev(xs),
		MinMs:    stats.Min(xs),
		MaxMs:    stats.Max(xs),
	}
}
