// Package bench contains the provider-agnostic benchmark core: it runs a
// sampler repeatedly against one provider, survives per-run failures, and
// folds the run sequence into a read-only aggregated result.
package bench

import (
	"context"
	"time"
)

// Sample is one timed measurement against a provider: how long provisioning
// took, how long a single file write took, and the total round trip.
// Durations are reported in milliseconds. A provider-reported failure is a
// Sample with Success=false and the failure text in Error.
type Sample struct {
	ProvisionMs float64
	FileOpMs    float64
	TotalMs     float64
	Success     bool
	Error       string
}

// Sampler performs one provisioning round trip against a provider.
// Implementations may report failure either as a Sample with Success=false
// or as a returned error; the runner treats both identically.
type Sampler interface {
	Sample(ctx context.Context) (Sample, error)
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func(ctx context.Context) (Sample, error)

func (f SamplerFunc) Sample(ctx context.Context) (Sample, error) {
	return f(ctx)
}

// Run is a Sample tagged with its 1-based position in the sweep and the
// time it was captured. Runs are never mutated after creation.
type Run struct {
	Sample
	RunNumber int
	Timestamp time.Time
}

// DimensionStats summarizes one duration dimension over the successful
// runs of a sweep. All fields are 0 when no run succeeded.
type DimensionStats struct {
	MeanMs   float64
	StdDevMs float64
	MinMs    float64
	MaxMs    float64
}

// Result is the aggregated outcome of one provider sweep. It is a terminal
// snapshot: the runner hands it to the reporter read-only.
type Result struct {
	Provider    string
	Runs        []Run
	FailedRuns  []Run
	TotalRuns   int
	Successes   int
	SuccessRate float64
	Provision   DimensionStats
	FileOp      DimensionStats
	Total       DimensionStats
}

// Milliseconds converts a duration to the float64 millisecond scale used
// throughout the benchmark.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Progress receives per-run signals while a sweep executes. It is an output
// collaborator only; implementations must not retain or mutate runs.
type Progress interface {
	SweepStarted(provider string, runs int)
	RunCompleted(provider string, run Run)
	SweepFinished(provider string)
}
