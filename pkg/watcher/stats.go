package watcher

import "sync/atomic"

// Stats counts what the loop has done since the watcher was created.
type Stats struct {
	Ticks       int64 `json:"ticks" yaml:"ticks"`
	Changes     int64 `json:"changes" yaml:"changes"`
	Conversions int64 `json:"conversions" yaml:"conversions"`
	Fallbacks   int64 `json:"fallbacks" yaml:"fallbacks"`
	Written     int64 `json:"written" yaml:"written"`
	DryRuns     int64 `json:"dry_runs" yaml:"dry_runs"`
	Duplicates  int64 `json:"duplicates" yaml:"duplicates"`
	Skipped     int64 `json:"skipped" yaml:"skipped"`
	Failures    int64 `json:"failures" yaml:"failures"`
	Panics      int64 `json:"panics" yaml:"panics"`
}

type counters struct {
	ticks, changes, conversions, fallbacks, written atomic.Int64
	dryRuns, duplicates, skipped, failures, panics  atomic.Int64
}

// Stats returns a snapshot of the counters. Safe to call from any goroutine.
func (w *Watcher) Stats() Stats {
	return Stats{
		Ticks:       w.stats.ticks.Load(),
		Changes:     w.stats.changes.Load(),
		Conversions: w.stats.conversions.Load(),
		Fallbacks:   w.stats.fallbacks.Load(),
		Written:     w.stats.written.Load(),
		DryRuns:     w.stats.dryRuns.Load(),
		Duplicates:  w.stats.duplicates.Load(),
		Skipped:     w.stats.skipped.Load(),
		Failures:    w.stats.failures.Load(),
		Panics:      w.stats.panics.Load(),
	}
}
