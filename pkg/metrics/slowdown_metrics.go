// Slowdown-specific metrics definitions
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import "time"

// File outcomes used as the "result" label.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// SlowdownMetrics holds the metrics of one post-processing run.
type SlowdownMetrics struct {
	registry *Registry

	Blocks       *Counter   // by kind
	Slowdowns    *Counter   // injected feedrate commands
	PartialMoves *Counter   // G1 lines naming only one axis
	BlockTravel  *Histogram // XY travel per block, mm

	Files        *Counter // by result
	Bytes        *Counter // by direction
	FileDuration *Histogram
	LastRun      *Gauge // unix seconds
}

// NewSlowdownMetrics creates and registers the run metrics on a fresh registry.
func NewSlowdownMetrics() *SlowdownMetrics {
	m := &SlowdownMetrics{
		registry: NewRegistry(),

		Blocks:       NewCounter("slowdown_blocks_total", "Retraction-delimited blocks processed"),
		Slowdowns:    NewCounter("slowdown_commands_inserted_total", "Feedrate commands inserted before retractions"),
		PartialMoves: NewCounter("slowdown_partial_moves_total", "G1 commands missing the X or Y word"),
		BlockTravel: NewHistogram("slowdown_block_travel_mm", "XY travel per block",
			[]float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000}),

		Files:        NewCounter("slowdown_files_total", "Files processed"),
		Bytes:        NewCounter("slowdown_bytes_total", "Bytes read and written"),
		FileDuration: NewHistogram("slowdown_file_duration_seconds", "Time spent per file", ExponentialBuckets(0.001, 4, 8)),
		LastRun:      NewGauge("slowdown_last_run_timestamp_seconds", "Unix time the run finished"),
	}

	for _, metric := range []Metric{
		m.Blocks, m.Slowdowns, m.PartialMoves, m.BlockTravel,
		m.Files, m.Bytes, m.FileDuration, m.LastRun,
	} {
		m.registry.MustRegister(metric)
	}
	return m
}

// Registry returns the registry holding the run metrics.
func (m *SlowdownMetrics) Registry() *Registry {
	return m.registry
}

// RecordBlock records one rewritten block.
func (m *SlowdownMetrics) RecordBlock(kind string, travel float64, inserted bool) {
	m.Blocks.Inc(Labels{"kind": kind})
	if inserted {
		m.Slowdowns.Inc(nil)
	}
	if kind == "short" || kind == "long" {
		m.BlockTravel.Observe(nil, travel)
	}
}

// RecordPartialMoves records G1 lines that lacked an axis.
func (m *SlowdownMetrics) RecordPartialMoves(n int) {
	if n > 0 {
		m.PartialMoves.Add(nil, uint64(n))
	}
}

// RecordFile records the outcome of one file.
func (m *SlowdownMetrics) RecordFile(err error, bytesIn, bytesOut int64, elapsed time.Duration) {
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	m.Files.Inc(Labels{"result": result})
	m.Bytes.Add(Labels{"direction": "in"}, uint64(bytesIn))
	m.Bytes.Add(Labels{"direction": "out"}, uint64(bytesOut))
	m.FileDuration.Observe(nil, elapsed.Seconds())
}

// Finish stamps the end of the run.
func (m *SlowdownMetrics) Finish(now time.Time) {
	m.LastRun.Set(nil, float64(now.Unix()))
}

// WriteFile writes the run metrics in Prometheus text format.
func (m *SlowdownMetrics) WriteFile(path string) error {
	return m.registry.WriteFile(path)
}
