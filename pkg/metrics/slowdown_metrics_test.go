// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSlowdownMetricsBlocks(t *testing.T) {
	m := NewSlowdownMetrics()

	m.RecordBlock("init", 0, false)
	m.RecordBlock("long", 40, true)
	m.RecordBlock("short", 3, true)
	m.RecordBlock("final", 0, false)
	m.RecordPartialMoves(2)
	m.RecordPartialMoves(0)

	if v := m.Blocks.Get(Labels{"kind": "long"}); v != 1 {
		t.Errorf("long blocks = %d", v)
	}
	if v := m.Slowdowns.Get(nil); v != 2 {
		t.Errorf("slowdowns = %d", v)
	}
	if v := m.PartialMoves.Get(nil); v != 2 {
		t.Errorf("partial moves = %d", v)
	}
	if snap := m.BlockTravel.GetSnapshot(nil); snap.Count != 2 || snap.Sum != 43 {
		t.Errorf("travel snapshot = %+v", snap)
	}
}

func TestSlowdownMetricsFiles(t *testing.T) {
	m := NewSlowdownMetrics()

	m.RecordFile(nil, 100, 130, 2*time.Millisecond)
	m.RecordFile(errors.New("boom"), 50, 0, time.Millisecond)
	m.Finish(time.Unix(1700000000, 0))

	if v := m.Files.Get(Labels{"result": ResultOK}); v != 1 {
		t.Errorf("ok files = %d", v)
	}
	if v := m.Files.Get(Labels{"result": ResultFailed}); v != 1 {
		t.Errorf("failed files = %d", v)
	}
	if v := m.Bytes.Get(Labels{"direction": "in"}); v != 150 {
		t.Errorf("bytes in = %d", v)
	}
	if v := m.LastRun.Get(nil); v != 1700000000 {
		t.Errorf("last run = %v", v)
	}

	out := m.Registry().Gather()
	for _, want := range []string{
		`slowdown_files_total{result="failed"} 1`,
		`slowdown_bytes_total{direction="out"} 130`,
		"slowdown_file_duration_seconds_count 2",
		"slowdown_last_run_timestamp_seconds 1.7e+09",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}
