// Package report writes a YAML summary of a post-processing run.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"gopkg.in/yaml.v3"

	"gcode-slowdown/pkg/gcode"
)

// Report is the summary of one run.
type Report struct {
	Started  time.Time `yaml:"started"`
	Distance float64   `yaml:"distance_mm"`
	Feedrate float64   `yaml:"feedrate"`
	DryRun   bool      `yaml:"dry_run,omitempty"`
	Files    []File    `yaml:"files"`
	Totals   Totals    `yaml:"totals"`
}

// File is the outcome of one input file.
type File struct {
	Input    string      `yaml:"input"`
	Output   string      `yaml:"output,omitempty"`
	Size     string      `yaml:"size"`
	Duration string      `yaml:"duration"`
	Error    string      `yaml:"error,omitempty"`
	Stats    gcode.Stats `yaml:"stats"`
}

// Totals aggregates all files of a run.
type Totals struct {
	Files     int    `yaml:"files"`
	Failed    int    `yaml:"failed"`
	Blocks    int    `yaml:"blocks"`
	Slowdowns int    `yaml:"slowdowns"`
	BytesIn   string `yaml:"bytes_in"`
	BytesOut  string `yaml:"bytes_out"`

	bytesIn  uint64
	bytesOut uint64
}

// New starts a report for a run with the given options.
func New(started time.Time, opts gcode.Options, dryRun bool) *Report {
	return &Report{
		Started:  started,
		Distance: opts.Distance,
		Feedrate: opts.Feedrate,
		DryRun:   dryRun,
		Totals:   Totals{BytesIn: humanize.IBytes(0), BytesOut: humanize.IBytes(0)},
	}
}

// Add records one file. A non-nil err marks the file failed.
func (r *Report) Add(input, output string, stats gcode.Stats, elapsed time.Duration, err error) {
	f := File{
		Input:    input,
		Output:   output,
		Size:     humanize.IBytes(uint64(stats.BytesIn)),
		Duration: elapsed.Round(time.Microsecond).String(),
		Stats:    stats,
	}
	if err != nil {
		f.Error = err.Error()
		f.Output = ""
		r.Totals.Failed++
	}
	r.Files = append(r.Files, f)

	r.Totals.Files++
	r.Totals.Blocks += stats.Blocks
	r.Totals.Slowdowns += stats.Slowdowns
	r.Totals.bytesIn += uint64(stats.BytesIn)
	r.Totals.bytesOut += uint64(stats.BytesOut)
	r.Totals.BytesIn = humanize.IBytes(r.Totals.bytesIn)
	r.Totals.BytesOut = humanize.IBytes(r.Totals.bytesOut)
}

// Summary is a one-line description for logs.
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s processed", plural(r.Totals.Files, "file"))
	if r.Totals.Failed > 0 {
		fmt.Fprintf(&sb, " (%d failed)", r.Totals.Failed)
	}
	fmt.Fprintf(&sb, ", %s inserted, %s read",
		plural(r.Totals.Slowdowns, "slowdown"), r.Totals.BytesIn)
	return sb.String()
}

func plural(n int, word string) string {
	return humanize.Comma(int64(n)) + " " + english.PluralWord(n, word, "")
}

// Marshal encodes the report as YAML.
func (r *Report) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// Write encodes the report to path.
func (r *Report) Write(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// Load reads a report written by Write.
func Load(path string) (*Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("report %s: %w", path, err)
	}
	return &r, nil
}
