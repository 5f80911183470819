package gcode

import (
	"math"
	"strconv"
	"strings"
)

// Defaults for Options.
const (
	DefaultDistance = 10.0  // mm of travel run slowly before a retraction
	DefaultFeedrate = 900.0 // mm/min
)

// Options controls where and how fast the slowdown happens.
type Options struct {
	// Distance is the arc length before the block end at which slowing starts.
	Distance float64
	// Feedrate is the F word of the injected command.
	Feedrate float64
}

// DefaultOptions returns the stock 10 mm / F900 settings.
func DefaultOptions() Options {
	return Options{Distance: DefaultDistance, Feedrate: DefaultFeedrate}
}

// Kind classifies a block for rewriting.
type Kind int

const (
	// KindInit blocks home the printer and are left alone.
	KindInit Kind = iota
	// KindFinal blocks switch the motors off and are left alone.
	KindFinal
	// KindShort blocks travel less than Distance and run slowly throughout.
	KindShort
	// KindLong blocks get a slowdown partway through.
	KindLong
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindFinal:
		return "final"
	case KindShort:
		return "short"
	case KindLong:
		return "long"
	default:
		return "unknown"
	}
}

const shortBlockComment = "Small block full slowdown"

// Result is one rewritten block.
type Result struct {
	Lines  []string
	Kind   Kind
	Travel Travel
	// Inserted is the index in Lines of the injected command, or -1.
	Inserted int
}

// Exit is the position the next block starts from.
func (r Result) Exit() Position {
	return r.Travel.Exit
}

// Rewriter injects slowdown commands into blocks.
type Rewriter struct {
	opts    Options
	command string
}

// NewRewriter returns a Rewriter for opts.
func NewRewriter(opts Options) *Rewriter {
	return &Rewriter{
		opts:    opts,
		command: linearMove + " F" + strconv.FormatFloat(opts.Feedrate, 'f', -1, 64),
	}
}

// Options returns the rewriter's settings.
func (r *Rewriter) Options() Options {
	return r.opts
}

func (r *Rewriter) slowdown(comment string) string {
	return r.command + " ; " + comment
}

// Rewrite rewrites block b entered at pos. The exit position in the result
// is valid for every kind, including blocks returned unchanged.
func (r *Rewriter) Rewrite(b Block, pos Position) (Result, error) {
	travel, err := BlockTotalDistance(b, pos)
	if err != nil {
		return Result{}, err
	}
	res := Result{Lines: b.Lines, Travel: travel, Inserted: -1}

	switch {
	case IsInitBlock(b):
		res.Kind = KindInit
		return res, nil
	case IsFinalBlock(b):
		res.Kind = KindFinal
		return res, nil
	case travel.Distance < r.opts.Distance:
		res.Kind = KindShort
		res.Lines = make([]string, 0, len(b.Lines)+1)
		res.Lines = append(res.Lines, r.slowdown(shortBlockComment))
		res.Lines = append(res.Lines, b.Lines...)
		res.Inserted = 0
		return res, nil
	}

	res.Kind = KindLong
	target := travel.Distance - r.opts.Distance
	out := make([]string, 0, len(b.Lines)+1)
	cur := pos
	done := 0.0
	for i, line := range b.Lines {
		if res.Inserted >= 0 {
			out = append(out, line)
			continue
		}
		m, err := ExecuteMove(line, cur)
		if err != nil {
			return Result{}, withLine(err, b.Start+i)
		}
		cur = m.To
		done += m.Delta
		if done >= target {
			remaining := travel.Distance - done + m.Delta
			out = append(out, r.slowdown("slowdown at "+formatDistance(remaining)+" before retract"))
			res.Inserted = len(out) - 1
		}
		out = append(out, line)
	}
	res.Lines = out
	return res, nil
}

// formatDistance prints v as the shortest decimal that round-trips, always
// with a fractional part, switching to exponent form for very large or very
// small magnitudes.
func formatDistance(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
