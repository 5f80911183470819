package gcode

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"gcode-slowdown/pkg/errors"
	"gcode-slowdown/pkg/log"
	"gcode-slowdown/pkg/pool"
)

// Recorder receives per-block observations, e.g. for metrics.
type Recorder interface {
	RecordBlock(kind string, travel float64, inserted bool)
	RecordPartialMoves(n int)
}

// Stats summarises one transformed program.
type Stats struct {
	Lines        int     `yaml:"lines"`
	Blocks       int     `yaml:"blocks"`
	InitBlocks   int     `yaml:"init_blocks"`
	FinalBlocks  int     `yaml:"final_blocks"`
	ShortBlocks  int     `yaml:"short_blocks"`
	LongBlocks   int     `yaml:"long_blocks"`
	Slowdowns    int     `yaml:"slowdowns"`
	PartialMoves int     `yaml:"partial_moves"`
	Travel       float64 `yaml:"travel_mm"`
	BytesIn      int64   `yaml:"bytes_in"`
	BytesOut     int64   `yaml:"bytes_out"`
}

func (s *Stats) add(res Result) {
	s.Blocks++
	switch res.Kind {
	case KindInit:
		s.InitBlocks++
	case KindFinal:
		s.FinalBlocks++
	case KindShort:
		s.ShortBlocks++
	case KindLong:
		s.LongBlocks++
	}
	if res.Inserted >= 0 {
		s.Slowdowns++
	}
	s.PartialMoves += len(res.Travel.PartialLines)
	s.Travel += res.Travel.Distance
}

// Transformer runs the whole pipeline over programs. It holds no per-program
// state and may be reused for any number of files.
type Transformer struct {
	rewriter *Rewriter
	log      *log.Logger
	recorder Recorder
}

// NewTransformer creates a Transformer. A nil logger discards diagnostics.
func NewTransformer(opts Options, logger *log.Logger) *Transformer {
	if logger == nil {
		logger = log.Discard()
	}
	return &Transformer{
		rewriter: NewRewriter(opts),
		log:      logger,
	}
}

// SetRecorder attaches a Recorder for block observations.
func (t *Transformer) SetRecorder(r Recorder) {
	t.recorder = r
}

// Options returns the slowdown settings in use.
func (t *Transformer) Options() Options {
	return t.rewriter.Options()
}

// Transform rewrites a program given as lines. The toolhead position is
// threaded from block to block starting at the origin.
func (t *Transformer) Transform(lines []string) ([]string, Stats, error) {
	stats := Stats{Lines: len(lines)}
	out := make([]string, 0, len(lines))
	pos := Origin

	for _, b := range Split(lines) {
		res, err := t.rewriter.Rewrite(b, pos)
		if err != nil {
			return nil, stats, err
		}
		if err := t.trace(b, res); err != nil {
			return nil, stats, err
		}
		stats.add(res)
		if t.recorder != nil {
			t.recorder.RecordBlock(res.Kind.String(), res.Travel.Distance, res.Inserted >= 0)
			if n := len(res.Travel.PartialLines); n > 0 {
				t.recorder.RecordPartialMoves(n)
			}
		}
		pos = res.Exit()
		out = append(out, res.Lines...)
	}
	return out, stats, nil
}

// trace emits the per-block diagnostics.
func (t *Transformer) trace(b Block, res Result) error {
	for _, idx := range res.Travel.PartialLines {
		t.log.WithField("line", idx+1).WithField("command", b.Lines[idx-b.Start]).
			Warn("partial G1 command")
	}

	switch res.Kind {
	case KindInit:
		t.log.Debug("init block processed (lines %d-%d)", b.Start+1, b.End())
		return nil
	case KindFinal:
		t.log.Debug("final block processed (lines %d-%d)", b.Start+1, b.End())
		return nil
	}

	if t.log.GetLevel() > log.DEBUG {
		return nil
	}
	last, found, err := BlockFinalPosition(b)
	if err != nil {
		return err
	}
	entry := t.log.WithField("kind", res.Kind.String()).
		WithField("travel", formatDistance(res.Travel.Distance)).
		WithField("lines", b.Start+1)
	if !found {
		entry.Debug("block with no position")
		return nil
	}
	entry.WithField("x", last.X).WithField("y", last.Y).Debug("block rewritten")
	return nil
}

// TransformBytes rewrites a whole program held in memory. Every output line
// is terminated by '\n'.
func (t *Transformer) TransformBytes(data []byte) ([]byte, Stats, error) {
	buf := pool.GetByteBuffer()
	defer pool.PutByteBuffer(buf)

	stats, err := t.transformInto(buf, data)
	if err != nil {
		return nil, stats, err
	}
	return bytes.Clone(buf.Bytes()), stats, nil
}

func (t *Transformer) transformInto(buf *pool.ByteBuffer, data []byte) (Stats, error) {
	out, stats, err := t.Transform(SplitLines(string(data)))
	if err != nil {
		return stats, err
	}

	size := 0
	for _, line := range out {
		size += len(line) + 1
	}
	buf.Grow(size)
	for _, line := range out {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	stats.BytesIn = int64(len(data))
	stats.BytesOut = int64(buf.Len())
	return stats, nil
}

// TransformFile reads inPath, rewrites it and writes outPath. The output is
// written to a temporary file and renamed into place, so a failed run never
// leaves a partial output behind. An empty outPath only computes the stats.
func (t *Transformer) TransformFile(ctx context.Context, inPath, outPath string) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return Stats{}, errors.ReadError(inPath, err)
	}

	buf := pool.GetByteBuffer()
	defer pool.PutByteBuffer(buf)

	stats, err := t.transformInto(buf, data)
	if err != nil {
		if hostErr, ok := errors.AsHostError(err); ok && hostErr.File == "" {
			hostErr.SetFile(inPath)
		}
		return stats, err
	}
	if outPath == "" {
		return stats, nil
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if err := writeFileAtomic(outPath, buf.Bytes()); err != nil {
		return stats, errors.WriteError(outPath, err)
	}
	return stats, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	cleanup := func() { os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(name, 0644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// SplitLines splits text on "\n", "\r\n" and "\r". A final terminator does
// not produce a trailing empty line.
func SplitLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexAny(text, "\r\n")
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i])
		if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			i++
		}
		text = text[i+1:]
	}
	return lines
}
