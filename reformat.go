package pipetab

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KasperOmsK/pipetab/internal/atomicfile"
	"github.com/KasperOmsK/pipetab/internal/charset"
	"github.com/KasperOmsK/pipetab/internal/iterx"
)

// Stats summarizes a Reformat run.
type Stats struct {
	// Lines is the number of lines written. On failure it counts the
	// lines converted before the run stopped.
	Lines int
	// Fields is the total number of fields written.
	Fields int
	// EmptyRecords counts lines that produced no field at all.
	EmptyRecords int
	// MissingTrailingPipe counts lines that broke the trailing pipe
	// convention and lost their last field.
	MissingTrailingPipe int
}

func (s *Stats) observe(r Record) {
	s.Lines++
	s.Fields += len(r.Fields)
	if len(r.Fields) == 0 {
		s.EmptyRecords++
	}
	if !r.TrailingPipe {
		s.MissingTrailingPipe++
	}
}

// readRecords builds the pipeline shared by Reformat and Inspect: decoded
// source lines, validated, parsed into records. Reading stops quietly once
// ctx is done; callers check ctx after draining.
func readRecords(ctx context.Context, r io.Reader, o options, strict bool) (Pipe[Record], *bufio.Scanner, error) {
	src, err := charset.NewReader(r, o.encoding)
	if err != nil {
		return Pipe[Record]{}, nil, err
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, min(64*1024, o.maxLineBytes)), o.maxLineBytes)
	scanner.Split(iterx.ScanLines)

	lines := From(func(yield func(Line) bool) {
		for n, text := range iterx.Lines(scanner) {
			if ctx.Err() != nil || !yield(Line{Number: n, Text: text}) {
				return
			}
		}
	})

	checked := TryMap(lines, validUTF8)
	if strict {
		checked = TryMap(checked, requireTrailingPipe)
	}

	return Map(checked, ParseLine), scanner, nil
}

// drain consumes p, calling fn for every value. No value yielded after the
// first PipelineError reaches fn; every line error seen before the pipeline
// stops is returned, combined.
func drain[T any](ctx context.Context, p Pipe[T], fn func(T) error) error {
	vals, errs := p.Results()

	var g errgroup.Group
	g.Go(func() error {
		var lineErrs error
		for e := range errs {
			lineErrs = multierr.Append(lineErrs, e)
		}
		return lineErrs
	})

	var consumeErr error
	for v := range vals {
		if p.failed() {
			break
		}
		if err := ctx.Err(); err != nil {
			consumeErr = err
			break
		}
		if err := fn(v); err != nil {
			consumeErr = err
			break
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return consumeErr
}

func scanErr(s *bufio.Scanner, maxLineBytes int) error {
	err := s.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		return fmt.Errorf("read source: line longer than %d bytes: %w", maxLineBytes, err)
	}
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	return nil
}

// Reformat reads pipe-delimited lines from r and writes their tab-delimited
// form to w, one destination line per source line.
//
// Each line is split on "|", the last segment is dropped and the remaining
// fields are trimmed of surrounding whitespace, then joined with tabs and
// terminated by a newline. Lines that do not end with a pipe lose their last
// field unless strict mode is enabled, in which case they fail the run.
//
// A line that is not valid UTF-8 after decoding fails the run with
// ErrInvalidUTF8. Line failures are reported as PipelineError values.
func Reformat(ctx context.Context, r io.Reader, w io.Writer, opts ...Option) (Stats, error) {
	o := newOptions(opts)

	records, scanner, err := readRecords(ctx, r, o, o.strict)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	debug := o.logger.Core().Enabled(zap.DebugLevel)

	bw := bufio.NewWriter(w)
	var buf []byte
	err = drain(ctx, records, func(rec Record) error {
		buf = rec.AppendTSV(buf[:0])
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("write line %d: %w", rec.Line, err)
		}
		stats.observe(rec)
		if debug {
			o.logger.Debug("record",
				zap.Int("line", rec.Line),
				zap.Int("fields", len(rec.Fields)),
				zap.Bool("trailing_pipe", rec.TrailingPipe))
		}
		return nil
	})
	if err != nil {
		return stats, err
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if err := scanErr(scanner, o.maxLineBytes); err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("write destination: %w", err)
	}

	if stats.MissingTrailingPipe > 0 {
		o.logger.Warn("lines without trailing pipe lost their last field",
			zap.Int("count", stats.MissingTrailingPipe))
	}
	return stats, nil
}

// ConvertFile reformats the file at src into the file at dst.
//
// dst is created or replaced in full, and only when the whole source was
// converted: on failure an existing dst is left untouched and no partial
// output remains.
func ConvertFile(ctx context.Context, src, dst string, opts ...Option) (Stats, error) {
	o := newOptions(opts)

	in, err := os.Open(src)
	if err != nil {
		return Stats{}, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := atomicfile.Create(dst)
	if err != nil {
		return Stats{}, fmt.Errorf("open destination: %w", err)
	}
	defer out.Abort()

	o.logger.Info("converting", zap.String("source", src), zap.String("destination", dst))

	stats, err := Reformat(ctx, in, out, opts...)
	if err != nil {
		return stats, err
	}
	if err := out.Commit(); err != nil {
		return stats, err
	}

	o.logger.Info("converted",
		zap.String("destination", dst),
		zap.Int("lines", stats.Lines),
		zap.Int("fields", stats.Fields),
		zap.Int("missing_trailing_pipe", stats.MissingTrailingPipe))
	return stats, nil
}
