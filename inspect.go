package pipetab

import (
	"context"
	"io"

	"go.uber.org/zap"
)

// MaxViolations is the number of offending line numbers kept in a Report.
const MaxViolations = 100

// FieldRun is a maximal range of consecutive lines sharing a field count.
type FieldRun struct {
	First  int
	Last   int
	Fields int
}

// Report describes a source without converting it.
type Report struct {
	Lines int
	Runs  []FieldRun
	// Violations lists, in order, up to MaxViolations lines that break the
	// trailing pipe convention. ViolationCount is always the exact total.
	Violations     []int
	ViolationCount int
}

// Inspect reads a source the way Reformat would and reports its shape: how
// many fields each stretch of lines yields and which lines lack the trailing
// pipe, without writing anything.
//
// Strict mode has no effect; missing trailing pipes are reported, not
// rejected. On error the returned Report covers only the lines read before
// the failure.
func Inspect(ctx context.Context, r io.Reader, opts ...Option) (Report, error) {
	o := newOptions(opts)

	records, scanner, err := readRecords(ctx, r, o, false)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	records.Tap(func(rec Record) {
		rep.Lines++
		if rec.TrailingPipe {
			return
		}
		rep.ViolationCount++
		if len(rep.Violations) < MaxViolations {
			rep.Violations = append(rep.Violations, rec.Line)
		}
	})

	runs := GroupByAggregate(records,
		func(rec Record) int { return len(rec.Fields) },
		func(first Record) FieldRun {
			return FieldRun{First: first.Line, Fields: len(first.Fields)}
		},
		func(acc *FieldRun, rec Record) { acc.Last = rec.Line })

	err = drain(ctx, runs, func(run FieldRun) error {
		rep.Runs = append(rep.Runs, run)
		return nil
	})
	if err != nil {
		return rep, err
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	if err := scanErr(scanner, o.maxLineBytes); err != nil {
		return rep, err
	}

	o.logger.Debug("inspected",
		zap.Int("lines", rep.Lines),
		zap.Int("runs", len(rep.Runs)),
		zap.Int("violations", rep.ViolationCount))
	return rep, nil
}
