/*
Package pipetab converts pipe-delimited text into tab-delimited text,
trimming the whitespace around every field.

Source lines follow the trailing pipe convention: every line ends with an
extra "|" before its terminator. A line is split on "|", the segment after
the last pipe is dropped, and the remaining fields are trimmed and joined
with tabs:

	A | B|C |   ->   "A\tB\tC\n"

The drop-last rule is applied literally. A line without the trailing pipe
loses its last field ("X|Y" becomes "X\n"); Inspect reports such lines and
WithStrict turns them into errors. Every source line produces exactly one
destination line, an empty one when the source line holds no pipe at all.

The conversion is built on Pipes. A Pipe[T] is a lazily-evaluated stream of
values of type T; transformations (Map, TryMap, Filter, GroupByAggregate) are
package-level functions returning new Pipes, and values are only produced
when the resulting iter.Seq is iterated.

Errors produced by any stage flow through the pipe's internal error channel.
All transformations inherit their input Pipe's error channel, so errors
automatically propagate and can be consumed alongside values:

	lines := pipetab.From(source)
	records := pipetab.Map(pipetab.TryMap(lines, validate), pipetab.ParseLine)

	vals, errs := records.Results()

	// Errors *must* be consumed concurrently to avoid blocking the pipeline.
	go func() {
		for err := range errs {
			log.Println("line error:", err)
		}
	}()

	for rec := range vals {
		w.Write(rec.AppendTSV(nil))
	}

Reformat and ConvertFile wire this pipeline to a reader and a writer, stop
at the first line error and report it as a PipelineError carrying the
source line number.
*/
package pipetab
