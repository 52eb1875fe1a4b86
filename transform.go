package pipetab

type (

	// MapFunc is a pure mapping function used by Map that transforms a value
	// of type In into a value of type Out.
	MapFunc[In, Out any] func(in In) Out

	// TryMapFunc is a mapping function that may return an error.
	//
	// Errors are forwarded to the Pipe's error channel while
	// successful values continue through the pipeline.
	TryMapFunc[In, Out any] func(in In) (Out, error)

	// Predicate represents a filtering function that returns true when the
	// provided value should be included in the output stream.
	Predicate[T any] func(item T) bool
)

// Map transforms each input value using fn and returns a new Pipe producing
// the mapped values.
//
// Errors from the input Pipe are preserved.
func Map[In, Out any](p Pipe[In], fn MapFunc[In, Out]) Pipe[Out] {
	return Pipe[Out]{
		errors: p.errors,
		taps:   new([]func(Out)),
		seq: func(yield func(Out) bool) {
			for in := range p.all() {
				if !yield(fn(in)) {
					return
				}
			}
		},
	}
}

// TryMap transforms each input value using fn, forwarding any non-nil
// errors onto the Pipe's error channel and yielding only successful results.
//
// When the input value carries a line number, the forwarded PipelineError
// records it.
//
// Errors from the input Pipe are preserved.
func TryMap[In, Out any](p Pipe[In], fn TryMapFunc[In, Out]) Pipe[Out] {
	return Pipe[Out]{
		errors: p.errors,
		taps:   new([]func(Out)),
		seq: func(yield func(Out) bool) {
			for in := range p.all() {
				result, err := fn(in)
				if err != nil {
					p.errors.send(newPipelineError(in, err))
					continue
				}
				if !yield(result) {
					return
				}
			}
		},
	}
}

// Filter returns a Pipe that yields only the values for which predicate
// returns true.
//
// Errors from the input Pipe are preserved.
func Filter[T any](p Pipe[T], predicate Predicate[T]) Pipe[T] {
	return Pipe[T]{
		errors: p.errors,
		taps:   new([]func(T)),
		seq: func(yield func(T) bool) {
			for in := range p.all() {
				if predicate(in) {
					if !yield(in) {
						return
					}
				}
			}
		},
	}
}

// GroupByAggregate groups consecutive input values by key and aggregates
// them using user-supplied initialization and update callbacks, producing
// one aggregated output value per group.
//
// initFunc is called when a new group starts. It receives the first value of
// the group and returns the initial accumulator for that group.
//
// updateFunc is called for each value in the current group, the first one
// included. It receives a pointer to the accumulator and updates it in place.
//
// GroupByAggregate does not reorder input values. Values are grouped only
// when they appear consecutively with the same key. For example, with input
// values:
//
//	A1, A2, B1, B2, A3
//
// GroupByAggregate will emit aggregated results for:
//
//	[A1, A2], [B1, B2], [A3]
//
// Errors from the input Pipe are preserved.
func GroupByAggregate[In any, K comparable, Out any](
	p Pipe[In],
	keyFunc func(In) K,
	initFunc func(first In) Out,
	updateFunc func(acc *Out, item In)) Pipe[Out] {

	return Pipe[Out]{
		errors: p.errors,
		taps:   new([]func(Out)),
		seq: func(yield func(Out) bool) {
			var acc *Out
			var currentGroupKey K
			for i := range p.all() {
				k := keyFunc(i)
				if acc != nil && k != currentGroupKey {
					if !yield(*acc) {
						return
					}
					acc = nil
				}

				if acc == nil {
					// new group
					newAcc := initFunc(i)
					acc = &newAcc
				}

				currentGroupKey = k
				updateFunc(acc, i)
			}

			// yield the last group
			if acc != nil {
				yield(*acc)
			}
		},
	}
}
