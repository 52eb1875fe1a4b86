package pipetab

import (
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
)

// Pipe is a lazily-evaluated stream of values of type T together with the
// error channel shared by every stage derived from it.
//
// A Pipe does nothing until one of its terminal methods (Values or Results)
// is iterated.
type Pipe[T any] struct {
	seq    iter.Seq[T]
	errors *errSink
	taps   *[]func(T)
}

// PipelineError is reported on a Pipe's error channel when a stage fails
// for a given item. The item is dropped from the stream.
type PipelineError struct {
	// Item is the input value the failing stage received.
	Item any
	// Line is the 1-based source line the item came from, or 0 when the
	// item does not carry a line number.
	Line int
	// Reason is the error returned by the stage.
	Reason error
}

func (e PipelineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Reason)
	}
	return fmt.Sprintf("item %v: %v", e.Item, e.Reason)
}

func (e PipelineError) Unwrap() error {
	return e.Reason
}

// numbered is implemented by items that know which source line they came from.
type numbered interface {
	LineNumber() int
}

func newPipelineError(item any, reason error) PipelineError {
	pe := PipelineError{Item: item, Reason: reason}
	if n, ok := item.(numbered); ok {
		pe.Line = n.LineNumber()
	}
	return pe
}

type errSink struct {
	ch   chan PipelineError
	once sync.Once
	// failed is set before the first error is sent, so a consumer iterating
	// the values sees it for every value yielded after that error.
	failed atomic.Bool
}

func (s *errSink) send(pe PipelineError) {
	s.failed.Store(true)
	s.ch <- pe
}

func (s *errSink) close() {
	s.once.Do(func() { close(s.ch) })
}

// failed reports whether any stage of the pipe has reported an error so far.
func (p Pipe[T]) failed() bool {
	return p.errors.failed.Load()
}

// From wraps seq into a new Pipe with its own error channel.
func From[T any](seq iter.Seq[T]) Pipe[T] {
	return Pipe[T]{
		seq:    seq,
		errors: &errSink{ch: make(chan PipelineError)},
		taps:   new([]func(T)),
	}
}

// Tap registers fn to be called with every value of the pipe, before the
// value is handed to the next stage. Tap functions are called in the order
// they were registered.
//
// Taps are attached to p itself, so registering a tap after a downstream
// stage was built still affects that stage.
//
// Tap panics if fn is nil.
func (p Pipe[T]) Tap(fn func(T)) Pipe[T] {
	if fn == nil {
		panic("pipetab.Tap: nil tap function")
	}
	*p.taps = append(*p.taps, fn)
	return p
}

// all is the pipe's sequence with its taps applied. It is evaluated at
// iteration time.
func (p Pipe[T]) all() iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range p.seq {
			for _, tap := range *p.taps {
				tap(v)
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Values returns the pipe's values, discarding every error.
func (p Pipe[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		drained := make(chan struct{})
		go func() {
			for range p.errors.ch {
			}
			close(drained)
		}()
		defer func() {
			p.errors.close()
			<-drained
		}()

		for v := range p.all() {
			if !yield(v) {
				return
			}
		}
	}
}

// Results converts the pipe back into an iter.Seq of values and a channel of
// errors.
//
// The error channel is unbuffered: it *must* be consumed concurrently with
// the values, otherwise the first failing stage blocks the pipeline. The
// channel is closed once iteration of the values ends, whether the sequence
// was exhausted or the consumer stopped early.
//
// The returned sequence must be iterated exactly once.
func (p Pipe[T]) Results() (iter.Seq[T], <-chan PipelineError) {
	vals := func(yield func(T) bool) {
		defer p.errors.close()
		for v := range p.all() {
			if !yield(v) {
				return
			}
		}
	}
	return vals, p.errors.ch
}
