package pipetab

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// FieldSeparator separates fields in a source line.
	FieldSeparator = "|"
	// OutputSeparator separates fields in a destination line.
	OutputSeparator = '\t'
)

var (
	// ErrMissingTrailingPipe is reported in strict mode for a source line
	// that does not end with FieldSeparator.
	ErrMissingTrailingPipe = errors.New("line does not end with a trailing pipe")

	// ErrInvalidUTF8 is reported for a source line that is not valid UTF-8
	// after decoding.
	ErrInvalidUTF8 = errors.New("line is not valid UTF-8")
)

// Line is a single source line without its terminator.
type Line struct {
	Number int
	Text   string
}

func (l Line) LineNumber() int { return l.Number }

// Record is the cleaned form of a source line.
type Record struct {
	Line   int
	Fields []string
	// TrailingPipe reports whether the source line followed the trailing
	// pipe convention. When false the last field of the line was dropped.
	TrailingPipe bool
}

func (r Record) LineNumber() int { return r.Line }

// SplitFields splits line on FieldSeparator, drops the final segment and
// trims surrounding whitespace from the remaining ones.
//
// The final segment is whatever follows the last separator, normally nothing.
// A line that breaks the trailing pipe convention therefore loses its last
// field:
//
//	SplitFields("A | B|C |") // ["A", "B", "C"]
//	SplitFields("X|Y")       // ["X"]
//	SplitFields("no pipes")  // []
func SplitFields(line string) []string {
	segments := strings.Split(line, FieldSeparator)
	fields := segments[:len(segments)-1]
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// HasTrailingPipe reports whether line, ignoring trailing whitespace, ends
// with FieldSeparator.
func HasTrailingPipe(line string) bool {
	return strings.HasSuffix(strings.TrimRightFunc(line, unicode.IsSpace), FieldSeparator)
}

// ParseLine converts a source line into a Record.
func ParseLine(l Line) Record {
	return Record{
		Line:         l.Number,
		Fields:       SplitFields(l.Text),
		TrailingPipe: HasTrailingPipe(l.Text),
	}
}

// AppendTSV appends the tab-separated, newline-terminated form of r to dst.
// A record with no fields is rendered as an empty line.
func (r Record) AppendTSV(dst []byte) []byte {
	for i, f := range r.Fields {
		if i > 0 {
			dst = append(dst, OutputSeparator)
		}
		dst = append(dst, f...)
	}
	return append(dst, '\n')
}

func (r Record) String() string {
	return string(r.AppendTSV(nil))
}

func validUTF8(l Line) (Line, error) {
	if !utf8.ValidString(l.Text) {
		return l, ErrInvalidUTF8
	}
	return l, nil
}

func requireTrailingPipe(l Line) (Line, error) {
	if !HasTrailingPipe(l.Text) {
		return l, ErrMissingTrailingPipe
	}
	return l, nil
}
