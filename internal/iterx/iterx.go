package iterx

import (
	"bufio"
	"bytes"
	"iter"
)

func FromSlice[T any](in []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range in {
			if !yield(item) {
				break
			}
		}
	}
}

// ScanLines is a bufio.SplitFunc like bufio.ScanLines that also ends a line
// at a lone '\r', so old Mac style files are read line by line. The
// terminator is not part of the token.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// '\r' as the last buffered byte may be the start of "\r\n"
		if i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}
		if i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Lines yields the tokens of s together with their 1-based position.
//
// Scanning stops at the first read error; callers must check s.Err()
// once iteration is over, exactly as with a plain bufio.Scanner loop.
func Lines(s *bufio.Scanner) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		n := 0
		for s.Scan() {
			n++
			if !yield(n, s.Text()) {
				break
			}
		}
	}
}
