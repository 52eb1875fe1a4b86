package pipetab_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KasperOmsK/pipetab"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func reformat(t *testing.T, in string, opts ...pipetab.Option) (string, pipetab.Stats, error) {
	t.Helper()
	var out bytes.Buffer
	stats, err := pipetab.Reformat(context.Background(), strings.NewReader(in), &out, opts...)
	return out.String(), stats, err
}

func TestReformat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"example", "A | B|C |\n", "A\tB\tC\n"},
		{"missing trailing pipe", "X|Y\n", "X\n"},
		{"empty input", "", ""},
		{"no final newline", "a|b|", "a\tb\n"},
		{"crlf", "a | b |\r\nc|d|\r\n", "a\tb\nc\td\n"},
		{"lone cr", "a|b|\rc|d|\r", "a\tb\nc\td\n"},
		{"mixed terminators", "a|\r\nb|\rc|\n", "a\nb\nc\n"},
		{"blank line kept", "a|\n\nb|\n", "a\n\nb\n"},
		{"line without pipe", "header\na|b|\n", "\na\tb\n"},
		{"tabs inside fields", "\ta\t|\tb\t|\n", "a\tb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := reformat(t, tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestReformat_PreservesLineCount(t *testing.T) {
	in := "a|b|\n\n c |\nno pipe\n|||\nX|Y\n"

	got, stats, err := reformat(t, in)
	require.NoError(t, err)

	require.Equal(t, strings.Count(in, "\n"), strings.Count(got, "\n"))
	require.Equal(t, 6, stats.Lines)
	require.Equal(t, 2, stats.EmptyRecords)
	require.Equal(t, 3, stats.MissingTrailingPipe)
	require.Equal(t, 2+0+1+0+3+1, stats.Fields)

	for _, field := range strings.FieldsFunc(got, func(r rune) bool { return r == '\t' || r == '\n' }) {
		require.Equal(t, strings.TrimSpace(field), field)
	}
}

func TestReformat_NotIdempotent(t *testing.T) {
	once, _, err := reformat(t, "A | B|C |\n")
	require.NoError(t, err)

	twice, _, err := reformat(t, once)
	require.NoError(t, err)

	require.NotEqual(t, once, twice)
	require.Equal(t, "\n", twice)
}

func TestReformat_Strict(t *testing.T) {
	got, stats, err := reformat(t, "a|b|\nX|Y\nc|\n", pipetab.WithStrict(true))

	require.ErrorIs(t, err, pipetab.ErrMissingTrailingPipe)

	var pe pipetab.PipelineError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, 2, pe.Line)

	// nothing is flushed from a failed run
	require.Empty(t, got)

	// the run stops at line 2: line 3 is never converted
	require.Equal(t, 1, stats.Lines)
	require.Equal(t, 0, stats.MissingTrailingPipe)
}

func TestReformat_StopsAtFirstLineError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	in := "ok|\nbad\xff|\nlater|\nmore|\n"
	_, stats, err := reformat(t, in, pipetab.WithLogger(zap.New(core)))

	require.ErrorIs(t, err, pipetab.ErrInvalidUTF8)
	require.Equal(t, 1, stats.Lines)

	records := logs.FilterMessage("record").All()
	require.Len(t, records, 1)
	require.Equal(t, int64(1), records[0].ContextMap()["line"])
}

func TestReformat_CarriageReturnLines(t *testing.T) {
	got, stats, err := reformat(t, "a|b|\rc|d|\r")
	require.NoError(t, err)
	require.Equal(t, "a\tb\nc\td\n", got)
	require.Equal(t, 2, stats.Lines)
}

func TestReformat_StrictAcceptsConformingInput(t *testing.T) {
	got, _, err := reformat(t, "a|b|\n c |  \n", pipetab.WithStrict(true))
	require.NoError(t, err)
	require.Equal(t, "a\tb\nc\n", got)
}

func TestReformat_InvalidUTF8(t *testing.T) {
	_, _, err := reformat(t, "ok|\nbad\xff|\n")

	require.ErrorIs(t, err, pipetab.ErrInvalidUTF8)
	require.ErrorContains(t, err, "line 2")
}

func TestReformat_Encoding(t *testing.T) {
	got, _, err := reformat(t, "caf\xe9 | na\xefve |\n", pipetab.WithEncoding("windows-1252"))
	require.NoError(t, err)
	require.Equal(t, "café\tnaïve\n", got)

	got, _, err = reformat(t, "\xef\xbb\xbfa|b|\n", pipetab.WithEncoding("utf-8-bom"))
	require.NoError(t, err)
	require.Equal(t, "a\tb\n", got)
}

func TestReformat_UnknownEncoding(t *testing.T) {
	_, _, err := reformat(t, "a|\n", pipetab.WithEncoding("nope-42"))
	require.Error(t, err)
}

func TestReformat_LineTooLong(t *testing.T) {
	_, _, err := reformat(t, strings.Repeat("x", 100)+"|\n", pipetab.WithMaxLineBytes(16))
	require.ErrorContains(t, err, "longer than 16 bytes")
}

func TestReformat_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := pipetab.Reformat(ctx, strings.NewReader("a|\nb|\n"), &out)
	require.ErrorIs(t, err, context.Canceled)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestReformat_WriteError(t *testing.T) {
	_, err := pipetab.Reformat(context.Background(), strings.NewReader("a|\n"), failingWriter{})
	require.ErrorContains(t, err, "disk full")
}

func TestReformat_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	_, _, err := reformat(t, "a|\nb\n", pipetab.WithLogger(zap.New(core)))
	require.NoError(t, err)

	require.Equal(t, 2, logs.FilterMessage("record").Len())

	warn := logs.FilterMessage("lines without trailing pipe lost their last field").All()
	require.Len(t, warn, 1)
	require.Equal(t, int64(1), warn[0].ContextMap()["count"])
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "AviationData.txt")
	dst := filepath.Join(dir, "AviationDataCleaned.csv")
	require.NoError(t, os.WriteFile(src, []byte("Event Id | Year |\n20001218X45444 | 1948 |\n"), 0o644))

	stats, err := pipetab.ConvertFile(context.Background(), src, dst)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Lines)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "Event Id\tYear\n20001218X45444\t1948\n", string(data))
}

func TestConvertFile_EmptySource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	dst := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	_, err := pipetab.ConvertFile(context.Background(), src, dst)
	require.NoError(t, err)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func TestConvertFile_FailureKeepsDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	dst := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(src, []byte("a|\nb\n"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("previous\n"), 0o644))

	_, err := pipetab.ConvertFile(context.Background(), src, dst, pipetab.WithStrict(true))
	require.ErrorIs(t, err, pipetab.ErrMissingTrailingPipe)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "previous\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestConvertFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := pipetab.ConvertFile(context.Background(), filepath.Join(dir, "nope.txt"), filepath.Join(dir, "out.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
	require.NoFileExists(t, filepath.Join(dir, "out.csv"))
}
