// Command pipetab converts a pipe-delimited text file into a tab-delimited
// one, trimming the whitespace around every field.
//
// Usage:
//
//	pipetab [-i source] [-o destination] [--strict] [--encoding name]
//	pipetab check [-i source] [--strict]
//	pipetab version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KasperOmsK/pipetab"
	"github.com/KasperOmsK/pipetab/internal/config"
	"github.com/KasperOmsK/pipetab/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	ExitSuccess           = 0
	ExitFailure           = 1
	ExitInvalidInvocation = 2
)

// InvocationError reports flags or configuration that cannot be used.
type InvocationError struct {
	Message string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{Message: fmt.Sprintf(format, args...)}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return ExitInvalidInvocation
	}
	return ExitFailure
}

// app holds the state shared by every command of one invocation.
type app struct {
	// flags
	cfgFile      string
	input        string
	output       string
	encoding     string
	maxLineBytes int
	strict       bool
	verbose      bool
	logJSON      bool

	// executable resolves the running binary, for default paths.
	executable func() (string, error)

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pipetab",
		Short: "Convert a pipe-delimited file into a tab-delimited file",
		Long: `pipetab reads a pipe-delimited text file and writes a tab-delimited copy.

Every line is split on "|", the segment after the last pipe is dropped and
the remaining fields are trimmed of surrounding whitespace. Source lines are
expected to end with a trailing pipe; a line that does not loses its last
field (use --strict to reject such lines, or "pipetab check" to find them).

Without --input/--output the files default to data/raw/AviationData.txt and
data/raw/AviationDataCleaned.csv, two levels above the executable.`,
		Args:          noArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runConvert,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return invalidInvocationf("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "YAML config file")
	pf.StringVarP(&a.input, "input", "i", "", "source file (pipe-delimited)")
	pf.StringVar(&a.encoding, "encoding", "", "source encoding (utf-8, utf-8-bom, windows-1252, iso-8859-1, or any IANA name)")
	pf.IntVar(&a.maxLineBytes, "max-line-bytes", 0, "longest accepted source line in bytes")
	pf.BoolVar(&a.strict, "strict", false, "fail on lines without a trailing pipe")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&a.logJSON, "log-json", false, "JSON log output")
	root.Flags().StringVarP(&a.output, "output", "o", "", "destination file (tab-delimited)")

	root.AddCommand(newCheckCmd(a), newVersionCmd())
	return root
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return invalidInvocationf("unexpected argument %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

// setup resolves the configuration (flags over config file over defaults)
// and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	exe, err := a.executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	cfg := config.Default(exe)
	if a.cfgFile != "" {
		fileCfg, err := config.Load(a.cfgFile)
		if err != nil {
			return invalidInvocationf("%v", err)
		}
		cfg = cfg.Merge(fileCfg)
	}
	a.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return invalidInvocationf("invalid configuration: %v", err)
	}
	a.cfg = cfg

	if a.logger == nil {
		logger, err := logging.New(logging.Options{
			Verbose: cfg.Logging.Verbose,
			JSON:    cfg.Logging.JSON,
		})
		if err != nil {
			return err
		}
		a.logger = logger
	}
	a.logger.Debug("configuration resolved",
		zap.String("input", cfg.Input),
		zap.String("output", cfg.Output),
		zap.Bool("strict", cfg.Strict),
		zap.String("encoding", cfg.Encoding))
	return nil
}

// applyFlags overrides cfg with the flags set on the command line, so that
// an explicit --strict=false wins over "strict: true" in the config file.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input = a.input
	}
	if flags.Changed("output") {
		cfg.Output = a.output
	}
	if flags.Changed("encoding") {
		cfg.Encoding = a.encoding
	}
	if flags.Changed("max-line-bytes") {
		cfg.MaxLineBytes = a.maxLineBytes
	}
	if flags.Changed("strict") {
		cfg.Strict = a.strict
	}
	if flags.Changed("verbose") {
		cfg.Logging.Verbose = a.verbose
	}
	if flags.Changed("log-json") {
		cfg.Logging.JSON = a.logJSON
	}
}

func (a *app) options() []pipetab.Option {
	return append(a.cfg.Options(), pipetab.WithLogger(a.logger))
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	_, err := pipetab.ConvertFile(cmd.Context(), a.cfg.Input, a.cfg.Output, a.options()...)
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pipetab version",
		Args:  noArgs,
		// version needs neither configuration nor logging
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "pipetab", version)
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{executable: os.Executable}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "pipetab:", err)
	}
	return exitCode(err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
