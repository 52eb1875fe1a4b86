package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KasperOmsK/pipetab"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report the field layout of a source without converting it",
		Long: `Reads the source the way the conversion would and prints how many fields
each stretch of consecutive lines yields, and which lines lack the trailing
pipe (those lines would lose their last field when converted).

With --strict the command fails when any such line exists.

Example:
  pipetab check -i data/raw/AviationData.txt --strict`,
		Args: noArgs,
		RunE: a.runCheck,
	}
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	in, err := os.Open(a.cfg.Input)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	rep, err := pipetab.Inspect(cmd.Context(), in, a.options()...)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), a.cfg.Input, rep)

	if a.cfg.Strict && rep.ViolationCount > 0 {
		return fmt.Errorf("%d lines lack a trailing pipe: %w", rep.ViolationCount, pipetab.ErrMissingTrailingPipe)
	}
	return nil
}

func printReport(w io.Writer, name string, rep pipetab.Report) {
	fmt.Fprintf(w, "%s: %d lines\n", name, rep.Lines)
	if len(rep.Runs) > 0 {
		fmt.Fprintln(w, "field runs:")
		for _, run := range rep.Runs {
			span := fmt.Sprintf("%d-%d", run.First, run.Last)
			fmt.Fprintf(w, "  %-15s %d fields\n", span, run.Fields)
		}
	}

	if rep.ViolationCount == 0 {
		fmt.Fprintln(w, "trailing pipe: ok")
		return
	}

	nums := make([]string, len(rep.Violations))
	for i, n := range rep.Violations {
		nums[i] = fmt.Sprint(n)
	}
	more := ""
	if rep.ViolationCount > len(rep.Violations) {
		more = fmt.Sprintf(" (+%d more)", rep.ViolationCount-len(rep.Violations))
	}
	fmt.Fprintf(w, "trailing pipe missing on %d lines: %s%s\n",
		rep.ViolationCount, strings.Join(nums, ", "), more)
}
