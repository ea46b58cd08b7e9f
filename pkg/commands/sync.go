package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/dotsmith/pkg/pipeline"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one synthesis pass: scan, merge, copy, reconcile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := newPipeline()
			if err != nil {
				return err
			}
			result, err := pipe.Run()
			if err != nil {
				return err
			}
			printRun(result)
			if failures := result.Failures(); len(failures) > 0 {
				return fmt.Errorf("%d operation(s) failed", len(failures))
			}
			return nil
		},
	}
}

// printRun renders a run summary
func printRun(result *pipeline.RunResult) {
	for _, m := range result.Merges {
		switch {
		case m.Err != nil:
			pterm.Error.Printfln("%s: %v", m.Operation.OutputPath, m.Err)
		case m.Skipped:
			pterm.Debug.Printfln("%s: skipped (no sources)", m.Operation.OutputPath)
		case m.Changed:
			pterm.Success.Printfln("%s: written", m.Operation.OutputPath)
		default:
			pterm.Info.Printfln("%s: up to date", m.Operation.OutputPath)
		}
	}
	for _, c := range result.Copies {
		switch {
		case c.Err != nil:
			pterm.Error.Printfln("%s: %v", c.Operation.OutputPath, c.Err)
		case c.Changed:
			pterm.Success.Printfln("%s/: %d file(s) copied, %d unchanged",
				c.Operation.OutputPath, c.FilesWritten, c.FilesUnchanged)
		default:
			pterm.Info.Printfln("%s/: up to date", c.Operation.OutputPath)
		}
	}
	for _, p := range result.Reconcile.RenamedFiles {
		pterm.Warning.Printfln("%s: stale, soft-deleted", p)
	}
	for _, p := range result.Reconcile.RenamedDirectories {
		pterm.Warning.Printfln("%s/: stale, soft-deleted", p)
	}
	for _, err := range result.Reconcile.Errors {
		pterm.Error.Printfln("cleanup: %v", err)
	}
	if result.Scan.IsEmpty() {
		pterm.Info.Println("Nothing to synthesize")
	}
}
