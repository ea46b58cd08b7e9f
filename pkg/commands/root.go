// Package commands builds the dotsmith command tree. The commands are a
// thin shell over the pipeline collaborator interface; everything they
// do is available programmatically.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/dotsmith/pkg/logging"
	"github.com/arthur-debert/dotsmith/pkg/pipeline"
)

var (
	verbosity int
	rootDir   string
)

// NewRootCmd builds the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dotsmith",
		Short: "Synthesize effective configs from base and overlay sources",
		Long: `dotsmith synthesizes effective configuration files from a base source
plus context-specific overlays, selected by {key=value} filters embedded
in file and directory names and matched against this machine's context
(os, arch, machine name, user, env).`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
		},
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", ".",
		"synthesis root directory")

	rootCmd.AddCommand(
		newSyncCmd(),
		newWatchCmd(),
		newStatusCmd(),
		newRestoreCmd(),
		newPurgeCmd(),
	)
	return rootCmd
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// newPipeline builds a pipeline for the configured root
func newPipeline() (*pipeline.Pipeline, error) {
	return pipeline.New(rootDir)
}
