package commands

import (
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/dotsmith/pkg/cleanup"
)

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Permanently delete every soft-deleted entry under the root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(rootDir)
			if err != nil {
				return err
			}
			removed, err := cleanup.Purge(root)
			for _, p := range removed {
				pterm.Info.Printfln("Purged %s", p)
			}
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				pterm.Info.Println("Nothing to purge")
			}
			return nil
		},
	}
}
