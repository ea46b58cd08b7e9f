package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what a sync would do without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := newPipeline()
			if err != nil {
				return err
			}
			scan, err := pipe.Scan()
			if err != nil {
				return err
			}

			ctx := pipe.Context()
			pterm.Info.Printfln("Context: os=%s arch=%s machine=%s user=%s env=%s",
				ctx.OS, ctx.Arch, ctx.Machine, ctx.User, ctx.Env)

			if scan.IsEmpty() {
				pterm.Info.Println("Nothing to synthesize")
				return nil
			}

			rows := pterm.TableData{{"Output", "Base", "Overlay", "Format"}}
			for _, op := range scan.Merges {
				rows = append(rows, []string{
					op.OutputPath, orDash(op.BasePath), orDash(op.OverlayPath), string(op.Format),
				})
			}
			for _, op := range scan.DirectoryCopies {
				rows = append(rows, []string{op.OutputPath + "/", "-", op.SourcePath + "/", "copy"})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
