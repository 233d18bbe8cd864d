package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnisketch/drivergen/internal/templates"
)

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Work with driver templates",
	}
	exportCmd := &cobra.Command{
		Use:   "export <dir|pack.zip>",
		Short: "Write the built-in driver template for customization",
		Long: `Write the built-in driver template to <dir>/` + templates.FileName + `, or pack it
into a zip when the destination ends in .zip. Point the "template" setting at
the file or the pack to use it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := templates.Export(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", out)
			return nil
		},
	}
	cmd.AddCommand(exportCmd)
	return cmd
}
