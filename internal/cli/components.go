package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treeflow/pkg/components"
)

// componentsCommand lists the registered component types.
func (c *CLI) componentsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "components",
		Aliases: []string{"types"},
		Short:   "List the available component types",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := components.Default()
			if asJSON {
				return writeStructured(cmd.OutOrStdout(), reg.Types(), printJSON)
			}
			fmt.Fprintln(cmd.OutOrStdout(), componentsTable(reg))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}
