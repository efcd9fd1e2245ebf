package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/corelgott/dotless/pkg/plugin"
	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List available plugins",
	Long:  "List the plugins that can be activated with --plugin or the plugins section of dotless.yaml.",
	RunE:  runPlugins,
}

func runPlugins(cmd *cobra.Command, args []string) error {
	reg := plugin.Default()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, name := range reg.Names() {
		fmt.Fprintf(w, "%s\t%s\n", name, reg.Description(name))
	}
	return w.Flush()
}
