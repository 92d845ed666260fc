// Command g3d renders a scene file through the g3d handler tree and prints
// allocation statistics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/g3d/backend"
	_ "github.com/gogpu/g3d/backend/recording"
	_ "github.com/gogpu/g3d/backend/wgpu"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "g3d",
		Short:         "Render scenes through reference-counted GPU resources",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCommand(), newBackendsCommand(), newVersionCommand())
	return root
}

func newBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List registered backends",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range backend.Available() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "g3d %s\n", version)
		},
	}
}
