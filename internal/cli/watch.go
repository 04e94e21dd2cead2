package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [targets...]",
		Short: "Build the specified targets and rebuild them whenever a file changes",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to do.  (Use --help for usage information)")
				return nil
			}
			return c.app.Watch(cmd.Context(), args, c.runOptions(cmd))
		},
	}
	c.addBuildFlags(cmd)
	return cmd
}
