package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Build the specified targets in order",
		Args:  cobra.ArbitraryArgs,
		RunE:  c.run,
	}
	c.addBuildFlags(cmd)
	return cmd
}

func (c *CLI) run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to do.  (Use --help for usage information)")
		return nil
	}
	return c.app.Run(cmd.Context(), args, c.runOptions(cmd))
}
