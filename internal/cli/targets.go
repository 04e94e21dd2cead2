package cli

import (
	"io"
	"os"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/core/domain"
	"golang.org/x/term"
)

const (
	defaultWidth = 80
	helpIndent   = "    "
)

func (c *CLI) newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "Print available target names and their help messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.printTargets(cmd)
		},
	}
}

func (c *CLI) printTargets(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	return PrintTargets(out, c.app.Targets(), terminalWidth(out))
}

// PrintTargets writes each target name followed by its help text, indented and wrapped to width.
// Targets are printed in the order given.
func PrintTargets(w io.Writer, targets []domain.TargetInfo, width int) error {
	var sb strings.Builder
	for _, t := range targets {
		help := t.Help
		if help == "" {
			help = "(No help message)"
		}

		sb.WriteString(t.Name)
		sb.WriteByte('\n')
		wrapped := wordwrap.String(help, max(width-len(helpIndent)-1, 1))
		for line := range strings.SplitSeq(wrapped, "\n") {
			sb.WriteString(helpIndent)
			sb.WriteString(strings.TrimRight(line, " "))
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// terminalWidth returns the width of the terminal w writes to, or a default when w is not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
