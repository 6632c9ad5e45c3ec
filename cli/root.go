package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewRootCmd is the a64map binary.
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "a64map",
		Short:         "Map the AArch64 encoding space",
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	a.addPersistentFlags(root)
	a.hooks(root)
	root.SetOut(out)

	root.AddCommand(
		a.createCmd(),
		a.classifyCmd(),
		a.summaryCmd(),
		a.diffCmd(),
		a.genCmd(),
		a.verifyCmd(),
		a.statsCmd(),
		a.mapCmd(),
		a.visCmd(),
		a.chartCmd(),
		a.exploreCmd(),
		a.checksumCmd(),
		a.versionCmd(),
	)
	return root
}
