package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buckleypaul/espfleet/internal/buildinfo"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(a.out, buildinfo.String())
		},
	}
}
