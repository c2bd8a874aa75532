package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jhemmel/sermux/internal/sermux"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "browses the local network for sermux daemons",
	Args:  cobra.MaximumNArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := interruptContext()
		defer cancel()

		daemons, err := sermux.Discover(ctx, discoverTimeout)
		if err != nil {
			pterm.Error.Println(err)
			return
		}
		if len(daemons) == 0 {
			pterm.Warning.Println("no daemons found")
			return
		}
		for _, d := range daemons {
			pterm.Info.Printfln("%s at %s:%d", d.Instance, d.Host, d.Port)
		}
	},
}
