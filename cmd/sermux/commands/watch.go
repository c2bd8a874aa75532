package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jhemmel/sermux/internal/device"
	"github.com/jhemmel/sermux/internal/sermux"
)

var watchCmd = &cobra.Command{
	Use:   "watch <portname>",
	Short: "prints port status changes until interrupted",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := interruptContext()
		defer cancel()

		err := device.With(args[0], func(s *device.Session) error {
			closeOnDone(ctx, s)
			return s.PortStatusChanged(func(st sermux.PortStatus) {
				pterm.Info.Printfln("%s: %s", args[0], st)
			})
		}, sessionOptions()...)
		if err != nil && ctx.Err() == nil {
			pterm.Error.Println(err)
		}
	},
}
