package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jhemmel/sermux/internal/device"
)

var lockCmd = &cobra.Command{
	Use:   "lock <portname>",
	Short: "locks the port and holds it, with keep-alives, until interrupted",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := interruptContext()
		defer cancel()

		err := device.With(args[0], func(s *device.Session) error {
			if err := s.Lock(); err != nil {
				return err
			}
			pterm.Info.Printfln("lock requested for %s, holding until interrupted", args[0])

			ka := s.StartKeepAlive(ctx, time.Duration(cfg.KeepAliveSeconds)*time.Second)
			<-ctx.Done()
			ka.Stop()

			if err := s.Release(); err != nil {
				return err
			}
			pterm.Info.Printfln("released %s", args[0])
			return nil
		}, sessionOptions()...)
		if err != nil {
			pterm.Error.Println(err)
		}
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release <portname>",
	Short: "sends a single release command for the port",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := device.With(args[0], func(s *device.Session) error {
			return s.Release()
		}, sessionOptions()...)
		if err != nil {
			pterm.Error.Println(err)
			return
		}
		pterm.Info.Printfln("released %s", args[0])
	},
}
