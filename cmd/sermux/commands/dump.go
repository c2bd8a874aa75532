package commands

import (
	"encoding/hex"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jhemmel/sermux/internal/device"
	"github.com/jhemmel/sermux/internal/sermux"
)

var (
	dumpAll      bool
	dumpHex      bool
	dumpType     string
	dumpTx       bool
	dumpInvalids bool
)

var dataTypes = map[string]sermux.TypeOfData{
	"payload":        sermux.TypePayload,
	"raw":            sermux.TypePayloadRaw,
	"hdlc-raw":       sermux.TypeHDLCRaw,
	"hdlc-dissected": sermux.TypeHDLCDissected,
}

var dumpCmd = &cobra.Command{
	Use:   "dump <portname>",
	Short: "prints packets received on the data channel until interrupted",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		typeOfData, ok := dataTypes[dumpType]
		if !ok {
			pterm.Error.Printfln("unknown data type %q", dumpType)
			return
		}

		opts := sessionOptions()
		opts = append(opts, device.WithTypeOfData(typeOfData))
		if dumpTx {
			opts = append(opts, device.WithTxData())
		}
		if dumpInvalids {
			opts = append(opts, device.WithInvalids())
		}

		ctx, cancel := interruptContext()
		defer cancel()

		err := device.With(args[0], func(s *device.Session) error {
			closeOnDone(ctx, s)
			if dumpAll {
				return s.EachPacket(printPacket)
			}
			return s.EachDataPacket(func(p *sermux.DataPacket) { printPacket(p) })
		}, opts...)
		if err != nil && ctx.Err() == nil {
			pterm.Error.Println(err)
		}
	},
}

func printPacket(p sermux.Packet) {
	pterm.Println(p.String())
	if dumpHex {
		if dp, ok := p.(*sermux.DataPacket); ok && dp.ContainsData() {
			pterm.Println("   " + hex.EncodeToString(dp.Payload))
		}
	}
}
