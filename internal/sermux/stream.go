package sermux

import "io"

// Filter selects which decoded packets Each yields.
type Filter func(Packet) bool

// All yields every packet.
func All(Packet) bool { return true }

// DataOnly yields data packets.
func DataOnly(p Packet) bool {
	_, ok := p.(*DataPacket)
	return ok
}

// ControlOnly yields control packets.
func ControlOnly(p Packet) bool {
	_, ok := p.(*ControlPacket)
	return ok
}

// Each decodes packets off r until the stream fails, delivering those that
// match filter to fn. Filtered-out packets are still fully consumed so the
// stream stays byte-aligned. The sequence is infinite and not restartable:
// the only way out is a stream error, which Each returns. To stop early,
// close the underlying stream from another goroutine.
//
// Reads go straight to r with no buffering, so a different reader can take
// over the stream between packets without stranding bytes.
func Each(r io.Reader, filter Filter, fn func(Packet)) error {
	if filter == nil {
		filter = All
	}
	for {
		pkt, err := ReadPacket(r)
		if err != nil {
			return err
		}
		if filter(pkt) {
			fn(pkt)
		}
	}
}
