// Package sermux implements the wire protocol spoken by a serial-over-TCP
// multiplexing daemon: the per-connection session header, the framed packet
// stream and the control command vocabulary.
package sermux

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrUnsupported reports an attempt to marshal a packet variant this client
// never sends. The client is receive-only for data packets.
var ErrUnsupported = errors.New("sermux: packet type cannot be marshalled")

// ErrCommand reports an outbound control command outside the recognized
// vocabulary.
var ErrCommand = errors.New("sermux: unrecognized control command")

// Flags is the shared state carried by every packet, packed into the
// type/flags byte that starts each frame.
type Flags struct {
	ContentID ContentID
	Reliable  bool
	Invalid   bool
	WasSent   bool
}

func parseFlags(b byte) Flags {
	return Flags{
		ContentID: ContentID(b >> 4),
		Reliable:  b&flagReliable != 0,
		Invalid:   b&flagInvalid != 0,
		WasSent:   b&flagWasSent != 0,
	}
}

func (f Flags) wire() byte {
	b := byte(f.ContentID) << 4
	if f.Reliable {
		b |= flagReliable
	}
	if f.Invalid {
		b |= flagInvalid
	}
	if f.WasSent {
		b |= flagWasSent
	}
	return b
}

// describe renders the shared flags for debug output, e.g.
// "<- Data [reliable, valid]".
func (f Flags) describe(variant string) string {
	dir := "<-"
	if f.WasSent {
		dir = "->"
	}
	rel := "unreliable"
	if f.Reliable {
		rel = "reliable"
	}
	val := "valid"
	if f.Invalid {
		val = "invalid"
	}
	return fmt.Sprintf("%s %s [%s, %s]", dir, variant, rel, val)
}

// Packet is one framed daemon message. The concrete variants are DataPacket,
// ControlPacket and, for unregistered content ids, RawPacket.
type Packet interface {
	Flags() Flags
	Marshal() ([]byte, error)
	String() string

	setFlags(Flags)
}

// decoders maps content id to the variant body decoder. Populated once here,
// never mutated at runtime. A decoder reads exactly the variant's own bytes;
// the type/flags byte has already been consumed.
var decoders = map[ContentID]func(io.Reader) (Packet, error){
	ContentData:    decodeDataBody,
	ContentControl: decodeControlBody,
}

// ReadPacket reads and decodes exactly one packet from r, blocking until a
// full frame is available. A stream that ends mid-frame fails with io.EOF or
// io.ErrUnexpectedEOF.
//
// Content ids with no registered decoder yield a bodiless RawPacket. That is
// only sound while unregistered variants carry no body bytes; an unknown id
// with a body would leave the stream desynchronized.
func ReadPacket(r io.Reader) (Packet, error) {
	var hdr [1]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	flags := parseFlags(hdr[0])
	decode, ok := decoders[flags.ContentID]
	if !ok {
		return &RawPacket{flags: flags}, nil
	}
	pkt, err := decode(r)
	if err != nil {
		return nil, err
	}
	pkt.setFlags(flags)
	return pkt, nil
}

// --------------------------------------------------------------------------
// Data packets
// --------------------------------------------------------------------------

// DataPacket carries payload bytes read from (or echoed for) the serial port.
// Body on the wire: 2-byte big-endian length followed by the payload.
type DataPacket struct {
	flags   Flags
	Payload []byte
}

func decodeDataBody(r io.Reader) (Packet, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	payload := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return &DataPacket{Payload: payload}, nil
}

// Flags returns the shared type/flags fields.
func (p *DataPacket) Flags() Flags { return p.flags }

func (p *DataPacket) setFlags(f Flags) { p.flags = f }

// ContainsData reports whether the payload is non-empty.
func (p *DataPacket) ContainsData() bool { return len(p.Payload) > 0 }

// Marshal always fails: this client never sends data packets.
func (p *DataPacket) Marshal() ([]byte, error) {
	return nil, fmt.Errorf("%w: data packets are receive-only", ErrUnsupported)
}

func (p *DataPacket) String() string {
	return fmt.Sprintf("%s %d bytes", p.flags.describe("Data"), len(p.Payload))
}

// --------------------------------------------------------------------------
// Control packets
// --------------------------------------------------------------------------

// ControlPacket carries one command byte on the control channel. Status is
// populated on decode when the byte is a port_status indication.
type ControlPacket struct {
	flags   Flags
	Command Command
	Status  *PortStatus
}

// PortStatus is the daemon-reported availability and lock ownership of a
// serial port.
type PortStatus struct {
	Alive          bool
	LockedByOthers bool
	LockedByMe     bool
}

func (s PortStatus) String() string {
	return fmt.Sprintf("alive=%t locked_by_others=%t locked_by_me=%t",
		s.Alive, s.LockedByOthers, s.LockedByMe)
}

var outboundCommands = map[Command]string{
	CommandRelease:   "release",
	CommandLock:      "lock",
	CommandEcho:      "echo",
	CommandKeepAlive: "keep_alive",
	CommandKillPort:  "port_kill_request",
}

// Indication strips the per-command detail nibble, leaving the command group.
func (c Command) Indication() Command { return c & 0xF0 }

func (c Command) String() string {
	if name, ok := outboundCommands[c]; ok {
		return name
	}
	if c.Indication() == IndicationPortStatus {
		return "port_status"
	}
	return fmt.Sprintf("0x%02X", uint8(c))
}

// NewControlPacket builds an outbound control packet. Outbound packets always
// carry zeroed shared flags. Commands outside the outbound vocabulary are
// rejected with ErrCommand.
func NewControlPacket(cmd Command) (*ControlPacket, error) {
	if _, ok := outboundCommands[cmd]; !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrCommand, uint8(cmd))
	}
	return &ControlPacket{flags: Flags{ContentID: ContentControl}, Command: cmd}, nil
}

func decodeControlBody(r io.Reader) (Packet, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	p := &ControlPacket{flags: Flags{ContentID: ContentControl}, Command: Command(b[0])}
	if p.Command.Indication() == IndicationPortStatus {
		p.Status = &PortStatus{
			Alive:          b[0]&statusAlive != 0,
			LockedByOthers: b[0]&statusLockedByOthers != 0,
			LockedByMe:     b[0]&statusLockedByMe != 0,
		}
	}
	return p, nil
}

// Flags returns the shared type/flags fields.
func (p *ControlPacket) Flags() Flags { return p.flags }

func (p *ControlPacket) setFlags(f Flags) { p.flags = f }

// Marshal emits the type/flags byte followed by the command byte.
func (p *ControlPacket) Marshal() ([]byte, error) {
	return []byte{p.flags.wire(), byte(p.Command)}, nil
}

func (p *ControlPacket) String() string {
	s := fmt.Sprintf("%s %s", p.flags.describe("Control"), p.Command)
	if p.Status != nil {
		s += " " + p.Status.String()
	}
	return s
}

// --------------------------------------------------------------------------
// Unregistered content ids
// --------------------------------------------------------------------------

// RawPacket is a packet whose content id has no registered variant. It
// carries the shared flags and nothing else.
type RawPacket struct {
	flags Flags
}

// Flags returns the shared type/flags fields.
func (p *RawPacket) Flags() Flags { return p.flags }

func (p *RawPacket) setFlags(f Flags) { p.flags = f }

// Marshal always fails: there is no body layout to emit.
func (p *RawPacket) Marshal() ([]byte, error) {
	return nil, fmt.Errorf("%w: content id %d is not registered", ErrUnsupported, p.flags.ContentID)
}

func (p *RawPacket) String() string {
	return fmt.Sprintf("%s content=%d", p.flags.describe("Raw"), p.flags.ContentID)
}
