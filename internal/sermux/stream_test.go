package sermux

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// mixedStream is a data packet between two control packets, followed by EOF.
func mixedStream() io.Reader {
	return bytes.NewReader([]byte{
		0x10, 0x05, // control: port_status alive+locked_by_me
		0x00, 0x00, 0x02, 0xAA, 0xBB, // data: 2-byte payload
		0x10, 0x04, // control: port_status alive
	})
}

func TestEach_DataOnly(t *testing.T) {
	var got []*DataPacket
	err := Each(mixedStream(), DataOnly, func(p Packet) {
		got = append(got, p.(*DataPacket))
	})
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if len(got) != 1 {
		t.Fatalf("yielded %d packets, want 1", len(got))
	}
	if !bytes.Equal(got[0].Payload, []byte{0xAA, 0xBB}) {
		t.Errorf("Payload = % X, want AA BB", got[0].Payload)
	}
}

func TestEach_ControlOnly(t *testing.T) {
	var got []*ControlPacket
	err := Each(mixedStream(), ControlOnly, func(p Packet) {
		got = append(got, p.(*ControlPacket))
	})
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if len(got) != 2 {
		t.Fatalf("yielded %d packets, want 2", len(got))
	}
	if got[1].Status == nil || !got[1].Status.Alive || got[1].Status.LockedByMe {
		t.Errorf("second status = %+v, want alive only", got[1].Status)
	}
}

func TestEach_NilFilterYieldsEverything(t *testing.T) {
	count := 0
	err := Each(mixedStream(), nil, func(Packet) { count++ })
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if count != 3 {
		t.Errorf("yielded %d packets, want 3", count)
	}
}

// Filtered-out packets must still be consumed whole, or the stream would
// desynchronize at the next read.
func TestEach_FilteredPacketsKeepAlignment(t *testing.T) {
	stream := bytes.NewReader([]byte{
		0x00, 0x00, 0x03, 0x10, 0x05, 0x00, // data packet whose payload looks like a control packet
		0x10, 0x07, // the real control packet
	})
	var got []*ControlPacket
	err := Each(stream, ControlOnly, func(p Packet) {
		got = append(got, p.(*ControlPacket))
	})
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if len(got) != 1 {
		t.Fatalf("yielded %d control packets, want 1", len(got))
	}
	want := PortStatus{Alive: true, LockedByOthers: true, LockedByMe: true}
	if got[0].Status == nil || *got[0].Status != want {
		t.Errorf("Status = %+v, want %+v", got[0].Status, want)
	}
}

func TestEach_PropagatesTruncation(t *testing.T) {
	stream := bytes.NewReader([]byte{
		0x10, 0x05, // complete control packet
		0x00, 0x00, 0x10, 0x01, // data packet truncated mid-payload
	})
	count := 0
	err := Each(stream, All, func(Packet) { count++ })
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
	if count != 1 {
		t.Errorf("yielded %d packets before the failure, want 1", count)
	}
}
