package sermux

import (
	"bytes"
	"strings"
	"testing"
)

func TestSessionHeaderMarshal_Defaults(t *testing.T) {
	hdr := NewSessionHeader("/dev/ttyS0")

	b, err := hdr.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := append([]byte{0x00, 0x01, 0x0A}, []byte("/dev/ttyS0")...)
	if !bytes.Equal(b, want) {
		t.Errorf("Marshal = % X, want % X", b, want)
	}
}

func TestSessionHeaderMarshal_ControlChannel(t *testing.T) {
	hdr := NewSessionHeader("ttyUSB0")
	hdr.TypeOfData = TypePortStatusOnly
	hdr.WantRxData = false

	b, err := hdr.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// SAP byte: type 1 in the upper nibble, no rx/tx/invalid bits.
	if b[1] != 0x10 {
		t.Errorf("SAP byte = 0x%02X, want 0x10", b[1])
	}
	if b[2] != 7 {
		t.Errorf("name length = %d, want 7", b[2])
	}
}

func TestSessionHeaderMarshal_SAPBits(t *testing.T) {
	tests := []struct {
		name string
		hdr  SessionHeader
		want byte
	}{
		{"rx only", SessionHeader{TypeOfData: TypePayload, WantRxData: true}, 0x01},
		{"tx only", SessionHeader{TypeOfData: TypePayload, WantTxData: true}, 0x02},
		{"invalids only", SessionHeader{TypeOfData: TypePayload, WantInvalids: true}, 0x04},
		{"hdlc dissected all bits", SessionHeader{
			TypeOfData: TypeHDLCDissected, WantRxData: true, WantTxData: true, WantInvalids: true,
		}, 0x47},
		{"hdlc raw", SessionHeader{TypeOfData: TypeHDLCRaw, WantRxData: true}, 0x31},
	}
	for _, tt := range tests {
		b, err := tt.hdr.Marshal()
		if err != nil {
			t.Fatalf("%s: Marshal failed: %v", tt.name, err)
		}
		if b[1] != tt.want {
			t.Errorf("%s: SAP byte = 0x%02X, want 0x%02X", tt.name, b[1], tt.want)
		}
	}
}

func TestSessionHeaderMarshal_EmptyName(t *testing.T) {
	b, err := SessionHeader{WantRxData: true}.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(b) != 3 {
		t.Errorf("len = %d, want 3", len(b))
	}
	if b[2] != 0 {
		t.Errorf("name length = %d, want 0", b[2])
	}
}

func TestSessionHeaderMarshal_NameTooLong(t *testing.T) {
	hdr := NewSessionHeader(strings.Repeat("x", 256))
	if _, err := hdr.Marshal(); err == nil {
		t.Fatal("Marshal accepted a 256-byte name, want error")
	}

	// 255 bytes is still within the length field.
	hdr = NewSessionHeader(strings.Repeat("x", 255))
	b, err := hdr.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed on 255-byte name: %v", err)
	}
	if b[2] != 255 {
		t.Errorf("name length = %d, want 255", b[2])
	}
}
