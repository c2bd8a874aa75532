package sermux

import "fmt"

// SessionHeader is the handshake message written once, as the first bytes, on
// every fresh daemon connection. It is the only way the daemon learns which
// port and which packet classes the connection is for.
type SessionHeader struct {
	Version      uint8
	TypeOfData   TypeOfData
	WantInvalids bool
	WantTxData   bool
	WantRxData   bool
	Port         string
}

// NewSessionHeader returns a header with protocol defaults: version 0,
// payload type-of-data, received data only.
func NewSessionHeader(port string) SessionHeader {
	return SessionHeader{TypeOfData: TypePayload, WantRxData: true, Port: port}
}

// Marshal builds the wire form: version byte, SAP byte, name length, name
// bytes. Port names longer than 255 bytes are rejected, never truncated.
func (h SessionHeader) Marshal() ([]byte, error) {
	name := []byte(h.Port)
	if len(name) > 255 {
		return nil, fmt.Errorf("sermux: port name too long (max 255 bytes, got %d)", len(name))
	}
	buf := make([]byte, 3+len(name))
	buf[0] = h.Version
	sap := byte(h.TypeOfData) << 4
	if h.WantRxData {
		sap |= sapWantRxData
	}
	if h.WantTxData {
		sap |= sapWantTxData
	}
	if h.WantInvalids {
		sap |= sapWantInvalids
	}
	buf[1] = sap
	buf[2] = byte(len(name))
	copy(buf[3:], name)
	return buf, nil
}
