package sermux

// Default daemon address.
const (
	DefaultHost = "localhost"
	DefaultPort = 36962
)

// TypeOfData selects which representation of the serial traffic a connection
// subscribes to. It occupies the upper nibble of the SAP byte.
type TypeOfData uint8

const (
	TypePayload        TypeOfData = 0 // decoded payload bytes
	TypePortStatusOnly TypeOfData = 1 // no data, status indications only
	TypePayloadRaw     TypeOfData = 2 // payload without link-layer processing
	TypeHDLCRaw        TypeOfData = 3 // raw HDLC frames
	TypeHDLCDissected  TypeOfData = 4 // HDLC frames split at flag boundaries
)

// SAP byte bits (session header byte 1).
const (
	sapWantRxData   = 1 << 0
	sapWantTxData   = 1 << 1
	sapWantInvalids = 1 << 2
)

// ContentID tags the packet variant in the upper nibble of the type/flags byte.
type ContentID uint8

const (
	ContentData    ContentID = 0
	ContentControl ContentID = 1
)

// Type/flags byte bits.
const (
	flagWasSent  = 1 << 0
	flagInvalid  = 1 << 1
	flagReliable = 1 << 2
)

// Command is a control channel command byte. The upper nibble selects the
// command group; the lower nibble carries per-command detail (the lock bit
// for lock/release, the status bits for port_status indications).
type Command uint8

// Outbound command vocabulary.
const (
	CommandRelease   Command = 0x00
	CommandLock      Command = 0x01
	CommandEcho      Command = 0x10
	CommandKeepAlive Command = 0x20
	CommandKillPort  Command = 0x30
)

// Inbound indication groups (upper nibble of the command byte).
const (
	IndicationPortStatus Command = 0x00
	IndicationEcho       Command = 0x10
	IndicationKeepAlive  Command = 0x20
)

// Port status bits (lower nibble of a port_status indication byte).
const (
	statusLockedByMe     = 1 << 0
	statusLockedByOthers = 1 << 1
	statusAlive          = 1 << 2
)
