// Package frame implements the DNP3 data link frame codec: a fixed
// 10-byte header plus CRC'd 16-byte data blocks. See spec §4.1.
package frame

// FunctionCode is the 4-bit link-layer function code carried in the
// control byte. Interpretation depends on the PRM bit: primary-station
// codes and secondary-station codes share the numeric space but are
// disjoint sets.
type FunctionCode uint8

// Primary-station (PRM=1) function codes.
const (
	ResetLinkStates      FunctionCode = 0x00
	ResetUserProcess     FunctionCode = 0x01
	TestLinkStates       FunctionCode = 0x02
	ConfirmedUserData    FunctionCode = 0x03
	UnconfirmedUserData  FunctionCode = 0x04
	RequestLinkStatus    FunctionCode = 0x09
)

// Secondary-station (PRM=0) function codes.
const (
	ACK          FunctionCode = 0x00
	NACK         FunctionCode = 0x01
	LinkStatus   FunctionCode = 0x0B
	NotSupported FunctionCode = 0x0F
)

const (
	startField = uint16(0x0564) // on the wire (little-endian): 0x64 0x05

	minFrameLength = 10
	maxFrameLength = 292

	headerSize   = 8 // everything up to and including source, before header CRC
	blockSize    = 16
	maxDataBytes = 250 // 292 - 10 - (16 CRC bytes worth of overhead accounted separately)
)

// MaxDataBytes is the most user-data bytes a single data link frame
// may carry.
const MaxDataBytes = maxDataBytes

// MaxFrameLength is the largest on-wire frame this package will ever
// produce or accept (spec §3: "10 <= length <= 292" is the data-length
// byte's range, plus the 5 bytes that byte doesn't count).
const MaxFrameLength = maxFrameLength

// Header is the parsed 10-byte data link header (minus its own CRC,
// which is verified/produced by Encode/Decode).
type Header struct {
	Function        FunctionCode
	Primary         bool // PRM bit: true if this frame originates from the link's initiator for this exchange
	Master          bool // DIR bit: true if the ultimate sender is a master station
	FrameCountBit   bool // FCB
	FrameCountValid bool // FCV (primary frames only)
	DataFlowControl bool // DFC (secondary frames only)
	DataLength      uint8 // on-wire length byte: 5 + len(Data)
	Destination     uint16
	Source          uint16
}

// Frame is one decoded data link frame.
type Frame struct {
	Header Header
	Data   []byte // 0..250 bytes
}

// controlByte packs the header's direction/PRM/FCB/FCV/DFC bits and
// function code into the single on-wire control byte.
func controlByte(h Header) byte {
	var b byte
	if h.Master {
		b |= 0x80
	}
	if h.Primary {
		b |= 0x40
		if h.FrameCountBit {
			b |= 0x20
		}
		if h.FrameCountValid {
			b |= 0x10
		}
	} else {
		if h.DataFlowControl {
			b |= 0x20
		}
	}
	b |= byte(h.Function) & 0x0F
	return b
}

// primaryFunctionNames and secondaryFunctionNames back the lookup used
// while decoding: the PRM bit selects which of the two disjoint code
// spaces applies.
var primaryFunctionNames = map[FunctionCode]string{
	ResetLinkStates:     "RESET_LINK_STATES",
	ResetUserProcess:    "RESET_USER_PROCESS",
	TestLinkStates:      "TEST_LINK_STATES",
	ConfirmedUserData:   "CONFIRMED_USER_DATA",
	UnconfirmedUserData: "UNCONFIRMED_USER_DATA",
	RequestLinkStatus:   "REQUEST_LINK_STATUS",
}

var secondaryFunctionNames = map[FunctionCode]string{
	ACK:          "ACK",
	NACK:         "NACK",
	LinkStatus:   "LINK_STATUS",
	NotSupported: "NOT_SUPPORTED",
}

func isKnownFunction(primary bool, fc FunctionCode) bool {
	if primary {
		_, ok := primaryFunctionNames[fc]
		return ok
	}
	_, ok := secondaryFunctionNames[fc]
	return ok
}

// needsData reports whether the function code requires data_length >= 1
// (CONFIRMED_USER_DATA / UNCONFIRMED_USER_DATA); every other function
// code must carry zero data bytes. See spec §4.1 step 6.
func needsData(primary bool, fc FunctionCode) bool {
	return primary && (fc == ConfirmedUserData || fc == UnconfirmedUserData)
}

func (fc FunctionCode) String(primary bool) string {
	if primary {
		if s, ok := primaryFunctionNames[fc]; ok {
			return s
		}
	} else if s, ok := secondaryFunctionNames[fc]; ok {
		return s
	}
	return "UNKNOWN"
}
