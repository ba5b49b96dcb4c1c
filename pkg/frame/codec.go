package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/go-dnp3/dnp3go/internal/crc"
)

// Encode serializes f to its on-wire representation: start field,
// length, control, destination, source, header CRC, then one CRC'd
// 16-byte block per 16 bytes of data (the last block may be short).
func Encode(f Frame) ([]byte, error) {
	if len(f.Data) > maxDataBytes {
		return nil, fmt.Errorf("frame: %d data bytes exceeds max %d", len(f.Data), maxDataBytes)
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint16(header[0:2], startField)
	header[2] = byte(5 + len(f.Data))
	header[3] = controlByte(f.Header)
	binary.LittleEndian.PutUint16(header[4:6], f.Header.Destination)
	binary.LittleEndian.PutUint16(header[6:8], f.Header.Source)

	headerCRC := crc.Compute(header)

	out := make([]byte, 0, headerSize+2+len(f.Data)+2*((len(f.Data)+blockSize-1)/blockSize))
	out = append(out, header...)
	out = binary.LittleEndian.AppendUint16(out, headerCRC)

	for offset := 0; offset < len(f.Data); offset += blockSize {
		end := offset + blockSize
		if end > len(f.Data) {
			end = len(f.Data)
		}
		block := f.Data[offset:end]
		out = append(out, block...)
		out = binary.LittleEndian.AppendUint16(out, crc.Compute(block))
	}
	return out, nil
}

// Decode parses one frame from buf, which must contain exactly one
// frame's bytes (header + CRC'd data blocks). Callers that read from a
// stream are expected to first peek the length byte to know how many
// bytes to slice off before calling Decode; ReadOne wraps that step.
func Decode(buf []byte, localIsMaster bool) (Frame, error) {
	if len(buf) < minFrameLength {
		return Frame{}, ErrMissingFrameData
	}
	if binary.LittleEndian.Uint16(buf[0:2]) != startField {
		return Frame{}, ErrInvalidStartField
	}

	length := buf[2]
	if length < 5 || int(length)+5 < minFrameLength || int(length)+5 > maxFrameLength {
		return Frame{}, ErrInvalidFrameLength
	}
	dataLen := int(length) - 5

	if len(buf) < headerSize+2+dataLenBlocksSize(dataLen) {
		return Frame{}, ErrMissingFrameData
	}

	control := buf[3]
	h := Header{
		Master:          control&0x80 != 0,
		Primary:         control&0x40 != 0,
		DataLength:      length,
		Destination:     binary.LittleEndian.Uint16(buf[4:6]),
		Source:          binary.LittleEndian.Uint16(buf[6:8]),
	}
	if h.Primary {
		h.FrameCountBit = control&0x20 != 0
		h.FrameCountValid = control&0x10 != 0
	} else {
		h.DataFlowControl = control&0x20 != 0
	}
	h.Function = FunctionCode(control & 0x0F)

	if !isKnownFunction(h.Primary, h.Function) {
		return Frame{}, ErrUnknownFunctionCode
	}

	wantData := needsData(h.Primary, h.Function)
	if wantData && dataLen < 1 {
		return Frame{}, ErrUnexpectedFrameData
	}
	if !wantData && dataLen != 0 {
		return Frame{}, ErrUnexpectedFrameData
	}

	headerCRC := binary.LittleEndian.Uint16(buf[8:10])
	if !crc.Validate(buf[0:headerSize], headerCRC) {
		return Frame{}, ErrBadCRC
	}

	data := make([]byte, 0, dataLen)
	offset := headerSize + 2
	remaining := dataLen
	for remaining > 0 {
		n := remaining
		if n > blockSize {
			n = blockSize
		}
		block := buf[offset : offset+n]
		blockCRC := binary.LittleEndian.Uint16(buf[offset+n : offset+n+2])
		if !crc.Validate(block, blockCRC) {
			return Frame{}, ErrBadCRC
		}
		data = append(data, block...)
		offset += n + 2
		remaining -= n
	}

	f := Frame{Header: h, Data: data}
	if err := ValidateDirection(f, localIsMaster); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// ValidateDirection enforces that the DIR bit of a decoded frame is
// set exactly when the sender is a master. The local role tells us
// which direction an inbound frame should carry: a master's local
// link receives frames from outstations (DIR=0) and an outstation's
// local link receives frames from masters (DIR=1).
func ValidateDirection(f Frame, localIsMaster bool) error {
	senderIsMaster := f.Header.Master
	if localIsMaster == senderIsMaster {
		// A master receiving from a master, or an outstation receiving
		// from an outstation, is never valid on a point-to-point link.
		return ErrInvertedDirBit
	}
	return nil
}

// Size returns the total on-wire length of a frame carrying dataLen
// data bytes.
func Size(dataLen int) int {
	return headerSize + 2 + dataLenBlocksSize(dataLen)
}

func dataLenBlocksSize(dataLen int) int {
	if dataLen == 0 {
		return 0
	}
	blocks := (dataLen + blockSize - 1) / blockSize
	return dataLen + 2*blocks
}

// PeekLength inspects a raw byte at offset 2 of a candidate frame
// buffer (after the start field) and returns the total frame size, so
// a streaming reader knows how many more bytes to pull before calling
// Decode. It returns an error if the length byte is out of bounds.
func PeekLength(lengthByte byte) (int, error) {
	if lengthByte < 5 || int(lengthByte)+5 < minFrameLength || int(lengthByte)+5 > maxFrameLength {
		return 0, ErrInvalidFrameLength
	}
	dataLen := int(lengthByte) - 5
	return Size(dataLen), nil
}
