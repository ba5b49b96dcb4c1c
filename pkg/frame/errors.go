package frame

import "errors"

// Decode/encode failures. These are ProtocolError-kind sentinels per
// the error taxonomy: a frame decode failure drops the in-progress
// frame but never closes the connection by itself.
var (
	ErrInvalidStartField   = errors.New("frame: invalid start field")
	ErrInvalidFrameLength  = errors.New("frame: length byte out of [10,292] bounds")
	ErrBadCRC              = errors.New("frame: crc mismatch")
	ErrInvertedDirBit      = errors.New("frame: DIR bit disagrees with sender role")
	ErrUnexpectedFrameData = errors.New("frame: data present/absent disagrees with function code")
	ErrUnknownFunctionCode = errors.New("frame: unrecognized function code for PRM bit")
	ErrMissingFrameData    = errors.New("frame: buffer too short for declared length")
)
