package app

// FunctionCode identifies the operation an application fragment
// requests or responds to. See spec §4.4.
type FunctionCode uint8

const (
	FCConfirm         FunctionCode = 0x00
	FCRead            FunctionCode = 0x01
	FCWrite           FunctionCode = 0x02
	FCSelect          FunctionCode = 0x03
	FCOperate         FunctionCode = 0x04
	FCDirectOperate    FunctionCode = 0x05
	FCDirectOperateNoAck FunctionCode = 0x06
	FCFreezeClear     FunctionCode = 0x09
	FCColdRestart     FunctionCode = 0x0D
	FCWarmRestart     FunctionCode = 0x0E
	FCDelayMeasure    FunctionCode = 0x17
	FCRecordCurrentTime FunctionCode = 0x18
	FCEnableUnsolicited  FunctionCode = 0x14
	FCDisableUnsolicited FunctionCode = 0x15
	FCAssignClass     FunctionCode = 0x16
	FCAuthRequest     FunctionCode = 0x20
	FCAuthResponse    FunctionCode = 0x83

	FCResponse          FunctionCode = 0x81
	FCUnsolicitedResponse FunctionCode = 0x82
)

var functionNames = map[FunctionCode]string{
	FCConfirm:            "CONFIRM",
	FCRead:               "READ",
	FCWrite:              "WRITE",
	FCSelect:             "SELECT",
	FCOperate:            "OPERATE",
	FCDirectOperate:      "DIRECT_OPERATE",
	FCDirectOperateNoAck: "DIRECT_OPERATE_NO_ACK",
	FCFreezeClear:        "FREEZE_CLEAR",
	FCColdRestart:        "COLD_RESTART",
	FCWarmRestart:        "WARM_RESTART",
	FCDelayMeasure:       "DELAY_MEASURE",
	FCRecordCurrentTime:  "RECORD_CURRENT_TIME",
	FCEnableUnsolicited:  "ENABLE_UNSOLICITED",
	FCDisableUnsolicited: "DISABLE_UNSOLICITED",
	FCAssignClass:        "ASSIGN_CLASS",
	FCAuthRequest:        "AUTH_REQUEST",
	FCAuthResponse:       "AUTH_RESPONSE",
	FCResponse:           "RESPONSE",
	FCUnsolicitedResponse: "UNSOLICITED_RESPONSE",
}

func (fc FunctionCode) String() string {
	if name, ok := functionNames[fc]; ok {
		return name
	}
	return "UNKNOWN"
}

// NeedsValues reports whether fc's request carries object instances
// with values (as opposed to a bare qualifier/range selecting which
// points to report, e.g. READ).
func (fc FunctionCode) NeedsValues() bool {
	switch fc {
	case FCWrite, FCSelect, FCOperate, FCDirectOperate, FCDirectOperateNoAck, FCAssignClass:
		return true
	default:
		return false
	}
}

// IsResponse reports whether fc marks a fragment as a response
// (solicited or unsolicited).
func (fc FunctionCode) IsResponse() bool {
	return fc == FCResponse || fc == FCUnsolicitedResponse
}
