package rak811

// V2 firmware command error codes.
const (
	ErrCodeArg         = -1
	ErrCodeArgNotFound = -2
	ErrCodeJoinABP     = -3
	ErrCodeJoinOTAA    = -4
	ErrCodeNotJoined   = -5
	ErrCodeMACBusy     = -6
	ErrCodeTx          = -7
	ErrCodeInternal    = -8
	ErrCodeWriteConfig = -11
	ErrCodeReadConfig  = -12
	ErrCodeTxLenLimit  = -13
	ErrCodeUnknown     = -20
)

var errorMessagesV2 = map[int]string{
	ErrCodeArg:         "Invalid argument",
	ErrCodeArgNotFound: "Argument not found",
	ErrCodeJoinABP:     "ABP join error",
	ErrCodeJoinOTAA:    "OTAA join error",
	ErrCodeNotJoined:   "Not joined",
	ErrCodeMACBusy:     "MAC busy",
	ErrCodeTx:          "Transmit error",
	ErrCodeInternal:    "Inter error",
	ErrCodeWriteConfig: "Write configuration error",
	ErrCodeReadConfig:  "Read configuration Error",
	ErrCodeTxLenLimit:  "Transmit len limit error",
	ErrCodeUnknown:     "Unknown error",
}

// V2 firmware event status codes.
const (
	EventRecvData         = 0
	EventTxConfirmed      = 1
	EventTxUnconfirmed    = 2
	EventJoinedSuccess    = 3
	EventJoinedFailed     = 4
	EventTxTimeout        = 5
	EventRx2Timeout       = 6
	EventDownlinkRepeated = 7
	EventWakeUp           = 8
	EventP2PTxComplete    = 9
	EventUnknown          = 100
)

var eventMessagesV2 = map[int]string{
	EventRecvData:         "Received data",
	EventTxConfirmed:      "Tx confirmed",
	EventTxUnconfirmed:    "Tx unconfirmed",
	EventJoinedSuccess:    "Join succeeded",
	EventJoinedFailed:     "Join failed",
	EventTxTimeout:        "Tx timeout",
	EventRx2Timeout:       "Rx2 timeout",
	EventDownlinkRepeated: "Downlink repeated",
	EventWakeUp:           "Wake up",
	EventP2PTxComplete:    "P2P tx complete",
	EventUnknown:          "Unknown",
}
