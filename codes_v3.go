package rak811

// V3 firmware error codes that the driver itself raises. The remaining
// codes are reported by the module and only looked up for their message.
const (
	ErrCodeV3InvalidEvent = 998
	ErrCodeV3Unknown      = 999
)

var errorMessagesV3 = map[int]string{
	1:                     "Unsupported AT command",
	2:                     "Invalid parameter in AT command",
	3:                     "Error when reading or writing flash",
	4:                     "Error reading or writing IIC",
	5:                     "Error sending through UART",
	41:                    "BLE in invalid state",
	80:                    "LoRa busy",
	81:                    "LoRa service unknown",
	82:                    "Invalid LoRa parameters",
	83:                    "Invalid LoRa frequency",
	84:                    "Invalid LoRa datarate (DR)",
	85:                    "Invalid LoRa frequency and datarate",
	86:                    "Device has not joined LoRa network",
	87:                    "Packet length too long",
	88:                    "Service closed by server",
	89:                    "Unsupported region",
	90:                    "Restricted duty cycle",
	91:                    "No valid channel can be found",
	92:                    "No free channel found",
	93:                    "Status is error",
	94:                    "LoRa transmiting timeout",
	95:                    "LoRa RX1 timeout",
	96:                    "LoRa RX2 timeout",
	97:                    "Error receiving RX1",
	98:                    "Error receiving RX2",
	99:                    "LoRa join failed",
	100:                   "Repeated downlink",
	101:                   "Payload size error with transmit DR",
	102:                   "Too many downlink frames lost",
	103:                   "Address fail",
	104:                   "Error verifying MIC",
	ErrCodeV3InvalidEvent: "Invalid event received",
	ErrCodeV3Unknown:      "Unknown error",
}
