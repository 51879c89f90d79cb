package rak811

import (
	"encoding/hex"
	"regexp"
	"strconv"
)

// Downlink is an inbound radio message delivered by the module as an
// asynchronous event.
type Downlink struct {
	// Port is the LoRaWAN port the message arrived on. Zero in P2P mode.
	Port int
	// RSSI of the received packet. Zero when the firmware reports
	// without signal data (recv_ex disabled).
	RSSI int
	// SNR of the received packet. Zero when absent, like RSSI.
	SNR int
	// Len is the payload length as reported by the module. Zero for
	// empty and confirmation-only messages.
	Len int
	// Data is the decoded payload. Nil when Len is zero or the hex
	// payload was unparseable.
	Data []byte
}

// parseDownlinkV2 decodes the status-stripped V2 event fields
// <port>[,<rssi>,<snr>],<len>[,<data>]. Whether signal data is present
// is disambiguated purely by field count.
func parseDownlinkV2(fields []string) *Downlink {
	pop := func() string {
		if len(fields) == 0 {
			return ""
		}
		head := fields[0]
		fields = fields[1:]
		return head
	}

	d := &Downlink{}
	d.Port, _ = strconv.Atoi(pop())
	if len(fields) > 2 {
		d.RSSI, _ = strconv.Atoi(pop())
		d.SNR, _ = strconv.Atoi(pop())
	}
	d.Len, _ = strconv.Atoi(pop())
	if d.Len > 0 && len(fields) > 0 {
		// Unparseable payload data degrades to an empty payload rather
		// than an error, matching firmware-observed behavior.
		if data, err := hex.DecodeString(fields[0]); err == nil {
			d.Data = data
		}
	}
	return d
}

// V3 event grammar. LoRaWAN events carry a port, P2P events omit it;
// payload data is colon-separated from the length.
var eventPatternV3 = regexp.MustCompile(`^(?:(\d+),)?(-?\d+),(-?\d+),(\d+)(?::(.*))?$`)

// parseDownlinkV3 decodes the combined V3 event grammar
// (<port>,)?<rssi>,<snr>,<len>(:<hex>)?. Reports false when the event
// does not match it.
func parseDownlinkV3(event string) (*Downlink, bool) {
	m := eventPatternV3.FindStringSubmatch(event)
	if m == nil {
		return nil, false
	}

	d := &Downlink{}
	if m[1] != "" {
		d.Port, _ = strconv.Atoi(m[1])
	}
	d.RSSI, _ = strconv.Atoi(m[2])
	d.SNR, _ = strconv.Atoi(m[3])
	d.Len, _ = strconv.Atoi(m[4])
	if d.Len > 0 && m[5] != "" {
		if data, err := hex.DecodeString(m[5]); err == nil {
			d.Data = data
		}
	}
	return d, true
}
