package rak811

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/edgekit/rak811/at"
)

// lineConn is the line-level surface the protocol layers drive. It is
// satisfied by *Conn.
type lineConn interface {
	SendString(s string) error
	SendCommand(command string) error
	Receive(timeout time.Duration) (string, error)
	ReceiveBatch(timeout time.Duration) ([]string, error)
	Close() error
}

// Mode is the module operation mode.
type Mode int

const (
	ModeLoRaWan Mode = 0
	ModeLoRaP2P Mode = 1
)

// Reset selects what a reset command restarts.
type Reset int

const (
	ResetModule Reset = 0
	ResetLoRa   Reset = 1
)

// Device drives a module running V2 firmware (2.x). All methods are
// blocking and must be called from a single goroutine; the AT protocol
// serves one command at a time.
type Device struct {
	conn    lineConn
	markers at.Markers

	downlink []*Downlink
}

// New opens the configured transport and returns a V2 device. The
// dialect markers are fixed by the firmware generation and any
// configured values are ignored.
func New(config Config) (*Device, error) {
	config.Markers = at.DialectV2()
	config.KeepUntagged = false

	conn, err := Open(config)
	if err != nil {
		return nil, err
	}
	return &Device{conn: conn, markers: config.Markers}, nil
}

// Close releases the underlying connection. Safe to call twice.
func (d *Device) Close() error {
	return d.conn.Close()
}

// sendCommand issues an AT command and returns the response payload,
// with the success marker stripped. An error-marker response maps to a
// *ResponseError carrying the module's error code.
func (d *Device) sendCommand(command string) (string, error) {
	if err := d.conn.SendCommand(command); err != nil {
		return "", err
	}

	response, err := d.conn.Receive(0)
	if err != nil {
		return "", err
	}
	// Skip events received while waiting on command feedback.
	for strings.HasPrefix(response, d.markers.Event) {
		if response, err = d.conn.Receive(0); err != nil {
			return "", err
		}
	}

	switch {
	case strings.HasPrefix(response, d.markers.OK):
		return strings.TrimPrefix(response, d.markers.OK), nil
	case strings.HasPrefix(response, d.markers.Error):
		return "", newResponseError(strings.TrimPrefix(response, d.markers.Error), errorMessagesV2, ErrCodeUnknown)
	default:
		return "", newResponseError(response, errorMessagesV2, ErrCodeUnknown)
	}
}

// getEvents waits for asynchronous events and returns them with the
// event marker stripped.
func (d *Device) getEvents(timeout time.Duration) ([]string, error) {
	batch, err := d.conn.ReceiveBatch(timeout)
	if err != nil {
		return nil, err
	}
	events := make([]string, 0, len(batch))
	for _, line := range batch {
		events = append(events, strings.TrimPrefix(line, d.markers.Event))
	}
	return events, nil
}

// splitEvent separates the status field from the rest of an event.
func splitEvent(event string) (status string, fields []string) {
	parts := strings.Split(event, ",")
	return parts[0], parts[1:]
}

// processEvents drains the event queue, appending received-data events
// to the downlink buffer. Downlinks are collected before any error is
// raised so that data arriving alongside a failure is not lost.
func (d *Device) processEvents(timeout time.Duration) error {
	events, err := d.getEvents(timeout)
	if err != nil {
		return err
	}
	for _, event := range events {
		status, fields := splitEvent(event)
		if code, err := strconv.Atoi(status); err == nil && code == EventRecvData {
			d.downlink = append(d.downlink, parseDownlinkV2(fields))
		}
	}
	for _, event := range events {
		status, _ := splitEvent(event)
		code, err := strconv.Atoi(status)
		if err != nil || (code != EventRecvData && code != EventTxConfirmed && code != EventTxUnconfirmed) {
			return newEventError(status, eventMessagesV2, EventUnknown)
		}
	}
	return nil
}

// parseInts splits a comma-separated response into want integers.
func parseInts(response string, want int) ([]int, error) {
	fields := strings.Split(response, ",")
	if len(fields) != want {
		return nil, fmt.Errorf("expected %d fields in response %q, got %d", want, response, len(fields))
	}
	values := make([]int, want)
	for i, field := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("parse response %q: %w", response, err)
		}
		values[i] = v
	}
	return values, nil
}

// Version returns the firmware version string.
func (d *Device) Version() (string, error) {
	return d.sendCommand("version")
}

// Sleep puts the module in sleep mode.
func (d *Device) Sleep() error {
	_, err := d.sendCommand("sleep")
	return err
}

// WakeUp wakes the module from sleep. Any character does it; the
// module acknowledges with a wake-up event rather than a response.
func (d *Device) WakeUp() error {
	if err := d.conn.SendString("*"); err != nil {
		return err
	}
	_, err := d.getEvents(0)
	return err
}

// Reset restarts the module or just its LoRa stack. After a full
// module reset the device needs a hardware reset before it resumes;
// pulling the reset line is out of scope for a pure serial driver.
func (d *Device) Reset(mode Reset) error {
	_, err := d.sendCommand(fmt.Sprintf("reset=%d", mode))
	return err
}

// Reload restores the LoRaWan and LoraP2P configuration defaults.
func (d *Device) Reload() error {
	_, err := d.sendCommand("reload")
	return err
}

// Mode returns the module operation mode.
func (d *Device) Mode() (Mode, error) {
	response, err := d.sendCommand("mode")
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(response)
	return Mode(v), err
}

// SetMode switches between LoRaWan and LoraP2P operation.
func (d *Device) SetMode(mode Mode) error {
	_, err := d.sendCommand(fmt.Sprintf("mode=%d", mode))
	return err
}

// RecvEx reports whether RSSI and SNR are included in receive events.
func (d *Device) RecvEx() (bool, error) {
	response, err := d.sendCommand("recv_ex")
	if err != nil {
		return false, err
	}
	// 0 enables the extended report on this firmware.
	return response == "0", nil
}

// SetRecvEx toggles RSSI and SNR reporting on receive events.
func (d *Device) SetRecvEx(enabled bool) error {
	v := 1
	if enabled {
		v = 0
	}
	_, err := d.sendCommand(fmt.Sprintf("recv_ex=%d", v))
	return err
}

// SetConfig writes LoRaWan configuration values to the module EEPROM.
// Keys and values are passed through as-is; see the RAK documentation
// for the accepted keys (dev_addr, dev_eui, app_eui, app_key, adr,
// dr, ...).
func (d *Device) SetConfig(config map[string]string) error {
	keys := make([]string, 0, len(config))
	for key := range config {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+":"+config[key])
	}
	_, err := d.sendCommand("set_config=" + strings.Join(pairs, "&"))
	return err
}

// GetConfig reads a single LoRaWan configuration value from EEPROM.
// Values are returned verbatim as strings.
func (d *Device) GetConfig(key string) (string, error) {
	return d.sendCommand("get_config=" + key)
}

// Band returns the configured LoRaWan region, e.g. EU868 or US915.
func (d *Device) Band() (string, error) {
	return d.sendCommand("band")
}

// SetBand sets the LoRaWan region. Region is one of EU868, US915,
// AU915, KR920, AS923, IN865.
func (d *Device) SetBand(region string) error {
	_, err := d.sendCommand("band=" + region)
	return err
}

// JoinABP joins the configured network in ABP mode. Requires dev_addr,
// nwks_key and apps_key to be configured.
func (d *Device) JoinABP() error {
	_, err := d.sendCommand("join=abp")
	return err
}

// JoinOTAA joins the configured network in OTAA mode and blocks until
// the join completes. Requires dev_eui, app_eui and app_key to be
// configured. A failed join surfaces as an *EventError, a join that
// never completes as ErrTimeout.
func (d *Device) JoinOTAA() error {
	if _, err := d.sendCommand("join=otaa"); err != nil {
		return err
	}

	events, err := d.getEvents(0)
	if err != nil {
		return err
	}
	for _, event := range events {
		status, _ := splitEvent(event)
		if code, err := strconv.Atoi(status); err != nil || code != EventJoinedSuccess {
			return newEventError(status, eventMessagesV2, EventUnknown)
		}
	}
	return nil
}

// Signal returns RSSI and SNR of the latest received packet.
func (d *Device) Signal() (rssi, snr int, err error) {
	response, err := d.sendCommand("signal")
	if err != nil {
		return 0, 0, err
	}
	values, err := parseInts(response, 2)
	if err != nil {
		return 0, 0, err
	}
	return values[0], values[1], nil
}

// DR returns the data rate used for the next send.
func (d *Device) DR() (int, error) {
	response, err := d.sendCommand("dr")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(response)
}

// SetDR sets the data rate for subsequent sends.
func (d *Device) SetDR(dr int) error {
	_, err := d.sendCommand(fmt.Sprintf("dr=%d", dr))
	return err
}

// LinkCnt returns the uplink and downlink frame counters.
func (d *Device) LinkCnt() (up, down int, err error) {
	response, err := d.sendCommand("link_cnt")
	if err != nil {
		return 0, 0, err
	}
	values, err := parseInts(response, 2)
	if err != nil {
		return 0, 0, err
	}
	return values[0], values[1], nil
}

// SetLinkCnt sets the uplink and downlink frame counters.
func (d *Device) SetLinkCnt(up, down int) error {
	_, err := d.sendCommand(fmt.Sprintf("link_cnt=%d,%d", up, down))
	return err
}

// ABPInfo holds the session material needed to re-join in ABP mode
// after an OTAA join.
type ABPInfo struct {
	NetworkID string
	DevAddr   string
	NwkSKey   string
	AppSKey   string
}

// ABPInfo returns the current session's ABP parameters.
func (d *Device) ABPInfo() (ABPInfo, error) {
	response, err := d.sendCommand("abp_info")
	if err != nil {
		return ABPInfo{}, err
	}
	fields := strings.Split(response, ",")
	if len(fields) != 4 {
		return ABPInfo{}, fmt.Errorf("expected 4 fields in response %q, got %d", response, len(fields))
	}
	return ABPInfo{
		NetworkID: fields[0],
		DevAddr:   fields[1],
		NwkSKey:   fields[2],
		AppSKey:   fields[3],
	}, nil
}

// Send transmits a LoRaWan message and blocks until the module reports
// the transmit outcome. Downlinks piggybacked on the transmit window
// are queued for GetDownlink.
func (d *Device) Send(data []byte, confirm bool, port int) error {
	flag := "0"
	if confirm {
		flag = "1"
	}
	_, err := d.sendCommand(fmt.Sprintf("send=%s,%d,%s", flag, port, hex.EncodeToString(data)))
	if err != nil {
		return err
	}
	return d.processEvents(0)
}

// NbDownlinks returns the number of queued downlink messages.
func (d *Device) NbDownlinks() int {
	return len(d.downlink)
}

// GetDownlink pops the oldest message from the downlink buffer, nil
// when the buffer is empty.
func (d *Device) GetDownlink() *Downlink {
	if len(d.downlink) == 0 {
		return nil
	}
	head := d.downlink[0]
	d.downlink = d.downlink[1:]
	return head
}

// RFConfig is the LoraP2P radio configuration. The module persists it
// to flash, so it survives resets.
type RFConfig struct {
	// Freq is the frequency in MHz, range 860.000 to 929.900.
	Freq float64
	// SF is the spread factor, range 6 to 12.
	SF int
	// BW is the band width: 0 is 125KHz, 1 is 250KHz, 2 is 500KHz.
	BW int
	// CR is the coding rate: 1 is 4/5, 2 is 4/6, 3 is 4/7, 4 is 4/8.
	CR int
	// PRLen is the preamble length, range 8 to 65536.
	PRLen int
	// Power is the transmit power in dBm, range 5 to 20.
	Power int
}

// RFConfig returns the LoraP2P radio configuration.
func (d *Device) RFConfig() (RFConfig, error) {
	response, err := d.sendCommand("rf_config")
	if err != nil {
		return RFConfig{}, err
	}
	values, err := parseInts(response, 6)
	if err != nil {
		return RFConfig{}, err
	}
	return RFConfig{
		Freq:  float64(values[0]) / 1000 / 1000,
		SF:    values[1],
		BW:    values[2],
		CR:    values[3],
		PRLen: values[4],
		Power: values[5],
	}, nil
}

// SetRFConfig sets the LoraP2P radio configuration. All fields are
// written; read the current configuration first to change a subset.
func (d *Device) SetRFConfig(config RFConfig) error {
	_, err := d.sendCommand(fmt.Sprintf("rf_config=%d,%d,%d,%d,%d,%d",
		int(config.Freq*1000*1000),
		config.SF,
		config.BW,
		config.CR,
		config.PRLen,
		config.Power,
	))
	return err
}

// Txc sends a LoraP2P message cnt times at the given interval, using
// the pre-set radio configuration, and blocks until all transmissions
// complete. The module stops early on a TxStop command.
func (d *Device) Txc(data []byte, cnt int, interval time.Duration) error {
	_, err := d.sendCommand(fmt.Sprintf("txc=%d,%d,%s",
		cnt, interval.Milliseconds(), hex.EncodeToString(data)))
	if err != nil {
		return err
	}

	// Each transmission gets a 10s grace on top of its interval; the
	// last one does not wait its interval out.
	timeout := time.Duration(cnt)*(interval+10*time.Second) - interval
	events, err := d.getEvents(timeout)
	if err != nil {
		return err
	}
	for _, event := range events {
		status, _ := splitEvent(event)
		if code, err := strconv.Atoi(status); err != nil || code != EventP2PTxComplete {
			return newEventError(status, eventMessagesV2, EventUnknown)
		}
	}
	return nil
}

// Rxc puts the module in LoraP2P receive mode until RxStop is issued.
// Returns as soon as the command is acknowledged, without waiting for
// data.
func (d *Device) Rxc(report bool) error {
	v := 0
	if report {
		v = 1
	}
	_, err := d.sendCommand(fmt.Sprintf("rxc=%d", v))
	return err
}

// TxStop stops a LoraP2P transmission; the radio switches to sleep
// mode.
func (d *Device) TxStop() error {
	_, err := d.sendCommand("tx_stop")
	return err
}

// RxStop stops LoraP2P reception; the radio switches to sleep mode.
func (d *Device) RxStop() error {
	_, err := d.sendCommand("rx_stop")
	return err
}

// RxGet waits up to timeout for LoraP2P messages and queues them for
// GetDownlink. Receiving nothing within the timeout is not an error.
func (d *Device) RxGet(timeout time.Duration) error {
	if err := d.processEvents(timeout); err != nil && !errors.Is(err, ErrTimeout) {
		return err
	}
	return nil
}

// RadioStatus holds the module's radio statistics counters.
type RadioStatus struct {
	TxSuccessCnt int
	TxErrCnt     int
	RxSuccessCnt int
	RxTimeoutCnt int
	RxErrCnt     int
	RSSI         int
	SNR          int
}

// RadioStatus returns the radio statistics.
func (d *Device) RadioStatus() (RadioStatus, error) {
	response, err := d.sendCommand("status")
	if err != nil {
		return RadioStatus{}, err
	}
	values, err := parseInts(response, 7)
	if err != nil {
		return RadioStatus{}, err
	}
	return RadioStatus{
		TxSuccessCnt: values[0],
		TxErrCnt:     values[1],
		RxSuccessCnt: values[2],
		RxTimeoutCnt: values[3],
		RxErrCnt:     values[4],
		RSSI:         values[5],
		SNR:          values[6],
	}, nil
}

// ClearRadioStatus resets the radio statistics counters.
func (d *Device) ClearRadioStatus() error {
	_, err := d.sendCommand("status=0")
	return err
}
