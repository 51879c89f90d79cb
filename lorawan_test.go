package rak811

import (
	"testing"

	"github.com/brocaar/lorawan"
)

func TestDeviceSetOTAAKeys(t *testing.T) {
	conn := &fakeConn{lines: []string{"OK"}}
	device := newTestDevice(conn)

	err := device.SetOTAAKeys(
		lorawan.EUI64{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		lorawan.EUI64{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18},
		lorawan.AES128Key{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conn.assertCommands(t,
		"set_config=app_eui:1112131415161718&app_key:0102030405060708090a0b0c0d0e0f10&dev_eui:0102030405060708")
}

func TestDeviceSetABPKeys(t *testing.T) {
	conn := &fakeConn{lines: []string{"OK"}}
	device := newTestDevice(conn)

	err := device.SetABPKeys(
		lorawan.DevAddr{0x26, 0x01, 0x11, 0x23},
		lorawan.AES128Key{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
		lorawan.AES128Key{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f, 0x20},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conn.assertCommands(t,
		"set_config=apps_key:1112131415161718191a1b1c1d1e1f20&dev_addr:26011123&nwks_key:0102030405060708090a0b0c0d0e0f10")
}

func TestDeviceV3SetOTAAKeys(t *testing.T) {
	conn := &fakeConn{batches: [][]string{{"OK "}, {"OK "}, {"OK "}, {"OK "}}}
	device := newTestDeviceV3(conn)

	err := device.SetOTAAKeys(
		lorawan.EUI64{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		lorawan.EUI64{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18},
		lorawan.AES128Key{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conn.assertCommands(t,
		"set_config=lora:join_mode:0",
		"set_config=lora:dev_eui:0102030405060708",
		"set_config=lora:app_eui:1112131415161718",
		"set_config=lora:app_key:0102030405060708090a0b0c0d0e0f10",
	)
}

func TestDeviceV3SetABPKeys(t *testing.T) {
	conn := &fakeConn{batches: [][]string{{"OK "}, {"OK "}, {"OK "}, {"OK "}}}
	device := newTestDeviceV3(conn)

	err := device.SetABPKeys(
		lorawan.DevAddr{0x26, 0x01, 0x11, 0x23},
		lorawan.AES128Key{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
		lorawan.AES128Key{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f, 0x20},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conn.assertCommands(t,
		"set_config=lora:join_mode:1",
		"set_config=lora:dev_addr:26011123",
		"set_config=lora:nwks_key:0102030405060708090a0b0c0d0e0f10",
		"set_config=lora:apps_key:1112131415161718191a1b1c1d1e1f20",
	)
}
