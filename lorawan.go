package rak811

import (
	"github.com/brocaar/lorawan"
)

// SetOTAAKeys configures the identifiers and root key needed for an
// OTAA join.
func (d *Device) SetOTAAKeys(devEUI, appEUI lorawan.EUI64, appKey lorawan.AES128Key) error {
	return d.SetConfig(map[string]string{
		"dev_eui": devEUI.String(),
		"app_eui": appEUI.String(),
		"app_key": appKey.String(),
	})
}

// SetABPKeys configures the address and session keys needed for an ABP
// join.
func (d *Device) SetABPKeys(devAddr lorawan.DevAddr, nwkSKey, appSKey lorawan.AES128Key) error {
	return d.SetConfig(map[string]string{
		"dev_addr": devAddr.String(),
		"nwks_key": nwkSKey.String(),
		"apps_key": appSKey.String(),
	})
}

// SetOTAAKeys switches the module to OTAA join mode and configures the
// identifiers and root key.
func (d *DeviceV3) SetOTAAKeys(devEUI, appEUI lorawan.EUI64, appKey lorawan.AES128Key) error {
	for _, config := range []string{
		"lora:join_mode:0",
		"lora:dev_eui:" + devEUI.String(),
		"lora:app_eui:" + appEUI.String(),
		"lora:app_key:" + appKey.String(),
	} {
		if _, err := d.SetConfig(config); err != nil {
			return err
		}
	}
	return nil
}

// SetABPKeys switches the module to ABP join mode and configures the
// address and session keys.
func (d *DeviceV3) SetABPKeys(devAddr lorawan.DevAddr, nwkSKey, appSKey lorawan.AES128Key) error {
	for _, config := range []string{
		"lora:join_mode:1",
		"lora:dev_addr:" + devAddr.String(),
		"lora:nwks_key:" + nwkSKey.String(),
		"lora:apps_key:" + appSKey.String(),
	} {
		if _, err := d.SetConfig(config); err != nil {
			return err
		}
	}
	return nil
}
