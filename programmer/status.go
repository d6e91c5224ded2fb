package programmer

import "fmt"

// DeviceStatus is the PIC status byte reported by the programmer.
type DeviceStatus uint8

// Status bits.
const (
	StatusDeviceReset DeviceStatus = 1 << 0 // DEVRST
	StatusFlashBusy   DeviceStatus = 1 << 2 // FCBUSY
	StatusConfigReady DeviceStatus = 1 << 3 // CFGRDY
	StatusNVMError    DeviceStatus = 1 << 5 // NVMERR
	StatusCodeProtect DeviceStatus = 1 << 7 // CPS
)

// CodeProtect reports whether code protection is enabled.
func (s DeviceStatus) CodeProtect() bool { return s&StatusCodeProtect != 0 }

// NVMError reports whether a non-volatile memory error is flagged.
func (s DeviceStatus) NVMError() bool { return s&StatusNVMError != 0 }

// ConfigReady reports whether the configuration is loaded.
func (s DeviceStatus) ConfigReady() bool { return s&StatusConfigReady != 0 }

// FlashBusy reports whether a flash operation is in progress.
func (s DeviceStatus) FlashBusy() bool { return s&StatusFlashBusy != 0 }

// DeviceReset reports whether the device is held in reset.
func (s DeviceStatus) DeviceReset() bool { return s&StatusDeviceReset != 0 }

// String renders the status report.
func (s DeviceStatus) String() string {
	return fmt.Sprintf(`STATUS: 0x%02x
  CPS:    %d
  NVMERR: %d
  CFGRDY: %d
  FCBUSY: %d
  DEVRST: %d`,
		uint8(s),
		bit(s.CodeProtect()),
		bit(s.NVMError()),
		bit(s.ConfigReady()),
		bit(s.FlashBusy()),
		bit(s.DeviceReset()))
}

func bit(set bool) int {
	if set {
		return 1
	}
	return 0
}
