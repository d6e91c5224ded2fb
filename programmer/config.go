package programmer

import "fmt"

// Location of the decoded configuration words within the configuration
// bits region.
const (
	ConfigurationWordsAddress = ConfigurationBitsAddress + 0xC0
	ConfigurationWordCount    = 10
)

// DeviceConfiguration holds the decoded PIC32MM configuration words
// (FDEVOPT, FICD, FPOR, FWDT, FOSCSEL and FSEC).
type DeviceConfiguration struct {
	// FDEVOPT
	UserID   uint16
	FVBusIO  uint8
	FUSBIDIO uint8
	AltI2C   uint8
	SOSCHP   uint8

	// FICD
	ICS    uint8
	JTAGEn uint8

	// FPOR
	LPBOREn uint8
	RetVR   uint8
	BOREn   uint8

	// FWDT
	FWDTEn    uint8
	RClkSel   uint8
	RWDTPS    uint8
	WinDis    uint8
	FWDTWinSz uint8
	SWDTPS    uint8

	// FOSCSEL
	FCKSM    uint8
	SOSCSel  uint8
	OSCIOFnc uint8
	POSCMod  uint8
	IESO     uint8
	SOSCEn   uint8
	PLLSrc   uint8
	FNOSC    uint8

	// FSEC
	CP uint8
}

// ParseDeviceConfiguration decodes the configuration words read from
// ConfigurationWordsAddress. The first word and the trailing three are
// reserved.
func ParseDeviceConfiguration(words []uint32) (DeviceConfiguration, error) {
	if len(words) < ConfigurationWordCount {
		return DeviceConfiguration{}, fmt.Errorf("got %d configuration words, want %d",
			len(words), ConfigurationWordCount)
	}

	fdevopt := words[1]
	ficd := words[2]
	fpor := words[3]
	fwdt := words[4]
	foscsel := words[5]
	fsec := words[6]

	return DeviceConfiguration{
		UserID:   uint16(fdevopt >> 16),
		FVBusIO:  uint8(fdevopt >> 15 & 1),
		FUSBIDIO: uint8(fdevopt >> 14 & 1),
		AltI2C:   uint8(fdevopt >> 4 & 1),
		SOSCHP:   uint8(fdevopt >> 3 & 1),

		ICS:    uint8(ficd >> 3 & 0x3),
		JTAGEn: uint8(ficd >> 2 & 1),

		LPBOREn: uint8(fpor >> 3 & 1),
		RetVR:   uint8(fpor >> 2 & 1),
		BOREn:   uint8(fpor & 0x3),

		FWDTEn:    uint8(fwdt >> 15 & 1),
		RClkSel:   uint8(fwdt >> 13 & 0x3),
		RWDTPS:    uint8(fwdt >> 8 & 0x1F),
		WinDis:    uint8(fwdt >> 7 & 1),
		FWDTWinSz: uint8(fwdt >> 5 & 0x3),
		SWDTPS:    uint8(fwdt & 0x1F),

		FCKSM:    uint8(foscsel >> 14 & 0x3),
		SOSCSel:  uint8(foscsel >> 12 & 1),
		OSCIOFnc: uint8(foscsel >> 10 & 1),
		POSCMod:  uint8(foscsel >> 8 & 0x3),
		IESO:     uint8(foscsel >> 7 & 1),
		SOSCEn:   uint8(foscsel >> 6 & 1),
		PLLSrc:   uint8(foscsel >> 4 & 1),
		FNOSC:    uint8(foscsel & 0x7),

		CP: uint8(fsec >> 31 & 1),
	}, nil
}

// String renders the configuration report.
func (c DeviceConfiguration) String() string {
	return fmt.Sprintf(`FDEVOPT
  USERID: %d
  FVBUSIO: %d
  FUSBIDIO: %d
  ALTI2C: %d
  SOSCHP: %d
FICD
  ICS: %d
  JTAGEN: %d
FPOR
  LPBOREN: %d
  RETVR: %d
  BOREN: %d
FWDT
  FWDTEN: %d
  RCLKSEL: %d
  RWDTPS: %d
  WINDIS: %d
  FWDTWINSZ: %d
  SWDTPS: %d
FOSCSEL
  FCKSM: %d
  SOSCSEL: %d
  OSCIOFNC: %d
  POSCMOD: %d
  IESO: %d
  SOSCEN: %d
  PLLSRC: %d
  FNOSC: %d
FSEC
  CP: %d`,
		c.UserID, c.FVBusIO, c.FUSBIDIO, c.AltI2C, c.SOSCHP,
		c.ICS, c.JTAGEn,
		c.LPBOREn, c.RetVR, c.BOREn,
		c.FWDTEn, c.RClkSel, c.RWDTPS, c.WinDis, c.FWDTWinSz, c.SWDTPS,
		c.FCKSM, c.SOSCSel, c.OSCIOFnc, c.POSCMod, c.IESO, c.SOSCEn, c.PLLSrc, c.FNOSC,
		c.CP)
}

// DeviceID is the decoded DEVID word.
type DeviceID struct {
	Version uint8
	ID      uint32
}

// ParseDeviceID decodes the DEVID word read from DeviceIDAddress.
func ParseDeviceID(word uint32) DeviceID {
	return DeviceID{
		Version: uint8(word >> 28),
		ID:      word & 0x0FFFFFFF,
	}
}

// String renders the device id report.
func (d DeviceID) String() string {
	return fmt.Sprintf(`DEVID
  VER: %d
  DEVID: 0x%08x`, d.Version, d.ID)
}

// UDID is the unique chip id, five words read from UDIDAddress.
type UDID [5]uint32

// String renders the unique id report.
func (u UDID) String() string {
	return fmt.Sprintf(`UDID
  UDID1: 0x%08x
  UDID2: 0x%08x
  UDID3: 0x%08x
  UDID4: 0x%08x
  UDID5: 0x%08x`, u[0], u[1], u[2], u[3], u[4])
}
