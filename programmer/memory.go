package programmer

// PIC32MM physical memory map.
const (
	FlashAddress             = 0x1D000000
	FlashSize                = 0x00040000
	SFRsAddress              = 0x1F800000
	SFRsSize                 = 0x00010000
	BootFlashAddress         = 0x1FC00000
	BootFlashSize            = 0x00001700
	ConfigurationBitsAddress = 0x1FC01700
	ConfigurationBitsSize    = 0x00000100
	DeviceIDAddress          = 0x1F803660
	UDIDAddress              = 0x1FC41840
)

// MemoryRange is a contiguous span of physical memory.
type MemoryRange struct {
	Address uint32
	Size    uint32
}

// FlashRanges lists the regions covered by a full flash dump: program
// flash, boot flash, and the configuration bits.
var FlashRanges = []MemoryRange{
	{FlashAddress, FlashSize},
	{BootFlashAddress, BootFlashSize},
	{ConfigurationBitsAddress, ConfigurationBitsSize},
}

// PhysicalAddress masks a virtual flash address into the physical address
// space the programmer operates on.
func PhysicalAddress(address uint32) uint32 {
	return address & 0x1FFFFFFF
}
