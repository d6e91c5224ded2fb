package usb

// CDC Functional Descriptor subtypes (CDC 1.1 Spec Table 25).
const (
	CDCSubtypeHeader         = 0x00 // Header Functional Descriptor
	CDCSubtypeCallManagement = 0x01 // Call Management Functional Descriptor
	CDCSubtypeACM            = 0x02 // Abstract Control Model Functional Descriptor
	CDCSubtypeUnion          = 0x06 // Union Functional Descriptor
)

// CDC Subclass codes.
const (
	CDCSubclassACM = 0x02 // Abstract Control Model
)

// CDC Protocol codes.
const (
	CDCProtocolNone = 0x00 // No protocol
	CDCProtocolAT   = 0x01 // AT Commands: V.250
)

// ACM capability bits (bmCapabilities of the ACM Functional Descriptor).
const (
	ACMCapCommFeature = 1 << 0 // Supports Set/Get/Clear Comm Feature
	ACMCapLineCoding  = 1 << 1 // Supports Set/Get Line Coding and Set Control Line State
	ACMCapSendBreak   = 1 << 2 // Supports Send Break
	ACMCapNetworkConn = 1 << 3 // Supports Network Connection notification
)

// Call management capability bits.
const (
	CallMgmtHandlesCallManagement = 1 << 0 // Device handles call management
	CallMgmtOverDataClass         = 1 << 1 // Call management over Data Class interface
)

// CDCHeaderDescriptor is the CDC Header Functional Descriptor (5 bytes).
// It marks the start of the class-specific block under the control interface.
type CDCHeaderDescriptor struct {
	CDCVersion uint16 // CDC specification release number (BCD)
}

// CDCHeaderSize is the size of the Header Functional Descriptor.
const CDCHeaderSize = 5

// Len returns the encoded size in bytes.
func (d *CDCHeaderDescriptor) Len() int { return CDCHeaderSize }

// Type returns the descriptor type tag.
func (d *CDCHeaderDescriptor) Type() uint8 { return DescriptorTypeCSInterface }

// MarshalTo writes the descriptor to buf.
func (d *CDCHeaderDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < CDCHeaderSize {
		return 0
	}
	buf[0] = CDCHeaderSize
	buf[1] = DescriptorTypeCSInterface
	buf[2] = CDCSubtypeHeader
	buf[3] = byte(d.CDCVersion)
	buf[4] = byte(d.CDCVersion >> 8)
	return CDCHeaderSize
}

// CDCACMDescriptor is the Abstract Control Management Functional
// Descriptor (4 bytes).
type CDCACMDescriptor struct {
	Capabilities uint8 // ACM capabilities
}

// CDCACMSize is the size of the ACM Functional Descriptor.
const CDCACMSize = 4

// Len returns the encoded size in bytes.
func (d *CDCACMDescriptor) Len() int { return CDCACMSize }

// Type returns the descriptor type tag.
func (d *CDCACMDescriptor) Type() uint8 { return DescriptorTypeCSInterface }

// MarshalTo writes the descriptor to buf.
func (d *CDCACMDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < CDCACMSize {
		return 0
	}
	buf[0] = CDCACMSize
	buf[1] = DescriptorTypeCSInterface
	buf[2] = CDCSubtypeACM
	buf[3] = d.Capabilities
	return CDCACMSize
}

// CDCUnionDescriptor is the Union Functional Descriptor (5 bytes for one
// subordinate). It binds the control interface to its data interface.
type CDCUnionDescriptor struct {
	MasterInterface uint8 // Control interface number
	SlaveInterface0 uint8 // First subordinate interface (data interface)
}

// CDCUnionSize is the size of the Union Descriptor with one subordinate.
const CDCUnionSize = 5

// Len returns the encoded size in bytes.
func (d *CDCUnionDescriptor) Len() int { return CDCUnionSize }

// Type returns the descriptor type tag.
func (d *CDCUnionDescriptor) Type() uint8 { return DescriptorTypeCSInterface }

// MarshalTo writes the descriptor to buf.
func (d *CDCUnionDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < CDCUnionSize {
		return 0
	}
	buf[0] = CDCUnionSize
	buf[1] = DescriptorTypeCSInterface
	buf[2] = CDCSubtypeUnion
	buf[3] = d.MasterInterface
	buf[4] = d.SlaveInterface0
	return CDCUnionSize
}

// CDCCallManagementDescriptor is the Call Management Functional
// Descriptor (5 bytes).
type CDCCallManagementDescriptor struct {
	Capabilities  uint8 // Call management capabilities
	DataInterface uint8 // Interface number of the Data Class interface
}

// CDCCallManagementSize is the size of the Call Management Descriptor.
const CDCCallManagementSize = 5

// Len returns the encoded size in bytes.
func (d *CDCCallManagementDescriptor) Len() int { return CDCCallManagementSize }

// Type returns the descriptor type tag.
func (d *CDCCallManagementDescriptor) Type() uint8 { return DescriptorTypeCSInterface }

// MarshalTo writes the descriptor to buf.
func (d *CDCCallManagementDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < CDCCallManagementSize {
		return 0
	}
	buf[0] = CDCCallManagementSize
	buf[1] = DescriptorTypeCSInterface
	buf[2] = CDCSubtypeCallManagement
	buf[3] = d.Capabilities
	buf[4] = d.DataInterface
	return CDCCallManagementSize
}
