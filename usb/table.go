package usb

import (
	"fmt"

	"github.com/PICdew/pictools/pkg"
)

// USB identity of the programmer (Arduino Due native port).
const (
	VendorID  = 0x2341
	ProductID = 0x003E
)

// Endpoint addresses of the CDC-ACM function. The high bit encodes
// direction (0x80 = IN), the low bits the endpoint number.
const (
	NotificationEndpoint = 0x81 // EP 1 IN, interrupt
	DataOutEndpoint      = 0x02 // EP 2 OUT, bulk
	DataInEndpoint       = 0x83 // EP 3 IN, bulk
)

// Interface numbers of the CDC-ACM function.
const (
	ControlInterfaceNumber = 0 // CDC-Control, carries the notification endpoint
	DataInterfaceNumber    = 1 // CDC-Data, carries the bulk endpoints
)

// ConfigurationTotalLength is wTotalLength of the configuration group:
// the byte length of every record returned in a single
// GET_DESCRIPTOR(CONFIGURATION) response, in table order. Derived from the
// record size constants so the accounting can never drift from the layout.
const ConfigurationTotalLength = ConfigurationDescriptorSize +
	IADSize +
	InterfaceDescriptorSize + // control interface
	CDCHeaderSize +
	CDCACMSize +
	CDCUnionSize +
	CDCCallManagementSize +
	EndpointDescriptorSize + // notification endpoint
	InterfaceDescriptorSize + // data interface
	2*EndpointDescriptorSize // bulk OUT and IN endpoints

var deviceDescriptor = DeviceDescriptor{
	USBVersion:        0x0200,
	DeviceClass:       ClassMisc,
	DeviceSubClass:    2,
	DeviceProtocol:    1,
	MaxPacketSize0:    64,
	VendorID:          VendorID,
	ProductID:         ProductID,
	DeviceVersion:     0x0100,
	NumConfigurations: 1,
}

var configurationDescriptor = ConfigurationDescriptor{
	TotalLength:        ConfigurationTotalLength,
	NumInterfaces:      2,
	ConfigurationValue: 1,
	Attributes:         ConfigAttrBusPowered,
	MaxPower:           250, // 500mA
}

var interfaceAssociationDescriptor = InterfaceAssociationDescriptor{
	FirstInterface:   ControlInterfaceNumber,
	InterfaceCount:   2,
	FunctionClass:    ClassCDC,
	FunctionSubClass: CDCSubclassACM,
	FunctionProtocol: CDCProtocolAT,
}

var controlInterfaceDescriptor = InterfaceDescriptor{
	InterfaceNumber:   ControlInterfaceNumber,
	NumEndpoints:      1,
	InterfaceClass:    ClassCDC,
	InterfaceSubClass: CDCSubclassACM,
	InterfaceProtocol: CDCProtocolNone,
}

var cdcHeaderDescriptor = CDCHeaderDescriptor{
	CDCVersion: 0x1001,
}

var cdcACMDescriptor = CDCACMDescriptor{
	Capabilities: ACMCapLineCoding | ACMCapSendBreak,
}

var cdcUnionDescriptor = CDCUnionDescriptor{
	MasterInterface: ControlInterfaceNumber,
	SlaveInterface0: DataInterfaceNumber,
}

var cdcCallManagementDescriptor = CDCCallManagementDescriptor{
	Capabilities:  0x00,
	DataInterface: DataInterfaceNumber,
}

var notificationEndpointDescriptor = EndpointDescriptor{
	EndpointAddress: NotificationEndpoint,
	Attributes:      EndpointTypeInterrupt,
	MaxPacketSize:   16,
	Interval:        64,
}

var dataInterfaceDescriptor = InterfaceDescriptor{
	InterfaceNumber: DataInterfaceNumber,
	NumEndpoints:    2,
	InterfaceClass:  ClassCDCData,
}

var dataOutEndpointDescriptor = EndpointDescriptor{
	EndpointAddress: DataOutEndpoint,
	Attributes:      EndpointTypeBulk,
	MaxPacketSize:   512,
	Interval:        128,
}

var dataInEndpointDescriptor = EndpointDescriptor{
	EndpointAddress: DataInEndpoint,
	Attributes:      EndpointTypeBulk,
	MaxPacketSize:   512,
	Interval:        128,
}

// deviceDescriptors lists every descriptor of the device in enumeration
// order. The configuration group (everything after the device descriptor)
// is transmitted in this order as one GET_DESCRIPTOR(CONFIGURATION)
// response; the device descriptor is returned by its own request.
//
// The table is populated once at program initialization and never mutated;
// any number of concurrent readers may traverse it without locking.
var deviceDescriptors = [...]Descriptor{
	&deviceDescriptor,
	&configurationDescriptor,
	&interfaceAssociationDescriptor,
	&controlInterfaceDescriptor,
	&cdcHeaderDescriptor,
	&cdcACMDescriptor,
	&cdcUnionDescriptor,
	&cdcCallManagementDescriptor,
	&notificationEndpointDescriptor,
	&dataInterfaceDescriptor,
	&dataOutEndpointDescriptor,
	&dataInEndpointDescriptor,
}

func init() {
	// A malformed table is a build defect; refuse to start with one.
	if err := Validate(); err != nil {
		panic(err)
	}
}

// Descriptors returns the device's descriptor table in enumeration order.
// The returned slice is a copy, so traversal is side-effect-free,
// repeatable, and safe from any number of concurrent callers.
func Descriptors() []Descriptor {
	descs := make([]Descriptor, len(deviceDescriptors))
	copy(descs, deviceDescriptors[:])
	return descs
}

// Device returns a copy of the device descriptor.
func Device() DeviceDescriptor {
	return deviceDescriptor
}

// Configuration returns a copy of the configuration descriptor.
func Configuration() ConfigurationDescriptor {
	return configurationDescriptor
}

// MarshalConfigurationTo serializes the configuration group (every record
// after the device descriptor, in table order) to buf. Returns the number
// of bytes written, always ConfigurationTotalLength, or 0 if buf is too
// small.
func MarshalConfigurationTo(buf []byte) int {
	if len(buf) < ConfigurationTotalLength {
		return 0
	}
	off := 0
	for _, d := range deviceDescriptors[1:] {
		off += d.MarshalTo(buf[off:])
	}
	return off
}

// ConfigurationBytes returns the configuration group as a freshly
// allocated byte slice of ConfigurationTotalLength bytes.
func ConfigurationBytes() []byte {
	buf := make([]byte, ConfigurationTotalLength)
	MarshalConfigurationTo(buf)
	return buf
}

// DeviceBytes returns the encoded device descriptor as a freshly allocated
// byte slice.
func DeviceBytes() []byte {
	buf := make([]byte, DeviceDescriptorSize)
	deviceDescriptor.MarshalTo(buf)
	return buf
}

// Validate checks the internal consistency of the descriptor table:
// per-record length fields, total-length accounting, interface numbering,
// per-interface endpoint counts, CDC cross references, and endpoint
// address uniqueness. A non-nil result is a fatal configuration defect.
func Validate() error {
	return validateTable(deviceDescriptors[:])
}

func validateTable(descs []Descriptor) error {
	if len(descs) < 2 {
		return fmt.Errorf("%w: table has %d records", pkg.ErrInvalidDescriptorTable, len(descs))
	}

	dev, ok := descs[0].(*DeviceDescriptor)
	if !ok {
		return fmt.Errorf("%w: first record is not the device descriptor", pkg.ErrInvalidDescriptorTable)
	}
	config, ok := descs[1].(*ConfigurationDescriptor)
	if !ok {
		return fmt.Errorf("%w: second record is not the configuration descriptor", pkg.ErrInvalidDescriptorTable)
	}

	// Every record's declared length must equal its encoded size, and the
	// shared header must carry that length and the record's type tag.
	var buf [64]byte
	for i, d := range descs {
		n := d.MarshalTo(buf[:])
		if n != d.Len() {
			return fmt.Errorf("%w: record %d encodes %d bytes, declares %d",
				pkg.ErrInvalidDescriptorTable, i, n, d.Len())
		}
		if int(buf[0]) != n {
			return fmt.Errorf("%w: record %d bLength field is %d, want %d",
				pkg.ErrInvalidDescriptorTable, i, buf[0], n)
		}
		if buf[1] != d.Type() {
			return fmt.Errorf("%w: record %d bDescriptorType field is 0x%02X, want 0x%02X",
				pkg.ErrInvalidDescriptorTable, i, buf[1], d.Type())
		}
	}

	// wTotalLength must equal the byte length of the configuration group.
	group := 0
	for _, d := range descs[1:] {
		group += d.Len()
	}
	if int(config.TotalLength) != group {
		return fmt.Errorf("%w: wTotalLength is %d, configuration group is %d bytes",
			pkg.ErrInvalidDescriptorTable, config.TotalLength, group)
	}

	if dev.NumConfigurations != 1 {
		return fmt.Errorf("%w: bNumConfigurations is %d, table defines 1",
			pkg.ErrInvalidDescriptorTable, dev.NumConfigurations)
	}

	// Interface numbers must be unique and contiguous from zero, and each
	// interface's declared endpoint count must match the endpoint records
	// that follow it (up to the next interface record).
	var (
		interfaces  []*InterfaceDescriptor
		current     *InterfaceDescriptor
		endpointCnt int
	)
	checkCurrent := func() error {
		if current != nil && int(current.NumEndpoints) != endpointCnt {
			return fmt.Errorf("%w: interface %d declares %d endpoints, table associates %d",
				pkg.ErrInvalidDescriptorTable, current.InterfaceNumber, current.NumEndpoints, endpointCnt)
		}
		return nil
	}
	for _, d := range descs[1:] {
		switch rec := d.(type) {
		case *InterfaceDescriptor:
			if err := checkCurrent(); err != nil {
				return err
			}
			current = rec
			endpointCnt = 0
			interfaces = append(interfaces, rec)
		case *EndpointDescriptor:
			if current == nil {
				return fmt.Errorf("%w: endpoint 0x%02X precedes any interface",
					pkg.ErrInvalidDescriptorTable, rec.EndpointAddress)
			}
			endpointCnt++
		}
	}
	if err := checkCurrent(); err != nil {
		return err
	}

	if int(config.NumInterfaces) != len(interfaces) {
		return fmt.Errorf("%w: bNumInterfaces is %d, table defines %d",
			pkg.ErrInvalidDescriptorTable, config.NumInterfaces, len(interfaces))
	}
	known := make(map[uint8]bool, len(interfaces))
	for i, iface := range interfaces {
		if known[iface.InterfaceNumber] {
			return fmt.Errorf("%w: duplicate interface number %d",
				pkg.ErrInvalidDescriptorTable, iface.InterfaceNumber)
		}
		known[iface.InterfaceNumber] = true
		if int(iface.InterfaceNumber) != i {
			return fmt.Errorf("%w: interface numbers not contiguous from 0 (record %d is interface %d)",
				pkg.ErrInvalidDescriptorTable, i, iface.InterfaceNumber)
		}
	}

	// CDC cross references and the IAD must name interfaces that exist.
	for _, d := range descs[1:] {
		switch rec := d.(type) {
		case *InterfaceAssociationDescriptor:
			for n := rec.FirstInterface; n < rec.FirstInterface+rec.InterfaceCount; n++ {
				if !known[n] {
					return fmt.Errorf("%w: IAD references missing interface %d",
						pkg.ErrInvalidDescriptorTable, n)
				}
			}
		case *CDCUnionDescriptor:
			if !known[rec.MasterInterface] {
				return fmt.Errorf("%w: union references missing master interface %d",
					pkg.ErrInvalidDescriptorTable, rec.MasterInterface)
			}
			if !known[rec.SlaveInterface0] {
				return fmt.Errorf("%w: union references missing slave interface %d",
					pkg.ErrInvalidDescriptorTable, rec.SlaveInterface0)
			}
		case *CDCCallManagementDescriptor:
			if !known[rec.DataInterface] {
				return fmt.Errorf("%w: call management references missing data interface %d",
					pkg.ErrInvalidDescriptorTable, rec.DataInterface)
			}
		}
	}

	// No two endpoints may share a (number, direction) pair.
	seen := make(map[uint8]bool)
	for _, d := range descs[1:] {
		ep, ok := d.(*EndpointDescriptor)
		if !ok {
			continue
		}
		if seen[ep.EndpointAddress] {
			return fmt.Errorf("%w: duplicate endpoint address 0x%02X",
				pkg.ErrInvalidDescriptorTable, ep.EndpointAddress)
		}
		seen[ep.EndpointAddress] = true
	}

	return nil
}
