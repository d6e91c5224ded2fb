package usb

import (
	"bytes"
	"errors"
	"testing"

	"github.com/PICdew/pictools/pkg"
)

func TestValidate(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestDescriptors_Count(t *testing.T) {
	descs := Descriptors()
	if len(descs) != 12 {
		t.Fatalf("table has %d records, want 12", len(descs))
	}

	wantTypes := []uint8{
		DescriptorTypeDevice,
		DescriptorTypeConfiguration,
		DescriptorTypeInterfaceAssociation,
		DescriptorTypeInterface,
		DescriptorTypeCSInterface, // header
		DescriptorTypeCSInterface, // acm
		DescriptorTypeCSInterface, // union
		DescriptorTypeCSInterface, // call management
		DescriptorTypeEndpoint,
		DescriptorTypeInterface,
		DescriptorTypeEndpoint,
		DescriptorTypeEndpoint,
	}
	for i, d := range descs {
		if d.Type() != wantTypes[i] {
			t.Errorf("record %d type = 0x%02X, want 0x%02X", i, d.Type(), wantTypes[i])
		}
	}
}

func TestDescriptors_Repeatable(t *testing.T) {
	first := Descriptors()
	second := Descriptors()
	if len(first) != len(second) {
		t.Fatalf("traversals differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("record %d differs between traversals", i)
		}
	}

	// Reordering a returned slice must not disturb the table.
	first[0], first[1] = first[1], first[0]
	third := Descriptors()
	if third[0].Type() != DescriptorTypeDevice {
		t.Error("mutating a returned slice changed the table order")
	}
}

func TestConfigurationTotalLength(t *testing.T) {
	if ConfigurationTotalLength != 75 {
		t.Fatalf("ConfigurationTotalLength = %d, want 75", ConfigurationTotalLength)
	}
	if got := Configuration().TotalLength; got != 75 {
		t.Fatalf("wTotalLength = %d, want 75", got)
	}

	sum := 0
	for _, d := range Descriptors()[1:] {
		sum += d.Len()
	}
	if sum != ConfigurationTotalLength {
		t.Errorf("configuration group sums to %d bytes, want %d", sum, ConfigurationTotalLength)
	}
}

func TestMarshalConfigurationTo(t *testing.T) {
	var buf [ConfigurationTotalLength]byte
	n := MarshalConfigurationTo(buf[:])
	if n != ConfigurationTotalLength {
		t.Fatalf("MarshalConfigurationTo = %d, want %d", n, ConfigurationTotalLength)
	}
	if buf[0] != 0x09 || buf[1] != 0x02 {
		t.Errorf("stream starts % 02X, want 09 02", buf[:2])
	}

	var short [ConfigurationTotalLength - 1]byte
	if n := MarshalConfigurationTo(short[:]); n != 0 {
		t.Errorf("MarshalConfigurationTo(short buf) = %d, want 0", n)
	}
}

func TestConfigurationBytes_Golden(t *testing.T) {
	want := []byte{
		// Configuration
		0x09, 0x02, 0x4B, 0x00, 0x02, 0x01, 0x00, 0x80, 0xFA,
		// Interface association
		0x08, 0x0B, 0x00, 0x02, 0x02, 0x02, 0x01, 0x00,
		// Interface 0 (CDC-Control)
		0x09, 0x04, 0x00, 0x00, 0x01, 0x02, 0x02, 0x00, 0x00,
		// CDC header
		0x05, 0x24, 0x00, 0x01, 0x10,
		// CDC ACM
		0x04, 0x24, 0x02, 0x06,
		// CDC union
		0x05, 0x24, 0x06, 0x00, 0x01,
		// CDC call management
		0x05, 0x24, 0x01, 0x00, 0x01,
		// Endpoint 1 (interrupt IN)
		0x07, 0x05, 0x81, 0x03, 0x10, 0x00, 0x40,
		// Interface 1 (CDC-Data)
		0x09, 0x04, 0x01, 0x00, 0x02, 0x0A, 0x00, 0x00, 0x00,
		// Endpoint 2 (bulk OUT)
		0x07, 0x05, 0x02, 0x02, 0x00, 0x02, 0x80,
		// Endpoint 3 (bulk IN)
		0x07, 0x05, 0x83, 0x02, 0x00, 0x02, 0x80,
	}

	got := ConfigurationBytes()
	if len(got) != 75 {
		t.Fatalf("ConfigurationBytes is %d bytes, want 75", len(got))
	}
	if !bytes.Equal(got, want) {
		t.Errorf("configuration stream mismatch\n got % 02X\nwant % 02X", got, want)
	}
}

func TestDeviceBytes_Golden(t *testing.T) {
	want := []byte{
		0x12, 0x01, 0x00, 0x02, 0xEF, 0x02, 0x01, 0x40,
		0x41, 0x23, 0x3E, 0x00, 0x00, 0x01, 0x00, 0x00,
		0x00, 0x01,
	}
	got := DeviceBytes()
	if !bytes.Equal(got, want) {
		t.Errorf("device descriptor mismatch\n got % 02X\nwant % 02X", got, want)
	}
}

func TestEndpointAddresses(t *testing.T) {
	seen := make(map[uint8]bool)
	for _, d := range Descriptors() {
		ep, ok := d.(*EndpointDescriptor)
		if !ok {
			continue
		}
		if seen[ep.EndpointAddress] {
			t.Errorf("duplicate endpoint address 0x%02X", ep.EndpointAddress)
		}
		seen[ep.EndpointAddress] = true
	}

	want := []uint8{0x81, 0x02, 0x83}
	if len(seen) != len(want) {
		t.Fatalf("table has %d endpoints, want %d", len(seen), len(want))
	}
	for _, addr := range want {
		if !seen[addr] {
			t.Errorf("endpoint 0x%02X missing from table", addr)
		}
	}
}

func TestInterfaceEndpointCounts(t *testing.T) {
	counts := make(map[uint8]int)
	var current *InterfaceDescriptor
	for _, d := range Descriptors()[1:] {
		switch rec := d.(type) {
		case *InterfaceDescriptor:
			current = rec
		case *EndpointDescriptor:
			if current == nil {
				t.Fatalf("endpoint 0x%02X precedes any interface", rec.EndpointAddress)
			}
			counts[current.InterfaceNumber]++
		}
	}

	if counts[ControlInterfaceNumber] != 1 {
		t.Errorf("control interface has %d endpoints, want 1", counts[ControlInterfaceNumber])
	}
	if counts[DataInterfaceNumber] != 2 {
		t.Errorf("data interface has %d endpoints, want 2", counts[DataInterfaceNumber])
	}
}

func TestCDCCrossReferences(t *testing.T) {
	interfaces := make(map[uint8]bool)
	for _, d := range Descriptors() {
		if iface, ok := d.(*InterfaceDescriptor); ok {
			interfaces[iface.InterfaceNumber] = true
		}
	}

	for _, d := range Descriptors() {
		switch rec := d.(type) {
		case *CDCUnionDescriptor:
			if !interfaces[rec.MasterInterface] || !interfaces[rec.SlaveInterface0] {
				t.Errorf("union references interfaces %d/%d not in table",
					rec.MasterInterface, rec.SlaveInterface0)
			}
			if rec.MasterInterface != ControlInterfaceNumber {
				t.Errorf("union master = %d, want %d", rec.MasterInterface, ControlInterfaceNumber)
			}
			if rec.SlaveInterface0 != DataInterfaceNumber {
				t.Errorf("union slave = %d, want %d", rec.SlaveInterface0, DataInterfaceNumber)
			}
		case *CDCCallManagementDescriptor:
			if !interfaces[rec.DataInterface] {
				t.Errorf("call management references interface %d not in table", rec.DataInterface)
			}
		}
	}
}

func TestValidateTable_Defects(t *testing.T) {
	base := func() []Descriptor { return Descriptors() }

	t.Run("total length mismatch", func(t *testing.T) {
		descs := base()
		bad := *descs[1].(*ConfigurationDescriptor)
		bad.TotalLength = 74
		descs[1] = &bad
		if err := validateTable(descs); !errors.Is(err, pkg.ErrInvalidDescriptorTable) {
			t.Errorf("validateTable = %v, want total length defect", err)
		}
	})

	t.Run("endpoint count mismatch", func(t *testing.T) {
		descs := base()
		bad := *descs[3].(*InterfaceDescriptor)
		bad.NumEndpoints = 2
		descs[3] = &bad
		if err := validateTable(descs); !errors.Is(err, pkg.ErrInvalidDescriptorTable) {
			t.Errorf("validateTable = %v, want endpoint count defect", err)
		}
	})

	t.Run("dangling union reference", func(t *testing.T) {
		descs := base()
		bad := *descs[6].(*CDCUnionDescriptor)
		bad.SlaveInterface0 = 5
		descs[6] = &bad
		if err := validateTable(descs); !errors.Is(err, pkg.ErrInvalidDescriptorTable) {
			t.Errorf("validateTable = %v, want cross reference defect", err)
		}
	})

	t.Run("duplicate endpoint address", func(t *testing.T) {
		descs := base()
		bad := *descs[11].(*EndpointDescriptor)
		bad.EndpointAddress = 0x81
		descs[11] = &bad
		if err := validateTable(descs); !errors.Is(err, pkg.ErrInvalidDescriptorTable) {
			t.Errorf("validateTable = %v, want duplicate endpoint defect", err)
		}
	})

	t.Run("device descriptor not first", func(t *testing.T) {
		descs := base()
		descs[0], descs[1] = descs[1], descs[0]
		if err := validateTable(descs); !errors.Is(err, pkg.ErrInvalidDescriptorTable) {
			t.Errorf("validateTable = %v, want ordering defect", err)
		}
	})
}
