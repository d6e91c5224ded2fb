package usbid

import (
	"os"
	"path/filepath"
	"testing"
)

const testDatabase = `# usb.ids test fixture
2341  Arduino SA
	003e  Due
	0042  Mega 2560 R3
04d8  Microchip Technology, Inc.
	000a  CDC RS-232 Emulation Demo

C 03  HID (Human Interface Device)
	01  Boot Interface Subclass
`

func writeDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usb.ids")
	if err := os.WriteFile(path, []byte(testDatabase), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadAndLookup(t *testing.T) {
	db := NewWithPaths([]string{writeDatabase(t)})
	if !db.Load() {
		t.Fatal("Load() = false, want true")
	}

	tests := []struct {
		vid, pid uint16
		vendor   string
		product  string
	}{
		{0x2341, 0x003e, "Arduino SA", "Due"},
		{0x2341, 0x0042, "Arduino SA", "Mega 2560 R3"},
		{0x04d8, 0x000a, "Microchip Technology, Inc.", "CDC RS-232 Emulation Demo"},
		{0xffff, 0xffff, "", ""},
	}
	for _, tt := range tests {
		if got := db.LookupVendor(tt.vid); got != tt.vendor {
			t.Errorf("LookupVendor(0x%04x) = %q, want %q", tt.vid, got, tt.vendor)
		}
		if got := db.LookupProduct(tt.vid, tt.pid); got != tt.product {
			t.Errorf("LookupProduct(0x%04x, 0x%04x) = %q, want %q", tt.vid, tt.pid, got, tt.product)
		}
	}
}

func TestLoad_ClassSectionIgnored(t *testing.T) {
	db := NewWithPaths([]string{writeDatabase(t)})
	db.Load()

	// "01  Boot Interface Subclass" under the class section must not be
	// attributed to any vendor.
	if got := db.LookupProduct(0x04d8, 0x0001); got != "" {
		t.Errorf("LookupProduct() = %q, want empty", got)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	db := NewWithPaths([]string{filepath.Join(t.TempDir(), "missing.ids")})
	if db.Load() {
		t.Error("Load() = true, want false")
	}
	if got := db.LookupVendor(0x2341); got != "" {
		t.Errorf("LookupVendor() = %q, want empty", got)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	db := NewWithPaths([]string{writeDatabase(t)})
	if !db.Load() {
		t.Fatal("first Load() = false, want true")
	}
	if !db.Load() {
		t.Error("second Load() = false, want true")
	}
}
