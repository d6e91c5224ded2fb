// Package usbid resolves USB vendor and product identifiers to the
// human-readable names from the usb.ids database distributed with most
// Linux systems. When no database file is present, lookups return empty
// strings.
package usbid

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPaths lists the standard locations of the usb.ids database.
var DefaultPaths = []string{
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/share/misc/usb.ids",
}

// Database caches vendor and product names parsed from usb.ids.
// All methods are safe for concurrent use.
type Database struct {
	mu       sync.RWMutex
	vendors  map[uint16]string
	products map[uint32]string
	loaded   bool
	paths    []string
}

// New creates a database searching the default usb.ids locations.
func New() *Database {
	return NewWithPaths(DefaultPaths)
}

// NewWithPaths creates a database searching the given file paths.
func NewWithPaths(paths []string) *Database {
	return &Database{
		vendors:  make(map[uint16]string),
		products: make(map[uint32]string),
		paths:    paths,
	}
}

// Load parses the first database file found. It is idempotent, and
// reports whether a database file was found on this or a previous call.
func (db *Database) Load() bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.loaded {
		return len(db.vendors) > 0
	}
	db.loaded = true

	for _, path := range db.paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		db.parse(f)
		f.Close()
		return true
	}
	return false
}

// parse reads the usb.ids format: vendor lines are "vvvv  name", product
// lines below them are indented with a tab. Class and other sections that
// follow the vendor list are ignored.
func (db *Database) parse(f *os.File) {
	var vendor uint16
	var haveVendor bool

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		indented := strings.HasPrefix(line, "\t")
		entry := strings.TrimPrefix(line, "\t")
		id, name, ok := cutEntry(entry)
		if !ok {
			haveVendor = false
			continue
		}

		if indented {
			if haveVendor {
				db.products[uint32(vendor)<<16|uint32(id)] = name
			}
			continue
		}
		vendor = id
		haveVendor = true
		db.vendors[vendor] = name
	}
}

// cutEntry splits a "xxxx  Name" database entry.
func cutEntry(entry string) (uint16, string, bool) {
	if len(entry) < 6 || entry[4] != ' ' {
		return 0, "", false
	}
	id, err := strconv.ParseUint(entry[:4], 16, 16)
	if err != nil {
		return 0, "", false
	}
	return uint16(id), strings.TrimLeft(entry[5:], " "), true
}

// LookupVendor returns the vendor name for vid, or "" when unknown.
func (db *Database) LookupVendor(vid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.vendors[vid]
}

// LookupProduct returns the product name for the vid/pid pair, or ""
// when unknown.
func (db *Database) LookupProduct(vid, pid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.products[uint32(vid)<<16|uint32(pid)]
}
