// Package usb defines the static USB descriptor table of the pictools
// programmer: a composite Full-Speed device exposing a single CDC-ACM
// virtual serial port (one configuration, two interfaces, three endpoints).
//
// The package is purely declarative. It holds a fixed, ordered, immutable
// sequence of descriptor records and the invariants linking them; the USB
// device stack consuming the table performs the actual enumeration
// handshake and endpoint I/O.
//
// # Record Model
//
// Each record implements [Descriptor] and carries the shared two-byte
// header (bLength, bDescriptorType) followed by type-specific fields.
// Serialization follows the MarshalTo(buf) zero-allocation pattern:
//
//	var buf [usb.ConfigurationTotalLength]byte
//	n := usb.MarshalConfigurationTo(buf[:])
//
// # Table Order
//
// [Descriptors] returns the records in enumeration order: device,
// configuration, interface association, CDC control interface with its
// functional descriptors and notification endpoint, then the CDC data
// interface with its bulk endpoints. Concatenating the configuration group
// in that order yields exactly [ConfigurationTotalLength] bytes, the value
// declared in wTotalLength.
//
// # Consistency
//
// [Validate] checks length fields, total-length accounting, interface
// numbering, per-interface endpoint counts, CDC cross references, and
// endpoint address uniqueness. It runs once at program initialization and
// panics on failure: a malformed table is a defect to catch before a host
// ever sees it, since enumeration gives a live host no recovery path.
package usb
