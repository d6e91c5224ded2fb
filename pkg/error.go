package pkg

import "errors"

// Transport and codec errors.
var (
	// ErrChecksum indicates a packet with a bad CRC.
	ErrChecksum = errors.New("packet checksum mismatch")

	// ErrShortPacket indicates a truncated packet was received.
	ErrShortPacket = errors.New("short packet")

	// ErrPayloadTooLarge indicates a payload exceeding the wire format limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrCommunication indicates repeated command exchanges failed.
	ErrCommunication = errors.New("communication failure")

	// ErrTimeout indicates a read deadline expired mid-packet.
	ErrTimeout = errors.New("read timeout")

	// ErrVerify indicates flash contents differ from the written image.
	ErrVerify = errors.New("verification mismatch")

	// ErrInvalidDescriptorTable indicates the USB descriptor table failed
	// its consistency check. This is a build defect, not a runtime fault.
	ErrInvalidDescriptorTable = errors.New("invalid descriptor table")
)
