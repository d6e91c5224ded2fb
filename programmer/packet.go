package programmer

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sigurn/crc16"

	"github.com/PICdew/pictools/pkg"
)

// MaxPayloadSize bounds the data carried by a single read or write
// command, chosen to fit the RAM application's packet buffer.
const MaxPayloadSize = 1016

const (
	headerSize = 4
	footerSize = 2
)

// crcTable is CRC-16/CCITT-FALSE, the checksum the programmer firmware
// appends to every packet.
var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// writePacket frames and writes one packet: a big-endian command and
// payload length, the payload, and a CRC over header plus payload.
func writePacket(w io.Writer, command Command, payload []byte) error {
	if len(payload) > 0xFFFF {
		return fmt.Errorf("%w: %d bytes", pkg.ErrPayloadTooLarge, len(payload))
	}
	buf := make([]byte, headerSize+len(payload)+footerSize)
	binary.BigEndian.PutUint16(buf[0:2], uint16(command))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(payload)))
	copy(buf[headerSize:], payload)
	crc := crc16.Checksum(buf[:headerSize+len(payload)], crcTable)
	binary.BigEndian.PutUint16(buf[headerSize+len(payload):], crc)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing packet: %w", err)
	}
	return nil
}

// readPacket reads one framed packet and verifies its checksum.
func readPacket(r io.Reader) (Command, []byte, error) {
	var header [headerSize]byte
	if err := readFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("reading packet header: %w", err)
	}
	command := Command(int16(binary.BigEndian.Uint16(header[0:2])))
	size := binary.BigEndian.Uint16(header[2:4])

	var payload []byte
	if size > 0 {
		payload = make([]byte, size)
		if err := readFull(r, payload); err != nil {
			return 0, nil, fmt.Errorf("reading %d byte payload: %w", size, err)
		}
	}

	var footer [footerSize]byte
	if err := readFull(r, footer[:]); err != nil {
		return 0, nil, fmt.Errorf("reading packet footer: %w", err)
	}

	crc := crc16.Checksum(append(header[:], payload...), crcTable)
	if got := binary.BigEndian.Uint16(footer[:]); got != crc {
		return 0, nil, fmt.Errorf("%w: got 0x%04X, want 0x%04X", pkg.ErrChecksum, got, crc)
	}
	return command, payload, nil
}

// readFull reads exactly len(buf) bytes. A zero-byte read is reported as a
// timeout, which serial transports return instead of blocking forever.
func readFull(r io.Reader, buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if total == len(buf) {
			// Readers may return the final bytes together with io.EOF.
			return nil
		}
		if err == io.EOF {
			return pkg.ErrShortPacket
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return pkg.ErrTimeout
		}
	}
	return nil
}
