package programmer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/PICdew/pictools/pkg"
)

// Serial link parameters of the programmer's CDC-ACM port.
const (
	// DefaultBaudRate is the programmer's UART speed.
	DefaultBaudRate = 460800

	// ReadTimeout is the read deadline for ordinary commands.
	ReadTimeout = time.Second

	// EraseTimeout is the read deadline while a flash erase runs.
	EraseTimeout = 5 * time.Second
)

// commandAttempts is how many times a command is sent before giving up.
const commandAttempts = 3

// deadlineConn is implemented by transports with an adjustable read
// deadline, such as go.bug.st/serial ports.
type deadlineConn interface {
	SetReadTimeout(time.Duration) error
}

// Client executes commands against the programmer over a byte stream,
// typically a serial port opened at DefaultBaudRate.
type Client struct {
	conn io.ReadWriter
}

// NewClient creates a client speaking the packet protocol over conn.
func NewClient(conn io.ReadWriter) *Client {
	return &Client{conn: conn}
}

// Execute sends a command with the given payload and returns the response
// payload. Garbled or mismatched exchanges are retried up to three times;
// a failure response from the device is returned as a DeviceError.
func (c *Client) Execute(command Command, payload []byte) ([]byte, error) {
	for attempt := 1; attempt <= commandAttempts; attempt++ {
		if attempt > 1 {
			pkg.LogWarn(pkg.ComponentProgrammer, "retrying command",
				"command", command.String(),
				"attempt", attempt)
		}
		if err := writePacket(c.conn, command, payload); err != nil {
			return nil, err
		}

		response, respPayload, err := readPacket(c.conn)
		if err != nil {
			pkg.LogDebug(pkg.ComponentProgrammer, "command exchange failed",
				"command", command.String(),
				"error", err)
			continue
		}

		switch response {
		case command:
			return respPayload, nil
		case CommandFailed:
			if len(respPayload) < 4 {
				return nil, fmt.Errorf("failure response: %w", pkg.ErrShortPacket)
			}
			return nil, DeviceError(int32(binary.BigEndian.Uint32(respPayload)))
		default:
			pkg.LogDebug(pkg.ComponentProgrammer, "unexpected response",
				"command", command.String(),
				"response", response.String())
		}
	}
	return nil, pkg.ErrCommunication
}

// Ping checks that the RAM application on the PIC is alive.
func (c *Client) Ping() error {
	_, err := c.Execute(CommandPing, nil)
	return err
}

// ProgrammerPing checks that the programmer itself is alive.
func (c *Client) ProgrammerPing() error {
	_, err := c.Execute(CommandProgrammerPing, nil)
	return err
}

// Connect makes the programmer connect to the PIC over ICSP and upload
// the RAM application. Returns ErrCodeAlreadyConnected if a connection is
// already established.
func (c *Client) Connect() error {
	_, err := c.Execute(CommandConnect, nil)
	return err
}

// Disconnect drops the programmer's ICSP connection to the PIC. Returns
// ErrCodeNotConnected if there is none.
func (c *Client) Disconnect() error {
	_, err := c.Execute(CommandDisconnect, nil)
	return err
}

// Reset resets the PIC.
func (c *Client) Reset() error {
	_, err := c.Execute(CommandReset, nil)
	return err
}

// ChipErase erases program flash, boot flash and configuration memory.
func (c *Client) ChipErase() error {
	restore := c.setReadTimeout(EraseTimeout)
	defer restore()
	_, err := c.Execute(CommandChipErase, nil)
	return err
}

// DeviceStatus reads the PIC status byte.
func (c *Client) DeviceStatus() (DeviceStatus, error) {
	payload, err := c.Execute(CommandDeviceStatus, nil)
	if err != nil {
		return 0, err
	}
	if len(payload) < 1 {
		return 0, fmt.Errorf("status response: %w", pkg.ErrShortPacket)
	}
	return DeviceStatus(payload[0]), nil
}

// Erase erases size bytes of flash starting at address.
func (c *Client) Erase(address, size uint32) error {
	var payload [8]byte
	binary.BigEndian.PutUint32(payload[0:4], address)
	binary.BigEndian.PutUint32(payload[4:8], size)

	restore := c.setReadTimeout(EraseTimeout)
	defer restore()
	_, err := c.Execute(CommandErase, payload[:])
	return err
}

// ReadMemory reads size bytes starting at address with a single command.
// Larger spans should go through ReadRange, which chunks requests to fit
// the packet payload limit.
func (c *Client) ReadMemory(address, size uint32) ([]byte, error) {
	var payload [8]byte
	binary.BigEndian.PutUint32(payload[0:4], address)
	binary.BigEndian.PutUint32(payload[4:8], size)
	data, err := c.Execute(CommandRead, payload[:])
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) != size {
		return nil, fmt.Errorf("read 0x%08x: got %d bytes, want %d: %w",
			address, len(data), size, pkg.ErrShortPacket)
	}
	return data, nil
}

// ReadRange reads size bytes starting at address, chunked to MaxPayloadSize.
// If progress is non-nil it is called with the byte count of each chunk.
func (c *Client) ReadRange(address, size uint32, progress func(int)) ([]byte, error) {
	data := make([]byte, 0, size)
	for left := size; left > 0; {
		chunk := left
		if chunk > MaxPayloadSize {
			chunk = MaxPayloadSize
		}
		part, err := c.ReadMemory(address, chunk)
		if err != nil {
			return nil, err
		}
		data = append(data, part...)
		address += chunk
		left -= chunk
		if progress != nil {
			progress(int(chunk))
		}
	}
	return data, nil
}

// WriteRange writes data to flash starting at address, chunked to
// MaxPayloadSize. The range must have been erased first. If progress is
// non-nil it is called with the byte count of each chunk.
func (c *Client) WriteRange(address uint32, data []byte, progress func(int)) error {
	for len(data) > 0 {
		chunk := len(data)
		if chunk > MaxPayloadSize {
			chunk = MaxPayloadSize
		}
		payload := make([]byte, 8+chunk)
		binary.BigEndian.PutUint32(payload[0:4], address)
		binary.BigEndian.PutUint32(payload[4:8], uint32(chunk))
		copy(payload[8:], data[:chunk])
		if _, err := c.Execute(CommandWrite, payload); err != nil {
			return err
		}
		address += uint32(chunk)
		data = data[chunk:]
		if progress != nil {
			progress(chunk)
		}
	}
	return nil
}

// VerifyRange reads back len(data) bytes from address and compares them to
// data. If progress is non-nil it is called with the byte count of each
// chunk.
func (c *Client) VerifyRange(address uint32, data []byte, progress func(int)) error {
	for len(data) > 0 {
		chunk := len(data)
		if chunk > MaxPayloadSize {
			chunk = MaxPayloadSize
		}
		read, err := c.ReadMemory(address, uint32(chunk))
		if err != nil {
			return err
		}
		if !bytes.Equal(read, data[:chunk]) {
			return fmt.Errorf("%w at address 0x%08x", pkg.ErrVerify, address)
		}
		address += uint32(chunk)
		data = data[chunk:]
		if progress != nil {
			progress(chunk)
		}
	}
	return nil
}

// ReadWords reads count 32-bit words starting at address. Words arrive on
// the wire in the PIC's little-endian byte order.
func (c *Client) ReadWords(address uint32, count int) ([]uint32, error) {
	data, err := c.ReadRange(address, uint32(4*count), nil)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, count)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return words, nil
}

// setReadTimeout raises the transport's read deadline when it supports
// one, returning a function restoring ReadTimeout.
func (c *Client) setReadTimeout(d time.Duration) func() {
	dl, ok := c.conn.(deadlineConn)
	if !ok {
		return func() {}
	}
	if err := dl.SetReadTimeout(d); err != nil {
		pkg.LogWarn(pkg.ComponentProgrammer, "setting read timeout failed", "error", err)
		return func() {}
	}
	return func() {
		if err := dl.SetReadTimeout(ReadTimeout); err != nil {
			pkg.LogWarn(pkg.ComponentProgrammer, "restoring read timeout failed", "error", err)
		}
	}
}
