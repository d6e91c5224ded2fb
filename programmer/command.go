package programmer

import "fmt"

// Command identifies a framed request or response on the wire. A response
// echoes the request's command on success; CommandFailed carries a
// big-endian error code instead.
type Command int16

// RAM application commands, executed by the PIC.
const (
	CommandFailed Command = -1
	CommandPing   Command = 1
	CommandErase  Command = 2
	CommandRead   Command = 3
	CommandWrite  Command = 4
)

// Programmer commands, executed by the Arduino Due itself.
const (
	CommandProgrammerPing Command = 100
	CommandConnect        Command = 101
	CommandDisconnect     Command = 102
	CommandReset          Command = 103
	CommandDeviceStatus   Command = 104
	CommandChipErase      Command = 105
)

// String returns a human-readable command name.
func (c Command) String() string {
	switch c {
	case CommandFailed:
		return "failed"
	case CommandPing:
		return "ping"
	case CommandErase:
		return "erase"
	case CommandRead:
		return "read"
	case CommandWrite:
		return "write"
	case CommandProgrammerPing:
		return "programmer ping"
	case CommandConnect:
		return "connect"
	case CommandDisconnect:
		return "disconnect"
	case CommandReset:
		return "reset"
	case CommandDeviceStatus:
		return "device status"
	case CommandChipErase:
		return "chip erase"
	default:
		return fmt.Sprintf("unknown (%d)", int16(c))
	}
}

// DeviceError is an error code reported by the programmer or by the RAM
// application running on the PIC.
type DeviceError int32

// Known device error codes.
const (
	ErrCodeInvalidArgument  DeviceError = -22
	ErrCodeBadValue         DeviceError = -34
	ErrCodeCommunication    DeviceError = -71
	ErrCodeAlreadyConnected DeviceError = -106
	ErrCodeNotConnected     DeviceError = -107
	ErrCodeCommandTimeout   DeviceError = -110
	ErrCodeInvalidChecksum  DeviceError = -1007
	ErrCodeFlashWriteFailed DeviceError = -1008
	ErrCodeFlashEraseFailed DeviceError = -1009
)

var deviceErrorText = map[DeviceError]string{
	ErrCodeInvalidArgument:  "invalid argument",
	ErrCodeBadValue:         "bad value, likely a memory address out of range",
	ErrCodeCommunication:    "communication between programmer and PIC failed",
	ErrCodeAlreadyConnected: "PIC already connected",
	ErrCodeNotConnected:     "PIC is not connected",
	ErrCodeCommandTimeout:   "PIC command timeout",
	ErrCodeInvalidChecksum:  "invalid packet checksum",
	ErrCodeFlashWriteFailed: "flash write failed",
	ErrCodeFlashEraseFailed: "flash erase failed",
}

// Error returns the description of the device error code.
func (e DeviceError) Error() string {
	if text, ok := deviceErrorText[e]; ok {
		return "error: " + text
	}
	return fmt.Sprintf("failed with %d", int32(e))
}
