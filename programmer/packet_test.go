package programmer

import (
	"bytes"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/PICdew/pictools/pkg"
)

// Golden frames captured from the programmer firmware.
var goldenFrames = []struct {
	name    string
	command Command
	frame   []byte
}{
	{"ping", CommandPing, []byte{0x00, 0x01, 0x00, 0x00, 0xb3, 0xf0}},
	{"programmer ping", CommandProgrammerPing, []byte{0x00, 0x64, 0x00, 0x00, 0xc3, 0x6b}},
	{"connect", CommandConnect, []byte{0x00, 0x65, 0x00, 0x00, 0xf4, 0x5b}},
	{"disconnect", CommandDisconnect, []byte{0x00, 0x66, 0x00, 0x00, 0xad, 0x0b}},
	{"reset", CommandReset, []byte{0x00, 0x67, 0x00, 0x00, 0x9a, 0x3b}},
}

func TestWritePacket_GoldenFrames(t *testing.T) {
	for _, tt := range goldenFrames {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writePacket(&buf, tt.command, nil))
			require.Equal(t, tt.frame, buf.Bytes())
		})
	}
}

func TestReadPacket_GoldenFrames(t *testing.T) {
	for _, tt := range goldenFrames {
		t.Run(tt.name, func(t *testing.T) {
			command, payload, err := readPacket(bytes.NewReader(tt.frame))
			require.NoError(t, err)
			require.Equal(t, tt.command, command)
			require.Empty(t, payload)
		})
	}
}

func TestPacket_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x01},
		{0x1d, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0x00},
		bytes.Repeat([]byte{0xA5}, MaxPayloadSize),
	}

	for _, payload := range payloads {
		var buf bytes.Buffer
		require.NoError(t, writePacket(&buf, CommandWrite, payload))

		command, got, err := readPacket(&buf)
		require.NoError(t, err)
		require.Equal(t, CommandWrite, command)
		if len(payload) == 0 {
			require.Empty(t, got)
		} else {
			require.Equal(t, payload, got)
		}
	}
}

func TestReadPacket_DataWithEOF(t *testing.T) {
	// Readers may return the final bytes together with io.EOF; a complete
	// frame delivered that way must still parse.
	for _, tt := range goldenFrames {
		t.Run(tt.name, func(t *testing.T) {
			command, payload, err := readPacket(iotest.DataErrReader(bytes.NewReader(tt.frame)))
			require.NoError(t, err)
			require.Equal(t, tt.command, command)
			require.Empty(t, payload)
		})
	}
}

func TestReadPacket_ChecksumMismatch(t *testing.T) {
	frame := append([]byte(nil), goldenFrames[0].frame...)
	frame[len(frame)-1] ^= 0xFF

	_, _, err := readPacket(bytes.NewReader(frame))
	require.ErrorIs(t, err, pkg.ErrChecksum)
}

func TestReadPacket_Truncated(t *testing.T) {
	frame := goldenFrames[0].frame
	for cut := 0; cut < len(frame); cut++ {
		_, _, err := readPacket(bytes.NewReader(frame[:cut]))
		require.ErrorIs(t, err, pkg.ErrShortPacket, "truncated at %d bytes", cut)
	}
}

func TestWritePacket_PayloadTooLarge(t *testing.T) {
	var buf bytes.Buffer
	err := writePacket(&buf, CommandWrite, make([]byte, 0x10000))
	require.ErrorIs(t, err, pkg.ErrPayloadTooLarge)
}

func TestDeviceError_Messages(t *testing.T) {
	require.EqualError(t, ErrCodeAlreadyConnected, "error: PIC already connected")
	require.EqualError(t, ErrCodeFlashEraseFailed, "error: flash erase failed")
	require.EqualError(t, DeviceError(-9999), "failed with -9999")
}
