package main

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/sigurn/crc16"
	"github.com/stretchr/testify/require"

	"github.com/PICdew/pictools/programmer"
)

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// fakePort scripts programmer responses and records the request stream.
type fakePort struct {
	reads  bytes.Buffer
	writes bytes.Buffer
}

func (f *fakePort) Read(p []byte) (int, error)  { return f.reads.Read(p) }
func (f *fakePort) Write(p []byte) (int, error) { return f.writes.Write(p) }

func (f *fakePort) SetReadTimeout(time.Duration) error { return nil }

// respond appends a response frame for the given command.
func (f *fakePort) respond(command programmer.Command, payload []byte) {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], uint16(command))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(payload)))
	copy(buf[4:], payload)
	crc := crc16.Checksum(buf, crcTable)
	f.reads.Write(buf)
	f.reads.Write([]byte{byte(crc >> 8), byte(crc)})
}

// requests decodes the commands of the captured payloadless requests.
func (f *fakePort) requests(t *testing.T) []programmer.Command {
	t.Helper()
	raw := f.writes.Bytes()
	require.Zero(t, len(raw)%6, "request stream is not a sequence of empty frames")
	var commands []programmer.Command
	for i := 0; i < len(raw); i += 6 {
		commands = append(commands, programmer.Command(int16(binary.BigEndian.Uint16(raw[i:i+2]))))
	}
	return commands
}

func TestChipErase_RunsDisconnected(t *testing.T) {
	port := &fakePort{}
	port.respond(programmer.CommandProgrammerPing, nil)
	port.respond(programmer.CommandDisconnect, nil)
	port.respond(programmer.CommandChipErase, nil)

	require.NoError(t, chipErase(programmer.NewClient(port)))
	require.Equal(t, []programmer.Command{
		programmer.CommandProgrammerPing,
		programmer.CommandDisconnect,
		programmer.CommandChipErase,
	}, port.requests(t))
}

func TestChipErase_AlreadyDisconnected(t *testing.T) {
	port := &fakePort{}
	port.respond(programmer.CommandProgrammerPing, nil)
	notConnected := make([]byte, 4)
	code := int32(programmer.ErrCodeNotConnected)
	binary.BigEndian.PutUint32(notConnected, uint32(code))
	port.respond(programmer.CommandFailed, notConnected)
	port.respond(programmer.CommandChipErase, nil)

	require.NoError(t, chipErase(programmer.NewClient(port)))
	require.Equal(t, []programmer.Command{
		programmer.CommandProgrammerPing,
		programmer.CommandDisconnect,
		programmer.CommandChipErase,
	}, port.requests(t))
}
