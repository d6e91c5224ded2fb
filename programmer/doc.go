// Package programmer implements the host side of the pictools UART
// protocol: framed commands exchanged with the programmer (an Arduino Due
// bridging the PC to the PIC over ICSP) through its CDC-ACM serial port.
//
//	+------+          +---------------+          +---------+
//	|      |   UART   |  Programmer   |   ICSP   |         |
//	|  PC  o----------o               o----------o   PIC   |
//	|      |          | (Arduino Due) |          |         |
//	+------+          +---------------+          +---------+
//
// # Wire Format
//
// Every packet is a big-endian command and payload length, the payload,
// and a CRC-16/CCITT-FALSE checksum over header plus payload. Responses
// echo the request command on success; a CommandFailed response carries a
// [DeviceError] code.
//
// # Usage
//
//	client := programmer.NewClient(port)
//	if err := client.ProgrammerPing(); err != nil {
//	    // programmer not responding
//	}
//	data, err := client.ReadRange(programmer.FlashAddress, programmer.FlashSize, nil)
//
// The client is transport-agnostic: any io.ReadWriter works, and
// transports with a SetReadTimeout method get their deadline raised
// automatically during long-running erase commands.
package programmer
