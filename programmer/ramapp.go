package programmer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// uploadInstructionsFormat frames the generated word pairs with the fixed
// preamble (destination address in RAM) and trailer (jump to the uploaded
// application).
const uploadInstructionsFormat = `/**
 * This file was generated by pictools.
 */

/* Destination address in RAM to copy to. */
0xa00041a4,
0x00005084,

/* Upload the application. */
%s,

/* Start the uploaded application. */
0xa00041b9,
0x00015339,
0x0f3c0019
`

// Objdump is the disassembler used to extract the RAM application's
// instruction stream from its ELF file.
const Objdump = "mips-unknown-elf-objdump"

// codeUnit is one instruction from the disassembly: its address and hex
// digits, with the halfwords of 32-bit instructions already swapped into
// upload order.
type codeUnit struct {
	address int64
	data    string
}

func (u codeUnit) size() int64 { return int64(len(u.data)) / 2 }

// parseDisassembly extracts the instruction stream from objdump -d output.
// Gaps between instructions are padded with 16-bit zero units so the
// uploaded image stays contiguous.
func parseDisassembly(r io.Reader) ([]codeUnit, error) {
	var units []codeUnit
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		addrText, rest, found := strings.Cut(line, ":\t")
		if !found {
			continue
		}
		address, err := strconv.ParseInt(strings.TrimSpace(addrText), 16, 64)
		if err != nil {
			continue
		}
		data, _, _ := strings.Cut(rest, "\t")
		data = strings.ReplaceAll(data, " ", "")
		if data == "" {
			continue
		}
		// MIPS16e mixes 16- and 32-bit encodings; the two halfwords of a
		// 32-bit instruction are uploaded low half first.
		if len(data) == 8 {
			data = data[4:] + data[:4]
		}
		if len(units) > 0 {
			prev := units[len(units)-1]
			prevEnd := prev.address + prev.size()
			for pad := int64(0); pad < (address-prevEnd)/2; pad++ {
				units = append(units, codeUnit{address: prevEnd + 2*pad, data: "0000"})
			}
		}
		units = append(units, codeUnit{address: address, data: data})
	}
	return units, scanner.Err()
}

// pairInstructions arranges the instruction stream into (high, low)
// halfword pairs, one 32-bit upload word per pair.
func pairInstructions(units []codeUnit) [][2]string {
	var pairs [][2]string
	var leftover string
	for _, unit := range units {
		if unit.size() == 4 {
			if leftover != "" {
				pairs = append(pairs, [2]string{unit.data[4:], leftover})
				leftover = unit.data[:4]
			} else {
				pairs = append(pairs, [2]string{unit.data[:4], unit.data[4:]})
			}
		} else {
			if leftover != "" {
				pairs = append(pairs, [2]string{unit.data, leftover})
				leftover = ""
			} else {
				leftover = unit.data
			}
		}
	}
	return pairs
}

// GenerateUploadInstructions converts objdump -d output of the RAM
// application into the C include file of ICSP instruction words that
// uploads it.
func GenerateUploadInstructions(disassembly io.Reader, w io.Writer) error {
	units, err := parseDisassembly(disassembly)
	if err != nil {
		return fmt.Errorf("parsing disassembly: %w", err)
	}

	pairs := pairInstructions(units)
	lines := make([]string, 0, 4*len(pairs))
	for _, pair := range pairs {
		lines = append(lines,
			"0x"+pair[0]+"41a6",
			"0x"+pair[1]+"50c6",
			"0x0000f8c4",
			"0x00043084")
	}

	if _, err := fmt.Fprintf(w, uploadInstructionsFormat, strings.Join(lines, ",\n")); err != nil {
		return fmt.Errorf("writing upload instructions: %w", err)
	}
	return nil
}

// UploadInstructionsFromELF disassembles the RAM application ELF with
// Objdump and writes the upload instruction file to w.
func UploadInstructionsFromELF(elfPath string, w io.Writer) error {
	out, err := exec.Command(Objdump, "-d", elfPath).Output()
	if err != nil {
		return fmt.Errorf("%s: %w", Objdump, err)
	}
	return GenerateUploadInstructions(bytes.NewReader(out), w)
}
