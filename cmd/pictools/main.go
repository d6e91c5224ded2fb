// Command pictools programs and inspects PIC32 devices through the
// PIC programmer over its CDC-ACM serial port.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/marcinbor85/gohex"
	cli "github.com/urfave/cli/v2"
	"go.bug.st/serial"

	"github.com/PICdew/pictools/pkg"
	"github.com/PICdew/pictools/pkg/prof"
	"github.com/PICdew/pictools/pkg/usbid"
	"github.com/PICdew/pictools/programmer"
	"github.com/PICdew/pictools/usb"
)

const version = "0.6.0"

func main() {
	var (
		portName   string
		debug      bool
		cpuProfile string
	)

	app := cli.NewApp()
	app.Name = "pictools"
	app.Version = version
	app.Usage = "PIC programmer tool for PIC32MM devices."
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "port",
			Aliases:     []string{"p"},
			Value:       "/dev/ttyUSB1",
			EnvVars:     []string{"PICTOOLS_PORT"},
			Destination: &portName,
			Usage:       "Programmer serial port",
		},
		&cli.BoolFlag{
			Name:        "debug",
			Aliases:     []string{"d"},
			Destination: &debug,
			Usage:       "Enable debug logging",
		},
		&cli.StringFlag{
			Name:        "cpu-profile",
			Destination: &cpuProfile,
			Usage:       "Write a CPU profile to `FILE` (builds with -tags profile)",
		},
	}
	app.Before = func(c *cli.Context) error {
		if debug {
			pkg.SetLogLevel(slog.LevelDebug)
		}
		if cpuProfile != "" {
			return prof.StartCPU(cpuProfile)
		}
		return nil
	}
	app.After = func(c *cli.Context) error {
		prof.StopCPU()
		return nil
	}

	app.Commands = []*cli.Command{
		{
			Name:  "ping",
			Usage: "Check that the PIC is alive",
			Action: func(c *cli.Context) error {
				return withClient(portName, func(client *programmer.Client) error {
					return ensureConnected(client)
				})
			},
		},
		{
			Name:  "programmer_ping",
			Usage: "Check that the programmer is alive",
			Action: func(c *cli.Context) error {
				return withClient(portName, func(client *programmer.Client) error {
					if err := client.ProgrammerPing(); err != nil {
						return err
					}
					fmt.Println("Programmer is alive.")
					return nil
				})
			},
		},
		{
			Name:  "reset",
			Usage: "Reset the PIC",
			Action: func(c *cli.Context) error {
				return withClient(portName, func(client *programmer.Client) error {
					if err := ensureDisconnected(client); err != nil {
						return err
					}
					if err := client.Reset(); err != nil {
						return err
					}
					fmt.Println("PIC reset.")
					return nil
				})
			},
		},
		{
			Name:      "flash_erase",
			Usage:     "Erase a flash range",
			ArgsUsage: "<address> <size>",
			Action: func(c *cli.Context) error {
				address, err := parseUint32(c.Args().Get(0))
				if err != nil {
					return err
				}
				size, err := parseUint32(c.Args().Get(1))
				if err != nil {
					return err
				}
				return withClient(portName, func(client *programmer.Client) error {
					if err := ensureConnected(client); err != nil {
						return err
					}
					if err := client.Erase(address, size); err != nil {
						return err
					}
					fmt.Println("Erase complete.")
					return nil
				})
			},
		},
		{
			Name:  "flash_erase_chip",
			Usage: "Erase program flash, boot flash and configuration memory",
			Action: func(c *cli.Context) error {
				return withClient(portName, chipErase)
			},
		},
		{
			Name:      "flash_read",
			Usage:     "Read a flash range to an Intel HEX file",
			ArgsUsage: "<address> <size> <outfile>",
			Action: func(c *cli.Context) error {
				address, err := parseUint32(c.Args().Get(0))
				if err != nil {
					return err
				}
				size, err := parseUint32(c.Args().Get(1))
				if err != nil {
					return err
				}
				outfile := c.Args().Get(2)
				return withClient(portName, func(client *programmer.Client) error {
					if err := ensureConnected(client); err != nil {
						return err
					}
					return readToFile(client, []programmer.MemoryRange{{Address: address, Size: size}}, outfile)
				})
			},
		},
		{
			Name:      "flash_read_all",
			Usage:     "Read program flash, boot flash and configuration memory to an Intel HEX file",
			ArgsUsage: "<outfile>",
			Action: func(c *cli.Context) error {
				outfile := c.Args().Get(0)
				return withClient(portName, func(client *programmer.Client) error {
					if err := ensureConnected(client); err != nil {
						return err
					}
					return readToFile(client, programmer.FlashRanges, outfile)
				})
			},
		},
		{
			Name:      "flash_write",
			Usage:     "Write an Intel HEX file to flash",
			ArgsUsage: "<hexfile>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "erase",
					Aliases: []string{"e"},
					Usage:   "Erase written ranges first",
				},
				&cli.BoolFlag{
					Name:    "verify",
					Aliases: []string{"v"},
					Usage:   "Read back and verify written data",
				},
			},
			Action: func(c *cli.Context) error {
				hexfile := c.Args().Get(0)
				return withClient(portName, func(client *programmer.Client) error {
					if err := ensureConnected(client); err != nil {
						return err
					}
					return writeFromFile(client, hexfile, c.Bool("erase"), c.Bool("verify"))
				})
			},
		},
		{
			Name:  "device_status_print",
			Usage: "Print the PIC status",
			Action: func(c *cli.Context) error {
				return withClient(portName, func(client *programmer.Client) error {
					if err := client.ProgrammerPing(); err != nil {
						return err
					}
					status, err := client.DeviceStatus()
					if err != nil {
						return err
					}
					fmt.Println(status)
					return nil
				})
			},
		},
		{
			Name:  "configuration_print",
			Usage: "Print the PIC configuration words",
			Action: func(c *cli.Context) error {
				return withClient(portName, func(client *programmer.Client) error {
					if err := ensureConnected(client); err != nil {
						return err
					}
					words, err := client.ReadWords(
						programmer.ConfigurationWordsAddress, programmer.ConfigurationWordCount)
					if err != nil {
						return err
					}
					config, err := programmer.ParseDeviceConfiguration(words)
					if err != nil {
						return err
					}
					fmt.Println(config)
					return nil
				})
			},
		},
		{
			Name:  "device_id_print",
			Usage: "Print the PIC device id",
			Action: func(c *cli.Context) error {
				return withClient(portName, func(client *programmer.Client) error {
					if err := ensureConnected(client); err != nil {
						return err
					}
					words, err := client.ReadWords(programmer.DeviceIDAddress, 1)
					if err != nil {
						return err
					}
					fmt.Println(programmer.ParseDeviceID(words[0]))
					return nil
				})
			},
		},
		{
			Name:  "udid_print",
			Usage: "Print the PIC unique chip id",
			Action: func(c *cli.Context) error {
				return withClient(portName, func(client *programmer.Client) error {
					if err := ensureConnected(client); err != nil {
						return err
					}
					words, err := client.ReadWords(programmer.UDIDAddress, len(programmer.UDID{}))
					if err != nil {
						return err
					}
					var udid programmer.UDID
					copy(udid[:], words)
					fmt.Println(udid)
					return nil
				})
			},
		},
		{
			Name:      "generate_ramapp_upload_instructions",
			Usage:     "Generate the RAM application upload instruction file from its ELF",
			ArgsUsage: "<elffile> <outfile>",
			Action: func(c *cli.Context) error {
				f, err := os.Create(c.Args().Get(1))
				if err != nil {
					return err
				}
				defer f.Close()
				return programmer.UploadInstructionsFromELF(c.Args().Get(0), f)
			},
		},
		{
			Name:  "descriptors",
			Usage: "Print the programmer's USB descriptor table",
			Action: func(c *cli.Context) error {
				printDescriptors()
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		pkg.LogError(pkg.ComponentCLI, "command failed", "error", err)
		os.Exit(1)
	}
}

// parseUint32 parses a decimal, hex (0x) or octal (0) 32-bit value.
func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", s, err)
	}
	return uint32(v), nil
}

// withClient opens the programmer serial port and runs fn with a client
// speaking the packet protocol over it.
func withClient(portName string, fn func(*programmer.Client) error) error {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: programmer.DefaultBaudRate})
	if err != nil {
		return fmt.Errorf("opening %s: %w", portName, err)
	}
	defer port.Close()
	if err := port.SetReadTimeout(programmer.ReadTimeout); err != nil {
		return fmt.Errorf("setting read timeout: %w", err)
	}
	pkg.LogDebug(pkg.ComponentSerial, "port opened",
		"port", portName,
		"baudrate", programmer.DefaultBaudRate)
	return fn(programmer.NewClient(port))
}

// ensureConnected brings the programmer into a state where the RAM
// application on the PIC answers commands.
func ensureConnected(client *programmer.Client) error {
	if err := client.ProgrammerPing(); err != nil {
		return err
	}
	fmt.Println("Programmer is alive.")

	err := client.Connect()
	switch {
	case err == nil:
		fmt.Println("Connected to PIC.")
	case errors.Is(err, programmer.ErrCodeAlreadyConnected):
	default:
		return err
	}

	if err := client.Ping(); err != nil {
		return err
	}
	fmt.Println("PIC is alive.")
	return nil
}

// ensureDisconnected drops any ICSP connection so the PIC runs freely.
func ensureDisconnected(client *programmer.Client) error {
	if err := client.ProgrammerPing(); err != nil {
		return err
	}
	fmt.Println("Programmer is alive.")

	err := client.Disconnect()
	switch {
	case err == nil:
		fmt.Println("Disconnected from PIC.")
	case errors.Is(err, programmer.ErrCodeNotConnected):
	default:
		return err
	}
	return nil
}

// chipErase erases program flash, boot flash and configuration memory.
// It is a programmer-side command and must run with the PIC disconnected,
// like reset.
func chipErase(client *programmer.Client) error {
	if err := ensureDisconnected(client); err != nil {
		return err
	}
	if err := client.ChipErase(); err != nil {
		return err
	}
	fmt.Println("Chip erase complete.")
	return nil
}

// readToFile reads the given memory ranges and dumps them as Intel HEX.
func readToFile(client *programmer.Client, ranges []programmer.MemoryRange, outfile string) error {
	var total int64
	for _, r := range ranges {
		total += int64(r.Size)
	}
	pw, tracker := newProgress("Reading", total)
	defer pw.Stop()

	memory := gohex.NewMemory()
	for _, r := range ranges {
		data, err := client.ReadRange(r.Address, r.Size, func(n int) {
			tracker.Increment(int64(n))
		})
		if err != nil {
			return err
		}
		if err := memory.AddBinary(r.Address, data); err != nil {
			return fmt.Errorf("adding range 0x%08x to hex image: %w", r.Address, err)
		}
	}
	tracker.MarkAsDone()

	f, err := os.Create(outfile)
	if err != nil {
		return err
	}
	defer f.Close()
	return memory.DumpIntelHex(f, 16)
}

// writeFromFile writes an Intel HEX image to flash, optionally erasing
// the written ranges first and verifying afterwards.
func writeFromFile(client *programmer.Client, hexfile string, erase, verify bool) error {
	f, err := os.Open(hexfile)
	if err != nil {
		return err
	}
	defer f.Close()

	memory := gohex.NewMemory()
	if err := memory.ParseIntelHex(f); err != nil {
		return fmt.Errorf("parsing %s: %w", hexfile, err)
	}
	segments := memory.GetDataSegments()

	if erase {
		for _, segment := range segments {
			address := programmer.PhysicalAddress(segment.Address)
			if err := client.Erase(address, uint32(len(segment.Data))); err != nil {
				return fmt.Errorf("erasing 0x%08x: %w", address, err)
			}
		}
		fmt.Println("Erase complete.")
	}

	var total int64
	for _, segment := range segments {
		total += int64(len(segment.Data))
	}
	pw, tracker := newProgress("Writing", total)
	defer pw.Stop()

	for _, segment := range segments {
		address := programmer.PhysicalAddress(segment.Address)
		err := client.WriteRange(address, segment.Data, func(n int) {
			tracker.Increment(int64(n))
		})
		if err != nil {
			return fmt.Errorf("writing 0x%08x: %w", address, err)
		}
	}
	tracker.MarkAsDone()
	fmt.Println("Write complete.")

	if verify {
		pw, tracker := newProgress("Verifying", total)
		defer pw.Stop()
		for _, segment := range segments {
			address := programmer.PhysicalAddress(segment.Address)
			err := client.VerifyRange(address, segment.Data, func(n int) {
				tracker.Increment(int64(n))
			})
			if err != nil {
				return fmt.Errorf("verifying 0x%08x: %w", address, err)
			}
		}
		tracker.MarkAsDone()
		fmt.Println("Verify complete.")
	}
	return nil
}

// newProgress starts a progress bar with a single byte-counting tracker.
func newProgress(message string, total int64) (progress.Writer, *progress.Tracker) {
	pw := progress.NewWriter()
	pw.SetOutputWriter(os.Stdout)
	pw.SetAutoStop(true)
	tracker := &progress.Tracker{
		Message: message,
		Total:   total,
		Units:   progress.UnitsBytes,
	}
	pw.AppendTracker(tracker)
	go pw.Render()
	return pw, tracker
}

// printDescriptors renders the USB descriptor table of the programmer's
// CDC-ACM port.
func printDescriptors() {
	device := usb.Device()
	fmt.Printf("Vendor:  0x%04x", device.VendorID)
	db := usbid.New()
	if db.Load() {
		if name := db.LookupVendor(device.VendorID); name != "" {
			fmt.Printf("  %s", name)
		}
	}
	fmt.Printf("\nProduct: 0x%04x", device.ProductID)
	if name := db.LookupProduct(device.VendorID, device.ProductID); name != "" {
		fmt.Printf("  %s", name)
	}
	fmt.Println()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Descriptor", "Type", "Length", "Bytes"})
	for i, d := range usb.Descriptors() {
		buf := make([]byte, d.Len())
		d.MarshalTo(buf)
		t.AppendRow(table.Row{
			i,
			descriptorName(d),
			fmt.Sprintf("0x%02x", d.Type()),
			d.Len(),
			fmt.Sprintf("% x", buf),
		})
	}
	t.Render()
}

func descriptorName(d usb.Descriptor) string {
	switch d := d.(type) {
	case *usb.DeviceDescriptor:
		return "device"
	case *usb.ConfigurationDescriptor:
		return "configuration"
	case *usb.InterfaceAssociationDescriptor:
		return "interface association"
	case *usb.InterfaceDescriptor:
		return fmt.Sprintf("interface %d", d.InterfaceNumber)
	case *usb.EndpointDescriptor:
		return fmt.Sprintf("endpoint 0x%02x", d.EndpointAddress)
	case *usb.CDCHeaderDescriptor:
		return "cdc header"
	case *usb.CDCACMDescriptor:
		return "cdc acm"
	case *usb.CDCUnionDescriptor:
		return "cdc union"
	case *usb.CDCCallManagementDescriptor:
		return "cdc call management"
	default:
		return "unknown"
	}
}
