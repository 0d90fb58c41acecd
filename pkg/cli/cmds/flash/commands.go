// Package flash provides shell commands inspecting the record flash.
package flash

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/impactlog/pkg/cli/sh"
	"github.com/robotalks/impactlog/pkg/flash"
	"github.com/robotalks/impactlog/pkg/impact"
	"github.com/robotalks/impactlog/pkg/report"
)

// FormatDump renders data read at addr, 16 bytes per line.
func FormatDump(addr uint32, data []byte) string {
	var lines []string
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		lines = append(lines, fmt.Sprintf("%08x: % x", addr+uint32(off), data[off:end]))
	}
	return strings.Join(lines, "\n")
}

// FormatStatus decodes the status register.
func FormatStatus(st byte) string {
	var flags []string
	if st&flash.StatusBusy != 0 {
		flags = append(flags, "BUSY")
	}
	if st&flash.StatusWriteEnable != 0 {
		flags = append(flags, "WEL")
	}
	if len(flags) == 0 {
		flags = append(flags, "READY")
	}
	return fmt.Sprintf("0x%02x %s", st, strings.Join(flags, ","))
}

// FormatSlot renders a record slot read back from flash.
func FormatSlot(index int, rec []byte) string {
	if flash.Erased(rec) {
		return fmt.Sprintf("ID=%d empty", index)
	}
	s, err := impact.Decode(rec)
	if err != nil {
		return fmt.Sprintf("ID=%d %v", index, err)
	}
	return report.FormatRecord(index, s)
}

func device(c *ishell.Context) *flash.Device {
	return sh.ShellFrom(c).Env.Board.Flash
}

func dump(c *ishell.Context, addr uint32, n int) {
	data, err := device(c).ReadAt(addr, n)
	if err != nil {
		c.Err(err)
		return
	}
	sh.Print(c, data, FormatDump(addr, data))
}

func pollReady(c *ishell.Context) bool {
	if err := device(c).PollReady(); err != nil {
		c.Err(err)
		return false
	}
	return true
}

var (
	// IDCmd reads the JEDEC identity.
	IDCmd = ishell.Cmd{
		Name:    "flash.id",
		Aliases: []string{"id"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			d := device(c)
			id := d.Identify()
			sh.Print(c, id, fmt.Sprintf("% x (expected % x) segment %s", id, d.Expected(), d.Segment()))
		}),
	}

	// StatusCmd reads the status register.
	StatusCmd = ishell.Cmd{
		Name:    "flash.status",
		Aliases: []string{"fs"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			st := device(c).Status()
			sh.Print(c, st, FormatStatus(st))
		}),
	}

	// DumpCmd reads raw bytes.
	DumpCmd = ishell.Cmd{
		Name:    "flash.dump",
		Aliases: []string{"dump"},
		Help:    "ADDR N",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			addr, ok := sh.ParseUint(c, 0, "ADDR", 32)
			if !ok {
				return
			}
			n, ok := sh.ParseUint(c, 1, "N", 16)
			if !ok {
				return
			}
			dump(c, uint32(addr), int(n))
		}),
	}

	// PageCmd reads the page containing an address.
	PageCmd = ishell.Cmd{
		Name:    "flash.page",
		Aliases: []string{"page"},
		Help:    "ADDR",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			addr, ok := sh.ParseUint(c, 0, "ADDR", 32)
			if !ok {
				return
			}
			dump(c, uint32(addr-addr%flash.PageSize), flash.PageSize)
		}),
	}

	// EraseCmd erases the subsector containing an address.
	EraseCmd = ishell.Cmd{
		Name:    "flash.erase",
		Aliases: []string{"erase"},
		Help:    "ADDR",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			addr, ok := sh.ParseUint(c, 0, "ADDR", 32)
			if !ok {
				return
			}
			if err := device(c).EraseRegion(uint32(addr)); err != nil {
				c.Err(err)
				return
			}
			if pollReady(c) {
				c.Println("OK")
			}
		}),
	}

	// BulkEraseCmd erases the whole device.
	BulkEraseCmd = ishell.Cmd{
		Name:    "flash.bulk-erase",
		Aliases: []string{"bulk-erase"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			device(c).BulkErase()
			if pollReady(c) {
				c.Println("OK")
			}
		}),
	}

	// ResetCmd resets the device and reselects the record segment.
	ResetCmd = ishell.Cmd{
		Name:    "flash.reset",
		Aliases: []string{"reset"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if err := device(c).Configure(); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// SegmentCmd prints or selects the addressed segment.
	SegmentCmd = ishell.Cmd{
		Name:    "flash.segment",
		Aliases: []string{"seg"},
		Help:    "[low|high]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			d := device(c)
			if len(c.Args) > 0 {
				seg, err := flash.ParseSegment(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				if err := d.SelectSegment(seg); err != nil {
					c.Err(err)
					return
				}
			}
			ext := d.ExtendedAddress()
			sh.Print(c, ext, fmt.Sprintf("%s (extended address 0x%02x)", flash.Segment(ext&1), ext))
		}),
	}

	// RecordsCmd prints stored records.
	RecordsCmd = ishell.Cmd{
		Name:    "flash.records",
		Aliases: []string{"records", "record"},
		Help:    "[FIRST [COUNT]]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			first, count := uint64(0), uint64(1)
			if len(c.Args) > 0 {
				var ok bool
				if first, ok = sh.ParseUint(c, 0, "FIRST", 31); !ok {
					return
				}
			}
			if len(c.Args) > 1 {
				var ok bool
				if count, ok = sh.ParseUint(c, 1, "COUNT", 31); !ok {
					return
				}
			}
			d := device(c)
			for i := int(first); i < int(first+count); i++ {
				rec, err := d.ReadRecord(i, impact.RecordSize)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(FormatSlot(i, rec))
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&IDCmd,
		&StatusCmd,
		&DumpCmd,
		&PageCmd,
		&EraseCmd,
		&BulkEraseCmd,
		&ResetCmd,
		&SegmentCmd,
		&RecordsCmd,
	)
}
