package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/cmd/hal/console"
)

var eepromCmd = cli.Command{
	Name:    "eeprom",
	Aliases: []string{"mem"},
	Usage:   "storage operations",
	Subcommands: []*cli.Command{
		&eepromReadCmd,
		&eepromWriteCmd,
	},
}

var eepromReadCmd = cli.Command{
	Name:  "read",
	Usage: "read store contents",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "device", Usage: "store device name", Value: "eeprom0"},
		&cli.IntFlag{Name: "address", Usage: "address to read", Required: true},
		&cli.IntFlag{Name: "length", Usage: "number of bytes to read", Value: 16},
	},
	Action: func(c *cli.Context) error {
		t, err := booted(c)
		if err != nil {
			return err
		}
		defer func() {
			_ = t.close()
		}()
		store, err := hal.AcquireStore(t.registry, c.String("device"))
		if err != nil {
			return console.Exit(1, "could not acquire store: %v", err)
		}
		addr := c.Int("address")
		length := c.Int("length")
		if addr < 0 || uint32(addr) >= store.Capacity() {
			return console.Exit(1, "address out of range (0-%#x)", store.Capacity()-1)
		}
		if length <= 0 || length > 256 {
			return console.Exit(1, "length out of range: %d", length)
		}
		buf := make([]byte, length)
		err = store.ReadAt(c.Context, uint32(addr), buf)
		if err != nil {
			return console.Exit(1, "could not read store: %v", err)
		}
		fmt.Println(hex.Dump(buf))
		return nil
	},
}

var eepromWriteCmd = cli.Command{
	Name:  "write",
	Usage: "write store contents",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "device", Usage: "store device name", Value: "eeprom0"},
		&cli.IntFlag{Name: "address", Usage: "address to write", Required: true},
		&cli.StringFlag{Name: "data", Usage: "hex bytes to write (e.g. '01FF23')", Required: true},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"},
	},
	Action: func(c *cli.Context) error {
		t, err := booted(c)
		if err != nil {
			return err
		}
		defer func() {
			_ = t.close()
		}()
		store, err := hal.AcquireStore(t.registry, c.String("device"))
		if err != nil {
			return console.Exit(1, "could not acquire store: %v", err)
		}
		data, err := hex.DecodeString(c.String("data"))
		if err != nil {
			return console.Exit(1, "invalid data hex string: %v", err)
		}
		addr := c.Int("address")
		if addr < 0 || uint32(addr) >= store.Capacity() || uint32(len(data)) > store.Capacity()-uint32(addr) {
			return console.Exit(1, "write out of range")
		}
		if !c.Bool("yes") {
			answer, err := console.YesOrNo(fmt.Sprintf("overwrite %d bytes at %#x?", len(data), addr))
			if err != nil {
				return console.Exit(1, "could not read answer: %v", err)
			}
			if answer != console.Yes {
				console.PInfof(console.PictoStop, "write aborted")
				return nil
			}
		}
		err = store.WriteAt(c.Context, uint32(addr), data)
		if err != nil {
			return console.Exit(1, "could not write store: %v", err)
		}
		console.PInfof(console.PictoNotebook, "wrote %d bytes at %#x", len(data), addr)
		return nil
	},
}
