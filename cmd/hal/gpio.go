package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/cmd/hal/console"
)

var gpioCmd = cli.Command{
	Name:  "gpio",
	Usage: "I/O expander operations",
	Subcommands: []*cli.Command{
		&gpioReadCmd,
		&gpioWriteCmd,
	},
}

var gpioReadCmd = cli.Command{
	Name:  "read",
	Usage: "read both expander ports",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "device", Usage: "expander device name", Value: "gpio0"},
	},
	Action: func(c *cli.Context) error {
		t, err := booted(c)
		if err != nil {
			return err
		}
		defer func() {
			_ = t.close()
		}()
		exp, err := hal.AcquireExpander(t.registry, c.String("device"))
		if err != nil {
			return console.Exit(1, "could not acquire expander: %v", err)
		}
		a, err := exp.ReadPort(c.Context, 0)
		if err != nil {
			return console.Exit(1, "could not read gpio A: %v", err)
		}
		fmt.Printf("I/O A: %#X\n", a)
		b, err := exp.ReadPort(c.Context, 1)
		if err != nil {
			return console.Exit(1, "could not read gpio B: %v", err)
		}
		fmt.Printf("I/O B: %#X\n", b)
		return nil
	},
}

var gpioWriteCmd = cli.Command{
	Name:      "write",
	Usage:     "drive one expander port",
	ArgsUsage: "<port> <value>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "device", Usage: "expander device name", Value: "gpio0"},
		&cli.IntFlag{Name: "port", Usage: "port index (0 for A, 1 for B)", Value: 0},
		&cli.StringFlag{Name: "value", Usage: "hex byte to drive (e.g. 'FF')", Required: true},
	},
	Action: func(c *cli.Context) error {
		t, err := booted(c)
		if err != nil {
			return err
		}
		defer func() {
			_ = t.close()
		}()
		exp, err := hal.AcquireExpander(t.registry, c.String("device"))
		if err != nil {
			return console.Exit(1, "could not acquire expander: %v", err)
		}
		value, err := hex.DecodeString(c.String("value"))
		if err != nil || len(value) != 1 {
			return console.Exit(1, "could not decode value: %v", err)
		}
		err = exp.WritePort(c.Context, c.Int("port"), value[0])
		if err != nil {
			return console.Exit(1, "could not write gpio: %v", err)
		}
		console.PInfof(console.PictoPlug, "port %d set to %#X", c.Int("port"), value[0])
		return nil
	},
}
