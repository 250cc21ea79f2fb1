package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hal/cmd/hal/console"
)

var stateCmd = cli.Command{
	Name:      "state",
	Usage:     "print the lifecycle state of a device",
	ArgsUsage: "<device>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		t, err := booted(c)
		if err != nil {
			return err
		}
		defer func() {
			_ = t.close()
		}()
		dev, err := t.registry.Acquire(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not acquire device: %v", err)
		}
		fmt.Printf("%s: %s\n", console.Bold(dev.Name()), dev.Lifecycle().State())
		return nil
	},
}

var suspendCmd = cli.Command{
	Name:      "suspend",
	Usage:     "suspend a running device",
	ArgsUsage: "<device>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		t, err := booted(c)
		if err != nil {
			return err
		}
		defer func() {
			_ = t.close()
		}()
		dev, err := t.registry.Acquire(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not acquire device: %v", err)
		}
		err = dev.Lifecycle().Suspend()
		if err != nil {
			return console.Exit(1, "could not suspend %s: %v", dev.Name(), err)
		}
		console.PInfof(console.PictoStop, "%s suspended", dev.Name())
		return nil
	},
}

var resumeCmd = cli.Command{
	Name:      "resume",
	Usage:     "resume a suspended device",
	ArgsUsage: "<device>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		t, err := booted(c)
		if err != nil {
			return err
		}
		defer func() {
			_ = t.close()
		}()
		dev, err := t.registry.Acquire(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not acquire device: %v", err)
		}
		err = dev.Lifecycle().Resume()
		if err != nil {
			return console.Exit(1, "could not resume %s: %v", dev.Name(), err)
		}
		console.PInfof(console.PictoPlug, "%s running", dev.Name())
		return nil
	},
}
