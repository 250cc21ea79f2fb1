package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/cmd/hal/console"
)

var listCmd = cli.Command{
	Name:  "list",
	Usage: "list devices of the selected platform",
	Action: func(c *cli.Context) error {
		t, err := newTarget(c)
		if err != nil {
			return err
		}
		buf := make([]hal.DeviceInfo, t.registry.Count())
		n := t.registry.Enumerate(buf)
		for _, info := range buf[:n] {
			fmt.Printf("%s\t%s\n", console.Bold(info.Name), info.Kind)
		}
		console.PInfof(console.PictoPin, "%d devices", n)
		return nil
	},
}

var bootCmd = cli.Command{
	Name:  "boot",
	Usage: "run the platform boot sequence",
	Action: func(c *cli.Context) error {
		t, err := newTarget(c)
		if err != nil {
			return err
		}
		defer func() {
			_ = t.close()
		}()
		err = t.boot.Run()
		stats := t.boot.Stats()
		if err != nil {
			console.Errorf("boot incomplete: %v", err)
		}
		console.PInfof(console.PictoFinish, "boot done: %d entries, %d ok, %d failed",
			stats.Total, stats.Success, stats.Failure)
		if stats.Failure > 0 {
			return console.Exit(1, "last failure: %v", stats.LastError)
		}
		return nil
	},
}
