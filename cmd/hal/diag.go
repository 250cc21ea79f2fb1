package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/cmd/hal/console"
	"github.com/mklimuk/hal/conv"
	"github.com/mklimuk/hal/gpioexp"
	"github.com/mklimuk/hal/i2cbus"
	"github.com/mklimuk/hal/store/eeprom"
	"github.com/mklimuk/hal/timer"
)

var diagCmd = cli.Command{
	Name:      "diag",
	Usage:     "print device status and statistics",
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
		diag := hal.DiagnosticOf(dev)
		if diag == nil {
			return console.Exit(1, "device %s has no diagnostics", dev.Name())
		}
		status, stats, err := diagRecords(dev.Kind(), diag)
		if err != nil {
			return console.Exit(1, "could not read diagnostics: %v", err)
		}
		fmt.Printf("%s status:     %+v\n", console.Bold(dev.Name()), status)
		fmt.Printf("%s statistics: %+v\n", console.Bold(dev.Name()), stats)
		return nil
	},
}

// diagRecords fills the family-specific record types behind the generic
// diagnostic capability.
func diagRecords(kind hal.Kind, diag hal.Diagnostic) (any, any, error) {
	var status, stats any
	switch kind {
	case hal.KindBus:
		status, stats = &i2cbus.Status{}, &i2cbus.Statistics{}
	case hal.KindTimer:
		status, stats = &timer.Status{}, &timer.Statistics{}
	case hal.KindConverter:
		status, stats = &conv.Status{}, &conv.Statistics{}
	case hal.KindStore:
		status, stats = &eeprom.Status{}, &eeprom.Statistics{}
	case hal.KindExpander:
		status, stats = &gpioexp.Status{}, &gpioexp.Statistics{}
	default:
		return nil, nil, fmt.Errorf("no diagnostic records for kind %q: %w", kind, hal.ErrInvalidParameter)
	}
	if err := diag.Status(status); err != nil {
		return nil, nil, err
	}
	if err := diag.Statistics(stats); err != nil {
		return nil, nil, err
	}
	return status, stats, nil
}
