package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/cmd/hal/console"
)

var timerCmd = cli.Command{
	Name:  "timer",
	Usage: "timer operations",
	Subcommands: []*cli.Command{
		&timerMeasureCmd,
	},
}

var timerMeasureCmd = cli.Command{
	Name:  "measure",
	Usage: "run the timer for a while and print the elapsed time",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "device", Usage: "timer device name", Value: "timer0"},
		&cli.DurationFlag{Name: "duration", Usage: "measurement window", Value: 2 * time.Second},
	},
	Action: func(c *cli.Context) error {
		t, err := booted(c)
		if err != nil {
			return err
		}
		defer func() {
			_ = t.close()
		}()
		tm, err := hal.AcquireTimer(t.registry, c.String("device"))
		if err != nil {
			return console.Exit(1, "could not acquire timer: %v", err)
		}
		err = tm.Start(c.Context)
		if err != nil {
			return console.Exit(1, "could not start timer: %v", err)
		}
		time.Sleep(c.Duration("duration"))
		err = tm.Stop(c.Context)
		if err != nil {
			return console.Exit(1, "could not stop timer: %v", err)
		}
		elapsed, err := tm.Elapsed()
		if err != nil {
			return console.Exit(1, "could not read elapsed time: %v", err)
		}
		fmt.Printf("elapsed: %s\n", elapsed)
		return nil
	},
}
