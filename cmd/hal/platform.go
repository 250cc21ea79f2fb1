package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/boot"
	"github.com/mklimuk/hal/cmd/hal/console"
	"github.com/mklimuk/hal/platform"
	"github.com/mklimuk/hal/platform/host"
	"github.com/mklimuk/hal/platform/nanopi"
)

// target is what every platform package hands back: the device table, the
// boot sequencer and a shutdown hook.
type target struct {
	registry *hal.Registry
	boot     *boot.Sequencer
	close    func() error
}

// newTarget assembles the platform selected on the command line.
func newTarget(c *cli.Context) (*target, error) {
	var cfg *platform.Config
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = platform.LoadFile(path)
		if err != nil {
			return nil, console.Exit(1, "could not load device list: %v", err)
		}
	}
	switch c.String("platform") {
	case "host":
		p, err := host.New(cfg)
		if err != nil {
			return nil, console.Exit(1, "could not assemble host platform: %v", err)
		}
		return &target{registry: p.Registry, boot: p.Boot, close: p.Close}, nil
	case "nanopi":
		p, err := nanopi.New(cfg)
		if err != nil {
			return nil, console.Exit(1, "could not assemble nanopi platform: %v", err)
		}
		return &target{registry: p.Registry, boot: p.Boot, close: p.Close}, nil
	}
	return nil, console.Exit(1, "unknown platform %q", c.String("platform"))
}

// booted assembles the platform and runs its boot sequence so commands can
// talk to live devices.
func booted(c *cli.Context) (*target, error) {
	t, err := newTarget(c)
	if err != nil {
		return nil, err
	}
	err = t.boot.Run()
	if err != nil {
		console.Warnf("boot incomplete: %v", err)
	}
	return t, nil
}
