// Command avremu is the QUTy board emulator's CLI front-end: it loads an
// Intel HEX firmware image and an optional event file, runs the board's
// step loop to an optional time limit, and prints the requested post-run
// dumps.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/cab202/avremu/board"
	"github.com/cab202/avremu/trace"
	"gopkg.in/urfave/cli.v2"
)

func main() {
	app := &cli.App{
		Name:  "avremu",
		Usage: "emulate firmware on the QUTy AVR board",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "events", Aliases: []string{"e"}, Usage: "event file for hardware events"},
			&cli.Uint64Flag{Name: "timeout", Aliases: []string{"t"}, Usage: "emulation runtime limit in nanoseconds"},
			&cli.BoolFlag{Name: "dump-stack", Aliases: []string{"s"}, Usage: "dump stack to stdout on termination"},
			&cli.BoolFlag{Name: "dump-regs", Aliases: []string{"r"}, Usage: "dump working registers to stdout on termination"},
			&cli.BoolFlag{Name: "dump-stdout", Aliases: []string{"o"}, Usage: "dump stdio peripheral output to stdout.txt"},
			&cli.BoolFlag{Name: "net-all", Aliases: []string{"n"}, Usage: "trace every net resolution"},
			&cli.BoolFlag{Name: "net-undef", Aliases: []string{"u"}, Usage: "trace nets that resolve Undefined"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "enable per-instruction trace"},
		},
		ArgsUsage: "FIRMWARE",
		Action:    run,
	}
	sort.Sort(cli.FlagsByName(app.Flags))
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Args().Len() < 1 {
		cli.ShowAppHelp(c)
		return cli.Exit("firmware argument is required", 1)
	}
	firmwarePath := c.Args().Get(0)

	if _, err := os.Stat(firmwarePath); err != nil {
		fmt.Printf("[FIRMWARE] Couldn't open %s. %v\n", firmwarePath, err)
		return cli.Exit("", 1)
	}

	sink := trace.NewStdout()

	cfg := board.Config{
		FirmwarePath: firmwarePath,
		EventsPath:   c.String("events"),
		TimeoutNS:    c.Uint64("timeout"),
		DumpStack:    c.Bool("dump-stack"),
		DumpRegs:     c.Bool("dump-regs"),
		DumpStdout:   c.Bool("dump-stdout"),
		NetAll:       c.Bool("net-all"),
		NetUndef:     c.Bool("net-undef"),
		Debug:        c.Bool("debug"),
		Sink:         sink,
	}

	if cfg.TimeoutNS == 0 {
		trace.Infof(sink, "RUN", "No emulation time limit specified.")
	} else {
		trace.Infof(sink, "RUN", "Time limit is %d ns.", cfg.TimeoutNS)
	}

	b, err := board.New(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var elapsed uint64
	for {
		step := b.Step()
		if step == 0 {
			break
		}
		elapsed += step
		if cfg.TimeoutNS != 0 && elapsed >= cfg.TimeoutNS {
			trace.Infof(sink, "END", "Time limit elapsed.")
			break
		}
	}

	trace.Infof(sink, "INFO", "Programme terminated after %d ns.", elapsed)

	if cfg.DumpStack {
		b.DumpStack()
	}
	if cfg.DumpRegs {
		b.DumpRegs()
	}
	b.Shutdown()

	return nil
}
