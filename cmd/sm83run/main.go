package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"github.com/valerio/go-sm83/sm83"
	"github.com/valerio/go-sm83/sm83/cpu"
	"github.com/valerio/go-sm83/sm83/debug"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		slog.Error("Error running program", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "sm83run"
	app.Description = "Runs a program image on a headless SM83 core"
	app.Usage = "sm83run [options] <image file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "image",
			Usage: "Path to the program image (.gb, .bin, .gz, .zip, .7z, ...)",
		},
		cli.StringFlag{
			Name:  "load-addr",
			Usage: "Address the image is loaded at",
			Value: "0x0000",
		},
		cli.StringFlag{
			Name:  "pc",
			Usage: "Initial program counter",
			Value: "0x0000",
		},
		cli.StringFlag{
			Name:  "sp",
			Usage: "Initial stack pointer",
			Value: "0xFFFE",
		},
		cli.IntFlag{
			Name:  "steps",
			Usage: "Maximum number of instructions to execute",
			Value: 1_000_000,
		},
		cli.BoolFlag{
			Name:  "post-boot",
			Usage: "Start from the DMG post boot register values (overrides --pc and --sp)",
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "Log every executed instruction (needs --log-level debug)",
		},
		cli.BoolFlag{
			Name:  "digest",
			Usage: "Print a hash of the final machine state",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error",
			Value: "info",
		},
		cli.BoolTFlag{
			Name:  "halt-on-fault",
			Usage: "Exit with an error when the program faults (default true)",
		},
	}
	app.Action = run
	return app
}

func run(c *cli.Context) error {
	if err := setupLogging(c.String("log-level")); err != nil {
		return err
	}

	path := c.String("image")
	if path == "" {
		if c.NArg() == 0 {
			cli.ShowAppHelp(c)
			return errors.New("no image path provided")
		}
		path = c.Args().Get(0)
	}

	loadAddr, err := parseAddress(c, "load-addr")
	if err != nil {
		return err
	}

	var opts []cpu.Option
	if c.Bool("post-boot") {
		opts = append(opts, cpu.WithPostBootState())
	} else {
		pc, err := parseAddress(c, "pc")
		if err != nil {
			return err
		}
		sp, err := parseAddress(c, "sp")
		if err != nil {
			return err
		}
		opts = append(opts, cpu.WithRegisters(cpu.NewRegisters(0, 0, 0, 0, sp, pc)))
	}

	machine, err := sm83.NewWithFile(path, loadAddr, opts...)
	if err != nil {
		return err
	}
	machine.Trace = c.Bool("trace")

	steps, runErr := machine.Run(c.Int("steps"))
	slog.Info("Execution finished", "steps", steps, "cycles", machine.CPU().Cycles())

	if runErr != nil {
		if !cpu.IsFault(runErr) {
			return runErr
		}
		reportFault(machine, runErr)
		if c.BoolT("halt-on-fault") {
			return runErr
		}
	}

	fmt.Println(machine.CPU().Registers().String())
	if c.Bool("digest") {
		digest, err := machine.Digest()
		if err != nil {
			return err
		}
		fmt.Printf("digest=%016x\n", digest)
	}
	return nil
}

// reportFault logs the fault and the code around the faulting instruction.
func reportFault(machine *sm83.Machine, err error) {
	slog.Error("Program faulted", "error", err)

	data := machine.ExtractDebugData()
	for _, line := range debug.CreateDisassembly(data.Memory, data.CPU.PC, 9) {
		marker := " "
		if line.IsCurrent {
			marker = ">"
		}
		fmt.Fprintf(os.Stderr, "%s0x%04X: %s\n", marker, line.Address, line.Instruction)
	}
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}

func parseAddress(c *cli.Context, name string) (uint16, error) {
	value, err := strconv.ParseUint(c.String(name), 0, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid --%s", name)
	}
	return uint16(value), nil
}
