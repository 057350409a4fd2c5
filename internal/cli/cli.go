// Package cli wires the espfleet command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/buckleypaul/espfleet/internal/config"
	"github.com/buckleypaul/espfleet/internal/discovery"
	"github.com/buckleypaul/espfleet/internal/esptool"
	"github.com/buckleypaul/espfleet/internal/log"
	"github.com/buckleypaul/espfleet/internal/provision"
)

// app carries the process collaborators so tests can swap them.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	strategy  func() (discovery.Strategy, error)
	listPorts func() ([]discovery.PortInfo, error)
	newRunner func(inst esptool.Installation, out io.Writer, logger log.Logger) provision.Runner
	sleep     func(time.Duration)
	now       func() time.Time
	paths     config.Paths

	configFile string
	logOpts    *log.Options
}

func newApp() *app {
	return &app{
		in:        os.Stdin,
		out:       os.Stdout,
		errOut:    os.Stderr,
		strategy:  discovery.Host,
		listPorts: discovery.ListPorts,
		newRunner: func(inst esptool.Installation, out io.Writer, logger log.Logger) provision.Runner {
			return esptool.New(inst, out, logger)
		},
		sleep:   time.Sleep,
		now:     time.Now,
		paths:   config.DefaultPaths(),
		logOpts: log.NewOptions(),
	}
}

// Execute runs the root command and exits 1 on any returned error.
func Execute() {
	a := newApp()
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(a.errOut, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	var f provisionFlags

	cmd := &cobra.Command{
		Use:   "espfleet",
		Short: "Erase, flash and verify every ESP32 attached to this machine",
		Long: `espfleet discovers serial-attached ESP32 boards and runs
erase, flash and optional verify on each of them in turn using esptool.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runProvision(cmd, f)
		},
	}
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	fl := cmd.Flags()
	fl.StringVar(&f.firmwareDir, "firmware-dir", "", "Directory with bootloader.bin, partitions.bin and firmware.bin")
	fl.BoolVar(&f.eraseOnly, "erase-only", false, "Only erase the flash, do not write firmware")
	fl.BoolVar(&f.verify, "verify", false, "Verify the firmware after writing it")
	fl.BoolVar(&f.skipErase, "skip-erase", false, "Skip the erase step")
	fl.BoolVarP(&f.yes, "yes", "y", false, "Do not ask for confirmation")
	fl.Int(config.KeyBaud, config.DefaultBaudRate, "Serial baud rate passed to esptool")
	fl.Duration(config.KeySettleDelay, config.DefaultSettleDelay, "Wait after erase and flash while the device reboots")
	fl.String(config.KeyTool, "", "Path to the esptool executable")
	fl.String(config.KeyVenv, "", "Python virtualenv that provides esptool")
	fl.String(config.KeyMetricsFile, "", "Write run metrics to this node_exporter textfile")
	fl.BoolVar(&f.noHistory, "no-history", false, "Do not record results in the history")

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Config file (replaces the global and local lookup)")
	pf.String(config.KeyHistoryDir, "", "Directory holding the provisioning history")
	a.logOpts.AddFlags(pf)

	cmd.AddCommand(
		newPortsCmd(a),
		newHistoryCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// setup loads configuration and builds the logger for a command.
func (a *app) setup(cmd *cobra.Command) (config.Config, log.Logger, error) {
	if errs := a.logOpts.Validate(); len(errs) > 0 {
		return config.Config{}, nil, errors.Join(errs...)
	}
	if err := log.Init(a.logOpts); err != nil {
		return config.Config{}, nil, err
	}
	logger := log.Std()

	paths := a.paths
	if a.configFile != "" {
		paths.File = a.configFile
	}
	cfg, err := config.Load(paths, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger.Debug("configuration loaded",
		"baud", cfg.BaudRate,
		"settleDelay", cfg.SettleDelay.String(),
		"historyDir", cfg.HistoryDir)
	return cfg, logger, nil
}
