/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"si5351cal/src/calibrate"
	"si5351cal/src/clockgen"
	"si5351cal/src/config"
	"si5351cal/src/console"
)

var logLevel = "info"

type options struct {
	bus        string
	addr       addrFlag
	xtal       freqFlag
	target     freqFlag
	output     string
	drive      string
	load       string
	showHz     bool
	retryDelay time.Duration
}

func defaultOptions() *options {
	d := config.Defaults()
	return &options{
		addr:       addrFlag{a: i2c.Addr(d.Address)},
		xtal:       freqFlag{f: physic.Frequency(d.XtalFreq) * physic.Hertz},
		target:     freqFlag{f: physic.Frequency(d.Target) * 10 * physic.MilliHertz},
		output:     d.Output.String(),
		drive:      calibrate.DefaultDrive.String(),
		load:       calibrate.DefaultLoad.String(),
		retryDelay: d.RetryDelay,
	}
}

// config turns the command line into calibration settings.
func (o *options) config() (config.Config, error) {
	cfg := config.Defaults()
	cfg.Bus = o.bus
	cfg.Address = uint16(o.addr.a)
	cfg.XtalFreq = o.xtal.hertz()
	cfg.Target = o.target.hundredths()
	cfg.ShowHz = o.showHz
	cfg.RetryDelay = o.retryDelay
	out, err := parseClock(o.output)
	if err != nil {
		return cfg, err
	}
	cfg.Output = out
	return cfg, cfg.Validate()
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}
	return nil
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	return newCommand(defaultOptions())
}

func newCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "si5351cal",
		Short: "si5351cal finds the crystal correction of a Si5351 clock generator",
		Long: `si5351cal drives one output of a Si5351 at a known frequency. Watch it on a
frequency counter and adjust with the keyboard until the counter reads the
target, then press 'q' to get the correction for your crystal.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(opts)
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")

	f := cmd.Flags()
	f.StringVar(&opts.bus, "bus", "", "I²C bus name, empty for the first bus found")
	f.Var(&opts.addr, "addr", "I²C address of the Si5351")
	f.Var(&opts.xtal, "xtal", "nominal crystal frequency")
	f.Var(&opts.target, "target", "frequency to calibrate at")
	f.StringVar(&opts.output, "output", opts.output, "output to calibrate (CLK0-CLK5)")
	f.StringVar(&opts.drive, "drive", opts.drive, "initial drive strength (2mA, 4mA, 6mA, 8mA)")
	f.StringVar(&opts.load, "load", opts.load, "initial crystal load (0pF, 6pF, 8pF, 10pF)")
	f.BoolVar(&opts.showHz, "show-hz", false, "show the target in Hz on every status line")
	f.DurationVar(&opts.retryDelay, "retry-delay", opts.retryDelay, "wait between polls while the device initializes")

	return cmd
}

func run(opts *options) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	drive, err := clockgen.ParseDrive(opts.drive)
	if err != nil {
		return err
	}
	load, err := clockgen.ParseLoad(opts.load)
	if err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "initialize host drivers")
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return errors.Wrap(err, "open I²C bus")
	}
	defer bus.Close()
	logrus.WithFields(logrus.Fields{"bus": bus.String(), "addr": opts.addr.String()}).Debug("bus opened")

	keys, err := console.Open(os.Stdin)
	if err != nil {
		return err
	}
	defer keys.Close()
	if keys.Raw() {
		logrus.SetOutput(calibrate.CRLF(os.Stderr))
		defer logrus.SetOutput(os.Stderr)
	}

	cal := calibrate.New(cfg, clockgen.New(bus, cfg.Address), keys, os.Stdout, logrus.StandardLogger())
	marker := color.New(color.FgRed, color.Bold)
	cal.Marker = func(s string) string { return marker.Sprint(s) }
	cal.Session().SetDrive(drive)
	cal.Session().SetLoad(load)

	if err := cal.Start(); err != nil {
		return errors.Wrap(err, "initialize Si5351")
	}
	err = cal.Run()
	switch errors.Cause(err) {
	case console.ErrInterrupt, io.EOF:
		logrus.WithField("offset", cal.Session().Committed()).Info("done")
		return nil
	}
	return err
}
