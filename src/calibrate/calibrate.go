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

/*
Package calibrate is the interactive calibration loop for a Si5351.

The operator watches the calibration output on a frequency counter and
nudges the frequency the chip believes it produces until the counter reads
the target. The difference becomes the crystal correction. Every accepted
key pushes the whole state to the chip again and prints one status line.
*/
package calibrate

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"si5351cal/src/clockgen"
	"si5351cal/src/config"
)

// Chip is what the calibration needs from the clock generator driver.
// *clockgen.Device implements it.
type Chip interface {
	Init(load clockgen.CrystalLoad, xoFreq uint32, corr int32) error
	WriteRegister(reg, val uint8) error
	ReadRegister(reg uint8) (uint8, error)
	SetDriveStrength(clk clockgen.Clock, drive clockgen.Drive) error
	SetCorrection(corr int32, input clockgen.PLLInput) error
	SetPLL(freq uint64, pll clockgen.PLL) error
	ResetPLL(pll clockgen.PLL) error
	SetFreq(freq uint64, clk clockgen.Clock) error
	UpdateStatus() (clockgen.Status, error)
}

// Calibrator drives a Session from operator input.
type Calibrator struct {
	cfg     config.Config
	session *Session
	chip    Chip
	in      Input
	out     io.Writer
	log     logrus.FieldLogger

	// Marker decorates the error marker of a failed frequency set.
	Marker func(string) string
	// Sleep waits out the retry delay while the device initializes.
	Sleep func(time.Duration)
}

// New creates a calibrator for the target in cfg. Output goes to out, which
// receives CRLF terminated lines like a serial monitor expects.
func New(cfg config.Config, chip Chip, in Input, out io.Writer, log logrus.FieldLogger) *Calibrator {
	return &Calibrator{
		cfg:     cfg,
		session: NewSession(cfg.Target),
		chip:    chip,
		in:      in,
		out:     out,
		log:     log,
		Marker:  func(s string) string { return s },
		Sleep:   time.Sleep,
	}
}

// Session returns the state being calibrated.
func (c *Calibrator) Session() *Session {
	return c.session
}

// Start initializes the chip with the session's crystal load and no
// correction, then applies the session once.
func (c *Calibrator) Start() error {
	if err := c.chip.Init(c.session.Load(), c.cfg.XtalFreq, 0); err != nil {
		return err
	}
	c.apply("")
	return nil
}

// Step is one round of the supervisory loop. While the device reports that it
// is initializing, Step warns and waits the retry delay. A failed status read
// is logged and retried after the same delay. Otherwise it runs one
// interactive pass.
func (c *Calibrator) Step() error {
	status, err := c.chip.UpdateStatus()
	if err != nil {
		c.log.WithError(err).Warn("reading device status failed")
		c.Sleep(c.cfg.RetryDelay)
		return nil
	}
	if status.SysInit {
		c.println("Initialising Si5351, you shouldn't see many of these!")
		c.Sleep(c.cfg.RetryDelay)
		return nil
	}

	c.println("")
	c.println(fmt.Sprintf("Adjust until your frequency counter reads as close to %d MHz as possible.",
		c.session.Target()/100_000_000))
	c.println("Press 'q' when complete.")
	return c.Interactive()
}

// Run repeats Step until the input fails.
func (c *Calibrator) Run() error {
	for {
		if err := c.Step(); err != nil {
			return err
		}
	}
}

func (c *Calibrator) println(s string) {
	_, _ = io.WriteString(c.out, s+"\r\n")
}
