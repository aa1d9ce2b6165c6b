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

package calibrate

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"si5351cal/src/clockgen"
)

// Input is the operator's key stream.
type Input interface {
	// ReadByte blocks until the next key is available.
	ReadByte() (byte, error)
	// Discard drops whatever has been typed but not read yet.
	Discard()
}

type action int

const (
	nudgeTrial action = iota
	nudgeTarget
	setDrive
	setLoad
	fullReset
	commit
)

var actionNames = [...]string{"nudge trial", "nudge target", "set drive", "set load", "reset", "commit"}

func (a action) String() string {
	return actionNames[a]
}

type command struct {
	action action
	step   int64
	drive  clockgen.Drive
	load   clockgen.CrystalLoad
}

// Steps are in hundredths of Hz.
var commands = map[byte]command{
	'q': {action: commit},
	'R': {action: fullReset},

	'r': {action: nudgeTrial, step: 1}, // 0.01 Hz
	'f': {action: nudgeTrial, step: -1},
	't': {action: nudgeTrial, step: 10}, // 0.1 Hz
	'g': {action: nudgeTrial, step: -10},
	'y': {action: nudgeTrial, step: 100}, // 1 Hz
	'h': {action: nudgeTrial, step: -100},
	'u': {action: nudgeTrial, step: 1_000}, // 10 Hz
	'j': {action: nudgeTrial, step: -1_000},
	'i': {action: nudgeTrial, step: 10_000}, // 100 Hz
	'k': {action: nudgeTrial, step: -10_000},
	'o': {action: nudgeTrial, step: 100_000}, // 1 kHz
	'l': {action: nudgeTrial, step: -100_000},
	'p': {action: nudgeTrial, step: 1_000_000}, // 10 kHz
	';': {action: nudgeTrial, step: -1_000_000},

	']': {action: nudgeTarget, step: 100_000_000}, // 1 MHz
	'[': {action: nudgeTarget, step: -100_000_000},
	'}': {action: nudgeTarget, step: 1_000_000_000}, // 10 MHz
	'{': {action: nudgeTarget, step: -1_000_000_000},

	'1': {action: setDrive, drive: clockgen.Drive2mA},
	'2': {action: setDrive, drive: clockgen.Drive4mA},
	'3': {action: setDrive, drive: clockgen.Drive6mA},
	'4': {action: setDrive, drive: clockgen.Drive8mA},

	'6': {action: setLoad, load: clockgen.Load0pF},
	'7': {action: setLoad, load: clockgen.Load6pF},
	'8': {action: setLoad, load: clockgen.Load8pF},
	'9': {action: setLoad, load: clockgen.Load10pF},
}

var legend = []string{
	"   Up:   r   t   y   u   i   o  p   ]   }   1-4   6-9",
	" Down:   f   g   h   j   k   l  ;   [   {   Drive Load-C",
	"   Hz: 0.01 0.1  1   10  100 1K 10K 100K 1M  2-8mA 0-10pF",
}

// Handle carries out the command bound to key, followed by one apply and
// report cycle. Keys without a command are ignored without touching the
// session, the chip or the output. It reports whether key was a command and
// whether it ended the pass.
func (c *Calibrator) Handle(key byte) (ok, done bool) {
	cmd, ok := commands[key]
	if !ok {
		return false, false
	}
	c.log.WithFields(logrus.Fields{"key": string(key), "action": cmd.action}).Debug("command")

	s := c.session
	switch cmd.action {
	case commit:
		c.in.Discard()
		c.apply("Use: ")
		s.Commit()
		c.log.WithField("offset", s.Committed()).Info("calibration committed")
		return true, true
	case fullReset:
		s.Reset()
		if err := c.chip.Init(s.Load(), c.cfg.XtalFreq, 0); err != nil {
			c.log.WithError(err).Warn("reinitializing the clock generator failed")
		}
	case nudgeTrial:
		s.NudgeTrial(cmd.step)
	case nudgeTarget:
		s.NudgeTarget(cmd.step)
	case setDrive:
		s.SetDrive(cmd.drive)
	case setLoad:
		s.SetLoad(cmd.load)
	}
	c.apply("")
	return true, false
}

// Interactive runs one pass: the trial frequency starts at the target and
// keys are handled until the operator commits. Only a failing input ends the
// pass early.
func (c *Calibrator) Interactive() error {
	c.session.BeginPass()
	for _, l := range legend {
		c.println(l)
	}
	c.log.WithField("offset", c.session.Committed()).Debug("pass started")
	for {
		key, err := c.in.ReadByte()
		if err != nil {
			return errors.Wrap(err, "read command")
		}
		if _, done := c.Handle(key); done {
			return nil
		}
	}
}
