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

package config

import (
	"time"

	"github.com/pkg/errors"

	"si5351cal/src/clockgen"
)

// Config holds the settings of a calibration session. Nothing in it is
// persisted; every run starts from Defaults plus whatever the command line
// overrides.
type Config struct {
	// Address of the Si5351 on the I²C bus.
	Address uint16
	// Bus names the host I²C bus, empty for the first one found.
	Bus string
	// XtalFreq is the nominal reference crystal frequency in Hz.
	XtalFreq uint32
	// Target is the nominal output frequency in hundredths of Hz.
	Target uint64
	// Output is the clock that gets calibrated.
	Output clockgen.Clock

	// StartupDelay gives a serial monitor time to attach.
	StartupDelay time.Duration
	// RetryDelay is the fixed wait between status polls while the device
	// is still initializing.
	RetryDelay time.Duration

	// ShowHz adds the full target frequency to the status line.
	ShowHz bool
	// Baud is the firmware console rate.
	Baud uint32
}

// Defaults returns the settings of the bench setup: a 25 MHz crystal and a
// 20 MHz target on CLK0.
func Defaults() Config {
	return Config{
		Address:      clockgen.Address,
		XtalFreq:     clockgen.XtalFreq,
		Target:       2_000_000_000,
		Output:       clockgen.CLK0,
		StartupDelay: 2 * time.Second,
		RetryDelay:   500 * time.Millisecond,
		Baud:         115200,
	}
}

// Validate rejects settings the driver cannot act on.
func (c Config) Validate() error {
	if c.XtalFreq == 0 {
		return errors.New("crystal frequency must not be zero")
	}
	if c.Target == 0 {
		return errors.New("target frequency must not be zero")
	}
	if c.Output > clockgen.CLK5 {
		return errors.Errorf("output %s cannot be calibrated, use CLK0-CLK5", c.Output)
	}
	if c.Address > 0x7F {
		return errors.Errorf("I²C address %#x out of range", c.Address)
	}
	return nil
}
