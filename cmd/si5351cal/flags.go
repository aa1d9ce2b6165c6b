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
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"si5351cal/src/clockgen"
)

// freqFlag accepts frequencies with units, like 20MHz or 10.000123MHz.
type freqFlag struct {
	f physic.Frequency
}

func (f *freqFlag) String() string     { return f.f.String() }
func (f *freqFlag) Set(s string) error { return f.f.Set(s) }
func (f *freqFlag) Type() string       { return "frequency" }

// hundredths returns the frequency in hundredths of Hz.
func (f *freqFlag) hundredths() uint64 {
	return uint64(f.f / (10 * physic.MilliHertz))
}

func (f *freqFlag) hertz() uint32 {
	return uint32(f.f / physic.Hertz)
}

// addrFlag accepts a 7 bit I²C address in any base strconv understands.
type addrFlag struct {
	a i2c.Addr
}

func (a *addrFlag) String() string     { return a.a.String() }
func (a *addrFlag) Set(s string) error { return a.a.Set(s) }
func (a *addrFlag) Type() string       { return "address" }

// parseClock accepts CLK3 or plain 3.
func parseClock(s string) (clockgen.Clock, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToUpper(s), "CLK"), 10, 8)
	if err != nil || n > uint64(clockgen.CLK7) {
		return 0, errors.Errorf("unknown output %q", s)
	}
	return clockgen.Clock(n), nil
}
