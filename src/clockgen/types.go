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

package clockgen

import (
	"strconv"

	"github.com/pkg/errors"
)

// Clock identifies one of the eight outputs.
type Clock uint8

const (
	CLK0 Clock = iota
	CLK1
	CLK2
	CLK3
	CLK4
	CLK5
	CLK6
	CLK7
)

func (c Clock) String() string {
	return "CLK" + strconv.Itoa(int(c))
}

// PLL identifies one of the two synthesizers.
type PLL uint8

const (
	PLLA PLL = iota
	PLLB
)

func (p PLL) String() string {
	if p == PLLB {
		return "PLLB"
	}
	return "PLLA"
}

// PLLInput selects the reference a PLL locks to.
type PLLInput uint8

const (
	InputXO PLLInput = iota
	InputCLKIN
)

// Drive is the output stage current, encoded as register bits 1:0.
type Drive uint8

const (
	Drive2mA Drive = iota
	Drive4mA
	Drive6mA
	Drive8mA
)

var driveLabels = [...]string{"2mA", "4mA", "6mA", "8mA"}

func (d Drive) String() string {
	if int(d) < len(driveLabels) {
		return driveLabels[d]
	}
	return "Drive(" + strconv.Itoa(int(d)) + ")"
}

// ParseDrive accepts the labels produced by Drive.String.
func ParseDrive(s string) (Drive, error) {
	for i, l := range driveLabels {
		if l == s {
			return Drive(i), nil
		}
	}
	return 0, errors.Errorf("unknown drive strength %q", s)
}

// CrystalLoad is the internal crystal load capacitance, encoded as register
// 183 bits 7:6.
type CrystalLoad uint8

const (
	Load0pF  CrystalLoad = 0 << 6
	Load6pF  CrystalLoad = 1 << 6
	Load8pF  CrystalLoad = 2 << 6
	Load10pF CrystalLoad = 3 << 6
)

var loadLabels = [...]string{"0pF", "6pF", "8pF", "10pF"}

func (l CrystalLoad) String() string {
	return loadLabels[(l&CrystalLoadMask)>>6]
}

// ParseLoad accepts the labels produced by CrystalLoad.String.
func ParseLoad(s string) (CrystalLoad, error) {
	for i, l := range loadLabels {
		if l == s {
			return CrystalLoad(i << 6), nil
		}
	}
	return 0, errors.Errorf("unknown crystal load %q", s)
}

// Status is the decoded content of the device status register.
type Status struct {
	SysInit  bool // device is still copying NVM and is not operational
	LolB     bool
	LolA     bool
	LosClkin bool
	LosXtal  bool
	RevID    uint8
}

// DecodeStatus splits register 0 into its flags.
func DecodeStatus(v uint8) Status {
	return Status{
		SysInit:  v&0x80 != 0,
		LolB:     v&0x40 != 0,
		LolA:     v&0x20 != 0,
		LosClkin: v&0x10 != 0,
		LosXtal:  v&0x08 != 0,
		RevID:    v & 0x03,
	}
}

// Flags lists the labels of the active status bits, followed by the revision
// when it is non-zero.
func (s Status) Flags() []string {
	var flags []string
	if s.SysInit {
		flags = append(flags, "SYS_INIT")
	}
	if s.LolB {
		flags = append(flags, "LOL_B")
	}
	if s.LolA {
		flags = append(flags, "LOL_A")
	}
	if s.LosClkin {
		flags = append(flags, "LOS_CLKIN")
	}
	if s.LosXtal {
		flags = append(flags, "LOS_XTAL")
	}
	if s.RevID != 0 {
		flags = append(flags, "REVID:"+strconv.Itoa(int(s.RevID)))
	}
	return flags
}
