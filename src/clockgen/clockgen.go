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
Package clockgen is a register level driver for the Si5351 clock generator.

It works over any bus that implements tinygo.org/x/drivers.I2C, which covers
machine.I2C0 on a microcontroller as well as a periph.io I²C bus on a Linux
host. Frequencies are in hundredths of Hz and the crystal correction is in
parts per billion, so that a calibration offset measured against a 10 MHz
output can be passed straight through.
*/
package clockgen

import (
	"time"

	"github.com/pkg/errors"
	"tinygo.org/x/drivers"
)

var (
	// ErrNotConnected is returned when nothing answers at the device address.
	ErrNotConnected = errors.New("si5351: device not connected")

	// ErrNotReady is returned when SYS_INIT does not clear during Init.
	ErrNotReady = errors.New("si5351: device still initializing")

	// ErrUnsupportedClock is returned for outputs the driver cannot program.
	ErrUnsupportedClock = errors.New("si5351: unsupported output")

	// ErrPLLShared is returned when an output above 100 MHz would have to
	// retune a PLL that already feeds another output above 100 MHz.
	ErrPLLShared = errors.New("si5351: PLL already drives an output above 100 MHz")
)

const (
	initPollInterval = 10 * time.Millisecond
	initPollAttempts = 100
)

// Device is a Si5351 on an I²C bus.
type Device struct {
	bus     drivers.I2C
	Address uint16

	xtalFreq   [2]uint32 // reference frequency per PLLInput, Hz
	correction [2]int32  // ppb per PLLInput
	pllInput   [2]PLLInput
	pllFreq    [2]uint64
	pllAssign  [8]PLL
	clkFreq    [8]uint64
	clkSet     [8]bool

	// Sleep is used while waiting for the device to come out of reset.
	Sleep func(time.Duration)

	buf [9]byte
}

// New creates a driver for the device at addr on bus. Call Init before use.
func New(bus drivers.I2C, addr uint16) *Device {
	return &Device{
		bus:      bus,
		Address:  addr,
		xtalFreq: [2]uint32{XtalFreq, XtalFreq},
		Sleep:    time.Sleep,
	}
}

// Init brings the device to a known state: it waits for the system
// initialization to finish, sets the crystal load capacitance, the XO
// reference frequency (XtalFreq when xoFreq is 0) and its correction, then
// runs Reset.
func (d *Device) Init(load CrystalLoad, xoFreq uint32, corr int32) error {
	status, err := d.ReadRegister(RegDeviceStatus)
	if err != nil {
		return errors.Wrapf(ErrNotConnected, "address %#x: %v", d.Address, err)
	}
	for i := 0; status&0x80 != 0; i++ {
		if i >= initPollAttempts {
			return errors.WithStack(ErrNotReady)
		}
		d.Sleep(initPollInterval)
		if status, err = d.ReadRegister(RegDeviceStatus); err != nil {
			return errors.Wrap(err, "poll device status")
		}
	}

	if err := d.WriteRegister(RegCrystalLoad, uint8(load)&CrystalLoadMask|CrystalLoadReserved); err != nil {
		return errors.Wrap(err, "set crystal load")
	}
	if xoFreq == 0 {
		xoFreq = XtalFreq
	}
	if err := d.SetRefFreq(xoFreq, InputXO); err != nil {
		return err
	}
	d.correction[InputXO] = corr
	return d.Reset()
}

// Reset follows the output initialization flowchart of the datasheet. All
// outputs end up disabled with no frequency assigned, both PLLs run at
// PLLFixed, CLK0-5 are fed by PLLA and CLK6-7 by PLLB.
func (d *Device) Reset() error {
	for clk := 0; clk < 8; clk++ {
		if err := d.WriteRegister(RegClk0Ctrl+uint8(clk), clkPowerdown); err != nil {
			return errors.Wrap(err, "power down outputs")
		}
	}
	for clk := 0; clk < 8; clk++ {
		if err := d.WriteRegister(RegClk0Ctrl+uint8(clk), clkInputMultisynth); err != nil {
			return errors.Wrap(err, "power up outputs")
		}
	}

	if err := d.SetPLL(PLLFixed, PLLA); err != nil {
		return err
	}
	if err := d.SetPLL(PLLFixed, PLLB); err != nil {
		return err
	}

	for clk := CLK0; clk <= CLK7; clk++ {
		pll := PLLA
		if clk >= CLK6 {
			pll = PLLB
		}
		if err := d.setMultisynthSource(clk, pll); err != nil {
			return err
		}
	}

	for _, reg := range []uint8{RegVCXOParametersLow, RegVCXOParametersMid, RegVCXOParametersHigh} {
		if err := d.WriteRegister(reg, 0); err != nil {
			return errors.Wrap(err, "clear VCXO parameters")
		}
	}

	if err := d.ResetPLL(PLLA); err != nil {
		return err
	}
	if err := d.ResetPLL(PLLB); err != nil {
		return err
	}

	for clk := CLK0; clk <= CLK7; clk++ {
		d.clkFreq[clk] = 0
		d.clkSet[clk] = false
		if err := d.OutputEnable(clk, false); err != nil {
			return err
		}
	}
	return nil
}

// WriteRegister writes a single register.
func (d *Device) WriteRegister(reg, val uint8) error {
	d.buf[0] = reg
	d.buf[1] = val
	return d.bus.Tx(d.Address, d.buf[:2], nil)
}

// ReadRegister reads a single register.
func (d *Device) ReadRegister(reg uint8) (uint8, error) {
	d.buf[0] = reg
	err := d.bus.Tx(d.Address, d.buf[:1], d.buf[1:2])
	return d.buf[1], err
}

// writeBulk writes consecutive registers starting at reg.
func (d *Device) writeBulk(reg uint8, data []byte) error {
	d.buf[0] = reg
	n := copy(d.buf[1:], data)
	return d.bus.Tx(d.Address, d.buf[:n+1], nil)
}

// modifyRegister clears the bits in mask and sets the bits in set.
func (d *Device) modifyRegister(reg, mask, set uint8) error {
	v, err := d.ReadRegister(reg)
	if err != nil {
		return err
	}
	return d.WriteRegister(reg, v&^mask|set)
}

// UpdateStatus reads the device status register.
func (d *Device) UpdateStatus() (Status, error) {
	v, err := d.ReadRegister(RegDeviceStatus)
	if err != nil {
		return Status{}, errors.Wrap(err, "read device status")
	}
	return DecodeStatus(v), nil
}

// SetRefFreq sets the reference frequency in Hz for input. CLKIN references
// above 30 MHz go through the input divider, which is programmed here.
func (d *Device) SetRefFreq(freq uint32, input PLLInput) error {
	if input != InputCLKIN {
		d.xtalFreq[input] = freq
		return nil
	}
	div := uint8(clkinDiv1)
	switch {
	case freq > 30_000_000 && freq <= 60_000_000:
		freq /= 2
		div = clkinDiv2
	case freq > 60_000_000 && freq <= 100_000_000:
		freq /= 4
		div = clkinDiv4
	}
	d.xtalFreq[input] = freq
	return errors.Wrap(d.modifyRegister(RegPLLInputSource, clkinDivMask, div), "set CLKIN divider")
}

// SetCorrection stores the reference correction in parts per billion and
// reprograms both PLLs at their current frequencies so that it takes effect.
// The PLLs still need a reset afterwards.
func (d *Device) SetCorrection(corr int32, input PLLInput) error {
	d.correction[input] = corr
	if err := d.SetPLL(d.pllFreq[PLLA], PLLA); err != nil {
		return err
	}
	return d.SetPLL(d.pllFreq[PLLB], PLLB)
}

// Correction returns the correction stored for input.
func (d *Device) Correction(input PLLInput) int32 {
	return d.correction[input]
}

// SetPLLInput selects the reference for pll.
func (d *Device) SetPLLInput(pll PLL, input PLLInput) error {
	bit := uint8(pllASource)
	if pll == PLLB {
		bit = pllBSource
	}
	set := uint8(0)
	if input == InputCLKIN {
		set = bit
	}
	d.pllInput[pll] = input
	return d.modifyRegister(RegPLLInputSource, bit, set)
}

// ResetPLL resets pll, which is needed for changes to its parameters to be
// picked up cleanly.
func (d *Device) ResetPLL(pll PLL) error {
	v := uint8(pllResetA)
	if pll == PLLB {
		v = pllResetB
	}
	return errors.Wrapf(d.WriteRegister(RegPLLReset, v), "reset %s", pll)
}

// SetDriveStrength sets the output current of clk.
func (d *Device) SetDriveStrength(clk Clock, drive Drive) error {
	return errors.Wrapf(d.modifyRegister(RegClk0Ctrl+uint8(clk), clkDriveMask, uint8(drive)&clkDriveMask),
		"set drive strength of %s", clk)
}

// OutputEnable switches clk on or off in the output enable register.
func (d *Device) OutputEnable(clk Clock, enable bool) error {
	bit := uint8(1) << clk
	set := bit
	if enable {
		set = 0
	}
	return errors.Wrapf(d.modifyRegister(RegOutputEnableCtrl, bit, set), "enable %s", clk)
}

func (d *Device) setMultisynthSource(clk Clock, pll PLL) error {
	set := uint8(0)
	if pll == PLLB {
		set = clkPLLSelect
	}
	d.pllAssign[clk] = pll
	return errors.Wrapf(d.modifyRegister(RegClk0Ctrl+uint8(clk), clkPLLSelect, set), "select %s for %s", pll, clk)
}

func (d *Device) setIntegerMode(clk Clock, enable bool) error {
	set := uint8(0)
	if enable {
		set = clkIntegerMode
	}
	return d.modifyRegister(RegClk0Ctrl+uint8(clk), clkIntegerMode, set)
}
