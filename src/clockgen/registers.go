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

// Address is the default I²C address of the Si5351.
const Address = 0x60

// Register map, see Silicon Labs AN619.
const (
	RegDeviceStatus       = 0
	RegOutputEnableCtrl   = 3
	RegPLLInputSource     = 15
	RegClk0Ctrl           = 16
	RegPLLAParameters     = 26
	RegPLLBParameters     = 34
	RegClk0Parameters     = 42
	RegVCXOParametersLow  = 162
	RegVCXOParametersMid  = 163
	RegVCXOParametersHigh = 164
	RegPLLReset           = 177
	RegCrystalLoad        = 183
)

// Bits of the CLKn control registers (16-23).
const (
	clkPowerdown       = 1 << 7
	clkIntegerMode     = 1 << 6
	clkPLLSelect       = 1 << 5
	clkInputMultisynth = 3 << 2
	clkDriveMask       = 3 << 0
)

const (
	pllResetA = 1 << 5
	pllResetB = 1 << 7

	pllASource   = 1 << 2
	pllBSource   = 1 << 3
	clkinDivMask = 3 << 6
	clkinDiv1    = 0 << 6
	clkinDiv2    = 1 << 6
	clkinDiv4    = 2 << 6

	outputDivShift = 4
	outputDivBy4   = 3 << 2
)

// CrystalLoadMask selects the load capacitance bits of register 183. The
// remaining bits are reserved and must be written as CrystalLoadReserved.
const (
	CrystalLoadMask     = 3 << 6
	CrystalLoadReserved = 0b00010010
)

// Frequencies below are in Hz unless they carry the FreqMult factor. Every
// frequency passed through the API is in hundredths of Hz.
const (
	FreqMult = 100

	XtalFreq = 25_000_000

	// PLLFixed is the PLL frequency used for outputs up to 100 MHz.
	PLLFixed = 800_000_000 * FreqMult

	pllVCOMin = 600_000_000
	pllVCOMax = 900_000_000
	pllAMin   = 15
	pllAMax   = 90

	multisynthMinFreq    = 500_000
	multisynthDivBy4Freq = 150_000_000
	multisynthMaxFreq    = 225_000_000
	multisynthShareMax   = 100_000_000
	multisynthAMin       = 6
	multisynthAMax       = 1800

	clkoutMinFreq = 4_000
	clkoutMaxFreq = multisynthMaxFreq
)

// R divider settings for the output stage.
const (
	outputDiv1 = iota
	outputDiv2
	outputDiv4
	outputDiv8
	outputDiv16
	outputDiv32
	outputDiv64
	outputDiv128
)
