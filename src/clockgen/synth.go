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
	"github.com/pkg/errors"

	"si5351cal/src/support"
)

// SetPLL programs the feedback divider of pll for a VCO frequency of freq
// (hundredths of Hz), measured against the corrected reference.
func (d *Device) SetPLL(freq uint64, pll PLL) error {
	params, _ := d.pllCalc(pll, freq)
	d.pllFreq[pll] = freq

	reg := uint8(RegPLLAParameters)
	if pll == PLLB {
		reg = RegPLLBParameters
	}
	regs := params.Registers()
	return errors.Wrapf(d.writeBulk(reg, regs[:]), "set %s", pll)
}

// PLLFreq returns the VCO frequency last requested for pll.
func (d *Device) PLLFreq(pll PLL) uint64 {
	return d.pllFreq[pll]
}

// RefFreq returns the reference frequency of pll in hundredths of Hz with
// the correction for its input applied.
func (d *Device) RefFreq(pll PLL) uint64 {
	input := d.pllInput[pll]
	ref := uint64(d.xtalFreq[input]) * FreqMult
	// the correction is in ppb; scale through a 2^31 fixed point factor so
	// the product stays within 64 bits
	adj := (int64(d.correction[input]) << 31) / 1_000_000_000 * int64(ref) >> 31
	return uint64(int64(ref) + int64(int32(adj)))
}

// pllCalc returns the encoded feedback divider for a VCO at freq and the
// frequency it actually produces.
func (d *Device) pllCalc(pll PLL, freq uint64) (support.Params, uint64) {
	ref := d.RefFreq(pll)

	if freq < pllVCOMin*FreqMult {
		freq = pllVCOMin * FreqMult
	}
	if freq > pllVCOMax*FreqMult {
		freq = pllVCOMax * FreqMult
	}
	if a := freq / ref; a < pllAMin {
		freq = ref * pllAMin
	} else if a > pllAMax {
		freq = ref * pllAMax
	}

	a, b, c := support.Divider(freq, ref)
	actual := ref*uint64(a) + ref*uint64(b)/uint64(c)
	return support.Encode(a, b, c), actual
}

// SetFreq sets the output frequency of clk (hundredths of Hz). The output
// is enabled the first time its frequency is set.
//
// Up to 100 MHz the multisynth divides the PLL as it is. Above that the PLL
// feeding clk is retuned to an integer multiple of freq, which fails with
// ErrPLLShared if another output on the same PLL is also above 100 MHz.
func (d *Device) SetFreq(freq uint64, clk Clock) error {
	if clk > CLK5 {
		return errors.Wrapf(ErrUnsupportedClock, "%s", clk)
	}

	if freq > 0 && freq < clkoutMinFreq*FreqMult {
		freq = clkoutMinFreq * FreqMult
	}
	if freq > clkoutMaxFreq*FreqMult {
		freq = clkoutMaxFreq * FreqMult
	}

	pll := d.pllAssign[clk]
	if freq <= multisynthShareMax*FreqMult {
		d.clkFreq[clk] = freq
		if err := d.enableFirst(clk); err != nil {
			return err
		}
		rDiv, msFreq := selectRDiv(freq)
		params, _ := multisynthCalc(msFreq, d.pllFreq[pll])
		return d.setMultisynth(clk, params, false, rDiv, false)
	}

	for i := CLK0; i <= CLK5; i++ {
		if i != clk && d.pllAssign[i] == pll && d.clkFreq[i] > multisynthShareMax*FreqMult {
			return errors.Wrapf(ErrPLLShared, "%s on %s", clk, pll)
		}
	}
	if err := d.enableFirst(clk); err != nil {
		return err
	}
	d.clkFreq[clk] = freq

	_, pllFreq := multisynthCalc(freq, 0)
	if err := d.SetPLL(pllFreq, pll); err != nil {
		return err
	}

	// everything else on this PLL has to follow the new VCO frequency
	for i := CLK0; i <= CLK5; i++ {
		if d.clkFreq[i] == 0 || d.pllAssign[i] != pll {
			continue
		}
		rDiv, msFreq := selectRDiv(d.clkFreq[i])
		params, _ := multisynthCalc(msFreq, pllFreq)
		divBy4 := msFreq >= multisynthDivBy4Freq*FreqMult
		if err := d.setMultisynth(i, params, divBy4, rDiv, divBy4); err != nil {
			return err
		}
	}
	return d.ResetPLL(pll)
}

// ClockFreq returns the frequency last set on clk.
func (d *Device) ClockFreq(clk Clock) uint64 {
	return d.clkFreq[clk]
}

func (d *Device) enableFirst(clk Clock) error {
	if d.clkSet[clk] {
		return nil
	}
	if err := d.OutputEnable(clk, true); err != nil {
		return err
	}
	d.clkSet[clk] = true
	return nil
}

/*
multisynthCalc finds the output divider for freq.

With pllFreq == 0 the PLL is free to move: the divider is the largest even
integer that keeps the VCO below its maximum (or 4 above 150 MHz) and the
returned frequency is the VCO frequency to use. Otherwise the divider is the
fraction pllFreq/freq and the returned frequency is the one it produces.
*/
func multisynthCalc(freq, pllFreq uint64) (support.Params, uint64) {
	if freq > multisynthMaxFreq*FreqMult {
		freq = multisynthMaxFreq * FreqMult
	}
	if freq < multisynthMinFreq*FreqMult {
		freq = multisynthMinFreq * FreqMult
	}
	divBy4 := freq >= multisynthDivBy4Freq*FreqMult

	if pllFreq == 0 {
		a := uint64(4)
		if !divBy4 {
			a = pllVCOMax * FreqMult / freq
			if a == 5 {
				a = 4
			} else if a == 7 {
				a = 6
			}
		}
		pllFreq = a * freq
		if divBy4 {
			return support.Params{P3: 1}, pllFreq
		}
		return support.Encode(uint32(a), 0, 1), pllFreq
	}

	if a := pllFreq / freq; a < multisynthAMin {
		freq = pllFreq / multisynthAMin
	} else if a > multisynthAMax {
		freq = pllFreq / multisynthAMax
	}
	a, b, c := support.Divider(pllFreq, freq)
	actual := pllFreq * uint64(c) / (uint64(a)*uint64(c) + uint64(b))
	if divBy4 {
		return support.Params{P3: 1}, actual
	}
	return support.Encode(a, b, c), actual
}

// selectRDiv picks the R divider for outputs below 512 kHz and returns it
// together with the frequency the multisynth has to produce.
func selectRDiv(freq uint64) (uint8, uint64) {
	lo := uint64(clkoutMinFreq * FreqMult)
	if freq < lo {
		return outputDiv1, freq
	}
	for rDiv := uint8(outputDiv128); rDiv > outputDiv1; rDiv-- {
		// divider 2^n covers [lo*2^(7-n), lo*2^(8-n))
		if freq < lo<<(8-rDiv) {
			return rDiv, freq << rDiv
		}
	}
	return outputDiv1, freq
}

func (d *Device) setMultisynth(clk Clock, params support.Params, intMode bool, rDiv uint8, divBy4 bool) error {
	regs := params.Registers()
	regs[2] |= rDiv << outputDivShift
	if divBy4 {
		regs[2] |= outputDivBy4
	}
	reg := RegClk0Parameters + 8*uint8(clk)
	if err := d.writeBulk(reg, regs[:]); err != nil {
		return errors.Wrapf(err, "set multisynth of %s", clk)
	}
	return errors.Wrapf(d.setIntegerMode(clk, intMode), "set integer mode of %s", clk)
}
