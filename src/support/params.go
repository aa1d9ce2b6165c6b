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

package support

// MaxDenominator is the largest value the 20-bit c field of a Si5351 divider can hold.
const MaxDenominator = (1 << 20) - 1

// Params holds the encoded form of a fractional divider a + b/c as the Si5351
// expects it in its PLL and multisynth parameter blocks.
type Params struct {
	P1, P2, P3 uint32
}

/*
Encode converts the divider a + b/c into the P1, P2, P3 representation

	P1 = 128a + floor(128b/c) - 512
	P2 = 128b - c * floor(128b/c)
	P3 = c

which is what both the PLL feedback and the multisynth output dividers use.
*/
func Encode(a, b, c uint32) Params {
	f := 128 * uint64(b) / uint64(c)
	return Params{
		P1: uint32(128*uint64(a) + f - 512),
		P2: uint32(128*uint64(b) - uint64(c)*f),
		P3: c,
	}
}

// Registers packs the parameters into the eight register layout shared by
// the PLL (26-33, 34-41) and multisynth (42-49, ...) blocks. Byte 2 only
// carries P1[17:16]; callers own the upper bits of that register.
func (p Params) Registers() [8]byte {
	return [8]byte{
		byte(p.P3 >> 8),
		byte(p.P3),
		byte(p.P1>>16) & 0x03,
		byte(p.P1 >> 8),
		byte(p.P1),
		byte(p.P3>>12)&0xF0 | byte(p.P2>>16)&0x0F,
		byte(p.P2 >> 8),
		byte(p.P2),
	}
}

// Divider returns a, b, c such that a + b/c is the best approximation of
// num/den with c no larger than MaxDenominator.
func Divider(num, den uint64) (a, b, c uint32) {
	whole := num / den
	frac, denom, _ := NearestFraction(num%den, den, MaxDenominator)
	if frac >= denom {
		// the fraction rounded up to one
		whole++
		frac, denom = 0, 1
	}
	return uint32(whole), uint32(frac), uint32(denom)
}
