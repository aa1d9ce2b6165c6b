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

/*
NearestFraction returns the fraction b/c closest to num/den whose denominator
c does not exceed maxDenominator, and the error num/den - b/c.

This is the fractional part of a Si5351 divider a + b/c, where c < 2^20.
Fixing c at 10^6 and rounding b would quantize a 20 MHz output far more
coarsely than the 0.01 Hz calibration steps, so consecutive keypresses could
program identical registers. The best approximation keeps them apart.
*/
func NearestFraction(num, den, maxDenominator uint64) (b, c uint64, eps float64) {
	b, c = continuedFraction(num, den, 0, 1, maxDenominator)
	eps = float64(num)/float64(den) - float64(b)/float64(c)
	return b, c, eps
}

/*
continuedFraction expands num/den as

	num/den = q + r/den = q + 1/(den/r)

and recurses on den/r, stopping at the last convergent whose denominator
fits in maxDenominator. prev and cur carry the denominators of the two
previous convergents, starting at 0 and 1.
*/
func continuedFraction(num, den, prev, cur, maxDenominator uint64) (b, c uint64) {
	q := num / den
	next := cur + q*prev
	if next > maxDenominator {
		return 1, 0
	}
	r := num - q*den
	if r == 0 {
		return q, 1
	}
	// num/den = q + 1/(rb/rc) = (q*rb + rc)/rb
	rb, rc := continuedFraction(den, r, next, prev, maxDenominator)
	return q*rb + rc, rb
}
