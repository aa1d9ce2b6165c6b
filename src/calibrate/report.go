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
	"strconv"
	"strings"

	"si5351cal/src/clockgen"
)

// ErrorMarker is printed ahead of the status line when the chip refuses the
// target frequency.
const ErrorMarker = "ERROR: Frequency not set"

// Apply pushes the session to the chip and prints its status line.
func (c *Calibrator) Apply() {
	c.apply("")
}

/*
apply writes the session to the chip in the order the hardware needs: the
correction has to be in place before the PLL is reprogrammed and reset, and
the output frequency comes last. Only a rejected frequency is reported to the
operator; other bus errors are logged and the sequence carries on.
*/
func (c *Calibrator) apply(prefix string) {
	s := c.session
	out := c.cfg.Output

	if err := c.chip.WriteRegister(clockgen.RegCrystalLoad,
		uint8(s.Load())&clockgen.CrystalLoadMask|clockgen.CrystalLoadReserved); err != nil {
		c.log.WithError(err).Warn("write crystal load")
	}
	if err := c.chip.SetDriveStrength(out, s.Drive()); err != nil {
		c.log.WithError(err).Warn("set drive strength")
	}
	if err := c.chip.SetCorrection(s.Pending(), clockgen.InputXO); err != nil {
		c.log.WithError(err).Warn("set correction")
	}
	if err := c.chip.SetPLL(clockgen.PLLFixed, clockgen.PLLA); err != nil {
		c.log.WithError(err).Warn("set PLL")
	}
	if err := c.chip.ResetPLL(clockgen.PLLA); err != nil {
		c.log.WithError(err).Warn("reset PLL")
	}

	var b strings.Builder
	b.WriteString(prefix)
	if err := c.chip.SetFreq(s.Target(), out); err != nil {
		c.log.WithError(err).WithField("target", s.Target()).Debug("frequency rejected")
		b.WriteString(c.Marker(ErrorMarker))
	}
	c.statusLine(&b)
	c.println(b.String())
}

// statusLine renders e.g. "Calibration: -5, 0xFFFFFFFB 20MHz 8mA 8pF REVID:1".
func (c *Calibrator) statusLine(b *strings.Builder) {
	s := c.session
	b.WriteString("Calibration: ")
	b.WriteString(strconv.FormatInt(int64(s.Pending()), 10))
	b.WriteString(", 0x")
	b.WriteString(strings.ToUpper(strconv.FormatUint(uint64(uint32(s.Pending())), 16)))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(int(uint16(s.Target() / 100_000_000))))
	b.WriteString("MHz")
	if c.cfg.ShowHz {
		b.WriteByte(' ')
		b.WriteString(FormatHz(s.Target()))
	}
	b.WriteByte(' ')
	b.WriteString(s.Drive().String())
	b.WriteByte(' ')
	b.WriteString(s.Load().String())

	v, err := c.chip.ReadRegister(clockgen.RegDeviceStatus)
	if err != nil {
		c.log.WithError(err).Warn("read device status")
		return
	}
	for _, f := range clockgen.DecodeStatus(v).Flags() {
		b.WriteByte(' ')
		b.WriteString(f)
	}
}

// FormatHz renders a frequency in hundredths of Hz with dots between the
// thousands and a comma before the hundredths, e.g. "020.000.000,00Hz".
// Only the last eleven digits are shown.
func FormatHz(freq uint64) string {
	var c [14]byte
	for i := len(c) - 1; i >= 0; i-- {
		switch i {
		case 11:
			c[i] = ','
			continue
		case 7, 3:
			c[i] = '.'
			continue
		}
		c[i] = '0' + byte(freq%10)
		freq /= 10
	}
	return string(c[:]) + "Hz"
}
