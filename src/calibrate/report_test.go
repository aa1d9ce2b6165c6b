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
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"si5351cal/src/clockgen"
	"si5351cal/src/config"
)

// fakeChip records every call in order.
type fakeChip struct {
	calls     []string
	status    uint8
	statusErr error
	freqErr   error
	writeErr  error
}

func (f *fakeChip) record(format string, a ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, a...))
}

func (f *fakeChip) Init(load clockgen.CrystalLoad, xoFreq uint32, corr int32) error {
	f.record("init %s %d %d", load, xoFreq, corr)
	return nil
}

func (f *fakeChip) WriteRegister(reg, val uint8) error {
	f.record("write %d %#x", reg, val)
	return f.writeErr
}

func (f *fakeChip) ReadRegister(reg uint8) (uint8, error) {
	f.record("read %d", reg)
	return f.status, nil
}

func (f *fakeChip) SetDriveStrength(clk clockgen.Clock, drive clockgen.Drive) error {
	f.record("drive %s %s", clk, drive)
	return nil
}

func (f *fakeChip) SetCorrection(corr int32, input clockgen.PLLInput) error {
	f.record("correction %d %d", corr, input)
	return nil
}

func (f *fakeChip) SetPLL(freq uint64, pll clockgen.PLL) error {
	f.record("pll %d %s", freq, pll)
	return nil
}

func (f *fakeChip) ResetPLL(pll clockgen.PLL) error {
	f.record("reset %s", pll)
	return nil
}

func (f *fakeChip) SetFreq(freq uint64, clk clockgen.Clock) error {
	f.record("freq %d %s", freq, clk)
	return f.freqErr
}

func (f *fakeChip) UpdateStatus() (clockgen.Status, error) {
	f.record("status")
	return clockgen.DecodeStatus(f.status), f.statusErr
}

func (f *fakeChip) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// keys replays a fixed string of keypresses and then reports EOF.
type keys struct {
	data      []byte
	discarded int
}

func (k *keys) ReadByte() (byte, error) {
	if len(k.data) == 0 {
		return 0, io.EOF
	}
	b := k.data[0]
	k.data = k.data[1:]
	return b, nil
}

func (k *keys) Discard() {
	k.discarded += len(k.data)
	k.data = nil
}

type harness struct {
	cal  *Calibrator
	chip *fakeChip
	in   *keys
	out  *bytes.Buffer
	hook *logtest.Hook
}

func newHarness(input string) *harness {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	h := &harness{
		chip: &fakeChip{},
		in:   &keys{data: []byte(input)},
		out:  &bytes.Buffer{},
		hook: hook,
	}
	h.cal = New(config.Defaults(), h.chip, h.in, h.out, logger)
	h.cal.Sleep = func(time.Duration) {}
	return h
}

func (h *harness) lines() []string {
	return strings.Split(strings.TrimSuffix(h.out.String(), "\r\n"), "\r\n")
}

func (h *harness) lastLine() string {
	l := h.lines()
	return l[len(l)-1]
}

func Test_ApplyOrder(t *testing.T) {
	h := newHarness("")
	h.cal.Apply()
	want := []string{
		"write 183 0x92",
		"drive CLK0 8mA",
		"correction 0 0",
		"pll 80000000000 PLLA",
		"reset PLLA",
		"freq 2000000000 CLK0",
		"read 0",
	}
	if strings.Join(h.chip.calls, "\n") != strings.Join(want, "\n") {
		t.Errorf("calls:\n%s\nwant:\n%s", strings.Join(h.chip.calls, "\n"), strings.Join(want, "\n"))
	}
}

func Test_StatusLine(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		status uint8
		showHz bool
		want   string
	}{
		{"defaults", "", 0x00, false, "Calibration: 0, 0x0 20MHz 8mA 8pF"},
		{"five steps up", "rrrrr", 0x01, false, "Calibration: -5, 0xFFFFFFFB 20MHz 8mA 8pF REVID:1"},
		{"drive 2mA", "1", 0x00, false, "Calibration: 0, 0x0 20MHz 2mA 8pF"},
		{"load 10pF", "9", 0x00, false, "Calibration: 0, 0x0 20MHz 8mA 10pF"},
		{"flags", "f", 0x61, false, "Calibration: 1, 0x1 20MHz 8mA 8pF LOL_B LOL_A REVID:1"},
		{"with Hz", "]", 0x00, true, "Calibration: 0, 0x0 21MHz 021.000.000,00Hz 8mA 8pF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(tt.input)
			h.chip.status = tt.status
			h.cal.cfg.ShowHz = tt.showHz
			h.cal.Apply()
			for range tt.input {
				key, _ := h.in.ReadByte()
				h.cal.Handle(key)
			}
			if got := h.lastLine(); got != tt.want {
				t.Errorf("status line = %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_FrequencyRejected(t *testing.T) {
	h := newHarness("")
	h.chip.freqErr = errors.New("refused")
	h.cal.Apply()
	line := h.lastLine()
	if !strings.HasPrefix(line, ErrorMarker+"Calibration: ") {
		t.Errorf("status line %q does not start with the error marker", line)
	}
	if h.chip.count("read") != 1 {
		t.Errorf("status was not reported after the failure")
	}
}

func Test_BusErrorsAreLogged(t *testing.T) {
	h := newHarness("")
	h.chip.writeErr = errors.New("nack")
	h.cal.Apply()
	if h.chip.count("freq") != 1 {
		t.Errorf("apply stopped after a failed register write")
	}
	found := false
	for _, e := range h.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "write crystal load" {
			found = true
		}
	}
	if !found {
		t.Errorf("failed crystal load write was not logged")
	}
}

func Test_FormatHz(t *testing.T) {
	tests := []struct {
		freq uint64
		want string
	}{
		{2_000_000_000, "020.000.000,00Hz"},
		{1_405_000_000, "014.050.000,00Hz"},
		{14_550_000_001, "145.500.000,01Hz"},
		{0, "000.000.000,00Hz"},
	}
	for _, tt := range tests {
		if got := FormatHz(tt.freq); got != tt.want {
			t.Errorf("FormatHz(%d) = %q, want %q", tt.freq, got, tt.want)
		}
	}
}
