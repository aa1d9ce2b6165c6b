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

import "si5351cal/src/clockgen"

const (
	DefaultDrive = clockgen.Drive8mA
	DefaultLoad  = clockgen.Load8pF
)

/*
Session is the calibration state of one operator at the bench.

All frequencies are in hundredths of Hz. The operator nudges the trial
frequency until the reference counter agrees with the output, and the
difference between target and trial, added to the offset accepted in earlier
passes, becomes the pending offset that is applied to the chip as its
correction. Arithmetic on the frequencies wraps around; nothing clamps them.
*/
type Session struct {
	target    uint64
	trial     uint64
	committed int32
	pending   int32
	drive     clockgen.Drive
	load      clockgen.CrystalLoad
}

// NewSession starts a session at target with no offset and default
// drive strength and crystal load.
func NewSession(target uint64) *Session {
	s := &Session{target: target}
	s.Reset()
	return s
}

func (s *Session) Target() uint64             { return s.target }
func (s *Session) Trial() uint64              { return s.trial }
func (s *Session) Committed() int32           { return s.committed }
func (s *Session) Pending() int32             { return s.pending }
func (s *Session) Drive() clockgen.Drive      { return s.drive }
func (s *Session) Load() clockgen.CrystalLoad { return s.load }

// BeginPass re-seeds the trial frequency at the start of an interactive pass.
func (s *Session) BeginPass() {
	s.trial = s.target
	s.recompute()
}

// NudgeTrial moves the trial frequency by delta.
func (s *Session) NudgeTrial(delta int64) {
	s.trial += uint64(delta)
	s.recompute()
}

// NudgeTarget moves the target frequency by delta and abandons the current
// trial by re-seeding it to the new target.
func (s *Session) NudgeTarget(delta int64) {
	s.target += uint64(delta)
	s.trial = s.target
	s.recompute()
}

func (s *Session) SetDrive(d clockgen.Drive)      { s.drive = d }
func (s *Session) SetLoad(l clockgen.CrystalLoad) { s.load = l }

// Commit accepts the pending offset as the baseline for later passes and
// ends the trial: the trial frequency is back at the target afterwards.
func (s *Session) Commit() int32 {
	s.committed = s.pending
	s.trial = s.target
	s.recompute()
	return s.committed
}

// Reset drops every accepted offset and restores the default hardware
// settings. The target frequency is kept.
func (s *Session) Reset() {
	s.committed = 0
	s.drive = DefaultDrive
	s.load = DefaultLoad
	s.trial = s.target
	s.recompute()
}

func (s *Session) recompute() {
	s.pending = int32(s.target-s.trial) + s.committed
}
