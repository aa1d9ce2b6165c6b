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
	"math"
	"testing"

	"si5351cal/src/clockgen"
)

func checkInvariant(t *testing.T, s *Session) {
	t.Helper()
	want := int32(s.Target()-s.Trial()) + s.Committed()
	if s.Pending() != want {
		t.Errorf("pending = %d, want (%d - %d) + %d = %d", s.Pending(), s.Target(), s.Trial(), s.Committed(), want)
	}
}

func Test_SessionDefaults(t *testing.T) {
	s := NewSession(2_000_000_000)
	if s.Trial() != s.Target() || s.Pending() != 0 || s.Committed() != 0 {
		t.Errorf("fresh session = %+v", *s)
	}
	if s.Drive() != clockgen.Drive8mA || s.Load() != clockgen.Load8pF {
		t.Errorf("defaults = %s %s, want 8mA 8pF", s.Drive(), s.Load())
	}
}

func Test_PendingInvariant(t *testing.T) {
	s := NewSession(2_000_000_000)
	// a fixed pseudo random walk over every kind of mutation
	seed := int64(1)
	next := func() int64 {
		seed = 25214903917*seed + 11
		return (seed >> 16) & 0xffff
	}
	steps := []int64{1, 10, 100, 1_000, 10_000, 100_000, 1_000_000}
	for i := 0; i < 2000; i++ {
		r := next()
		switch r % 6 {
		case 0, 1:
			d := steps[r%7]
			if r&1 != 0 {
				d = -d
			}
			s.NudgeTrial(d)
		case 2:
			d := int64(100_000_000)
			if r&1 != 0 {
				d = -d
			}
			s.NudgeTarget(d)
		case 3:
			s.Commit()
		case 4:
			s.BeginPass()
		case 5:
			if r%50 == 0 {
				s.Reset()
			}
		}
		checkInvariant(t, s)
	}
}

func Test_CommitIdempotent(t *testing.T) {
	s := NewSession(2_000_000_000)
	s.NudgeTrial(1234)
	first := s.Commit()
	second := s.Commit()
	if first != second || first != -1234 {
		t.Errorf("commits = %d, %d, want -1234 twice", first, second)
	}
	if s.Trial() != s.Target() || s.Target() != 2_000_000_000 {
		t.Errorf("after commit target %d trial %d, want the trial back at the target", s.Target(), s.Trial())
	}
	if s.Pending() != -1234 {
		t.Errorf("pending = %d, want the committed -1234", s.Pending())
	}
	checkInvariant(t, s)
}

func Test_CommitThenNudge(t *testing.T) {
	s := NewSession(2_000_000_000)
	s.NudgeTrial(5)
	s.Commit()
	checkInvariant(t, s)
	s.NudgeTrial(-2)
	if s.Pending() != -3 {
		t.Errorf("pending = %d, want 2 + (-5) = -3", s.Pending())
	}
	checkInvariant(t, s)
}

func Test_NudgeTargetReseeds(t *testing.T) {
	s := NewSession(2_000_000_000)
	s.NudgeTrial(-777)
	s.Commit()
	s.NudgeTrial(55)
	s.NudgeTarget(100_000_000)
	if s.Target() != 2_100_000_000 || s.Trial() != s.Target() {
		t.Errorf("target %d trial %d", s.Target(), s.Trial())
	}
	if s.Pending() != 777 {
		t.Errorf("pending = %d, want the committed 777", s.Pending())
	}
}

func Test_Reset(t *testing.T) {
	s := NewSession(2_000_000_000)
	s.NudgeTrial(42)
	s.Commit()
	s.SetDrive(clockgen.Drive2mA)
	s.SetLoad(clockgen.Load0pF)
	s.NudgeTrial(5)
	s.Reset()
	if s.Committed() != 0 || s.Pending() != 0 || s.Trial() != s.Target() {
		t.Errorf("after reset: %+v", *s)
	}
	if s.Drive() != clockgen.Drive8mA || s.Load() != clockgen.Load8pF {
		t.Errorf("after reset: %s %s", s.Drive(), s.Load())
	}
}

func Test_Wraparound(t *testing.T) {
	s := NewSession(0)
	s.NudgeTrial(-1)
	if s.Trial() != math.MaxUint64 {
		t.Errorf("trial = %d, want wrap to %d", s.Trial(), uint64(math.MaxUint64))
	}
	// 0 - (2^64 - 1) = 1 modulo 2^64
	if s.Pending() != 1 {
		t.Errorf("pending = %d, want 1", s.Pending())
	}

	s = NewSession(2_000_000_000)
	s.NudgeTrial(-3_000_000_000)
	// 3e9 does not fit in 32 bits and wraps negative
	if want := int32(-1294967296); s.Pending() != want {
		t.Errorf("pending = %d, want %d", s.Pending(), want)
	}
	checkInvariant(t, s)
}
