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

package config

import (
	"testing"

	"si5351cal/src/clockgen"
)

func Test_Defaults(t *testing.T) {
	c := Defaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if c.Target != 2_000_000_000 {
		t.Errorf("target = %d, want 20 MHz", c.Target)
	}
	if c.Address != 0x60 {
		t.Errorf("address = %#x, want 0x60", c.Address)
	}
}

func Test_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no crystal", func(c *Config) { c.XtalFreq = 0 }},
		{"no target", func(c *Config) { c.Target = 0 }},
		{"CLK6", func(c *Config) { c.Output = clockgen.CLK6 }},
		{"ten bit address", func(c *Config) { c.Address = 0x160 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.modify(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("Validate accepted %+v", c)
			}
		})
	}
}
