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

//go:build rp2040

// Package board wires the calibrator to a Pico: the clock generator on I2C0
// and the operator console on UART1.
package board

import (
	"fmt"
	"machine"

	"github.com/chiefMarlin/tinygo-drivers/si5351"

	"si5351cal/src/clockgen"
	"si5351cal/src/config"
)

// Clock configures I2C0 and checks that a clock generator answers before
// handing the bus to clockgen.
func Clock(cfg config.Config) *clockgen.Device {
	// Configure I2C bus
	err := machine.I2C0.Configure(machine.I2CConfig{})
	if err != nil {
		panic("Failed to configure I2C0")
	}

	// Verify device wired properly
	probe := si5351.New(machine.I2C0)
	connected, err := probe.Connected()
	if err != nil {
		panic(fmt.Sprintf("Unable to read device status: %v", err))
	}
	if !connected {
		panic("Unable to connect to SI5351 device")
	}

	return clockgen.New(machine.I2C0, cfg.Address)
}
