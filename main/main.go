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

package main

import (
	"time"

	"github.com/sirupsen/logrus"

	"si5351cal/src/board"
	"si5351cal/src/calibrate"
	"si5351cal/src/config"
)

func main() {
	cfg := config.Defaults()
	// give the USB host or serial monitor time to attach
	time.Sleep(cfg.StartupDelay)

	serial, err := board.OpenConsole(cfg.Baud)
	if err != nil {
		panic("failed setup: " + err.Error())
	}
	log := logrus.New()
	log.SetOutput(calibrate.CRLF(serial))
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	chip := board.Clock(cfg)
	cal := calibrate.New(cfg, chip, serial, serial, log)
	if err := cal.Start(); err != nil {
		panic("failed setup: " + err.Error())
	}
	if err := cal.Run(); err != nil {
		log.WithError(err).Error("calibration stopped")
	}
	select {}
}
