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

package board

import (
	"github.com/jangala-dev/tinygo-uartx/uartx"
)

// Console is the operator's serial line. It satisfies calibrate.Input and
// io.Writer.
type Console struct {
	uart    *uartx.UART
	buf     [64]byte
	pending []byte
}

// OpenConsole configures UART1 at the given baud rate.
func OpenConsole(baud uint32) (*Console, error) {
	uart := uartx.UART1
	err := uart.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       uartx.UART1_TX_PIN,
		RX:       uartx.UART1_RX_PIN,
	})
	if err != nil {
		return nil, err
	}
	return &Console{uart: uart}, nil
}

// ReadByte blocks until a key arrives.
func (c *Console) ReadByte() (byte, error) {
	for len(c.pending) == 0 {
		if n := c.uart.TryRead(c.buf[:]); n > 0 {
			c.pending = c.buf[:n]
			break
		}
		<-c.uart.Readable()
	}
	b := c.pending[0]
	c.pending = c.pending[1:]
	return b, nil
}

// Discard drains everything received so far.
func (c *Console) Discard() {
	c.pending = nil
	for c.uart.TryRead(c.buf[:]) > 0 {
	}
}

func (c *Console) Write(p []byte) (int, error) {
	return c.uart.Write(p)
}
