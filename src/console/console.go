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

/*
Package console adapts a host terminal to the key-at-a-time input of the
calibration loop.

In raw mode a key is delivered as soon as it is pressed, nothing is echoed
and the terminal no longer turns a newline into a carriage return plus line
feed, so everything written while the console is open must use CRLF. See
calibrate.CRLF.
*/
package console

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// ErrInterrupt is returned by ReadByte when the operator presses Ctrl-C.
// Raw mode disables the signal, so the key arrives as input instead.
var ErrInterrupt = errors.New("interrupted")

const ctrlC = 0x03

// Terminal reads single keys from the operator.
type Terminal struct {
	r     *bufio.Reader
	fd    int
	state *term.State
}

// New wraps a plain reader. Discard only drops what has been buffered.
func New(r io.Reader) *Terminal {
	return &Terminal{r: bufio.NewReader(r), fd: -1}
}

// Open puts f into raw mode if it is a terminal. Close restores it.
func Open(f *os.File) (*Terminal, error) {
	t := New(f)
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return t, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "switch terminal to raw mode")
	}
	t.fd = fd
	t.state = state
	return t, nil
}

// ReadByte blocks until a key is available.
func (t *Terminal) ReadByte() (byte, error) {
	b, err := t.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b == ctrlC {
		return 0, ErrInterrupt
	}
	return b, nil
}

// Discard drops typed ahead keys, both those already buffered and those
// still queued in the terminal driver.
func (t *Terminal) Discard() {
	_, _ = t.r.Discard(t.r.Buffered())
	if t.fd >= 0 {
		_ = flushInput(t.fd)
	}
}

// Raw reports whether the terminal is in raw mode.
func (t *Terminal) Raw() bool {
	return t.state != nil
}

// Close restores the terminal mode that was in place before Open.
func (t *Terminal) Close() error {
	if t.state == nil {
		return nil
	}
	err := term.Restore(t.fd, t.state)
	t.state = nil
	return errors.Wrap(err, "restore terminal")
}
