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
	"io"
)

// CRLF returns a writer that expands bare line feeds to CRLF.
func CRLF(w io.Writer) io.Writer {
	return &crlfWriter{w: w}
}

type crlfWriter struct {
	w   io.Writer
	cr  bool
	buf bytes.Buffer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	c.buf.Reset()
	for _, b := range p {
		if b == '\n' && !c.cr {
			c.buf.WriteByte('\r')
		}
		c.buf.WriteByte(b)
		c.cr = b == '\r'
	}
	if _, err := c.w.Write(c.buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
