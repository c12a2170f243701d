// elContam: estimating contamination of diploid samples from VCF files.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elcontam/blob/master/LICENSE.txt>.

package vcf

import "fmt"

// A StringScanner can be used scan/parse strings representing
// lines in VCF files.
//
// The zero StringScanner is valid and empty.
type StringScanner struct {
	index int
	data  string
	err   error
}

// Reset resets the scanner, and initializes it with the given string.
func (sc *StringScanner) Reset(s string) {
	sc.index = 0
	sc.data = s
	sc.err = nil
}

// Err returns the first error that occurred while scanning.
func (sc *StringScanner) Err() error {
	return sc.err
}

// Len returns the number of ASCII characters that still need to be
// scanned/parsed.
func (sc *StringScanner) Len() int {
	return len(sc.data) - sc.index
}

// setErr records only the first error.
func (sc *StringScanner) setErr(format string, args ...interface{}) {
	if sc.err == nil {
		sc.err = fmt.Errorf(format, args...)
	}
}

func (sc *StringScanner) atEnd() bool {
	return sc.index >= len(sc.data)
}

func (sc *StringScanner) peek() byte {
	return sc.data[sc.index]
}

// SkipSpace skips ' ' runes
func (sc *StringScanner) SkipSpace() {
	for !sc.atEnd() && sc.peek() == ' ' {
		sc.index++
	}
}

func (sc *StringScanner) readUntilByte(c byte) (s string, found bool) {
	start := sc.index
	for end := sc.index; end < len(sc.data); end++ {
		if sc.data[end] == c {
			sc.index = end + 1
			return sc.data[start:end], true
		}
	}
	sc.index = len(sc.data)
	return sc.data[start:], false
}

// readUntilBytes stops in front of the first byte from bytes.
func (sc *StringScanner) readUntilBytes(bytes []byte) string {
	start := sc.index
	for ; sc.index < len(sc.data); sc.index++ {
		if containsByte(sc.data[sc.index], bytes) {
			break
		}
	}
	return sc.data[start:sc.index]
}

func containsByte(b byte, bytes []byte) bool {
	for _, bb := range bytes {
		if b == bb {
			return true
		}
	}
	return false
}
