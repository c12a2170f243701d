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

package utils

import (
	"bufio"
	"io"

	"github.com/klauspost/compress/gzip"
)

// IsGzip determines if the the given byte scanner produces a gzip
// file. It peeks at the two magic bytes only.
func IsGzip(buf *bufio.Reader) (bool, error) {
	magic, err := buf.Peek(2)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return magic[0] == 0x1f && magic[1] == 0x8b, nil
}

// HandleGzip returns a decompressing reader if buf produces gzip data,
// and buf itself otherwise. BGZF files are multi-member gzip files and
// are read through to the end.
func HandleGzip(buf *bufio.Reader) (io.Reader, error) {
	ok, err := IsGzip(buf)
	if err != nil || !ok {
		return buf, err
	}
	return gzip.NewReader(buf)
}
