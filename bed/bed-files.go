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

package bed

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/exascience/elcontam/internal"
	"github.com/exascience/elcontam/utils"
)

// parseTrackFields parses the key=value pairs of a track line. Values
// may be double-quoted.
func parseTrackFields(line string) map[string]string {
	fields := make(map[string]string)
	rest := strings.TrimSpace(strings.TrimPrefix(line, "track"))
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			fields[rest] = ""
			break
		}
		key := strings.TrimSpace(rest[:eq])
		rest = rest[eq+1:]
		var value string
		if strings.HasPrefix(rest, "\"") {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				value, rest = rest[1:], ""
			} else {
				value, rest = rest[1:end+1], rest[end+2:]
			}
		} else if end := strings.IndexAny(rest, " \t"); end < 0 {
			value, rest = rest, ""
		} else {
			value, rest = rest[:end], rest[end:]
		}
		fields[key] = value
		rest = strings.TrimSpace(rest)
	}
	return fields
}

func parseRegion(line string) (*Region, error) {
	data := strings.Split(line, "\t")
	if len(data) < 3 {
		return nil, fmt.Errorf("too few columns in BED line %v", line)
	}
	start, err := strconv.ParseInt(data[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%v, in BED line %v", err, line)
	}
	end, err := strconv.ParseInt(data[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%v, in BED line %v", err, line)
	}
	region, err := NewRegion(utils.Intern(data[0]), int32(start), int32(end), data[3:])
	if err != nil {
		return nil, fmt.Errorf("%v, in BED line %v", err, line)
	}
	return region, nil
}

// ParseBed parses a BED file, which may be gzip compressed. Regions
// are sorted by start position per chromosome. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
func ParseBed(filename string) (bed *Bed, err error) {
	pathname, err := internal.FullPathname(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer internal.Close(file, &err)

	reader, err := utils.HandleGzip(bufio.NewReader(file))
	if err != nil {
		return nil, errors.Wrapf(err, "reading BED file %v", filename)
	}
	if closer, ok := reader.(interface{ Close() error }); ok {
		defer internal.Close(closer, &err)
	}

	bed = NewBed()
	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "", strings.HasPrefix(line, "#"), strings.HasPrefix(line, "browser"):
			continue
		case strings.HasPrefix(line, "track"):
			bed.Tracks = append(bed.Tracks, NewTrack(parseTrackFields(line)))
			continue
		}
		region, err := parseRegion(line)
		if err != nil {
			return nil, errors.Wrapf(err, "%v:%v", filename, lineNumber)
		}
		bed.AddRegion(region)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading BED file %v", filename)
	}
	bed.sortRegions()
	return bed, nil
}
