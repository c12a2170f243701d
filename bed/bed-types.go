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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/exascience/elcontam/utils"
)

// Bed is a struct for representing the contents of a BED file. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
type Bed struct {
	// Bed tracks defined in the file.
	Tracks []*Track
	// Maps chromosome name onto bed regions.
	RegionMap map[utils.Symbol][]*Region
}

// A Track is a struct for representing BED tracks. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
type Track struct {
	// All track fields are optional.
	Fields map[string]string
	// The bed regions this track groups together.
	Regions []*Region
}

// A Region is a struct for representing intervals as defined in a BED
// file. Start is 0-based, End is exclusive. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
type Region struct {
	Chrom          utils.Symbol
	Start          int32
	End            int32
	OptionalFields []interface{}
}

// Symbols for optional strand field of a Region.
var (
	// Strand forward.
	SF = utils.Intern("+")
	// Strand reverse.
	SR = utils.Intern("-")
)

// NewRegion allocates and initializes a new Region. Optional fields
// are given in order. If a "later" field is entered, then the
// "earlier" field was entered as well.
func NewRegion(chrom utils.Symbol, start int32, end int32, fields []string) (*Region, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid BED region %v:%v-%v", *chrom, start, end)
	}
	regionFields, err := initializeRegionFields(fields)
	if err != nil {
		return nil, err
	}
	return &Region{
		Chrom:          chrom,
		Start:          start,
		End:            end,
		OptionalFields: regionFields,
	}, nil
}

// Valid bed region optional fields.
const (
	brName = iota
	brScore
	brStrand
	brThickStart
	brThickEnd
	brItemRgb
	brBlockCount
	brBlockSizes
	brBlockStarts
)

func parseIntList(field, val string) ([]int, error) {
	var result []int
	for _, s := range strings.Split(strings.TrimSuffix(val, ","), ",") {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %v field: %v", field, err)
		}
		result = append(result, n)
	}
	return result, nil
}

func initializeRegionFields(fields []string) ([]interface{}, error) {
	brFields := make([]interface{}, len(fields))
	for i, val := range fields {
		switch i {
		case brName:
			brFields[brName] = val
		case brScore:
			score, err := strconv.Atoi(val)
			if err != nil || score < 0 || score > 1000 {
				return nil, fmt.Errorf("invalid Score field: %v", val)
			}
			brFields[brScore] = score
		case brStrand:
			switch val {
			case "+", "-":
				brFields[brStrand] = utils.Intern(val)
			case ".":
				brFields[brStrand] = nil
			default:
				return nil, fmt.Errorf("invalid Strand field: %v", val)
			}
		case brThickStart, brThickEnd, brBlockCount:
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("invalid optional field %v: %v", i, err)
			}
			brFields[i] = n
		case brItemRgb:
			brFields[brItemRgb] = val
		case brBlockSizes:
			sizes, err := parseIntList("BlockSizes", val)
			if err != nil {
				return nil, err
			}
			brFields[brBlockSizes] = sizes
		case brBlockStarts:
			starts, err := parseIntList("BlockStarts", val)
			if err != nil {
				return nil, err
			}
			brFields[brBlockStarts] = starts
		default:
			return nil, fmt.Errorf("invalid optional field: %v out of 0-8", val)
		}
	}
	return brFields, nil
}

// Name returns the optional name of the region, or "".
func (region *Region) Name() string {
	if len(region.OptionalFields) > brName {
		return region.OptionalFields[brName].(string)
	}
	return ""
}

// NewTrack allocates and initializes a new Track.
func NewTrack(fields map[string]string) *Track {
	return &Track{
		Fields: fields,
	}
}

// NewBed allocates and initializes an empty bed.
func NewBed() *Bed {
	return &Bed{
		RegionMap: make(map[utils.Symbol][]*Region),
	}
}

// AddRegion adds a region to the bed region map, and to the current
// track if there is one.
func (bed *Bed) AddRegion(region *Region) {
	bed.RegionMap[region.Chrom] = append(bed.RegionMap[region.Chrom], region)
	if n := len(bed.Tracks); n > 0 {
		track := bed.Tracks[n-1]
		track.Regions = append(track.Regions, region)
	}
}

// NumberOfRegions returns the total number of regions in the bed.
func (bed *Bed) NumberOfRegions() (n int) {
	for _, regions := range bed.RegionMap {
		n += len(regions)
	}
	return n
}

func (bed *Bed) sortRegions() {
	for _, regions := range bed.RegionMap {
		sort.SliceStable(regions, func(i, j int) bool {
			return regions[i].Start < regions[j].Start
		})
	}
}
