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

package intervals

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/exascience/pargo/parallel"
	"github.com/exascience/pargo/pipeline"
	psort "github.com/exascience/pargo/sort"
	"github.com/pkg/errors"

	"github.com/exascience/elcontam/bed"
	"github.com/exascience/elcontam/internal"
)

// Interval is a generic struct with a start and an end position.
// Start is 0-based and End is exclusive, as in BED files.
type Interval struct {
	Start, End int32
}

// SortByStart sorts a slice of Interval by Start position.
func SortByStart(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})
}

type stableIntervalSorter []Interval

func (s stableIntervalSorter) SequentialSort(i, j int) {
	SortByStart(s[i:j])
}

func (s stableIntervalSorter) NewTemp() psort.StableSorter {
	return stableIntervalSorter(make([]Interval, len(s)))
}

func (s stableIntervalSorter) Len() int {
	return len(s)
}

func (s stableIntervalSorter) Less(i, j int) bool {
	return s[i].Start < s[j].Start
}

func (s stableIntervalSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableIntervalSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ParallelSortByStart sorts a slice of Interval by Start position using
// a parallel stable sort.
func ParallelSortByStart(intervals []Interval) {
	psort.StableSort(stableIntervalSorter(intervals))
}

// Extend makes interval1 larger if it overlaps with interval2,
// by storing max(interval1.End, interval2.End) in interval1.End;
// otherwise, interval1 remains unchanged.
// Returns true if the two intervals overlap, false otherwise.
// interval2.Start >= interval1.Start must be true before
// calling Extend.
func (interval1 *Interval) Extend(interval2 Interval) bool {
	if interval2.Start > interval1.End {
		return false
	}
	if interval2.End > interval1.End {
		interval1.End = interval2.End
	}
	return true
}

// Flatten merges overlapping intervals into larger intervals.
// intervals must be sorted by Start before calling Flatten.
// The resulting slice is sorted by Start, and no two
// intervals in the result overlap with each other.
// The result shares memory with the intervals argument.
func Flatten(intervals []Interval) []Interval {
	for i, n := 0, len(intervals)-1; i < n; i++ {
		if intervals[i].Extend(intervals[i+1]) {
			n++
			for j := i + 1; j < n; j++ {
				if !intervals[i].Extend(intervals[j]) {
					i++
					intervals[i] = intervals[j]
				}
			}
			return intervals[:i+1]
		}
	}
	return intervals
}

const parallelFlattenGrainSize = 0x1000

// ParallelFlatten merges overlapping intervals into larger intervals,
// using a parallel algorithm. Same contract as Flatten.
func ParallelFlatten(intervals []Interval) []Interval {
	if len(intervals) < parallelFlattenGrainSize {
		return Flatten(intervals)
	}
	half := len(intervals) >> 1
	left, right := intervals[:half], intervals[half:]
	parallel.Do(
		func() { left = ParallelFlatten(left) },
		func() { right = ParallelFlatten(right) },
	)
	for len(right) > 0 && left[len(left)-1].Extend(right[0]) {
		right = right[1:]
	}
	return append(left, right...)
}

// Overlap determines whether the given start/end range overlaps
// with any of the given intervals.
// intervals must be Flattened and sorted by Start.
func Overlap(intervals []Interval, start, end int32) bool {
	for left, right := 0, len(intervals)-1; left <= right; {
		mid := (left + right) / 2
		intervalStart := intervals[mid].Start
		intervalEnd := intervals[mid].End
		if intervalStart > end-1 {
			right = mid - 1
		} else if intervalEnd <= start-1 {
			left = mid + 1
		} else {
			return true
		}
	}
	return false
}

// Regions maps chromosome names onto sorted, flattened intervals.
type Regions map[string][]Interval

// NewRegions sorts and flattens the intervals of each chromosome. The
// result shares memory with the argument.
func NewRegions(intervals map[string][]Interval) Regions {
	regions := make(Regions, len(intervals))
	for chrom, ivals := range intervals {
		ParallelSortByStart(ivals)
		regions[chrom] = ParallelFlatten(ivals)
	}
	return regions
}

func (regions Regions) lookup(chrom string) ([]Interval, bool) {
	if ivals, ok := regions[chrom]; ok {
		return ivals, true
	}
	if strings.HasPrefix(chrom, "chr") {
		ivals, ok := regions[chrom[3:]]
		return ivals, ok
	}
	ivals, ok := regions["chr"+chrom]
	return ivals, ok
}

// Contains tells whether the 1-based position pos on chrom lies in one
// of the regions. Chromosome names match with or without a "chr"
// prefix, so "chr1" and "1" name the same chromosome.
func (regions Regions) Contains(chrom string, pos int32) bool {
	ivals, ok := regions.lookup(chrom)
	if !ok {
		return false
	}
	return Overlap(ivals, pos, pos)
}

// Len returns the number of intervals over all chromosomes.
func (regions Regions) Len() (n int) {
	for _, ivals := range regions {
		n += len(ivals)
	}
	return n
}

// ElsitesHeader is the header line that every .elsites file starts with.
const ElsitesHeader = "# elsites format version 1.0\n"

// ToElsitesFile stores intervals in a .elsites file. Chromosomes are
// written in sorted order.
func ToElsitesFile(intervals map[string][]Interval, filename string) (err error) {
	pathname, err := internal.FullPathname(filename)
	if err != nil {
		return err
	}
	output, err := internal.CreateFile(pathname)
	if err != nil {
		return err
	}
	defer internal.Close(output, &err)
	out := bufio.NewWriter(output)
	if _, err = out.WriteString(ElsitesHeader); err != nil {
		return err
	}
	chroms := make([]string, 0, len(intervals))
	for chrom := range intervals {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	var buf []byte
	for _, chrom := range chroms {
		for _, ival := range intervals[chrom] {
			buf = append(buf[:0], chrom...)
			buf = append(buf, '\t')
			buf = strconv.AppendInt(buf, int64(ival.Start), 10)
			buf = append(buf, '\t')
			buf = strconv.AppendInt(buf, int64(ival.End), 10)
			buf = append(buf, '\n')
			if _, err = out.Write(buf); err != nil {
				return err
			}
		}
	}
	return out.Flush()
}

func parseElsitesLine(str string) (chrom string, interval Interval, err error) {
	fields := strings.Split(str, "\t")
	if len(fields) != 3 || fields[0] == "" {
		return "", interval, fmt.Errorf("invalid sites line %v", str)
	}
	start, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return "", interval, err
	}
	end, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return "", interval, err
	}
	return fields[0], Interval{Start: int32(start), End: int32(end)}, nil
}

// FromElsitesFile loads intervals from a .elsites file.
func FromElsitesFile(filename string) (intervals map[string][]Interval, err error) {
	pathname, err := internal.FullPathname(filename)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer internal.Close(in, &err)
	input := bufio.NewReader(in)
	header, err := input.ReadString('\n')
	if err != nil || header != ElsitesHeader {
		return nil, fmt.Errorf("%v is not a .elsites file - invalid header", filename)
	}
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		intervals := make(map[string][]Interval)
		for _, str := range data.([]string) {
			if str == "" {
				continue
			}
			chrom, interval, err := parseElsitesLine(str)
			if err != nil {
				p.SetErr(err)
				return intervals
			}
			intervals[chrom] = append(intervals[chrom], interval)
		}
		return intervals
	})))
	intervals = make(map[string][]Interval)
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		for chrom, ivals := range data.(map[string][]Interval) {
			intervals[chrom] = append(intervals[chrom], ivals...)
		}
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading .elsites file %v", filename)
	}
	return intervals, nil
}

// FromBed returns the intervals that correspond to the BED file entries.
func FromBed(bed *bed.Bed) (intervals map[string][]Interval) {
	intervals = make(map[string][]Interval)
	for _, regions := range bed.RegionMap {
		for _, region := range regions {
			intervals[*region.Chrom] = append(intervals[*region.Chrom], Interval{Start: region.Start, End: region.End})
		}
	}
	return
}

// FromBedFile returns the intervals that correspond to the BED file entries.
func FromBedFile(filename string) (map[string][]Interval, error) {
	bed, err := bed.ParseBed(filename)
	if err != nil {
		return nil, err
	}
	return FromBed(bed), nil
}
