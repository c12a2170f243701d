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

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/exascience/elcontam/utils"
)

// The VCF file format versions accepted by the parser.
const fileFormatVersionLinePrefix = "##fileformat=VCFv4."

// DefaultHeaderColumns for VCF files.
var DefaultHeaderColumns = []string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// Type is an enumeration type for different VCF field types
type Type uint

// The different VCF field types
const (
	InvalidType Type = iota
	Integer          // represented as int
	Float            // represented as float64
	Flag             // represented as bool with fixed value true
	Character        // represented as rune
	String           // represented as string
)

// Constants for format information Number entries.
const (
	NumberA int32 = -1 * (1 + iota)
	NumberR
	NumberG
	NumberDot
	InvalidNumber
)

// Commonly used VCF entries.
var (
	AD   = utils.Intern("AD")
	DP   = utils.Intern("DP")
	GT   = utils.Intern("GT")
	PASS = utils.Intern("PASS")
)

type (
	// FormatInformation describes an INFO or FORMAT field declared in
	// the header.
	FormatInformation struct {
		ID          utils.Symbol
		Description string // "" if not present
		Number      int32  // > InvalidNumber
		Type        Type
		Fields      map[string]string
	}

	// Header section of a VCF file. Meta lines other than INFO and
	// FORMAT are kept verbatim.
	Header struct {
		FileFormat string
		Infos      []*FormatInformation
		Formats    []*FormatInformation
		Meta       map[string][]string
		Columns    []string
	}

	// Genotype is a structured representation of the GT entry of a sample.
	Genotype struct {
		Phased bool
		GT     []int32 // < 0 for unknown entries
	}

	// Variant line in a VCF file.
	Variant struct {
		Chrom          string
		Pos            int32    // < 0 if unknown
		ID             []string // nil/empty if missing
		Ref            string
		Alt            []string       // nil/empty if missing
		Qual           interface{}    // float64, or nil if missing
		Filter         []utils.Symbol // nil/empty if missing
		Info           utils.SmallMap // values are int, float64, bool, rune, string, or []interface{}
		GenotypeFormat []utils.Symbol
		GenotypeData   []utils.SmallMap // values are nil (for missing entry), int, float64, rune, string, or []interface{}
	}
)

// NewFormatInformation creates an empty instance.
func NewFormatInformation() *FormatInformation {
	return &FormatInformation{Number: InvalidNumber, Fields: make(map[string]string)}
}

// NewHeader creates an empty instance.
func NewHeader() *Header {
	return &Header{Meta: make(map[string][]string)}
}

// Samples returns the sample names from the column header line.
func (header *Header) Samples() []string {
	if n := len(DefaultHeaderColumns) + 1; len(header.Columns) > n {
		return header.Columns[n:]
	}
	return nil
}

// Pass determines whether the variant passed all filters. A missing
// FILTER entry counts as passed.
func (v *Variant) Pass() bool {
	if len(v.Filter) == 0 {
		return true
	}
	return len(v.Filter) == 1 && v.Filter[0] == PASS
}

// SampleEntry returns the FORMAT entry of the given sample. Missing
// entries are reported as absent.
func (v *Variant) SampleEntry(sample int, key utils.Symbol) (interface{}, bool) {
	if sample < 0 || sample >= len(v.GenotypeData) {
		return nil, false
	}
	value, ok := v.GenotypeData[sample].Get(key)
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

// SampleInt returns an Integer FORMAT entry of the given sample.
func (v *Variant) SampleInt(sample int, key utils.Symbol) (int, bool) {
	value, ok := v.SampleEntry(sample, key)
	if !ok {
		return 0, false
	}
	switch val := value.(type) {
	case int:
		return val, true
	case []interface{}:
		if len(val) == 1 {
			if i, ok := val[0].(int); ok {
				return i, true
			}
		}
	case string:
		if i, err := strconv.Atoi(val); err == nil {
			return i, true
		}
	}
	return 0, false
}

// SampleInts returns an Integer list FORMAT entry of the given sample.
// Missing list elements are returned as -1.
func (v *Variant) SampleInts(sample int, key utils.Symbol) ([]int, bool) {
	value, ok := v.SampleEntry(sample, key)
	if !ok {
		return nil, false
	}
	var list []interface{}
	switch val := value.(type) {
	case int:
		return []int{val}, true
	case []interface{}:
		list = val
	case string:
		for _, s := range strings.Split(val, ",") {
			list = append(list, s)
		}
	default:
		return nil, false
	}
	result := make([]int, len(list))
	for i, entry := range list {
		switch e := entry.(type) {
		case nil:
			result[i] = -1
		case int:
			result[i] = e
		case string:
			if e == "." {
				result[i] = -1
				continue
			}
			n, err := strconv.Atoi(e)
			if err != nil {
				return nil, false
			}
			result[i] = n
		default:
			return nil, false
		}
	}
	return result, true
}

// SampleGenotype parses the GT entry of the given sample.
func (v *Variant) SampleGenotype(sample int) (Genotype, error) {
	value, ok := v.SampleEntry(sample, GT)
	if !ok {
		return Genotype{}, fmt.Errorf("missing GT entry for sample %v", sample)
	}
	str, ok := value.(string)
	if !ok {
		return Genotype{}, fmt.Errorf("invalid GT entry %v for sample %v", value, sample)
	}
	return ParseGenotype(str)
}

// ParseGenotype parses a GT entry such as 0/1, 1|1 or ./.
func ParseGenotype(str string) (gt Genotype, err error) {
	if str == "" {
		return gt, fmt.Errorf("empty GT entry")
	}
	start := 0
	for i := 0; i <= len(str); i++ {
		if i < len(str) && str[i] != '/' && str[i] != '|' {
			continue
		}
		if i < len(str) && str[i] == '|' {
			gt.Phased = true
		}
		allele := str[start:i]
		if allele == "." {
			gt.GT = append(gt.GT, -1)
		} else {
			index, err := strconv.ParseInt(allele, 10, 32)
			if err != nil || index < 0 {
				return Genotype{}, fmt.Errorf("invalid GT entry %v", str)
			}
			gt.GT = append(gt.GT, int32(index))
		}
		start = i + 1
	}
	return gt, nil
}

// Called tells whether all alleles of the genotype are known.
func (gt Genotype) Called() bool {
	for _, allele := range gt.GT {
		if allele < 0 {
			return false
		}
	}
	return len(gt.GT) > 0
}
