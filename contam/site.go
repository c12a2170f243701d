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

package contam

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Genotype is the genotype class of a variant call.
type Genotype uint8

// The genotype classes. The zero value is not a valid class.
const (
	InvalidGenotype Genotype = iota
	Heterozygous
	Homozygous
)

func (gt Genotype) String() string {
	switch gt {
	case Heterozygous:
		return "HET"
	case Homozygous:
		return "HOM"
	default:
		return "INVALID"
	}
}

// ParseGenotype accepts HET/HOM and the spelled-out class names, in
// any letter case.
func ParseGenotype(s string) (Genotype, error) {
	switch strings.ToUpper(s) {
	case "HET", "HETEROZYGOUS":
		return Heterozygous, nil
	case "HOM", "HOMOZYGOUS":
		return Homozygous, nil
	default:
		return InvalidGenotype, fmt.Errorf("invalid genotype class %q", s)
	}
}

// VariantType tells whether a site is an SNV or an indel. It is
// informational only: the likelihood model does not look at it.
type VariantType uint8

// The variant types.
const (
	UnknownType VariantType = iota
	SNV
	Indel
)

func (vt VariantType) String() string {
	switch vt {
	case SNV:
		return "SNV"
	case Indel:
		return "INDEL"
	default:
		return "UNKNOWN"
	}
}

// ParseVariantType accepts SNV and INDEL in any letter case. The empty
// string yields UnknownType.
func ParseVariantType(s string) (VariantType, error) {
	switch strings.ToUpper(s) {
	case "":
		return UnknownType, nil
	case "SNV":
		return SNV, nil
	case "INDEL":
		return Indel, nil
	default:
		return UnknownType, fmt.Errorf("invalid variant type %q", s)
	}
}

// ErrInvalidSite is the cause of all errors returned by NewSite.
var ErrInvalidSite = errors.New("invalid site")

// A Site is the observation at one variant position of one sample.
//
// Sites should be created with NewSite, which guarantees
// 0 <= AltDepth <= TotalDepth.
type Site struct {
	TotalDepth int
	AltDepth   int
	Genotype   Genotype
	Type       VariantType
}

// NewSite validates its arguments and returns the corresponding Site.
func NewSite(totalDepth, altDepth int, genotype Genotype, variantType VariantType) (Site, error) {
	if totalDepth < 0 {
		return Site{}, errors.Wrapf(ErrInvalidSite, "negative total depth %v", totalDepth)
	}
	if altDepth < 0 {
		return Site{}, errors.Wrapf(ErrInvalidSite, "negative alt depth %v", altDepth)
	}
	if altDepth > totalDepth {
		return Site{}, errors.Wrapf(ErrInvalidSite, "alt depth %v exceeds total depth %v", altDepth, totalDepth)
	}
	if genotype != Heterozygous && genotype != Homozygous {
		return Site{}, errors.Wrapf(ErrInvalidSite, "genotype class %v", genotype)
	}
	return Site{
		TotalDepth: totalDepth,
		AltDepth:   altDepth,
		Genotype:   genotype,
		Type:       variantType,
	}, nil
}

// AltFraction is AltDepth/TotalDepth, or 0 for a site without reads.
func (site Site) AltFraction() float64 {
	if site.TotalDepth == 0 {
		return 0
	}
	return float64(site.AltDepth) / float64(site.TotalDepth)
}

func (site Site) String() string {
	return fmt.Sprintf("%v %v %v/%v", site.Genotype, site.Type, site.AltDepth, site.TotalDepth)
}
