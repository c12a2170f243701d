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
	"io"

	"github.com/bits-and-blooms/bitset"
	"github.com/exascience/pargo/pipeline"
	"github.com/pkg/errors"

	"github.com/exascience/elcontam/contam"
	"github.com/exascience/elcontam/internal"
	"github.com/exascience/elcontam/utils"
)

// A RegionFilter tells whether a 1-based position lies in a region of
// interest.
type RegionFilter interface {
	Contains(chrom string, pos int32) bool
}

// CollectOptions select which records contribute sites.
type CollectOptions struct {
	// SNVOnly drops indels.
	SNVOnly bool
	// MinDepth drops sites with a lower total depth (DP).
	MinDepth int
	// Regions restricts sites to the given regions if not nil.
	Regions RegionFilter
	// Sample is the index of the sample column to use.
	Sample int
}

// A SiteRecord is a site together with its position in the VCF file.
type SiteRecord struct {
	Chrom string
	Pos   int32
	Ref   string
	Alt   string
	Site  contam.Site
}

// A Collection holds the usable records of a VCF file and which of
// them passed the selection of CollectOptions.
type Collection struct {
	// Records are all PASS records with a called, non-reference
	// diploid genotype and DP/AD entries, in file order.
	Records []SiteRecord
	// Selected marks the records that passed SNVOnly, MinDepth and
	// Regions.
	Selected *bitset.BitSet
	// Filtered counts records that did not pass the FILTER column.
	Filtered int
	// Skipped counts PASS records without a usable genotype or depth.
	Skipped int
}

// Sites returns the selected sites in file order.
func (c *Collection) Sites() []contam.Site {
	sites := make([]contam.Site, 0, c.Selected.Count())
	for i, ok := c.Selected.NextSet(0); ok; i, ok = c.Selected.NextSet(i + 1) {
		sites = append(sites, c.Records[i].Site)
	}
	return sites
}

// IsSelected tells whether the i-th record was selected.
func (c *Collection) IsSelected(i int) bool {
	return c.Selected.Test(uint(i))
}

// Select recomputes the selection for new options. Only SNVOnly,
// MinDepth and Regions are used.
func (c *Collection) Select(opts CollectOptions) {
	c.Selected = bitset.New(uint(len(c.Records)))
	for i, record := range c.Records {
		if opts.SNVOnly && record.Site.Type != contam.SNV {
			continue
		}
		if record.Site.TotalDepth < opts.MinDepth {
			continue
		}
		if opts.Regions != nil && !opts.Regions.Contains(record.Chrom, record.Pos) {
			continue
		}
		c.Selected.Set(uint(i))
	}
}

// errSkip marks a record that carries no usable site.
var errSkip = errors.New("no usable site")

// ExtractSite extracts the site of the given sample from a variant.
// Records that cannot contribute a site, such as no-calls,
// reference-only calls, non-diploid calls, or records with missing DP
// or AD entries, return an error for which IsSkip holds. Records with
// inconsistent entries return other errors.
func ExtractSite(variant *Variant, sample int) (SiteRecord, error) {
	gt, err := variant.SampleGenotype(sample)
	if err != nil || len(gt.GT) != 2 || !gt.Called() {
		return SiteRecord{}, errSkip
	}
	ref, alt := gt.GT[0], gt.GT[1]
	if alt == 0 {
		ref, alt = alt, ref
	}
	if alt == 0 {
		return SiteRecord{}, errSkip
	}
	if int(alt) > len(variant.Alt) {
		return SiteRecord{}, fmt.Errorf("GT allele %v out of range for ALT %v", alt, variant.Alt)
	}
	depth, ok := variant.SampleInt(sample, DP)
	if !ok {
		return SiteRecord{}, errSkip
	}
	depths, ok := variant.SampleInts(sample, AD)
	if !ok || int(alt) >= len(depths) || depths[alt] < 0 {
		return SiteRecord{}, errSkip
	}
	genotype := contam.Homozygous
	if ref != alt {
		genotype = contam.Heterozygous
	}
	altAllele := variant.Alt[alt-1]
	variantType := contam.Indel
	if len(variant.Ref) == len(altAllele) {
		variantType = contam.SNV
	}
	site, err := contam.NewSite(depth, depths[alt], genotype, variantType)
	if err != nil {
		return SiteRecord{}, err
	}
	return SiteRecord{
		Chrom: *utils.Intern(variant.Chrom),
		Pos:   variant.Pos,
		Ref:   variant.Ref,
		Alt:   altAllele,
		Site:  site,
	}, nil
}

// IsSkip tells whether an error returned by ExtractSite only means
// that the record carries no site.
func IsSkip(err error) bool {
	return err == errSkip
}

type collectBatch struct {
	records           []SiteRecord
	filtered, skipped int
}

// ReadSites parses VCF records from reader, which must be positioned
// after the header, and collects their sites. Parsing runs in a
// parallel pipeline; records keep their file order.
func ReadSites(reader io.Reader, header *Header, opts CollectOptions) (*Collection, error) {
	variantParser, err := header.NewVariantParser()
	if err != nil {
		return nil, err
	}
	if opts.Sample < 0 || opts.Sample >= variantParser.NSamples {
		return nil, fmt.Errorf("sample %v not present in a VCF file with %v samples", opts.Sample, variantParser.NSamples)
	}
	variantParser.NSamples = opts.Sample + 1 // later samples need not be parsed
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(reader))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		var batch collectBatch
		var sc StringScanner
		for _, line := range data.([]string) {
			if line == "" {
				continue
			}
			sc.Reset(line)
			variant := sc.ParseVariant(variantParser)
			if err := sc.Err(); err != nil {
				p.SetErr(fmt.Errorf("%v, while parsing VCF variant %v", err, line))
				return batch
			}
			if !variant.Pass() {
				batch.filtered++
				continue
			}
			record, err := ExtractSite(variant, opts.Sample)
			switch {
			case IsSkip(err):
				batch.skipped++
			case err != nil:
				p.SetErr(fmt.Errorf("%v, in VCF variant %v", err, line))
				return batch
			default:
				batch.records = append(batch.records, record)
			}
		}
		return batch
	})))
	var collection Collection
	p.Add(pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
		batch := data.(collectBatch)
		collection.Records = append(collection.Records, batch.records...)
		collection.Filtered += batch.filtered
		collection.Skipped += batch.skipped
		return data
	})))
	p.Run()
	if err := p.Err(); err != nil {
		return nil, err
	}
	collection.Select(opts)
	return &collection, nil
}

// CollectSites reads a VCF file and collects the sites of one sample.
func CollectSites(filename string, opts CollectOptions) (collection *Collection, err error) {
	pathname, err := internal.FullPathname(filename)
	if err != nil {
		return nil, err
	}
	input, err := Open(pathname)
	if err != nil {
		return nil, errors.Wrapf(err, "opening VCF file %v", filename)
	}
	defer internal.Close(input, &err)
	header, _, err := ParseHeader(input.Reader)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing header of VCF file %v", filename)
	}
	collection, err = ReadSites(input.Reader, header, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "reading VCF file %v", filename)
	}
	return collection, nil
}
