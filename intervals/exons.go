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

// An Exon is an exon of a gene on the hg19 reference, in BED
// coordinates.
type Exon struct {
	Gene  string
	Chrom string
	Interval
}

var geneExons = []Exon{
	{"GBA", "1", Interval{155204239, 155204891}},
	{"GBA", "1", Interval{155204986, 155205102}},
	{"GBA", "1", Interval{155205472, 155205635}},
	{"GBA", "1", Interval{155206036, 155206260}},
	{"GBA", "1", Interval{155207132, 155207369}},
	{"GBA", "1", Interval{155207925, 155208097}},
	{"GBA", "1", Interval{155208308, 155208441}},
	{"GBA", "1", Interval{155209407, 155209553}},
	{"GBA", "1", Interval{155209677, 155209868}},
	{"GBA", "1", Interval{155210421, 155210508}},
	{"GBA", "1", Interval{155210877, 155211069}},
	{"GBA", "1", Interval{155214297, 155214653}},
	{"CYP21A2", "6", Interval{32006093, 32006401}},
	{"CYP21A2", "6", Interval{32006499, 32006588}},
	{"CYP21A2", "6", Interval{32006871, 32007025}},
	{"CYP21A2", "6", Interval{32007133, 32007234}},
	{"CYP21A2", "6", Interval{32007323, 32007424}},
	{"CYP21A2", "6", Interval{32007526, 32007612}},
	{"CYP21A2", "6", Interval{32007782, 32007982}},
	{"CYP21A2", "6", Interval{32008183, 32008361}},
	{"CYP21A2", "6", Interval{32008445, 32008548}},
	{"CYP21A2", "6", Interval{32008646, 32009447}},
	{"PMS2", "7", Interval{6010556, 6013173}},
	{"PMS2", "7", Interval{6017219, 6017421}},
	{"PMS2", "7", Interval{6018227, 6018327}},
	{"PMS2", "7", Interval{6022455, 6022622}},
	{"PMS2", "7", Interval{6026390, 6027251}},
	{"PMS2", "7", Interval{6029431, 6029586}},
	{"PMS2", "7", Interval{6031604, 6031688}},
	{"PMS2", "7", Interval{6035165, 6035264}},
	{"PMS2", "7", Interval{6036957, 6037054}},
	{"PMS2", "7", Interval{6038739, 6038906}},
	{"PMS2", "7", Interval{6042084, 6042442}},
	{"PMS2", "7", Interval{6043321, 6043423}},
	{"PMS2", "7", Interval{6043603, 6043689}},
	{"PMS2", "7", Interval{6045523, 6045662}},
	{"PMS2", "7", Interval{6048438, 6048737}},
}

// GeneExons returns the built-in exon table of GBA, CYP21A2 and PMS2,
// genes with pseudogenes that are prone to mismapped reads.
func GeneExons() []Exon {
	return append([]Exon(nil), geneExons...)
}

// GeneExonRegions returns the built-in exons as Regions.
func GeneExonRegions() Regions {
	intervals := make(map[string][]Interval)
	for _, exon := range geneExons {
		intervals[exon.Chrom] = append(intervals[exon.Chrom], exon.Interval)
	}
	return NewRegions(intervals)
}
