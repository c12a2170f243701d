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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/elcontam/contam"
)

const testHeader = `##fileformat=VCFv4.2
##FILTER=<ID=PASS,Description="All filters passed">
##FILTER=<ID=LowQual,Description="Low quality">
##INFO=<ID=DP,Number=1,Type=Integer,Description="Approximate read depth">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
##FORMAT=<ID=AD,Number=R,Type=Integer,Description="Allelic depths for the ref and alt alleles">
##FORMAT=<ID=DP,Number=1,Type=Integer,Description="Approximate read depth">
##contig=<ID=chr1,length=249250621>
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	sample1	sample2
`

var testRecords = []string{
	"chr1	100	.	A	G	50	PASS	DP=100	GT:AD:DP	0/1:50,50:100	0/0:10,0:10",
	"chr1	200	rs1	A	AT	50	PASS	DP=80	GT:AD:DP	1/1:2,78:80	0/1:5,5:10",
	"chr1	300	.	C	T	50	LowQual	.	GT:AD:DP	0/1:10,10:20	0/1:5,5:10",
	"chr2	400	.	G	C,T	50	.	.	GT:AD:DP	1/2:1,20,19:40	0/0:10,0,0:10",
	"chr2	500	.	T	C	50	PASS	.	GT:AD:DP	0/0:30,0:30	0/1:5,5:10",
	"chr2	600	.	T	C	50	PASS	.	GT:AD:DP	./.:.:.	0/1:5,5:10",
	"chr2	700	.	T	C	50	PASS	.	GT:AD	0/1:5,5	0/1:5,5",
	"chrX	800	.	G	A	50	PASS	.	GT:AD:DP	1:0,12:12	1/1:0,12:12",
	"chr3	900	.	G	A	50	PASS	.	GT:AD:DP	0|1:3,7:10	0/0:10,0:10",
}

func writeTestVCF(t *testing.T, name string, records []string, compress bool) string {
	filename := filepath.Join(t.TempDir(), name)
	file, err := os.Create(filename)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, file.Close())
	}()
	contents := testHeader + strings.Join(records, "\n") + "\n"
	if !compress {
		_, err = file.WriteString(contents)
		require.NoError(t, err)
		return filename
	}
	gz := gzip.NewWriter(file)
	_, err = gz.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return filename
}

func TestParseHeader(t *testing.T) {
	filename := writeTestVCF(t, "header.vcf", nil, false)
	input, err := Open(filename)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, input.Close())
	}()
	header, lines, err := ParseHeader(input.Reader)
	require.NoError(t, err)
	assert.Equal(t, 9, lines)
	assert.Equal(t, "##fileformat=VCFv4.2", header.FileFormat)
	assert.Equal(t, []string{"sample1", "sample2"}, header.Samples())
	require.Len(t, header.Formats, 3)
	assert.Equal(t, AD, header.Formats[1].ID)
	assert.Equal(t, NumberR, header.Formats[1].Number)
	assert.Equal(t, Integer, header.Formats[1].Type)
	assert.Len(t, header.Meta["FILTER"], 2)
}

func TestParseVariant(t *testing.T) {
	filename := writeTestVCF(t, "variant.vcf", nil, false)
	input, err := Open(filename)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, input.Close())
	}()
	header, _, err := ParseHeader(input.Reader)
	require.NoError(t, err)
	vp, err := header.NewVariantParser()
	require.NoError(t, err)

	var sc StringScanner
	sc.Reset(testRecords[3])
	variant := sc.ParseVariant(vp)
	require.NoError(t, sc.Err())
	assert.Equal(t, "chr2", variant.Chrom)
	assert.Equal(t, int32(400), variant.Pos)
	assert.Equal(t, []string{"C", "T"}, variant.Alt)
	assert.Equal(t, 50.0, variant.Qual)
	assert.True(t, variant.Pass())
	gt, err := variant.SampleGenotype(0)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2}, gt.GT)
	assert.False(t, gt.Phased)
	ads, ok := variant.SampleInts(0, AD)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 20, 19}, ads)
	dp, ok := variant.SampleInt(1, DP)
	assert.True(t, ok)
	assert.Equal(t, 10, dp)

	sc.Reset(testRecords[2])
	variant = sc.ParseVariant(vp)
	require.NoError(t, sc.Err())
	assert.False(t, variant.Pass())

	sc.Reset("chr1\tnotanumber\t.\tA\tG\t50\tPASS\t.\tGT\t0/1\t0/1")
	assert.Nil(t, sc.ParseVariant(vp))
	assert.Error(t, sc.Err())
}

func TestParseGenotype(t *testing.T) {
	gt, err := ParseGenotype("0|1")
	require.NoError(t, err)
	assert.True(t, gt.Phased)
	assert.Equal(t, []int32{0, 1}, gt.GT)
	assert.True(t, gt.Called())

	gt, err = ParseGenotype("./.")
	require.NoError(t, err)
	assert.False(t, gt.Called())

	gt, err = ParseGenotype("2")
	require.NoError(t, err)
	assert.Equal(t, []int32{2}, gt.GT)

	for _, s := range []string{"", "a/1", "0/-1"} {
		_, err = ParseGenotype(s)
		assert.Error(t, err, s)
	}
}

func checkTestCollection(t *testing.T, collection *Collection) {
	require.Len(t, collection.Records, 4)
	assert.Equal(t, 1, collection.Filtered)
	assert.Equal(t, 4, collection.Skipped)

	expected := []SiteRecord{
		{Chrom: "chr1", Pos: 100, Ref: "A", Alt: "G", Site: contam.Site{TotalDepth: 100, AltDepth: 50, Genotype: contam.Heterozygous, Type: contam.SNV}},
		{Chrom: "chr1", Pos: 200, Ref: "A", Alt: "AT", Site: contam.Site{TotalDepth: 80, AltDepth: 78, Genotype: contam.Homozygous, Type: contam.Indel}},
		{Chrom: "chr2", Pos: 400, Ref: "G", Alt: "T", Site: contam.Site{TotalDepth: 40, AltDepth: 19, Genotype: contam.Heterozygous, Type: contam.SNV}},
		{Chrom: "chr3", Pos: 900, Ref: "G", Alt: "A", Site: contam.Site{TotalDepth: 10, AltDepth: 7, Genotype: contam.Heterozygous, Type: contam.SNV}},
	}
	assert.Equal(t, expected, collection.Records)
}

func TestCollectSites(t *testing.T) {
	filename := writeTestVCF(t, "sample.vcf", testRecords, false)
	collection, err := CollectSites(filename, CollectOptions{})
	require.NoError(t, err)
	checkTestCollection(t, collection)
	assert.Equal(t, uint(4), collection.Selected.Count())
	assert.Len(t, collection.Sites(), 4)
}

func TestCollectSitesGzip(t *testing.T) {
	filename := writeTestVCF(t, "sample.vcf.gz", testRecords, true)
	collection, err := CollectSites(filename, CollectOptions{})
	require.NoError(t, err)
	checkTestCollection(t, collection)
}

type testRegions map[string]bool

func (r testRegions) Contains(chrom string, _ int32) bool {
	return r[chrom]
}

func TestCollectSitesSelection(t *testing.T) {
	filename := writeTestVCF(t, "sample.vcf", testRecords, false)

	collection, err := CollectSites(filename, CollectOptions{SNVOnly: true})
	require.NoError(t, err)
	assert.Len(t, collection.Records, 4)
	assert.True(t, collection.IsSelected(0))
	assert.False(t, collection.IsSelected(1))
	assert.Len(t, collection.Sites(), 3)

	collection.Select(CollectOptions{MinDepth: 40})
	assert.Equal(t, []contam.Site{collection.Records[0].Site, collection.Records[1].Site, collection.Records[2].Site}, collection.Sites())

	collection.Select(CollectOptions{SNVOnly: true, MinDepth: 40, Regions: testRegions{"chr2": true}})
	assert.Equal(t, []contam.Site{collection.Records[2].Site}, collection.Sites())

	collection.Select(CollectOptions{MinDepth: 1000})
	assert.Empty(t, collection.Sites())
}

func TestCollectSitesSecondSample(t *testing.T) {
	filename := writeTestVCF(t, "sample.vcf", testRecords, false)
	collection, err := CollectSites(filename, CollectOptions{Sample: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, collection.Filtered)
	var positions []int32
	for _, record := range collection.Records {
		positions = append(positions, record.Pos)
	}
	assert.Equal(t, []int32{200, 500, 600, 800}, positions)
	assert.Equal(t, 4, collection.Skipped)

	_, err = CollectSites(filename, CollectOptions{Sample: 2})
	assert.Error(t, err)
}

func TestCollectSitesInconsistentDepth(t *testing.T) {
	records := []string{
		"chr1	100	.	A	G	50	PASS	.	GT:AD:DP	0/1:5,50:20	0/0:10,0:10",
	}
	filename := writeTestVCF(t, "bad.vcf", records, false)
	_, err := CollectSites(filename, CollectOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.vcf")
	assert.Contains(t, err.Error(), "chr1\t100")
}

func TestCollectSitesErrors(t *testing.T) {
	_, err := CollectSites(filepath.Join(t.TempDir(), "missing.vcf"), CollectOptions{})
	assert.Error(t, err)

	filename := filepath.Join(t.TempDir(), "empty.vcf")
	require.NoError(t, os.WriteFile(filename, nil, 0644))
	_, err = CollectSites(filename, CollectOptions{})
	assert.Contains(t, err.Error(), "empty VCF file")
}
