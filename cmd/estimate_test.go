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

package cmd

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Jeffail/gabs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/elcontam/contam"
)

const vcfHeader = `##fileformat=VCFv4.2
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
##FORMAT=<ID=AD,Number=R,Type=Integer,Description="Allelic depths for the ref and alt alleles">
##FORMAT=<ID=DP,Number=1,Type=Integer,Description="Approximate read depth">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	sample
`

// writeVCF writes homozygous sites with 90 of 100 reads supporting the
// alternate allele, and one heterozygous indel with 18 of 40 reads, all
// consistent with 10% contamination.
func writeVCF(t *testing.T, dir, name string, homSites int) string {
	var buf bytes.Buffer
	buf.WriteString(vcfHeader)
	for i := 0; i < homSites; i++ {
		fmt.Fprintf(&buf, "chr1\t%v\t.\tA\tG\t50\tPASS\t.\tGT:AD:DP\t1/1:10,90:100\n", 1000+i)
	}
	if homSites > 0 {
		buf.WriteString("chr2\t500\t.\tA\tAT\t50\tPASS\t.\tGT:AD:DP\t0/1:22,18:40\n")
	}
	filename := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(filename, buf.Bytes(), 0644))
	return filename
}

func parseJSONFile(t *testing.T, filename string) *gabs.Container {
	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	container, err := gabs.ParseJSON(data)
	require.NoError(t, err)
	return container
}

func TestJSONFloat(t *testing.T) {
	assert.Equal(t, 1.5, jsonFloat(1.5))
	assert.Nil(t, jsonFloat(math.Inf(-1)))
	assert.Nil(t, jsonFloat(math.NaN()))
}

func TestSweepReport(t *testing.T) {
	likelihoods := contam.Likelihoods{{Level: 0, LogLikelihood: math.Inf(-1)}, {Level: 0.1, LogLikelihood: -2.5}}
	filename := filepath.Join(t.TempDir(), "out", "sweep.json")
	require.NoError(t, sweepReport("run", "a.vcf", likelihoods).write(filename))

	doc := parseJSONFile(t, filename)
	assert.Equal(t, "a.vcf", doc.Path("vcf_file").Data())
	entries, err := doc.S("likelihoods").Children()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].Path("log_likelihood").Data())
	assert.Equal(t, 0.1, entries[1].Path("contamination_level").Data())
	assert.Equal(t, -2.5, entries[1].Path("log_likelihood").Data())
}

func TestRunEstimate(t *testing.T) {
	dir := t.TempDir()
	filename := writeVCF(t, dir, "sample.vcf", 10)
	cfg := DefaultConfig()
	cfg.OutJSON = filepath.Join(dir, "result.json")
	cfg.DebugJSON = filepath.Join(dir, "sweep.json")
	cfg.DebugVariantJSON = filepath.Join(dir, "variants.json")

	var out bytes.Buffer
	require.NoError(t, runEstimate(cfg, []string{filename}, &out))
	assert.Equal(t, filename+"\t0.1\n", out.String())

	result := parseJSONFile(t, cfg.OutJSON)
	assert.Equal(t, 0.1, result.Path("contamination_fraction").Data())
	assert.InDelta(t, 10.0, result.Path("contamination_level").Data(), 1e-9)
	assert.Equal(t, 11.0, result.Path("sites").Data())
	assert.NotNil(t, result.Path("log_likelihood").Data())
	runID, ok := result.Path("run_id").Data().(string)
	assert.True(t, ok)
	assert.Len(t, runID, 36)

	likelihoods, err := parseJSONFile(t, cfg.DebugJSON).S("likelihoods").Children()
	require.NoError(t, err)
	assert.Len(t, likelihoods, 400)

	variants, err := parseJSONFile(t, cfg.DebugVariantJSON).S("variants").Children()
	require.NoError(t, err)
	require.Len(t, variants, 11)
	assert.Equal(t, "HOM", variants[0].Path("genotype").Data())
	assert.Equal(t, true, variants[0].Path("selected").Data())
	assert.Equal(t, "HET", variants[10].Path("genotype").Data())
	assert.Equal(t, "chr2", variants[10].Path("chrom").Data())
}

func TestRunEstimateSelection(t *testing.T) {
	dir := t.TempDir()
	filename := writeVCF(t, dir, "sample.vcf", 3)
	cfg := DefaultConfig()
	cfg.SNVOnly = true
	cfg.MinDepth = 50
	cfg.DebugVariantJSON = filepath.Join(dir, "variants.json")

	var out bytes.Buffer
	require.NoError(t, runEstimate(cfg, []string{filename}, &out))
	assert.Equal(t, filename+"\t0.1\n", out.String())

	variants, err := parseJSONFile(t, cfg.DebugVariantJSON).S("variants").Children()
	require.NoError(t, err)
	require.Len(t, variants, 4)
	assert.Equal(t, false, variants[3].Path("selected").Data())
	assert.Equal(t, "INDEL", variants[3].Path("variant_type").Data())
}

func TestRunEstimateNoSites(t *testing.T) {
	dir := t.TempDir()
	filename := writeVCF(t, dir, "empty.vcf", 0)
	cfg := DefaultConfig()
	cfg.OutJSON = filepath.Join(dir, "result.json")

	var out bytes.Buffer
	require.NoError(t, runEstimate(cfg, []string{filename}, &out))
	assert.Equal(t, filename+"\t0\n", out.String())

	result := parseJSONFile(t, cfg.OutJSON)
	assert.Equal(t, 0.0, result.Path("contamination_level").Data())
	assert.Nil(t, result.Path("log_likelihood").Data())
	assert.Equal(t, 0.0, result.Path("sites").Data())
}

func TestRunEstimateMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeVCF(t, dir, "first.vcf", 5),
		writeVCF(t, dir, "second.vcf", 0),
	}
	cfg := DefaultConfig()
	cfg.NrOfThreads = 2
	cfg.OutJSON = filepath.Join(dir, "result.json")

	var out bytes.Buffer
	require.NoError(t, runEstimate(cfg, files, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{files[0] + "\t0.1", files[1] + "\t0"}, lines)

	assert.FileExists(t, filepath.Join(dir, "result-first.json"))
	assert.FileExists(t, filepath.Join(dir, "result-second.json"))
	assert.NoFileExists(t, cfg.OutJSON)
}

func TestRunEstimateRegions(t *testing.T) {
	dir := t.TempDir()
	filename := writeVCF(t, dir, "sample.vcf", 3)
	bedFile := filepath.Join(dir, "regions.bed")
	require.NoError(t, os.WriteFile(bedFile, []byte("chr3\t0\t1000\n"), 0644))
	cfg := DefaultConfig()
	cfg.Bed = bedFile

	var out bytes.Buffer
	require.NoError(t, runEstimate(cfg, []string{filename}, &out))
	assert.Equal(t, filename+"\t0\n", out.String())

	cfg.Bed = filepath.Join(dir, "missing.bed")
	assert.Error(t, runEstimate(cfg, []string{filename}, &out))
}

func TestRunEstimateInvalidVCF(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "invalid.vcf")
	require.NoError(t, os.WriteFile(filename, []byte("not a vcf\n"), 0644))
	var out bytes.Buffer
	assert.Error(t, runEstimate(DefaultConfig(), []string{filename}, &out))
	assert.Empty(t, out.String())
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "", outputName("", "a"))
	assert.Equal(t, "out.json", outputName("out.json", ""))
	assert.Equal(t, "out-a.json", outputName("out.json", "a"))
	assert.Equal(t, "dir/out-b-2.json", outputName("dir/out.json", "b-2"))
}

func TestOutputSuffixes(t *testing.T) {
	assert.Equal(t, []string{""}, outputSuffixes([]string{"a.vcf"}))
	assert.Equal(t, []string{"a", "b"}, outputSuffixes([]string{"/data/a.vcf.gz", "b.vcf"}))
	assert.Equal(t, []string{"sample-1", "sample-2", "c"},
		outputSuffixes([]string{"a/sample.vcf", "b/sample.vcf", "c.vcf"}))
	assert.Equal(t, []string{"t-1", "t-2"}, outputSuffixes([]string{"t.vcf", "t.vcf.gz"}))
	assert.Equal(t, []string{"1", "2", "3"},
		outputSuffixes([]string{"a/x.vcf", "b/x.vcf", "x-2.vcf"}))
}

func TestRunEstimateSameBaseName(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, sub), 0755))
	}
	files := []string{
		writeVCF(t, filepath.Join(dir, "a"), "sample.vcf", 5),
		writeVCF(t, filepath.Join(dir, "b"), "sample.vcf", 0),
	}
	cfg := DefaultConfig()
	cfg.OutJSON = filepath.Join(dir, "result.json")

	var out bytes.Buffer
	require.NoError(t, runEstimate(cfg, files, &out))

	first := parseJSONFile(t, filepath.Join(dir, "result-sample-1.json"))
	assert.Equal(t, files[0], first.Path("vcf_file").Data())
	assert.Equal(t, 0.1, first.Path("contamination_fraction").Data())
	second := parseJSONFile(t, filepath.Join(dir, "result-sample-2.json"))
	assert.Equal(t, files[1], second.Path("vcf_file").Data())
	assert.Equal(t, 0.0, second.Path("contamination_fraction").Data())
	assert.NoFileExists(t, filepath.Join(dir, "result-sample.json"))
}

func TestConvertBedToElsites(t *testing.T) {
	dir := t.TempDir()
	bedFile := filepath.Join(dir, "regions.bed")
	require.NoError(t, os.WriteFile(bedFile, []byte("chr1\t10\t20\nchr1\t15\t30\n"), 0644))
	output := filepath.Join(dir, "regions.elsites")
	require.NoError(t, convertBedToElsites(bedFile, output, false))
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "# elsites format version 1.0\nchr1\t10\t30\n", string(data))

	require.NoError(t, convertBedToElsites(bedFile, output, true))
	data, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, 1+1+12+10+15, strings.Count(string(data), "\n"))
}
