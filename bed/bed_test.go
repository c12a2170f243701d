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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/elcontam/utils"
)

func writeBed(t *testing.T, contents string) string {
	filename := filepath.Join(t.TempDir(), "regions.bed")
	require.NoError(t, os.WriteFile(filename, []byte(contents), 0644))
	return filename
}

func TestParseBed(t *testing.T) {
	filename := writeBed(t, `# exons
browser position chr1:1-1000
track name="gene exons" description=hg19 useScore=1
chr1	500	600	exon2	900	-
chr1	100	200	exon1	800	+
chr2	10	20
`)
	bed, err := ParseBed(filename)
	require.NoError(t, err)
	assert.Equal(t, 3, bed.NumberOfRegions())
	require.Len(t, bed.Tracks, 1)
	assert.Equal(t, map[string]string{"name": "gene exons", "description": "hg19", "useScore": "1"}, bed.Tracks[0].Fields)
	assert.Len(t, bed.Tracks[0].Regions, 3)

	chr1 := bed.RegionMap[utils.Intern("chr1")]
	require.Len(t, chr1, 2)
	assert.Equal(t, int32(100), chr1[0].Start)
	assert.Equal(t, int32(200), chr1[0].End)
	assert.Equal(t, "exon1", chr1[0].Name())
	assert.Equal(t, 800, chr1[0].OptionalFields[brScore])
	assert.Equal(t, SF, chr1[0].OptionalFields[brStrand])
	assert.Equal(t, SR, chr1[1].OptionalFields[brStrand])

	chr2 := bed.RegionMap[utils.Intern("chr2")]
	require.Len(t, chr2, 1)
	assert.Equal(t, "", chr2[0].Name())
}

func TestParseBedBlocks(t *testing.T) {
	filename := writeBed(t, "chr1\t0\t100\tx\t0\t+\t10\t90\t255,0,0\t2\t10,20,\t0,80,\n")
	bed, err := ParseBed(filename)
	require.NoError(t, err)
	region := bed.RegionMap[utils.Intern("chr1")][0]
	assert.Equal(t, 2, region.OptionalFields[brBlockCount])
	assert.Equal(t, []int{10, 20}, region.OptionalFields[brBlockSizes])
	assert.Equal(t, []int{0, 80}, region.OptionalFields[brBlockStarts])
}

func TestParseBedErrors(t *testing.T) {
	for _, contents := range []string{
		"chr1\t100\n",
		"chr1\tx\t200\n",
		"chr1\t300\t200\n",
		"chr1\t100\t200\tname\t2000\n",
		"chr1\t100\t200\tname\t0\tup\n",
	} {
		_, err := ParseBed(writeBed(t, contents))
		assert.Error(t, err, contents)
	}
	_, err := ParseBed(filepath.Join(t.TempDir(), "missing.bed"))
	assert.Error(t, err)
}
