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
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/elcontam/contam"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, contam.DefaultSweep, cfg.Sweep())
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SweepStep = 0
	assert.Equal(t, contam.ErrInvalidSweep, errors.Cause(cfg.Validate()))

	cfg = DefaultConfig()
	cfg.MinDepth = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Bed, cfg.Elsites = "a.bed", "a.elsites"
	assert.Error(t, cfg.Validate())
}

func writeConfigFile(t *testing.T, contents string) string {
	filename := filepath.Join(t.TempDir(), "elcontam.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(contents), 0644))
	return filename
}

func TestParseConfigLayers(t *testing.T) {
	cfg, rest, err := parseConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, DefaultConfig(), cfg)

	t.Setenv("ELCONTAM_MIN_DEPTH", "10")
	t.Setenv("ELCONTAM_SWEEP_MAX", "0.3")
	t.Setenv("ELCONTAM_TIMED", "true")
	cfg, _, err = parseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MinDepth)
	assert.Equal(t, 0.3, cfg.SweepMax)
	assert.True(t, cfg.Timed)

	configFile := writeConfigFile(t, "min-depth: 20\nsnv-only: true\nsweep-step: 0.01\n")
	cfg, _, err = parseConfig([]string{"--config", configFile})
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.MinDepth)
	assert.True(t, cfg.SNVOnly)
	assert.Equal(t, 0.3, cfg.SweepMax)
	assert.Equal(t, 0.01, cfg.SweepStep)

	cfg, rest, err = parseConfig([]string{"--config", configFile, "--min-depth", "30", "--snv-only=false", "--out-json", "out.json", "extra"})
	require.NoError(t, err)
	assert.Equal(t, []string{"extra"}, rest)
	assert.Equal(t, 30, cfg.MinDepth)
	assert.False(t, cfg.SNVOnly)
	assert.Equal(t, 0.01, cfg.SweepStep)
	assert.Equal(t, "out.json", cfg.OutJSON)
	assert.True(t, cfg.Timed)
}

func TestParseConfigErrors(t *testing.T) {
	_, _, err := parseConfig([]string{"--min-depth", "many"})
	assert.Error(t, err)

	_, _, err = parseConfig([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	_, _, err = parseConfig([]string{"--config", writeConfigFile(t, "min-dept: 20\n")})
	assert.Error(t, err)

	t.Setenv("ELCONTAM_SNV_ONLY", "maybe")
	_, _, err = parseConfig(nil)
	assert.Error(t, err)
}
