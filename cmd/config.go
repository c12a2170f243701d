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
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/exascience/elcontam/contam"
	"github.com/exascience/elcontam/internal"
)

// EnvPrefix is the prefix of environment variables that configure the
// estimate command, as in ELCONTAM_MIN_DEPTH.
const EnvPrefix = "ELCONTAM"

// Config holds the settings of the estimate command. Settings are
// layered: defaults, then environment variables, then a YAML file,
// then explicitly set command line flags.
type Config struct {
	SNVOnly          bool    `yaml:"snv-only" envconfig:"SNV_ONLY"`
	MinDepth         int     `yaml:"min-depth" envconfig:"MIN_DEPTH"`
	Sample           int     `yaml:"sample" envconfig:"SAMPLE"`
	Bed              string  `yaml:"bed" envconfig:"BED"`
	Elsites          string  `yaml:"elsites" envconfig:"ELSITES"`
	GeneExons        bool    `yaml:"gene-exons" envconfig:"GENE_EXONS"`
	SweepMin         float64 `yaml:"sweep-min" envconfig:"SWEEP_MIN"`
	SweepMax         float64 `yaml:"sweep-max" envconfig:"SWEEP_MAX"`
	SweepStep        float64 `yaml:"sweep-step" envconfig:"SWEEP_STEP"`
	OutJSON          string  `yaml:"out-json" envconfig:"OUT_JSON"`
	DebugJSON        string  `yaml:"debug-json" envconfig:"DEBUG_JSON"`
	DebugVariantJSON string  `yaml:"debug-variant-json" envconfig:"DEBUG_VARIANT_JSON"`
	NrOfThreads      int     `yaml:"nr-of-threads" envconfig:"NR_OF_THREADS"`
	LogPath          string  `yaml:"log-path" envconfig:"LOG_PATH"`
	Timed            bool    `yaml:"timed" envconfig:"TIMED"`
	Profile          string  `yaml:"profile" envconfig:"PROFILE"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		SweepMin:  contam.DefaultSweep.Min,
		SweepMax:  contam.DefaultSweep.Max,
		SweepStep: contam.DefaultSweep.Step,
	}
}

// Sweep returns the configured grid of contamination levels.
func (cfg *Config) Sweep() contam.Sweep {
	return contam.Sweep{Min: cfg.SweepMin, Max: cfg.SweepMax, Step: cfg.SweepStep}
}

// Validate checks the settings that do not refer to files.
func (cfg *Config) Validate() error {
	if err := cfg.Sweep().Validate(); err != nil {
		return err
	}
	if cfg.MinDepth < 0 {
		return fmt.Errorf("invalid min-depth %v", cfg.MinDepth)
	}
	if cfg.Sample < 0 {
		return fmt.Errorf("invalid sample %v", cfg.Sample)
	}
	if cfg.NrOfThreads < 0 {
		return fmt.Errorf("invalid nr-of-threads %v", cfg.NrOfThreads)
	}
	if cfg.Bed != "" && cfg.Elsites != "" {
		return errors.New("--bed and --elsites cannot be combined")
	}
	return nil
}

// LoadEnv overrides settings with ELCONTAM_* environment variables.
func (cfg *Config) LoadEnv() error {
	return errors.Wrap(envconfig.Process(EnvPrefix, cfg), "reading environment")
}

// LoadFile overrides settings with the entries of a YAML file. Keys
// are the command line flag names.
func (cfg *Config) LoadFile(filename string) (err error) {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer internal.Close(file, &err)
	decoder := yaml.NewDecoder(file)
	decoder.SetStrict(true)
	if err := decoder.Decode(cfg); err != nil {
		return errors.Wrapf(err, "parsing configuration file %v", filename)
	}
	return nil
}

// defineFlags registers the flags of the estimate command, with the
// fields of cfg as destinations and defaults.
func (cfg *Config) defineFlags(flags *flag.FlagSet) {
	flags.BoolVar(&cfg.SNVOnly, "snv-only", cfg.SNVOnly, "only use SNVs, no indels")
	flags.IntVar(&cfg.MinDepth, "min-depth", cfg.MinDepth, "only use sites with at least this total read depth (DP)")
	flags.IntVar(&cfg.Sample, "sample", cfg.Sample, "index of the sample column to use")
	flags.StringVar(&cfg.Bed, "bed", cfg.Bed, "only use sites in the regions of the given BED file")
	flags.StringVar(&cfg.Elsites, "elsites", cfg.Elsites, "only use sites in the regions of the given .elsites file")
	flags.BoolVar(&cfg.GeneExons, "gene-exons", cfg.GeneExons, "only use sites in the built-in GBA, CYP21A2 and PMS2 exons (hg19)")
	flags.Float64Var(&cfg.SweepMin, "sweep-min", cfg.SweepMin, "lowest contamination level to consider")
	flags.Float64Var(&cfg.SweepMax, "sweep-max", cfg.SweepMax, "contamination levels stay below this value")
	flags.Float64Var(&cfg.SweepStep, "sweep-step", cfg.SweepStep, "distance between consecutive contamination levels")
	flags.StringVar(&cfg.OutJSON, "out-json", cfg.OutJSON, "write the estimate to the given JSON file")
	flags.StringVar(&cfg.DebugJSON, "debug-json", cfg.DebugJSON, "write the likelihood of every contamination level to the given JSON file")
	flags.StringVar(&cfg.DebugVariantJSON, "debug-variant-json", cfg.DebugVariantJSON, "write the collected variants to the given JSON file")
	flags.IntVar(&cfg.NrOfThreads, "nr-of-threads", cfg.NrOfThreads, "number of worker threads")
	flags.StringVar(&cfg.LogPath, "log-path", cfg.LogPath, "write log files to the specified directory")
	flags.BoolVar(&cfg.Timed, "timed", cfg.Timed, "measure the runtime")
	flags.StringVar(&cfg.Profile, "profile", cfg.Profile, "write a runtime profile to the specified file(s)")
}

// parseConfig parses the flags of the estimate command in args and
// layers them over defaults, environment and configuration file. It
// returns the remaining arguments.
func parseConfig(args []string) (cfg Config, rest []string, err error) {
	var (
		configFile string
		flags      = flag.NewFlagSet("estimate", flag.ContinueOnError)
		parsed     = DefaultConfig()
	)
	flags.SetOutput(io.Discard)
	flags.StringVar(&configFile, "config", "", "read settings from the given YAML file")
	parsed.defineFlags(flags)
	if err = flags.Parse(args); err != nil {
		return cfg, nil, err
	}

	cfg = DefaultConfig()
	if err = cfg.LoadEnv(); err != nil {
		return cfg, nil, err
	}
	if configFile != "" {
		if err = cfg.LoadFile(configFile); err != nil {
			return cfg, nil, err
		}
	}
	var explicit flag.FlagSet
	cfg.defineFlags(&explicit)
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "config" || err != nil {
			return
		}
		err = explicit.Set(f.Name, f.Value.String())
	})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, flags.Args(), nil
}
