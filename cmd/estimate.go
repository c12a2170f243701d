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
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/exascience/elcontam/contam"
	"github.com/exascience/elcontam/intervals"
	"github.com/exascience/elcontam/vcf"
)

// EstimateHelp is the help string for this command.
const EstimateHelp = "estimate parameters:\n" +
	"elcontam estimate vcf-file [vcf-file ...]\n" +
	"[--snv-only]\n" +
	"[--min-depth n]\n" +
	"[--sample n]\n" +
	"[--bed bed-file]\n" +
	"[--elsites elsites-file]\n" +
	"[--gene-exons]\n" +
	"[--sweep-min level]\n" +
	"[--sweep-max level]\n" +
	"[--sweep-step step]\n" +
	"[--out-json json-file]\n" +
	"[--debug-json json-file]\n" +
	"[--debug-variant-json json-file]\n" +
	"[--config yaml-file]\n" +
	"[--nr-of-threads n]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n" +
	"Settings can also be given as " + EnvPrefix + "_* environment variables, e.g. " + EnvPrefix + "_MIN_DEPTH.\n"

// Estimate implements the elcontam estimate command.
func Estimate() error {
	args := os.Args[2:]
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, EstimateHelp)
		os.Exit(1)
	}
	n := 0
	for n < len(args) && !strings.HasPrefix(args[n], "-") {
		n++
	}
	if n == 0 {
		getFilename(args[0], EstimateHelp)
	}
	files := args[:n]

	cfg, rest, err := parseConfig(args[n:])
	if err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			x = 1
		}
		fmt.Fprint(os.Stderr, EstimateHelp)
		os.Exit(x)
	}
	if len(rest) > 0 {
		fmt.Fprintln(os.Stderr, "Cannot parse remaining parameters:", rest)
		fmt.Fprint(os.Stderr, EstimateHelp)
		os.Exit(1)
	}

	if err := setLogOutput(cfg.LogPath); err != nil {
		return err
	}

	// sanity checks

	var sanityChecksFailed bool

	for _, file := range files {
		if !checkExist("", file) {
			sanityChecksFailed = true
		}
	}
	if cfg.Bed != "" && !checkExist("--bed", cfg.Bed) {
		sanityChecksFailed = true
	}
	if cfg.Elsites != "" && !checkExist("--elsites", cfg.Elsites) {
		sanityChecksFailed = true
	}
	for _, output := range []struct{ parameter, filename string }{
		{"--out-json", cfg.OutJSON},
		{"--debug-json", cfg.DebugJSON},
		{"--debug-variant-json", cfg.DebugVariantJSON},
		{"--profile", cfg.Profile},
	} {
		if output.filename != "" && !checkCreate(output.parameter, output.filename) {
			sanityChecksFailed = true
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Println("Error:", err)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, EstimateHelp)
		os.Exit(1)
	}

	if cfg.NrOfThreads > 0 {
		runtime.GOMAXPROCS(cfg.NrOfThreads)
	}

	log.Println("Executing command:\n", commandString(cfg, files))

	return runEstimate(cfg, files, os.Stdout)
}

func commandString(cfg Config, files []string) string {
	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " estimate ", strings.Join(files, " "))
	if cfg.SNVOnly {
		fmt.Fprint(&command, " --snv-only")
	}
	if cfg.MinDepth > 0 {
		fmt.Fprint(&command, " --min-depth ", cfg.MinDepth)
	}
	if cfg.Sample > 0 {
		fmt.Fprint(&command, " --sample ", cfg.Sample)
	}
	if cfg.Bed != "" {
		fmt.Fprint(&command, " --bed ", cfg.Bed)
	}
	if cfg.Elsites != "" {
		fmt.Fprint(&command, " --elsites ", cfg.Elsites)
	}
	if cfg.GeneExons {
		fmt.Fprint(&command, " --gene-exons")
	}
	if cfg.Sweep() != contam.DefaultSweep {
		fmt.Fprint(&command, " --sweep-min ", cfg.SweepMin, " --sweep-max ", cfg.SweepMax, " --sweep-step ", cfg.SweepStep)
	}
	if cfg.OutJSON != "" {
		fmt.Fprint(&command, " --out-json ", cfg.OutJSON)
	}
	if cfg.DebugJSON != "" {
		fmt.Fprint(&command, " --debug-json ", cfg.DebugJSON)
	}
	if cfg.DebugVariantJSON != "" {
		fmt.Fprint(&command, " --debug-variant-json ", cfg.DebugVariantJSON)
	}
	if cfg.NrOfThreads > 0 {
		fmt.Fprint(&command, " --nr-of-threads ", cfg.NrOfThreads)
	}
	if cfg.Timed {
		fmt.Fprint(&command, " --timed")
	}
	if cfg.Profile != "" {
		fmt.Fprint(&command, " --profile ", cfg.Profile)
	}
	if cfg.LogPath != "" {
		fmt.Fprint(&command, " --log-path ", cfg.LogPath)
	}
	return command.String()
}

// loadRegions returns the union of all configured regions, or nil if
// sites are not restricted to regions.
func loadRegions(cfg Config) (vcf.RegionFilter, error) {
	if cfg.Bed == "" && cfg.Elsites == "" && !cfg.GeneExons {
		return nil, nil
	}
	var (
		inter map[string][]intervals.Interval
		err   error
	)
	switch {
	case cfg.Bed != "":
		inter, err = intervals.FromBedFile(cfg.Bed)
	case cfg.Elsites != "":
		inter, err = intervals.FromElsitesFile(cfg.Elsites)
	default:
		inter = make(map[string][]intervals.Interval)
	}
	if err != nil {
		return nil, err
	}
	if cfg.GeneExons {
		for _, exon := range intervals.GeneExons() {
			inter[exon.Chrom] = append(inter[exon.Chrom], exon.Interval)
		}
	}
	regions := intervals.NewRegions(inter)
	log.Printf("Restricting sites to %v regions.\n", regions.Len())
	return regions, nil
}

// outputSuffixes derives one suffix per VCF file for naming its JSON
// outputs. A single file needs no suffix. Files that share a base name
// get their 1-based position in files appended.
func outputSuffixes(files []string) []string {
	suffixes := make([]string, len(files))
	if len(files) <= 1 {
		return suffixes
	}
	count := make(map[string]int, len(files))
	for i, file := range files {
		base := filepath.Base(file)
		for _, ext := range []string{".gz", ".vcf"} {
			base = strings.TrimSuffix(base, ext)
		}
		suffixes[i] = base
		count[base]++
	}
	seen := make(map[string]bool, len(files))
	for i, base := range suffixes {
		if count[base] > 1 {
			suffixes[i] = base + "-" + strconv.Itoa(i+1)
		}
		if seen[suffixes[i]] {
			// a renamed duplicate clashes with another base name
			for j := range suffixes {
				suffixes[j] = strconv.Itoa(j + 1)
			}
			return suffixes
		}
		seen[suffixes[i]] = true
	}
	return suffixes
}

// outputName inserts suffix in front of the extension of output.
func outputName(output, suffix string) string {
	if output == "" || suffix == "" {
		return output
	}
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + "-" + suffix + ext
}

func estimateFile(cfg Config, runID, filename, suffix string, regions vcf.RegionFilter) (contam.Estimate, error) {
	collection, err := vcf.CollectSites(filename, vcf.CollectOptions{
		SNVOnly:  cfg.SNVOnly,
		MinDepth: cfg.MinDepth,
		Regions:  regions,
		Sample:   cfg.Sample,
	})
	if err != nil {
		return contam.Estimate{}, err
	}
	sites := collection.Sites()
	log.Printf("%v: %v usable records, %v selected, %v not passing filters, %v skipped.\n",
		filename, len(collection.Records), len(sites), collection.Filtered, collection.Skipped)

	estimate, err := contam.EstimateContamination(sites, cfg.Sweep())
	if err != nil {
		return contam.Estimate{}, err
	}
	if estimate.Empty() {
		log.Printf("Warning: no usable sites in %v, reporting contamination 0.\n", filename)
	} else {
		log.Printf("%v: estimated contamination %.1f%% from %v sites.\n", filename, estimate.Percent(), estimate.Sites)
	}

	if output := outputName(cfg.OutJSON, suffix); output != "" {
		if err := resultReport(runID, filename, estimate).write(output); err != nil {
			return estimate, err
		}
	}
	if output := outputName(cfg.DebugJSON, suffix); output != "" {
		if err := sweepReport(runID, filename, estimate.Likelihoods).write(output); err != nil {
			return estimate, err
		}
	}
	if output := outputName(cfg.DebugVariantJSON, suffix); output != "" {
		if err := variantReport(runID, filename, collection).write(output); err != nil {
			return estimate, err
		}
	}
	return estimate, nil
}

// runEstimate estimates the contamination of each VCF file as an
// independent sample, and prints one line per file to out.
func runEstimate(cfg Config, files []string, out io.Writer) error {
	runID := uuid.New().String()
	log.Println("Run id:", runID)

	regions, err := loadRegions(cfg)
	if err != nil {
		return err
	}

	estimates := make([]contam.Estimate, len(files))
	err = timedRun(cfg.Timed, cfg.Profile, "Estimating contamination.", 1, func() error {
		var g errgroup.Group
		if cfg.NrOfThreads > 0 {
			g.SetLimit(cfg.NrOfThreads)
		} else {
			g.SetLimit(runtime.GOMAXPROCS(0))
		}
		suffixes := outputSuffixes(files)
		for i, file := range files {
			i, file := i, file
			g.Go(func() (err error) {
				estimates[i], err = estimateFile(cfg, runID, file, suffixes[i], regions)
				return err
			})
		}
		return g.Wait()
	})
	if err != nil {
		return err
	}

	for i, file := range files {
		if _, err := fmt.Fprintf(out, "%v\t%v\n", file, estimates[i].Level); err != nil {
			return err
		}
	}
	return nil
}
