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
	"log"
	"os"

	"github.com/exascience/elcontam/intervals"
)

// BedToElsitesHelp is the help string for this command.
const BedToElsitesHelp = "\nbed-to-elsites parameters:\n" +
	"elcontam bed-to-elsites bed-file elsites-file\n" +
	"[--gene-exons]\n" +
	"[--log-path path]\n"

// BedToElsites implements the elcontam bed-to-elsites command.
func BedToElsites() error {
	var (
		logPath   string
		geneExons bool
	)

	var flags flag.FlagSet
	flags.BoolVar(&geneExons, "gene-exons", false, "add the built-in GBA, CYP21A2 and PMS2 exons (hg19)")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(&flags, 4, BedToElsitesHelp)

	input := getFilename(os.Args[2], BedToElsitesHelp)
	output := getFilename(os.Args[3], BedToElsitesHelp)

	if err := setLogOutput(logPath); err != nil {
		return err
	}

	if !checkExist("", input) || !checkCreate("", output) {
		fmt.Fprint(os.Stderr, BedToElsitesHelp)
		os.Exit(1)
	}

	return convertBedToElsites(input, output, geneExons)
}

func convertBedToElsites(input, output string, geneExons bool) error {
	inter, err := intervals.FromBedFile(input)
	if err != nil {
		return err
	}
	if geneExons {
		for _, exon := range intervals.GeneExons() {
			inter[exon.Chrom] = append(inter[exon.Chrom], exon.Interval)
		}
	}
	regions := intervals.NewRegions(inter)
	log.Printf("Writing %v regions to %v.\n", regions.Len(), output)
	return intervals.ToElsitesFile(regions, output)
}
