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
	"math"

	"github.com/Jeffail/gabs"

	"github.com/exascience/elcontam/contam"
	"github.com/exascience/elcontam/internal"
	"github.com/exascience/elcontam/vcf"
)

// jsonFloat maps non-finite values onto JSON null.
func jsonFloat(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// A report accumulates a JSON document and the first error that
// occurred while building it.
type report struct {
	doc *gabs.Container
	err error
}

func newReport() *report {
	return &report{doc: gabs.New()}
}

func (r *report) set(value interface{}, path ...string) {
	if r.err == nil {
		_, r.err = r.doc.Set(value, path...)
	}
}

func (r *report) array(path string) {
	if r.err == nil {
		_, r.err = r.doc.Array(path)
	}
}

func (r *report) append(child *report, path string) {
	if r.err == nil {
		if r.err = child.err; r.err == nil {
			r.err = r.doc.ArrayAppend(child.doc.Data(), path)
		}
	}
}

func (r *report) write(filename string) (err error) {
	if r.err != nil {
		return r.err
	}
	file, err := internal.CreateFile(filename)
	if err != nil {
		return err
	}
	defer internal.Close(file, &err)
	_, err = file.Write(append(r.doc.BytesIndent("", "  "), '\n'))
	return err
}

// resultReport describes the estimate for one VCF file. The
// contamination level is given in percent, the fraction as is.
func resultReport(runID, vcfFile string, estimate contam.Estimate) *report {
	r := newReport()
	r.set(runID, "run_id")
	r.set(vcfFile, "vcf_file")
	r.set(estimate.Percent(), "contamination_level")
	r.set(estimate.Level, "contamination_fraction")
	if estimate.Empty() {
		r.set(nil, "log_likelihood")
	} else {
		r.set(jsonFloat(estimate.LogLikelihood), "log_likelihood")
	}
	r.set(estimate.Sites, "sites")
	return r
}

// sweepReport lists the log-likelihood of every contamination level.
func sweepReport(runID, vcfFile string, likelihoods contam.Likelihoods) *report {
	r := newReport()
	r.set(runID, "run_id")
	r.set(vcfFile, "vcf_file")
	r.array("likelihoods")
	for _, l := range likelihoods {
		entry := newReport()
		entry.set(l.Level, "contamination_level")
		entry.set(jsonFloat(l.LogLikelihood), "log_likelihood")
		r.append(entry, "likelihoods")
	}
	return r
}

// variantReport lists all collected records, and whether they were
// used for the estimate.
func variantReport(runID, vcfFile string, collection *vcf.Collection) *report {
	r := newReport()
	r.set(runID, "run_id")
	r.set(vcfFile, "vcf_file")
	r.set(collection.Filtered, "filtered")
	r.set(collection.Skipped, "skipped")
	r.array("variants")
	for i, record := range collection.Records {
		entry := newReport()
		entry.set(record.Chrom, "chrom")
		entry.set(record.Pos, "pos")
		entry.set(record.Ref, "ref")
		entry.set(record.Alt, "alt")
		entry.set(record.Site.TotalDepth, "total_depth")
		entry.set(record.Site.AltDepth, "alt_depth")
		entry.set(record.Site.Genotype.String(), "genotype")
		entry.set(record.Site.Type.String(), "variant_type")
		entry.set(collection.IsSelected(i), "selected")
		r.append(entry, "variants")
	}
	return r
}
