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

package contam

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrContaminationLevel is the cause of errors for levels outside [0, 1).
var ErrContaminationLevel = errors.New("contamination level out of range")

var negInf = math.Inf(-1)

// BinomialLogPMF returns the log probability of exactly k successes in
// n trials with success probability p.
//
// Degenerate probabilities are exact: with p == 0 only k == 0 is
// possible, and with p == 1 only k == n, which then have log
// probability 0. Probabilities outside [0, 1] describe impossible
// expectations and yield -Inf.
func BinomialLogPMF(k, n int, p float64) float64 {
	if k < 0 || k > n || n < 0 {
		return negInf
	}
	switch {
	case p == 0:
		if k == 0 {
			return 0
		}
		return negInf
	case p == 1:
		if k == n {
			return 0
		}
		return negInf
	case p < 0 || p > 1 || math.IsNaN(p):
		return negInf
	}
	return distuv.Binomial{N: float64(n), P: p}.LogProb(float64(k))
}

// CheckLevel returns an error if level is not in [0, 1).
func CheckLevel(level float64) error {
	if !(level >= 0 && level < 1) {
		return errors.Wrapf(ErrContaminationLevel, "%v is not in [0, 1)", level)
	}
	return nil
}

// LogLikelihood returns the log-likelihood of the site's alt depth
// given a hypothesized contamination level.
func LogLikelihood(site Site, level float64) (float64, error) {
	if err := CheckLevel(level); err != nil {
		return 0, err
	}
	return site.logLikelihood(level), nil
}

// LogLikelihood is the method form of the LogLikelihood function.
func (site Site) LogLikelihood(level float64) (float64, error) {
	return LogLikelihood(site, level)
}

// logLikelihood assumes a checked level.
func (site Site) logLikelihood(level float64) float64 {
	switch site.Genotype {
	case Homozygous:
		return site.logProb(1 - level)
	case Heterozygous:
		return maxFloat64(
			site.logProb((1-level)/2),
			site.logProb(1-level),
			site.logProb(0.5+level),
			site.logProb(level),
		)
	default:
		return negInf
	}
}

func (site Site) logProb(altFraction float64) float64 {
	return BinomialLogPMF(site.AltDepth, site.TotalDepth, altFraction)
}

func maxFloat64(x float64, ys ...float64) float64 {
	for _, y := range ys {
		if y > x {
			x = y
		}
	}
	return x
}
