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
	"sort"

	"github.com/exascience/pargo/parallel"
	"github.com/pkg/errors"
)

// ErrInvalidSweep is the cause of errors returned by Sweep.Validate.
var ErrInvalidSweep = errors.New("invalid contamination sweep")

// A Sweep is a grid of contamination levels: Min, Min+Step, ... up to
// but excluding Max.
type Sweep struct {
	Min, Max, Step float64
}

// DefaultSweep has the 400 levels 0.000, 0.001, ..., 0.399.
var DefaultSweep = Sweep{Min: 0, Max: 0.4, Step: 0.001}

// Validate checks that the sweep only produces levels in [0, 1).
func (sweep Sweep) Validate() error {
	switch {
	case !(sweep.Step > 0):
		return errors.Wrapf(ErrInvalidSweep, "step %v is not positive", sweep.Step)
	case !(sweep.Min >= 0):
		return errors.Wrapf(ErrInvalidSweep, "minimum %v is negative", sweep.Min)
	case !(sweep.Max <= 1):
		return errors.Wrapf(ErrInvalidSweep, "maximum %v is larger than 1", sweep.Max)
	case !(sweep.Max > sweep.Min):
		return errors.Wrapf(ErrInvalidSweep, "maximum %v is not larger than minimum %v", sweep.Max, sweep.Min)
	case sweep.Len() == 0:
		return errors.Wrapf(ErrInvalidSweep, "range %v-%v is empty for step %v", sweep.Min, sweep.Max, sweep.Step)
	}
	return nil
}

// Len returns the number of levels in the sweep.
func (sweep Sweep) Len() int {
	if !(sweep.Step > 0) || !(sweep.Max > sweep.Min) {
		return 0
	}
	// levels within rounding error of Max are excluded
	return int(math.Ceil((sweep.Max-sweep.Min)/sweep.Step - 1e-9))
}

// gridPrecision keeps levels on the decimal grid, so that 3*0.001
// becomes 0.003 instead of 0.0030000000000000005.
const gridPrecision = 1e12

// Level returns the i-th level of the sweep.
func (sweep Sweep) Level(i int) float64 {
	return math.Round((sweep.Min+float64(i)*sweep.Step)*gridPrecision) / gridPrecision
}

// Levels returns all levels of the sweep in ascending order.
func (sweep Sweep) Levels() []float64 {
	levels := make([]float64, sweep.Len())
	for i := range levels {
		levels[i] = sweep.Level(i)
	}
	return levels
}

// A Likelihood is the summed log-likelihood of a set of sites at one
// contamination level.
type Likelihood struct {
	Level         float64
	LogLikelihood float64
}

// Likelihoods are ordered by ascending Level.
type Likelihoods []Likelihood

// Get returns the log-likelihood for the given level.
func (ls Likelihoods) Get(level float64) (float64, bool) {
	i := sort.Search(len(ls), func(i int) bool {
		return ls[i].Level >= level
	})
	if i < len(ls) && ls[i].Level == level {
		return ls[i].LogLikelihood, true
	}
	return 0, false
}

// Argmax returns the level with the largest log-likelihood.
//
// The entries are stable-sorted by ascending log-likelihood, and the
// level of the last entry is returned. Among levels that tie at the
// maximum, this is the highest one. Argmax returns 0 when there are no
// entries.
func (ls Likelihoods) Argmax() float64 {
	if len(ls) == 0 {
		return 0
	}
	sorted := append(Likelihoods(nil), ls...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LogLikelihood < sorted[j].LogLikelihood
	})
	return sorted[len(sorted)-1].Level
}

// Max returns the entry with the largest log-likelihood, with the same
// tie-break as Argmax.
func (ls Likelihoods) Max() (Likelihood, bool) {
	if len(ls) == 0 {
		return Likelihood{}, false
	}
	level := ls.Argmax()
	ll, _ := ls.Get(level)
	return Likelihood{Level: level, LogLikelihood: ll}, true
}

// likelihoodsOf sums f over n sites for every level of the sweep.
// Levels are processed in parallel, but each sum is taken in site
// order, so the result does not depend on scheduling.
func (sweep Sweep) likelihoodsOf(n int, f func(i int, level float64) float64) Likelihoods {
	result := make(Likelihoods, sweep.Len())
	parallel.Range(0, len(result), 0, func(low, high int) {
		for l := low; l < high; l++ {
			level := sweep.Level(l)
			var sum float64
			for i := 0; i < n; i++ {
				sum += f(i, level)
			}
			result[l] = Likelihood{Level: level, LogLikelihood: sum}
		}
	})
	return result
}

// Likelihoods returns the summed log-likelihood of the sites at every
// level of the sweep. The sweep must be valid.
func (sweep Sweep) Likelihoods(sites []Site) Likelihoods {
	return sweep.likelihoodsOf(len(sites), func(i int, level float64) float64 {
		return sites[i].logLikelihood(level)
	})
}

// MaximumLikelihoodEstimate returns the level of the sweep with the
// largest summed log-likelihood. The sweep must be valid.
//
// For an empty site list, all levels tie at 0 and the result carries
// no information; use Estimate to handle that case.
func (sweep Sweep) MaximumLikelihoodEstimate(sites []Site) float64 {
	return sweep.Likelihoods(sites).Argmax()
}

// SweepLikelihoods is DefaultSweep.Likelihoods.
func SweepLikelihoods(sites []Site) Likelihoods {
	return DefaultSweep.Likelihoods(sites)
}

// MaximumLikelihoodEstimate is DefaultSweep.MaximumLikelihoodEstimate.
func MaximumLikelihoodEstimate(sites []Site) float64 {
	return DefaultSweep.MaximumLikelihoodEstimate(sites)
}

// An Estimate is the outcome of estimating the contamination of one
// sample.
type Estimate struct {
	// Level is the maximum likelihood contamination level.
	Level float64
	// LogLikelihood is the summed log-likelihood at Level.
	LogLikelihood float64
	// Sites is the number of sites the estimate is based on.
	Sites int
	// Likelihoods holds the full sweep; nil when there were no sites.
	Likelihoods Likelihoods
}

// Empty tells whether the estimate is based on no sites at all. The
// Level of an empty estimate is 0.
func (e Estimate) Empty() bool {
	return e.Sites == 0
}

// Percent returns the contamination level as a percentage.
func (e Estimate) Percent() float64 {
	return e.Level * 100
}

// EstimateContamination validates the sweep and estimates the
// contamination level of the sites. Without sites, no sweep is
// performed and an empty estimate with level 0 is returned.
func EstimateContamination(sites []Site, sweep Sweep) (Estimate, error) {
	if err := sweep.Validate(); err != nil {
		return Estimate{}, err
	}
	if len(sites) == 0 {
		return Estimate{}, nil
	}
	likelihoods := sweep.Likelihoods(sites)
	best, _ := likelihoods.Max()
	return Estimate{
		Level:         best.Level,
		LogLikelihood: best.LogLikelihood,
		Sites:         len(sites),
		Likelihoods:   likelihoods,
	}, nil
}
