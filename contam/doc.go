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

/*
Package contam estimates the fraction of contaminating reads in a
diploid sample from the allele depths of its variant calls.

Every Site carries the total read depth, the depth of the called
alternate allele, and the genotype class (heterozygous or homozygous)
that the variant caller assigned. For a hypothesized contamination
level, the log-likelihood of a site is the binomial log probability of
its alternate depth under the alternate-allele fraction that the level
predicts for its genotype class. A Sweep evaluates the summed
log-likelihood of all sites over a grid of levels, and the level with
the maximum total is the estimate.

Homozygous sites expect an alternate fraction of 1-c for a level c:
contaminating reads are assumed to look like the reference. For
heterozygous sites, the best of four explanations is taken:

	(1-c)/2  heterozygous call diluted by reference-like reads
	1-c      homozygous site called heterozygous because of contamination
	0.5+c    contaminating reads that carry the alternate allele
	c        the alternate reads are the contamination itself

Sites are assumed independent, so the per-level totals are plain sums.
*/
package contam
