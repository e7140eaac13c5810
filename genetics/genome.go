// Package genetics implements a diploid multi-locus genotype with
// additive allele effects on a single quantitative trait.
package genetics

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
)

// Genome holds two allele indices per locus.
type Genome struct {
	table *alleleTable
	loci  [][2]int
}

// TraitValue returns the sum of the allele effects over every locus.
func (g *Genome) TraitValue() float64 {
	var v float64
	for l, pair := range g.loci {
		v += g.table.values[l][pair[0]] + g.table.values[l][pair[1]]
	}
	return v
}

// Alleles returns the allele indices at locus l.
func (g *Genome) Alleles(l int) (int, int) {
	return g.loci[l][0], g.loci[l][1]
}

// alleleTable holds the effect of every allele of every locus for one species.
type alleleTable struct {
	values [][]float64 // [locus][allele]
}

// Inheritance creates and transmits genomes. Allele effects are drawn once
// per species so every genome of a species shares the same table.
type Inheritance struct {
	nLocus       int
	nAllele      int
	mutationRate float64
	tables       []*alleleTable
}

var _ components.Inheritance = (*Inheritance)(nil)

// New draws allele effects for every species. Effects are normal with mean
// and variance scaled so the trait of a random genome has the configured
// mean and standard deviation.
func New(cfg config.GeneticsConfig, traits []config.TraitConfig, rng *rand.Rand) *Inheritance {
	n := 2 * float64(cfg.NLocus)
	in := &Inheritance{
		nLocus:       cfg.NLocus,
		nAllele:      cfg.NAllele,
		mutationRate: cfg.MutationRate,
		tables:       make([]*alleleTable, len(traits)),
	}
	for s, tr := range traits {
		mu := tr.Mean / n
		sigma := tr.SD / math.Sqrt(n)
		t := &alleleTable{values: make([][]float64, cfg.NLocus)}
		for l := range t.values {
			t.values[l] = make([]float64, cfg.NAllele)
			for a := range t.values[l] {
				t.values[l][a] = mu + sigma*rng.NormFloat64()
			}
		}
		in.tables[s] = t
	}
	return in
}

// Init draws an independent genome for species.
func (in *Inheritance) Init(rng *rand.Rand, species int) components.Genotype {
	g := &Genome{table: in.tables[species], loci: make([][2]int, in.nLocus)}
	for l := range g.loci {
		g.loci[l] = [2]int{rng.Intn(in.nAllele), rng.Intn(in.nAllele)}
	}
	return g
}

// Combine builds a child genome from one random gamete of each parent.
// A parent without a Genome is replaced by an independent draw.
func (in *Inheritance) Combine(rng *rand.Rand, species int, mother, father components.Genotype) components.Genotype {
	m, ok := mother.(*Genome)
	if !ok || m == nil {
		m = in.Init(rng, species).(*Genome)
	}
	f, ok := father.(*Genome)
	if !ok || f == nil {
		f = in.Init(rng, species).(*Genome)
	}

	child := &Genome{table: in.tables[species], loci: make([][2]int, in.nLocus)}
	for l := range child.loci {
		child.loci[l] = [2]int{
			in.mutate(rng, m.loci[l][rng.Intn(2)]),
			in.mutate(rng, f.loci[l][rng.Intn(2)]),
		}
	}
	return child
}

func (in *Inheritance) mutate(rng *rand.Rand, allele int) int {
	if in.mutationRate > 0 && rng.Float64() < in.mutationRate {
		return rng.Intn(in.nAllele)
	}
	return allele
}
