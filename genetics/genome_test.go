package genetics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/shoal/config"
)

func newTestInheritance(rate float64) *Inheritance {
	cfg := config.GeneticsConfig{Enabled: true, NLocus: 6, NAllele: 4, MutationRate: rate}
	traits := []config.TraitConfig{{Mean: 0, SD: 1}, {Mean: 10, SD: 2}}
	return New(cfg, traits, rand.New(rand.NewSource(1)))
}

func TestCombineTransmitsParentalAlleles(t *testing.T) {
	in := newTestInheritance(0)
	rng := rand.New(rand.NewSource(2))

	mother := in.Init(rng, 0).(*Genome)
	father := in.Init(rng, 0).(*Genome)

	for range 200 {
		child := in.Combine(rng, 0, mother, father).(*Genome)
		for l := range child.loci {
			c0, c1 := child.Alleles(l)
			m0, m1 := mother.Alleles(l)
			f0, f1 := father.Alleles(l)
			if c0 != m0 && c0 != m1 {
				t.Fatalf("locus %d: maternal allele %d not carried by mother (%d, %d)", l, c0, m0, m1)
			}
			if c1 != f0 && c1 != f1 {
				t.Fatalf("locus %d: paternal allele %d not carried by father (%d, %d)", l, c1, f0, f1)
			}
		}
	}
}

func TestCombineWithSelf(t *testing.T) {
	in := newTestInheritance(0)
	rng := rand.New(rand.NewSource(3))
	parent := in.Init(rng, 1)

	child := in.Combine(rng, 1, parent, parent)
	if child == nil {
		t.Fatal("Combine returned nil")
	}
}

func TestCombineNilParents(t *testing.T) {
	in := newTestInheritance(0)
	rng := rand.New(rand.NewSource(4))

	child := in.Combine(rng, 0, nil, nil)
	if _, ok := child.(*Genome); !ok {
		t.Fatalf("expected *Genome, got %T", child)
	}
}

func TestTraitDistribution(t *testing.T) {
	in := newTestInheritance(0)
	rng := rand.New(rand.NewSource(5))

	const n = 5000
	var sum float64
	for range n {
		sum += in.Init(rng, 1).TraitValue()
	}
	mean := sum / n
	// Allele effects are drawn once, so the population mean only matches the
	// configured mean up to the sampling noise of the allele table.
	if math.Abs(mean-10) > 6 {
		t.Errorf("mean trait = %v, want close to 10", mean)
	}
}

func TestMutationChangesAlleles(t *testing.T) {
	in := newTestInheritance(1)
	rng := rand.New(rand.NewSource(6))

	mother := in.Init(rng, 0).(*Genome)
	differs := false
	for range 50 {
		child := in.Combine(rng, 0, mother, mother).(*Genome)
		for l := range child.loci {
			c0, _ := child.Alleles(l)
			m0, m1 := mother.Alleles(l)
			if c0 != m0 && c0 != m1 {
				differs = true
			}
		}
	}
	if !differs {
		t.Error("mutation rate 1 should introduce alleles absent from the parent")
	}
}
