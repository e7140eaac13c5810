// Package population holds the live schools of one replicate.
package population

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/shoal/components"
)

// SchoolSet owns every school of a replicate. Schools are stored as ECS
// components; per-species entity lists keep a stable iteration order.
//
// Pointers returned by Get, Species and All stay valid until the next Add
// or Prune.
type SchoolSet struct {
	world     *ecs.World
	mapper    *ecs.Map1[components.School]
	filter    *ecs.Filter1[components.School]
	bySpecies [][]ecs.Entity
}

// NewSchoolSet creates an empty set for nSpecies species.
func NewSchoolSet(nSpecies int) *SchoolSet {
	world := ecs.NewWorld()
	return &SchoolSet{
		world:     world,
		mapper:    ecs.NewMap1[components.School](world),
		filter:    ecs.NewFilter1[components.School](world),
		bySpecies: make([][]ecs.Entity, nSpecies),
	}
}

// Add stores a copy of school and returns its entity.
func (s *SchoolSet) Add(school components.School) ecs.Entity {
	e := s.mapper.NewEntity(&school)
	i := school.Species.Index
	s.bySpecies[i] = append(s.bySpecies[i], e)
	return e
}

// Get returns the school stored for e.
func (s *SchoolSet) Get(e ecs.Entity) *components.School {
	return s.mapper.Get(e)
}

// NumSpecies returns the number of species slots.
func (s *SchoolSet) NumSpecies() int { return len(s.bySpecies) }

// Species appends the schools of species i to buf, in insertion order.
func (s *SchoolSet) Species(i int, buf []*components.School) []*components.School {
	for _, e := range s.bySpecies[i] {
		buf = append(buf, s.mapper.Get(e))
	}
	return buf
}

// All appends every school to buf, species by species.
func (s *SchoolSet) All(buf []*components.School) []*components.School {
	for i := range s.bySpecies {
		buf = s.Species(i, buf)
	}
	return buf
}

// Len returns the number of schools.
func (s *SchoolSet) Len() int {
	n := 0
	for _, list := range s.bySpecies {
		n += len(list)
	}
	return n
}

// CountSpecies returns the number of schools of species i.
func (s *SchoolSet) CountSpecies(i int) int { return len(s.bySpecies[i]) }

// Each calls fn once for every school. Order follows ECS storage and is
// deterministic for a given sequence of Add and Prune calls. fn must not
// add or remove schools.
func (s *SchoolSet) Each(fn func(*components.School)) {
	query := s.filter.Query()
	for query.Next() {
		fn(query.Get())
	}
}

// Prune removes the schools for which dead returns true, keeping the order
// of the survivors. It returns the number removed.
func (s *SchoolSet) Prune(dead func(*components.School) bool) int {
	// First pass: collect (must complete before modifying the world)
	var toRemove []ecs.Entity
	for i, list := range s.bySpecies {
		kept := list[:0]
		for _, e := range list {
			if dead(s.mapper.Get(e)) {
				toRemove = append(toRemove, e)
				continue
			}
			kept = append(kept, e)
		}
		clear(list[len(kept):])
		s.bySpecies[i] = kept
	}

	// Second pass: remove entities
	for _, e := range toRemove {
		s.world.RemoveEntity(e)
	}
	return len(toRemove)
}
