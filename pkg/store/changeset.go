package store

import (
	"fmt"
	"sort"
)

// ChangeSet is an ordered batch of retractions and assertions applied as
// one unit. Removals are applied before additions.
type ChangeSet struct {
	Remove []Triple `json:"remove,omitempty"`
	Add    []Triple `json:"add,omitempty"`
}

// Assert queues a triple for addition, dropping a pending removal of the
// same triple.
func (c *ChangeSet) Assert(triple Triple) {
	c.Remove = without(c.Remove, triple)
	if !contains(c.Add, triple) {
		c.Add = append(c.Add, triple)
	}
}

// Retract queues a triple for removal, dropping a pending addition of the
// same triple.
func (c *ChangeSet) Retract(triple Triple) {
	c.Add = without(c.Add, triple)
	if !contains(c.Remove, triple) {
		c.Remove = append(c.Remove, triple)
	}
}

// Merge appends the changes of other after the changes of c.
func (c *ChangeSet) Merge(other ChangeSet) {
	for _, triple := range other.Remove {
		c.Retract(triple)
	}
	for _, triple := range other.Add {
		c.Assert(triple)
	}
}

// Empty reports whether the change set contains no changes.
func (c ChangeSet) Empty() bool {
	return len(c.Add) == 0 && len(c.Remove) == 0
}

// Size returns the total number of queued changes.
func (c ChangeSet) Size() int {
	return len(c.Add) + len(c.Remove)
}

// Inverse returns the change set that undoes c.
func (c ChangeSet) Inverse() ChangeSet {
	return ChangeSet{
		Remove: append([]Triple(nil), c.Add...),
		Add:    append([]Triple(nil), c.Remove...),
	}
}

// Validate checks that every queued triple is well formed.
func (c ChangeSet) Validate() error {
	for _, triple := range c.Remove {
		if !triple.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidTriple, triple)
		}
	}
	for _, triple := range c.Add {
		if !triple.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidTriple, triple)
		}
	}
	return nil
}

// Sorted returns a copy with both lists in key order, for stable output.
func (c ChangeSet) Sorted() ChangeSet {
	sorted := ChangeSet{
		Remove: append([]Triple(nil), c.Remove...),
		Add:    append([]Triple(nil), c.Add...),
	}
	SortTriples(sorted.Remove)
	SortTriples(sorted.Add)
	return sorted
}

// SortTriples sorts triples by their N-Triples key.
func SortTriples(triples []Triple) {
	sort.Slice(triples, func(i, j int) bool {
		return triples[i].Key() < triples[j].Key()
	})
}

func contains(triples []Triple, target Triple) bool {
	for _, triple := range triples {
		if triple.Equals(target) {
			return true
		}
	}
	return false
}

func without(triples []Triple, target Triple) []Triple {
	for i, triple := range triples {
		if triple.Equals(target) {
			return append(triples[:i:i], triples[i+1:]...)
		}
	}
	return triples
}
