package store

import (
	"fmt"
	"iter"
	"sync"
)

// IndexStats contains statistics about the triple store.
type IndexStats struct {
	TotalTriples     int            `json:"total_triples"`
	UniqueSubjects   int            `json:"unique_subjects"`
	UniquePredicates int            `json:"unique_predicates"`
	UniqueObjects    int            `json:"unique_objects"`
	PredicateCounts  map[string]int `json:"predicate_counts"`
}

// TripleStore is an in-memory RDF triple store with multiple indexes.
// It provides efficient lookups via three indexes:
//   - SPO: Subject -> Predicate -> Object (find facts about a subject)
//   - POS: Predicate -> Object -> Subject (find subjects with property=value)
//   - OSP: Object -> Subject -> Predicate (find subjects pointing to object)
//
// Objects are indexed by their term key; the terms themselves are kept in
// the SPO leaves and in a reference-counted term table.
type TripleStore struct {
	mu     sync.RWMutex
	closed bool

	// SPO index: Subject -> Predicate -> ObjectKey -> Term
	spo map[string]map[string]map[string]Term

	// POS index: Predicate -> ObjectKey -> Subject -> exists
	pos map[string]map[string]map[string]bool

	// OSP index: ObjectKey -> Subject -> Predicate -> exists
	osp map[string]map[string]map[string]bool

	// Object terms by key, with reference counts
	terms       map[string]Term
	objectCount map[string]int

	count           int
	predicateCounts map[string]int
}

var _ Graph = (*TripleStore)(nil)

// NewTripleStore creates a new in-memory triple store with all indexes initialized.
func NewTripleStore() *TripleStore {
	ts := &TripleStore{}
	ts.reset()
	return ts
}

func (ts *TripleStore) reset() {
	ts.spo = make(map[string]map[string]map[string]Term)
	ts.pos = make(map[string]map[string]map[string]bool)
	ts.osp = make(map[string]map[string]map[string]bool)
	ts.terms = make(map[string]Term)
	ts.objectCount = make(map[string]int)
	ts.predicateCounts = make(map[string]int)
	ts.count = 0
}

// Add inserts a triple into the store. Returns nil if successful or if the
// triple already exists (idempotent operation).
func (ts *TripleStore) Add(triple Triple) error {
	if !triple.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidTriple, triple)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.closed {
		return ErrStoreUnavailable
	}

	ts.addUnsafe(triple)
	return nil
}

// BulkAdd inserts multiple triples. Holds the write lock for the entire
// operation; invalid triples are rejected before anything is written.
func (ts *TripleStore) BulkAdd(triples []Triple) error {
	return ts.Apply(ChangeSet{Add: triples})
}

// Remove deletes a specific triple and reports whether it existed.
func (ts *TripleStore) Remove(triple Triple) (bool, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.closed {
		return false, ErrStoreUnavailable
	}

	return ts.removeUnsafe(triple), nil
}

// Delete removes every triple matching the pattern and returns how many
// were removed.
func (ts *TripleStore) Delete(pattern Pattern) (int, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.closed {
		return 0, ErrStoreUnavailable
	}

	matches := ts.findUnsafe(pattern)
	for _, triple := range matches {
		ts.removeUnsafe(triple)
	}
	return len(matches), nil
}

// Apply removes then adds the triples of the change set under a single
// write lock. The change set is validated first, so either all changes are
// applied or none are.
func (ts *TripleStore) Apply(changes ChangeSet) error {
	if err := changes.Validate(); err != nil {
		return err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.closed {
		return ErrStoreUnavailable
	}

	for _, triple := range changes.Remove {
		ts.removeUnsafe(triple)
	}
	for _, triple := range changes.Add {
		ts.addUnsafe(triple)
	}
	return nil
}

// Match queries triples matching the pattern. The returned sequence
// snapshots matches each time it is ranged over, so callers may mutate the
// store while iterating.
func (ts *TripleStore) Match(pattern Pattern) (iter.Seq[Triple], error) {
	ts.mu.RLock()
	closed := ts.closed
	ts.mu.RUnlock()

	if closed {
		return nil, ErrStoreUnavailable
	}

	return func(yield func(Triple) bool) {
		ts.mu.RLock()
		matches := ts.findUnsafe(pattern)
		ts.mu.RUnlock()

		for _, triple := range matches {
			if !yield(triple) {
				return
			}
		}
	}, nil
}

// Find returns all triples matching the pattern.
func (ts *TripleStore) Find(pattern Pattern) []Triple {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	return ts.findUnsafe(pattern)
}

// Has checks if a specific triple exists in the store.
func (ts *TripleStore) Has(triple Triple) (bool, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.closed {
		return false, ErrStoreUnavailable
	}

	return ts.existsUnsafe(triple.Subject, triple.Predicate, triple.Object.Key()), nil
}

// Len returns the number of triples in the store.
func (ts *TripleStore) Len() (int, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.closed {
		return 0, ErrStoreUnavailable
	}
	return ts.count, nil
}

// Count returns the total number of triples in the store.
func (ts *TripleStore) Count() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.count
}

// Close marks the store unavailable and drops its contents.
func (ts *TripleStore) Close() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.closed = true
	ts.reset()
	return nil
}

// Clear removes all triples from the store.
func (ts *TripleStore) Clear() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.reset()
}

// Clone returns an independent copy of the store.
func (ts *TripleStore) Clone() *TripleStore {
	clone := NewTripleStore()
	clone.addAll(ts.All())
	return clone
}

func (ts *TripleStore) addAll(triples []Triple) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for _, triple := range triples {
		ts.addUnsafe(triple)
	}
}

// Subjects returns all unique subjects in the store.
func (ts *TripleStore) Subjects() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	subjects := make([]string, 0, len(ts.spo))
	for s := range ts.spo {
		subjects = append(subjects, s)
	}
	return subjects
}

// Predicates returns all unique predicates in the store.
func (ts *TripleStore) Predicates() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	predicates := make([]string, 0, len(ts.pos))
	for p := range ts.pos {
		predicates = append(predicates, p)
	}
	return predicates
}

// Stats returns statistics about the store.
func (ts *TripleStore) Stats() IndexStats {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	predicateCounts := make(map[string]int, len(ts.predicateCounts))
	for k, v := range ts.predicateCounts {
		predicateCounts[k] = v
	}

	return IndexStats{
		TotalTriples:     ts.count,
		UniqueSubjects:   len(ts.spo),
		UniquePredicates: len(ts.pos),
		UniqueObjects:    len(ts.osp),
		PredicateCounts:  predicateCounts,
	}
}

// String returns a string representation of the store statistics.
func (ts *TripleStore) String() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	return fmt.Sprintf("TripleStore{triples: %d, subjects: %d, predicates: %d, objects: %d}",
		ts.count, len(ts.spo), len(ts.pos), len(ts.osp))
}

// All returns all triples in the store.
func (ts *TripleStore) All() []Triple {
	return ts.Find(Pattern{})
}

// existsUnsafe checks if a triple exists without locking.
func (ts *TripleStore) existsUnsafe(subject, predicate, objectKey string) bool {
	if pMap, ok := ts.spo[subject]; ok {
		if oMap, ok := pMap[predicate]; ok {
			_, found := oMap[objectKey]
			return found
		}
	}
	return false
}

// addUnsafe indexes a triple without locking.
func (ts *TripleStore) addUnsafe(triple Triple) {
	subject, predicate, object := triple.Subject, triple.Predicate, triple.Object
	objectKey := object.Key()

	if ts.existsUnsafe(subject, predicate, objectKey) {
		return
	}

	// Add to SPO index
	if ts.spo[subject] == nil {
		ts.spo[subject] = make(map[string]map[string]Term)
	}
	if ts.spo[subject][predicate] == nil {
		ts.spo[subject][predicate] = make(map[string]Term)
	}
	ts.spo[subject][predicate][objectKey] = object

	// Add to POS index
	if ts.pos[predicate] == nil {
		ts.pos[predicate] = make(map[string]map[string]bool)
	}
	if ts.pos[predicate][objectKey] == nil {
		ts.pos[predicate][objectKey] = make(map[string]bool)
	}
	ts.pos[predicate][objectKey][subject] = true

	// Add to OSP index
	if ts.osp[objectKey] == nil {
		ts.osp[objectKey] = make(map[string]map[string]bool)
	}
	if ts.osp[objectKey][subject] == nil {
		ts.osp[objectKey][subject] = make(map[string]bool)
	}
	ts.osp[objectKey][subject][predicate] = true

	ts.terms[objectKey] = object
	ts.objectCount[objectKey]++
	ts.predicateCounts[predicate]++
	ts.count++
}

// findUnsafe finds triples without locking, using the most specific index
// for the bound components.
func (ts *TripleStore) findUnsafe(pattern Pattern) []Triple {
	var results []Triple

	subject, predicate := pattern.Subject, pattern.Predicate
	objectKey := ""
	if !pattern.Object.IsZero() {
		objectKey = pattern.Object.Key()
	}

	switch {
	case subject != "":
		pMap, ok := ts.spo[subject]
		if !ok {
			return nil
		}
		for p, oMap := range pMap {
			if predicate != "" && p != predicate {
				continue
			}
			if objectKey != "" {
				if term, found := oMap[objectKey]; found {
					results = append(results, Triple{Subject: subject, Predicate: p, Object: term})
				}
				continue
			}
			for _, term := range oMap {
				results = append(results, Triple{Subject: subject, Predicate: p, Object: term})
			}
		}

	case predicate != "":
		oMap, ok := ts.pos[predicate]
		if !ok {
			return nil
		}
		for key, sMap := range oMap {
			if objectKey != "" && key != objectKey {
				continue
			}
			term := ts.terms[key]
			for s := range sMap {
				results = append(results, Triple{Subject: s, Predicate: predicate, Object: term})
			}
		}

	case objectKey != "":
		sMap, ok := ts.osp[objectKey]
		if !ok {
			return nil
		}
		term := ts.terms[objectKey]
		for s, pMap := range sMap {
			for p := range pMap {
				results = append(results, Triple{Subject: s, Predicate: p, Object: term})
			}
		}

	default:
		for s, pMap := range ts.spo {
			for p, oMap := range pMap {
				for _, term := range oMap {
					results = append(results, Triple{Subject: s, Predicate: p, Object: term})
				}
			}
		}
	}

	return results
}

// removeUnsafe deletes a specific triple without locking.
func (ts *TripleStore) removeUnsafe(triple Triple) bool {
	subject, predicate := triple.Subject, triple.Predicate
	objectKey := triple.Object.Key()

	if !ts.existsUnsafe(subject, predicate, objectKey) {
		return false
	}

	// Remove from SPO index
	pMap := ts.spo[subject]
	delete(pMap[predicate], objectKey)
	if len(pMap[predicate]) == 0 {
		delete(pMap, predicate)
	}
	if len(pMap) == 0 {
		delete(ts.spo, subject)
	}

	// Remove from POS index
	oMap := ts.pos[predicate]
	delete(oMap[objectKey], subject)
	if len(oMap[objectKey]) == 0 {
		delete(oMap, objectKey)
	}
	if len(oMap) == 0 {
		delete(ts.pos, predicate)
	}

	// Remove from OSP index
	sMap := ts.osp[objectKey]
	delete(sMap[subject], predicate)
	if len(sMap[subject]) == 0 {
		delete(sMap, subject)
	}
	if len(sMap) == 0 {
		delete(ts.osp, objectKey)
	}

	ts.objectCount[objectKey]--
	if ts.objectCount[objectKey] <= 0 {
		delete(ts.objectCount, objectKey)
		delete(ts.terms, objectKey)
	}
	ts.predicateCounts[predicate]--
	if ts.predicateCounts[predicate] <= 0 {
		delete(ts.predicateCounts, predicate)
	}
	ts.count--

	return true
}
