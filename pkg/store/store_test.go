package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/coolbeans/skosgraph/pkg/vocab"
)

const (
	exMammal = "http://example.org/animals/mammal"
	exDog    = "http://example.org/animals/dog"
	exCat    = "http://example.org/animals/cat"
)

func populateTestStore(store *TripleStore) {
	_ = store.BulkAdd([]Triple{
		NewTriple(exMammal, vocab.RDFType, IRI(vocab.ClassConcept)),
		NewTriple(exMammal, vocab.SKOSPrefLabel, LangLiteral("Mammal", "en")),
		NewTriple(exMammal, vocab.SKOSNarrower, IRI(exDog)),
		NewTriple(exDog, vocab.RDFType, IRI(vocab.ClassConcept)),
		NewTriple(exDog, vocab.SKOSBroader, IRI(exMammal)),
		NewTriple(exCat, vocab.RDFType, IRI(vocab.ClassConcept)),
	})
}

func TestNewTripleStore(t *testing.T) {
	store := NewTripleStore()

	if store == nil {
		t.Fatal("NewTripleStore returned nil")
	}

	if store.Count() != 0 {
		t.Errorf("New store should have 0 triples, got %d", store.Count())
	}
}

func TestTripleStore_Add(t *testing.T) {
	store := NewTripleStore()

	triple := NewTriple(exDog, vocab.RDFType, IRI(vocab.ClassConcept))
	if err := store.Add(triple); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("Expected 1 triple, got %d", store.Count())
	}

	// Add same triple again (idempotent)
	if err := store.Add(triple); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("Expected 1 triple after duplicate add, got %d", store.Count())
	}

	// Same text, different language is a different triple
	_ = store.Add(NewTriple(exDog, vocab.SKOSPrefLabel, LangLiteral("Dog", "en")))
	_ = store.Add(NewTriple(exDog, vocab.SKOSPrefLabel, LangLiteral("Dog", "de")))

	if store.Count() != 3 {
		t.Errorf("Expected 3 triples, got %d", store.Count())
	}
}

func TestTripleStore_Add_InvalidTriple(t *testing.T) {
	store := NewTripleStore()

	invalid := []Triple{
		NewTriple("", vocab.RDFType, IRI(vocab.ClassConcept)),
		NewTriple(exDog, "", IRI(vocab.ClassConcept)),
		NewTriple(exDog, vocab.RDFType, Term{}),
		NewTriple(exDog, vocab.RDFType, Term{Kind: TermLiteral, Value: "x", Lang: "en", Datatype: vocab.XSDString}),
	}

	for _, triple := range invalid {
		if err := store.Add(triple); !errors.Is(err, ErrInvalidTriple) {
			t.Errorf("Expected ErrInvalidTriple for %s, got %v", triple, err)
		}
	}

	if store.Count() != 0 {
		t.Errorf("Store should be empty after invalid adds, got %d", store.Count())
	}
}

func TestTripleStore_BulkAdd_AllOrNothing(t *testing.T) {
	store := NewTripleStore()

	err := store.BulkAdd([]Triple{
		NewTriple(exDog, vocab.RDFType, IRI(vocab.ClassConcept)),
		NewTriple("", vocab.RDFType, IRI(vocab.ClassConcept)),
	})
	if err == nil {
		t.Fatal("Expected BulkAdd to reject a batch with an invalid triple")
	}

	if store.Count() != 0 {
		t.Errorf("Expected no triples after rejected batch, got %d", store.Count())
	}
}

func TestTripleStore_Match(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)

	testCases := []struct {
		name     string
		pattern  Pattern
		expected int
	}{
		{"all wildcards", Pattern{}, 6},
		{"subject", NewPattern(exMammal, "", Term{}), 3},
		{"subject and predicate", NewPattern(exMammal, vocab.RDFType, Term{}), 1},
		{"subject and object", NewPattern(exDog, "", IRI(exMammal)), 1},
		{"exact", NewPattern(exDog, vocab.SKOSBroader, IRI(exMammal)), 1},
		{"predicate", NewPattern("", vocab.RDFType, Term{}), 3},
		{"predicate and object", NewPattern("", vocab.RDFType, IRI(vocab.ClassConcept)), 3},
		{"object", NewPattern("", "", IRI(exDog)), 1},
		{"literal object", NewPattern("", "", LangLiteral("Mammal", "EN")), 1},
		{"no match", NewPattern("http://example.org/none", "", Term{}), 0},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			triples, err := Collect(store, testCase.pattern)
			if err != nil {
				t.Fatalf("Match failed: %v", err)
			}
			if len(triples) != testCase.expected {
				t.Errorf("Expected %d results, got %d", testCase.expected, len(triples))
			}
			for _, triple := range triples {
				if !testCase.pattern.Matches(triple) {
					t.Errorf("Result %s does not match pattern", triple)
				}
			}
		})
	}
}

func TestTripleStore_Match_Restartable(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)

	seq, err := store.Match(NewPattern("", vocab.RDFType, Term{}))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}

	if first != 3 || second != 3 {
		t.Errorf("Expected both iterations to yield 3, got %d and %d", first, second)
	}

	// Later iterations observe later writes
	_ = store.Add(NewTriple("http://example.org/animals/bird", vocab.RDFType, IRI(vocab.ClassConcept)))
	third := 0
	for range seq {
		third++
	}
	if third != 4 {
		t.Errorf("Expected 4 after add, got %d", third)
	}
}

func TestTripleStore_Match_EarlyStop(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)

	seq, _ := store.Match(Pattern{})
	seen := 0
	for range seq {
		seen++
		if seen == 2 {
			break
		}
	}

	if seen != 2 {
		t.Errorf("Expected iteration to stop at 2, got %d", seen)
	}
}

func TestTripleStore_Remove(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)

	removed, err := store.Remove(NewTriple(exDog, vocab.SKOSBroader, IRI(exMammal)))
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Error("Expected triple to be removed")
	}

	removed, _ = store.Remove(NewTriple(exDog, vocab.SKOSBroader, IRI(exMammal)))
	if removed {
		t.Error("Expected second removal to report false")
	}

	if store.Count() != 5 {
		t.Errorf("Expected 5 triples, got %d", store.Count())
	}

	if found := store.Find(NewPattern("", "", IRI(exMammal))); len(found) != 0 {
		t.Errorf("Expected OSP index to be cleaned, got %v", found)
	}
}

func TestTripleStore_Delete_Pattern(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)

	deleted, err := store.Delete(NewPattern("", vocab.RDFType, Term{}))
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted, got %d", deleted)
	}

	stats := store.Stats()
	if stats.PredicateCounts[vocab.RDFType] != 0 {
		t.Errorf("Expected rdf:type count to drop to 0, got %d", stats.PredicateCounts[vocab.RDFType])
	}
}

func TestTripleStore_Apply(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)

	changes := ChangeSet{}
	changes.Retract(NewTriple(exDog, vocab.SKOSBroader, IRI(exMammal)))
	changes.Retract(NewTriple(exMammal, vocab.SKOSNarrower, IRI(exDog)))
	changes.Assert(NewTriple(exCat, vocab.SKOSBroader, IRI(exMammal)))
	changes.Assert(NewTriple(exMammal, vocab.SKOSNarrower, IRI(exCat)))

	if err := store.Apply(changes); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if has, _ := store.Has(NewTriple(exCat, vocab.SKOSBroader, IRI(exMammal))); !has {
		t.Error("Expected cat broader mammal")
	}
	if has, _ := store.Has(NewTriple(exDog, vocab.SKOSBroader, IRI(exMammal))); has {
		t.Error("Expected dog broader mammal to be removed")
	}
}

func TestTripleStore_Apply_RejectsInvalidBatch(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)
	before := store.Count()

	changes := ChangeSet{
		Remove: []Triple{NewTriple(exDog, vocab.SKOSBroader, IRI(exMammal))},
		Add:    []Triple{NewTriple(exCat, "", IRI(exMammal))},
	}

	if err := store.Apply(changes); !errors.Is(err, ErrInvalidTriple) {
		t.Fatalf("Expected ErrInvalidTriple, got %v", err)
	}
	if store.Count() != before {
		t.Errorf("Expected store untouched (%d), got %d", before, store.Count())
	}
}

func TestTripleStore_Close(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := store.Add(NewTriple(exDog, vocab.RDFType, IRI(vocab.ClassConcept))); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable from Add, got %v", err)
	}
	if _, err := store.Match(Pattern{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable from Match, got %v", err)
	}
	if _, err := store.Has(NewTriple(exDog, vocab.RDFType, IRI(vocab.ClassConcept))); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable from Has, got %v", err)
	}
	if err := store.Apply(ChangeSet{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable from Apply, got %v", err)
	}
}

func TestTripleStore_Clone(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)

	clone := store.Clone()
	_ = clone.Add(NewTriple(exCat, vocab.SKOSBroader, IRI(exMammal)))

	if clone.Count() != store.Count()+1 {
		t.Errorf("Expected clone to diverge: clone=%d original=%d", clone.Count(), store.Count())
	}
}

func TestTripleStore_Stats(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)

	stats := store.Stats()

	if stats.TotalTriples != 6 {
		t.Errorf("Expected 6 total triples, got %d", stats.TotalTriples)
	}
	if stats.UniqueSubjects != 3 {
		t.Errorf("Expected 3 unique subjects, got %d", stats.UniqueSubjects)
	}
	if stats.PredicateCounts[vocab.RDFType] != 3 {
		t.Errorf("Expected rdf:type count 3, got %d", stats.PredicateCounts[vocab.RDFType])
	}
}

func TestTripleStore_ConcurrentAccess(t *testing.T) {
	store := NewTripleStore()

	var wg sync.WaitGroup
	numGoroutines := 10
	triplesPerGoroutine := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < triplesPerGoroutine; j++ {
				subject := fmt.Sprintf("http://example.org/c/%d-%d", id, j)
				_ = store.Add(NewTriple(subject, vocab.RDFType, IRI(vocab.ClassConcept)))
			}
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < triplesPerGoroutine; j++ {
				_ = store.Find(NewPattern("", vocab.RDFType, Term{}))
			}
		}()
	}

	wg.Wait()

	expected := numGoroutines * triplesPerGoroutine
	if store.Count() != expected {
		t.Errorf("Expected %d triples, got %d", expected, store.Count())
	}
}
