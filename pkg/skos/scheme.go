package skos

import (
	"context"
	"fmt"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// ConceptScheme is a typed view of a skos:ConceptScheme.
type ConceptScheme struct {
	resource
}

// CreateScheme declares a new ConceptScheme. A non-empty title is stored
// as dct:title in lang.
func (s *Session) CreateScheme(ctx context.Context, uri, title, lang string) (ConceptScheme, error) {
	err := s.create(ctx, "create_scheme", uri, KindConceptScheme, func(changes *store.ChangeSet) {
		if title != "" {
			changes.Assert(store.NewTriple(uri, vocab.DCTermsTitle, store.LangLiteral(title, lang)))
		}
	})
	if err != nil {
		return ConceptScheme{}, err
	}
	return ConceptScheme{resource{session: s, uri: uri}}, nil
}

// Scheme returns the view of an existing ConceptScheme.
func (s *Session) Scheme(uri string) (ConceptScheme, error) {
	err := s.View(func(r Reader) error {
		_, err := requireKind(r, uri, KindConceptScheme)
		return err
	})
	if err != nil {
		return ConceptScheme{}, opError("scheme", uri, err)
	}
	return ConceptScheme{resource{session: s, uri: uri}}, nil
}

// TopConcepts returns the scheme's top concepts, reading both
// skos:hasTopConcept and skos:topConceptOf.
func (cs ConceptScheme) TopConcepts() ([]string, error) {
	var tops []string
	err := cs.session.View(func(r Reader) error {
		var err error
		tops, err = topConcepts(r, cs.uri)
		return err
	})
	return tops, err
}

func topConcepts(r Reader, scheme string) ([]string, error) {
	has, err := r.Links(scheme, vocab.SKOSHasTopConcept)
	if err != nil {
		return nil, err
	}
	of, err := r.Subjects(vocab.SKOSTopConceptOf, store.IRI(scheme))
	if err != nil {
		return nil, err
	}
	return mergeSorted(has, of), nil
}

// Members returns the concepts in the scheme.
func (cs ConceptScheme) Members() ([]string, error) {
	var members []string
	err := cs.session.View(func(r Reader) error {
		var err error
		members, err = r.Subjects(vocab.SKOSInScheme, store.IRI(cs.uri))
		return err
	})
	return members, err
}

// AddTopConcept makes the concept a top concept, asserting hasTopConcept,
// topConceptOf and inScheme together so the top concept is always a member.
func (cs ConceptScheme) AddTopConcept(ctx context.Context, concept string) error {
	return cs.session.mutate(ctx, "add_top_concept", cs.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if _, err := requireKind(r, cs.uri, KindConceptScheme); err != nil {
			return changes, err
		}
		if _, err := requireKind(r, concept, KindConcept); err != nil {
			return changes, fmt.Errorf("top concept %s: %w", concept, err)
		}
		member, err := r.Has(concept, vocab.SKOSInScheme, store.IRI(cs.uri))
		if err != nil {
			return changes, err
		}
		if !member {
			if err := checkMembershipCycle(r, concept, cs.uri); err != nil {
				return changes, err
			}
		}
		changes.Assert(store.NewTriple(cs.uri, vocab.SKOSHasTopConcept, store.IRI(concept)))
		changes.Assert(store.NewTriple(concept, vocab.SKOSTopConceptOf, store.IRI(cs.uri)))
		changes.Assert(store.NewTriple(concept, vocab.SKOSInScheme, store.IRI(cs.uri)))
		return changes, nil
	})
}

// RemoveTopConcept drops the top concept links and keeps membership.
func (cs ConceptScheme) RemoveTopConcept(ctx context.Context, concept string) error {
	return cs.session.mutate(ctx, "remove_top_concept", cs.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if _, err := requireKind(r, cs.uri, KindConceptScheme); err != nil {
			return changes, err
		}
		changes.Retract(store.NewTriple(cs.uri, vocab.SKOSHasTopConcept, store.IRI(concept)))
		changes.Retract(store.NewTriple(concept, vocab.SKOSTopConceptOf, store.IRI(cs.uri)))
		return changes, nil
	})
}
