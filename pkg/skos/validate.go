package skos

import (
	"errors"
	"fmt"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// Issue is one integrity problem found by Validate.
type Issue struct {
	Kind    string `json:"kind"`
	URI     string `json:"uri,omitempty"`
	Message string `json:"message"`
}

// Report collects the issues found in a graph.
type Report struct {
	Issues []Issue `json:"issues"`
}

// Valid reports whether no issues were found.
func (r *Report) Valid() bool {
	return len(r.Issues) == 0
}

func (r *Report) add(kind, uri, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Kind: kind, URI: uri, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) addError(uri string, err error) {
	kind := rejectionKind(err)
	if errors.Is(err, vocab.ErrMalformedLiteral) {
		kind = "malformed_literal"
	}
	if kind == "" {
		kind = "error"
	}
	r.Issues = append(r.Issues, Issue{Kind: kind, URI: uri, Message: err.Error()})
}

// Validate checks the whole graph against the SKOS integrity rules the
// object model enforces on writes. Graphs built only through the session
// are always valid; Validate is for graphs assembled elsewhere.
func (s *Session) Validate() (*Report, error) {
	report := &Report{}

	err := s.View(func(r Reader) error {
		if err := validateRelations(r, report); err != nil {
			return err
		}

		concepts, err := r.Resources(KindConcept)
		if err != nil {
			return err
		}
		for _, concept := range concepts {
			if err := checkLabelSet(r, concept); err != nil {
				if rejectionKind(err) == "" {
					return err
				}
				report.addError(concept, err)
			}
		}

		if err := validateSchemes(r, report); err != nil {
			return err
		}
		if err := validateCollections(r, report); err != nil {
			return err
		}

		for _, check := range []func(Reader) error{findHierarchyCycle, findMembershipCycle} {
			if err := check(r); err != nil {
				if rejectionKind(err) == "" {
					return err
				}
				report.addError("", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func validateRelations(r Reader, report *Report) error {
	for _, kind := range RelationKinds {
		triples, err := r.Match(store.NewPattern("", kind.Predicate(), store.Term{}))
		if err != nil {
			return err
		}
		for _, triple := range triples {
			if err := checkImportedRelation(r, triple, kind); err != nil {
				if rejectionKind(err) == "" {
					return err
				}
				report.addError(triple.Subject, err)
				continue
			}
			inverse, missing, err := missingInverse(r, triple)
			if err != nil {
				return err
			}
			if missing {
				report.add("inconsistent_graph", triple.Subject, "%s %s %s has no %s counterpart",
					triple.Subject, kind, triple.Object.Value, vocab.LocalName(inverse.Predicate))
			}
		}
	}

	for _, predicate := range sameAsPredicates {
		triples, err := r.Match(store.NewPattern("", predicate, store.Term{}))
		if err != nil {
			return err
		}
		for _, triple := range triples {
			_, missing, err := missingSameAs(r, triple)
			if err != nil {
				return err
			}
			if missing {
				report.add("inconsistent_graph", triple.Subject, "%s sameAs %s is not symmetric",
					triple.Subject, triple.Object.Value)
			}
		}
	}
	return nil
}

func validateSchemes(r Reader, report *Report) error {
	schemes, err := r.Resources(KindConceptScheme)
	if err != nil {
		return err
	}
	for _, scheme := range schemes {
		tops, err := topConcepts(r, scheme)
		if err != nil {
			return err
		}
		for _, top := range tops {
			member, err := r.Has(top, vocab.SKOSInScheme, store.IRI(scheme))
			if err != nil {
				return err
			}
			if !member {
				report.add("constraint_violation", scheme, "top concept %s is not in scheme %s", top, scheme)
			}
		}
	}
	return nil
}

func validateCollections(r Reader, report *Report) error {
	for _, kind := range []ResourceKind{KindCollection, KindOrderedCollection} {
		collections, err := r.Resources(kind)
		if err != nil {
			return err
		}
		for _, collection := range collections {
			for _, predicate := range []string{vocab.DCTermsDate, vocab.DCDate} {
				dates, err := r.Objects(collection, predicate)
				if err != nil {
					return err
				}
				for _, date := range dates {
					if _, err := vocab.ParseDateTime(date.Value); err != nil {
						report.addError(collection, err)
					}
				}
			}

			members, err := r.Links(collection, vocab.SKOSMember)
			if err != nil {
				return err
			}
			for _, member := range members {
				if _, ok, err := r.Kind(member); err != nil {
					return err
				} else if !ok {
					report.add("not_found", collection, "member %s is not a known resource", member)
				}
			}
		}
	}
	return nil
}
