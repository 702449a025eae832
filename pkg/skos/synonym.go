package skos

import (
	"slices"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// sameAsPredicates are the identity properties read as synonym links
// alongside skos:exactMatch.
var sameAsPredicates = []string{vocab.OWLSameAs, vocab.OWL2XMLSameAs}

func isSameAs(predicate string) bool {
	return slices.Contains(sameAsPredicates, predicate)
}

// missingSameAs returns the reversed identity triple when both ends are
// declared Concepts and the graph lacks it. Identity links to resources
// outside the graph are kept one-way.
func missingSameAs(r Reader, triple store.Triple) (store.Triple, bool, error) {
	if !triple.Object.IsIRI() || triple.Object.Value == triple.Subject {
		return store.Triple{}, false, nil
	}
	for _, uri := range []string{triple.Subject, triple.Object.Value} {
		kind, exists, err := r.Kind(uri)
		if err != nil || !exists || kind != KindConcept {
			return store.Triple{}, false, err
		}
	}

	reverse := store.NewTriple(triple.Object.Value, triple.Predicate, store.IRI(triple.Subject))
	present, err := r.graph.Has(reverse)
	if err != nil || present {
		return store.Triple{}, false, err
	}
	return reverse, true, nil
}

// Synonyms returns the concepts linked to c by skos:exactMatch or an
// identity property, in either direction. Targets that are not declared
// Concepts are left out.
func (c Concept) Synonyms() ([]string, error) {
	var synonyms []string
	err := c.session.View(func(r Reader) error {
		for _, predicate := range append([]string{vocab.SKOSExactMatch}, sameAsPredicates...) {
			forward, err := r.Links(c.uri, predicate)
			if err != nil {
				return err
			}
			backward, err := r.Subjects(predicate, store.IRI(c.uri))
			if err != nil {
				return err
			}
			for _, uri := range slices.Concat(forward, backward) {
				if uri == c.uri || slices.Contains(synonyms, uri) {
					continue
				}
				kind, exists, err := r.Kind(uri)
				if err != nil {
					return err
				}
				if exists && kind == KindConcept {
					synonyms = append(synonyms, uri)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, opError("synonyms", c.uri, err)
	}
	slices.Sort(synonyms)
	return synonyms, nil
}
