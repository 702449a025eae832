package skos

import (
	"strings"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

var (
	labelPredicates = []string{
		vocab.SKOSPrefLabel, vocab.SKOSAltLabel, vocab.SKOSHiddenLabel, vocab.RDFSLabel,
	}
	metadataPredicates = []string{
		vocab.DCTitle, vocab.DCDescription, vocab.DCTermsTitle, vocab.DCTermsDescription,
	}
)

// exportedPredicates lists, per kind, the properties a typed view reads.
var exportedPredicates = map[ResourceKind][]string{
	KindConcept: concat(labelPredicates, metadataPredicates, []string{
		vocab.SKOSNotation, vocab.SKOSInScheme, vocab.SKOSTopConceptOf,
	}, notePredicates(), relationPredicates(), sameAsPredicates),
	KindConceptScheme: concat(labelPredicates, metadataPredicates, []string{
		vocab.SKOSHasTopConcept,
	}, notePredicates()),
	KindCollection: concat(labelPredicates, metadataPredicates, []string{
		vocab.SKOSMember, vocab.DCDate, vocab.DCTermsDate,
	}, notePredicates()),
	KindOrderedCollection: concat(labelPredicates, metadataPredicates, []string{
		vocab.SKOSMember, vocab.SKOSMemberList, vocab.DCDate, vocab.DCTermsDate,
	}, notePredicates()),
}

// Export rebuilds the triple set from the typed views: every Concept,
// ConceptScheme and Collection with the properties the object model
// understands, plus the list nodes of ordered collections. Triples the
// model does not read are left out.
func (s *Session) Export() ([]store.Triple, error) {
	var triples []store.Triple

	err := s.View(func(r Reader) error {
		for _, kind := range []ResourceKind{KindConceptScheme, KindConcept, KindCollection, KindOrderedCollection} {
			uris, err := r.Resources(kind)
			if err != nil {
				return err
			}
			for _, uri := range uris {
				resourceTriples, err := exportResource(r, uri, kind)
				if err != nil {
					return err
				}
				triples = append(triples, resourceTriples...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	store.SortTriples(triples)
	return triples, nil
}

func exportResource(r Reader, uri string, kind ResourceKind) ([]store.Triple, error) {
	var triples []store.Triple

	types, err := r.Objects(uri, vocab.RDFType)
	if err != nil {
		return nil, err
	}
	for _, class := range types {
		if class.IsIRI() && strings.HasPrefix(class.Value, vocab.NamespaceSKOS) {
			triples = append(triples, store.NewTriple(uri, vocab.RDFType, class))
		}
	}

	for _, predicate := range exportedPredicates[kind] {
		objects, err := r.Objects(uri, predicate)
		if err != nil {
			return nil, err
		}
		for _, object := range objects {
			triples = append(triples, store.NewTriple(uri, predicate, object))
			if predicate == vocab.SKOSMemberList {
				_, listTriples, err := r.List(object)
				if err != nil {
					return nil, err
				}
				triples = append(triples, listTriples...)
			}
		}
	}
	return triples, nil
}

func notePredicates() []string {
	predicates := make([]string, 0, len(noteKinds))
	for _, kind := range noteKinds {
		predicates = append(predicates, kind.Predicate())
	}
	return predicates
}

func relationPredicates() []string {
	predicates := make([]string, 0, len(RelationKinds))
	for _, kind := range RelationKinds {
		predicates = append(predicates, kind.Predicate())
	}
	return predicates
}

func concat(groups ...[]string) []string {
	var all []string
	for _, group := range groups {
		all = append(all, group...)
	}
	return all
}
