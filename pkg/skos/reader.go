package skos

import (
	"sort"
	"strings"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// Reader reads SKOS structure from a graph. It holds no lock of its own;
// use it through Session.View when the graph is shared.
type Reader struct {
	graph store.Graph
}

// NewReader wraps a graph for reading.
func NewReader(graph store.Graph) Reader {
	return Reader{graph: graph}
}

// Match returns the triples selected by the pattern.
func (r Reader) Match(pattern store.Pattern) ([]store.Triple, error) {
	return store.Collect(r.graph, pattern)
}

// Objects returns the objects of (subject, predicate, *).
func (r Reader) Objects(subject, predicate string) ([]store.Term, error) {
	triples, err := r.Match(store.NewPattern(subject, predicate, store.Term{}))
	if err != nil {
		return nil, err
	}

	objects := make([]store.Term, 0, len(triples))
	for _, triple := range triples {
		objects = append(objects, triple.Object)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key() < objects[j].Key() })
	return objects, nil
}

// Links returns the IRI objects of (subject, predicate, *), sorted.
func (r Reader) Links(subject, predicate string) ([]string, error) {
	objects, err := r.Objects(subject, predicate)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(objects))
	for _, object := range objects {
		if object.IsIRI() {
			links = append(links, object.Value)
		}
	}
	return links, nil
}

// Subjects returns the subjects of (*, predicate, object), sorted.
func (r Reader) Subjects(predicate string, object store.Term) ([]string, error) {
	triples, err := r.Match(store.NewPattern("", predicate, object))
	if err != nil {
		return nil, err
	}

	subjects := make([]string, 0, len(triples))
	for _, triple := range triples {
		subjects = append(subjects, triple.Subject)
	}
	sort.Strings(subjects)
	return subjects, nil
}

// Has reports whether the triple is present.
func (r Reader) Has(subject, predicate string, object store.Term) (bool, error) {
	return r.graph.Has(store.NewTriple(subject, predicate, object))
}

// Kind returns the SKOS kind of uri. An OrderedCollection type wins over
// Collection; otherwise the first recognized class in Concept,
// ConceptScheme, Collection order is used.
func (r Reader) Kind(uri string) (ResourceKind, bool, error) {
	types, err := r.Links(uri, vocab.RDFType)
	if err != nil {
		return "", false, err
	}

	found := make(map[ResourceKind]bool, len(types))
	for _, class := range types {
		if kind, ok := kindForClass(class); ok {
			found[kind] = true
		}
	}

	for _, kind := range []ResourceKind{KindOrderedCollection, KindConcept, KindConceptScheme, KindCollection} {
		if found[kind] {
			return kind, true, nil
		}
	}
	return "", false, nil
}

// Resources returns the URIs typed with the kind's class, sorted.
func (r Reader) Resources(kind ResourceKind) ([]string, error) {
	subjects, err := r.Subjects(vocab.RDFType, store.IRI(kind.Class()))
	if err != nil {
		return nil, err
	}

	resources := subjects[:0]
	for _, subject := range subjects {
		actual, _, err := r.Kind(subject)
		if err != nil {
			return nil, err
		}
		if actual == kind {
			resources = append(resources, subject)
		}
	}
	return resources, nil
}

// Outgoing returns every triple with uri as subject.
func (r Reader) Outgoing(uri string) ([]store.Triple, error) {
	return r.Match(store.NewPattern(uri, "", store.Term{}))
}

// Incoming returns every triple with uri as an IRI object.
func (r Reader) Incoming(uri string) ([]store.Triple, error) {
	return r.Match(store.NewPattern("", "", store.Node(uri)))
}

// DisplayLabel returns the display name of uri in lang, using the same
// fallback chain as Concept.DisplayLabel.
func (r Reader) DisplayLabel(uri, lang string) (string, error) {
	return displayLabel(r, uri, strings.ToLower(lang))
}

// List walks an RDF collection starting at head and returns its items
// together with the triples that make up the list.
func (r Reader) List(head store.Term) ([]store.Term, []store.Triple, error) {
	var (
		items   []store.Term
		triples []store.Triple
		seen    = make(map[string]bool)
	)

	node := head
	for node.IsResource() && node.Value != vocab.RDFNil {
		if seen[node.Value] {
			break
		}
		seen[node.Value] = true

		firsts, err := r.Objects(node.Value, vocab.RDFFirst)
		if err != nil {
			return nil, nil, err
		}
		rests, err := r.Objects(node.Value, vocab.RDFRest)
		if err != nil {
			return nil, nil, err
		}

		for _, first := range firsts {
			items = append(items, first)
			triples = append(triples, store.NewTriple(node.Value, vocab.RDFFirst, first))
		}
		if len(rests) == 0 {
			break
		}
		triples = append(triples, store.NewTriple(node.Value, vocab.RDFRest, rests[0]))
		node = rests[0]
	}
	return items, triples, nil
}
