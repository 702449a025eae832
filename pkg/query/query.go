// Package query answers traversal and lookup questions over a SKOS
// session: transitive ancestors and descendants, one-level neighbours,
// labels, scheme membership and hierarchy paths.
package query

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/coolbeans/skosgraph/pkg/skos"
	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// ErrInconsistentGraph is returned when a traversal meets a hierarchical
// edge whose inverse is missing.
var ErrInconsistentGraph = skos.ErrInconsistentGraph

// LabelIndex finds resources by exact label text. *persist.Mirror
// implements it.
type LabelIndex interface {
	QueryByLabel(ctx context.Context, text, lang string) ([]string, error)
}

// Hit is one concept reached by a traversal.
type Hit struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
	// Depth is the number of hierarchical steps from the start concept.
	Depth int `json:"depth"`
	// Via is the concept the hit was reached from.
	Via string `json:"via"`
}

// Engine runs queries against a session.
type Engine struct {
	session *skos.Session
	index   LabelIndex
	lang    string
}

// Option configures an Engine.
type Option func(*Engine)

// WithMirror answers label lookups from a relational index instead of
// scanning the graph.
func WithMirror(index LabelIndex) Option {
	return func(e *Engine) {
		e.index = index
	}
}

// WithLanguage sets the language used for hit labels. It defaults to the
// session language.
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		e.lang = strings.ToLower(lang)
	}
}

// New creates a query engine over the session.
func New(session *skos.Session, opts ...Option) *Engine {
	e := &Engine{session: session, lang: session.Language()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// direction is one way along the hierarchy.
type direction struct {
	forward string // predicate followed from the current concept
	inverse string // predicate pointing back at the current concept
}

var (
	up   = direction{forward: vocab.SKOSBroader, inverse: vocab.SKOSNarrower}
	down = direction{forward: vocab.SKOSNarrower, inverse: vocab.SKOSBroader}
)

// Ancestors yields every concept reachable over broader edges, nearest
// first. The sequence is lazy: each level is read under its own read lock.
// A one-directional broader/narrower edge stops it with
// ErrInconsistentGraph.
func (e *Engine) Ancestors(uri string) iter.Seq2[Hit, error] {
	return e.walk(uri, up)
}

// Descendants yields every concept reachable over narrower edges, nearest
// first.
func (e *Engine) Descendants(uri string) iter.Seq2[Hit, error] {
	return e.walk(uri, down)
}

func (e *Engine) walk(start string, dir direction) iter.Seq2[Hit, error] {
	return func(yield func(Hit, error) bool) {
		if err := e.requireConcept(start); err != nil {
			yield(Hit{}, err)
			return
		}

		visited := map[string]bool{start: true}
		frontier := []string{start}
		for depth := 1; len(frontier) > 0; depth++ {
			var level []Hit
			err := e.session.View(func(r skos.Reader) error {
				for _, node := range frontier {
					next, err := neighbours(r, node, dir)
					if err != nil {
						return err
					}
					for _, uri := range next {
						if visited[uri] {
							continue
						}
						visited[uri] = true
						label, err := r.DisplayLabel(uri, e.lang)
						if err != nil {
							return err
						}
						level = append(level, Hit{URI: uri, Label: label, Depth: depth, Via: node})
					}
				}
				return nil
			})
			if err != nil {
				yield(Hit{}, err)
				return
			}

			frontier = frontier[:0]
			for _, hit := range level {
				if !yield(hit, nil) {
					return
				}
				frontier = append(frontier, hit.URI)
			}
		}
	}
}

// neighbours returns the concepts one step from uri in dir, reading both
// the forward predicate and the inverse predicate pointing at uri. Each
// edge must be present in both directions.
func neighbours(r skos.Reader, uri string, dir direction) ([]string, error) {
	forward, err := r.Links(uri, dir.forward)
	if err != nil {
		return nil, err
	}
	backward, err := r.Subjects(dir.inverse, store.IRI(uri))
	if err != nil {
		return nil, err
	}

	for _, target := range forward {
		if !slices.Contains(backward, target) {
			return nil, fmt.Errorf("%w: %s %s %s has no %s counterpart", ErrInconsistentGraph,
				uri, vocab.LocalName(dir.forward), target, vocab.LocalName(dir.inverse))
		}
	}
	for _, source := range backward {
		if !slices.Contains(forward, source) {
			return nil, fmt.Errorf("%w: %s %s %s has no %s counterpart", ErrInconsistentGraph,
				source, vocab.LocalName(dir.inverse), uri, vocab.LocalName(dir.forward))
		}
	}
	return forward, nil
}

// Broaders returns the direct broader concepts.
func (e *Engine) Broaders(uri string) ([]Hit, error) {
	return e.step(uri, up)
}

// Narrowers returns the direct narrower concepts.
func (e *Engine) Narrowers(uri string) ([]Hit, error) {
	return e.step(uri, down)
}

func (e *Engine) step(uri string, dir direction) ([]Hit, error) {
	if err := e.requireConcept(uri); err != nil {
		return nil, err
	}

	var hits []Hit
	err := e.session.View(func(r skos.Reader) error {
		next, err := neighbours(r, uri, dir)
		if err != nil {
			return err
		}
		for _, target := range next {
			label, err := r.DisplayLabel(target, e.lang)
			if err != nil {
				return err
			}
			hits = append(hits, Hit{URI: target, Label: label, Depth: 1, Via: uri})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// Path returns the shortest chain of concepts from one concept to another
// following broader edges, both ends included. ok is false when to is not
// an ancestor of from.
func (e *Engine) Path(from, to string) (path []string, ok bool, err error) {
	if from == to {
		if err := e.requireConcept(from); err != nil {
			return nil, false, err
		}
		return []string{from}, true, nil
	}

	via := make(map[string]string)
	for hit, err := range e.Ancestors(from) {
		if err != nil {
			return nil, false, err
		}
		via[hit.URI] = hit.Via
		if hit.URI != to {
			continue
		}
		for node := to; node != from; node = via[node] {
			path = append(path, node)
		}
		path = append(path, from)
		slices.Reverse(path)
		return path, true, nil
	}
	return nil, false, nil
}

// Labels returns the concept's labels in lang, preferred first. An empty
// lang returns every label.
func (e *Engine) Labels(uri, lang string) ([]skos.Label, error) {
	concept, err := e.session.Concept(uri)
	if err != nil {
		return nil, err
	}
	all, err := concept.AllLabels()
	if err != nil {
		return nil, err
	}

	lang = strings.ToLower(lang)
	var labels []skos.Label
	for _, label := range all {
		if lang == "" || label.Lang == lang {
			labels = append(labels, label)
		}
	}
	return labels, nil
}

// FindByLabel returns the resources whose preferred, alternate or hidden
// label is exactly text. An empty lang matches every language.
func (e *Engine) FindByLabel(ctx context.Context, text, lang string) ([]string, error) {
	if e.index != nil {
		return e.index.QueryByLabel(ctx, text, lang)
	}

	lang = strings.ToLower(lang)
	var uris []string
	err := e.session.View(func(r skos.Reader) error {
		for _, kind := range []skos.LabelKind{skos.LabelPreferred, skos.LabelAlternate, skos.LabelHidden} {
			triples, err := r.Match(store.NewPattern("", kind.Predicate(), store.Term{}))
			if err != nil {
				return err
			}
			for _, triple := range triples {
				object := triple.Object
				if object.IsLiteral() && object.Value == text && (lang == "" || object.Lang == lang) &&
					!slices.Contains(uris, triple.Subject) {
					uris = append(uris, triple.Subject)
				}
			}
		}
		return nil
	})
	slices.Sort(uris)
	return uris, err
}

// SchemeMembers returns the concepts in a scheme.
func (e *Engine) SchemeMembers(scheme string) ([]string, error) {
	cs, err := e.session.Scheme(scheme)
	if err != nil {
		return nil, err
	}
	return cs.Members()
}

// TopConcepts returns a scheme's top concepts.
func (e *Engine) TopConcepts(scheme string) ([]string, error) {
	cs, err := e.session.Scheme(scheme)
	if err != nil {
		return nil, err
	}
	return cs.TopConcepts()
}

func (e *Engine) requireConcept(uri string) error {
	_, err := e.session.Concept(uri)
	return err
}
