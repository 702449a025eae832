// Package skos is a typed SKOS object model over a triple graph. A Session
// owns the graph handle; Concept, ConceptScheme and Collection are views
// that read the graph on every call and validate every mutation before any
// triple is written.
package skos

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/coolbeans/skosgraph/pkg/metrics"
	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// Session is an explicit handle on one graph and its optional relational
// mirror. Reads share the session lock; mutations hold it exclusively for
// the whole validate-stage-apply-flush sequence.
type Session struct {
	mu sync.RWMutex

	graph     store.Graph
	mirror    Mirror
	logger    *slog.Logger
	metrics   *metrics.Metrics
	lang      string
	autoFlush bool
	normalize func(string) string
}

// Option configures a Session.
type Option func(*Session)

// WithMirror keeps a relational mirror in step with the graph.
func WithMirror(mirror Mirror) Option {
	return func(s *Session) {
		s.mirror = mirror
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records mutation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithLanguage sets the preferred language used for display labels.
func WithLanguage(lang string) Option {
	return func(s *Session) {
		s.lang = strings.ToLower(lang)
	}
}

// WithAutoFlush controls whether each mutation flushes the mirror before
// returning. It defaults to true; with it off, callers batch mutations and
// call Flush themselves.
func WithAutoFlush(enabled bool) Option {
	return func(s *Session) {
		s.autoFlush = enabled
	}
}

// WithURINormalizer rewrites subject and IRI object URIs during Import.
func WithURINormalizer(normalize func(string) string) Option {
	return func(s *Session) {
		s.normalize = normalize
	}
}

// NewSession creates a session over the graph.
func NewSession(graph store.Graph, opts ...Option) *Session {
	s := &Session{
		graph:     graph,
		logger:    slog.Default(),
		lang:      "en",
		autoFlush: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Language returns the session's preferred language.
func (s *Session) Language() string {
	return s.lang
}

// View runs fn with a Reader under the session read lock. Traversals call
// it once per step so writers are not starved by long walks.
func (s *Session) View(fn func(r Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(s.reader())
}

func (s *Session) reader() Reader {
	return NewReader(s.graph)
}

// Kind returns the SKOS kind of the resource.
func (s *Session) Kind(uri string) (ResourceKind, error) {
	var kind ResourceKind
	err := s.View(func(r Reader) error {
		found, ok, err := r.Kind(uri)
		if err != nil {
			return err
		}
		if !ok {
			return opError("kind", uri, ErrNotFound)
		}
		kind = found
		return nil
	})
	return kind, err
}

// Resources lists the URIs of the given kind.
func (s *Session) Resources(kind ResourceKind) ([]string, error) {
	var uris []string
	err := s.View(func(r Reader) error {
		var err error
		uris, err = r.Resources(kind)
		return err
	})
	return uris, err
}

// Flush writes staged changes to the mirror. It is a no-op without one.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flush(ctx)
}

func (s *Session) flush(ctx context.Context) error {
	if s.mirror == nil {
		return nil
	}

	start := time.Now()
	if err := s.mirror.Flush(ctx); err != nil {
		return err
	}
	s.metrics.RecordFlush(time.Since(start))
	s.metrics.SetPending(0)
	return nil
}

// mutate runs one logical operation: build validates against the current
// graph and returns the change set, which is then committed. Validation
// failures are wrapped in *Error; boundary failures are returned as-is.
func (s *Session) mutate(ctx context.Context, op, uri string, build func(r Reader) (store.ChangeSet, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changes, err := build(s.reader())
	if err != nil {
		if kind := rejectionKind(err); kind != "" {
			s.metrics.RecordMutation(op, "rejected")
			s.metrics.RecordRejection(kind)
			s.logger.Debug("mutation rejected", "op", op, "uri", uri, "error", err)
			return opError(op, uri, err)
		}
		s.metrics.RecordMutation(op, "failed")
		return err
	}

	if err := s.commit(ctx, changes); err != nil {
		s.metrics.RecordMutation(op, "failed")
		s.logger.Error("mutation failed", "op", op, "uri", uri, "error", err)
		return err
	}

	s.metrics.RecordMutation(op, "ok")
	if count, err := s.graph.Len(); err == nil {
		s.metrics.SetTriples(count)
	}
	s.logger.Debug("mutation committed", "op", op, "uri", uri,
		"added", len(changes.Add), "removed", len(changes.Remove))
	return nil
}

// commit stages the change set in the mirror, applies it to the graph and
// flushes. If the graph rejects the batch the marker is discarded; if the
// process dies after Apply the marker survives for Recover.
func (s *Session) commit(ctx context.Context, changes store.ChangeSet) error {
	if changes.Empty() {
		return nil
	}

	var opID string
	if s.mirror != nil {
		id, err := s.mirror.Stage(ctx, changes)
		if err != nil {
			return err
		}
		opID = id
	}

	if err := s.graph.Apply(changes); err != nil {
		if s.mirror != nil {
			if discardErr := s.mirror.Discard(ctx, opID); discardErr != nil {
				s.logger.Error("discarding pending operation", "id", opID, "error", discardErr)
			}
		}
		return err
	}

	if s.mirror != nil && s.autoFlush {
		return s.flush(ctx)
	}
	if s.mirror != nil {
		if pending, err := s.mirror.Pending(ctx); err == nil {
			s.metrics.SetPending(len(pending))
		}
	}
	return nil
}

// Delete retracts every triple that mentions the resource: its own
// statements, statements pointing at it, and the list nodes of an ordered
// collection. Ordered collections that contained it are re-linked.
func (s *Session) Delete(ctx context.Context, uri string) error {
	return s.mutate(ctx, "delete", uri, func(r Reader) (store.ChangeSet, error) {
		if _, ok, err := r.Kind(uri); err != nil {
			return store.ChangeSet{}, err
		} else if !ok {
			return store.ChangeSet{}, ErrNotFound
		}

		var changes store.ChangeSet

		outgoing, err := r.Outgoing(uri)
		if err != nil {
			return changes, err
		}
		for _, triple := range outgoing {
			changes.Retract(triple)
			if triple.Predicate == vocab.SKOSMemberList {
				_, listTriples, err := r.List(triple.Object)
				if err != nil {
					return changes, err
				}
				for _, listTriple := range listTriples {
					changes.Retract(listTriple)
				}
			}
		}

		incoming, err := r.Incoming(uri)
		if err != nil {
			return changes, err
		}
		for _, triple := range incoming {
			if triple.Predicate == vocab.RDFFirst {
				continue
			}
			changes.Retract(triple)
			if triple.Predicate != vocab.SKOSMember {
				continue
			}
			kind, _, err := r.Kind(triple.Subject)
			if err != nil {
				return changes, err
			}
			if kind == KindOrderedCollection {
				relink, err := orderedMembersWithout(r, triple.Subject, uri)
				if err != nil {
					return changes, err
				}
				changes.Merge(relink)
			}
		}
		if err := checkSchemeRetraction(r, changes); err != nil {
			return changes, err
		}
		return changes, nil
	})
}

func requireURI(uri string) error {
	if strings.TrimSpace(uri) == "" {
		return fmt.Errorf("%w: empty URI", ErrConstraintViolation)
	}
	return nil
}

// requireKind checks that uri exists with one of the kinds.
func requireKind(r Reader, uri string, kinds ...ResourceKind) (ResourceKind, error) {
	kind, ok, err := r.Kind(uri)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotFound
	}
	for _, want := range kinds {
		if kind == want {
			return kind, nil
		}
	}
	return kind, fmt.Errorf("%w: %s is a %s", ErrWrongKind, uri, kind)
}
