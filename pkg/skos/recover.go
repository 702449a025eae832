package skos

import (
	"context"

	"github.com/coolbeans/skosgraph/pkg/store"
)

// Recover reconciles the mirror after a crash. If pending-operation
// markers are left over, the mirror is rebuilt from the graph, which is the
// source of truth, and the markers are cleared. It returns the number of
// markers found.
func (s *Session) Recover(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mirror == nil {
		return 0, nil
	}

	pending, err := s.mirror.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	s.logger.Warn("mirror has pending operations, rebuilding from graph", "pending", len(pending))
	if err := s.rebuildMirror(ctx); err != nil {
		return 0, err
	}
	return len(pending), nil
}

// RebuildMirror replaces the mirror contents with a projection of the
// whole graph.
func (s *Session) RebuildMirror(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mirror == nil {
		return nil
	}
	return s.rebuildMirror(ctx)
}

func (s *Session) rebuildMirror(ctx context.Context) error {
	triples, err := store.Collect(s.graph, store.Pattern{})
	if err != nil {
		return err
	}
	if err := s.mirror.Rebuild(ctx, triples); err != nil {
		return err
	}
	s.metrics.SetPending(0)
	s.logger.Info("mirror rebuilt", "triples", len(triples))
	return nil
}
