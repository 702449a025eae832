package skos

import (
	"context"

	"github.com/coolbeans/skosgraph/pkg/store"
)

// Mirror is a relational projection of the graph kept in step with every
// mutation. Stage records a pending-operation marker for the change set
// before the graph is touched; Flush projects every staged change and
// clears the markers. A marker left behind after a crash is reported by
// Pending and cleared by Rebuild.
type Mirror interface {
	Stage(ctx context.Context, changes store.ChangeSet) (string, error)
	Flush(ctx context.Context) error
	Discard(ctx context.Context, id string) error
	Pending(ctx context.Context) ([]string, error)
	Rebuild(ctx context.Context, triples []store.Triple) error
}
