package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/skosgraph/pkg/skos"
	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

var _ skos.Mirror = (*Mirror)(nil)

const (
	exBase   = "http://example.org/animals/"
	exScheme = exBase + "scheme"
	exMammal = exBase + "mammal"
	exDog    = exBase + "dog"
	exCat    = exBase + "cat"
)

func openTestMirror(t *testing.T) (*Mirror, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mirror.db")
	m, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, path
}

func requireInSync(t *testing.T, m *Mirror, graph *store.TripleStore) {
	t.Helper()
	dump, err := m.Dump(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Project(graph.All()), dump)
}

func TestMirror_TracksSessionMutations(t *testing.T) {
	ctx := context.Background()
	m, _ := openTestMirror(t)
	graph := store.NewTripleStore()
	s := skos.NewSession(graph, skos.WithMirror(m))

	scheme, err := s.CreateScheme(ctx, exScheme, "Animals", "en")
	require.NoError(t, err)
	mammal, err := s.CreateConcept(ctx, exMammal, skos.NewLabel("Mammal", "en", skos.LabelPreferred))
	require.NoError(t, err)
	dog, err := s.CreateConcept(ctx, exDog, skos.NewLabel("Dog", "en", skos.LabelPreferred))
	require.NoError(t, err)
	_, err = s.CreateConcept(ctx, exCat, skos.NewLabel("Cat", "en", skos.LabelPreferred))
	require.NoError(t, err)
	requireInSync(t, m, graph)

	require.NoError(t, scheme.AddTopConcept(ctx, exMammal))
	require.NoError(t, dog.AddToScheme(ctx, exScheme))
	require.NoError(t, dog.AddRelation(ctx, skos.Broader, exMammal))
	require.NoError(t, dog.AddRelation(ctx, skos.Related, exCat))
	require.NoError(t, dog.AddLabel(ctx, skos.NewLabel("Hound", "en", skos.LabelAlternate)))
	require.NoError(t, dog.AddNote(ctx, skos.Note{Kind: skos.NoteDefinition, Text: "A domesticated canid.", Lang: "en"}))
	requireInSync(t, m, graph)

	broader, err := m.QueryRelations(ctx, exDog, "broader")
	require.NoError(t, err)
	assert.Equal(t, []string{exMammal}, broader)

	narrower, err := m.QueryRelations(ctx, exMammal, "narrower")
	require.NoError(t, err)
	assert.Equal(t, []string{exDog}, narrower)

	members, err := m.QueryMembers(ctx, exScheme)
	require.NoError(t, err)
	assert.Equal(t, []string{exDog, exMammal}, members)

	byLabel, err := m.QueryByLabel(ctx, "Hound", "EN")
	require.NoError(t, err)
	assert.Equal(t, []string{exDog}, byLabel)

	require.NoError(t, dog.RemoveRelation(ctx, skos.Broader, exMammal))
	require.NoError(t, mammal.RemoveFromScheme(ctx, exScheme))
	require.NoError(t, s.Delete(ctx, exCat))
	requireInSync(t, m, graph)

	narrower, err = m.QueryRelations(ctx, exMammal, "narrower")
	require.NoError(t, err)
	assert.Empty(t, narrower)

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMirror_CollectionsProjected(t *testing.T) {
	ctx := context.Background()
	m, _ := openTestMirror(t)
	graph := store.NewTripleStore()
	s := skos.NewSession(graph, skos.WithMirror(m))

	_, err := s.CreateConcept(ctx, exDog)
	require.NoError(t, err)
	coll, err := s.CreateCollection(ctx, exBase+"pets", true)
	require.NoError(t, err)
	require.NoError(t, coll.AddMember(ctx, exDog))
	requireInSync(t, m, graph)

	members, err := m.QueryMembers(ctx, exBase+"pets")
	require.NoError(t, err)
	assert.Equal(t, []string{exDog}, members)
}

func TestMirror_PendingSurvivesReopenAndRecover(t *testing.T) {
	ctx := context.Background()
	m, path := openTestMirror(t)
	graph := store.NewTripleStore()
	s := skos.NewSession(graph, skos.WithMirror(m), skos.WithAutoFlush(false))

	_, err := s.CreateConcept(ctx, exDog, skos.NewLabel("Dog", "en", skos.LabelPreferred))
	require.NoError(t, err)

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NoError(t, m.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	pending, err = reopened.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	recovering := skos.NewSession(graph, skos.WithMirror(reopened))
	recovered, err := recovering.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)
	requireInSync(t, reopened, graph)

	pending, err = reopened.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMirror_FlushAppliesInOrder(t *testing.T) {
	ctx := context.Background()
	m, _ := openTestMirror(t)
	label := store.NewTriple(exDog, vocab.SKOSPrefLabel, store.LangLiteral("Dog", "en"))

	var add, remove store.ChangeSet
	add.Assert(label)
	remove.Retract(label)

	_, err := m.Stage(ctx, add)
	require.NoError(t, err)
	_, err = m.Stage(ctx, remove)
	require.NoError(t, err)
	require.NoError(t, m.Flush(ctx))

	dump, err := m.Dump(ctx)
	require.NoError(t, err)
	assert.Empty(t, dump["labels"])
}

func TestMirror_TypedLiteralsKeepSeparateRows(t *testing.T) {
	ctx := context.Background()
	m, _ := openTestMirror(t)
	graph := store.NewTripleStore()
	plain := store.NewTriple(exDog, vocab.SKOSAltLabel, store.Literal("5"))
	typed := store.NewTriple(exDog, vocab.SKOSAltLabel, store.TypedLiteral("5", vocab.XSDString))
	note := store.NewTriple(exDog, vocab.SKOSNote, store.TypedLiteral("2020-01-01", vocab.XSDDate))

	var add store.ChangeSet
	add.Assert(plain)
	add.Assert(typed)
	add.Assert(note)
	require.NoError(t, graph.Apply(add))
	require.NoError(t, m.Load(ctx, graph.All()))
	requireInSync(t, m, graph)

	dump, err := m.Dump(ctx)
	require.NoError(t, err)
	assert.Len(t, dump["labels"], 2)
	assert.Equal(t, Row{exDog, "note", "2020-01-01", "", vocab.XSDDate}, dump["notes"][0])

	var remove store.ChangeSet
	remove.Retract(typed)
	require.NoError(t, graph.Apply(remove))
	_, err = m.Stage(ctx, remove)
	require.NoError(t, err)
	require.NoError(t, m.Flush(ctx))
	requireInSync(t, m, graph)

	dump, err = m.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, dump["labels"], 1)
	assert.Equal(t, Row{exDog, "alt", "5", "", ""}, dump["labels"][0])
}

func TestMirror_DiscardDropsMarker(t *testing.T) {
	ctx := context.Background()
	m, _ := openTestMirror(t)

	var changes store.ChangeSet
	changes.Assert(store.NewTriple(exDog, vocab.RDFType, store.IRI(vocab.ClassConcept)))
	id, err := m.Stage(ctx, changes)
	require.NoError(t, err)

	require.NoError(t, m.Discard(ctx, id))
	require.NoError(t, m.Flush(ctx))

	dump, err := m.Dump(ctx)
	require.NoError(t, err)
	assert.Empty(t, dump["resources"])
}

func TestMirror_LoadAndRebuild(t *testing.T) {
	ctx := context.Background()
	m, _ := openTestMirror(t)
	triples := []store.Triple{
		store.NewTriple(exDog, vocab.RDFType, store.IRI(vocab.ClassConcept)),
		store.NewTriple(exDog, vocab.SKOSNotation, store.Literal("A-12")),
		store.NewTriple("_:l1", vocab.RDFFirst, store.IRI(exDog)),
	}

	require.NoError(t, m.Load(ctx, triples))
	dump, err := m.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{"resources": {{exDog, "Concept"}}}, dump)

	require.NoError(t, m.Rebuild(ctx, triples[1:]))
	dump, err = m.Dump(ctx)
	require.NoError(t, err)
	assert.Empty(t, dump)
}

func TestMirror_ClosedIsUnavailable(t *testing.T) {
	m, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, m.Close())

	_, err = m.Pending(context.Background())
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)

	_, err = m.Stage(context.Background(), store.ChangeSet{})
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
}
