package skos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

func TestCollection_SelfMembershipFails(t *testing.T) {
	ctx := context.Background()
	s, graph := newTestSession(t)
	mustConcept(t, s, exMammal, NewLabel("Mammal", "en", LabelPreferred))
	coll, err := s.CreateCollection(ctx, exBase+"coll1", false)
	require.NoError(t, err)
	require.NoError(t, coll.AddMember(ctx, exMammal))
	before := tripleCount(t, graph)

	err = coll.AddMember(ctx, coll.URI())
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.Equal(t, before, tripleCount(t, graph))
}

func TestCollection_TransitiveMembershipFails(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)
	outer, err := s.CreateCollection(ctx, exBase+"outer", false)
	require.NoError(t, err)
	inner, err := s.CreateCollection(ctx, exBase+"inner", true)
	require.NoError(t, err)

	require.NoError(t, outer.AddMember(ctx, inner.URI()))
	assert.ErrorIs(t, inner.AddMember(ctx, outer.URI()), ErrConstraintViolation)
}

func TestCollection_MemberMustExist(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)
	coll, err := s.CreateCollection(ctx, exBase+"coll", false)
	require.NoError(t, err)
	_, err = s.CreateScheme(ctx, exScheme, "", "")
	require.NoError(t, err)

	assert.ErrorIs(t, coll.AddMember(ctx, exBase+"ghost"), ErrNotFound)
	assert.ErrorIs(t, coll.AddMember(ctx, exScheme), ErrWrongKind)
}

func TestCollection_OrderedMembers(t *testing.T) {
	ctx := context.Background()
	s, graph := newTestSession(t)
	for _, uri := range []string{exDog, exCat, exMammal} {
		mustConcept(t, s, uri)
	}
	coll, err := s.CreateCollection(ctx, exBase+"ordered", true)
	require.NoError(t, err)

	ordered, err := coll.Ordered()
	require.NoError(t, err)
	assert.True(t, ordered)

	require.NoError(t, coll.AddMember(ctx, exDog))
	require.NoError(t, coll.AddMember(ctx, exCat))
	require.NoError(t, coll.AddMember(ctx, exMammal))
	require.NoError(t, coll.AddMember(ctx, exCat))

	members, err := coll.Members()
	require.NoError(t, err)
	assert.Equal(t, []string{exDog, exCat, exMammal}, members)

	require.NoError(t, coll.RemoveMember(ctx, exCat))
	members, err = coll.Members()
	require.NoError(t, err)
	assert.Equal(t, []string{exDog, exMammal}, members)

	// Old list nodes are retracted when the list is rebuilt.
	firsts, err := store.Collect(graph, store.NewPattern("", vocab.RDFFirst, store.Term{}))
	require.NoError(t, err)
	assert.Len(t, firsts, 2)
}

func TestCollection_UnorderedMembers(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)
	mustConcept(t, s, exDog)
	mustConcept(t, s, exCat)
	coll, err := s.CreateCollection(ctx, exBase+"pets", false)
	require.NoError(t, err)

	require.NoError(t, coll.AddMember(ctx, exDog))
	require.NoError(t, coll.AddMember(ctx, exCat))

	members, err := coll.Members()
	require.NoError(t, err)
	assert.Equal(t, []string{exCat, exDog}, members)

	require.NoError(t, coll.RemoveMember(ctx, exBase+"absent"))
}

func TestCollection_Metadata(t *testing.T) {
	ctx := context.Background()
	s, graph := newTestSession(t)
	coll, err := s.CreateCollection(ctx, exBase+"pets", false)
	require.NoError(t, err)

	require.NoError(t, coll.SetTitle(ctx, "Pets", "en"))
	require.NoError(t, coll.SetTitle(ctx, "Household pets", "en"))
	require.NoError(t, coll.SetDescription(ctx, "Animals kept at home", "en"))

	title, err := coll.Title("en")
	require.NoError(t, err)
	assert.Equal(t, "Household pets", title)

	label, err := coll.Label("en")
	require.NoError(t, err)
	assert.Equal(t, "Household pets", label)

	require.NoError(t, coll.SetLabel(ctx, "Pets", "en"))
	label, err = coll.Label("en")
	require.NoError(t, err)
	assert.Equal(t, "Pets", label)

	description, err := coll.Description("en")
	require.NoError(t, err)
	assert.Equal(t, "Animals kept at home", description)

	_, ok, err := coll.Date()
	require.NoError(t, err)
	assert.False(t, ok)

	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	require.NoError(t, coll.SetDate(ctx, when))
	date, ok, err := coll.Date()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, date.Equal(when))

	// A dc:date written outside the session is still parsed on read.
	require.NoError(t, graph.Apply(store.ChangeSet{
		Remove: []store.Triple{store.NewTriple(coll.URI(), vocab.DCTermsDate,
			store.TypedLiteral(vocab.FormatDateTime(when), vocab.XSDDateTime))},
		Add: []store.Triple{store.NewTriple(coll.URI(), vocab.DCDate, store.Literal("2024-02-30"))},
	}))
	_, _, err = coll.Date()
	assert.ErrorIs(t, err, vocab.ErrMalformedLiteral)
}

func TestScheme_TopConcepts(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)
	scheme, err := s.CreateScheme(ctx, exScheme, "Animals", "en")
	require.NoError(t, err)
	animal := mustConcept(t, s, exAnimal)
	dog := mustConcept(t, s, exDog)

	require.NoError(t, scheme.AddTopConcept(ctx, exAnimal))
	require.NoError(t, dog.AddToScheme(ctx, exScheme))

	tops, err := scheme.TopConcepts()
	require.NoError(t, err)
	assert.Equal(t, []string{exAnimal}, tops)

	members, err := scheme.Members()
	require.NoError(t, err)
	assert.Equal(t, []string{exAnimal, exDog}, members)

	topOf, err := animal.TopConceptOf()
	require.NoError(t, err)
	assert.Equal(t, []string{exScheme}, topOf)

	title, err := scheme.Title("en")
	require.NoError(t, err)
	assert.Equal(t, "Animals", title)

	// Leaving the scheme drops the top concept links with it.
	require.NoError(t, animal.RemoveFromScheme(ctx, exScheme))
	tops, err = scheme.TopConcepts()
	require.NoError(t, err)
	assert.Empty(t, tops)

	require.NoError(t, scheme.AddTopConcept(ctx, exAnimal))
	require.NoError(t, scheme.RemoveTopConcept(ctx, exAnimal))
	schemes, err := animal.Schemes()
	require.NoError(t, err)
	assert.Equal(t, []string{exScheme}, schemes)

	assert.ErrorIs(t, scheme.AddTopConcept(ctx, exBase+"ghost"), ErrNotFound)
	assert.ErrorIs(t, dog.AddToScheme(ctx, exCat), ErrNotFound)
}
