package skos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// Collection is a typed view of a skos:Collection or
// skos:OrderedCollection.
type Collection struct {
	resource
}

// CreateCollection declares a new collection. Ordered collections keep
// their members in an skos:memberList.
func (s *Session) CreateCollection(ctx context.Context, uri string, ordered bool) (Collection, error) {
	kind := KindCollection
	if ordered {
		kind = KindOrderedCollection
	}
	err := s.create(ctx, "create_collection", uri, kind, func(changes *store.ChangeSet) {
		if ordered {
			changes.Assert(store.NewTriple(uri, vocab.SKOSMemberList, store.IRI(vocab.RDFNil)))
		}
	})
	if err != nil {
		return Collection{}, err
	}
	return Collection{resource{session: s, uri: uri}}, nil
}

// Collection returns the view of an existing collection.
func (s *Session) Collection(uri string) (Collection, error) {
	err := s.View(func(r Reader) error {
		_, err := requireKind(r, uri, KindCollection, KindOrderedCollection)
		return err
	})
	if err != nil {
		return Collection{}, opError("collection", uri, err)
	}
	return Collection{resource{session: s, uri: uri}}, nil
}

// Ordered reports whether the collection is an OrderedCollection.
func (c Collection) Ordered() (bool, error) {
	kind, err := c.session.Kind(c.uri)
	return kind == KindOrderedCollection, err
}

// Label returns the collection's skos:prefLabel in lang, falling back to
// its title.
func (c Collection) Label(lang string) (string, error) {
	lang = strings.ToLower(lang)

	var label string
	err := c.session.View(func(r Reader) error {
		prefs, err := r.Objects(c.uri, vocab.SKOSPrefLabel)
		if err != nil {
			return err
		}
		for _, term := range prefs {
			if term.IsLiteral() && term.Lang == lang {
				label = term.Value
				return nil
			}
		}
		return nil
	})
	if err != nil || label != "" {
		return label, err
	}
	return c.Title(lang)
}

// SetLabel replaces the collection's skos:prefLabel in lang.
func (c Collection) SetLabel(ctx context.Context, text, lang string) error {
	return c.replaceLiteral(ctx, "set_label", vocab.SKOSPrefLabel, text, lang)
}

// Members returns the member URIs. Ordered collections return list order;
// unordered ones are sorted.
func (c Collection) Members() ([]string, error) {
	var members []string
	err := c.session.View(func(r Reader) error {
		var err error
		members, err = collectionMembers(r, c.uri)
		return err
	})
	return members, err
}

func collectionMembers(r Reader, uri string) ([]string, error) {
	kind, _, err := r.Kind(uri)
	if err != nil {
		return nil, err
	}
	if kind != KindOrderedCollection {
		return r.Links(uri, vocab.SKOSMember)
	}

	heads, err := r.Objects(uri, vocab.SKOSMemberList)
	if err != nil || len(heads) == 0 {
		return nil, err
	}
	items, _, err := r.List(heads[0])
	if err != nil {
		return nil, err
	}

	members := make([]string, 0, len(items))
	for _, item := range items {
		if item.IsIRI() {
			members = append(members, item.Value)
		}
	}
	return members, nil
}

// Date returns the collection's dct:date (or dc:date) parsed as ISO-8601.
// ok is false when no date is set; an unparsable value fails with
// vocab.ErrMalformedLiteral.
func (c Collection) Date() (date time.Time, ok bool, err error) {
	err = c.session.View(func(r Reader) error {
		for _, predicate := range []string{vocab.DCTermsDate, vocab.DCDate} {
			objects, err := r.Objects(c.uri, predicate)
			if err != nil {
				return err
			}
			for _, object := range objects {
				if !object.IsLiteral() {
					continue
				}
				parsed, err := vocab.ParseDateTime(object.Value)
				if err != nil {
					return opError("date", c.uri, err)
				}
				date, ok = parsed, true
				return nil
			}
		}
		return nil
	})
	return date, ok, err
}

// SetDate replaces the collection's dct:date with an xsd:dateTime literal.
func (c Collection) SetDate(ctx context.Context, date time.Time) error {
	return c.session.mutate(ctx, "set_date", c.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if _, err := requireKind(r, c.uri, KindCollection, KindOrderedCollection); err != nil {
			return changes, err
		}
		for _, predicate := range []string{vocab.DCTermsDate, vocab.DCDate} {
			existing, err := r.Objects(c.uri, predicate)
			if err != nil {
				return changes, err
			}
			for _, object := range existing {
				changes.Retract(store.NewTriple(c.uri, predicate, object))
			}
		}
		changes.Assert(store.NewTriple(c.uri, vocab.DCTermsDate,
			store.TypedLiteral(vocab.FormatDateTime(date), vocab.XSDDateTime)))
		return changes, nil
	})
}

// AddMember adds a Concept or Collection. Adding the collection to itself,
// or a collection that already contains it, fails with
// ErrConstraintViolation.
func (c Collection) AddMember(ctx context.Context, member string) error {
	return c.session.mutate(ctx, "add_member", c.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		kind, err := requireKind(r, c.uri, KindCollection, KindOrderedCollection)
		if err != nil {
			return changes, err
		}
		if _, err := requireKind(r, member, KindConcept, KindCollection, KindOrderedCollection); err != nil {
			return changes, fmt.Errorf("member %s: %w", member, err)
		}
		if member == c.uri {
			return changes, fmt.Errorf("%w: collection %s cannot contain itself", ErrConstraintViolation, c.uri)
		}
		reaches, err := memberReaches(r, member, c.uri)
		if err != nil {
			return changes, err
		}
		if reaches {
			return changes, fmt.Errorf("%w: %s already contains %s", ErrConstraintViolation, member, c.uri)
		}

		present, err := r.Has(c.uri, vocab.SKOSMember, store.IRI(member))
		if err != nil || present {
			return changes, err
		}

		changes.Assert(store.NewTriple(c.uri, vocab.SKOSMember, store.IRI(member)))
		if kind == KindOrderedCollection {
			members, err := collectionMembers(r, c.uri)
			if err != nil {
				return changes, err
			}
			relink, err := relinkList(r, c.uri, append(members, member))
			if err != nil {
				return changes, err
			}
			changes.Merge(relink)
		}
		return changes, nil
	})
}

// RemoveMember removes a member. Removing an absent member is a no-op.
func (c Collection) RemoveMember(ctx context.Context, member string) error {
	return c.session.mutate(ctx, "remove_member", c.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		kind, err := requireKind(r, c.uri, KindCollection, KindOrderedCollection)
		if err != nil {
			return changes, err
		}

		present, err := r.Has(c.uri, vocab.SKOSMember, store.IRI(member))
		if err != nil || !present {
			return changes, err
		}
		changes.Retract(store.NewTriple(c.uri, vocab.SKOSMember, store.IRI(member)))

		if kind == KindOrderedCollection {
			relink, err := orderedMembersWithout(r, c.uri, member)
			if err != nil {
				return changes, err
			}
			changes.Merge(relink)
		}
		return changes, nil
	})
}

// orderedMembersWithout rebuilds an ordered collection's list without one
// member.
func orderedMembersWithout(r Reader, collection, member string) (store.ChangeSet, error) {
	members, err := collectionMembers(r, collection)
	if err != nil {
		return store.ChangeSet{}, err
	}

	kept := members[:0]
	for _, existing := range members {
		if existing != member {
			kept = append(kept, existing)
		}
	}
	return relinkList(r, collection, kept)
}

// relinkList retracts the collection's current memberList and asserts a
// fresh one holding members in order.
func relinkList(r Reader, collection string, members []string) (store.ChangeSet, error) {
	var changes store.ChangeSet

	heads, err := r.Objects(collection, vocab.SKOSMemberList)
	if err != nil {
		return changes, err
	}
	for _, head := range heads {
		changes.Retract(store.NewTriple(collection, vocab.SKOSMemberList, head))
		_, listTriples, err := r.List(head)
		if err != nil {
			return changes, err
		}
		for _, triple := range listTriples {
			changes.Retract(triple)
		}
	}

	head, listTriples := buildList(members)
	changes.Assert(store.NewTriple(collection, vocab.SKOSMemberList, head))
	for _, triple := range listTriples {
		changes.Assert(triple)
	}
	return changes, nil
}

// buildList encodes members as an RDF collection of fresh blank nodes.
func buildList(members []string) (store.Term, []store.Triple) {
	if len(members) == 0 {
		return store.IRI(vocab.RDFNil), nil
	}

	nodes := make([]string, len(members))
	for i := range members {
		nodes[i] = "_:l" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	triples := make([]store.Triple, 0, 2*len(members))
	for i, member := range members {
		rest := store.IRI(vocab.RDFNil)
		if i+1 < len(nodes) {
			rest = store.Blank(nodes[i+1])
		}
		triples = append(triples,
			store.NewTriple(nodes[i], vocab.RDFFirst, store.IRI(member)),
			store.NewTriple(nodes[i], vocab.RDFRest, rest),
		)
	}
	return store.Blank(nodes[0]), triples
}
