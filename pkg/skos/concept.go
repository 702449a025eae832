package skos

import (
	"context"
	"fmt"
	"strings"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// Concept is a typed view of a skos:Concept.
type Concept struct {
	resource
}

// CreateConcept declares a new Concept with optional preferred labels.
func (s *Session) CreateConcept(ctx context.Context, uri string, prefLabels ...Label) (Concept, error) {
	seen := make(map[string]bool, len(prefLabels))
	for _, label := range prefLabels {
		label = NewLabel(label.Text, label.Lang, LabelPreferred)
		if err := label.validate(); err != nil {
			return Concept{}, opError("create_concept", uri, err)
		}
		if seen[label.Lang] {
			return Concept{}, opError("create_concept", uri,
				fmt.Errorf("%w: two preferred labels for language %q", ErrConstraintViolation, label.Lang))
		}
		seen[label.Lang] = true
	}

	err := s.create(ctx, "create_concept", uri, KindConcept, func(changes *store.ChangeSet) {
		for _, label := range prefLabels {
			label = NewLabel(label.Text, label.Lang, LabelPreferred)
			changes.Assert(store.NewTriple(uri, vocab.SKOSPrefLabel, label.Term()))
		}
	})
	if err != nil {
		return Concept{}, err
	}
	return Concept{resource{session: s, uri: uri}}, nil
}

// Concept returns the view of an existing Concept.
func (s *Session) Concept(uri string) (Concept, error) {
	err := s.View(func(r Reader) error {
		_, err := requireKind(r, uri, KindConcept)
		return err
	})
	if err != nil {
		return Concept{}, opError("concept", uri, err)
	}
	return Concept{resource{session: s, uri: uri}}, nil
}

// PrefLabel returns the preferred label in lang.
func (c Concept) PrefLabel(lang string) (Label, bool, error) {
	labels, err := c.Labels(LabelPreferred)
	if err != nil {
		return Label{}, false, err
	}
	lang = strings.ToLower(lang)
	for _, label := range labels {
		if label.Lang == lang {
			return label, true, nil
		}
	}
	return Label{}, false, nil
}

// Labels returns the labels of one kind.
func (c Concept) Labels(kind LabelKind) ([]Label, error) {
	var labels []Label
	err := c.session.View(func(r Reader) error {
		objects, err := r.Objects(c.uri, kind.Predicate())
		if err != nil {
			return err
		}
		for _, object := range objects {
			if label, ok := labelFromTerm(object, kind); ok {
				labels = append(labels, label)
			}
		}
		return nil
	})
	return labels, err
}

// AllLabels returns preferred, alternate and hidden labels, in that order.
func (c Concept) AllLabels() ([]Label, error) {
	var all []Label
	for _, kind := range []LabelKind{LabelPreferred, LabelAlternate, LabelHidden} {
		labels, err := c.Labels(kind)
		if err != nil {
			return nil, err
		}
		all = append(all, labels...)
	}
	return all, nil
}

// DisplayLabel picks a human readable name: skos:prefLabel in lang, then
// rdfs:label in lang, then an untagged prefLabel, then any prefLabel, and
// finally the local name of the URI.
func (c Concept) DisplayLabel(lang string) (string, error) {
	lang = strings.ToLower(lang)

	var display string
	err := c.session.View(func(r Reader) error {
		var err error
		display, err = displayLabel(r, c.uri, lang)
		return err
	})
	return display, err
}

func displayLabel(r Reader, uri, lang string) (string, error) {
	prefs, err := r.Objects(uri, vocab.SKOSPrefLabel)
	if err != nil {
		return "", err
	}
	rdfsLabels, err := r.Objects(uri, vocab.RDFSLabel)
	if err != nil {
		return "", err
	}

	for _, candidates := range [][]store.Term{prefs, rdfsLabels} {
		for _, term := range candidates {
			if term.IsLiteral() && term.Lang == lang {
				return term.Value, nil
			}
		}
	}
	for _, term := range prefs {
		if term.IsLiteral() && term.Lang == "" {
			return term.Value, nil
		}
	}
	for _, term := range prefs {
		if term.IsLiteral() {
			return term.Value, nil
		}
	}
	return vocab.LocalName(uri), nil
}

// Notations returns the skos:notation literals.
func (c Concept) Notations() ([]store.Term, error) {
	var notations []store.Term
	err := c.session.View(func(r Reader) error {
		var err error
		notations, err = r.Objects(c.uri, vocab.SKOSNotation)
		return err
	})
	return notations, err
}

// Notes returns the documentation notes of one kind.
func (c Concept) Notes(kind NoteKind) ([]Note, error) {
	var notes []Note
	err := c.session.View(func(r Reader) error {
		objects, err := r.Objects(c.uri, kind.Predicate())
		if err != nil {
			return err
		}
		for _, object := range objects {
			if object.IsLiteral() {
				notes = append(notes, Note{Kind: kind, Text: object.Value, Lang: object.Lang})
			}
		}
		return nil
	})
	return notes, err
}

// Definition returns the skos:definition in lang, or an untagged one.
func (c Concept) Definition(lang string) (string, error) {
	notes, err := c.Notes(NoteDefinition)
	if err != nil {
		return "", err
	}
	var fallback string
	for _, note := range notes {
		if note.Lang == strings.ToLower(lang) {
			return note.Text, nil
		}
		if note.Lang == "" {
			fallback = note.Text
		}
	}
	return fallback, nil
}

// Schemes returns the schemes the concept is in.
func (c Concept) Schemes() ([]string, error) {
	return c.links(vocab.SKOSInScheme)
}

// TopConceptOf returns the schemes the concept is a top concept of.
func (c Concept) TopConceptOf() ([]string, error) {
	return c.links(vocab.SKOSTopConceptOf)
}

// Related returns the targets of outgoing relations of one kind.
func (c Concept) Related(kind RelationKind) ([]string, error) {
	if !kind.Valid() {
		return nil, opError("related", c.uri, fmt.Errorf("%w: unknown relation kind %q", ErrInvalidRelation, kind))
	}
	return c.links(kind.Predicate())
}

// Relations returns every outgoing relation keyed by kind.
func (c Concept) Relations() (map[RelationKind][]string, error) {
	relations := make(map[RelationKind][]string)
	for _, kind := range RelationKinds {
		targets, err := c.links(kind.Predicate())
		if err != nil {
			return nil, err
		}
		if len(targets) > 0 {
			relations[kind] = targets
		}
	}
	return relations, nil
}

func (c Concept) links(predicate string) ([]string, error) {
	var links []string
	err := c.session.View(func(r Reader) error {
		var err error
		links, err = r.Links(c.uri, predicate)
		return err
	})
	return links, err
}

// AddLabel asserts a label. Preferred labels follow SetPreferredLabel's
// rule; alternate and hidden labels may not repeat a label of another kind.
func (c Concept) AddLabel(ctx context.Context, label Label) error {
	label = NewLabel(label.Text, label.Lang, label.Kind)
	return c.session.mutate(ctx, "add_label", c.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if err := label.validate(); err != nil {
			return changes, err
		}
		if _, err := requireKind(r, c.uri, KindConcept); err != nil {
			return changes, err
		}
		if err := checkLabel(r, c.uri, label); err != nil {
			return changes, err
		}
		changes.Assert(store.NewTriple(c.uri, label.Kind.Predicate(), label.Term()))
		return changes, nil
	})
}

// SetPreferredLabel asserts the preferred label for lang. It fails with
// ErrConstraintViolation if one already exists for that language.
func (c Concept) SetPreferredLabel(ctx context.Context, text, lang string) error {
	return c.AddLabel(ctx, NewLabel(text, lang, LabelPreferred))
}

// ReplacePreferredLabel retracts any preferred label in lang and asserts
// the new one in the same operation.
func (c Concept) ReplacePreferredLabel(ctx context.Context, text, lang string) error {
	label := NewLabel(text, lang, LabelPreferred)
	return c.session.mutate(ctx, "replace_pref_label", c.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if err := label.validate(); err != nil {
			return changes, err
		}
		if _, err := requireKind(r, c.uri, KindConcept); err != nil {
			return changes, err
		}

		existing, err := r.Objects(c.uri, vocab.SKOSPrefLabel)
		if err != nil {
			return changes, err
		}
		for _, object := range existing {
			if object.IsLiteral() && object.Lang == label.Lang {
				changes.Retract(store.NewTriple(c.uri, vocab.SKOSPrefLabel, object))
			}
		}
		if err := checkDisjoint(r, c.uri, label); err != nil {
			return changes, err
		}
		changes.Assert(store.NewTriple(c.uri, vocab.SKOSPrefLabel, label.Term()))
		return changes, nil
	})
}

// RemoveLabel retracts a label. Removing an absent label is a no-op.
func (c Concept) RemoveLabel(ctx context.Context, label Label) error {
	label = NewLabel(label.Text, label.Lang, label.Kind)
	return c.session.mutate(ctx, "remove_label", c.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if label.Kind.Predicate() == "" {
			return changes, fmt.Errorf("%w: unknown label kind %q", ErrConstraintViolation, label.Kind)
		}
		triple := store.NewTriple(c.uri, label.Kind.Predicate(), label.Term())
		if present, err := r.graph.Has(triple); err != nil {
			return changes, err
		} else if present {
			changes.Retract(triple)
		}
		return changes, nil
	})
}

// AddNote asserts a documentation note.
func (c Concept) AddNote(ctx context.Context, note Note) error {
	return c.session.mutate(ctx, "add_note", c.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if note.Kind.Predicate() == "" {
			return changes, fmt.Errorf("%w: unknown note kind %q", ErrConstraintViolation, note.Kind)
		}
		if strings.TrimSpace(note.Text) == "" {
			return changes, fmt.Errorf("%w: empty note", ErrConstraintViolation)
		}
		if _, err := requireKind(r, c.uri, KindConcept); err != nil {
			return changes, err
		}
		changes.Assert(store.NewTriple(c.uri, note.Kind.Predicate(), note.Term()))
		return changes, nil
	})
}

// RemoveNote retracts a documentation note.
func (c Concept) RemoveNote(ctx context.Context, note Note) error {
	return c.session.mutate(ctx, "remove_note", c.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if note.Kind.Predicate() == "" {
			return changes, fmt.Errorf("%w: unknown note kind %q", ErrConstraintViolation, note.Kind)
		}
		changes.Retract(store.NewTriple(c.uri, note.Kind.Predicate(), note.Term()))
		return changes, nil
	})
}

// SetNotation replaces the notation. An empty datatype stores a plain
// literal.
func (c Concept) SetNotation(ctx context.Context, value, datatype string) error {
	return c.session.mutate(ctx, "set_notation", c.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if strings.TrimSpace(value) == "" {
			return changes, fmt.Errorf("%w: empty notation", ErrConstraintViolation)
		}
		if _, err := requireKind(r, c.uri, KindConcept); err != nil {
			return changes, err
		}

		existing, err := r.Objects(c.uri, vocab.SKOSNotation)
		if err != nil {
			return changes, err
		}
		for _, object := range existing {
			changes.Retract(store.NewTriple(c.uri, vocab.SKOSNotation, object))
		}

		term := store.Literal(value)
		if datatype != "" {
			term = store.TypedLiteral(value, vocab.Expand(datatype))
		}
		changes.Assert(store.NewTriple(c.uri, vocab.SKOSNotation, term))
		return changes, nil
	})
}

// AddRelation asserts a relation to target together with its inverse or
// symmetric counterpart.
func (c Concept) AddRelation(ctx context.Context, kind RelationKind, target string) error {
	return c.session.mutate(ctx, "add_relation", c.uri, func(r Reader) (store.ChangeSet, error) {
		return addRelationChanges(r, c.uri, kind, target)
	})
}

// RemoveRelation retracts a relation in both directions.
func (c Concept) RemoveRelation(ctx context.Context, kind RelationKind, target string) error {
	return c.session.mutate(ctx, "remove_relation", c.uri, func(r Reader) (store.ChangeSet, error) {
		return removeRelationChanges(r, c.uri, kind, target)
	})
}

// AddToScheme makes the concept a member of the scheme.
func (c Concept) AddToScheme(ctx context.Context, scheme string) error {
	return c.session.mutate(ctx, "add_to_scheme", c.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if _, err := requireKind(r, c.uri, KindConcept); err != nil {
			return changes, err
		}
		if _, err := requireKind(r, scheme, KindConceptScheme); err != nil {
			return changes, fmt.Errorf("scheme %s: %w", scheme, err)
		}
		if present, err := r.Has(c.uri, vocab.SKOSInScheme, store.IRI(scheme)); err != nil || present {
			return changes, err
		}
		if err := checkMembershipCycle(r, c.uri, scheme); err != nil {
			return changes, err
		}
		changes.Assert(store.NewTriple(c.uri, vocab.SKOSInScheme, store.IRI(scheme)))
		return changes, nil
	})
}

// RemoveFromScheme drops the concept from the scheme together with any top
// concept links. A top concept must be a member.
func (c Concept) RemoveFromScheme(ctx context.Context, scheme string) error {
	return c.session.mutate(ctx, "remove_from_scheme", c.uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if _, err := requireKind(r, c.uri, KindConcept); err != nil {
			return changes, err
		}
		schemes, err := r.Links(c.uri, vocab.SKOSInScheme)
		if err != nil {
			return changes, err
		}
		if len(schemes) == 1 && schemes[0] == scheme {
			if err := checkMembershipCycle(r, c.uri, ""); err != nil {
				return changes, err
			}
		}
		changes.Retract(store.NewTriple(c.uri, vocab.SKOSInScheme, store.IRI(scheme)))
		changes.Retract(store.NewTriple(c.uri, vocab.SKOSTopConceptOf, store.IRI(scheme)))
		changes.Retract(store.NewTriple(scheme, vocab.SKOSHasTopConcept, store.IRI(c.uri)))
		return changes, nil
	})
}
