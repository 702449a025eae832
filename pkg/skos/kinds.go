package skos

import (
	"fmt"
	"strings"

	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// ResourceKind tags the SKOS class of a resource.
type ResourceKind string

const (
	KindConcept           ResourceKind = "Concept"
	KindConceptScheme     ResourceKind = "ConceptScheme"
	KindCollection        ResourceKind = "Collection"
	KindOrderedCollection ResourceKind = "OrderedCollection"
)

// Class returns the rdf:type IRI for the kind.
func (k ResourceKind) Class() string {
	switch k {
	case KindConcept:
		return vocab.ClassConcept
	case KindConceptScheme:
		return vocab.ClassConceptScheme
	case KindCollection:
		return vocab.ClassCollection
	case KindOrderedCollection:
		return vocab.ClassOrderedCollection
	default:
		return ""
	}
}

// IsCollection reports whether the kind is an ordered or unordered collection.
func (k ResourceKind) IsCollection() bool {
	return k == KindCollection || k == KindOrderedCollection
}

func kindForClass(class string) (ResourceKind, bool) {
	switch class {
	case vocab.ClassConcept:
		return KindConcept, true
	case vocab.ClassConceptScheme:
		return KindConceptScheme, true
	case vocab.ClassCollection:
		return KindCollection, true
	case vocab.ClassOrderedCollection:
		return KindOrderedCollection, true
	default:
		return "", false
	}
}

// LabelKind distinguishes preferred, alternate and hidden labels.
type LabelKind string

const (
	LabelPreferred LabelKind = "pref"
	LabelAlternate LabelKind = "alt"
	LabelHidden    LabelKind = "hidden"
)

// Predicate returns the SKOS property for the label kind.
func (k LabelKind) Predicate() string {
	switch k {
	case LabelPreferred:
		return vocab.SKOSPrefLabel
	case LabelAlternate:
		return vocab.SKOSAltLabel
	case LabelHidden:
		return vocab.SKOSHiddenLabel
	default:
		return ""
	}
}

// ParseLabelKind accepts "pref", "alt", "hidden" and the SKOS local names.
func ParseLabelKind(value string) (LabelKind, error) {
	switch strings.ToLower(value) {
	case "pref", "preflabel", "preferred":
		return LabelPreferred, nil
	case "alt", "altlabel", "alternate":
		return LabelAlternate, nil
	case "hidden", "hiddenlabel":
		return LabelHidden, nil
	default:
		return "", fmt.Errorf("%w: unknown label kind %q", ErrConstraintViolation, value)
	}
}

func labelKindForPredicate(predicate string) (LabelKind, bool) {
	switch predicate {
	case vocab.SKOSPrefLabel:
		return LabelPreferred, true
	case vocab.SKOSAltLabel:
		return LabelAlternate, true
	case vocab.SKOSHiddenLabel:
		return LabelHidden, true
	default:
		return "", false
	}
}

// NoteKind is one of the SKOS documentation properties.
type NoteKind string

const (
	NoteGeneral    NoteKind = "note"
	NoteDefinition NoteKind = "definition"
	NoteScope      NoteKind = "scopeNote"
	NoteExample    NoteKind = "example"
	NoteHistory    NoteKind = "historyNote"
	NoteEditorial  NoteKind = "editorialNote"
	NoteChange     NoteKind = "changeNote"
)

var noteKinds = []NoteKind{
	NoteGeneral, NoteDefinition, NoteScope, NoteExample, NoteHistory, NoteEditorial, NoteChange,
}

// Predicate returns the SKOS property for the note kind.
func (k NoteKind) Predicate() string {
	for _, kind := range noteKinds {
		if kind == k {
			return vocab.NamespaceSKOS + string(k)
		}
	}
	return ""
}

// ParseNoteKind accepts the SKOS local name of a documentation property.
func ParseNoteKind(value string) (NoteKind, error) {
	for _, kind := range noteKinds {
		if strings.EqualFold(string(kind), value) {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: unknown note kind %q", ErrConstraintViolation, value)
}

func noteKindForPredicate(predicate string) (NoteKind, bool) {
	if !strings.HasPrefix(predicate, vocab.NamespaceSKOS) {
		return "", false
	}
	local := NoteKind(strings.TrimPrefix(predicate, vocab.NamespaceSKOS))
	for _, kind := range noteKinds {
		if kind == local {
			return kind, true
		}
	}
	return "", false
}

// RelationKind is a SKOS semantic or mapping relation.
type RelationKind string

const (
	Broader      RelationKind = "broader"
	Narrower     RelationKind = "narrower"
	Related      RelationKind = "related"
	BroadMatch   RelationKind = "broadMatch"
	NarrowMatch  RelationKind = "narrowMatch"
	RelatedMatch RelationKind = "relatedMatch"
	ExactMatch   RelationKind = "exactMatch"
	CloseMatch   RelationKind = "closeMatch"
)

// RelationKinds lists every recognized relation kind.
var RelationKinds = []RelationKind{
	Broader, Narrower, Related, BroadMatch, NarrowMatch, RelatedMatch, ExactMatch, CloseMatch,
}

// ParseRelationKind resolves a relation name, a prefixed name such as
// "skos:broader", or a full SKOS IRI.
func ParseRelationKind(value string) (RelationKind, error) {
	value = strings.TrimPrefix(vocab.Expand(value), vocab.NamespaceSKOS)
	for _, kind := range RelationKinds {
		if string(kind) == value {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: unknown relation kind %q", ErrInvalidRelation, value)
}

func relationKindForPredicate(predicate string) (RelationKind, bool) {
	if !strings.HasPrefix(predicate, vocab.NamespaceSKOS) {
		return "", false
	}
	kind, err := ParseRelationKind(predicate)
	return kind, err == nil
}

// Valid reports whether k is a recognized relation kind.
func (k RelationKind) Valid() bool {
	for _, kind := range RelationKinds {
		if kind == k {
			return true
		}
	}
	return false
}

// Predicate returns the SKOS property IRI for the relation.
func (k RelationKind) Predicate() string {
	if !k.Valid() {
		return ""
	}
	return vocab.NamespaceSKOS + string(k)
}

// Inverse returns the kind that must hold in the opposite direction.
// Symmetric kinds are their own inverse.
func (k RelationKind) Inverse() RelationKind {
	switch k {
	case Broader:
		return Narrower
	case Narrower:
		return Broader
	case BroadMatch:
		return NarrowMatch
	case NarrowMatch:
		return BroadMatch
	default:
		return k
	}
}

// Symmetric reports whether the relation is its own inverse.
func (k RelationKind) Symmetric() bool {
	switch k {
	case Related, RelatedMatch, ExactMatch, CloseMatch:
		return true
	default:
		return false
	}
}

// Hierarchical reports whether the relation takes part in the cycle check.
func (k RelationKind) Hierarchical() bool {
	return k == Broader || k == Narrower
}

// Mapping reports whether the relation is a match relation. Match
// relations may point outside the local vocabulary.
func (k RelationKind) Mapping() bool {
	switch k {
	case BroadMatch, NarrowMatch, RelatedMatch, ExactMatch, CloseMatch:
		return true
	default:
		return false
	}
}
