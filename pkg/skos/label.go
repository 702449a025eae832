package skos

import (
	"fmt"
	"strings"

	"github.com/coolbeans/skosgraph/pkg/store"
)

// Label is a lexical label of a Concept.
type Label struct {
	Text string    `json:"text"`
	Lang string    `json:"lang,omitempty"`
	Kind LabelKind `json:"kind"`
}

// NewLabel builds a label, normalizing the language tag.
func NewLabel(text, lang string, kind LabelKind) Label {
	return Label{Text: text, Lang: strings.ToLower(lang), Kind: kind}
}

// Term returns the literal the label is stored as.
func (l Label) Term() store.Term {
	if l.Lang == "" {
		return store.Literal(l.Text)
	}
	return store.LangLiteral(l.Text, l.Lang)
}

func (l Label) String() string {
	if l.Lang == "" {
		return fmt.Sprintf("%q (%s)", l.Text, l.Kind)
	}
	return fmt.Sprintf("%q@%s (%s)", l.Text, l.Lang, l.Kind)
}

func (l Label) validate() error {
	if strings.TrimSpace(l.Text) == "" {
		return fmt.Errorf("%w: label text is empty", ErrConstraintViolation)
	}
	if l.Kind.Predicate() == "" {
		return fmt.Errorf("%w: unknown label kind %q", ErrConstraintViolation, l.Kind)
	}
	return nil
}

func labelFromTerm(term store.Term, kind LabelKind) (Label, bool) {
	if !term.IsLiteral() {
		return Label{}, false
	}
	return Label{Text: term.Value, Lang: term.Lang, Kind: kind}, true
}

// Note is a documentation property value.
type Note struct {
	Kind NoteKind `json:"kind"`
	Text string   `json:"text"`
	Lang string   `json:"lang,omitempty"`
}

// Term returns the literal the note is stored as.
func (n Note) Term() store.Term {
	if n.Lang == "" {
		return store.Literal(n.Text)
	}
	return store.LangLiteral(n.Text, n.Lang)
}
