package store

import (
	"fmt"
	"strings"
)

// TermKind distinguishes the three kinds of RDF term.
type TermKind uint8

const (
	// TermIRI is an absolute IRI.
	TermIRI TermKind = iota + 1
	// TermBlank is a blank node, written with a "_:" prefix.
	TermBlank
	// TermLiteral is a plain, language-tagged or typed literal.
	TermLiteral
)

// String returns the lowercase name of the kind.
func (k TermKind) String() string {
	switch k {
	case TermIRI:
		return "iri"
	case TermBlank:
		return "blank"
	case TermLiteral:
		return "literal"
	default:
		return "any"
	}
}

// Term is an RDF term appearing in the object position of a triple.
// The zero Term is a wildcard in patterns and invalid in triples.
type Term struct {
	Kind     TermKind `json:"kind"`
	Value    string   `json:"value"`
	Lang     string   `json:"lang,omitempty"`
	Datatype string   `json:"datatype,omitempty"`
}

// IRI creates an IRI term.
func IRI(value string) Term {
	return Term{Kind: TermIRI, Value: value}
}

// Blank creates a blank node term. The "_:" prefix is added when missing.
func Blank(id string) Term {
	if !strings.HasPrefix(id, "_:") {
		id = "_:" + id
	}
	return Term{Kind: TermBlank, Value: id}
}

// Literal creates a plain literal.
func Literal(value string) Term {
	return Term{Kind: TermLiteral, Value: value}
}

// LangLiteral creates a language-tagged literal. Language tags are
// case-insensitive and stored lowercased.
func LangLiteral(value, lang string) Term {
	return Term{Kind: TermLiteral, Value: value, Lang: strings.ToLower(lang)}
}

// TypedLiteral creates a literal with an explicit datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: TermLiteral, Value: value, Datatype: datatype}
}

// Node returns the term for a subject string: blank when it starts with
// "_:", an IRI otherwise.
func Node(subject string) Term {
	if strings.HasPrefix(subject, "_:") {
		return Term{Kind: TermBlank, Value: subject}
	}
	return IRI(subject)
}

// IsZero reports whether the term is the wildcard zero value.
func (t Term) IsZero() bool {
	return t.Kind == 0
}

// IsIRI reports whether the term is an IRI.
func (t Term) IsIRI() bool { return t.Kind == TermIRI }

// IsBlank reports whether the term is a blank node.
func (t Term) IsBlank() bool { return t.Kind == TermBlank }

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == TermLiteral }

// IsResource reports whether the term can also appear as a subject.
func (t Term) IsResource() bool {
	return t.Kind == TermIRI || t.Kind == TermBlank
}

// Valid reports whether the term can be stored.
func (t Term) Valid() bool {
	switch t.Kind {
	case TermIRI, TermBlank:
		return t.Value != ""
	case TermLiteral:
		return t.Lang == "" || t.Datatype == ""
	default:
		return false
	}
}

// Key returns the N-Triples encoding of the term. Two terms are equal if
// and only if their keys are equal.
func (t Term) Key() string {
	switch t.Kind {
	case TermIRI:
		return "<" + escapeIRI(t.Value) + ">"
	case TermBlank:
		return t.Value
	case TermLiteral:
		quoted := `"` + escapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return quoted + "@" + t.Lang
		}
		if t.Datatype != "" {
			return quoted + "^^<" + escapeIRI(t.Datatype) + ">"
		}
		return quoted
	default:
		return "*"
	}
}

// String returns the N-Triples encoding of the term.
func (t Term) String() string {
	return t.Key()
}

// GoString makes terms readable in test failure output.
func (t Term) GoString() string {
	return fmt.Sprintf("store.Term(%s)", t.Key())
}

// escapeLiteral escapes special characters per the N-Triples grammar.
func escapeLiteral(value string) string {
	if !strings.ContainsAny(value, "\\\"\n\r\t") {
		return value
	}

	var builder strings.Builder
	builder.Grow(len(value) + len(value)/8)

	for _, char := range value {
		switch char {
		case '\\':
			builder.WriteString(`\\`)
		case '"':
			builder.WriteString(`\"`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\t':
			builder.WriteString(`\t`)
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}

// escapeIRI writes the characters N-Triples and Turtle forbid inside an IRI as
// \uXXXX escapes. Parsing reverses it.
func escapeIRI(value string) string {
	if !strings.ContainsFunc(value, forbiddenInIRI) {
		return value
	}

	var builder strings.Builder
	builder.Grow(len(value) + 8)
	for _, char := range value {
		if forbiddenInIRI(char) {
			fmt.Fprintf(&builder, `\u%04X`, char)
			continue
		}
		builder.WriteRune(char)
	}
	return builder.String()
}

func forbiddenInIRI(char rune) bool {
	return char <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", char)
}
