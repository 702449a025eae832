package store

import "strings"

// Triple represents an RDF Subject-Predicate-Object statement.
//   - Subject: an IRI, or a blank node written as "_:id"
//   - Predicate: an IRI (e.g., skos:broader expanded to its full form)
//   - Object: an IRI, blank node, or literal
type Triple struct {
	Subject   string `json:"s"`
	Predicate string `json:"p"`
	Object    Term   `json:"o"`
}

// NewTriple creates a new triple with the given components.
func NewTriple(subject, predicate string, object Term) Triple {
	return Triple{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

// Equals checks if two triples have identical components.
func (t Triple) Equals(other Triple) bool {
	return t.Subject == other.Subject &&
		t.Predicate == other.Predicate &&
		t.Object.Key() == other.Object.Key()
}

// Key returns a string that uniquely identifies the triple.
func (t Triple) Key() string {
	return subjectKey(t.Subject) + " <" + escapeIRI(t.Predicate) + "> " + t.Object.Key()
}

// String returns a human-readable representation of the triple.
func (t Triple) String() string {
	return t.Key()
}

// NTriples returns the triple in N-Triples format.
func (t Triple) NTriples() string {
	return t.Key() + " ."
}

// IsValid returns true if all components are present and well formed.
func (t Triple) IsValid() bool {
	return t.Subject != "" && t.Predicate != "" && t.Object.Valid()
}

func subjectKey(subject string) string {
	if strings.HasPrefix(subject, "_:") {
		return subject
	}
	return "<" + escapeIRI(subject) + ">"
}

// Pattern selects triples. Empty subject or predicate and a zero object
// act as wildcards that match any value.
type Pattern struct {
	Subject   string
	Predicate string
	Object    Term
}

// NewPattern creates a new pattern for querying.
func NewPattern(subject, predicate string, object Term) Pattern {
	return Pattern{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

// Matches checks if a triple matches this pattern.
func (p Pattern) Matches(t Triple) bool {
	if p.Subject != "" && p.Subject != t.Subject {
		return false
	}
	if p.Predicate != "" && p.Predicate != t.Predicate {
		return false
	}
	if !p.Object.IsZero() && p.Object.Key() != t.Object.Key() {
		return false
	}
	return true
}

// WildcardCount returns the number of wildcard components.
func (p Pattern) WildcardCount() int {
	count := 0
	if p.Subject == "" {
		count++
	}
	if p.Predicate == "" {
		count++
	}
	if p.Object.IsZero() {
		count++
	}
	return count
}
