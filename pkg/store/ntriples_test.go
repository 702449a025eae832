package store

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/coolbeans/skosgraph/pkg/vocab"
)

const sampleNTriples = `# animals
<http://example.org/animals/dog> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2004/02/skos/core#Concept> .
<http://example.org/animals/dog> <http://www.w3.org/2004/02/skos/core#prefLabel> "Dog"@en .
<http://example.org/animals/dog> <http://www.w3.org/2004/02/skos/core#definition> "A \"domestic\" animal\nkept as a pet" .
<http://example.org/coll> <http://purl.org/dc/terms/date> "2024-01-05"^^<http://www.w3.org/2001/XMLSchema#date> .
_:b0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#first> <http://example.org/animals/dog> .

<http://example.org/animals/dog> <http://www.w3.org/2004/02/skos/core#altLabel> "Café dog"@en-GB . # trailing comment
`

func TestReadNTriples(t *testing.T) {
	triples, err := ReadNTriples(strings.NewReader(sampleNTriples))
	if err != nil {
		t.Fatalf("ReadNTriples failed: %v", err)
	}

	if len(triples) != 6 {
		t.Fatalf("Expected 6 triples, got %d", len(triples))
	}

	if triples[1].Object.Lang != "en" || triples[1].Object.Value != "Dog" {
		t.Errorf("Unexpected label term: %#v", triples[1].Object)
	}
	if triples[2].Object.Value != "A \"domestic\" animal\nkept as a pet" {
		t.Errorf("Unexpected escaped literal: %q", triples[2].Object.Value)
	}
	if triples[3].Object.Datatype != vocab.XSDDate {
		t.Errorf("Expected xsd:date datatype, got %q", triples[3].Object.Datatype)
	}
	if triples[4].Subject != "_:b0" {
		t.Errorf("Expected blank subject, got %q", triples[4].Subject)
	}
	if triples[5].Object.Value != "Café dog" || triples[5].Object.Lang != "en-gb" {
		t.Errorf("Unexpected unicode literal: %#v", triples[5].Object)
	}
}

func TestReadNTriples_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"missing dot", `<http://a> <http://b> <http://c>`},
		{"literal subject", `"a" <http://b> <http://c> .`},
		{"blank predicate", `<http://a> _:p <http://c> .`},
		{"unterminated iri", `<http://a <http://b> <http://c> .`},
		{"unterminated literal", `<http://a> <http://b> "abc .`},
		{"trailing garbage", `<http://a> <http://b> <http://c> . extra`},
		{"bad escape", `<http://a> <http://b> "a\qb" .`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := ReadNTriples(strings.NewReader("\n" + testCase.input))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected ParseError, got %v", err)
			}
			if parseErr.Line != 2 {
				t.Errorf("Expected error on line 2, got %d", parseErr.Line)
			}
		})
	}
}

func TestWriteNTriples_RoundTrip(t *testing.T) {
	original, err := ReadNTriples(strings.NewReader(sampleNTriples))
	if err != nil {
		t.Fatalf("ReadNTriples failed: %v", err)
	}

	var buffer bytes.Buffer
	if err := WriteNTriples(&buffer, original); err != nil {
		t.Fatalf("WriteNTriples failed: %v", err)
	}

	reparsed, err := ReadNTriples(&buffer)
	if err != nil {
		t.Fatalf("Re-reading failed: %v\n%s", err, buffer.String())
	}

	SortTriples(original)
	SortTriples(reparsed)
	if len(original) != len(reparsed) {
		t.Fatalf("Expected %d triples, got %d", len(original), len(reparsed))
	}
	for i := range original {
		if !original[i].Equals(reparsed[i]) {
			t.Errorf("Triple %d differs: %s vs %s", i, original[i], reparsed[i])
		}
	}
}

func TestWriteNTriples_EscapesIRIs(t *testing.T) {
	line := `<http://example.org/a\u0020b> <http://example.org/p> <http://example.org/x\u003Ey> .`
	original, err := ReadNTriples(strings.NewReader(line))
	if err != nil {
		t.Fatalf("ReadNTriples failed: %v", err)
	}
	if original[0].Subject != "http://example.org/a b" {
		t.Fatalf("Expected unescaped subject, got %q", original[0].Subject)
	}

	var buffer bytes.Buffer
	if err := WriteNTriples(&buffer, original); err != nil {
		t.Fatalf("WriteNTriples failed: %v", err)
	}
	if got := strings.TrimSpace(buffer.String()); got != line {
		t.Errorf("Expected %s, got %s", line, got)
	}

	reparsed, err := ReadNTriples(&buffer)
	if err != nil {
		t.Fatalf("Re-reading failed: %v", err)
	}
	if !original[0].Equals(reparsed[0]) {
		t.Errorf("Triple differs: %s vs %s", original[0], reparsed[0])
	}
}
