package store

import (
	"strings"
	"testing"

	"github.com/coolbeans/skosgraph/pkg/vocab"
)

func TestNewTurtleSerializer(t *testing.T) {
	serializer := NewTurtleSerializer()

	if len(serializer.prefixMappings) != len(vocab.Prefixes) {
		t.Errorf("Expected %d default prefix mappings, got %d", len(vocab.Prefixes), len(serializer.prefixMappings))
	}

	if serializer.namespaceIndex[vocab.NamespaceSKOS] != "skos" {
		t.Errorf("Expected skos namespace to reverse-map to 'skos', got %s", serializer.namespaceIndex[vocab.NamespaceSKOS])
	}
}

func TestNewTurtleSerializer_WithoutDefaults(t *testing.T) {
	serializer := NewTurtleSerializer(
		WithoutDefaultPrefixes(),
		WithPrefix("ex", "http://example.org/animals/"),
	)

	if len(serializer.prefixMappings) != 1 {
		t.Errorf("Expected 1 prefix mapping (defaults cleared), got %d", len(serializer.prefixMappings))
	}
}

func TestEscapeLiteralString(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "hello world", "hello world"},
		{"backslash", `path\to\file`, `path\\to\\file`},
		{"double_quote", `say "hello"`, `say \"hello\"`},
		{"newline", "line1\nline2", `line1\nline2`},
		{"tab", "col1\tcol2", `col1\tcol2`},
		{"unicode", "Säugetier", "Säugetier"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := escapeLiteralString(testCase.input); got != testCase.expected {
				t.Errorf("Expected %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestTurtleSerializer_Serialize(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)
	_ = store.Add(NewTriple(exDog, vocab.SKOSNotation, TypedLiteral("D-1", "http://example.org/types#code")))

	serializer := NewTurtleSerializer(WithPrefix("ex", "http://example.org/animals/"))
	output := serializer.Serialize(store.All())

	expectations := []string{
		"@prefix skos: <http://www.w3.org/2004/02/skos/core#> .",
		"@prefix ex: <http://example.org/animals/> .",
		"ex:dog a skos:Concept ;",
		`skos:prefLabel "Mammal"@en`,
		"skos:broader ex:mammal",
		`skos:notation "D-1"^^<http://example.org/types#code>`,
	}

	for _, expected := range expectations {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain %q\n%s", expected, output)
		}
	}
}

func TestTurtleSerializer_TypeFirst(t *testing.T) {
	serializer := NewTurtleSerializer(WithPrefix("ex", "http://example.org/animals/"))
	output := serializer.Serialize([]Triple{
		NewTriple(exCat, vocab.SKOSPrefLabel, LangLiteral("Cat", "en")),
		NewTriple(exCat, vocab.RDFType, IRI(vocab.ClassConcept)),
	})

	typeIndex := strings.Index(output, " a skos:Concept")
	labelIndex := strings.Index(output, "skos:prefLabel")
	if typeIndex < 0 || labelIndex < 0 || typeIndex > labelIndex {
		t.Errorf("Expected rdf:type first:\n%s", output)
	}
}

func TestTurtleSerializer_BlankNodes(t *testing.T) {
	serializer := NewTurtleSerializer()
	output := serializer.Serialize([]Triple{
		NewTriple("_:l1", vocab.RDFFirst, IRI(exCat)),
		NewTriple("_:l1", vocab.RDFRest, IRI(vocab.RDFNil)),
	})

	if !strings.Contains(output, "_:l1 rdf:first <http://example.org/animals/cat>") {
		t.Errorf("Unexpected blank node output:\n%s", output)
	}
	if !strings.Contains(output, "rdf:rest rdf:nil") {
		t.Errorf("Expected rdf:nil compaction:\n%s", output)
	}
}
