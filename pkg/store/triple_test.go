package store

import (
	"testing"

	"github.com/coolbeans/skosgraph/pkg/vocab"
)

func TestTerm_Key(t *testing.T) {
	testCases := []struct {
		name     string
		term     Term
		expected string
	}{
		{"iri", IRI(exDog), "<" + exDog + ">"},
		{"blank", Blank("b1"), "_:b1"},
		{"blank with prefix", Blank("_:b1"), "_:b1"},
		{"plain literal", Literal("Dog"), `"Dog"`},
		{"lang literal", LangLiteral("Hund", "DE"), `"Hund"@de`},
		{"typed literal", TypedLiteral("2024-01-01", vocab.XSDDate), `"2024-01-01"^^<` + vocab.XSDDate + `>`},
		{"escaped literal", Literal("a \"b\"\n"), `"a \"b\"\n"`},
		{"wildcard", Term{}, "*"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.term.Key(); got != testCase.expected {
				t.Errorf("Expected %s, got %s", testCase.expected, got)
			}
		})
	}
}

func TestTerm_Node(t *testing.T) {
	if !Node("_:x").IsBlank() {
		t.Error("Expected _:x to be a blank node")
	}
	if !Node(exDog).IsIRI() {
		t.Error("Expected IRI node")
	}
}

func TestTriple_Equals(t *testing.T) {
	a := NewTriple(exDog, vocab.SKOSPrefLabel, LangLiteral("Dog", "en"))
	b := NewTriple(exDog, vocab.SKOSPrefLabel, LangLiteral("Dog", "EN"))
	c := NewTriple(exDog, vocab.SKOSPrefLabel, Literal("Dog"))

	if !a.Equals(b) {
		t.Error("Language tags should compare case-insensitively")
	}
	if a.Equals(c) {
		t.Error("Tagged and untagged literals should differ")
	}
}

func TestTriple_NTriples(t *testing.T) {
	triple := NewTriple("_:list", vocab.RDFFirst, IRI(exDog))
	expected := "_:list <" + vocab.RDFFirst + "> <" + exDog + "> ."
	if triple.NTriples() != expected {
		t.Errorf("Expected %s, got %s", expected, triple.NTriples())
	}
}

func TestPattern_WildcardCount(t *testing.T) {
	if NewPattern("", "", Term{}).WildcardCount() != 3 {
		t.Error("Expected 3 wildcards")
	}
	if NewPattern(exDog, "", IRI(exCat)).WildcardCount() != 1 {
		t.Error("Expected 1 wildcard")
	}
}
