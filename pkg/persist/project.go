package persist

import (
	"sort"
	"strings"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// Row is one projected row, values in column order.
type Row []string

// Snapshot holds every projected row keyed by table name, each table
// sorted.
type Snapshot map[string][]Row

// projected is a triple's row and the table it lives in.
type projected struct {
	table table
	row   Row
}

var labelKinds = map[string]string{
	vocab.SKOSPrefLabel:   "pref",
	vocab.SKOSAltLabel:    "alt",
	vocab.SKOSHiddenLabel: "hidden",
}

var noteKinds = map[string]bool{
	vocab.SKOSNote:          true,
	vocab.SKOSDefinition:    true,
	vocab.SKOSScopeNote:     true,
	vocab.SKOSExample:       true,
	vocab.SKOSHistoryNote:   true,
	vocab.SKOSEditorialNote: true,
	vocab.SKOSChangeNote:    true,
}

var relationKinds = map[string]bool{
	vocab.SKOSBroader:      true,
	vocab.SKOSNarrower:     true,
	vocab.SKOSRelated:      true,
	vocab.SKOSBroadMatch:   true,
	vocab.SKOSNarrowMatch:  true,
	vocab.SKOSRelatedMatch: true,
	vocab.SKOSExactMatch:   true,
	vocab.SKOSCloseMatch:   true,
}

// project maps a triple to its row. Triples outside the relational
// model (list nodes, notations, titles) have none.
func project(triple store.Triple) (projected, bool) {
	subject, predicate, object := triple.Subject, triple.Predicate, triple.Object
	if strings.HasPrefix(subject, "_:") {
		return projected{}, false
	}

	switch {
	case predicate == vocab.RDFType:
		if object.IsIRI() && strings.HasPrefix(object.Value, vocab.NamespaceSKOS) {
			return projected{tableResources, Row{subject, vocab.LocalName(object.Value)}}, true
		}
	case labelKinds[predicate] != "":
		if object.IsLiteral() {
			return projected{tableLabels, Row{subject, labelKinds[predicate], object.Value, object.Lang, object.Datatype}}, true
		}
	case noteKinds[predicate]:
		if object.IsLiteral() {
			return projected{tableNotes, Row{subject, vocab.LocalName(predicate), object.Value, object.Lang, object.Datatype}}, true
		}
	case relationKinds[predicate]:
		if object.IsIRI() {
			return projected{tableRelations, Row{subject, vocab.LocalName(predicate), object.Value}}, true
		}
	case predicate == vocab.SKOSInScheme:
		if object.IsIRI() {
			return projected{tableMemberships, Row{object.Value, subject, "scheme"}}, true
		}
	case predicate == vocab.SKOSHasTopConcept:
		if object.IsIRI() {
			return projected{tableMemberships, Row{subject, object.Value, "top"}}, true
		}
	case predicate == vocab.SKOSTopConceptOf:
		if object.IsIRI() {
			return projected{tableMemberships, Row{object.Value, subject, "top_of"}}, true
		}
	case predicate == vocab.SKOSMember:
		if object.IsIRI() {
			return projected{tableMemberships, Row{subject, object.Value, "collection"}}, true
		}
	}
	return projected{}, false
}

// Project computes the rows the mirror should hold for a graph. Tests and
// consistency checks compare it with Dump.
func Project(triples []store.Triple) Snapshot {
	seen := make(map[string]bool)
	snapshot := make(Snapshot)
	for _, triple := range triples {
		p, ok := project(triple)
		if !ok {
			continue
		}
		key := p.table.name + "\x00" + strings.Join(p.row, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		snapshot[p.table.name] = append(snapshot[p.table.name], p.row)
	}
	for _, rows := range snapshot {
		sortRows(rows)
	}
	return snapshot
}

func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
}
