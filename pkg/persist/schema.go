package persist

// schema is the relational projection of the graph. Every table row
// corresponds to exactly one triple, so a change set maps to row inserts
// and deletes one-for-one.
const schema = `
CREATE TABLE IF NOT EXISTS resources (
    uri TEXT NOT NULL,
    kind TEXT NOT NULL,
    PRIMARY KEY (uri, kind)
);

CREATE TABLE IF NOT EXISTS labels (
    uri TEXT NOT NULL,
    kind TEXT NOT NULL,
    text TEXT NOT NULL,
    lang TEXT NOT NULL DEFAULT '',
    datatype TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (uri, kind, text, lang, datatype)
);

CREATE INDEX IF NOT EXISTS idx_labels_text ON labels(text, lang);

CREATE TABLE IF NOT EXISTS relations (
    source TEXT NOT NULL,
    kind TEXT NOT NULL,
    target TEXT NOT NULL,
    PRIMARY KEY (source, kind, target)
);

CREATE INDEX IF NOT EXISTS idx_relations_target ON relations(target, kind);

-- kind is one of: scheme (inScheme), top (hasTopConcept),
-- top_of (topConceptOf), collection (member)
CREATE TABLE IF NOT EXISTS memberships (
    container TEXT NOT NULL,
    member TEXT NOT NULL,
    kind TEXT NOT NULL,
    PRIMARY KEY (container, member, kind)
);

CREATE INDEX IF NOT EXISTS idx_memberships_member ON memberships(member);

CREATE TABLE IF NOT EXISTS notes (
    uri TEXT NOT NULL,
    kind TEXT NOT NULL,
    text TEXT NOT NULL,
    lang TEXT NOT NULL DEFAULT '',
    datatype TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (uri, kind, text, lang, datatype)
);

CREATE TABLE IF NOT EXISTS pending_ops (
    id TEXT PRIMARY KEY,
    seq INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    changes TEXT NOT NULL
);
`

// table describes one projected table.
type table struct {
	name    string
	columns []string
}

var (
	tableResources   = table{"resources", []string{"uri", "kind"}}
	tableLabels      = table{"labels", []string{"uri", "kind", "text", "lang", "datatype"}}
	tableRelations   = table{"relations", []string{"source", "kind", "target"}}
	tableMemberships = table{"memberships", []string{"container", "member", "kind"}}
	tableNotes       = table{"notes", []string{"uri", "kind", "text", "lang", "datatype"}}
)

// tables lists the projected tables in dump order.
var tables = []table{tableResources, tableLabels, tableRelations, tableMemberships, tableNotes}
