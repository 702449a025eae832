// Package vocab defines the RDF vocabularies used by the SKOS object model:
// namespace IRIs, class and property IRIs, and typed literal helpers.
package vocab

import "strings"

// Namespace URIs.
const (
	// NamespaceSKOS is the SKOS core namespace.
	NamespaceSKOS = "http://www.w3.org/2004/02/skos/core#"

	// NamespaceRDF is the standard RDF namespace.
	NamespaceRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// NamespaceRDFS is the RDF Schema namespace.
	NamespaceRDFS = "http://www.w3.org/2000/01/rdf-schema#"

	// NamespaceXSD is the XML Schema namespace for datatypes.
	NamespaceXSD = "http://www.w3.org/2001/XMLSchema#"

	// NamespaceDC is the Dublin Core elements 1.1 namespace.
	NamespaceDC = "http://purl.org/dc/elements/1.1/"

	// NamespaceDCTerms is the Dublin Core terms namespace.
	NamespaceDCTerms = "http://purl.org/dc/terms/"

	// NamespaceOWL is the OWL namespace.
	NamespaceOWL = "http://www.w3.org/2002/07/owl#"
)

// RDF and RDFS terms.
const (
	RDFType   = NamespaceRDF + "type"
	RDFFirst  = NamespaceRDF + "first"
	RDFRest   = NamespaceRDF + "rest"
	RDFNil    = NamespaceRDF + "nil"
	RDFSLabel = NamespaceRDFS + "label"
)

// SKOS classes.
const (
	ClassConcept           = NamespaceSKOS + "Concept"
	ClassConceptScheme     = NamespaceSKOS + "ConceptScheme"
	ClassCollection        = NamespaceSKOS + "Collection"
	ClassOrderedCollection = NamespaceSKOS + "OrderedCollection"
)

// SKOS lexical labels.
const (
	SKOSPrefLabel   = NamespaceSKOS + "prefLabel"
	SKOSAltLabel    = NamespaceSKOS + "altLabel"
	SKOSHiddenLabel = NamespaceSKOS + "hiddenLabel"
	SKOSNotation    = NamespaceSKOS + "notation"
)

// SKOS documentation properties.
const (
	SKOSNote          = NamespaceSKOS + "note"
	SKOSDefinition    = NamespaceSKOS + "definition"
	SKOSScopeNote     = NamespaceSKOS + "scopeNote"
	SKOSExample       = NamespaceSKOS + "example"
	SKOSHistoryNote   = NamespaceSKOS + "historyNote"
	SKOSEditorialNote = NamespaceSKOS + "editorialNote"
	SKOSChangeNote    = NamespaceSKOS + "changeNote"
)

// SKOS scheme and collection structure.
const (
	SKOSInScheme      = NamespaceSKOS + "inScheme"
	SKOSHasTopConcept = NamespaceSKOS + "hasTopConcept"
	SKOSTopConceptOf  = NamespaceSKOS + "topConceptOf"
	SKOSMember        = NamespaceSKOS + "member"
	SKOSMemberList    = NamespaceSKOS + "memberList"
)

// SKOS semantic and mapping relations.
const (
	SKOSBroader      = NamespaceSKOS + "broader"
	SKOSNarrower     = NamespaceSKOS + "narrower"
	SKOSRelated      = NamespaceSKOS + "related"
	SKOSBroadMatch   = NamespaceSKOS + "broadMatch"
	SKOSNarrowMatch  = NamespaceSKOS + "narrowMatch"
	SKOSRelatedMatch = NamespaceSKOS + "relatedMatch"
	SKOSExactMatch   = NamespaceSKOS + "exactMatch"
	SKOSCloseMatch   = NamespaceSKOS + "closeMatch"
)

// Dublin Core metadata.
const (
	DCTitle            = NamespaceDC + "title"
	DCDescription      = NamespaceDC + "description"
	DCDate             = NamespaceDC + "date"
	DCTermsTitle       = NamespaceDCTerms + "title"
	DCTermsDescription = NamespaceDCTerms + "description"
	DCTermsDate        = NamespaceDCTerms + "date"
)

// XSD datatypes.
const (
	XSDString   = NamespaceXSD + "string"
	XSDDate     = NamespaceXSD + "date"
	XSDDateTime = NamespaceXSD + "dateTime"
)

// Identity properties. OWL2XMLSameAs is the draft OWL 2 XML spelling that
// older thesaurus dumps still carry.
const (
	OWLSameAs     = NamespaceOWL + "sameAs"
	OWL2XMLSameAs = "http://www.w3.org/2006/12/owl2-xml#sameAs"
)

// Prefixes maps the conventional prefix labels to their namespaces.
var Prefixes = map[string]string{
	"skos":    NamespaceSKOS,
	"rdf":     NamespaceRDF,
	"rdfs":    NamespaceRDFS,
	"xsd":     NamespaceXSD,
	"dc":      NamespaceDC,
	"dcterms": NamespaceDCTerms,
	"owl":     NamespaceOWL,
}

// Expand turns a prefixed name such as "skos:broader" into a full IRI.
// Values that are not prefixed names with a known prefix are returned as-is.
func Expand(value string) string {
	prefix, local, ok := strings.Cut(value, ":")
	if !ok || strings.HasPrefix(local, "//") {
		return value
	}
	if namespace, found := Prefixes[prefix]; found {
		return namespace + local
	}
	return value
}

// LocalName returns the part of an IRI after the last '#' or '/'.
func LocalName(iri string) string {
	if idx := strings.LastIndexAny(iri, "#/"); idx >= 0 && idx < len(iri)-1 {
		return iri[idx+1:]
	}
	return iri
}
