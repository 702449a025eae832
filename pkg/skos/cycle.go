package skos

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// checkBroaderCycle fails with ErrCycleDetected if asserting
// (child broader parent) would close a forbidden loop. A loop is forbidden
// when some scheme holds every concept on it, counting concepts in no
// scheme as members of every scheme; a loop made only of concepts in no
// scheme is always forbidden. The walk follows broader edges upward from
// parent and only enters concepts of the scope being checked.
func checkBroaderCycle(r Reader, child, parent string) error {
	if child == parent {
		return fmt.Errorf("%w: %s cannot be broader than itself", ErrCycleDetected, child)
	}

	scopes, err := loopScopes(r, child, parent)
	if err != nil {
		return err
	}

	for _, scheme := range scopes {
		path, found, err := broaderPath(r, []string{parent}, child, scopeFilter(r, scheme, ""))
		if err != nil {
			return err
		}
		if found {
			return fmt.Errorf("%w: %s broader %s closes %s", ErrCycleDetected, child, parent, strings.Join(path, " -> "))
		}
	}
	return nil
}

// checkMembershipCycle fails with ErrCycleDetected if putting concept into
// scheme would bring an existing loop through concept inside that scope.
// With scheme "" the concept is leaving its last scheme and joins every
// scope.
func checkMembershipCycle(r Reader, concept, scheme string) error {
	scopes := []string{scheme}
	if scheme == "" {
		var err error
		if scopes, err = allScopes(r); err != nil {
			return err
		}
	}

	for _, scope := range scopes {
		filter := scopeFilter(r, scope, concept)

		starts, err := broaders(r, concept)
		if err != nil {
			return err
		}
		allowed := starts[:0]
		for _, start := range starts {
			ok, err := filter(start)
			if err != nil {
				return err
			}
			if ok {
				allowed = append(allowed, start)
			}
		}

		path, found, err := broaderPath(r, allowed, concept, filter)
		if err != nil {
			return err
		}
		if found {
			return fmt.Errorf("%w: %s would close %s", ErrCycleDetected, concept,
				strings.Join(append([]string{concept}, path...), " -> "))
		}
	}
	return nil
}

// checkSchemeRetraction fails with ErrCycleDetected if the change set drops
// scheme links in a way that leaves a forbidden loop: a concept losing its
// last scheme joins every scope.
func checkSchemeRetraction(r Reader, changes store.ChangeSet) error {
	drops := false
	for _, triple := range changes.Remove {
		if triple.Predicate == vocab.SKOSInScheme {
			drops = true
			break
		}
	}
	if !drops {
		return nil
	}

	existing, err := r.Match(store.Pattern{})
	if err != nil {
		return err
	}
	scratch := store.NewTripleStore()
	if err := scratch.BulkAdd(existing); err != nil {
		return err
	}
	if err := scratch.Apply(changes); err != nil {
		return err
	}
	return findHierarchyCycle(NewReader(scratch))
}

// loopScopes returns the scopes a loop through all of uris could be
// forbidden in: the schemes every scheme-bound concept among them shares.
// When none of them is in a scheme every scope qualifies.
func loopScopes(r Reader, uris ...string) ([]string, error) {
	var shared map[string]bool
	for _, uri := range uris {
		schemes, err := r.Links(uri, vocab.SKOSInScheme)
		if err != nil {
			return nil, err
		}
		if len(schemes) == 0 {
			continue
		}
		if shared == nil {
			shared = make(map[string]bool, len(schemes))
			for _, scheme := range schemes {
				shared[scheme] = true
			}
			continue
		}
		for scheme := range shared {
			if !slices.Contains(schemes, scheme) {
				delete(shared, scheme)
			}
		}
	}
	if shared == nil {
		return allScopes(r)
	}

	scopes := make([]string, 0, len(shared))
	for scheme := range shared {
		scopes = append(scopes, scheme)
	}
	sort.Strings(scopes)
	return scopes, nil
}

// allScopes returns every scheme any concept is in, plus "" for the
// concepts in no scheme.
func allScopes(r Reader) ([]string, error) {
	triples, err := r.Match(store.NewPattern("", vocab.SKOSInScheme, store.Term{}))
	if err != nil {
		return nil, err
	}
	scopes := []string{""}
	for _, triple := range triples {
		if triple.Object.IsIRI() {
			scopes = appendUnique(scopes, triple.Object.Value)
		}
	}
	sort.Strings(scopes)
	return scopes, nil
}

// scopeFilter admits the concepts of scheme together with the concepts in
// no scheme, or only the latter when scheme is "". The extra concept is
// admitted unconditionally.
func scopeFilter(r Reader, scheme, extra string) func(string) (bool, error) {
	return func(uri string) (bool, error) {
		if uri == extra {
			return true, nil
		}
		schemes, err := r.Links(uri, vocab.SKOSInScheme)
		if err != nil {
			return false, err
		}
		return len(schemes) == 0 || (scheme != "" && slices.Contains(schemes, scheme)), nil
	}
}

// broaders returns the direct broader concepts of uri, reading both
// (uri broader x) and (x narrower uri).
func broaders(r Reader, uri string) ([]string, error) {
	up, err := r.Links(uri, vocab.SKOSBroader)
	if err != nil {
		return nil, err
	}
	down, err := r.Subjects(vocab.SKOSNarrower, store.IRI(uri))
	if err != nil {
		return nil, err
	}
	return mergeSorted(up, down), nil
}

// broaderPath runs a depth-first search from starts along broader edges
// and returns the path to goal if one exists through admitted concepts.
func broaderPath(r Reader, starts []string, goal string, admit func(string) (bool, error)) ([]string, bool, error) {
	parent := make(map[string]string, len(starts))
	stack := make([]string, 0, len(starts))
	for _, start := range starts {
		parent[start] = ""
		stack = append(stack, start)
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node == goal {
			var path []string
			for step := node; step != ""; step = parent[step] {
				path = append([]string{step}, path...)
			}
			return path, true, nil
		}

		next, err := broaders(r, node)
		if err != nil {
			return nil, false, err
		}
		for _, candidate := range next {
			if _, seen := parent[candidate]; seen {
				continue
			}
			ok, err := admit(candidate)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				continue
			}
			parent[candidate] = node
			stack = append(stack, candidate)
		}
	}
	return nil, false, nil
}

// findHierarchyCycle checks every broader edge of the graph with the same
// scoped rule used for single assertions. A cheap global pass runs first;
// scoped checks are only needed when the unscoped hierarchy has a cycle.
func findHierarchyCycle(r Reader) error {
	edges, err := hierarchyEdges(r)
	if err != nil {
		return err
	}
	if !hasCycle(edges) {
		return nil
	}

	children := make([]string, 0, len(edges))
	for child := range edges {
		children = append(children, child)
	}
	sort.Strings(children)

	for _, child := range children {
		for _, parent := range edges[child] {
			if child == parent {
				return fmt.Errorf("%w: %s is broader than itself", ErrCycleDetected, child)
			}
			if err := checkBroaderCycle(r, child, parent); err != nil {
				return err
			}
		}
	}
	return nil
}

// hierarchyEdges maps each concept to its direct broader concepts.
func hierarchyEdges(r Reader) (map[string][]string, error) {
	edges := make(map[string][]string)

	up, err := r.Match(store.NewPattern("", vocab.SKOSBroader, store.Term{}))
	if err != nil {
		return nil, err
	}
	for _, triple := range up {
		if triple.Object.IsIRI() {
			edges[triple.Subject] = appendUnique(edges[triple.Subject], triple.Object.Value)
		}
	}

	down, err := r.Match(store.NewPattern("", vocab.SKOSNarrower, store.Term{}))
	if err != nil {
		return nil, err
	}
	for _, triple := range down {
		if triple.Object.IsIRI() {
			edges[triple.Object.Value] = appendUnique(edges[triple.Object.Value], triple.Subject)
		}
	}
	return edges, nil
}

// hasCycle is a three-colour depth-first search over the edge map.
func hasCycle(edges map[string][]string) bool {
	const (
		white = iota
		grey
		black
	)
	colour := make(map[string]int, len(edges))

	var visit func(string) bool
	visit = func(node string) bool {
		colour[node] = grey
		for _, next := range edges[node] {
			switch colour[next] {
			case grey:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		colour[node] = black
		return false
	}

	for node := range edges {
		if colour[node] == white && visit(node) {
			return true
		}
	}
	return false
}

// memberReaches reports whether goal is reachable from start along
// skos:member edges.
func memberReaches(r Reader, start, goal string) (bool, error) {
	seen := map[string]bool{start: true}
	stack := []string{start}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == goal {
			return true, nil
		}

		members, err := r.Links(node, vocab.SKOSMember)
		if err != nil {
			return false, err
		}
		for _, member := range members {
			if !seen[member] {
				seen[member] = true
				stack = append(stack, member)
			}
		}
	}
	return false, nil
}

// findMembershipCycle returns an error naming a collection that contains
// itself directly or transitively.
func findMembershipCycle(r Reader) error {
	triples, err := r.Match(store.NewPattern("", vocab.SKOSMember, store.Term{}))
	if err != nil {
		return err
	}

	edges := make(map[string][]string)
	for _, triple := range triples {
		if triple.Object.IsIRI() {
			edges[triple.Subject] = appendUnique(edges[triple.Subject], triple.Object.Value)
		}
	}
	if !hasCycle(edges) {
		return nil
	}

	containers := make([]string, 0, len(edges))
	for container := range edges {
		containers = append(containers, container)
	}
	sort.Strings(containers)
	for _, container := range containers {
		for _, member := range edges[container] {
			reaches, err := memberReaches(r, member, container)
			if err != nil {
				return err
			}
			if reaches {
				return fmt.Errorf("%w: collection %s contains itself", ErrConstraintViolation, container)
			}
		}
	}
	return nil
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}

func mergeSorted(a, b []string) []string {
	merged := append([]string(nil), a...)
	for _, value := range b {
		merged = appendUnique(merged, value)
	}
	sort.Strings(merged)
	return merged
}
