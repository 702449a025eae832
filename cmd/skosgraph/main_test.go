package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/skosgraph/pkg/config"
	"github.com/coolbeans/skosgraph/pkg/persist"
	"github.com/coolbeans/skosgraph/pkg/skos"
)

const zooNT = `<http://example.org/zoo/scheme> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2004/02/skos/core#ConceptScheme> .
<http://example.org/zoo/animal> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2004/02/skos/core#Concept> .
<http://example.org/zoo/animal> <http://www.w3.org/2004/02/skos/core#prefLabel> "Animal"@en .
<http://example.org/zoo/animal> <http://www.w3.org/2004/02/skos/core#inScheme> <http://example.org/zoo/scheme> .
<http://example.org/zoo/mammal> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2004/02/skos/core#Concept> .
<http://example.org/zoo/mammal> <http://www.w3.org/2004/02/skos/core#prefLabel> "Mammal"@en .
<http://example.org/zoo/mammal> <http://www.w3.org/2004/02/skos/core#inScheme> <http://example.org/zoo/scheme> .
<http://example.org/zoo/mammal> <http://www.w3.org/2004/02/skos/core#broader> <http://example.org/zoo/animal> .
<http://example.org/zoo/dog> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2004/02/skos/core#Concept> .
<http://example.org/zoo/dog> <http://www.w3.org/2004/02/skos/core#prefLabel> "Dog"@en .
<http://example.org/zoo/dog> <http://www.w3.org/2004/02/skos/core#inScheme> <http://example.org/zoo/scheme> .
<http://example.org/zoo/dog> <http://www.w3.org/2004/02/skos/core#broader> <http://example.org/zoo/mammal> .
`

// runCLI executes the root command against a graph and mirror in dir.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args,
		"--graph", filepath.Join(dir, "graph.nt"),
		"--db", filepath.Join(dir, "mirror.db"),
		"--log-level", "error",
	))
	err := cmd.Execute()
	return out.String(), err
}

func loadZoo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	source := filepath.Join(dir, "zoo.nt")
	require.NoError(t, os.WriteFile(source, []byte(zooNT), 0644))

	out, err := runCLI(t, dir, "load", source)
	require.NoError(t, err)
	assert.Contains(t, out, "Asserted:     12")
	assert.Contains(t, out, "Completed:    2")
	return dir
}

func TestLoad_WritesGraphFile(t *testing.T) {
	dir := loadZoo(t)

	data, err := os.ReadFile(filepath.Join(dir, "graph.nt"))
	require.NoError(t, err)
	assert.Contains(t, string(data),
		"<http://example.org/zoo/animal> <http://www.w3.org/2004/02/skos/core#narrower> <http://example.org/zoo/mammal> .")
}

func TestLoad_RejectedFileWritesNothing(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "bad.nt")
	bad := zooNT + "<http://example.org/zoo/animal> <http://www.w3.org/2004/02/skos/core#broader> <http://example.org/zoo/dog> .\n"
	require.NoError(t, os.WriteFile(source, []byte(bad), 0644))

	_, err := runCLI(t, dir, "load", source)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "graph.nt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDescendants_NearestFirst(t *testing.T) {
	dir := loadZoo(t)

	out, err := runCLI(t, dir, "descendants", "http://example.org/zoo/animal", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "http://example.org/zoo/mammal")
	assert.Contains(t, lines[2], "http://example.org/zoo/dog")
}

func TestAncestors_Direct(t *testing.T) {
	dir := loadZoo(t)

	out, err := runCLI(t, dir, "ancestors", "http://example.org/zoo/dog", "--direct", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "http://example.org/zoo/mammal")
	assert.NotContains(t, out, "http://example.org/zoo/animal")
}

func TestRelate_PersistsAcrossRuns(t *testing.T) {
	dir := loadZoo(t)

	_, err := runCLI(t, dir, "relate", "http://example.org/zoo/dog", "related", "http://example.org/zoo/animal")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "graph.nt"))
	require.NoError(t, err)
	assert.Contains(t, string(data),
		"<http://example.org/zoo/animal> <http://www.w3.org/2004/02/skos/core#related> <http://example.org/zoo/dog> .")

	_, err = runCLI(t, dir, "unrelate", "http://example.org/zoo/animal", "related", "http://example.org/zoo/dog")
	require.NoError(t, err)

	data, err = os.ReadFile(filepath.Join(dir, "graph.nt"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "core#related")
}

func TestRelate_RejectsCycle(t *testing.T) {
	dir := loadZoo(t)

	_, err := runCLI(t, dir, "relate", "http://example.org/zoo/animal", "broader", "http://example.org/zoo/dog")
	require.Error(t, err)

	_, err = runCLI(t, dir, "relate", "http://example.org/zoo/dog", "sibling", "http://example.org/zoo/animal")
	require.Error(t, err)
}

func TestFind_UsesMirror(t *testing.T) {
	dir := loadZoo(t)

	out, err := runCLI(t, dir, "find", "Dog", "--label-lang", "en")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/zoo/dog\n", out)
}

func TestMembers_Scheme(t *testing.T) {
	dir := loadZoo(t)

	out, err := runCLI(t, dir, "members", "http://example.org/zoo/scheme")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/zoo/animal\nhttp://example.org/zoo/dog\nhttp://example.org/zoo/mammal\n", out)

	_, err = runCLI(t, dir, "members", "http://example.org/zoo/dog")
	require.Error(t, err)
}

func TestExport_Formats(t *testing.T) {
	dir := loadZoo(t)

	out, err := runCLI(t, dir, "export", "--format", "turtle")
	require.NoError(t, err)
	assert.Contains(t, out, "skos:prefLabel")

	out, err = runCLI(t, dir, "export", "--format", "dot")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")

	_, err = runCLI(t, dir, "export", "--format", "rdfxml")
	require.Error(t, err)
}

func TestValidateAndRecover(t *testing.T) {
	dir := loadZoo(t)

	out, err := runCLI(t, dir, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Graph is valid")

	out, err = runCLI(t, dir, "recover")
	require.NoError(t, err)
	assert.Contains(t, out, "0 pending operations")

	require.NoError(t, os.Remove(filepath.Join(dir, "mirror.db")))
	out, err = runCLI(t, dir, "find", "Mammal")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/zoo/mammal\n", out)
}

func TestInit_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "thesaurus")

	_, err := runCLI(t, dir, "init", project)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(project, "skosgraph.yaml"))
	assert.DirExists(t, filepath.Join(project, "vocabularies"))

	_, err = runCLI(t, dir, "init", project)
	require.Error(t, err)
}

func testApp(t *testing.T, dir string) *app {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Graph.Path = filepath.Join(dir, "graph.nt")
	cfg.Database.Path = filepath.Join(dir, "mirror.db")

	a, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return a
}

func requireMirrorMatchesGraph(t *testing.T, a *app) {
	t.Helper()
	dump, err := a.mirror.Dump(context.Background())
	require.NoError(t, err)
	assert.Equal(t, persist.Project(a.graph.All()), dump)
}

func TestApp_UnsavedMutationIsRecovered(t *testing.T) {
	ctx := context.Background()
	dir := loadZoo(t)

	a := testApp(t, dir)
	dog, err := a.session.Concept("http://example.org/zoo/dog")
	require.NoError(t, err)
	require.NoError(t, dog.AddRelation(ctx, skos.Related, "http://example.org/zoo/animal"))

	// The process stops before the graph file is written.
	pending, err := a.mirror.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	require.NoError(t, a.Close())

	a = testApp(t, dir)
	defer a.Close()

	pending, err = a.mirror.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	related, err := a.mirror.QueryRelations(ctx, "http://example.org/zoo/dog", "related")
	require.NoError(t, err)
	assert.Empty(t, related)
	requireMirrorMatchesGraph(t, a)
}

func TestApp_SaveWritesGraphBeforeFlush(t *testing.T) {
	ctx := context.Background()
	dir := loadZoo(t)

	a := testApp(t, dir)
	dog, err := a.session.Concept("http://example.org/zoo/dog")
	require.NoError(t, err)
	require.NoError(t, dog.AddRelation(ctx, skos.Related, "http://example.org/zoo/animal"))
	require.NoError(t, a.save(ctx))

	pending, err := a.mirror.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	require.NoError(t, a.Close())

	a = testApp(t, dir)
	defer a.Close()

	related, err := a.mirror.QueryRelations(ctx, "http://example.org/zoo/dog", "related")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.org/zoo/animal"}, related)
	requireMirrorMatchesGraph(t, a)
}
