package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexText(t *testing.T, deps Deps, ctx context.Context, name, content string) map[string]any {
	t.Helper()
	writeDoc(t, deps.DocumentRoot, name, content)
	out, err := indexDocumentHandler(deps)(ctx, map[string]any{"file_path": name})
	require.NoError(t, err)
	return out.(map[string]any)
}

func TestSearchDocuments_FindsMatchingDocument(t *testing.T) {
	deps, ctx := newTestDeps(t)
	indexText(t, deps, ctx, "note.txt", "deploy checklist for rollout day")

	out, err := searchDocumentsHandler(deps)(ctx, map[string]any{"query": "rollout"})
	require.NoError(t, err)

	result := out.(map[string]any)
	results := result["results"].([]map[string]any)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(deps.DocumentRoot, "note.txt"), results[0]["path"])
	assert.Equal(t, 1, result["total_found"])
}

func TestSearchDocuments_TitleFallsBackToFileName(t *testing.T) {
	deps, ctx := newTestDeps(t)
	indexText(t, deps, ctx, "release-notes.txt", "shipped the release")

	out, err := searchDocumentsHandler(deps)(ctx, map[string]any{"query": "release"})
	require.NoError(t, err)

	results := out.(map[string]any)["results"].([]map[string]any)
	require.Len(t, results, 1)
	assert.Equal(t, "release-notes", results[0]["title"])
}

func TestSearchDocuments_TitlePrefersMetadata(t *testing.T) {
	deps, ctx := newTestDeps(t)
	indexText(t, deps, ctx, "runbook.md", "---\ntitle: Incident Runbook\n---\n\nSteps to follow.\n")

	out, err := searchDocumentsHandler(deps)(ctx, map[string]any{"query": "steps"})
	require.NoError(t, err)

	results := out.(map[string]any)["results"].([]map[string]any)
	require.Len(t, results, 1)
	assert.Equal(t, "Incident Runbook", results[0]["title"])
}

func TestSearchDocuments_FileTypeFilterExcludesOtherTypes(t *testing.T) {
	deps, ctx := newTestDeps(t)
	indexText(t, deps, ctx, "a.txt", "quarterly budget review")
	indexText(t, deps, ctx, "b.md", "# Budget\n\nquarterly budget review")

	out, err := searchDocumentsHandler(deps)(ctx, map[string]any{
		"query":      "budget",
		"file_types": []any{"markdown"},
	})
	require.NoError(t, err)

	results := out.(map[string]any)["results"].([]map[string]any)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(deps.DocumentRoot, "b.md"), results[0]["path"])
}

func TestSearchDocuments_MatchedTokensReportsHits(t *testing.T) {
	deps, ctx := newTestDeps(t)
	indexText(t, deps, ctx, "note.txt", "deploy checklist for rollout day")

	out, err := searchDocumentsHandler(deps)(ctx, map[string]any{"query": "deploy rollout missing"})
	require.NoError(t, err)

	results := out.(map[string]any)["results"].([]map[string]any)
	require.Len(t, results, 1)
	assert.ElementsMatch(t, []string{"deploy", "rollout"}, results[0]["matched_tokens"])
}

func TestSearchDocuments_NoMatchesReturnsEmptyResults(t *testing.T) {
	deps, ctx := newTestDeps(t)
	indexText(t, deps, ctx, "note.txt", "deploy checklist")

	out, err := searchDocumentsHandler(deps)(ctx, map[string]any{"query": "nonexistent"})
	require.NoError(t, err)
	assert.Empty(t, out.(map[string]any)["results"])
}
