package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mdexplorer/internal/models"
	"github.com/starford/mdexplorer/internal/testutil"
)

func newTestSearcher(t *testing.T) (string, *Searcher) {
	t.Helper()
	root, store := testutil.TestRoot(t)
	return root, NewSearcher(store)
}

func hitPaths(hits []models.SearchHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.RelPath
	}
	return out
}

func TestSearch_EmptyQuery(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.WriteFile(t, root, "a.md", "anything")

	for _, q := range []string{"", "   ", "\t\n"} {
		res, err := s.Search(context.Background(), root, q)
		require.NoError(t, err)
		assert.Empty(t, res.Hits)
		assert.NotNil(t, res.Hits)
		assert.Equal(t, Stats{}, res.Stats, "query %q touched the file system", q)
	}
}

func TestSearch_EmptyQueryMissingDir(t *testing.T) {
	root, s := newTestSearcher(t)

	res, err := s.Search(context.Background(), filepath.Join(root, "missing"), " ")
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.WriteFile(t, root, "notes.md", "first line\nThe Quick BROWN fox\nlast")

	res, err := s.Search(context.Background(), root, "  quick brown ")
	require.NoError(t, err)
	assert.Equal(t, "quick brown", res.Query)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, models.SearchHit{
		RelPath: "/notes.md",
		Name:    "notes.md",
		Matches: []models.Match{{LineNum: 2, Line: "The Quick BROWN fox"}},
	}, res.Hits[0])
}

func TestSearch_FileCap(t *testing.T) {
	root, s := newTestSearcher(t)
	for i := range 60 {
		testutil.WriteFile(t, root, fmt.Sprintf("f%02d.md", i), "needle")
	}

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Len(t, res.Hits, MaxFiles)
	// The cap stops the walk mid-directory: later files are never opened.
	assert.Equal(t, MaxFiles, res.Stats.Files)
	assert.Equal(t, "/f00.md", res.Hits[0].RelPath)
	assert.Equal(t, "/f49.md", res.Hits[MaxFiles-1].RelPath)
}

func TestSearch_FileCapAcrossDirectories(t *testing.T) {
	root, s := newTestSearcher(t)
	for i := range 60 {
		testutil.WriteFile(t, root, fmt.Sprintf("d%d/f%02d.txt", i%3, i), "match here")
	}

	res, err := s.Search(context.Background(), root, "MATCH")
	require.NoError(t, err)
	assert.Len(t, res.Hits, MaxFiles)
}

func TestSearch_MatchCapPerFile(t *testing.T) {
	root, s := newTestSearcher(t)
	var b strings.Builder
	for i := 1; i <= 10; i++ {
		if i%2 == 0 {
			fmt.Fprintf(&b, "skip %d\n", i)
			continue
		}
		fmt.Fprintf(&b, "hit %d\nhit again %d\n", i, i)
	}
	testutil.WriteFile(t, root, "many.md", b.String())

	res, err := s.Search(context.Background(), root, "hit")
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, []models.Match{
		{LineNum: 1, Line: "hit 1"},
		{LineNum: 2, Line: "hit again 1"},
		{LineNum: 4, Line: "hit 3"},
		{LineNum: 5, Line: "hit again 3"},
		{LineNum: 7, Line: "hit 5"},
	}, res.Hits[0].Matches)
}

func TestSearch_EightMatchingLines(t *testing.T) {
	root, s := newTestSearcher(t)
	var lines []string
	for i := 1; i <= 8; i++ {
		lines = append(lines, fmt.Sprintf("needle %d", i))
	}
	testutil.WriteFile(t, root, "eight.txt", strings.Join(lines, "\n"))

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	require.Len(t, res.Hits[0].Matches, MaxMatchesPerFile)
	for i, m := range res.Hits[0].Matches {
		assert.Equal(t, i+1, m.LineNum)
		assert.Equal(t, fmt.Sprintf("needle %d", i+1), m.Line)
	}
}

func TestSearch_SkipsSkipListAndHidden(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.Tree(t, root, map[string]string{
		"node_modules/pkg/readme.md": "needle",
		".git/HEAD.txt":              "needle",
		"dist/out.json":              `{"k":"needle"}`,
		"build/log.txt":              "needle",
		".next/cache.json":           "needle",
		"__pycache__/x.txt":          "needle",
		"vendor/mod.md":              "needle",
		".venv/cfg.yaml":             "needle",
		".hidden.md":                 "needle",
		"docs/.secret.md":            "needle",
		"docs/node_modules/deep.md":  "needle",
		"docs/visible.md":            "needle",
	})

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/visible.md"}, hitPaths(res.Hits))
	assert.Zero(t, res.Stats.Skipped)
}

func TestSearch_ExtensionFilter(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.Tree(t, root, map[string]string{
		"a.MD":        "needle",
		"b.Markdown":  "needle",
		"c.mdx":       "needle",
		"d.json":      "needle",
		"e.yaml":      "needle",
		"f.YML":       "needle",
		"g.TXT":       "needle",
		"h.go":        "needle",
		"i.html":      "needle",
		"noextension": "needle",
	})

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.MD", "/b.Markdown", "/c.mdx", "/d.json", "/e.yaml", "/f.YML", "/g.TXT"}, hitPaths(res.Hits))
	assert.Equal(t, 3, res.Stats.Excluded)
	assert.Zero(t, res.Stats.Skipped)
}

func TestSearch_LongLineTrimmedAndTruncated(t *testing.T) {
	root, s := newTestSearcher(t)
	long := "   " + strings.Repeat("é", 150) + "needle" + strings.Repeat("x", 400) + "   "
	testutil.WriteFile(t, root, "long.md", "line one\n\n"+long+"\n")

	res, err := s.Search(context.Background(), root, "NEEDLE")
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	m := res.Hits[0].Matches[0]
	assert.Equal(t, 3, m.LineNum)
	assert.Equal(t, MaxLineRunes, utf8.RuneCountInString(m.Line))
	assert.True(t, strings.HasPrefix(m.Line, "éé"))
	assert.True(t, utf8.ValidString(m.Line))
}

func TestSearch_CRLFLines(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.WriteFile(t, root, "win.txt", "alpha\r\n  beta needle  \r\ngamma\r\n")

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, []models.Match{{LineNum: 2, Line: "beta needle"}}, res.Hits[0].Matches)
}

func TestSearch_DepthCap(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.Tree(t, root, map[string]string{
		"top.md":                    "needle",
		"1/2/3/4/5/6/at-six.md":     "needle",
		"1/2/3/4/5/6/7/at-seven.md": "needle",
	})

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Equal(t, []string{"/1/2/3/4/5/6/at-six.md", "/top.md"}, hitPaths(res.Hits))
}

func TestSearch_DepthIsRelativeToStart(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.WriteFile(t, root, "a/1/2/3/4/5/6/deep.md", "needle")

	res, err := s.Search(context.Background(), filepath.Join(root, "a"), "needle")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/1/2/3/4/5/6/deep.md"}, hitPaths(res.Hits))

	res, err = s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestSearch_DepthFirstLexicalOrder(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.Tree(t, root, map[string]string{
		"b.md":       "needle",
		"a/z.md":     "needle",
		"a/b/y.md":   "needle",
		"c/x.md":     "needle",
		"A-first.md": "needle",
	})

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Equal(t, []string{"/A-first.md", "/a/b/y.md", "/a/z.md", "/b.md", "/c/x.md"}, hitPaths(res.Hits))
}

func TestSearch_FilesWithoutMatchesOmitted(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.WriteFile(t, root, "yes.md", "needle")
	testutil.WriteFile(t, root, "no.md", "nothing to see")

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Equal(t, []string{"/yes.md"}, hitPaths(res.Hits))
	assert.Equal(t, 2, res.Stats.Files)
}

func TestSearch_UnreadableEntriesDoNotAbort(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.WriteFile(t, root, "a.md", "needle")
	locked := testutil.WriteFile(t, root, "b.md", "needle")
	lockedDir := testutil.Mkdir(t, root, "c")
	testutil.WriteFile(t, root, "c/inner.md", "needle")
	testutil.WriteFile(t, root, "d.md", "needle")
	testutil.Unreadable(t, locked)
	testutil.Unreadable(t, lockedDir)

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.md", "/d.md"}, hitPaths(res.Hits))
	assert.Equal(t, 2, res.Stats.Skipped)
}

func TestSearch_UnreadableStartDir(t *testing.T) {
	root, s := newTestSearcher(t)

	res, err := s.Search(context.Background(), filepath.Join(root, "missing"), "needle")
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.Equal(t, 1, res.Stats.Skipped)
}

func TestSearch_InvalidUTF8Skipped(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.WriteFile(t, root, "bin.txt", "needle\xff\xfe")
	testutil.WriteFile(t, root, "ok.txt", "needle")

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Equal(t, []string{"/ok.txt"}, hitPaths(res.Hits))
	assert.Equal(t, 1, res.Stats.Skipped)
}

func TestSearch_TooLargeSkipped(t *testing.T) {
	root, store := testutil.TestRoot(t)
	s := NewSearcher(store, WithMaxFileBytes(16))
	testutil.WriteFile(t, root, "big.md", "needle "+strings.Repeat("x", 32))
	testutil.WriteFile(t, root, "small.md", "needle")

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Equal(t, []string{"/small.md"}, hitPaths(res.Hits))
	assert.Equal(t, 1, res.Stats.Skipped)
}

func TestSearch_SymlinksLeavingRootNotFollowed(t *testing.T) {
	root, s := newTestSearcher(t)
	outside := t.TempDir()
	testutil.WriteFile(t, outside, "secret.md", "needle")
	if err := os.Symlink(filepath.Join(outside, "secret.md"), filepath.Join(root, "link.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "linkdir")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestSearch_SymlinkedFileInsideRoot(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.WriteFile(t, root, "docs/real.md", "needle")
	if err := os.Symlink(filepath.Join(root, "docs", "real.md"), filepath.Join(root, "alias.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	// Relative link targets resolve against the link's directory.
	if err := os.Symlink(filepath.Join("docs", "real.md"), filepath.Join(root, "rel.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	// Links to directories stay unwalked even inside the root.
	if err := os.Symlink(filepath.Join(root, "docs"), filepath.Join(root, "docs-link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	// Dangling and non-text links are excluded.
	if err := os.Symlink(filepath.Join(root, "gone.md"), filepath.Join(root, "dangling.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	res, err := s.Search(context.Background(), root, "needle")
	require.NoError(t, err)
	assert.Equal(t, []string{"/alias.md", "/docs/real.md", "/rel.md"}, hitPaths(res.Hits))
}

func TestSearch_ContextCancelled(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.WriteFile(t, root, "a.md", "needle")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Search(ctx, root, "needle")
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Partial)
	assert.Empty(t, res.Hits)
}

func TestVisitOutcomes(t *testing.T) {
	root, s := newTestSearcher(t)
	testutil.Tree(t, root, map[string]string{
		"hit.md":      "needle",
		"miss.md":     "hay",
		"code.go":     "needle",
		".dot.md":     "needle",
		"sub/x.md":    "needle",
		"vendor/x.md": "needle",
	})
	locked := testutil.WriteFile(t, root, "locked.md", "needle")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	got := map[string]outcome{}
	for _, e := range entries {
		out, _ := s.visit(filepath.Join(root, e.Name()), e, "needle")
		got[e.Name()] = out
	}
	assert.Equal(t, outcomeMatched, got["hit.md"])
	assert.Equal(t, outcomeNoMatch, got["miss.md"])
	assert.Equal(t, outcomeExcluded, got["code.go"])
	assert.Equal(t, outcomeExcluded, got[".dot.md"])
	assert.Equal(t, outcomeDescend, got["sub"])
	assert.Equal(t, outcomeExcluded, got["vendor"])

	testutil.Unreadable(t, locked)
	for _, e := range entries {
		if e.Name() == "locked.md" {
			out, hit := s.visit(locked, e, "needle")
			assert.Equal(t, outcomeSkipped, out)
			assert.Nil(t, hit)
		}
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short"))
	assert.Equal(t, strings.Repeat("a", MaxLineRunes), clip(strings.Repeat("a", MaxLineRunes)))
	assert.Equal(t, strings.Repeat("ß", MaxLineRunes), clip(strings.Repeat("ß", MaxLineRunes+5)))
}

func TestIsSearchable(t *testing.T) {
	for _, name := range []string{"a.md", "A.MDX", "x.markdown", "n.txt", "p.json", "c.yaml", "c.yml"} {
		assert.True(t, IsSearchable(name), name)
	}
	for _, name := range []string{"a.go", "md", "a.md.bak", "image.png", ""} {
		assert.False(t, IsSearchable(name), name)
	}
}
