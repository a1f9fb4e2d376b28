package mcpserver

import (
	"fmt"

	"github.com/starford/mdexplorer/internal/search"
)

// SearchRules describes how search_files explores the tree so LLM clients
// can interpret empty or truncated results.
var SearchRules = fmt.Sprintf(`# mdexplorer search rules

- Paths are relative to the served root. "/" or "" is the root itself.
  Paths that leave the root are rejected with "access denied".
- Matching is a case-insensitive substring match against single lines.
- Only files ending in .md, .mdx, .markdown, .txt, .json, .yaml or .yml are read.
- Hidden entries (names starting with ".") are never listed or searched.
- These directories are never searched: node_modules, .git, dist, build,
  .next, __pycache__, vendor, .venv. They still appear in listings.
- The search descends at most %d directory levels below the starting directory.
- At most %d files are returned, each with at most %d matching lines.
  Lines are trimmed and cut to %d characters.
- Files that cannot be read are silently skipped.
- Symlinked files are searched only when they point to a file inside the root.
  Symlinked directories are not entered.
- Results are in depth-first order, entries sorted by name within each directory.
`, search.MaxDepth, search.MaxFiles, search.MaxMatchesPerFile, search.MaxLineRunes)
