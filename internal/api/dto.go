package api

import (
	"github.com/starford/mdexplorer/internal/explorer"
	"github.com/starford/mdexplorer/internal/models"
)

// TreeResponse is a directory listing (aliased from the service layer).
type TreeResponse = explorer.Tree

// FileResponse is the content of a file (aliased from the domain layer).
type FileResponse = models.File

// SearchResponse wraps search results (aliased from the service layer).
type SearchResponse = explorer.SearchResults

// RenderResponse is a rendered Markdown file (aliased from the service layer).
type RenderResponse = explorer.Rendered
