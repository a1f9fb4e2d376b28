// Package models defines the domain types for mdexplorer.
package models

import "time"

// Entry is one child of a listed directory.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"isDir"`
	Path  string `json:"path"` // relative to root, "/" for the root itself
}

// File is the content of a regular file read through the sandbox.
type File struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Ext      string    `json:"ext"`
	Content  string    `json:"content"`
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
}

// Match is a single matching line inside a file.
type Match struct {
	LineNum int    `json:"lineNum"`
	Line    string `json:"line"`
}

// SearchHit groups the matches found in one file.
type SearchHit struct {
	RelPath string  `json:"relPath"`
	Name    string  `json:"name"`
	Matches []Match `json:"matches"`
}
