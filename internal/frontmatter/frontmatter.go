// Package frontmatter splits an optional YAML header off Markdown documents
// and derives a display title and tags from it.
package frontmatter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Document is a Markdown file with its header separated from the body.
type Document struct {
	Meta  map[string]any
	Body  []byte
	Title string
	Tags  []string
}

// Parse separates YAML frontmatter (between leading --- lines) from the body.
// Without a well-formed header the whole input is the body.
func Parse(data []byte) Document {
	meta, body := split(data)
	return Document{
		Meta:  meta,
		Body:  body,
		Title: title(meta, body),
		Tags:  tags(meta),
	}
}

func split(data []byte) (map[string]any, []byte) {
	rest, ok := cutLine(data)
	if !ok {
		return nil, data
	}

	var block []byte
	for len(rest) > 0 {
		line, next, _ := bytes.Cut(rest, []byte("\n"))
		if string(bytes.TrimRight(line, "\r")) == delim {
			var meta map[string]any
			if err := yaml.Unmarshal(block, &meta); err != nil {
				return nil, data
			}
			return meta, bytes.TrimLeft(next, "\r\n")
		}
		block = append(block, line...)
		block = append(block, '\n')
		rest = next
	}
	// No closing delimiter.
	return nil, data
}

// cutLine reports whether data opens with a delimiter line and returns what follows.
func cutLine(data []byte) ([]byte, bool) {
	first, rest, found := bytes.Cut(data, []byte("\n"))
	if !found || string(bytes.TrimRight(first, "\r")) != delim {
		return nil, false
	}
	return rest, true
}

// title prefers the "title" key, then the first level-one heading.
func title(meta map[string]any, body []byte) string {
	if s, ok := meta["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	inFence := false
	for line := range strings.Lines(string(body)) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// tags accepts both a YAML list and a comma separated string.
func tags(meta map[string]any) []string {
	var raw []string
	switch v := meta["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(v, ",")
	}

	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
