// Package parser extracts frontmatter, tags, and the heading outline from Markdown content.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

var (
	tagRe     = regexp.MustCompile(`(?:^|\s)#([\p{L}_][\p{L}\p{N}_/-]*)`)
	headingRe = regexp.MustCompile(`^(#{1,6})(?:[ \t]+(.*?))?(?:[ \t]+#+)?[ \t]*$`)
)

// Heading is one ATX heading. Line is the 0-based line index in the full file.
type Heading struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Line    int    `json:"line"`
}

// Metadata is the structured view of a document.
type Metadata struct {
	Frontmatter map[string]any    `json:"frontmatter"`
	Raw         map[string]string `json:"raw,omitempty"`
	Tags        []string          `json:"tags"`
	Headings    []Heading         `json:"headings"`
}

// SplitFrontmatter separates the YAML text between a leading "---" line and
// the next "---" line from the rest of the document. The YAML is not validated.
func SplitFrontmatter(text string) (yamlText, body string, ok bool) {
	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimRight(first, " \t\r") != delim {
		return "", text, false
	}
	offset := 0
	for {
		line, after, more := strings.Cut(rest[offset:], "\n")
		if strings.TrimRight(line, " \t\r") == delim {
			return rest[:offset], after, true
		}
		if !more {
			return "", text, false
		}
		offset += len(line) + 1
	}
}

// ExtractFrontmatter parses the frontmatter of text with a YAML parser.
// Text without frontmatter, or with malformed YAML, yields ok=false and the
// full text as body.
func ExtractFrontmatter(text string) (map[string]any, string, bool) {
	fm, _, body, ok := extract(text)
	return fm, body, ok
}

func extract(text string) (map[string]any, map[string]string, string, bool) {
	yamlText, body, ok := SplitFrontmatter(text)
	if !ok {
		return nil, nil, text, false
	}
	fm := map[string]any{}
	raw := map[string]string{}
	if strings.TrimSpace(yamlText) == "" {
		return fm, raw, body, true
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(yamlText), &doc); err != nil {
		return nil, nil, text, false
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil, text, false
	}
	if err := doc.Content[0].Decode(&fm); err != nil {
		return nil, nil, text, false
	}
	m := doc.Content[0]
	for i := 0; i+1 < len(m.Content); i += 2 {
		if v := m.Content[i+1]; v.Kind == yaml.ScalarNode {
			raw[m.Content[i].Value] = v.Value
		}
	}
	return fm, raw, body, true
}

// Parse builds the Metadata for a document.
func Parse(data []byte) *Metadata {
	text := string(data)
	fm, raw, body, ok := extract(text)
	if fm == nil {
		fm = map[string]any{}
	}
	delete(fm, "position")

	bodyStart := 0
	if ok {
		bodyStart = strings.Count(text[:len(text)-len(body)], "\n")
	}

	lines := strings.Split(text, "\n")
	headings, inline := scanBody(lines, bodyStart)

	return &Metadata{
		Frontmatter: fm,
		Raw:         raw,
		Tags:        mergeTags(fm, inline),
		Headings:    headings,
	}
}

// scanBody collects headings and inline tags from lines[start:], skipping fenced code.
func scanBody(lines []string, start int) ([]Heading, []string) {
	headings := []Heading{}
	var tags []string
	fence := ""
	for i := start; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		trimmed := strings.TrimLeft(line, " ")
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			headings = append(headings, Heading{
				Heading: strings.TrimSpace(m[2]),
				Level:   len(m[1]),
				Line:    i,
			})
		}
		for _, m := range tagRe.FindAllStringSubmatch(line, -1) {
			tags = append(tags, m[1])
		}
	}
	return headings, tags
}

// mergeTags combines frontmatter tags with inline tags, stripping a leading
// "#" and dropping case-sensitive duplicates while keeping first-seen order.
func mergeTags(fm map[string]any, inline []string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(tag string) {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if item != nil {
				add(fmt.Sprint(item))
			}
		}
	case string:
		for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			add(part)
		}
	}
	for _, t := range inline {
		add(t)
	}
	return out
}
