package uidsync

import (
	"fmt"
	"strings"

	"github.com/starford/vaultgate/internal/parser"
)

// UIDWidth is the zero-padded width of document UIDs.
const UIDWidth = 8

// Pad left-pads s with zeros to width. Longer strings are returned unchanged.
func Pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// frontmatterBlock returns the document's frontmatter re-emitted as
// "---\n<yaml>\n---\n" and the body after it. Without frontmatter the block
// is empty and the body is the whole text.
func frontmatterBlock(text string) (block, body string) {
	yamlText, body, ok := parser.SplitFrontmatter(text)
	if !ok {
		return "", text
	}
	return "---\n" + strings.TrimSpace(yamlText) + "\n---\n", body
}

// splitSections splits body at the first delimiter framed by blank lines,
// the form joinDocument writes, so a delimiter line inside a section (a
// Markdown rule for "---") stays put on later merges. Bodies that were never
// joined fall back to the first bare delimiter. A body without any delimiter
// becomes the first section.
func splitSections(body, delim string) [2]string {
	var out [2]string
	sep := "\n\n" + delim + "\n\n"
	if !strings.Contains(body, sep) {
		sep = delim
	}
	parts := strings.SplitN(body, sep, 2)
	out[0] = parts[0]
	if len(parts) == 2 {
		out[1] = parts[1]
	}
	return out
}

// joinDocument assembles a QA document from its frontmatter block and sections.
func joinDocument(block string, sections [2]string, delim string) string {
	return block + "\n" + strings.TrimSpace(sections[0]) + "\n\n" + delim + "\n\n" + strings.TrimSpace(sections[1])
}

// Merge replaces section fieldDomain of doc with scratch, keeping the
// frontmatter verbatim.
func Merge(doc, scratch string, fieldDomain int, delim string) string {
	block, body := frontmatterBlock(doc)
	sections := splitSections(body, delim)
	sections[fieldDomain] = scratch
	return joinDocument(block, sections, delim)
}

// NewDocument builds a fresh QA document for uid with scratch in section
// fieldDomain and the other section empty.
func NewDocument(uidField, uid, scratch string, fieldDomain int, delim string) string {
	block := fmt.Sprintf("---\n%s: %s\npreloadIframes: true\nenableLinks: true\n---\n", uidField, Pad(uid, UIDWidth))
	var sections [2]string
	sections[fieldDomain] = scratch
	return joinDocument(block, sections, delim)
}
