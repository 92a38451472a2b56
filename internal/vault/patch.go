package vault

import (
	"context"
	"strings"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/parser"
)

// Insertion positions for Patch.
const (
	PositionBeginning = "beginning"
	PositionEnd       = "end"
)

// DefaultHeadingBoundary separates heading names in the Heading header.
const DefaultHeadingBoundary = "::"

// PatchRequest inserts Content relative to the heading addressed by Heading.
type PatchRequest struct {
	Heading  []string
	Position string
	Content  string
}

// ParsePosition validates a Content-Insertion-Position value; "" means end.
func ParsePosition(v string) (string, error) {
	switch v {
	case "":
		return PositionEnd, nil
	case PositionBeginning, PositionEnd:
		return v, nil
	}
	return "", apperr.New(apperr.InvalidContentInsertionPositionValue, "")
}

// SplitHeading splits a Heading header by boundary, dropping empty parts.
func SplitHeading(header, boundary string) []string {
	if boundary == "" {
		boundary = DefaultHeadingBoundary
	}
	var out []string
	for _, part := range strings.Split(header, boundary) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Patch splices req.Content into p as a single line at the resolved
// heading boundary and returns the new document.
func (s *Service) Patch(_ context.Context, p string, req PatchRequest) (string, error) {
	if err := RequireFile(p); err != nil {
		return "", err
	}
	position, err := ParsePosition(req.Position)
	if err != nil {
		return "", err
	}
	if len(req.Heading) == 0 {
		return "", apperr.New(apperr.MissingHeadingHeader, "")
	}

	data, err := s.store.Read(p)
	if err != nil {
		return "", err
	}
	// Outline comes from the bytes being patched so line numbers cannot drift.
	boundary, ok := parser.FindHeadingBoundary(parser.Parse(data).Headings, req.Heading)
	if !ok {
		return "", apperr.New(apperr.InvalidHeadingHeader, "")
	}

	lines := strings.Split(string(data), "\n")
	at := boundary.End
	if position == PositionBeginning {
		at = boundary.Start + 1
	} else if at < 0 {
		at = len(lines)
	}
	if at > len(lines) {
		at = len(lines)
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, req.Content)
	out = append(out, lines[at:]...)
	content := strings.Join(out, "\n")

	if err := s.store.Write(p, []byte(content)); err != nil {
		return "", err
	}
	if err := s.indexed(p, []byte(content), "updated"); err != nil {
		return "", err
	}
	return content, nil
}
