// Package search implements the plain-text, structured (JSON Logic) and
// background "GUI" searches over the vault's Markdown files.
package search

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/starford/vaultgate/internal/models"
	"github.com/starford/vaultgate/internal/parser"
)

// DefaultContextLength is the number of runes shown on each side of a match.
const DefaultContextLength = 100

// Source is the read side of the vault that searches run against.
type Source interface {
	Files(ctx context.Context) ([]models.FileInfo, error)
	Read(ctx context.Context, p string) ([]byte, models.FileInfo, error)
	MetadataFor(ctx context.Context, p string) (*parser.Metadata, error)
}

// Span is a half-open rune range [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Context is one match with the text around it.
type Context struct {
	Match   Span   `json:"match"`
	Context string `json:"context"`
}

// Result is one matching file of a simple search.
type Result struct {
	Path    string    `json:"path"`
	Score   float64   `json:"score"`
	Matches []Context `json:"matches"`
}

// Scorer scores one document. ok is false when the document does not match.
type Scorer interface {
	Score(content string) (score float64, spans []Span, ok bool)
}

// TokenScorer matches documents that contain every whitespace-separated
// token of the query, ignoring case. The score is the negated number of
// occurrences, so documents with more hits sort first.
type TokenScorer struct {
	tokens [][]rune
}

// NewTokenScorer prepares a scorer for query.
func NewTokenScorer(query string) *TokenScorer {
	s := &TokenScorer{}
	for _, f := range strings.Fields(query) {
		s.tokens = append(s.tokens, lowerRunes(f))
	}
	return s
}

func (s *TokenScorer) Score(content string) (float64, []Span, bool) {
	if len(s.tokens) == 0 {
		return 0, nil, false
	}
	hay := lowerRunes(content)
	var spans []Span
	for _, tok := range s.tokens {
		found := occurrences(hay, tok)
		if len(found) == 0 {
			return 0, nil, false
		}
		spans = append(spans, found...)
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
	return -float64(len(spans)), spans, true
}

func lowerRunes(s string) []rune {
	r := []rune(s)
	for i, c := range r {
		r[i] = unicode.ToLower(c)
	}
	return r
}

func occurrences(hay, needle []rune) []Span {
	var out []Span
	for i := 0; i+len(needle) <= len(hay); i++ {
		if runesEqual(hay[i:i+len(needle)], needle) {
			out = append(out, Span{Start: i, End: i + len(needle)})
		}
	}
	return out
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Contexts cuts a window of contextLength runes around every span.
func Contexts(content string, spans []Span, contextLength int) []Context {
	runes := []rune(content)
	out := make([]Context, 0, len(spans))
	for _, sp := range spans {
		from := max(sp.Start-contextLength, 0)
		to := min(sp.End+contextLength, len(runes))
		out = append(out, Context{Match: sp, Context: string(runes[from:to])})
	}
	return out
}

// Simple runs scorer over every Markdown file and returns the matches sorted
// by ascending score. Ties keep path order.
func Simple(ctx context.Context, src Source, scorer Scorer, contextLength int) ([]Result, error) {
	if contextLength < 0 {
		contextLength = DefaultContextLength
	}
	files, err := src.Files(ctx)
	if err != nil {
		return nil, err
	}
	results := []Result{}
	for _, f := range files {
		if !f.IsMarkdown() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, _, err := src.Read(ctx, f.Path)
		if err != nil {
			return nil, err
		}
		content := string(data)
		score, spans, ok := scorer.Score(content)
		if !ok {
			continue
		}
		results = append(results, Result{
			Path:    f.Path,
			Score:   score,
			Matches: Contexts(content, spans, contextLength),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	return results, nil
}
