package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/models"
	"github.com/starford/vaultgate/internal/search/logic"
)

// Match is one file whose rule result was non-empty.
type Match struct {
	Path   string `json:"path"`
	Result any    `json:"result"`
}

// Structured evaluates a JSON Logic rule against every Markdown file's note
// object ({path, content, frontmatter, tags, stat}). The first evaluation
// error aborts the whole search.
func Structured(ctx context.Context, src Source, rule any) ([]Match, error) {
	files, err := src.Files(ctx)
	if err != nil {
		return nil, err
	}
	out := []Match{}
	for _, f := range files {
		if !f.IsMarkdown() {
			continue
		}
		data, err := noteData(ctx, src, f)
		if err != nil {
			return nil, err
		}
		result, err := logic.Apply(rule, data)
		if err != nil {
			return nil, apperr.New(apperr.InvalidFilterQuery, fmt.Sprintf("%s (while processing %s)", err, f.Path))
		}
		if nonEmpty(result) {
			out = append(out, Match{Path: f.Path, Result: result})
		}
	}
	return out, nil
}

// noteData builds the evaluation context for f in its JSON shape.
func noteData(ctx context.Context, src Source, f models.FileInfo) (any, error) {
	content, info, err := src.Read(ctx, f.Path)
	if err != nil {
		return nil, err
	}
	meta, err := src.MetadataFor(ctx, f.Path)
	if err != nil {
		return nil, err
	}
	note := models.NoteJSON{
		Path:        f.Path,
		Content:     string(content),
		Frontmatter: meta.Frontmatter,
		Tags:        meta.Tags,
		Stat:        models.StatOf(info),
	}
	raw, err := json.Marshal(note)
	if err != nil {
		return nil, fmt.Errorf("search: encode %s: %w", f.Path, err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("search: decode %s: %w", f.Path, err)
	}
	return data, nil
}

// nonEmpty decides whether a rule result selects its file: nil never does,
// arrays and objects need at least one element, scalars use truthiness.
func nonEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return logic.Truthy(v)
}
