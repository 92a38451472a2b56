package parser

// Boundary locates a heading section. End is the line of the next heading at
// the same or a higher level, or -1 when the section runs to end of file.
type Boundary struct {
	Start int
	End   int
}

// FindHeadingBoundary finds the heading addressed by path. The last element
// names the heading itself; each earlier element must name the closest
// enclosing heading, so a path may omit outer levels.
func FindHeadingBoundary(headings []Heading, path []string) (Boundary, bool) {
	if len(path) == 0 {
		return Boundary{}, false
	}
	target := path[len(path)-1]

	for idx, h := range headings {
		if h.Heading != target || !ancestorsMatch(headings[:idx], h.Level, path[:len(path)-1]) {
			continue
		}
		b := Boundary{Start: h.Line, End: -1}
		for _, next := range headings[idx+1:] {
			if next.Level <= h.Level {
				b.End = next.Line
				break
			}
		}
		return b, true
	}
	return Boundary{}, false
}

// ancestorsMatch walks backwards from the end of prior, matching parents
// (innermost first) against the enclosing headings.
func ancestorsMatch(prior []Heading, level int, parents []string) bool {
	pos := len(prior) - 1
	for p := len(parents) - 1; p >= 0; p-- {
		for pos >= 0 && prior[pos].Level >= level {
			pos--
		}
		if pos < 0 || prior[pos].Heading != parents[p] {
			return false
		}
		level = prior[pos].Level
		pos--
	}
	return true
}
