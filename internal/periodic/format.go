package periodic

import (
	"time"

	"github.com/nleeper/goment"
)

// Format renders t with a moment-style date format such as "YYYY-MM-DD" or
// "gggg-[W]ww". Text inside [brackets] is copied literally. "gggg" and "ww"
// are locale weeks (starting Sunday); "GGGG" and "WW" are ISO-8601 weeks.
func Format(layout string, t time.Time) string {
	g, err := goment.New(t)
	if err != nil {
		return t.Format(time.DateOnly)
	}
	return g.Format(layout)
}
