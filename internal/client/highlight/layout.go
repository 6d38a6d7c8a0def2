// internal/client/highlight/layout.go
package highlight

import (
	"sort"
	"unicode"
	"unicode/utf8"
)

// Layout is the measured geometry the body is rendered with: text wraps at
// Width columns and each line is LineHeight tall, starting Top units down.
type Layout struct {
	Width      int
	LineHeight int
	Top        int
}

// LineStarts returns the byte offset at which every rendered line begins.
// Hard newlines always break; otherwise lines wrap greedily at word
// boundaries, and words wider than the layout are split.
func (l Layout) LineStarts(body string) []int {
	width := l.Width
	if width <= 0 {
		width = 80
	}
	starts := []int{0}
	col := 0
	lastSpace := -1 // byte offset just after the last space on this line
	lastSpaceCol := 0

	for i := 0; i < len(body); {
		r, size := utf8.DecodeRuneInString(body[i:])
		if r == '\n' {
			starts = append(starts, i+size)
			col, lastSpace = 0, -1
			i += size
			continue
		}
		if col == width {
			if unicode.IsSpace(r) {
				// a space at the wrap point is swallowed
				starts = append(starts, i+size)
				col, lastSpace = 0, -1
				i += size
				continue
			}
			if lastSpace > starts[len(starts)-1] {
				starts = append(starts, lastSpace)
				col -= lastSpaceCol
			} else {
				starts = append(starts, i)
				col = 0
			}
			lastSpace = -1
		}
		col++
		if unicode.IsSpace(r) {
			lastSpace = i + size
			lastSpaceCol = col
		}
		i += size
	}
	return starts
}

// Line returns the index of the rendered line containing byte offset pos.
func (l Layout) Line(starts []int, pos int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > pos }) - 1
}

// Offsets maps every match to the vertical offset of the line it starts on.
func (l Layout) Offsets(body string, matches []Match) []int {
	if len(matches) == 0 {
		return nil
	}
	lh := l.LineHeight
	if lh <= 0 {
		lh = 1
	}
	starts := l.LineStarts(body)
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = l.Top + l.Line(starts, m.Start)*lh
	}
	return out
}
