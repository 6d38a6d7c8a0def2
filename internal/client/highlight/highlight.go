// internal/client/highlight/highlight.go
package highlight

import (
	"regexp"
	"strings"
	"sync"
)

// Match is the byte span of one occurrence of the term in the body.
type Match struct {
	Start int
	End   int
}

// Segment is a run of body text. Matched segments carry the index of the
// match they belong to (0-based); plain segments have Index -1.
type Segment struct {
	Text  string
	Match bool
	Index int
}

// pattern compiles a global, case-insensitive matcher for term. The term is
// matched literally. A blank term yields nil.
func pattern(term string) *regexp.Regexp {
	if strings.TrimSpace(term) == "" {
		return nil
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
}

// Matches finds every occurrence of term in body.
func Matches(body, term string) []Match {
	re := pattern(term)
	if re == nil {
		return nil
	}
	locs := re.FindAllStringIndex(body, -1)
	out := make([]Match, 0, len(locs))
	for _, l := range locs {
		out = append(out, Match{Start: l[0], End: l[1]})
	}
	return out
}

// Segments splits body at every match. A blank term returns the body as a
// single plain segment.
func Segments(body, term string) []Segment {
	ms := Matches(body, term)
	if len(ms) == 0 {
		return []Segment{{Text: body, Index: -1}}
	}
	var out []Segment
	prev := 0
	for i, m := range ms {
		if m.Start > prev {
			out = append(out, Segment{Text: body[prev:m.Start], Index: -1})
		}
		out = append(out, Segment{Text: body[m.Start:m.End], Match: true, Index: i})
		prev = m.End
	}
	if prev < len(body) {
		out = append(out, Segment{Text: body[prev:], Index: -1})
	}
	return out
}

// Finder tracks the current match while a user steps through a body, and
// caches the scroll offsets of every match for a given layout.
type Finder struct {
	mu      sync.Mutex
	body    string
	term    string
	matches []Match
	current int

	layout  Layout
	offsets []int
	valid   bool
}

// NewFinder starts with no term.
func NewFinder(body string) *Finder {
	return &Finder{body: body}
}

// SetBody replaces the body, resets the current match, and drops cached
// offsets.
func (f *Finder) SetBody(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if body == f.body {
		return
	}
	f.body = body
	f.refresh()
}

// SetTerm replaces the search term, resets the current match, and drops
// cached offsets.
func (f *Finder) SetTerm(term string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if term == f.term {
		return
	}
	f.term = term
	f.refresh()
}

func (f *Finder) refresh() {
	f.matches = Matches(f.body, f.term)
	f.current = 0
	f.valid = false
	f.offsets = nil
}

// Count is the number of matches.
func (f *Finder) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matches)
}

// Current is the index of the current match, or -1 when there is none.
func (f *Finder) Current() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.matches) == 0 {
		return -1
	}
	return f.current
}

// Next advances to the following match, wrapping to the first after the
// last, and returns the new index (-1 when there are no matches).
func (f *Finder) Next() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.matches) == 0 {
		return -1
	}
	f.current = (f.current + 1) % len(f.matches)
	return f.current
}

// Prev steps back, wrapping to the last match before the first.
func (f *Finder) Prev() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.matches)
	if n == 0 {
		return -1
	}
	f.current = (f.current - 1 + n) % n
	return f.current
}

// Segments splits the current body at the current term's matches.
func (f *Finder) Segments() []Segment {
	f.mu.Lock()
	body, term := f.body, f.term
	f.mu.Unlock()
	return Segments(body, term)
}

// Offset returns the vertical scroll offset of the current match for the
// layout. ok is false when there are no matches.
func (f *Finder) Offset(l Layout) (offset int, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.matches) == 0 {
		return 0, false
	}
	f.ensureOffsets(l)
	return f.offsets[f.current], true
}

// Offsets returns the vertical offset of every match for the layout. The
// result is computed once per (body, term, layout) and reused.
func (f *Finder) Offsets(l Layout) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureOffsets(l)
	return append([]int(nil), f.offsets...)
}

func (f *Finder) ensureOffsets(l Layout) {
	if f.valid && f.layout == l {
		return
	}
	f.offsets = l.Offsets(f.body, f.matches)
	f.layout = l
	f.valid = true
}

// cached reports whether offsets are currently cached (for tests).
func (f *Finder) cached() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid
}
