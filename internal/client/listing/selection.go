// internal/client/listing/selection.go
package listing

// Selection is the set of record IDs checked for a bulk action. It keeps
// insertion order so the IDs go out in the order they were picked.
// The zero value is empty and ready to use.
type Selection struct {
	order []string
	set   map[string]bool
}

// Toggle adds id when absent and removes it when present.
func (s *Selection) Toggle(id string) {
	if s.set == nil {
		s.set = map[string]bool{}
	}
	if s.set[id] {
		delete(s.set, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return
	}
	s.set[id] = true
	s.order = append(s.order, id)
}

// SelectAll selects every id in page, or clears the selection when it
// already holds them all.
func (s *Selection) SelectAll(page []string) {
	if len(page) > 0 && s.Len() == len(page) {
		all := true
		for _, id := range page {
			if !s.set[id] {
				all = false
				break
			}
		}
		if all {
			s.clear()
			return
		}
	}
	s.clear()
	for _, id := range page {
		if !s.set[id] {
			s.Toggle(id)
		}
	}
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool { return s.set[id] }

// Len is the number of selected IDs.
func (s *Selection) Len() int { return len(s.order) }

// IDs returns a copy of the selected IDs.
func (s *Selection) IDs() []string { return append([]string(nil), s.order...) }

func (s *Selection) clear() {
	s.order = nil
	s.set = map[string]bool{}
}

// Confirmer asks the user a blocking yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }
