package reportview

// Expansion tracks which entry rows are expanded.
type Expansion struct {
	ids map[int64]struct{}
}

func (e *Expansion) Toggle(id int64, expand bool) {
	if expand {
		if e.ids == nil {
			e.ids = make(map[int64]struct{})
		}
		e.ids[id] = struct{}{}
		return
	}
	delete(e.ids, id)
}

// ExpandAll replaces the set with exactly the visible ids.
func (e *Expansion) ExpandAll(visible []int64) {
	e.ids = make(map[int64]struct{}, len(visible))
	for _, id := range visible {
		e.ids[id] = struct{}{}
	}
}

func (e *Expansion) CollapseAll() { e.ids = nil }

// Reset forgets every expansion; used whenever the visible page changes.
func (e *Expansion) Reset() { e.ids = nil }

func (e *Expansion) IsExpanded(id int64) bool {
	_, ok := e.ids[id]
	return ok
}

// AllExpanded is true iff visible is non-empty and every id in it is expanded.
func (e *Expansion) AllExpanded(visible []int64) bool {
	if len(visible) == 0 {
		return false
	}
	for _, id := range visible {
		if !e.IsExpanded(id) {
			return false
		}
	}
	return true
}

func (e *Expansion) Len() int { return len(e.ids) }
