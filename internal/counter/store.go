package counter

// Store is the authoritative item collection of one simulation session.
// Indices are stable until the next Replace.
type Store struct {
	items []Item
	index map[string]int
}

func NewStore(items []Item) *Store {
	s := &Store{}
	s.Replace(items)
	return s
}

// Replace drops every item and installs a copy of items.
func (s *Store) Replace(items []Item) {
	s.items = make([]Item, len(items))
	copy(s.items, items)
	s.index = make(map[string]int, len(items))
	for i := range s.items {
		s.index[s.items[i].ID] = i
	}
}

func (s *Store) Clear() { s.Replace(nil) }

func (s *Store) Len() int { return len(s.items) }

// At returns a pointer into the store; it is invalidated by Replace.
func (s *Store) At(i int) *Item { return &s.items[i] }

func (s *Store) Find(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Items returns a copy of every item.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Views() []View {
	out := make([]View, len(s.items))
	for i := range s.items {
		out[i] = s.items[i].View()
	}
	return out
}

func (s *Store) AnyFalling() bool {
	for i := range s.items {
		if s.items[i].Falling {
			return true
		}
	}
	return false
}
