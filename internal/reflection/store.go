package reflection

// Store is the persistence abstraction for reflection records.
// Implementations can be in-memory, file-based, or remote. The Repository
// uses Store for all reads and writes; callers of Repository do not need to
// know which Store is used.
type Store interface {
	Get(id string) (*Reflection, bool)
	Put(r *Reflection)
	List() []*Reflection
}

// MemoryStore is an in-memory implementation of Store. List returns records
// in insertion order.
type MemoryStore struct {
	byID  map[string]*Reflection
	order []string
}

// NewMemoryStore returns a new empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*Reflection)}
}

// Get implements Store.Get.
func (s *MemoryStore) Get(id string) (*Reflection, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Put implements Store.Put.
func (s *MemoryStore) Put(r *Reflection) {
	if _, exists := s.byID[r.ID]; !exists {
		s.order = append(s.order, r.ID)
	}
	s.byID[r.ID] = r
}

// List implements Store.List.
func (s *MemoryStore) List() []*Reflection {
	out := make([]*Reflection, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
