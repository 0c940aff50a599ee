package reflection

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the concurrency-safe contract for reflection records.
type Repository interface {
	// Create validates and stores a new reflection, assigning its ID and
	// creation time.
	Create(r Reflection) (Reflection, error)

	// AttachAudio sets the audio URL on an existing reflection, e.g. after
	// an upload finished. A re-recording may replace an earlier URL.
	AttachAudio(id, audioURL string) (Reflection, error)

	// List returns all reflections, newest first.
	List() []Reflection
}

// InMemoryRepository is a concurrency-safe in-memory implementation of
// Repository. It uses a Store for persistence; by default an in-memory one.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given
// Store. Useful for testing or for plugging in a different backend.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

// Create implements Repository.Create.
func (r *InMemoryRepository) Create(refl Reflection) (Reflection, error) {
	if err := refl.Validate(); err != nil {
		return Reflection{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	refl.ID = uuid.NewString()
	refl.CreatedAt = time.Now().UTC()
	stored := refl
	r.store.Put(&stored)
	return refl, nil
}

// AttachAudio implements Repository.AttachAudio.
func (r *InMemoryRepository) AttachAudio(id, audioURL string) (Reflection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store.Get(id)
	if !ok {
		return Reflection{}, ErrNotFound
	}
	stored.AudioURL = audioURL
	return *stored, nil
}

// List implements Repository.List.
func (r *InMemoryRepository) List() []Reflection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.store.List()
	out := make([]Reflection, 0, len(stored))
	// Insertion order is oldest first; reverse for newest first.
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, *stored[i])
	}
	return out
}
