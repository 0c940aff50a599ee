package asset

import (
	"sync"

	"github.com/google/uuid"
)

const previewScheme = "mem://"

type previewEntry struct {
	data     []byte
	mimeType string
}

// PreviewRegistry maps process-local preview references to sealed audio bytes.
// A reference is valid only within the current process and only until it is
// revoked; a player can resolve one to listen to a recording that has not
// been uploaded yet.
type PreviewRegistry struct {
	mu      sync.Mutex
	entries map[string]previewEntry
}

// NewPreviewRegistry returns an empty registry.
func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{entries: make(map[string]previewEntry)}
}

func (p *PreviewRegistry) register(data []byte, mimeType string) string {
	ref := previewScheme + uuid.NewString()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[ref] = previewEntry{data: data, mimeType: mimeType}
	return ref
}

// Resolve returns the bytes and content type behind ref. The ok return is
// false when ref is unknown or already revoked.
func (p *PreviewRegistry) Resolve(ref string) (data []byte, mimeType string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[ref]
	if !ok {
		return nil, "", false
	}
	return e.data, e.mimeType, true
}

// Revoke invalidates ref. Revoking an unknown reference is a no-op.
func (p *PreviewRegistry) Revoke(ref string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, ref)
}

// Len reports how many references are currently registered.
func (p *PreviewRegistry) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
