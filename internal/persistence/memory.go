package persistence

import (
	"context"
	"sync"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
)

// MemoryBackend keeps the last saved document in memory. Load and save errors can
// be injected to exercise failure paths.
type MemoryBackend struct {
	mu      sync.Mutex
	doc     *models.Document
	saves   int
	loadErr error
	saveErr error
}

func NewMemoryBackend(doc *models.Document) *MemoryBackend {
	return &MemoryBackend{doc: doc.Clone()}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Load(ctx context.Context) (*models.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loadErr != nil {
		return nil, b.loadErr
	}
	if b.doc == nil {
		return nil, ErrNoDocument
	}
	return b.doc.Clone(), nil
}

func (b *MemoryBackend) Save(ctx context.Context, doc *models.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.saveErr != nil {
		return b.saveErr
	}
	b.doc = doc.Clone()
	b.saves++
	return nil
}

// Stored returns a copy of the last saved document, or nil.
func (b *MemoryBackend) Stored() *models.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc.Clone()
}

func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

func (b *MemoryBackend) FailLoads(err error) {
	b.mu.Lock()
	b.loadErr = err
	b.mu.Unlock()
}

func (b *MemoryBackend) FailSaves(err error) {
	b.mu.Lock()
	b.saveErr = err
	b.mu.Unlock()
}
