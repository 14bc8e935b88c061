package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// Journal implements ports.Journal in memory. Safe for concurrent use.
type Journal struct {
	mu      sync.RWMutex
	entries map[string][]domain.JournalEntry
}

// NewJournal creates an empty in-memory journal.
func NewJournal() *Journal {
	return &Journal{
		entries: make(map[string][]domain.JournalEntry),
	}
}

// Append records one entry under the case-normalized node identity.
func (j *Journal) Append(ctx context.Context, entry domain.JournalEntry) error {
	key := strings.ToLower(entry.NodeID)
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[key] = append(j.entries[key], entry)
	return nil
}

// Entries returns the recorded entries for a node identity in append order.
func (j *Journal) Entries(ctx context.Context, nodeID string) ([]domain.JournalEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	stored := j.entries[strings.ToLower(nodeID)]
	out := make([]domain.JournalEntry, len(stored))
	copy(out, stored)
	return out, nil
}
