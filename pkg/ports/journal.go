package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// Journal persists the attachment audit trail: one entry per instance
// attached and one per node destroyed. Backends must keep per-node order of
// appends.
type Journal interface {
	// Append records one entry.
	Append(ctx context.Context, entry domain.JournalEntry) error

	// Entries returns all recorded entries for a node identity, in append
	// order. An unknown identity yields an empty slice, not an error.
	Entries(ctx context.Context, nodeID string) ([]domain.JournalEntry, error)
}
