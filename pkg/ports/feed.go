package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// MutationFeed abstracts the host's tree-change notifications. Batches are
// delivered asynchronously relative to the structural change itself: a
// removed node may be briefly "removed but not yet cleaned up", and callers
// must only rely on eventual cleanup.
//
// Hosts without native mutation observation can implement the feed with
// polling or explicit notification.
type MutationFeed interface {
	// Watch returns a channel delivering batches of structural-change
	// records until the context is canceled. The channel is closed when
	// observation ends.
	Watch(ctx context.Context) (<-chan []domain.MutationRecord, error)
}
