// Package redis provides a Redis-backed attachment journal, for deployments
// where enhancement history must survive the process or be shared across
// replicas.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces all journal keys.
const DefaultPrefix = "espalier:"

// Journal implements ports.Journal on Redis. Entries are appended to one
// list per node identity and read back in append order.
type Journal struct {
	client *backend.Client
	prefix string
}

// Option configures the Journal.
type Option func(*Journal)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(j *Journal) {
		j.prefix = prefix
	}
}

// NewFromClient creates a journal on an existing Redis client.
func NewFromClient(client *backend.Client, opts ...Option) *Journal {
	j := &Journal{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Journal) key(nodeID string) string {
	return j.prefix + "journal:" + strings.ToLower(nodeID)
}

// Append records one entry under the case-normalized node identity.
func (j *Journal) Append(ctx context.Context, entry domain.JournalEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize journal entry: %w", err)
	}
	if err := j.client.RPush(ctx, j.key(entry.NodeID), data).Err(); err != nil {
		return fmt.Errorf("redis error appending journal entry: %w", err)
	}
	return nil
}

// Entries returns the recorded entries for a node identity in append order.
func (j *Journal) Entries(ctx context.Context, nodeID string) ([]domain.JournalEntry, error) {
	raw, err := j.client.LRange(ctx, j.key(nodeID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error reading journal: %w", err)
	}

	entries := make([]domain.JournalEntry, 0, len(raw))
	for _, item := range raw {
		var entry domain.JournalEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to parse journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
