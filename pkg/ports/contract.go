package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunJournalContract runs a suite of tests verifying that a Journal
// implementation adheres to the interface contract.
func RunJournalContract(t *testing.T, journal Journal) {
	ctx := context.Background()
	nodeID := "contract-node-" + time.Now().Format("20060102150405")

	t.Run("Append and Entries", func(t *testing.T) {
		first := domain.JournalEntry{
			Type:      domain.JournalAttach,
			NodeID:    nodeID,
			TypeName:  "TabPanel",
			Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		}
		second := domain.JournalEntry{
			Type:      domain.JournalDestroy,
			NodeID:    nodeID,
			Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		}

		require.NoError(t, journal.Append(ctx, first))
		require.NoError(t, journal.Append(ctx, second))

		entries, err := journal.Entries(ctx, nodeID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, domain.JournalAttach, entries[0].Type, "append order is preserved")
		assert.Equal(t, "TabPanel", entries[0].TypeName)
		assert.Equal(t, domain.JournalDestroy, entries[1].Type)
	})

	t.Run("Unknown identity", func(t *testing.T) {
		entries, err := journal.Entries(ctx, "never-seen-"+nodeID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Isolation between identities", func(t *testing.T) {
		other := nodeID + "-other"
		require.NoError(t, journal.Append(ctx, domain.JournalEntry{
			Type:      domain.JournalAttach,
			NodeID:    other,
			TypeName:  "Counter",
			Timestamp: time.Now().UTC(),
		}))

		entries, err := journal.Entries(ctx, other)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Counter", entries[0].TypeName)
	})
}
