package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	return backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
}

func TestRedisJournal_Contract(t *testing.T) {
	journal := redis.NewFromClient(newTestClient(t))
	ports.RunJournalContract(t, journal)
}

func TestRedisJournal_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	journal := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err = journal.Append(ctx, domain.JournalEntry{
		Type:      domain.JournalAttach,
		NodeID:    "Panel1",
		TypeName:  "TabPanel",
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:journal:panel1"),
		"keys carry the custom prefix and the case-normalized identity")

	entries, err := journal.Entries(ctx, "PANEL1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "TabPanel", entries[0].TypeName)
}
