package storage

import (
	"context"
	"testing"

	"xjsf/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySource(t *testing.T) {
	ctx := context.Background()

	t.Run("empty source has no roster", func(t *testing.T) {
		roster, err := NewMemorySource(nil).LoadRoster(ctx)
		require.NoError(t, err)
		assert.Nil(t, roster)
	})

	t.Run("returns copies", func(t *testing.T) {
		original := sampleRoster()
		src := NewMemorySource(original)

		*original.Clients[0].MinuteLimit = 999
		first, err := src.LoadRoster(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, *first.Clients[0].MinuteLimit)

		*first.Clients[1].Password = "changed"
		second, err := src.LoadRoster(ctx)
		require.NoError(t, err)
		assert.Equal(t, "wonderland", *second.Clients[1].Password)
	})

	t.Run("put client adds and replaces", func(t *testing.T) {
		src := NewMemorySource(nil)
		src.PutClient(models.RosterEntry{Name: "alice", HourLimit: intPtr(1)})
		src.PutClient(models.RosterEntry{Name: "bob"})
		src.PutClient(models.RosterEntry{Name: "alice", HourLimit: intPtr(2)})

		roster, err := src.LoadRoster(ctx)
		require.NoError(t, err)
		require.Len(t, roster.Clients, 2)
		assert.Equal(t, "alice", roster.Clients[0].Name)
		assert.Equal(t, 2, *roster.Clients[0].HourLimit)
	})

	t.Run("save validates", func(t *testing.T) {
		src := NewMemorySource(nil)
		bad := &models.Roster{Clients: []models.RosterEntry{{}, {}}}
		assert.Error(t, src.SaveRoster(ctx, bad))

		require.NoError(t, src.SaveRoster(ctx, sampleRoster()))
		roster, err := src.LoadRoster(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleRoster(), roster)
	})
}
