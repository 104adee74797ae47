package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"xjsf/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMongoTestSource(t *testing.T) *MongoSource {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping MongoDB tests")
	}

	database := "xjsf_test_" + uuid.NewString()[:8]
	src, err := NewMongoSource(context.Background(), uri, database, "")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = src.client.Database(database).Drop(context.Background())
		src.Close()
	})
	return src
}

func TestMongoSourceRequiresDatabase(t *testing.T) {
	_, err := NewMongoSource(context.Background(), "mongodb://localhost", "", "")
	assert.Error(t, err)
}

func TestMongoSourceRoundTrip(t *testing.T) {
	src := newMongoTestSource(t)
	ctx := context.Background()

	_, err := src.LoadRoster(ctx)
	assert.True(t, errors.Is(err, ErrRosterNotFound))

	require.NoError(t, src.SaveRoster(ctx, sampleRoster()))
	roster, err := src.LoadRoster(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRoster(), roster)

	replacement := &models.Roster{Clients: []models.RosterEntry{{Name: "carol", HourLimit: intPtr(3)}}}
	require.NoError(t, src.SaveRoster(ctx, replacement))
	roster, err = src.LoadRoster(ctx)
	require.NoError(t, err)
	assert.Equal(t, replacement, roster)
}
