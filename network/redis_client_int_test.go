//go:build integration
// +build integration

package network_test

import (
	"testing"
	"time"

	"github.com/anecdotario/photo-services/models/service"
	"github.com/anecdotario/photo-services/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests require a local redis on 6379.

func intTestClient(t *testing.T) *network.RedisClient {
	client := network.NewRedisClient("localhost:6379", "", 0)
	_, err := client.Ping()
	require.Nil(t, err, "redis must be running on localhost:6379")
	return client
}

func intTestRecord(photoID string, createdAt time.Time) *service.PhotoRecord {
	record := service.NewPhotoRecord(photoID, "user", "redis-int-test", "profile")
	record.CreatedAt = createdAt
	record.Renditions["thumbnail"] = &service.Rendition{
		ObjectKey: "user/redis-int-test/profile/thumbnail_x.jpg",
		Public:    true,
	}
	return record
}

func TestRedisPhotoLifecycle(t *testing.T) {
	client := intTestClient(t)
	now := time.Now().UTC()

	older := intTestRecord("photo_int_older", now.Add(-time.Hour))
	newer := intTestRecord("photo_int_newer", now)
	require.Nil(t, client.PhotoSave(older))
	require.Nil(t, client.PhotoSave(newer))
	defer client.PhotoDelete(older.PhotoID)
	defer client.PhotoDelete(newer.PhotoID)

	got, err := client.PhotoGet(newer.PhotoID)
	require.Nil(t, err)
	assert.Equal(t, newer.EntityKey, got.EntityKey)

	records, err := client.PhotoQueryByEntity("user", "redis-int-test", "profile", 0, true)
	require.Nil(t, err)
	require.True(t, len(records) >= 2)
	assert.Equal(t, newer.PhotoID, records[0].PhotoID)

	require.Nil(t, client.PhotoDeactivate(older.PhotoID))
	deactivated, err := client.PhotoGet(older.PhotoID)
	require.Nil(t, err)
	assert.False(t, deactivated.IsActive)

	require.Nil(t, client.PhotoDelete(newer.PhotoID))
	_, err = client.PhotoGet(newer.PhotoID)
	assert.NotNil(t, err)
}
