package network_test

import (
	"context"
	"testing"

	"github.com/anecdotario/photo-services/network"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *network.MinioStore {
	client, err := minio.New("localhost:9899", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.Nil(t, err)
	return network.NewMinioStore(client, "photos-test", "max-age=31536000")
}

func TestPublicURL(t *testing.T) {
	store := testStore(t)
	url := store.PublicURL("user/alice/profile/thumbnail_20250114_093042_1a2b3c4d.jpg")
	assert.Equal(t,
		"http://localhost:9899/photos-test/user/alice/profile/thumbnail_20250114_093042_1a2b3c4d.jpg",
		url)
}

func TestBatchDeleteEmptyKeys(t *testing.T) {
	store := testStore(t)
	result := store.BatchDelete(context.Background(), []string{})
	assert.Empty(t, result.Deleted)
	assert.Empty(t, result.Errors)
}
