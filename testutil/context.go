package testutil

import (
	"time"

	"github.com/anecdotario/photo-services/constants"
	"github.com/anecdotario/photo-services/models/common"
	"github.com/op/go-logging"
)

// NewTestContext builds a Context wired to fresh in-memory fakes and
// a config with the default rendition policy. The config is passed
// explicitly, not loaded from env, so tests stay deterministic across
// policy variations.
func NewTestContext() (*common.Context, *FakeObjectStore, *FakePhotoRepo) {
	store := NewFakeObjectStore()
	repo := NewFakePhotoRepo()
	config := &common.Config{
		ConfigName:      "test",
		DefaultExpiry:   constants.DefaultPresignExpiry,
		MaxExpiry:       constants.MaxPresignExpiry,
		MinExpiry:       constants.MinPresignExpiry,
		MaxImageSize:    constants.DefaultMaxImageSize,
		PhotoBucket:     "photos-test",
		RenditionPolicy: common.DefaultRenditionPolicy(),
		RetentionCount:  constants.DefaultRetentionCount,
	}
	context := &common.Context{
		Config:      config,
		Logger:      logging.MustGetLogger("test"),
		ObjectStore: store,
		PhotoRepo:   repo,
	}
	return context, store, repo
}

// Backdate shifts a stored record's created_at into the past so tests
// can build an unambiguous newest-to-oldest ordering.
func Backdate(repo *FakePhotoRepo, photoID string, by time.Duration) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if record, ok := repo.Records[photoID]; ok {
		record.CreatedAt = record.CreatedAt.Add(-by)
	}
}
