package pipeline_test

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/anecdotario/photo-services/constants"
	"github.com/anecdotario/photo-services/models/service"
	"github.com/anecdotario/photo-services/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadSuccess(t *testing.T) {
	tc := newTestContext()
	result := pipeline.Upload(tc.ctx, uploadRequest(testJPEG(t, 900, 900)))
	require.True(t, result.Success)
	assert.Equal(t, constants.OpUpload, result.Metadata.Operation)

	report, ok := result.Data.(*service.UploadReport)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(report.PhotoID, "photo_"))
	require.NotNil(t, report.Record)
	assert.Equal(t, 3, len(report.Record.Renditions))
	assert.Equal(t, int64(report.Record.Original.FileSize), report.OriginalSize)
	assert.True(t, report.OptimizedSize > 0)

	// The public rendition gets a stable unsigned URL, the rest get
	// presigned URLs.
	require.Equal(t, 3, len(report.URLs))
	assert.NotContains(t, report.URLs[constants.RenditionThumbnail], "X-Amz-Signature")
	assert.Contains(t, report.URLs[constants.RenditionStandard], "X-Amz-Signature")
	assert.Contains(t, report.URLs[constants.RenditionHighRes], "X-Amz-Signature")
	assert.Equal(t, report.URLs[constants.RenditionThumbnail], report.Record.ThumbnailURL)

	// Each stored object is a square JPEG at its configured size.
	expected := map[string]int{
		constants.RenditionThumbnail: 150,
		constants.RenditionStandard:  320,
		constants.RenditionHighRes:   800,
	}
	for name, size := range expected {
		rendition := report.Record.Renditions[name]
		require.NotNil(t, rendition, name)
		data, ok := tc.store.Objects[rendition.ObjectKey]
		require.True(t, ok, "object missing for %s", name)
		img, format, err := image.Decode(bytes.NewReader(data))
		require.Nil(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, size, img.Bounds().Dx())
		assert.Equal(t, size, img.Bounds().Dy())
		assert.Equal(t, constants.ContentTypeJPEG, tc.store.ContentTypes[rendition.ObjectKey])
		assert.Equal(t, report.PhotoID, tc.store.Metadata[rendition.ObjectKey]["photo-id"])
	}

	assert.Equal(t, 1, tc.repo.ActiveCount("user", "alice", "profile"))
}

func TestUploadValidation(t *testing.T) {
	tc := newTestContext()
	img := testJPEG(t, 400, 400)

	tests := []struct {
		name    string
		request pipeline.UploadRequest
		code    string
	}{
		{
			name: "unknown entity type",
			request: pipeline.UploadRequest{
				ImageData: img, EntityType: "planet", EntityID: "alice", PhotoType: "profile",
			},
			code: constants.ErrValidation,
		},
		{
			name: "photo type not allowed for entity",
			request: pipeline.UploadRequest{
				ImageData: img, EntityType: "user", EntityID: "alice", PhotoType: "banner",
			},
			code: constants.ErrValidation,
		},
		{
			name: "missing entity id",
			request: pipeline.UploadRequest{
				ImageData: img, EntityType: "user", PhotoType: "profile",
			},
			code: constants.ErrValidation,
		},
		{
			name: "missing photo type",
			request: pipeline.UploadRequest{
				ImageData: img, EntityType: "user", EntityID: "alice",
			},
			code: constants.ErrValidation,
		},
		{
			name: "malformed base64",
			request: pipeline.UploadRequest{
				ImageData: "not!!base64", EntityType: "user", EntityID: "alice", PhotoType: "profile",
			},
			code: constants.ErrValidation,
		},
		{
			name: "valid base64, not an image",
			request: pipeline.UploadRequest{
				ImageData: "aGVsbG8gd29ybGQ=", EntityType: "user", EntityID: "alice", PhotoType: "profile",
			},
			code: constants.ErrImageProcessing,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := pipeline.Upload(tc.ctx, test.request)
			require.False(t, result.Success)
			require.NotNil(t, result.Error)
			assert.Equal(t, test.code, result.Error.Code)
		})
	}
	// No failed upload leaves anything behind.
	assert.Empty(t, tc.store.Objects)
	assert.Empty(t, tc.repo.Records)
}

func TestUploadRejectsOversizedImage(t *testing.T) {
	tc := newTestContext()
	tc.ctx.Config.MaxImageSize = 64
	result := pipeline.Upload(tc.ctx, uploadRequest(testJPEG(t, 400, 400)))
	require.False(t, result.Success)
	assert.Equal(t, constants.ErrValidation, result.Error.Code)
	assert.Contains(t, result.Error.Message, "too large")
}

func TestUploadRollbackOnPutFailure(t *testing.T) {
	tc := newTestContext()
	tc.store.FailPutOnCall = 2
	result := pipeline.Upload(tc.ctx, uploadRequest(testJPEG(t, 400, 400)))
	require.False(t, result.Success)
	assert.Equal(t, constants.ErrStorage, result.Error.Code)

	// The first rendition was stored before the second put failed;
	// rollback must have removed it again.
	assert.Empty(t, tc.store.KeysWithPrefix("user/alice/"))
	assert.Empty(t, tc.repo.Records)
}

func TestUploadMetadataFailureKeepsObjects(t *testing.T) {
	tc := newTestContext()
	tc.repo.FailSave = true
	result := pipeline.Upload(tc.ctx, uploadRequest(testJPEG(t, 400, 400)))
	require.False(t, result.Success)
	assert.Equal(t, constants.ErrStorage, result.Error.Code)

	// Stored objects survive a metadata failure. They remain
	// discoverable by prefix for reconciliation.
	assert.Equal(t, 3, len(tc.store.KeysWithPrefix("user/alice/profile/")))
	assert.Empty(t, tc.repo.Records)
}

func TestUploadsGetDistinctIDsAndKeys(t *testing.T) {
	tc := newTestContext()
	first := uploadRequest(testJPEG(t, 400, 400))
	first.SkipCleanup = true
	second := uploadRequest(testJPEG(t, 400, 400))
	second.SkipCleanup = true

	id1 := mustUpload(t, tc, first)
	id2 := mustUpload(t, tc, second)
	assert.NotEqual(t, id1, id2)

	record1, err := tc.repo.PhotoGet(id1)
	require.Nil(t, err)
	record2, err := tc.repo.PhotoGet(id2)
	require.Nil(t, err)
	for _, key := range record1.ObjectKeys() {
		assert.NotContains(t, record2.ObjectKeys(), key)
	}
	assert.Equal(t, 6, len(tc.store.Objects))
}

func TestUploadEnforcesRetention(t *testing.T) {
	tc := newTestContext()
	img := testJPEG(t, 400, 400)
	var lastID string
	for i := 0; i < 4; i++ {
		lastID = mustUpload(t, tc, uploadRequest(img))
	}

	// Each upload's cleanup removes the superseded photo, so only the
	// newest survives in both stores.
	assert.Equal(t, 1, tc.repo.ActiveCount("user", "alice", "profile"))
	assert.Equal(t, 3, len(tc.store.Objects))
	_, err := tc.repo.PhotoGet(lastID)
	assert.Nil(t, err)
}

func TestUploadSucceedsDespiteCleanupErrors(t *testing.T) {
	tc := newTestContext()
	first := uploadRequest(testJPEG(t, 400, 400))
	first.SkipCleanup = true
	id1 := mustUpload(t, tc, first)

	record, err := tc.repo.PhotoGet(id1)
	require.Nil(t, err)
	for _, key := range record.ObjectKeys() {
		tc.store.FailDeleteKeys[key] = true
	}

	result := pipeline.Upload(tc.ctx, uploadRequest(testJPEG(t, 400, 400)))
	require.True(t, result.Success)
	report := result.Data.(*service.UploadReport)
	require.NotNil(t, report.Cleanup)
	assert.True(t, report.Cleanup.HasErrors())
}
