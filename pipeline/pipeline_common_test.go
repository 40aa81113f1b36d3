package pipeline_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/anecdotario/photo-services/models/common"
	"github.com/anecdotario/photo-services/pipeline"
	"github.com/anecdotario/photo-services/testutil"
	"github.com/stretchr/testify/require"
)

// testContext bundles a Context with its in-memory fakes so tests
// can inject failures and inspect both stores.
type testContext struct {
	ctx   *common.Context
	store *testutil.FakeObjectStore
	repo  *testutil.FakePhotoRepo
}

func newTestContext() *testContext {
	ctx, store, repo := testutil.NewTestContext()
	return &testContext{ctx: ctx, store: store, repo: repo}
}

// testJPEG returns a base64 data URI for a solid red JPEG.
func testJPEG(t *testing.T, width, height int) string {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.Nil(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func uploadRequest(image string) pipeline.UploadRequest {
	return pipeline.UploadRequest{
		ImageData:    image,
		EntityType:   "user",
		EntityID:     "alice",
		PhotoType:    "profile",
		UploadedBy:   "alice",
		UploadSource: "user-service",
	}
}

func mustUpload(t *testing.T, tc *testContext, req pipeline.UploadRequest) string {
	report, err := pipeline.NewUploader(tc.ctx, req).Run()
	require.Nil(t, err)
	require.NotNil(t, report)
	return report.PhotoID
}
