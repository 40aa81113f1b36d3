package pipeline

import (
	"strconv"
	"time"

	"github.com/anecdotario/photo-services/constants"
	"github.com/anecdotario/photo-services/models/common"
	"github.com/anecdotario/photo-services/models/service"
	"github.com/anecdotario/photo-services/renderer"
	"github.com/anecdotario/photo-services/util"
)

// UploadRequest describes one photo upload. ImageData is the
// transport-encoded payload: base64, with or without a data URI
// prefix. SkipCleanup's zero value means retention cleanup runs after
// a successful upload, which is the normal case.
type UploadRequest struct {
	ImageData    string
	EntityType   string
	EntityID     string
	PhotoType    string
	UploadedBy   string
	UploadSource string
	SkipCleanup  bool
}

// photoEvent is what we publish to the photo_events topic after
// uploads and deletes. Best-effort only; a future reconciler can use
// these to find work, but nothing in the pipeline depends on them.
type photoEvent struct {
	Event      string `json:"event"`
	PhotoID    string `json:"photo_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	PhotoType  string `json:"photo_type"`
	Timestamp  string `json:"timestamp"`
}

// Uploader runs one upload end to end: validate, decode, render,
// store, record, clean up. It owns the partial-failure policy: a
// failed object put rolls back this upload's already-stored objects,
// while a failed metadata write never deletes already-stored bytes.
type Uploader struct {
	Worker
	Request UploadRequest
}

func NewUploader(context *common.Context, request UploadRequest) *Uploader {
	return &Uploader{
		Worker:  Worker{Context: context},
		Request: request,
	}
}

// Run executes the upload. On success, exactly one new active
// PhotoRecord exists with every configured rendition stored and
// retrievable. On failure before the metadata write, no record exists
// and object storage has been cleaned best-effort.
func (u *Uploader) Run() (*service.UploadReport, error) {
	req := u.Request
	if err := validateEntity(req.EntityType, req.EntityID, req.PhotoType); err != nil {
		return nil, err
	}
	if req.PhotoType == "" {
		return nil, service.NewValidationError("photo_type", "Photo type is required")
	}

	// Decode the transport encoding before any expensive work, so a
	// malformed payload fails in microseconds, not after a render.
	raw, err := util.DecodeImagePayload(req.ImageData)
	if err != nil {
		return nil, service.NewValidationError("image", "Invalid image data: %v", err)
	}
	maxSize := u.Context.Config.MaxImageSize
	if int64(len(raw)) > maxSize {
		return nil, service.NewValidationError("image",
			"Image too large: %d bytes (max: %d)", len(raw), maxSize)
	}

	policy := u.Context.Config.RenditionPolicy
	rendered, err := renderer.Render(raw, policy)
	if err != nil {
		return nil, err
	}
	if !util.StringListContains(constants.SupportedFormats, rendered.Original.Format) {
		return nil, service.NewValidationError("image",
			"Unsupported image format: %q", rendered.Original.Format)
	}

	now := time.Now().UTC()
	photoID := util.PhotoID(now)
	record := service.NewPhotoRecord(photoID, req.EntityType, req.EntityID, req.PhotoType)
	record.Original = rendered.Original
	record.UploadedBy = req.UploadedBy
	record.UploadSource = req.UploadSource

	if err = u.storeRenditions(record, rendered, now); err != nil {
		return nil, err
	}

	urls, err := u.deriveURLs(record)
	if err != nil {
		// Still before the metadata write, so the guarantee holds:
		// clean up this upload's objects best-effort and fail.
		u.rollback(record.ObjectKeys())
		return nil, err
	}
	record.ThumbnailURL = urls[common.PublicRendition(policy)]

	if err = u.repo().PhotoSave(record); err != nil {
		// Objects stay. Losing stored bytes is worse than a record
		// we can recreate, and the keys remain discoverable by
		// prefix for a future reconciliation pass.
		u.Context.Logger.Errorf("Photo %s uploaded but metadata write failed: %v", photoID, err)
		return nil, service.NewStorageError("record_create", photoID,
			"Failed to save photo metadata", err)
	}

	report := &service.UploadReport{
		PhotoID:       photoID,
		URLs:          urls,
		Record:        record,
		OriginalSize:  rendered.Original.FileSize,
		OptimizedSize: optimizedSize(rendered),
	}

	if !req.SkipCleanup {
		cleanup := NewRetentionCleanup(u.Context, req.EntityType, req.EntityID, req.PhotoType)
		report.Cleanup = cleanup.Run()
	}

	u.publishEvent("photo_uploaded", record)
	u.Context.Logger.Infof("Uploaded photo %s for %s/%s/%s (%d renditions)",
		photoID, req.EntityType, req.EntityID, req.PhotoType, len(record.Renditions))
	return report, nil
}

// storeRenditions puts every rendition in policy order, each under a
// deterministic key carrying a fresh uniqueness suffix. If any put
// fails, the renditions already uploaded for this photo id are
// deleted best-effort before the StorageError surfaces, so a failed
// upload leaves no orphans behind.
func (u *Uploader) storeRenditions(record *service.PhotoRecord, rendered *renderer.Result, now time.Time) error {
	req := u.Request
	for _, spec := range u.Context.Config.RenditionPolicy {
		rendition := rendered.Renditions[spec.Name]
		key := util.ObjectKey(req.EntityType, req.EntityID, req.PhotoType, spec.Name, now, util.KeySuffix())
		metadata := map[string]string{
			"entity-type":   req.EntityType,
			"entity-id":     req.EntityID,
			"photo-type":    req.PhotoType,
			"rendition":     spec.Name,
			"photo-id":      record.PhotoID,
			"uploaded-by":   req.UploadedBy,
			"upload-source": req.UploadSource,
			"width":         strconv.Itoa(rendition.Width),
			"height":        strconv.Itoa(rendition.Height),
		}
		err := u.store().Put(background(), key, rendition.Data, constants.ContentTypeJPEG, metadata)
		if err != nil {
			u.rollback(record.ObjectKeys())
			return service.NewStorageError("put", key, "Failed to store rendition "+spec.Name, err)
		}
		record.Renditions[spec.Name] = &service.Rendition{
			ObjectKey: key,
			FileSize:  rendition.FileSize(),
			Width:     rendition.Width,
			Height:    rendition.Height,
			Public:    spec.Public,
		}
	}
	return nil
}

// deriveURLs builds the URL for each stored rendition: the stable
// public URL for the public one, presigned URLs at the default expiry
// for the rest.
func (u *Uploader) deriveURLs(record *service.PhotoRecord) (map[string]string, error) {
	urls := make(map[string]string, len(record.Renditions))
	for name, rendition := range record.Renditions {
		if rendition.Public {
			urls[name] = u.store().PublicURL(rendition.ObjectKey)
			continue
		}
		signed, err := u.store().Presign(background(), rendition.ObjectKey, u.Context.Config.DefaultExpiry)
		if err != nil {
			return nil, service.NewStorageError("presign", rendition.ObjectKey,
				"Failed to presign rendition "+name, err)
		}
		urls[name] = signed
	}
	return urls, nil
}

func (u *Uploader) rollback(keys []string) {
	if len(keys) == 0 {
		return
	}
	result := u.store().BatchDelete(background(), keys)
	for _, procErr := range result.Errors {
		u.Context.Logger.Warningf("Rollback failed to remove object: %s", procErr.Error())
	}
}

// publishEvent emits a best-effort event to the photo_events topic.
// Publish failures are logged and swallowed; no operation depends on
// the event stream.
func (w *Worker) publishEvent(event string, record *service.PhotoRecord) {
	if w.Context.NSQClient == nil || w.Context.NSQClient.URL == "" {
		return
	}
	err := w.Context.NSQClient.EnqueueJSON(constants.TopicPhotoEvents, photoEvent{
		Event:      event,
		PhotoID:    record.PhotoID,
		EntityType: record.EntityType,
		EntityID:   record.EntityID,
		PhotoType:  record.PhotoType,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		w.Context.Logger.Warningf("Could not publish %s event for %s: %v", event, record.PhotoID, err)
	}
}

func optimizedSize(rendered *renderer.Result) int64 {
	var total int64
	for _, rendition := range rendered.Renditions {
		total += rendition.FileSize()
	}
	return total
}

// Upload is the public upload operation: it runs an Uploader and maps
// the outcome into the standard envelope.
func Upload(context *common.Context, request UploadRequest) *service.OperationResult {
	report, err := NewUploader(context, request).Run()
	if err != nil {
		return service.Failed(constants.OpUpload, err)
	}
	return service.Succeeded(constants.OpUpload, report)
}
