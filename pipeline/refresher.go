package pipeline

import (
	"strconv"
	"time"

	"github.com/anecdotario/photo-services/constants"
	"github.com/anecdotario/photo-services/models/common"
	"github.com/anecdotario/photo-services/models/service"
)

// RefreshRequest selects a photo by id, or the current (newest
// active) photo for an entity tuple. Expiry is the requested presign
// expiry in seconds, kept as a string because it usually arrives from
// a query parameter; absent or non-numeric values fall back to the
// system default.
type RefreshRequest struct {
	PhotoID    string
	EntityType string
	EntityID   string
	PhotoType  string
	Expiry     string
}

// Refresher regenerates the URL set for a photo. The public rendition
// always gets its stable public URL; everything else gets a fresh
// presigned URL at the effective expiry.
type Refresher struct {
	Worker
	Request RefreshRequest
}

func NewRefresher(context *common.Context, request RefreshRequest) *Refresher {
	return &Refresher{
		Worker:  Worker{Context: context},
		Request: request,
	}
}

// effectiveExpiry resolves the requested expiry: absent or
// non-numeric falls back to the configured default, numeric values
// are clamped to [MinExpiry, MaxExpiry]. Requests are never rejected
// for a bad expiry.
func (r *Refresher) effectiveExpiry() time.Duration {
	config := r.Context.Config
	if r.Request.Expiry == "" {
		return config.DefaultExpiry
	}
	seconds, err := strconv.ParseInt(r.Request.Expiry, 10, 64)
	if err != nil {
		return config.DefaultExpiry
	}
	expiry := time.Duration(seconds) * time.Second
	if expiry < config.MinExpiry {
		return config.MinExpiry
	}
	if expiry > config.MaxExpiry {
		return config.MaxExpiry
	}
	return expiry
}

// Run finds the record and rebuilds its URL map. A miss reports
// whether the metadata record or the underlying object was absent,
// which tells the caller whether anything is orphaned.
func (r *Refresher) Run() (*service.RefreshReport, error) {
	record, err := r.findRecord()
	if err != nil {
		return nil, err
	}

	expiry := r.effectiveExpiry()
	urls := make(map[string]string, len(record.Renditions))
	for name, rendition := range record.Renditions {
		if rendition.Public {
			urls[name] = r.store().PublicURL(rendition.ObjectKey)
			continue
		}
		exists, err := r.store().Exists(background(), rendition.ObjectKey)
		if err != nil {
			return nil, service.NewStorageError("stat", rendition.ObjectKey,
				"Failed to check rendition "+name, err)
		}
		if !exists {
			return nil, service.NewNotFoundError("object",
				"Object missing for rendition %s of photo %s", name, record.PhotoID)
		}
		signed, err := r.store().Presign(background(), rendition.ObjectKey, expiry)
		if err != nil {
			return nil, service.NewStorageError("presign", rendition.ObjectKey,
				"Failed to presign rendition "+name, err)
		}
		urls[name] = signed
	}

	return &service.RefreshReport{
		PhotoID:     record.PhotoID,
		URLs:        urls,
		ExpiresIn:   int64(expiry / time.Second),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (r *Refresher) findRecord() (*service.PhotoRecord, error) {
	req := r.Request
	if req.PhotoID != "" {
		return r.repo().PhotoGet(req.PhotoID)
	}
	if err := validateEntity(req.EntityType, req.EntityID, req.PhotoType); err != nil {
		return nil, err
	}
	if req.PhotoType == "" {
		return nil, service.NewValidationError("photo_type", "Photo type is required for entity refresh")
	}
	records, err := r.repo().PhotoQueryByEntity(req.EntityType, req.EntityID, req.PhotoType, 0, true)
	if err != nil {
		return nil, service.NewStorageError("record_query", req.EntityType+"/"+req.EntityID,
			"Failed to query photos", err)
	}
	for _, record := range records {
		if record.IsActive {
			return record, nil
		}
	}
	return nil, service.NewNotFoundError("record", "No %s photo found for %s %s",
		req.PhotoType, req.EntityType, req.EntityID)
}

// Refresh is the public refresh operation, wrapping a Refresher run
// in the standard envelope.
func Refresh(context *common.Context, request RefreshRequest) *service.OperationResult {
	report, err := NewRefresher(context, request).Run()
	if err != nil {
		return service.Failed(constants.OpRefresh, err)
	}
	return service.Succeeded(constants.OpRefresh, report)
}
