package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/anecdotario/photo-services/util"
)

// Rendition describes one stored derivative of an uploaded photo.
type Rendition struct {
	ObjectKey string `json:"object_key"`
	FileSize  int64  `json:"file_size"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Public    bool   `json:"public"`
}

// OriginalInfo records what the uploader actually sent, before any
// transformation.
type OriginalInfo struct {
	FileSize int64  `json:"file_size"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// PhotoRecord is the metadata record correlating a photo_id to its
// owning entity, its stored renditions, and its stable public URL.
// One record exists per photo_id. The record is created only after
// every configured rendition has been stored.
type PhotoRecord struct {
	PhotoID      string                `json:"photo_id"`
	EntityType   string                `json:"entity_type"`
	EntityID     string                `json:"entity_id"`
	EntityKey    string                `json:"entity_key"`
	PhotoType    string                `json:"photo_type"`
	Renditions   map[string]*Rendition `json:"renditions"`
	ThumbnailURL string                `json:"thumbnail_url"`
	Original     OriginalInfo          `json:"original"`
	UploadedBy   string                `json:"uploaded_by,omitempty"`
	UploadSource string                `json:"upload_source,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	IsActive     bool                  `json:"is_active"`
}

// NewPhotoRecord returns a record with its derived entity key set and
// timestamps initialized. Renditions start empty; the uploader fills
// them in as objects are stored.
func NewPhotoRecord(photoID, entityType, entityID, photoType string) *PhotoRecord {
	now := time.Now().UTC()
	return &PhotoRecord{
		PhotoID:    photoID,
		EntityType: entityType,
		EntityID:   entityID,
		EntityKey:  util.EntityKey(entityType, entityID),
		PhotoType:  photoType,
		Renditions: make(map[string]*Rendition),
		CreatedAt:  now,
		UpdatedAt:  now,
		IsActive:   true,
	}
}

// ObjectKeys returns the object-store keys of all renditions, sorted
// by rendition name so callers get a deterministic order.
func (p *PhotoRecord) ObjectKeys() []string {
	names := make([]string, 0, len(p.Renditions))
	for name := range p.Renditions {
		names = append(names, name)
	}
	sort.Strings(names)
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, p.Renditions[name].ObjectKey)
	}
	return keys
}

// PublicRendition returns the name and rendition marked public, or
// ("", nil) if the record has none. A well-formed record has exactly
// one.
func (p *PhotoRecord) PublicRendition() (string, *Rendition) {
	for name, r := range p.Renditions {
		if r.Public {
			return name, r
		}
	}
	return "", nil
}

// Validate checks the invariants every stored record must hold.
func (p *PhotoRecord) Validate() error {
	if p.PhotoID == "" {
		return fmt.Errorf("photo record has no photo_id")
	}
	if p.EntityKey != util.EntityKey(p.EntityType, p.EntityID) {
		return fmt.Errorf("entity_key %q does not match %s#%s", p.EntityKey, p.EntityType, p.EntityID)
	}
	if len(p.Renditions) == 0 {
		return fmt.Errorf("photo record %s has no renditions", p.PhotoID)
	}
	publicCount := 0
	for name, r := range p.Renditions {
		if r.ObjectKey == "" {
			return fmt.Errorf("rendition %s of %s has no object key", name, p.PhotoID)
		}
		if r.Public {
			publicCount++
		}
	}
	if publicCount != 1 {
		return fmt.Errorf("photo record %s has %d public renditions, want 1", p.PhotoID, publicCount)
	}
	return nil
}

// Touch bumps the record's updated_at timestamp.
func (p *PhotoRecord) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

func PhotoRecordFromJSON(jsonData string) (*PhotoRecord, error) {
	record := &PhotoRecord{}
	err := json.Unmarshal([]byte(jsonData), record)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (p *PhotoRecord) ToJSON() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
