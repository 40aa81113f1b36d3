package service

// CleanupReport itemizes one retention cleanup pass for a single
// (entity_type, entity_id, photo_type) tuple. One removed record's
// failure never stops the rest, so the report may show both
// successes and errors.
type CleanupReport struct {
	EntityType     string             `json:"entity_type"`
	EntityID       string             `json:"entity_id"`
	PhotoType      string             `json:"photo_type"`
	Found          int                `json:"found"`
	Kept           []string           `json:"kept"`
	Removed        []string           `json:"removed"`
	DeletedObjects []string           `json:"deleted_objects"`
	Errors         []*ProcessingError `json:"errors"`
}

func NewCleanupReport(entityType, entityID, photoType string) *CleanupReport {
	return &CleanupReport{
		EntityType:     entityType,
		EntityID:       entityID,
		PhotoType:      photoType,
		Kept:           make([]string, 0),
		Removed:        make([]string, 0),
		DeletedObjects: make([]string, 0),
		Errors:         make([]*ProcessingError, 0),
	}
}

func (r *CleanupReport) AddError(err *ProcessingError) {
	r.Errors = append(r.Errors, err)
}

func (r *CleanupReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// DeletionReport itemizes a delete operation. Found counts matching
// records before anything is removed; Deleted counts records actually
// removed. Found > 0 with Deleted < Found means partial failure, and
// Errors says which items are still around. When ByPrefix is set the
// metadata store was unreachable and Found/Deleted count objects, not
// records, since records could not be enumerated.
type DeletionReport struct {
	Found          int                `json:"found"`
	Deleted        int                `json:"deleted"`
	ByPrefix       bool               `json:"by_prefix,omitempty"`
	DeletedObjects []string           `json:"deleted_objects"`
	Errors         []*ProcessingError `json:"errors"`
}

func NewDeletionReport() *DeletionReport {
	return &DeletionReport{
		DeletedObjects: make([]string, 0),
		Errors:         make([]*ProcessingError, 0),
	}
}

func (r *DeletionReport) AddError(err *ProcessingError) {
	r.Errors = append(r.Errors, err)
}

func (r *DeletionReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// UploadReport is the data half of a successful upload envelope.
type UploadReport struct {
	PhotoID       string            `json:"photo_id"`
	URLs          map[string]string `json:"urls"`
	Record        *PhotoRecord      `json:"record"`
	OriginalSize  int64             `json:"original_size"`
	OptimizedSize int64             `json:"optimized_size"`
	Cleanup       *CleanupReport    `json:"cleanup,omitempty"`
}

// RefreshReport is the data half of a successful refresh envelope.
// ExpiresIn is the effective (clamped) expiry in seconds applied to
// the presigned URLs; the public thumbnail URL ignores it.
type RefreshReport struct {
	PhotoID     string            `json:"photo_id"`
	URLs        map[string]string `json:"urls"`
	ExpiresIn   int64             `json:"expires_in"`
	GeneratedAt string            `json:"generated_at"`
}
