// Package testutil provides in-memory stand-ins for the object store
// and the metadata repository, so pipeline tests can exercise
// partial-failure policy without live services.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anecdotario/photo-services/models/service"
	"github.com/anecdotario/photo-services/network"
	"github.com/anecdotario/photo-services/util"
)

// FakeObjectStore implements network.ObjectStore over a map. Failure
// injection: set FailPutOnCall to make the Nth Put fail (1-based), or
// add keys to FailDeleteKeys to make BatchDelete report them as
// errors.
type FakeObjectStore struct {
	mu             sync.Mutex
	Objects        map[string][]byte
	ContentTypes   map[string]string
	Metadata       map[string]map[string]string
	PutCalls       int
	FailPutOnCall  int
	FailDeleteKeys map[string]bool
	presignSerial  int
}

func NewFakeObjectStore() *FakeObjectStore {
	return &FakeObjectStore{
		Objects:        make(map[string][]byte),
		ContentTypes:   make(map[string]string),
		Metadata:       make(map[string]map[string]string),
		FailDeleteKeys: make(map[string]bool),
	}
}

func (s *FakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PutCalls++
	if s.FailPutOnCall > 0 && s.PutCalls == s.FailPutOnCall {
		return fmt.Errorf("injected put failure for %s", key)
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.Objects[key] = stored
	s.ContentTypes[key] = contentType
	s.Metadata[key] = metadata
	return nil
}

func (s *FakeObjectStore) BatchDelete(ctx context.Context, keys []string) *network.BatchDeleteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := &network.BatchDeleteResult{
		Deleted: make([]string, 0, len(keys)),
		Errors:  make([]*service.ProcessingError, 0),
	}
	for _, key := range keys {
		if s.FailDeleteKeys[key] {
			result.Errors = append(result.Errors, service.NewProcessingError(
				"object_delete", key, "injected delete failure", false))
			continue
		}
		delete(s.Objects, key)
		delete(s.ContentTypes, key)
		delete(s.Metadata, key)
		result.Deleted = append(result.Deleted, key)
	}
	return result
}

func (s *FakeObjectStore) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0)
	for key := range s.Objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Presign returns a distinct URL on every call, the way real signing
// does: same key, different signature parameters.
func (s *FakeObjectStore) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presignSerial++
	return fmt.Sprintf("https://fake-s3.local/photos/%s?X-Amz-Expires=%d&X-Amz-Signature=sig%d",
		key, int64(expiry/time.Second), s.presignSerial), nil
}

func (s *FakeObjectStore) PublicURL(key string) string {
	return fmt.Sprintf("https://fake-s3.local/photos/%s", key)
}

func (s *FakeObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok, nil
}

// KeysWithPrefix returns stored keys under prefix, for assertions.
func (s *FakeObjectStore) KeysWithPrefix(prefix string) []string {
	keys, _ := s.ListByPrefix(context.Background(), prefix)
	return keys
}

// FakePhotoRepo implements network.PhotoRepo over maps, mirroring the
// Redis client's semantics. Set Unavailable to make every call fail,
// or FailSave to reject creates.
type FakePhotoRepo struct {
	mu          sync.Mutex
	Records     map[string]*service.PhotoRecord
	Unavailable bool
	FailSave    bool
}

func NewFakePhotoRepo() *FakePhotoRepo {
	return &FakePhotoRepo{
		Records: make(map[string]*service.PhotoRecord),
	}
}

func (r *FakePhotoRepo) PhotoSave(record *service.PhotoRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Unavailable {
		return fmt.Errorf("repository unavailable")
	}
	if r.FailSave {
		return fmt.Errorf("injected save failure")
	}
	if err := record.Validate(); err != nil {
		return err
	}
	// Store a copy via JSON round trip, like a real repository would.
	jsonData, err := record.ToJSON()
	if err != nil {
		return err
	}
	stored, err := service.PhotoRecordFromJSON(jsonData)
	if err != nil {
		return err
	}
	r.Records[record.PhotoID] = stored
	return nil
}

func (r *FakePhotoRepo) PhotoGet(photoID string) (*service.PhotoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Unavailable {
		return nil, fmt.Errorf("repository unavailable")
	}
	record, ok := r.Records[photoID]
	if !ok {
		return nil, service.NewNotFoundError("record", "Photo not found: %s", photoID)
	}
	return record, nil
}

func (r *FakePhotoRepo) PhotoQueryByEntity(entityType, entityID, photoType string, limit int, newestFirst bool) ([]*service.PhotoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Unavailable {
		return nil, fmt.Errorf("repository unavailable")
	}
	entityKey := util.EntityKey(entityType, entityID)
	matches := make([]*service.PhotoRecord, 0)
	for _, record := range r.Records {
		if record.EntityKey != entityKey {
			continue
		}
		if photoType != "" && record.PhotoType != photoType {
			continue
		}
		matches = append(matches, record)
	}
	sort.Slice(matches, func(i, j int) bool {
		if newestFirst {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *FakePhotoRepo) PhotoDeactivate(photoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Unavailable {
		return fmt.Errorf("repository unavailable")
	}
	record, ok := r.Records[photoID]
	if !ok {
		return service.NewNotFoundError("record", "Photo not found: %s", photoID)
	}
	record.IsActive = false
	record.Touch()
	return nil
}

func (r *FakePhotoRepo) PhotoDelete(photoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Unavailable {
		return fmt.Errorf("repository unavailable")
	}
	if _, ok := r.Records[photoID]; !ok {
		return service.NewNotFoundError("record", "Photo not found: %s", photoID)
	}
	delete(r.Records, photoID)
	return nil
}

// ActiveCount returns how many active records exist for the tuple.
func (r *FakePhotoRepo) ActiveCount(entityType, entityID, photoType string) int {
	records, _ := r.PhotoQueryByEntity(entityType, entityID, photoType, 0, true)
	count := 0
	for _, record := range records {
		if record.IsActive {
			count++
		}
	}
	return count
}
