package util

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeyTimestampFormat is the timestamp segment embedded in photo ids
// and object keys. Keys must match this layout exactly for
// interoperability with other services reading the bucket.
const KeyTimestampFormat = "20060102_150405"

// StringListContains returns true if the list of strings contains item.
func StringListContains(list []string, item string) bool {
	if list != nil {
		for i := range list {
			if list[i] == item {
				return true
			}
		}
	}
	return false
}

// KeySuffix returns a fresh 8-character uniqueness suffix.
func KeySuffix() string {
	return uuid.New().String()[0:8]
}

// PhotoID generates a time-ordered, collision-resistant photo id,
// e.g. "photo_20250114_093042_1a2b3c4d". Time-ordering keeps ids
// sortable in listings; the uuid suffix prevents collisions between
// near-simultaneous uploads.
func PhotoID(now time.Time) string {
	return fmt.Sprintf("photo_%s_%s", now.UTC().Format(KeyTimestampFormat), KeySuffix())
}

// ObjectKey builds the deterministic object key for one rendition:
// {entityType}/{entityId}/{photoType}/{rendition}_{YYYYMMDD_HHMMSS}_{suffix}.jpg
func ObjectKey(entityType, entityID, photoType, rendition string, now time.Time, suffix string) string {
	filename := fmt.Sprintf("%s_%s_%s.jpg", rendition, now.UTC().Format(KeyTimestampFormat), suffix)
	return fmt.Sprintf("%s/%s/%s/%s", entityType, entityID, photoType, filename)
}

// EntityPrefix returns the object key prefix covering every photo of
// the given type for an entity. An empty photoType covers all types.
func EntityPrefix(entityType, entityID, photoType string) string {
	if photoType == "" {
		return fmt.Sprintf("%s/%s/", entityType, entityID)
	}
	return fmt.Sprintf("%s/%s/%s/", entityType, entityID, photoType)
}

// EntityKey returns the composite key correlating a photo record to
// its owner, e.g. "user#alice".
func EntityKey(entityType, entityID string) string {
	return fmt.Sprintf("%s#%s", entityType, entityID)
}

// DecodeImagePayload decodes the transport encoding of an uploaded
// image into raw bytes. The payload is base64, with or without a data
// URI prefix such as "data:image/jpeg;base64,". This runs before any
// expensive image work so malformed payloads fail fast.
func DecodeImagePayload(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("no image data provided")
	}
	if strings.HasPrefix(payload, "data:") {
		index := strings.Index(payload, ",")
		if index < 0 {
			return nil, fmt.Errorf("data URI has no payload")
		}
		payload = payload[index+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %v", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image payload is empty")
	}
	return data, nil
}
