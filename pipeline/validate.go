package pipeline

import (
	"github.com/anecdotario/photo-services/constants"
	"github.com/anecdotario/photo-services/models/service"
	"github.com/anecdotario/photo-services/util"
)

// validateEntity checks an (entity_type, entity_id, photo_type) tuple
// against the static entity table. An empty photoType is allowed for
// callers that mean "all photo types". Invalid combinations fail here,
// before any image or store work begins.
func validateEntity(entityType, entityID, photoType string) error {
	allowed, known := constants.EntityPhotoTypes[entityType]
	if !known {
		return service.NewValidationError("entity_type", "Unknown entity type: %q", entityType)
	}
	if entityID == "" {
		return service.NewValidationError("entity_id", "Entity id is required")
	}
	if photoType == "" {
		return nil
	}
	if !util.StringListContains(allowed, photoType) {
		return service.NewValidationError("photo_type",
			"Photo type %q is not allowed for entity type %q", photoType, entityType)
	}
	return nil
}
