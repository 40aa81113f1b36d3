package constants

import "time"

const (
	ContentTypeJPEG    = "image/jpeg"
	EmptyUUID          = "00000000-0000-0000-0000-000000000000"
	EntityCampaign     = "campaign"
	EntityOrg          = "org"
	EntityUser         = "user"
	FormatGIF          = "gif"
	FormatJPEG         = "jpeg"
	FormatPNG          = "png"
	FormatWEBP         = "webp"
	OpCleanup          = "photo_cleanup"
	OpDelete           = "photo_delete"
	OpRefresh          = "photo_refresh"
	OpUpload           = "photo_upload"
	PhotoTypeBanner    = "banner"
	PhotoTypeGallery   = "gallery"
	PhotoTypeLogo      = "logo"
	PhotoTypeProfile   = "profile"
	RenditionHighRes   = "high_res"
	RenditionStandard  = "standard"
	RenditionThumbnail = "thumbnail"
	TopicPhotoEvents   = "photo_events"
	TopicRetention     = "photo_retention"
)

// Error codes used in operation envelopes. Every error a public
// operation returns maps to exactly one of these.
const (
	ErrImageProcessing = "IMAGE_PROCESSING_ERROR"
	ErrNotFound        = "NOT_FOUND"
	ErrStorage         = "STORAGE_ERROR"
	ErrValidation      = "VALIDATION_ERROR"
)

// Presigned URL expiry bounds. Requested expiries outside these
// bounds are clamped, never rejected.
const (
	DefaultPresignExpiry = 604800 * time.Second
	MaxPresignExpiry     = 604800 * time.Second
	MinPresignExpiry     = 300 * time.Second
)

// DefaultRetentionCount is how many active photo records we keep
// per (entity_type, entity_id, photo_type) after cleanup.
const DefaultRetentionCount = 1

// DefaultMaxImageSize is the largest upload we accept, in bytes.
const DefaultMaxImageSize = int64(5 * 1024 * 1024)

// SharpenThreshold is the rendition size, in pixels, at or below
// which the renderer applies mild sharpening to offset downscale
// softness.
const SharpenThreshold = 150

var EntityTypes = []string{
	EntityCampaign,
	EntityOrg,
	EntityUser,
}

var PhotoTypes = []string{
	PhotoTypeBanner,
	PhotoTypeGallery,
	PhotoTypeLogo,
	PhotoTypeProfile,
}

var Renditions = []string{
	RenditionHighRes,
	RenditionStandard,
	RenditionThumbnail,
}

var SupportedFormats = []string{
	FormatGIF,
	FormatJPEG,
	FormatPNG,
	FormatWEBP,
}

// EntityPhotoTypes maps each entity type to the photo types it may
// carry. Combinations outside this table fail validation before any
// image work begins.
var EntityPhotoTypes = map[string][]string{
	EntityCampaign: {PhotoTypeBanner, PhotoTypeGallery},
	EntityOrg:      {PhotoTypeBanner, PhotoTypeLogo},
	EntityUser:     {PhotoTypeProfile},
}
