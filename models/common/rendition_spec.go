package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anecdotario/photo-services/constants"
)

// RenditionSpec describes one derived version of an uploaded photo:
// its name, the square pixel size to produce, the JPEG quality to
// encode at, and whether the stored object is publicly readable.
// Exactly one spec in a policy is public; it's the smallest one and
// serves as the thumbnail.
type RenditionSpec struct {
	Name    string `json:"name"`
	Size    int    `json:"size"`
	Quality int    `json:"quality"`
	Public  bool   `json:"public"`
}

// DefaultRenditionPolicy returns the standard three-rendition policy:
// a public 150px thumbnail, a 320px standard version, and an 800px
// high-res version.
func DefaultRenditionPolicy() []RenditionSpec {
	return []RenditionSpec{
		{Name: constants.RenditionThumbnail, Size: 150, Quality: 85, Public: true},
		{Name: constants.RenditionStandard, Size: 320, Quality: 90},
		{Name: constants.RenditionHighRes, Size: 800, Quality: 95},
	}
}

// ParseRenditionPolicy parses a policy from its config representation,
// a comma-separated list of "name:size:quality[:public]" entries. For
// example: "thumbnail:150:85:public,standard:320:90,high_res:800:95".
func ParseRenditionPolicy(value string) ([]RenditionSpec, error) {
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("rendition policy is empty")
	}
	specs := make([]RenditionSpec, 0)
	publicCount := 0
	for _, entry := range strings.Split(value, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("bad rendition entry %q", entry)
		}
		size, err := strconv.Atoi(parts[1])
		if err != nil || size < 1 {
			return nil, fmt.Errorf("bad rendition size in %q", entry)
		}
		quality, err := strconv.Atoi(parts[2])
		if err != nil || quality < 1 || quality > 100 {
			return nil, fmt.Errorf("bad rendition quality in %q", entry)
		}
		spec := RenditionSpec{
			Name:    parts[0],
			Size:    size,
			Quality: quality,
		}
		if len(parts) == 4 {
			if parts[3] != "public" {
				return nil, fmt.Errorf("bad rendition flag %q in %q", parts[3], entry)
			}
			spec.Public = true
			publicCount++
		}
		specs = append(specs, spec)
	}
	if publicCount != 1 {
		return nil, fmt.Errorf("rendition policy must mark exactly one public rendition, got %d", publicCount)
	}
	return specs, nil
}

// PublicRendition returns the name of the policy's public rendition.
func PublicRendition(policy []RenditionSpec) string {
	for _, spec := range policy {
		if spec.Public {
			return spec.Name
		}
	}
	return ""
}
