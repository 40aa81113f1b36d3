// Package renderer turns one raw uploaded image into the full set of
// encoded renditions. It is a pure transform: no I/O, no shared
// state, same input always yields the same pixel output.
package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	// Register decoders for the formats we accept. JPEG output is
	// handled explicitly below.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/anecdotario/photo-services/constants"
	"github.com/anecdotario/photo-services/models/common"
	"github.com/anecdotario/photo-services/models/service"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// RenditionImage is one encoded output: the JPEG bytes plus the stats
// the pipeline records about them.
type RenditionImage struct {
	Data    []byte
	Width   int
	Height  int
	Quality int
	Public  bool
}

func (r *RenditionImage) FileSize() int64 {
	return int64(len(r.Data))
}

// Result holds every rendition plus what we learned about the
// original. Render returns either a complete Result or an error,
// never a partial rendition set.
type Result struct {
	Renditions map[string]*RenditionImage
	Original   service.OriginalInfo
}

// Render decodes raw, normalizes it, and produces one encoded
// rendition per policy entry. Steps, in order: decode, auto-rotate
// from EXIF orientation, flatten onto opaque white, then per
// rendition center-crop square, Lanczos resize, sharpen small sizes,
// and JPEG-encode at the configured quality.
//
// A decode failure or any single rendition failure fails the whole
// call with an ImageProcessingError; the orchestrator requires all
// renditions or none.
func Render(raw []byte, policy []common.RenditionSpec) (*Result, error) {
	if len(raw) == 0 {
		return nil, service.NewImageProcessingError("image data is empty", nil)
	}
	if len(policy) == 0 {
		return nil, service.NewImageProcessingError("no renditions configured", nil)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, service.NewImageProcessingError("cannot decode image", err)
	}

	img = autoRotate(raw, img)
	img = flatten(img)

	bounds := img.Bounds()
	result := &Result{
		Renditions: make(map[string]*RenditionImage, len(policy)),
		Original: service.OriginalInfo{
			FileSize: int64(len(raw)),
			Format:   format,
			Width:    bounds.Dx(),
			Height:   bounds.Dy(),
		},
	}

	for _, spec := range policy {
		rendition, err := renderOne(img, spec)
		if err != nil {
			return nil, err
		}
		result.Renditions[spec.Name] = rendition
	}
	return result, nil
}

// autoRotate applies the rotation implied by the EXIF orientation
// tag, when one is present. Orientation values 3, 6 and 8 map to
// 180, 270 and 90 degree rotations. Missing or unreadable EXIF data
// is not an error; the image passes through untouched. Mirrored
// orientations (2, 4, 5, 7) are rare in camera output and are left
// alone, matching what most consumers render.
func autoRotate(raw []byte, img image.Image) image.Image {
	meta, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return img
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}
	switch orientation {
	case 3:
		return imaging.Rotate180(img)
	case 6:
		return imaging.Rotate270(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// flatten normalizes any source to an opaque 3-channel image by
// compositing it over a white background. This handles transparent
// PNGs, paletted GIFs, and grayscale sources in one pass so every
// rendition encodes as plain RGB JPEG.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	flat := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Over)
	return flat
}

// renderOne produces a single square rendition: center-crop using the
// shorter dimension, resize with Lanczos, sharpen small targets to
// offset downscale softness, and encode as a size-optimized JPEG.
func renderOne(img image.Image, spec common.RenditionSpec) (*RenditionImage, error) {
	bounds := img.Bounds()
	short := bounds.Dx()
	if bounds.Dy() < short {
		short = bounds.Dy()
	}
	if short < 1 {
		return nil, service.NewImageProcessingError("image has no pixels", nil)
	}

	// CropAnchor centers the square, placing the offset at
	// floor((long-short)/2) on the long axis.
	square := imaging.CropAnchor(img, short, short, imaging.Center)
	resized := imaging.Resize(square, spec.Size, spec.Size, imaging.Lanczos)
	if spec.Size <= constants.SharpenThreshold {
		resized = imaging.Sharpen(resized, 0.5)
	}

	var buf bytes.Buffer
	err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: spec.Quality})
	if err != nil {
		return nil, service.NewImageProcessingError("cannot encode rendition "+spec.Name, err)
	}
	return &RenditionImage{
		Data:    buf.Bytes(),
		Width:   resized.Bounds().Dx(),
		Height:  resized.Bounds().Dy(),
		Quality: spec.Quality,
		Public:  spec.Public,
	}, nil
}
