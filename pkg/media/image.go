// Package media implements EP stages 2-3 (spec.md §4.2): image metadata and
// thumbnailing, and video probing/frame extraction.
package media

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/SkyAerope/Brainpile/pkg/core"

	"github.com/disintegration/imaging"
)

// thumbnailEdge is the longest-edge target for generated thumbnails
// (spec.md §4.2 stage 2: "longest-edge-800 thumbnail").
const thumbnailEdge = 800

// ImageMeta holds the decoded dimensions and size of an image.
type ImageMeta struct {
	Width    int
	Height   int
	FileSize int64
}

// DecodeImage reads an image's dimensions and byte size without producing a
// thumbnail (EP stage 2).
func DecodeImage(data []byte) (ImageMeta, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageMeta{}, &core.MediaDecodeError{Op: "media.DecodeImage", Err: err}
	}
	return ImageMeta{Width: cfg.Width, Height: cfg.Height, FileSize: int64(len(data))}, nil
}

// Thumbnail produces a longest-edge-800 JPEG thumbnail of the given image
// bytes (EP stage 2).
func Thumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &core.MediaDecodeError{Op: "media.Thumbnail", Err: err}
	}

	resized := imaging.Fit(img, thumbnailEdge, thumbnailEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, &core.MediaDecodeError{Op: "media.Thumbnail", Err: err}
	}
	return buf.Bytes(), nil
}
