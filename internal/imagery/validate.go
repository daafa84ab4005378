package imagery

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"
)

// ImageInfo describes a decoded image payload
type ImageInfo struct {
	ContentType string
	Width       int
	Height      int
}

// ValidateImage checks that data decodes as an image. Helioviewer answers some
// failures with a 200 and an HTML or JSON body, which must not be stored.
func ValidateImage(data []byte) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, fmt.Errorf("image payload is empty")
	}

	contentType := http.DetectContentType(data)
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("payload is not a decodable image (detected %s): %w", contentType, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return ImageInfo{}, fmt.Errorf("image has empty bounds %v", bounds)
	}

	return ImageInfo{
		ContentType: contentType,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}
