package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
)

var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

// ImageMetadata describes an original image. All four fields are required
// before variants can be generated.
type ImageMetadata struct {
	Format string
	Width  int
	Height int
	Size   int64
}

func (m *ImageMetadata) Complete() bool {
	return m != nil && m.Format != "" && m.Width > 0 && m.Height > 0 && m.Size > 0
}

// ExtractImageMetadata reads format and dimensions from the image header
// without decoding pixel data.
func ExtractImageMetadata(data []byte) (*ImageMetadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	return &ImageMetadata{
		Format: normalizeDecoderName(format),
		Width:  cfg.Width,
		Height: cfg.Height,
		Size:   int64(len(data)),
	}, nil
}

func normalizeDecoderName(name string) string {
	if f, err := ParseFormat(name); err == nil {
		return f.String()
	}
	return name
}
