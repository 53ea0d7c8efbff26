package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"

	// Registers the WebP decoder with image.Decode.
	_ "golang.org/x/image/webp"
)

// Format is a variant output encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
)

// Encoder settings. PNG is lossless.
const (
	JPEGQuality = 80
	WebPQuality = 80
	AVIFQuality = 60
	AVIFSpeed   = 8
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// SupportedFormats lists every accepted variant format.
var SupportedFormats = []Format{FormatJPEG, FormatPNG, FormatWebP, FormatAVIF}

// decodableSources are the image content types Decode reads. Vector and
// HEIF-family images are stored as uploaded but cannot feed variants.
var decodableSources = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/avif": true,
}

// CanGenerateVariants reports whether variants can be rendered from an
// upload of the given normalized content type.
func CanGenerateVariants(contentType string) bool {
	return decodableSources[contentType]
}

// ParseFormat normalises a format token. "jpg" is accepted as jpeg.
func ParseFormat(value string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(value)))
	if f == "jpg" {
		f = FormatJPEG
	}
	for _, known := range SupportedFormats {
		if f == known {
			return f, nil
		}
	}
	return "", ErrUnsupportedFormat
}

func (f Format) String() string {
	return string(f)
}

func (f Format) ContentType() string {
	return "image/" + string(f)
}

// Encode renders img in format f with the fixed quality policy.
func Encode(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch f {
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case FormatWebP:
		err = webp.Encode(&buf, img, webp.Options{Quality: WebPQuality, Method: 4})
	case FormatAVIF:
		err = avif.Encode(&buf, img, avif.Options{Quality: AVIFQuality, QualityAlpha: AVIFQuality, Speed: AVIFSpeed})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", f, err)
	}

	return buf.Bytes(), nil
}

// Decode reads any registered raster format.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
