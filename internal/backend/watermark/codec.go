package watermark

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 95

var mimeTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
	"gif":  "image/gif",
}

// Decode decodes an image and reports its format name ("jpeg", "png", "bmp",
// "tiff", "webp" or "gif").
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// Encode writes img in the requested format and returns the format actually used.
// Formats without an encoder (webp) fall back to PNG.
func Encode(img image.Image, format string) ([]byte, string, error) {
	format = strings.ToLower(format)
	target, err := imaging.FormatFromExtension(format)
	if err != nil {
		target = imaging.PNG
		format = "png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, target, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, "", fmt.Errorf("failed to encode image as %s: %w", format, err)
	}
	if format == "jpg" {
		format = "jpeg"
	}
	if format == "tif" {
		format = "tiff"
	}
	return buf.Bytes(), format, nil
}

// MIMEType returns the MIME type for a format name, or application/octet-stream.
func MIMEType(format string) string {
	if mime, ok := mimeTypes[strings.ToLower(format)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// SniffFormat reports the format of encoded image data without decoding pixels.
func SniffFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read image header: %w", err)
	}
	return format, nil
}
