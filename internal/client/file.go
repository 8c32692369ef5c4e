package client

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const mimeOctetStream = "application/octet-stream"

// File is an image selected by the user.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Blob is an opaque binary response, e.g. the signed image returned by /embed.
type Blob struct {
	Data        []byte
	ContentType string
}

// NewFile reads an image from r.
func NewFile(name, contentType string, r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return &File{Name: name, ContentType: contentType, Data: data}, nil
}

// OpenFile reads an image from disk.
func OpenFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file %s: %w", path, err)
	}
	return &File{Name: filepath.Base(path), Data: data}, nil
}

func (f *File) selected() bool {
	return f != nil && f.Name != ""
}

// partContentType labels the multipart part. The image is only inspected, never altered.
func (f *File) partContentType() string {
	if _, format, err := image.DecodeConfig(bytes.NewReader(f.Data)); err == nil {
		return "image/" + format
	}
	if f.ContentType != "" {
		return f.ContentType
	}
	if len(f.Data) == 0 {
		return mimeOctetStream
	}
	return http.DetectContentType(f.Data)
}
