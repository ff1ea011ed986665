// Package storage relays course media (images, videos) to an object store.
// Callers pick the key; the relay never invents one.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
)

const (
	ImagePrefix = "images/"
	VideoPrefix = "videos/"
)

// Relay stores and removes binary assets by key.
//
// Upload is idempotent on key reuse (the object is overwritten). Delete of a
// missing key is not an error.
type Relay interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

func NewImageKey() string { return ImagePrefix + uuid.NewString() }
func NewVideoKey() string { return VideoPrefix + uuid.NewString() }

func IsImageKey(key string) bool { return strings.HasPrefix(key, ImagePrefix) }

// Blob is an uploaded file held in memory for the duration of a request.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (b Blob) Reader() io.Reader { return bytes.NewReader(b.Data) }

// BlobFromFileHeader reads a multipart file part fully.
func BlobFromFileHeader(fh *multipart.FileHeader) (Blob, error) {
	f, err := fh.Open()
	if err != nil {
		return Blob{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Blob{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return Blob{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// BlobsFromFileHeaders keeps the order of the multipart parts.
func BlobsFromFileHeaders(fhs []*multipart.FileHeader) ([]Blob, error) {
	blobs := make([]Blob, 0, len(fhs))
	for _, fh := range fhs {
		b, err := BlobFromFileHeader(fh)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, b)
	}
	return blobs, nil
}

// URLOrNil renders a key through the relay, keeping empty keys as null.
func URLOrNil(r Relay, key string) *string {
	if key == "" {
		return nil
	}
	u := r.URL(key)
	return &u
}
