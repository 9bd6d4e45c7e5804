package storage

import (
	"context"
	"io"
)

// ObjectStore holds call recordings. The pipeline writes during audio
// resolution and reads for transcription; the retention sweeper deletes.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
	Download(ctx context.Context, objectName string) ([]byte, error)
	Delete(ctx context.Context, objectName string) error
}
