package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalStore keeps recordings on disk; used when no bucket is configured.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(objectName string) string {
	return filepath.Join(s.root, filepath.Clean("/"+objectName))
}

func (s *LocalStore) Upload(_ context.Context, objectName string, _ string, r io.Reader) (string, error) {
	p := s.path(objectName)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(p)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return objectName, nil
}

func (s *LocalStore) Download(_ context.Context, objectName string) ([]byte, error) {
	return os.ReadFile(s.path(objectName))
}

func (s *LocalStore) Delete(_ context.Context, objectName string) error {
	return os.Remove(s.path(objectName))
}
