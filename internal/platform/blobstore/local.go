package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

// LocalStore keeps images as flat files in dir, served under baseURL.
type LocalStore struct {
	dir     string
	baseURL string
	log     logging.Logger
}

func NewLocalStore(dir, baseURL string, log logging.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), log: log}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Upload(ctx context.Context, obj Object) (string, error) {
	name := ObjectName(obj.Filename, obj.ContentType)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("LocalStore.Upload: %w", err)
	}
	if _, err := io.Copy(f, obj.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("LocalStore.Upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("LocalStore.Upload: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

func (s *LocalStore) DeleteOne(ctx context.Context, url string) error {
	key, ok := KeyFromURL(s.baseURL, url)
	if !ok || strings.ContainsAny(key, `/\`) {
		s.log.Warn(ctx, "skipping image outside the uploads dir", "url", url)
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("LocalStore.DeleteOne: %w", err)
	}
	return nil
}

func (s *LocalStore) DeleteMany(ctx context.Context, urls []string) error {
	var errs []error
	for _, url := range urls {
		if err := s.DeleteOne(ctx, url); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
