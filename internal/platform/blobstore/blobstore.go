// Package blobstore stores listing images and addresses them by public URL.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Object is an image ready to be stored.
type Object struct {
	Body        io.Reader
	Size        int64
	ContentType string
	Filename    string
}

type Store interface {
	// Upload stores obj and returns its public URL.
	Upload(ctx context.Context, obj Object) (string, error)
	DeleteOne(ctx context.Context, url string) error
	DeleteMany(ctx context.Context, urls []string) error
}

// AllowedContentTypes maps the accepted image types to file extensions.
var AllowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ObjectName builds "<uuid>-<slugged filename><ext>".
func ObjectName(filename, contentType string) string {
	ext, ok := AllowedContentTypes[contentType]
	if !ok {
		ext = strings.ToLower(path.Ext(filename))
	}
	base := slug.Make(strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
	if len(base) > 40 {
		base = strings.Trim(base[:40], "-")
	}
	if base == "" {
		return uuid.NewString() + ext
	}
	return uuid.NewString() + "-" + base + ext
}

// ObjectKey builds the S3 key "properties/YYYY/MM/<name>".
func ObjectKey(filename, contentType string, now time.Time) string {
	return fmt.Sprintf("properties/%04d/%02d/%s", now.Year(), int(now.Month()), ObjectName(filename, contentType))
}

// KeyFromURL extracts the storage key of url when it lives under baseURL.
// Leading slashes are ignored on both sides so "uploads/x.jpg" written by
// older clients still resolves.
func KeyFromURL(baseURL, url string) (string, bool) {
	base := strings.TrimLeft(strings.TrimRight(baseURL, "/"), "/") + "/"
	u := strings.TrimLeft(url, "/")
	if base == "/" || !strings.HasPrefix(u, base) {
		return "", false
	}
	key := strings.TrimPrefix(u, base)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
