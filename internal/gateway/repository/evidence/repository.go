// Package evidence stores evidence images and hands back the URL a report
// keeps as its image reference.
package evidence

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("evidence not found")

// Object is a stored evidence blob.
type Object struct {
	Data        []byte
	ContentType string
}

// Store defines operations for persisting evidence images.
type Store interface {
	// Put uploads data under key and returns a URL that resolves to it.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) (Object, error)
}

// NewKey returns a unique object key of the form reports/2006/01/02/<uuid><ext>.
func NewKey(now time.Time, contentType string) string {
	return path.Join("reports", now.UTC().Format("2006/01/02"), uuid.NewString()+extFor(contentType))
}

func extFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/jpeg", "image/jpg", "":
		return ".jpg"
	default:
		return ".bin"
	}
}

func normalizeKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}
