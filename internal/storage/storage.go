// Package storage persists rendered showcase assets to the local filesystem
// or to an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// AssetStore persists one asset and returns a URL a client can fetch it from.
type AssetStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ContentType returns contentType when set, otherwise the sniffed type of data.
func ContentType(data []byte, contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	return mimetype.Detect(data).String()
}

// AssetKey builds "<requestID>/<name><ext>" with the extension derived from
// the content type.
func AssetKey(requestID, name, contentType string) string {
	ext := ""
	if mt := mimetype.Lookup(baseType(contentType)); mt != nil {
		ext = mt.Extension()
	}
	return path.Join(requestID, name+ext)
}

func baseType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return cleaned, nil
}
