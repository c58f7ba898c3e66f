// Package crawler discovers candidate document files on remote sources.
// Crawl operations are read-only and idempotent.
package crawler

import (
	"context"
	"path"
	"strings"
)

// Descriptor is one discovered file. ExcludeReason non-empty means the
// file is reported for preview but must not be fetched.
type Descriptor struct {
	URL             string `json:"url"`
	Filename        string `json:"filename"`
	ContentTypeHint string `json:"content_type_hint,omitempty"`
	SectionLabel    string `json:"section_label,omitempty"`
	ExcludeReason   string `json:"exclude_reason,omitempty"`
}

// Crawler yields a finite descriptor list for one source.
type Crawler interface {
	Discover(ctx context.Context) ([]Descriptor, error)
}

// Extensions eligible for ingestion.
var allowedExtensions = map[string]struct{}{
	"pdf": {}, "jpg": {}, "jpeg": {}, "png": {},
	"tiff": {}, "tif": {}, "bmp": {}, "gif": {},
}

var contentTypeByExt = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"bmp":  "image/bmp",
	"gif":  "image/gif",
}

// extOf returns the lowercased extension of a path or filename, without
// the dot and with any query string stripped.
func extOf(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

func allowedFile(name string) bool {
	_, ok := allowedExtensions[extOf(name)]
	return ok
}

// AllowedExtension reports whether the filename carries an extension the
// pipeline ingests. Shared with the upload path so both entrances accept
// the same file types.
func AllowedExtension(name string) bool {
	return allowedFile(name)
}

func hintFor(name string) string {
	return contentTypeByExt[extOf(name)]
}

// filenameFromURL takes the path tail of a URL-ish string.
func filenameFromURL(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return path.Base(strings.TrimSuffix(u, "/"))
}
