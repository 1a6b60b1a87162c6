package util

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Status is the case lifecycle label as stored in the database. The two
// literals are user-facing and must stay byte-identical to what the web
// client submits.
type Status string

const (
	StatusLost  Status = "Perdi meu PET"
	StatusFound Status = "Encontrei um PET"
)

// ParseStatus maps a submitted status string onto the closed enum.
// Anything unrecognized, including an empty value, counts as a lost pet.
func ParseStatus(s string) Status {
	if Status(s) == StatusFound {
		return StatusFound
	}
	return StatusLost
}

const (
	originalKeyPrefix  = "uploads/imagens_pet/"
	thumbnailKeyPrefix = "uploads/thumbnails_pet/"
)

// SecureFilename reduces an uploaded filename to a safe basename: path
// separators are stripped and anything outside [A-Za-z0-9._-] becomes an
// underscore. An empty or fully unsafe name falls back to "file".
func SecureFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}

// UniqueFilename prefixes a sanitized filename with a timestamp at
// microsecond granularity so concurrent uploads never collide on a key.
func UniqueFilename(filename string, now time.Time) string {
	return fmt.Sprintf("%s%06d_%s", now.Format("20060102150405"), now.Nanosecond()/1000, SecureFilename(filename))
}

// OriginalKey returns the asset-store key for an original upload.
func OriginalKey(unique string) string {
	return originalKeyPrefix + unique
}

// ThumbnailKey returns the asset-store key for the derived thumbnail.
func ThumbnailKey(unique string) string {
	return thumbnailKeyPrefix + "thumb_" + unique
}

// AllowedExtension reports whether the filename carries one of the
// accepted raster image extensions.
func AllowedExtension(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	switch strings.ToLower(filename[i+1:]) {
	case "png", "jpg", "jpeg":
		return true
	}
	return false
}
