package storage

import (
	"fmt"
	"strings"
)

// AllowedContentTypes defines the MIME types accepted for uploads.
var AllowedContentTypes = map[string]bool{
	"audio/mpeg":               true,
	"audio/mp3":                true,
	"audio/wav":                true,
	"audio/x-wav":              true,
	"audio/wave":               true,
	"audio/aac":                true,
	"audio/mp4":                true,
	"audio/flac":               true,
	"application/zip":          true,
	"application/x-zip":        true,
	"application/octet-stream": true,
	"application/pdf":          true,
	"image/png":                true,
	"image/jpeg":               true,
}

// ContentTypeForFormat maps an audio file format to its upload content type.
func ContentTypeForFormat(format string) string {
	switch strings.ToLower(format) {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "m4a", "aac":
		return "audio/mp4"
	case "flac":
		return "audio/flac"
	case "zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// ValidateContentType checks if the content type is allowed.
func ValidateContentType(contentType string) error {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(normalized, ";"); idx != -1 {
		normalized = strings.TrimSpace(normalized[:idx])
	}

	if !AllowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}
