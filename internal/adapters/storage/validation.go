package storage

import (
	"fmt"
	"strings"
)

// AllowedContentTypes defines the MIME types accepted as email attachments.
var AllowedContentTypes = map[string]bool{
	// Images
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,

	// Documents
	"application/pdf":                                                         true,
	"application/msword":                                                      true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel":                                                true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"application/zip":                                                         true,
	"text/plain":                                                              true,
	"text/csv":                                                                true,
}

// ValidateContentType checks if the content type is allowed.
func ValidateContentType(contentType string) error {
	// Normalize content type (remove parameters like charset)
	normalized := strings.Split(contentType, ";")[0]
	normalized = strings.TrimSpace(strings.ToLower(normalized))

	if !AllowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks sizeBytes against maxBytes. A non-positive maxBytes
// disables the limit.
func ValidateFileSize(sizeBytes, maxBytes int64) error {
	if sizeBytes < 0 {
		return fmt.Errorf("file size cannot be negative")
	}
	if maxBytes > 0 && sizeBytes > maxBytes {
		return fmt.Errorf("file size %d bytes exceeds maximum of %d bytes", sizeBytes, maxBytes)
	}
	return nil
}
