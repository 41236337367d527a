package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxAttachmentSize caps each uploaded slip/receipt at 5 MB. A file failing
// any check is rejected whole, never partially accepted.
const MaxAttachmentSize = 5 << 20

var (
	ErrAttachmentType     = errors.New("unsupported attachment type (want pdf, jpg, jpeg or png)")
	ErrAttachmentTooLarge = fmt.Errorf("attachment exceeds %d bytes", MaxAttachmentSize)
	ErrAttachmentEmpty    = errors.New("empty attachment")
)

var attachmentContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ValidateAttachment checks an upload's extension and size before any
// storage call is made.
func ValidateAttachment(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := attachmentContentTypes[ext]; !ok {
		return ErrAttachmentType
	}
	if size <= 0 {
		return ErrAttachmentEmpty
	}
	if size > MaxAttachmentSize {
		return ErrAttachmentTooLarge
	}
	return nil
}

// AttachmentContentType maps a validated filename to its MIME type.
func AttachmentContentType(filename string) string {
	if ct, ok := attachmentContentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
