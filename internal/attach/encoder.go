// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach converts user-selected files into inline content parts.
package attach

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// MaxAttachmentSize caps how large a file may be encoded inline (20 MB, the
// inline-data limit of the generation API).
const MaxAttachmentSize = 20 * 1024 * 1024

// EncodingError indicates an attachment could not be read or encoded.
// An encoding failure never aborts a send: the attachment is omitted from
// the dispatched content while its preview remains visible.
type EncodingError struct {
	Path  string
	Cause error
}

func (e *EncodingError) Error() string {
	return "cannot encode attachment " + filepath.Base(e.Path) + ": " + e.Cause.Error()
}

func (e *EncodingError) Unwrap() error {
	return e.Cause
}

// ErrTooLarge is returned (wrapped in EncodingError) for oversized files.
var ErrTooLarge = errors.New("file exceeds inline attachment limit")

// Encoded is an attachment ready for dispatch as an inline binary part.
type Encoded struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Encode reads a file and produces an inline content fragment for the model
// API. MIME type is resolved from the extension first, then sniffed from
// content as a fallback.
func Encode(path string) (*Encoded, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &EncodingError{Path: path, Cause: err}
	}
	if info.Size() > MaxAttachmentSize {
		return nil, &EncodingError{Path: path, Cause: ErrTooLarge}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &EncodingError{Path: path, Cause: err}
	}

	return &Encoded{
		Name:     filepath.Base(path),
		MIMEType: detectMIME(path, data),
		Data:     data,
	}, nil
}

// detectMIME resolves a MIME type by extension, falling back to content
// sniffing for unknown extensions.
func detectMIME(path string, data []byte) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return http.DetectContentType(data)
}
