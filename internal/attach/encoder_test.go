// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach converts user-selected files into inline content parts.
package attach

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncode_TextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	enc, err := Encode(path)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if enc.Name != "notes.txt" {
		t.Errorf("Name = %q", enc.Name)
	}
	if !strings.HasPrefix(enc.MIMEType, "text/plain") {
		t.Errorf("MIMEType = %q, want text/plain", enc.MIMEType)
	}
	if string(enc.Data) != "hello" {
		t.Errorf("Data = %q", enc.Data)
	}
}

func TestEncode_SniffsUnknownExtension(t *testing.T) {
	// PNG magic bytes with an extension mime.TypeByExtension won't know.
	path := filepath.Join(t.TempDir(), "image.xyzzy")
	png := []byte("\x89PNG\r\n\x1a\n0000000000000000")
	if err := os.WriteFile(path, png, 0644); err != nil {
		t.Fatal(err)
	}

	enc, err := Encode(path)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if enc.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", enc.MIMEType)
	}
}

func TestEncode_MissingFile(t *testing.T) {
	_, err := Encode(filepath.Join(t.TempDir(), "nope.bin"))

	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("error = %T, want *EncodingError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("EncodingError should unwrap to the underlying cause")
	}
}
