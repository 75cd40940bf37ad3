// Package datauri encodes and decodes base64 "data:" URIs used for image and audio assets.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const prefix = "data:"

// ErrMalformed is returned for strings that are not base64 data URIs.
var ErrMalformed = errors.New("malformed data uri")

// Encode returns data as a base64 data URI with the given media type.
func Encode(mimeType string, data []byte) string {
	return FromBase64(mimeType, base64.StdEncoding.EncodeToString(data))
}

// FromBase64 wraps an already base64-encoded payload.
func FromBase64(mimeType, payload string) string {
	return prefix + mimeType + ";base64," + payload
}

// Decode splits a base64 data URI into its media type and raw bytes.
func Decode(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, prefix) {
		return "", nil, ErrMalformed
	}
	meta, payload, ok := strings.Cut(uri[len(prefix):], ",")
	if !ok {
		return "", nil, ErrMalformed
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrMalformed)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return mimeType, data, nil
}

// Valid reports whether uri is a decodable base64 data URI with a non-empty payload.
func Valid(uri string) bool {
	_, data, err := Decode(uri)
	return err == nil && len(data) > 0
}

// Extension returns a file extension for common asset media types.
func Extension(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "text/plain", "text/markdown":
		return ".txt"
	default:
		return ".bin"
	}
}
