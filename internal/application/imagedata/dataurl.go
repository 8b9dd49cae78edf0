// Package imagedata turns picked files into self-contained data URLs.
package imagedata

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const chunkSize = 32 * 1024

// Prefix starts every data URL this package produces.
const Prefix = "data:"

// EncodeDataURL renders data as data:<media type>;base64,<payload>.
// The media type is sniffed from the content; parameters are dropped.
func EncodeDataURL(data []byte) string {
	mediaType := "application/octet-stream"
	if len(data) > 0 {
		mediaType = mimetype.Detect(data).String()
		if i := strings.IndexByte(mediaType, ';'); i >= 0 {
			mediaType = strings.TrimSpace(mediaType[:i])
		}
	}
	return Prefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ReadDataURL reads r to the end and encodes it.
// PRE: r yields the full file content
// POST: returns the data URL, or ctx's error if cancelled mid-read
func ReadDataURL(ctx context.Context, r io.Reader) (string, error) {
	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read image: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return EncodeDataURL(buf.Bytes()), nil
}

// MediaType extracts the media type of a data URL, or "" when s is not one.
func MediaType(s string) string {
	if !strings.HasPrefix(s, Prefix) {
		return ""
	}
	rest := s[len(Prefix):]
	end := strings.IndexAny(rest, ";,")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// IsDataURL reports whether s is an inline data URL rather than a hosted link.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, Prefix)
}
