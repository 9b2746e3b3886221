package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/h2non/filetype"
)

var errNotDataURL = errors.New("not a data URL")

// DecodeDataURL returns the payload of a data URL and its media type. When the
// URL declares no media type it is sniffed from the payload.
func DecodeDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, "", errNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing payload separator", errNotDataURL)
	}

	var (
		data []byte
		err  error
	)
	params := strings.Split(meta, ";")
	if params[len(params)-1] == "base64" {
		params = params[:len(params)-1]
		payload = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, payload)
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
	} else {
		var text string
		text, err = url.PathUnescape(payload)
		data = []byte(text)
	}
	if err != nil {
		return nil, "", fmt.Errorf("invalid data URL payload: %w", err)
	}

	mime := strings.ToLower(strings.TrimSpace(params[0]))
	if mime == "" {
		mime = SniffMIME(data)
	}
	return data, mime, nil
}

// EncodeDataURL returns data as a base64 data URL of the given media type.
func EncodeDataURL(data []byte, mime string) string {
	if mime == "" {
		mime = SniffMIME(data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// SniffMIME detects the media type from the content of data.
func SniffMIME(data []byte) string {
	if IsSVG(data) {
		return "image/svg+xml"
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}

// IsImage reports whether data holds a raster image format.
func IsImage(data []byte) bool {
	return filetype.IsImage(data)
}
