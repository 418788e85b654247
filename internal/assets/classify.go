// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assets

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/chatbundle/pkg/types"
)

// extensionRules is the media-type classification chain. The first rule
// whose marker appears in the media type wins; no match falls back to
// types.DefaultExtension.
var extensionRules = []struct {
	markers   []string
	extension string
}{
	{[]string{"webp"}, "webp"},
	{[]string{"jpeg", "jpg"}, "jpg"},
	{[]string{"gif"}, "gif"},
	{[]string{"png"}, "png"},
}

// ExtensionForMediaType infers a file extension from a media type such as
// "image/jpeg" or "image/webp; charset=binary". Unknown or empty media
// types yield "png".
func ExtensionForMediaType(mediaType string) string {
	mt := strings.ToLower(mediaType)
	for _, rule := range extensionRules {
		for _, m := range rule.markers {
			if strings.Contains(mt, m) {
				return rule.extension
			}
		}
	}
	return types.DefaultExtension
}

// ErrNotDataURL is returned by ParseDataURL when the input has no "data:" prefix.
var ErrNotDataURL = errors.New("not a data URL")

// IsDataURL reports whether s uses the data: scheme.
func IsDataURL(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// ParseDataURL splits a data URL into its media type and decoded body.
// Both base64 and percent-encoded bodies are accepted.
func ParseDataURL(s string) (mediaType string, body []byte, err error) {
	if !IsDataURL(s) {
		return "", nil, ErrNotDataURL
	}
	header, payload, ok := strings.Cut(s[5:], ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL has no payload separator")
	}

	params := strings.Split(header, ";")
	mediaType = strings.TrimSpace(params[0])
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	if !isBase64 {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("decoding data URL text: %w", err)
		}
		return mediaType, []byte(text), nil
	}

	body, err = decodeBase64(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URL base64: %w", err)
	}
	return mediaType, body, nil
}

// decodeBase64 accepts padded and unpadded standard encodings, ignoring
// embedded whitespace.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// ShortRef trims long references such as data URLs for log and progress
// output. The cut never splits a rune.
func ShortRef(ref string) string {
	const limit = 80
	if len(ref) <= limit {
		return ref
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(ref[cut]) {
		cut--
	}
	return ref[:cut] + "..."
}
