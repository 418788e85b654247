// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DefaultExtension is used for every asset until resolution reports a
// better one.
const DefaultExtension = "png"

// AssetRecord is the filename assigned to one URLReference.
type AssetRecord struct {
	// BaseName is "image_<N>", assigned in first-seen order from 1.
	BaseName string `json:"base_name" yaml:"base_name"`

	// Extension is the file extension without the dot.
	Extension string `json:"extension" yaml:"extension"`
}

// Filename returns BaseName.Extension.
func (a AssetRecord) Filename() string {
	return a.BaseName + "." + a.Extension
}

// ResolvedBuffer holds the bytes of a successfully resolved asset.
type ResolvedBuffer struct {
	// URL is the URLReference the bytes were resolved for.
	URL string `json:"url" yaml:"url"`

	// Bytes is the raw image payload.
	Bytes []byte `json:"-" yaml:"-"`

	// MediaType is the declared media type, if any.
	MediaType string `json:"media_type,omitempty" yaml:"media_type,omitempty"`

	// Extension is inferred from MediaType.
	Extension string `json:"extension" yaml:"extension"`

	// Local reports whether the bytes came from an inline payload.
	Local bool `json:"local" yaml:"local"`
}
