// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gfx

import "github.com/bureau-foundation/gfxcache/lib/assetkey"

// PixelFormat is the in-memory pixel layout of a texture.
type PixelFormat uint8

const (
	RGBA8 PixelFormat = iota
	RGBA8Srgb
	R8
	RGBA16
)

// BytesPerPixel returns the pixel size for format.
func (format PixelFormat) BytesPerPixel() int {
	switch format {
	case R8:
		return 1
	case RGBA16:
		return 8
	default:
		return 4
	}
}

// TextureFormat is the shape of a texture.
type TextureFormat struct {
	Width       uint32      `json:"width"`
	Height      uint32      `json:"height"`
	PixelFormat PixelFormat `json:"pixel_format"`
}

// Texture is a decoded image. Pixels holds Height rows of RowStride
// bytes, each row carrying Width pixels of Channels components.
type Texture struct {
	Format    TextureFormat
	Pixels    []byte
	RowStride uint32
	Channels  uint8

	// Source is set for textures whose pixels live in the cache under
	// this key and have not been streamed in yet.
	Source *assetkey.Key
}
