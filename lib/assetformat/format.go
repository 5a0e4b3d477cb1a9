// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetformat

import (
	"fmt"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
	"github.com/bureau-foundation/gfxcache/lib/gfx"
)

// SerializedMesh is the stored form of a Mesh payload.
type SerializedMesh struct {
	Format   gfx.MeshFormat `cbor:"1,keyasint"`
	Vertices []byte         `cbor:"2,keyasint"`
	Indices  []byte         `cbor:"3,keyasint,omitempty"`
}

// DataFormat says how SerializedTexture.Data is laid out.
type DataFormat uint8

const (
	// RawPixels: rows of Header.Format pixels, Header.RowStride bytes
	// apart.
	RawPixels DataFormat = iota
	// PNG: a complete PNG stream.
	PNG
)

func (format DataFormat) String() string {
	switch format {
	case RawPixels:
		return "raw"
	case PNG:
		return "png"
	default:
		return fmt.Sprintf("DataFormat(%d)", uint8(format))
	}
}

// TextureHeader describes a texture's pixels. It is also what image
// assets store in their metadata sidecar.
type TextureHeader struct {
	Format     gfx.TextureFormat `cbor:"1,keyasint"`
	DataFormat DataFormat        `cbor:"2,keyasint"`
	Channels   uint8             `cbor:"3,keyasint"`

	// RowStride is the distance between rows in bytes. Zero means
	// tightly packed. Ignored for PNG.
	RowStride uint32 `cbor:"4,keyasint,omitempty"`
}

// SerializedTexture is the stored form of an Image payload.
type SerializedTexture struct {
	Header TextureHeader `cbor:"1,keyasint"`
	Data   []byte        `cbor:"2,keyasint"`
}

// MeshReference names the mesh a drawable renders.
type MeshReference struct {
	Key    assetkey.Key   `cbor:"1,keyasint"`
	Format gfx.MeshFormat `cbor:"2,keyasint"`
}

// TextureReference names a texture bound to a drawable parameter.
type TextureReference struct {
	Key             assetkey.Key      `cbor:"1,keyasint"`
	Format          gfx.TextureFormat `cbor:"2,keyasint"`
	TexcoordBinding int               `cbor:"3,keyasint,omitempty"`
}

// SerializedDrawable is the stored form of a Drawable payload.
type SerializedDrawable struct {
	Mesh      MeshReference               `cbor:"1,keyasint"`
	Transform gfx.Matrix4                 `cbor:"2,keyasint"`
	Basic     map[string][]float32        `cbor:"3,keyasint,omitempty"`
	Textures  map[string]TextureReference `cbor:"4,keyasint,omitempty"`
}
