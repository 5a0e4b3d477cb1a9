// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetformat

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
	"github.com/bureau-foundation/gfxcache/lib/assettrack"
	"github.com/bureau-foundation/gfxcache/lib/codec"
	"github.com/bureau-foundation/gfxcache/lib/datacache"
	"github.com/bureau-foundation/gfxcache/lib/gfx"
)

// maxTextureDimension bounds decoded texture sizes.
const maxTextureDimension = 16384

// Codec implements datacache.Codec for every asset category. Safe for
// concurrent use.
type Codec struct {
	tracker *assettrack.Tracker
}

var _ datacache.Codec = (*Codec)(nil)

// New returns a Codec that resolves drawable sub-resources through
// tracker.
func New(tracker *assettrack.Tracker) *Codec {
	return &Codec{tracker: tracker}
}

// Tracker returns the tracker drawable decoding resolves through.
func (c *Codec) Tracker() *assettrack.Tracker {
	return c.tracker
}

// Decode implements datacache.Codec. The result is a *gfx.Mesh,
// *gfx.Texture, or *gfx.Drawable according to the category.
func (c *Codec) Decode(info assetkey.Info, data []byte) (any, error) {
	switch info.Category {
	case assetkey.Mesh:
		return decodeMesh(info.Key, data)
	case assetkey.Image:
		return decodeTexture(info.Key, data)
	case assetkey.Drawable:
		return c.decodeDrawable(info.Key, data)
	default:
		return nil, fmt.Errorf("decoding %s: %w: category %s", info.Key, assetkey.ErrNotImplemented, info.Category)
	}
}

// Encode implements datacache.Codec. Only meshes can be encoded.
func (c *Codec) Encode(info assetkey.Info, value any) ([]byte, error) {
	if info.Category != assetkey.Mesh {
		return nil, fmt.Errorf("encoding %s: %w: no encoder for %s", info.Key, assetkey.ErrNotImplemented, info.Category)
	}

	var mesh *gfx.Mesh
	switch typed := value.(type) {
	case *gfx.Mesh:
		mesh = typed
	case gfx.Mesh:
		mesh = &typed
	default:
		return nil, fmt.Errorf("encoding %s: %w: want *gfx.Mesh, got %T", info.Key, assetkey.ErrEncode, value)
	}
	if mesh == nil {
		return nil, fmt.Errorf("encoding %s: %w: nil mesh", info.Key, assetkey.ErrEncode)
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w: %w", info.Key, assetkey.ErrEncode, err)
	}
	return MarshalMesh(SerializedMesh{
		Format:   mesh.Format,
		Vertices: mesh.Vertices,
		Indices:  mesh.Indices,
	})
}

// LoadFromStore implements datacache.Codec. Raw stores are decoded as
// if read from disk. Value stores hand back the stored object itself
// when it matches the category.
func (c *Codec) LoadFromStore(info assetkey.Info, request *datacache.StoreRequest) (any, error) {
	if request.IsRaw() {
		return c.Decode(info, request.Data())
	}
	switch value := request.Value().(type) {
	case *gfx.Mesh:
		if info.Category == assetkey.Mesh {
			return value, nil
		}
	case *gfx.Texture:
		if info.Category == assetkey.Image {
			return value, nil
		}
	}
	return nil, fmt.Errorf("loading %s from in-flight store: %w: %T is not a %s", info.Key, assetkey.ErrDecode, request.Value(), info.Category)
}

// MarshalMesh serializes a mesh record.
func MarshalMesh(mesh SerializedMesh) ([]byte, error) {
	data, err := codec.Marshal(mesh)
	if err != nil {
		return nil, fmt.Errorf("%w: mesh: %w", assetkey.ErrEncode, err)
	}
	return data, nil
}

// MarshalTexture serializes a texture record.
func MarshalTexture(texture SerializedTexture) ([]byte, error) {
	data, err := codec.Marshal(texture)
	if err != nil {
		return nil, fmt.Errorf("%w: texture: %w", assetkey.ErrEncode, err)
	}
	return data, nil
}

// MarshalTextureHeader serializes the sidecar header of an image.
func MarshalTextureHeader(header TextureHeader) ([]byte, error) {
	data, err := codec.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("%w: texture header: %w", assetkey.ErrEncode, err)
	}
	return data, nil
}

// UnmarshalTextureHeader parses an image sidecar.
func UnmarshalTextureHeader(data []byte) (TextureHeader, error) {
	var header TextureHeader
	if err := codec.Unmarshal(data, &header); err != nil {
		return header, fmt.Errorf("%w: texture header: %w", assetkey.ErrDecode, err)
	}
	return header, nil
}

// MarshalDrawable serializes a drawable record.
func MarshalDrawable(drawable SerializedDrawable) ([]byte, error) {
	data, err := codec.Marshal(drawable)
	if err != nil {
		return nil, fmt.Errorf("%w: drawable: %w", assetkey.ErrEncode, err)
	}
	return data, nil
}

func decodeMesh(key assetkey.Key, data []byte) (*gfx.Mesh, error) {
	var serialized SerializedMesh
	if err := codec.Unmarshal(data, &serialized); err != nil {
		return nil, fmt.Errorf("decoding %s: %w: %w", key, assetkey.ErrDecode, err)
	}
	mesh := &gfx.Mesh{
		Format:   serialized.Format,
		Vertices: serialized.Vertices,
		Indices:  serialized.Indices,
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("decoding %s: %w: %w", key, assetkey.ErrDecode, err)
	}
	return mesh, nil
}

func decodeTexture(key assetkey.Key, data []byte) (*gfx.Texture, error) {
	var serialized SerializedTexture
	if err := codec.Unmarshal(data, &serialized); err != nil {
		return nil, fmt.Errorf("decoding %s: %w: %w", key, assetkey.ErrDecode, err)
	}

	var (
		texture *gfx.Texture
		err     error
	)
	switch serialized.Header.DataFormat {
	case RawPixels:
		texture, err = rawTexture(serialized)
	case PNG:
		texture, err = pngTexture(serialized)
	default:
		err = fmt.Errorf("unknown data format %s", serialized.Header.DataFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w: %w", key, assetkey.ErrDecode, err)
	}
	return texture, nil
}

func rawTexture(serialized SerializedTexture) (*gfx.Texture, error) {
	header := serialized.Header
	if header.Format.Width > maxTextureDimension || header.Format.Height > maxTextureDimension {
		return nil, fmt.Errorf("texture %dx%d exceeds %d", header.Format.Width, header.Format.Height, maxTextureDimension)
	}
	rowBytes := uint64(header.Format.Width) * uint64(header.Format.PixelFormat.BytesPerPixel())
	stride := uint64(header.RowStride)
	if stride == 0 {
		stride = rowBytes
	}
	if stride < rowBytes {
		return nil, fmt.Errorf("row stride %d is shorter than a %d byte row", stride, rowBytes)
	}
	if header.Format.Height > 0 {
		need := stride*uint64(header.Format.Height-1) + rowBytes
		if uint64(len(serialized.Data)) < need {
			return nil, fmt.Errorf("pixel data is %d bytes, %dx%d needs %d", len(serialized.Data), header.Format.Width, header.Format.Height, need)
		}
	}
	channels := header.Channels
	if channels == 0 {
		channels = channelsOf(header.Format.PixelFormat)
	}
	return &gfx.Texture{
		Format:    header.Format,
		Pixels:    serialized.Data,
		RowStride: uint32(stride),
		Channels:  channels,
	}, nil
}

func pngTexture(serialized SerializedTexture) (*gfx.Texture, error) {
	config, err := png.DecodeConfig(bytes.NewReader(serialized.Data))
	if err != nil {
		return nil, fmt.Errorf("png header: %w", err)
	}
	if config.Width > maxTextureDimension || config.Height > maxTextureDimension {
		return nil, fmt.Errorf("png %dx%d exceeds %d", config.Width, config.Height, maxTextureDimension)
	}
	decoded, err := png.Decode(bytes.NewReader(serialized.Data))
	if err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}

	bounds := decoded.Bounds()
	rgba, ok := decoded.(*image.NRGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), decoded, bounds.Min, draw.Src)
	}

	pixelFormat := gfx.RGBA8
	if serialized.Header.Format.PixelFormat == gfx.RGBA8Srgb {
		pixelFormat = gfx.RGBA8Srgb
	}
	return &gfx.Texture{
		Format: gfx.TextureFormat{
			Width:       uint32(bounds.Dx()),
			Height:      uint32(bounds.Dy()),
			PixelFormat: pixelFormat,
		},
		Pixels:    rgba.Pix,
		RowStride: uint32(rgba.Stride),
		Channels:  4,
	}, nil
}

func channelsOf(format gfx.PixelFormat) uint8 {
	if format == gfx.R8 {
		return 1
	}
	return 4
}

func (c *Codec) decodeDrawable(key assetkey.Key, data []byte) (*gfx.Drawable, error) {
	var serialized SerializedDrawable
	if err := codec.Unmarshal(data, &serialized); err != nil {
		return nil, fmt.Errorf("decoding %s: %w: %w", key, assetkey.ErrDecode, err)
	}
	if serialized.Mesh.Key.Category != assetkey.Mesh {
		return nil, fmt.Errorf("decoding %s: %w: mesh reference %s is not a mesh key", key, assetkey.ErrDecode, serialized.Mesh.Key)
	}

	drawable := &gfx.Drawable{
		Mesh:      c.resolveMesh(serialized.Mesh),
		Transform: serialized.Transform,
		Parameters: gfx.Parameters{
			Basic:    serialized.Basic,
			Textures: make(map[string]gfx.TextureParameter, len(serialized.Textures)),
		},
	}
	for name, reference := range serialized.Textures {
		if reference.Key.Category != assetkey.Image {
			return nil, fmt.Errorf("decoding %s: %w: texture %q references %s", key, assetkey.ErrDecode, name, reference.Key)
		}
		drawable.Parameters.Textures[name] = gfx.TextureParameter{
			Texture:         c.resolveTexture(reference),
			TexcoordBinding: reference.TexcoordBinding,
		}
	}
	return drawable, nil
}

func (c *Codec) resolveMesh(reference MeshReference) *gfx.Mesh {
	create := func() *gfx.Mesh {
		source := reference.Key
		return &gfx.Mesh{Format: reference.Format, Source: &source}
	}
	if c.tracker == nil {
		return create()
	}
	return assettrack.GetOrInsert(c.tracker, reference.Key, create)
}

func (c *Codec) resolveTexture(reference TextureReference) *gfx.Texture {
	create := func() *gfx.Texture {
		source := reference.Key
		return &gfx.Texture{
			Format:   reference.Format,
			Channels: channelsOf(reference.Format.PixelFormat),
			Source:   &source,
		}
	}
	if c.tracker == nil {
		return create()
	}
	return assettrack.GetOrInsert(c.tracker, reference.Key, create)
}
