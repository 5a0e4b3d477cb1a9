// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gfx

import (
	"fmt"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
)

// StorageType is the scalar type of one vertex attribute component.
type StorageType uint8

const (
	Float32 StorageType = iota
	Float16
	UInt8
	UInt16
	UInt32
)

// Size returns the size of one component in bytes.
func (storage StorageType) Size() int {
	switch storage {
	case Float32, UInt32:
		return 4
	case Float16, UInt16:
		return 2
	case UInt8:
		return 1
	default:
		return 0
	}
}

// IndexFormat is the width of mesh indices.
type IndexFormat uint8

const (
	IndexUInt16 IndexFormat = iota
	IndexUInt32
)

// Size returns the size of one index in bytes.
func (format IndexFormat) Size() int {
	if format == IndexUInt32 {
		return 4
	}
	return 2
}

// PrimitiveType is the topology the indices describe.
type PrimitiveType uint8

const (
	TriangleList PrimitiveType = iota
	TriangleStrip
)

// VertexAttribute describes one interleaved vertex attribute.
type VertexAttribute struct {
	Name       string      `json:"name"`
	Components uint8       `json:"components"`
	Type       StorageType `json:"type"`
}

// MeshFormat describes the layout of a mesh's vertex and index data.
type MeshFormat struct {
	Primitive   PrimitiveType     `json:"primitive"`
	IndexFormat IndexFormat       `json:"index_format"`
	Attributes  []VertexAttribute `json:"attributes"`
}

// VertexStride returns the size of one interleaved vertex in bytes.
func (format MeshFormat) VertexStride() int {
	stride := 0
	for _, attribute := range format.Attributes {
		stride += int(attribute.Components) * attribute.Type.Size()
	}
	return stride
}

// Mesh is decoded geometry.
type Mesh struct {
	Format   MeshFormat
	Vertices []byte
	Indices  []byte

	// Source is set for meshes whose data lives in the cache under
	// this key and has not been streamed in yet.
	Source *assetkey.Key
}

// VertexCount returns the number of vertices in Vertices.
func (m *Mesh) VertexCount() int {
	stride := m.Format.VertexStride()
	if stride == 0 {
		return 0
	}
	return len(m.Vertices) / stride
}

// IndexCount returns the number of indices in Indices.
func (m *Mesh) IndexCount() int {
	return len(m.Indices) / m.Format.IndexFormat.Size()
}

// Validate checks that the buffers are whole multiples of the vertex
// stride and index size.
func (m *Mesh) Validate() error {
	stride := m.Format.VertexStride()
	if stride == 0 && len(m.Vertices) > 0 {
		return fmt.Errorf("mesh has %d vertex bytes but no attributes", len(m.Vertices))
	}
	if stride > 0 && len(m.Vertices)%stride != 0 {
		return fmt.Errorf("mesh vertex buffer is %d bytes, not a multiple of stride %d", len(m.Vertices), stride)
	}
	if indexSize := m.Format.IndexFormat.Size(); len(m.Indices)%indexSize != 0 {
		return fmt.Errorf("mesh index buffer is %d bytes, not a multiple of %d", len(m.Indices), indexSize)
	}
	return nil
}
