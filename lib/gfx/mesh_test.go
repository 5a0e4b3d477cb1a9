// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gfx

import "testing"

func positionNormalFormat() MeshFormat {
	return MeshFormat{
		Primitive:   TriangleList,
		IndexFormat: IndexUInt32,
		Attributes: []VertexAttribute{
			{Name: "position", Components: 3, Type: Float32},
			{Name: "normal", Components: 4, Type: Float16},
			{Name: "color", Components: 4, Type: UInt8},
		},
	}
}

func TestVertexStride(t *testing.T) {
	if stride := positionNormalFormat().VertexStride(); stride != 12+8+4 {
		t.Errorf("stride = %d, want 24", stride)
	}
	if stride := (MeshFormat{}).VertexStride(); stride != 0 {
		t.Errorf("empty format stride = %d, want 0", stride)
	}
}

func TestMeshCounts(t *testing.T) {
	mesh := &Mesh{
		Format:   positionNormalFormat(),
		Vertices: make([]byte, 24*5),
		Indices:  make([]byte, 4*6),
	}
	if mesh.VertexCount() != 5 {
		t.Errorf("VertexCount = %d, want 5", mesh.VertexCount())
	}
	if mesh.IndexCount() != 6 {
		t.Errorf("IndexCount = %d, want 6", mesh.IndexCount())
	}
	if err := mesh.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	empty := &Mesh{}
	if empty.VertexCount() != 0 || empty.IndexCount() != 0 {
		t.Error("empty mesh should report zero counts")
	}
}

func TestMeshValidate(t *testing.T) {
	tests := []struct {
		name string
		mesh Mesh
	}{
		{"vertices without attributes", Mesh{Vertices: []byte{1, 2, 3}}},
		{"partial vertex", Mesh{Format: positionNormalFormat(), Vertices: make([]byte, 25)}},
		{"partial index", Mesh{Format: positionNormalFormat(), Indices: make([]byte, 6)}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := test.mesh.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestTextureBytesPerPixel(t *testing.T) {
	tests := map[PixelFormat]int{RGBA8: 4, RGBA8Srgb: 4, R8: 1, RGBA16: 8}
	for format, want := range tests {
		if got := format.BytesPerPixel(); got != want {
			t.Errorf("%v.BytesPerPixel() = %d, want %d", format, got, want)
		}
	}
}
