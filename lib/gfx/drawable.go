// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gfx

// Matrix4 is a column-major 4x4 transform.
type Matrix4 [16]float32

// Identity returns the identity transform.
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// TextureParameter binds a texture to a material slot.
type TextureParameter struct {
	Texture *Texture

	// TexcoordBinding is the mesh texcoord set sampled by default.
	TexcoordBinding int
}

// Parameters are a drawable's material inputs.
type Parameters struct {
	// Basic holds numeric parameters; one to four components each.
	Basic    map[string][]float32
	Textures map[string]TextureParameter
}

// Drawable is a mesh placed in the scene with material parameters.
// Meshes and textures may be shared between drawables.
type Drawable struct {
	Mesh       *Mesh
	Transform  Matrix4
	Parameters Parameters
}
