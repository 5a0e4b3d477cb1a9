// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package assetformat is the codec layer between stored payloads and
// the decoded objects in package gfx. [Codec] implements
// datacache.Codec.
//
// Every category is a CBOR record with integer map keys:
//
//   - Mesh: [SerializedMesh], the vertex format plus the raw vertex
//     and index buffers. The only category with an encoder.
//   - Image: [SerializedTexture], a header and either raw pixels or a
//     PNG stream. PNG is decoded to 8-bit RGBA at load.
//   - Drawable: [SerializedDrawable], which names its mesh and
//     textures by key. Decoding a drawable does not load those
//     sub-resources; it resolves each key through the decoded-object
//     tracker, creating a placeholder (gfx.Mesh.Source or
//     gfx.Texture.Source set) on first sight. Drawables that share a
//     mesh or texture therefore share one object.
package assetformat
