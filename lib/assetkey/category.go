// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetkey

import "fmt"

// Category is the kind of asset a key addresses. It selects the codec
// used to decode the payload and the storage sub-directory. These
// values are persisted in serialized drawables: do not renumber.
type Category uint8

const (
	// Drawable is a composite of a mesh, a transform, and material
	// parameters that reference other assets.
	Drawable Category = 0

	// Mesh is vertex and index data with its vertex format.
	Mesh Category = 1

	// Image is pixel data, raw or in a compressed image container.
	Image Category = 2
)

// Categories lists every category in declaration order.
var Categories = []Category{Drawable, Mesh, Image}

// String returns the category name. The name is also the storage
// sub-directory, so it must stay stable.
func (category Category) String() string {
	switch category {
	case Drawable:
		return "Drawable"
	case Mesh:
		return "Mesh"
	case Image:
		return "Image"
	default:
		return fmt.Sprintf("Category(%d)", uint8(category))
	}
}

// Valid reports whether category is one of the declared categories.
func (category Category) Valid() bool {
	return category <= Image
}

// ParseCategory parses a category name. Matching is exact except that
// an all-lowercase name is accepted too, for command-line use.
func ParseCategory(name string) (Category, error) {
	switch name {
	case "Drawable", "drawable":
		return Drawable, nil
	case "Mesh", "mesh":
		return Mesh, nil
	case "Image", "image":
		return Image, nil
	default:
		return 0, fmt.Errorf("unknown asset category %q", name)
	}
}

// CategoryFlags modify which record of an asset a key addresses.
type CategoryFlags uint8

const (
	// MetaData addresses the small sidecar record stored next to the
	// primary payload (a format header, for instance). Same identity,
	// different file.
	MetaData CategoryFlags = 1 << 0
)

// Has reports whether all bits of flag are set.
func (flags CategoryFlags) Has(flag CategoryFlags) bool {
	return flags&flag == flag
}

func (flags CategoryFlags) String() string {
	if flags == 0 {
		return "none"
	}
	if flags == MetaData {
		return "meta"
	}
	return fmt.Sprintf("CategoryFlags(%#x)", uint8(flags))
}

// AssetFlags are carried on resolved asset info rather than on the key.
type AssetFlags uint8

const (
	// AllowGC marks an asset that the decoded-object tracker may drop
	// once nothing else references it.
	AllowGC AssetFlags = 1 << 0
)

// Has reports whether all bits of flag are set.
func (flags AssetFlags) Has(flag AssetFlags) bool {
	return flags&flag == flag
}
