// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetkey

import (
	"bytes"
	"cmp"
	"encoding/hex"
	"fmt"
)

// IDSize is the size of a content-derived identifier in bytes.
const IDSize = 16

// ID is a 128-bit content-derived identifier.
type ID [IDSize]byte

// String returns the 32-character lowercase hex form. This is the file
// name of the asset inside its category directory.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is all zero bytes.
func (id ID) IsZero() bool {
	return id == ID{}
}

// MarshalText encodes the ID as hex so serialized formats carry the
// same text form as file names.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the hex form produced by MarshalText.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID parses a 32-character hex string into an ID.
func ParseID(hexString string) (ID, error) {
	var id ID
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return id, fmt.Errorf("parsing asset id: %w", err)
	}
	if len(decoded) != IDSize {
		return id, fmt.Errorf("asset id is %d bytes, want %d", len(decoded), IDSize)
	}
	copy(id[:], decoded)
	return id, nil
}

// Key identifies one stored record. Two keys are equal iff category,
// flags, and id are all equal.
type Key struct {
	Category Category      `json:"category"`
	Flags    CategoryFlags `json:"flags,omitempty"`
	ID       ID            `json:"id"`
}

// MetaKey returns the key of the sidecar record for k: same category
// and id, with the MetaData flag set.
func (k Key) MetaKey() Key {
	k.Flags |= MetaData
	return k
}

// PrimaryKey returns k with the MetaData flag cleared.
func (k Key) PrimaryKey() Key {
	k.Flags &^= MetaData
	return k
}

// IsMeta reports whether k addresses a sidecar record.
func (k Key) IsMeta() bool {
	return k.Flags.Has(MetaData)
}

// String formats the key as category/id, with a ".meta" suffix for
// sidecar keys. Used in logs and error messages.
func (k Key) String() string {
	if k.IsMeta() {
		return k.Category.String() + "/" + k.ID.String() + ".meta"
	}
	return k.Category.String() + "/" + k.ID.String()
}

// Compare orders keys by category, then flags, then id bytes. Returns
// -1, 0, or +1.
func Compare(a, b Key) int {
	if c := cmp.Compare(a.Category, b.Category); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Flags, b.Flags); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

// Info is a Key plus resolution-time attributes.
type Info struct {
	Key

	// AssetFlags carries per-asset policy such as AllowGC.
	AssetFlags AssetFlags `json:"asset_flags,omitempty"`

	// RootAsset is the id of the asset this one was derived from (a
	// decoded texture derived from a source image, for instance).
	// Nil when the asset is a source asset.
	RootAsset *ID `json:"root_asset,omitempty"`
}

// InfoFromKey returns an Info for k with no asset flags and no root
// asset.
func InfoFromKey(k Key) Info {
	return Info{Key: k}
}

// DerivedFrom returns a copy of info with RootAsset set to root.
func (info Info) DerivedFrom(root ID) Info {
	info.RootAsset = &root
	return info
}
