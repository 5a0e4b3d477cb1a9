// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetkey

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestGenerateIsDeterministic(t *testing.T) {
	data := []byte("vertex data that should always hash the same way")

	first := Generate(data, Mesh, 0)
	second := Generate(data, Mesh, 0)
	if first != second {
		t.Fatalf("Generate returned different keys for identical input: %v vs %v", first, second)
	}
	if first.ID.IsZero() {
		t.Error("Generate returned a zero id")
	}
}

func TestGenerateKeyShape(t *testing.T) {
	key := Generate([]byte("ABC"), Mesh, 0)
	if len(key.ID.String()) != 2*IDSize {
		t.Errorf("id text length = %d, want %d", len(key.ID.String()), 2*IDSize)
	}
	if key.Category != Mesh || key.Flags != 0 {
		t.Errorf("key = %+v, want Mesh with no flags", key)
	}
}

func TestGenerateDistinguishesContent(t *testing.T) {
	a := Generate([]byte("ABC"), Image, 0)
	b := Generate([]byte("ABD"), Image, 0)
	if a.ID == b.ID {
		t.Error("different content produced the same id")
	}
}

func TestGenerateCategoryDoesNotAffectID(t *testing.T) {
	mesh := Generate([]byte("shared"), Mesh, 0)
	image := Generate([]byte("shared"), Image, 0)
	if mesh.ID != image.ID {
		t.Error("id should depend only on content")
	}
	if mesh == image {
		t.Error("keys in different categories must not be equal")
	}
}

func TestGenerateFileMatchesGenerate(t *testing.T) {
	content := []byte(strings.Repeat("streamed through the hasher ", 4096))
	path := filepath.Join(t.TempDir(), "source.bin")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := GenerateFile(path, Image, 0)
	if err != nil {
		t.Fatalf("GenerateFile failed: %v", err)
	}
	fromBytes := Generate(content, Image, 0)
	if fromFile != fromBytes {
		t.Errorf("GenerateFile = %v, Generate = %v", fromFile, fromBytes)
	}
}

func TestGenerateFileMissing(t *testing.T) {
	_, err := GenerateFile(filepath.Join(t.TempDir(), "absent.png"), Image, 0)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error %v does not match ErrNotFound", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error %v does not match fs.ErrNotExist", err)
	}
}

func TestGeneratePathNormalizes(t *testing.T) {
	a := GeneratePath("models/../models/tree.png", Image, 0)
	b := GeneratePath("models/tree.png", Image, 0)
	if a != b {
		t.Error("equivalent paths produced different keys")
	}

	content := Generate([]byte("models/tree.png"), Image, 0)
	if content.ID == b.ID {
		t.Error("path key collides with content key of the same bytes")
	}
}

func TestMetaKey(t *testing.T) {
	key := Generate([]byte("payload"), Image, 0)
	meta := key.MetaKey()

	if !meta.IsMeta() {
		t.Error("MetaKey did not set the MetaData flag")
	}
	if meta.ID != key.ID || meta.Category != key.Category {
		t.Error("MetaKey changed id or category")
	}
	if meta == key {
		t.Error("meta key must not equal the primary key")
	}
	if meta.PrimaryKey() != key {
		t.Error("PrimaryKey did not invert MetaKey")
	}
	if !strings.HasSuffix(meta.String(), ".meta") {
		t.Errorf("meta key String = %q, want .meta suffix", meta.String())
	}
}

func TestCompareTotalOrder(t *testing.T) {
	low := Key{Category: Drawable, ID: ID{0xff}}
	mid := Key{Category: Mesh, ID: ID{0x01}}
	midMeta := Key{Category: Mesh, Flags: MetaData, ID: ID{0x00}}
	high := Key{Category: Mesh, Flags: MetaData, ID: ID{0x02}}

	keys := []Key{high, midMeta, low, mid}
	slices.SortFunc(keys, Compare)

	want := []Key{low, mid, midMeta, high}
	if !slices.Equal(keys, want) {
		t.Errorf("sorted = %v, want %v", keys, want)
	}
	if Compare(mid, mid) != 0 {
		t.Error("Compare of equal keys is not zero")
	}
}

func TestParseIDRoundtrip(t *testing.T) {
	key := Generate([]byte("roundtrip"), Drawable, 0)
	parsed, err := ParseID(key.ID.String())
	if err != nil {
		t.Fatalf("ParseID failed: %v", err)
	}
	if parsed != key.ID {
		t.Errorf("ParseID = %v, want %v", parsed, key.ID)
	}

	if _, err := ParseID("abcd"); err == nil {
		t.Error("ParseID accepted a short id")
	}
	if _, err := ParseID(strings.Repeat("zz", IDSize)); err == nil {
		t.Error("ParseID accepted non-hex input")
	}
}

func TestParseCategory(t *testing.T) {
	for _, category := range Categories {
		parsed, err := ParseCategory(category.String())
		if err != nil {
			t.Errorf("ParseCategory(%q) failed: %v", category, err)
			continue
		}
		if parsed != category {
			t.Errorf("ParseCategory(%q) = %v", category, parsed)
		}
	}
	if _, err := ParseCategory("Shader"); err == nil {
		t.Error("ParseCategory accepted an unknown category")
	}
}

func TestInfoFromKey(t *testing.T) {
	key := Generate([]byte("source image"), Image, 0)
	info := InfoFromKey(key)
	if info.Key != key || info.RootAsset != nil || info.AssetFlags != 0 {
		t.Errorf("InfoFromKey = %+v", info)
	}

	derived := info.DerivedFrom(key.ID)
	if derived.RootAsset == nil || *derived.RootAsset != key.ID {
		t.Error("DerivedFrom did not record the root asset")
	}
	if info.RootAsset != nil {
		t.Error("DerivedFrom mutated the receiver")
	}
}
