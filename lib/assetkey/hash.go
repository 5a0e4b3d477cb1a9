// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetkey

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// domainKey is a 32-byte BLAKE3 key. Content and source-path hashing
// use different keys so a path string can never produce the same id
// as a file whose bytes happen to equal that string.
type domainKey [32]byte

// Domain keys are the ASCII domain name zero-padded to 32 bytes.
// Changing them invalidates every persisted asset.
var (
	contentDomainKey = domainKey{
		'g', 'f', 'x', 'c', 'a', 'c', 'h', 'e', '.', 'a', 's', 's', 'e', 't', '.',
		'c', 'o', 'n', 't', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	sourcePathDomainKey = domainKey{
		'g', 'f', 'x', 'c', 'a', 'c', 'h', 'e', '.', 'a', 's', 's', 'e', 't', '.',
		's', 'o', 'u', 'r', 'c', 'e', '-', 'p', 'a', 't', 'h', 0, 0, 0, 0, 0, 0,
	}
)

// Generate returns the key for data in the given category. The id is
// the first 16 bytes of the content-domain BLAKE3 keyed hash, so the
// result depends only on the bytes, category, and flags.
func Generate(data []byte, category Category, flags CategoryFlags) Key {
	hasher := newHasher(contentDomainKey)
	hasher.Write(data)
	return Key{Category: category, Flags: flags, ID: fold(hasher)}
}

// GenerateFile streams the file at path through the content hash. The
// result equals Generate over the file's bytes. A missing file yields
// an error matching both ErrNotFound and fs.ErrNotExist.
func GenerateFile(path string, category Category, flags CategoryFlags) (Key, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Key{}, fmt.Errorf("generating key for %s: %w: %w", path, ErrNotFound, err)
		}
		return Key{}, fmt.Errorf("generating key for %s: %w: %w", path, ErrIO, err)
	}
	defer file.Close()

	hasher := newHasher(contentDomainKey)
	if _, err := io.Copy(hasher, file); err != nil {
		return Key{}, fmt.Errorf("hashing %s: %w: %w", path, ErrIO, err)
	}
	return Key{Category: category, Flags: flags, ID: fold(hasher)}, nil
}

// GeneratePath returns a key derived from a source location rather
// than from content. The path is cleaned and converted to forward
// slashes first so equivalent spellings of one path agree across
// platforms. Importers use this to ask "has this source file been
// imported" before reading it.
func GeneratePath(path string, category Category, flags CategoryFlags) Key {
	normalized := filepath.ToSlash(filepath.Clean(path))
	hasher := newHasher(sourcePathDomainKey)
	hasher.Write([]byte(normalized))
	return Key{Category: category, Flags: flags, ID: fold(hasher)}
}

func newHasher(key domainKey) *blake3.Hasher {
	// NewKeyed only fails for a key that is not 32 bytes, which the
	// domainKey type rules out.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("assetkey: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

// fold truncates the 256-bit digest to an ID.
func fold(hasher *blake3.Hasher) ID {
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	var id ID
	copy(id[:], digest[:IDSize])
	return id
}
