// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type record struct {
	Name   string            `json:"name"`
	Counts map[string]uint32 `json:"counts"`
	Data   []byte            `json:"data,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	value := record{
		Name:   "mesh",
		Counts: map[string]uint32{"vertices": 24, "indices": 36, "attributes": 3},
	}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("Marshal produced different bytes for the same value")
		}
	}
}

func TestUnmarshalRoundtrip(t *testing.T) {
	value := record{Name: "image", Counts: map[string]uint32{"width": 4}, Data: []byte{1, 2, 3}}
	encoded, err := Marshal(value)
	if err != nil {
		t.Fatal(err)
	}

	var decoded record
	if err := Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Name != value.Name || decoded.Counts["width"] != 4 || !bytes.Equal(decoded.Data, value.Data) {
		t.Errorf("decoded = %+v, want %+v", decoded, value)
	}
}

func TestUnmarshalRejectsDuplicateKeys(t *testing.T) {
	// {"name": "a", "name": "b"}
	duplicate := []byte{0xa2, 0x64, 'n', 'a', 'm', 'e', 0x61, 'a', 0x64, 'n', 'a', 'm', 'e', 0x61, 'b'}
	var decoded record
	if err := Unmarshal(duplicate, &decoded); err == nil {
		t.Error("Unmarshal accepted a map with duplicate keys")
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var decoded record
	if err := Unmarshal([]byte{0xff, 0x00, 0x13}, &decoded); err == nil {
		t.Error("Unmarshal accepted malformed input")
	}
}
