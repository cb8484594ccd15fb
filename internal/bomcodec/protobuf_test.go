// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bomcodec

import (
	"testing"

	"github.com/bomrepo/bom-repo-server/internal/bom"
)

func TestProtobufRoundTrip(t *testing.T) {
	original := fullBOM()

	encoded, err := Encode(original, bom.FormatProtobuf, bom.Latest())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(encoded, bom.FormatProtobuf, bom.Latest())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.SerialNumber != original.SerialNumber {
		t.Errorf("SerialNumber = %q, want %q", decoded.SerialNumber, original.SerialNumber)
	}
	if decoded.DocVersion != original.DocVersion {
		t.Errorf("DocVersion = %d, want %d", decoded.DocVersion, original.DocVersion)
	}
	if len(decoded.Components) != 1 || decoded.Components[0].Name != "left-pad" {
		t.Errorf("Components = %+v", decoded.Components)
	}
	if len(decoded.Services) != 1 || len(decoded.Services[0].Endpoints) != 1 {
		t.Errorf("Services = %+v", decoded.Services)
	}
	if len(decoded.Vulnerabilities) != 1 || decoded.Vulnerabilities[0].Ratings[0].Score != 7.5 {
		t.Errorf("Vulnerabilities = %+v", decoded.Vulnerabilities)
	}
}

func TestProtobufUnsupportedBelowFloor(t *testing.T) {
	if _, err := Encode(fullBOM(), bom.FormatProtobuf, bom.V1_2); err == nil {
		t.Fatal("Encode(protobuf, 1.2) should fail, protobuf's floor is 1.3")
	}
}

func TestProtobufSkipsUnknownFields(t *testing.T) {
	encoded, err := Encode(fullBOM(), bom.FormatProtobuf, bom.Latest())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Appending a well-formed but unrecognized field (field 20,
	// varint-typed, value 1) must not break decoding.
	tagged := append(encoded, 0xA0, 0x01, 0x01)
	if _, err := Decode(tagged, bom.FormatProtobuf, bom.Latest()); err != nil {
		t.Fatalf("Decode with trailing unknown field: %v", err)
	}
}
