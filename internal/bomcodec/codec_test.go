// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bomcodec

import (
	"testing"

	"github.com/bomrepo/bom-repo-server/internal/bom"
)

func TestSupportedMatrix(t *testing.T) {
	tests := []struct {
		format  bom.Format
		version bom.SchemaVersion
		want    bool
	}{
		{bom.FormatXML, bom.V1_0, true},
		{bom.FormatXML, bom.V1_4, true},
		{bom.FormatJSON, bom.V1_0, false},
		{bom.FormatJSON, bom.V1_1, false},
		{bom.FormatJSON, bom.V1_2, true},
		{bom.FormatJSON, bom.V1_4, true},
		{bom.FormatProtobuf, bom.V1_2, false},
		{bom.FormatProtobuf, bom.V1_3, true},
		{bom.FormatProtobuf, bom.V1_4, true},
	}
	for _, tt := range tests {
		if got := Supported(tt.format, tt.version); got != tt.want {
			t.Errorf("Supported(%v, %v) = %v, want %v", tt.format, tt.version, got, tt.want)
		}
	}
}

func TestSupportedVersionsAscending(t *testing.T) {
	versions := SupportedVersions(bom.FormatJSON)
	want := []bom.SchemaVersion{bom.V1_2, bom.V1_3, bom.V1_4}
	if len(versions) != len(want) {
		t.Fatalf("SupportedVersions(json) = %v, want %v", versions, want)
	}
	for i := range want {
		if versions[i] != want[i] {
			t.Errorf("SupportedVersions(json)[%d] = %v, want %v", i, versions[i], want[i])
		}
	}
}

func TestEncodeRejectsUnsupportedCell(t *testing.T) {
	_, err := Encode(fullBOM(), bom.FormatJSON, bom.V1_0)
	if err == nil {
		t.Fatal("Encode(json, 1.0) should fail, json does not support 1.0")
	}
	var codecErr *Error
	if !isCodecError(err, &codecErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if codecErr.Kind != UnsupportedFormatVersion {
		t.Errorf("Kind = %v, want UnsupportedFormatVersion", codecErr.Kind)
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	_, err := Decode([]byte("not valid xml at all <<<"), bom.FormatXML, bom.V1_4)
	if err == nil {
		t.Fatal("Decode of malformed xml should fail")
	}
	var codecErr *Error
	if !isCodecError(err, &codecErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if codecErr.Kind != DecodeFailure {
		t.Errorf("Kind = %v, want DecodeFailure", codecErr.Kind)
	}
}

func TestDecodeSetsSourceSchemaVersion(t *testing.T) {
	encoded, err := Encode(fullBOM(), bom.FormatXML, bom.V1_3)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(encoded, bom.FormatXML, bom.V1_3)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.SourceSchemaVersion != bom.V1_3 {
		t.Errorf("SourceSchemaVersion = %v, want 1.3", decoded.SourceSchemaVersion)
	}
}

func isCodecError(err error, target **Error) bool {
	codecErr, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = codecErr
	return true
}
