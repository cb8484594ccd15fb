// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bomcodec

import (
	"testing"

	"github.com/bomrepo/bom-repo-server/internal/bom"
)

func TestXMLRoundTrip(t *testing.T) {
	original := fullBOM()

	encoded, err := Encode(original, bom.FormatXML, bom.Latest())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(encoded, bom.FormatXML, bom.Latest())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.SerialNumber != original.SerialNumber {
		t.Errorf("SerialNumber = %q, want %q", decoded.SerialNumber, original.SerialNumber)
	}
	if len(decoded.Components) != len(original.Components) {
		t.Fatalf("Components = %d, want %d", len(decoded.Components), len(original.Components))
	}
	if decoded.Components[0].Name != original.Components[0].Name {
		t.Errorf("Components[0].Name = %q, want %q", decoded.Components[0].Name, original.Components[0].Name)
	}
	if len(decoded.Vulnerabilities) != 1 || decoded.Vulnerabilities[0].ID != "CVE-2026-0001" {
		t.Errorf("Vulnerabilities = %+v, want CVE-2026-0001", decoded.Vulnerabilities)
	}
}

func TestXMLEncodeAtOlderVersionDropsNewerFields(t *testing.T) {
	encoded, err := Encode(fullBOM(), bom.FormatXML, bom.V1_0)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(encoded, bom.FormatXML, bom.V1_0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.Metadata != nil {
		t.Error("1.0-encoded document should not carry Metadata on decode")
	}
	if decoded.Vulnerabilities != nil {
		t.Error("1.0-encoded document should not carry Vulnerabilities on decode")
	}
	if len(decoded.Components) != 1 {
		t.Errorf("Components should survive a 1.0 encode, got %d", len(decoded.Components))
	}
}
