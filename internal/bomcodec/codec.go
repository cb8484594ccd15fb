// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bomcodec implements the CycloneDX wire format matrix: pure
// functions that encode a canonical bom.BOM to bytes and decode bytes
// back into one, for every (format, schema version) cell the server
// supports. Downgrade (dropping fields a target schema doesn't carry)
// is a separate, independently testable projection — see Downgrade.
package bomcodec

import (
	"fmt"

	"github.com/bomrepo/bom-repo-server/internal/bom"
)

// ErrorKind classifies a codec failure for HTTP status mapping.
type ErrorKind int

const (
	// DecodeFailure means the body did not parse as a valid document
	// of the declared format/version.
	DecodeFailure ErrorKind = iota

	// UnsupportedFormatVersion means the requested (format, version)
	// cell is empty in the support matrix below.
	UnsupportedFormatVersion
)

func (k ErrorKind) String() string {
	switch k {
	case DecodeFailure:
		return "DecodeFailure"
	case UnsupportedFormatVersion:
		return "UnsupportedFormatVersion"
	default:
		return "Unknown"
	}
}

// Error is the typed error returned by Encode and Decode.
type Error struct {
	Kind          ErrorKind
	Format        bom.Format
	SchemaVersion bom.SchemaVersion
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bomcodec: %s (%s %s): %v", e.Kind, e.Format, e.SchemaVersion, e.Err)
	}
	return fmt.Sprintf("bomcodec: %s (%s %s)", e.Kind, e.Format, e.SchemaVersion)
}

func (e *Error) Unwrap() error { return e.Err }

// supportMatrix records which schema versions each format supports.
var supportMatrix = map[bom.Format]map[bom.SchemaVersion]bool{
	bom.FormatXML: {
		bom.V1_0: true, bom.V1_1: true, bom.V1_2: true, bom.V1_3: true, bom.V1_4: true,
	},
	bom.FormatJSON: {
		bom.V1_2: true, bom.V1_3: true, bom.V1_4: true,
	},
	bom.FormatProtobuf: {
		bom.V1_3: true, bom.V1_4: true,
	},
}

// Supported reports whether the (format, schemaVersion) cell is
// populated in the support matrix.
func Supported(format bom.Format, schemaVersion bom.SchemaVersion) bool {
	return supportMatrix[format][schemaVersion]
}

// SupportedVersions returns the schema versions a format supports, in
// ascending order.
func SupportedVersions(format bom.Format) []bom.SchemaVersion {
	var versions []bom.SchemaVersion
	for _, v := range bom.AllVersions() {
		if Supported(format, v) {
			versions = append(versions, v)
		}
	}
	return versions
}

// Encode projects value onto schemaVersion (dropping newer-only
// fields via Downgrade) and serializes it in format. Returns
// *Error{Kind: UnsupportedFormatVersion} if the cell is unsupported.
func Encode(value *bom.BOM, format bom.Format, schemaVersion bom.SchemaVersion) ([]byte, error) {
	if !Supported(format, schemaVersion) {
		return nil, &Error{Kind: UnsupportedFormatVersion, Format: format, SchemaVersion: schemaVersion}
	}

	projected := Downgrade(value, schemaVersion)

	switch format {
	case bom.FormatXML:
		return encodeXML(projected, schemaVersion)
	case bom.FormatJSON:
		return encodeJSON(projected, schemaVersion)
	case bom.FormatProtobuf:
		return encodeProtobuf(projected, schemaVersion)
	default:
		return nil, &Error{Kind: UnsupportedFormatVersion, Format: format, SchemaVersion: schemaVersion}
	}
}

// Decode parses data as a document of the given format at
// schemaVersion, populating the canonical model. Returns
// *Error{Kind: UnsupportedFormatVersion} if the cell is unsupported,
// or *Error{Kind: DecodeFailure} if data does not parse.
func Decode(data []byte, format bom.Format, schemaVersion bom.SchemaVersion) (*bom.BOM, error) {
	if !Supported(format, schemaVersion) {
		return nil, &Error{Kind: UnsupportedFormatVersion, Format: format, SchemaVersion: schemaVersion}
	}

	var (
		value *bom.BOM
		err   error
	)
	switch format {
	case bom.FormatXML:
		value, err = decodeXML(data, schemaVersion)
	case bom.FormatJSON:
		value, err = decodeJSON(data, schemaVersion)
	case bom.FormatProtobuf:
		value, err = decodeProtobuf(data, schemaVersion)
	default:
		return nil, &Error{Kind: UnsupportedFormatVersion, Format: format, SchemaVersion: schemaVersion}
	}
	if err != nil {
		return nil, &Error{Kind: DecodeFailure, Format: format, SchemaVersion: schemaVersion, Err: err}
	}
	value.SourceSchemaVersion = schemaVersion
	return value, nil
}
