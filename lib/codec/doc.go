// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the repository server's standard CBOR encoding
// configuration.
//
// The server uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the supplemental /bom/serials,
//     /bom/versions, and /bom/stats endpoints. (/bom response bodies
//     are CycloneDX documents in the negotiated format.)
//   - CBOR for internal state: the metadata service's per-serial
//     tracking records persisted under <directory>/.metadata/.
//
// This package provides the shared CBOR encoding and decoding modes so
// that internal state always encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
//
// For buffer-oriented operations (files):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: controls field naming for CBOR encoding. Example:
//     internal/repository's SerialStats tracking records. The
//     /bom/stats endpoint also writes SerialStats as JSON; since it
//     has no `json` tags, that JSON uses the Go field names.
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract — doubling up is noise that obscures
// whether a type participates in JSON serialization.
package codec
