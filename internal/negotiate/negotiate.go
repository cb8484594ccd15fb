// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package negotiate implements HTTP content negotiation over the
// (format, schemaVersion) matrix: parsing Accept/Content-Type headers,
// matching against bomcodec's support matrix, and building the
// response Content-Type.
package negotiate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bomrepo/bom-repo-server/internal/bom"
	"github.com/bomrepo/bom-repo-server/internal/bomcodec"
)

// aliases maps every recognized media type (type/subtype, lowercased)
// to its canonical format.
var aliases = map[string]bom.Format{
	"text/xml":                              bom.FormatXML,
	"application/xml":                       bom.FormatXML,
	"application/vnd.cyclonedx+xml":         bom.FormatXML,
	"application/json":                      bom.FormatJSON,
	"application/vnd.cyclonedx+json":        bom.FormatJSON,
	"application/x.vnd.cyclonedx+protobuf":  bom.FormatProtobuf,
	"application/octet-stream":              bom.FormatProtobuf,
}

// canonicalMediaType is the vendor media type the server emits by
// default for each format (when the request didn't use a generic
// alias worth echoing).
var canonicalMediaType = map[bom.Format]string{
	bom.FormatXML:      "application/vnd.cyclonedx+xml",
	bom.FormatJSON:      "application/vnd.cyclonedx+json",
	bom.FormatProtobuf: "application/x.vnd.cyclonedx+protobuf",
}

// Selection is the outcome of negotiation: a concrete format and
// schema version, plus the media type string to echo back on input
// (preserved so the server can echo that alias verbatim in a
// response Content-Type rather than always substituting the
// canonical vendor media type).
type Selection struct {
	Format        bom.Format
	SchemaVersion bom.SchemaVersion
	MediaType     string
}

// ContentType builds the canonical response Content-Type header value
// for sel: the vendor media type (or the client's echoed alias) with a
// version parameter reflecting the schema version actually served.
func (sel Selection) ContentType() string {
	return fmt.Sprintf("%s; version=%s", sel.MediaType, sel.SchemaVersion)
}

// mediaTypeCandidate is one parsed entry from an Accept header.
type mediaTypeCandidate struct {
	mediaType string
	format    bom.Format
	version   bom.SchemaVersion
	quality   float64
}

// NegotiateGet selects a (format, schemaVersion) pair for a GET
// request from its Accept header, iterating entries in quality-factor
// order and picking the first that the codec supports. An empty or
// absent Accept header defaults to XML at the latest schema version.
func NegotiateGet(accept string) (Selection, error) {
	if strings.TrimSpace(accept) == "" {
		return Selection{Format: bom.FormatXML, SchemaVersion: bom.Latest(), MediaType: canonicalMediaType[bom.FormatXML]}, nil
	}

	candidates := parseAccept(accept)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].quality > candidates[j].quality
	})

	for _, candidate := range candidates {
		format := candidate.format
		if format == "" {
			continue
		}
		version := candidate.version
		if version == "" {
			version = highestSupported(format)
		}
		if bomcodec.Supported(format, version) {
			return Selection{Format: format, SchemaVersion: version, MediaType: candidate.mediaType}, nil
		}
	}

	return Selection{}, &Error{Kind: NotAcceptable, Err: fmt.Errorf("no acceptable (format, version) in %q", accept)}
}

// NegotiatePost selects a (format, schemaVersion) pair for a POST
// request from its Content-Type header. Returns UnsupportedMediaType
// if the media type is unrecognized or the cell is unsupported.
func NegotiatePost(contentType string) (Selection, error) {
	if strings.TrimSpace(contentType) == "" {
		return Selection{}, &Error{Kind: UnsupportedMediaType, Err: fmt.Errorf("missing Content-Type")}
	}

	mediaType, params := parseMediaType(contentType)
	format, ok := aliases[mediaType]
	if !ok {
		return Selection{}, &Error{Kind: UnsupportedMediaType, Err: fmt.Errorf("unrecognized media type %q", mediaType)}
	}

	version := bom.SchemaVersion(params["version"])
	if version == "" {
		version = highestSupported(format)
	}
	if !version.Valid() || !bomcodec.Supported(format, version) {
		return Selection{}, &Error{Kind: UnsupportedMediaType, Err: fmt.Errorf("unsupported (format, version): (%s, %s)", format, version)}
	}

	return Selection{Format: format, SchemaVersion: version, MediaType: mediaType}, nil
}

func highestSupported(format bom.Format) bom.SchemaVersion {
	versions := bomcodec.SupportedVersions(format)
	if len(versions) == 0 {
		return bom.Latest()
	}
	return versions[len(versions)-1]
}

// parseAccept splits an Accept header into per-entry candidates,
// resolving each entry's media type to a format and pulling out the
// version and q parameters.
func parseAccept(accept string) []mediaTypeCandidate {
	var candidates []mediaTypeCandidate
	for _, part := range strings.Split(accept, ",") {
		mediaType, params := parseMediaType(part)
		format, ok := aliases[mediaType]
		if !ok {
			continue
		}

		quality := 1.0
		if q, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(q, 64); err == nil {
				quality = parsed
			}
		}

		candidates = append(candidates, mediaTypeCandidate{
			mediaType: mediaType,
			format:    format,
			version:   bom.SchemaVersion(params["version"]),
			quality:   quality,
		})
	}
	return candidates
}

// parseMediaType splits a single media-type entry ("type/subtype;
// param=value; ...") into the lowercased type/subtype and a
// case-insensitive-keyed parameter map. Parameter values retain their
// original case (the version parameter is case-sensitive).
func parseMediaType(entry string) (string, map[string]string) {
	fields := strings.Split(entry, ";")
	mediaType := strings.ToLower(strings.TrimSpace(fields[0]))

	params := make(map[string]string)
	for _, field := range fields[1:] {
		field = strings.TrimSpace(field)
		name, value, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		params[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return mediaType, params
}
