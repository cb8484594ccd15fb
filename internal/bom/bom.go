// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bom defines the canonical, schema-version-independent
// representation of a CycloneDX Bill of Materials. The codec package
// projects this model onto concrete wire formats (XML, JSON, Protobuf)
// at a concrete schema version; the store persists it abstractly,
// touching only SerialNumber and DocVersion.
package bom

import "time"

// SchemaVersion identifies a CycloneDX specification revision.
type SchemaVersion string

// Supported schema versions, oldest first. Order matters: Index
// relies on this being the canonical ascending sequence.
const (
	V1_0 SchemaVersion = "1.0"
	V1_1 SchemaVersion = "1.1"
	V1_2 SchemaVersion = "1.2"
	V1_3 SchemaVersion = "1.3"
	V1_4 SchemaVersion = "1.4"
)

// allVersions is the ascending order used by Index and Latest.
var allVersions = []SchemaVersion{V1_0, V1_1, V1_2, V1_3, V1_4}

// Index returns the ordinal position of v among the supported schema
// versions (0 for the oldest), or -1 if v is not a recognized version.
func (v SchemaVersion) Index() int {
	for i, candidate := range allVersions {
		if candidate == v {
			return i
		}
	}
	return -1
}

// Valid reports whether v is one of the five supported schema
// versions.
func (v SchemaVersion) Valid() bool {
	return v.Index() >= 0
}

// Before reports whether v precedes other in schema history.
func (v SchemaVersion) Before(other SchemaVersion) bool {
	return v.Index() < other.Index()
}

// Latest returns the newest supported schema version (1.4).
func Latest() SchemaVersion {
	return allVersions[len(allVersions)-1]
}

// AllVersions returns the supported schema versions in ascending
// order. Callers must not mutate the returned slice.
func AllVersions() []SchemaVersion {
	return allVersions
}

// ParseSchemaVersion validates and normalizes a version string such
// as "1.4". Returns an error if s is not one of the five supported
// versions.
func ParseSchemaVersion(s string) (SchemaVersion, error) {
	v := SchemaVersion(s)
	if !v.Valid() {
		return "", &InvalidSchemaVersionError{Value: s}
	}
	return v, nil
}

// InvalidSchemaVersionError reports a schema version string that does
// not name one of the five supported CycloneDX revisions.
type InvalidSchemaVersionError struct {
	Value string
}

func (e *InvalidSchemaVersionError) Error() string {
	return "bom: invalid schema version " + e.Value
}

// Format identifies a BOM wire serialization.
type Format string

const (
	FormatXML      Format = "xml"
	FormatJSON     Format = "json"
	FormatProtobuf Format = "protobuf"
)

// Extension returns the on-disk file extension the store uses for
// entries of this format (<root>/<escapedSerial>/<version>/bom.<ext>).
func (f Format) Extension() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatJSON:
		return "json"
	case FormatProtobuf:
		return "cdx"
	default:
		return ""
	}
}

// FormatFromExtension is the inverse of Extension, used by the store
// when it discovers an entry file on disk and needs to know how to
// decode it.
func FormatFromExtension(ext string) (Format, bool) {
	switch ext {
	case "xml":
		return FormatXML, true
	case "json":
		return FormatJSON, true
	case "cdx":
		return FormatProtobuf, true
	default:
		return "", false
	}
}

// BOM is the canonical, schema-version-independent in-memory
// representation of a CycloneDX document. Every codec decodes into
// this shape and every codec encodes from it; downgrade/upgrade
// between schema versions is a pure projection over these fields (see
// bomcodec.Downgrade).
type BOM struct {
	// SerialNumber is the document's stable identity, a
	// "urn:uuid:..." string. Required.
	SerialNumber string

	// DocVersion is the BOM's own "version" field, distinct from the
	// schema version. Defaults to 1 on first submission.
	DocVersion int

	// SourceSchemaVersion records which schema version this value was
	// decoded from (or, for a freshly constructed BOM, the version it
	// should be encoded at by default). The store persists this
	// alongside the entry so re-encoding can detect upgrade vs.
	// downgrade.
	SourceSchemaVersion SchemaVersion

	Metadata            *Metadata
	Components          []Component
	Dependencies        []Dependency
	ExternalReferences  []ExternalReference
	Services            []Service
	Compositions        []Composition
	Properties          []Property
	Vulnerabilities     []Vulnerability
}

// Metadata carries document-level provenance, introduced in schema
// 1.2 (see bomcodec.introducedAt).
type Metadata struct {
	Timestamp time.Time
	Component *Component
}

// Component describes a single inventoried piece of software,
// hardware, or other first-class CycloneDX component type.
type Component struct {
	Type        string
	BomRef      string
	Group       string
	Name        string
	Version     string
	Description string
	PackageURL  string
	Hashes      []Hash
	Licenses    []License

	// Properties is a 1.3+ feature; present on both top-level BOMs
	// and individual components.
	Properties []Property
}

// Hash is a named digest of a component's artifact.
type Hash struct {
	Algorithm string
	Value     string
}

// License identifies a component's license either by SPDX ID, free
// text name, or embedded license text.
type License struct {
	ID   string
	Name string
	Text string
}

// Dependency records that the component identified by Ref depends on
// the components listed in DependsOn. Introduced in schema 1.1.
type Dependency struct {
	Ref       string
	DependsOn []string
}

// ExternalReference points to supplementary information about the
// BOM or a component (VCS, issue tracker, website, …). Introduced in
// schema 1.1.
type ExternalReference struct {
	Type    string
	URL     string
	Comment string
}

// Service describes a network service the inventoried software
// exposes or consumes. Introduced in schema 1.2.
type Service struct {
	BomRef      string
	Name        string
	Description string
	Endpoints   []string
}

// Composition declares the completeness of a set of component or
// dependency assertions. Introduced in schema 1.3.
type Composition struct {
	Aggregate  string
	Assemblies []string
}

// Property is a free-form name/value extension point, usable at the
// top level or nested under a component. Introduced in schema 1.3.
type Property struct {
	Name  string
	Value string
}

// Vulnerability records a known vulnerability affecting one or more
// components. Introduced in schema 1.4.
type Vulnerability struct {
	ID          string
	Source      string
	Description string
	Ratings     []VulnerabilityRating
}

// VulnerabilityRating is a single scoring of a Vulnerability (e.g. a
// CVSS score from a particular source).
type VulnerabilityRating struct {
	Source   string
	Score    float64
	Severity string
}

// Clone returns a deep-enough copy of b suitable for downgrade
// projection: top-level slices are copied so that zeroing a field for
// a lower schema version never mutates the caller's BOM.
func (b *BOM) Clone() *BOM {
	if b == nil {
		return nil
	}
	clone := *b

	if b.Metadata != nil {
		metadata := *b.Metadata
		if b.Metadata.Component != nil {
			component := *b.Metadata.Component
			metadata.Component = &component
		}
		clone.Metadata = &metadata
	}

	clone.Components = append([]Component(nil), b.Components...)
	clone.Dependencies = append([]Dependency(nil), b.Dependencies...)
	clone.ExternalReferences = append([]ExternalReference(nil), b.ExternalReferences...)
	clone.Services = append([]Service(nil), b.Services...)
	clone.Compositions = append([]Composition(nil), b.Compositions...)
	clone.Properties = append([]Property(nil), b.Properties...)
	clone.Vulnerabilities = append([]Vulnerability(nil), b.Vulnerabilities...)
	return &clone
}
