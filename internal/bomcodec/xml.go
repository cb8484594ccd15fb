// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bomcodec

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/bomrepo/bom-repo-server/internal/bom"
)

// The XML wire types below mirror the structure of a CycloneDX XML
// document closely enough to round-trip the canonical model. A single
// struct set (rather than one variant per schema version) carries
// every field with `omitempty`; Encode always calls Downgrade before
// marshaling so elements the target schema doesn't carry are already
// absent from the value being marshaled. There is no third-party XML
// library suited to this generic document marshaling, so this uses
// the standard library's encoding/xml.

type xmlBOM struct {
	XMLName      xml.Name            `xml:"bom"`
	XMLNS        string              `xml:"xmlns,attr"`
	SerialNumber string              `xml:"serialNumber,attr"`
	Version      int                 `xml:"version,attr"`
	Metadata     *xmlMetadata        `xml:"metadata"`
	Components   *xmlComponents      `xml:"components"`
	Dependencies *xmlDependencies    `xml:"dependencies"`
	ExternalRefs *xmlExternalRefs    `xml:"externalReferences"`
	Services     *xmlServices        `xml:"services"`
	Compositions *xmlCompositions    `xml:"compositions"`
	Properties   *xmlProperties      `xml:"properties"`
	Vulns        *xmlVulnerabilities `xml:"vulnerabilities"`
}

type xmlMetadata struct {
	Timestamp string       `xml:"timestamp,omitempty"`
	Component *xmlComponent `xml:"component"`
}

type xmlComponents struct {
	Component []xmlComponent `xml:"component"`
}

type xmlComponent struct {
	Type        string          `xml:"type,attr"`
	BomRef      string          `xml:"bom-ref,attr,omitempty"`
	Group       string          `xml:"group,omitempty"`
	Name        string          `xml:"name,omitempty"`
	Version     string          `xml:"version,omitempty"`
	Description string          `xml:"description,omitempty"`
	PackageURL  string          `xml:"purl,omitempty"`
	Hashes      []xmlHash       `xml:"hashes>hash,omitempty"`
	Licenses    []xmlLicense    `xml:"licenses>license,omitempty"`
	Properties  *xmlProperties  `xml:"properties"`
}

type xmlHash struct {
	Algorithm string `xml:"alg,attr"`
	Value     string `xml:",chardata"`
}

type xmlLicense struct {
	ID   string `xml:"id,omitempty"`
	Name string `xml:"name,omitempty"`
	Text string `xml:"text,omitempty"`
}

type xmlDependencies struct {
	Dependency []xmlDependency `xml:"dependency"`
}

type xmlDependency struct {
	Ref       string           `xml:"ref,attr"`
	DependsOn []xmlDependsOnRef `xml:"dependency"`
}

type xmlDependsOnRef struct {
	Ref string `xml:"ref,attr"`
}

type xmlExternalRefs struct {
	Reference []xmlExternalRef `xml:"reference"`
}

type xmlExternalRef struct {
	Type    string `xml:"type,attr"`
	URL     string `xml:"url"`
	Comment string `xml:"comment,omitempty"`
}

type xmlServices struct {
	Service []xmlService `xml:"service"`
}

type xmlService struct {
	BomRef      string   `xml:"bom-ref,attr,omitempty"`
	Name        string   `xml:"name"`
	Description string   `xml:"description,omitempty"`
	Endpoints   []string `xml:"endpoints>endpoint,omitempty"`
}

type xmlCompositions struct {
	Composition []xmlComposition `xml:"composition"`
}

type xmlComposition struct {
	Aggregate string   `xml:"aggregate"`
	Assembly  []string `xml:"assemblies>assembly,omitempty"`
}

type xmlProperties struct {
	Property []xmlProperty `xml:"property"`
}

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlVulnerabilities struct {
	Vulnerability []xmlVulnerability `xml:"vulnerability"`
}

type xmlVulnerability struct {
	ID          string          `xml:"id,omitempty"`
	Source      string          `xml:"source>name,omitempty"`
	Description string          `xml:"description,omitempty"`
	Ratings     []xmlVulnRating `xml:"ratings>rating,omitempty"`
}

type xmlVulnRating struct {
	Source   string  `xml:"source>name,omitempty"`
	Score    float64 `xml:"score,omitempty"`
	Severity string  `xml:"severity,omitempty"`
}

func encodeXML(value *bom.BOM, schemaVersion bom.SchemaVersion) ([]byte, error) {
	doc := xmlBOM{
		XMLNS:        fmt.Sprintf("http://cyclonedx.org/schema/bom/%s", schemaVersion),
		SerialNumber: value.SerialNumber,
		Version:      nonZeroVersion(value.DocVersion),
	}

	if value.Metadata != nil {
		doc.Metadata = &xmlMetadata{
			Timestamp: formatTimestamp(value.Metadata.Timestamp),
			Component: toXMLComponentPtr(value.Metadata.Component),
		}
	}
	if len(value.Components) > 0 {
		doc.Components = &xmlComponents{Component: toXMLComponents(value.Components)}
	}
	if len(value.Dependencies) > 0 {
		deps := make([]xmlDependency, 0, len(value.Dependencies))
		for _, d := range value.Dependencies {
			refs := make([]xmlDependsOnRef, 0, len(d.DependsOn))
			for _, r := range d.DependsOn {
				refs = append(refs, xmlDependsOnRef{Ref: r})
			}
			deps = append(deps, xmlDependency{Ref: d.Ref, DependsOn: refs})
		}
		doc.Dependencies = &xmlDependencies{Dependency: deps}
	}
	if len(value.ExternalReferences) > 0 {
		refs := make([]xmlExternalRef, 0, len(value.ExternalReferences))
		for _, r := range value.ExternalReferences {
			refs = append(refs, xmlExternalRef{Type: r.Type, URL: r.URL, Comment: r.Comment})
		}
		doc.ExternalRefs = &xmlExternalRefs{Reference: refs}
	}
	if len(value.Services) > 0 {
		services := make([]xmlService, 0, len(value.Services))
		for _, s := range value.Services {
			services = append(services, xmlService{
				BomRef: s.BomRef, Name: s.Name, Description: s.Description, Endpoints: s.Endpoints,
			})
		}
		doc.Services = &xmlServices{Service: services}
	}
	if len(value.Compositions) > 0 {
		compositions := make([]xmlComposition, 0, len(value.Compositions))
		for _, c := range value.Compositions {
			compositions = append(compositions, xmlComposition{Aggregate: c.Aggregate, Assembly: c.Assemblies})
		}
		doc.Compositions = &xmlCompositions{Composition: compositions}
	}
	if len(value.Properties) > 0 {
		doc.Properties = toXMLPropertiesPtr(value.Properties)
	}
	if len(value.Vulnerabilities) > 0 {
		vulns := make([]xmlVulnerability, 0, len(value.Vulnerabilities))
		for _, v := range value.Vulnerabilities {
			ratings := make([]xmlVulnRating, 0, len(v.Ratings))
			for _, r := range v.Ratings {
				ratings = append(ratings, xmlVulnRating{Source: r.Source, Score: r.Score, Severity: r.Severity})
			}
			vulns = append(vulns, xmlVulnerability{ID: v.ID, Source: v.Source, Description: v.Description, Ratings: ratings})
		}
		doc.Vulns = &xmlVulnerabilities{Vulnerability: vulns}
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling xml: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

func decodeXML(data []byte, schemaVersion bom.SchemaVersion) (*bom.BOM, error) {
	var doc xmlBOM
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling xml: %w", err)
	}

	value := &bom.BOM{
		SerialNumber: doc.SerialNumber,
		DocVersion:   nonZeroVersion(doc.Version),
	}

	if doc.Metadata != nil {
		value.Metadata = &bom.Metadata{
			Timestamp: parseTimestamp(doc.Metadata.Timestamp),
			Component: fromXMLComponentPtr(doc.Metadata.Component),
		}
	}
	if doc.Components != nil {
		value.Components = fromXMLComponents(doc.Components.Component)
	}
	if doc.Dependencies != nil {
		for _, d := range doc.Dependencies.Dependency {
			var dependsOn []string
			for _, r := range d.DependsOn {
				dependsOn = append(dependsOn, r.Ref)
			}
			value.Dependencies = append(value.Dependencies, bom.Dependency{Ref: d.Ref, DependsOn: dependsOn})
		}
	}
	if doc.ExternalRefs != nil {
		for _, r := range doc.ExternalRefs.Reference {
			value.ExternalReferences = append(value.ExternalReferences, bom.ExternalReference{
				Type: r.Type, URL: r.URL, Comment: r.Comment,
			})
		}
	}
	if doc.Services != nil {
		for _, s := range doc.Services.Service {
			value.Services = append(value.Services, bom.Service{
				BomRef: s.BomRef, Name: s.Name, Description: s.Description, Endpoints: s.Endpoints,
			})
		}
	}
	if doc.Compositions != nil {
		for _, c := range doc.Compositions.Composition {
			value.Compositions = append(value.Compositions, bom.Composition{Aggregate: c.Aggregate, Assemblies: c.Assembly})
		}
	}
	if doc.Properties != nil {
		value.Properties = fromXMLProperties(doc.Properties.Property)
	}
	if doc.Vulns != nil {
		for _, v := range doc.Vulns.Vulnerability {
			var ratings []bom.VulnerabilityRating
			for _, r := range v.Ratings {
				ratings = append(ratings, bom.VulnerabilityRating{Source: r.Source, Score: r.Score, Severity: r.Severity})
			}
			value.Vulnerabilities = append(value.Vulnerabilities, bom.Vulnerability{
				ID: v.ID, Source: v.Source, Description: v.Description, Ratings: ratings,
			})
		}
	}

	return value, nil
}

func toXMLComponents(components []bom.Component) []xmlComponent {
	out := make([]xmlComponent, 0, len(components))
	for _, c := range components {
		out = append(out, *toXMLComponentPtr(&c))
	}
	return out
}

func toXMLComponentPtr(c *bom.Component) *xmlComponent {
	if c == nil {
		return nil
	}
	var hashes []xmlHash
	for _, h := range c.Hashes {
		hashes = append(hashes, xmlHash{Algorithm: h.Algorithm, Value: h.Value})
	}
	var licenses []xmlLicense
	for _, l := range c.Licenses {
		licenses = append(licenses, xmlLicense{ID: l.ID, Name: l.Name, Text: l.Text})
	}
	return &xmlComponent{
		Type: c.Type, BomRef: c.BomRef, Group: c.Group, Name: c.Name, Version: c.Version,
		Description: c.Description, PackageURL: c.PackageURL, Hashes: hashes, Licenses: licenses,
		Properties: toXMLPropertiesPtr(c.Properties),
	}
}

func toXMLPropertiesPtr(properties []bom.Property) *xmlProperties {
	if len(properties) == 0 {
		return nil
	}
	out := make([]xmlProperty, 0, len(properties))
	for _, p := range properties {
		out = append(out, xmlProperty{Name: p.Name, Value: p.Value})
	}
	return &xmlProperties{Property: out}
}

func fromXMLComponents(components []xmlComponent) []bom.Component {
	out := make([]bom.Component, 0, len(components))
	for _, c := range components {
		out = append(out, *fromXMLComponentPtr(&c))
	}
	return out
}

func fromXMLComponentPtr(c *xmlComponent) *bom.Component {
	if c == nil {
		return nil
	}
	var hashes []bom.Hash
	for _, h := range c.Hashes {
		hashes = append(hashes, bom.Hash{Algorithm: h.Algorithm, Value: h.Value})
	}
	var licenses []bom.License
	for _, l := range c.Licenses {
		licenses = append(licenses, bom.License{ID: l.ID, Name: l.Name, Text: l.Text})
	}
	var properties []bom.Property
	if c.Properties != nil {
		properties = fromXMLProperties(c.Properties.Property)
	}
	return &bom.Component{
		Type: c.Type, BomRef: c.BomRef, Group: c.Group, Name: c.Name, Version: c.Version,
		Description: c.Description, PackageURL: c.PackageURL, Hashes: hashes, Licenses: licenses,
		Properties: properties,
	}
}

func fromXMLProperties(properties []xmlProperty) []bom.Property {
	out := make([]bom.Property, 0, len(properties))
	for _, p := range properties {
		out = append(out, bom.Property{Name: p.Name, Value: p.Value})
	}
	return out
}

func nonZeroVersion(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
