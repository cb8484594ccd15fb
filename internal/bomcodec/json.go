// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bomcodec

import (
	"encoding/json"
	"fmt"

	"github.com/bomrepo/bom-repo-server/internal/bom"
)

// jsonBOM mirrors the structure of a CycloneDX JSON document. As with
// the XML wire type, a single struct carries every field with
// `omitempty`, relying on Encode's call to Downgrade to have already
// cleared whatever the target schema version doesn't carry.
type jsonBOM struct {
	BomFormat    string             `json:"bomFormat"`
	SpecVersion  string             `json:"specVersion"`
	SerialNumber string             `json:"serialNumber"`
	Version      int                `json:"version"`
	Metadata     *jsonMetadata      `json:"metadata,omitempty"`
	Components   []jsonComponent    `json:"components,omitempty"`
	Dependencies []jsonDependency   `json:"dependencies,omitempty"`
	ExternalRefs []jsonExternalRef  `json:"externalReferences,omitempty"`
	Services     []jsonService      `json:"services,omitempty"`
	Compositions []jsonComposition  `json:"compositions,omitempty"`
	Properties   []jsonProperty     `json:"properties,omitempty"`
	Vulns        []jsonVulnerability `json:"vulnerabilities,omitempty"`
}

type jsonMetadata struct {
	Timestamp string         `json:"timestamp,omitempty"`
	Component *jsonComponent `json:"component,omitempty"`
}

type jsonComponent struct {
	Type        string         `json:"type"`
	BomRef      string         `json:"bom-ref,omitempty"`
	Group       string         `json:"group,omitempty"`
	Name        string         `json:"name,omitempty"`
	Version     string         `json:"version,omitempty"`
	Description string         `json:"description,omitempty"`
	PackageURL  string         `json:"purl,omitempty"`
	Hashes      []jsonHash     `json:"hashes,omitempty"`
	Licenses    []jsonLicense  `json:"licenses,omitempty"`
	Properties  []jsonProperty `json:"properties,omitempty"`
}

type jsonHash struct {
	Algorithm string `json:"alg"`
	Content   string `json:"content"`
}

type jsonLicense struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Text string `json:"text,omitempty"`
}

type jsonDependency struct {
	Ref       string   `json:"ref"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

type jsonExternalRef struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Comment string `json:"comment,omitempty"`
}

type jsonService struct {
	BomRef      string   `json:"bom-ref,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Endpoints   []string `json:"endpoints,omitempty"`
}

type jsonComposition struct {
	Aggregate  string   `json:"aggregate"`
	Assemblies []string `json:"assemblies,omitempty"`
}

type jsonProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type jsonVulnerability struct {
	ID          string              `json:"id,omitempty"`
	Source      *jsonVulnSource     `json:"source,omitempty"`
	Description string              `json:"description,omitempty"`
	Ratings     []jsonVulnRating    `json:"ratings,omitempty"`
}

type jsonVulnSource struct {
	Name string `json:"name,omitempty"`
}

type jsonVulnRating struct {
	Source   *jsonVulnSource `json:"source,omitempty"`
	Score    float64         `json:"score,omitempty"`
	Severity string          `json:"severity,omitempty"`
}

func encodeJSON(value *bom.BOM, schemaVersion bom.SchemaVersion) ([]byte, error) {
	doc := jsonBOM{
		BomFormat:    "CycloneDX",
		SpecVersion:  string(schemaVersion),
		SerialNumber: value.SerialNumber,
		Version:      nonZeroVersion(value.DocVersion),
	}

	if value.Metadata != nil {
		doc.Metadata = &jsonMetadata{
			Timestamp: formatTimestamp(value.Metadata.Timestamp),
			Component: toJSONComponentPtr(value.Metadata.Component),
		}
	}
	for _, c := range value.Components {
		doc.Components = append(doc.Components, *toJSONComponentPtr(&c))
	}
	for _, d := range value.Dependencies {
		doc.Dependencies = append(doc.Dependencies, jsonDependency{Ref: d.Ref, DependsOn: d.DependsOn})
	}
	for _, r := range value.ExternalReferences {
		doc.ExternalRefs = append(doc.ExternalRefs, jsonExternalRef{Type: r.Type, URL: r.URL, Comment: r.Comment})
	}
	for _, s := range value.Services {
		doc.Services = append(doc.Services, jsonService{
			BomRef: s.BomRef, Name: s.Name, Description: s.Description, Endpoints: s.Endpoints,
		})
	}
	for _, c := range value.Compositions {
		doc.Compositions = append(doc.Compositions, jsonComposition{Aggregate: c.Aggregate, Assemblies: c.Assemblies})
	}
	for _, p := range value.Properties {
		doc.Properties = append(doc.Properties, jsonProperty{Name: p.Name, Value: p.Value})
	}
	for _, v := range value.Vulnerabilities {
		vuln := jsonVulnerability{ID: v.ID, Description: v.Description}
		if v.Source != "" {
			vuln.Source = &jsonVulnSource{Name: v.Source}
		}
		for _, r := range v.Ratings {
			rating := jsonVulnRating{Score: r.Score, Severity: r.Severity}
			if r.Source != "" {
				rating.Source = &jsonVulnSource{Name: r.Source}
			}
			vuln.Ratings = append(vuln.Ratings, rating)
		}
		doc.Vulns = append(doc.Vulns, vuln)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling json: %w", err)
	}
	return data, nil
}

func decodeJSON(data []byte, schemaVersion bom.SchemaVersion) (*bom.BOM, error) {
	var doc jsonBOM
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	value := &bom.BOM{
		SerialNumber: doc.SerialNumber,
		DocVersion:   nonZeroVersion(doc.Version),
	}

	if doc.Metadata != nil {
		value.Metadata = &bom.Metadata{
			Timestamp: parseTimestamp(doc.Metadata.Timestamp),
			Component: fromJSONComponentPtr(doc.Metadata.Component),
		}
	}
	for _, c := range doc.Components {
		value.Components = append(value.Components, *fromJSONComponentPtr(&c))
	}
	for _, d := range doc.Dependencies {
		value.Dependencies = append(value.Dependencies, bom.Dependency{Ref: d.Ref, DependsOn: d.DependsOn})
	}
	for _, r := range doc.ExternalRefs {
		value.ExternalReferences = append(value.ExternalReferences, bom.ExternalReference{Type: r.Type, URL: r.URL, Comment: r.Comment})
	}
	for _, s := range doc.Services {
		value.Services = append(value.Services, bom.Service{
			BomRef: s.BomRef, Name: s.Name, Description: s.Description, Endpoints: s.Endpoints,
		})
	}
	for _, c := range doc.Compositions {
		value.Compositions = append(value.Compositions, bom.Composition{Aggregate: c.Aggregate, Assemblies: c.Assemblies})
	}
	for _, p := range doc.Properties {
		value.Properties = append(value.Properties, bom.Property{Name: p.Name, Value: p.Value})
	}
	for _, v := range doc.Vulns {
		vuln := bom.Vulnerability{ID: v.ID, Description: v.Description}
		if v.Source != nil {
			vuln.Source = v.Source.Name
		}
		for _, r := range v.Ratings {
			rating := bom.VulnerabilityRating{Score: r.Score, Severity: r.Severity}
			if r.Source != nil {
				rating.Source = r.Source.Name
			}
			vuln.Ratings = append(vuln.Ratings, rating)
		}
		value.Vulnerabilities = append(value.Vulnerabilities, vuln)
	}

	return value, nil
}

func toJSONComponentPtr(c *bom.Component) *jsonComponent {
	if c == nil {
		return nil
	}
	var hashes []jsonHash
	for _, h := range c.Hashes {
		hashes = append(hashes, jsonHash{Algorithm: h.Algorithm, Content: h.Value})
	}
	var licenses []jsonLicense
	for _, l := range c.Licenses {
		licenses = append(licenses, jsonLicense{ID: l.ID, Name: l.Name, Text: l.Text})
	}
	var properties []jsonProperty
	for _, p := range c.Properties {
		properties = append(properties, jsonProperty{Name: p.Name, Value: p.Value})
	}
	return &jsonComponent{
		Type: c.Type, BomRef: c.BomRef, Group: c.Group, Name: c.Name, Version: c.Version,
		Description: c.Description, PackageURL: c.PackageURL, Hashes: hashes, Licenses: licenses,
		Properties: properties,
	}
}

func fromJSONComponentPtr(c *jsonComponent) *bom.Component {
	if c == nil {
		return nil
	}
	var hashes []bom.Hash
	for _, h := range c.Hashes {
		hashes = append(hashes, bom.Hash{Algorithm: h.Algorithm, Value: h.Content})
	}
	var licenses []bom.License
	for _, l := range c.Licenses {
		licenses = append(licenses, bom.License{ID: l.ID, Name: l.Name, Text: l.Text})
	}
	var properties []bom.Property
	for _, p := range c.Properties {
		properties = append(properties, bom.Property{Name: p.Name, Value: p.Value})
	}
	return &bom.Component{
		Type: c.Type, BomRef: c.BomRef, Group: c.Group, Name: c.Name, Version: c.Version,
		Description: c.Description, PackageURL: c.PackageURL, Hashes: hashes, Licenses: licenses,
		Properties: properties,
	}
}
