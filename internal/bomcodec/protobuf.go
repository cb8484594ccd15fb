// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bomcodec

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bomrepo/bom-repo-server/internal/bom"
)

// The protobuf codec is hand-rolled against protowire rather than
// generated by protoc (no generator is run in this tree), so field
// numbers below are chosen to approximate CycloneDX's published
// bom.proto rather than compiled from it. Only schema 1.3 and 1.4 are
// supported; downgrading onto protobuf below 1.3 is left undefined,
// since no supported cell exists for it.
const (
	fieldSerialNumber = 1
	fieldVersion      = 2
	fieldMetadata     = 3
	fieldComponents   = 4
	fieldDependencies = 5
	fieldExternalRefs = 6
	fieldServices      = 7
	fieldCompositions  = 8
	fieldProperties    = 9
	fieldVulnerabilities = 10

	metaFieldTimestamp = 1
	metaFieldComponent = 2

	componentFieldType        = 1
	componentFieldBomRef      = 2
	componentFieldGroup       = 3
	componentFieldName        = 4
	componentFieldVersion     = 5
	componentFieldDescription = 6
	componentFieldPackageURL  = 7
	componentFieldHashes      = 8
	componentFieldLicenses    = 9
	componentFieldProperties  = 10

	hashFieldAlgorithm = 1
	hashFieldValue     = 2

	licenseFieldID   = 1
	licenseFieldName = 2
	licenseFieldText = 3

	dependencyFieldRef       = 1
	dependencyFieldDependsOn = 2

	externalRefFieldType    = 1
	externalRefFieldURL     = 2
	externalRefFieldComment = 3

	serviceFieldBomRef      = 1
	serviceFieldName        = 2
	serviceFieldDescription = 3
	serviceFieldEndpoints   = 4

	compositionFieldAggregate  = 1
	compositionFieldAssemblies = 2

	propertyFieldName  = 1
	propertyFieldValue = 2

	vulnFieldID          = 1
	vulnFieldSource      = 2
	vulnFieldDescription = 3
	vulnFieldRatings     = 4

	ratingFieldSource   = 1
	ratingFieldScore    = 2
	ratingFieldSeverity = 3
)

func encodeProtobuf(value *bom.BOM, schemaVersion bom.SchemaVersion) ([]byte, error) {
	var out []byte
	out = protowire.AppendTag(out, fieldSerialNumber, protowire.BytesType)
	out = protowire.AppendString(out, value.SerialNumber)
	out = protowire.AppendTag(out, fieldVersion, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(nonZeroVersion(value.DocVersion)))

	if value.Metadata != nil {
		out = protowire.AppendTag(out, fieldMetadata, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeMetadataPB(value.Metadata))
	}
	for _, c := range value.Components {
		out = protowire.AppendTag(out, fieldComponents, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeComponentPB(&c))
	}
	for _, d := range value.Dependencies {
		out = protowire.AppendTag(out, fieldDependencies, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeDependencyPB(&d))
	}
	for _, r := range value.ExternalReferences {
		out = protowire.AppendTag(out, fieldExternalRefs, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeExternalRefPB(&r))
	}
	for _, s := range value.Services {
		out = protowire.AppendTag(out, fieldServices, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeServicePB(&s))
	}
	for _, c := range value.Compositions {
		out = protowire.AppendTag(out, fieldCompositions, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeCompositionPB(&c))
	}
	for _, p := range value.Properties {
		out = protowire.AppendTag(out, fieldProperties, protowire.BytesType)
		out = protowire.AppendBytes(out, encodePropertyPB(&p))
	}
	for _, v := range value.Vulnerabilities {
		out = protowire.AppendTag(out, fieldVulnerabilities, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeVulnerabilityPB(&v))
	}

	return out, nil
}

func decodeProtobuf(data []byte, schemaVersion bom.SchemaVersion) (*bom.BOM, error) {
	value := &bom.BOM{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldSerialNumber:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			value.SerialNumber = s
			data = data[nn:]
		case fieldVersion:
			v, nn, err := consumeVarint(data, typ)
			if err != nil {
				return nil, err
			}
			value.DocVersion = int(v)
			data = data[nn:]
		case fieldMetadata:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			metadata, err := decodeMetadataPB(b)
			if err != nil {
				return nil, err
			}
			value.Metadata = metadata
			data = data[nn:]
		case fieldComponents:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			component, err := decodeComponentPB(b)
			if err != nil {
				return nil, err
			}
			value.Components = append(value.Components, *component)
			data = data[nn:]
		case fieldDependencies:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			dependency, err := decodeDependencyPB(b)
			if err != nil {
				return nil, err
			}
			value.Dependencies = append(value.Dependencies, *dependency)
			data = data[nn:]
		case fieldExternalRefs:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			ref, err := decodeExternalRefPB(b)
			if err != nil {
				return nil, err
			}
			value.ExternalReferences = append(value.ExternalReferences, *ref)
			data = data[nn:]
		case fieldServices:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			service, err := decodeServicePB(b)
			if err != nil {
				return nil, err
			}
			value.Services = append(value.Services, *service)
			data = data[nn:]
		case fieldCompositions:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			composition, err := decodeCompositionPB(b)
			if err != nil {
				return nil, err
			}
			value.Compositions = append(value.Compositions, *composition)
			data = data[nn:]
		case fieldProperties:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			property, err := decodePropertyPB(b)
			if err != nil {
				return nil, err
			}
			value.Properties = append(value.Properties, *property)
			data = data[nn:]
		case fieldVulnerabilities:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			vuln, err := decodeVulnerabilityPB(b)
			if err != nil {
				return nil, err
			}
			value.Vulnerabilities = append(value.Vulnerabilities, *vuln)
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}

	return value, nil
}

func encodeMetadataPB(m *bom.Metadata) []byte {
	var out []byte
	if !m.Timestamp.IsZero() {
		out = protowire.AppendTag(out, metaFieldTimestamp, protowire.BytesType)
		out = protowire.AppendString(out, formatTimestamp(m.Timestamp))
	}
	if m.Component != nil {
		out = protowire.AppendTag(out, metaFieldComponent, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeComponentPB(m.Component))
	}
	return out
}

func decodeMetadataPB(data []byte) (*bom.Metadata, error) {
	metadata := &bom.Metadata{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming metadata tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case metaFieldTimestamp:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			metadata.Timestamp = parseTimestamp(s)
			data = data[nn:]
		case metaFieldComponent:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			component, err := decodeComponentPB(b)
			if err != nil {
				return nil, err
			}
			metadata.Component = component
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown metadata field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}
	return metadata, nil
}

func encodeComponentPB(c *bom.Component) []byte {
	var out []byte
	out = appendStringField(out, componentFieldType, c.Type)
	out = appendStringField(out, componentFieldBomRef, c.BomRef)
	out = appendStringField(out, componentFieldGroup, c.Group)
	out = appendStringField(out, componentFieldName, c.Name)
	out = appendStringField(out, componentFieldVersion, c.Version)
	out = appendStringField(out, componentFieldDescription, c.Description)
	out = appendStringField(out, componentFieldPackageURL, c.PackageURL)
	for _, h := range c.Hashes {
		out = protowire.AppendTag(out, componentFieldHashes, protowire.BytesType)
		var hashBytes []byte
		hashBytes = appendStringField(hashBytes, hashFieldAlgorithm, h.Algorithm)
		hashBytes = appendStringField(hashBytes, hashFieldValue, h.Value)
		out = protowire.AppendBytes(out, hashBytes)
	}
	for _, l := range c.Licenses {
		out = protowire.AppendTag(out, componentFieldLicenses, protowire.BytesType)
		var licenseBytes []byte
		licenseBytes = appendStringField(licenseBytes, licenseFieldID, l.ID)
		licenseBytes = appendStringField(licenseBytes, licenseFieldName, l.Name)
		licenseBytes = appendStringField(licenseBytes, licenseFieldText, l.Text)
		out = protowire.AppendBytes(out, licenseBytes)
	}
	for _, p := range c.Properties {
		out = protowire.AppendTag(out, componentFieldProperties, protowire.BytesType)
		out = protowire.AppendBytes(out, encodePropertyPB(&p))
	}
	return out
}

func decodeComponentPB(data []byte) (*bom.Component, error) {
	component := &bom.Component{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming component tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case componentFieldType:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			component.Type = s
			data = data[nn:]
		case componentFieldBomRef:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			component.BomRef = s
			data = data[nn:]
		case componentFieldGroup:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			component.Group = s
			data = data[nn:]
		case componentFieldName:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			component.Name = s
			data = data[nn:]
		case componentFieldVersion:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			component.Version = s
			data = data[nn:]
		case componentFieldDescription:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			component.Description = s
			data = data[nn:]
		case componentFieldPackageURL:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			component.PackageURL = s
			data = data[nn:]
		case componentFieldHashes:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			hash, err := decodeHashPB(b)
			if err != nil {
				return nil, err
			}
			component.Hashes = append(component.Hashes, *hash)
			data = data[nn:]
		case componentFieldLicenses:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			license, err := decodeLicensePB(b)
			if err != nil {
				return nil, err
			}
			component.Licenses = append(component.Licenses, *license)
			data = data[nn:]
		case componentFieldProperties:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			property, err := decodePropertyPB(b)
			if err != nil {
				return nil, err
			}
			component.Properties = append(component.Properties, *property)
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown component field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}
	return component, nil
}

func decodeHashPB(data []byte) (*bom.Hash, error) {
	hash := &bom.Hash{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming hash tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case hashFieldAlgorithm:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			hash.Algorithm = s
			data = data[nn:]
		case hashFieldValue:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			hash.Value = s
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown hash field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}
	return hash, nil
}

func decodeLicensePB(data []byte) (*bom.License, error) {
	license := &bom.License{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming license tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case licenseFieldID:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			license.ID = s
			data = data[nn:]
		case licenseFieldName:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			license.Name = s
			data = data[nn:]
		case licenseFieldText:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			license.Text = s
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown license field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}
	return license, nil
}

func encodeDependencyPB(d *bom.Dependency) []byte {
	var out []byte
	out = appendStringField(out, dependencyFieldRef, d.Ref)
	for _, r := range d.DependsOn {
		out = protowire.AppendTag(out, dependencyFieldDependsOn, protowire.BytesType)
		out = protowire.AppendString(out, r)
	}
	return out
}

func decodeDependencyPB(data []byte) (*bom.Dependency, error) {
	dependency := &bom.Dependency{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming dependency tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case dependencyFieldRef:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			dependency.Ref = s
			data = data[nn:]
		case dependencyFieldDependsOn:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			dependency.DependsOn = append(dependency.DependsOn, s)
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown dependency field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}
	return dependency, nil
}

func encodeExternalRefPB(r *bom.ExternalReference) []byte {
	var out []byte
	out = appendStringField(out, externalRefFieldType, r.Type)
	out = appendStringField(out, externalRefFieldURL, r.URL)
	out = appendStringField(out, externalRefFieldComment, r.Comment)
	return out
}

func decodeExternalRefPB(data []byte) (*bom.ExternalReference, error) {
	ref := &bom.ExternalReference{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming external reference tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case externalRefFieldType:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			ref.Type = s
			data = data[nn:]
		case externalRefFieldURL:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			ref.URL = s
			data = data[nn:]
		case externalRefFieldComment:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			ref.Comment = s
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown external reference field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}
	return ref, nil
}

func encodeServicePB(s *bom.Service) []byte {
	var out []byte
	out = appendStringField(out, serviceFieldBomRef, s.BomRef)
	out = appendStringField(out, serviceFieldName, s.Name)
	out = appendStringField(out, serviceFieldDescription, s.Description)
	for _, e := range s.Endpoints {
		out = protowire.AppendTag(out, serviceFieldEndpoints, protowire.BytesType)
		out = protowire.AppendString(out, e)
	}
	return out
}

func decodeServicePB(data []byte) (*bom.Service, error) {
	service := &bom.Service{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming service tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case serviceFieldBomRef:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			service.BomRef = s
			data = data[nn:]
		case serviceFieldName:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			service.Name = s
			data = data[nn:]
		case serviceFieldDescription:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			service.Description = s
			data = data[nn:]
		case serviceFieldEndpoints:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			service.Endpoints = append(service.Endpoints, s)
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown service field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}
	return service, nil
}

func encodeCompositionPB(c *bom.Composition) []byte {
	var out []byte
	out = appendStringField(out, compositionFieldAggregate, c.Aggregate)
	for _, a := range c.Assemblies {
		out = protowire.AppendTag(out, compositionFieldAssemblies, protowire.BytesType)
		out = protowire.AppendString(out, a)
	}
	return out
}

func decodeCompositionPB(data []byte) (*bom.Composition, error) {
	composition := &bom.Composition{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming composition tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case compositionFieldAggregate:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			composition.Aggregate = s
			data = data[nn:]
		case compositionFieldAssemblies:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			composition.Assemblies = append(composition.Assemblies, s)
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown composition field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}
	return composition, nil
}

func encodePropertyPB(p *bom.Property) []byte {
	var out []byte
	out = appendStringField(out, propertyFieldName, p.Name)
	out = appendStringField(out, propertyFieldValue, p.Value)
	return out
}

func decodePropertyPB(data []byte) (*bom.Property, error) {
	property := &bom.Property{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming property tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case propertyFieldName:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			property.Name = s
			data = data[nn:]
		case propertyFieldValue:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			property.Value = s
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown property field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}
	return property, nil
}

func encodeVulnerabilityPB(v *bom.Vulnerability) []byte {
	var out []byte
	out = appendStringField(out, vulnFieldID, v.ID)
	out = appendStringField(out, vulnFieldSource, v.Source)
	out = appendStringField(out, vulnFieldDescription, v.Description)
	for _, r := range v.Ratings {
		out = protowire.AppendTag(out, vulnFieldRatings, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeRatingPB(&r))
	}
	return out
}

func decodeVulnerabilityPB(data []byte) (*bom.Vulnerability, error) {
	vuln := &bom.Vulnerability{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming vulnerability tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case vulnFieldID:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			vuln.ID = s
			data = data[nn:]
		case vulnFieldSource:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			vuln.Source = s
			data = data[nn:]
		case vulnFieldDescription:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			vuln.Description = s
			data = data[nn:]
		case vulnFieldRatings:
			b, nn, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			rating, err := decodeRatingPB(b)
			if err != nil {
				return nil, err
			}
			vuln.Ratings = append(vuln.Ratings, *rating)
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown vulnerability field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}
	return vuln, nil
}

func encodeRatingPB(r *bom.VulnerabilityRating) []byte {
	var out []byte
	out = appendStringField(out, ratingFieldSource, r.Source)
	if r.Score != 0 {
		out = protowire.AppendTag(out, ratingFieldScore, protowire.Fixed64Type)
		out = protowire.AppendFixed64(out, math.Float64bits(r.Score))
	}
	out = appendStringField(out, ratingFieldSeverity, r.Severity)
	return out
}

func decodeRatingPB(data []byte) (*bom.VulnerabilityRating, error) {
	rating := &bom.VulnerabilityRating{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("consuming rating tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case ratingFieldSource:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			rating.Source = s
			data = data[nn:]
		case ratingFieldScore:
			v, nn, err := consumeFixed64(data, typ)
			if err != nil {
				return nil, err
			}
			rating.Score = math.Float64frombits(v)
			data = data[nn:]
		case ratingFieldSeverity:
			s, nn, err := consumeString(data, typ)
			if err != nil {
				return nil, err
			}
			rating.Severity = s
			data = data[nn:]
		default:
			nn := protowire.ConsumeFieldValue(num, typ, data)
			if nn < 0 {
				return nil, fmt.Errorf("skipping unknown rating field %d: %w", num, protowire.ParseError(nn))
			}
			data = data[nn:]
		}
	}
	return rating, nil
}

func appendStringField(out []byte, field protowire.Number, value string) []byte {
	if value == "" {
		return out
	}
	out = protowire.AppendTag(out, field, protowire.BytesType)
	return protowire.AppendString(out, value)
}

func consumeString(data []byte, typ protowire.Type) (string, int, error) {
	if typ != protowire.BytesType {
		return "", 0, fmt.Errorf("expected bytes-typed field, got %v", typ)
	}
	v, n := protowire.ConsumeString(data)
	if n < 0 {
		return "", 0, fmt.Errorf("consuming string: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeBytes(data []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("expected bytes-typed field, got %v", typ)
	}
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, fmt.Errorf("consuming bytes: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeVarint(data []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("expected varint-typed field, got %v", typ)
	}
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, 0, fmt.Errorf("consuming varint: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeFixed64(data []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.Fixed64Type {
		return 0, 0, fmt.Errorf("expected fixed64-typed field, got %v", typ)
	}
	v, n := protowire.ConsumeFixed64(data)
	if n < 0 {
		return 0, 0, fmt.Errorf("consuming fixed64: %w", protowire.ParseError(n))
	}
	return v, n, nil
}
