// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bomcodec

import "github.com/bomrepo/bom-repo-server/internal/bom"

// introducedAt records the schema version each optional top-level BOM
// feature first appeared in. Fields with no entry here (Components,
// SerialNumber, DocVersion) are available at every supported version.
var introducedAt = map[string]bom.SchemaVersion{
	"dependencies":       bom.V1_1,
	"externalReferences": bom.V1_1,
	"metadata":           bom.V1_2,
	"services":           bom.V1_2,
	"compositions":       bom.V1_3,
	"properties":         bom.V1_3,
	"vulnerabilities":    bom.V1_4,
}

// Downgrade returns a copy of value projected onto target: fields
// introduced after target are dropped (zeroed), fields available at
// or before target are preserved unchanged. Upgrading (target newer
// than value's own schema) is a no-op projection — nothing is
// fabricated, missing newer fields are simply absent, which is
// already the case for an unprojected value.
//
// This is a pure function over the canonical model, independent of
// any wire format: a projection that is purely functional and
// testable in isolation.
func Downgrade(value *bom.BOM, target bom.SchemaVersion) *bom.BOM {
	projected := value.Clone()
	if projected == nil {
		return nil
	}

	if target.Before(introducedAt["metadata"]) {
		projected.Metadata = nil
	}
	if target.Before(introducedAt["dependencies"]) {
		projected.Dependencies = nil
	}
	if target.Before(introducedAt["externalReferences"]) {
		projected.ExternalReferences = nil
	}
	if target.Before(introducedAt["services"]) {
		projected.Services = nil
	}
	if target.Before(introducedAt["compositions"]) {
		projected.Compositions = nil
	}
	if target.Before(introducedAt["properties"]) {
		projected.Properties = nil
		for i := range projected.Components {
			projected.Components[i].Properties = nil
		}
	}
	if target.Before(introducedAt["vulnerabilities"]) {
		projected.Vulnerabilities = nil
	}

	return projected
}
