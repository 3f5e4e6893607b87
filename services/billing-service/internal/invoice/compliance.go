package invoice

import (
	"encoding/json"
	"strings"
)

// Disclosure sources
const (
	SourceRulePack = "rule-pack"
	SourceFallback = "fallback"
)

const defaultRegion = "DEFAULT"

var fallbackNotes = map[string]string{
	"US-CA": "California disclosure: Includes CPUC-approved tariffs, net-metering adjustments, and solar generation credits. Review Title 20 §1605 reports for detail.",
	"US-NY": "New York disclosure: Delivery and supply charges reflect NYPSC regulations. Community solar credits applied per NYSERDA guidance.",
	"UK":    "UK disclosure: Statement complies with Ofgem supply licence condition 21B. Displayed amounts include VAT and EED transparency metrics.",
	"EU":    "EU disclosure: Energy usage breakdown provided to meet EU Energy Efficiency Directive Article 9 obligations.",

	defaultRegion: "Invoice includes regulated delivery charges, energy supply, and applicable taxes. Contact support for region-specific compliance details.",
}

// FallbackNote returns the curated disclosure for an uppercased region code,
// or the DEFAULT text when the region is unknown or empty
func FallbackNote(region string) string {
	if note, ok := fallbackNotes[region]; ok {
		return note
	}
	return fallbackNotes[defaultRegion]
}

// MetadataKind tags how rule pack metadata was decoded
type MetadataKind int

const (
	// MetadataUnstructured is absent, null, an array, a scalar or invalid JSON
	MetadataUnstructured MetadataKind = iota
	// MetadataStructured is a JSON object
	MetadataStructured
)

// Metadata is rule pack metadata decoded once when the row is loaded
type Metadata struct {
	Kind   MetadataKind
	Fields map[string]json.RawMessage
}

// DecodeMetadata classifies raw rule pack metadata
func DecodeMetadata(raw []byte) Metadata {
	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil || fields == nil {
		return Metadata{Kind: MetadataUnstructured}
	}
	return Metadata{Kind: MetadataStructured, Fields: fields}
}

// Disclosure returns the string "disclosure" field of structured metadata
func (m Metadata) Disclosure() (string, bool) {
	if m.Kind != MetadataStructured {
		return "", false
	}
	raw, ok := m.Fields["disclosure"]
	if !ok {
		return "", false
	}
	var note string
	if err := json.Unmarshal(raw, &note); err != nil {
		return "", false
	}
	return note, true
}

// RuleState is the active rule pack override that applies to an invoice
type RuleState struct {
	Region     *string
	RulePackID *string
	Metadata   Metadata
}

// Compliance is the disclosure attached to an invoice
type Compliance struct {
	Region     *string `json:"region"`
	Note       string  `json:"note"`
	Source     string  `json:"source"`
	RulePackID *string `json:"rulePackId"`
}

// Disclose resolves the disclosure for an invoice. state is nil when no
// active rule pack applies. The rule pack region wins over the tenant
// region; a rule pack note wins over the regional fallback.
func Disclose(state *RuleState, tenantRegion *string) Compliance {
	regionSource := tenantRegion
	if state != nil && state.Region != nil {
		regionSource = state.Region
	}

	var region *string
	code := ""
	if regionSource != nil {
		code = strings.ToUpper(*regionSource)
		region = &code
	}

	out := Compliance{
		Region: region,
		Note:   FallbackNote(code),
		Source: SourceFallback,
	}
	if state == nil {
		return out
	}

	out.RulePackID = state.RulePackID
	if note, ok := state.Metadata.Disclosure(); ok {
		out.Note = note
		out.Source = SourceRulePack
	}
	return out
}
