package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestFallbackNote(t *testing.T) {
	assert.Contains(t, FallbackNote("US-CA"), "California disclosure")
	assert.Contains(t, FallbackNote("UK"), "Ofgem")
	assert.Equal(t, FallbackNote("DEFAULT"), FallbackNote("MARS"))
	assert.Equal(t, FallbackNote("DEFAULT"), FallbackNote(""))
}

func TestDecodeMetadata(t *testing.T) {
	tests := []struct {
		raw        string
		kind       MetadataKind
		disclosure string
		ok         bool
	}{
		{`{"disclosure":"Custom text"}`, MetadataStructured, "Custom text", true},
		{`{"disclosure":42}`, MetadataStructured, "", false},
		{`{"other":"x"}`, MetadataStructured, "", false},
		{`["disclosure"]`, MetadataUnstructured, "", false},
		{`"disclosure"`, MetadataUnstructured, "", false},
		{`null`, MetadataUnstructured, "", false},
		{``, MetadataUnstructured, "", false},
		{`{broken`, MetadataUnstructured, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			m := DecodeMetadata([]byte(tt.raw))
			assert.Equal(t, tt.kind, m.Kind)
			note, ok := m.Disclosure()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.disclosure, note)
		})
	}
}

func TestDisclose_NoRulePack(t *testing.T) {
	got := Disclose(nil, strPtr("us-ca"))
	assert.Equal(t, "US-CA", *got.Region)
	assert.Equal(t, FallbackNote("US-CA"), got.Note)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Nil(t, got.RulePackID)

	got = Disclose(nil, nil)
	assert.Nil(t, got.Region)
	assert.Equal(t, FallbackNote("DEFAULT"), got.Note)
	assert.Nil(t, got.RulePackID)
}

func TestDisclose_RulePackNote(t *testing.T) {
	state := &RuleState{
		Region:     strPtr("eu"),
		RulePackID: strPtr("eu-2024"),
		Metadata:   DecodeMetadata([]byte(`{"disclosure":"Pack specific text"}`)),
	}
	got := Disclose(state, strPtr("UK"))
	assert.Equal(t, "EU", *got.Region)
	assert.Equal(t, "Pack specific text", got.Note)
	assert.Equal(t, SourceRulePack, got.Source)
	assert.Equal(t, "eu-2024", *got.RulePackID)
}

func TestDisclose_RulePackWithoutNoteFallsBack(t *testing.T) {
	state := &RuleState{
		RulePackID: strPtr("pack-1"),
		Metadata:   DecodeMetadata([]byte(`[1,2]`)),
	}
	got := Disclose(state, strPtr("us-ny"))
	assert.Equal(t, "US-NY", *got.Region)
	assert.Equal(t, FallbackNote("US-NY"), got.Note)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, "pack-1", *got.RulePackID)
}
