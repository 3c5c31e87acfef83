package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModuleDescriptorPrefersUIHierarchyOverLegacy(t *testing.T) {
	doc := []byte(`{
		"capabilities": {"default_forward_channel": 3},
		"raw_midi": true,
		"ui_hierarchy": {
			"shared_params": [{"key": "mix", "label": "Mix", "type": "float", "min": 0, "max": 1, "default": 0.5}],
			"levels": [{"params": [{"key": "rate", "label": "Rate", "type": "int", "min": 1, "max": 20}]}]
		},
		"chain_params": [{"key": "ignored", "label": "Ignored"}]
	}`)

	md, err := ParseModuleDescriptor(doc)
	require.NoError(t, err)
	assert.Equal(t, 3, md.DefaultForwardChannel)
	assert.True(t, md.RawMIDI)
	assert.Equal(t, []string{"mix", "rate"}, md.ParamOrder)
	assert.NotContains(t, md.Params, "ignored", "legacy chain_params must be ignored when ui_hierarchy has entries")

	mix := md.Params["mix"]
	assert.Equal(t, ParamFloat, mix.Type)
	assert.Equal(t, 0.5, mix.Default)
	assert.True(t, mix.HasMax)
}

func TestParseModuleDescriptorFallsBackToLegacyChainParams(t *testing.T) {
	doc := []byte(`{"chain_params": [{"key": "depth", "label": "Depth", "type": "enum", "options": ["off", "low", "high"]}]}`)
	md, err := ParseModuleDescriptor(doc)
	require.NoError(t, err)
	require.Contains(t, md.Params, "depth")
	assert.Equal(t, []string{"off", "low", "high"}, md.Params["depth"].Options)
}

func TestParseModuleDescriptorRejectsDuplicateKeys(t *testing.T) {
	doc := []byte(`{"ui_hierarchy": {"shared_params": [
		{"key": "mix", "label": "A"},
		{"key": "mix", "label": "B"}
	]}}`)
	_, err := ParseModuleDescriptor(doc)
	assert.ErrorIs(t, err, ErrDuplicateParamKey)
}

func TestParseModuleDescriptorSkipsEntriesWithNoKey(t *testing.T) {
	doc := []byte(`{"chain_params": [{"label": "No key"}]}`)
	md, err := ParseModuleDescriptor(doc)
	require.NoError(t, err)
	assert.Empty(t, md.Params)
}

func TestParameterDescriptorResolvedMaxUsesLiveValueWhenMaxParamSet(t *testing.T) {
	d := ParameterDescriptor{Max: 10, MaxParam: "cutoff"}
	assert.Equal(t, 500.0, d.ResolvedMax(500, true))
	assert.Equal(t, 10.0, d.ResolvedMax(500, false), "falls back to static Max when no live value is supplied")
}

func TestParameterDescriptorResolvedMaxIgnoresLiveValueWithoutMaxParam(t *testing.T) {
	d := ParameterDescriptor{Max: 10}
	assert.Equal(t, 10.0, d.ResolvedMax(999, true))
}

func TestParameterDescriptorDefaultStepPrefersExplicitStep(t *testing.T) {
	d := ParameterDescriptor{Step: 5, Type: ParamFloat}
	assert.Equal(t, 5.0, d.defaultStep())
}

func TestParameterDescriptorDefaultStepFallsBackByType(t *testing.T) {
	assert.Equal(t, 0.0015, ParameterDescriptor{Type: ParamFloat}.defaultStep())
	assert.Equal(t, 1.0, ParameterDescriptor{Type: ParamInt}.defaultStep())
	assert.Equal(t, 1.0, ParameterDescriptor{Type: ParamEnum}.defaultStep())
}

func TestParseParamType(t *testing.T) {
	assert.Equal(t, ParamInt, parseParamType("int"))
	assert.Equal(t, ParamEnum, parseParamType("enum"))
	assert.Equal(t, ParamFloat, parseParamType("float"))
	assert.Equal(t, ParamFloat, parseParamType("anything-else"))
}
