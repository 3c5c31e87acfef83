package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchStoreSaveScanRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewPatchStore(dir)

	chain := `{"synth":{"module":"chip","preset":3},"audio_fx":[{"type":"delay"}]}`
	p, err := s.Save(chain, "")
	require.NoError(t, err)
	assert.Equal(t, "chip 03 + delay", p.Name)

	require.NoError(t, s.Scan())
	assert.Equal(t, 1, s.Count())
	got, ok := s.At(0)
	require.True(t, ok)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, "chip", got.Synth())
	assert.Equal(t, 3, got.Preset())
	assert.Equal(t, "delay", got.AudioFXType(0))
}

func TestPatchStoreSaveCustomNameOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	s := NewPatchStore(dir)
	p, err := s.Save(`{"synth":{"module":"chip","preset":0}}`, "My Lead")
	require.NoError(t, err)
	assert.Equal(t, "My Lead", p.Name)
}

func TestPatchStoreSaveCollisionAppendsSuffix(t *testing.T) {
	dir := t.TempDir()
	s := NewPatchStore(dir)
	_, err := s.Save(`{}`, "lead")
	require.NoError(t, err)
	p2, err := s.Save(`{}`, "lead")
	require.NoError(t, err)
	assert.Equal(t, "lead_02", p2.Name)
}

func TestPatchStoreUpdatePreservesNameWhenCustomNameAbsent(t *testing.T) {
	dir := t.TempDir()
	s := NewPatchStore(dir)
	_, err := s.Save(`{"synth":{"module":"chip","preset":1}}`, "Original")
	require.NoError(t, err)
	require.NoError(t, s.Scan())

	err = s.Update(0, `{"synth":{"module":"chip","preset":2}}`, "")
	require.NoError(t, err)

	p, _ := s.At(0)
	assert.Equal(t, "Original", p.Name, "customName absent must preserve the prior patch's name")
	assert.Equal(t, 2, p.Preset())
}

func TestPatchStoreDeleteRemovesFromDiskAndList(t *testing.T) {
	dir := t.TempDir()
	s := NewPatchStore(dir)
	_, err := s.Save(`{}`, "lead")
	require.NoError(t, err)
	require.NoError(t, s.Scan())

	require.NoError(t, s.Delete(0))
	assert.Equal(t, 0, s.Count())
}

func TestPatchReceiveAndForwardChannelDefaults(t *testing.T) {
	p := &Patch{RawChain: `{}`}
	assert.Equal(t, ReceiveAllChannels, p.ReceiveChannel())
	assert.Equal(t, ForwardAuto, p.ForwardChannel())
}

func TestSanitizeFilenameDropsPunctuation(t *testing.T) {
	assert.Equal(t, "my_lead_1", sanitizeFilename("My Lead-1!"))
}

func TestPatchStoreScanMissingDirIsNotAnError(t *testing.T) {
	s := NewPatchStore(t.TempDir() + "/does-not-exist")
	assert.NoError(t, s.Scan())
	assert.Equal(t, 0, s.Count())
}
