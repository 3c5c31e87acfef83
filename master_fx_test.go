package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMasterFXChainSaveThenUpdateThenDelete(t *testing.T) {
	m := NewMasterFXChain(t.TempDir())

	p, err := m.Save(`{"fx1":{"type":"comp","params":{}}}`, "My Master")
	require.NoError(t, err)
	assert.Equal(t, "My Master", p.Name)
	assert.FileExists(t, p.Path)

	require.NoError(t, m.Update(0, `{"fx1":{"type":"limiter","params":{}}}`))

	require.NoError(t, m.Delete(0))
	assert.NoFileExists(t, p.Path)
}

func TestMasterFXChainSaveDefaultsNameWhenCustomNameAbsent(t *testing.T) {
	m := NewMasterFXChain(t.TempDir())
	p, err := m.Save(`{}`, "")
	require.NoError(t, err)
	assert.Equal(t, "master preset", p.Name)
}

func TestMasterFXChainSaveCollisionAppendsNumericSuffix(t *testing.T) {
	m := NewMasterFXChain(t.TempDir())
	p1, err := m.Save(`{}`, "chain")
	require.NoError(t, err)
	p2, err := m.Save(`{}`, "chain")
	require.NoError(t, err)
	assert.NotEqual(t, p1.Path, p2.Path)
}

func TestMasterFXChainUpdateAndDeleteRejectOutOfRangeIndex(t *testing.T) {
	m := NewMasterFXChain(t.TempDir())
	assert.ErrorIs(t, m.Update(0, `{}`), ErrNoSuchSlot)
	assert.ErrorIs(t, m.Delete(0), ErrNoSuchSlot)
}

func TestMasterFXChainProcessBlockRunsLoadedSlotsInOrder(t *testing.T) {
	m := NewMasterFXChain(t.TempDir())
	m.Slot[0].Instance = &fakeAudioFX{add: 3}
	m.Slot[2].Instance = &fakeAudioFX{add: 4}

	buf := []int16{0, 0}
	m.ProcessBlock(buf, 1)
	assert.Equal(t, []int16{7, 7}, buf)
}

func TestParseMasterFXSlotReturnsNotOKForNullSlot(t *testing.T) {
	_, _, ok := parseMasterFXSlot(`{"fx1": null}`, "fx1")
	assert.False(t, ok)
}

func TestParseMasterFXSlotReturnsNotOKForMissingSlot(t *testing.T) {
	_, _, ok := parseMasterFXSlot(`{}`, "fx1")
	assert.False(t, ok)
}

func TestParseMasterFXSlotExtractsTypeAndParams(t *testing.T) {
	typ, params, ok := parseMasterFXSlot(`{"fx1":{"type":"delay","params":{"time":250}}}`, "fx1")
	require.True(t, ok)
	assert.Equal(t, "delay", typ)
	assert.JSONEq(t, `{"time":250}`, params)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, fileExists(dir+"/nope"))
}
