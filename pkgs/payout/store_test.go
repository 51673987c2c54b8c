package payout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPersistAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	epochs := NewEpochs()
	epochs.InsertIfAbsent(0, []*Payout{pay(0x0a, 5)})
	epochs.InsertIfAbsent(1, []*Payout{pay(0x0a, 2), pay(0x0b, 3)})
	require.NoError(t, store.Persist(epochs))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "0000000000.json", entries[0].Name())
	require.Equal(t, "0000000001.json", entries[1].Name())

	reloaded := NewEpochs()
	require.NoError(t, store.Load(reloaded))
	require.Equal(t, 2, reloaded.Len())

	payouts, ok := reloaded.Get(1)
	require.True(t, ok)
	require.Len(t, payouts, 2)

	original, _ := epochs.Get(1)
	require.Equal(t, original, payouts)
}

func TestPersistNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	first := NewEpochs()
	first.InsertIfAbsent(0, []*Payout{pay(0x0a, 5)})
	require.NoError(t, store.Persist(first))

	path := filepath.Join(dir, "0000000000.json")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// A second cache with different content for the same epoch must not
	// touch the persisted file.
	second := NewEpochs()
	second.InsertIfAbsent(0, []*Payout{pay(0x0b, 999)})
	require.NoError(t, store.Persist(second))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestLoadRejectsEpochMismatch(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	data, err := json.Marshal(epochFile{Epoch: 7, Payouts: []*Payout{pay(0x0a, 1)}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0000000003.json"), data, 0o644))

	require.Error(t, store.Load(NewEpochs()))
}

func TestLoadIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not an epoch"), 0o644))

	epochs := NewEpochs()
	require.NoError(t, store.Load(epochs))
	require.Equal(t, 0, epochs.Len())
}
