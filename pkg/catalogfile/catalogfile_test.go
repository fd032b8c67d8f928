package catalogfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/assetstream/pkg/catalog"
)

const weaponsYAML = `
items:
  - unique_id: sword
    resources:
      - id: meshes/sword.glb
        bundles: [lod0, lod1]
    descriptors:
      weapon: 1
      rarity: 3.5
  - unique_id: shield
    resources:
      - id: meshes/shield.glb
`

func TestParse_YAML(t *testing.T) {
	f, err := Parse([]byte(weaponsYAML), FormatYAML)
	require.NoError(t, err)
	require.Len(t, f.Items, 2)

	items := f.CatalogItems()
	assert.Equal(t, "sword", items[0].UniqueID)
	assert.Equal(t, []string{"meshes/sword.glb#lod0", "meshes/sword.glb#lod1"}, items[0].Resources[0].Keys())
	assert.Equal(t, 3.5, items[0].Descriptors["rarity"])
	assert.Empty(t, items[1].Descriptors)

	_, err = catalog.New(items)
	assert.NoError(t, err)
}

func TestParse_JSON(t *testing.T) {
	data := `{"items":[{"unique_id":"a","resources":[{"id":"r1"}],"descriptors":{"t":2}}]}`

	f, err := Parse([]byte(data), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, map[catalog.Tag]float64{"t": 2}, f.CatalogItems()[0].Descriptors)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"empty document", "", FormatYAML},
		{"no items", "items: []", FormatYAML},
		{"no resources", "items:\n  - unique_id: a\n", FormatYAML},
		{"empty resource id", "items:\n  - resources:\n      - bundles: [x]\n", FormatYAML},
		{"unknown field", "items:\n  - resources: [{id: a}]\n    color: red\n", FormatYAML},
		{"malformed json", `{"items": [`, FormatJSON},
		{"unknown json field", `{"items":[{"resources":[{"id":"a"}]}],"extra":1}`, FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestLoad_PicksFormatFromExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "weapons.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(weaponsYAML), 0644))
	f, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Len(t, f.Items, 2)

	jsonPath := filepath.Join(dir, "weapons.JSON")
	data, err := json.Marshal(f)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(jsonPath, data, 0644))
	f2, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, f.Items, f2.Items)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromItems(t *testing.T) {
	items := []catalog.Item{{
		UniqueID:    "x",
		Resources:   []catalog.ResourceRef{{ID: "r"}},
		Descriptors: map[catalog.Tag]float64{"a": 1},
		Observer:    catalog.ObserverFunc(func(bool) {}),
	}}

	f := FromItems(items)
	require.NoError(t, f.Validate())
	back := f.CatalogItems()
	assert.Equal(t, "x", back[0].UniqueID)
	assert.Nil(t, back[0].Observer)
	assert.Equal(t, items[0].Descriptors, back[0].Descriptors)
}

func TestSchema(t *testing.T) {
	s := Schema()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"unique_id"`)
	assert.Contains(t, string(data), `"descriptors"`)
	assert.Equal(t, "assetstream Catalog", s.Title)
}

type registrations struct {
	mu    sync.Mutex
	calls map[string][][]catalog.Item
	ch    chan string
}

func (r *registrations) register(_ context.Context, name string, items []catalog.Item) error {
	r.mu.Lock()
	r.calls[name] = append(r.calls[name], items)
	r.mu.Unlock()
	r.ch <- name
	return nil
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weapons.yaml")
	require.NoError(t, os.WriteFile(path, []byte(weaponsYAML), 0644))

	regs := &registrations{calls: map[string][][]catalog.Item{}, ch: make(chan string, 8)}
	w, err := NewWatcher(regs.register, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Add("weapons", path))

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-w.Done()
	})

	// A broken file is skipped.
	require.NoError(t, os.WriteFile(path, []byte("items: ["), 0644))
	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte(weaponsYAML), 0644))

	time.Sleep(100 * time.Millisecond)
	regs.mu.Lock()
	assert.Empty(t, regs.calls)
	regs.mu.Unlock()

	updated := "items:\n  - unique_id: bow\n    resources: [{id: meshes/bow.glb}]\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	select {
	case name := <-regs.ch:
		assert.Equal(t, "weapons", name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	regs.mu.Lock()
	defer regs.mu.Unlock()
	calls := regs.calls["weapons"]
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	require.Len(t, last, 1)
	assert.Equal(t, "bow", last[0].UniqueID)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(func(context.Context, string, []catalog.Item) error { return nil }, 0)
	require.NoError(t, err)

	go w.Run(context.Background())
	w.Stop()
	w.Stop()

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Error(t, w.Add("x", filepath.Join(t.TempDir(), "x.yaml")))
}
