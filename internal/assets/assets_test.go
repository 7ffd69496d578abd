package assets

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/libertycity/pkg/img"
)

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func testGameDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	b := &img.Builder{}
	b.Add("Lamp.dff", []byte("from archive"))
	image, dir := b.V1()
	writeFile(t, root, "MODELS/gta3.img", image)
	writeFile(t, root, "MODELS/gta3.dir", dir)

	writeFile(t, root, "Data/GTA3.DAT", []byte("IDE data\\generic.ide"))
	writeFile(t, root, "MODELS/Loose.DFF", []byte("loose model"))
	writeFile(t, root, "TXD/Menu.txd", []byte("menu textures"))
	writeFile(t, root, "MODELS/Lamp.dff", []byte("loose lamp"))
	return root
}

func TestManager_Resolve(t *testing.T) {
	root := testGameDir(t)
	m := NewManager(root, nil)

	p, err := m.Resolve(`data\gta3.dat`)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p != filepath.Join(root, "Data", "GTA3.DAT") {
		t.Errorf("unexpected path %s", p)
	}

	if _, err := m.Resolve("data/missing.dat"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_LoadOrder(t *testing.T) {
	m := NewManager(testGameDir(t), nil)
	defer m.Close()
	if err := m.AddArchive("models/GTA3.IMG"); err != nil {
		t.Fatalf("AddArchive failed: %v", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"lamp.dff", "from archive"},
		{"loose.dff", "loose model"},
		{"menu.TXD", "menu textures"},
		{"DATA/gta3.dat", "IDE data\\generic.ide"},
	}
	for _, tt := range tests {
		data, err := m.Load(tt.name)
		if err != nil {
			t.Errorf("Load(%s) failed: %v", tt.name, err)
			continue
		}
		if got := string(bytes.TrimRight(data, "\x00")); got != tt.want {
			t.Errorf("Load(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := m.Load("nothing.dff"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_Cache(t *testing.T) {
	m := NewManager(testGameDir(t), nil)
	defer m.Close()

	if _, err := m.Load("loose.dff"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load("LOOSE.DFF"); err != nil {
		t.Fatal(err)
	}
	stats := m.CacheStats()
	if stats != (CacheStats{Entries: 1, Hits: 1, Misses: 1}) {
		t.Errorf("expected one entry, 1 hit and 1 miss, got %+v", stats)
	}

	m.Close()
	if stats := m.CacheStats(); stats != (CacheStats{}) {
		t.Errorf("Close should empty the cache, got %+v", stats)
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	c.Set("a", []byte{1})
	if _, ok := c.Get("a"); !ok {
		t.Error("expected hit")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected miss")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 item, got %d", c.Len())
	}
	c.Clear()
	hits, misses := c.Stats()
	if hits != 0 || misses != 0 || c.Len() != 0 {
		t.Error("Clear should reset data and stats")
	}
}
