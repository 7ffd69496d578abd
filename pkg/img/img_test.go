package img

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func testBuilder() *Builder {
	b := &Builder{}
	b.Add("Ped.dff", bytes.Repeat([]byte{1}, 100))
	b.Add("generic.txd", bytes.Repeat([]byte{2}, SectorSize+10))
	b.Add("lamp.col", []byte{3, 3, 3})
	return b
}

func writeV1(t *testing.T, b *Builder) string {
	t.Helper()
	dir := t.TempDir()
	image, index := b.V1()
	path := filepath.Join(dir, "gta3.img")
	if err := os.WriteFile(path, image, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "gta3.dir"), index, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeVER2(t *testing.T, b *Builder) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gta3.img")
	if err := os.WriteFile(path, b.VER2(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen_Layouts(t *testing.T) {
	tests := []struct {
		name    string
		write   func(*testing.T, *Builder) string
		version int
	}{
		{"img+dir", writeV1, 1},
		{"VER2", writeVER2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive, err := Open(tt.write(t, testBuilder()))
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer archive.Close()

			if archive.Version() != tt.version {
				t.Errorf("expected version %d, got %d", tt.version, archive.Version())
			}
			if archive.Len() != 3 {
				t.Fatalf("expected 3 entries, got %d", archive.Len())
			}

			list := archive.List()
			want := []string{"Ped.dff", "generic.txd", "lamp.col"}
			for i := range want {
				if list[i] != want[i] {
					t.Errorf("List()[%d] = %q, want %q", i, list[i], want[i])
				}
			}

			data, err := archive.Read("generic.txd")
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if len(data) != 2*SectorSize {
				t.Errorf("expected two sectors, got %d bytes", len(data))
			}
			if data[0] != 2 || data[SectorSize+9] != 2 || data[SectorSize+10] != 0 {
				t.Error("unexpected entry contents")
			}

			entry, ok := archive.Entry("lamp.col")
			if !ok || entry.Size != 1 {
				t.Errorf("unexpected entry %+v", entry)
			}
		})
	}
}

func TestRead_CaseSensitivity(t *testing.T) {
	archive, err := Open(writeV1(t, testBuilder()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer archive.Close()

	if _, err := archive.Read("ped.dff"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Read should match exactly, got %v", err)
	}
	data, err := archive.ReadFold("PED.DFF")
	if err != nil {
		t.Fatalf("ReadFold failed: %v", err)
	}
	if data[0] != 1 {
		t.Error("ReadFold returned the wrong entry")
	}
	if !archive.Contains("PED.dff") {
		t.Error("Contains should ignore case")
	}
	if archive.Contains("missing.dff") {
		t.Error("Contains reported a missing entry")
	}
}

func TestOpen_Errors(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lonely.img")
		os.WriteFile(path, make([]byte, SectorSize), 0644)
		if _, err := Open(path); err == nil {
			t.Error("expected an error without a .dir file")
		}
	})

	t.Run("bad dir length", func(t *testing.T) {
		_, err := NewV1(bytes.NewReader(nil), 0, make([]byte, 33))
		if !errors.Is(err, ErrInvalidDirectory) {
			t.Errorf("expected ErrInvalidDirectory, got %v", err)
		}
	})

	t.Run("VER2 count overrun", func(t *testing.T) {
		data := []byte{'V', 'E', 'R', '2', 0xFF, 0xFF, 0, 0}
		_, err := NewVER2(bytes.NewReader(data), int64(len(data)))
		if !errors.Is(err, ErrInvalidDirectory) {
			t.Errorf("expected ErrInvalidDirectory, got %v", err)
		}
	})
}

func TestRead_TruncatedEntry(t *testing.T) {
	b := testBuilder()
	image, dir := b.V1()
	archive, err := NewV1(bytes.NewReader(image[:SectorSize]), SectorSize, dir)
	if err != nil {
		t.Fatalf("NewV1 failed: %v", err)
	}
	if _, err := archive.Read("generic.txd"); !errors.Is(err, ErrTruncatedEntry) {
		t.Errorf("expected ErrTruncatedEntry, got %v", err)
	}
	if _, err := archive.Read("Ped.dff"); err != nil {
		t.Errorf("entry inside the data should still read: %v", err)
	}
}

func TestRead_Concurrent(t *testing.T) {
	archive, err := Open(writeVER2(t, testBuilder()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer archive.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names := []string{"Ped.dff", "generic.txd", "lamp.col"}
			want := []byte{1, 2, 3}
			data, err := archive.Read(names[i%3])
			if err != nil {
				errs <- err
				return
			}
			if data[0] != want[i%3] {
				errs <- errors.New("wrong data for " + names[i%3])
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
