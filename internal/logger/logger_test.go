package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func resetGlobal(t *testing.T) {
	t.Cleanup(func() {
		Log = zap.NewNop()
		Sugar = Log.Sugar()
	})
}

func TestNew_FileRotation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "rwtool.log")

	// lumberjack's smallest size is 1MB.
	l, err := New("debug", FileConfig{Path: logFile, MaxSizeMB: 1, MaxBackups: 2, MaxAgeDays: 1}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log := l.Named("txd")
	name := strings.Repeat("r", 200)
	for i := 0; i < 8000; i++ {
		log.Warn("skipping raster", zap.String("txd", "generic"), zap.String("name", name), zap.Int("index", i))
	}
	_ = l.Sync()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var current bool
	var rotated []string
	for _, e := range entries {
		switch {
		case e.Name() == "rwtool.log":
			current = true
		case strings.HasPrefix(e.Name(), "rwtool-") && strings.HasSuffix(e.Name(), ".log"):
			rotated = append(rotated, e.Name())
		}
	}
	if !current {
		t.Error("active log file missing")
	}
	if len(rotated) == 0 {
		t.Fatalf("no rotated backups in %v", entries)
	}
	for _, name := range rotated {
		// rwtool-2006-01-02T15-04-05.000.log
		if !strings.Contains(name, "-20") {
			t.Errorf("backup %s lacks a timestamp", name)
		}
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "WARN txd") || !strings.Contains(string(data), "skipping raster") {
		t.Errorf("active file missing named entries: %.120q", data)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR world"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR world", "WARN world"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR world", "WARN world", "INFO world"}, []string{"DEBUG"}},
		{"DEBUG", []string{"ERROR world", "WARN world", "INFO world", "DEBUG world"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(tt.level, FileConfig{}, &buf)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			w := l.Named("world")
			w.Debug("skipping LOD", zap.String("model", "LODstreet"))
			w.Info("level loaded", zap.Int("objects", 3))
			w.Warn("spawn failed", zap.String("model", "ghost"))
			w.Error("archive not mounted", zap.String("archive", "models/gta3.img"))
			_ = l.Sync()

			out := buf.String()
			for _, exp := range tt.expected {
				if !strings.Contains(out, exp) {
					t.Errorf("expected %q in output %q", exp, out)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(out, exc) {
					t.Errorf("unexpected %s at level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestNew_TeesConsoleAndFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "tee.log")
	var console bytes.Buffer
	l, err := New("info", FileConfig{Path: logFile, MaxSizeMB: 10}, &console)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Named("http").Info("request", zap.String("path", "/api/files"))
	_ = l.Sync()

	file, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	for name, out := range map[string]string{"console": console.String(), "file": string(file)} {
		if !strings.Contains(out, "INFO http") || !strings.Contains(out, "request") || !strings.Contains(out, "/api/files") {
			t.Errorf("%s output %q", name, out)
		}
	}
	// The file keeps full timestamps; the console only the clock.
	if !strings.Contains(string(file), "T") || strings.Count(console.String(), ":") < 2 {
		t.Errorf("unexpected time layouts: console %q file %q", console.String(), file)
	}
}

func TestInit_Global(t *testing.T) {
	resetGlobal(t)
	logFile := filepath.Join(t.TempDir(), "global.log")

	if err := InitWithFileConfig("warn", DefaultFileConfig(logFile), false); err != nil {
		t.Fatalf("InitWithFileConfig failed: %v", err)
	}
	Info("hidden")
	Warn("archive not mounted", zap.String("archive", "models/gta_int.img"))
	Sugar.Errorf("command %s failed", "extract")
	Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Error("info logged at warn level")
	}
	if !strings.Contains(out, "gta_int.img") || !strings.Contains(out, "command extract failed") {
		t.Errorf("global helpers did not reach the file: %q", out)
	}

	cfg := DefaultFileConfig(logFile)
	if cfg.Path != logFile || cfg.MaxSizeMB <= 0 || cfg.MaxBackups <= 0 || !cfg.Compress {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestNew_ConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("warn", FileConfig{}, &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Named("txd").Info("hidden")
	l.Named("txd").Warn("skipping raster", zap.String("name", "wall"))
	_ = l.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(out, "WARN txd") || !strings.Contains(out, `"name": "wall"`) {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("a buffer is not a terminal; levels should not be colored")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	resetGlobal(t)
	if _, err := New("verbose", FileConfig{}, nil); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if err := InitWithFileConfig("loud", FileConfig{}, false); err == nil {
		t.Error("Init should reject an unknown level")
	}
	l, err := New("", FileConfig{}, nil)
	if err != nil || l == nil {
		t.Errorf("empty config should give a no-op logger, got %v, %v", l, err)
	}
}
