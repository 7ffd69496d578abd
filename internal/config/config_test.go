package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Data.GameDir != "." {
		t.Errorf("expected game dir '.', got %s", cfg.Data.GameDir)
	}
	if len(cfg.Data.Archives) != 1 || cfg.Data.Archives[0] != "models/gta3.img" {
		t.Errorf("unexpected archives %v", cfg.Data.Archives)
	}
	if cfg.Data.Dat != "data/gta3.dat" {
		t.Errorf("expected dat data/gta3.dat, got %s", cfg.Data.Dat)
	}

	// Raw 5-bit values and strict dictionaries by default
	if cfg.Textures.Expand555 || cfg.Textures.SkipInvalid {
		t.Error("texture relaxations should be off by default")
	}

	if cfg.Export.Format != "png" {
		t.Errorf("expected format png, got %s", cfg.Export.Format)
	}
	if cfg.Server.Addr != "127.0.0.1:8000" {
		t.Errorf("expected addr 127.0.0.1:8000, got %s", cfg.Server.Addr)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestTexturesOptions(t *testing.T) {
	opts := TexturesConfig{Expand555: true}.Options()
	if !opts.Expand555 || opts.SkipInvalid {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
data:
  game_dir: "/games/gta3"
  archives:
    - models/gta3.img
    - models/custom.img

textures:
  expand_555: true
  skip_invalid: true

export:
  format: webp

server:
  addr: ":9000"

logging:
  level: "debug"
  log_file: "rwtool.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Data.GameDir != "/games/gta3" {
		t.Errorf("expected game dir /games/gta3, got %s", cfg.Data.GameDir)
	}
	if len(cfg.Data.Archives) != 2 || cfg.Data.Archives[1] != "models/custom.img" {
		t.Errorf("unexpected archives %v", cfg.Data.Archives)
	}
	// Keys absent from the file keep their defaults
	if cfg.Data.Dat != "data/gta3.dat" {
		t.Errorf("expected default dat, got %s", cfg.Data.Dat)
	}
	if cfg.Export.OutDir != "out" {
		t.Errorf("expected default out dir, got %s", cfg.Export.OutDir)
	}

	if !cfg.Textures.Expand555 || !cfg.Textures.SkipInvalid {
		t.Error("expected texture relaxations to be enabled")
	}
	if cfg.Export.Format != "webp" {
		t.Errorf("expected format webp, got %s", cfg.Export.Format)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %s", cfg.Server.Addr)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "rwtool.log" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad syntax", "textures:\n  expand_555: not a bool\n  invalid syntax here\n"},
		{"unknown key", "graphics:\n  width: 800\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if cfg.Export.Format != "png" {
		t.Error("empty file should keep defaults")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("export:\n  format: tga\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "game dir flag",
			setup: func() { *flagGameDir = "/opt/gta3" },
			verify: func(cfg *Config) {
				if cfg.Data.GameDir != "/opt/gta3" {
					t.Errorf("expected game dir /opt/gta3, got %s", cfg.Data.GameDir)
				}
			},
			teardown: func() { *flagGameDir = "" },
		},
		{
			name: "texture flags",
			setup: func() {
				*flagExpand555 = true
				*flagSkipInvalid = true
			},
			verify: func(cfg *Config) {
				if !cfg.Textures.Expand555 || !cfg.Textures.SkipInvalid {
					t.Errorf("unexpected textures %+v", cfg.Textures)
				}
			},
			teardown: func() {
				*flagExpand555 = false
				*flagSkipInvalid = false
			},
		},
		{
			name: "output flags",
			setup: func() {
				*flagFormat = "bmp"
				*flagOut = "dump"
				*flagAddr = ":1234"
				*flagLogFile = "x.log"
			},
			verify: func(cfg *Config) {
				if cfg.Export.Format != "bmp" || cfg.Export.OutDir != "dump" {
					t.Errorf("unexpected export %+v", cfg.Export)
				}
				if cfg.Server.Addr != ":1234" || cfg.Logging.LogFile != "x.log" {
					t.Errorf("unexpected server/logging %+v %+v", cfg.Server, cfg.Logging)
				}
			},
			teardown: func() {
				*flagFormat = ""
				*flagOut = ""
				*flagAddr = ""
				*flagLogFile = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
data:
  game_dir: /from/file
export:
  format: tga
  out_dir: /from/file/out
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagFormat = "webp"
	defer func() {
		*flagConfig = ""
		*flagFormat = ""
	}()
	t.Setenv(GameDirEnv, "/from/env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Flag beats file
	if cfg.Export.Format != "webp" {
		t.Errorf("expected format webp from flag, got %s", cfg.Export.Format)
	}
	// Environment beats file
	if cfg.Data.GameDir != "/from/env" {
		t.Errorf("expected game dir from env, got %s", cfg.Data.GameDir)
	}
	// File beats default
	if cfg.Export.OutDir != "/from/file/out" {
		t.Errorf("expected out dir from file, got %s", cfg.Export.OutDir)
	}

	*flagGameDir = "/from/flag"
	defer func() { *flagGameDir = "" }()
	cfg, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Data.GameDir != "/from/flag" {
		t.Errorf("expected flag to beat env, got %s", cfg.Data.GameDir)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Export.Format = "tga"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Export.Format != "tga" {
		t.Errorf("expected tga after reload, got %s", loaded.Export.Format)
	}
}
