// Package config handles tool configuration loading and management.
package config

import "github.com/Faultbox/libertycity/pkg/txd"

// Config holds all tool settings.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Textures TexturesConfig `yaml:"textures"`
	Export   ExportConfig   `yaml:"export"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DataConfig locates the game files.
type DataConfig struct {
	GameDir  string   `yaml:"game_dir"` // Game installation directory
	Archives []string `yaml:"archives"` // .img archives relative to GameDir, lowest priority first
	Dat      string   `yaml:"dat"`      // Level index relative to GameDir
}

// TexturesConfig controls raster decoding.
type TexturesConfig struct {
	Expand555   bool `yaml:"expand_555"`   // Widen 5-bit channels to 8 bits
	SkipInvalid bool `yaml:"skip_invalid"` // Skip undecodable rasters instead of failing the dictionary
}

// Options returns the decoder options for these settings.
func (t TexturesConfig) Options() txd.Options {
	return txd.Options{Expand555: t.Expand555, SkipInvalid: t.SkipInvalid}
}

// ExportConfig holds output settings.
type ExportConfig struct {
	Format string `yaml:"format"`  // png, bmp, tga or webp
	OutDir string `yaml:"out_dir"` // Default extraction directory
}

// ServerConfig holds the browser server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			GameDir:  ".",
			Archives: []string{"models/gta3.img"},
			Dat:      "data/gta3.dat",
		},
		Textures: TexturesConfig{
			Expand555:   false,
			SkipInvalid: false,
		},
		Export: ExportConfig{
			Format: "png",
			OutDir: "out",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8000",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
