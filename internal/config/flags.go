package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagGameDir     = flag.String("game-dir", "", "Game installation directory")
	flagFormat      = flag.String("format", "", "Image export format (png, bmp, tga, webp)")
	flagOut         = flag.String("out", "", "Output directory")
	flagAddr        = flag.String("addr", "", "Browser server listen address")
	flagExpand555   = flag.Bool("expand-555", false, "Widen 5-bit color channels to 8 bits")
	flagSkipInvalid = flag.Bool("skip-invalid", false, "Skip undecodable rasters")
	flagLogFile     = flag.String("log-file", "", "Write logs to a rotating file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagGameDir != "" {
		cfg.Data.GameDir = *flagGameDir
	}
	if *flagFormat != "" {
		cfg.Export.Format = *flagFormat
	}
	if *flagOut != "" {
		cfg.Export.OutDir = *flagOut
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagExpand555 {
		cfg.Textures.Expand555 = true
	}
	if *flagSkipInvalid {
		cfg.Textures.SkipInvalid = true
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
