// rwtool inspects and converts GTA III era game files: .img archives,
// RenderWare models and texture dictionaries, collision and map definitions.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/libertycity/internal/assets"
	"github.com/Faultbox/libertycity/internal/config"
	"github.com/Faultbox/libertycity/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	commands := map[string]func(*config.Config, []string) error{
		"info":      cmdInfo,
		"list":      cmdList,
		"ls":        cmdList,
		"extract":   cmdExtract,
		"x":         cmdExtract,
		"dump":      cmdDump,
		"textures":  cmdTextures,
		"model":     cmdModel,
		"collision": cmdCollision,
		"world":     cmdWorld,
		"serve":     cmdServe,
	}

	command := args[0]
	switch command {
	case "help", "-h", "--help":
		printUsage()
		return
	}
	run, ok := commands[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sugar.Debugf("Config: %+v", cfg)
	if err := run(cfg, args[1:]); err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rwtool - GTA III era game file utility

Usage:
  rwtool [global options] <command> [options]

Global options:
  -config <file>     Config file (default ./config.yaml)
  -game-dir <dir>    Game directory (or RWTOOL_GAME_DIR)
  -format <fmt>      Image format: png, bmp, tga, webp
  -out <dir>         Output directory
  -skip-invalid      Skip undecodable rasters
  -expand-555        Widen 5-bit color channels
  -debug             Debug logging

Commands:
  info <file>                   Show archive or chunk file information
  list <file.img> [pattern]     List archive entries
  extract <file.img> <name>     Extract entries (name may be a glob)
  dump <file>                   Print the parsed structure of a file
  textures <name.txd>           Export every texture of a dictionary
  model <name.dff>              Export a model as GLB
  collision <file.col>          Summarize collision records
  world                         Load the level and spawn every placement
  serve                         Start the browser API

Examples:
  rwtool -game-dir ~/gta3 list models/gta3.img "*.txd"
  rwtool -game-dir ~/gta3 -format webp textures generic.txd
  rwtool -game-dir ~/gta3 model -txd generic lamppost.dff
  rwtool -game-dir ~/gta3 serve`)
}

// openAssets creates an asset manager over the configured game directory
// with the configured archives mounted.
func openAssets(cfg *config.Config) *assets.Manager {
	mgr := assets.NewManager(cfg.Data.GameDir, logger.Log.Named("assets"))
	for _, archive := range cfg.Data.Archives {
		if err := mgr.AddArchive(archive); err != nil {
			logger.Warn("archive not mounted", zap.String("archive", archive), zap.Error(err))
		}
	}
	return mgr
}
