package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/libertycity/internal/assets"
	"github.com/Faultbox/libertycity/internal/config"
	"github.com/Faultbox/libertycity/internal/export"
	"github.com/Faultbox/libertycity/internal/logger"
	"github.com/Faultbox/libertycity/internal/model"
	"github.com/Faultbox/libertycity/internal/web"
	"github.com/Faultbox/libertycity/internal/world"
	"github.com/Faultbox/libertycity/pkg/col"
	"github.com/Faultbox/libertycity/pkg/img"
	"github.com/Faultbox/libertycity/pkg/rw"
	"github.com/Faultbox/libertycity/pkg/txd"
)

var (
	errUsage      = errors.New("invalid arguments")
	errUnsafeName = errors.New("name escapes output directory")
)

func usage(format string) error {
	return fmt.Errorf("%w: usage: rwtool %s", errUsage, format)
}

// openArchive opens an archive given as a filesystem path or a path
// relative to the game directory.
func openArchive(cfg *config.Config, p string) (*img.Archive, error) {
	if _, err := os.Stat(p); err != nil {
		resolved, rerr := assets.NewManager(cfg.Data.GameDir, nil).Resolve(p)
		if rerr != nil {
			return nil, err
		}
		p = resolved
	}
	return img.Open(p)
}

// readInput reads a file from disk if it exists, otherwise through the
// asset manager (archives first for bare model and texture names).
func readInput(mgr *assets.Manager, name string) ([]byte, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return os.ReadFile(name)
	}
	return mgr.Load(name)
}

// outputPath joins an entry or raster name onto dir. Names must be a single
// path element; archive and dictionary contents are not trusted.
func outputPath(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("%w: %q", errUnsafeName, name)
	}
	return filepath.Join(dir, name), nil
}

func baseName(name string) string {
	base := path.Base(filepath.ToSlash(name))
	return strings.TrimSuffix(base, path.Ext(base))
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return usage("info <file>")
	}
	name := args[0]

	if strings.EqualFold(filepath.Ext(name), ".img") {
		archive, err := openArchive(cfg, name)
		if err != nil {
			return err
		}
		defer archive.Close()
		return printArchiveInfo(name, archive)
	}

	mgr := openAssets(cfg)
	defer mgr.Close()
	data, err := readInput(mgr, name)
	if err != nil {
		return err
	}
	chunks, err := rw.ParseAll(data)
	if err != nil {
		return err
	}

	fmt.Printf("File:    %s\n", name)
	fmt.Printf("Size:    %d bytes\n", len(data))
	for _, c := range chunks {
		fmt.Printf("Chunk:   %s (version %s, %d bytes)\n", c.Type(), c.Version(), c.Header.Size)
		counts := make(map[rw.Type]int)
		c.Walk(func(child *rw.Chunk, depth int) bool {
			counts[child.Type()]++
			return true
		})
		types := make([]rw.Type, 0, len(counts))
		for t := range counts {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool { return counts[types[i]] > counts[types[j]] })
		for _, t := range types {
			fmt.Printf("  %-20s %d\n", t, counts[t])
		}
	}
	return nil
}

func printArchiveInfo(name string, archive *img.Archive) error {
	extCount := make(map[string]int)
	var totalSize int64
	for _, e := range archive.Entries() {
		ext := strings.ToLower(filepath.Ext(e.Name))
		if ext == "" {
			ext = "(no ext)"
		}
		extCount[ext]++
		totalSize += e.ByteSize()
	}

	fmt.Printf("Archive: %s\n", name)
	fmt.Printf("Version: %d\n", archive.Version())
	fmt.Printf("Files:   %d\n", archive.Len())
	fmt.Printf("Size:    %.2f MB\n", float64(totalSize)/(1024*1024))
	fmt.Println()
	fmt.Println("Files by type:")

	type extStat struct {
		ext   string
		count int
	}
	var stats []extStat
	for ext, count := range extCount {
		stats = append(stats, extStat{ext, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].ext < stats[j].ext
	})
	for _, s := range stats {
		fmt.Printf("  %-10s %d\n", s.ext, s.count)
	}
	return nil
}

func cmdList(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	long := fs.Bool("l", false, "Show offsets and sizes")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usage("list <file.img> [pattern]")
	}
	archive, err := openArchive(cfg, fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, name := range archive.List() {
		if pattern != "" && !matches(pattern, name) {
			continue
		}
		if *long {
			e, _ := archive.Entry(name)
			fmt.Printf("%-24s %10d %10d\n", name, e.ByteOffset(), e.ByteSize())
		} else {
			fmt.Println(name)
		}
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d files matched)\n", count)
	}
	return nil
}

func matches(pattern, name string) bool {
	lower := strings.ToLower(name)
	if matched, _ := filepath.Match(pattern, lower); matched {
		return true
	}
	return strings.Contains(lower, pattern)
}

func cmdExtract(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		return usage("extract <file.img> <name|pattern> [output_dir]")
	}
	outputDir := cfg.Export.OutDir
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	archive, err := openArchive(cfg, fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	var names []string
	if pattern := fs.Arg(1); strings.ContainsAny(pattern, "*?[") {
		for _, name := range archive.List() {
			if matched, _ := filepath.Match(strings.ToLower(pattern), strings.ToLower(name)); matched {
				names = append(names, name)
			}
		}
	} else {
		e, ok := archive.Entry(pattern)
		if !ok {
			// Names are stored with arbitrary case.
			for _, name := range archive.List() {
				if strings.EqualFold(name, pattern) {
					e, ok = archive.Entry(name)
					break
				}
			}
		}
		if !ok {
			return fmt.Errorf("%w: %s", img.ErrEntryNotFound, pattern)
		}
		names = append(names, e.Name)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	extracted := 0
	for _, name := range names {
		data, err := archive.Read(name)
		if err != nil {
			logger.Warn("read failed", zap.String("name", name), zap.Error(err))
			continue
		}
		target, err := outputPath(outputDir, name)
		if err != nil {
			logger.Warn("skipping entry", zap.String("name", name), zap.Error(err))
			continue
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return err
		}
		fmt.Printf("Extracted: %s (%d bytes)\n", target, len(data))
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", extracted)
	return nil
}

func cmdDump(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return usage("dump <file>")
	}
	mgr := openAssets(cfg)
	defer mgr.Close()

	data, err := readInput(mgr, args[0])
	if err != nil {
		return err
	}
	return export.Dump(os.Stdout, args[0], data)
}

func cmdTextures(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("textures", flag.ExitOnError)
	list := fs.Bool("list", false, "List textures without writing files")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usage("textures [-list] <name.txd> [output_dir]")
	}
	format, err := export.ParseImageFormat(cfg.Export.Format)
	if err != nil {
		return err
	}

	mgr := openAssets(cfg)
	defer mgr.Close()

	name := fs.Arg(0)
	if path.Ext(name) == "" {
		name += ".txd"
	}
	data, err := readInput(mgr, name)
	if err != nil {
		return err
	}

	opts := cfg.Textures.Options()
	opts.Logger = logger.Log.Named("txd")
	dict, err := txd.Decode(baseName(name), data, opts)
	if err != nil {
		return err
	}

	outputDir := filepath.Join(cfg.Export.OutDir, dict.Name)
	if fs.NArg() > 1 {
		outputDir = fs.Arg(1)
	}
	if !*list {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return err
		}
	}

	seen := make(map[string]bool)
	for _, key := range dict.Order {
		if seen[key] {
			continue
		}
		seen[key] = true
		image := dict.Images[key]

		if *list {
			fmt.Printf("%-24s %4dx%-4d\n", image.Name, image.Width, image.Height)
			continue
		}

		target, err := outputPath(outputDir, image.Name+format.Ext())
		if err != nil {
			logger.Warn("skipping texture", zap.String("name", image.Name), zap.Error(err))
			continue
		}
		f, err := os.Create(target)
		if err != nil {
			return err
		}
		err = export.EncodeImage(f, image, format)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Printf("Wrote: %s\n", target)
	}

	for name, err := range dict.Skipped {
		fmt.Fprintf(os.Stderr, "Skipped %s: %v\n", name, err)
	}
	fmt.Fprintf(os.Stderr, "\n%d textures, %d skipped\n", dict.Len(), len(dict.Skipped))
	return nil
}

func cmdModel(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("model", flag.ExitOnError)
	dictName := fs.String("txd", "", "Texture dictionary (default: model name)")
	output := fs.String("o", "", "Output file (default: <out>/<name>.glb)")
	stats := fs.Bool("stats", false, "Print statistics only")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usage("model [-txd name] [-o file.glb] [-stats] <name.dff>")
	}

	mgr := openAssets(cfg)
	defer mgr.Close()

	name := fs.Arg(0)
	if path.Ext(name) == "" {
		name += ".dff"
	}
	data, err := readInput(mgr, name)
	if err != nil {
		return err
	}
	if *dictName == "" {
		*dictName = baseName(name)
	}

	m, err := model.Load(baseName(name), data, *dictName)
	if err != nil {
		return err
	}
	for i, g := range m.Geometries {
		if g.Err != nil {
			logger.Warn("geometry skipped", zap.Int("geometry", i), zap.Error(g.Err))
		}
	}

	s := m.Stats()
	fmt.Printf("Model:      %s (version %s)\n", m.Name, m.Version)
	fmt.Printf("Geometries: %d\n", s.Geometries)
	fmt.Printf("Parts:      %d\n", s.Parts)
	fmt.Printf("Vertices:   %d\n", s.Vertices)
	fmt.Printf("Triangles:  %d\n", s.Triangles)
	fmt.Printf("Textures:   %s\n", strings.Join(s.Textures, ", "))
	if *stats {
		return nil
	}

	opts := cfg.Textures.Options()
	store := assets.NewTextureStore(mgr.Load, opts, logger.Log.Named("textures"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := store.Await(ctx, *dictName); err != nil {
		logger.Warn("exporting without textures", zap.String("txd", *dictName), zap.Error(err))
	}
	lookup := func(ref model.TextureRef) (*txd.Image, bool) {
		h, ok := store.Request(ref.Dictionary, ref.Name)
		if !ok {
			return nil, false
		}
		return store.Image(h)
	}

	var buf bytes.Buffer
	if err := export.ModelGLB(&buf, m, lookup); err != nil {
		return err
	}
	if *output == "" {
		*output = filepath.Join(cfg.Export.OutDir, m.Name+".glb")
	}
	if err := os.MkdirAll(filepath.Dir(*output), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(*output, buf.Bytes(), 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote: %s (%d bytes)\n", *output, buf.Len())
	return nil
}

func cmdCollision(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return usage("collision <file.col>")
	}
	mgr := openAssets(cfg)
	defer mgr.Close()

	data, err := readInput(mgr, args[0])
	if err != nil {
		return err
	}
	records, err := col.Parse(data)
	if err != nil {
		return err
	}

	fmt.Printf("%-24s %7s %6s %5s %8s %6s\n", "NAME", "RADIUS", "SPHERE", "BOX", "VERTICES", "FACES")
	for _, r := range records {
		fmt.Printf("%-24s %7.2f %6d %5d %8d %6d\n",
			r.Name, r.Bounds.Radius, len(r.Spheres), len(r.Boxes), len(r.Vertices), len(r.Faces))
	}
	fmt.Fprintf(os.Stderr, "\n%d records\n", len(records))
	return nil
}

func cmdWorld(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("world", flag.ExitOnError)
	verbose := fs.Bool("v", false, "List every spawned entity")
	fs.Parse(args)

	mgr := openAssets(cfg)
	defer mgr.Close()

	opts := cfg.Textures.Options()
	store := assets.NewTextureStore(mgr.Load, opts, logger.Log.Named("textures"))
	w := world.New(mgr, store, logger.Log.Named("world"))
	if err := w.LoadDat(cfg.Data.Dat); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	entities, stats, err := w.SpawnAll(ctx)
	if err != nil {
		return err
	}
	textures := 0
	for _, e := range entities {
		if err := w.Resolve(ctx, e); err != nil {
			return err
		}
		textures += len(e.Textures)
	}

	if *verbose {
		for _, e := range entities {
			p := e.Transform.Position
			fmt.Printf("%6d %-24s (%9.2f %9.2f %9.2f) parts=%d textures=%d collider=%v\n",
				e.ID, e.Model, p.X(), p.Y(), p.Z(), len(e.Parts), len(e.Textures), e.Collider != nil)
		}
	}

	fmt.Printf("Objects:    %d\n", len(w.Objects))
	fmt.Printf("Placements: %d\n", len(w.Instances))
	fmt.Printf("Spawned:    %d\n", stats.Spawned)
	fmt.Printf("LOD:        %d\n", stats.LOD)
	fmt.Printf("Failed:     %d\n", stats.Failed)
	fmt.Printf("Textures:   %d decoded, %d bound\n", store.Len(), textures)
	cache := mgr.CacheStats()
	fmt.Printf("Cache:      %d files, %d hits, %d misses\n", cache.Entries, cache.Hits, cache.Misses)
	fmt.Printf("Elapsed:    %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func cmdServe(cfg *config.Config, args []string) error {
	mgr := openAssets(cfg)
	defer mgr.Close()

	format, err := export.ParseImageFormat(cfg.Export.Format)
	if err != nil {
		return err
	}

	srv := web.NewServer(mgr, cfg.Textures.Options(), logger.Log.Named("web"))
	srv.Format = format

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Serving %s on http://%s\n", cfg.Data.GameDir, cfg.Server.Addr)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
