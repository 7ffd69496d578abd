// Package world resolves map placements into spawnable entities: a transform,
// the model's mesh/material parts and its colliders.
package world

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/libertycity/internal/assets"
	"github.com/Faultbox/libertycity/internal/model"
	"github.com/Faultbox/libertycity/pkg/col"
	"github.com/Faultbox/libertycity/pkg/defs"
)

// Spawn errors.
var (
	ErrUnknownObject = errors.New("placement references unknown object")
	ErrSkippedLOD    = errors.New("low-detail object skipped")
	ErrNoMeshes      = errors.New("model has no meshes")
)

// DatPath is the level index loaded by default.
const DatPath = "data/gta3.dat"

// Transform places an entity in Y-up world space.
type Transform struct {
	Position mgl32.Vec3
	Scale    mgl32.Vec3
	Rotation mgl32.Quat
}

// Matrix returns the model matrix (translate * rotate * scale).
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Entity is a placed object ready to hand to a renderer and physics engine.
type Entity struct {
	ID        uint32
	Model     string
	Transform Transform
	Parts     []model.Part
	Collider  *Collider // nil without collision data

	// Textures maps "<dictionary>#<entry>" keys to decoded images.
	// Pending lists references whose dictionary is still loading; Resolve
	// moves them into Textures.
	Textures map[string]assets.Handle
	Pending  []model.TextureRef
}

// World holds the definitions of a level and spawns its placements.
type World struct {
	assets   *assets.Manager
	textures *assets.TextureStore
	log      *zap.Logger

	Objects   map[uint32]*defs.Object
	Instances []defs.Instance
	colliders map[string]*col.Record

	mu     sync.Mutex
	models map[string]*model.Model
}

// New creates an empty world backed by an asset manager. textures may be nil.
func New(mgr *assets.Manager, textures *assets.TextureStore, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		assets:    mgr,
		textures:  textures,
		log:       log,
		Objects:   make(map[uint32]*defs.Object),
		colliders: make(map[string]*col.Record),
		models:    make(map[string]*model.Model),
	}
}

// LoadDat loads a level index and every IDE, IPL and COL file it lists.
// Files that fail to load are logged and skipped.
func (w *World) LoadDat(path string) error {
	data, err := w.assets.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	dat, err := defs.ParseDat(bytes.NewReader(data), path)
	if err != nil {
		return err
	}
	for _, e := range dat.Errors {
		w.log.Warn("bad dat line", zap.Error(e))
	}

	for _, entry := range dat.Entries {
		var err error
		switch entry.Kind {
		case defs.KindIDE:
			err = w.LoadIDE(entry.Path)
		case defs.KindIPL:
			err = w.LoadIPL(entry.Path)
		case defs.KindColFile:
			err = w.LoadCOL(entry.Path)
		default:
			w.log.Debug("dat entry ignored", zap.String("kind", entry.Kind), zap.String("path", entry.Path))
		}
		if err != nil {
			w.log.Warn("definition file skipped", zap.String("path", entry.Path), zap.Error(err))
		}
	}

	w.log.Info("level loaded",
		zap.Int("objects", len(w.Objects)),
		zap.Int("instances", len(w.Instances)),
		zap.Int("colliders", len(w.colliders)))
	return nil
}

// LoadIDE merges an item definition file.
func (w *World) LoadIDE(path string) error {
	data, err := w.assets.ReadFile(path)
	if err != nil {
		return err
	}
	ide, err := defs.ParseIDE(bytes.NewReader(data), path)
	if err != nil {
		return err
	}
	w.logLineErrors(ide.Errors)
	for id, obj := range ide.Objects {
		w.Objects[id] = obj
	}
	return nil
}

// LoadIPL appends the placements of an item placement file.
func (w *World) LoadIPL(path string) error {
	data, err := w.assets.ReadFile(path)
	if err != nil {
		return err
	}
	ipl, err := defs.ParseIPL(bytes.NewReader(data), path)
	if err != nil {
		return err
	}
	w.logLineErrors(ipl.Errors)
	w.Instances = append(w.Instances, ipl.Instances...)
	return nil
}

// LoadCOL indexes the records of a collision file by model name.
func (w *World) LoadCOL(path string) error {
	data, err := w.assets.Load(path)
	if err != nil {
		return err
	}
	records, err := col.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, rec := range records {
		w.colliders[strings.ToLower(rec.Name)] = rec
	}
	return nil
}

func (w *World) logLineErrors(errs []*defs.LineError) {
	for _, e := range errs {
		w.log.Warn("bad definition line", zap.String("file", e.File), zap.Int("line", e.Line), zap.Error(e.Err))
	}
}

// Collision returns the collision record of a model.
func (w *World) Collision(name string) (*col.Record, bool) {
	rec, ok := w.colliders[strings.ToLower(name)]
	return rec, ok
}

// Spawn resolves one placement. LOD placements fail with ErrSkippedLOD.
func (w *World) Spawn(inst defs.Instance) (*Entity, error) {
	obj, ok := w.Objects[inst.ID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d (%s)", ErrUnknownObject, inst.ID, inst.Model)
	}
	if !strings.EqualFold(obj.Model, inst.Model) {
		w.log.Warn("placement name differs from definition",
			zap.Uint32("id", inst.ID), zap.String("placement", inst.Model), zap.String("definition", obj.Model))
	}
	if obj.IsLOD() || strings.HasPrefix(inst.Model, "LOD") {
		return nil, fmt.Errorf("%w: %s", ErrSkippedLOD, inst.Model)
	}

	m, err := w.model(obj)
	if err != nil {
		return nil, err
	}
	parts := m.Parts()
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMeshes, obj.Model)
	}

	e := &Entity{
		ID:    inst.ID,
		Model: obj.Model,
		Transform: Transform{
			Position: model.ToYUp(inst.Position),
			Scale:    mgl32.Vec3{inst.Scale[0], inst.Scale[2], inst.Scale[1]},
			Rotation: model.QuatToYUp(inst.Rotation),
		},
		Parts:    parts,
		Textures: make(map[string]assets.Handle),
	}
	if rec, ok := w.Collision(obj.Model); ok {
		e.Collider = NewCollider(rec)
	}

	if w.textures != nil {
		for _, p := range parts {
			if p.Material == nil || p.Material.Texture == nil {
				continue
			}
			ref := *p.Material.Texture
			if h, ready := w.textures.Request(ref.Dictionary, ref.Name); ready {
				e.Textures[ref.Key()] = h
			} else {
				e.Pending = append(e.Pending, ref)
			}
		}
	}
	return e, nil
}

// Resolve waits for the entity's pending dictionaries and patches the loaded
// images into Textures. References that cannot load are logged and dropped so
// the renderer falls back to its placeholder. On cancellation the unresolved
// references stay pending.
func (w *World) Resolve(ctx context.Context, e *Entity) error {
	if w.textures == nil {
		return nil
	}
	for i, ref := range e.Pending {
		err := w.textures.Await(ctx, ref.Dictionary)
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.Pending = e.Pending[i:]
			return ctxErr
		}
		if err != nil {
			w.log.Warn("texture unavailable", zap.String("texture", ref.Key()), zap.Error(err))
			continue
		}
		h, ok := w.textures.Request(ref.Dictionary, ref.Name)
		if !ok {
			w.log.Warn("texture missing from dictionary", zap.String("texture", ref.Key()))
			continue
		}
		e.Textures[ref.Key()] = h
	}
	e.Pending = nil
	return nil
}

// model loads and caches the model of an object definition.
func (w *World) model(obj *defs.Object) (*model.Model, error) {
	key := strings.ToLower(obj.Model)

	w.mu.Lock()
	m, ok := w.models[key]
	w.mu.Unlock()
	if ok {
		return m, nil
	}

	name := obj.Model + ".dff"
	data, err := w.assets.Load(name)
	if err != nil {
		return nil, err
	}
	m, err = model.Load(name, data, obj.TXD)
	if err != nil {
		return nil, err
	}
	for _, g := range m.Geometries {
		for _, p := range g.Parts {
			if p.Err != nil {
				w.log.Warn("material unresolved", zap.String("model", name), zap.Error(p.Err))
			}
		}
	}

	w.mu.Lock()
	w.models[key] = m
	w.mu.Unlock()
	return m, nil
}

// SpawnStats counts the outcome of SpawnAll.
type SpawnStats struct {
	Spawned int
	LOD     int
	Failed  int
}

// SpawnAll spawns every loaded placement, logging and counting failures.
func (w *World) SpawnAll(ctx context.Context) ([]*Entity, SpawnStats, error) {
	var entities []*Entity
	var stats SpawnStats
	for _, inst := range w.Instances {
		if err := ctx.Err(); err != nil {
			return entities, stats, err
		}
		e, err := w.Spawn(inst)
		switch {
		case err == nil:
			entities = append(entities, e)
			stats.Spawned++
		case errors.Is(err, ErrSkippedLOD):
			stats.LOD++
			w.log.Debug("skipping LOD", zap.String("model", inst.Model))
		default:
			stats.Failed++
			w.log.Warn("spawn failed", zap.String("model", inst.Model), zap.Error(err))
		}
	}
	return entities, stats, nil
}
