package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/libertycity/internal/assets"
	"github.com/Faultbox/libertycity/internal/export"
	"github.com/Faultbox/libertycity/internal/model"
	"github.com/Faultbox/libertycity/pkg/txd"
)

var errNotTexture = errors.New("no such texture")

// FileInfo describes one archive entry.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// TextureInfo describes one decoded texture of a dictionary.
type TextureInfo struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	seen := make(map[string]bool)
	files := []FileInfo{}
	for _, archive := range s.assets.Archives() {
		for _, e := range archive.Entries() {
			key := strings.ToLower(e.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			files = append(files, FileInfo{Name: e.Name, Size: e.ByteSize()})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	s.writeJSON(w, files)
}

func (s *Server) handleDictionary(w http.ResponseWriter, r *http.Request) {
	name := dictionaryName(mux.Vars(r)["name"])
	entries, err := s.textures.Entries(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	list := make([]TextureInfo, 0, len(entries))
	for _, h := range entries {
		if img, ok := s.textures.Image(h); ok {
			list = append(list, TextureInfo{Name: img.Name, Width: img.Width, Height: img.Height})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	s.writeJSON(w, list)
}

func (s *Server) handleTexture(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	format := s.Format
	if ext := vars["ext"]; ext != "" {
		var err error
		if format, err = export.ParseImageFormat(ext); err != nil {
			s.writeError(w, err)
			return
		}
	}

	img, err := s.texture(r, dictionaryName(vars["name"]), vars["entry"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.EncodeImage(&buf, img, format); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	s.writeResult(w, buf.Bytes())
}

func (s *Server) texture(r *http.Request, dict, entry string) (*txd.Image, error) {
	entries, err := s.textures.Entries(r.Context(), dict)
	if err != nil {
		return nil, err
	}
	h, ok := entries[strings.ToLower(entry)]
	if !ok {
		return nil, errors.Wrapf(errNotTexture, "%s#%s", dict, entry)
	}
	img, ok := s.textures.Image(h)
	if !ok {
		return nil, errors.Wrapf(errNotTexture, "%s#%s", dict, entry)
	}
	return img, nil
}

// loadModel loads a model whose textures live in the dictionary named by the
// txd query parameter, or the dictionary sharing the model's name.
func (s *Server) loadModel(r *http.Request) (*model.Model, error) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".dff")
	dict := r.URL.Query().Get("txd")
	if dict == "" {
		dict = name
	}
	data, err := s.assets.Load(name + ".dff")
	if err != nil {
		return nil, err
	}
	return model.Load(name+".dff", data, dict)
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	m, err := s.loadModel(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, m.Stats())
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	m, err := s.loadModel(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	lookup := func(ref model.TextureRef) (*txd.Image, bool) {
		img, err := s.texture(r, ref.Dictionary, ref.Name)
		if err != nil {
			s.log.Debug("texture unavailable", zap.String("texture", ref.Key()), zap.Error(err))
			return nil, false
		}
		return img, true
	}

	var buf bytes.Buffer
	if err := export.ModelGLB(&buf, m, lookup); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "model/gltf-binary")
	s.writeResult(w, buf.Bytes())
}

// handleDump writes the parsed structure of a file as text.
func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	data, err := s.assets.Load(name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Dump(&buf, name, data); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.writeResult(w, buf.Bytes())
}

func dictionaryName(name string) string {
	return strings.TrimSuffix(strings.TrimSuffix(name, ".txd"), ".TXD")
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	s.writeResult(w, data)
}

func (s *Server) writeResult(w http.ResponseWriter, data []byte) {
	if _, err := w.Write(data); err != nil {
		s.log.Warn("writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, assets.ErrNotFound), errors.Is(err, errNotTexture):
		status = http.StatusNotFound
	case errors.Is(err, export.ErrUnknownFormat), errors.Is(err, export.ErrNotDumpable):
		status = http.StatusBadRequest
	}
	s.log.Warn("request failed", zap.Int("status", status), zap.Error(err))

	data, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{err.Error()})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	s.writeResult(w, data)
}
