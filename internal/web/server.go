// Package web serves a browser API over the game files: archive listings,
// texture dictionaries as images, models as GLB and raw chunk dumps.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Faultbox/libertycity/internal/assets"
	"github.com/Faultbox/libertycity/internal/export"
	"github.com/Faultbox/libertycity/pkg/txd"
)

// Server handles browser requests against an asset manager.
type Server struct {
	assets   *assets.Manager
	textures *assets.TextureStore
	log      *zap.Logger

	// Format is the image format used when a request names none.
	Format export.ImageFormat
}

// NewServer creates a server. Texture dictionaries are decoded with opts.
func NewServer(mgr *assets.Manager, opts txd.Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		assets:   mgr,
		textures: assets.NewTextureStore(mgr.Load, opts, log),
		log:      log,
		Format:   export.PNG,
	}
}

// Router returns the request router without middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/files", s.handleFiles).Methods(http.MethodGet)
	r.HandleFunc("/api/txd/{name}", s.handleDictionary).Methods(http.MethodGet)
	r.HandleFunc("/api/model/{name}", s.handleModelInfo).Methods(http.MethodGet)
	r.HandleFunc("/txd/{name}/{entry}.{ext:png|bmp|tga|webp}", s.handleTexture).Methods(http.MethodGet)
	r.HandleFunc("/txd/{name}/{entry}", s.handleTexture).Methods(http.MethodGet)
	r.HandleFunc("/model/{name}.glb", s.handleModel).Methods(http.MethodGet)
	r.HandleFunc("/dump/{name}", s.handleDump).Methods(http.MethodGet)
	return r
}

// Handler returns the router wrapped with panic recovery and access logging.
func (s *Server) Handler() http.Handler {
	accessLog := zap.NewStdLog(s.log.Named("http")).Writer()
	var h http.Handler = s.Router()
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.log)))(h)
	return handlers.LoggingHandler(accessLog, h)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
