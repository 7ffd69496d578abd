package assets

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/libertycity/pkg/txd"
)

// LoadFunc returns the raw bytes of a named file.
type LoadFunc func(name string) ([]byte, error)

// TextureStore decodes texture dictionaries on demand in the background and
// hands out image handles. Requests never block: a miss starts the load and
// the caller patches its material once Await reports the dictionary ready.
type TextureStore struct {
	load   LoadFunc
	opts   txd.Options
	log    *zap.Logger
	images *Table[*txd.Image]

	mu    sync.Mutex
	dicts map[string]*dictLoad
}

type dictLoad struct {
	done    chan struct{}
	handles map[string]Handle
	err     error
}

// NewTextureStore creates a store that reads "<name>.txd" files through load.
func NewTextureStore(load LoadFunc, opts txd.Options, log *zap.Logger) *TextureStore {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = log
	}
	return &TextureStore{
		load:   load,
		opts:   opts,
		log:    log,
		images: NewTable[*txd.Image](),
		dicts:  make(map[string]*dictLoad),
	}
}

// Request returns the handle of a dictionary entry if its dictionary has
// loaded. Otherwise it starts loading the dictionary and returns false.
func (s *TextureStore) Request(dict, entry string) (Handle, bool) {
	d := s.start(dict)
	select {
	case <-d.done:
		h, ok := d.handles[strings.ToLower(entry)]
		return h, ok
	default:
		return Handle{}, false
	}
}

// Await blocks until the dictionary has finished loading or ctx is done.
func (s *TextureStore) Await(ctx context.Context, dict string) error {
	d := s.start(dict)
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries waits for a dictionary and returns its handles keyed by lower-cased
// entry name. The map must not be modified.
func (s *TextureStore) Entries(ctx context.Context, dict string) (map[string]Handle, error) {
	if err := s.Await(ctx, dict); err != nil {
		return nil, err
	}
	return s.start(dict).handles, nil
}

// Image returns the decoded image of a handle.
func (s *TextureStore) Image(h Handle) (*txd.Image, bool) {
	return s.images.Get(h)
}

// Len returns the number of decoded images held.
func (s *TextureStore) Len() int {
	return s.images.Len()
}

func (s *TextureStore) start(dict string) *dictLoad {
	key := strings.ToLower(dict)

	s.mu.Lock()
	d, ok := s.dicts[key]
	if !ok {
		d = &dictLoad{done: make(chan struct{})}
		s.dicts[key] = d
	}
	s.mu.Unlock()

	if !ok {
		go s.decode(key, d)
	}
	return d
}

func (s *TextureStore) decode(name string, d *dictLoad) {
	defer close(d.done)

	data, err := s.load(name + ".txd")
	if err != nil {
		d.err = err
		s.log.Warn("texture dictionary unavailable", zap.String("txd", name), zap.Error(err))
		return
	}
	dict, err := txd.Decode(name, data, s.opts)
	if err != nil {
		d.err = err
		s.log.Warn("texture dictionary failed to decode", zap.String("txd", name), zap.Error(err))
		return
	}

	d.handles = make(map[string]Handle, dict.Len())
	for key, image := range dict.Images {
		d.handles[key] = s.images.Insert(image)
	}
	s.log.Debug("texture dictionary loaded", zap.String("txd", name), zap.Int("images", dict.Len()))
}
