// Package assets handles game asset loading and caching.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/libertycity/pkg/encoding"
	"github.com/Faultbox/libertycity/pkg/img"
)

// ErrNotFound is returned when no archive or directory holds a requested file.
var ErrNotFound = errors.New("asset not found")

// Manager loads files from .img archives and from the game directory.
// Lookups are case-insensitive throughout.
type Manager struct {
	root     string
	archives []*img.Archive
	cache    *Cache
	log      *zap.Logger
	mu       sync.RWMutex
}

// NewManager creates a new asset manager rooted at the game directory.
func NewManager(root string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		root:  root,
		cache: NewCache(),
		log:   log,
	}
}

// Root returns the game directory.
func (m *Manager) Root() string {
	return m.root
}

// AddArchive opens an archive given relative to the game directory.
// Archives are searched in reverse order (last added = highest priority).
func (m *Manager) AddArchive(rel string) error {
	p, err := m.Resolve(rel)
	if err != nil {
		return err
	}
	archive, err := img.Open(p)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", rel, err)
	}

	m.mu.Lock()
	m.archives = append(m.archives, archive)
	m.mu.Unlock()

	m.log.Info("archive added", zap.String("path", p), zap.Int("entries", archive.Len()))
	return nil
}

// Archives returns the opened archives in priority order, highest first.
func (m *Manager) Archives() []*img.Archive {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*img.Archive, 0, len(m.archives))
	for i := len(m.archives) - 1; i >= 0; i-- {
		result = append(result, m.archives[i])
	}
	return result
}

// Load loads a file. Bare .dff and .txd names are looked up in the archives
// first, then under models/ (and txd/ for dictionaries). Anything else is a
// path relative to the game directory.
func (m *Manager) Load(name string) ([]byte, error) {
	key := encoding.NormalizePath(name)
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	data, err := m.load(encoding.ToSlash(name))
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, data)
	return data, nil
}

func (m *Manager) load(name string) ([]byte, error) {
	ext := strings.ToLower(path.Ext(name))
	bare := !strings.Contains(name, "/")

	if bare && (ext == ".dff" || ext == ".txd" || ext == ".col") {
		if data, ok := m.fromArchives(name); ok {
			return data, nil
		}

		candidates := []string{path.Join("models", name)}
		if ext == ".txd" {
			candidates = []string{path.Join("txd", name), path.Join("models", name)}
		}
		for _, c := range candidates {
			if data, err := m.ReadFile(c); err == nil {
				return data, nil
			}
		}
	}

	return m.ReadFile(name)
}

func (m *Manager) fromArchives(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.archives) - 1; i >= 0; i-- {
		data, err := m.archives[i].ReadFold(name)
		if err == nil {
			return data, true
		}
		if !errors.Is(err, img.ErrEntryNotFound) {
			m.log.Warn("archive read failed", zap.String("name", name), zap.Error(err))
		}
	}
	return nil, false
}

// ReadFile reads a file relative to the game directory, ignoring case.
func (m *Manager) ReadFile(rel string) ([]byte, error) {
	p, err := m.Resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Resolve finds the on-disk path of a game-relative path by matching each
// component case-insensitively. Backslashes are accepted as separators.
func (m *Manager) Resolve(rel string) (string, error) {
	matched := m.root
	for _, elem := range strings.Split(encoding.ToSlash(rel), "/") {
		if elem == "" || elem == "." {
			continue
		}
		entries, err := os.ReadDir(matched)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		found := ""
		for _, e := range entries {
			if strings.EqualFold(e.Name(), elem) {
				found = e.Name()
				break
			}
		}
		if found == "" {
			return "", fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		matched = filepath.Join(matched, found)
	}
	return matched, nil
}

// CacheStats describes the byte cache of a Manager.
type CacheStats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// CacheStats returns the number of cached files and the hit and miss counts.
func (m *Manager) CacheStats() CacheStats {
	hits, misses := m.cache.Stats()
	return CacheStats{Entries: m.cache.Len(), Hits: hits, Misses: misses}
}

// Close closes all archives.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, archive := range m.archives {
		archive.Close()
	}
	m.archives = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
