package txd

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/libertycity/pkg/rw"
)

// Dictionary is a decoded texture dictionary keyed by lower-cased raster name.
type Dictionary struct {
	Name   string
	Images map[string]*Image
	Order  []string // Keys in file order

	// Skipped holds per-raster failures when Options.SkipInvalid is set.
	Skipped map[string]error
}

// Get looks up an image by name, ignoring case.
func (d *Dictionary) Get(name string) (*Image, bool) {
	img, ok := d.Images[strings.ToLower(name)]
	return img, ok
}

// Len returns the number of decoded images.
func (d *Dictionary) Len() int {
	return len(d.Images)
}

// Key builds the resource key of one dictionary entry.
func Key(dict, entry string) string {
	return dict + "#" + strings.ToLower(entry)
}

// Decode parses and decodes a .txd file. name is recorded on the result.
func Decode(name string, data []byte, opts Options) (*Dictionary, error) {
	root, err := rw.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	dict, err := DecodeDictionary(root, opts)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	dict.Name = name
	return dict, nil
}

// DecodeDictionary decodes every raster under a texture dictionary root.
// The first child (dictionary metadata) is skipped and extension children are
// logged and ignored. Without SkipInvalid the first bad raster fails the whole
// dictionary.
func DecodeDictionary(root *rw.Chunk, opts Options) (*Dictionary, error) {
	if root.Type() != rw.TypeTextureDictionary {
		return nil, fmt.Errorf("%w: root is %s", ErrInvalidContainer, root.Type())
	}
	log := opts.logger()

	dict := &Dictionary{Images: make(map[string]*Image)}
	for i, child := range root.Children {
		if i == 0 {
			continue
		}

		switch child.Type() {
		case rw.TypeRaster:
		case rw.TypeExtension:
			log.Debug("skipping dictionary extension", zap.Int("index", i))
			continue
		default:
			log.Warn("unexpected chunk in texture dictionary",
				zap.Int("index", i), zap.Stringer("type", child.Type()))
			continue
		}

		raster := child.Content.(*rw.Raster)
		key := strings.ToLower(raster.Name)

		img, err := DecodeRaster(raster, opts)
		if err != nil {
			if !opts.SkipInvalid {
				return nil, err
			}
			log.Warn("skipping raster", zap.String("name", raster.Name), zap.Error(err))
			if dict.Skipped == nil {
				dict.Skipped = make(map[string]error)
			}
			dict.Skipped[key] = err
			continue
		}

		if _, dup := dict.Images[key]; dup {
			log.Debug("duplicate raster name, keeping last", zap.String("name", raster.Name))
		} else {
			dict.Order = append(dict.Order, key)
		}
		dict.Images[key] = img
	}

	return dict, nil
}
