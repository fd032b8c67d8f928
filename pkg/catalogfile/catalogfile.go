// Package catalogfile reads library catalogs from YAML or JSON files.
//
// A catalog file lists items:
//
//	items:
//	  - unique_id: sword-01
//	    resources:
//	      - id: meshes/sword.glb
//	        bundles: [lod0, lod1]
//	    descriptors:
//	      weapon: 1
//	      rarity: 3.5
//
// Files ending in .json are decoded as JSON, everything else as YAML.
package catalogfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/assetstream/pkg/catalog"
)

// Format is the encoding of a catalog file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrInvalidCatalog is wrapped by every decoding and validation failure.
var ErrInvalidCatalog = errors.New("catalogfile: invalid catalog")

// File is the on-disk catalog document.
type File struct {
	Items []ItemSpec `json:"items" yaml:"items" validate:"required,min=1,dive" jsonschema:"required,minItems=1,description=Items of the library"`
}

// ItemSpec is one item of a catalog file.
type ItemSpec struct {
	UniqueID    string                `json:"unique_id,omitempty" yaml:"unique_id,omitempty" jsonschema:"description=Identifier used to target the item by id. Duplicates are allowed; lookups pick the first in sorted order"`
	Resources   []catalog.ResourceRef `json:"resources" yaml:"resources" validate:"required,min=1,dive" jsonschema:"required,minItems=1"`
	Descriptors map[string]float64    `json:"descriptors,omitempty" yaml:"descriptors,omitempty" validate:"dive,keys,required,endkeys" jsonschema:"description=Tags the item carries with their sort weights"`
}

var validate = validator.New()

// FormatOf picks the format from a file extension.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Decode reads a catalog document from r.
func Decode(r io.Reader, format Format) (*File, error) {
	var f File
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: empty document", ErrInvalidCatalog)
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
	default:
		return nil, fmt.Errorf("catalogfile: unsupported format %q", format)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Parse decodes a catalog document held in memory.
func Parse(data []byte, format Format) (*File, error) {
	return Decode(bytes.NewReader(data), format)
}

// Load reads and validates the catalog at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalogfile: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	file, err := Decode(f, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Validate checks the document's structural rules.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	for i, it := range f.Items {
		for j, ref := range it.Resources {
			if ref.ID == "" {
				return fmt.Errorf("%w: items[%d].resources[%d]: empty id", ErrInvalidCatalog, i, j)
			}
		}
	}
	return nil
}

// CatalogItems converts the document into catalog items, preserving order.
func (f *File) CatalogItems() []catalog.Item {
	items := make([]catalog.Item, len(f.Items))
	for i, spec := range f.Items {
		desc := make(map[catalog.Tag]float64, len(spec.Descriptors))
		for tag, weight := range spec.Descriptors {
			desc[catalog.Tag(tag)] = weight
		}
		items[i] = catalog.Item{
			UniqueID:    spec.UniqueID,
			Resources:   spec.Resources,
			Descriptors: desc,
		}
	}
	return items
}

// FromItems builds a document from catalog items. Observers are dropped.
func FromItems(items []catalog.Item) *File {
	f := &File{Items: make([]ItemSpec, len(items))}
	for i, it := range items {
		desc := make(map[string]float64, len(it.Descriptors))
		for tag, weight := range it.Descriptors {
			desc[string(tag)] = weight
		}
		f.Items[i] = ItemSpec{UniqueID: it.UniqueID, Resources: it.Resources, Descriptors: desc}
	}
	return f
}
