// Package preset holds the named export presets: ordered lists of the files
// one export produces.
package preset

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtin []byte

// Format is the file format of a variant.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
	SVG  Format = "svg"
	ICO  Format = "ico"
)

// ParseFormat accepts a format name or a file extension, with or without the dot.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	case "svg":
		return SVG, nil
	case "ico":
		return ICO, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Format) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	format, err := ParseFormat(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*f = format
	return nil
}

// MIME returns the media type of the format.
func (f Format) MIME() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	case WebP:
		return "image/webp"
	case SVG:
		return "image/svg+xml"
	case ICO:
		return "image/x-icon"
	}
	return "application/octet-stream"
}

// Variant is one output file of a preset.
type Variant struct {
	Filename string `yaml:"filename"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Format   Format `yaml:"format"`
	// Quality applies to jpeg and webp only. Zero means the encoder default.
	Quality     int    `yaml:"quality,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Validate checks the variant for values no renderer can satisfy.
func (v Variant) Validate() error {
	switch {
	case v.Filename == "":
		return errors.New("variant has no filename")
	case v.Format == "":
		return fmt.Errorf("%s: missing format", v.Filename)
	case v.Quality < 0 || v.Quality > 100:
		return fmt.Errorf("%s: quality %d out of range [0, 100]", v.Filename, v.Quality)
	}
	return nil
}

// Registry maps preset names to their ordered variants.
type Registry interface {
	Lookup(name string) ([]Variant, bool)
	Names() []string
}

// Presets is a Registry built from YAML documents. Later documents override
// presets of the same name.
type Presets struct {
	mu      sync.RWMutex
	presets map[string][]Variant
}

// Builtin returns the presets shipped with the module.
func Builtin() *Presets {
	p := &Presets{presets: make(map[string][]Variant)}
	if err := p.Load(bytes.NewReader(builtin)); err != nil {
		panic(fmt.Sprintf("preset: invalid builtin presets: %v", err))
	}
	return p
}

// Load reads a YAML document mapping preset names to variant lists.
func (p *Presets) Load(r io.Reader) error {
	var doc map[string][]Variant
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("preset: %w", err)
	}
	for name, variants := range doc {
		seen := make(map[string]bool, len(variants))
		for _, v := range variants {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("preset %s: %w", name, err)
			}
			if seen[v.Filename] {
				return fmt.Errorf("preset %s: duplicate filename %s", name, v.Filename)
			}
			seen[v.Filename] = true
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.presets == nil {
		p.presets = make(map[string][]Variant)
	}
	for name, variants := range doc {
		p.presets[name] = variants
	}
	return nil
}

// LoadFile loads the presets of a YAML file.
func (p *Presets) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.Load(f)
}

// Lookup implements Registry. The returned slice is a copy.
func (p *Presets) Lookup(name string) ([]Variant, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	variants, ok := p.presets[name]
	if !ok {
		return nil, false
	}
	return append([]Variant(nil), variants...), true
}

// Names implements Registry. Names are sorted.
func (p *Presets) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := maps.Keys(p.presets)
	slices.Sort(names)
	return names
}
