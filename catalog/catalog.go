// Package catalog provides icon metadata to the renderers. The renderers only
// ever need a read-only lookup by id, expressed by Provider; Catalog is a
// filesystem backed implementation with search and live invalidation.
package catalog

// IconMetadata describes one icon of a pack. Values are shared between
// goroutines and must not be mutated once handed out.
type IconMetadata struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Pack     string   `yaml:"pack" json:"pack"`
	Keywords []string `yaml:"keywords" json:"keywords,omitempty"`
	SVG      string   `yaml:"-" json:"-"`
	// IsRasterized marks markup that is really an embedded raster image.
	IsRasterized bool `yaml:"rasterized" json:"isRasterized,omitempty"`
	// AllowColorOverride set to false forbids recoloring. Nil means allowed.
	AllowColorOverride *bool `yaml:"allowColorOverride" json:"allowColorOverride,omitempty"`
}

// ColorOverrideAllowed reports whether the icon may be recolored.
func (m *IconMetadata) ColorOverrideAllowed() bool {
	return m.AllowColorOverride == nil || *m.AllowColorOverride
}

// Provider looks icons up by id. Implementations must be safe for
// concurrent use and free of side effects.
type Provider interface {
	GetIconByID(id string) (*IconMetadata, bool)
}

// Searcher is a Provider that can also rank icons against a free text query.
type Searcher interface {
	Provider
	Search(query string, limit int) []*IconMetadata
}

// Static is an in-memory Provider keyed by icon id.
type Static map[string]*IconMetadata

// NewStatic indexes icons by their id.
func NewStatic(icons ...*IconMetadata) Static {
	s := make(Static, len(icons))
	for _, icon := range icons {
		s[icon.ID] = icon
	}
	return s
}

// GetIconByID implements Provider.
func (s Static) GetIconByID(id string) (*IconMetadata, bool) {
	icon, ok := s[id]
	return icon, ok
}
