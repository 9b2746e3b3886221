package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// PackManifest is the optional pack.yaml file of a pack directory.
type PackManifest struct {
	Name  string                  `yaml:"name"`
	Icons map[string]IconManifest `yaml:"icons"`
}

// IconManifest holds the per icon metadata that cannot be read from the markup.
type IconManifest struct {
	Name               string   `yaml:"name"`
	Keywords           []string `yaml:"keywords"`
	AllowColorOverride *bool    `yaml:"allowColorOverride"`
}

const manifestFile = "pack.yaml"

// minScore is the lowest similarity a search hit may have.
const minScore = 0.75

// Catalog serves icons from a directory tree laid out as <root>/<pack>/<icon>.svg.
// Icon ids have the form "<pack>/<icon>". The tree is read lazily on the
// first lookup and cached until Invalidate is called.
type Catalog struct {
	root   string
	logger *slog.Logger

	mu     sync.RWMutex
	icons  map[string]*IconMetadata
	ids    []string
	loaded bool
}

// New returns a catalog rooted at dir. A nil logger means slog.Default().
func New(dir string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{root: dir, logger: logger}
}

// GetIconByID implements Provider.
func (c *Catalog) GetIconByID(id string) (*IconMetadata, bool) {
	if err := c.ensure(); err != nil {
		c.logger.Warn("catalog unavailable", "root", c.root, "error", err)
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	icon, ok := c.icons[id]
	return icon, ok
}

// Icons returns every icon sorted by id.
func (c *Catalog) Icons() ([]*IconMetadata, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*IconMetadata, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.icons[id])
	}
	return out, nil
}

// Search ranks icons by how closely their name or one of their keywords
// matches query. Substring matches rank first, the remaining hits by
// Jaro-Winkler similarity; ties are broken by id. A limit of zero or less
// returns every hit.
func (c *Catalog) Search(query string, limit int) []*IconMetadata {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	if err := c.ensure(); err != nil {
		c.logger.Warn("catalog unavailable", "root", c.root, "error", err)
		return nil
	}

	metric := metrics.NewJaroWinkler()
	metric.CaseSensitive = false

	type hit struct {
		icon  *IconMetadata
		score float64
	}
	var hits []hit

	c.mu.RLock()
	for _, id := range c.ids {
		icon := c.icons[id]
		best := 0.0
		for _, term := range append([]string{icon.Name}, icon.Keywords...) {
			term = strings.ToLower(term)
			score := strutil.Similarity(query, term, metric)
			if strings.Contains(term, query) {
				score = 1 + float64(len(query))/float64(len(term))
			}
			best = max(best, score)
		}
		if best >= minScore {
			hits = append(hits, hit{icon, best})
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].icon.ID < hits[j].icon.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]*IconMetadata, len(hits))
	for i, h := range hits {
		out[i] = h.icon
	}
	return out
}

// Invalidate drops the cached tree. The next lookup reads it again.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.icons, c.ids, c.loaded = nil, nil, false
	c.mu.Unlock()
}

// Watch invalidates the catalog whenever a file below the root is created,
// written, removed or renamed. It blocks until ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: cannot create watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog: cannot watch %s: %w", c.root, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						c.logger.Warn("catalog: cannot watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			c.logger.Debug("catalog changed", "path", event.Name, "op", event.Op.String())
			c.Invalidate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("catalog watcher error", "error", err)
		}
	}
}

func (c *Catalog) ensure() error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}
	icons, err := c.load()
	if err != nil {
		return err
	}
	c.icons = icons
	c.ids = make([]string, 0, len(icons))
	for id := range icons {
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)
	c.loaded = true
	return nil
}

func (c *Catalog) load() (map[string]*IconMetadata, error) {
	packs, err := os.ReadDir(c.root)
	if err != nil {
		return nil, err
	}
	icons := make(map[string]*IconMetadata)
	for _, pack := range packs {
		if !pack.IsDir() {
			continue
		}
		dir := filepath.Join(c.root, pack.Name())
		manifest, err := readManifest(filepath.Join(dir, manifestFile))
		if err != nil {
			return nil, err
		}
		packName := pack.Name()
		if manifest.Name != "" {
			packName = manifest.Name
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".svg") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				c.logger.Warn("catalog: skipping unreadable icon", "path", e.Name(), "error", err)
				continue
			}
			base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			im := manifest.Icons[base]
			icon := &IconMetadata{
				ID:                 pack.Name() + "/" + base,
				Name:               base,
				Pack:               packName,
				Keywords:           im.Keywords,
				SVG:                string(data),
				IsRasterized:       strings.Contains(string(data), "<image"),
				AllowColorOverride: im.AllowColorOverride,
			}
			if im.Name != "" {
				icon.Name = im.Name
			}
			icons[icon.ID] = icon
		}
	}
	return icons, nil
}

func readManifest(path string) (PackManifest, error) {
	var m PackManifest
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("catalog: invalid manifest %s: %w", path, err)
	}
	return m, nil
}
