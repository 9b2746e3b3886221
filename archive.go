package iconkit

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/esimov/iconkit/canvas"
	"github.com/esimov/iconkit/gradient"
)

// MetadataFilename is the name of the archive's metadata sidecar.
const MetadataFilename = "export-metadata.json"

// ExportMetadata documents how an archive was produced. It is written for
// people and never read back.
type ExportMetadata struct {
	ExportedAt time.Time `json:"exportedAt"`
	Preset     string    `json:"preset,omitempty"`
	IconID     string    `json:"iconId,omitempty"`
	IconName   string    `json:"iconName,omitempty"`
	Background string    `json:"background,omitempty"`
	IconColor  string    `json:"iconColor,omitempty"`
	Size       float64   `json:"size,omitempty"`
	Padding    *float64  `json:"padding,omitempty"`
	Layers     int       `json:"layers,omitempty"`
	Files      []string  `json:"files"`
}

// NewExportMetadata describes an export of src with the named preset.
func NewExportMetadata(src Source, presetName string, at time.Time) *ExportMetadata {
	meta := &ExportMetadata{ExportedAt: at.UTC(), Preset: presetName}
	switch src := src.(type) {
	case IconSource:
		req := src.Request
		if req.Icon != nil {
			meta.IconID = req.Icon.ID
			meta.IconName = req.Icon.Name
		}
		if req.Background != nil {
			meta.Background = gradient.StyleString(req.Background)
		}
		meta.IconColor = req.iconColor()
		meta.Size = req.Size
		meta.Padding = req.Padding
	case CanvasSource:
		if src.State != nil {
			meta.Layers = visibleLayers(src.State)
			if src.State.Background != nil {
				meta.Background = gradient.StyleString(src.State.Background)
			}
		}
	}
	return meta
}

func visibleLayers(s *canvas.EditorState) int {
	n := 0
	for _, l := range s.Layers {
		if l.Base().Visible {
			n++
		}
	}
	return n
}

// WriteArchive writes assets as a ZIP archive in filename order, followed by
// the metadata sidecar when meta is not nil.
func WriteArchive(w io.Writer, assets Assets, meta *ExportMetadata) error {
	zw := zip.NewWriter(w)

	var modified time.Time
	if meta != nil {
		modified = meta.ExportedAt
	}
	names := assets.Filenames()
	for _, name := range names {
		if err := writeEntry(zw, name, assets[name], modified); err != nil {
			return err
		}
	}

	if meta != nil {
		m := *meta
		m.Files = names
		data, err := json.MarshalIndent(&m, "", "  ")
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		if err := writeEntry(zw, MetadataFilename, data, modified); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeEntry(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	f, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("archive: %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("archive: %s: %w", name, err)
	}
	return nil
}

// WriteDir writes every asset as a file of dir, creating dir when needed.
func WriteDir(dir string, assets Assets) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, name := range assets.Filenames() {
		if err := os.WriteFile(filepath.Join(dir, filepath.Base(name)), assets[name], 0644); err != nil {
			return err
		}
	}
	return nil
}
