package canvas

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/esimov/iconkit/gradient"
	"gopkg.in/yaml.v3"
)

type stateFile struct {
	Layers          []yaml.Node `yaml:"layers"`
	SelectedLayerID string      `yaml:"selectedLayerId"`
	Background      string      `yaml:"background"`
	CanvasSize      int         `yaml:"canvasSize"`
}

// LoadState reads a scene from YAML. Each layer carries a type key (icon,
// image or text) next to its properties; properties left out keep the values
// of NewLayerBase. The background uses the CSS notation of gradient.ParseStyle.
func LoadState(r io.Reader) (*EditorState, error) {
	var f stateFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("canvas: %w", err)
	}

	state := &EditorState{
		SelectedLayerID: f.SelectedLayerID,
		CanvasSize:      f.CanvasSize,
		Layers:          make([]Layer, 0, len(f.Layers)),
	}
	if f.Background != "" {
		bg, err := gradient.ParseStyle(f.Background)
		if err != nil {
			return nil, fmt.Errorf("canvas: background: %w", err)
		}
		state.Background = bg
	}

	for i := range f.Layers {
		l, err := decodeLayer(&f.Layers[i])
		if err != nil {
			return nil, fmt.Errorf("canvas: layer %d: %w", i, err)
		}
		state.Layers = append(state.Layers, l)
	}
	return state, nil
}

// LoadStateFile reads a scene from a YAML file.
func LoadStateFile(path string) (*EditorState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadState(f)
}

func decodeLayer(node *yaml.Node) (Layer, error) {
	var kind struct {
		Type string `yaml:"type"`
	}
	if err := node.Decode(&kind); err != nil {
		return nil, err
	}

	var l Layer
	switch kind.Type {
	case "icon":
		l = &IconLayer{LayerBase: NewLayerBase("")}
	case "image":
		l = &ImageLayer{LayerBase: NewLayerBase("")}
	case "text":
		l = &TextLayer{LayerBase: NewLayerBase(""), FontSize: 64}
	default:
		return nil, fmt.Errorf("unknown layer type %q", kind.Type)
	}
	if err := node.Decode(l); err != nil {
		return nil, err
	}
	return l, nil
}
