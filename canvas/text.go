package canvas

import (
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Font families available to text layers. Any other family falls back to
// DefaultFamily.
const (
	DefaultFamily = "Go"
	MonoFamily    = "Go Mono"
)

// faces indexed by bold<<1 | italic
var families = map[string][4][]byte{
	DefaultFamily: {goregular.TTF, goitalic.TTF, gobold.TTF, gobolditalic.TTF},
	MonoFamily:    {gomono.TTF, gomonoitalic.TTF, gomonobold.TTF, gomonobolditalic.TTF},
}

var (
	fontMu    sync.Mutex
	fontCache = map[string]*opentype.Font{}
)

func lookupFont(family string, bold, italic bool) (*opentype.Font, error) {
	ttfs, ok := families[family]
	if !ok {
		ttfs, ok = families[normalizeFamily(family)]
	}
	if !ok {
		family = DefaultFamily
		ttfs = families[DefaultFamily]
	}
	idx := 0
	if bold {
		idx |= 2
	}
	if italic {
		idx |= 1
	}
	key := family + "/" + string(rune('0'+idx))

	fontMu.Lock()
	defer fontMu.Unlock()
	if f, ok := fontCache[key]; ok {
		return f, nil
	}
	f, err := opentype.Parse(ttfs[idx])
	if err != nil {
		return nil, err
	}
	fontCache[key] = f
	return f, nil
}

// normalizeFamily matches family names written without the space or in a
// different case, like "gomono" or "go mono".
func normalizeFamily(family string) string {
	switch strings.ToLower(strings.ReplaceAll(family, " ", "")) {
	case "go", "goregular":
		return DefaultFamily
	case "gomono", "monospace":
		return MonoFamily
	}
	return ""
}

// newFace returns a face of the layer's font at size pixels.
func newFace(l *TextLayer, size float64) (font.Face, error) {
	f, err := lookupFont(l.FontFamily, l.Bold, l.Italic)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}
