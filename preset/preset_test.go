package preset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets_Builtin(t *testing.T) {
	assert := assert.New(t)
	p := Builtin()

	assert.Equal([]string{"android", "favicon", "ios", "web", "zendesk"}, p.Names())

	favicon, ok := p.Lookup("favicon")
	require.True(t, ok)
	require.NotEmpty(t, favicon)
	assert.Equal(Variant{
		Filename:    "favicon.ico",
		Width:       32,
		Height:      32,
		Format:      ICO,
		Description: "Multi-size favicon (16x16 and 32x32)",
	}, favicon[0])

	web, ok := p.Lookup("web")
	require.True(t, ok)
	assert.Equal(JPEG, web[3].Format)
	assert.Equal(85, web[3].Quality)

	for _, name := range p.Names() {
		variants, _ := p.Lookup(name)
		seen := map[string]bool{}
		for _, v := range variants {
			assert.NoError(v.Validate())
			assert.False(seen[v.Filename], "%s: duplicate %s", name, v.Filename)
			seen[v.Filename] = true
		}
	}

	_, ok = p.Lookup("missing")
	assert.False(ok)
}

func TestPresets_LookupReturnsCopy(t *testing.T) {
	p := Builtin()
	a, _ := p.Lookup("web")
	a[0].Filename = "changed.png"

	b, _ := p.Lookup("web")
	assert.Equal(t, "icon-192.png", b[0].Filename)
}

func TestPresets_LoadOverrides(t *testing.T) {
	assert := assert.New(t)
	p := Builtin()

	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
web:
  - filename: only.jpg
    width: 64
    height: 64
    format: JPG
custom:
  - filename: banner.webp
    width: 300
    height: 100
    format: .webp
`), 0644))
	require.NoError(t, p.LoadFile(path))

	web, ok := p.Lookup("web")
	require.True(t, ok)
	assert.Equal([]Variant{{Filename: "only.jpg", Width: 64, Height: 64, Format: JPEG}}, web)

	custom, ok := p.Lookup("custom")
	require.True(t, ok)
	assert.Equal(WebP, custom[0].Format)
	assert.Contains(p.Names(), "custom")
}

func TestPresets_LoadRejectsInvalid(t *testing.T) {
	testCases := map[string]string{
		"unknown format": "x:\n  - {filename: a.gif, width: 1, height: 1, format: gif}\n",
		"duplicate":      "x:\n  - {filename: a.png, format: png}\n  - {filename: a.png, format: png}\n",
		"no filename":    "x:\n  - {format: png}\n",
		"bad quality":    "x:\n  - {filename: a.jpg, format: jpeg, quality: 101}\n",
	}
	for name, doc := range testCases {
		t.Run(name, func(t *testing.T) {
			p := &Presets{}
			assert.Error(t, p.Load(strings.NewReader(doc)))
			assert.Empty(t, p.Names())
		})
	}
	assert.NoError(t, (&Presets{}).Load(strings.NewReader("")))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"png": PNG, ".JPG": JPEG, "jpeg": JPEG, "webp": WebP, "svg": SVG, "ico": ICO} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("gif")
	assert.Error(t, err)
	assert.Equal(t, "image/x-icon", ICO.MIME())
}
