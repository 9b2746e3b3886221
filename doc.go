/*
Package iconkit renders icons, and scenes composed of icons, images and text,
into sets of ready to ship assets: favicons, app icons, store logos and the like.

An icon is an SVG document drawn centered on a square artboard over a solid or
gradient background. A preset names the files to produce, each with its own
size and format (svg, png, jpeg, webp or ico). The assets of a preset are built
concurrently and can be packed into a zip archive together with a metadata file.

The package provides a command line interface. To check the supported flags type:

	$ iconkit --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/esimov/iconkit"
		"github.com/esimov/iconkit/canvas"
		"github.com/esimov/iconkit/gradient"
		"github.com/esimov/iconkit/preset"
	)

	func main() {
		data, err := os.ReadFile("logo.svg")
		if err != nil {
			log.Fatal(err)
		}
		icon, err := iconkit.IconFromBytes("logo", data)
		if err != nil {
			log.Fatal(err)
		}

		r := iconkit.NewRenderer(nil, nil)
		e := iconkit.NewExporter(r, canvas.NewCompositor(nil, nil, nil), nil)

		variants, _ := preset.Builtin().Lookup("favicon")
		assets, err := e.BuildAssets(context.Background(), iconkit.IconSource{
			Request: iconkit.RenderRequest{
				Icon:       icon,
				Background: gradient.Solid("#336699"),
				IconColor:  "#ffffff",
				Size:       100,
			},
		}, variants)
		if err != nil {
			log.Fatal(err)
		}

		out, _ := os.Create("favicon.zip")
		defer out.Close()
		if err := iconkit.WriteArchive(out, assets, nil); err != nil {
			log.Fatal(err)
		}
	}
*/
package iconkit
