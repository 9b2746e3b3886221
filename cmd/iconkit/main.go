package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/esimov/iconkit"
	"github.com/esimov/iconkit/canvas"
	"github.com/esimov/iconkit/catalog"
	"github.com/esimov/iconkit/config"
	"github.com/esimov/iconkit/ico"
	"github.com/esimov/iconkit/preset"
	"github.com/esimov/iconkit/utils"
)

const HelpBanner = `
┬┌─┐┌─┐┌┐┌┬┌─┬┌┬┐
││  │ ││││├┴┐│ │
┴└─┘└─┘┘└┘┴ ┴┴ ┴

Icon asset generator.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", "", "Source svg or image file, directory, URL or - for stdin")
	destination = flag.String("out", "", "Destination archive (.zip), directory or - for stdout")
	iconID      = flag.String("icon", "", "Export an icon of the -icons catalog by id")
	scene       = flag.String("canvas", "", "Export a canvas scene described in a YAML file")
	configFile  = flag.String("config", "", "TOML configuration file")
	listPresets = flag.Bool("list-presets", false, "List the export presets")
	search      = flag.String("search", "", "Search the -icons catalog")
	inspect     = flag.String("inspect", "", "Print the frames of an .ico file")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	settings := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(*configFile, nil)
	if err != nil {
		fatal("Failed to load the configuration", err)
	}
	settings.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fatal("Invalid configuration", err)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	presets := preset.Builtin()
	for _, path := range cfg.PresetFiles {
		if err := presets.LoadFile(path); err != nil {
			fatal("Failed to load the presets", err)
		}
	}

	switch {
	case *listPresets:
		printPresets(presets)
		return
	case *inspect != "":
		if err := inspectICO(*inspect); err != nil {
			fatal("Failed to inspect the icon file", err)
		}
		return
	}

	var icons *catalog.Catalog
	if cfg.IconsDir != "" {
		icons = catalog.New(cfg.IconsDir, logger)
	}
	if *search != "" {
		if icons == nil {
			fatal("Missing icon catalog", fmt.Errorf("-search requires -icons"))
		}
		for _, icon := range icons.Search(*search, 20) {
			fmt.Printf("%-40s %s\n", icon.ID, strings.Join(icon.Keywords, ", "))
		}
		return
	}

	if *source == "" && *iconID == "" && *scene == "" {
		flag.Usage()
		log.Fatal(utils.DecorateText("\nPlease provide a source with -in, -icon or -canvas!", utils.ErrorMessage))
	}
	if *destination == "" {
		*destination = pipeName
	}

	variants, ok := presets.Lookup(cfg.Preset)
	if !ok {
		fatal("Unknown preset", fmt.Errorf("%q, available: %s", cfg.Preset, strings.Join(presets.Names(), ", ")))
	}

	measurer, _ := cfg.MeasurerValue()
	background, _ := cfg.BackgroundValue()
	style := iconkit.RenderRequest{
		Background: background,
		IconColor:  cfg.Color,
		Size:       cfg.Size,
	}
	if cfg.Padding != 0 {
		pad := cfg.Padding
		style.Padding = &pad
	}

	var provider catalog.Provider
	if icons != nil {
		provider = icons
	}
	renderer := iconkit.NewRenderer(measurer, logger)
	exporter := iconkit.NewExporter(renderer, canvas.NewCompositor(provider, nil, logger), logger)
	exporter.Concurrency = cfg.Workers

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *scene != "":
		state, err := canvas.LoadStateFile(*scene)
		if err != nil {
			fatal("Failed to load the canvas scene", err)
		}
		err = exportSource(ctx, exporter, iconkit.CanvasSource{State: state}, variants, cfg)
		printStatus(*destination, err)
	case *iconID != "":
		if icons == nil {
			fatal("Missing icon catalog", fmt.Errorf("-icon requires -icons"))
		}
		icon, ok := icons.GetIconByID(*iconID)
		if !ok {
			fatal("Unknown icon", fmt.Errorf("%q", *iconID))
		}
		req := style
		req.Icon = icon
		err = exportSource(ctx, exporter, iconkit.IconSource{Request: req}, variants, cfg)
		printStatus(*destination, err)
	default:
		err := exporter.Execute(ctx, &iconkit.Ops{
			Src:      *source,
			Dst:      *destination,
			PipeName: pipeName,
			Workers:  cfg.Workers,
			Preset:   cfg.Preset,
			Variants: variants,
			Style:    style,
			Metadata: cfg.Metadata,
		})
		if err != nil {
			os.Exit(1)
		}
	}
}

// exportSource builds the assets of src and writes them to the destination.
func exportSource(ctx context.Context, e *iconkit.Exporter, src iconkit.Source, variants []preset.Variant, cfg config.Config) error {
	now := time.Now()
	spinner := utils.NewSpinner(os.Stderr, utils.Banner("exporting...", utils.DefaultMessage), 80*time.Millisecond, true)
	spinner.Start()
	defer spinner.Stop()

	assets, err := e.BuildAssets(ctx, src, variants)
	if len(assets) == 0 {
		spinner.StopMsg = utils.Banner("export failed ✘", utils.ErrorMessage)
		return err
	}
	if err != nil {
		log.Println(utils.DecorateText(fmt.Sprintf("\nSome variants failed: %v", err), utils.ErrorMessage))
	}

	var meta *iconkit.ExportMetadata
	if cfg.Metadata {
		meta = iconkit.NewExportMetadata(src, cfg.Preset, now)
	}
	switch {
	case *destination == pipeName:
		err = iconkit.WriteArchive(os.Stdout, assets, meta)
	case strings.EqualFold(filepath.Ext(*destination), ".zip"):
		var f *os.File
		if f, err = os.Create(*destination); err == nil {
			err = iconkit.WriteArchive(f, assets, meta)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}
	default:
		err = iconkit.WriteDir(*destination, assets)
	}
	if err == nil {
		spinner.StopMsg = utils.Banner(fmt.Sprintf("exported %d files in %s ✔", len(assets), utils.FormatTime(time.Since(now))), utils.SuccessMessage)
	}
	return err
}

func printPresets(presets preset.Registry) {
	for _, name := range presets.Names() {
		variants, _ := presets.Lookup(name)
		fmt.Println(utils.DecorateText(name, utils.StatusMessage))
		for _, v := range variants {
			fmt.Printf("  %-28s %4dx%-4d %-4s %s\n", v.Filename, v.Width, v.Height, v.Format, v.Description)
		}
	}
}

func inspectICO(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	entries, err := ico.Parse(data)
	if err != nil {
		return err
	}
	for i, e := range entries {
		fmt.Printf("frame %d: %dx%d %dbpp %d bytes at offset %d\n", i, e.Width, e.Height, e.BitCount, e.Size, e.Offset)
	}
	return nil
}

// printStatus displays the outcome of a single export.
func printStatus(fname string, err error) {
	if err != nil {
		fatal("Error exporting the assets", err)
	}
	if fname != pipeName {
		fmt.Fprintf(os.Stderr, "\nThe assets have been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

func fatal(msg string, err error) {
	log.Fatalf("%s %s",
		utils.DecorateText(msg+":", utils.ErrorMessage),
		utils.DecorateText(err.Error(), utils.DefaultMessage),
	)
}
