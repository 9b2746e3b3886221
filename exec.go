package iconkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/esimov/iconkit/catalog"
	"github.com/esimov/iconkit/preset"
	"github.com/esimov/iconkit/utils"
	"golang.org/x/term"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// Ops describes a command line export run.
type Ops struct {
	// Src is an svg or image file, a directory of svg files, a URL or PipeName.
	Src, Dst, PipeName string
	// Workers is the number of icons of a directory exported concurrently.
	Workers int
	Preset  string
	// Variants are the files produced for every icon.
	Variants []preset.Variant
	// Style is applied to every icon. Its Icon field is ignored.
	Style RenderRequest
	// Metadata adds the metadata sidecar to archives.
	Metadata bool
	// Out receives the status lines. Nil means os.Stderr.
	Out io.Writer
}

// result holds the outcome of exporting one source file.
type result struct {
	path string
	err  error
}

func (op *Ops) out() io.Writer {
	if op.Out == nil {
		return os.Stderr
	}
	return op.Out
}

// Execute runs the export described by op. A directory source exports every
// svg file below it concurrently, writing one archive per icon into Dst.
// Any other source exports a single icon: a Dst ending in .zip, or PipeName,
// receives an archive, and any other Dst is used as an output directory.
func (e *Exporter) Execute(ctx context.Context, op *Ops) error {
	now := time.Now()

	if op.Src != op.PipeName && !utils.IsValidUrl(op.Src) {
		fi, err := os.Stat(op.Src)
		if err != nil {
			return fmt.Errorf("failed to load the source: %w", err)
		}
		if fi.IsDir() {
			return e.executeDir(ctx, op, now)
		}
	}

	spinner := utils.NewSpinner(op.out(), utils.Banner("exporting icon...", utils.DefaultMessage), 80*time.Millisecond, true)
	spinner.Start()
	err := e.exportFile(ctx, op, op.Src, op.Dst)
	if err != nil {
		spinner.StopMsg = utils.Banner("export failed ✘", utils.ErrorMessage)
	} else {
		spinner.StopMsg = utils.Banner("the assets have been exported ✔", utils.SuccessMessage)
	}
	spinner.Stop()

	op.printOpStatus(op.Dst, err)
	if err != nil {
		return err
	}
	fmt.Fprintf(op.out(), "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	return nil
}

func (e *Exporter) executeDir(ctx context.Context, op *Ops, now time.Time) error {
	if err := os.MkdirAll(op.Dst, 0755); err != nil {
		return fmt.Errorf("unable to create the destination directory: %w", err)
	}

	workers := op.Workers
	// Limit the concurrently running workers to maxWorkers.
	if workers <= 0 || workers > maxWorkers {
		workers = runtime.NumCPU()
	}

	ch := make(chan result)
	done := make(chan struct{})
	defer close(done)

	paths, errc := walkDir(done, op.Src, []string{".svg"})

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			e.consumer(ctx, op, ch, done, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	var failed []error
	for res := range ch {
		if res.err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", res.path, res.err))
		}
		op.printOpStatus(res.path, res.err)
	}
	if err := <-errc; err != nil {
		failed = append(failed, err)
	}
	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	fmt.Fprintf(op.out(), "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	return nil
}

// consumer reads the path names from the paths channel and exports each icon
// into an archive named after it.
func (e *Exporter) consumer(
	ctx context.Context,
	op *Ops,
	res chan<- result,
	done <-chan struct{},
	paths <-chan string,
) {
	for src := range paths {
		name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		err := e.exportFile(ctx, op, src, filepath.Join(op.Dst, name+".zip"))

		select {
		case <-done:
			return
		case res <- result{path: src, err: err}:
		}
	}
}

// exportFile exports the icon read from in to out.
func (e *Exporter) exportFile(ctx context.Context, op *Ops, in, out string) error {
	data, err := op.readSource(in)
	if err != nil {
		return err
	}
	icon, err := IconFromBytes(iconName(in, op.PipeName), data)
	if err != nil {
		return err
	}

	req := op.Style
	req.Icon = icon
	src := IconSource{Request: req}

	assets, err := e.BuildAssets(ctx, src, op.Variants)
	if len(assets) == 0 {
		if err == nil {
			err = errors.New("no assets produced")
		}
		return err
	}
	if err != nil {
		// partial exports are still written, the failures are reported
		e.logger().Warn("some variants failed", "source", in, "error", err)
	}

	var meta *ExportMetadata
	if op.Metadata {
		meta = NewExportMetadata(src, op.Preset, time.Now())
	}

	switch {
	case out == op.PipeName:
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		return WriteArchive(os.Stdout, assets, meta)
	case strings.EqualFold(filepath.Ext(out), ".zip"):
		return writeArchiveFile(out, assets, meta)
	default:
		return WriteDir(out, assets)
	}
}

func writeArchiveFile(path string, assets Assets, meta *ExportMetadata) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			// remove the partial archive in case of an error
			os.Remove(path)
		}
	}()
	return WriteArchive(f, assets, meta)
}

// readSource loads a local file, a URL or stdin.
func (op *Ops) readSource(in string) ([]byte, error) {
	switch {
	case utils.IsValidUrl(in):
		return utils.Download(in)
	case in == op.PipeName:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return io.ReadAll(os.Stdin)
	default:
		data, err := os.ReadFile(in)
		if err != nil {
			return nil, fmt.Errorf("unable to open the source file: %w", err)
		}
		return data, nil
	}
}

func iconName(path, pipeName string) string {
	if path == pipeName {
		return "stdin"
	}
	base := path
	if utils.IsValidUrl(path) {
		base = path[strings.LastIndex(path, "/")+1:]
		if i := strings.IndexAny(base, "?#"); i >= 0 {
			base = base[:i]
		}
	}
	base = filepath.Base(base)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IconFromBytes turns svg markup or a raster image into icon metadata. A
// raster image is wrapped in an svg document holding it as a data URL.
func IconFromBytes(name string, data []byte) (*catalog.IconMetadata, error) {
	if utils.IsSVG(data) {
		return &catalog.IconMetadata{ID: name, Name: name, SVG: string(data)}, nil
	}
	if !utils.IsImage(data) {
		return nil, &DecodeError{Stage: "source", Err: errors.New("neither an svg nor an image")}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Stage: "source", Err: err}
	}
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d"><image width="%d" height="%d" href="%s"/></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, utils.EncodeDataURL(data, ""))
	return &catalog.IconMetadata{ID: name, Name: name, SVG: svg, IsRasterized: true}, nil
}

// printOpStatus displays the outcome of exporting one source.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(op.out(), "%s %s\n",
			utils.DecorateText("\nError exporting the icon: "+filepath.Base(fname), utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v", err), utils.DefaultMessage),
		)
		return
	}
	if fname != op.PipeName {
		fmt.Fprintf(op.out(), "\nThe assets have been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each regular file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan struct{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() || !isValidExtension(filepath.Ext(d.Name()), srcExts) {
				return nil
			}
			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	for _, ex := range extensions {
		if strings.EqualFold(ex, ext) {
			return true
		}
	}
	return false
}
