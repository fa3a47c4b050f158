package overlaypal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/palette"
)

var imageExtensions = map[string]bool{
	".bmp":  true,
	".gif":  true,
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".tif":  true,
	".tiff": true,
}

// Batch converts every image below a directory.
type Batch struct {
	Converter *Converter
	// DB, if set, is checked before converting and updated afterwards.
	DB       *ExportDB
	Config   Config
	Hardware *palette.Hardware
	Options  ImageOptions
	// Output is the directory the exports are written to, each named
	// after its image. Empty means alongside the image.
	Output string
	// Workers is the number of images read and mapped at once.
	Workers int
}

type job struct {
	file       string
	image      *grid.Image
	background uint8
}

func (b *Batch) findImages(ctx context.Context, base string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !imageExtensions[strings.ToLower(filepath.Ext(file))] {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc
}

func (b *Batch) imageWorker(ctx context.Context, in <-chan string, out chan<- job, wg *sync.WaitGroup) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer wg.Done()
		for file := range in {
			m, background, err := ReadImage(file, b.Hardware, b.Options)
			if err != nil {
				errc <- err
				return
			}

			select {
			case out <- job{file, m, background}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return errc
}

func (b *Batch) convertWorker(ctx context.Context, in <-chan job) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for j := range in {
			if err := b.convert(ctx, j); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc
}

func (b *Batch) convert(ctx context.Context, j job) error {
	logger := b.Converter.logger

	dir := b.Output
	if dir == "" {
		dir = filepath.Dir(j.file)
	}
	name := filepath.Base(j.file)
	base := strings.TrimSuffix(name, filepath.Ext(name))

	key := Key(j.image, j.background, b.Config)
	if b.DB != nil {
		e, err := b.DB.Find(key)
		if err != nil {
			return err
		}
		if e != nil {
			logger.Printf("Using cached export for \"%s\"\n", j.file)
			return e.WriteFiles(dir, base)
		}
	}

	logger.Printf("Converting \"%s\"\n", j.file)
	r, err := b.Converter.Convert(ctx, j.image, j.background, b.Config)
	if err != nil {
		return err
	}
	if !r.Success() {
		logger.Printf("\"%s\": %s\n", j.file, r.Diagnostic())
	}

	e, err := r.Export(b.Config.PaletteMask)
	if err != nil {
		return err
	}
	if err := e.WriteFiles(dir, base); err != nil {
		return err
	}

	if b.DB != nil && r.Success() {
		return b.DB.Store(key, e)
	}

	return nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Run converts every image found below path. Images are read and mapped
// by several workers but converted one at a time.
func (b *Batch) Run(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if err := b.Config.Validate(); err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc := b.findImages(ctx, dir)
	errcList = append(errcList, errc)

	workers := b.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan job)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		errcList = append(errcList, b.imageWorker(ctx, files, jobs, &wg))
	}
	go func() {
		wg.Wait()
		close(jobs)
	}()

	errcList = append(errcList, b.convertWorker(ctx, jobs))

	return waitForPipeline(errcList...)
}
