package gifsteg

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
)

// Names of the files WriteArtifacts creates inside its directory.
const (
	GlobalListingFile = "gct.txt"
	LocalListingFile  = "LCT.txt"
	PayloadFile       = "lsb_payload.bin"
	FramesDir         = "frames"
	PalettesDir       = "extracted_palettes"
)

// ArtifactOptions control WriteArtifacts.
type ArtifactOptions struct {
	// FrameFormat is "png" (the default) or "bmp". Swatches use it too.
	FrameFormat string
	// SwatchBlock is the side of one palette square in pixels.
	SwatchBlock int
}

// Artifacts lists what WriteArtifacts wrote.
type Artifacts struct {
	GlobalListing string
	LocalListing  string
	Payload       string
	Frames        []string
	Swatches      []string
}

// WriteArtifacts writes the report's outputs under dir: the GCT listing
// (only when there is a GCT), the per-frame LCT log, every frame as an
// image, a swatch for every 256-color LCT and the raw payload. Every file
// is attempted; the returned error joins the individual failures.
func WriteArtifacts(dir string, r *Report, opts ArtifactOptions) (*Artifacts, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	encode, ext, err := imageEncoder(opts.FrameFormat)
	if err != nil {
		return nil, err
	}
	a := new(Artifacts)
	var errs []error

	if s := r.Structure; s != nil {
		if len(s.Global) > 0 {
			a.GlobalListing = filepath.Join(dir, GlobalListingFile)
			errs = append(errs, writeFile(a.GlobalListing, func(w io.Writer) error {
				return WriteGlobalListing(w, s.Global)
			}))
		}
		a.LocalListing = filepath.Join(dir, LocalListingFile)
		errs = append(errs, writeFile(a.LocalListing, func(w io.Writer) error {
			return WriteLocalListing(w, s)
		}))

		n := 0
		for _, t := range s.LocalColorTables() {
			if len(t) != 256 {
				continue
			}
			if n == 0 {
				errs = append(errs, os.MkdirAll(filepath.Join(dir, PalettesDir), 0755))
			}
			path := filepath.Join(dir, PalettesDir, fmt.Sprintf("char_%03d.%s", n, ext))
			img := RenderSwatch(t, opts.SwatchBlock)
			errs = append(errs, writeFile(path, func(w io.Writer) error { return encode(w, img) }))
			a.Swatches = append(a.Swatches, path)
			n++
		}
	}

	if len(r.Frames) > 0 {
		errs = append(errs, os.MkdirAll(filepath.Join(dir, FramesDir), 0755))
		for i, f := range r.Frames {
			path := filepath.Join(dir, FramesDir, fmt.Sprintf("frame_%03d.%s", i, ext))
			img := f.Image()
			errs = append(errs, writeFile(path, func(w io.Writer) error { return encode(w, img) }))
			a.Frames = append(a.Frames, path)
		}
	}

	a.Payload = filepath.Join(dir, PayloadFile)
	errs = append(errs, os.WriteFile(a.Payload, r.Payload, 0644))
	return a, errors.Join(errs...)
}

func imageEncoder(format string) (func(io.Writer, image.Image) error, string, error) {
	switch format {
	case "", "png":
		return png.Encode, "png", nil
	case "bmp":
		return bmp.Encode, "bmp", nil
	}
	return nil, "", fmt.Errorf("unsupported image format %q", format)
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
