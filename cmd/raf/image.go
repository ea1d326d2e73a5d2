package main

import (
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/raf"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// loadImage decodes a png, bmp, tiff or jpeg file.
// The x/image codecs register themselves for image.Decode when imported.
func loadImage(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "could not open image")
	}
	defer f.Close()

	m, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode image %s", name)
	}
	Debug("decoded %s as %s %v", name, format, m.Bounds())
	return m, nil
}

// savePreview encodes the plane to name, picking the format from its extension.
// HDR output holds the linear mosaic, the others the clipped preview.
func savePreview(name string, p *raf.Plane, cam raf.Camera) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "could not create preview")
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = errors.Wrap(cerr, "could not flush preview")
		}
	}()

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".png", "":
		err = png.Encode(f, p.Preview(cam.Divisor))
	case ".bmp":
		err = bmp.Encode(f, p.Preview(cam.Divisor))
	case ".tif", ".tiff":
		err = tiff.Encode(f, p.Preview(cam.Divisor), &tiff.Options{Compression: tiff.Deflate})
	case ".hdr":
		err = rgbe.Encode(f, p.Linear(cam.Levels()))
	default:
		return errors.Errorf("unsupported preview format %q", ext)
	}
	return errors.Wrap(err, "could not encode preview")
}
