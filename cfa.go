package raf

import (
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"
)

// A Plane is the raw sensor plane of a RAF file: one 16-bit sample per
// photosite, row-major. Only the low BitDepth bits are significant.
type Plane struct {
	Width    int
	Height   int
	BitDepth int
	Samples  []uint16
}

// NewPlane returns a zeroed plane sized for cam.
func NewPlane(cam Camera) *Plane {
	return &Plane{
		Width:    cam.Width,
		Height:   cam.Height,
		BitDepth: cam.BitDepth,
		Samples:  make([]uint16, cam.Width*cam.Height),
	}
}

// planeOffset returns the absolute position of the samples.
func planeOffset(h Header, cam Camera) int64 {
	return int64(h.CFARecordOffset) + cam.PlaneOffset
}

// ReadPlane reads the sensor plane of the RAF file behind c.
func ReadPlane(c *Cursor, h Header, cam Camera) (*Plane, error) {
	off := planeOffset(h, cam)
	buf, err := c.Bytes(off, int64(cam.Width)*int64(cam.Height)*2)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %dx%d CFA plane at 0x%X", cam.Width, cam.Height, off)
	}

	p := NewPlane(cam)
	for i := range p.Samples {
		p.Samples[i] = binary.LittleEndian.Uint16(buf[2*i:])
	}
	return p, nil
}

// WritePlane writes p back at the position ReadPlane reads it from.
func WritePlane(w io.WriterAt, h Header, cam Camera, p *Plane) error {
	if p.Width != cam.Width || p.Height != cam.Height {
		return &DimensionMismatchError{
			Got:  image.Pt(p.Width, p.Height),
			Want: image.Pt(cam.Width, cam.Height),
		}
	}
	if _, err := w.WriteAt(p.Bytes(), planeOffset(h, cam)); err != nil {
		return &IOError{Op: "write CFA plane", Err: err}
	}
	return nil
}

// Bytes returns the little-endian serialisation of the samples.
func (p *Plane) Bytes() []byte {
	buf := make([]byte, 2*len(p.Samples))
	for i, s := range p.Samples {
		binary.LittleEndian.PutUint16(buf[2*i:], s)
	}
	return buf
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) uint16 {
	return p.Samples[y*p.Width+x]
}

// Set sets the sample at (x, y).
func (p *Plane) Set(x, y int, v uint16) {
	p.Samples[y*p.Width+x] = v
}

// Bounds returns the plane rectangle.
func (p *Plane) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

// Preview returns a grayscale view of the mosaic, each sample divided by
// divisor and clamped to 255. It is lossy and is not demosaiced.
// divisor must be positive, as Camera.Validate requires.
func (p *Plane) Preview(divisor int) *image.Gray {
	m := image.NewGray(p.Bounds())
	for y := 0; y < p.Height; y++ {
		row := p.Samples[y*p.Width : (y+1)*p.Width]
		pix := m.Pix[y*m.Stride : y*m.Stride+p.Width]
		for x, s := range row {
			v := int(s) / divisor
			if v > 255 {
				v = 255
			}
			pix[x] = uint8(v)
		}
	}
	return m
}

// Inject overwrites the samples with src seen through the colour filter:
// each photosite takes the 8-bit value of the channel pattern assigns to it,
// rescaled to the sensor range by levels.
//
// src must have the exact size of the plane.
func (p *Plane) Inject(src image.Image, pattern Pattern, levels Levels) error {
	b := src.Bounds()
	if b.Dx() != p.Width || b.Dy() != p.Height {
		return &DimensionMismatchError{Got: b.Size(), Want: image.Pt(p.Width, p.Height)}
	}
	if err := pattern.Validate(); err != nil {
		return err
	}

	var lut [256]uint16
	for i := range lut {
		lut[i] = levels.Encode(uint8(i))
	}

	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			var v8 uint8
			switch pattern.At(x, y) {
			case Red:
				v8 = c.R
			case Green:
				v8 = c.G
			case Blue:
				v8 = c.B
			}
			p.Samples[y*p.Width+x] = lut[v8]
		}
	}
	return nil
}
