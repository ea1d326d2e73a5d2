package raf

import (
	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
)

// Linear returns the mosaic as a linear HDR image. Every channel holds the
// sample normalised between the black and white levels, so the image can be
// tone-mapped by HDR tooling instead of being clipped like Preview.
func (p *Plane) Linear(levels Levels) *hdr.RGB {
	m := hdr.NewRGB(p.Bounds())
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			v := levels.Normalize(p.At(x, y))
			m.SetRGB(x, y, hdrcolor.RGB{R: v, G: v, B: v})
		}
	}
	return m
}
