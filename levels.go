package raf

import "math"

// Levels maps 8-bit display values to sensor values and back.
//
// The forward transform is affine, v16 = v8*scale + Black with
// scale = (White-Black)/255, so 0 lands on the black level and 255 on the
// white level.
type Levels struct {
	Black float64
	White float64
}

func (l Levels) scale() float64 {
	return (l.White - l.Black) / 255
}

// Encode converts an 8-bit value to a sensor sample.
func (l Levels) Encode(v8 uint8) uint16 {
	v := math.Round(float64(v8)*l.scale() + l.Black)
	return uint16(clamp(v, 0, math.MaxUint16))
}

// Decode converts a sensor sample back to an 8-bit value.
// It is the exact inverse of Encode, up to rounding.
func (l Levels) Decode(v16 uint16) uint8 {
	v := math.Round((float64(v16) - l.Black) / l.scale())
	return uint8(clamp(v, 0, math.MaxUint8))
}

// Normalize maps a sensor sample to [0, 1].
func (l Levels) Normalize(v16 uint16) float64 {
	return clamp((float64(v16)-l.Black)/(l.White-l.Black), 0, 1)
}
