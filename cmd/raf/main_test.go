package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdouchement/raf"
	"github.com/mdouchement/raf/internal/raftest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	width  = 12
	height = 6
)

const cameras = `
- model: tiny
  width: 12
  height: 6
  bit_depth: 14
  divisor: 64
  black_level: 1024
  white_level: 16383
`

// setup writes a RAF fixture and a camera table in a temp dir.
func setup(t *testing.T) (dir, name, table string) {
	dir = t.TempDir()
	name = filepath.Join(dir, "DSCF0001.RAF")
	table = filepath.Join(dir, "cameras.yaml")
	data := raftest.Fixture{Width: width, Height: height, Samples: raftest.Gradient(width, height)}.Bytes()
	require.NoError(t, os.WriteFile(name, data, 0644))
	require.NoError(t, os.WriteFile(table, []byte(cameras), 0644))
	return
}

func run(t *testing.T, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInfo(t *testing.T) {
	_, name, _ := setup(t)

	out, err := run(t, "info", name)
	require.NoError(t, err)
	assert.Contains(t, out, "Model = X-T3")
	assert.Contains(t, out, "CFA Record: Offset = 0x400; Length = 0x890")
	assert.Contains(t, out, "IFD Header:\tOffset = 0x8")
	assert.Contains(t, out, "IFD Field:\t/\tTag = F000; Type = Ifd; Count = 1; Value = 64")
	assert.Contains(t, out, "IFD Field:\t/0xF000\tTag = F002; Type = Long; Count = 1; Value = 6")
	assert.Contains(t, out, "CFA Record:\tRawImageFullSize: 12x6")
	assert.NotContains(t, out, "⚠")
}

func TestInfo_Strict(t *testing.T) {
	_, name, _ := setup(t)
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	copy(data, "NOT A RAF FILE!!")
	require.NoError(t, os.WriteFile(name, data, 0644))

	out, err := run(t, "info", name)
	require.NoError(t, err)
	assert.Contains(t, out, "  ⚠ raf: invalid container: bad signature \"NOT A RAF FILE!!\"\n")

	_, err = run(t, "--strict", "info", name)
	assert.IsType(t, raf.InvalidContainerError(""), errors.Cause(err))
}

func TestDevelop(t *testing.T) {
	dir, name, table := setup(t)

	_, err := run(t, "--cameras", table, "--camera", "tiny", "develop", name)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "DSCF0001.png"))
	require.NoError(t, err)
	defer f.Close()
	m, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, width, height), m.Bounds())
	assert.Equal(t, uint8(raftest.Gradient(width, height)[3]/64), m.(*image.Gray).GrayAt(3, 0).Y)

	for _, ext := range []string{".bmp", ".tiff", ".hdr"} {
		out := filepath.Join(dir, "preview"+ext)
		_, err = run(t, "--cameras", table, "-c", "tiny", "develop", name, "-o", out)
		require.NoError(t, err, ext)
		fi, err := os.Stat(out)
		require.NoError(t, err, ext)
		assert.NotZero(t, fi.Size(), ext)
	}

	_, err = run(t, "--cameras", table, "-c", "tiny", "develop", name, "-o", filepath.Join(dir, "preview.gif"))
	assert.EqualError(t, err, `unsupported preview format ".gif"`)

	// The default camera expects a much larger plane.
	_, err = run(t, "develop", name)
	var terr *raf.TruncatedInputError
	assert.ErrorAs(t, err, &terr)
}

func TestInject(t *testing.T) {
	dir, name, table := setup(t)
	original, err := os.ReadFile(name)
	require.NoError(t, err)

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 128, B: 0, A: 255})
	imgName := filepath.Join(dir, "hald.png")
	f, err := os.Create(imgName)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	copyName := filepath.Join(dir, "injected.RAF")
	_, err = run(t, "--cameras", table, "-c", "tiny", "inject", name, "--image", imgName, "-o", copyName)
	require.NoError(t, err)

	// The source is untouched.
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	cam, err := (&rootOptions{camera: "tiny", cameras: table}).resolveCamera()
	require.NoError(t, err)
	rf, err := raf.Open(copyName, raf.Options{ValidateMagic: true})
	require.NoError(t, err)
	defer rf.Close()
	p, err := rf.Plane(cam)
	require.NoError(t, err)

	levels := cam.Levels()
	assert.Equal(t, levels.Encode(128), p.At(0, 0)) // Green photosite.
	assert.EqualValues(t, cam.WhiteLevel, p.At(1, 0))

	// In place.
	_, err = run(t, "--cameras", table, "-c", "tiny", "inject", name, "-i", imgName)
	require.NoError(t, err)
	data, err = os.ReadFile(name)
	require.NoError(t, err)
	injected, err := os.ReadFile(copyName)
	require.NoError(t, err)
	assert.Equal(t, injected, data)

	// Size mismatch.
	small := filepath.Join(dir, "small.png")
	f, err = os.Create(small)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 4))))
	require.NoError(t, f.Close())
	_, err = run(t, "--cameras", table, "-c", "tiny", "inject", name, "-i", small)
	assert.IsType(t, &raf.DimensionMismatchError{}, err)

	_, err = run(t, "inject", name)
	assert.Error(t, err)
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "DSCF0042.RAF")
	exposure := raftest.Fixture{Width: width, Height: height, Samples: raftest.Gradient(width, height)}
	require.NoError(t, os.WriteFile(name, raftest.Bracket(exposure, exposure, exposure), 0644))

	out, err := run(t, "extract", name)
	require.NoError(t, err)
	assert.Contains(t, out, "3 exposures")

	for _, label := range raf.ExposureLabels {
		data, err := os.ReadFile(filepath.Join(dir, raf.BracketName(name, label)))
		require.NoError(t, err, label)
		assert.Equal(t, exposure.Bytes(), data, label)
	}

	_, err = run(t, "extract", filepath.Join(dir, "DSCF0042 (±0EV).RAF"))
	var berr *raf.IncompleteBracketError
	assert.ErrorAs(t, err, &berr)
}

func TestUnknownCamera(t *testing.T) {
	_, name, _ := setup(t)
	_, err := run(t, "-c", "x-trans-x", "develop", name)
	assert.EqualError(t, err, `unknown camera "x-trans-x" (known: x-trans-ii, x-trans-iv)`)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "raf version: dev\n", out)
}
