// Package icon renders the small status icon shown by tray-like surfaces:
// the current device's initials on a background color derived from its id.
package icon

import (
	"bytes"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/easyaudioflip/audioflip/internal/models"
)

// Size is the icon edge length in pixels.
const Size = 32

var (
	idleBackground = color.RGBA{0x55, 0x5b, 0x66, 0xff}
	foreground     = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// palette holds backgrounds with enough contrast for white text.
var palette = []color.RGBA{
	{0x1f, 0x6f, 0xb2, 0xff},
	{0x2e, 0x8b, 0x57, 0xff},
	{0xb0, 0x3a, 0x2e, 0xff},
	{0x7b, 0x3f, 0xa0, 0xff},
	{0xc0, 0x6c, 0x00, 0xff},
	{0x00, 0x7c, 0x84, 0xff},
	{0x8a, 0x2c, 0x6b, 0xff},
	{0x3d, 0x55, 0x9e, 0xff},
}

// Render draws the icon for dev. A nil device renders the idle icon.
func Render(dev *models.Device) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Size, Size))

	bg, label := idleBackground, "AF"
	if dev != nil {
		bg, label = Background(dev.ID), Initials(dev.Name)
	}
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(foreground),
		Face: face,
	}
	width := d.MeasureString(label).Round()
	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Round()
	x := (Size - width) / 2
	y := (Size-textHeight)/2 + metrics.Ascent.Round()
	d.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	d.DrawString(label)
	return img
}

// PNG returns Render(dev) encoded as PNG.
func PNG(dev *models.Device) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Render(dev)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Background picks a stable palette color for a device id.
func Background(id string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Initials returns the first character of up to two words of name,
// uppercased. basicfont only covers ASCII, so words starting with anything
// else are skipped.
func Initials(name string) string {
	var out []rune
	for _, word := range strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_' || r == '(' || r == ')'
	}) {
		r := []rune(word)[0]
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			out = append(out, unicode.ToUpper(r))
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}
