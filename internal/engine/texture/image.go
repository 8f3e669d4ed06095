// Package texture decodes image files into tightly packed pixel arrays
// with their native channel count.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is a decoded image. Pix holds Width*Height*Channels bytes, rows top
// first, channels interleaved (gray, RGB or RGBA).
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// Load decodes the image at path. TGA is selected by extension, every other
// format by its header.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		return img, nil
	}

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// Decode decodes any registered image format.
func Decode(r io.Reader) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// FromImage packs img, keeping one channel for grayscale, three for opaque
// color images and four when the image carries alpha.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	out := &Image{Width: b.Dx(), Height: b.Dy(), Channels: channelsOf(img)}
	out.Pix = make([]byte, 0, out.Width*out.Height*out.Channels)

	if g, ok := img.(*image.Gray); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := g.PixOffset(b.Min.X, y)
			out.Pix = append(out.Pix, g.Pix[i:i+out.Width]...)
		}
		return out
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			switch out.Channels {
			case 1:
				out.Pix = append(out.Pix, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			case 3:
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				out.Pix = append(out.Pix, c.R, c.G, c.B)
			default:
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				out.Pix = append(out.Pix, c.R, c.G, c.B, c.A)
			}
		}
	}
	return out
}

func channelsOf(img image.Image) int {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.YCbCr, *image.CMYK:
		return 3
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return 4
	case interface{ Opaque() bool }:
		if m.Opaque() {
			return 3
		}
	}
	return 4
}
