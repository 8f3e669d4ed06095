package texture

import "fmt"

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// DecodeTGA decodes a true-color TGA file, uncompressed (type 2) or RLE
// compressed (type 10). 24-bit files decode to 3 channels, 32-bit files to 4.
// Rows are returned top row first regardless of the file's origin.
func DecodeTGA(data []byte) (*Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("unsupported TGA type %d (only uncompressed/RLE true-color supported)", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d (only 24/32 supported)", bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("empty TGA image %dx%d", width, height)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}

	channels := bpp / 8
	src := data[offset:]
	pixels := width * height

	// Every RLE packet covers at most 128 pixels.
	need := pixels * channels
	if imageType == TGATypeRLE {
		need = (pixels + 127) / 128 * (1 + channels)
	}
	if len(src) < need {
		return nil, fmt.Errorf("TGA pixel data truncated: %d bytes for %dx%d", len(src), width, height)
	}

	d := &tgaDecoder{
		src:         src,
		img:         &Image{Width: width, Height: height, Channels: channels, Pix: make([]byte, pixels*channels)},
		topToBottom: descriptor&0x20 != 0,
	}

	if imageType == TGATypeUncompressed {
		for i := 0; i < pixels; i++ {
			d.put(i, d.src[i*channels:])
		}
	} else if err := d.decodeRLE(); err != nil {
		return nil, err
	}

	return d.img, nil
}

type tgaDecoder struct {
	src         []byte
	img         *Image
	topToBottom bool
}

// put stores the BGR(A) texel at src as pixel number i in file order.
func (d *tgaDecoder) put(i int, src []byte) {
	w, h, c := d.img.Width, d.img.Height, d.img.Channels
	x, y := i%w, i/w
	if !d.topToBottom {
		y = h - 1 - y
	}
	dst := d.img.Pix[(y*w+x)*c:]
	dst[0], dst[1], dst[2] = src[2], src[1], src[0]
	if c == 4 {
		dst[3] = src[3]
	}
}

func (d *tgaDecoder) decodeRLE() error {
	c := d.img.Channels
	total := d.img.Width * d.img.Height
	pixel, pos := 0, 0

	for pixel < total {
		if pos >= len(d.src) {
			return fmt.Errorf("TGA RLE data truncated at pixel %d", pixel)
		}
		packet := d.src[pos]
		pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run: one texel repeated
			if pos+c > len(d.src) {
				return fmt.Errorf("TGA RLE data truncated at pixel %d", pixel)
			}
			texel := d.src[pos : pos+c]
			pos += c
			for i := 0; i < count && pixel < total; i++ {
				d.put(pixel, texel)
				pixel++
			}
			continue
		}

		for i := 0; i < count && pixel < total; i++ {
			if pos+c > len(d.src) {
				return fmt.Errorf("TGA RLE data truncated at pixel %d", pixel)
			}
			d.put(pixel, d.src[pos:pos+c])
			pos += c
			pixel++
		}
	}
	return nil
}
