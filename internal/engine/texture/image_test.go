package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadChannels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 0, color.Gray{Y: 200})

	opaque := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range opaque.Pix {
		opaque.Pix[i] = 255
	}
	opaque.SetRGBA(0, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	translucent := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	translucent.SetNRGBA(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 128})

	tests := []struct {
		name     string
		img      image.Image
		channels int
		check    func(t *testing.T, img *Image)
	}{
		{"gray", gray, 1, func(t *testing.T, img *Image) {
			if img.Pix[1] != 200 {
				t.Errorf("pixel (1,0) = %d, want 200", img.Pix[1])
			}
		}},
		{"rgb", opaque, 3, func(t *testing.T, img *Image) {
			if got := img.Pix[6:9]; !bytes.Equal(got, []byte{10, 20, 30}) {
				t.Errorf("pixel (0,1) = %v", got)
			}
		}},
		{"rgba", translucent, 4, func(t *testing.T, img *Image) {
			if got := img.Pix[12:16]; !bytes.Equal(got, []byte{1, 2, 3, 128}) {
				t.Errorf("pixel (1,1) = %v", got)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Load(writePNG(t, tt.img))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if img.Width != 2 || img.Height != 2 {
				t.Errorf("size %dx%d", img.Width, img.Height)
			}
			if img.Channels != tt.channels {
				t.Fatalf("channels = %d, want %d", img.Channels, tt.channels)
			}
			if len(img.Pix) != 4*tt.channels {
				t.Fatalf("len(Pix) = %d", len(img.Pix))
			}
			tt.check(t, img)
		})
	}
}

func TestDecodeJPEGIsRGB(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}

	img, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Channels != 3 {
		t.Errorf("channels = %d, want 3", img.Channels)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	os.WriteFile(garbage, []byte("not an image"), 0644)

	if _, err := Load(garbage); err == nil {
		t.Error("expected error decoding garbage")
	}
	if _, err := Load(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}

// tgaHeader builds an 18-byte TGA header.
func tgaHeader(imageType byte, w, h int, bpp byte, topToBottom bool) []byte {
	hdr := make([]byte, 18)
	hdr[2] = imageType
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = bpp
	if topToBottom {
		hdr[17] = 0x20
	}
	return hdr
}

func TestDecodeTGAUncompressed(t *testing.T) {
	// 1x2 bottom-up: first stored row is the bottom one.
	data := tgaHeader(TGATypeUncompressed, 1, 2, 24, false)
	data = append(data,
		0, 0, 255, // bottom: red (BGR)
		255, 0, 0, // top: blue
	)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA: %v", err)
	}
	if img.Channels != 3 {
		t.Fatalf("channels = %d, want 3", img.Channels)
	}
	want := []byte{0, 0, 255, 255, 0, 0}
	if !bytes.Equal(img.Pix, want) {
		t.Errorf("pix = %v, want %v (top row first)", img.Pix, want)
	}
}

func TestDecodeTGARLE(t *testing.T) {
	data := tgaHeader(TGATypeRLE, 3, 1, 32, true)
	data = append(data,
		0x81, 1, 2, 3, 4, // run of 2
		0x00, 5, 6, 7, 8, // raw packet of 1
	)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA: %v", err)
	}
	want := []byte{3, 2, 1, 4, 3, 2, 1, 4, 7, 6, 5, 8}
	if !bytes.Equal(img.Pix, want) {
		t.Errorf("pix = %v, want %v", img.Pix, want)
	}
}

func TestDecodeTGAErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte{0, 0, 2}},
		{"color mapped", func() []byte { h := tgaHeader(1, 1, 1, 24, false); h[1] = 1; return h }()},
		{"grayscale type", tgaHeader(3, 1, 1, 8, false)},
		{"16 bit", tgaHeader(TGATypeUncompressed, 1, 1, 16, false)},
		{"truncated pixels", append(tgaHeader(TGATypeUncompressed, 2, 2, 24, false), 1, 2, 3)},
		{"truncated rle", append(tgaHeader(TGATypeRLE, 4, 1, 24, false), 0x81, 1, 2, 3)},
		{"huge uncompressed", append(tgaHeader(TGATypeUncompressed, 65535, 65535, 32, false), 1, 2, 3, 4)},
		{"huge rle", append(tgaHeader(TGATypeRLE, 65535, 65535, 32, false), 0xFF, 1, 2, 3, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTGA(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadTGAByExtension(t *testing.T) {
	data := tgaHeader(TGATypeUncompressed, 1, 1, 32, false)
	data = append(data, 10, 20, 30, 40)
	path := filepath.Join(t.TempDir(), "tex.TGA")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(img.Pix, []byte{30, 20, 10, 40}) {
		t.Errorf("pix = %v", img.Pix)
	}
}
