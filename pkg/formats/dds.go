package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// DDS format errors.
var (
	ErrInvalidDDSMagic     = errors.New("invalid DDS magic: expected 'DDS '")
	ErrTruncatedDDSData    = errors.New("truncated DDS data")
	ErrUnsupportedDDS      = errors.New("unsupported DDS pixel format")
	ErrPartialDDSCubemap   = errors.New("DDS cubemap does not define all six faces")
	ErrInvalidDDSDimension = errors.New("invalid DDS dimensions")
)

// DXGIFormat is a DXGI_FORMAT value. Legacy FourCC and bitmask formats are
// mapped onto their DXGI equivalent.
type DXGIFormat uint32

// Supported DXGI formats.
const (
	DXGIUnknown        DXGIFormat = 0
	DXGIRGBA32Float    DXGIFormat = 2
	DXGIRGBA16Float    DXGIFormat = 10
	DXGIRGBA8Unorm     DXGIFormat = 28
	DXGIRGBA8UnormSRGB DXGIFormat = 29
	DXGIBC1Unorm       DXGIFormat = 71
	DXGIBC1UnormSRGB   DXGIFormat = 72
	DXGIBC2Unorm       DXGIFormat = 74
	DXGIBC3Unorm       DXGIFormat = 77
	DXGIBGRA8Unorm     DXGIFormat = 87
	DXGIBGRX8Unorm     DXGIFormat = 88
	DXGIBC6HUF16       DXGIFormat = 95
	DXGIBC6HSF16       DXGIFormat = 96
	DXGIBC7Unorm       DXGIFormat = 98
	DXGIBC7UnormSRGB   DXGIFormat = 99
)

// String returns the DXGI name without the prefix.
func (f DXGIFormat) String() string {
	switch f {
	case DXGIRGBA32Float:
		return "R32G32B32A32_FLOAT"
	case DXGIRGBA16Float:
		return "R16G16B16A16_FLOAT"
	case DXGIRGBA8Unorm:
		return "R8G8B8A8_UNORM"
	case DXGIRGBA8UnormSRGB:
		return "R8G8B8A8_UNORM_SRGB"
	case DXGIBC1Unorm:
		return "BC1_UNORM"
	case DXGIBC1UnormSRGB:
		return "BC1_UNORM_SRGB"
	case DXGIBC2Unorm:
		return "BC2_UNORM"
	case DXGIBC3Unorm:
		return "BC3_UNORM"
	case DXGIBGRA8Unorm:
		return "B8G8R8A8_UNORM"
	case DXGIBGRX8Unorm:
		return "B8G8R8X8_UNORM"
	case DXGIBC6HUF16:
		return "BC6H_UF16"
	case DXGIBC6HSF16:
		return "BC6H_SF16"
	case DXGIBC7Unorm:
		return "BC7_UNORM"
	case DXGIBC7UnormSRGB:
		return "BC7_UNORM_SRGB"
	default:
		return fmt.Sprintf("DXGI(%d)", uint32(f))
	}
}

// blockBytes returns the size of one 4x4 block, or 0 for uncompressed formats.
func (f DXGIFormat) blockBytes() int {
	switch f {
	case DXGIBC1Unorm, DXGIBC1UnormSRGB:
		return 8
	case DXGIBC2Unorm, DXGIBC3Unorm, DXGIBC6HUF16, DXGIBC6HSF16, DXGIBC7Unorm, DXGIBC7UnormSRGB:
		return 16
	}
	return 0
}

// pixelBytes returns the size of one texel of an uncompressed format.
func (f DXGIFormat) pixelBytes() int {
	switch f {
	case DXGIRGBA32Float:
		return 16
	case DXGIRGBA16Float:
		return 8
	case DXGIRGBA8Unorm, DXGIRGBA8UnormSRGB, DXGIBGRA8Unorm, DXGIBGRX8Unorm:
		return 4
	}
	return 0
}

// Compressed reports whether f is block compressed.
func (f DXGIFormat) Compressed() bool {
	return f.blockBytes() != 0
}

// SurfaceSize returns the byte size of one width x height image in format f.
func (f DXGIFormat) SurfaceSize(width, height int) int {
	if bb := f.blockBytes(); bb != 0 {
		bw := max(1, (width+3)/4)
		bh := max(1, (height+3)/4)
		return bw * bh * bb
	}
	return width * height * f.pixelBytes()
}

const (
	ddsHeaderSize = 124

	ddsFlagMipMapCount = 0x20000

	ddpfAlphaPixels = 0x1
	ddpfFourCC      = 0x4
	ddpfRGB         = 0x40

	ddsCaps2Cubemap     = 0x200
	ddsCaps2AllFaces    = 0xFC00
	dx10MiscTextureCube = 0x4
)

type ddsPixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      [4]byte
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

type ddsHeader struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       ddsPixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

type ddsHeaderDX10 struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// DDS is a parsed DirectDraw Surface container.
type DDS struct {
	Width    int
	Height   int
	MipCount int
	Format   DXGIFormat
	Cubemap  bool
	// Images is the number of array slices; a cubemap has six per cube,
	// in +X, -X, +Y, -Y, +Z, -Z order.
	Images int
	// Surfaces holds Images*MipCount slices, image-major.
	Surfaces [][]byte
}

// Surface returns the pixel data of one mip of one image.
func (d *DDS) Surface(image, mip int) []byte {
	return d.Surfaces[image*d.MipCount+mip]
}

// MipSize returns the dimensions of mip level mip.
func (d *DDS) MipSize(mip int) (width, height int) {
	return max(1, d.Width>>mip), max(1, d.Height>>mip)
}

// ParseDDS parses a DDS file from raw bytes.
func ParseDDS(data []byte) (*DDS, error) {
	if len(data) < 4+ddsHeaderSize {
		return nil, ErrTruncatedDDSData
	}
	if string(data[0:4]) != "DDS " {
		return nil, ErrInvalidDDSMagic
	}

	r := bytes.NewReader(data[4:])

	var hdr ddsHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedDDSData)
	}
	if hdr.Size != ddsHeaderSize {
		return nil, fmt.Errorf("%w: header size %d", ErrInvalidDDSMagic, hdr.Size)
	}
	if hdr.Width == 0 || hdr.Height == 0 || hdr.Width > 16384 || hdr.Height > 16384 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDDSDimension, hdr.Width, hdr.Height)
	}

	dds := &DDS{
		Width:    int(hdr.Width),
		Height:   int(hdr.Height),
		MipCount: 1,
		Images:   1,
	}
	if hdr.Flags&ddsFlagMipMapCount != 0 && hdr.MipMapCount > 0 {
		dds.MipCount = int(hdr.MipMapCount)
	}
	if maxMips := mipChainLength(dds.Width, dds.Height); dds.MipCount > maxMips {
		return nil, fmt.Errorf("%w: %d mips for %dx%d", ErrInvalidDDSDimension, dds.MipCount, dds.Width, dds.Height)
	}

	pf := hdr.PixelFormat
	if pf.Flags&ddpfFourCC != 0 && string(pf.FourCC[:]) == "DX10" {
		var ext ddsHeaderDX10
		if err := binary.Read(r, binary.LittleEndian, &ext); err != nil {
			return nil, fmt.Errorf("%w: reading DX10 header", ErrTruncatedDDSData)
		}
		dds.Format = DXGIFormat(ext.DXGIFormat)
		arraySize := max(1, int(ext.ArraySize))
		if ext.MiscFlag&dx10MiscTextureCube != 0 {
			dds.Cubemap = true
			dds.Images = arraySize * 6
		} else {
			dds.Images = arraySize
		}
	} else {
		f, err := legacyFormat(pf)
		if err != nil {
			return nil, err
		}
		dds.Format = f
		if hdr.Caps2&ddsCaps2Cubemap != 0 {
			if hdr.Caps2&ddsCaps2AllFaces != ddsCaps2AllFaces {
				return nil, ErrPartialDDSCubemap
			}
			dds.Cubemap = true
			dds.Images = 6
		}
	}

	if dds.Format.blockBytes() == 0 && dds.Format.pixelBytes() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDDS, dds.Format)
	}

	offset := len(data) - r.Len()
	chain := 0
	for mip := 0; mip < dds.MipCount; mip++ {
		chain += dds.Format.SurfaceSize(dds.MipSize(mip))
	}
	if remaining := len(data) - offset; dds.Images > remaining/chain {
		return nil, fmt.Errorf("%w: %d images of %d bytes, %d bytes left", ErrTruncatedDDSData, dds.Images, chain, remaining)
	}

	for img := 0; img < dds.Images; img++ {
		for mip := 0; mip < dds.MipCount; mip++ {
			w, h := dds.MipSize(mip)
			size := dds.Format.SurfaceSize(w, h)
			if offset+size > len(data) {
				return nil, fmt.Errorf("%w: image %d mip %d needs %d bytes at offset %d", ErrTruncatedDDSData, img, mip, size, offset)
			}
			dds.Surfaces = append(dds.Surfaces, data[offset:offset+size])
			offset += size
		}
	}

	return dds, nil
}

// ParseDDSFile parses a DDS file from disk.
func ParseDDSFile(path string) (*DDS, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading DDS file: %w", err)
	}
	return ParseDDS(data)
}

// legacyFormat maps a pre-DX10 pixel format onto DXGI.
func legacyFormat(pf ddsPixelFormat) (DXGIFormat, error) {
	if pf.Flags&ddpfFourCC != 0 {
		switch string(pf.FourCC[:]) {
		case "DXT1":
			return DXGIBC1Unorm, nil
		case "DXT2", "DXT3":
			return DXGIBC2Unorm, nil
		case "DXT4", "DXT5":
			return DXGIBC3Unorm, nil
		}
		// D3DFMT values stored in the FourCC slot
		switch binary.LittleEndian.Uint32(pf.FourCC[:]) {
		case 113: // D3DFMT_A16B16G16R16F
			return DXGIRGBA16Float, nil
		case 116: // D3DFMT_A32B32G32R32F
			return DXGIRGBA32Float, nil
		}
		return DXGIUnknown, fmt.Errorf("%w: FourCC %q", ErrUnsupportedDDS, pf.FourCC[:])
	}

	if pf.Flags&ddpfRGB != 0 && pf.RGBBitCount == 32 {
		switch {
		case pf.RBitMask == 0x000000ff && pf.GBitMask == 0x0000ff00 && pf.BBitMask == 0x00ff0000:
			return DXGIRGBA8Unorm, nil
		case pf.RBitMask == 0x00ff0000 && pf.GBitMask == 0x0000ff00 && pf.BBitMask == 0x000000ff:
			if pf.Flags&ddpfAlphaPixels != 0 {
				return DXGIBGRA8Unorm, nil
			}
			return DXGIBGRX8Unorm, nil
		}
	}
	return DXGIUnknown, fmt.Errorf("%w: flags 0x%x, %d bpp", ErrUnsupportedDDS, pf.Flags, pf.RGBBitCount)
}

func mipChainLength(width, height int) int {
	n := 1
	for width > 1 || height > 1 {
		width >>= 1
		height >>= 1
		n++
	}
	return n
}
