package resource

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/engine/gpu"
	"github.com/Faultbox/iblviewer/internal/engine/texture"
	"github.com/Faultbox/iblviewer/pkg/formats"
)

// LoadTexture2D decodes the image at path and uploads it as an immutable
// single-mip RGBA8 texture.
func (u *Uploader) LoadTexture2D(path string) (gpu.Texture, gpu.View, error) {
	img, err := u.loadImage(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrTextureLoad, path, err)
	}
	pix, err := ExpandRGBA(img)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrTextureLoad, path, err)
	}

	tex, err := u.device.CreateTexture(gpu.TextureDesc{
		Width:     img.Width,
		Height:    img.Height,
		MipLevels: 1,
		Format:    gpu.FormatRGBA8,
	}, [][]byte{pix})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrTextureLoad, path, err)
	}
	view, err := u.device.CreateView(tex)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrTextureLoad, path, err)
	}

	u.log.Debug("texture loaded",
		zap.String("path", path),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("channels", img.Channels))
	return tex, view, nil
}

// ExpandRGBA converts a 1–4 channel image to RGBA8. Gray is replicated to
// RGB; alpha is forced opaque when the source has none.
func ExpandRGBA(img *texture.Image) ([]byte, error) {
	n := img.Width * img.Height
	c := img.Channels
	if c < 1 || c > 4 {
		return nil, fmt.Errorf("unsupported channel count %d", c)
	}
	if len(img.Pix) < n*c {
		return nil, fmt.Errorf("pixel data holds %d bytes, want %d", len(img.Pix), n*c)
	}
	if c == 4 {
		return append([]byte(nil), img.Pix[:n*4]...), nil
	}

	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		src := img.Pix[i*c : i*c+c]
		dst := out[i*4 : i*4+4]
		switch c {
		case 1:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], 255
		case 2:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], src[1]
		case 3:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 255
		}
	}
	return out, nil
}

// LoadCubemap reads a DDS cubemap with its full mip chain and returns the
// texture and a cube view onto it. The caller releases both.
func (u *Uploader) LoadCubemap(path string) (gpu.Texture, gpu.View, error) {
	dds, err := u.loadDDS(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrCubemapLoad, path, err)
	}
	if !dds.Cubemap || dds.Images < 6 {
		return nil, nil, fmt.Errorf("%w: %s: not a cubemap", ErrCubemapLoad, path)
	}
	format, err := textureFormat(dds.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrCubemapLoad, path, err)
	}

	// Only the first cube of an array is used.
	levels := dds.Surfaces[:6*dds.MipCount]
	tex, err := u.device.CreateTexture(gpu.TextureDesc{
		Width:     dds.Width,
		Height:    dds.Height,
		MipLevels: dds.MipCount,
		Format:    format,
		Cube:      true,
	}, levels)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrCubemapLoad, path, err)
	}
	view, err := u.device.CreateView(tex)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrCubemapLoad, path, err)
	}

	u.log.Debug("cubemap loaded",
		zap.String("path", path),
		zap.Int("size", dds.Width),
		zap.Int("mips", dds.MipCount),
		zap.Stringer("format", dds.Format))
	return tex, view, nil
}

func textureFormat(f formats.DXGIFormat) (gpu.TextureFormat, error) {
	switch f {
	case formats.DXGIRGBA8Unorm:
		return gpu.FormatRGBA8, nil
	case formats.DXGIRGBA8UnormSRGB:
		return gpu.FormatRGBA8SRGB, nil
	case formats.DXGIBGRA8Unorm, formats.DXGIBGRX8Unorm:
		return gpu.FormatBGRA8, nil
	case formats.DXGIRGBA16Float:
		return gpu.FormatRGBA16F, nil
	case formats.DXGIRGBA32Float:
		return gpu.FormatRGBA32F, nil
	case formats.DXGIBC1Unorm:
		return gpu.FormatBC1, nil
	case formats.DXGIBC2Unorm:
		return gpu.FormatBC2, nil
	case formats.DXGIBC3Unorm:
		return gpu.FormatBC3, nil
	case formats.DXGIBC6HUF16:
		return gpu.FormatBC6HUF16, nil
	case formats.DXGIBC6HSF16:
		return gpu.FormatBC6HSF16, nil
	case formats.DXGIBC7Unorm:
		return gpu.FormatBC7, nil
	case formats.DXGIBC7UnormSRGB:
		return gpu.FormatBC7SRGB, nil
	}
	return gpu.FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}
