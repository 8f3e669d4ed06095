package resource

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/engine/gpu"
	"github.com/Faultbox/iblviewer/internal/engine/texture"
	"github.com/Faultbox/iblviewer/pkg/formats"
)

var (
	// ErrTextureLoad means a 2D texture could not be decoded or created.
	ErrTextureLoad = errors.New("resource: texture load failed")
	// ErrCubemapLoad means a cubemap could not be loaded.
	ErrCubemapLoad = errors.New("resource: cubemap load failed")
	// ErrUnsupportedFormat means a file uses a pixel format the device
	// abstraction has no equivalent for.
	ErrUnsupportedFormat = errors.New("resource: unsupported pixel format")
	// ErrEmptyData means an immutable buffer was requested without contents.
	ErrEmptyData = errors.New("resource: empty buffer data")
)

// Uploader creates device resources from CPU data.
type Uploader struct {
	device  gpu.Device
	context gpu.Context
	log     *zap.Logger

	loadImage func(path string) (*texture.Image, error)
	loadDDS   func(path string) (*formats.DDS, error)
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithLogger sets the logger for skipped updates and failed loads.
func WithLogger(l *zap.Logger) Option {
	return func(u *Uploader) {
		if l != nil {
			u.log = l
		}
	}
}

// WithImageLoader replaces the image decoder used by LoadTexture2D.
func WithImageLoader(fn func(path string) (*texture.Image, error)) Option {
	return func(u *Uploader) { u.loadImage = fn }
}

// WithDDSLoader replaces the DDS reader used by LoadCubemap.
func WithDDSLoader(fn func(path string) (*formats.DDS, error)) Option {
	return func(u *Uploader) { u.loadDDS = fn }
}

// NewUploader returns an Uploader creating resources on dev and writing
// dynamic buffers through ctx.
func NewUploader(dev gpu.Device, ctx gpu.Context, opts ...Option) *Uploader {
	u := &Uploader{
		device:    dev,
		context:   ctx,
		log:       zap.NewNop(),
		loadImage: texture.Load,
		loadDDS:   formats.ParseDDSFile,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Device returns the device resources are created on.
func (u *Uploader) Device() gpu.Device { return u.device }

// CreateImmutableBuffer creates a vertex or index buffer holding data.
func (u *Uploader) CreateImmutableBuffer(kind gpu.BufferKind, data []byte, stride int) (gpu.Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s buffer", ErrEmptyData, kind)
	}
	b, err := u.device.CreateBuffer(gpu.BufferDesc{
		Kind:   kind,
		Usage:  gpu.UsageImmutable,
		Size:   len(data),
		Stride: stride,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("creating %s buffer: %w", kind, err)
	}
	return b, nil
}

// CreateVertexBuffer packs vertices into an immutable vertex buffer.
func CreateVertexBuffer[V Layout](u *Uploader, vertices []V) (gpu.Buffer, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("%w: no vertices", ErrEmptyData)
	}
	return u.CreateImmutableBuffer(gpu.BufferVertex, PackSlice(vertices), vertices[0].ByteSize())
}

// CreateIndexBuffer creates an immutable buffer of 32-bit indices.
func (u *Uploader) CreateIndexBuffer(indices []uint32) (gpu.Buffer, error) {
	data := make([]byte, 0, len(indices)*4)
	for _, idx := range indices {
		data = binary.LittleEndian.AppendUint32(data, idx)
	}
	return u.CreateImmutableBuffer(gpu.BufferIndex, data, 4)
}

// CreateDynamicConstantBuffer creates a CPU-writable constant buffer sized
// and initialized from initial.
func (u *Uploader) CreateDynamicConstantBuffer(initial Layout) (gpu.Buffer, error) {
	data := Bytes(initial)
	b, err := u.device.CreateBuffer(gpu.BufferDesc{
		Kind:  gpu.BufferConstant,
		Usage: gpu.UsageDynamic,
		Size:  len(data),
	}, data)
	if err != nil {
		return nil, fmt.Errorf("creating constant buffer: %w", err)
	}
	return b, nil
}

// UpdateConstantBuffer overwrites the whole buffer with data. A nil buffer
// is logged and skipped; the returned error lets callers count skips but
// is not meant to stop a frame.
func (u *Uploader) UpdateConstantBuffer(b gpu.Buffer, data Layout) error {
	if b == nil {
		u.log.Warn("constant buffer update skipped: nil buffer")
		return gpu.ErrNilBuffer
	}
	if err := u.context.UpdateBuffer(b, Bytes(data)); err != nil {
		u.log.Warn("constant buffer update failed", zap.Error(err))
		return err
	}
	return nil
}
