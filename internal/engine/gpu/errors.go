package gpu

import "errors"

var (
	// ErrDeviceCreation means no device could be created at any level,
	// or the swap chain could not be created.
	ErrDeviceCreation = errors.New("gpu: device creation failed")
	// ErrFeatureLevelUnsupported means the negotiated level is below MinFeatureLevel.
	ErrFeatureLevelUnsupported = errors.New("gpu: feature level unsupported")
	// ErrSurfaceResize means the swap chain, render target or depth buffer
	// could not be recreated for the new size.
	ErrSurfaceResize = errors.New("gpu: surface resize failed")
	// ErrStaleSurface means the render target or depth buffer no longer
	// matches the surface size.
	ErrStaleSurface = errors.New("gpu: surface is stale")
	// ErrShaderCompile means a program failed to compile or link.
	ErrShaderCompile = errors.New("gpu: shader compile failed")
	// ErrNilBuffer means an operation received a nil buffer handle.
	ErrNilBuffer = errors.New("gpu: nil buffer")
	// ErrReleased means a released resource was used.
	ErrReleased = errors.New("gpu: resource released")
)
