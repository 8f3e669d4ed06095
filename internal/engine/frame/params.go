package frame

import "github.com/go-gl/mathgl/mgl32"

// CameraDistance is how far the view pushes the scene away from the eye.
const CameraDistance = 2

// Params are the interactive settings read every frame. The GUI writes
// them; the pipeline only reads.
type Params struct {
	UseTexture    bool
	Wireframe     bool
	DrawNormals   bool
	Perspective   bool
	UseSmoothstep bool
	NormalScale   float32

	ModelTranslation mgl32.Vec3
	ModelRotation    mgl32.Vec3 // radians around X, Y, Z
	ModelScaling     mgl32.Vec3
	ViewRotation     mgl32.Vec2 // radians around X, Y

	FovY float32 // degrees
	Near float32
	Far  float32

	Material         Material
	MaterialDiffuse  float32
	MaterialSpecular float32
}

// DefaultParams returns the settings the viewer starts with.
func DefaultParams() Params {
	return Params{
		UseTexture:       true,
		Perspective:      true,
		NormalScale:      0.1,
		ModelScaling:     mgl32.Vec3{1.8, 1.8, 1.8},
		FovY:             70,
		Near:             0.01,
		Far:              100,
		Material:         DefaultMaterial(),
		MaterialDiffuse:  1,
		MaterialSpecular: 1,
	}
}
