package frame

import "github.com/go-gl/mathgl/mgl32"

// Transforms are the matrices of one frame, in the column-major form the
// shaders consume.
type Transforms struct {
	Model        mgl32.Mat4
	InvTranspose mgl32.Mat4
	View         mgl32.Mat4
	Projection   mgl32.Mat4
	EyeWorld     mgl32.Vec3
}

// ComputeTransforms builds the model, normal, view and projection matrices.
// The model applies scale, then rotations around Y, X and Z, then the
// translation. The view rotates around Y, then X, then moves the scene
// CameraDistance units in front of the eye.
func ComputeTransforms(p Params, aspect float32) Transforms {
	var t Transforms

	t.Model = mgl32.Translate3D(p.ModelTranslation[0], p.ModelTranslation[1], p.ModelTranslation[2]).
		Mul4(mgl32.HomogRotate3DZ(p.ModelRotation[2])).
		Mul4(mgl32.HomogRotate3DX(p.ModelRotation[0])).
		Mul4(mgl32.HomogRotate3DY(p.ModelRotation[1])).
		Mul4(mgl32.Scale3D(p.ModelScaling[0], p.ModelScaling[1], p.ModelScaling[2]))

	linear := t.Model
	linear[12], linear[13], linear[14] = 0, 0, 0
	t.InvTranspose = linear.Inv().Transpose()

	t.View = mgl32.Translate3D(0, 0, -CameraDistance).
		Mul4(mgl32.HomogRotate3DX(p.ViewRotation[0])).
		Mul4(mgl32.HomogRotate3DY(p.ViewRotation[1]))
	t.EyeWorld = mgl32.TransformCoordinate(mgl32.Vec3{}, t.View.Inv())

	if p.Perspective {
		t.Projection = mgl32.Perspective(mgl32.DegToRad(p.FovY), aspect, p.Near, p.Far)
	} else {
		t.Projection = mgl32.Ortho(-aspect, aspect, -1, 1, p.Near, p.Far)
	}
	return t
}
