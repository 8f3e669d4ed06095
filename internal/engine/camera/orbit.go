// Package camera turns mouse input into view changes.
package camera

import (
	"math"

	"github.com/Faultbox/iblviewer/internal/engine/frame"
	"github.com/Faultbox/iblviewer/internal/engine/input"
)

// Orbit rotates the view around the model while a mouse button is held and
// zooms by scaling the model with the wheel.
type Orbit struct {
	// Constraints
	MinPitch float32
	MaxPitch float32
	MinScale float32
	MaxScale float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	dragging     bool
	lastX, lastY int
}

// NewOrbit creates an orbit controller with default settings.
func NewOrbit() *Orbit {
	return &Orbit{
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		MinScale:        0.1,
		MaxScale:        10,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// HandleEvent applies ev to p and reports whether ev was a camera event.
func (o *Orbit) HandleEvent(ev input.Event, p *frame.Params) bool {
	switch ev.Type {
	case input.EventMouseDown:
		if ev.Button != input.ButtonLeft && ev.Button != input.ButtonRight {
			return false
		}
		o.dragging = true
		o.lastX, o.lastY = ev.MouseX, ev.MouseY
		return true
	case input.EventMouseUp:
		if !o.dragging {
			return false
		}
		o.dragging = false
		return true
	case input.EventMouseMove:
		if !o.dragging {
			return false
		}
		o.HandleDrag(float32(ev.MouseX-o.lastX), float32(ev.MouseY-o.lastY), p)
		o.lastX, o.lastY = ev.MouseX, ev.MouseY
		return true
	case input.EventMouseWheel:
		o.HandleZoom(ev.WheelY, p)
		return true
	}
	return false
}

// Dragging reports whether a drag is in progress.
func (o *Orbit) Dragging() bool { return o.dragging }

// HandleDrag updates the view rotation from a mouse delta in pixels.
func (o *Orbit) HandleDrag(deltaX, deltaY float32, p *frame.Params) {
	p.ViewRotation[1] = wrapAngle(p.ViewRotation[1] - deltaX*o.DragSensitivity)
	p.ViewRotation[0] = clamp(p.ViewRotation[0]+deltaY*o.DragSensitivity, o.MinPitch, o.MaxPitch)
}

// HandleZoom scales the model uniformly by wheel steps.
func (o *Orbit) HandleZoom(delta float32, p *frame.Params) {
	s := p.ModelScaling[0] * (1 + delta*o.ZoomSensitivity)
	s = clamp(s, o.MinScale, o.MaxScale)
	p.ModelScaling[0], p.ModelScaling[1], p.ModelScaling[2] = s, s, s
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(hi, v))
}

// wrapAngle maps a to [-pi, pi].
func wrapAngle(a float32) float32 {
	return float32(math.Remainder(float64(a), 2*math.Pi))
}
