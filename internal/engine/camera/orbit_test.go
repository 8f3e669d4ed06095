package camera

import (
	"math"
	"testing"

	"github.com/Faultbox/iblviewer/internal/engine/frame"
	"github.com/Faultbox/iblviewer/internal/engine/input"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestDrag(t *testing.T) {
	o := NewOrbit()
	p := frame.DefaultParams()

	events := []input.Event{
		{Type: input.EventMouseMove, MouseX: 0, MouseY: 0},
		{Type: input.EventMouseDown, Button: input.ButtonLeft, MouseX: 100, MouseY: 100},
		{Type: input.EventMouseMove, MouseX: 120, MouseY: 90},
		{Type: input.EventMouseUp, Button: input.ButtonLeft, MouseX: 120, MouseY: 90},
		{Type: input.EventMouseMove, MouseX: 500, MouseY: 500},
	}
	consumed := []bool{false, true, true, true, false}
	for i, ev := range events {
		if got := o.HandleEvent(ev, &p); got != consumed[i] {
			t.Errorf("event %d consumed = %v, want %v", i, got, consumed[i])
		}
	}

	if !near(p.ViewRotation[1], -20*o.DragSensitivity) {
		t.Errorf("yaw = %v", p.ViewRotation[1])
	}
	if !near(p.ViewRotation[0], -10*o.DragSensitivity) {
		t.Errorf("pitch = %v", p.ViewRotation[0])
	}
	if o.Dragging() {
		t.Error("drag should end on release")
	}
}

func TestDragLimits(t *testing.T) {
	o := NewOrbit()
	p := frame.DefaultParams()

	o.HandleDrag(0, 10000, &p)
	if p.ViewRotation[0] != o.MaxPitch {
		t.Errorf("pitch = %v, want clamped to %v", p.ViewRotation[0], o.MaxPitch)
	}
	o.HandleDrag(-1000, 0, &p)
	if y := p.ViewRotation[1]; y < -math.Pi || y > math.Pi {
		t.Errorf("yaw %v not wrapped", y)
	}
}

func TestMiddleButtonIgnored(t *testing.T) {
	o := NewOrbit()
	p := frame.DefaultParams()
	if o.HandleEvent(input.Event{Type: input.EventMouseDown, Button: input.ButtonMiddle}, &p) {
		t.Error("middle button should not start a drag")
	}
}

func TestZoom(t *testing.T) {
	tests := []struct {
		name  string
		start float32
		delta float32
		want  float32
	}{
		{"in", 1, 1, 1.1},
		{"out", 1, -1, 0.9},
		{"min", 0.1, -5, 0.1},
		{"max", 10, 5, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrbit()
			p := frame.DefaultParams()
			p.ModelScaling[0], p.ModelScaling[1], p.ModelScaling[2] = tt.start, tt.start, tt.start
			if !o.HandleEvent(input.Event{Type: input.EventMouseWheel, WheelY: tt.delta}, &p) {
				t.Fatal("wheel not consumed")
			}
			for i := 0; i < 3; i++ {
				if !near(p.ModelScaling[i], tt.want) {
					t.Errorf("scale[%d] = %v, want %v", i, p.ModelScaling[i], tt.want)
				}
			}
		})
	}
}
