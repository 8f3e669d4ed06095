// Package gui draws the "Scene Control" panel and writes the values the
// user edits into the frame parameters.
package gui

import (
	"fmt"
	"time"

	"github.com/Faultbox/iblviewer/internal/engine/frame"
)

// Widgets is the immediate-mode toolkit the panel is drawn with.
type Widgets interface {
	BeginWindow(id string, x, y, w, h float32, title string) bool
	EndWindow()
	Row(height float32)
	Label(text string)
	Separator()
	Checkbox(id, label string, checked bool) bool
	SliderFloat(id, label string, v *float32, lo, hi float32) bool
	Selectable(id, label string, selected bool) bool
	Button(id string, width float32, label string) bool
	GetScreenSize() (float32, float32)
}

const (
	// DefaultWidth is the panel width in pixels.
	DefaultWidth  = 320
	rotationLimit = 3.14
)

// Panel is the control panel. Draw it once per frame before the pipeline
// update.
type Panel struct {
	// Width is the panel width in pixels.
	Width int
	// Reserve docks the panel beside the scene instead of over it.
	Reserve bool
	// Environments are the selectable cubemap sets.
	Environments []string
	// Environment is the active set.
	Environment string

	frameTime   time.Duration
	frames      int
	elapsed     time.Duration
	pendingEnv  string
	shotPending bool
}

// NewPanel returns a panel listing envs with active selected.
func NewPanel(envs []string, active string, reserve bool) *Panel {
	return &Panel{
		Width:        DefaultWidth,
		Reserve:      reserve,
		Environments: envs,
		Environment:  active,
	}
}

// Tick accumulates frame time; the displayed average refreshes twice a
// second.
func (p *Panel) Tick(dt time.Duration) {
	p.elapsed += dt
	p.frames++
	if p.elapsed >= 500*time.Millisecond {
		p.frameTime = p.elapsed / time.Duration(p.frames)
		p.elapsed, p.frames = 0, 0
	}
}

// FrameStats returns the label shown at the top of the panel.
func (p *Panel) FrameStats() string {
	if p.frameTime <= 0 {
		return "Average -- ms/frame"
	}
	ms := float64(p.frameTime) / float64(time.Millisecond)
	return fmt.Sprintf("Average %.3f ms/frame (%.1f FPS)", ms, 1000/ms)
}

// Draw lays out the panel and updates params in place. It returns the
// width reserved for the panel: its width when docked, else 0.
func (p *Panel) Draw(w Widgets, params *frame.Params) int {
	_, screenH := w.GetScreenSize()
	width := float32(p.Width)
	if !w.BeginWindow("scene", 0, 0, width, screenH, "Scene Control") {
		return 0
	}
	defer w.EndWindow()

	w.Label(p.FrameStats())
	w.Separator()

	w.Row(16)
	params.UseTexture = w.Checkbox("tex", "Use Texture", params.UseTexture)
	w.Row(16)
	params.Wireframe = w.Checkbox("wire", "Wireframe", params.Wireframe)
	w.Row(16)
	params.DrawNormals = w.Checkbox("normals", "Draw Normals", params.DrawNormals)
	w.Row(16)
	params.Perspective = w.Checkbox("persp", "Perspective", params.Perspective)
	w.Row(16)
	params.UseSmoothstep = w.Checkbox("smooth", "Use Smoothstep", params.UseSmoothstep)
	w.Separator()

	w.SliderFloat("nscale", "Normal scale", &params.NormalScale, 0, 1)
	for i, axis := range []string{"X", "Y", "Z"} {
		w.SliderFloat("mrot"+axis, "Model Rot "+axis, &params.ModelRotation[i], -rotationLimit, rotationLimit)
	}
	for i, axis := range []string{"X", "Y"} {
		w.SliderFloat("vrot"+axis, "View Rot "+axis, &params.ViewRotation[i], -rotationLimit, rotationLimit)
	}
	w.Separator()

	for i, ch := range []string{"R", "G", "B"} {
		w.SliderFloat("fresnel"+ch, "FresnelR0 "+ch, &params.Material.FresnelR0[i], 0, 1)
	}
	w.SliderFloat("diffuse", "Diffuse", &params.MaterialDiffuse, 0, 3)
	w.SliderFloat("specular", "Specular", &params.MaterialSpecular, 0, 3)
	w.SliderFloat("shininess", "Shininess", &params.Material.Shininess, 0.01, 20)

	if len(p.Environments) > 0 {
		w.Separator()
		w.Label("Environment")
		w.Row(0)
		for _, env := range p.Environments {
			if w.Selectable("env_"+env, env, env == p.Environment) && env != p.Environment {
				p.pendingEnv = env
			}
		}
	}

	w.Separator()
	if w.Button("screenshot", 0, "Screenshot (F12)") {
		p.shotPending = true
	}

	if p.Reserve {
		return p.Width
	}
	return 0
}

// TakeEnvironmentChange returns the set picked since the last call, if any.
// The caller switches the scene and then marks it active.
func (p *Panel) TakeEnvironmentChange() (string, bool) {
	env := p.pendingEnv
	p.pendingEnv = ""
	return env, env != ""
}

// TakeScreenshotRequest reports whether the screenshot button was pressed
// since the last call.
func (p *Panel) TakeScreenshotRequest() bool {
	req := p.shotPending
	p.shotPending = false
	return req
}
