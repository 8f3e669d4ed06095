package ibl

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/iblviewer/internal/config"
	"github.com/Faultbox/iblviewer/internal/engine/geometry"
	"github.com/Faultbox/iblviewer/internal/engine/gpu"
	"github.com/Faultbox/iblviewer/internal/engine/gpu/gputest"
	"github.com/Faultbox/iblviewer/internal/engine/importer"
	"github.com/Faultbox/iblviewer/internal/engine/input"
	"github.com/Faultbox/iblviewer/internal/engine/resource"
	"github.com/Faultbox/iblviewer/internal/engine/texture"
	"github.com/Faultbox/iblviewer/pkg/formats"
)

type fixture struct {
	rec      *gputest.Recorder
	app      *App
	ddsPaths []string
	images   []string
}

func newFixture(t *testing.T, sc config.SceneConfig) *fixture {
	t.Helper()
	rec := gputest.New()
	s, err := gpu.InitializeSurface(rec, gpu.SurfaceConfig{Width: 640, Height: 480})
	if err != nil {
		t.Fatalf("InitializeSurface: %v", err)
	}
	f := &fixture{rec: rec}
	f.app = New(s, Config{
		Scene: sc,
		UploaderOptions: []resource.Option{
			resource.WithImageLoader(func(path string) (*texture.Image, error) {
				f.images = append(f.images, path)
				return &texture.Image{Width: 1, Height: 1, Channels: 4, Pix: []byte{255, 255, 255, 255}}, nil
			}),
			resource.WithDDSLoader(func(path string) (*formats.DDS, error) {
				f.ddsPaths = append(f.ddsPaths, path)
				d := &formats.DDS{Width: 1, Height: 1, MipCount: 1, Format: formats.DXGIRGBA8Unorm, Cubemap: true, Images: 6}
				for i := 0; i < 6; i++ {
					d.Surfaces = append(d.Surfaces, []byte{0, 0, 0, 255})
				}
				return d, nil
			}),
		},
	})
	return f
}

func defaultScene() config.SceneConfig {
	return config.Default().Scene
}

func TestInitializeBuiltInSphere(t *testing.T) {
	f := newFixture(t, defaultScene())
	if err := f.app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer f.app.Close()

	var names []string
	for _, p := range f.rec.Programs {
		names = append(names, p.Src.Name)
	}
	if len(names) != 3 || names[0] != "basic" || names[1] != "cubemap" || names[2] != "normal" {
		t.Errorf("programs = %v", names)
	}

	sc := f.app.Scene()
	if sc.Len() != 1 {
		t.Fatalf("meshes = %d, want 1", sc.Len())
	}
	sphere := sc.Meshes()[0]
	if sphere.TextureView == nil {
		t.Error("sphere should be textured")
	}
	if want := filepath.Join("CubemapTextures", "ojwD8.jpg"); len(f.images) != 1 || filepath.Clean(f.images[0]) != want {
		t.Errorf("texture loads = %v, want %s", f.images, want)
	}
	if cm := sc.CubeMapping(); cm == nil || cm.Diffuse == nil || cm.Specular == nil {
		t.Fatal("environment not loaded")
	}
	want := 2 * len(geometry.MakeSphere(sphereRadius, sphereSlices, sphereStacks).Vertices)
	if nl := sc.NormalLines(); nl == nil || nl.IndexCount != want {
		t.Errorf("normal lines should hold one segment per sphere vertex (%d indices)", want)
	}

	p := f.app.Params()
	if p.ModelScaling[0] != 1.8 || p.FovY != 70 || p.Near != 0.01 || p.Far != 100 {
		t.Errorf("params not taken from config: %+v", p)
	}
}

func TestInitializeMissingModel(t *testing.T) {
	sc := defaultScene()
	sc.Model = filepath.Join(t.TempDir(), "missing.gltf")
	f := newFixture(t, sc)
	defer f.app.Close()

	if err := f.app.Initialize(); !errors.Is(err, importer.ErrModelLoad) {
		t.Errorf("err = %v, want ErrModelLoad", err)
	}
}

func TestFrame(t *testing.T) {
	f := newFixture(t, defaultScene())
	if err := f.app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer f.app.Close()
	f.rec.Reset()

	if err := f.app.Update(0.016); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := f.app.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	draws := f.rec.Draws()
	if len(draws) != 2 {
		t.Fatalf("draws = %d, want cube and sphere", len(draws))
	}
	if draws[0].State.Program.Name() != "cubemap" || draws[1].State.Program.Name() != "basic" {
		t.Errorf("draw programs = %s, %s", draws[0].State.Program.Name(), draws[1].State.Program.Name())
	}

	f.app.HandleEvent(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_N})
	f.rec.Reset()
	f.app.Update(0.016)
	if err := f.app.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if draws := f.rec.Draws(); len(draws) != 3 || draws[2].State.Topology != gpu.LineList {
		t.Errorf("normal overlay not drawn: %d draws", len(draws))
	}
}

func TestSetEnvironment(t *testing.T) {
	f := newFixture(t, defaultScene())
	if err := f.app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer f.app.Close()
	old := f.app.Scene().CubeMapping()
	f.ddsPaths = nil

	if err := f.app.SetEnvironment("Garage"); err != nil {
		t.Fatalf("SetEnvironment: %v", err)
	}
	want := []string{
		filepath.Join("CubemapTextures", "Garage_diffuseIBL.dds"),
		filepath.Join("CubemapTextures", "Garage_specularIBL.dds"),
	}
	if len(f.ddsPaths) != 2 || filepath.Clean(f.ddsPaths[0]) != want[0] || filepath.Clean(f.ddsPaths[1]) != want[1] {
		t.Errorf("loaded %v, want %v", f.ddsPaths, want)
	}
	cm := f.app.Scene().CubeMapping()
	if cm == old || cm.Program != old.Program {
		t.Error("cube mapping should be rebuilt with the same program")
	}
}

func TestHandleEventToggles(t *testing.T) {
	f := newFixture(t, defaultScene())
	if err := f.app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer f.app.Close()

	tests := []struct {
		key  sdl.Scancode
		get  func() bool
		name string
	}{
		{sdl.SCANCODE_T, func() bool { return f.app.Params().UseTexture }, "texture"},
		{sdl.SCANCODE_W, func() bool { return f.app.Params().Wireframe }, "wireframe"},
		{sdl.SCANCODE_N, func() bool { return f.app.Params().DrawNormals }, "normals"},
		{sdl.SCANCODE_P, func() bool { return f.app.Params().Perspective }, "perspective"},
	}
	for _, tt := range tests {
		before := tt.get()
		if !f.app.HandleEvent(input.Event{Type: input.EventKeyDown, Key: tt.key}) {
			t.Errorf("%s: key not consumed", tt.name)
		}
		if tt.get() == before {
			t.Errorf("%s: not toggled", tt.name)
		}
		f.app.HandleEvent(input.Event{Type: input.EventKeyDown, Key: tt.key, Repeat: true})
		if tt.get() == before {
			t.Errorf("%s: repeat should be ignored", tt.name)
		}
	}
	if f.app.HandleEvent(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_Q}) {
		t.Error("unbound key consumed")
	}
}

func TestHandleEventMouseDrag(t *testing.T) {
	f := newFixture(t, defaultScene())
	if err := f.app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer f.app.Close()

	f.app.HandleEvent(input.Event{Type: input.EventMouseDown, Button: input.ButtonLeft, MouseX: 400, MouseY: 300})
	f.app.HandleEvent(input.Event{Type: input.EventMouseMove, MouseX: 450, MouseY: 300})
	f.app.HandleEvent(input.Event{Type: input.EventMouseUp, Button: input.ButtonLeft, MouseX: 450, MouseY: 300})

	if f.app.Params().ViewRotation[1] >= 0 {
		t.Errorf("yaw = %v, want negative after dragging right", f.app.Params().ViewRotation[1])
	}
}

func TestClose(t *testing.T) {
	f := newFixture(t, defaultScene())
	if err := f.app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	f.app.Close()

	for _, p := range f.rec.Programs {
		if !p.Released {
			t.Errorf("program %s not released", p.Src.Name)
		}
	}
	for _, b := range f.rec.Buffers {
		if !b.Released {
			t.Errorf("buffer %d not released", b.ID)
		}
	}
}
