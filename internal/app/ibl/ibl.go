// Package ibl is the image-based lighting demo: a textured sphere or a
// glTF model lit by a diffuse irradiance cubemap and a prefiltered specular
// cubemap, inside a box showing the environment.
package ibl

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/app"
	"github.com/Faultbox/iblviewer/internal/app/ibl/shaders"
	"github.com/Faultbox/iblviewer/internal/config"
	"github.com/Faultbox/iblviewer/internal/engine/camera"
	"github.com/Faultbox/iblviewer/internal/engine/frame"
	"github.com/Faultbox/iblviewer/internal/engine/geometry"
	"github.com/Faultbox/iblviewer/internal/engine/gpu"
	"github.com/Faultbox/iblviewer/internal/engine/gui"
	"github.com/Faultbox/iblviewer/internal/engine/importer"
	"github.com/Faultbox/iblviewer/internal/engine/input"
	"github.com/Faultbox/iblviewer/internal/engine/resource"
	"github.com/Faultbox/iblviewer/internal/engine/scene"
	"github.com/Faultbox/iblviewer/internal/engine/ui2d"
	"github.com/Faultbox/iblviewer/internal/logger"
)

// Built-in sphere, used when no model is configured.
const (
	sphereRadius = 0.3
	sphereSlices = 100
	sphereStacks = 100
)

// Config configures the demo.
type Config struct {
	Scene config.SceneConfig
	// ReserveGUI docks the control panel and shrinks the 3D viewport.
	ReserveGUI bool
	Logger     *zap.Logger
	// UploaderOptions are passed to the resource uploader; tests use them
	// to replace the file loaders.
	UploaderOptions []resource.Option
}

// App implements app.App.
type App struct {
	surface *gpu.Surface
	cfg     Config
	log     *zap.Logger

	up       *resource.Uploader
	scene    *scene.Scene
	pipeline *frame.Pipeline
	programs []gpu.Program
	panel    *gui.Panel
	orbit    *camera.Orbit
	params   frame.Params
}

var (
	_ app.App                 = (*App)(nil)
	_ app.ScreenshotRequester = (*App)(nil)
)

// New returns the demo drawing on surface. Nothing is created before
// Initialize.
func New(surface *gpu.Surface, cfg Config) *App {
	log := cfg.Logger
	log = logger.OrNop(log)
	return &App{surface: surface, cfg: cfg, log: log, orbit: camera.NewOrbit()}
}

// Initialize compiles the programs, uploads the meshes and the environment
// and sets up the frame pipeline.
func (a *App) Initialize() error {
	dev := a.surface.Device()
	opts := append([]resource.Option{resource.WithLogger(a.log)}, a.cfg.UploaderOptions...)
	a.up = resource.NewUploader(dev, a.surface.Context(), opts...)

	basic, err := a.createProgram(gpu.ShaderSource{
		Name:   "basic",
		Vertex: shaders.BasicVertexShader,
		Pixel:  shaders.BasicFragmentShader,
		Layout: geometry.VertexLayout,
		Blocks: []gpu.BlockBinding{
			{Name: "VertexConstants", Stage: gpu.StageVertex, Slot: 0},
			{Name: "PixelConstants", Stage: gpu.StagePixel, Slot: 0},
		},
		Textures: []gpu.TextureBinding{
			{Name: "albedoTex", Slot: 0},
			{Name: "diffuseIBL", Slot: 1},
			{Name: "specularIBL", Slot: 2},
		},
	})
	if err != nil {
		return err
	}
	cube, err := a.createProgram(gpu.ShaderSource{
		Name:   "cubemap",
		Vertex: shaders.CubemapVertexShader,
		Pixel:  shaders.CubemapFragmentShader,
		Layout: geometry.VertexLayout,
		Blocks: []gpu.BlockBinding{
			{Name: "VertexConstants", Stage: gpu.StageVertex, Slot: 0},
		},
		Textures: []gpu.TextureBinding{
			{Name: "diffuseIBL", Slot: 0},
			{Name: "specularIBL", Slot: 1},
		},
	})
	if err != nil {
		return err
	}
	normal, err := a.createProgram(gpu.ShaderSource{
		Name:   "normal",
		Vertex: shaders.NormalVertexShader,
		Pixel:  shaders.NormalFragmentShader,
		Layout: geometry.VertexLayout,
		Blocks: []gpu.BlockBinding{
			{Name: "VertexConstants", Stage: gpu.StageVertex, Slot: 0},
			{Name: "NormalConstants", Stage: gpu.StageVertex, Slot: 1},
		},
	})
	if err != nil {
		return err
	}

	a.scene = scene.New(a.up, frame.VertexConstants{}, frame.PixelConstants{}, a.log)

	meshes, err := a.loadMeshes()
	if err != nil {
		return err
	}
	shared, err := a.scene.NewConstants(frame.VertexConstants{}, frame.PixelConstants{})
	if err != nil {
		return fmt.Errorf("mesh constants: %w", err)
	}
	for _, m := range meshes {
		if _, err := a.scene.AddMesh(m, &shared); err != nil {
			return fmt.Errorf("add mesh: %w", err)
		}
	}

	if err := a.scene.SetCubeMapping(a.cubeMappingDesc(a.cfg.Scene, cube)); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	params := frame.DefaultParams()
	nc, err := a.scene.NewConstants(frame.NormalConstants{Scale: params.NormalScale}, nil)
	if err != nil {
		return fmt.Errorf("normal constants: %w", err)
	}
	if err := a.scene.SetNormalLines(geometry.NormalLines(meshes), nc); err != nil {
		return err
	}

	a.pipeline, err = frame.New(frame.Config{
		Surface:     a.surface,
		Uploader:    a.up,
		Scene:       a.scene,
		Programs:    frame.Programs{Basic: basic, Normal: normal},
		NormalScale: params.NormalScale,
		Logger:      a.log,
	})
	if err != nil {
		return err
	}

	sc := a.cfg.Scene
	if sc.FovY > 0 {
		params.FovY = sc.FovY
	}
	if sc.Near > 0 && sc.Far > sc.Near {
		params.Near, params.Far = sc.Near, sc.Far
	}
	if sc.ModelScale > 0 {
		params.ModelScaling = mgl32.Vec3{sc.ModelScale, sc.ModelScale, sc.ModelScale}
	}
	a.params = params
	a.panel = gui.NewPanel(config.Environments, sc.Environment, a.cfg.ReserveGUI)

	a.log.Info("scene ready",
		zap.Int("meshes", a.scene.Len()),
		zap.String("environment", sc.Environment))
	return nil
}

func (a *App) createProgram(src gpu.ShaderSource) (gpu.Program, error) {
	p, err := a.surface.Device().CreateProgram(src)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", src.Name, err)
	}
	a.programs = append(a.programs, p)
	return p, nil
}

// loadMeshes returns the configured model, or the textured sphere.
func (a *App) loadMeshes() ([]geometry.MeshData, error) {
	sc := a.cfg.Scene
	if sc.Model == "" {
		sphere := geometry.MakeSphere(sphereRadius, sphereSlices, sphereStacks)
		sphere.TextureFilename = sc.TexturePath()
		return []geometry.MeshData{sphere}, nil
	}
	meshes, err := importer.Load(filepath.Dir(sc.Model), filepath.Base(sc.Model), a.log)
	if err != nil {
		return nil, err
	}
	return meshes, nil
}

func (a *App) cubeMappingDesc(sc config.SceneConfig, program gpu.Program) scene.CubeMappingDesc {
	scale := sc.EnvBoxScale
	if scale <= 0 {
		scale = 20
	}
	return scene.CubeMappingDesc{
		DiffusePath:  sc.DiffuseCubemapPath(),
		SpecularPath: sc.SpecularCubemapPath(),
		Scale:        scale,
		Program:      program,
	}
}

// SetEnvironment switches the cubemap set. Missing maps are logged by the
// scene and the set is still selected.
func (a *App) SetEnvironment(env string) error {
	sc := a.cfg.Scene
	sc.Environment = env
	cube := a.scene.CubeMapping()
	if cube == nil {
		return fmt.Errorf("no environment to replace")
	}
	if err := a.scene.SetCubeMapping(a.cubeMappingDesc(sc, cube.Program)); err != nil {
		return fmt.Errorf("environment %s: %w", env, err)
	}
	a.cfg.Scene = sc
	a.panel.Environment = env
	a.log.Info("environment changed", zap.String("environment", env))
	return nil
}

// UpdateGUI draws the control panel.
func (a *App) UpdateGUI(ui *ui2d.Context) int {
	return a.panel.Draw(ui, &a.params)
}

// Update applies pending panel actions and uploads this frame's constants.
func (a *App) Update(dt float32) error {
	a.panel.Tick(time.Duration(dt * float32(time.Second)))
	if env, ok := a.panel.TakeEnvironmentChange(); ok {
		if err := a.SetEnvironment(env); err != nil {
			a.log.Warn("environment switch failed", zap.Error(err))
		}
	}
	a.pipeline.Update(a.params, dt)
	return nil
}

// Render draws the frame.
func (a *App) Render() error {
	return a.pipeline.Render()
}

// HandleEvent rotates and zooms the view with the mouse and maps the
// keyboard shortcuts of the panel toggles.
func (a *App) HandleEvent(ev input.Event) bool {
	if a.orbit.HandleEvent(ev, &a.params) {
		return true
	}
	if ev.Type != input.EventKeyDown || ev.Repeat {
		return false
	}
	switch ev.Key {
	case sdl.SCANCODE_T:
		a.params.UseTexture = !a.params.UseTexture
	case sdl.SCANCODE_W:
		a.params.Wireframe = !a.params.Wireframe
	case sdl.SCANCODE_N:
		a.params.DrawNormals = !a.params.DrawNormals
	case sdl.SCANCODE_P:
		a.params.Perspective = !a.params.Perspective
	default:
		return false
	}
	return true
}

// TakeScreenshotRequest reports a press of the panel's screenshot button.
func (a *App) TakeScreenshotRequest() bool {
	return a.panel != nil && a.panel.TakeScreenshotRequest()
}

// Params returns the current interactive parameters.
func (a *App) Params() frame.Params { return a.params }

// Scene returns the scene, nil before Initialize.
func (a *App) Scene() *scene.Scene { return a.scene }

// Close releases everything Initialize created.
func (a *App) Close() {
	if a.pipeline != nil {
		a.pipeline.Release()
	}
	if a.scene != nil {
		a.scene.Release()
	}
	for _, p := range a.programs {
		p.Release()
	}
	a.programs = nil
}
