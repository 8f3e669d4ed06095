// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"
	"path/filepath"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Scene    SceneConfig    `yaml:"scene"`
	Debug    DebugConfig    `yaml:"debug"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width       int  `yaml:"width"`
	Height      int  `yaml:"height"`
	Fullscreen  bool `yaml:"fullscreen"`
	VSync       bool `yaml:"vsync"`
	MSAASamples int  `yaml:"msaa_samples"` // 4 or 1; falls back to 1 when unsupported
	// ReserveGUIWidth docks the control panel on the left and shrinks the
	// 3D viewport by its width. When false the panel overlays the scene.
	ReserveGUIWidth bool `yaml:"reserve_gui_width"`
}

// SceneConfig holds the assets and camera defaults of the IBL scene.
type SceneConfig struct {
	AssetDir    string  `yaml:"asset_dir"`   // Directory holding the cubemaps and textures
	Environment string  `yaml:"environment"` // Cubemap set name, e.g. "Stonewall"
	Model       string  `yaml:"model"`       // glTF file; empty uses the built-in sphere
	Texture     string  `yaml:"texture"`     // Diffuse texture for the built-in sphere
	FovY        float32 `yaml:"fov_y"`       // Degrees
	Near        float32 `yaml:"near"`
	Far         float32 `yaml:"far"`
	ModelScale  float32 `yaml:"model_scale"`
	EnvBoxScale float32 `yaml:"env_box_scale"`
}

// DebugConfig holds developer tooling settings.
type DebugConfig struct {
	ScreenshotDir string `yaml:"screenshot_dir"`
	ShowFPS       bool   `yaml:"show_fps"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Environments lists the cubemap sets shipped with the viewer.
var Environments = []string{"Atrium", "Stonewall", "CloudCommon", "saint", "Garage", "MSPath"}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:       1280,
			Height:      960,
			Fullscreen:  false,
			VSync:       true,
			MSAASamples: 4,
		},
		Scene: SceneConfig{
			AssetDir:    "./CubemapTextures",
			Environment: "Stonewall",
			Texture:     "ojwD8.jpg",
			FovY:        70,
			Near:        0.01,
			Far:         100,
			ModelScale:  1.8,
			EnvBoxScale: 20,
		},
		Debug: DebugConfig{
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// cubemapFiles names the sets that do not follow the <Set>_diffuseIBL.dds
// and <Set>_specularIBL.dds pattern.
var cubemapFiles = map[string][2]string{
	"saint": {"saint_diffuse.dds", "saint_specular.dds"},
}

// DiffuseCubemapPath returns the path of the diffuse irradiance map of the
// configured environment set.
func (s SceneConfig) DiffuseCubemapPath() string {
	if f, ok := cubemapFiles[s.Environment]; ok {
		return filepath.Join(s.AssetDir, f[0])
	}
	return filepath.Join(s.AssetDir, s.Environment+"_diffuseIBL.dds")
}

// SpecularCubemapPath returns the path of the prefiltered specular map of the
// configured environment set.
func (s SceneConfig) SpecularCubemapPath() string {
	if f, ok := cubemapFiles[s.Environment]; ok {
		return filepath.Join(s.AssetDir, f[1])
	}
	return filepath.Join(s.AssetDir, s.Environment+"_specularIBL.dds")
}

// TexturePath returns the diffuse texture path resolved against the asset dir.
func (s SceneConfig) TexturePath() string {
	if s.Texture == "" || filepath.IsAbs(s.Texture) {
		return s.Texture
	}
	return filepath.Join(s.AssetDir, s.Texture)
}

// Validate checks values that would make the renderer misbehave.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	switch c.Graphics.MSAASamples {
	case 1, 4:
	default:
		return fmt.Errorf("msaa_samples must be 1 or 4, got %d", c.Graphics.MSAASamples)
	}
	if c.Scene.Environment == "" {
		return fmt.Errorf("scene.environment is empty")
	}
	if c.Scene.Near <= 0 || c.Scene.Far <= c.Scene.Near {
		return fmt.Errorf("invalid clip range near=%g far=%g", c.Scene.Near, c.Scene.Far)
	}
	if c.Scene.FovY <= 0 || c.Scene.FovY >= 180 {
		return fmt.Errorf("invalid fov_y %g", c.Scene.FovY)
	}
	return nil
}
