package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 960 {
		t.Errorf("expected height 960, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}
	if cfg.Graphics.MSAASamples != 4 {
		t.Errorf("expected 4x MSAA by default, got %d", cfg.Graphics.MSAASamples)
	}

	if cfg.Scene.Environment != "Stonewall" {
		t.Errorf("expected environment Stonewall, got %s", cfg.Scene.Environment)
	}
	if cfg.Scene.FovY != 70 {
		t.Errorf("expected fov 70, got %f", cfg.Scene.FovY)
	}
	if cfg.Scene.Near != 0.01 || cfg.Scene.Far != 100 {
		t.Errorf("expected clip range 0.01..100, got %f..%f", cfg.Scene.Near, cfg.Scene.Far)
	}
	if cfg.Scene.ModelScale != 1.8 {
		t.Errorf("expected model scale 1.8, got %f", cfg.Scene.ModelScale)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestCubemapPaths(t *testing.T) {
	tests := []struct {
		env      string
		diffuse  string
		specular string
	}{
		{"Atrium", "Atrium_diffuseIBL.dds", "Atrium_specularIBL.dds"},
		{"Garage", "Garage_diffuseIBL.dds", "Garage_specularIBL.dds"},
		{"saint", "saint_diffuse.dds", "saint_specular.dds"},
	}
	for _, tt := range tests {
		s := SceneConfig{AssetDir: "assets", Environment: tt.env}
		if got, want := s.DiffuseCubemapPath(), filepath.Join("assets", tt.diffuse); got != want {
			t.Errorf("%s diffuse path = %s, want %s", tt.env, got, want)
		}
		if got, want := s.SpecularCubemapPath(), filepath.Join("assets", tt.specular); got != want {
			t.Errorf("%s specular path = %s, want %s", tt.env, got, want)
		}
	}
}

func TestTexturePath(t *testing.T) {
	tests := []struct {
		name    string
		texture string
		want    string
	}{
		{"relative", "ojwD8.jpg", filepath.Join("assets", "ojwD8.jpg")},
		{"empty", "", ""},
		{"absolute", "/data/tex.png", "/data/tex.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SceneConfig{AssetDir: "assets", Texture: tt.texture}
			if got := s.TexturePath(); got != tt.want {
				t.Errorf("TexturePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }, "window size"},
		{"bad msaa", func(c *Config) { c.Graphics.MSAASamples = 3 }, "msaa_samples"},
		{"no environment", func(c *Config) { c.Scene.Environment = "" }, "environment"},
		{"far before near", func(c *Config) { c.Scene.Far = 0.001 }, "clip range"},
		{"flat fov", func(c *Config) { c.Scene.FovY = 0 }, "fov_y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false
  msaa_samples: 1
  reserve_gui_width: true

scene:
  asset_dir: "/srv/ibl"
  environment: "Garage"
  model: "models/damaged_helmet.gltf"
  fov_y: 60

logging:
  level: "debug"
  log_file: "viewer.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 1080 {
		t.Errorf("expected height 1080, got %d", cfg.Graphics.Height)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.VSync {
		t.Error("expected vsync to be false")
	}
	if cfg.Graphics.MSAASamples != 1 {
		t.Errorf("expected msaa 1, got %d", cfg.Graphics.MSAASamples)
	}
	if !cfg.Graphics.ReserveGUIWidth {
		t.Error("expected reserve_gui_width to be true")
	}

	if cfg.Scene.Environment != "Garage" {
		t.Errorf("expected environment Garage, got %s", cfg.Scene.Environment)
	}
	if cfg.Scene.Model != "models/damaged_helmet.gltf" {
		t.Errorf("unexpected model %s", cfg.Scene.Model)
	}
	if cfg.Scene.FovY != 60 {
		t.Errorf("expected fov 60, got %f", cfg.Scene.FovY)
	}
	// Untouched keys keep their defaults
	if cfg.Scene.Far != 100 {
		t.Errorf("expected far 100 from defaults, got %f", cfg.Scene.Far)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("expected log file 'viewer.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
				if !cfg.Debug.ShowFPS {
					t.Error("expected show_fps to be enabled with debug flag")
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Graphics.Width)
				}
				if cfg.Graphics.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name: "environment and model flags",
			setup: func() {
				*flagEnv = "Atrium"
				*flagModel = "helmet.gltf"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Scene.Environment != "Atrium" {
					t.Errorf("expected environment Atrium, got %s", cfg.Scene.Environment)
				}
				if cfg.Scene.Model != "helmet.gltf" {
					t.Errorf("expected model helmet.gltf, got %s", cfg.Scene.Model)
				}
			},
			teardown: func() {
				*flagEnv = ""
				*flagModel = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
scene:
  environment: "CloudCommon"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width from flag, not file
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
	if cfg.Scene.Environment != "CloudCommon" {
		t.Errorf("expected environment from file, got %s", cfg.Scene.Environment)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  msaa_samples: 8\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject msaa_samples 8")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Scene.Environment = "MSPath"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Scene.Environment != "MSPath" {
		t.Errorf("expected saved environment MSPath, got %s", loaded.Scene.Environment)
	}
}
