package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Faultbox/modelview/internal/engine/lighting"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("expected window 800x600, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync to be true by default")
	}

	if !cfg.Viewer.AutoRotate {
		t.Error("expected auto_rotate to be true by default")
	}
	if cfg.Viewer.CanonicalSize != 2 {
		t.Errorf("expected canonical size 2, got %f", cfg.Viewer.CanonicalSize)
	}
	if cfg.Viewer.RotateStep != 0.01 {
		t.Errorf("expected rotate step 0.01, got %f", cfg.Viewer.RotateStep)
	}
	if cfg.Viewer.SnapshotDir != "snapshots" {
		t.Errorf("expected snapshot dir snapshots, got %s", cfg.Viewer.SnapshotDir)
	}

	if cfg.Camera.FOVDegrees != 75 {
		t.Errorf("expected fov 75, got %f", cfg.Camera.FOVDegrees)
	}
	if cfg.Camera.Near != 0.1 || cfg.Camera.Far != 1000 {
		t.Errorf("expected near/far 0.1/1000, got %f/%f", cfg.Camera.Near, cfg.Camera.Far)
	}

	if cfg.Lighting.Ambient.Intensity != 1.2 {
		t.Errorf("expected ambient intensity 1.2, got %f", cfg.Lighting.Ambient.Intensity)
	}
	if cfg.Lighting.Key.Intensity != 2 || cfg.Lighting.Fill.Intensity != 1 {
		t.Errorf("expected key/fill intensity 2/1, got %f/%f", cfg.Lighting.Key.Intensity, cfg.Lighting.Fill.Intensity)
	}
	if cfg.Lighting.Key.Color != lighting.HexColor(0x00ffd5) {
		t.Errorf("expected cyan key light, got %v", cfg.Lighting.Key.Color)
	}
	if cfg.Lighting.Fill.Color != lighting.HexColor(0xff00aa) {
		t.Errorf("expected magenta fill light, got %v", cfg.Lighting.Fill.Color)
	}
	if cfg.Lighting.Key.Direction != [3]float32{-5, -5, -5} || cfg.Lighting.Fill.Direction != [3]float32{5, -2, 5} {
		t.Errorf("unexpected light directions %v %v", cfg.Lighting.Key.Direction, cfg.Lighting.Fill.Direction)
	}
	if !cfg.Lighting.Key.CastShadow || cfg.Lighting.Fill.CastShadow {
		t.Error("expected only the key light to cast shadows")
	}
	if cfg.Lighting.Emissive.Color != lighting.HexColor(0x001122) || cfg.Lighting.Emissive.Intensity != 0.1 {
		t.Errorf("unexpected emissive %+v", cfg.Lighting.Emissive)
	}
	if !cfg.Lighting.Shadows || cfg.Lighting.ShadowResolution != 2048 {
		t.Errorf("expected 2048 shadow map, got %v %d", cfg.Lighting.Shadows, cfg.Lighting.ShadowResolution)
	}

	if cfg.Assets.HTTPTimeout != 30*time.Second {
		t.Errorf("expected http timeout 30s, got %v", cfg.Assets.HTTPTimeout)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if cfg.Watch {
		t.Error("expected watch to be false by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "modelview.yaml")

	yamlContent := `
window:
  title: "inspect"
  width: 1920
  height: 1080
  vsync: false

viewer:
  asset: "models/duck.gltf"
  auto_rotate: false
  canonical_size: 4

camera:
  fov_degrees: 60

lighting:
  shadows: false
  fill:
    color: [1, 1, 1]
    intensity: 0.5
    direction: [0, -1, 0]

assets:
  roots: ["assets", "/srv/models"]
  http_timeout: 5s
  cache: false

logging:
  level: "debug"
  log_file: "viewer.log"

watch: true
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Title != "inspect" {
		t.Errorf("expected title 'inspect', got %s", cfg.Window.Title)
	}
	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.VSync {
		t.Error("expected vsync to be false")
	}

	if cfg.Viewer.Asset != "models/duck.gltf" {
		t.Errorf("expected asset models/duck.gltf, got %s", cfg.Viewer.Asset)
	}
	if cfg.Viewer.AutoRotate {
		t.Error("expected auto_rotate to be false")
	}
	if cfg.Viewer.CanonicalSize != 4 {
		t.Errorf("expected canonical size 4, got %f", cfg.Viewer.CanonicalSize)
	}
	// Untouched keys keep their defaults.
	if cfg.Viewer.RotateStep != 0.01 {
		t.Errorf("expected default rotate step, got %f", cfg.Viewer.RotateStep)
	}

	if cfg.Camera.FOVDegrees != 60 {
		t.Errorf("expected fov 60, got %f", cfg.Camera.FOVDegrees)
	}
	if cfg.Camera.Far != 1000 {
		t.Errorf("expected default far plane, got %f", cfg.Camera.Far)
	}

	if cfg.Lighting.Shadows {
		t.Error("expected shadows to be false")
	}
	if cfg.Lighting.Fill.Intensity != 0.5 || cfg.Lighting.Fill.Direction != [3]float32{0, -1, 0} {
		t.Errorf("unexpected fill light %+v", cfg.Lighting.Fill)
	}
	if cfg.Lighting.Key.Intensity != 2 {
		t.Errorf("expected default key intensity, got %f", cfg.Lighting.Key.Intensity)
	}

	if len(cfg.Assets.Roots) != 2 || cfg.Assets.Roots[1] != "/srv/models" {
		t.Errorf("unexpected roots %v", cfg.Assets.Roots)
	}
	if cfg.Assets.HTTPTimeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Assets.HTTPTimeout)
	}
	if cfg.Assets.Cache {
		t.Error("expected cache to be false")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("expected log file 'viewer.log', got %s", cfg.Logging.LogFile)
	}
	if !cfg.Watch {
		t.Error("expected watch to be true")
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad syntax", "window:\n  width: not a number\n  invalid syntax here\n"},
		{"unknown key", "window:\n  fullscreen: true\n"},
		{"short vector", "viewer:\n  camera_position: [1, 2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			cfg := Default()
			if err := loadFromFile(cfg, configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if cfg.Window.Width != 800 {
		t.Errorf("expected defaults to survive, got width %d", cfg.Window.Width)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/modelview.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window size"},
		{"negative timestep", func(c *Config) { c.Viewer.Timestep = -1 }, "viewer.timestep"},
		{"zero canonical size", func(c *Config) { c.Viewer.CanonicalSize = 0 }, "viewer.canonical_size"},
		{"flat fov", func(c *Config) { c.Camera.FOVDegrees = 180 }, "camera.fov_degrees"},
		{"far before near", func(c *Config) { c.Camera.Far = 0.05 }, "camera near/far"},
		{"tiny shadow map", func(c *Config) { c.Lighting.ShadowResolution = 16 }, "lighting.shadow_resolution"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
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
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))

	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "modelview.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Error("expected to find modelview.yaml in current directory")
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
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "asset flag",
			setup: func() { *flagAsset = "https://example.com/box.glb" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Viewer.Asset != "https://example.com/box.glb" {
					t.Errorf("expected asset from flag, got %s", cfg.Viewer.Asset)
				}
			},
			teardown: func() { *flagAsset = "" },
		},
		{
			name:  "no-rotate flag",
			setup: func() { *flagNoRotate = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Viewer.AutoRotate {
					t.Error("expected auto_rotate to be false with no-rotate flag")
				}
			},
			teardown: func() { *flagNoRotate = false },
		},
		{
			name:  "watch flag",
			setup: func() { *flagWatch = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Watch {
					t.Error("expected watch to be true with watch flag")
				}
			},
			teardown: func() { *flagWatch = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Window.Width)
				}
				if cfg.Window.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
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
	configPath := filepath.Join(tmpDir, "modelview.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
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

	// Width from flag, height from file.
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "modelview.yaml")

	cfg := Default()
	cfg.Viewer.Asset = "box.gltf"
	cfg.Assets.HTTPTimeout = 2 * time.Second
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Viewer.Asset != "box.gltf" {
		t.Errorf("expected asset box.gltf, got %s", loaded.Viewer.Asset)
	}
	if loaded.Assets.HTTPTimeout != 2*time.Second {
		t.Errorf("expected timeout 2s, got %v", loaded.Assets.HTTPTimeout)
	}
}
