// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/modelview/internal/engine/lighting"
)

// Config holds all viewer settings.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Camera   CameraConfig   `yaml:"camera"`
	Lighting LightingConfig `yaml:"lighting"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
	Watch    bool           `yaml:"watch"` // Remount the viewer when the asset file changes
}

// WindowConfig holds the host window settings.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	VSync  bool   `yaml:"vsync"`
}

// ViewerConfig holds per-instance display parameters.
type ViewerConfig struct {
	Asset          string     `yaml:"asset"`
	AutoRotate     bool       `yaml:"auto_rotate"`
	CameraPosition [3]float32 `yaml:"camera_position"`
	CanonicalSize  float32    `yaml:"canonical_size"` // Largest extent after normalization
	Timestep       float32    `yaml:"timestep"`       // Seconds advanced per frame tick
	RotateStep     float32    `yaml:"rotate_step"`    // Radians of yaw per frame tick
	SnapshotDir    string     `yaml:"snapshot_dir"`
}

// CameraConfig holds projection parameters.
type CameraConfig struct {
	FOVDegrees float32 `yaml:"fov_degrees"`
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`
}

// LightConfig describes one light of the fixed rig. Colors are linear.
type LightConfig struct {
	Color      [3]float32 `yaml:"color"`
	Intensity  float32    `yaml:"intensity"`
	Direction  [3]float32 `yaml:"direction,omitempty"`
	CastShadow bool       `yaml:"cast_shadow,omitempty"`
}

// LightingConfig holds the ambient light, the two directional lights, the
// emissive tint applied to model materials and the shadow map settings.
type LightingConfig struct {
	Ambient          LightConfig `yaml:"ambient"`
	Key              LightConfig `yaml:"key"`
	Fill             LightConfig `yaml:"fill"`
	Emissive         LightConfig `yaml:"emissive"`
	Shadows          bool        `yaml:"shadows"`
	ShadowResolution int         `yaml:"shadow_resolution"` // Texels per side of the depth map
}

// AssetsConfig holds asset source settings.
type AssetsConfig struct {
	Roots       []string      `yaml:"roots"`        // Directories searched for relative paths
	HTTPTimeout time.Duration `yaml:"http_timeout"` // Zero disables the client timeout
	Cache       bool          `yaml:"cache"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "modelview",
			Width:  800,
			Height: 600,
			VSync:  true,
		},
		Viewer: ViewerConfig{
			AutoRotate:     true,
			CameraPosition: [3]float32{0, 1, 4},
			CanonicalSize:  2,
			Timestep:       1.0 / 60.0,
			RotateStep:     0.01,
			SnapshotDir:    "snapshots",
		},
		Camera: CameraConfig{
			FOVDegrees: 75,
			Near:       0.1,
			Far:        1000,
		},
		Lighting: defaultLighting(),
		Assets: AssetsConfig{
			Roots:       []string{"."},
			HTTPTimeout: 30 * time.Second,
			Cache:       true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

func defaultLighting() LightingConfig {
	rig := lighting.DefaultRig()
	light := func(s lighting.Spec) LightConfig {
		return LightConfig{Color: s.Color, Intensity: s.Intensity, Direction: s.Direction, CastShadow: s.CastShadow}
	}
	return LightingConfig{
		Ambient:          light(rig.Ambient),
		Key:              light(rig.Key),
		Fill:             light(rig.Fill),
		Emissive:         light(rig.Emissive),
		Shadows:          true,
		ShadowResolution: 2048,
	}
}

// Validate reports settings no viewer can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Viewer.Timestep <= 0 {
		errs = append(errs, fmt.Errorf("viewer.timestep %v must be positive", c.Viewer.Timestep))
	}
	if c.Viewer.CanonicalSize <= 0 {
		errs = append(errs, fmt.Errorf("viewer.canonical_size %v must be positive", c.Viewer.CanonicalSize))
	}
	if c.Camera.FOVDegrees <= 0 || c.Camera.FOVDegrees >= 180 {
		errs = append(errs, fmt.Errorf("camera.fov_degrees %v must be in (0, 180)", c.Camera.FOVDegrees))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera near/far %v/%v must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far))
	}
	if c.Lighting.Shadows && (c.Lighting.ShadowResolution < 64 || c.Lighting.ShadowResolution > 8192) {
		errs = append(errs, fmt.Errorf("lighting.shadow_resolution %d must be in [64, 8192]", c.Lighting.ShadowResolution))
	}
	return errors.Join(errs...)
}
