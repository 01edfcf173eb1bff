package orrery

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

// Config describes the planet scene: camera, lighting, textures and the
// initial draw options. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	Camera     CameraConfig    `toml:"camera"`
	ClearColor [4]float32      `toml:"clear_color"`
	Ambient    [3]float32      `toml:"ambient"`
	Light      LightConfig     `toml:"light"`
	TextureDir string          `toml:"texture_dir"`
	Textures   []TextureConfig `toml:"textures"`
	Options    []OptionConfig  `toml:"options"`
}

// CameraConfig mirrors Camera in TOML form.
type CameraConfig struct {
	Eye    [3]float32 `toml:"eye"`
	Center [3]float32 `toml:"center"`
	Up     [3]float32 `toml:"up"`
	FovY   float32    `toml:"fov"`
	Near   float32    `toml:"near"`
	Far    float32    `toml:"far"`
}

// LightConfig configures the directional sun light.
type LightConfig struct {
	Direction [3]float32 `toml:"direction"`
	Color     [3]float32 `toml:"color"`
}

// TextureConfig is one planet texture and the sampler it binds to.
type TextureConfig struct {
	Name    string `toml:"name"`
	Path    string `toml:"path"`
	Uniform string `toml:"uniform"`
	Unit    int    `toml:"unit"`
}

// OptionConfig is one draw option and its initial value. Order in the file
// is the order the options are presented in.
type OptionConfig struct {
	Name  string `toml:"name"`
	Value bool   `toml:"value"`
}

// Draw option names with bindings in the planet scene.
const (
	OptionShowPlanet     = "Show Planet"
	OptionShowRing       = "Show Ring"
	OptionDebug          = "Debug"
	OptionDaytimeTexture = "Daytime Texture"
	OptionNightLights    = "Night Lights"
	OptionRedGreen       = "RedGreen"
	OptionGlossyMap      = "Glossy Map"
	OptionClouds         = "Clouds"
)

// DefaultConfig returns the stock planet scene configuration.
func DefaultConfig() Config {
	return Config{
		Camera: CameraConfig{
			Eye:    [3]float32{0, 0.5, 3},
			Center: [3]float32{0, 0, 0},
			Up:     [3]float32{0, 1, 0},
			FovY:   45,
			Near:   0.01,
			Far:    100,
		},
		ClearColor: [4]float32{0, 0, 0, 1},
		Ambient:    [3]float32{0.4, 0.4, 0.4},
		Light: LightConfig{
			Direction: [3]float32{-1, 0, 0},
			Color:     [3]float32{1, 1, 1},
		},
		TextureDir: "textures",
		Textures: []TextureConfig{
			{Name: "day", Path: "earth_month04.jpg", Uniform: "daylightTexture", Unit: 0},
			{Name: "night", Path: "earth_at_night_2048.jpg", Uniform: "nightlightTexture", Unit: 1},
			{Name: "redgreen", Path: "earth_bathymetry_4096.jpg", Uniform: "rgTexture", Unit: 2},
			{Name: "clouds", Path: "earth_clouds_2048.jpg", Uniform: "cloudTexture", Unit: 3},
		},
		Options: []OptionConfig{
			{Name: OptionShowPlanet, Value: true},
			{Name: OptionShowRing, Value: false},
			{Name: OptionDebug, Value: true},
			{Name: OptionDaytimeTexture, Value: true},
			{Name: OptionNightLights, Value: false},
			{Name: OptionRedGreen, Value: false},
			{Name: OptionGlossyMap, Value: false},
			{Name: OptionClouds, Value: false},
		},
	}
}

// LoadConfig decodes TOML onto DefaultConfig and validates the result.
// Unknown keys are an error. Arrays present in data replace the defaults
// wholesale.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	// Array tables append to non-empty slices; decode them into nil slices
	// and fall back to the defaults when the file has none.
	defTextures, defOptions := cfg.Textures, cfg.Options
	cfg.Textures, cfg.Options = nil, nil

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("parse config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Textures == nil {
		cfg.Textures = defTextures
	}
	if cfg.Options == nil {
		cfg.Options = defOptions
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads and decodes a TOML config file. A relative
// texture_dir is resolved against the file's directory.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := LoadConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.TextureDir != "" && !filepath.IsAbs(cfg.TextureDir) {
		cfg.TextureDir = filepath.Join(filepath.Dir(path), cfg.TextureDir)
	}
	return cfg, nil
}

// Validate checks camera planes, texture units and option names.
func (c Config) Validate() error {
	if c.Camera.FovY <= 0 || c.Camera.FovY >= 180 {
		return fmt.Errorf("config: camera fov %g out of range (0, 180)", c.Camera.FovY)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("config: camera planes near=%g far=%g invalid", c.Camera.Near, c.Camera.Far)
	}
	if mgl32.Vec3(c.Camera.Eye) == mgl32.Vec3(c.Camera.Center) {
		return fmt.Errorf("config: camera eye and center coincide")
	}
	names := make(map[string]bool)
	units := make(map[int]string)
	for _, t := range c.Textures {
		if t.Name == "" || t.Path == "" || t.Uniform == "" {
			return fmt.Errorf("config: texture %q needs name, path and uniform", t.Name)
		}
		if names[t.Name] {
			return fmt.Errorf("config: duplicate texture %q", t.Name)
		}
		names[t.Name] = true
		if t.Unit < 0 {
			return fmt.Errorf("config: texture %q: negative unit %d", t.Name, t.Unit)
		}
		if other, ok := units[t.Unit]; ok {
			return fmt.Errorf("config: textures %q and %q share unit %d", other, t.Name, t.Unit)
		}
		units[t.Unit] = t.Name
	}
	opts := make(map[string]bool)
	for _, o := range c.Options {
		if o.Name == "" {
			return fmt.Errorf("config: draw option with empty name")
		}
		if opts[o.Name] {
			return fmt.Errorf("config: duplicate draw option %q", o.Name)
		}
		opts[o.Name] = true
	}
	return nil
}

// CameraValue converts the camera section to a Camera.
func (c Config) CameraValue() Camera {
	return Camera{
		Eye:    c.Camera.Eye,
		Center: c.Camera.Center,
		Up:     c.Camera.Up,
		FovY:   c.Camera.FovY,
		Near:   c.Camera.Near,
		Far:    c.Camera.Far,
	}
}

// TexturePath resolves a texture path against TextureDir.
func (c Config) TexturePath(t TextureConfig) string {
	if c.TextureDir == "" || filepath.IsAbs(t.Path) {
		return t.Path
	}
	return filepath.Join(c.TextureDir, t.Path)
}
