// Package config holds the viewer settings: defaults, an optional TOML
// file, then command-line flags, each overriding the last.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"linux-particleengine/internal/batch"
	"linux-particleengine/internal/utils"

	"github.com/pelletier/go-toml/v2"
)

var ErrConfig = errors.New("config: invalid setting")

type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	FPS    int    `toml:"fps"`
	Title  string `toml:"title"`
}

type Log struct {
	Level  string `toml:"level"`
	Raylib bool   `toml:"raylib"`
}

type Assets struct {
	// Path is a directory of particles, materials and textures.
	Path string `toml:"path"`
	// Package, when set, reads assets from a .pkg archive instead.
	Package string `toml:"package"`
	// ConvertDir, when set, writes every .tex as PNG there and exits.
	ConvertDir string `toml:"convert_dir"`
}

type Simulation struct {
	// Rate is the fixed update rate in ticks per second.
	Rate      float32 `toml:"rate"`
	MaxSteps  int     `toml:"max_steps"`
	Seed      int64   `toml:"seed"`
	SortLimit int     `toml:"sort_limit"`
}

type Batch struct {
	Vertices  int `toml:"vertices"`
	Indices   int `toml:"indices"`
	Instances int `toml:"instances"`
}

type Camera struct {
	Distance float32 `toml:"distance"`
	Fovy     float32 `toml:"fovy"`
}

type Config struct {
	Window     Window     `toml:"window"`
	Log        Log        `toml:"log"`
	Assets     Assets     `toml:"assets"`
	Simulation Simulation `toml:"simulation"`
	Batch      Batch      `toml:"batch"`
	Camera     Camera     `toml:"camera"`

	// Effect is a particle file, Scene a scene file placing several.
	Effect string `toml:"effect"`
	Scene  string `toml:"scene"`

	Debug         bool `toml:"debug"`
	GlobalPointer bool `toml:"global_pointer"`
	SoftEdges     bool `toml:"soft_edges"`
}

func Default() Config {
	return Config{
		Window:     Window{Width: 1280, Height: 720, FPS: 60, Title: "Linux Particle Engine"},
		Log:        Log{Level: "warn"},
		Assets:     Assets{Path: "assets"},
		Simulation: Simulation{Rate: 60, MaxSteps: 5},
		Batch: Batch{
			Vertices:  batch.DefaultCapacity.Vertices,
			Indices:   batch.DefaultCapacity.Indices,
			Instances: batch.DefaultCapacity.Instances,
		},
		Camera: Camera{Distance: 400, Fovy: 45},
	}
}

// Decode overlays a TOML document on c. Unknown keys are errors.
func (c *Config) Decode(r io.Reader) error {
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: %s", ErrConfig, strict.String())
		}
		return err
	}
	return nil
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// LoadFile overlays the TOML file at path on c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := c.Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	utils.Debug("Config: loaded %s", path)
	return nil
}

type float32Value struct{ p *float32 }

func (v float32Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatFloat(float64(*v.p), 'g', -1, 32)
}

func (v float32Value) Set(s string) error {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return err
	}
	*v.p = float32(f)
	return nil
}

// Bind registers a flag for every setting, defaulting to c's values.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Window.Width, "width", c.Window.Width, "Window width")
	fs.IntVar(&c.Window.Height, "height", c.Window.Height, "Window height")
	fs.IntVar(&c.Window.FPS, "fps", c.Window.FPS, "Target frames per second")
	fs.StringVar(&c.Log.Level, "log", c.Log.Level, "Log level: debug, info, warn or error")
	fs.BoolVar(&c.Log.Raylib, "raylib-log", c.Log.Raylib, "Forward raylib info messages")
	fs.StringVar(&c.Assets.Path, "assets", c.Assets.Path, "Assets directory")
	fs.StringVar(&c.Assets.Package, "pkg", c.Assets.Package, "Read assets from a .pkg archive")
	fs.StringVar(&c.Assets.ConvertDir, "convert", c.Assets.ConvertDir, "Convert every .tex to PNG in this directory and exit")
	fs.Var(float32Value{&c.Simulation.Rate}, "rate", "Fixed update rate in ticks per second")
	fs.IntVar(&c.Simulation.MaxSteps, "max-steps", c.Simulation.MaxSteps, "Most updates per frame before time is dropped")
	fs.Int64Var(&c.Simulation.Seed, "seed", c.Simulation.Seed, "Random seed, 0 for time based")
	fs.IntVar(&c.Simulation.SortLimit, "sort-limit", c.Simulation.SortLimit, "Largest distance sorted pool a node may have, 0 for no limit")
	fs.IntVar(&c.Batch.Vertices, "batch-vertices", c.Batch.Vertices, "Vertices per draw call")
	fs.IntVar(&c.Batch.Indices, "batch-indices", c.Batch.Indices, "Indices per draw call")
	fs.IntVar(&c.Batch.Instances, "batch-instances", c.Batch.Instances, "Mesh instances per draw call")
	fs.Var(float32Value{&c.Camera.Distance}, "distance", "Camera distance")
	fs.Var(float32Value{&c.Camera.Fovy}, "fovy", "Camera vertical field of view in degrees")
	fs.StringVar(&c.Effect, "effect", c.Effect, "Particle file to show")
	fs.StringVar(&c.Scene, "scene", c.Scene, "Scene file to show")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Show the debug overlay")
	fs.BoolVar(&c.GlobalPointer, "global-pointer", c.GlobalPointer, "Track the X11 pointer outside the window")
	fs.BoolVar(&c.SoftEdges, "soft-edges", c.SoftEdges, "Smooth particle edges in the shader")
}

// configPath finds -config in args without tripping over other flags.
func configPath(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// Parse builds the configuration from defaults, the file named by -config
// and the remaining flags.
func Parse(name string, args []string) (Config, error) {
	cfg := Default()
	if path := configPath(args); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", "", "TOML settings file")
	cfg.Bind(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 && cfg.Effect == "" {
		cfg.Effect = fs.Arg(0)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window %dx%d", ErrConfig, c.Window.Width, c.Window.Height)
	}
	if c.Simulation.Rate <= 0 {
		return fmt.Errorf("%w: update rate %g", ErrConfig, c.Simulation.Rate)
	}
	if c.Simulation.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps %d", ErrConfig, c.Simulation.MaxSteps)
	}
	if c.Camera.Fovy <= 0 || c.Camera.Fovy >= 180 {
		return fmt.Errorf("%w: fovy %g", ErrConfig, c.Camera.Fovy)
	}
	if _, err := utils.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := c.Capacity().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if c.Effect == "" && c.Scene == "" && c.Assets.ConvertDir == "" {
		return fmt.Errorf("%w: nothing to show, pass -effect or -scene", ErrConfig)
	}
	return nil
}

func (c *Config) Capacity() batch.Capacity {
	return batch.Capacity{
		Vertices:  c.Batch.Vertices,
		Indices:   c.Batch.Indices,
		Instances: c.Batch.Instances,
	}
}

// LogLevel returns the parsed level, warn if it does not parse.
func (c *Config) LogLevel() utils.LogLevel {
	level, err := utils.ParseLevel(c.Log.Level)
	if err != nil {
		return utils.LevelWarn
	}
	return level
}
