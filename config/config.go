package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/achilleasa/hptrace/log"
	"github.com/achilleasa/hptrace/renderer"
	"github.com/achilleasa/hptrace/types"
	"github.com/pelletier/go-toml/v2"
)

// Returned (wrapped) when a configuration value is out of range.
var ErrInvalid = errors.New("config: invalid value")

type Log struct {
	Level string `toml:"level"`
}

// Index builder settings.
type Index struct {
	Variant string `toml:"variant"`

	Split    string `toml:"split"`
	LeafSize int    `toml:"leaf_size"`
	MaxDepth int    `toml:"max_depth"`

	GridDensity       float32 `toml:"grid_density"`
	GridResolution    [3]int  `toml:"grid_resolution"`
	GridMaxResolution int     `toml:"grid_max_resolution"`
}

// Probe renderer settings.
type Probe struct {
	Width   uint32 `toml:"width"`
	Height  uint32 `toml:"height"`
	Workers int    `toml:"workers"`
	Frames  uint32 `toml:"frames"`
	Seed    uint64 `toml:"seed"`
	Verify  bool   `toml:"verify"`

	View  types.Vec3 `toml:"view"`
	Up    types.Vec3 `toml:"up"`
	Right types.Vec3 `toml:"right"`
	Angle float32    `toml:"angle"`
}

type Config struct {
	Log   Log   `toml:"log"`
	Index Index `toml:"index"`
	Probe Probe `toml:"probe"`
}

// Get the default configuration.
func Default() *Config {
	indexOpts := index.DefaultOptions()
	return &Config{
		Log: Log{Level: "notice"},
		Index: Index{
			Variant:           string(indexOpts.Variant),
			Split:             indexOpts.Split,
			LeafSize:          indexOpts.LeafSize,
			MaxDepth:          indexOpts.MaxDepth,
			GridDensity:       indexOpts.GridDensity,
			GridMaxResolution: indexOpts.GridMaxResolution,
		},
		Probe: Probe{
			Width:  128,
			Height: 128,
			Frames: 1,
			Seed:   1,
			View:   types.Vec3{0, 0, -500},
			Up:     types.Vec3{0, 1, 0},
			Right:  types.Vec3{1, 0, 0},
			Angle:  1,
		},
	}
}

// Load configuration from a TOML file. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode a TOML configuration on top of the defaults and validate it.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, strictErr.String())
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate configuration values.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	switch index.Variant(c.Index.Variant) {
	case index.KDTreeVariant, index.UniformGridVariant:
	default:
		return fmt.Errorf("%w: unknown index variant %q", ErrInvalid, c.Index.Variant)
	}
	switch c.Index.Split {
	case index.MidpointSplitName, index.SAHSplitName:
	default:
		return fmt.Errorf("%w: unknown split strategy %q", ErrInvalid, c.Index.Split)
	}
	if c.Index.LeafSize < 1 {
		return fmt.Errorf("%w: index leaf_size must be >= 1; got %d", ErrInvalid, c.Index.LeafSize)
	}
	if c.Index.MaxDepth < 0 {
		return fmt.Errorf("%w: index max_depth must be >= 0; got %d", ErrInvalid, c.Index.MaxDepth)
	}
	if c.Index.GridDensity <= 0 {
		return fmt.Errorf("%w: index grid_density must be > 0; got %f", ErrInvalid, c.Index.GridDensity)
	}
	for axis, cells := range c.Index.GridResolution {
		if cells < 0 {
			return fmt.Errorf("%w: index grid_resolution[%d] must be >= 0; got %d", ErrInvalid, axis, cells)
		}
	}
	if c.Index.GridMaxResolution < 1 {
		return fmt.Errorf("%w: index grid_max_resolution must be >= 1; got %d", ErrInvalid, c.Index.GridMaxResolution)
	}

	if c.Probe.Width == 0 || c.Probe.Height == 0 {
		return fmt.Errorf("%w: probe dimensions must be > 0; got %dx%d", ErrInvalid, c.Probe.Width, c.Probe.Height)
	}
	if c.Probe.Workers < 0 {
		return fmt.Errorf("%w: probe workers must be >= 0; got %d", ErrInvalid, c.Probe.Workers)
	}
	if c.Probe.Angle <= 0 {
		return fmt.Errorf("%w: probe angle must be > 0; got %f", ErrInvalid, c.Probe.Angle)
	}

	return nil
}

// Get the parsed log level.
func (c *Config) LogLevel() log.Level {
	level, _ := log.ParseLevel(c.Log.Level)
	return level
}

// Convert the index section into index builder options.
func (c *Config) IndexOptions() index.Options {
	return index.Options{
		Variant:           index.Variant(c.Index.Variant),
		Split:             c.Index.Split,
		LeafSize:          c.Index.LeafSize,
		MaxDepth:          c.Index.MaxDepth,
		GridDensity:       c.Index.GridDensity,
		GridResolution:    c.Index.GridResolution,
		GridMaxResolution: c.Index.GridMaxResolution,
	}
}

// Get the number of probe workers; 0 selects one worker per CPU.
func (c *Config) ProbeWorkers() int {
	if c.Probe.Workers == 0 {
		return runtime.NumCPU()
	}
	return c.Probe.Workers
}

// Convert the probe section into renderer options.
func (c *Config) ProbeOptions() renderer.Options {
	return renderer.Options{
		FrameW: c.Probe.Width,
		FrameH: c.Probe.Height,
		Frames: c.Probe.Frames,
		Seed:   c.Probe.Seed,
		Verify: c.Probe.Verify,
		View:   c.Probe.View,
		Up:     c.Probe.Up,
		Right:  c.Probe.Right,
		Angle:  c.Probe.Angle,
	}
}
