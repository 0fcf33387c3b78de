package config

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/asciivid/internal/adjust"
	"github.com/san-kum/asciivid/internal/glyph"
	"github.com/san-kum/asciivid/internal/mapper"
)

const (
	DefaultChars          = "F$V* "
	DefaultWidth          = 300
	DefaultFPS            = 10.0
	DefaultWhiteThreshold = 240.0
	DefaultNoise          = 0.15
	DefaultContrast       = 100.0
	DefaultCellWidth      = 10
	DefaultCellHeight     = 18
	DefaultMaxWidth       = 1920
	DefaultMaxHeight      = 1080
	DefaultSeekTimeout    = 5 * time.Second
)

type Config struct {
	Chars          string        `yaml:"chars" toml:"chars"`
	Mode           string        `yaml:"mode" toml:"mode"`
	Width          int           `yaml:"width" toml:"width"`
	FPS            float64       `yaml:"fps" toml:"fps"`
	WhiteThreshold float64       `yaml:"white_threshold" toml:"white_threshold"`
	Noise          float64       `yaml:"noise" toml:"noise"`
	Contrast       float64       `yaml:"contrast" toml:"contrast"`
	Exposure       float64       `yaml:"exposure" toml:"exposure"`
	// SkipStart and SkipEnd are counted in output frames.
	SkipStart      int           `yaml:"skip_start" toml:"skip_start"`
	SkipEnd        int           `yaml:"skip_end" toml:"skip_end"`
	Seed           int64         `yaml:"seed" toml:"seed"`
	IncludeAudio   bool          `yaml:"include_audio" toml:"include_audio"`
	CellWidth      int           `yaml:"cell_width" toml:"cell_width"`
	CellHeight     int           `yaml:"cell_height" toml:"cell_height"`
	MaxWidth       int           `yaml:"max_width" toml:"max_width"`
	MaxHeight      int           `yaml:"max_height" toml:"max_height"`
	SeekTimeout    time.Duration `yaml:"seek_timeout" toml:"seek_timeout"`

	// Mask lists [x,y] grid cells that are always left blank.
	Mask      [][2]int   `yaml:"mask,omitempty" toml:"mask,omitempty"`
	MaskRects []MaskRect `yaml:"mask_rects,omitempty" toml:"mask_rects,omitempty"`
}

// MaskRect blanks a W×H block of cells with its top-left corner at X,Y.
type MaskRect struct {
	X int `yaml:"x" toml:"x"`
	Y int `yaml:"y" toml:"y"`
	W int `yaml:"w" toml:"w"`
	H int `yaml:"h" toml:"h"`
}

func DefaultConfig() *Config {
	return &Config{
		Chars:          DefaultChars,
		Mode:           string(mapper.ModeGlyph),
		Width:          DefaultWidth,
		FPS:            DefaultFPS,
		WhiteThreshold: DefaultWhiteThreshold,
		Noise:          DefaultNoise,
		Contrast:       DefaultContrast,
		IncludeAudio:   true,
		CellWidth:      DefaultCellWidth,
		CellHeight:     DefaultCellHeight,
		MaxWidth:       DefaultMaxWidth,
		MaxHeight:      DefaultMaxHeight,
		SeekTimeout:    DefaultSeekTimeout,
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a YAML file, or TOML when the extension is .toml. Keys missing
// from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := glyph.ParseAlphabet(c.Chars); err != nil {
		return err
	}
	if _, err := mapper.ParseMode(c.Mode); err != nil {
		return err
	}
	switch {
	case c.WhiteThreshold < 0 || c.WhiteThreshold > 255:
		return fmt.Errorf("white_threshold must be in [0,255], got %g", c.WhiteThreshold)
	case c.Noise < 0 || c.Noise > 1:
		return fmt.Errorf("noise must be in [0,1], got %g", c.Noise)
	case c.FPS <= 0:
		return fmt.Errorf("fps must be positive, got %g", c.FPS)
	case c.Width <= 0:
		return fmt.Errorf("width must be positive, got %d", c.Width)
	case c.SkipStart < 0 || c.SkipEnd < 0:
		return fmt.Errorf("skip_start and skip_end must not be negative")
	case c.CellWidth <= 0 || c.CellHeight <= 0:
		return fmt.Errorf("cell size must be positive, got %dx%d", c.CellWidth, c.CellHeight)
	case c.MaxWidth <= 0 || c.MaxHeight <= 0:
		return fmt.Errorf("max output size must be positive, got %dx%d", c.MaxWidth, c.MaxHeight)
	case c.SeekTimeout < 0:
		return fmt.Errorf("seek_timeout must not be negative")
	}
	for _, r := range c.MaskRects {
		if r.W < 0 || r.H < 0 {
			return fmt.Errorf("mask rect %+v has a negative size", r)
		}
	}
	return nil
}

// MaskSet freezes the configured points and rectangles into one set.
func (c *Config) MaskSet() glyph.MaskSet {
	var pts []glyph.Point
	for _, p := range c.Mask {
		pts = append(pts, glyph.Point{X: p[0], Y: p[1]})
	}
	for _, r := range c.MaskRects {
		for y := r.Y; y < r.Y+r.H; y++ {
			for x := r.X; x < r.X+r.W; x++ {
				pts = append(pts, glyph.Point{X: x, Y: y})
			}
		}
	}
	return glyph.NewMaskSet(pts...)
}

// CharAspect is the cell height/width ratio used to size the grid. Dots sit
// in square cells.
func (c *Config) CharAspect() float64 {
	if mode, _ := mapper.ParseMode(c.Mode); mode == mapper.ModeDot {
		return 1
	}
	return float64(c.CellHeight) / float64(c.CellWidth)
}

func (c *Config) AdjustParams() adjust.Params {
	return adjust.Params{Exposure: c.Exposure, Contrast: c.Contrast}
}

// MapperOptions builds mapper options seeded from Seed, so equal configs give
// equal noise.
func (c *Config) MapperOptions() (mapper.Options, error) {
	alphabet, err := glyph.ParseAlphabet(c.Chars)
	if err != nil {
		return mapper.Options{}, err
	}
	mode, err := mapper.ParseMode(c.Mode)
	if err != nil {
		return mapper.Options{}, err
	}
	return mapper.Options{
		Alphabet:  alphabet,
		Threshold: c.WhiteThreshold,
		Noise:     c.Noise,
		Mask:      c.MaskSet(),
		Mode:      mode,
		CellSize:  float64(c.CellWidth),
		Rand:      rand.New(rand.NewSource(c.Seed)),
	}, nil
}
