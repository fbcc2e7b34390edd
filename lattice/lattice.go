// Package lattice turns a thin-element sequence description into an ordered
// line of tracking elements.
//
// Sequences are YAML documents listing elements by position. Gaps between
// elements become drifts and, when requested, aperture definitions become
// limit elements installed right behind the element that carries them.
// Polygon apertures are read from two-column coordinate files.
package lattice

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/collimation/elements"
	"github.com/pthm-cable/collimation/geometry"
)

var (
	ErrThickElement    = errors.New("element has nonzero length")
	ErrUnknownType     = errors.New("element type not recognized")
	ErrUnknownAperture = errors.New("aperture type not recognized")
	ErrUnknownScatter  = errors.New("scatter not recognized")
)

// Sequence is the on-disk description of a beam line.
type Sequence struct {
	Name     string        `yaml:"name"`
	Length   float64       `yaml:"length"`
	Elements []ElementSpec `yaml:"elements"`
}

// ElementSpec is one thin element of a sequence.
type ElementSpec struct {
	Name   string    `yaml:"name"`
	Type   string    `yaml:"type"`
	At     float64   `yaml:"at"`     // position along the line [m]
	Length float64   `yaml:"length"` // must be 0
	KNL    []float64 `yaml:"knl,omitempty"`
	KSL    []float64 `yaml:"ksl,omitempty"`
	HKick  float64   `yaml:"hkick,omitempty"`
	VKick  float64   `yaml:"vkick,omitempty"`
	Kick   float64   `yaml:"kick,omitempty"`

	Aperture *ApertureSpec `yaml:"aperture,omitempty"`
	Foil     *FoilSpec     `yaml:"foil,omitempty"`
}

// ApertureSpec describes the aperture installed behind an element. Type is
// rectangle, ellipse, circle, rectellipse or polygon; any other type naming an
// existing file is read as a polygon too.
type ApertureSpec struct {
	Type   string    `yaml:"type"`
	Values []float64 `yaml:"values,omitempty"`
	File   string    `yaml:"file,omitempty"`
}

// FoilSpec parameterises a foil element. Zero values keep the
// elements.NewLimitFoil defaults.
type FoilSpec struct {
	MinX      float64 `yaml:"min_x"`
	MaxX      float64 `yaml:"max_x"`
	MinY      float64 `yaml:"min_y"`
	MaxY      float64 `yaml:"max_y"`
	Thickness float64 `yaml:"thickness,omitempty"`
	Density   float64 `yaml:"density,omitempty"`
	Z         int     `yaml:"z,omitempty"`
	A         float64 `yaml:"a,omitempty"`
	Scatter   string  `yaml:"scatter,omitempty"`
}

// Options controls how a sequence is turned into a line.
type Options struct {
	DriftThreshold   float64
	InstallApertures bool
	Reference        geometry.RefPolicy
	Prec             uint // bits for polygon TrackBig; 0 = numeric.DefaultPrec

	// Dir resolves relative polygon files. Load sets it to the directory of
	// the sequence file when empty.
	Dir string

	// Scatters maps the scatter names foils may ask for. DefaultScatter is
	// used by foils that name none; nil means black hole.
	Scatters       map[string]elements.Scatter
	DefaultScatter elements.Scatter
}

// Entry is one named element of a line.
type Entry struct {
	Name    string
	Element elements.Element
}

// Load reads a YAML sequence file and builds its line.
func Load(path string, opts Options) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sequence: %w", err)
	}
	var seq Sequence
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("parsing sequence: %w", err)
	}
	if opts.Dir == "" {
		opts.Dir = filepath.Dir(path)
	}
	return Build(seq, opts)
}

// Build converts a sequence into tracking elements. Elements are taken in
// position order.
func Build(seq Sequence, opts Options) ([]Entry, error) {
	specs := slices.Clone(seq.Elements)
	slices.SortStableFunc(specs, func(a, b ElementSpec) int {
		return cmp.Compare(a.At, b.At)
	})

	var line []Entry
	prev := 0.0
	drifts := 0
	for _, spec := range specs {
		if spec.At > prev+opts.DriftThreshold {
			line = append(line, Entry{
				Name:    fmt.Sprintf("drift_%d", drifts),
				Element: &elements.Drift{Length: spec.At - prev},
			})
			prev = spec.At
			drifts++
		}

		el, err := buildElement(spec, opts)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", seq.Name, spec.Name, err)
		}
		line = append(line, Entry{Name: spec.Name, Element: el})

		if opts.InstallApertures && spec.Aperture != nil {
			ap, err := buildAperture(*spec.Aperture, opts)
			if err != nil {
				return nil, fmt.Errorf("%s %q: %w", seq.Name, spec.Name, err)
			}
			if ap != nil {
				line = append(line, Entry{Name: spec.Name + "_aperture", Element: ap})
			}
		}
	}

	if seq.Length > prev {
		line = append(line, Entry{
			Name:    fmt.Sprintf("drift_%d", drifts),
			Element: &elements.Drift{Length: seq.Length - prev},
		})
	}
	return line, nil
}

func buildElement(spec ElementSpec, opts Options) (elements.Element, error) {
	if spec.Length > 0 {
		return nil, ErrThickElement
	}

	switch spec.Type {
	case "marker", "monitor", "hmonitor", "vmonitor", "collimator", "rcollimator",
		"elseparator", "instrument", "solenoid", "drift", "placeholder":
		return &elements.Drift{Length: spec.Length}, nil
	case "multipole":
		knl, ksl := spec.KNL, spec.KSL
		if len(knl) == 0 {
			knl = []float64{0}
		}
		if len(ksl) == 0 {
			ksl = []float64{0}
		}
		return &elements.Multipole{KNL: slices.Clone(knl), KSL: slices.Clone(ksl)}, nil
	case "kicker", "tkicker":
		return &elements.Multipole{KNL: []float64{-spec.HKick}, KSL: []float64{spec.VKick}}, nil
	case "hkicker":
		return &elements.Multipole{KNL: []float64{-spec.Kick}}, nil
	case "vkicker":
		return &elements.Multipole{KSL: []float64{spec.Kick}}, nil
	case "foil":
		return buildFoil(spec.Foil, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, spec.Type)
}

func buildFoil(spec *FoilSpec, opts Options) (*elements.LimitFoil, error) {
	foil := elements.NewLimitFoil()
	foil.Scatter = opts.DefaultScatter
	if spec == nil {
		return foil, nil
	}

	if spec.MinX != 0 || spec.MaxX != 0 {
		foil.MinX, foil.MaxX = spec.MinX, spec.MaxX
	}
	if spec.MinY != 0 || spec.MaxY != 0 {
		foil.MinY, foil.MaxY = spec.MinY, spec.MaxY
	}
	if spec.Thickness > 0 {
		foil.Thickness = spec.Thickness
	}
	if spec.Density > 0 {
		foil.Density = spec.Density
	}
	if spec.Z > 0 {
		foil.Z = spec.Z
	}
	if spec.A > 0 {
		foil.A = spec.A
	}
	if spec.Scatter != "" {
		s, ok := opts.Scatters[spec.Scatter]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScatter, spec.Scatter)
		}
		foil.Scatter = s
	}
	return foil, nil
}

// buildAperture returns nil when the aperture is not installable, matching
// sequences that carry placeholder apertures of zero size.
func buildAperture(spec ApertureSpec, opts Options) (elements.Element, error) {
	switch spec.Type {
	case "rectangle", "ellipse", "circle", "rectellipse":
		if !positive(spec.Values) {
			return nil, nil
		}
	}

	v := spec.Values
	need := func(n int) error {
		if len(v) < n {
			return fmt.Errorf("%w: %s needs %d values, got %d", ErrUnknownAperture, spec.Type, n, len(v))
		}
		return nil
	}

	switch spec.Type {
	case "rectangle":
		if err := need(2); err != nil {
			return nil, err
		}
		return &elements.LimitRect{MinX: -v[0], MaxX: v[0], MinY: -v[1], MaxY: v[1]}, nil
	case "ellipse":
		if err := need(2); err != nil {
			return nil, err
		}
		return &elements.LimitEllipse{A: v[0], B: v[1]}, nil
	case "circle":
		if err := need(1); err != nil {
			return nil, err
		}
		return &elements.LimitEllipse{A: v[0], B: v[0]}, nil
	case "rectellipse":
		if err := need(4); err != nil {
			return nil, err
		}
		return &elements.LimitRectEllipse{MaxX: v[0], MaxY: v[1], A: v[2], B: v[3]}, nil
	case "polygon":
		return polygonAperture(spec.File, opts)
	}

	if path := resolve(opts.Dir, spec.Type); isFile(path) {
		return polygonAperture(spec.Type, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAperture, spec.Type)
}

func polygonAperture(file string, opts Options) (elements.Element, error) {
	return ReadLimitPolygonFile(resolve(opts.Dir, file), opts.Reference, opts.Prec)
}

func positive(vs []float64) bool {
	if len(vs) == 0 {
		return false
	}
	for _, v := range vs {
		if v <= 0 {
			return false
		}
	}
	return true
}

func resolve(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
