package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// MaxMatchDistanceDeg is the proximity radius for geometric attribution,
// roughly 550 km at the equator.
const MaxMatchDistanceDeg = 5.0

// kmPerDegree converts planar degree distances into the kilometre figure
// reported in evidence and used for geometry confidence.
const kmPerDegree = 111.0

//go:embed cables.yaml
var embeddedCables []byte

// CableAsset is a known submarine cable.
type CableAsset struct {
	ID            string       `yaml:"id"`
	Name          string       `yaml:"name"`
	Aliases       []string     `yaml:"aliases"`
	LandingPoints []Coordinate `yaml:"landing_points"`
}

// NearestCable is the result of a proximity lookup.
type NearestCable struct {
	CableID     string
	DistanceDeg float64
}

// Resolution is how a warning was attributed to a cable.
type Resolution struct {
	CableID     string
	Method      JoinMethod
	DistanceDeg float64
}

// DistanceKm is the proximity distance in whole kilometres.
func (r Resolution) DistanceKm() float64 {
	return math.Round(r.DistanceDeg * kmPerDegree)
}

// Registry is the read-only cable reference table.
type Registry struct {
	cables  []CableAsset
	aliases []aliasEntry
}

type aliasEntry struct {
	upper   string
	cableID string
}

type registryFile struct {
	Cables []CableAsset `yaml:"cables"`
}

// LoadRegistry parses and validates a YAML cable table.
func LoadRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse cable registry: %w", err)
	}
	if len(f.Cables) == 0 {
		return nil, errors.New("cable registry is empty")
	}

	seen := make(map[string]struct{}, len(f.Cables))
	r := &Registry{cables: f.Cables}
	for _, c := range f.Cables {
		if c.ID == "" {
			return nil, errors.New("cable registry: cable without id")
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("cable registry: duplicate id %q", c.ID)
		}
		seen[c.ID] = struct{}{}

		if len(c.Aliases) == 0 {
			return nil, fmt.Errorf("cable registry: %s has no aliases", c.ID)
		}
		for _, a := range c.Aliases {
			a = strings.ToUpper(strings.TrimSpace(a))
			if a == "" {
				return nil, fmt.Errorf("cable registry: %s has a blank alias", c.ID)
			}
			r.aliases = append(r.aliases, aliasEntry{upper: a, cableID: c.ID})
		}
		for _, p := range c.LandingPoints {
			if !p.Valid() {
				return nil, fmt.Errorf("cable registry: %s landing point %v out of range", c.ID, p)
			}
		}
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := LoadRegistry(embeddedCables)
	if err != nil {
		panic(err)
	}
	return r
})

// DefaultRegistry returns the registry compiled into the binary.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Cables returns a copy of the registry entries in table order.
func (r *Registry) Cables() []CableAsset {
	out := make([]CableAsset, len(r.cables))
	copy(out, r.cables)
	return out
}

// MatchCableByName returns the first cable whose alias appears in text,
// ignoring case. Ties resolve by table order.
func (r *Registry) MatchCableByName(text string) (string, bool) {
	upper := strings.ToUpper(text)
	for _, a := range r.aliases {
		if strings.Contains(upper, a.upper) {
			return a.cableID, true
		}
	}
	return "", false
}

// FindNearestCable returns the cable owning the landing point closest to
// (lat, lon), provided it lies within MaxMatchDistanceDeg. Distance is planar
// in degree space, not great-circle.
func (r *Registry) FindNearestCable(lat, lon float64) (NearestCable, bool) {
	best := NearestCable{DistanceDeg: math.Inf(1)}
	for _, c := range r.cables {
		for _, p := range c.LandingPoints {
			d := math.Hypot(lat-p.Lat, lon-p.Lon)
			if d < best.DistanceDeg {
				best = NearestCable{CableID: c.ID, DistanceDeg: d}
			}
		}
	}
	if best.CableID == "" || best.DistanceDeg > MaxMatchDistanceDeg {
		return NearestCable{}, false
	}
	return best, true
}

// Resolve attributes a warning to a cable: by name first, then by the centroid
// of its coordinates.
func (r *Registry) Resolve(text string, coords []Coordinate) (Resolution, bool) {
	if id, ok := r.MatchCableByName(text); ok {
		return Resolution{CableID: id, Method: JoinName}, true
	}
	center, ok := centroid(coords)
	if !ok {
		return Resolution{}, false
	}
	near, ok := r.FindNearestCable(center.Lat, center.Lon)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{CableID: near.CableID, Method: JoinGeometry, DistanceDeg: near.DistanceDeg}, true
}
