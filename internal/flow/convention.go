package flow

import (
	"fmt"
	"strings"

	"github.com/banshee-data/depthflow/internal/pose"
)

// Convention evaluates the rigid-motion flow equations at one image-plane
// point. x and y are normalized image coordinates, z the axis-aligned depth
// (positive), f the focal length. The result is in image-plane units with y
// pointing up.
type Convention interface {
	Name() string
	Flow(x, y, z, f float64, m pose.Motion) (u, v float64)
}

// Convention names accepted by ParseConvention.
const (
	NameLonguetHiggins = "longuet-higgins"
	NameNegativeZ      = "negative-z"
)

// LonguetHiggins is the Longuet-Higgins/Prazdny formulation extended with a
// focal length, with depth positive in front of the camera.
type LonguetHiggins struct{}

// Name implements Convention.
func (LonguetHiggins) Name() string { return NameLonguetHiggins }

// Flow implements Convention.
func (LonguetHiggins) Flow(x, y, z, f float64, m pose.Motion) (float64, float64) {
	t, r := m.Translation, m.Rotation

	u := (1.0 / z) * (-t.X*f + t.Z*x)
	v := (1.0 / z) * (-t.Y*f + t.Z*y)

	u += (1.0 / f) * (x*y*r.X - (f*f+x*x)*r.Y + f*y*r.Z)
	v += (1.0 / f) * ((f*f+y*y)*r.X - x*y*r.Y - f*x*r.Z)
	return u, v
}

// NegativeZ is the formulation for a camera looking down -z: the depth is
// negated and the translation and rotation signs follow.
type NegativeZ struct{}

// Name implements Convention.
func (NegativeZ) Name() string { return NameNegativeZ }

// Flow implements Convention.
func (NegativeZ) Flow(x, y, z, f float64, m pose.Motion) (float64, float64) {
	t, r := m.Translation, m.Rotation
	z = -z

	u := (1.0 / z) * (t.X*f + t.Z*x)
	v := (1.0 / z) * (t.Y*f + t.Z*y)

	u += (1.0 / f) * (-x*y*r.X + (f*f+x*x)*r.Y + f*y*r.Z)
	v += (1.0 / f) * (-(f*f+y*y)*r.X + x*y*r.Y - f*x*r.Z)
	return u, v
}

// ParseConvention maps a configuration name to its Convention. Matching is
// case-insensitive; "lh" and "a" alias Longuet-Higgins, "b" NegativeZ.
func ParseConvention(name string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameLonguetHiggins, "lh", "a":
		return LonguetHiggins{}, nil
	case NameNegativeZ, "b", "":
		return NegativeZ{}, nil
	default:
		return nil, fmt.Errorf("unknown flow convention %q (want %q or %q)", name, NameLonguetHiggins, NameNegativeZ)
	}
}
