// Package mapview holds the camera of a map frame and compares cameras
// within a tolerance.
package mapview

import (
	"fmt"
	"math"
)

// MapView is the extent and scale shown by a map frame, in the frame's
// coordinate reference system.
type MapView struct {
	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
	Scale  float64 `toml:"scale"`
	Width  float64 `toml:"width,omitempty"`
	Height float64 `toml:"height,omitempty"`
}

// Tolerance is the largest accepted absolute difference per compared axis.
// The zero Tolerance demands an exact match.
type Tolerance struct {
	X     float64 `toml:"x" mapstructure:"x"`
	Y     float64 `toml:"y" mapstructure:"y"`
	Scale float64 `toml:"scale" mapstructure:"scale"`
}

// Equal reports whether a and b agree on x, y and scale within tol. Width
// and height are not compared.
func Equal(a, b MapView, tol Tolerance) bool {
	return math.Abs(a.X-b.X) <= tol.X &&
		math.Abs(a.Y-b.Y) <= tol.Y &&
		math.Abs(a.Scale-b.Scale) <= tol.Scale
}

// Equal is shorthand for Equal(v, other, tol).
func (v MapView) Equal(other MapView, tol Tolerance) bool {
	return Equal(v, other, tol)
}

// String formats the compared fields.
func (v MapView) String() string {
	return fmt.Sprintf("x=%.2f y=%.2f scale=1:%.0f", v.X, v.Y, v.Scale)
}
