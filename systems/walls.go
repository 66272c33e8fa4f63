package systems

import (
	"github.com/petrilab/petri/config"
	"github.com/petrilab/petri/vec"
)

// defaultWallThickness is used when a wall config leaves thickness unset.
const defaultWallThickness = 4.0

// Wall is a compiled line-segment obstacle with thickness.
type Wall struct {
	A, B      vec.Vec2
	Thickness float64
	Type      config.WallType

	dir    vec.Vec2 // unit direction A -> B; (1, 0) for point walls
	length float64
	normal vec.Vec2 // left of dir; one-way walls only block from this side
}

// BuildWalls compiles wall configs into segment geometry. Zero-length
// walls become point obstacles.
func BuildWalls(cfgs []config.WallConfig) []Wall {
	walls := make([]Wall, 0, len(cfgs))
	for _, wc := range cfgs {
		w := Wall{
			A:         vec.Vec2{X: wc.X1, Y: wc.Y1},
			B:         vec.Vec2{X: wc.X2, Y: wc.Y2},
			Thickness: wc.Thickness,
			Type:      wc.Type,
		}
		if w.Thickness <= 0 {
			w.Thickness = defaultWallThickness
		}

		seg := w.B.Sub(w.A)
		w.length = seg.Length()
		if w.length > 0 {
			w.dir = seg.Scale(1 / w.length)
		} else {
			w.dir = vec.Vec2{X: 1, Y: 0}
		}
		w.normal = vec.Vec2{X: -w.dir.Y, Y: w.dir.X}

		walls = append(walls, w)
	}
	return walls
}

// Contact describes an overlap between an agent and a wall.
type Contact struct {
	Penetration float64  // overlap depth
	Normal      vec.Vec2 // unit push-out direction, wall toward agent
}

// Hit reports whether a circle at p with the given radius overlaps the
// wall. Contact requires p to project onto the segment itself; beyond
// the endpoints there is none. One-way walls only register contacts on
// their front side (the side their normal points to); traffic from the
// back passes through.
func (w *Wall) Hit(p vec.Vec2, radius float64) (Contact, bool) {
	closest := w.A
	if w.length > 0 {
		t := p.Sub(w.A).Dot(w.dir)
		if t < 0 || t > w.length {
			return Contact{}, false
		}
		closest = w.A.Add(w.dir.Scale(t))
	}

	d := p.Sub(closest)
	dist := d.Length()
	reach := radius + w.Thickness/2
	if dist >= reach {
		return Contact{}, false
	}

	if w.Type == config.WallOneWay && d.Dot(w.normal) < 0 {
		return Contact{}, false
	}

	n := w.normal
	if dist > 0 {
		n = d.Scale(1 / dist)
	}
	return Contact{Penetration: reach - dist, Normal: n}, true
}

// Reflect mirrors v about the contact normal n, scaling the bounce by
// elasticity. Velocities already separating from the wall pass through
// unchanged.
func Reflect(v, n vec.Vec2, elasticity float64) vec.Vec2 {
	vn := v.Dot(n)
	if vn >= 0 {
		return v
	}
	return v.Sub(n.Scale((1 + elasticity) * vn))
}

// Slide removes the inward normal component of v and applies friction
// to the tangential remainder.
func Slide(v, n vec.Vec2, friction float64) vec.Vec2 {
	vn := v.Dot(n)
	if vn >= 0 {
		return v
	}
	return v.Sub(n.Scale(vn)).Scale(friction)
}

// SegmentLength returns the wall's length along its axis.
func (w *Wall) SegmentLength() float64 { return w.length }

// Normal returns the wall's fixed left-hand normal. Contact normals
// from Hit point from the wall toward the agent and only coincide with
// this up to sign; point walls can push in any direction.
func (w *Wall) Normal() vec.Vec2 { return w.normal }
