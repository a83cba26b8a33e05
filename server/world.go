package main

import (
	"github.com/go-gl/mathgl/mgl64"

	"fps-server/ballistics"
)

// Body is anything with a spherical hitbox that moves between ticks.
type Body interface {
	BodyID() ballistics.TargetID
	Hitbox() (center mgl64.Vec3, radius float64)
	BodyLayer() uint32
	Resistance() float64
	Material() string
	Active() bool
}

// Wall is static scenery. Rounds lose a fixed amount crossing it.
type Wall struct {
	ID       ballistics.TargetID
	Box      AABB
	Material string
}

// Prop is a damageable box, e.g. a crate.
type Prop struct {
	ID        ballistics.TargetID
	Box       AABB
	Health    float64
	MaxHealth float64
	Resist    float64
	Mat       string
	Destroyed bool
}

// TakeDamage reduces health and reports whether this hit destroyed it.
func (p *Prop) TakeDamage(amount float64) bool {
	if p.Destroyed {
		return false
	}
	p.Health -= amount
	if p.Health <= 0 {
		p.Health = 0
		p.Destroyed = true
		return true
	}
	return false
}

// World answers ray queries against walls, props and bodies. It is not
// synchronised; the owning Game holds its lock for every call.
type World struct {
	walls  []Wall
	grid   *SpatialGrid
	props  []*Prop
	bodies map[ballistics.TargetID]Body
	bounds AABB
}

// NewWorld builds the static geometry for an arena.
func NewWorld(arena ArenaConfig) *World {
	w := &World{bodies: make(map[ballistics.TargetID]Body)}

	first := true
	grow := func(b AABB) {
		if first {
			w.bounds = b
			first = false
			return
		}
		w.bounds = NewAABB(
			mgl64.Vec3{min(w.bounds.Min[0], b.Min[0]), min(w.bounds.Min[1], b.Min[1]), min(w.bounds.Min[2], b.Min[2])},
			mgl64.Vec3{max(w.bounds.Max[0], b.Max[0]), max(w.bounds.Max[1], b.Max[1]), max(w.bounds.Max[2], b.Max[2])},
		)
	}

	for _, wd := range arena.Walls {
		box := NewAABB(wd.Min.Vec(), wd.Max.Vec())
		w.walls = append(w.walls, Wall{ID: ballistics.TargetID(wd.ID), Box: box, Material: wd.Material})
		grow(box)
	}
	for _, pd := range arena.Props {
		box := NewAABB(pd.Min.Vec(), pd.Max.Vec())
		w.props = append(w.props, &Prop{
			ID:        ballistics.TargetID(pd.ID),
			Box:       box,
			Health:    pd.Health,
			MaxHealth: pd.Health,
			Resist:    pd.Resistance,
			Mat:       pd.Material,
		})
		grow(box)
	}
	if first {
		w.bounds = NewAABB(mgl64.Vec3{-1, 0, -1}, mgl64.Vec3{1, 1, 1})
	}

	w.grid = NewSpatialGrid(w.bounds, arena.CellSize)
	for i, wall := range w.walls {
		w.grid.InsertBox(wall.Box, i)
	}
	return w
}

func (w *World) AddBody(b Body) {
	w.bodies[b.BodyID()] = b
}

func (w *World) RemoveBody(id ballistics.TargetID) {
	delete(w.bodies, id)
}

// Prop returns the prop with the given id, or nil.
func (w *World) Prop(id ballistics.TargetID) *Prop {
	for _, p := range w.props {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Props returns every prop, destroyed or not.
func (w *World) Props() []*Prop {
	return w.props
}

// RestoreProps brings destroyed props back at full health.
func (w *World) RestoreProps() {
	for _, p := range w.props {
		p.Health = p.MaxHealth
		p.Destroyed = false
	}
}

// QueryAlongRay implements ballistics.EnvironmentQuery. Results are
// unordered and never include exclude.
func (w *World) QueryAlongRay(origin, dir mgl64.Vec3, maxRange float64, mask uint32, exclude ballistics.TargetID) []ballistics.CandidateHit {
	var hits []ballistics.CandidateHit
	end := origin.Add(dir.Mul(maxRange))

	if mask&LayerDefault != 0 {
		for _, idx := range w.grid.QuerySegment(origin, end, nil) {
			wall := w.walls[idx]
			if wall.ID == exclude {
				continue
			}
			if d, n, ok := RayAABB(origin, dir, wall.Box, maxRange); ok {
				hits = append(hits, ballistics.CandidateHit{
					Distance:       d,
					Point:          origin.Add(dir.Mul(d)),
					Normal:         n,
					Target:         wall.ID,
					DefaultSurface: true,
					Material:       wall.Material,
				})
			}
		}
	}

	if mask&LayerProp != 0 {
		for _, p := range w.props {
			if p.Destroyed || p.ID == exclude {
				continue
			}
			if d, n, ok := RayAABB(origin, dir, p.Box, maxRange); ok {
				hits = append(hits, ballistics.CandidateHit{
					Distance:   d,
					Point:      origin.Add(dir.Mul(d)),
					Normal:     n,
					Target:     p.ID,
					Resistance: p.Resist,
					Material:   p.Mat,
				})
			}
		}
	}

	for id, b := range w.bodies {
		if id == exclude || !b.Active() || mask&b.BodyLayer() == 0 {
			continue
		}
		center, radius := b.Hitbox()
		if d, n, ok := RaySphere(origin, dir, center, radius, maxRange); ok {
			hits = append(hits, ballistics.CandidateHit{
				Distance:   d,
				Point:      origin.Add(dir.Mul(d)),
				Normal:     n,
				Target:     id,
				Resistance: b.Resistance(),
				Material:   b.Material(),
			})
		}
	}
	return hits
}

// LineOfSight reports whether no wall blocks the segment a-b.
func (w *World) LineOfSight(a, b mgl64.Vec3) bool {
	dir := b.Sub(a)
	dist := dir.Len()
	if dist == 0 {
		return true
	}
	dir = dir.Mul(1 / dist)
	for _, idx := range w.grid.QuerySegment(a, b, nil) {
		if _, _, ok := RayAABB(a, dir, w.walls[idx].Box, dist); ok {
			return false
		}
	}
	return true
}
