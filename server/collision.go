package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned box.
type AABB struct {
	Min, Max mgl64.Vec3
}

func NewAABB(a, b mgl64.Vec3) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])},
		Max: mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])},
	}
}

// Contains reports whether p lies inside or on the box.
func (b AABB) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// RayAABB returns the entry distance and face normal of a ray against a
// box using the slab method. A ray starting inside reports distance 0 and
// a normal facing back along the ray.
func RayAABB(origin, dir mgl64.Vec3, box AABB, maxDist float64) (float64, mgl64.Vec3, bool) {
	tmin, tmax := 0.0, maxDist
	var normal mgl64.Vec3
	axis := -1

	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < box.Min[i] || origin[i] > box.Max[i] {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (box.Min[i] - origin[i]) * inv
		t2 := (box.Max[i] - origin[i]) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin = t1
			axis = i
			normal = mgl64.Vec3{}
			normal[i] = sign
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, mgl64.Vec3{}, false
		}
	}

	if axis < 0 {
		// Origin inside the box.
		return 0, dir.Mul(-1), true
	}
	return tmin, normal, true
}

// RaySphere returns the first intersection distance of a ray with a
// sphere within maxDist.
func RaySphere(origin, dir, center mgl64.Vec3, radius, maxDist float64) (float64, mgl64.Vec3, bool) {
	f := origin.Sub(center)
	a := dir.Dot(dir)
	b := 2 * f.Dot(dir)
	c := f.Dot(f) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 || a == 0 {
		return 0, mgl64.Vec3{}, false
	}
	disc = math.Sqrt(disc)
	t1 := (-b - disc) / (2 * a)
	t2 := (-b + disc) / (2 * a)

	var t float64
	switch {
	case t1 >= 0:
		t = t1
	case t2 >= 0:
		// Inside the sphere.
		return 0, dir.Mul(-1), true
	default:
		return 0, mgl64.Vec3{}, false
	}
	if t > maxDist {
		return 0, mgl64.Vec3{}, false
	}
	n := origin.Add(dir.Mul(t)).Sub(center)
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	return t, n, true
}
