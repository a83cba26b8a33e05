package main

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRayAABB(t *testing.T) {
	box := NewAABB(mgl64.Vec3{-1, -1, 4}, mgl64.Vec3{1, 1, 6})

	d, n, ok := RayAABB(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, box, 40)
	if !ok {
		t.Fatal("ray should hit box")
	}
	if math.Abs(d-4) > 1e-9 {
		t.Errorf("expected distance 4, got %f", d)
	}
	if n != (mgl64.Vec3{0, 0, -1}) {
		t.Errorf("expected -Z normal, got %v", n)
	}

	if _, _, ok := RayAABB(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, box, 3); ok {
		t.Error("box beyond max range should miss")
	}
	if _, _, ok := RayAABB(mgl64.Vec3{}, mgl64.Vec3{0, 0, -1}, box, 40); ok {
		t.Error("box behind origin should miss")
	}
	if _, _, ok := RayAABB(mgl64.Vec3{5, 0, 0}, mgl64.Vec3{0, 0, 1}, box, 40); ok {
		t.Error("parallel ray outside slab should miss")
	}
}

func TestRayAABBFromInside(t *testing.T) {
	box := NewAABB(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1})
	d, _, ok := RayAABB(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, box, 10)
	if !ok || d != 0 {
		t.Errorf("expected hit at 0 from inside, got %f %v", d, ok)
	}
}

func TestRaySphere(t *testing.T) {
	d, n, ok := RaySphere(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{10, 0, 0}, 1, 40)
	if !ok {
		t.Fatal("ray should hit sphere")
	}
	if math.Abs(d-9) > 1e-9 {
		t.Errorf("expected distance 9, got %f", d)
	}
	if math.Abs(n[0]+1) > 1e-9 {
		t.Errorf("expected -X normal, got %v", n)
	}

	if _, _, ok := RaySphere(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{10, 3, 0}, 1, 40); ok {
		t.Error("ray should pass beside sphere")
	}
	if _, _, ok := RaySphere(mgl64.Vec3{}, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{10, 0, 0}, 1, 40); ok {
		t.Error("sphere behind origin should miss")
	}
}
