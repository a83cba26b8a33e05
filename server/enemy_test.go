package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestEnemy(cfg *Config) *Enemy {
	// Facing +Z from the origin.
	return NewEnemy(EnemyDef{ID: "e1"}, &cfg.Enemy)
}

func TestEnemyCanSee(t *testing.T) {
	cfg := DefaultConfig()
	e := newTestEnemy(&cfg)

	tests := []struct {
		name string
		s    Sighting
		want bool
	}{
		{"ahead", Sighting{Pos: mgl64.Vec3{0, 0, 10}}, true},
		{"too far", Sighting{Pos: mgl64.Vec3{0, 0, 60}}, false},
		{"behind", Sighting{Pos: mgl64.Vec3{0, 0, -10}}, false},
		{"behind but close", Sighting{Pos: mgl64.Vec3{0, 0, -2}}, true},
		{"outside cone", Sighting{Pos: mgl64.Vec3{10, 0, -1}}, false},
		{"inside cone", Sighting{Pos: mgl64.Vec3{5, 0, 10}}, true},
		{"still prop", Sighting{Pos: mgl64.Vec3{0, 0, 10}, Disguised: true}, false},
		{"moving prop", Sighting{Pos: mgl64.Vec3{0, 0, 10}, Disguised: true, Speed: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.CanSee(tt.s); got != tt.want {
				t.Errorf("CanSee = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnemyPatrolsWalkPoints(t *testing.T) {
	cfg := DefaultConfig()
	e := newTestEnemy(&cfg)
	walk := []mgl64.Vec3{{0, 0, 3}, {3, 0, 3}}

	for i := 0; i < 200; i++ {
		if shot := e.Update(0.05, nil, walk, nil); shot != "" {
			t.Fatal("patrolling enemy should not shoot")
		}
		if e.Mode != EnemyPatrol {
			t.Fatal("enemy without targets should patrol")
		}
		if e.WalkIndex == 1 {
			break
		}
	}
	if e.WalkIndex != 1 {
		t.Errorf("enemy should have reached the first walk point, at %v", e.Pos)
	}
}

func TestEnemyEngagesAndShoots(t *testing.T) {
	cfg := DefaultConfig()
	e := newTestEnemy(&cfg)
	target := []Sighting{{ID: "p1", Pos: mgl64.Vec3{0, 0, 5}}}

	shot := e.Update(0.05, target, nil, nil)
	if e.Mode != EnemyEngage || e.TargetID != "p1" {
		t.Fatalf("expected engage on p1, got %s %q", e.Mode, e.TargetID)
	}
	if shot != "p1" {
		t.Fatalf("stationary enemy in range should shoot, got %q", shot)
	}
	if again := e.Update(0.05, target, nil, nil); again != "" {
		t.Error("should wait for the fire interval")
	}
	if e.Mode != EnemyEngage {
		t.Error("should stay engaged")
	}
}

func TestEnemyClosesDistanceBeforeShooting(t *testing.T) {
	cfg := DefaultConfig()
	e := newTestEnemy(&cfg)
	target := []Sighting{{ID: "p1", Pos: mgl64.Vec3{0, 0, 30}}}

	if shot := e.Update(0.1, target, nil, nil); shot != "" {
		t.Error("moving enemy should not shoot")
	}
	if !e.Moving || e.Pos[2] <= 0 {
		t.Errorf("enemy should advance, pos=%v", e.Pos)
	}
}

func TestEnemyIgnoresHiddenTargets(t *testing.T) {
	cfg := DefaultConfig()
	e := newTestEnemy(&cfg)
	target := []Sighting{{ID: "p1", Pos: mgl64.Vec3{0, 0, 5}}}

	e.Update(0.05, target, nil, func(mgl64.Vec3) bool { return false })
	if e.Mode != EnemyPatrol {
		t.Error("target behind a wall should not be engaged")
	}
}

func TestEnemyDeathAndRespawn(t *testing.T) {
	cfg := DefaultConfig()
	e := newTestEnemy(&cfg)
	e.Pos = mgl64.Vec3{4, 0, 4}

	if !e.TakeDamage(cfg.Enemy.MaxHealth) {
		t.Fatal("enemy should die")
	}
	if e.Active() {
		t.Error("dead enemy should not be hittable")
	}
	e.Update(cfg.Enemy.RespawnDelay, nil, nil, nil)
	if !e.Alive || e.Pos != e.Home || e.Health != cfg.Enemy.MaxHealth {
		t.Errorf("enemy should respawn at home, got alive=%v pos=%v", e.Alive, e.Pos)
	}
}
