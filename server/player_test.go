package main

import (
	"math"
	"math/rand"
	"testing"
)

func newTestPlayer(cfg *Config) *Player {
	return NewPlayer("p1", "Tester", cfg)
}

func TestPlayerMovesForward(t *testing.T) {
	cfg := DefaultConfig()
	p := newTestPlayer(&cfg)
	p.ApplyInput(PlayerInput{MoveZ: 1})

	p.Update(1)
	if math.Abs(p.Pos[2]-cfg.Player.MoveSpeed) > 1e-9 {
		t.Errorf("expected z=%f, got %f", cfg.Player.MoveSpeed, p.Pos[2])
	}
	if p.Pos[0] != 0 {
		t.Errorf("expected no strafe, got x=%f", p.Pos[0])
	}
}

func TestPlayerDiagonalSpeedCapped(t *testing.T) {
	cfg := DefaultConfig()
	p := newTestPlayer(&cfg)
	p.ApplyInput(PlayerInput{MoveX: 1, MoveZ: 1})
	p.Update(0.1)
	if s := p.Speed(); math.Abs(s-cfg.Player.MoveSpeed) > 1e-9 {
		t.Errorf("expected speed %f, got %f", cfg.Player.MoveSpeed, s)
	}
}

func TestPlayerJumpAndLand(t *testing.T) {
	cfg := DefaultConfig()
	p := newTestPlayer(&cfg)
	p.ApplyInput(PlayerInput{Jump: true})

	p.Update(0.05)
	if p.OnGround || p.Pos[1] <= 0 {
		t.Fatalf("player should be airborne, y=%f", p.Pos[1])
	}
	p.ApplyInput(PlayerInput{})
	for i := 0; i < 200 && !p.OnGround; i++ {
		p.Update(0.05)
	}
	if !p.OnGround || p.Pos[1] != 0 {
		t.Errorf("player should land, y=%f", p.Pos[1])
	}
}

func TestPlayerTakeDamageAndRespawn(t *testing.T) {
	cfg := DefaultConfig()
	p := newTestPlayer(&cfg)

	if p.TakeDamage(5) {
		t.Error("should survive 5 damage")
	}
	if !p.TakeDamage(100) {
		t.Fatal("should die from 100 damage")
	}
	if p.TakeDamage(10) {
		t.Error("dead player should not die again")
	}
	if p.ReadyToRespawn() {
		t.Error("respawn delay should be pending")
	}
	p.Update(cfg.Player.RespawnDelay)
	if !p.ReadyToRespawn() {
		t.Fatal("respawn delay should have elapsed")
	}

	p.Gun.Magazine = 0
	p.Respawn(cfg.Arena.SpawnPoints[2], 2, cfg.Weapon)
	if !p.Alive || p.Health != p.MaxHealth {
		t.Error("should be alive at full health")
	}
	if p.Pos != cfg.Arena.SpawnPoints[2].Pos.Vec() || p.LastSpawn != 2 {
		t.Errorf("unexpected spawn state pos=%v last=%d", p.Pos, p.LastSpawn)
	}
	if p.Gun.Magazine != cfg.Weapon.MagazineSize {
		t.Error("gun should be refilled")
	}
}

func TestPlayerInputLatchesFire(t *testing.T) {
	cfg := DefaultConfig()
	p := newTestPlayer(&cfg)
	p.ApplyInput(PlayerInput{Fire: true})
	p.ApplyInput(PlayerInput{})
	if !p.firePending {
		t.Error("fire should stay latched until consumed")
	}
}

func TestPickSpawnAvoidsLast(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	points := DefaultConfig().Arena.SpawnPoints
	for i := 0; i < 100; i++ {
		idx, err := PickSpawn(rng, points, 1)
		if err != nil {
			t.Fatal(err)
		}
		if idx == 1 {
			t.Fatal("picked the previous spawn point")
		}
	}
}

func TestPickSpawnEdgeCases(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := PickSpawn(rng, nil, -1); err != ErrNoSpawnPoints {
		t.Errorf("expected ErrNoSpawnPoints, got %v", err)
	}
	idx, err := PickSpawn(rng, []SpawnPoint{{}}, 0)
	if err != nil || idx != 0 {
		t.Errorf("single spawn should be reused, got %d %v", idx, err)
	}
}
