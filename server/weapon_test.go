package main

import "testing"

func TestGunFireCooldown(t *testing.T) {
	cfg := DefaultConfig().Weapon
	g := NewGun(cfg)

	if !g.TryFire(cfg) {
		t.Fatal("fresh gun should fire")
	}
	if g.Magazine != cfg.MagazineSize-1 {
		t.Errorf("expected %d rounds, got %d", cfg.MagazineSize-1, g.Magazine)
	}
	if g.TryFire(cfg) {
		t.Error("should not fire during cooldown")
	}
	g.Tick(cfg.FireTime)
	if !g.TryFire(cfg) {
		t.Error("should fire once cooldown elapsed")
	}
}

func TestGunEmptiesAndAutoReloads(t *testing.T) {
	cfg := DefaultConfig().Weapon
	g := NewGun(cfg)

	for i := 0; i < cfg.MagazineSize; i++ {
		if !g.TryFire(cfg) {
			t.Fatalf("shot %d should fire", i)
		}
		g.Tick(cfg.FireTime)
	}
	if g.TryFire(cfg) {
		t.Error("empty gun should not fire")
	}
	if !g.AutoReload(cfg) {
		t.Fatal("empty idle gun should auto reload")
	}
	if g.Magazine != cfg.MagazineSize {
		t.Errorf("expected full magazine, got %d", g.Magazine)
	}
	if g.TryFire(cfg) {
		t.Error("should not fire while reloading")
	}
	g.Tick(cfg.ReloadTime)
	if !g.TryFire(cfg) {
		t.Error("should fire after reload")
	}
}

func TestGunReloadRules(t *testing.T) {
	cfg := DefaultConfig().Weapon
	g := NewGun(cfg)

	if g.Reload(cfg) {
		t.Error("full magazine should not reload")
	}
	g.TryFire(cfg)
	if g.Reload(cfg) {
		t.Error("should not reload during fire cooldown")
	}
	g.Tick(cfg.FireTime)
	if !g.Reload(cfg) {
		t.Error("partial magazine should reload")
	}
	if g.AutoReload(cfg) {
		t.Error("auto reload only applies to an empty magazine")
	}
}
