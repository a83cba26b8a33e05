package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fps-server/ballistics"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Weapon.MagazineSize != 5 || cfg.Weapon.MaxRange != 40 || cfg.Weapon.ReloadTime != 2.35 {
		t.Errorf("unexpected weapon defaults %+v", cfg.Weapon)
	}
	if cfg.Ballistics.FalloffDistance != ballistics.DefaultFalloffDistance {
		t.Errorf("falloff = %v", cfg.Ballistics.FalloffDistance)
	}
	if cfg.Player.MaxHealth != 20 || cfg.Enemy.Damage != 34 {
		t.Errorf("unexpected health/damage defaults")
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	path := writeConfig(t, `
tick_rate: 30
weapon:
  damage: 25
ballistics:
  falloff_distance: 20
  tracer_scale: 50
arena:
  spawn_points:
    - pos: {x: 1, z: 2}
      yaw: 0.5
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TickRate != 30 || cfg.Weapon.Damage != 25 {
		t.Errorf("overlay not applied: tick %d damage %v", cfg.TickRate, cfg.Weapon.Damage)
	}
	if cfg.Weapon.Penetration != 10 {
		t.Errorf("untouched fields should keep defaults, penetration %v", cfg.Weapon.Penetration)
	}
	if cfg.Ballistics.FalloffDistance != 20 || cfg.Ballistics.SurfaceAbsorption != ballistics.DefaultSurfaceAbsorption {
		t.Errorf("ballistics = %+v", cfg.Ballistics)
	}
	if len(cfg.Arena.SpawnPoints) != 1 || cfg.Arena.SpawnPoints[0].Pos.Z != 2 {
		t.Errorf("spawn points = %+v", cfg.Arena.SpawnPoints)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"zero tick rate":     "tick_rate: 0\n",
		"negative damage":    "weapon:\n  damage: -1\n",
		"zero penetration":   "weapon:\n  penetration: 0\n",
		"zero falloff":       "ballistics:\n  falloff_distance: 0\n",
		"broadcast too fast": "broadcast_rate: 1000\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, body)); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
