package main

// Gun is the firing-control state a shooter carries between shots.
type Gun struct {
	Magazine int
	FireCD   float64 // seconds until the next shot is allowed
	ReloadCD float64 // seconds until the reload finishes
}

func NewGun(cfg WeaponConfig) Gun {
	return Gun{Magazine: cfg.MagazineSize}
}

// Tick counts the cooldowns down.
func (g *Gun) Tick(dt float64) {
	if g.FireCD > 0 {
		g.FireCD = max(0, g.FireCD-dt)
	}
	if g.ReloadCD > 0 {
		g.ReloadCD = max(0, g.ReloadCD-dt)
	}
}

// Busy is true while firing or reloading.
func (g *Gun) Busy() bool {
	return g.FireCD > 0 || g.ReloadCD > 0
}

// TryFire consumes a round if the gun is ready.
func (g *Gun) TryFire(cfg WeaponConfig) bool {
	if g.Busy() || g.Magazine <= 0 {
		return false
	}
	g.Magazine--
	g.FireCD = cfg.FireTime
	return true
}

// Reload starts a reload unless the magazine is already full. The
// magazine is refilled immediately and the gun stays busy for the reload
// time.
func (g *Gun) Reload(cfg WeaponConfig) bool {
	if g.Busy() || g.Magazine >= cfg.MagazineSize {
		return false
	}
	g.Magazine = cfg.MagazineSize
	g.ReloadCD = cfg.ReloadTime
	return true
}

// AutoReload reloads an empty magazine once the gun is idle.
func (g *Gun) AutoReload(cfg WeaponConfig) bool {
	if g.Magazine > 0 {
		return false
	}
	return g.Reload(cfg)
}

// Reset refills the gun, e.g. on respawn.
func (g *Gun) Reset(cfg WeaponConfig) {
	*g = NewGun(cfg)
}
